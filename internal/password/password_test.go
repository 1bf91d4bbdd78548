package password

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashRejectsEmpty(t *testing.T) {
	if _, err := Hash(""); !errors.Is(err, ErrEmptyPassword) {
		t.Fatalf("expected ErrEmptyPassword, got: %v", err)
	}
}

func TestHashRejectsInputOverBcryptLimit(t *testing.T) {
	cases := map[string]string{
		"ascii 73 bytes":     strings.Repeat("a", 73),
		"multibyte 50 runes": strings.Repeat("é", 50),
		"ascii 80 bytes":     strings.Repeat("a", 80),
	}
	for name, plain := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Hash(plain); !errors.Is(err, ErrTooLong) {
				t.Fatalf("expected ErrTooLong, got: %v", err)
			}
		})
	}
}

func TestHashAcceptsExactlyMaxBytes(t *testing.T) {
	plain := strings.Repeat("é", MaxBytes/2)
	if TooLong(plain) {
		t.Fatal("expected 72 bytes to fit")
	}
	h, err := Hash(plain)
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	if !Verify(plain, h) {
		t.Fatal("expected password to verify")
	}
}

func TestHashIsSaltedAndVerifiable(t *testing.T) {
	h1, err := Hash("123456")
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	h2, err := Hash("123456")
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	if h1 == h2 {
		t.Fatal("expected different hashes for the same input")
	}

	cost, err := bcrypt.Cost([]byte(h1))
	if err != nil {
		t.Fatalf("cost error: %v", err)
	}
	if cost != Cost {
		t.Fatalf("unexpected cost: %d", cost)
	}

	if !Verify("123456", h1) || !Verify("123456", h2) {
		t.Fatal("expected password to verify")
	}
	if Verify("654321", h1) {
		t.Fatal("expected wrong password to fail")
	}
}

func TestVerifyNeverFailsLoudly(t *testing.T) {
	cases := []struct {
		name  string
		plain string
		hash  string
	}{
		{"empty plain", "", "$2a$12$abc"},
		{"empty hash", "secret", ""},
		{"malformed hash", "secret", "not-a-bcrypt-hash"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if Verify(tc.plain, tc.hash) {
				t.Fatal("expected false")
			}
		})
	}
}
