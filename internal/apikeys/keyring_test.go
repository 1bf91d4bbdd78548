package apikeys

import (
	"context"
	"errors"
	"testing"

	"github.com/PabloPavan/alerta_api/internal/apperrors"
)

func TestKeyringAuthenticate(t *testing.T) {
	k := NewKeyring(map[string]string{ClientWeb: "web-key", ClientMobile: " mobile-key "})

	client, err := k.Authenticate(context.Background(), "web-key")
	if err != nil || client != ClientWeb {
		t.Fatalf("web key: client=%q err=%v", client, err)
	}
	client, err = k.Authenticate(context.Background(), "mobile-key")
	if err != nil || client != ClientMobile {
		t.Fatalf("mobile key: client=%q err=%v", client, err)
	}
}

func TestKeyringRejects(t *testing.T) {
	k := NewKeyring(map[string]string{ClientWeb: "web-key", ClientMobile: ""})
	if k.Len() != 1 {
		t.Fatalf("expected blank key skipped, got %d entries", k.Len())
	}

	for _, token := range []string{"", "  ", "web-key-2", "WEB-KEY"} {
		_, err := k.Authenticate(context.Background(), token)
		if !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("token %q: expected ErrInvalidKey, got %v", token, err)
		}
		if apperrors.KindOf(err) != apperrors.KindUnauthorized {
			t.Fatalf("unexpected kind: %s", apperrors.KindOf(err))
		}
	}

	var nilRing *Keyring
	if _, err := nilRing.Authenticate(context.Background(), "web-key"); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("nil keyring should reject, got %v", err)
	}
}
