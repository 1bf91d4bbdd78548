package identity

import (
	"context"
	"testing"
)

func TestClient(t *testing.T) {
	if _, ok := Client(context.Background()); ok {
		t.Fatal("expected no client on empty context")
	}
	ctx := WithClient(context.Background(), "mobile")
	if c, ok := Client(ctx); !ok || c != "mobile" {
		t.Fatalf("unexpected client: %q %v", c, ok)
	}
}
