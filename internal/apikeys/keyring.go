// Package apikeys checks the X-API-Key header value against the keys
// configured for the web and mobile clients.
package apikeys

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"strings"

	"github.com/PabloPavan/alerta_api/internal/apperrors"
)

const (
	ClientWeb    = "web"
	ClientMobile = "mobile"
)

var ErrInvalidKey = apperrors.New(apperrors.KindUnauthorized, "API Key is missing or invalid")

type entry struct {
	client string
	digest [sha256.Size]byte
}

type Keyring struct {
	entries []entry
}

// NewKeyring maps client labels to their keys. Blank keys are skipped.
func NewKeyring(keys map[string]string) *Keyring {
	k := &Keyring{}
	for client, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		k.entries = append(k.entries, entry{client: client, digest: HashToken(key)})
	}
	return k
}

func HashToken(token string) [sha256.Size]byte {
	return sha256.Sum256([]byte(token))
}

// Authenticate returns the label of the client owning token. Every configured
// key is compared so the time taken does not depend on which one matched.
func (k *Keyring) Authenticate(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if k == nil || token == "" {
		return "", ErrInvalidKey
	}

	digest := HashToken(token)
	client := ""
	for _, e := range k.entries {
		if subtle.ConstantTimeCompare(digest[:], e.digest[:]) == 1 {
			client = e.client
		}
	}
	if client == "" {
		return "", ErrInvalidKey
	}
	return client, nil
}

func (k *Keyring) Len() int {
	if k == nil {
		return 0
	}
	return len(k.entries)
}
