// Package crud is the shared service and Postgres repository behind the plain
// CRUD resources (shelters, alerts, risk zones).
package crud

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

var ErrNotFound = errors.New("record not found")

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || errors.Is(err, ErrNotFound)
}

// Entity holds the per-resource rules applied by Service.
type Entity[T any] interface {
	// Label names the resource in error messages, e.g. "shelter".
	Label() string
	// Normalize canonicalizes input before validation.
	Normalize(v *T)
	Validate(v *T) error
	PrepareCreate(v *T, now time.Time)
	// PrepareUpdate fills v from the stored record where the update leaves
	// server-managed fields unset.
	PrepareUpdate(existing, v *T, now time.Time)
}

type Store[T any] interface {
	Create(ctx context.Context, v *T) error
	GetByID(ctx context.Context, id int64) (*T, error)
	List(ctx context.Context) ([]*T, error)
	Update(ctx context.Context, id int64, v *T) error
	Delete(ctx context.Context, id int64) error
}
