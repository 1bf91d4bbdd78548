package reports

import (
	"context"
	"time"
)

// Cache is a read-through store for reports. Implementations may be lossy;
// the service never fails a call because of a cache error.
type Cache interface {
	GetByID(ctx context.Context, id int64) (*Report, bool, error)
	SetByID(ctx context.Context, r *Report, ttl time.Duration) error
	DeleteByID(ctx context.Context, id int64) error
	GetList(ctx context.Context) ([]*Report, bool, error)
	SetList(ctx context.Context, list []*Report, ttl time.Duration) error
	DeleteList(ctx context.Context) error
}
