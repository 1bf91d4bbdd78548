package db

import (
	"context"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// Schema returns the DDL applied by EnsureSchema.
func Schema() string {
	return schemaSQL
}

// EnsureSchema creates missing tables and indexes. Every statement is
// idempotent so it is safe to run on each start.
func (b *Base) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 4*b.timeout)
	defer cancel()

	if _, err := b.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
