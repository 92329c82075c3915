package domain

import "context"

// ControlRepository provides access to the UserControl table.
type ControlRepository interface {
	// FindForKey returns the rows whose email equals key or FallbackEmail,
	// fetched with a single query.
	FindForKey(ctx context.Context, key string) ([]ControlRecord, error)
	List(ctx context.Context) ([]ControlRecord, error)
	Columns(ctx context.Context) ([]string, error)
	Upsert(ctx context.Context, records []ControlRecord) error
	Delete(ctx context.Context, email string) error
}
