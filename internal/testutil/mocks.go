// Package testutil provides shared mock implementations of domain interfaces
// for use in tests across the codebase.
package testutil

import (
	"context"
	"sync"

	"user-control/internal/domain"
)

// MockControlRepo implements domain.ControlRepository for testing.
// Unset functions panic, so a test only stubs what it expects to be called.
type MockControlRepo struct {
	FindForKeyFn func(ctx context.Context, key string) ([]domain.ControlRecord, error)
	ListFn       func(ctx context.Context) ([]domain.ControlRecord, error)
	ColumnsFn    func(ctx context.Context) ([]string, error)
	UpsertFn     func(ctx context.Context, records []domain.ControlRecord) error
	DeleteFn     func(ctx context.Context, email string) error

	mu   sync.Mutex
	Keys []string // keys passed to FindForKey, in call order
}

// FindForKey implements the interface method for testing.
func (m *MockControlRepo) FindForKey(ctx context.Context, key string) ([]domain.ControlRecord, error) {
	m.mu.Lock()
	m.Keys = append(m.Keys, key)
	m.mu.Unlock()
	if m.FindForKeyFn != nil {
		return m.FindForKeyFn(ctx, key)
	}
	panic("unexpected call to MockControlRepo.FindForKey")
}

// List implements the interface method for testing.
func (m *MockControlRepo) List(ctx context.Context) ([]domain.ControlRecord, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx)
	}
	panic("unexpected call to MockControlRepo.List")
}

// Columns implements the interface method for testing.
func (m *MockControlRepo) Columns(ctx context.Context) ([]string, error) {
	if m.ColumnsFn != nil {
		return m.ColumnsFn(ctx)
	}
	panic("unexpected call to MockControlRepo.Columns")
}

// Upsert implements the interface method for testing.
func (m *MockControlRepo) Upsert(ctx context.Context, records []domain.ControlRecord) error {
	if m.UpsertFn != nil {
		return m.UpsertFn(ctx, records)
	}
	panic("unexpected call to MockControlRepo.Upsert")
}

// Delete implements the interface method for testing.
func (m *MockControlRepo) Delete(ctx context.Context, email string) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, email)
	}
	panic("unexpected call to MockControlRepo.Delete")
}

// CallCount returns how many times FindForKey was called.
func (m *MockControlRepo) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Keys)
}

// StaticTable returns a FindForKeyFn that filters records the way the SQL
// store does: email equal to the key or to the fallback sentinel.
func StaticTable(records ...domain.ControlRecord) func(context.Context, string) ([]domain.ControlRecord, error) {
	return func(_ context.Context, key string) ([]domain.ControlRecord, error) {
		var out []domain.ControlRecord
		for _, r := range records {
			if r.Email == key || r.Email == domain.FallbackEmail {
				out = append(out, r)
			}
		}
		return out, nil
	}
}
