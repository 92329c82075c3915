// Package control resolves the access-control record that applies to a user.
package control

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"user-control/internal/domain"
)

// DefaultBatchLimit bounds LookupMany when no limit is configured.
const DefaultBatchLimit = 8

// Service looks up control records and administers the UserControl table.
// It holds no mutable state and is safe for concurrent use.
type Service struct {
	repo       domain.ControlRepository
	logger     *slog.Logger
	batchLimit int
}

// NewService creates a new Service. A nil logger uses slog.Default();
// batchLimit <= 0 uses DefaultBatchLimit.
func NewService(repo domain.ControlRepository, logger *slog.Logger, batchLimit int) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if batchLimit <= 0 {
		batchLimit = DefaultBatchLimit
	}
	return &Service{repo: repo, logger: logger, batchLimit: batchLimit}
}

// Lookup returns the control record for key: the user's own row if present,
// otherwise the fallback row. The fallback row must exist either way; when
// it is missing Lookup returns *domain.NoFallbackControlError.
func (s *Service) Lookup(ctx context.Context, key string) (*domain.ControlRecord, error) {
	if err := domain.ValidateLookupKey(key); err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "looking up user control",
		"key", key,
		"filter", domain.LookupFilter,
	)

	records, err := s.repo.FindForKey(ctx, key)
	if err != nil {
		return nil, err
	}
	return domain.ResolveControl(key, records)
}

// LookupMany resolves each key concurrently and returns the results in the
// order of keys. The first failure cancels the rest.
func (s *Service) LookupMany(ctx context.Context, keys []string) ([]*domain.ControlRecord, error) {
	out := make([]*domain.ControlRecord, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.batchLimit)

	for i := range keys {
		g.Go(func() error {
			rec, err := s.Lookup(gctx, keys[i])
			if err != nil {
				return fmt.Errorf("lookup %q: %w", keys[i], err)
			}
			out[i] = rec
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// CheckFallback verifies that the fallback row exists.
func (s *Service) CheckFallback(ctx context.Context) (*domain.ControlRecord, error) {
	return s.Lookup(ctx, domain.FallbackEmail)
}
