package control

import (
	"context"

	"user-control/internal/domain"
)

// List returns every control record ordered by email.
func (s *Service) List(ctx context.Context) ([]domain.ControlRecord, error) {
	return s.repo.List(ctx)
}

// Import validates records against the table's columns and upserts them in a
// single transaction. Nothing is written if any record is invalid.
func (s *Service) Import(ctx context.Context, records []domain.ControlRecord) error {
	if len(records) == 0 {
		return domain.ErrValidation("no control records to import")
	}

	cols, err := s.repo.Columns(ctx)
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(cols))
	for _, c := range cols {
		known[c] = true
	}

	seen := make(map[string]bool, len(records))
	for _, rec := range records {
		if err := domain.ValidateControlRecord(rec, known); err != nil {
			return err
		}
		if seen[rec.Email] {
			return domain.ErrValidation("duplicate record for %q", rec.Email)
		}
		seen[rec.Email] = true
	}

	if err := s.repo.Upsert(ctx, records); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "user control imported", "records", len(records), "fallback", seen[domain.FallbackEmail])
	return nil
}

// Delete removes the record for email.
func (s *Service) Delete(ctx context.Context, email string) error {
	if err := domain.ValidateLookupKey(email); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, email); err != nil {
		return err
	}
	if email == domain.FallbackEmail {
		s.logger.WarnContext(ctx, "fallback control deleted; lookups will fail until it is restored")
	} else {
		s.logger.InfoContext(ctx, "user control deleted", "email", email)
	}
	return nil
}
