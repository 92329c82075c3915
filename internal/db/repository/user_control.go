package repository

import (
	"context"
	"database/sql"
	"fmt"

	dbstore "user-control/internal/db/dbstore"
	"user-control/internal/db/mapper"
	"user-control/internal/domain"
)

// ControlRepo reads the UserControl table through the read pool and writes
// through the write pool.
type ControlRepo struct {
	read    *dbstore.Queries
	write   *dbstore.Queries
	writeDB *sql.DB
}

// NewControlRepo creates a ControlRepo. readDB may be nil, in which case
// reads also go to writeDB.
func NewControlRepo(writeDB, readDB *sql.DB) *ControlRepo {
	if readDB == nil {
		readDB = writeDB
	}
	return &ControlRepo{
		read:    dbstore.New(readDB),
		write:   dbstore.New(writeDB),
		writeDB: writeDB,
	}
}

var _ domain.ControlRepository = (*ControlRepo)(nil)

// FindForKey runs the single disjunctive lookup query.
func (r *ControlRepo) FindForKey(ctx context.Context, key string) ([]domain.ControlRecord, error) {
	rows, err := r.read.ListControlsForKey(ctx, key, domain.FallbackEmail)
	if err != nil {
		return nil, fmt.Errorf("query user control: %w", mapDBError(err))
	}
	return mapper.ControlsFromDB(rows), nil
}

func (r *ControlRepo) List(ctx context.Context) ([]domain.ControlRecord, error) {
	rows, err := r.read.ListControls(ctx)
	if err != nil {
		return nil, fmt.Errorf("list user control: %w", mapDBError(err))
	}
	return mapper.ControlsFromDB(rows), nil
}

func (r *ControlRepo) Columns(ctx context.Context) ([]string, error) {
	cols, err := r.read.ListControlColumns(ctx)
	if err != nil {
		return nil, fmt.Errorf("list user control columns: %w", err)
	}
	if len(cols) == 0 {
		return nil, domain.ErrNotFound("table UserControl does not exist")
	}
	return cols, nil
}

// Upsert writes all records in one transaction.
func (r *ControlRepo) Upsert(ctx context.Context, records []domain.ControlRecord) error {
	tx, err := r.writeDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	q := r.write.WithTx(tx)
	for _, rec := range records {
		if err := q.UpsertControl(ctx, mapper.ControlToDBParams(rec)); err != nil {
			return fmt.Errorf("upsert %q: %w", rec.Email, mapDBError(err))
		}
	}
	return tx.Commit()
}

func (r *ControlRepo) Delete(ctx context.Context, email string) error {
	n, err := r.write.DeleteControl(ctx, email)
	if err != nil {
		return mapDBError(err)
	}
	if n == 0 {
		return domain.ErrNotFound("control %q not found", email)
	}
	return nil
}
