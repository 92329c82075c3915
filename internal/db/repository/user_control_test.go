package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaldb "user-control/internal/db"
	"user-control/internal/domain"
)

func setupControlRepo(t *testing.T) *ControlRepo {
	t.Helper()
	writeDB, readDB := internaldb.OpenTestSQLite(t)
	return NewControlRepo(writeDB, readDB)
}

func control(email, plan string) domain.ControlRecord {
	return domain.ControlRecord{
		Email:   email,
		Columns: map[string]interface{}{"plan": plan},
	}
}

func emails(recs []domain.ControlRecord) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Email)
	}
	return out
}

func TestControlRepo_FindForKey(t *testing.T) {
	repo := setupControlRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, []domain.ControlRecord{
		control("fallback", "default"),
		control("a@x.com", "pro"),
		control("other", "free"),
	}))

	t.Run("user and fallback", func(t *testing.T) {
		recs, err := repo.FindForKey(ctx, "a@x.com")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"fallback", "a@x.com"}, emails(recs))
	})

	t.Run("fallback only", func(t *testing.T) {
		recs, err := repo.FindForKey(ctx, "b@x.com")
		require.NoError(t, err)
		assert.Equal(t, []string{"fallback"}, emails(recs))
	})

	t.Run("never returns unrelated rows", func(t *testing.T) {
		for _, key := range []string{"a@x.com", "b@x.com", "fallback", "x' OR '1'='1"} {
			recs, err := repo.FindForKey(ctx, key)
			require.NoError(t, err)
			assert.NotContains(t, emails(recs), "other", "key %q", key)
		}
	})
}

func TestControlRepo_FindForKey_EmptyTable(t *testing.T) {
	repo := setupControlRepo(t)

	recs, err := repo.FindForKey(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestControlRepo_ListAndDelete(t *testing.T) {
	repo := setupControlRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, []domain.ControlRecord{
		control("fallback", "default"),
		control("a@x.com", "pro"),
	}))

	recs, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a@x.com", "fallback"}, emails(recs))
	assert.Equal(t, "pro", recs[0].Columns["plan"])
	assert.NotEmpty(t, recs[0].Columns["created_at"])

	require.NoError(t, repo.Delete(ctx, "a@x.com"))

	err = repo.Delete(ctx, "a@x.com")
	require.Error(t, err)
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)

	recs, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"fallback"}, emails(recs))
}

func TestControlRepo_UpsertIsAtomic(t *testing.T) {
	repo := setupControlRepo(t)
	ctx := context.Background()

	err := repo.Upsert(ctx, []domain.ControlRecord{
		control("fallback", "default"),
		{Email: "a@x.com", Columns: map[string]interface{}{"no_such_column": 1}},
	})
	require.Error(t, err)

	recs, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestControlRepo_Columns(t *testing.T) {
	repo := setupControlRepo(t)

	cols, err := repo.Columns(context.Background())
	require.NoError(t, err)
	assert.Contains(t, cols, "email")
	assert.Contains(t, cols, "plan")
}

func TestControlRepo_ReadsFallBackToWritePool(t *testing.T) {
	writeDB, _ := internaldb.OpenTestSQLite(t)
	repo := NewControlRepo(writeDB, nil)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, []domain.ControlRecord{control("fallback", "default")}))

	recs, err := repo.FindForKey(ctx, "fallback")
	require.NoError(t, err)
	assert.Equal(t, []string{"fallback"}, emails(recs))
}
