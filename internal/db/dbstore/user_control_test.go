package dbstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaldb "user-control/internal/db"
)

func TestBuildUpsert(t *testing.T) {
	q, err := buildUpsert([]string{"email", "plan"})
	require.NoError(t, err)
	assert.Equal(t,
		`INSERT INTO UserControl ("email", "plan") VALUES (?, ?) ON CONFLICT(email) DO UPDATE SET "plan" = excluded."plan", "updated_at" = datetime('now')`,
		q)

	q, err = buildUpsert([]string{"email", "updated_at"})
	require.NoError(t, err)
	assert.NotContains(t, q, "datetime('now')")

	_, err = buildUpsert([]string{"plan"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email column is required")

	_, err = buildUpsert([]string{"email", `pl"an`})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid column name")
}

func TestQueries_ListControlsForKey(t *testing.T) {
	writeDB, readDB := internaldb.OpenTestSQLite(t)
	ctx := context.Background()
	w := New(writeDB)

	for _, row := range []UpsertControlParams{
		{Columns: []string{"email", "plan"}, Values: []interface{}{"fallback", "default"}},
		{Columns: []string{"email", "plan", "daily_quota"}, Values: []interface{}{"a@x.com", "pro", 50}},
		{Columns: []string{"email", "plan"}, Values: []interface{}{"other", "free"}},
	} {
		require.NoError(t, w.UpsertControl(ctx, row))
	}

	rows, err := New(readDB).ListControlsForKey(ctx, "a@x.com", "fallback")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	emails := map[string]UserControl{}
	for _, r := range rows {
		v, ok := r.Value("email")
		require.True(t, ok)
		emails[v.(string)] = r
	}
	assert.Contains(t, emails, "fallback")
	assert.Contains(t, emails, "a@x.com")
	assert.NotContains(t, emails, "other")

	quota, ok := emails["a@x.com"].Value("daily_quota")
	require.True(t, ok)
	assert.Equal(t, int64(50), quota)

	models, ok := emails["a@x.com"].Value("allowed_models")
	require.True(t, ok)
	assert.Nil(t, models)
}

func TestQueries_UpsertUpdatesListedColumnsOnly(t *testing.T) {
	writeDB, _ := internaldb.OpenTestSQLite(t)
	ctx := context.Background()
	q := New(writeDB)

	require.NoError(t, q.UpsertControl(ctx, UpsertControlParams{
		Columns: []string{"email", "plan", "daily_quota"},
		Values:  []interface{}{"a@x.com", "pro", 50},
	}))
	require.NoError(t, q.UpsertControl(ctx, UpsertControlParams{
		Columns: []string{"email", "plan"},
		Values:  []interface{}{"a@x.com", "team"},
	}))

	rows, err := q.ListControls(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	plan, _ := rows[0].Value("plan")
	quota, _ := rows[0].Value("daily_quota")
	assert.Equal(t, "team", plan)
	assert.Equal(t, int64(50), quota)
}

func TestQueries_UpsertMismatchedParams(t *testing.T) {
	writeDB, _ := internaldb.OpenTestSQLite(t)

	err := New(writeDB).UpsertControl(context.Background(), UpsertControlParams{
		Columns: []string{"email", "plan"},
		Values:  []interface{}{"a@x.com"},
	})
	require.Error(t, err)
}

func TestQueries_ListControlColumns(t *testing.T) {
	_, readDB := internaldb.OpenTestSQLite(t)

	cols, err := New(readDB).ListControlColumns(context.Background())
	require.NoError(t, err)
	assert.Equal(t,
		[]string{"email", "plan", "daily_quota", "allowed_models", "created_at", "updated_at"},
		cols)
}

func TestQueries_DeleteControl(t *testing.T) {
	writeDB, _ := internaldb.OpenTestSQLite(t)
	ctx := context.Background()
	q := New(writeDB)

	require.NoError(t, q.UpsertControl(ctx, UpsertControlParams{
		Columns: []string{"email"}, Values: []interface{}{"a@x.com"},
	}))

	n, err := q.DeleteControl(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = q.DeleteControl(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}
