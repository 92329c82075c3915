package dbstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

const tableUserControl = "UserControl"

const listControlsForKey = `SELECT * FROM UserControl WHERE email = ?1 OR email = ?2`

// ListControlsForKey returns every row whose email is key or sentinel.
func (q *Queries) ListControlsForKey(ctx context.Context, key, sentinel string) ([]UserControl, error) {
	rows, err := q.db.QueryContext(ctx, listControlsForKey, key, sentinel)
	if err != nil {
		return nil, err
	}
	return scanUserControls(rows)
}

const listControls = `SELECT * FROM UserControl ORDER BY email`

// ListControls returns the whole table ordered by email.
func (q *Queries) ListControls(ctx context.Context) ([]UserControl, error) {
	rows, err := q.db.QueryContext(ctx, listControls)
	if err != nil {
		return nil, err
	}
	return scanUserControls(rows)
}

const listControlColumns = `SELECT name FROM pragma_table_info('UserControl') ORDER BY cid`

// ListControlColumns returns the table's column names in declaration order.
func (q *Queries) ListControlColumns(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listControlColumns)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

// UpsertControlParams is one row to insert or update. Columns must include
// "email" and must already have been checked against ListControlColumns.
type UpsertControlParams struct {
	Columns []string
	Values  []interface{}
}

// UpsertControl inserts the row, or updates the listed columns of the row with
// the same email. updated_at is refreshed unless the caller sets it.
func (q *Queries) UpsertControl(ctx context.Context, arg UpsertControlParams) error {
	if len(arg.Columns) != len(arg.Values) {
		return fmt.Errorf("upsert control: %d columns, %d values", len(arg.Columns), len(arg.Values))
	}
	query, err := buildUpsert(arg.Columns)
	if err != nil {
		return err
	}
	_, err = q.db.ExecContext(ctx, query, arg.Values...)
	return err
}

const deleteControl = `DELETE FROM UserControl WHERE email = ?`

// DeleteControl removes the row for email and reports how many rows went.
func (q *Queries) DeleteControl(ctx context.Context, email string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteControl, email)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func buildUpsert(columns []string) (string, error) {
	hasEmail := false
	setUpdatedAt := true
	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	var sets []string

	for i, c := range columns {
		if c == "" || strings.ContainsRune(c, '"') {
			return "", fmt.Errorf("upsert control: invalid column name %q", c)
		}
		quoted[i] = `"` + c + `"`
		placeholders[i] = "?"
		switch c {
		case "email":
			hasEmail = true
			continue
		case "updated_at":
			setUpdatedAt = false
		}
		sets = append(sets, fmt.Sprintf("%s = excluded.%s", quoted[i], quoted[i]))
	}
	if !hasEmail {
		return "", fmt.Errorf("upsert control: email column is required")
	}
	if setUpdatedAt {
		sets = append(sets, `"updated_at" = datetime('now')`)
	}

	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT(email) DO UPDATE SET %s",
		tableUserControl,
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(sets, ", "),
	), nil
}

func scanUserControls(rows *sql.Rows) ([]UserControl, error) {
	defer rows.Close() //nolint:errcheck

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var items []UserControl
	for rows.Next() {
		vals := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		items = append(items, UserControl{Columns: cols, Values: vals})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
