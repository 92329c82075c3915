// Package mapper converts between dbstore rows and domain types.
package mapper

import (
	"fmt"
	"sort"

	dbstore "user-control/internal/db/dbstore"
	"user-control/internal/domain"
)

// ControlFromDB converts a scanned UserControl row into a domain record.
func ControlFromDB(row dbstore.UserControl) domain.ControlRecord {
	cols := make(map[string]interface{}, len(row.Columns))
	for i, c := range row.Columns {
		cols[c] = row.Values[i]
	}
	return domain.ControlRecord{
		Email:   emailOf(cols[domain.ColumnEmail]),
		Columns: cols,
	}
}

// ControlsFromDB converts a slice of rows, preserving order.
func ControlsFromDB(rows []dbstore.UserControl) []domain.ControlRecord {
	out := make([]domain.ControlRecord, len(rows))
	for i, r := range rows {
		out[i] = ControlFromDB(r)
	}
	return out
}

// ControlToDBParams builds upsert params from a domain record. The email
// column comes first; the rest are sorted so statements are stable.
func ControlToDBParams(rec domain.ControlRecord) dbstore.UpsertControlParams {
	names := make([]string, 0, len(rec.Columns))
	for k := range rec.Columns {
		if k != domain.ColumnEmail {
			names = append(names, k)
		}
	}
	sort.Strings(names)

	p := dbstore.UpsertControlParams{
		Columns: append([]string{domain.ColumnEmail}, names...),
		Values:  make([]interface{}, 0, len(names)+1),
	}
	p.Values = append(p.Values, rec.Email)
	for _, n := range names {
		p.Values = append(p.Values, rec.Columns[n])
	}
	return p
}

func emailOf(v interface{}) string {
	switch e := v.(type) {
	case nil:
		return ""
	case string:
		return e
	case []byte:
		return string(e)
	default:
		return fmt.Sprint(e)
	}
}
