package domain

import (
	"sort"
	"strings"
)

// FallbackEmail is the sentinel email of the default control row.
const FallbackEmail = "fallback"

// ColumnEmail is the key column of the UserControl table.
const ColumnEmail = "email"

// LookupFilter describes the predicate a ControlRepository applies in
// FindForKey, for diagnostics.
const LookupFilter = "email = ? OR email = 'fallback'"

// ControlRecord is one row of the UserControl table. Columns holds every
// column of the row, email included; policy columns are opaque here.
type ControlRecord struct {
	Email   string
	Columns map[string]interface{}
}

// IsFallback reports whether the record is the sentinel default row.
func (r *ControlRecord) IsFallback() bool {
	return r.Email == FallbackEmail
}

// Get returns the value of a column and whether the column is present.
func (r *ControlRecord) Get(column string) (interface{}, bool) {
	v, ok := r.Columns[column]
	return v, ok
}

// ColumnNames returns the record's column names in sorted order.
func (r *ControlRecord) ColumnNames() []string {
	names := make([]string, 0, len(r.Columns))
	for k := range r.Columns {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// ValidateLookupKey checks a lookup key. Keys match stored emails byte for
// byte, so surrounding whitespace is rejected rather than stripped.
func ValidateLookupKey(key string) error {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return ErrValidation("lookup key is required")
	}
	if trimmed != key {
		return ErrValidation("lookup key %q has leading or trailing whitespace", key)
	}
	return nil
}

// ResolveControl picks the record that applies to key from the rows returned
// by the disjunctive query (email = key OR email = FallbackEmail).
//
// A missing fallback row fails the lookup even when a user row is present.
// Otherwise the user row wins over the fallback row.
func ResolveControl(key string, records []ControlRecord) (*ControlRecord, error) {
	var fallback, user *ControlRecord
	for i := range records {
		rec := &records[i]
		if fallback == nil && rec.Email == FallbackEmail {
			fallback = rec
		}
		if user == nil && rec.Email == key {
			user = rec
		}
	}

	if fallback == nil {
		return nil, ErrNoFallbackControl(key)
	}

	switch {
	case user != nil:
		return user, nil
	case fallback != nil:
		return fallback, nil
	default:
		return nil, ErrNoControlPolicy(key)
	}
}

// ValidateControlRecord checks a record supplied for import against the set
// of columns known to the store.
func ValidateControlRecord(rec ControlRecord, known map[string]bool) error {
	trimmed := strings.TrimSpace(rec.Email)
	if trimmed == "" {
		return ErrValidation("email is required")
	}
	if trimmed != rec.Email {
		return ErrValidation("email %q has leading or trailing whitespace", rec.Email)
	}
	if v, ok := rec.Columns[ColumnEmail]; ok {
		if s, _ := v.(string); s != rec.Email {
			return ErrValidation("record %q: email column %v does not match record email", rec.Email, v)
		}
	}
	for col := range rec.Columns {
		if !known[col] {
			return ErrValidation("record %q: unknown column %q", rec.Email, col)
		}
	}
	return nil
}
