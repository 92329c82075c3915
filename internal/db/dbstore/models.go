package dbstore

// UserControl is one scanned row of the UserControl table. Values[i] is the
// driver value of Columns[i]; TEXT arrives as string, INTEGER as int64 and
// NULL as nil.
type UserControl struct {
	Columns []string
	Values  []interface{}
}

// Value returns the value of the named column.
func (u UserControl) Value(column string) (interface{}, bool) {
	for i, c := range u.Columns {
		if c == column {
			return u.Values[i], true
		}
	}
	return nil, false
}
