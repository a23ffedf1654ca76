package models

import "sort"

// ValueColumn is the single column used for rows built from non-object values
const ValueColumn = "value"

// Row is one tabular record: column name to value
type Row map[string]Value

// RowFromObject returns a row holding the object's members as-is
func RowFromObject(o *Object) Row {
	row := make(Row, o.Len())
	for _, key := range o.keys {
		row[key] = o.values[key]
	}
	return row
}

// ScalarRow returns the single-column row {"value": <compact JSON of v>}
func ScalarRow(v Value) Row {
	return Row{ValueColumn: String(v.CompactJSON())}
}

// Keys returns the row's column names in sorted order
func (r Row) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Cell returns the CSV text for column, or "" when the row has no such column
func (r Row) Cell(column string) string {
	v, ok := r[column]
	if !ok {
		return ""
	}
	return v.CellText()
}
