package domain

import "time"

// Kind is the canonical type of a ResultTable column.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
	KindTime
)

// String returns the lowercase name used in parameter schemas and errors.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	default:
		return "unknown"
	}
}

// ParseKind maps a schema type name to a Kind. The bool reports whether the
// name was recognized.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "string":
		return KindString, true
	case "int":
		return KindInt, true
	case "float":
		return KindFloat, true
	case "bool":
		return KindBool, true
	case "time":
		return KindTime, true
	}
	return KindString, false
}

// Column describes one named, typed column of a ResultTable.
type Column struct {
	Name string
	Kind Kind
}

// ResultTable is the canonical column-oriented representation of a query's
// output: an ordered set of uniquely named, typed columns and rows aligned
// positionally to them. Cell values are nil, string, int64, float64, bool,
// or time.Time according to the column Kind; nil marks SQL NULL.
type ResultTable struct {
	Columns []Column
	Rows    [][]any
}

// NewResultTable builds a table after checking its shape invariants:
// unique column names and one value per column in every row.
func NewResultTable(cols []Column, rows [][]any) (ResultTable, error) {
	seen := map[string]bool{}
	for _, c := range cols {
		if seen[c.Name] {
			return ResultTable{}, ErrSchemaMismatch("duplicate column name %q", c.Name)
		}
		seen[c.Name] = true
	}
	for i, row := range rows {
		if len(row) != len(cols) {
			return ResultTable{}, ErrSchemaMismatch("row %d has %d values for %d columns", i, len(row), len(cols))
		}
	}
	return ResultTable{Columns: cols, Rows: rows}, nil
}

// NumRows returns the number of rows.
func (t ResultTable) NumRows() int { return len(t.Rows) }

// NumCols returns the number of columns.
func (t ResultTable) NumCols() int { return len(t.Columns) }

// ColumnIndex returns the position of the named column, or -1.
func (t ResultTable) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Float64s returns the column's values as float64, treating NULL as 0.
// Int columns are widened; other kinds yield 0.
func (t ResultTable) Float64s(col int) []float64 {
	out := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		switch v := row[col].(type) {
		case float64:
			out[i] = v
		case int64:
			out[i] = float64(v)
		}
	}
	return out
}

// Strings returns the column's values as strings, treating NULL as "".
func (t ResultTable) Strings(col int) []string {
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		if s, ok := row[col].(string); ok {
			out[i] = s
		}
	}
	return out
}

// Times returns the column's values as time.Time, zero for NULL.
func (t ResultTable) Times(col int) []time.Time {
	out := make([]time.Time, len(t.Rows))
	for i, row := range t.Rows {
		if ts, ok := row[col].(time.Time); ok {
			out[i] = ts
		}
	}
	return out
}

// Equal reports whether two tables have identical columns and cell values.
func (t ResultTable) Equal(o ResultTable) bool {
	if len(t.Columns) != len(o.Columns) || len(t.Rows) != len(o.Rows) {
		return false
	}
	for i := range t.Columns {
		if t.Columns[i] != o.Columns[i] {
			return false
		}
	}
	for i := range t.Rows {
		for j := range t.Rows[i] {
			if !cellEqual(t.Rows[i][j], o.Rows[i][j]) {
				return false
			}
		}
	}
	return true
}

func cellEqual(a, b any) bool {
	ta, okA := a.(time.Time)
	tb, okB := b.(time.Time)
	if okA && okB {
		return ta.Equal(tb)
	}
	return a == b
}
