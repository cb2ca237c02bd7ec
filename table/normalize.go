// Package table shapes raw query output into the canonical ResultTable.
package table

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"flightlens/catalog"
	"flightlens/domain"
)

// EmptyPolicy selects which cell values count as "empty" for the
// qualitative-row cleaning pass. The true rule for the source dataset is
// not pinned down, so it is configuration rather than a constant.
type EmptyPolicy int

const (
	EmptyNull EmptyPolicy = 1 << iota
	EmptyString
	EmptyZero

	// EmptyAny treats null, empty string, and zero as empty.
	EmptyAny = EmptyNull | EmptyString | EmptyZero
)

// Options controls normalization.
type Options struct {
	// DropEmptyQualitative removes rows where every designated
	// qualitative column is empty under the policy.
	DropEmptyQualitative bool
	// QualitativeColumns names the designated qualitative columns.
	QualitativeColumns []string
	// Policy defaults to EmptyAny when zero.
	Policy EmptyPolicy
}

// CleanStats reports what the cleaning pass did.
type CleanStats struct {
	RowsRemoved int
}

// Normalize converts raw rows into a typed ResultTable. Columns keep their
// input order; rows are never reordered. Values are coerced column-wise to
// a canonical kind (numeric strings to numbers, byte slices to strings,
// store timestamps to UTC time); a column whose values resist coercion
// stays a string column rather than losing data. Shape violations yield
// *domain.SchemaMismatchError. When re-normalizing an already-typed table,
// pass each Column.Kind.String() as the DatabaseType to keep the kinds
// pinned instead of re-inferred.
func Normalize(raw catalog.RawRows, opts Options) (domain.ResultTable, CleanStats, error) {
	for i, row := range raw.Rows {
		if len(row) != len(raw.Columns) {
			return domain.ResultTable{}, CleanStats{},
				domain.ErrSchemaMismatch("row %d has %d values for %d columns", i, len(row), len(raw.Columns))
		}
	}

	cols := make([]domain.Column, len(raw.Columns))
	rows := make([][]any, len(raw.Rows))
	for i := range rows {
		rows[i] = make([]any, len(raw.Columns))
	}

	for c, meta := range raw.Columns {
		kind := kindForColumn(meta, raw.Rows, c)
		kind = coerceColumn(rows, raw.Rows, c, kind)
		cols[c] = domain.Column{Name: meta.Name, Kind: kind}
	}

	out, err := domain.NewResultTable(cols, rows)
	if err != nil {
		return domain.ResultTable{}, CleanStats{}, err
	}

	stats := CleanStats{}
	if opts.DropEmptyQualitative {
		out, stats, err = dropEmptyQualitative(out, opts)
		if err != nil {
			return domain.ResultTable{}, CleanStats{}, err
		}
	}
	return out, stats, nil
}

// kindForColumn picks the canonical kind from the store's reported type,
// falling back to value inspection when the driver reports nothing useful.
func kindForColumn(meta catalog.ColumnMeta, rows [][]any, c int) domain.Kind {
	if k, ok := kindForDatabaseType(meta.DatabaseType); ok {
		return k
	}
	return inferKind(rows, c)
}

func kindForDatabaseType(dbType string) (domain.Kind, bool) {
	// Canonical kind names pin the column outright; a caller re-normalizing
	// an already-typed table passes Column.Kind.String() here so a String
	// column of numeric-looking values is not re-inferred as numeric.
	if k, ok := domain.ParseKind(dbType); ok {
		return k, true
	}
	t := strings.ToUpper(dbType)
	switch {
	case t == "":
		return domain.KindString, false
	case strings.Contains(t, "TIMESTAMP"), t == "DATE", t == "DATETIME":
		return domain.KindTime, true
	case strings.Contains(t, "BOOL"):
		return domain.KindBool, true
	case strings.Contains(t, "INT"):
		return domain.KindInt, true
	case strings.Contains(t, "DOUBLE"), strings.Contains(t, "FLOAT"),
		strings.Contains(t, "REAL"), strings.Contains(t, "NUMERIC"),
		strings.Contains(t, "DECIMAL"):
		return domain.KindFloat, true
	case strings.Contains(t, "CHAR"), strings.Contains(t, "TEXT"),
		t == "STRING", t == "UUID":
		return domain.KindString, true
	default:
		return domain.KindString, false
	}
}

// inferKind inspects the column's values. All-integer strings become int,
// all-numeric strings become float; anything mixed stays string.
func inferKind(rows [][]any, c int) domain.Kind {
	kind := domain.Kind(-1)
	merge := func(k domain.Kind) {
		switch {
		case kind == domain.Kind(-1):
			kind = k
		case kind == k:
		case (kind == domain.KindInt && k == domain.KindFloat) ||
			(kind == domain.KindFloat && k == domain.KindInt):
			kind = domain.KindFloat
		default:
			kind = domain.KindString
		}
	}

	for _, row := range rows {
		switch v := row[c].(type) {
		case nil:
		case int, int32, int64:
			merge(domain.KindInt)
		case float32, float64:
			merge(domain.KindFloat)
		case bool:
			merge(domain.KindBool)
		case time.Time:
			merge(domain.KindTime)
		case []byte:
			merge(stringKind(string(v)))
		case string:
			merge(stringKind(v))
		default:
			merge(domain.KindString)
		}
	}
	if kind == domain.Kind(-1) {
		return domain.KindString
	}
	return kind
}

func stringKind(s string) domain.Kind {
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return domain.KindInt
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return domain.KindFloat
	}
	return domain.KindString
}

// coerceColumn fills dst's column c with values coerced to kind. If any
// value cannot be coerced, the whole column falls back to string.
func coerceColumn(dst [][]any, src [][]any, c int, kind domain.Kind) domain.Kind {
	for i, row := range src {
		v, ok := coerceValue(row[c], kind)
		if !ok {
			return coerceColumn(dst, src, c, domain.KindString)
		}
		dst[i][c] = v
	}
	return kind
}

func coerceValue(v any, kind domain.Kind) (any, bool) {
	if v == nil {
		return nil, true
	}
	switch kind {
	case domain.KindInt:
		switch n := v.(type) {
		case int:
			return int64(n), true
		case int32:
			return int64(n), true
		case int64:
			return n, true
		case float64:
			if n == float64(int64(n)) {
				return int64(n), true
			}
		case []byte:
			return coerceValue(string(n), kind)
		case string:
			if i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64); err == nil {
				return i, true
			}
		}
	case domain.KindFloat:
		switch n := v.(type) {
		case float32:
			return float64(n), true
		case float64:
			return n, true
		case int:
			return float64(n), true
		case int32:
			return float64(n), true
		case int64:
			return float64(n), true
		case []byte:
			return coerceValue(string(n), kind)
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
				return f, true
			}
		}
	case domain.KindBool:
		switch b := v.(type) {
		case bool:
			return b, true
		case int64:
			return b != 0, true
		case string:
			if parsed, err := strconv.ParseBool(b); err == nil {
				return parsed, true
			}
		}
	case domain.KindTime:
		switch t := v.(type) {
		case time.Time:
			return t.UTC(), true
		case []byte:
			return coerceValue(string(t), kind)
		case string:
			for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
				if ts, err := time.Parse(layout, t); err == nil {
					return ts.UTC(), true
				}
			}
		}
	case domain.KindString:
		switch s := v.(type) {
		case string:
			return s, true
		case []byte:
			return string(s), true
		case int64:
			return strconv.FormatInt(s, 10), true
		case int:
			return strconv.Itoa(s), true
		case float64:
			return strconv.FormatFloat(s, 'g', -1, 64), true
		case bool:
			return strconv.FormatBool(s), true
		case time.Time:
			return s.UTC().Format(time.RFC3339), true
		default:
			return fmt.Sprintf("%v", s), true
		}
	}
	return nil, false
}

// dropEmptyQualitative removes exactly the rows where every designated
// qualitative column is empty under the policy, preserving row order.
func dropEmptyQualitative(t domain.ResultTable, opts Options) (domain.ResultTable, CleanStats, error) {
	policy := opts.Policy
	if policy == 0 {
		policy = EmptyAny
	}

	idxs := make([]int, 0, len(opts.QualitativeColumns))
	for _, name := range opts.QualitativeColumns {
		i := t.ColumnIndex(name)
		if i < 0 {
			return domain.ResultTable{}, CleanStats{},
				domain.ErrSchemaMismatch("qualitative column %q not in result", name)
		}
		idxs = append(idxs, i)
	}
	if len(idxs) == 0 {
		return t, CleanStats{}, nil
	}

	kept := make([][]any, 0, len(t.Rows))
	removed := 0
	for _, row := range t.Rows {
		allEmpty := true
		for _, i := range idxs {
			if !isEmpty(row[i], policy) {
				allEmpty = false
				break
			}
		}
		if allEmpty {
			removed++
			continue
		}
		kept = append(kept, row)
	}

	t.Rows = kept
	return t, CleanStats{RowsRemoved: removed}, nil
}

func isEmpty(v any, policy EmptyPolicy) bool {
	switch x := v.(type) {
	case nil:
		return policy&EmptyNull != 0
	case string:
		return policy&EmptyString != 0 && strings.TrimSpace(x) == ""
	case int64:
		return policy&EmptyZero != 0 && x == 0
	case float64:
		return policy&EmptyZero != 0 && x == 0
	case bool:
		return policy&EmptyZero != 0 && !x
	case time.Time:
		return policy&EmptyNull != 0 && x.IsZero()
	default:
		return false
	}
}
