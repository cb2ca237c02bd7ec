package table

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flightlens/catalog"
	"flightlens/domain"
)

func rawFixture() catalog.RawRows {
	return catalog.RawRows{
		Columns: []catalog.ColumnMeta{
			{Name: "carrier", DatabaseType: "VARCHAR"},
			{Name: "flights", DatabaseType: "BIGINT"},
			{Name: "share", DatabaseType: "DOUBLE"},
		},
		Rows: [][]any{
			{"GL", int64(120), 0.4},
			{"LA", int64(90), 0.3},
			{[]byte("AZ"), "90", "0.3"},
		},
	}
}

func TestNormalize_CoercesColumnWise(t *testing.T) {
	out, stats, err := Normalize(rawFixture(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, stats.RowsRemoved)

	require.Equal(t, 3, out.NumCols())
	assert.Equal(t, domain.KindString, out.Columns[0].Kind)
	assert.Equal(t, domain.KindInt, out.Columns[1].Kind)
	assert.Equal(t, domain.KindFloat, out.Columns[2].Kind)

	// the string-typed third row was coerced, not dropped
	assert.Equal(t, "AZ", out.Rows[2][0])
	assert.Equal(t, int64(90), out.Rows[2][1])
	assert.Equal(t, 0.3, out.Rows[2][2])
}

func TestNormalize_Idempotent(t *testing.T) {
	opts := Options{
		DropEmptyQualitative: true,
		QualitativeColumns:   []string{"carrier"},
	}

	first, _, err := Normalize(rawFixture(), opts)
	require.NoError(t, err)

	again := catalog.RawRows{Rows: first.Rows}
	for _, c := range first.Columns {
		again.Columns = append(again.Columns,
			catalog.ColumnMeta{Name: c.Name, DatabaseType: c.Kind.String()})
	}

	second, stats, err := Normalize(again, opts)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.RowsRemoved)
	assert.True(t, first.Equal(second), "normalize must be idempotent")
}

func TestNormalize_RenormalizeKeepsStringColumns(t *testing.T) {
	raw := catalog.RawRows{
		Columns: []catalog.ColumnMeta{{Name: "flight_number", DatabaseType: "VARCHAR"}},
		Rows:    [][]any{{"100"}, {"200"}},
	}

	first, _, err := Normalize(raw, Options{})
	require.NoError(t, err)
	require.Equal(t, domain.KindString, first.Columns[0].Kind)

	// Without the pinned kind the numeric-looking strings would re-infer
	// as integers.
	again := catalog.RawRows{
		Columns: []catalog.ColumnMeta{{Name: "flight_number", DatabaseType: first.Columns[0].Kind.String()}},
		Rows:    first.Rows,
	}
	second, _, err := Normalize(again, Options{})
	require.NoError(t, err)
	assert.Equal(t, domain.KindString, second.Columns[0].Kind)
	assert.True(t, first.Equal(second))
}

func TestNormalize_ShapeMismatch(t *testing.T) {
	raw := rawFixture()
	raw.Rows[1] = raw.Rows[1][:2]

	_, _, err := Normalize(raw, Options{})
	var schErr *domain.SchemaMismatchError
	require.ErrorAs(t, err, &schErr)
}

func TestNormalize_TimeCoercion(t *testing.T) {
	raw := catalog.RawRows{
		Columns: []catalog.ColumnMeta{{Name: "day", DatabaseType: "DATE"}},
		Rows: [][]any{
			{"2019-06-01"},
			{time.Date(2019, 6, 2, 10, 0, 0, 0, time.FixedZone("X", 3600))},
			{nil},
		},
	}

	out, _, err := Normalize(raw, Options{})
	require.NoError(t, err)
	assert.Equal(t, domain.KindTime, out.Columns[0].Kind)

	ts := out.Rows[1][0].(time.Time)
	assert.Equal(t, time.UTC, ts.Location(), "timestamps are normalized to UTC")
	assert.Nil(t, out.Rows[2][0], "NULL stays NULL")
}

func TestNormalize_UncoercibleColumnStaysString(t *testing.T) {
	raw := catalog.RawRows{
		Columns: []catalog.ColumnMeta{{Name: "mixed", DatabaseType: "BIGINT"}},
		Rows:    [][]any{{int64(1)}, {"not a number"}},
	}

	out, _, err := Normalize(raw, Options{})
	require.NoError(t, err)
	assert.Equal(t, domain.KindString, out.Columns[0].Kind)
	assert.Equal(t, "1", out.Rows[0][0])
	assert.Equal(t, "not a number", out.Rows[1][0])
}

func TestDropEmptyQualitative_RemovesExactlyEmptyRows(t *testing.T) {
	raw := catalog.RawRows{
		Columns: []catalog.ColumnMeta{
			{Name: "q1", DatabaseType: "VARCHAR"},
			{Name: "q2", DatabaseType: "BIGINT"},
		},
		Rows: [][]any{
			{"", int64(0)},  // all qualitative columns empty: removed
			{"x", int64(0)}, // one non-empty: kept
			{"", int64(7)},  // one non-empty: kept
			{nil, int64(0)}, // null counts as empty: removed
		},
	}

	out, stats, err := Normalize(raw, Options{
		DropEmptyQualitative: true,
		QualitativeColumns:   []string{"q1", "q2"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, stats.RowsRemoved)
	require.Equal(t, 2, out.NumRows())
	assert.Equal(t, "x", out.Rows[0][0], "row order is preserved")
	assert.Equal(t, int64(7), out.Rows[1][1])
}

func TestDropEmptyQualitative_PolicyNullOnly(t *testing.T) {
	raw := catalog.RawRows{
		Columns: []catalog.ColumnMeta{{Name: "q1", DatabaseType: "VARCHAR"}},
		Rows:    [][]any{{""}, {nil}},
	}

	out, stats, err := Normalize(raw, Options{
		DropEmptyQualitative: true,
		QualitativeColumns:   []string{"q1"},
		Policy:               EmptyNull,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.RowsRemoved, "empty string is not empty under EmptyNull")
	assert.Equal(t, 1, out.NumRows())
}

func TestDropEmptyQualitative_UnknownColumn(t *testing.T) {
	_, _, err := Normalize(rawFixture(), Options{
		DropEmptyQualitative: true,
		QualitativeColumns:   []string{"no_such_column"},
	})
	var schErr *domain.SchemaMismatchError
	require.ErrorAs(t, err, &schErr)
}

func TestNormalize_KeepsColumnOrder(t *testing.T) {
	out, _, err := Normalize(rawFixture(), Options{})
	require.NoError(t, err)

	names := make([]string, out.NumCols())
	for i, c := range out.Columns {
		names[i] = c.Name
	}
	assert.Equal(t, []string{"carrier", "flights", "share"}, names)
}
