package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"flightlens/domain"
)

// Execute runs a bound query against the store: one scoped acquisition,
// one round trip, no caching. Parameter values travel through the driver's
// native binding only. Returns the raw rows plus column metadata and logs
// a single execution record.
func (r *Registry) Execute(ctx context.Context, bq BoundQuery) (RawRows, error) {
	sqlText, argNames := rebind(bq.Template.Text, r.mgr.Placeholder)

	args := make([]any, len(argNames))
	for i, name := range argNames {
		args[i] = bq.Values[name]
	}

	var raw RawRows
	started := time.Now()

	err := r.mgr.Acquire(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, sqlText, args...)
		if err != nil {
			return fmt.Errorf("execute query %q: %w", bq.Template.Name, err)
		}
		defer rows.Close() //nolint:errcheck

		raw, err = scanRows(rows)
		if err != nil {
			return fmt.Errorf("scan query %q: %w", bq.Template.Name, err)
		}
		return nil
	})
	if err != nil {
		return RawRows{}, err
	}

	r.log.Info("query executed",
		"id", uuid.New().String(),
		"query", bq.Template.Name,
		"version", bq.Template.Version,
		"duration_ms", time.Since(started).Milliseconds(),
		"rows", len(raw.Rows),
	)
	return raw, nil
}

// scanRows drains a result set into RawRows, keeping the store's column
// order and reported type names.
func scanRows(rows *sql.Rows) (RawRows, error) {
	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return RawRows{}, err
	}

	cols := make([]ColumnMeta, len(colTypes))
	for i, ct := range colTypes {
		cols[i] = ColumnMeta{Name: ct.Name(), DatabaseType: ct.DatabaseTypeName()}
	}

	out := RawRows{Columns: cols, Rows: [][]any{}}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return RawRows{}, err
		}
		out.Rows = append(out.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return RawRows{}, err
	}

	if err := checkShape(out); err != nil {
		return RawRows{}, err
	}
	return out, nil
}

func checkShape(raw RawRows) error {
	for i, row := range raw.Rows {
		if len(row) != len(raw.Columns) {
			return domain.ErrSchemaMismatch("row %d has %d values for %d columns", i, len(row), len(raw.Columns))
		}
	}
	return nil
}
