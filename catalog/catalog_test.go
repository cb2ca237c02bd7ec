package catalog

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flightlens/config"
	"flightlens/db"
	"flightlens/domain"
)

var ctx = context.Background()

// setupRegistry opens a migrated SQLite store seeded with a few flights
// and returns a registry over it.
func setupRegistry(t *testing.T) *Registry {
	t.Helper()

	mgr, err := db.Open(config.StoreConfig{
		Driver:   config.DriverSQLite,
		Database: filepath.Join(t.TempDir(), "store.sqlite"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Close() })

	require.NoError(t, mgr.Migrate(ctx))
	require.NoError(t, mgr.Acquire(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO flights (flight_date, carrier, flight_number, origin, destination, passengers, distance_km, departure_delay_min) VALUES
			('2019-06-01 08:00:00', 'GL', 'GL100', 'GRU', 'SDU', 180, 360, 5),
			('2019-06-01 09:00:00', 'LA', 'LA200', 'GRU', 'SDU', 150, 360, 0),
			('2019-06-02 08:00:00', 'GL', 'GL100', 'GRU', 'BSB', 180, 870, 12)`)
		return err
	}))

	return NewRegistry(mgr)
}

func simpleTemplate() Template {
	return Template{
		Name: "flights_by_carrier",
		Text: `SELECT flight_number, passengers FROM flights WHERE carrier = :carrier AND flight_date >= :since ORDER BY flight_date`,
		Params: []ParamSpec{
			{Name: "carrier", Kind: domain.KindString, Required: true},
			{Name: "since", Kind: domain.KindTime, Required: true},
		},
	}
}

func TestRegister_Duplicate(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(simpleTemplate()))

	err := r.Register(simpleTemplate())
	var dupErr *domain.DuplicateQueryError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, "flights_by_carrier", dupErr.Name)
}

func TestRegister_UnboundPlaceholder(t *testing.T) {
	r := NewRegistry(nil)
	err := r.Register(Template{
		Name:   "bad",
		Text:   `SELECT * FROM flights WHERE carrier = :carrier`,
		Params: nil,
	})
	var valErr *domain.TemplateValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Error(), ":carrier")
}

func TestRegister_UnusedDeclaredParam(t *testing.T) {
	r := NewRegistry(nil)
	err := r.Register(Template{
		Name:   "bad",
		Text:   `SELECT * FROM flights`,
		Params: []ParamSpec{{Name: "carrier", Kind: domain.KindString, Required: true}},
	})
	var valErr *domain.TemplateValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Error(), "never used")
}

func TestRegister_DuplicateParam(t *testing.T) {
	r := NewRegistry(nil)
	err := r.Register(Template{
		Name: "bad",
		Text: `SELECT * FROM flights WHERE carrier = :carrier`,
		Params: []ParamSpec{
			{Name: "carrier", Kind: domain.KindString, Required: true},
			{Name: "carrier", Kind: domain.KindString, Required: false},
		},
	})
	var valErr *domain.TemplateValidationError
	require.ErrorAs(t, err, &valErr)
}

func TestResolve_UnknownQuery(t *testing.T) {
	r := NewRegistry(nil)
	_, err := r.Resolve("never_registered", nil)
	var unkErr *domain.UnknownQueryError
	require.ErrorAs(t, err, &unkErr)
}

func TestResolve_MissingRequiredParam(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(simpleTemplate()))

	_, err := r.Resolve("flights_by_carrier", map[string]any{"carrier": "GL"})
	var parErr *domain.ParameterValidationError
	require.ErrorAs(t, err, &parErr)
	assert.Equal(t, "since", parErr.Param)
}

func TestResolve_UnknownExtraParam(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(simpleTemplate()))

	_, err := r.Resolve("flights_by_carrier", map[string]any{
		"carrier": "GL",
		"since":   time.Now(),
		"bogus":   1,
	})
	var parErr *domain.ParameterValidationError
	require.ErrorAs(t, err, &parErr)
	assert.Equal(t, "bogus", parErr.Param)
}

func TestResolve_TypeMismatchRejected(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(simpleTemplate()))

	_, err := r.Resolve("flights_by_carrier", map[string]any{
		"carrier": 42, // not a string
		"since":   time.Now(),
	})
	var parErr *domain.ParameterValidationError
	require.ErrorAs(t, err, &parErr)
	assert.Equal(t, "carrier", parErr.Param)
}

func TestResolve_CoercesDateStrings(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(simpleTemplate()))

	bq, err := r.Resolve("flights_by_carrier", map[string]any{
		"carrier": "GL",
		"since":   "2019-06-01",
	})
	require.NoError(t, err)

	ts, ok := bq.Values["since"].(time.Time)
	require.True(t, ok)
	assert.Equal(t, 2019, ts.Year())
}

func TestResolve_RejectsFractionalInt(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(Template{
		Name:   "limited",
		Text:   `SELECT carrier FROM flights LIMIT :limit`,
		Params: []ParamSpec{{Name: "limit", Kind: domain.KindInt, Required: true}},
	}))

	_, err := r.Resolve("limited", map[string]any{"limit": 2.5})
	var parErr *domain.ParameterValidationError
	require.ErrorAs(t, err, &parErr)

	bq, err := r.Resolve("limited", map[string]any{"limit": 2.0})
	require.NoError(t, err)
	assert.Equal(t, int64(2), bq.Values["limit"])
}

func TestList_SortedByName(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.RegisterBuiltin())

	names := []string{}
	for _, tpl := range r.List() {
		names = append(names, tpl.Name)
	}
	assert.IsNonDecreasing(t, names)
}

func TestBuiltin_AllTemplatesValidate(t *testing.T) {
	for _, tpl := range Builtin() {
		t.Run(tpl.Name, func(t *testing.T) {
			r := NewRegistry(nil)
			assert.NoError(t, r.Register(tpl))
		})
	}
}

func TestExecute_RoundTrip(t *testing.T) {
	r := setupRegistry(t)
	require.NoError(t, r.Register(simpleTemplate()))

	bq, err := r.Resolve("flights_by_carrier", map[string]any{
		"carrier": "GL",
		"since":   "2019-06-01",
	})
	require.NoError(t, err)

	raw, err := r.Execute(ctx, bq)
	require.NoError(t, err)

	require.Len(t, raw.Columns, 2, "column count must match the declared output")
	assert.Equal(t, "flight_number", raw.Columns[0].Name)
	assert.Equal(t, "passengers", raw.Columns[1].Name)
	assert.Len(t, raw.Rows, 2)
	for _, row := range raw.Rows {
		assert.Len(t, row, len(raw.Columns))
	}
}

func TestExecute_RepeatedPlaceholder(t *testing.T) {
	r := setupRegistry(t)
	require.NoError(t, r.Register(Template{
		Name: "by_airport",
		Text: `SELECT carrier FROM flights WHERE origin = :apt OR destination = :apt`,
		Params: []ParamSpec{
			{Name: "apt", Kind: domain.KindString, Required: true},
		},
	}))

	bq, err := r.Resolve("by_airport", map[string]any{"apt": "SDU"})
	require.NoError(t, err)

	raw, err := r.Execute(ctx, bq)
	require.NoError(t, err)
	assert.Len(t, raw.Rows, 2)
}
