// Package catalog is the registry of named, parameterized query templates
// and the execution path that runs them against the store.
package catalog

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"flightlens/db"
	"flightlens/domain"
)

// ParamSpec declares one parameter of a query template.
type ParamSpec struct {
	Name     string
	Kind     domain.Kind
	Required bool
}

// Template is a named, versioned query with named :placeholders and a
// declared parameter schema. Placeholders and schema must agree exactly:
// no unbound placeholders, no unused declared parameters.
type Template struct {
	Name    string
	Version int
	Text    string
	Params  []ParamSpec
}

// BoundQuery is a template plus a validated parameter value map, ready for
// execution.
type BoundQuery struct {
	Template Template
	Values   map[string]any
}

// ColumnMeta carries the store's column metadata for one output column.
type ColumnMeta struct {
	Name         string
	DatabaseType string // driver-reported type name, e.g. "VARCHAR", "TIMESTAMP"
}

// RawRows is the unshaped output of one query execution: column metadata
// plus positionally aligned row values, exactly as scanned from the store.
type RawRows struct {
	Columns []ColumnMeta
	Rows    [][]any
}

// Registry holds the registered templates and executes them through the
// connection manager. Templates are registered once at startup; no result
// is ever cached — every Execute is a fresh round trip.
type Registry struct {
	mgr       *db.Manager
	templates map[string]Template
	log       *slog.Logger
}

// NewRegistry creates an empty registry over the given connection manager.
func NewRegistry(mgr *db.Manager) *Registry {
	return &Registry{
		mgr:       mgr,
		templates: map[string]Template{},
		log:       slog.Default(),
	}
}

// SetLogger overrides the execution logger.
func (r *Registry) SetLogger(l *slog.Logger) { r.log = l }

// Register validates the template and adds it to the registry.
func (r *Registry) Register(tpl Template) error {
	if _, exists := r.templates[tpl.Name]; exists {
		return &domain.DuplicateQueryError{Name: tpl.Name}
	}
	if err := validateTemplate(tpl); err != nil {
		return err
	}
	r.templates[tpl.Name] = tpl
	return nil
}

// MustRegister registers the template and panics on error. Intended for
// init-time wiring of known-good templates.
func (r *Registry) MustRegister(tpl Template) {
	if err := r.Register(tpl); err != nil {
		panic(err)
	}
}

// List returns the registered templates sorted by name.
func (r *Registry) List() []Template {
	names := make([]string, 0, len(r.templates))
	for n := range r.templates {
		names = append(names, n)
	}
	sort.Strings(names)

	out := make([]Template, 0, len(names))
	for _, n := range names {
		out = append(out, r.templates[n])
	}
	return out
}

// Resolve looks up the named template and validates the supplied parameters
// against its schema: every required parameter present, no unknown extras,
// every value coercible to its declared kind. Coercion is strict — a value
// that does not match is rejected, never silently cast.
func (r *Registry) Resolve(name string, params map[string]any) (BoundQuery, error) {
	tpl, exists := r.templates[name]
	if !exists {
		return BoundQuery{}, &domain.UnknownQueryError{Name: name}
	}

	declared := map[string]ParamSpec{}
	for _, p := range tpl.Params {
		declared[p.Name] = p
	}
	for supplied := range params {
		if _, ok := declared[supplied]; !ok {
			return BoundQuery{}, domain.ErrParameterValidation(name, supplied, "not declared by template")
		}
	}

	values := map[string]any{}
	for _, p := range tpl.Params {
		raw, supplied := params[p.Name]
		if !supplied || raw == nil {
			if p.Required {
				return BoundQuery{}, domain.ErrParameterValidation(name, p.Name, "required parameter missing")
			}
			values[p.Name] = nil
			continue
		}
		v, err := coerceParam(raw, p.Kind)
		if err != nil {
			return BoundQuery{}, domain.ErrParameterValidation(name, p.Name, "%v", err)
		}
		values[p.Name] = v
	}

	return BoundQuery{Template: tpl, Values: values}, nil
}

// validateTemplate cross-checks the template text's placeholders against
// the declared parameter schema.
func validateTemplate(tpl Template) error {
	if tpl.Name == "" {
		return domain.ErrTemplateValidation(tpl.Name, "template name is required")
	}
	if tpl.Text == "" {
		return domain.ErrTemplateValidation(tpl.Name, "template text is required")
	}

	seen := map[string]bool{}
	for _, p := range tpl.Params {
		if !validIdent(p.Name) {
			return domain.ErrTemplateValidation(tpl.Name, "parameter name %q is not a valid identifier", p.Name)
		}
		if seen[p.Name] {
			return domain.ErrTemplateValidation(tpl.Name, "parameter %q declared twice", p.Name)
		}
		seen[p.Name] = true
	}

	used := map[string]bool{}
	for _, ph := range placeholders(tpl.Text) {
		used[ph] = true
		if !seen[ph] {
			return domain.ErrTemplateValidation(tpl.Name, "placeholder :%s has no declared parameter", ph)
		}
	}
	for name := range seen {
		if !used[name] {
			return domain.ErrTemplateValidation(tpl.Name, "declared parameter %q is never used", name)
		}
	}
	return nil
}

// coerceParam checks a supplied value against the declared kind, returning
// the canonical representation. Widening (int→float) is allowed; anything
// lossy or ambiguous is an error.
func coerceParam(v any, kind domain.Kind) (any, error) {
	switch kind {
	case domain.KindString:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case domain.KindInt:
		switch n := v.(type) {
		case int:
			return int64(n), nil
		case int32:
			return int64(n), nil
		case int64:
			return n, nil
		case float64:
			if n == float64(int64(n)) {
				return int64(n), nil
			}
			return nil, errNotCoercible(v, kind)
		}
	case domain.KindFloat:
		switch n := v.(type) {
		case float64:
			return n, nil
		case float32:
			return float64(n), nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		}
	case domain.KindBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case domain.KindTime:
		switch t := v.(type) {
		case time.Time:
			return t, nil
		case string:
			for _, layout := range []string{time.RFC3339, "2006-01-02"} {
				if ts, err := time.Parse(layout, t); err == nil {
					return ts, nil
				}
			}
			return nil, errNotCoercible(v, kind)
		}
	}
	return nil, errNotCoercible(v, kind)
}

func errNotCoercible(v any, kind domain.Kind) error {
	return fmt.Errorf("value %v (%T) is not a %s", v, v, kind)
}
