package catalog

import (
	"embed"
	"fmt"

	"flightlens/domain"
)

//go:embed queries/*.sql
var embeddedQueries embed.FS

// dateRange is the parameter pair shared by every built-in template.
var dateRange = []ParamSpec{
	{Name: "start", Kind: domain.KindTime, Required: true},
	{Name: "end", Kind: domain.KindTime, Required: true},
}

// Builtin returns the pre-vetted air-traffic templates shipped with the
// library, ready for registration.
func Builtin() []Template {
	return []Template{
		builtin("flights_per_day", 1, dateRange...),
		builtin("top_routes", 1, append(dateRange,
			ParamSpec{Name: "limit", Kind: domain.KindInt, Required: true})...),
		builtin("delay_distribution", 1, dateRange...),
		builtin("carrier_share", 1, dateRange...),
	}
}

// RegisterBuiltin registers every built-in template.
func (r *Registry) RegisterBuiltin() error {
	for _, tpl := range Builtin() {
		if err := r.Register(tpl); err != nil {
			return err
		}
	}
	return nil
}

func builtin(name string, version int, params ...ParamSpec) Template {
	raw, err := embeddedQueries.ReadFile("queries/" + name + ".sql")
	if err != nil {
		panic(fmt.Sprintf("embedded query %s: %v", name, err))
	}
	return Template{Name: name, Version: version, Text: string(raw), Params: params}
}
