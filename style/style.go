// Package style loads declarative presentation profiles and resolves them
// into the effective directives applied to chart renders.
package style

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"

	"flightlens/domain"
)

// Document is the declarative YAML shape of one style profile. Optional
// fields are pointers so an absent attribute can be told apart from a
// zero one when profiles and overrides are merged.
type Document struct {
	Name    string     `yaml:"name"`
	Title   *string    `yaml:"title"`
	Palette []string   `yaml:"palette"`
	Font    *FontDoc   `yaml:"font"`
	Figure  *FigureDoc `yaml:"figure"`
	Grid    *GridDoc   `yaml:"grid"`
	Axes    *AxesDoc   `yaml:"axes"`
}

// FontDoc configures text rendering.
type FontDoc struct {
	Family    *string  `yaml:"family"`
	Size      *float64 `yaml:"size"`
	TitleSize *float64 `yaml:"title_size"`
}

// FigureDoc configures page sizing, in millimetres.
type FigureDoc struct {
	WidthMM  *float64 `yaml:"width_mm"`
	HeightMM *float64 `yaml:"height_mm"`
	MarginMM *float64 `yaml:"margin_mm"`
}

// GridDoc configures gridlines. Steps of 0 mean "choose automatically".
type GridDoc struct {
	Show  *bool    `yaml:"show"`
	XStep *float64 `yaml:"x_step"`
	YStep *float64 `yaml:"y_step"`
}

// AxesDoc configures axis label conventions.
type AxesDoc struct {
	LabelMaxLen *int `yaml:"label_max_len"`
}

// Overrides is a partial profile applied on top of a named profile for a
// single render call. Same document shape, no name.
type Overrides = Document

var colorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Registry is the process-wide store of loaded profiles: populated at
// startup, read-only from the perspective of chart rendering.
type Registry struct {
	profiles map[string]Document
}

// NewRegistry creates a registry pre-populated with the built-in
// "default" profile.
func NewRegistry() *Registry {
	return &Registry{profiles: map[string]Document{"default": {Name: "default"}}}
}

// Load parses every YAML document in r as one profile each and stores
// them. Malformed documents yield *domain.StyleConfigError.
func (reg *Registry) Load(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	loaded := 0
	for {
		var doc Document
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return domain.ErrStyleConfig("", "parse: %v", err)
		}
		if err := validateDocument(doc); err != nil {
			return err
		}
		reg.profiles[doc.Name] = doc
		loaded++
	}
	if loaded == 0 {
		return domain.ErrStyleConfig("", "no profiles in document")
	}
	return nil
}

// LoadFile loads profiles from a YAML file.
func (reg *Registry) LoadFile(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		return domain.ErrStyleConfig("", "open %s: %v", path, err)
	}
	defer f.Close() //nolint:errcheck
	if err := reg.Load(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Profiles returns the loaded profile names, sorted.
func (reg *Registry) Profiles() []string {
	names := make([]string, 0, len(reg.profiles))
	for n := range reg.profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func validateDocument(doc Document) error {
	if doc.Name == "" {
		return domain.ErrStyleConfig("", "profile is missing a name")
	}
	for _, c := range doc.Palette {
		if !colorRe.MatchString(c) {
			return domain.ErrStyleConfig(doc.Name, "invalid palette color %q (want #rrggbb)", c)
		}
	}
	if doc.Font != nil {
		if err := positive(doc.Name, "font.size", doc.Font.Size); err != nil {
			return err
		}
		if err := positive(doc.Name, "font.title_size", doc.Font.TitleSize); err != nil {
			return err
		}
	}
	if doc.Figure != nil {
		if err := positive(doc.Name, "figure.width_mm", doc.Figure.WidthMM); err != nil {
			return err
		}
		if err := positive(doc.Name, "figure.height_mm", doc.Figure.HeightMM); err != nil {
			return err
		}
		if err := positive(doc.Name, "figure.margin_mm", doc.Figure.MarginMM); err != nil {
			return err
		}
	}
	if doc.Grid != nil {
		if doc.Grid.XStep != nil && *doc.Grid.XStep < 0 {
			return domain.ErrStyleConfig(doc.Name, "grid.x_step must not be negative")
		}
		if doc.Grid.YStep != nil && *doc.Grid.YStep < 0 {
			return domain.ErrStyleConfig(doc.Name, "grid.y_step must not be negative")
		}
	}
	if doc.Axes != nil && doc.Axes.LabelMaxLen != nil && *doc.Axes.LabelMaxLen <= 0 {
		return domain.ErrStyleConfig(doc.Name, "axes.label_max_len must be positive")
	}
	return nil
}

func positive(profile, field string, v *float64) error {
	if v != nil && *v <= 0 {
		return domain.ErrStyleConfig(profile, "%s must be positive", field)
	}
	return nil
}
