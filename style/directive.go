package style

import "flightlens/domain"

// Directive is the resolved, complete attribute set applied to one chart
// render. It is an ephemeral value: created per render, never aliasing
// registry state, discarded after use.
type Directive struct {
	Title   string
	Palette []string

	FontFamily    string
	FontSize      float64
	TitleFontSize float64

	FigureWidthMM  float64
	FigureHeightMM float64
	FigureMarginMM float64

	ShowGrid  bool
	GridXStep float64 // 0 = automatic
	GridYStep float64 // 0 = automatic

	LabelMaxLen int
}

// Built-in defaults, filling every attribute absent from both profile and
// overrides. The plot box defaults to the 260x100mm page region the
// renderer draws into.
var defaults = Directive{
	Palette: []string{
		"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
		"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
	},
	FontFamily:     "Helvetica",
	FontSize:       10,
	TitleFontSize:  14,
	FigureWidthMM:  260,
	FigureHeightMM: 100,
	FigureMarginMM: 12,
	ShowGrid:       true,
	LabelMaxLen:    32,
}

// Resolve merges the named profile with per-call overrides (overrides win
// on conflict) on top of the built-in defaults. The result is complete and
// deterministic; neither the profile nor the registry is mutated.
func (reg *Registry) Resolve(profileName string, overrides *Overrides) (Directive, error) {
	prof, exists := reg.profiles[profileName]
	if !exists {
		return Directive{}, &domain.UnknownProfileError{Profile: profileName}
	}

	d := defaults
	d.Palette = append([]string(nil), defaults.Palette...)

	apply(&d, prof)
	if overrides != nil {
		ov := *overrides
		ov.Name = profileName
		if err := validateDocument(ov); err != nil {
			return Directive{}, err
		}
		apply(&d, *overrides)
	}
	return d, nil
}

// apply copies every attribute present in doc onto d.
func apply(d *Directive, doc Document) {
	if doc.Title != nil {
		d.Title = *doc.Title
	}
	if len(doc.Palette) > 0 {
		d.Palette = append([]string(nil), doc.Palette...)
	}
	if doc.Font != nil {
		if doc.Font.Family != nil {
			d.FontFamily = *doc.Font.Family
		}
		if doc.Font.Size != nil {
			d.FontSize = *doc.Font.Size
		}
		if doc.Font.TitleSize != nil {
			d.TitleFontSize = *doc.Font.TitleSize
		}
	}
	if doc.Figure != nil {
		if doc.Figure.WidthMM != nil {
			d.FigureWidthMM = *doc.Figure.WidthMM
		}
		if doc.Figure.HeightMM != nil {
			d.FigureHeightMM = *doc.Figure.HeightMM
		}
		if doc.Figure.MarginMM != nil {
			d.FigureMarginMM = *doc.Figure.MarginMM
		}
	}
	if doc.Grid != nil {
		if doc.Grid.Show != nil {
			d.ShowGrid = *doc.Grid.Show
		}
		if doc.Grid.XStep != nil {
			d.GridXStep = *doc.Grid.XStep
		}
		if doc.Grid.YStep != nil {
			d.GridYStep = *doc.Grid.YStep
		}
	}
	if doc.Axes != nil && doc.Axes.LabelMaxLen != nil {
		d.LabelMaxLen = *doc.Axes.LabelMaxLen
	}
}

// Color returns the palette color for a series index, cycling when the
// palette is shorter than the series count.
func (d Directive) Color(i int) (r, g, b int) {
	hex := d.Palette[i%len(d.Palette)]
	return hexByte(hex[1:3]), hexByte(hex[3:5]), hexByte(hex[5:7])
}

func hexByte(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		n *= 16
		switch c := s[i]; {
		case c >= '0' && c <= '9':
			n += int(c - '0')
		case c >= 'a' && c <= 'f':
			n += int(c-'a') + 10
		case c >= 'A' && c <= 'F':
			n += int(c-'A') + 10
		}
	}
	return n
}
