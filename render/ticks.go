package render

import (
	"fmt"
	"math"
)

// Axis tick labels use a power-of-ten scale picked from the axis maximum:
// thousands ("mil"), millions ("MM"), billions ("B"), trillions ("T").
var tickScales = []struct {
	label string
	unit  float64
}{
	{"mil", 1e3},
	{"MM", 1e6},
	{"B", 1e9},
	{"T", 1e12},
}

// FormatTick formats one tick value against the axis maximum. Values that
// fall below the chosen scale's unit are expressed in the previous scale
// so short bars still get a readable label.
func FormatTick(value, axisMax float64) string {
	if value == 0 {
		return "0"
	}
	if axisMax == 0 {
		axisMax = value
	}

	for i, s := range tickScales {
		ratio := axisMax / s.unit
		if ratio < 0.1 || ratio >= 999 {
			continue
		}
		scaled := value / s.unit
		if math.Abs(scaled) < 1 && i > 0 {
			prev := tickScales[i-1]
			return fmt.Sprintf("%.0f%s", value/prev.unit, prev.label)
		}
		if math.Abs(scaled) < 1 {
			return fmt.Sprintf("%.0f", value)
		}
		return fmt.Sprintf("%.0f%s", scaled, s.label)
	}
	return fmt.Sprintf("%.0f", value)
}

// TruncateLabel shortens a label to at most n runes, appending an ellipsis
// when anything was cut.
func TruncateLabel(label string, n int) string {
	runes := []rune(label)
	if len(runes) <= n {
		return label
	}
	return string(runes[:n]) + "..."
}

// niceStep picks a 1/2/5-scaled gridline step producing roughly the wanted
// number of divisions over span.
func niceStep(span float64, divisions int) float64 {
	if span <= 0 || divisions <= 0 {
		return 1
	}
	raw := span / float64(divisions)
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	switch {
	case raw/mag >= 5:
		return 5 * mag
	case raw/mag >= 2:
		return 2 * mag
	default:
		return mag
	}
}
