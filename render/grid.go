package render

import (
	"time"

	"github.com/jung-kurt/gofpdf"

	"flightlens/style"
)

// plotGrid maps data-space (x,y) values onto a rectangular region of the
// PDF page and draws the frame, gridlines, and tick labels for it.
type plotGrid struct {
	pdf *gofpdf.Fpdf

	// Page region the data is scaled onto; labels land outside it.
	offsetU, offsetV float64
	w, h             float64

	// Data ranges mapped onto the region.
	minX, maxX float64
	minY, maxY float64

	clip bool

	showGrid     bool
	xStep, yStep float64 // 0 = pick automatically

	fontFamily string
	fontSize   float64

	xTickTime bool // x values are unix seconds; label as dates
	noXTicks  bool
	noYTicks  bool
}

func newPlotGrid(pdf *gofpdf.Fpdf, d style.Directive) *plotGrid {
	return &plotGrid{
		pdf:        pdf,
		offsetU:    d.FigureMarginMM,
		offsetV:    d.FigureMarginMM + titleBandMM,
		w:          d.FigureWidthMM,
		h:          d.FigureHeightMM,
		showGrid:   d.ShowGrid,
		xStep:      d.GridXStep,
		yStep:      d.GridYStep,
		fontFamily: d.FontFamily,
		fontSize:   d.FontSize * 0.8,
	}
}

// u scales an x value into page space. The bool reports out-of-bounds.
func (g *plotGrid) u(x float64) (float64, bool) {
	ratio := (x - g.minX) / (g.maxX - g.minX)
	return g.offsetU + ratio*g.w, ratio < 0 || ratio > 1
}

// v scales a y value into page space; the page axis points down, the data
// axis points up. The bool reports out-of-bounds.
func (g *plotGrid) v(y float64) (float64, bool) {
	ratio := (y - g.minY) / (g.maxY - g.minY)
	return g.offsetV + (g.h - ratio*g.h), ratio < 0 || ratio > 1
}

// line draws a data-space segment, skipped when clipping is on and either
// end is outside the grid.
func (g *plotGrid) line(x1, y1, x2, y2 float64) {
	u1, v1, oob1 := g.uv(x1, y1)
	u2, v2, oob2 := g.uv(x2, y2)
	if g.clip && (oob1 || oob2) {
		return
	}
	g.pdf.Line(u1, v1, u2, v2)
}

func (g *plotGrid) uv(x, y float64) (u, v float64, oob bool) {
	u, oobU := g.u(x)
	v, oobV := g.v(y)
	return u, v, oobU || oobV
}

// rect fills a data-space rectangle given opposite corners.
func (g *plotGrid) rect(x1, y1, x2, y2 float64, styleStr string) {
	u1, v1, _ := g.uv(x1, y1)
	u2, v2, _ := g.uv(x2, y2)
	if u2 < u1 {
		u1, u2 = u2, u1
	}
	if v2 < v1 {
		v1, v2 = v2, v1
	}
	g.pdf.Rect(u1, v1, u2-u1, v2-v1, styleStr)
}

// drawFrame draws the plot box outline.
func (g *plotGrid) drawFrame() {
	g.pdf.SetLineWidth(0.25)
	g.pdf.SetDrawColor(0x40, 0x40, 0x40)
	g.pdf.Rect(g.offsetU, g.offsetV, g.w, g.h, "D")
}

// drawGridlines draws dashed gridlines at the configured steps (or an
// automatic 1/2/5 step) with tick labels along the outside edges.
func (g *plotGrid) drawGridlines() {
	g.pdf.SetFont(g.fontFamily, "", g.fontSize)

	xStep := g.xStep
	if xStep == 0 {
		xStep = niceStep(g.maxX-g.minX, 6)
	}
	yStep := g.yStep
	if yStep == 0 {
		yStep = niceStep(g.maxY-g.minY, 4)
	}

	g.pdf.SetLineWidth(0.1)
	g.pdf.SetDrawColor(0xe0, 0xe0, 0xe0)
	g.pdf.SetTextColor(0x40, 0x40, 0x40)

	for x := firstTick(g.minX, xStep); x <= g.maxX; x += xStep {
		u, _ := g.u(x)
		if g.showGrid {
			g.pdf.Line(u, g.offsetV, u, g.offsetV+g.h)
		}
		if !g.noXTicks {
			g.pdf.Text(u-4, g.offsetV+g.h+4, g.xTickLabel(x))
		}
	}
	for y := firstTick(g.minY, yStep); y <= g.maxY; y += yStep {
		v, _ := g.v(y)
		if g.showGrid {
			g.pdf.Line(g.offsetU, v, g.offsetU+g.w, v)
		}
		if !g.noYTicks {
			label := FormatTick(y, g.maxY)
			g.pdf.Text(g.offsetU-float64(len(label))*1.8-1, v+1, label)
		}
	}
}

func (g *plotGrid) xTickLabel(x float64) string {
	if g.xTickTime {
		return time.Unix(int64(x), 0).UTC().Format("2006-01-02")
	}
	return FormatTick(x, g.maxX)
}

// firstTick returns the smallest step multiple >= min.
func firstTick(min, step float64) float64 {
	if step <= 0 {
		return min
	}
	n := int(min / step)
	t := float64(n) * step
	for t < min {
		t += step
	}
	return t
}
