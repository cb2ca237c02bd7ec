// Package render maps result tables onto styled PDF figures.
package render

import (
	"fmt"
	"io"
	"os"

	"github.com/jung-kurt/gofpdf"

	"flightlens/domain"
	"flightlens/style"
)

// Kind selects the chart family a table is rendered as.
type Kind string

const (
	TimeSeries Kind = "timeseries"
	Bar        Kind = "bar"
	Histogram  Kind = "histogram"
	Box        Kind = "box"
	Scatter    Kind = "scatter"
	Heatmap    Kind = "heatmap"
)

// titleBandMM is the page band above the plot box reserved for the title.
const titleBandMM = 14.0

// Figure is a rendered single-page PDF chart.
type Figure struct {
	pdf *gofpdf.Fpdf
}

// WriteTo emits the PDF document. The figure is single-use: the document
// is finalized by the first write.
func (f *Figure) WriteTo(w io.Writer) (int64, error) {
	cw := &countWriter{w: w}
	if err := f.pdf.Output(cw); err != nil {
		return cw.n, fmt.Errorf("write figure: %w", err)
	}
	return cw.n, nil
}

// WriteFile writes the figure to a file.
func (f *Figure) WriteFile(path string) error {
	out, err := os.Create(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := f.WriteTo(out); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

type countWriter struct {
	w io.Writer
	n int64
}

func (c *countWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// Render maps the table and chart kind onto a figure, applying the
// directive's palette, fonts, sizing, and grid conventions uniformly.
// The table is never mutated. A zero-row table is refused with
// *domain.EmptyDataError rather than rendered blank.
func Render(tbl domain.ResultTable, kind Kind, d style.Directive) (*Figure, error) {
	var draw func(pdf *gofpdf.Fpdf, tbl domain.ResultTable, d style.Directive) error
	switch kind {
	case TimeSeries:
		draw = drawTimeSeries
	case Bar:
		draw = drawBar
	case Histogram:
		draw = drawHistogram
	case Box:
		draw = drawBox
	case Scatter:
		draw = drawScatter
	case Heatmap:
		draw = drawHeatmap
	default:
		return nil, &domain.UnsupportedChartKindError{Kind: string(kind)}
	}

	if tbl.NumRows() == 0 {
		return nil, &domain.EmptyDataError{Kind: string(kind)}
	}

	pdf := newPage(d)
	drawTitle(pdf, d, d.Title)

	if err := draw(pdf, tbl, d); err != nil {
		return nil, err
	}
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render %s chart: %w", kind, err)
	}
	return &Figure{pdf: pdf}, nil
}

// newPage opens a one-page document sized to the directive's figure box
// plus margins and the title band.
func newPage(d style.Directive) *gofpdf.Fpdf {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "mm",
		Size: gofpdf.SizeType{
			Wd: d.FigureWidthMM + 2*d.FigureMarginMM,
			Ht: d.FigureHeightMM + 2*d.FigureMarginMM + titleBandMM,
		},
	})
	pdf.AddPage()
	return pdf
}

func drawTitle(pdf *gofpdf.Fpdf, d style.Directive, title string) {
	if title == "" {
		return
	}
	pdf.SetFont(d.FontFamily, "B", d.TitleFontSize)
	pdf.SetTextColor(0x20, 0x20, 0x20)
	w := pdf.GetStringWidth(title)
	pageW := d.FigureWidthMM + 2*d.FigureMarginMM
	pdf.Text((pageW-w)/2, d.FigureMarginMM+d.TitleFontSize*0.35, title)
}

func drawSubtitle(pdf *gofpdf.Fpdf, d style.Directive, subtitle string) {
	pdf.SetFont(d.FontFamily, "", d.FontSize)
	pdf.SetTextColor(0x60, 0x60, 0x60)
	w := pdf.GetStringWidth(subtitle)
	pageW := d.FigureWidthMM + 2*d.FigureMarginMM
	pdf.Text((pageW-w)/2, d.FigureMarginMM+d.TitleFontSize*0.35+5, subtitle)
}

// columnOfKind returns the index of the first column with one of the
// wanted kinds, or -1.
func columnOfKind(tbl domain.ResultTable, kinds ...domain.Kind) int {
	for i, c := range tbl.Columns {
		for _, k := range kinds {
			if c.Kind == k {
				return i
			}
		}
	}
	return -1
}

// columnsOfKind returns the indices of every column with one of the wanted
// kinds, in column order.
func columnsOfKind(tbl domain.ResultTable, kinds ...domain.Kind) []int {
	out := []int{}
	for i, c := range tbl.Columns {
		for _, k := range kinds {
			if c.Kind == k {
				out = append(out, i)
				break
			}
		}
	}
	return out
}
