package render

import (
	"fmt"
	"math"
	"sort"

	"github.com/jung-kurt/gofpdf"

	"flightlens/domain"
	"flightlens/style"
)

// drawTimeSeries plots the first time column against the first numeric
// column as a line.
func drawTimeSeries(pdf *gofpdf.Fpdf, tbl domain.ResultTable, d style.Directive) error {
	xCol := columnOfKind(tbl, domain.KindTime)
	yCol := columnOfKind(tbl, domain.KindInt, domain.KindFloat)
	if xCol < 0 || yCol < 0 {
		return domain.ErrSchemaMismatch("timeseries chart needs a time column and a numeric column")
	}

	times := tbl.Times(xCol)
	ys := tbl.Float64s(yCol)

	xs := make([]float64, len(times))
	for i, t := range times {
		xs[i] = float64(t.Unix())
	}

	g := newPlotGrid(pdf, d)
	g.minX, g.maxX = padRange(minMax(xs))
	g.minY, g.maxY = valueRange(ys)
	g.xTickTime = true

	g.drawGridlines()
	g.drawFrame()

	r, gc, b := d.Color(0)
	pdf.SetDrawColor(r, gc, b)
	pdf.SetLineWidth(0.5)
	for i := 1; i < len(xs); i++ {
		g.line(xs[i-1], ys[i-1], xs[i], ys[i])
	}
	return nil
}

// drawBar plots the first string column against the first numeric column
// as horizontal bars, writing each value just past the end of its bar the
// way the bar style labels values outside the bar.
func drawBar(pdf *gofpdf.Fpdf, tbl domain.ResultTable, d style.Directive) error {
	labelCol := columnOfKind(tbl, domain.KindString)
	valueCol := columnOfKind(tbl, domain.KindInt, domain.KindFloat)
	if labelCol < 0 || valueCol < 0 {
		return domain.ErrSchemaMismatch("bar chart needs a string column and a numeric column")
	}

	labels := tbl.Strings(labelCol)
	values := tbl.Float64s(valueCol)

	maxVal := 0.0
	for _, v := range values {
		if v > maxVal {
			maxVal = v
		}
	}
	if maxVal == 0 {
		maxVal = 1
	}

	g := newPlotGrid(pdf, d)
	g.minX, g.maxX = 0, maxVal*1.1
	g.minY, g.maxY = 0, float64(len(values))
	g.noXTicks = true
	g.noYTicks = true
	g.drawGridlines()
	g.drawFrame()

	// Row i occupies the band [n-1-i, n-i) in data space, top row first;
	// the bar fills the middle 70% of its band.
	n := len(values)
	for i := 0; i < n; i++ {
		bandTop := float64(n - i)
		r, gc, b := d.Color(i)
		pdf.SetFillColor(r, gc, b)
		g.rect(0, bandTop-0.15, values[i], bandTop-0.85, "F")

		v, _ := g.v(bandTop - 0.5)

		// value label just past the bar end
		pdf.SetFont(d.FontFamily, "B", d.FontSize*0.9)
		pdf.SetTextColor(0x20, 0x20, 0x20)
		u, _ := g.u(values[i])
		pdf.Text(u+1, v+1, FormatTick(values[i], maxVal))

		// category label outside the left edge
		pdf.SetFont(d.FontFamily, "", d.FontSize*0.9)
		label := TruncateLabel(labels[i], d.LabelMaxLen)
		pdf.Text(g.offsetU-pdf.GetStringWidth(label)-1.5, v+1, label)
	}
	return nil
}

// drawHistogram bins the first numeric column (Sturges' rule) and plots
// the bin counts as vertical bars.
func drawHistogram(pdf *gofpdf.Fpdf, tbl domain.ResultTable, d style.Directive) error {
	col := columnOfKind(tbl, domain.KindInt, domain.KindFloat)
	if col < 0 {
		return domain.ErrSchemaMismatch("histogram chart needs a numeric column")
	}
	values := tbl.Float64s(col)

	lo, hi := minMax(values)
	bins := int(math.Ceil(math.Log2(float64(len(values))))) + 1
	if bins < 1 {
		bins = 1
	}
	if hi == lo {
		hi = lo + 1
	}
	width := (hi - lo) / float64(bins)

	counts := make([]float64, bins)
	for _, v := range values {
		i := int((v - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		counts[i]++
	}
	maxCount := 0.0
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}

	g := newPlotGrid(pdf, d)
	g.minX, g.maxX = lo, hi
	g.minY, g.maxY = 0, maxCount*1.1
	g.drawGridlines()
	g.drawFrame()

	r, gc, b := d.Color(0)
	pdf.SetFillColor(r, gc, b)
	for i, c := range counts {
		if c == 0 {
			continue
		}
		x1 := lo + float64(i)*width
		g.rect(x1+width*0.05, 0, x1+width*0.95, c, "F")
	}
	return nil
}

// drawBox plots the first numeric column as a box-and-whisker, appending
// the IQR outlier count to the title the way the original box style does.
func drawBox(pdf *gofpdf.Fpdf, tbl domain.ResultTable, d style.Directive) error {
	col := columnOfKind(tbl, domain.KindInt, domain.KindFloat)
	if col < 0 {
		return domain.ErrSchemaMismatch("box chart needs a numeric column")
	}
	values := tbl.Float64s(col)

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	q1 := quantile(sorted, 0.25)
	med := quantile(sorted, 0.5)
	q3 := quantile(sorted, 0.75)
	iqr := q3 - q1
	loFence := q1 - 1.5*iqr
	hiFence := q3 + 1.5*iqr

	outliers := 0
	loWhisk, hiWhisk := q1, q3
	for _, v := range sorted {
		if v < loFence || v > hiFence {
			outliers++
			continue
		}
		if v < loWhisk {
			loWhisk = v
		}
		if v > hiWhisk {
			hiWhisk = v
		}
	}

	drawSubtitle(pdf, d, fmt.Sprintf("Outliers: %d", outliers))

	g := newPlotGrid(pdf, d)
	g.minX, g.maxX = 0, 1
	g.minY, g.maxY = padRange(sorted[0], sorted[len(sorted)-1])
	g.noXTicks = true
	g.drawGridlines()
	g.drawFrame()

	const cx, half = 0.5, 0.12
	r, gc, b := d.Color(0)
	pdf.SetDrawColor(r, gc, b)
	pdf.SetFillColor(0xf4, 0xf4, 0xf4)
	pdf.SetLineWidth(0.4)

	g.rect(cx-half, q1, cx+half, q3, "FD")
	g.line(cx-half, med, cx+half, med)
	g.line(cx, q3, cx, hiWhisk)
	g.line(cx, q1, cx, loWhisk)
	g.line(cx-half/2, hiWhisk, cx+half/2, hiWhisk)
	g.line(cx-half/2, loWhisk, cx+half/2, loWhisk)

	for _, v := range sorted {
		if v < loFence || v > hiFence {
			u, _ := g.u(cx)
			vv, _ := g.v(v)
			pdf.Circle(u, vv, 0.6, "D")
		}
	}
	return nil
}

// drawScatter plots the first two numeric columns as points. When the
// table also carries a string column, it groups the points: one palette
// color per distinct group value, in first-appearance order.
func drawScatter(pdf *gofpdf.Fpdf, tbl domain.ResultTable, d style.Directive) error {
	cols := columnsOfKind(tbl, domain.KindInt, domain.KindFloat)
	if len(cols) < 2 {
		return domain.ErrSchemaMismatch("scatter chart needs two numeric columns")
	}
	xs := tbl.Float64s(cols[0])
	ys := tbl.Float64s(cols[1])

	groups := make([]int, len(xs))
	if grpCol := columnOfKind(tbl, domain.KindString); grpCol >= 0 {
		index := map[string]int{}
		for i, name := range tbl.Strings(grpCol) {
			gi, ok := index[name]
			if !ok {
				gi = len(index)
				index[name] = gi
			}
			groups[i] = gi
		}
	}

	g := newPlotGrid(pdf, d)
	g.minX, g.maxX = padRange(minMax(xs))
	g.minY, g.maxY = padRange(minMax(ys))
	g.drawGridlines()
	g.drawFrame()

	pdf.SetLineWidth(0.2)
	for i := range xs {
		r, gc, b := d.Color(groups[i])
		pdf.SetFillColor(r, gc, b)
		pdf.SetDrawColor(r, gc, b)
		u, v, _ := g.uv(xs[i], ys[i])
		pdf.Circle(u, v, 0.8, "FD")
	}
	return nil
}

// drawHeatmap renders the pairwise correlation matrix of every numeric
// column as a colored grid, blue through white to red over [-1, 1], with
// the coefficient printed in each cell.
func drawHeatmap(pdf *gofpdf.Fpdf, tbl domain.ResultTable, d style.Directive) error {
	cols := columnsOfKind(tbl, domain.KindInt, domain.KindFloat)
	if len(cols) < 2 {
		return domain.ErrSchemaMismatch("heatmap chart needs at least two numeric columns")
	}

	n := len(cols)
	series := make([][]float64, n)
	names := make([]string, n)
	for i, c := range cols {
		series[i] = tbl.Float64s(c)
		names[i] = TruncateLabel(tbl.Columns[c].Name, d.LabelMaxLen)
	}

	g := newPlotGrid(pdf, d)
	g.minX, g.maxX = 0, float64(n)
	g.minY, g.maxY = 0, float64(n)
	g.noXTicks = true
	g.noYTicks = true

	pdf.SetFont(d.FontFamily, "", d.FontSize*0.8)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			corr := correlation(series[i], series[j])
			cr, cg, cb := heatColor(corr)
			pdf.SetFillColor(cr, cg, cb)
			// row i occupies the band [n-1-i, n-i), top row first
			g.rect(float64(j), float64(n-1-i), float64(j+1), float64(n-i), "F")

			label := fmt.Sprintf("%.2f", corr)
			u, _ := g.u(float64(j) + 0.5)
			v, _ := g.v(float64(n-i) - 0.5)
			pdf.SetTextColor(0x20, 0x20, 0x20)
			pdf.Text(u-pdf.GetStringWidth(label)/2, v+1, label)
		}

		// row label outside the left edge, column label below the frame
		u, _ := g.u(float64(i) + 0.5)
		v, _ := g.v(float64(n-i) - 0.5)
		pdf.Text(g.offsetU-pdf.GetStringWidth(names[i])-1.5, v+1, names[i])
		pdf.Text(u-pdf.GetStringWidth(names[i])/2, g.offsetV+g.h+4, names[i])
	}
	g.drawFrame()
	return nil
}

// heatColor maps a correlation coefficient onto a blue-white-red ramp.
func heatColor(r float64) (int, int, int) {
	if r < -1 {
		r = -1
	}
	if r > 1 {
		r = 1
	}
	if r < 0 {
		c := int(255 * (1 + r))
		return c, c, 255
	}
	c := int(255 * (1 - r))
	return 255, c, c
}

// correlation computes the Pearson coefficient of two equal-length series.
// A constant series correlates with nothing and yields 0.
func correlation(a, b []float64) float64 {
	n := float64(len(a))
	var sumA, sumB float64
	for i := range a {
		sumA += a[i]
		sumB += b[i]
	}
	meanA, meanB := sumA/n, sumB/n

	var cov, varA, varB float64
	for i := range a {
		da, db := a[i]-meanA, b[i]-meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	if varA == 0 || varB == 0 {
		return 0
	}
	return cov / math.Sqrt(varA*varB)
}

// quantile computes the p-quantile of sorted values with linear
// interpolation between order statistics.
func quantile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := p * float64(len(sorted)-1)
	i := int(pos)
	frac := pos - float64(i)
	if i+1 >= len(sorted) {
		return sorted[i]
	}
	return sorted[i] + frac*(sorted[i+1]-sorted[i])
}

func minMax(values []float64) (lo, hi float64) {
	lo, hi = values[0], values[0]
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// valueRange anchors a value axis at zero for all-positive data and pads
// the top so lines stay off the frame.
func valueRange(values []float64) (lo, hi float64) {
	lo, hi = minMax(values)
	if lo > 0 {
		lo = 0
	}
	if hi == lo {
		hi = lo + 1
	}
	return lo, hi * 1.05
}

// padRange widens a degenerate or tight range so it can be mapped.
func padRange(lo, hi float64) (float64, float64) {
	if hi == lo {
		return lo - 1, hi + 1
	}
	pad := (hi - lo) * 0.02
	return lo - pad, hi + pad
}
