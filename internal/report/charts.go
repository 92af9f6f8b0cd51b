package report

// charts.go draws chart images. Each function is pure: it builds a fresh
// go-chart value from the Chart data and encodes it to PNG, so any number can
// run at once.

import (
	"bytes"
	"errors"
	"io"
	"math"
	"strconv"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// chartFunc renders one chart to PNG bytes.
type chartFunc func(c *Chart) ([]byte, error)

var chartFuncs = map[BlockKind]chartFunc{
	BlockPieChart:   renderPie,
	BlockBarChart:   renderBar,
	BlockTrendChart: renderTrend,
}

func renderPie(c *Chart) ([]byte, error) {
	if len(c.Slices) == 0 {
		return nil, errors.New("pie chart: no values")
	}
	values := make([]chart.Value, len(c.Slices))
	for i, s := range c.Slices {
		values[i] = chart.Value{
			Label: s.Label,
			Value: s.Value,
			Style: chart.Style{
				FillColor:   drawing.ColorFromHex(s.Color),
				StrokeColor: drawing.ColorWhite,
				StrokeWidth: 1,
			},
		}
	}

	pie := chart.PieChart{
		Title:  c.Title,
		Width:  640,
		Height: 640,
		Values: values,
	}
	return encodePNG(pie.Render)
}

func renderBar(c *Chart) ([]byte, error) {
	if len(c.Slices) == 0 {
		return nil, errors.New("bar chart: no values")
	}
	const barWidth, barSpacing = 50, 30

	maxValue := 0.0
	bars := make([]chart.Value, len(c.Slices))
	for i, s := range c.Slices {
		bars[i] = chart.Value{
			Label: s.Label,
			Value: s.Value,
			Style: chart.Style{
				FillColor:   drawing.ColorFromHex(s.Color),
				StrokeColor: drawing.ColorFromHex(s.Color),
				StrokeWidth: 1,
			},
		}
		maxValue = math.Max(maxValue, s.Value)
	}

	width := len(bars)*(barWidth+barSpacing) + 160
	if width < 800 {
		width = 800
	}

	bar := chart.BarChart{
		Title:      c.Title,
		Width:      width,
		Height:     500,
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		Background: chart.Style{Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20}},
		YAxis: chart.YAxis{
			Range:          &chart.ContinuousRange{Min: 0, Max: math.Ceil(maxValue) + 1},
			ValueFormatter: intFormatter,
		},
		Bars: bars,
	}
	return encodePNG(bar.Render)
}

func renderTrend(c *Chart) ([]byte, error) {
	n := 0
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range c.Series {
		n = max(n, len(s.Values))
		for _, v := range s.Values {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if n == 0 {
		return nil, errors.New("trend chart: no values")
	}

	// go-chart rejects zero-width ranges, so flat data gets padding.
	pad := (hi - lo) * 0.05
	if pad == 0 {
		pad = math.Max(math.Abs(hi)*0.1, 1)
	}

	// go-chart needs two distinct X values, so a single reading is drawn
	// as a flat segment from 1 to 2.
	width := max(n, 2)
	xs := make([]float64, width)
	ticks := make([]chart.Tick, width)
	for i := range xs {
		xs[i] = float64(i + 1)
		ticks[i] = chart.Tick{Value: xs[i]}
		if i < n {
			ticks[i].Label = strconv.Itoa(i + 1)
		}
	}

	series := make([]chart.Series, 0, len(c.Series))
	for _, s := range c.Series {
		ys := s.Values
		if len(ys) == 1 {
			ys = []float64{ys[0], ys[0]}
		}
		color := drawing.ColorFromHex(s.Color)
		series = append(series, chart.ContinuousSeries{
			Name:    s.Name,
			XValues: xs[:len(ys)],
			YValues: ys,
			Style: chart.Style{
				StrokeColor: color,
				StrokeWidth: 2,
				DotColor:    color,
				DotWidth:    3,
			},
		})
	}

	graph := chart.Chart{
		Title:      c.Title,
		Width:      960,
		Height:     480,
		Background: chart.Style{Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20}},
		XAxis: chart.XAxis{
			Name:  "Equipment Index",
			Range: &chart.ContinuousRange{Min: 1, Max: float64(width)},
			Ticks: ticks,
		},
		YAxis: chart.YAxis{
			Name:  "Value",
			Range: &chart.ContinuousRange{Min: lo - pad, Max: hi + pad},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	return encodePNG(graph.Render)
}

func intFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return strconv.Itoa(int(math.Round(f)))
	}
	return ""
}

func encodePNG(render func(chart.RendererProvider, io.Writer) error) ([]byte, error) {
	var buf bytes.Buffer
	if err := render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
