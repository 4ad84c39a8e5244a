package render

import (
	"fmt"
	"io"
	"math"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"lifeexp/internal/chart"
)

var (
	backgroundColor = drawing.ColorFromHex("eeeeee")
	highlightColor  = drawing.ColorBlack
	// plotly default colourway
	palette = []drawing.Color{
		drawing.ColorFromHex("636efa"),
		drawing.ColorFromHex("ef553b"),
		drawing.ColorFromHex("00cc96"),
		drawing.ColorFromHex("ab63fa"),
		drawing.ColorFromHex("ffa15a"),
		drawing.ColorFromHex("19d3f3"),
		drawing.ColorFromHex("ff6692"),
		drawing.ColorFromHex("b6e880"),
		drawing.ColorFromHex("ff97ff"),
		drawing.ColorFromHex("fecb52"),
	}
)

// Scatter draws the composed series as a points-only chart. Countries sit on
// the x axis in dataset order; tick labels are hidden as there are too many
// to read.
func Scatter(w io.Writer, cs chart.ChartSeries, format Format, size Size) error {
	provider, err := rendererFor(format)
	if err != nil {
		return err
	}
	size = size.or(DefaultScatterSize)

	categories := cs.Categories()
	index := make(map[string]float64, len(categories))
	for i, name := range categories {
		index[name] = float64(i)
	}

	var series []gochart.Series
	colour := 0
	for _, s := range cs.Baseline {
		if bs := continuous(s.Name, s.Points, index, pointStyle(palette[colour%len(palette)], 3)); bs != nil {
			series = append(series, bs)
		}
		colour++
	}

	// The three highlight series share one style, so they are drawn as one
	// series with a single legend entry.
	var highlighted []chart.Point
	for _, s := range cs.Highlight {
		highlighted = append(highlighted, s.Points...)
	}
	if cs.Region != chart.NoRegion {
		if hs := continuous(cs.Region+" countries", highlighted, index, pointStyle(highlightColor, 4)); hs != nil {
			series = append(series, hs)
		}
	}

	for _, s := range cs.Markers {
		if ms := continuous(s.Name, s.Points, index, pointStyle(palette[colour%len(palette)], 6)); ms != nil {
			series = append(series, ms)
		}
		colour++
	}
	drawLegend := len(series) > 0
	if !drawLegend {
		// go-chart needs one series to lay out the axes; an empty table
		// still gets its titled frame.
		series = append(series, gochart.ContinuousSeries{
			Style:   gochart.Style{Hidden: true, StrokeWidth: gochart.Disabled},
			XValues: []float64{0},
			YValues: []float64{0},
		})
	}

	lo, hi := valueRange(cs.Layers())
	ch := gochart.Chart{
		Title:      cs.Title,
		TitleStyle: gochart.Style{FontSize: 16},
		Width:      size.Width,
		Height:     size.Height,
		Background: gochart.Style{
			FillColor: backgroundColor,
			Padding:   gochart.Box{Top: 70, Left: 40, Right: 20, Bottom: 70},
		},
		Canvas: gochart.Style{FillColor: backgroundColor},
		XAxis: gochart.XAxis{
			Style: gochart.Style{Hidden: true},
			Range: &gochart.ContinuousRange{Min: -1, Max: float64(len(categories))},
		},
		YAxis: gochart.YAxis{
			Name:  "Years",
			Range: &gochart.ContinuousRange{Min: lo, Max: hi},
		},
		Series: series,
	}
	if drawLegend {
		ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}
	}

	if err := ch.Render(provider, w); err != nil {
		return fmt.Errorf("render scatter %s: %w", format, err)
	}
	return nil
}

func rendererFor(format Format) (gochart.RendererProvider, error) {
	switch format {
	case FormatPNG:
		return gochart.PNG, nil
	case FormatSVG:
		return gochart.SVG, nil
	default:
		return nil, fmt.Errorf("%w: %s is not an image format", ErrUnsupportedFormat, format)
	}
}

func pointStyle(c drawing.Color, dot float64) gochart.Style {
	return gochart.Style{
		StrokeWidth: gochart.Disabled,
		DotWidth:    dot,
		DotColor:    c,
	}
}

func continuous(name string, points []chart.Point, index map[string]float64, style gochart.Style) *gochart.ContinuousSeries {
	xs := make([]float64, 0, len(points))
	ys := make([]float64, 0, len(points))
	for _, p := range points {
		x, ok := index[p.Country]
		if !ok {
			continue
		}
		xs = append(xs, x)
		ys = append(ys, p.Value)
	}
	if len(xs) == 0 {
		return nil
	}
	return &gochart.ContinuousSeries{Name: name, Style: style, XValues: xs, YValues: ys}
}

// valueRange pads the observed min and max so points never sit on the frame
// and a single distinct value still yields a non-empty range.
func valueRange(layers []chart.Series) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range layers {
		for _, p := range s.Points {
			lo = math.Min(lo, p.Value)
			hi = math.Max(hi, p.Value)
		}
	}
	if math.IsInf(lo, 1) {
		return 0, 1
	}
	return math.Floor(lo) - 2, math.Ceil(hi) + 2
}
