package chart

import (
	"strconv"
	"strings"

	"lifeexp/internal/dataset"
)

// PageTitle is the browser title of the dashboard.
const PageTitle = "Life Expectancy at Birth by Country Dashboard - 2017 (CIA World Factbook)"

// MapTitle is the title of the world bubble map.
const MapTitle = "Life Expectancy at Birth - 2017"

const (
	background = "#eeeeee"
	gridColor  = "#cccccc"
	black      = "#000000"
	fontFamily = "Palatino"
)

// Figure is a Plotly-compatible figure description: a list of traces and a
// layout. The JSON encoding can be handed to Plotly.newPlot unchanged.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Trace is one Plotly trace. Only the attributes the dashboard uses exist.
type Trace struct {
	Type       string    `json:"type"`
	Mode       string    `json:"mode,omitempty"`
	Name       string    `json:"name,omitempty"`
	X          []string  `json:"x,omitempty"`
	Y          []float64 `json:"y,omitempty"`
	Lon        []float64 `json:"lon,omitempty"`
	Lat        []float64 `json:"lat,omitempty"`
	Text       []string  `json:"text,omitempty"`
	HoverText  []string  `json:"hovertext,omitempty"`
	HoverInfo  string    `json:"hoverinfo,omitempty"`
	ShowLegend *bool     `json:"showlegend,omitempty"`
	Marker     *Marker   `json:"marker,omitempty"`
}

// Marker styles the points of a trace. Color is either a single CSS colour
// or a numeric array mapped through ColorScale.
type Marker struct {
	Size       int       `json:"size,omitempty"`
	Color      any       `json:"color,omitempty"`
	Line       *Line     `json:"line,omitempty"`
	ColorScale string    `json:"colorscale,omitempty"`
	ColorBar   *ColorBar `json:"colorbar,omitempty"`
	ShowScale  bool      `json:"showscale,omitempty"`
}

type Line struct {
	Color string  `json:"color"`
	Width float64 `json:"width"`
}

type ColorBar struct {
	OutlineWidth float64 `json:"outlinewidth"`
}

type Font struct {
	Family string `json:"family,omitempty"`
	Size   int    `json:"size,omitempty"`
}

type Margin struct {
	R int `json:"r"`
	T int `json:"t"`
	B int `json:"b"`
	L int `json:"l"`
}

type Legend struct {
	Orientation string  `json:"orientation,omitempty"`
	Font        *Font   `json:"font,omitempty"`
	XAnchor     string  `json:"xanchor,omitempty"`
	X           float64 `json:"x"`
}

type Axis struct {
	ShowTickLabels bool `json:"showticklabels"`
}

type Geo struct {
	ShowLand       bool   `json:"showland"`
	LandColor      string `json:"landcolor"`
	ShowCountries  bool   `json:"showcountries"`
	CountryColor   string `json:"countrycolor"`
	ShowOcean      bool   `json:"showocean"`
	OceanColor     string `json:"oceancolor"`
	ShowCoastlines bool   `json:"showcoastlines"`
	CoastlineColor string `json:"coastlinecolor"`
	ShowFrame      bool   `json:"showframe"`
}

type Layout struct {
	Title     string  `json:"title"`
	Font      *Font   `json:"font,omitempty"`
	TitleFont *Font   `json:"titlefont,omitempty"`
	Width     int     `json:"width,omitempty"`
	Height    int     `json:"height,omitempty"`
	Margin    *Margin `json:"margin,omitempty"`
	Legend    *Legend `json:"legend,omitempty"`
	XAxis     *Axis   `json:"xaxis,omitempty"`
	PlotBG    string  `json:"plot_bgcolor,omitempty"`
	PaperBG   string  `json:"paper_bgcolor,omitempty"`
	Geo       *Geo    `json:"geo,omitempty"`
}

// ScatterFigure lays out composed series as the dashboard scatter plot.
func ScatterFigure(cs ChartSeries) Figure {
	fig := Figure{Data: make([]Trace, 0, len(cs.Baseline)+len(cs.Highlight)+len(cs.Markers))}
	for _, s := range cs.Baseline {
		x, y := xy(s.Points)
		fig.Data = append(fig.Data, Trace{
			Type:       "scatter",
			Mode:       "markers",
			Name:       s.Name,
			X:          x,
			Y:          y,
			ShowLegend: boolPtr(true),
		})
	}
	for _, s := range cs.Highlight {
		x, y := xy(s.Points)
		fig.Data = append(fig.Data, Trace{
			Type:       "scatter",
			Mode:       "markers",
			X:          x,
			Y:          y,
			HoverText:  x,
			HoverInfo:  "x+text",
			ShowLegend: boolPtr(false),
			Marker:     &Marker{Color: black, Size: 10},
		})
	}
	for _, s := range cs.Markers {
		x, y := xy(s.Points)
		fig.Data = append(fig.Data, Trace{
			Type:   "scatter",
			Mode:   "markers",
			Name:   s.Name,
			X:      x,
			Y:      y,
			Marker: &Marker{Size: 11, Line: &Line{Color: black, Width: 1}},
		})
	}
	fig.Layout = Layout{
		Title:     cs.Title,
		Height:    650,
		Margin:    &Margin{R: 0, T: 70, B: 70, L: 40},
		TitleFont: &Font{Size: 22},
		Font:      &Font{Family: fontFamily},
		Legend:    &Legend{Orientation: "h", Font: &Font{Size: 18}, XAnchor: "center", X: 0.5},
		XAxis:     &Axis{ShowTickLabels: false},
		PlotBG:    background,
		PaperBG:   background,
	}
	return fig
}

// MapFigure lays out every country as a bubble on a world map coloured by
// total life expectancy.
func MapFigure(records []dataset.CountryRecord) Figure {
	trace := Trace{
		Type:      "scattergeo",
		Mode:      "markers",
		HoverInfo: "text",
		Lon:       make([]float64, 0, len(records)),
		Lat:       make([]float64, 0, len(records)),
		Text:      make([]string, 0, len(records)),
	}
	colors := make([]float64, 0, len(records))
	for _, rec := range records {
		trace.Lon = append(trace.Lon, rec.Lon)
		trace.Lat = append(trace.Lat, rec.Lat)
		trace.Text = append(trace.Text, HoverText(rec))
		colors = append(colors, rec.LifeExpTotal)
	}
	trace.Marker = &Marker{
		Size:       27,
		Color:      colors,
		Line:       &Line{Color: black, Width: 0.2},
		ColorScale: "Cividis",
		ColorBar:   &ColorBar{OutlineWidth: 0},
		ShowScale:  true,
	}
	return Figure{
		Data: []Trace{trace},
		Layout: Layout{
			Title:     MapTitle,
			Font:      &Font{Family: fontFamily},
			TitleFont: &Font{Size: 22},
			PaperBG:   background,
			Width:     1420,
			Height:    750,
			Geo: &Geo{
				ShowLand:       true,
				LandColor:      background,
				ShowCountries:  true,
				CountryColor:   gridColor,
				ShowOcean:      true,
				OceanColor:     background,
				ShowCoastlines: true,
				CoastlineColor: gridColor,
				ShowFrame:      false,
			},
		},
	}
}

// HoverText is the map tooltip for one country.
func HoverText(rec dataset.CountryRecord) string {
	var b strings.Builder
	b.WriteString("<b>")
	b.WriteString(rec.Country)
	b.WriteString("</b><br>Life Expectancy at Birth<br>")
	b.WriteString("Total: " + FormatValue(rec.LifeExpTotal) + "<br>")
	b.WriteString("Male: " + FormatValue(rec.LifeExpMale) + "<br>")
	b.WriteString("Female: " + FormatValue(rec.LifeExpFemale))
	return b.String()
}

// FormatValue prints a statistic the way the source table does: shortest
// round-trip decimal, always with a fractional part ("85.3", "84.0").
func FormatValue(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func xy(points []Point) ([]string, []float64) {
	x := make([]string, 0, len(points))
	y := make([]float64, 0, len(points))
	for _, p := range points {
		x = append(x, p.Country)
		y = append(y, p.Value)
	}
	return x, y
}

func boolPtr(v bool) *bool { return &v }
