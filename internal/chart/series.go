// Package chart turns a dropdown selection into the layered scatter series
// and figure descriptions the dashboard renders.
package chart

import "lifeexp/internal/dataset"

// Kind identifies which layer a series belongs to.
type Kind string

const (
	KindBaseline  Kind = "baseline"
	KindHighlight Kind = "highlight"
	KindMarker    Kind = "marker"
)

// Point is one plotted value. Country is the category on the x axis.
type Point struct {
	Country   string            `json:"country"`
	Statistic dataset.Statistic `json:"statistic"`
	Value     float64           `json:"value"`
}

// Series is an ordered set of points drawn with one style.
type Series struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
	// Statistic is set for baseline and highlight series; marker series mix
	// all three statistics.
	Statistic dataset.Statistic `json:"statistic,omitempty"`
	Points    []Point           `json:"points"`
}

// ChartSeries is everything needed to draw the scatter plot for one
// selection. Layers draw in field order: baseline, highlight, markers.
type ChartSeries struct {
	Baseline  []Series `json:"baseline"`
	Highlight []Series `json:"highlight"`
	Markers   []Series `json:"markers"`
	Region    string   `json:"region,omitempty"`
	Title     string   `json:"title"`
}

// Layers returns all series in draw order.
func (c ChartSeries) Layers() []Series {
	out := make([]Series, 0, len(c.Baseline)+len(c.Highlight)+len(c.Markers))
	out = append(out, c.Baseline...)
	out = append(out, c.Highlight...)
	out = append(out, c.Markers...)
	return out
}

// Categories returns the x-axis category order, which is the baseline order.
func (c ChartSeries) Categories() []string {
	if len(c.Baseline) == 0 {
		return nil
	}
	out := make([]string, 0, len(c.Baseline[0].Points))
	for _, p := range c.Baseline[0].Points {
		out = append(out, p.Country)
	}
	return out
}
