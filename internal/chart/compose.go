package chart

import (
	"strings"

	"lifeexp/internal/dataset"
)

// TitlePrefix starts every scatter title.
const TitlePrefix = "Life Expectancy at Birth 2017 "

// Source is the read-only view of the country table Compose needs.
type Source interface {
	All() []dataset.CountryRecord
	ByCountries(names []string) []dataset.CountryRecord
	ByRegion(region string) []dataset.CountryRecord
}

// Compose builds the scatter series for a selection. It has no side effects
// and identical inputs always produce identical output.
//
// Unknown countries are skipped and an unknown region highlights nothing. A
// country that is both selected and inside the highlighted region appears in
// both the highlight layer and its own marker series. The region is
// normalised with ParseRegion first.
func Compose(src Source, sel Selection) ChartSeries {
	sel.Region = ParseRegion(sel.Region)
	stats := dataset.Statistics()
	names := sel.SelectedCountries()

	all := src.All()
	var region []dataset.CountryRecord
	if sel.HasRegion() {
		region = src.ByRegion(sel.Region)
	}

	cs := ChartSeries{
		Baseline:  make([]Series, 0, len(stats)),
		Highlight: make([]Series, 0, len(stats)),
		Markers:   make([]Series, 0, len(names)),
		Region:    sel.Region,
		Title:     Title(names, sel.Region),
	}
	for _, stat := range stats {
		cs.Baseline = append(cs.Baseline, Series{
			Name:      stat.Label(),
			Kind:      KindBaseline,
			Statistic: stat,
			Points:    points(all, stat),
		})
	}
	for _, stat := range stats {
		cs.Highlight = append(cs.Highlight, Series{
			Name:      stat.Label(),
			Kind:      KindHighlight,
			Statistic: stat,
			Points:    points(region, stat),
		})
	}

	matched := make(map[string]dataset.CountryRecord, len(names))
	for _, rec := range src.ByCountries(names) {
		matched[rec.Country] = rec
	}
	for _, name := range names {
		rec, ok := matched[name]
		if !ok {
			continue
		}
		marker := Series{Name: rec.Country, Kind: KindMarker, Points: make([]Point, 0, len(stats))}
		for _, stat := range stats {
			marker.Points = append(marker.Points, Point{Country: rec.Country, Statistic: stat, Value: rec.Value(stat)})
		}
		cs.Markers = append(cs.Markers, marker)
	}
	return cs
}

// Title composes the scatter title for the selected countries and region.
func Title(countries []string, region string) string {
	region = ParseRegion(region)
	var b strings.Builder
	b.WriteString(TitlePrefix)
	b.WriteString(strings.Join(countries, ", "))
	if region != NoRegion {
		b.WriteString("  (")
		b.WriteString(region)
		b.WriteString(" Countries Highlighted)")
	}
	return b.String()
}

func points(records []dataset.CountryRecord, stat dataset.Statistic) []Point {
	out := make([]Point, 0, len(records))
	for _, rec := range records {
		out = append(out, Point{Country: rec.Country, Statistic: stat, Value: rec.Value(stat)})
	}
	return out
}
