// Package dataset loads the per-country demographics table that backs the
// dashboard and exposes it as an immutable, ordered, indexed collection.
package dataset

import "strings"

// CountryRecord is one row of the country table.
type CountryRecord struct {
	Country         string  `json:"country"`
	Lat             float64 `json:"lat"`
	Lon             float64 `json:"lon"`
	Region          string  `json:"region"`
	MedianAgeTotal  float64 `json:"median_age_total"`
	MedianAgeMale   float64 `json:"median_age_male"`
	MedianAgeFemale float64 `json:"median_age_female"`
	LifeExpTotal    float64 `json:"life_exp_total"`
	LifeExpMale     float64 `json:"life_exp_male"`
	LifeExpFemale   float64 `json:"life_exp_female"`
}

// Statistic names one of the three plotted life expectancy columns.
type Statistic string

const (
	LifeExpTotal  Statistic = "life_exp_total"
	LifeExpMale   Statistic = "life_exp_male"
	LifeExpFemale Statistic = "life_exp_female"
)

// Statistics returns the plotted statistics in draw order.
func Statistics() []Statistic {
	return []Statistic{LifeExpTotal, LifeExpMale, LifeExpFemale}
}

// Label renders the column name as a legend label, e.g. "Life Exp Total".
func (s Statistic) Label() string {
	words := strings.Split(string(s), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Value returns the record's value for the statistic. Unknown statistics
// yield zero.
func (r CountryRecord) Value(s Statistic) float64 {
	switch s {
	case LifeExpTotal:
		return r.LifeExpTotal
	case LifeExpMale:
		return r.LifeExpMale
	case LifeExpFemale:
		return r.LifeExpFemale
	default:
		return 0
	}
}

// regions lists the nine map_ref classifications in dropdown order.
var regions = []string{
	"Africa",
	"Arctic Region",
	"Asia",
	"Central America and the Caribbean",
	"Europe",
	"Middle East",
	"North America",
	"South America",
	"Southeast Asia",
}

// Regions returns a copy of the fixed region list.
func Regions() []string {
	return append([]string(nil), regions...)
}

// IsRegion reports whether name is one of the fixed regions.
func IsRegion(name string) bool {
	for _, r := range regions {
		if r == name {
			return true
		}
	}
	return false
}
