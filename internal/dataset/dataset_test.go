package dataset

import (
	"errors"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func countries(records []CountryRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Country)
	}
	return out
}

func TestByRegionReturnsOnlyMatchingRowsAndCoversDataset(t *testing.T) {
	ds := loadFixture(t)

	union := make(map[string]struct{})
	for _, region := range Regions() {
		for _, rec := range ds.ByRegion(region) {
			if rec.Region != region {
				t.Fatalf("ByRegion(%q) returned %s in %s", region, rec.Country, rec.Region)
			}
			union[rec.Country] = struct{}{}
		}
	}
	for _, rec := range ds.All() {
		if IsRegion(rec.Region) {
			if _, ok := union[rec.Country]; !ok {
				t.Fatalf("%s missing from region union", rec.Country)
			}
			continue
		}
		union[rec.Country] = struct{}{}
	}
	if len(union) != ds.Len() {
		t.Fatalf("union has %d rows, dataset %d", len(union), ds.Len())
	}
}

func TestByRegionPreservesDatasetOrder(t *testing.T) {
	ds := loadFixture(t)
	if diff := cmp.Diff([]string{"Chad", "Nigeria"}, countries(ds.ByRegion("Africa"))); diff != "" {
		t.Fatalf("africa (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Germany", "France"}, countries(ds.ByRegion("Europe"))); diff != "" {
		t.Fatalf("europe (-want +got):\n%s", diff)
	}
}

func TestByRegionUnknownOrEmpty(t *testing.T) {
	ds := loadFixture(t)
	for _, region := range []string{"", "Atlantis", "africa"} {
		got := ds.ByRegion(region)
		if got == nil || len(got) != 0 {
			t.Fatalf("ByRegion(%q) = %v, want empty non-nil", region, got)
		}
	}
}

func TestByCountriesUsesDatasetOrderAndIgnoresUnknown(t *testing.T) {
	ds := loadFixture(t)
	got := countries(ds.ByCountries([]string{"Japan", "Narnia", "Chad", "Japan", "Brazil"}))
	if diff := cmp.Diff([]string{"Chad", "Brazil", "Japan"}, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	if got := ds.ByCountries(nil); len(got) != 0 {
		t.Fatalf("expected no rows for empty names")
	}
}

func TestAllReturnsCopy(t *testing.T) {
	ds := loadFixture(t)
	rows := ds.All()
	rows[0].Country = "Mutated"
	rows[0].LifeExpTotal = 999
	if ds.All()[0].Country != "Chad" {
		t.Fatalf("dataset mutated through All()")
	}
	region := ds.ByRegion("Africa")
	region[0].Region = "Europe"
	if len(ds.ByRegion("Africa")) != 2 {
		t.Fatalf("dataset mutated through ByRegion()")
	}
}

func TestCountriesSortedAlphabetically(t *testing.T) {
	ds := loadFixture(t)
	names := ds.Countries()
	if !sort.StringsAreSorted(names) || len(names) != ds.Len() {
		t.Fatalf("unexpected countries %v", names)
	}
}

func TestRegionCounts(t *testing.T) {
	ds := loadFixture(t)
	counts, unmatched := ds.RegionCounts()
	if len(counts) != 9 {
		t.Fatalf("expected 9 regions, got %d", len(counts))
	}
	total := unmatched
	for _, c := range counts {
		total += c.Rows
		if c.Region == "Africa" && c.Rows != 2 {
			t.Fatalf("expected 2 african rows, got %d", c.Rows)
		}
	}
	if unmatched != 1 || total != ds.Len() {
		t.Fatalf("unmatched=%d total=%d len=%d", unmatched, total, ds.Len())
	}
}

func TestNewRejectsDuplicates(t *testing.T) {
	_, err := New([]CountryRecord{{Country: "A"}, {Country: "A"}})
	if !errors.Is(err, ErrDuplicateCountry) {
		t.Fatalf("expected ErrDuplicateCountry, got %v", err)
	}
	if _, err := New([]CountryRecord{{}}); !errors.Is(err, ErrBlankCountry) {
		t.Fatalf("expected ErrBlankCountry, got %v", err)
	}
}

func TestStatisticLabelAndValue(t *testing.T) {
	rec := CountryRecord{LifeExpTotal: 1, LifeExpMale: 2, LifeExpFemale: 3}
	want := map[Statistic]struct {
		label string
		value float64
	}{
		LifeExpTotal:  {"Life Exp Total", 1},
		LifeExpMale:   {"Life Exp Male", 2},
		LifeExpFemale: {"Life Exp Female", 3},
	}
	for _, s := range Statistics() {
		if s.Label() != want[s].label || rec.Value(s) != want[s].value {
			t.Fatalf("%s: label %q value %v", s, s.Label(), rec.Value(s))
		}
	}
	if rec.Value("median_age_total") != 0 {
		t.Fatalf("unknown statistic should be zero")
	}
}
