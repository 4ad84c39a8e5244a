package dataset

import (
	"fmt"
	"sort"
)

// Dataset is the loaded country table ordered ascending by LifeExpTotal.
// Rows with equal LifeExpTotal keep their input order. A Dataset is never
// mutated after construction and every accessor returns a fresh slice, so it
// can be shared by concurrent requests without locking.
type Dataset struct {
	records   []CountryRecord
	byCountry map[string]int
	byRegion  map[string][]int
}

// New builds a Dataset from records, sorting them by LifeExpTotal. Country
// names must be unique and non-blank.
func New(records []CountryRecord) (*Dataset, error) {
	sorted := append([]CountryRecord(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].LifeExpTotal < sorted[j].LifeExpTotal
	})

	ds := &Dataset{
		records:   sorted,
		byCountry: make(map[string]int, len(sorted)),
		byRegion:  make(map[string][]int),
	}
	for i, rec := range sorted {
		if rec.Country == "" {
			return nil, &LoadError{Column: ColCountry, Err: ErrBlankCountry}
		}
		if _, dup := ds.byCountry[rec.Country]; dup {
			return nil, &LoadError{Column: ColCountry, Err: fmt.Errorf("%w: %q", ErrDuplicateCountry, rec.Country)}
		}
		ds.byCountry[rec.Country] = i
		ds.byRegion[rec.Region] = append(ds.byRegion[rec.Region], i)
	}
	return ds, nil
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.records) }

// All returns every row in dataset order.
func (d *Dataset) All() []CountryRecord {
	return append([]CountryRecord(nil), d.records...)
}

// ByCountries returns the rows whose country is in names, in dataset order.
// Unknown and repeated names are ignored.
func (d *Dataset) ByCountries(names []string) []CountryRecord {
	positions := make([]int, 0, len(names))
	seen := make(map[int]struct{}, len(names))
	for _, name := range names {
		i, ok := d.byCountry[name]
		if !ok {
			continue
		}
		if _, dup := seen[i]; dup {
			continue
		}
		seen[i] = struct{}{}
		positions = append(positions, i)
	}
	sort.Ints(positions)
	return d.pick(positions)
}

// ByRegion returns the rows whose region equals region, in dataset order. An
// unknown or empty region yields an empty slice.
func (d *Dataset) ByRegion(region string) []CountryRecord {
	if region == "" {
		return []CountryRecord{}
	}
	return d.pick(d.byRegion[region])
}

// Lookup returns the row for a single country.
func (d *Dataset) Lookup(country string) (CountryRecord, bool) {
	i, ok := d.byCountry[country]
	if !ok {
		return CountryRecord{}, false
	}
	return d.records[i], true
}

// Countries returns every country name sorted alphabetically.
func (d *Dataset) Countries() []string {
	names := make([]string, 0, len(d.records))
	for _, rec := range d.records {
		names = append(names, rec.Country)
	}
	sort.Strings(names)
	return names
}

// RegionCount is the number of rows classified under one region.
type RegionCount struct {
	Region string `json:"region"`
	Rows   int    `json:"rows"`
}

// RegionCounts returns the row count for each fixed region, in region order,
// plus the number of rows whose region is not one of the fixed nine.
func (d *Dataset) RegionCounts() ([]RegionCount, int) {
	counts := make([]RegionCount, 0, len(regions))
	matched := 0
	for _, r := range regions {
		n := len(d.byRegion[r])
		matched += n
		counts = append(counts, RegionCount{Region: r, Rows: n})
	}
	return counts, len(d.records) - matched
}

func (d *Dataset) pick(positions []int) []CountryRecord {
	out := make([]CountryRecord, 0, len(positions))
	for _, i := range positions {
		out = append(out, d.records[i])
	}
	return out
}
