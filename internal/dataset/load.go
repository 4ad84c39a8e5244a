package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// Column names expected in the CSV header. Order in the file is irrelevant
// and additional columns are ignored.
const (
	ColCountry         = "country"
	ColLat             = "lat"
	ColLon             = "lon"
	ColMedianAgeTotal  = "median_age_total"
	ColMedianAgeMale   = "median_age_male"
	ColMedianAgeFemale = "median_age_female"
	ColRegion          = "map_ref"
	ColLifeExpTotal    = "life_exp_total"
	ColLifeExpMale     = "life_exp_male"
	ColLifeExpFemale   = "life_exp_female"
)

// RequiredColumns returns the header names a country table must carry.
func RequiredColumns() []string {
	return []string{
		ColCountry, ColLat, ColLon,
		ColMedianAgeTotal, ColMedianAgeMale, ColMedianAgeFemale,
		ColRegion,
		ColLifeExpTotal, ColLifeExpMale, ColLifeExpFemale,
	}
}

// Load reads the country table at path. Any problem, including a single
// unparseable cell, fails the whole load with a *LoadError.
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer func() { _ = f.Close() }()
	return Read(f, path)
}

// Read parses a country table from r. source is only used in error messages.
func Read(r io.Reader, source string) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &LoadError{Path: source, Err: ErrEmptyFile}
	}
	if err != nil {
		return nil, &LoadError{Path: source, Line: 1, Err: err}
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	var missing []string
	for _, col := range RequiredColumns() {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &LoadError{Path: source, Line: 1, Column: strings.Join(missing, ","), Err: ErrMissingColumn}
	}

	var records []CountryRecord
	seen := make(map[string]int)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return nil, &LoadError{Path: source, Line: perr.Line, Err: perr.Err}
			}
			return nil, &LoadError{Path: source, Err: err}
		}
		line, _ := reader.FieldPos(0)

		rec, column, err := parseRow(row, index)
		if err != nil {
			return nil, &LoadError{Path: source, Line: line, Column: column, Err: err}
		}
		if first, dup := seen[rec.Country]; dup {
			return nil, &LoadError{
				Path:   source,
				Line:   line,
				Column: ColCountry,
				Err:    fmt.Errorf("%w: %q (first seen on line %d)", ErrDuplicateCountry, rec.Country, first),
			}
		}
		seen[rec.Country] = line
		records = append(records, rec)
	}
	return New(records)
}

func parseRow(row []string, index map[string]int) (CountryRecord, string, error) {
	cell := func(col string) string { return strings.TrimSpace(row[index[col]]) }

	rec := CountryRecord{
		Country: cell(ColCountry),
		Region:  cell(ColRegion),
	}
	if rec.Country == "" {
		return CountryRecord{}, ColCountry, ErrBlankCountry
	}

	numeric := []struct {
		col string
		dst *float64
	}{
		{ColLat, &rec.Lat},
		{ColLon, &rec.Lon},
		{ColMedianAgeTotal, &rec.MedianAgeTotal},
		{ColMedianAgeMale, &rec.MedianAgeMale},
		{ColMedianAgeFemale, &rec.MedianAgeFemale},
		{ColLifeExpTotal, &rec.LifeExpTotal},
		{ColLifeExpMale, &rec.LifeExpMale},
		{ColLifeExpFemale, &rec.LifeExpFemale},
	}
	for _, n := range numeric {
		raw := cell(n.col)
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return CountryRecord{}, n.col, fmt.Errorf("%w: %q", ErrInvalidNumber, raw)
		}
		*n.dst = v
	}
	return rec, "", nil
}
