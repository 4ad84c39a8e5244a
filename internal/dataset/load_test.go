package dataset

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const header = "country,lat,lon,median_age_total,median_age_male,median_age_female,map_ref,life_exp_total,life_exp_male,life_exp_female\n"

func loadFixture(t *testing.T) *Dataset {
	t.Helper()
	ds, err := Load(filepath.Join("testdata", "countries.csv"))
	if err != nil {
		t.Fatalf("load fixture: %v", err)
	}
	return ds
}

func TestLoadSortsByLifeExpectancyKeepingFileOrderForTies(t *testing.T) {
	ds := loadFixture(t)

	var got []string
	for _, rec := range ds.All() {
		got = append(got, rec.Country)
	}
	want := []string{
		"Chad", "Nigeria", "Antarctica Station", "Greenland", "Vietnam",
		"Brazil", "Jamaica", "Iran", "Germany", "Canada", "France", "Japan",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}

	all := ds.All()
	for i := 1; i < len(all); i++ {
		if all[i-1].LifeExpTotal > all[i].LifeExpTotal {
			t.Fatalf("rows %d,%d out of order: %v > %v", i-1, i, all[i-1].LifeExpTotal, all[i].LifeExpTotal)
		}
	}
}

func TestLoadParsesAllColumns(t *testing.T) {
	ds := loadFixture(t)
	rec, ok := ds.Lookup("Japan")
	if !ok {
		t.Fatalf("expected Japan")
	}
	want := CountryRecord{
		Country: "Japan", Lat: 36, Lon: 138, Region: "Asia",
		MedianAgeTotal: 47.3, MedianAgeMale: 46, MedianAgeFemale: 48.7,
		LifeExpTotal: 85.3, LifeExpMale: 81.9, LifeExpFemale: 88.9,
	}
	if diff := cmp.Diff(want, rec); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestReadIsColumnOrderIndependent(t *testing.T) {
	input := "life_exp_female,map_ref,country,lon,lat,life_exp_male,life_exp_total,median_age_female,median_age_male,median_age_total\n" +
		"52,Africa,Chad,19,15,49.3,50.6,19.3,16.2,17.8\n"
	ds, err := Read(strings.NewReader(input), "inline")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	rec, _ := ds.Lookup("Chad")
	if rec.LifeExpTotal != 50.6 || rec.LifeExpFemale != 52 || rec.Region != "Africa" || rec.Lat != 15 {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.csv"))
	var lerr *LoadError
	if !errors.As(err, &lerr) {
		t.Fatalf("expected LoadError, got %v", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist cause, got %v", err)
	}
}

func TestReadEmptyInput(t *testing.T) {
	_, err := Read(strings.NewReader(""), "empty")
	if !errors.Is(err, ErrEmptyFile) {
		t.Fatalf("expected ErrEmptyFile, got %v", err)
	}
}

func TestReadMissingColumnNamesColumns(t *testing.T) {
	input := "country,lat,lon,median_age_total,median_age_male,median_age_female,life_exp_total,life_exp_male\n"
	_, err := Read(strings.NewReader(input), "inline")
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
	var lerr *LoadError
	if !errors.As(err, &lerr) {
		t.Fatalf("expected LoadError")
	}
	if lerr.Column != "map_ref,life_exp_female" {
		t.Fatalf("unexpected column %q", lerr.Column)
	}
}

func TestReadInvalidNumberNamesRowAndColumn(t *testing.T) {
	input := header +
		"Japan,36,138,47.3,46,48.7,Asia,85.3,81.9,88.9\n" +
		"Chad,15,19,17.8,16.2,19.3,Africa,n/a,49.3,52\n"
	_, err := Read(strings.NewReader(input), "inline")
	if !errors.Is(err, ErrInvalidNumber) {
		t.Fatalf("expected ErrInvalidNumber, got %v", err)
	}
	var lerr *LoadError
	if !errors.As(err, &lerr) {
		t.Fatalf("expected LoadError")
	}
	if lerr.Line != 3 || lerr.Column != ColLifeExpTotal {
		t.Fatalf("expected line 3 column life_exp_total, got line %d column %q", lerr.Line, lerr.Column)
	}
	if !strings.Contains(err.Error(), "line 3") || !strings.Contains(err.Error(), "n/a") {
		t.Fatalf("error message lacks location: %v", err)
	}
}

func TestReadRejectsNonFiniteAndBlank(t *testing.T) {
	cases := map[string]string{
		"nan":   "Japan,NaN,138,47.3,46,48.7,Asia,85.3,81.9,88.9\n",
		"inf":   "Japan,36,Inf,47.3,46,48.7,Asia,85.3,81.9,88.9\n",
		"blank": "Japan,36,138,,46,48.7,Asia,85.3,81.9,88.9\n",
	}
	for name, row := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Read(strings.NewReader(header+row), "inline"); !errors.Is(err, ErrInvalidNumber) {
				t.Fatalf("expected ErrInvalidNumber, got %v", err)
			}
		})
	}
}

func TestReadRejectsDuplicateAndBlankCountry(t *testing.T) {
	dup := header +
		"Japan,36,138,47.3,46,48.7,Asia,85.3,81.9,88.9\n" +
		"Japan,36,138,47.3,46,48.7,Asia,85.3,81.9,88.9\n"
	if _, err := Read(strings.NewReader(dup), "inline"); !errors.Is(err, ErrDuplicateCountry) {
		t.Fatalf("expected ErrDuplicateCountry, got %v", err)
	}
	blank := header + " ,36,138,47.3,46,48.7,Asia,85.3,81.9,88.9\n"
	if _, err := Read(strings.NewReader(blank), "inline"); !errors.Is(err, ErrBlankCountry) {
		t.Fatalf("expected ErrBlankCountry, got %v", err)
	}
}

func TestReadRejectsShortRows(t *testing.T) {
	input := header + "Japan,36,138\n"
	_, err := Read(strings.NewReader(input), "inline")
	var lerr *LoadError
	if !errors.As(err, &lerr) || lerr.Line != 2 {
		t.Fatalf("expected LoadError on line 2, got %v", err)
	}
}

func TestLoadHeaderOnlyYieldsEmptyDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "header.csv")
	if err := os.WriteFile(path, []byte("\ufeff"+header), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	ds, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ds.Len() != 0 || len(ds.All()) != 0 {
		t.Fatalf("expected empty dataset")
	}
}
