package dataset

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyFile is returned when the input has no header row.
	ErrEmptyFile = errors.New("empty file")
	// ErrMissingColumn is returned when a required header is absent.
	ErrMissingColumn = errors.New("missing required column")
	// ErrInvalidNumber is returned when a numeric cell does not parse to a finite value.
	ErrInvalidNumber = errors.New("invalid number")
	// ErrDuplicateCountry is returned when a country appears more than once.
	ErrDuplicateCountry = errors.New("duplicate country")
	// ErrBlankCountry is returned when a row has an empty country cell.
	ErrBlankCountry = errors.New("blank country")
)

// LoadError reports why the country table could not be loaded. It is only
// produced while constructing a Dataset; once loaded, a Dataset never fails.
type LoadError struct {
	Path   string
	Line   int
	Column string
	Err    error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	b.WriteString("load dataset")
	if e.Path != "" {
		fmt.Fprintf(&b, " %s", e.Path)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, ": line %d", e.Line)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, ": column %s", e.Column)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *LoadError) Unwrap() error { return e.Err }
