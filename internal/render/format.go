// Package render turns composed chart series and the country table into
// images, tables and the dashboard page.
package render

import (
	"errors"
	"fmt"
	"strings"
)

// Format enumerates the output encodings the dashboard can produce.
type Format string

const (
	FormatPNG  Format = "png"
	FormatSVG  Format = "svg"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
	FormatHTML Format = "html"
)

// ErrUnsupportedFormat is returned when a format is unknown or not valid for
// the requested output.
var ErrUnsupportedFormat = errors.New("unsupported format")

// Formats lists every known format.
func Formats() []Format {
	return []Format{FormatPNG, FormatSVG, FormatCSV, FormatXLSX, FormatJSON, FormatHTML}
}

// ParseFormat maps a case-insensitive name to a Format.
func ParseFormat(value string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(value)))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, value)
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatSVG:
		return "image/svg+xml"
	case FormatCSV:
		return "text/csv"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatJSON:
		return "application/json"
	case FormatHTML:
		return "text/html; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

// Extension is the file extension used for stored artifacts.
func (f Format) Extension() string { return string(f) }

// Image reports whether the format is a raster or vector image.
func (f Format) Image() bool { return f == FormatPNG || f == FormatSVG }

// Size is the output size in pixels. Zero values fall back to defaults.
type Size struct {
	Width  int
	Height int
}

// DefaultScatterSize matches the dashboard scatter layout height.
var DefaultScatterSize = Size{Width: 1400, Height: 650}

// DefaultMapSize matches the dashboard map layout.
var DefaultMapSize = Size{Width: 1420, Height: 750}

func (s Size) or(def Size) Size {
	if s.Width <= 0 {
		s.Width = def.Width
	}
	if s.Height <= 0 {
		s.Height = def.Height
	}
	return s
}
