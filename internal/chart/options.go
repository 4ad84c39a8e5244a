package chart

import "lifeexp/internal/dataset"

// Option is one dropdown entry.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// DropdownOptions feeds the country multi-select and the region dropdown.
type DropdownOptions struct {
	Countries []Option `json:"countries"`
	Regions   []Option `json:"regions"`
}

// Catalog is the part of the dataset the dropdowns are built from.
type Catalog interface {
	Countries() []string
}

// Options lists countries alphabetically and regions in their fixed order.
func Options(c Catalog) DropdownOptions {
	names := c.Countries()
	opts := DropdownOptions{
		Countries: make([]Option, 0, len(names)),
		Regions:   make([]Option, 0, 9),
	}
	for _, name := range names {
		opts.Countries = append(opts.Countries, Option{Label: name, Value: name})
	}
	for _, r := range dataset.Regions() {
		opts.Regions = append(opts.Regions, Option{Label: r, Value: r})
	}
	return opts
}
