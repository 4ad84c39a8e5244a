package chart

import "strings"

// NoRegion is the region value meaning "no region selected".
const NoRegion = ""

// Selection is the state of the two dashboard dropdowns.
type Selection struct {
	Countries []string `json:"countries"`
	Region    string   `json:"region"`
}

// ParseRegion normalises a region dropdown value. Blank input and the literal
// "none" (any case) map to NoRegion; anything else is passed through and, if
// it is not a known region, simply matches nothing.
func ParseRegion(value string) string {
	v := strings.TrimSpace(value)
	if strings.EqualFold(v, "none") {
		return NoRegion
	}
	return v
}

// HasRegion reports whether a region is selected.
func (s Selection) HasRegion() bool { return ParseRegion(s.Region) != NoRegion }

// SelectedCountries returns the selected names in caller order with blanks
// and repeats removed.
func (s Selection) SelectedCountries() []string {
	out := make([]string, 0, len(s.Countries))
	seen := make(map[string]struct{}, len(s.Countries))
	for _, name := range s.Countries {
		if strings.TrimSpace(name) == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
