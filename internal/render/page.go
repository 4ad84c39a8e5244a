package render

import (
	"fmt"
	"html/template"
	"io"
	"net/url"

	"lifeexp/internal/chart"
)

// Link is an anchor in the page footer.
type Link struct {
	Label string
	Href  string
}

// Footer is the attribution block shown under the charts.
type Footer struct {
	Author     Link
	Source     Link
	Code       Link
	Definition string
}

// Definition explains the statistic on the page.
const Definition = "This entry contains the average number of years to be lived by a group of people born in the same year, " +
	"if mortality at each age remains constant in the future. Life expectancy at birth is also a measure of " +
	"overall quality of life in a country and summarizes the mortality at all ages. It can also be thought of " +
	"as indicating the potential return on investment in human capital and is necessary for the calculation of " +
	"various actuarial measures."

// Attribution credits the dashboard author, the Factbook field the data
// comes from and the source repository.
var Attribution = Footer{
	Author:     Link{Label: "@eliasdabbas", Href: "https://www.twitter.com/eliasdabbas"},
	Source:     Link{Label: "Life Expectancy at Birth in Years - 2017", Href: "https://www.cia.gov/library/publications/the-world-factbook/fields/2102.html"},
	Code:       Link{Label: "github.com/eliasdabbas/life_expectancy", Href: "https://github.com/eliasdabbas/life_expectancy"},
	Definition: Definition,
}

// PageData feeds the dashboard page template.
type PageData struct {
	Title     string
	Options   chart.DropdownOptions
	Selection chart.Selection
	// APIPrefix is the path the image and export endpoints hang off.
	APIPrefix string
}

// ScatterURL is the PNG endpoint for the current selection.
func (d PageData) ScatterURL() string {
	return d.APIPrefix + "/scatter?" + SelectionQuery(d.Selection, FormatPNG).Encode()
}

// MapURL is the PNG endpoint for the world map.
func (d PageData) MapURL() string {
	return d.APIPrefix + "/map?format=" + string(FormatPNG)
}

// Footer is the attribution block.
func (d PageData) Footer() Footer { return Attribution }

// SelectionQuery encodes a selection the way the dashboard routes parse it.
func SelectionQuery(sel chart.Selection, format Format) url.Values {
	q := url.Values{}
	for _, c := range sel.SelectedCountries() {
		q.Add("country", c)
	}
	if sel.HasRegion() {
		q.Set("region", sel.Region)
	}
	if format != "" {
		q.Set("format", string(format))
	}
	return q
}

var pageTemplate = template.Must(template.New("page").Funcs(template.FuncMap{
	"selected": func(sel chart.Selection, value string) bool {
		for _, c := range sel.Countries {
			if c == value {
				return true
			}
		}
		return false
	},
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { background: #eeeeee; font-family: Palatino, serif; margin: 0 2em; }
h1 { font-size: 28px; }
form { display: flex; gap: 1em; align-items: flex-start; }
select[multiple] { min-width: 20em; height: 10em; }
footer { font-size: 12px; margin: 2em 0; max-width: 60em; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<form method="get" action="/">
<label>Countries
<select name="country" multiple>
{{- range .Options.Countries}}
<option value="{{.Value}}"{{if selected $.Selection .Value}} selected{{end}}>{{.Label}}</option>
{{- end}}
</select>
</label>
<label>Highlight region
<select name="region">
<option value="none">None</option>
{{- range .Options.Regions}}
<option value="{{.Value}}"{{if eq $.Selection.Region .Value}} selected{{end}}>{{.Label}}</option>
{{- end}}
</select>
</label>
<button type="submit">Update</button>
</form>
<img id="scatter" alt="scatter" src="{{.ScatterURL}}">
<img id="map" alt="map" src="{{.MapURL}}">
{{- with .Footer}}
<footer>
<a href="{{.Author.Href}}">{{.Author.Label}}</a>
<p>Data: CIA World Factbook <a href="{{.Source.Href}}">{{.Source.Label}}</a><br>
Code: <a href="{{.Code.Href}}">{{.Code.Label}}</a></p>
<p>{{.Definition}}</p>
</footer>
{{- end}}
</body>
</html>
`))

// Page renders the dashboard HTML.
func Page(w io.Writer, data PageData) error {
	if data.Title == "" {
		data.Title = chart.PageTitle
	}
	if err := pageTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}
