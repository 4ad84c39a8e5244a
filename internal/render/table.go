package render

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"lifeexp/internal/chart"
)

// TableHeader names the columns of the long-format series table.
var TableHeader = []string{"layer", "series", "country", "statistic", "value"}

const sheetName = "Scatter"

// Row is one plotted point in long format.
type Row struct {
	Layer     chart.Kind
	Series    string
	Country   string
	Statistic string
	Value     float64
}

// Rows flattens the composed series in draw order.
func Rows(cs chart.ChartSeries) []Row {
	var out []Row
	for _, s := range cs.Layers() {
		for _, p := range s.Points {
			out = append(out, Row{
				Layer:     s.Kind,
				Series:    s.Name,
				Country:   p.Country,
				Statistic: string(p.Statistic),
				Value:     p.Value,
			})
		}
	}
	return out
}

// CSV writes the series table with a header row.
func CSV(w io.Writer, cs chart.ChartSeries) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(TableHeader); err != nil {
		return err
	}
	for _, r := range Rows(cs) {
		record := []string{string(r.Layer), r.Series, r.Country, r.Statistic, chart.FormatValue(r.Value)}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// XLSX writes the series table as a workbook with the chart title in the
// first row and the header in the second.
func XLSX(w io.Writer, cs chart.ChartSeries) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}
	if err := f.SetCellValue(sheetName, "A1", cs.Title); err != nil {
		return fmt.Errorf("xlsx title: %w", err)
	}
	header := make([]any, len(TableHeader))
	for i, h := range TableHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A2", &header); err != nil {
		return fmt.Errorf("xlsx header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("xlsx style: %w", err)
	}
	if err := f.SetCellStyle(sheetName, "A2", "E2", bold); err != nil {
		return fmt.Errorf("xlsx style: %w", err)
	}

	for i, r := range Rows(cs) {
		cell, err := excelize.CoordinatesToCellName(1, i+3)
		if err != nil {
			return err
		}
		row := []any{string(r.Layer), r.Series, r.Country, r.Statistic, r.Value}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("xlsx row %d: %w", i+3, err)
		}
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}
