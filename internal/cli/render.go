package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lifeexp/internal/adapters/dashboard"
	"lifeexp/internal/chart"
	"lifeexp/internal/config"
	"lifeexp/internal/dataset"
	"lifeexp/internal/render"
)

const (
	chartScatter = "scatter"
	chartMap     = "map"
)

type renderOptions struct {
	chart     string
	countries []string
	region    string
	format    string
	output    string
}

func renderCmd(opts *globalOptions) *cobra.Command {
	ro := &renderOptions{}

	c := &cobra.Command{
		Use:   "render",
		Short: "Render the scatter plot, world map or page for a selection",
		Example: `  lifeexp render --country Japan --region Africa -o scatter.png
  lifeexp render --chart map --format svg -o map.svg
  lifeexp render --country Chad --format csv`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ds, err := loadDataset(cfg, logger)
			if err != nil {
				return err
			}
			return writeOutput(ro.output, cmd.OutOrStdout(), func(w io.Writer) error {
				return runRender(w, ds, cfg, ro, logger)
			})
		},
	}

	c.Flags().StringVar(&ro.chart, "chart", chartScatter, "scatter or map")
	c.Flags().StringArrayVar(&ro.countries, "country", nil, "country to mark (repeatable, taken verbatim)")
	c.Flags().StringVar(&ro.region, "region", "", "region to highlight, or none")
	c.Flags().StringVarP(&ro.format, "format", "f", string(render.FormatPNG), "png, svg, csv, xlsx, json or html")
	c.Flags().StringVarP(&ro.output, "output", "o", "-", "output file, - for stdout")
	return c
}

func runRender(w io.Writer, ds *dataset.Dataset, cfg *config.Config, ro *renderOptions, logger *zap.Logger) error {
	format, err := render.ParseFormat(ro.format)
	if err != nil {
		return err
	}
	sel := chart.Selection{Countries: ro.countries, Region: chart.ParseRegion(ro.region)}

	switch ro.chart {
	case chartScatter:
		cs := chart.Compose(ds, sel)
		logger.Debug("compose", zap.Strings("countries", sel.SelectedCountries()), zap.String("region", sel.Region), zap.String("title", cs.Title))
		switch format {
		case render.FormatPNG, render.FormatSVG:
			return render.Scatter(w, cs, format, cfg.ScatterSize())
		case render.FormatCSV:
			return render.CSV(w, cs)
		case render.FormatXLSX:
			return render.XLSX(w, cs)
		case render.FormatJSON:
			return encodeJSON(w, chart.ScatterFigure(cs))
		case render.FormatHTML:
			return render.Page(w, render.PageData{
				Options:   chart.Options(ds),
				Selection: sel,
				APIPrefix: dashboard.APIPrefix,
			})
		}
	case chartMap:
		switch format {
		case render.FormatPNG, render.FormatSVG:
			return render.Map(w, ds.All(), format, cfg.MapSize())
		case render.FormatJSON:
			return encodeJSON(w, chart.MapFigure(ds.All()))
		}
	default:
		return fmt.Errorf("unknown chart %q (want %s or %s)", ro.chart, chartScatter, chartMap)
	}
	return fmt.Errorf("%w: %s for %s", render.ErrUnsupportedFormat, format, ro.chart)
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeOutput runs fn against stdout for "-" or an empty path, otherwise
// against a newly created file that is removed again if fn fails.
func writeOutput(path string, stdout io.Writer, fn func(io.Writer) error) error {
	if path == "" || path == "-" {
		return fn(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	bw := bufio.NewWriter(f)
	if err := fn(bw); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
