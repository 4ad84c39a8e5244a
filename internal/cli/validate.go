package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"lifeexp/internal/dataset"
)

func validateCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load the country CSV and report rows per region",
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

			counts, unmatched := ds.RegionCounts()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintf(tw, "REGION\tROWS\n")
			for _, c := range counts {
				_, _ = fmt.Fprintf(tw, "%s\t%d\n", c.Region, c.Rows)
			}
			if unmatched > 0 {
				_, _ = fmt.Fprintf(tw, "(other)\t%d\n", unmatched)
			}
			_, _ = fmt.Fprintf(tw, "TOTAL\t%d\n", ds.Len())
			if err := tw.Flush(); err != nil {
				return err
			}
			for _, rec := range ds.All() {
				if !dataset.IsRegion(rec.Region) {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "outside known regions: %s (%s)\n", rec.Country, rec.Region)
				}
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "OK")
			return nil
		},
	}
}
