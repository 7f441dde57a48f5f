package cli

import (
	"github.com/spf13/cobra"
)

type RunOptions struct {
	ConfigFile    string
	BatchSize     int
	SyntheticRows int
	DryRun        bool
}

type SeedOptions struct {
	ConfigFile string
	OutFile    string
}

// NewRunCmd creates the "run" sub-command, one full Extract-Transform-Load pass.
func NewRunCmd() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the iris ETL pipeline once",
		Long: `Download the reference dataset, train and evaluate the classifier,
predict synthetic rows and load the predictions. Exits non-zero when any
stage fails or when only part of the predictions were written.`,
		RunE: func(c *cobra.Command, args []string) error {
			return runPipeline(c.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigFile, "config", "c", "", "Path to the pipeline settings YAML file")
	cmd.Flags().IntVarP(&opts.BatchSize, "batch-size", "b", 0, "Rows per insert transaction (overrides settings)")
	cmd.Flags().IntVarP(&opts.SyntheticRows, "rows", "n", 0, "Number of synthetic rows to predict (overrides settings)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Run Extract and Transform but skip the database load")

	return cmd
}

// NewSeedCmd creates the "seed" sub-command, which uploads the built-in
// reference dataset so that "run" has something to download.
func NewSeedCmd() *cobra.Command {
	opts := &SeedOptions{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upload the built-in iris reference dataset to object storage",
		RunE: func(c *cobra.Command, args []string) error {
			return runSeed(c.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigFile, "config", "c", "", "Path to the pipeline settings YAML file")
	cmd.Flags().StringVarP(&opts.OutFile, "out", "o", "", "Local Parquet file to write before upload (default: settings local_path)")

	return cmd
}
