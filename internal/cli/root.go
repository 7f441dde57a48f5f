// Package cli handles the command-line interface logic
// using the Cobra library.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/BartekS5/irisetl/pkg/logger"
)

type globalOptions struct {
	LogFile  string
	LogLevel string
}

func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "irisetl",
		Short: "irisetl - batch ETL pipeline for iris predictions",
		Long: `irisetl downloads the iris reference dataset from S3-compatible storage,
trains a classifier on it, predicts classes for synthetic samples and writes
the predictions to a relational database in batched transactions.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := opts.LogLevel
			if level == "" {
				level = os.Getenv("LOG_LEVEL")
			}
			return logger.InitLogger(opts.LogFile, level)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Close()
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.LogFile, "log-file", "", "Also write logs to this file")
	rootCmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "Log level: debug, info, warn, error (default from LOG_LEVEL, else info)")

	rootCmd.AddCommand(NewRunCmd(), NewSeedCmd())

	return rootCmd
}
