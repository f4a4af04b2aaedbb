// Package cmd implements the deepscout command line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "deepscout",
	Short: "Adaptive research orchestration engine",
	Long: `Deepscout runs adaptive research workflows: it plans sub-queries,
searches and analyzes them in parallel, validates findings against their
sources, and synthesizes a report. A state machine decides each next step
from the quality of the evidence gathered so far.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default is ./deepscout.yaml or $HOME/.config/deepscout/deepscout.yaml)")
}
