package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "chart-annotator",
	Short: "Draws validated technical-analysis annotations onto chart images",
}

func Execute() error {
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(renderCmd)
	return rootCmd.Execute()
}
