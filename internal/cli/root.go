package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "river",
	Short: "Autonomous agent personas with durable memory",
	Long:  "River runs autonomous agent personas that wake on a schedule, perceive their community, act, and remember. Single Go binary, SQLite underneath.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(sweepCmd)
}
