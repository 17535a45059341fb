package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/undercurrent/river/internal/agent"
	"github.com/undercurrent/river/internal/config"
)

var sweepAgent string

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run the fading sweep once and report what was archived",
	RunE:  runSweep,
}

func init() {
	sweepCmd.Flags().StringVar(&sweepAgent, "agent", "", "agent persona name (default from config)")
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if sweepAgent != "" {
		cfg.Agent.Name = sweepAgent
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	eng := agent.New(db, nil, cfg.Agent)
	n, err := eng.FadingSweep()
	if err != nil {
		return err
	}
	fmt.Printf("archived %d faded memories\n", n)
	return nil
}
