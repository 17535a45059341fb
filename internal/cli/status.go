package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/undercurrent/river/internal/config"
	"github.com/undercurrent/river/internal/store"
)

var statusAgent string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the agent's current state and memory counts",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusAgent, "agent", "", "agent persona name (default from config)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	name := cfg.Agent.Name
	if statusAgent != "" {
		name = statusAgent
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	state, err := db.GetAgentState(name)
	if err != nil {
		return err
	}
	if state == nil {
		fmt.Printf("%s has not been born yet\n", name)
		return nil
	}

	fmt.Printf("%s\n", state.Name)
	fmt.Printf("  mood:       %s\n", state.Mood)
	fmt.Printf("  energy:     %.2f\n", state.Energy)
	if state.Focus != "" {
		fmt.Printf("  focus:      %s\n", state.Focus)
	}
	if state.LastSpokeAt != nil {
		fmt.Printf("  last spoke: %s\n", time.UnixMilli(*state.LastSpokeAt).Format(time.RFC822))
	}
	if state.CurrentLocation != nil {
		fmt.Printf("  location:   group:%s\n", *state.CurrentLocation)
	}
	fmt.Printf("  messages today: %d\n", state.MessageCount24h)
	fmt.Printf("  heartbeats:     %d\n", state.HeartbeatCount)

	active, err := db.CountMemories(name)
	if err != nil {
		return err
	}
	forgotten, err := db.CountForgotten(name)
	if err != nil {
		return err
	}
	fmt.Printf("  memories:       %d active, %d forgotten\n", active, forgotten)

	identity, err := db.GetIdentity(name)
	if err != nil {
		return err
	}
	fmt.Printf("  identity:       version %d\n", identity.Version)
	return nil
}

func openDB(cfg config.Config) (*store.DB, error) {
	dbPath := cfg.Database.Path
	if path := os.Getenv("RIVER_DB"); path != "" {
		dbPath = path
	}
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve db path: %w", err)
		}
	}
	return store.Open(dbPath)
}
