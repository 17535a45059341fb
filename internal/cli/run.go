package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/undercurrent/river/internal/agent"
	"github.com/undercurrent/river/internal/config"
	"github.com/undercurrent/river/internal/llm"
	"github.com/undercurrent/river/internal/server"
	"github.com/undercurrent/river/internal/store"
)

var (
	runAgentName string
	runVariant   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the agent daemon: wake cycles, fading sweep, and HTTP API",
	RunE:  runDaemon,
}

func init() {
	runCmd.Flags().StringVar(&runAgentName, "agent", "", "agent persona name (default from config)")
	runCmd.Flags().StringVar(&runVariant, "variant", "", "policy variant: river or entity")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg := config.Default()

	// Env overrides
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		cfg.LLM.Provider = "anthropic"
		cfg.LLM.AnthropicKey = key
	}
	if path := os.Getenv("RIVER_DB"); path != "" {
		cfg.Database.Path = path
	}
	if runAgentName != "" {
		cfg.Agent.Name = runAgentName
	}
	if runVariant != "" {
		cfg.Agent.Variant = runVariant
	}

	dbPath := cfg.Database.Path
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return fmt.Errorf("resolve db path: %w", err)
		}
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	// The agent runs voiceless when no LLM is reachable: it still wakes,
	// perceives, and evolves, it just has nothing to say.
	var llmClient llm.Client
	if client, err := llm.NewClient(cfg.LLM); err != nil {
		fmt.Fprintf(os.Stderr, "warning: LLM not configured (%v), agent runs voiceless\n", err)
	} else {
		llmClient = client
		fmt.Fprintf(os.Stderr, "  llm: %s\n", cfg.LLM.Provider)
	}

	eng := agent.New(db, llmClient, cfg.Agent)
	eng.StartWakeTimer(time.Duration(cfg.Agent.WakeInterval) * time.Second)
	eng.StartFadingTimer()
	defer eng.Stop()

	srv := server.New(db, eng, VersionString())
	addr := cfg.ListenAddr()

	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		fmt.Fprintf(os.Stderr, "river serving on %s\n", addr)
		fmt.Fprintf(os.Stderr, "  db: %s\n", dbPath)
		fmt.Fprintf(os.Stderr, "  agent: %s (%s), waking every %ds\n", cfg.Agent.Name, cfg.Agent.Variant, cfg.Agent.WakeInterval)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "server error: %v\n", err)
			os.Exit(1)
		}
	}()

	<-done
	fmt.Fprintln(os.Stderr, "\nshutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return httpServer.Shutdown(ctx)
}
