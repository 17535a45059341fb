package agent

import (
	"context"
	"log"
	"math/rand"
	"time"

	"github.com/undercurrent/river/internal/config"
	"github.com/undercurrent/river/internal/llm"
	"github.com/undercurrent/river/internal/policy"
	"github.com/undercurrent/river/internal/store"
)

// Engine runs one agent persona: wake cycles, the fading sweep, and
// post-session reflection. At most one cycle runs at a time; the timer is
// the only caller in production.
type Engine struct {
	DB      *store.DB
	LLM     llm.Client
	Name    string
	Variant string // "river" or "entity"
	Quota   int
	Rand    policy.Rand
	stopCh  chan struct{}
}

// New creates an Engine for the configured persona.
func New(db *store.DB, client llm.Client, cfg config.AgentConfig) *Engine {
	quota := cfg.DailyQuota
	if quota <= 0 {
		quota = 12
	}
	return &Engine{
		DB:      db,
		LLM:     client,
		Name:    cfg.Name,
		Variant: cfg.Variant,
		Quota:   quota,
		Rand:    rand.New(rand.NewSource(time.Now().UnixNano())),
		stopCh:  make(chan struct{}),
	}
}

// StartWakeTimer runs a wake cycle immediately and then on the given interval.
// Cycle failures are logged, never fatal; the next tick is the retry.
func (e *Engine) StartWakeTimer(interval time.Duration) {
	run := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
		defer cancel()
		if err := e.RunCycle(ctx); err != nil {
			log.Printf("cycle: %s: %v", e.Name, err)
		}
	}

	run()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				run()
			case <-e.stopCh:
				return
			}
		}
	}()
}

// StartFadingTimer runs the fading sweep on startup and then daily.
func (e *Engine) StartFadingTimer() {
	if n, err := e.FadingSweep(); err != nil {
		log.Printf("fading: %v", err)
	} else if n > 0 {
		log.Printf("fading: archived %d memories", n)
	}

	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if n, err := e.FadingSweep(); err != nil {
					log.Printf("fading: %v", err)
				} else if n > 0 {
					log.Printf("fading: archived %d memories", n)
				}
			case <-e.stopCh:
				return
			}
		}
	}()
}

// FadingSweep archives every memory currently eligible for forgetting.
// The bar is deliberately high: old AND low-salience AND never revisited.
func (e *Engine) FadingSweep() (int, error) {
	candidates, err := e.DB.FadingCandidates(e.Name, time.Now())
	if err != nil {
		return 0, err
	}

	archived := 0
	for _, m := range candidates {
		if err := e.DB.Forget(m.ID, "faded"); err != nil {
			log.Printf("fading: forget %s: %v", m.ID, err)
			continue
		}
		archived++
	}
	return archived, nil
}

// Stop shuts down the engine's background goroutines.
func (e *Engine) Stop() {
	close(e.stopCh)
}
