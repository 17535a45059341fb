package policy

import (
	"time"

	"github.com/undercurrent/river/internal/store"
)

// State evolution constants. Speaking costs energy, rest restores a little,
// a dream restores more.
const (
	speakCost     = 0.1
	restRecovery  = 0.02
	dreamRecovery = 0.1
	pMoodDrift    = 0.05
)

// LocationChange says what happened to the agent's group context this cycle.
type LocationChange int

const (
	LocationNone LocationChange = iota
	LocationEnter
	LocationLeave
)

// Outcome is what acting this cycle did, as input to state evolution.
type Outcome struct {
	Spoke    bool
	Dreamed  bool
	Location LocationChange
	GroupID  string // set when Location == LocationEnter
	NewFocus string // overwrites focus when non-empty
}

// Evolve applies the consequences of one cycle to the agent's state in place.
// Energy stays in [0,1] whatever happens; mood drifts with a small fixed
// probability independent of the action taken.
func Evolve(state *store.AgentState, out Outcome, now time.Time, rng Rand) {
	state.HeartbeatCount++

	if out.Spoke {
		state.Energy -= speakCost
		if state.Energy < 0 {
			state.Energy = 0
		}
		ts := now.UnixMilli()
		state.LastSpokeAt = &ts
		state.MessageCount24h++
	} else {
		recovery := restRecovery
		if out.Dreamed {
			recovery = dreamRecovery
		}
		state.Energy += recovery
		if state.Energy > 1.0 {
			state.Energy = 1.0
		}
	}

	switch out.Location {
	case LocationEnter:
		g := out.GroupID
		state.CurrentLocation = &g
	case LocationLeave:
		state.CurrentLocation = nil
	}

	if rng.Float64() < pMoodDrift {
		state.Mood = store.Moods[rng.Intn(len(store.Moods))]
	}

	if out.NewFocus != "" {
		state.Focus = out.NewFocus
	}
}
