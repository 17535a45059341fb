package policy

import (
	"time"

	"github.com/undercurrent/river/internal/perception"
	"github.com/undercurrent/river/internal/store"
)

// Tuning constants. baseRate is small on purpose: silence dominates by
// construction.
const (
	baseRate         = 0.15
	speakEnergyFloor = 0.2
	pDream           = 0.3
	pThink           = 0.15
	pStayInGroup     = 0.8

	// hoursSinceLastSpoke factor saturates at this value.
	recencyCap = 1.5
)

// Channel weights when the agent decides to speak outside a group.
// Cumulative partition over one uniform draw: wire is most likely, the
// residual tail enters a new group context.
const (
	wWire   = 0.50
	wAgora  = 0.25
	wSignal = 0.15
)

// Decide maps {internal state, perception} to one bounded action.
// Strict priority: mentions beat notifications beat everything else; only
// then do the stochastic branches run.
func Decide(state *store.AgentState, p *perception.Perception, quota int, now time.Time, rng Rand) Decision {
	// 1. An unresolved mention always wins, regardless of energy, mood, or quota.
	if len(p.Mentions) > 0 {
		m := p.Mentions[0]
		return Decision{Kind: RespondToMention, Mention: &m}
	}

	// 2. Then notifications.
	if len(p.Notifications) > 0 {
		n := p.Notifications[0]
		return Decision{Kind: ReplyToNotification, Notification: &n}
	}

	// 3. Hard gates.
	if state.MessageCount24h >= quota {
		return Decision{Kind: Rest}
	}
	if state.Energy < speakEnergyFloor {
		if rng.Float64() < pDream {
			return Decision{Kind: Dream}
		}
		return Decision{Kind: Rest}
	}

	// 4. Speak probability.
	if rng.Float64() < speakProbability(state, now) {
		if state.InGroup() {
			if rng.Float64() < pStayInGroup {
				return Decision{Kind: Speak, Channel: "group:" + *state.CurrentLocation}
			}
			return Decision{Kind: LeaveGroup}
		}
		return chooseChannel(rng)
	}

	// 5. Not speaking: maybe a private thought, otherwise rest.
	if rng.Float64() < pThink {
		return Decision{Kind: Think}
	}
	return Decision{Kind: Rest}
}

// speakProbability computes P = baseRate × energy × moodMult × recency.
func speakProbability(state *store.AgentState, now time.Time) float64 {
	recency := recencyCap // never spoken: maximally overdue
	if state.LastSpokeAt != nil {
		hours := now.Sub(time.UnixMilli(*state.LastSpokeAt)).Hours()
		recency = hours / 6
		if recency > recencyCap {
			recency = recencyCap
		}
	}
	return baseRate * state.Energy * MoodMultiplier(state.Mood) * recency
}

// chooseChannel partitions one uniform draw across the fixed channel weights.
func chooseChannel(rng Rand) Decision {
	roll := rng.Float64()
	switch {
	case roll < wWire:
		return Decision{Kind: Speak, Channel: store.ChannelWire}
	case roll < wWire+wAgora:
		return Decision{Kind: Speak, Channel: store.ChannelAgora}
	case roll < wWire+wAgora+wSignal:
		return Decision{Kind: Speak, Channel: store.ChannelSignal}
	default:
		return Decision{Kind: EnterGroup}
	}
}

// ParseAction maps an externally sourced action string to a Decision.
// Anything unrecognized is Rest: the external reasoner fails safe, never loud.
func ParseAction(action, rationale string, state *store.AgentState) Decision {
	d := Decision{Rationale: rationale}
	switch action {
	case "speak-wire":
		d.Kind, d.Channel = Speak, store.ChannelWire
	case "speak-agora":
		d.Kind, d.Channel = Speak, store.ChannelAgora
	case "speak-signal":
		d.Kind, d.Channel = Speak, store.ChannelSignal
	case "enter-group":
		d.Kind = EnterGroup
	case "leave-group":
		if !state.InGroup() {
			d.Kind = Rest
			break
		}
		d.Kind = LeaveGroup
	case "think":
		d.Kind = Think
	case "dream":
		d.Kind = Dream
	case "rest":
		d.Kind = Rest
	default:
		d.Kind = Rest
	}
	return d
}
