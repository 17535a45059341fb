package policy

import (
	"testing"
	"time"

	"github.com/undercurrent/river/internal/store"
)

func TestEvolveSpoke(t *testing.T) {
	now := time.Now()
	s := &store.AgentState{Name: "river", Mood: "curious", Energy: 0.35}

	Evolve(s, Outcome{Spoke: true}, now, &scriptedRand{})
	if s.Energy < 0.249 || s.Energy > 0.251 {
		t.Errorf("energy = %.3f, want 0.25", s.Energy)
	}
	if s.LastSpokeAt == nil || *s.LastSpokeAt != now.UnixMilli() {
		t.Errorf("lastSpokeAt not stamped: %v", s.LastSpokeAt)
	}
	if s.MessageCount24h != 1 {
		t.Errorf("messageCount24h = %d", s.MessageCount24h)
	}
	if s.HeartbeatCount != 1 {
		t.Errorf("heartbeatCount = %d", s.HeartbeatCount)
	}

	// Repeated speaking never drives energy below zero.
	for i := 0; i < 10; i++ {
		Evolve(s, Outcome{Spoke: true}, now, &scriptedRand{})
	}
	if s.Energy < 0 {
		t.Errorf("energy went negative: %f", s.Energy)
	}
	if s.Energy > 0.001 {
		t.Errorf("energy should have hit the floor, got %f", s.Energy)
	}
}

func TestEvolveRecovery(t *testing.T) {
	now := time.Now()

	s := &store.AgentState{Name: "river", Mood: "serene", Energy: 0.5}
	Evolve(s, Outcome{}, now, &scriptedRand{})
	if s.Energy < 0.519 || s.Energy > 0.521 {
		t.Errorf("rest recovery: energy = %.3f, want 0.52", s.Energy)
	}

	Evolve(s, Outcome{Dreamed: true}, now, &scriptedRand{})
	if s.Energy < 0.619 || s.Energy > 0.621 {
		t.Errorf("dream recovery: energy = %.3f, want 0.62", s.Energy)
	}

	// Recovery caps at 1.0.
	s.Energy = 0.99
	for i := 0; i < 5; i++ {
		Evolve(s, Outcome{Dreamed: true}, now, &scriptedRand{})
	}
	if s.Energy > 1.0 {
		t.Errorf("energy exceeded cap: %f", s.Energy)
	}
}

func TestEvolveMoodDrift(t *testing.T) {
	now := time.Now()
	s := &store.AgentState{Name: "river", Mood: "curious", Energy: 0.5}

	// Declined drift roll: mood untouched.
	Evolve(s, Outcome{}, now, &scriptedRand{floats: []float64{0.9}})
	if s.Mood != "curious" {
		t.Errorf("mood drifted without the roll: %s", s.Mood)
	}

	// Forced drift, index 4 = melancholy.
	Evolve(s, Outcome{}, now, &scriptedRand{floats: []float64{0.01}, ints: []int{4}})
	if s.Mood != "melancholy" {
		t.Errorf("mood = %s, want melancholy", s.Mood)
	}
}

func TestEvolveLocationAndFocus(t *testing.T) {
	now := time.Now()
	s := &store.AgentState{Name: "river", Mood: "curious", Energy: 0.5, Focus: "tides"}

	Evolve(s, Outcome{Location: LocationEnter, GroupID: "commons"}, now, &scriptedRand{})
	if s.CurrentLocation == nil || *s.CurrentLocation != "commons" {
		t.Errorf("location = %v, want commons", s.CurrentLocation)
	}
	if s.Focus != "tides" {
		t.Errorf("focus overwritten without NewFocus: %s", s.Focus)
	}

	Evolve(s, Outcome{Location: LocationLeave, NewFocus: "silence"}, now, &scriptedRand{})
	if s.CurrentLocation != nil {
		t.Errorf("location not cleared: %v", *s.CurrentLocation)
	}
	if s.Focus != "silence" {
		t.Errorf("focus = %s, want silence", s.Focus)
	}
	if s.HeartbeatCount != 2 {
		t.Errorf("heartbeatCount = %d, want 2", s.HeartbeatCount)
	}
}
