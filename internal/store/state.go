package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Moods enumerates the affective states an agent can be in. The decision
// policy keys its speak multipliers off these exact strings.
var Moods = []string{"curious", "contemplative", "restless", "playful", "melancholy", "serene"}

// AgentState is the singleton internal state for one persona.
// Loaded once at cycle start, written back once at cycle end.
type AgentState struct {
	Name            string
	Mood            string
	Energy          float64 // always in [0,1]
	Focus           string
	LastSpokeAt     *int64
	MessageCount24h int
	CurrentLocation *string // group-context id, nil when not in a group
	BirthAt         int64
	HeartbeatCount  int64
}

// InGroup reports whether the agent currently sits in a group context.
func (s *AgentState) InGroup() bool {
	return s.CurrentLocation != nil && *s.CurrentLocation != ""
}

// InitAgent creates the agent row if it does not exist and returns its state.
// A freshly born agent wakes curious with full energy.
func (db *DB) InitAgent(name string) (*AgentState, error) {
	existing, err := db.GetAgentState(name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	now := time.Now().UnixMilli()
	_, err = db.Exec(`
		INSERT INTO agents (name, mood, energy, birth_at)
		VALUES (?, 'curious', 1.0, ?)
	`, name, now)
	if err != nil {
		return nil, fmt.Errorf("insert agent: %w", err)
	}
	return &AgentState{Name: name, Mood: "curious", Energy: 1.0, BirthAt: now}, nil
}

// GetAgentState returns the agent's state, or nil if the agent is unknown.
func (db *DB) GetAgentState(name string) (*AgentState, error) {
	var s AgentState
	var lastSpoke sql.NullInt64
	var location sql.NullString
	err := db.QueryRow(`
		SELECT name, mood, energy, focus, last_spoke_at, message_count_24h, current_location, birth_at, heartbeat_count
		FROM agents WHERE name = ?
	`, name).Scan(&s.Name, &s.Mood, &s.Energy, &s.Focus, &lastSpoke, &s.MessageCount24h, &location, &s.BirthAt, &s.HeartbeatCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get agent state: %w", err)
	}
	if lastSpoke.Valid {
		s.LastSpokeAt = &lastSpoke.Int64
	}
	if location.Valid {
		s.CurrentLocation = &location.String
	}
	return &s, nil
}

// SaveAgentState writes the full state back in a single UPDATE, so a
// concurrent reader never sees a partial-field write.
func (db *DB) SaveAgentState(s *AgentState) error {
	var lastSpoke any
	if s.LastSpokeAt != nil {
		lastSpoke = *s.LastSpokeAt
	}
	var location any
	if s.CurrentLocation != nil {
		location = *s.CurrentLocation
	}
	result, err := db.Exec(`
		UPDATE agents
		SET mood = ?, energy = ?, focus = ?, last_spoke_at = ?, message_count_24h = ?,
		    current_location = ?, heartbeat_count = ?
		WHERE name = ?
	`, s.Mood, s.Energy, s.Focus, lastSpoke, s.MessageCount24h, location, s.HeartbeatCount, s.Name)
	if err != nil {
		return fmt.Errorf("save agent state: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("no agent named %s", s.Name)
	}
	return nil
}

// ResetDailyCounts zeroes message_count_24h for all agents. Called by an
// external daily schedule, never from within a wake cycle.
func (db *DB) ResetDailyCounts() error {
	_, err := db.Exec(`UPDATE agents SET message_count_24h = 0`)
	if err != nil {
		return fmt.Errorf("reset daily counts: %w", err)
	}
	return nil
}
