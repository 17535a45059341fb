package store

import (
	"fmt"
	"time"
)

// Goal is an open-ended intention the agent holds.
type Goal struct {
	ID          string
	Agent       string
	Description string
	Status      string // "active" or "resolved"
	CreatedAt   int64
}

// Wondering is an open question the agent carries around.
type Wondering struct {
	ID        string
	Agent     string
	Question  string
	CreatedAt int64
}

// AddGoal authors a new active goal and returns its id.
func (db *DB) AddGoal(agent, description string) (string, error) {
	id := NewID()
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO goals (id, agent, description, status, created_at)
		VALUES (?, ?, ?, 'active', ?)
	`, id, agent, description, now)
	if err != nil {
		return "", fmt.Errorf("add goal: %w", err)
	}
	return id, nil
}

// ResolveGoal marks a goal resolved.
func (db *DB) ResolveGoal(id string) error {
	result, err := db.Exec(`UPDATE goals SET status = 'resolved' WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("resolve goal: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("no goal with id %s", id)
	}
	return nil
}

// ActiveGoals returns the most recent active goals, newest first.
func (db *DB) ActiveGoals(agent string, limit int) ([]Goal, error) {
	rows, err := db.Query(`
		SELECT id, agent, description, status, created_at
		FROM goals WHERE agent = ? AND status = 'active'
		ORDER BY created_at DESC LIMIT ?
	`, agent, limit)
	if err != nil {
		return nil, fmt.Errorf("active goals: %w", err)
	}
	defer rows.Close()

	var goals []Goal
	for rows.Next() {
		var g Goal
		if err := rows.Scan(&g.ID, &g.Agent, &g.Description, &g.Status, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

// AddWondering authors a new open question and returns its id.
func (db *DB) AddWondering(agent, question string) (string, error) {
	id := NewID()
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO wonderings (id, agent, question, created_at)
		VALUES (?, ?, ?, ?)
	`, id, agent, question, now)
	if err != nil {
		return "", fmt.Errorf("add wondering: %w", err)
	}
	return id, nil
}

// RecentWonderings returns the most recent open questions, newest first.
func (db *DB) RecentWonderings(agent string, limit int) ([]Wondering, error) {
	rows, err := db.Query(`
		SELECT id, agent, question, created_at
		FROM wonderings WHERE agent = ?
		ORDER BY created_at DESC LIMIT ?
	`, agent, limit)
	if err != nil {
		return nil, fmt.Errorf("recent wonderings: %w", err)
	}
	defer rows.Close()

	var ws []Wondering
	for rows.Next() {
		var w Wondering
		if err := rows.Scan(&w.ID, &w.Agent, &w.Question, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan wondering: %w", err)
		}
		ws = append(ws, w)
	}
	return ws, rows.Err()
}
