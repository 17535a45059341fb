package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Relationship is the per-counterpart interaction ledger. Rows are created on
// first contact and only ever updated additively; never deleted.
type Relationship struct {
	Agent            string
	Counterpart      string
	FirstSeen        int64
	LastSeen         int64
	InteractionCount int
	RecentTopic      string
	SharedHistory    string
	WhatMatters      string
	HowIFeel         string
}

// RecordInteraction creates or updates the ledger entry for a counterpart.
// The topic is last-write-wins; the counter always increments.
func (db *DB) RecordInteraction(agent, counterpart, topic string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO relationships (agent, counterpart, first_seen, last_seen, interaction_count, recent_topic)
		VALUES (?, ?, ?, ?, 1, ?)
		ON CONFLICT (agent, counterpart) DO UPDATE SET
			last_seen = excluded.last_seen,
			interaction_count = interaction_count + 1,
			recent_topic = excluded.recent_topic
	`, agent, counterpart, now, now, topic)
	if err != nil {
		return fmt.Errorf("record interaction: %w", err)
	}
	return nil
}

// GetRelationship returns the ledger entry for a counterpart, or nil.
func (db *DB) GetRelationship(agent, counterpart string) (*Relationship, error) {
	var r Relationship
	err := db.QueryRow(`
		SELECT agent, counterpart, first_seen, last_seen, interaction_count, recent_topic, shared_history, what_matters, how_i_feel
		FROM relationships WHERE agent = ? AND counterpart = ?
	`, agent, counterpart).Scan(&r.Agent, &r.Counterpart, &r.FirstSeen, &r.LastSeen,
		&r.InteractionCount, &r.RecentTopic, &r.SharedHistory, &r.WhatMatters, &r.HowIFeel)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get relationship: %w", err)
	}
	return &r, nil
}

// UpdateRelationshipSummary overwrites the reflective fields wholesale.
// Called only by the reflection engine.
func (db *DB) UpdateRelationshipSummary(agent, counterpart, sharedHistory, whatMatters, howIFeel string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO relationships (agent, counterpart, first_seen, last_seen, interaction_count, shared_history, what_matters, how_i_feel)
		VALUES (?, ?, ?, ?, 1, ?, ?, ?)
		ON CONFLICT (agent, counterpart) DO UPDATE SET
			last_seen = excluded.last_seen,
			shared_history = excluded.shared_history,
			what_matters = excluded.what_matters,
			how_i_feel = excluded.how_i_feel
	`, agent, counterpart, now, now, sharedHistory, whatMatters, howIFeel)
	if err != nil {
		return fmt.Errorf("update relationship summary: %w", err)
	}
	return nil
}

// ListRelationships returns ledger entries ordered by most recent contact.
func (db *DB) ListRelationships(agent string, limit int) ([]Relationship, error) {
	rows, err := db.Query(`
		SELECT agent, counterpart, first_seen, last_seen, interaction_count, recent_topic, shared_history, what_matters, how_i_feel
		FROM relationships WHERE agent = ?
		ORDER BY last_seen DESC LIMIT ?
	`, agent, limit)
	if err != nil {
		return nil, fmt.Errorf("list relationships: %w", err)
	}
	defer rows.Close()

	var rels []Relationship
	for rows.Next() {
		var r Relationship
		if err := rows.Scan(&r.Agent, &r.Counterpart, &r.FirstSeen, &r.LastSeen,
			&r.InteractionCount, &r.RecentTopic, &r.SharedHistory, &r.WhatMatters, &r.HowIFeel); err != nil {
			return nil, fmt.Errorf("scan relationship: %w", err)
		}
		rels = append(rels, r)
	}
	return rels, rows.Err()
}
