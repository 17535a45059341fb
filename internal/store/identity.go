package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Identity is the agent's versioned self-description. Content may be empty
// before the agent's first awakening; version starts at 0 and only climbs.
type Identity struct {
	Agent        string
	Content      string
	Version      int
	LastUpdated  int64
	UpdateReason string
}

// IdentityEntry is one immutable row of identity history.
type IdentityEntry struct {
	ID        int64
	Agent     string
	Version   int
	Content   string
	Reason    string
	CreatedAt int64
}

// GetIdentity returns the current identity document, or a zero-version empty
// one if the agent has never written itself.
func (db *DB) GetIdentity(agent string) (*Identity, error) {
	var id Identity
	err := db.QueryRow(`
		SELECT agent, content, version, last_updated, update_reason
		FROM identity WHERE agent = ?
	`, agent).Scan(&id.Agent, &id.Content, &id.Version, &id.LastUpdated, &id.UpdateReason)
	if err == sql.ErrNoRows {
		return &Identity{Agent: agent}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get identity: %w", err)
	}
	return &id, nil
}

// UpdateIdentity replaces the identity document, bumps the version, and
// appends an immutable history entry. Prior versions are never deleted.
func (db *DB) UpdateIdentity(agent, content, reason string) (*Identity, error) {
	current, err := db.GetIdentity(agent)
	if err != nil {
		return nil, err
	}

	now := time.Now().UnixMilli()
	next := current.Version + 1

	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin identity update: %w", err)
	}
	_, err = tx.Exec(`
		INSERT INTO identity (agent, content, version, last_updated, update_reason)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (agent) DO UPDATE SET
			content = excluded.content,
			version = excluded.version,
			last_updated = excluded.last_updated,
			update_reason = excluded.update_reason
	`, agent, content, next, now, reason)
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("update identity: %w", err)
	}
	_, err = tx.Exec(`
		INSERT INTO identity_history (agent, version, content, reason, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, agent, next, content, reason, now)
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("append identity history: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit identity update: %w", err)
	}

	return &Identity{Agent: agent, Content: content, Version: next, LastUpdated: now, UpdateReason: reason}, nil
}

// IdentityHistory returns history entries newest first.
func (db *DB) IdentityHistory(agent string, limit int) ([]IdentityEntry, error) {
	rows, err := db.Query(`
		SELECT id, agent, version, content, reason, created_at
		FROM identity_history WHERE agent = ?
		ORDER BY version DESC LIMIT ?
	`, agent, limit)
	if err != nil {
		return nil, fmt.Errorf("identity history: %w", err)
	}
	defer rows.Close()

	var entries []IdentityEntry
	for rows.Next() {
		var e IdentityEntry
		if err := rows.Scan(&e.ID, &e.Agent, &e.Version, &e.Content, &e.Reason, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan identity entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
