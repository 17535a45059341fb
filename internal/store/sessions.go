package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Session is one conversation between the agent and a counterpart.
// Owned by the conversation handler: active until closed, then eligible for
// exactly one reflection pass.
type Session struct {
	ID          string
	Agent       string
	Counterpart string
	StartedAt   int64
	EndedAt     *int64
	Reflected   bool
}

// SessionMessage is one turn in a session transcript.
type SessionMessage struct {
	ID        int64
	SessionID string
	Role      string // "counterpart" or "agent"
	Content   string
	CreatedAt int64
}

// OpenSession starts a new conversation with a counterpart.
func (db *DB) OpenSession(agent, counterpart string) (*Session, error) {
	id := uuid.NewString()
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO sessions (id, agent, counterpart, started_at)
		VALUES (?, ?, ?, ?)
	`, id, agent, counterpart, now)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	return &Session{ID: id, Agent: agent, Counterpart: counterpart, StartedAt: now}, nil
}

// GetSession returns a session by id, or nil.
func (db *DB) GetSession(id string) (*Session, error) {
	var s Session
	var endedAt sql.NullInt64
	var reflected int
	err := db.QueryRow(`
		SELECT id, agent, counterpart, started_at, ended_at, reflected
		FROM sessions WHERE id = ?
	`, id).Scan(&s.ID, &s.Agent, &s.Counterpart, &s.StartedAt, &endedAt, &reflected)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if endedAt.Valid {
		s.EndedAt = &endedAt.Int64
	}
	s.Reflected = reflected != 0
	return &s, nil
}

// AppendSessionMessage adds a turn to an open session.
func (db *DB) AppendSessionMessage(sessionID, role, content string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO session_messages (session_id, role, content, created_at)
		VALUES (?, ?, ?, ?)
	`, sessionID, role, content, now)
	if err != nil {
		return fmt.Errorf("append session message: %w", err)
	}
	return nil
}

// SessionMessages returns a session's transcript in order.
func (db *DB) SessionMessages(sessionID string) ([]SessionMessage, error) {
	rows, err := db.Query(`
		SELECT id, session_id, role, content, created_at
		FROM session_messages WHERE session_id = ?
		ORDER BY created_at, id
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("session messages: %w", err)
	}
	defer rows.Close()

	var msgs []SessionMessage
	for rows.Next() {
		var m SessionMessage
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan session message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// CloseSession marks a session ended. Closing an already-closed session is a no-op.
func (db *DB) CloseSession(id string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		UPDATE sessions SET ended_at = COALESCE(ended_at, ?)
		WHERE id = ?
	`, now, id)
	if err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	return nil
}

// MarkReflected flags a closed session as reflected. Returns false if the
// session was already reflected, so the caller can guarantee a single pass.
func (db *DB) MarkReflected(id string) (bool, error) {
	result, err := db.Exec(`
		UPDATE sessions SET reflected = 1
		WHERE id = ? AND reflected = 0 AND ended_at IS NOT NULL
	`, id)
	if err != nil {
		return false, fmt.Errorf("mark reflected: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}
