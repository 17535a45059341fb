package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Memory types. Every meaningful event in an agent's life becomes one of these.
const (
	MemExperience = "experience"
	MemReflection = "reflection"
	MemInsight    = "insight"
	MemFeeling    = "feeling"
)

// Fading policy: a memory is forgotten only when ALL three hold. Any
// engagement (one revisit) or high initial significance preserves it forever.
const (
	fadingAge         = 30 * 24 * time.Hour
	fadingMaxSalience = 0.3
)

// Memory is one append-only record of experience. Content is immutable once
// written; only the revisitation metadata ever changes.
type Memory struct {
	ID              string
	Agent           string
	Content         string
	Type            string
	Salience        float64
	Tags            []string
	Counterpart     string
	SessionID       string
	CreatedAt       int64
	LastRevisitedAt int64
	RevisitCount    int
}

var (
	entropyMu sync.Mutex
	entropy   = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// NewID returns a fresh ULID string.
func NewID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// Remember appends a new memory and returns its id.
// createdAt == lastRevisitedAt, revisitCount == 0.
func (db *DB) Remember(m *Memory) (string, error) {
	if m.ID == "" {
		m.ID = NewID()
	}
	now := time.Now().UnixMilli()
	tags, err := json.Marshal(m.Tags)
	if err != nil {
		return "", fmt.Errorf("marshal tags: %w", err)
	}
	if m.Tags == nil {
		tags = []byte("[]")
	}

	_, err = db.Exec(`
		INSERT INTO memories (id, agent, content, mem_type, salience, tags, counterpart, session_id, created_at, last_revisited_at, revisit_count)
		VALUES (?, ?, ?, ?, ?, ?, NULLIF(?, ''), NULLIF(?, ''), ?, ?, 0)
	`, m.ID, m.Agent, m.Content, m.Type, m.Salience, string(tags), m.Counterpart, m.SessionID, now, now)
	if err != nil {
		return "", fmt.Errorf("remember: %w", err)
	}
	m.CreatedAt = now
	m.LastRevisitedAt = now
	return m.ID, nil
}

// GetMemory returns a memory by id, or nil if it is not in the active set.
func (db *DB) GetMemory(id string) (*Memory, error) {
	row := db.QueryRow(`
		SELECT id, agent, content, mem_type, salience, tags, counterpart, session_id, created_at, last_revisited_at, revisit_count
		FROM memories WHERE id = ?
	`, id)
	m, err := scanMemory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get memory: %w", err)
	}
	return m, nil
}

// RecentVivid returns the most recently revisited memories, descending.
// Vividness is recency of access, not of creation; a re-touched old memory
// outranks an untouched new one.
func (db *DB) RecentVivid(agent string, limit int) ([]Memory, error) {
	rows, err := db.Query(`
		SELECT id, agent, content, mem_type, salience, tags, counterpart, session_id, created_at, last_revisited_at, revisit_count
		FROM memories WHERE agent = ?
		ORDER BY last_revisited_at DESC LIMIT ?
	`, agent, limit)
	if err != nil {
		return nil, fmt.Errorf("recent vivid: %w", err)
	}
	defer rows.Close()
	return scanMemories(rows)
}

// Revisit bumps last_revisited_at and increments revisit_count. Each call counts.
func (db *DB) Revisit(id string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		UPDATE memories SET last_revisited_at = ?, revisit_count = revisit_count + 1
		WHERE id = ?
	`, now, id)
	if err != nil {
		return fmt.Errorf("revisit: %w", err)
	}
	return nil
}

// FadingCandidate reports whether the memory is eligible for forgetting:
// untouched for 30 days AND salience below 0.3 AND never revisited.
func FadingCandidate(m *Memory, now time.Time) bool {
	age := now.UnixMilli() - m.LastRevisitedAt
	return age > fadingAge.Milliseconds() &&
		m.Salience < fadingMaxSalience &&
		m.RevisitCount == 0
}

// FadingCandidates returns active memories currently eligible for the sweep.
func (db *DB) FadingCandidates(agent string, now time.Time) ([]Memory, error) {
	cutoff := now.UnixMilli() - fadingAge.Milliseconds()
	rows, err := db.Query(`
		SELECT id, agent, content, mem_type, salience, tags, counterpart, session_id, created_at, last_revisited_at, revisit_count
		FROM memories
		WHERE agent = ? AND last_revisited_at < ? AND salience < ? AND revisit_count = 0
	`, agent, cutoff, fadingMaxSalience)
	if err != nil {
		return nil, fmt.Errorf("fading candidates: %w", err)
	}
	defer rows.Close()
	return scanMemories(rows)
}

// Forget moves the memory verbatim into the forgotten archive and removes it
// from the active set. Forgetting an already-forgotten id is a no-op.
func (db *DB) Forget(id, reason string) error {
	m, err := db.GetMemory(id)
	if err != nil {
		return err
	}
	if m == nil {
		return nil // already forgotten or never existed
	}

	tags, _ := json.Marshal(m.Tags)
	if m.Tags == nil {
		tags = []byte("[]")
	}
	now := time.Now().UnixMilli()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin forget: %w", err)
	}
	_, err = tx.Exec(`
		INSERT INTO forgotten_memories (id, agent, content, mem_type, salience, tags, counterpart, session_id, created_at, last_revisited_at, revisit_count, forgotten_at, reason)
		VALUES (?, ?, ?, ?, ?, ?, NULLIF(?, ''), NULLIF(?, ''), ?, ?, ?, ?, ?)
	`, m.ID, m.Agent, m.Content, m.Type, m.Salience, string(tags), m.Counterpart, m.SessionID, m.CreatedAt, m.LastRevisitedAt, m.RevisitCount, now, reason)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("archive memory: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM memories WHERE id = ?`, id); err != nil {
		tx.Rollback()
		return fmt.Errorf("remove active memory: %w", err)
	}
	return tx.Commit()
}

// CountForgotten returns the number of archived memories for an agent.
func (db *DB) CountForgotten(agent string) (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM forgotten_memories WHERE agent = ?`, agent).Scan(&n)
	return n, err
}

// CountMemories returns the number of active memories for an agent.
func (db *DB) CountMemories(agent string) (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM memories WHERE agent = ?`, agent).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMemory(row rowScanner) (*Memory, error) {
	var m Memory
	var tags string
	var counterpart, sessionID sql.NullString
	err := row.Scan(&m.ID, &m.Agent, &m.Content, &m.Type, &m.Salience, &tags,
		&counterpart, &sessionID, &m.CreatedAt, &m.LastRevisitedAt, &m.RevisitCount)
	if err != nil {
		return nil, err
	}
	m.Counterpart = counterpart.String
	m.SessionID = sessionID.String
	if err := json.Unmarshal([]byte(tags), &m.Tags); err != nil {
		m.Tags = nil
	}
	return &m, nil
}

func scanMemories(rows *sql.Rows) ([]Memory, error) {
	var memories []Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		memories = append(memories, *m)
	}
	return memories, rows.Err()
}
