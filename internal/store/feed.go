package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Broadcast channels the agent can speak into. A group context is addressed
// as "group:<id>" and is distinct from these.
const (
	ChannelWire   = "wire"
	ChannelAgora  = "agora"
	ChannelSignal = "signal"
)

// FeedMessage is one message in the shared community feed. When mention_of is
// set, the message is directed at that agent and expects at most one response.
type FeedMessage struct {
	ID        int64
	Channel   string
	Author    string
	Content   string
	MentionOf string
	CreatedAt int64
}

// Notification is an out-of-band item addressed to an agent.
type Notification struct {
	ID         int64
	Agent      string
	Kind       string
	Content    string
	CreatedAt  int64
	ResolvedAt *int64
}

// Event is one lightweight append-only record of something that happened.
// Every publish writes one, so what the agent says feeds back into what it
// later perceives.
type Event struct {
	ID        int64
	Kind      string
	Actor     string
	Detail    string
	CreatedAt int64
}

// AppendFeedMessage publishes a message into a channel and logs the matching
// event record.
func (db *DB) AppendFeedMessage(channel, author, content, mentionOf string) (int64, error) {
	now := time.Now().UnixMilli()
	result, err := db.Exec(`
		INSERT INTO feed_messages (channel, author, content, mention_of, created_at)
		VALUES (?, ?, ?, NULLIF(?, ''), ?)
	`, channel, author, content, mentionOf, now)
	if err != nil {
		return 0, fmt.Errorf("append feed message: %w", err)
	}
	id, _ := result.LastInsertId()

	if err := db.AppendEvent("message", author, fmt.Sprintf("spoke in %s", channel)); err != nil {
		return id, err
	}
	return id, nil
}

// RecentFeedMessages returns the newest feed messages, descending.
func (db *DB) RecentFeedMessages(limit int) ([]FeedMessage, error) {
	rows, err := db.Query(`
		SELECT id, channel, author, content, mention_of, created_at
		FROM feed_messages ORDER BY created_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent feed messages: %w", err)
	}
	defer rows.Close()
	return scanFeedMessages(rows)
}

// UnresolvedMentions returns mentions of the agent that have not yet been
// responded to, oldest first so handling is deterministic.
func (db *DB) UnresolvedMentions(agent string, limit int) ([]FeedMessage, error) {
	rows, err := db.Query(`
		SELECT m.id, m.channel, m.author, m.content, m.mention_of, m.created_at
		FROM feed_messages m
		WHERE m.mention_of = ?
		AND NOT EXISTS (
			SELECT 1 FROM responded_mentions r
			WHERE r.agent = ? AND r.message_id = m.id
		)
		ORDER BY m.created_at, m.id LIMIT ?
	`, agent, agent, limit)
	if err != nil {
		return nil, fmt.Errorf("unresolved mentions: %w", err)
	}
	defer rows.Close()
	return scanFeedMessages(rows)
}

// MarkResponded records that the agent has handled a mention. Inserting the
// same pair twice is a no-op, which is what makes handling at-most-once.
func (db *DB) MarkResponded(agent string, messageID int64) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT OR IGNORE INTO responded_mentions (agent, message_id, created_at)
		VALUES (?, ?, ?)
	`, agent, messageID, now)
	if err != nil {
		return fmt.Errorf("mark responded: %w", err)
	}
	return nil
}

// AddNotification appends a notification for an agent.
func (db *DB) AddNotification(agent, kind, content string) (int64, error) {
	now := time.Now().UnixMilli()
	result, err := db.Exec(`
		INSERT INTO notifications (agent, kind, content, created_at)
		VALUES (?, ?, ?, ?)
	`, agent, kind, content, now)
	if err != nil {
		return 0, fmt.Errorf("add notification: %w", err)
	}
	id, _ := result.LastInsertId()
	return id, nil
}

// UnresolvedNotifications returns pending notifications, oldest first.
func (db *DB) UnresolvedNotifications(agent string, limit int) ([]Notification, error) {
	rows, err := db.Query(`
		SELECT id, agent, kind, content, created_at, resolved_at
		FROM notifications
		WHERE agent = ? AND resolved_at IS NULL
		ORDER BY created_at, id LIMIT ?
	`, agent, limit)
	if err != nil {
		return nil, fmt.Errorf("unresolved notifications: %w", err)
	}
	defer rows.Close()

	var ns []Notification
	for rows.Next() {
		var n Notification
		var resolved sql.NullInt64
		if err := rows.Scan(&n.ID, &n.Agent, &n.Kind, &n.Content, &n.CreatedAt, &resolved); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		if resolved.Valid {
			n.ResolvedAt = &resolved.Int64
		}
		ns = append(ns, n)
	}
	return ns, rows.Err()
}

// ResolveNotification marks a notification handled.
func (db *DB) ResolveNotification(id int64) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		UPDATE notifications SET resolved_at = COALESCE(resolved_at, ?)
		WHERE id = ?
	`, now, id)
	if err != nil {
		return fmt.Errorf("resolve notification: %w", err)
	}
	return nil
}

// AppendEvent writes one event record.
func (db *DB) AppendEvent(kind, actor, detail string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO events (kind, actor, detail, created_at)
		VALUES (?, ?, ?, ?)
	`, kind, actor, detail, now)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// RecentEvents returns events newer than the given time, newest first.
func (db *DB) RecentEvents(since time.Time, limit int) ([]Event, error) {
	rows, err := db.Query(`
		SELECT id, kind, actor, detail, created_at
		FROM events WHERE created_at > ?
		ORDER BY created_at DESC, id DESC LIMIT ?
	`, since.UnixMilli(), limit)
	if err != nil {
		return nil, fmt.Errorf("recent events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Kind, &e.Actor, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func scanFeedMessages(rows *sql.Rows) ([]FeedMessage, error) {
	var msgs []FeedMessage
	for rows.Next() {
		var m FeedMessage
		var mention sql.NullString
		if err := rows.Scan(&m.ID, &m.Channel, &m.Author, &m.Content, &mention, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan feed message: %w", err)
		}
		m.MentionOf = mention.String
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
