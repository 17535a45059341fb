package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "agents: singleton internal state per persona",
		SQL: `
CREATE TABLE agents (
    name              TEXT PRIMARY KEY,
    mood              TEXT NOT NULL CHECK (mood IN ('curious', 'contemplative', 'restless', 'playful', 'melancholy', 'serene')),
    energy            REAL NOT NULL DEFAULT 1.0,
    focus             TEXT NOT NULL DEFAULT '',
    last_spoke_at     INTEGER,
    message_count_24h INTEGER NOT NULL DEFAULT 0,
    current_location  TEXT,
    birth_at          INTEGER NOT NULL,
    heartbeat_count   INTEGER NOT NULL DEFAULT 0
);
`,
	},
	{
		Version:     2,
		Description: "memories: active set plus forgotten archive",
		SQL: `
CREATE TABLE memories (
    id                TEXT PRIMARY KEY,
    agent             TEXT NOT NULL,
    content           TEXT NOT NULL,
    mem_type          TEXT NOT NULL CHECK (mem_type IN ('experience', 'reflection', 'insight', 'feeling')),
    salience          REAL NOT NULL,
    tags              TEXT NOT NULL DEFAULT '[]',
    counterpart       TEXT,
    session_id        TEXT,
    created_at        INTEGER NOT NULL,
    last_revisited_at INTEGER NOT NULL,
    revisit_count     INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX idx_memories_agent     ON memories(agent);
CREATE INDEX idx_memories_revisited ON memories(last_revisited_at DESC);

CREATE TABLE forgotten_memories (
    id                TEXT PRIMARY KEY,
    agent             TEXT NOT NULL,
    content           TEXT NOT NULL,
    mem_type          TEXT NOT NULL,
    salience          REAL NOT NULL,
    tags              TEXT NOT NULL,
    counterpart       TEXT,
    session_id        TEXT,
    created_at        INTEGER NOT NULL,
    last_revisited_at INTEGER NOT NULL,
    revisit_count     INTEGER NOT NULL,
    forgotten_at      INTEGER NOT NULL,
    reason            TEXT NOT NULL DEFAULT ''
);
`,
	},
	{
		Version:     3,
		Description: "relationships: per-counterpart interaction ledger",
		SQL: `
CREATE TABLE relationships (
    agent             TEXT NOT NULL,
    counterpart       TEXT NOT NULL,
    first_seen        INTEGER NOT NULL,
    last_seen         INTEGER NOT NULL,
    interaction_count INTEGER NOT NULL DEFAULT 1,
    recent_topic      TEXT NOT NULL DEFAULT '',
    shared_history    TEXT NOT NULL DEFAULT '',
    what_matters      TEXT NOT NULL DEFAULT '',
    how_i_feel        TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (agent, counterpart)
);
`,
	},
	{
		Version:     4,
		Description: "aspirations: goals and wonderings",
		SQL: `
CREATE TABLE goals (
    id          TEXT PRIMARY KEY,
    agent       TEXT NOT NULL,
    description TEXT NOT NULL,
    status      TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'resolved')),
    created_at  INTEGER NOT NULL
);

CREATE INDEX idx_goals_agent ON goals(agent, status);

CREATE TABLE wonderings (
    id         TEXT PRIMARY KEY,
    agent      TEXT NOT NULL,
    question   TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE INDEX idx_wonderings_agent ON wonderings(agent);
`,
	},
	{
		Version:     5,
		Description: "identity: versioned self-description with history",
		SQL: `
CREATE TABLE identity (
    agent         TEXT PRIMARY KEY,
    content       TEXT NOT NULL DEFAULT '',
    version       INTEGER NOT NULL DEFAULT 0,
    last_updated  INTEGER NOT NULL,
    update_reason TEXT NOT NULL DEFAULT ''
);

CREATE TABLE identity_history (
    id         INTEGER PRIMARY KEY,
    agent      TEXT NOT NULL,
    version    INTEGER NOT NULL,
    content    TEXT NOT NULL,
    reason     TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE INDEX idx_identity_history_agent ON identity_history(agent, version);
`,
	},
	{
		Version:     6,
		Description: "sessions: counterpart conversations for the entity variant",
		SQL: `
CREATE TABLE sessions (
    id          TEXT PRIMARY KEY,
    agent       TEXT NOT NULL,
    counterpart TEXT NOT NULL,
    started_at  INTEGER NOT NULL,
    ended_at    INTEGER,
    reflected   INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX idx_sessions_agent ON sessions(agent, ended_at);

CREATE TABLE session_messages (
    id         INTEGER PRIMARY KEY,
    session_id TEXT NOT NULL,
    role       TEXT NOT NULL CHECK (role IN ('counterpart', 'agent')),
    content    TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    FOREIGN KEY (session_id) REFERENCES sessions(id)
);

CREATE INDEX idx_session_messages ON session_messages(session_id, created_at);
`,
	},
	{
		Version:     7,
		Description: "feed: published messages, mentions, notifications, events",
		SQL: `
CREATE TABLE feed_messages (
    id         INTEGER PRIMARY KEY,
    channel    TEXT NOT NULL,
    author     TEXT NOT NULL,
    content    TEXT NOT NULL,
    mention_of TEXT,
    created_at INTEGER NOT NULL
);

CREATE INDEX idx_feed_created ON feed_messages(created_at DESC);
CREATE INDEX idx_feed_mention ON feed_messages(mention_of);

CREATE TABLE responded_mentions (
    agent      TEXT NOT NULL,
    message_id INTEGER NOT NULL,
    created_at INTEGER NOT NULL,
    PRIMARY KEY (agent, message_id)
);

CREATE TABLE notifications (
    id          INTEGER PRIMARY KEY,
    agent       TEXT NOT NULL,
    kind        TEXT NOT NULL DEFAULT '',
    content     TEXT NOT NULL,
    created_at  INTEGER NOT NULL,
    resolved_at INTEGER
);

CREATE INDEX idx_notifications_agent ON notifications(agent, resolved_at);

CREATE TABLE events (
    id         INTEGER PRIMARY KEY,
    kind       TEXT NOT NULL,
    actor      TEXT NOT NULL,
    detail     TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL
);

CREATE INDEX idx_events_created ON events(created_at DESC);
`,
	},
}

func (db *DB) migrate() error {
	// Create schema_versions table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
