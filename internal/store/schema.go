package store

import "github.com/danor93/chat-router/internal/errors"

// migrate creates the two relations idempotently, matching the teacher's
// "migrations at startup" posture generalized into real DDL since this
// store carries no separate migration tool.
func (s *Store) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS conversations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	platform TEXT NOT NULL,
	platform_chat_id TEXT NOT NULL,
	platform_chat_type TEXT,
	label TEXT NOT NULL,
	first_seen_at TEXT NOT NULL,
	last_message_at TEXT NOT NULL,
	message_count INTEGER NOT NULL DEFAULT 0,
	UNIQUE(platform, platform_chat_id)
);

CREATE TABLE IF NOT EXISTS timeline (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	conversation_id INTEGER NOT NULL REFERENCES conversations(id),
	direction TEXT NOT NULL,
	platform TEXT NOT NULL,
	platform_message_id TEXT NOT NULL,
	platform_chat_id TEXT NOT NULL,
	platform_chat_type TEXT,
	sender_name TEXT NOT NULL,
	sender_id TEXT NOT NULL,
	text TEXT,
	timestamp INTEGER NOT NULL,
	platform_meta TEXT,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_timeline_conversation ON timeline(platform, platform_chat_id, id);
CREATE INDEX IF NOT EXISTS idx_timeline_id ON timeline(id);
`
	if _, err := s.db.Exec(schema); err != nil {
		return errors.Wrap(err, errors.ErrFatalStartup)
	}
	return nil
}
