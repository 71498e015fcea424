package store

import (
	"database/sql"

	"github.com/danor93/chat-router/internal/errors"
	"github.com/danor93/chat-router/internal/models"
)

// IngestParams is everything the store needs to perform one atomic
// compound write; it is the service's normalized InboundMessage or
// synthesized OutboundRequest plus the conversation label to upsert.
type IngestParams struct {
	Direction        models.Direction
	Platform         models.Platform
	PlatformMessageID string
	PlatformChatID   string
	PlatformChatType *string
	SenderName       string
	SenderID         string
	Text             *string
	Timestamp        int64
	PlatformMeta     *string
	Label            string
}

// Ingest performs the single atomic compound write of spec.md §4.1:
// upsert the conversation aggregate, then insert the timeline row
// referencing it, both inside one transaction.
func (s *Store) Ingest(p IngestParams) (models.TimelineEntry, error) {
	if err := s.ensureOpen(); err != nil {
		return models.TimelineEntry{}, err
	}

	var entry models.TimelineEntry
	err := s.transaction(func(tx *sql.Tx) error {
		now := nowRFC3339()

		var conversationID int64
		err := tx.QueryRow(`
			INSERT INTO conversations (platform, platform_chat_id, platform_chat_type, label, first_seen_at, last_message_at, message_count)
			VALUES (?, ?, ?, ?, ?, ?, 1)
			ON CONFLICT(platform, platform_chat_id) DO UPDATE SET
				message_count = message_count + 1,
				last_message_at = excluded.last_message_at,
				label = excluded.label,
				platform_chat_type = COALESCE(excluded.platform_chat_type, conversations.platform_chat_type)
			RETURNING id
		`, string(p.Platform), p.PlatformChatID, p.PlatformChatType, p.Label, now, now).Scan(&conversationID)
		if err != nil {
			return errors.Wrap(err, errors.ErrDatabaseError)
		}

		var id int64
		var createdAt string
		err = tx.QueryRow(`
			INSERT INTO timeline (conversation_id, direction, platform, platform_message_id, platform_chat_id, platform_chat_type, sender_name, sender_id, text, timestamp, platform_meta, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id, created_at
		`, conversationID, string(p.Direction), string(p.Platform), p.PlatformMessageID, p.PlatformChatID, p.PlatformChatType,
			p.SenderName, p.SenderID, p.Text, p.Timestamp, p.PlatformMeta, now).Scan(&id, &createdAt)
		if err != nil {
			return errors.Wrap(err, errors.ErrDatabaseError)
		}

		entry = models.TimelineEntry{
			ID:                id,
			Direction:         p.Direction,
			Platform:          p.Platform,
			PlatformMessageID: p.PlatformMessageID,
			PlatformChatID:    p.PlatformChatID,
			PlatformChatType:  p.PlatformChatType,
			SenderName:        p.SenderName,
			SenderID:          p.SenderID,
			Text:              p.Text,
			Timestamp:         p.Timestamp,
			PlatformMeta:      p.PlatformMeta,
			CreatedAt:         createdAt,
		}
		return nil
	})
	if err != nil {
		return models.TimelineEntry{}, err
	}
	return entry, nil
}

const timelineSelect = `
	SELECT id, direction, platform, platform_message_id, platform_chat_id, platform_chat_type,
	       sender_name, sender_id, text, timestamp, platform_meta, created_at
	FROM timeline
`

func scanTimelineRows(rows *sql.Rows) ([]models.TimelineEntry, error) {
	defer rows.Close()
	entries := []models.TimelineEntry{}
	for rows.Next() {
		var e models.TimelineEntry
		if err := rows.Scan(&e.ID, &e.Direction, &e.Platform, &e.PlatformMessageID, &e.PlatformChatID,
			&e.PlatformChatType, &e.SenderName, &e.SenderID, &e.Text, &e.Timestamp, &e.PlatformMeta, &e.CreatedAt); err != nil {
			return nil, errors.Wrap(err, errors.ErrDatabaseError)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrDatabaseError)
	}
	return entries, nil
}

// TimelineQuery bundles the cursor/limit parameters shared by
// GetTimeline and GetUnifiedTimeline.
type TimelineQuery struct {
	After  *int64
	Before *int64
	Limit  int
}

func (q TimelineQuery) limitOrDefault() int {
	if q.Limit <= 0 {
		return 50
	}
	return q.Limit
}

// GetTimeline returns entries for a single conversation, newest id
// first, bounded by the exclusive after/before cursor and a hard limit.
func (s *Store) GetTimeline(platform models.Platform, chatID string, q TimelineQuery) ([]models.TimelineEntry, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}

	query := timelineSelect + " WHERE platform = ? AND platform_chat_id = ?"
	args := []any{string(platform), chatID}
	if q.After != nil {
		query += " AND id > ?"
		args = append(args, *q.After)
	}
	if q.Before != nil {
		query += " AND id < ?"
		args = append(args, *q.Before)
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, q.limitOrDefault())

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrDatabaseError)
	}
	return scanTimelineRows(rows)
}

// GetUnifiedTimeline is GetTimeline without the conversation filter.
func (s *Store) GetUnifiedTimeline(q TimelineQuery) ([]models.TimelineEntry, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}

	query := timelineSelect + " WHERE 1=1"
	var args []any
	if q.After != nil {
		query += " AND id > ?"
		args = append(args, *q.After)
	}
	if q.Before != nil {
		query += " AND id < ?"
		args = append(args, *q.Before)
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, q.limitOrDefault())

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrDatabaseError)
	}
	return scanTimelineRows(rows)
}

const conversationSelect = `
	SELECT id, platform, platform_chat_id, platform_chat_type, label, first_seen_at, last_message_at, message_count
	FROM conversations
`

// ListConversations returns conversations ordered by most recent
// activity, optionally filtered to a single platform.
func (s *Store) ListConversations(platform *models.Platform, limit int) ([]models.Conversation, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	query := conversationSelect
	var args []any
	if platform != nil {
		query += " WHERE platform = ?"
		args = append(args, string(*platform))
	}
	query += " ORDER BY last_message_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrDatabaseError)
	}
	defer rows.Close()

	conversations := []models.Conversation{}
	for rows.Next() {
		var c models.Conversation
		if err := rows.Scan(&c.ID, &c.Platform, &c.PlatformChatID, &c.PlatformChatType, &c.Label, &c.FirstSeenAt, &c.LastMessageAt, &c.MessageCount); err != nil {
			return nil, errors.Wrap(err, errors.ErrDatabaseError)
		}
		conversations = append(conversations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrDatabaseError)
	}
	return conversations, nil
}

// GetConversation returns a single conversation, or (zero, false) if
// none exists for the (platform, chatId) pair.
func (s *Store) GetConversation(platform models.Platform, chatID string) (models.Conversation, bool, error) {
	if err := s.ensureOpen(); err != nil {
		return models.Conversation{}, false, err
	}

	var c models.Conversation
	err := s.db.QueryRow(conversationSelect+" WHERE platform = ? AND platform_chat_id = ?", string(platform), chatID).
		Scan(&c.ID, &c.Platform, &c.PlatformChatID, &c.PlatformChatType, &c.Label, &c.FirstSeenAt, &c.LastMessageAt, &c.MessageCount)
	if err == sql.ErrNoRows {
		return models.Conversation{}, false, nil
	}
	if err != nil {
		return models.Conversation{}, false, errors.Wrap(err, errors.ErrDatabaseError)
	}
	return c, true, nil
}

// Stats is the store's aggregate view used by Service.HealthCheck.
type Stats struct {
	MessageCount      int64
	ConversationCount int64
}

func (s *Store) GetStats() (Stats, error) {
	if err := s.ensureOpen(); err != nil {
		return Stats{}, err
	}

	var st Stats
	if err := s.db.QueryRow("SELECT COUNT(*) FROM timeline").Scan(&st.MessageCount); err != nil {
		return Stats{}, errors.Wrap(err, errors.ErrDatabaseError)
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM conversations").Scan(&st.ConversationCount); err != nil {
		return Stats{}, errors.Wrap(err, errors.ErrDatabaseError)
	}
	return st, nil
}
