// Package service is the hub's authoritative business-logic layer:
// validation, normalization, monotonic synthetic-id minting for
// outbound responses, and the observable event stream of every newly
// persisted entry.
package service

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/danor93/chat-router/internal/errors"
	"github.com/danor93/chat-router/internal/models"
	"github.com/danor93/chat-router/internal/store"
	"github.com/danor93/chat-router/internal/validation"
)

// Service is safe for concurrent use by multiple callers: the store
// serializes its own writes and the synthetic counter is atomic.
type Service struct {
	store           *store.Store
	events          *EventBus
	syntheticCounter atomic.Int64
}

func New(st *store.Store) *Service {
	return &Service{store: st, events: NewEventBus()}
}

// On subscribes to message:new events.
func (s *Service) On(h Handler) Subscription { return s.events.On(h) }

// Off unsubscribes a previously registered handler.
func (s *Service) Off(sub Subscription) { s.events.Off(sub) }

// IngestMessage validates and normalizes an inbound platform message,
// persists it, and emits message:new.
func (s *Service) IngestMessage(m models.InboundMessage) (models.TimelineEntry, error) {
	if err := validation.ValidateInboundMessage(&m); err != nil {
		slog.Warn("inbound message rejected", "platform", m.Platform, "chat_id", m.PlatformChatID, "error", err)
		return models.TimelineEntry{}, err
	}

	meta, err := serializeMeta(m.PlatformMeta)
	if err != nil {
		slog.Error("platformMeta marshal failed", "platform", m.Platform, "chat_id", m.PlatformChatID, "error", err)
		return models.TimelineEntry{}, errors.New(errors.ErrInvalidInput, "platformMeta is not serializable")
	}

	entry, err := s.store.Ingest(store.IngestParams{
		Direction:         models.DirectionIn,
		Platform:          m.Platform,
		PlatformMessageID: m.PlatformMessageID,
		PlatformChatID:    m.PlatformChatID,
		PlatformChatType:  m.PlatformChatType,
		SenderName:        m.SenderName,
		SenderID:          m.SenderID,
		Text:              m.Text,
		Timestamp:         *m.Timestamp,
		PlatformMeta:      meta,
		Label:             m.SenderName,
	})
	if err != nil {
		slog.Error("inbound message ingest failed", "platform", m.Platform, "chat_id", m.PlatformChatID, "error", err)
		return models.TimelineEntry{}, err
	}

	slog.Info("inbound message ingested", "platform", m.Platform, "chat_id", m.PlatformChatID, "entry_id", entry.ID)
	s.events.Emit(entry)
	return entry, nil
}

// RecordResponse mints a synthetic platformMessageId, fills the
// system-reply fields, persists the entry, and emits message:new.
//
// Recording a response against a conversation that already has a human
// label overwrites that label to "System" — this is the behavior
// spec.md §4.2/§9 defines, not a bug to be fixed here.
func (s *Service) RecordResponse(r models.OutboundRequest) (models.TimelineEntry, error) {
	if err := validation.ValidateOutboundRequest(&r); err != nil {
		slog.Warn("outbound response rejected", "platform", r.Platform, "chat_id", r.PlatformChatID, "error", err)
		return models.TimelineEntry{}, err
	}

	n := s.syntheticCounter.Add(1)
	syntheticID := fmt.Sprintf("router-%d", n)
	slog.Debug("minted synthetic platform message id", "platform", r.Platform, "chat_id", r.PlatformChatID, "synthetic_id", syntheticID)

	var meta *string
	if r.InReplyTo != nil {
		serialized, err := json.Marshal(map[string]int64{"inReplyTo": *r.InReplyTo})
		if err != nil {
			return models.TimelineEntry{}, errors.Wrap(err, errors.ErrInternal)
		}
		serializedStr := string(serialized)
		meta = &serializedStr
	}

	entry, err := s.store.Ingest(store.IngestParams{
		Direction:         models.DirectionOut,
		Platform:          r.Platform,
		PlatformMessageID: syntheticID,
		PlatformChatID:    r.PlatformChatID,
		PlatformChatType:  nil,
		SenderName:        "System",
		SenderID:          "system",
		Text:              &r.Text,
		Timestamp:         time.Now().UnixMilli(),
		PlatformMeta:      meta,
		Label:             "System",
	})
	if err != nil {
		slog.Error("outbound response record failed", "platform", r.Platform, "chat_id", r.PlatformChatID, "error", err)
		return models.TimelineEntry{}, err
	}

	slog.Info("outbound response recorded", "platform", r.Platform, "chat_id", r.PlatformChatID, "entry_id", entry.ID)
	s.events.Emit(entry)
	return entry, nil
}

// GetTimeline is a pass-through to the store for a single conversation.
func (s *Service) GetTimeline(platform models.Platform, chatID string, q store.TimelineQuery) ([]models.TimelineEntry, error) {
	return s.store.GetTimeline(platform, chatID, q)
}

// GetUnifiedTimeline is a pass-through to the store across conversations.
func (s *Service) GetUnifiedTimeline(q store.TimelineQuery) ([]models.TimelineEntry, error) {
	return s.store.GetUnifiedTimeline(q)
}

// ListConversations is a pass-through to the store.
func (s *Service) ListConversations(platform *models.Platform, limit int) ([]models.Conversation, error) {
	return s.store.ListConversations(platform, limit)
}

// GetConversation is a pass-through to the store; the bool reports
// whether the conversation exists.
func (s *Service) GetConversation(platform models.Platform, chatID string) (models.Conversation, bool, error) {
	return s.store.GetConversation(platform, chatID)
}

// HealthCheck reports liveness plus the store's current aggregate
// counts.
func (s *Service) HealthCheck() (models.Stats, error) {
	st, err := s.store.GetStats()
	if err != nil {
		return models.Stats{}, err
	}
	return models.Stats{OK: true, MessageCount: st.MessageCount, ConversationCount: st.ConversationCount}, nil
}

// serializeMeta turns an arbitrary platformMeta payload into an opaque
// JSON string, or nil if absent.
func serializeMeta(meta any) (*string, error) {
	if meta == nil {
		return nil, nil
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}
