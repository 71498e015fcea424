// Package models defines the wire and domain types shared across every
// transport the hub exposes: HTTP, the stream socket, and the CLI.
package models

// Platform is the closed set of chat platforms the hub understands.
// New platforms are added here; adapters outside this module never
// invent their own tag.
type Platform string

const (
	PlatformTelegram Platform = "telegram"
	PlatformDiscord  Platform = "discord"
	PlatformWeb      Platform = "web"
)

// Direction marks whether a TimelineEntry is inbound from a platform or
// outbound from the hub (a recorded response).
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// InboundMessage is the normalized shape an adapter hands to the service
// for ingestion. Optional fields are nil when the platform did not supply
// them.
type InboundMessage struct {
	Platform         Platform `json:"platform"`
	PlatformMessageID string  `json:"platformMessageId"`
	PlatformChatID   string   `json:"platformChatId"`
	PlatformChatType *string  `json:"platformChatType,omitempty"`
	SenderName       string   `json:"senderName"`
	SenderID         string   `json:"senderId"`
	Text             *string  `json:"text,omitempty"`
	Timestamp        *int64   `json:"timestamp"`
	PlatformMeta     any      `json:"platformMeta,omitempty"`
}

// TimelineEntry is the hub's canonical, persisted representation of a
// single message, inbound or outbound. It is what every query and push
// frame returns.
type TimelineEntry struct {
	ID                 int64     `json:"id"`
	Direction          Direction `json:"direction"`
	Platform           Platform  `json:"platform"`
	PlatformMessageID  string    `json:"platformMessageId"`
	PlatformChatID     string    `json:"platformChatId"`
	PlatformChatType   *string   `json:"platformChatType"`
	SenderName         string    `json:"senderName"`
	SenderID           string    `json:"senderId"`
	Text               *string   `json:"text"`
	Timestamp          int64     `json:"timestamp"`
	PlatformMeta       *string   `json:"platformMeta"`
	CreatedAt          string    `json:"createdAt"`
}

// Conversation is the per-(platform, chatId) aggregate, updated on every
// entry written against it.
type Conversation struct {
	ID               int64    `json:"id"`
	Platform         Platform `json:"platform"`
	PlatformChatID   string   `json:"platformChatId"`
	PlatformChatType *string  `json:"platformChatType"`
	Label            string   `json:"label"`
	FirstSeenAt      string   `json:"firstSeenAt"`
	LastMessageAt    string   `json:"lastMessageAt"`
	MessageCount     int64    `json:"messageCount"`
}

// OutboundRequest records a system-generated reply against a conversation.
type OutboundRequest struct {
	Platform       Platform `json:"platform"`
	PlatformChatID string   `json:"platformChatId"`
	Text           string   `json:"text"`
	InReplyTo      *int64   `json:"inReplyTo,omitempty"`
}

// Stats is the body returned by the health check and the stream
// adapter's "health" request type.
type Stats struct {
	OK               bool  `json:"ok"`
	MessageCount     int64 `json:"messageCount"`
	ConversationCount int64 `json:"conversationCount"`
}

// ErrorResponse is the JSON shape every HTTP error path responds with.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}
