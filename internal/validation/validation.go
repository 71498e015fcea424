// Package validation holds the field-level checks the service applies
// before handing a message to the store, in the same
// errors.New(...)-returning style the teacher's validators use.
package validation

import (
	"github.com/danor93/chat-router/internal/errors"
	"github.com/danor93/chat-router/internal/models"
)

// ValidateInboundMessage enforces spec.md §4.2's ingestMessage checks:
// the five identity/sender fields are non-empty strings and timestamp is
// present (null forbidden, zero allowed).
func ValidateInboundMessage(m *models.InboundMessage) error {
	if m.Platform == "" {
		return errors.New(errors.ErrInvalidInput, "platform is required")
	}
	if m.PlatformMessageID == "" {
		return errors.New(errors.ErrInvalidInput, "platformMessageId is required")
	}
	if m.PlatformChatID == "" {
		return errors.New(errors.ErrInvalidInput, "platformChatId is required")
	}
	if m.SenderName == "" {
		return errors.New(errors.ErrInvalidInput, "senderName is required")
	}
	if m.SenderID == "" {
		return errors.New(errors.ErrInvalidInput, "senderId is required")
	}
	if m.Timestamp == nil {
		return errors.New(errors.ErrInvalidInput, "timestamp is required")
	}
	return nil
}

// ValidateOutboundRequest enforces recordResponse's platform/chatId/text
// non-empty checks.
func ValidateOutboundRequest(r *models.OutboundRequest) error {
	if r.Platform == "" {
		return errors.New(errors.ErrInvalidInput, "platform is required")
	}
	if r.PlatformChatID == "" {
		return errors.New(errors.ErrInvalidInput, "platformChatId is required")
	}
	if r.Text == "" {
		return errors.New(errors.ErrInvalidInput, "text is required")
	}
	return nil
}
