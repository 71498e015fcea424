package outbound

import "context"

// Sender is the platform-agnostic send capability the delivery loop
// drives; a concrete implementation owns the platform-specific API
// call, chat-id parsing, and error classification.
type Sender interface {
	SendText(ctx context.Context, chatID string, text string) error
}
