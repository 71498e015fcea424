package outbound

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramSender is a concrete Sender for the Telegram platform, grounded
// on the pack's Telegram channel implementation. It is out of scope per
// spec.md §1 as a bot process, but the delivery loop's contract —
// SendText(ctx, chatID, text) — needs a real implementation to exercise.
type TelegramSender struct {
	bot *tgbotapi.BotAPI
}

func NewTelegramSender(botToken string) (*TelegramSender, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &TelegramSender{bot: bot}, nil
}

func (t *TelegramSender) SendText(ctx context.Context, chatID string, text string) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram chat id %q: %w", chatID, err)
	}

	msg := tgbotapi.NewMessage(id, text)
	_, err = t.bot.Send(msg)
	return err
}

var _ Sender = (*TelegramSender)(nil)
