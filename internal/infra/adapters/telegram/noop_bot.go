package telegram

import (
	"context"
	"log"

	"github.com/webb-rtk/shintek/internal/domain/ports/adapter"
)

var _ adapter.MessengerAdapter = (*NoopBotAdapter)(nil)

// NoopBotAdapter logs deliveries instead of talking to Telegram.
type NoopBotAdapter struct{}

func NewNoopBotAdapter() *NoopBotAdapter {
	return &NoopBotAdapter{}
}

func (n *NoopBotAdapter) SendText(ctx context.Context, chatID int64, text string) error {
	log.Printf("[noop-bot] to chat %d: %s\n", chatID, text)
	return nil
}
