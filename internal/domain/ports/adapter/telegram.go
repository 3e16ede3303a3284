package adapter

import (
	"context"
	"encoding/json"
)

// TelegramSender is the outbound boundary to the bot API. Implementations
// swallow "recipient blocked the bot" failures; delivery is best effort.
type TelegramSender interface {
	SendMessage(ctx context.Context, chatID int64, text string, replyMarkup json.RawMessage, parseMode string) error
	SendPhoto(ctx context.Context, chatID int64, photo string, caption *string, replyMarkup json.RawMessage, parseMode string) error
}
