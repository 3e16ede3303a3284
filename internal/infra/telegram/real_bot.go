package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/beekboff/client-1-datingbot-mainbot/internal/config"
	"github.com/beekboff/client-1-datingbot-mainbot/internal/domain/ports/adapter"
	"github.com/beekboff/client-1-datingbot-mainbot/internal/infra/logging"
)

var _ adapter.TelegramSender = (*RealBot)(nil)

// RealBot sends prepared messages through the bot API. Send failures caused
// by the recipient (blocked bot, deactivated account) are swallowed: the
// push is simply lost, membership updates will deactivate the user.
type RealBot struct {
	bot *tgbotapi.BotAPI
	log *zerolog.Logger
}

func NewRealBot(cfg *config.BotConfig, logger *zerolog.Logger) (*RealBot, error) {
	if cfg == nil || cfg.Token == "" {
		return nil, errors.New("bot token is required")
	}
	endpoint := cfg.BaseURL + "/bot%s/%s"
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(cfg.Token, endpoint)
	if err != nil {
		return nil, fmt.Errorf("init bot api: %w", err)
	}
	return &RealBot{bot: bot, log: logging.Component(logger, "TelegramBot")}, nil
}

func (b *RealBot) SendMessage(ctx context.Context, chatID int64, text string, replyMarkup json.RawMessage, parseMode string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if len(replyMarkup) > 0 {
		msg.ReplyMarkup = replyMarkup
	}
	if parseMode != "" {
		msg.ParseMode = parseMode
	}
	return b.send(ctx, chatID, msg)
}

func (b *RealBot) SendPhoto(ctx context.Context, chatID int64, photo string, caption *string, replyMarkup json.RawMessage, parseMode string) error {
	msg := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(photo))
	if caption != nil {
		msg.Caption = *caption
	}
	if len(replyMarkup) > 0 {
		msg.ReplyMarkup = replyMarkup
	}
	if parseMode != "" {
		msg.ParseMode = parseMode
	}
	return b.send(ctx, chatID, msg)
}

func (b *RealBot) send(ctx context.Context, chatID int64, c tgbotapi.Chattable) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := b.bot.Send(c); err != nil {
		var apiErr *tgbotapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == 403 {
			b.log.Debug().Int64("chat_id", chatID).Msg("recipient unavailable, dropping send")
			return nil
		}
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
