package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/beekboff/client-1-datingbot-mainbot/internal/domain"
	"github.com/beekboff/client-1-datingbot-mainbot/internal/domain/model"
	"github.com/beekboff/client-1-datingbot-mainbot/internal/domain/ports/adapter"
	"github.com/beekboff/client-1-datingbot-mainbot/internal/domain/ports/repository"
	"github.com/beekboff/client-1-datingbot-mainbot/internal/infra/i18n"
	"github.com/beekboff/client-1-datingbot-mainbot/internal/infra/logging"
	"github.com/beekboff/client-1-datingbot-mainbot/internal/infra/metrics"
)

// PushSender drains the push queue: every message is a fully prepared
// Telegram call, so sending is a method switch and nothing more.
type PushSender struct {
	sender adapter.TelegramSender
	users  repository.UserRepository
	log    *zerolog.Logger
}

func NewPushSender(sender adapter.TelegramSender, users repository.UserRepository, logger *zerolog.Logger) *PushSender {
	return &PushSender{sender: sender, users: users, log: logging.Component(logger, "PushSender")}
}

func (s *PushSender) Handle(ctx context.Context, body []byte) error {
	var p model.PushPayload
	if err := json.Unmarshal(body, &p); err != nil {
		s.log.Warn().Err(err).Str("payload_preview", logging.Preview(body, 200)).Msg("undecodable push payload, dropping")
		return nil
	}

	switch p.Method {
	case model.MethodSendMessage:
		if err := s.sender.SendMessage(ctx, p.Args.ChatID, p.Args.Text, p.Args.ReplyMarkup, p.Args.ParseMode); err != nil {
			return fmt.Errorf("send message push: %w", err)
		}
	case model.MethodSendPhoto:
		if err := s.sender.SendPhoto(ctx, p.Args.ChatID, p.Args.Photo, p.Args.Caption, p.Args.ReplyMarkup, p.Args.ParseMode); err != nil {
			return fmt.Errorf("send photo push: %w", err)
		}
	default:
		s.log.Warn().Str("method", p.Method).Msg("unknown push method, dropping")
		return nil
	}

	if err := s.users.TouchLastPush(ctx, p.Args.ChatID, time.Now().UTC()); err != nil {
		s.log.Warn().Int64("chat_id", p.Args.ChatID).Err(err).Msg("failed to touch last push after send")
	}
	metrics.IncPushSent(p.Method)
	return nil
}

// PromptSender drains the prompt queue, which the delay queue dead-letters
// into. Prompts are localized at send time because the user's language may
// have changed while the message waited out its TTL.
type PromptSender struct {
	t      *i18n.Localizer
	sender adapter.TelegramSender
	kb     *KeyboardFactory
	users  repository.UserRepository
	log    *zerolog.Logger
}

func NewPromptSender(t *i18n.Localizer, sender adapter.TelegramSender, kb *KeyboardFactory, users repository.UserRepository, logger *zerolog.Logger) *PromptSender {
	return &PromptSender{t: t, sender: sender, kb: kb, users: users, log: logging.Component(logger, "PromptSender")}
}

func (s *PromptSender) Handle(ctx context.Context, body []byte) error {
	var p model.PromptPayload
	if err := json.Unmarshal(body, &p); err != nil {
		s.log.Warn().Err(err).Str("payload_preview", logging.Preview(body, 200)).Msg("undecodable prompt payload, dropping")
		return nil
	}
	if p.Action != model.ActionSendCreateProfile || p.ChatID <= 0 {
		s.log.Warn().Str("action", p.Action).Int64("chat_id", p.ChatID).Msg("unsupported prompt, dropping")
		return nil
	}

	lang, err := s.users.GetLanguage(ctx, p.ChatID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("load language: %w", err)
		}
		lang = ""
	}
	lang = s.t.Normalize(lang)

	if err := s.sender.SendMessage(ctx, p.ChatID, s.t.T("create_profile.text", lang), s.kb.CreateProfile(lang, p.ChatID), ""); err != nil {
		return fmt.Errorf("send create-profile prompt: %w", err)
	}
	if err := s.users.TouchLastPush(ctx, p.ChatID, time.Now().UTC()); err != nil {
		s.log.Warn().Int64("chat_id", p.ChatID).Err(err).Msg("failed to touch last push after prompt")
	}
	metrics.IncPushSent("prompt")
	return nil
}
