package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/beekboff/client-1-datingbot-mainbot/internal/domain/model"
	"github.com/beekboff/client-1-datingbot-mainbot/internal/domain/ports/adapter"
	"github.com/beekboff/client-1-datingbot-mainbot/internal/domain/ports/mq"
	"github.com/beekboff/client-1-datingbot-mainbot/internal/domain/ports/repository"
	"github.com/beekboff/client-1-datingbot-mainbot/internal/infra/i18n"
	"github.com/beekboff/client-1-datingbot-mainbot/internal/infra/logging"
	"github.com/beekboff/client-1-datingbot-mainbot/internal/infra/metrics"
	"github.com/beekboff/client-1-datingbot-mainbot/internal/usecase"
)

// Dispatcher consumes raw Telegram updates from the queue, deduplicates them
// by update_id, and routes them to the command and callback handlers. A nil
// return acknowledges the message; handlers keep user-caused failures out of
// the error path so redelivery is reserved for infrastructure faults.
type Dispatcher struct {
	t           *i18n.Localizer
	sender      adapter.TelegramSender
	kb          *KeyboardFactory
	payloads    *PayloadFactory
	users       repository.UserRepository
	dedup       repository.ProcessedUpdateRepository
	profiles    usecase.ProfileUseCase
	pub         mq.Publisher
	promptDelay time.Duration
	log         *zerolog.Logger
}

func NewDispatcher(
	t *i18n.Localizer,
	sender adapter.TelegramSender,
	kb *KeyboardFactory,
	payloads *PayloadFactory,
	users repository.UserRepository,
	dedup repository.ProcessedUpdateRepository,
	profiles usecase.ProfileUseCase,
	pub mq.Publisher,
	promptDelay time.Duration,
	logger *zerolog.Logger,
) *Dispatcher {
	return &Dispatcher{
		t:           t,
		sender:      sender,
		kb:          kb,
		payloads:    payloads,
		users:       users,
		dedup:       dedup,
		profiles:    profiles,
		pub:         pub,
		promptDelay: promptDelay,
		log:         logging.Component(logger, "Dispatcher"),
	}
}

// Dispatch handles one queued update body end to end.
func (d *Dispatcher) Dispatch(ctx context.Context, body []byte) error {
	var upd tgbotapi.Update
	if err := json.Unmarshal(model.UnwrapUpdate(body), &upd); err != nil {
		d.log.Warn().Err(err).Str("payload_preview", logging.Preview(body, 200)).Msg("undecodable update, dropping")
		return nil
	}
	// An update without an id cannot be deduplicated, but it is still
	// handled: membership changes in particular must not be lost.
	if upd.UpdateID == 0 {
		d.log.Warn().Str("payload_preview", logging.Preview(body, 200)).Msg("update without update_id, cannot deduplicate")
	} else {
		first, err := d.dedup.TryMark(ctx, int64(upd.UpdateID))
		if err != nil {
			return fmt.Errorf("dedup update %d: %w", upd.UpdateID, err)
		}
		if !first {
			metrics.IncDuplicateUpdate()
			d.log.Debug().Int("update_id", upd.UpdateID).Msg("duplicate update, skipping")
			return nil
		}
	}

	switch {
	case upd.MyChatMember != nil:
		return d.handleMembership(ctx, upd.MyChatMember)
	case upd.Message != nil:
		return d.handleMessage(ctx, upd.Message)
	case upd.CallbackQuery != nil:
		return d.handleCallback(ctx, upd.CallbackQuery)
	default:
		d.log.Warn().Int("update_id", upd.UpdateID).Msg("unsupported update kind, dropping")
		return nil
	}
}

// handleMembership tracks bot block/unblock so the scheduler stops pushing
// to chats that cannot receive.
func (d *Dispatcher) handleMembership(ctx context.Context, m *tgbotapi.ChatMemberUpdated) error {
	status := m.NewChatMember.Status
	chatID := m.Chat.ID
	switch status {
	case "kicked", "left":
		d.log.Info().Int64("chat_id", chatID).Str("status", status).Msg("bot removed, deactivating user")
		return d.users.Deactivate(ctx, chatID)
	case "member":
		d.log.Info().Int64("chat_id", chatID).Msg("bot restored, activating user")
		return d.users.Activate(ctx, chatID)
	}
	return nil
}

func (d *Dispatcher) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	if chatID <= 0 {
		return nil
	}
	d.touch(ctx, chatID)

	if strings.HasPrefix(msg.Text, "/start") {
		lang := ""
		if msg.From != nil {
			lang = msg.From.LanguageCode
		}
		return d.handleStart(ctx, chatID, d.t.Normalize(lang))
	}

	d.log.Debug().Int64("chat_id", chatID).Msg("unhandled message, ignoring")
	return nil
}

// handleStart registers the user and opens the preference dialog. The
// create-profile prompt is scheduled with a delay so it arrives after the
// user had a moment to pick a preference.
func (d *Dispatcher) handleStart(ctx context.Context, chatID int64, lang string) error {
	registered, err := d.users.IsRegistered(ctx, chatID)
	if err != nil {
		return fmt.Errorf("check registration: %w", err)
	}
	if !registered {
		if err := d.users.Register(ctx, chatID, lang); err != nil {
			return fmt.Errorf("register user: %w", err)
		}
	}

	if err := d.sender.SendMessage(ctx, chatID, d.t.T("find_whom.text", lang), d.kb.FindWhom(lang), ""); err != nil {
		return fmt.Errorf("send preference dialog: %w", err)
	}

	prompt := model.PromptPayload{Action: model.ActionSendCreateProfile, ChatID: chatID}
	if err := d.pub.PublishPromptDelayed(ctx, prompt, d.promptDelay); err != nil {
		d.log.Error().Int64("chat_id", chatID).Err(err).Msg("failed to schedule create-profile prompt")
	}
	return nil
}

func (d *Dispatcher) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	var chatID int64
	if cb.Message != nil {
		chatID = cb.Message.Chat.ID
	}
	// Old or inaccessible messages arrive without a message; the sender's
	// id still identifies the chat.
	if chatID <= 0 && cb.From != nil {
		chatID = cb.From.ID
	}
	if chatID <= 0 {
		return nil
	}
	d.touch(ctx, chatID)

	var payload model.CallbackPayload
	if err := json.Unmarshal([]byte(cb.Data), &payload); err != nil {
		d.log.Warn().Int64("chat_id", chatID).Str("payload_preview", logging.Preview([]byte(cb.Data), 200)).Msg("undecodable callback data, ignoring")
		return nil
	}

	switch payload.Action {
	case model.ActionSetPreference:
		return d.handlePreference(ctx, chatID, payload.Data)
	case model.ActionBrowseProfiles, model.ActionLikeProfile, model.ActionDislikeProfile:
		return d.sendNextProfile(ctx, chatID)
	default:
		d.log.Warn().Int64("chat_id", chatID).Str("action", payload.Action).Msg("unknown callback action, ignoring")
		return nil
	}
}

// handlePreference stores who the user is looking for and immediately shows
// the first matching profile.
func (d *Dispatcher) handlePreference(ctx context.Context, chatID int64, data json.RawMessage) error {
	var pref model.PreferenceData
	if err := json.Unmarshal(data, &pref); err != nil {
		d.log.Warn().Int64("chat_id", chatID).Msg("undecodable preference data, ignoring")
		return nil
	}
	gender, ok := model.ParseGender(pref.LookingFor)
	if !ok {
		d.log.Warn().Int64("chat_id", chatID).Str("looking_for", pref.LookingFor).Msg("invalid preference value, ignoring")
		return nil
	}
	if err := d.users.SetPreference(ctx, chatID, gender); err != nil {
		return fmt.Errorf("store preference: %w", err)
	}
	return d.sendNextProfile(ctx, chatID)
}

// sendNextProfile delivers one unseen profile card for interactive browsing.
func (d *Dispatcher) sendNextProfile(ctx context.Context, chatID int64) error {
	lang, err := d.users.GetLanguage(ctx, chatID)
	if err != nil {
		return fmt.Errorf("load language: %w", err)
	}
	lang = d.t.Normalize(lang)

	pref, err := d.users.GetPreference(ctx, chatID)
	if err != nil {
		return fmt.Errorf("load preference: %w", err)
	}
	if pref == nil {
		return d.sender.SendMessage(ctx, chatID, d.t.T("find_whom.text", lang), d.kb.FindWhom(lang), "")
	}

	profile, err := d.profiles.NextUnseen(ctx, chatID, *pref)
	if err != nil {
		return fmt.Errorf("pick next profile: %w", err)
	}
	if profile == nil {
		d.log.Warn().Int64("chat_id", chatID).Str("gender", string(*pref)).Msg("no profiles to browse")
		return nil
	}

	caption := ""
	if err := d.sender.SendPhoto(ctx, chatID, d.payloads.PhotoURL(*profile), &caption, d.kb.ProfileCard(lang, profile.ID), ""); err != nil {
		return fmt.Errorf("send profile card: %w", err)
	}
	return d.profiles.MarkShown(ctx, chatID, profile.ID)
}

// touch records the interaction so the push cooldown backs off from users who
// are actively talking to the bot.
func (d *Dispatcher) touch(ctx context.Context, chatID int64) {
	if err := d.users.TouchLastPush(ctx, chatID, time.Now().UTC()); err != nil {
		d.log.Warn().Int64("chat_id", chatID).Err(err).Msg("failed to touch last push")
	}
}
