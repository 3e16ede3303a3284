package telegram

import (
	"encoding/json"
	"fmt"
	"net/url"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/beekboff/client-1-datingbot-mainbot/internal/domain/model"
	"github.com/beekboff/client-1-datingbot-mainbot/internal/infra/i18n"
)

// KeyboardFactory builds the inline keyboards whose buttons round-trip JSON
// callback payloads through the chat UI.
type KeyboardFactory struct {
	t                *i18n.Localizer
	profileCreateURL string
	connectBaseURL   string
}

func NewKeyboardFactory(t *i18n.Localizer, profileCreateURL, connectBaseURL string) *KeyboardFactory {
	return &KeyboardFactory{
		t:                t,
		profileCreateURL: profileCreateURL,
		connectBaseURL:   connectBaseURL,
	}
}

func callbackButton(label, action string, data interface{}) tgbotapi.InlineKeyboardButton {
	payload := model.CallbackPayload{Action: action}
	if data != nil {
		raw, _ := json.Marshal(data)
		payload.Data = raw
	}
	encoded, _ := json.Marshal(payload)
	return tgbotapi.NewInlineKeyboardButtonData(label, string(encoded))
}

func marshalMarkup(markup tgbotapi.InlineKeyboardMarkup) json.RawMessage {
	raw, _ := json.Marshal(markup)
	return raw
}

// FindWhom asks the user which gender they are looking for.
func (k *KeyboardFactory) FindWhom(lang string) json.RawMessage {
	return marshalMarkup(tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			callbackButton(k.t.T("find_whom.buttons.woman", lang), model.ActionSetPreference,
				model.PreferenceData{LookingFor: string(model.GenderWoman)}),
		),
		tgbotapi.NewInlineKeyboardRow(
			callbackButton(k.t.T("find_whom.buttons.man", lang), model.ActionSetPreference,
				model.PreferenceData{LookingFor: string(model.GenderMan)}),
		),
	))
}

// CreateProfile offers profile creation plus a shortcut into browsing.
func (k *KeyboardFactory) CreateProfile(lang string, userID int64) json.RawMessage {
	createURL := k.profileCreateURL
	if userID > 0 {
		sep := "?"
		if u, err := url.Parse(createURL); err == nil && u.RawQuery != "" {
			sep = "&"
		}
		createURL = fmt.Sprintf("%s%suid=%d", createURL, sep, userID)
	}
	return marshalMarkup(tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL(k.t.T("create_profile.buttons.create_profile", lang), createURL),
		),
		tgbotapi.NewInlineKeyboardRow(
			callbackButton(k.t.T("create_profile.buttons.browse_profiles", lang), model.ActionBrowseProfiles, nil),
		),
	))
}

// ProfileCard is the like/dislike/connect keyboard under a profile photo.
func (k *KeyboardFactory) ProfileCard(lang string, profileID int64) json.RawMessage {
	connectURL := fmt.Sprintf("%s?pid=%d", k.connectBaseURL, profileID)
	return marshalMarkup(tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			callbackButton(k.t.T("profile.buttons.like", lang), model.ActionLikeProfile,
				map[string]int64{"profile_id": profileID}),
			callbackButton(k.t.T("profile.buttons.dislike", lang), model.ActionDislikeProfile,
				map[string]int64{"profile_id": profileID}),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL(k.t.T("profile.buttons.connect", lang), connectURL),
		),
	))
}
