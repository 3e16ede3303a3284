package telegram

import (
	"fmt"
	"net/url"

	"github.com/beekboff/client-1-datingbot-mainbot/internal/domain/model"
	"github.com/beekboff/client-1-datingbot-mainbot/internal/infra/i18n"
)

// PayloadFactory prepares the outbound push payloads the scheduler enqueues.
// Preparing them at enqueue time keeps the push consumer a dumb pipe.
type PayloadFactory struct {
	t             *i18n.Localizer
	kb            *KeyboardFactory
	publicBaseURL string
}

func NewPayloadFactory(t *i18n.Localizer, kb *KeyboardFactory, publicBaseURL string) *PayloadFactory {
	return &PayloadFactory{t: t, kb: kb, publicBaseURL: publicBaseURL}
}

// PreferencePrompt asks a user without a preference who they are looking for.
func (f *PayloadFactory) PreferencePrompt(lang string, chatID int64) model.PushPayload {
	return model.PushPayload{
		Method: model.MethodSendMessage,
		Args: model.PushArgs{
			ChatID:      chatID,
			Text:        f.t.T("find_whom.text", lang),
			ReplyMarkup: f.kb.FindWhom(lang),
		},
	}
}

// ProfileCard wraps a profile photo with the like/dislike keyboard.
func (f *PayloadFactory) ProfileCard(lang string, chatID int64, p model.Profile) model.PushPayload {
	caption := ""
	return model.PushPayload{
		Method: model.MethodSendPhoto,
		Args: model.PushArgs{
			ChatID:      chatID,
			Photo:       f.PhotoURL(p),
			Caption:     &caption,
			ReplyMarkup: f.kb.ProfileCard(lang, p.ID),
		},
	}
}

// PhotoURL composes the public URL a profile photo is served from.
func (f *PayloadFactory) PhotoURL(p model.Profile) string {
	folder := "women"
	if p.Gender == model.GenderMan {
		folder = "men"
	}
	return fmt.Sprintf("%s/storage/profiles/%s/%s", f.publicBaseURL, folder, url.PathEscape(p.File))
}
