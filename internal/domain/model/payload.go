package model

import "encoding/json"

// Wire formats shared by the publisher and the consumers. Pushes are fully
// prepared at enqueue time so the sending consumer stays a dumb pipe.

const (
	MethodSendMessage = "sendMessage"
	MethodSendPhoto   = "sendPhoto"
)

// PushPayload is a prepared outbound Telegram call.
type PushPayload struct {
	Method string   `json:"method"`
	Args   PushArgs `json:"args"`
}

// PushArgs mirrors the Telegram bot API argument names.
type PushArgs struct {
	ChatID      int64           `json:"chat_id"`
	Text        string          `json:"text,omitempty"`
	Photo       string          `json:"photo,omitempty"`
	Caption     *string         `json:"caption,omitempty"`
	ParseMode   string          `json:"parse_mode,omitempty"`
	ReplyMarkup json.RawMessage `json:"reply_markup,omitempty"`
}

const ActionSendCreateProfile = "send_create_profile"

// PromptPayload travels through the delay queue and dead-letters back into
// the prompt queue once its TTL expires.
type PromptPayload struct {
	Action string `json:"action"`
	ChatID int64  `json:"chat_id"`
}

// Callback actions round-tripped through inline keyboard buttons.
const (
	ActionSetPreference  = "set_preference"
	ActionBrowseProfiles = "browse_profiles"
	ActionLikeProfile    = "like_profile"
	ActionDislikeProfile = "dislike_profile"
)

// CallbackPayload is the JSON stored in a button's callback data.
type CallbackPayload struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// PreferenceData is the Data of a set_preference callback.
type PreferenceData struct {
	LookingFor string `json:"looking_for"`
}

// UnwrapUpdate accepts either a raw Telegram update or the wrapped
// {"data": <update>} form used by the upstream webhook relay.
func UnwrapUpdate(body []byte) []byte {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Data) > 0 {
		if envelope.Data[0] == '{' {
			return envelope.Data
		}
	}
	return body
}
