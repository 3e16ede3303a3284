package telegram

import (
	"context"
	"encoding/json"
	"time"

	"github.com/beekboff/client-1-datingbot-mainbot/internal/domain/model"
	"github.com/beekboff/client-1-datingbot-mainbot/internal/domain/ports/repository"
	"github.com/beekboff/client-1-datingbot-mainbot/internal/infra/i18n"
	"github.com/beekboff/client-1-datingbot-mainbot/internal/usecase"
)

func testLocalizer() *i18n.Localizer {
	t, err := i18n.NewLocalizer(i18n.LocalesFS, "en", []string{"en", "ru", "es"})
	if err != nil {
		panic(err)
	}
	return t
}

type sentMessage struct {
	ChatID int64
	Text   string
	Photo  string
	Markup json.RawMessage
}

type fakeSender struct {
	messages []sentMessage
	photos   []sentMessage
	err      error
}

func (s *fakeSender) SendMessage(_ context.Context, chatID int64, text string, replyMarkup json.RawMessage, _ string) error {
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, sentMessage{ChatID: chatID, Text: text, Markup: replyMarkup})
	return nil
}

func (s *fakeSender) SendPhoto(_ context.Context, chatID int64, photo string, _ *string, replyMarkup json.RawMessage, _ string) error {
	if s.err != nil {
		return s.err
	}
	s.photos = append(s.photos, sentMessage{ChatID: chatID, Photo: photo, Markup: replyMarkup})
	return nil
}

type fakeUserRepo struct {
	repository.UserRepository

	registered  map[int64]string
	active      map[int64]bool
	preferences map[int64]model.Gender
	languages   map[int64]string
	touched     []int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		registered:  make(map[int64]string),
		active:      make(map[int64]bool),
		preferences: make(map[int64]model.Gender),
		languages:   make(map[int64]string),
	}
}

func (r *fakeUserRepo) Register(_ context.Context, userID int64, language string) error {
	r.registered[userID] = language
	r.active[userID] = true
	return nil
}

func (r *fakeUserRepo) IsRegistered(_ context.Context, userID int64) (bool, error) {
	_, ok := r.registered[userID]
	return ok, nil
}

func (r *fakeUserRepo) Activate(_ context.Context, userID int64) error {
	r.active[userID] = true
	return nil
}

func (r *fakeUserRepo) Deactivate(_ context.Context, userID int64) error {
	r.active[userID] = false
	return nil
}

func (r *fakeUserRepo) SetPreference(_ context.Context, userID int64, lookingFor model.Gender) error {
	r.preferences[userID] = lookingFor
	return nil
}

func (r *fakeUserRepo) GetPreference(_ context.Context, userID int64) (*model.Gender, error) {
	g, ok := r.preferences[userID]
	if !ok {
		return nil, nil
	}
	return &g, nil
}

func (r *fakeUserRepo) GetLanguage(_ context.Context, userID int64) (string, error) {
	return r.languages[userID], nil
}

func (r *fakeUserRepo) TouchLastPush(_ context.Context, userID int64, _ time.Time) error {
	r.touched = append(r.touched, userID)
	return nil
}

type fakeDedupRepo struct {
	repository.ProcessedUpdateRepository

	seen map[int64]bool
}

func newFakeDedupRepo() *fakeDedupRepo {
	return &fakeDedupRepo{seen: make(map[int64]bool)}
}

func (r *fakeDedupRepo) TryMark(_ context.Context, updateID int64) (bool, error) {
	if r.seen[updateID] {
		return false, nil
	}
	r.seen[updateID] = true
	return true, nil
}

type fakeProfileUC struct {
	usecase.ProfileUseCase

	next  *model.Profile
	shown []int64
}

func (u *fakeProfileUC) NextUnseen(context.Context, int64, model.Gender) (*model.Profile, error) {
	return u.next, nil
}

func (u *fakeProfileUC) MarkShown(_ context.Context, _ int64, profileID int64) error {
	u.shown = append(u.shown, profileID)
	return nil
}

type fakePublisher struct {
	pushes  []model.PushPayload
	prompts []model.PromptPayload
	delays  []time.Duration
}

func (p *fakePublisher) PublishPush(_ context.Context, payload model.PushPayload) error {
	p.pushes = append(p.pushes, payload)
	return nil
}

func (p *fakePublisher) PublishPrompt(_ context.Context, payload model.PromptPayload) error {
	p.prompts = append(p.prompts, payload)
	return nil
}

func (p *fakePublisher) PublishPromptDelayed(_ context.Context, payload model.PromptPayload, delay time.Duration) error {
	p.prompts = append(p.prompts, payload)
	p.delays = append(p.delays, delay)
	return nil
}
