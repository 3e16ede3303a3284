package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/beekboff/client-1-datingbot-mainbot/internal/domain/model"
	"github.com/beekboff/client-1-datingbot-mainbot/internal/domain/ports/repository"
)

// Function-field mocks: tests set only the calls they expect.

type mockProfileRepo struct {
	BoundsFunc            func(ctx context.Context, gender model.Gender) (model.Bounds, error)
	SelectUnseenRangeFunc func(ctx context.Context, userID int64, gender model.Gender, pivot int64, limit int, dir repository.ScanDirection) ([]model.Profile, error)
	MarkShownFunc         func(ctx context.Context, userID, profileID int64) error
	ClearShownFunc        func(ctx context.Context, userID int64) error
	CreateIfNotExistsFunc func(ctx context.Context, file string, gender model.Gender) (int64, bool, error)
}

func (m *mockProfileRepo) Bounds(ctx context.Context, gender model.Gender) (model.Bounds, error) {
	return m.BoundsFunc(ctx, gender)
}

func (m *mockProfileRepo) SelectUnseenRange(ctx context.Context, userID int64, gender model.Gender, pivot int64, limit int, dir repository.ScanDirection) ([]model.Profile, error) {
	return m.SelectUnseenRangeFunc(ctx, userID, gender, pivot, limit, dir)
}

func (m *mockProfileRepo) MarkShown(ctx context.Context, userID, profileID int64) error {
	if m.MarkShownFunc == nil {
		return nil
	}
	return m.MarkShownFunc(ctx, userID, profileID)
}

func (m *mockProfileRepo) ClearShown(ctx context.Context, userID int64) error {
	if m.ClearShownFunc == nil {
		return nil
	}
	return m.ClearShownFunc(ctx, userID)
}

func (m *mockProfileRepo) CreateIfNotExists(ctx context.Context, file string, gender model.Gender) (int64, bool, error) {
	return m.CreateIfNotExistsFunc(ctx, file, gender)
}

type mockUserRepo struct {
	repository.UserRepository

	GetPreferenceFunc       func(ctx context.Context, userID int64) (*model.Gender, error)
	FindDueFunc             func(ctx context.Context, now time.Time, cap int, cooldown time.Duration, limit int) ([]model.DueUser, error)
	TryMarkPushEnqueuedFunc func(ctx context.Context, userID int64, now time.Time, cap int, cooldown time.Duration) (bool, error)
	ResetDailyCountersFunc  func(ctx context.Context) (int64, error)
}

func (m *mockUserRepo) GetPreference(ctx context.Context, userID int64) (*model.Gender, error) {
	return m.GetPreferenceFunc(ctx, userID)
}

func (m *mockUserRepo) FindDue(ctx context.Context, now time.Time, cap int, cooldown time.Duration, limit int) ([]model.DueUser, error) {
	return m.FindDueFunc(ctx, now, cap, cooldown, limit)
}

func (m *mockUserRepo) TryMarkPushEnqueued(ctx context.Context, userID int64, now time.Time, cap int, cooldown time.Duration) (bool, error) {
	return m.TryMarkPushEnqueuedFunc(ctx, userID, now, cap, cooldown)
}

func (m *mockUserRepo) ResetDailyCounters(ctx context.Context) (int64, error) {
	return m.ResetDailyCountersFunc(ctx)
}

type mockPublisher struct {
	pushes  []model.PushPayload
	prompts []model.PromptPayload
	err     error
}

func (m *mockPublisher) PublishPush(_ context.Context, p model.PushPayload) error {
	if m.err != nil {
		return m.err
	}
	m.pushes = append(m.pushes, p)
	return nil
}

func (m *mockPublisher) PublishPrompt(_ context.Context, p model.PromptPayload) error {
	m.prompts = append(m.prompts, p)
	return nil
}

func (m *mockPublisher) PublishPromptDelayed(_ context.Context, p model.PromptPayload, _ time.Duration) error {
	m.prompts = append(m.prompts, p)
	return nil
}

type mockComposer struct{}

func (mockComposer) PreferencePrompt(lang string, chatID int64) model.PushPayload {
	return model.PushPayload{
		Method: model.MethodSendMessage,
		Args:   model.PushArgs{ChatID: chatID, Text: "prompt:" + lang},
	}
}

func (mockComposer) ProfileCard(_ string, chatID int64, p model.Profile) model.PushPayload {
	return model.PushPayload{
		Method: model.MethodSendPhoto,
		Args:   model.PushArgs{ChatID: chatID, Photo: p.File},
	}
}

type mockLocker struct {
	tryLockErr error
	locked     []string
	unlocked   []string
}

func (m *mockLocker) TryLock(_ context.Context, key string, _ time.Duration) (string, error) {
	if m.tryLockErr != nil {
		return "", m.tryLockErr
	}
	m.locked = append(m.locked, key)
	return "token", nil
}

func (m *mockLocker) Unlock(_ context.Context, key, _ string) error {
	m.unlocked = append(m.unlocked, key)
	return nil
}

// mockBatchCache is a plain in-memory map, no TTL.
type mockBatchCache struct {
	batches map[string][]model.Profile
}

func newMockBatchCache() *mockBatchCache {
	return &mockBatchCache{batches: make(map[string][]model.Profile)}
}

func (m *mockBatchCache) key(userID int64, gender model.Gender) string {
	return fmt.Sprintf("%d/%s", userID, gender)
}

func (m *mockBatchCache) Pop(_ context.Context, userID int64, gender model.Gender) (*model.Profile, bool) {
	batch := m.batches[m.key(userID, gender)]
	if len(batch) == 0 {
		return nil, false
	}
	head := batch[0]
	m.batches[m.key(userID, gender)] = batch[1:]
	return &head, true
}

func (m *mockBatchCache) Put(_ context.Context, userID int64, gender model.Gender, batch []model.Profile) {
	m.batches[m.key(userID, gender)] = batch
}

// mockSelector stands in for the full profile use case in scheduler tests.
type mockSelector struct {
	ProfileUseCase

	UnseenBatchFunc func(ctx context.Context, userID int64, gender model.Gender, limit int) ([]model.Profile, error)
	ClearShownFunc  func(ctx context.Context, userID int64) error
	MarkShownFunc   func(ctx context.Context, userID, profileID int64) error
}

func (m *mockSelector) UnseenBatch(ctx context.Context, userID int64, gender model.Gender, limit int) ([]model.Profile, error) {
	return m.UnseenBatchFunc(ctx, userID, gender, limit)
}

func (m *mockSelector) ClearShown(ctx context.Context, userID int64) error {
	if m.ClearShownFunc == nil {
		return nil
	}
	return m.ClearShownFunc(ctx, userID)
}

func (m *mockSelector) MarkShown(ctx context.Context, userID, profileID int64) error {
	if m.MarkShownFunc == nil {
		return nil
	}
	return m.MarkShownFunc(ctx, userID, profileID)
}
