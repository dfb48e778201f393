package service

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vipinnagar8700/meditationLife-sub000/internal"
	"github.com/vipinnagar8700/meditationLife-sub000/internal/events"
	"github.com/vipinnagar8700/meditationLife-sub000/internal/storage"
)

type fixture struct {
	tracker *Tracker
	store   *storage.FileStorage
	now     time.Time
	events  *recordingPublisher
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) recorded() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.events...)
}

func (p *recordingPublisher) Close() error { return nil }

func setupTracker(t *testing.T, opts ...Option) *fixture {
	dir := t.TempDir()
	usersFile := filepath.Join(dir, "users.json")
	require.NoError(t, os.WriteFile(usersFile, []byte(`[
		{"id":"alice","name":"Alice","email":"alice@example.com"},
		{"id":"bob","name":"Bob","email":"bob@example.com"},
		{"id":"root","name":"Root","email":"root@example.com","role":"admin"}
	]`), 0644))
	store, err := storage.NewFileStorage(filepath.Join(dir, "entries.json"), usersFile, internal.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	f := &fixture{
		store:  store,
		now:    time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC),
		events: &recordingPublisher{},
	}
	opts = append([]Option{
		WithClock(func() time.Time { return f.now }),
		WithLocation(time.UTC),
		WithPublisher(f.events),
	}, opts...)
	f.tracker = NewTracker(store, store, internal.NewNopLogger(), opts...)
	return f
}

func strPtr(s string) *string { return &s }

var (
	alice = &internal.Principal{ID: "alice", Role: internal.RoleUser}
	bob   = &internal.Principal{ID: "bob", Role: internal.RoleUser}
	root  = &internal.Principal{ID: "root", Role: internal.RoleAdmin}
)

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *internal.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T", err)
	assert.Equal(t, code, appErr.Code)
}

func TestLogMoodTwiceSameDayUpdatesOneEntry(t *testing.T) {
	f := setupTracker(t)
	ctx := context.Background()

	first, created, err := f.tracker.LogMood(ctx, "alice", &MoodLogRequest{MoodLevel: internal.MoodHappy, MoodNote: strPtr("sunny")})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "2026-10-15", first.Day)

	f.advance(5 * time.Hour)
	second, created, err := f.tracker.LogMood(ctx, "alice", &MoodLogRequest{MoodLevel: internal.MoodSad})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, internal.MoodSad, second.MoodLevel)
	assert.Equal(t, "sunny", second.MoodNote)

	res, err := f.tracker.ListEntries(ctx, ListQuery{UserID: "alice", Kind: internal.KindMood}, DefaultHistoryLimit)
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, internal.MoodSad, res.Items[0].MoodLevel)

	recorded := f.events.recorded()
	require.Len(t, recorded, 2)
	assert.True(t, recorded[0].Created)
	assert.False(t, recorded[1].Created)
}

func TestLogMoodExplicitEmptyNoteClears(t *testing.T) {
	f := setupTracker(t)
	ctx := context.Background()

	_, _, err := f.tracker.LogMood(ctx, "alice", &MoodLogRequest{MoodLevel: internal.MoodHappy, MoodNote: strPtr("sunny")})
	require.NoError(t, err)
	e, _, err := f.tracker.LogMood(ctx, "alice", &MoodLogRequest{MoodLevel: internal.MoodHappy, MoodNote: strPtr("")})
	require.NoError(t, err)
	assert.Empty(t, e.MoodNote)
}

func TestLogMoodNextDayCreatesNewEntry(t *testing.T) {
	f := setupTracker(t)
	ctx := context.Background()

	first, _, err := f.tracker.LogMood(ctx, "alice", &MoodLogRequest{MoodLevel: internal.MoodCalm})
	require.NoError(t, err)
	f.advance(24 * time.Hour)
	second, created, err := f.tracker.LogMood(ctx, "alice", &MoodLogRequest{MoodLevel: internal.MoodCalm})
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestLogSleepIntensityBounds(t *testing.T) {
	f := setupTracker(t)
	ctx := context.Background()

	for _, v := range []int{0, 13, -1} {
		_, _, err := f.tracker.LogSleep(ctx, "alice", &SleepLogRequest{SleepIntensity: v, SleepDescription: internal.SleepGood})
		requireCode(t, err, internal.CodeValidation)
	}
	for _, v := range []int{1, 12} {
		e, _, err := f.tracker.LogSleep(ctx, "alice", &SleepLogRequest{SleepIntensity: v, SleepDescription: internal.SleepGood})
		require.NoError(t, err)
		assert.Equal(t, v, e.SleepIntensity)
	}
}

func TestLogSleepRequiresDescription(t *testing.T) {
	f := setupTracker(t)
	_, _, err := f.tracker.LogSleep(context.Background(), "alice", &SleepLogRequest{SleepIntensity: 7})
	requireCode(t, err, internal.CodeValidation)
	assert.Contains(t, err.Error(), "sleepDescription")

	_, _, err = f.tracker.LogSleep(context.Background(), "alice", &SleepLogRequest{SleepIntensity: 7, SleepDescription: "meh"})
	requireCode(t, err, internal.CodeValidation)
}

func TestLogMoodLevelEnum(t *testing.T) {
	f := setupTracker(t)
	ctx := context.Background()

	_, _, err := f.tracker.LogMood(ctx, "alice", &MoodLogRequest{MoodLevel: "furious"})
	requireCode(t, err, internal.CodeValidation)
	assert.Contains(t, err.Error(), "moodLevel must be one of")

	for _, level := range internal.MoodLevels {
		e, _, err := f.tracker.LogMood(ctx, "alice", &MoodLogRequest{MoodLevel: level})
		require.NoError(t, err, level)
		assert.Equal(t, level, e.MoodLevel)
	}
}

func TestOwnershipAsymmetry(t *testing.T) {
	f := setupTracker(t)
	ctx := context.Background()
	entry, _, err := f.tracker.LogMood(ctx, "bob", &MoodLogRequest{MoodLevel: internal.MoodCalm})
	require.NoError(t, err)

	_, err = f.tracker.GetEntry(ctx, alice, entry.ID)
	requireCode(t, err, internal.CodeForbidden)
	_, err = f.tracker.UpdateEntry(ctx, alice, entry.ID, &UpdateEntryRequest{MoodNote: strPtr("x")})
	requireCode(t, err, internal.CodeForbidden)
	err = f.tracker.DeleteEntry(ctx, alice, entry.ID)
	requireCode(t, err, internal.CodeForbidden)

	got, err := f.tracker.GetEntry(ctx, root, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bob", got.User.Name)

	_, err = f.tracker.UpdateEntry(ctx, root, entry.ID, &UpdateEntryRequest{MoodNote: strPtr("x")})
	requireCode(t, err, internal.CodeForbidden)

	require.NoError(t, f.tracker.DeleteEntry(ctx, root, entry.ID))
	_, err = f.tracker.GetEntry(ctx, bob, entry.ID)
	requireCode(t, err, internal.CodeNotFound)
}

func TestGetEntryJoinsOwner(t *testing.T) {
	f := setupTracker(t)
	ctx := context.Background()
	entry, _, err := f.tracker.LogMood(ctx, "alice", &MoodLogRequest{MoodLevel: internal.MoodCalm})
	require.NoError(t, err)

	got, err := f.tracker.GetEntry(ctx, alice, entry.ID)
	require.NoError(t, err)
	require.NotNil(t, got.User)
	assert.Equal(t, "alice@example.com", got.User.Email)

	ghost, _, err := f.tracker.LogMood(ctx, "ghost", &MoodLogRequest{MoodLevel: internal.MoodCalm})
	require.NoError(t, err)
	got, err = f.tracker.GetEntry(ctx, root, ghost.ID)
	require.NoError(t, err)
	assert.Nil(t, got.User)
}

func TestMissingEntry(t *testing.T) {
	f := setupTracker(t)
	ctx := context.Background()
	_, err := f.tracker.GetEntry(ctx, alice, "missing")
	requireCode(t, err, internal.CodeNotFound)
	_, err = f.tracker.UpdateEntry(ctx, alice, "missing", &UpdateEntryRequest{})
	requireCode(t, err, internal.CodeNotFound)
	requireCode(t, f.tracker.DeleteEntry(ctx, root, "missing"), internal.CodeNotFound)
}

func TestUpdateEntryIsAllOrNothing(t *testing.T) {
	f := setupTracker(t)
	ctx := context.Background()
	entry, _, err := f.tracker.LogSleep(ctx, "alice", &SleepLogRequest{SleepIntensity: 6, SleepDescription: internal.SleepFair, SleepNote: strPtr("late")})
	require.NoError(t, err)

	bad := 13
	desc := internal.SleepExcellent
	_, err = f.tracker.UpdateEntry(ctx, alice, entry.ID, &UpdateEntryRequest{SleepDescription: &desc, SleepIntensity: &bad})
	requireCode(t, err, internal.CodeValidation)

	got, err := f.tracker.GetEntry(ctx, alice, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, internal.SleepFair, got.SleepDescription)
	assert.Equal(t, 6, got.SleepIntensity)

	good := 9
	updated, err := f.tracker.UpdateEntry(ctx, alice, entry.ID, &UpdateEntryRequest{SleepDescription: &desc, SleepIntensity: &good})
	require.NoError(t, err)
	assert.Equal(t, internal.SleepExcellent, updated.SleepDescription)
	assert.Equal(t, 9, updated.SleepIntensity)
	assert.Equal(t, "late", updated.SleepNote)
}

func TestUpdateEntryIgnoresOtherKindFields(t *testing.T) {
	f := setupTracker(t)
	ctx := context.Background()
	entry, _, err := f.tracker.LogMood(ctx, "alice", &MoodLogRequest{MoodLevel: internal.MoodCalm})
	require.NoError(t, err)

	bad := 99
	updated, err := f.tracker.UpdateEntry(ctx, alice, entry.ID, &UpdateEntryRequest{SleepIntensity: &bad, MoodNote: strPtr("ok")})
	require.NoError(t, err)
	assert.Nil(t, updated.SleepDetails)
	assert.Equal(t, "ok", updated.MoodNote)
}

func TestListPagination(t *testing.T) {
	f := setupTracker(t)
	ctx := context.Background()
	for i := 0; i < 35; i++ {
		_, _, err := f.tracker.LogMood(ctx, "alice", &MoodLogRequest{MoodLevel: internal.MoodHappy})
		require.NoError(t, err)
		f.advance(24 * time.Hour)
	}

	res, err := f.tracker.ListEntries(ctx, ListQuery{UserID: "alice", Page: 1, Limit: 30}, DefaultHistoryLimit)
	require.NoError(t, err)
	assert.Len(t, res.Items, 30)
	assert.Equal(t, 2, res.Pagination.TotalPages)
	assert.Equal(t, int64(35), res.Pagination.TotalItems)

	res, err = f.tracker.ListEntries(ctx, ListQuery{UserID: "alice", Page: 2, Limit: 30}, DefaultHistoryLimit)
	require.NoError(t, err)
	assert.Len(t, res.Items, 5)

	res, err = f.tracker.ListEntries(ctx, ListQuery{UserID: "alice", Page: -3, Limit: 0}, DefaultHistoryLimit)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Pagination.Page)
	assert.Equal(t, DefaultHistoryLimit, res.Pagination.Limit)

	res, err = f.tracker.ListEntries(ctx, ListQuery{UserID: "bob"}, DefaultHistoryLimit)
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.Equal(t, 0, res.Pagination.TotalPages)
}

func TestListPageBeyondAnyOffset(t *testing.T) {
	f := setupTracker(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, _, err := f.tracker.LogMood(ctx, "alice", &MoodLogRequest{MoodLevel: internal.MoodCalm})
		require.NoError(t, err)
		f.advance(24 * time.Hour)
	}

	res, err := f.tracker.ListEntries(ctx, ListQuery{UserID: "alice", Page: math.MaxInt, Limit: 30}, DefaultHistoryLimit)
	require.NoError(t, err)
	assert.NotNil(t, res.Items)
	assert.Empty(t, res.Items)
	assert.Equal(t, math.MaxInt, res.Pagination.Page)
	assert.Equal(t, int64(3), res.Pagination.TotalItems)
	assert.Equal(t, 1, res.Pagination.TotalPages)
}

func TestConcurrentLogMoodKeepsOneEntryPerDay(t *testing.T) {
	f := setupTracker(t)
	ctx := context.Background()

	const n = 50
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		ids     = make(map[string]struct{})
		errs    []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e, isNew, err := f.tracker.LogMood(ctx, "alice", &MoodLogRequest{MoodLevel: internal.MoodSad})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			ids[e.ID] = struct{}{}
			if isNew {
				created++
			}
		}()
	}
	wg.Wait()

	require.Empty(t, errs)
	assert.Equal(t, 1, created)
	assert.Len(t, ids, 1)

	res, err := f.tracker.ListEntries(ctx, ListQuery{UserID: "alice", Kind: internal.KindMood}, DefaultHistoryLimit)
	require.NoError(t, err)
	assert.Len(t, res.Items, 1)
	assert.Equal(t, int64(1), res.Pagination.TotalItems)
	assert.Len(t, f.events.recorded(), n)
}

func TestNormalizePage(t *testing.T) {
	page, limit := NormalizePage(0, 500, 20)
	assert.Equal(t, 1, page)
	assert.Equal(t, MaxLimit, limit)
	assert.Equal(t, 2, TotalPages(35, 30))
	assert.Equal(t, 1, TotalPages(30, 30))
	assert.Equal(t, 0, TotalPages(0, 30))
}

type blockingRepo struct {
	storage.EntryRepository
}

func (blockingRepo) GetEntry(ctx context.Context, _ string) (*internal.Entry, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestStoreTimeoutSurfacesAsTimeout(t *testing.T) {
	f := setupTracker(t)
	tr := NewTracker(blockingRepo{f.store}, f.store, internal.NewNopLogger(), WithStoreTimeout(10*time.Millisecond))
	_, err := tr.GetEntry(context.Background(), alice, "any")
	requireCode(t, err, internal.CodeTimeout)
}
