package service

import (
	"context"
	"errors"
	"time"

	"github.com/vipinnagar8700/meditationLife-sub000/internal"
	"github.com/vipinnagar8700/meditationLife-sub000/internal/cache"
	"github.com/vipinnagar8700/meditationLife-sub000/internal/events"
	"github.com/vipinnagar8700/meditationLife-sub000/internal/metrics"
	"github.com/vipinnagar8700/meditationLife-sub000/internal/storage"
)

// Tracker records, lists and summarises mood and sleep entries.
type Tracker struct {
	entries  storage.EntryRepository
	users    storage.UserRepository
	events   events.Publisher
	cache    cache.Cache
	cacheTTL time.Duration
	logger   internal.Logger
	loc      *time.Location
	now      internal.Clock
	timeout  time.Duration
}

type Option func(*Tracker)

func WithClock(c internal.Clock) Option { return func(t *Tracker) { t.now = c } }
func WithLocation(loc *time.Location) Option { return func(t *Tracker) { t.loc = loc } }
func WithStoreTimeout(d time.Duration) Option { return func(t *Tracker) { t.timeout = d } }
func WithPublisher(p events.Publisher) Option { return func(t *Tracker) { t.events = p } }
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(t *Tracker) { t.cache, t.cacheTTL = c, ttl }
}

func NewTracker(entries storage.EntryRepository, users storage.UserRepository, logger internal.Logger, opts ...Option) *Tracker {
	t := &Tracker{
		entries: entries,
		users:   users,
		events:  events.Nop{},
		cache:   cache.Nop{},
		logger:  logger,
		loc:     time.Local,
		now:     time.Now,
		timeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// storeCtx bounds a single repository call.
func (t *Tracker) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, t.timeout)
}

func (t *Tracker) publish(ctx context.Context, typ events.Type, e *internal.Entry, created bool) {
	ev := events.NewEntryEvent(typ, e, t.now())
	ev.Created = created
	if err := t.events.Publish(ctx, ev); err != nil {
		t.logger.Errorf("failed to publish %s for entry %s: %v", typ, e.ID, err)
	}
}

// LogMood creates or updates the caller's mood entry for today.
func (t *Tracker) LogMood(ctx context.Context, userID string, req *MoodLogRequest) (*internal.Entry, bool, error) {
	if err := ValidateMoodLogRequest(req); err != nil {
		return nil, false, err
	}
	e := &internal.Entry{Kind: internal.KindMood, MoodDetails: &internal.MoodDetails{MoodLevel: req.MoodLevel}}
	if req.MoodNote != nil {
		e.MoodNote = *req.MoodNote
	}
	return t.logEntry(ctx, userID, e, req.MoodNote == nil)
}

// LogSleep creates or updates the caller's sleep entry for today.
func (t *Tracker) LogSleep(ctx context.Context, userID string, req *SleepLogRequest) (*internal.Entry, bool, error) {
	if err := ValidateSleepLogRequest(req); err != nil {
		return nil, false, err
	}
	e := &internal.Entry{Kind: internal.KindSleep, SleepDetails: &internal.SleepDetails{
		SleepIntensity:   req.SleepIntensity,
		SleepDescription: req.SleepDescription,
	}}
	if req.SleepNote != nil {
		e.SleepNote = *req.SleepNote
	}
	return t.logEntry(ctx, userID, e, req.SleepNote == nil)
}

func (t *Tracker) logEntry(ctx context.Context, userID string, e *internal.Entry, keepNote bool) (*internal.Entry, bool, error) {
	now := t.now()
	e.UserID = userID
	e.OccurredAt = now
	e.Day = internal.DayKey(now, t.loc)

	sctx, cancel := t.storeCtx(ctx)
	defer cancel()
	created, err := t.entries.UpsertDaily(sctx, e, keepNote)
	if err != nil {
		return nil, false, internal.AsAppError(err)
	}

	op := "update"
	if created {
		op = "create"
	}
	metrics.EntryWritten(string(e.Kind), op)
	t.publish(ctx, events.EntryLogged, e, created)
	return e, created, nil
}

// GetEntry returns an entry joined with its owner. Only the owner or an
// admin may read it.
func (t *Tracker) GetEntry(ctx context.Context, p *internal.Principal, id string) (*internal.EntryWithUser, error) {
	e, err := t.loadEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.UserID != p.ID && !p.IsAdmin() {
		return nil, internal.ForbiddenError("You are not allowed to view this entry")
	}

	out := &internal.EntryWithUser{Entry: *e}
	sctx, cancel := t.storeCtx(ctx)
	defer cancel()
	u, err := t.users.GetUser(sctx, e.UserID)
	switch {
	case err == nil:
		out.User = &internal.UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
	case errors.Is(err, internal.ErrNotFound):
		t.logger.Warnf("owner %s of entry %s not found", e.UserID, e.ID)
	default:
		return nil, internal.AsAppError(err)
	}
	return out, nil
}

// UpdateEntry applies a partial update. Only the owner may update, admins
// included. Every present field is validated before any is applied.
func (t *Tracker) UpdateEntry(ctx context.Context, p *internal.Principal, id string, req *UpdateEntryRequest) (*internal.Entry, error) {
	e, err := t.loadEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.UserID != p.ID {
		return nil, internal.ForbiddenError("You can only update your own entries")
	}
	if err := ValidateUpdateRequest(e.Kind, req); err != nil {
		return nil, err
	}

	switch e.Kind {
	case internal.KindMood:
		if req.MoodLevel != nil {
			e.MoodLevel = *req.MoodLevel
		}
		if req.MoodNote != nil {
			e.MoodNote = *req.MoodNote
		}
	case internal.KindSleep:
		if req.SleepIntensity != nil {
			e.SleepIntensity = *req.SleepIntensity
		}
		if req.SleepDescription != nil {
			e.SleepDescription = *req.SleepDescription
		}
		if req.SleepNote != nil {
			e.SleepNote = *req.SleepNote
		}
	}

	sctx, cancel := t.storeCtx(ctx)
	defer cancel()
	if err := t.entries.UpdateEntry(sctx, e); err != nil {
		if errors.Is(err, internal.ErrNotFound) {
			return nil, internal.NotFoundError("Entry not found")
		}
		return nil, internal.AsAppError(err)
	}
	metrics.EntryWritten(string(e.Kind), "update")
	t.publish(ctx, events.EntryUpdated, e, false)
	return e, nil
}

// DeleteEntry removes an entry permanently. The owner or an admin may delete.
func (t *Tracker) DeleteEntry(ctx context.Context, p *internal.Principal, id string) error {
	e, err := t.loadEntry(ctx, id)
	if err != nil {
		return err
	}
	if e.UserID != p.ID && !p.IsAdmin() {
		return internal.ForbiddenError("You are not allowed to delete this entry")
	}

	sctx, cancel := t.storeCtx(ctx)
	defer cancel()
	if err := t.entries.DeleteEntry(sctx, id); err != nil {
		if errors.Is(err, internal.ErrNotFound) {
			return internal.NotFoundError("Entry not found")
		}
		return internal.AsAppError(err)
	}
	metrics.EntryWritten(string(e.Kind), "delete")
	t.publish(ctx, events.EntryDeleted, e, false)
	return nil
}

func (t *Tracker) loadEntry(ctx context.Context, id string) (*internal.Entry, error) {
	sctx, cancel := t.storeCtx(ctx)
	defer cancel()
	e, err := t.entries.GetEntry(sctx, id)
	if err != nil {
		if errors.Is(err, internal.ErrNotFound) {
			return nil, internal.NotFoundError("Entry not found")
		}
		return nil, internal.AsAppError(err)
	}
	return e, nil
}
