package storage

import (
	"context"
	"time"

	"github.com/vipinnagar8700/meditationLife-sub000/internal"
)

// EntryFilter narrows a listing or count. Zero values mean "no restriction".
type EntryFilter struct {
	UserID           string
	Kind             internal.Kind
	MoodLevel        internal.MoodLevel
	SleepDescription internal.SleepDescription
	Since            time.Time // inclusive
	Until            time.Time // exclusive
	Ascending        bool
}

// Page selects a slice of an ordered listing. Limit 0 returns everything.
type Page struct {
	Limit  int
	Offset int
}

type EntryRepository interface {
	// UpsertDaily atomically inserts e or, if an entry already exists for
	// (UserID, Kind, Day), overwrites its variant fields. With keepNote the
	// stored note survives an update. e is filled with the stored state.
	UpsertDaily(ctx context.Context, e *internal.Entry, keepNote bool) (created bool, err error)
	GetEntry(ctx context.Context, id string) (*internal.Entry, error)
	UpdateEntry(ctx context.Context, e *internal.Entry) error
	DeleteEntry(ctx context.Context, id string) error
	ListEntries(ctx context.Context, f EntryFilter, p Page) ([]internal.Entry, int64, error)
	CountEntries(ctx context.Context, f EntryFilter) (int64, error)
	// CountActiveUsers counts distinct owners with an entry at or after since.
	CountActiveUsers(ctx context.Context, since time.Time) (int64, error)
}

type UserRepository interface {
	GetUser(ctx context.Context, id string) (*internal.User, error)
	GetUserByToken(ctx context.Context, token string) (*internal.User, error)
}

// Store bundles the repositories of one backend.
type Store interface {
	EntryRepository
	UserRepository
	Close() error
}
