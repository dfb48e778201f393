package service

import (
	"context"
	"math"

	"github.com/vipinnagar8700/meditationLife-sub000/internal"
	"github.com/vipinnagar8700/meditationLife-sub000/internal/storage"
)

const (
	DefaultHistoryLimit = 30
	DefaultAllLimit     = 20
	DefaultAdminLimit   = 50
	MaxLimit            = 100
)

type ListQuery struct {
	// UserID restricts the listing to one owner; empty lists every user's entries.
	UserID           string
	Kind             internal.Kind
	MoodLevel        internal.MoodLevel
	SleepDescription internal.SleepDescription
	Page             int
	Limit            int
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalItems int64 `json:"totalItems"`
	TotalPages int   `json:"totalPages"`
}

type ListResult struct {
	Items      []internal.Entry
	Pagination Pagination
}

// NormalizePage falls back to page 1 and defaultLimit for non-positive
// values and clamps the limit to MaxLimit.
func NormalizePage(page, limit, defaultLimit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

func TotalPages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

// ListEntries returns one page of entries, newest first. Callers choose the
// scope: handlers for regular users always set UserID.
func (t *Tracker) ListEntries(ctx context.Context, q ListQuery, defaultLimit int) (*ListResult, error) {
	page, limit := NormalizePage(q.Page, q.Limit, defaultLimit)
	f := storage.EntryFilter{
		UserID:           q.UserID,
		Kind:             q.Kind,
		MoodLevel:        q.MoodLevel,
		SleepDescription: q.SleepDescription,
	}

	sctx, cancel := t.storeCtx(ctx)
	defer cancel()
	var (
		items []internal.Entry
		total int64
		err   error
	)
	if page > math.MaxInt/limit {
		// No offset this large can hold entries; only the count is needed.
		total, err = t.entries.CountEntries(sctx, f)
	} else {
		items, total, err = t.entries.ListEntries(sctx, f, storage.Page{Limit: limit, Offset: (page - 1) * limit})
	}
	if err != nil {
		return nil, internal.AsAppError(err)
	}
	if items == nil {
		items = []internal.Entry{}
	}
	return &ListResult{
		Items: items,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			TotalItems: total,
			TotalPages: TotalPages(total, limit),
		},
	}, nil
}
