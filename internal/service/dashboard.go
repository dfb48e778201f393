package service

import (
	"context"

	"github.com/vipinnagar8700/meditationLife-sub000/internal"
	"github.com/vipinnagar8700/meditationLife-sub000/internal/storage"
)

const trendDays = 7

type TodayStatus struct {
	HasMood  bool            `json:"hasMood"`
	HasSleep bool            `json:"hasSleep"`
	Mood     *internal.Entry `json:"mood"`
	Sleep    *internal.Entry `json:"sleep"`
}

type Trends struct {
	Mood  []internal.Entry `json:"mood"`
	Sleep []internal.Entry `json:"sleep"`
}

type Totals struct {
	Mood  int64 `json:"mood"`
	Sleep int64 `json:"sleep"`
}

type Dashboard struct {
	Today  TodayStatus `json:"today"`
	Trends Trends      `json:"trends"`
	Totals Totals      `json:"totals"`
}

func (t *Tracker) Dashboard(ctx context.Context, userID string) (*Dashboard, error) {
	now := t.now()
	dayStart := internal.StartOfDay(now, t.loc)
	dayEnd := dayStart.AddDate(0, 0, 1)
	trendStart := WindowStart(now, trendDays)

	d := &Dashboard{}
	for _, kind := range []internal.Kind{internal.KindMood, internal.KindSleep} {
		today, err := t.first(ctx, storage.EntryFilter{UserID: userID, Kind: kind, Since: dayStart, Until: dayEnd})
		if err != nil {
			return nil, err
		}
		trend, err := t.list(ctx, storage.EntryFilter{UserID: userID, Kind: kind, Since: trendStart, Ascending: true})
		if err != nil {
			return nil, err
		}
		total, err := t.count(ctx, storage.EntryFilter{UserID: userID, Kind: kind})
		if err != nil {
			return nil, err
		}

		switch kind {
		case internal.KindMood:
			d.Today.Mood, d.Today.HasMood = today, today != nil
			d.Trends.Mood = trend
			d.Totals.Mood = total
		case internal.KindSleep:
			d.Today.Sleep, d.Today.HasSleep = today, today != nil
			d.Trends.Sleep = trend
			d.Totals.Sleep = total
		}
	}
	return d, nil
}

func (t *Tracker) first(ctx context.Context, f storage.EntryFilter) (*internal.Entry, error) {
	sctx, cancel := t.storeCtx(ctx)
	defer cancel()
	items, _, err := t.entries.ListEntries(sctx, f, storage.Page{Limit: 1})
	if err != nil {
		return nil, internal.AsAppError(err)
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

func (t *Tracker) list(ctx context.Context, f storage.EntryFilter) ([]internal.Entry, error) {
	sctx, cancel := t.storeCtx(ctx)
	defer cancel()
	items, _, err := t.entries.ListEntries(sctx, f, storage.Page{})
	if err != nil {
		return nil, internal.AsAppError(err)
	}
	if items == nil {
		items = []internal.Entry{}
	}
	return items, nil
}

func (t *Tracker) count(ctx context.Context, f storage.EntryFilter) (int64, error) {
	sctx, cancel := t.storeCtx(ctx)
	defer cancel()
	n, err := t.entries.CountEntries(sctx, f)
	if err != nil {
		return 0, internal.AsAppError(err)
	}
	return n, nil
}
