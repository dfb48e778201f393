package service

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"time"

	"github.com/vipinnagar8700/meditationLife-sub000/internal"
	"github.com/vipinnagar8700/meditationLife-sub000/internal/storage"
)

const (
	DefaultWindowDays = 30
	MaxWindowDays     = 365
	AdminWindowDays   = 30

	overviewCacheKey = "stats:admin:overview"
)

type MoodCount struct {
	MoodLevel internal.MoodLevel `json:"moodLevel"`
	Count     int                `json:"count"`
}

type SleepCount struct {
	SleepDescription internal.SleepDescription `json:"sleepDescription"`
	Count            int                       `json:"count"`
}

type MoodStats struct {
	PeriodDays     int                 `json:"periodDays"`
	TotalEntries   int64               `json:"totalEntries"`
	WindowEntries  int                 `json:"windowEntries"`
	Distribution   []MoodCount         `json:"distribution"`
	MostCommonMood *internal.MoodLevel `json:"mostCommonMood"`
}

type SleepStats struct {
	PeriodDays       int          `json:"periodDays"`
	TotalEntries     int64        `json:"totalEntries"`
	WindowEntries    int          `json:"windowEntries"`
	AverageIntensity float64      `json:"averageIntensity"`
	MinIntensity     int          `json:"minIntensity"`
	MaxIntensity     int          `json:"maxIntensity"`
	Distribution     []SleepCount `json:"distribution"`
}

type Overview struct {
	PeriodDays   int        `json:"periodDays"`
	TotalEntries int64      `json:"totalEntries"`
	ActiveUsers  int64      `json:"activeUsers"`
	Mood         MoodStats  `json:"mood"`
	Sleep        SleepStats `json:"sleep"`
}

// NormalizeWindow falls back to the default for non-positive values and
// caps the window at MaxWindowDays.
func NormalizeWindow(days int) int {
	if days < 1 {
		return DefaultWindowDays
	}
	if days > MaxWindowDays {
		return MaxWindowDays
	}
	return days
}

// WindowStart is the inclusive lower bound of a window ending at now.
func WindowStart(now time.Time, days int) time.Time {
	return now.AddDate(0, 0, -days)
}

// CalculateMoodStats summarises the entries of one window. The distribution
// is sorted by count descending; ties keep the declaration order of levels.
func CalculateMoodStats(window []internal.Entry, total int64, days int) MoodStats {
	counts := make(map[internal.MoodLevel]int)
	n := 0
	for _, e := range window {
		if e.MoodDetails == nil {
			continue
		}
		counts[e.MoodLevel]++
		n++
	}

	dist := []MoodCount{}
	for _, level := range internal.MoodLevels {
		if c := counts[level]; c > 0 {
			dist = append(dist, MoodCount{MoodLevel: level, Count: c})
		}
	}
	sort.SliceStable(dist, func(i, j int) bool { return dist[i].Count > dist[j].Count })

	stats := MoodStats{PeriodDays: days, TotalEntries: total, WindowEntries: n, Distribution: dist}
	if len(dist) > 0 {
		top := dist[0].MoodLevel
		stats.MostCommonMood = &top
	}
	return stats
}

// CalculateSleepStats summarises the entries of one window. The average is
// rounded to one decimal place.
func CalculateSleepStats(window []internal.Entry, total int64, days int) SleepStats {
	counts := make(map[internal.SleepDescription]int)
	stats := SleepStats{PeriodDays: days, TotalEntries: total, Distribution: []SleepCount{}}
	sum := 0
	for _, e := range window {
		if e.SleepDetails == nil {
			continue
		}
		v := e.SleepIntensity
		if stats.WindowEntries == 0 || v < stats.MinIntensity {
			stats.MinIntensity = v
		}
		if stats.WindowEntries == 0 || v > stats.MaxIntensity {
			stats.MaxIntensity = v
		}
		sum += v
		stats.WindowEntries++
		counts[e.SleepDescription]++
	}
	if stats.WindowEntries > 0 {
		stats.AverageIntensity = math.Round(float64(sum)/float64(stats.WindowEntries)*10) / 10
	}

	for _, d := range internal.SleepDescriptions {
		if c := counts[d]; c > 0 {
			stats.Distribution = append(stats.Distribution, SleepCount{SleepDescription: d, Count: c})
		}
	}
	sort.SliceStable(stats.Distribution, func(i, j int) bool {
		return stats.Distribution[i].Count > stats.Distribution[j].Count
	})
	return stats
}

// windowEntries loads the lifetime count and the in-window entries of one
// kind. An empty userID covers every user.
func (t *Tracker) windowEntries(ctx context.Context, userID string, kind internal.Kind, since time.Time) ([]internal.Entry, int64, error) {
	sctx, cancel := t.storeCtx(ctx)
	defer cancel()
	total, err := t.entries.CountEntries(sctx, storage.EntryFilter{UserID: userID, Kind: kind})
	if err != nil {
		return nil, 0, internal.AsAppError(err)
	}

	wctx, wcancel := t.storeCtx(ctx)
	defer wcancel()
	window, _, err := t.entries.ListEntries(wctx, storage.EntryFilter{UserID: userID, Kind: kind, Since: since}, storage.Page{})
	if err != nil {
		return nil, 0, internal.AsAppError(err)
	}
	return window, total, nil
}

func (t *Tracker) MoodStats(ctx context.Context, userID string, days int) (*MoodStats, error) {
	days = NormalizeWindow(days)
	window, total, err := t.windowEntries(ctx, userID, internal.KindMood, WindowStart(t.now(), days))
	if err != nil {
		return nil, err
	}
	stats := CalculateMoodStats(window, total, days)
	return &stats, nil
}

func (t *Tracker) SleepStats(ctx context.Context, userID string, days int) (*SleepStats, error) {
	days = NormalizeWindow(days)
	window, total, err := t.windowEntries(ctx, userID, internal.KindSleep, WindowStart(t.now(), days))
	if err != nil {
		return nil, err
	}
	stats := CalculateSleepStats(window, total, days)
	return &stats, nil
}

// AdminOverview aggregates every user's entries over a fixed 30-day window.
// Results are served from the cache when one is configured.
func (t *Tracker) AdminOverview(ctx context.Context) (*Overview, error) {
	if data, ok, err := t.cache.Get(ctx, overviewCacheKey); err != nil {
		t.logger.Warnf("stats cache read failed: %v", err)
	} else if ok {
		var cached Overview
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	ov, err := t.ComputeOverview(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(ov); err == nil {
		if err := t.cache.Set(ctx, overviewCacheKey, data, t.cacheTTL); err != nil {
			t.logger.Warnf("stats cache write failed: %v", err)
		}
	}
	return ov, nil
}

// ComputeOverview always reads from the repository.
func (t *Tracker) ComputeOverview(ctx context.Context) (*Overview, error) {
	since := WindowStart(t.now(), AdminWindowDays)

	moodWindow, moodTotal, err := t.windowEntries(ctx, "", internal.KindMood, since)
	if err != nil {
		return nil, err
	}
	sleepWindow, sleepTotal, err := t.windowEntries(ctx, "", internal.KindSleep, since)
	if err != nil {
		return nil, err
	}

	sctx, cancel := t.storeCtx(ctx)
	defer cancel()
	active, err := t.entries.CountActiveUsers(sctx, since)
	if err != nil {
		return nil, internal.AsAppError(err)
	}

	return &Overview{
		PeriodDays:   AdminWindowDays,
		TotalEntries: moodTotal + sleepTotal,
		ActiveUsers:  active,
		Mood:         CalculateMoodStats(moodWindow, moodTotal, AdminWindowDays),
		Sleep:        CalculateSleepStats(sleepWindow, sleepTotal, AdminWindowDays),
	}, nil
}
