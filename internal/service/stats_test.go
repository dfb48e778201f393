package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vipinnagar8700/meditationLife-sub000/internal"
)

func mood(level internal.MoodLevel) internal.Entry {
	return internal.Entry{Kind: internal.KindMood, MoodDetails: &internal.MoodDetails{MoodLevel: level}}
}

func sleep(intensity int, desc internal.SleepDescription) internal.Entry {
	return internal.Entry{Kind: internal.KindSleep, SleepDetails: &internal.SleepDetails{SleepIntensity: intensity, SleepDescription: desc}}
}

func TestCalculateMoodStats(t *testing.T) {
	stats := CalculateMoodStats([]internal.Entry{mood(internal.MoodHappy), mood(internal.MoodSad), mood(internal.MoodHappy)}, 10, 30)
	assert.Equal(t, []MoodCount{{internal.MoodHappy, 2}, {internal.MoodSad, 1}}, stats.Distribution)
	require.NotNil(t, stats.MostCommonMood)
	assert.Equal(t, internal.MoodHappy, *stats.MostCommonMood)
	assert.Equal(t, 3, stats.WindowEntries)
	assert.Equal(t, int64(10), stats.TotalEntries)
}

func TestCalculateMoodStatsTiesFollowLevelOrder(t *testing.T) {
	stats := CalculateMoodStats([]internal.Entry{mood(internal.MoodSad), mood(internal.MoodCalm)}, 2, 30)
	require.NotNil(t, stats.MostCommonMood)
	assert.Equal(t, internal.MoodCalm, *stats.MostCommonMood)
}

func TestCalculateMoodStatsEmpty(t *testing.T) {
	stats := CalculateMoodStats(nil, 0, 30)
	assert.Nil(t, stats.MostCommonMood)
	assert.NotNil(t, stats.Distribution)
	assert.Empty(t, stats.Distribution)
}

func TestCalculateSleepStats(t *testing.T) {
	stats := CalculateSleepStats([]internal.Entry{
		sleep(7, internal.SleepGood),
		sleep(4, internal.SleepPoor),
		sleep(8, internal.SleepGood),
	}, 5, 14)
	assert.Equal(t, 3, stats.WindowEntries)
	assert.Equal(t, 6.3, stats.AverageIntensity)
	assert.Equal(t, 4, stats.MinIntensity)
	assert.Equal(t, 8, stats.MaxIntensity)
	assert.Equal(t, []SleepCount{{internal.SleepGood, 2}, {internal.SleepPoor, 1}}, stats.Distribution)
	assert.Equal(t, 14, stats.PeriodDays)
}

func TestNormalizeWindow(t *testing.T) {
	assert.Equal(t, DefaultWindowDays, NormalizeWindow(0))
	assert.Equal(t, DefaultWindowDays, NormalizeWindow(-5))
	assert.Equal(t, 7, NormalizeWindow(7))
	assert.Equal(t, MaxWindowDays, NormalizeWindow(100000))
}

func TestMoodStatsWindowBoundary(t *testing.T) {
	f := setupTracker(t)
	ctx := context.Background()
	end := f.now

	// 31 days back: outside a 30-day window.
	f.now = end.AddDate(0, 0, -31)
	_, _, err := f.tracker.LogMood(ctx, "alice", &MoodLogRequest{MoodLevel: internal.MoodAngry})
	require.NoError(t, err)
	// Exactly 30 days back: inside (inclusive).
	f.now = end.AddDate(0, 0, -30)
	_, _, err = f.tracker.LogMood(ctx, "alice", &MoodLogRequest{MoodLevel: internal.MoodCalm})
	require.NoError(t, err)

	f.now = end
	stats, err := f.tracker.MoodStats(ctx, "alice", 30)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalEntries)
	assert.Equal(t, 1, stats.WindowEntries)
	assert.Equal(t, []MoodCount{{internal.MoodCalm, 1}}, stats.Distribution)
}

func TestSleepStatsDefaultWindowAndScope(t *testing.T) {
	f := setupTracker(t)
	ctx := context.Background()
	for _, v := range []int{5, 9} {
		_, _, err := f.tracker.LogSleep(ctx, "alice", &SleepLogRequest{SleepIntensity: v, SleepDescription: internal.SleepFair})
		require.NoError(t, err)
		f.advance(24 * time.Hour)
	}
	_, _, err := f.tracker.LogSleep(ctx, "bob", &SleepLogRequest{SleepIntensity: 12, SleepDescription: internal.SleepExcellent})
	require.NoError(t, err)

	stats, err := f.tracker.SleepStats(ctx, "alice", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultWindowDays, stats.PeriodDays)
	assert.Equal(t, 2, stats.WindowEntries)
	assert.Equal(t, 7.0, stats.AverageIntensity)
	assert.Equal(t, 9, stats.MaxIntensity)
}

type mapCache struct {
	data map[string][]byte
	sets int
}

func (c *mapCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.data[key] = value
	c.sets++
	return nil
}

func (c *mapCache) Close() error { return nil }

func TestAdminOverview(t *testing.T) {
	c := &mapCache{data: map[string][]byte{}}
	f := setupTracker(t, WithCache(c, time.Minute))
	ctx := context.Background()
	end := f.now

	f.now = end.AddDate(0, 0, -40)
	_, _, err := f.tracker.LogMood(ctx, "root", &MoodLogRequest{MoodLevel: internal.MoodSad})
	require.NoError(t, err)
	f.now = end
	_, _, err = f.tracker.LogMood(ctx, "alice", &MoodLogRequest{MoodLevel: internal.MoodHappy})
	require.NoError(t, err)
	_, _, err = f.tracker.LogMood(ctx, "bob", &MoodLogRequest{MoodLevel: internal.MoodHappy})
	require.NoError(t, err)
	_, _, err = f.tracker.LogSleep(ctx, "bob", &SleepLogRequest{SleepIntensity: 8, SleepDescription: internal.SleepGood})
	require.NoError(t, err)

	ov, err := f.tracker.AdminOverview(ctx)
	require.NoError(t, err)
	assert.Equal(t, AdminWindowDays, ov.PeriodDays)
	assert.Equal(t, int64(4), ov.TotalEntries)
	assert.Equal(t, int64(2), ov.ActiveUsers)
	assert.Equal(t, 2, ov.Mood.WindowEntries)
	assert.Equal(t, int64(3), ov.Mood.TotalEntries)
	assert.Equal(t, 8.0, ov.Sleep.AverageIntensity)
	assert.Equal(t, 1, c.sets)

	// Served from cache: a new entry is not visible until the TTL expires.
	_, _, err = f.tracker.LogSleep(ctx, "alice", &SleepLogRequest{SleepIntensity: 3, SleepDescription: internal.SleepPoor})
	require.NoError(t, err)
	cached, err := f.tracker.AdminOverview(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), cached.TotalEntries)
	assert.Equal(t, 1, c.sets)

	fresh, err := f.tracker.ComputeOverview(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), fresh.TotalEntries)
}

func TestDashboard(t *testing.T) {
	f := setupTracker(t)
	ctx := context.Background()
	end := f.now

	f.now = end.AddDate(0, 0, -10)
	_, _, err := f.tracker.LogMood(ctx, "alice", &MoodLogRequest{MoodLevel: internal.MoodSad})
	require.NoError(t, err)
	f.now = end.AddDate(0, 0, -2)
	_, _, err = f.tracker.LogMood(ctx, "alice", &MoodLogRequest{MoodLevel: internal.MoodCalm})
	require.NoError(t, err)
	_, _, err = f.tracker.LogSleep(ctx, "alice", &SleepLogRequest{SleepIntensity: 6, SleepDescription: internal.SleepFair})
	require.NoError(t, err)
	f.now = end
	_, _, err = f.tracker.LogMood(ctx, "alice", &MoodLogRequest{MoodLevel: internal.MoodHappy})
	require.NoError(t, err)

	d, err := f.tracker.Dashboard(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, d.Today.HasMood)
	assert.False(t, d.Today.HasSleep)
	assert.Nil(t, d.Today.Sleep)
	assert.Equal(t, internal.MoodHappy, d.Today.Mood.MoodLevel)

	require.Len(t, d.Trends.Mood, 2)
	assert.Equal(t, internal.MoodCalm, d.Trends.Mood[0].MoodLevel)
	assert.Equal(t, internal.MoodHappy, d.Trends.Mood[1].MoodLevel)
	assert.Len(t, d.Trends.Sleep, 1)

	assert.Equal(t, int64(3), d.Totals.Mood)
	assert.Equal(t, int64(1), d.Totals.Sleep)
}
