package api

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/vipinnagar8700/meditationLife-sub000/internal"
	"github.com/vipinnagar8700/meditationLife-sub000/internal/service"
)

// listQuery reads paging and filter parameters. kind fixes the entry kind;
// when empty the trackType parameter selects it.
func listQuery(c *gin.Context, kind internal.Kind) (service.ListQuery, error) {
	q := service.ListQuery{
		Kind:  kind,
		Page:  queryInt(c, "page"),
		Limit: queryInt(c, "limit"),
	}

	if q.Kind == "" {
		if v := c.Query("trackType"); v != "" {
			q.Kind = internal.Kind(v)
			if !q.Kind.Valid() {
				return q, internal.ValidationError("trackType must be one of: mood, sleep")
			}
		}
	}

	if v := c.Query("moodLevel"); v != "" && q.Kind != internal.KindSleep {
		q.MoodLevel = internal.MoodLevel(v)
		if !q.MoodLevel.Valid() {
			return q, internal.ValidationError("moodLevel must be one of: " + joinLevels())
		}
	}
	if v := c.Query("sleepDescription"); v != "" && q.Kind != internal.KindMood {
		q.SleepDescription = internal.SleepDescription(v)
		if !q.SleepDescription.Valid() {
			return q, internal.ValidationError("sleepDescription must be one of: " + joinDescriptions())
		}
	}
	return q, nil
}

func joinLevels() string {
	s := make([]string, len(internal.MoodLevels))
	for i, l := range internal.MoodLevels {
		s[i] = string(l)
	}
	return strings.Join(s, ", ")
}

func joinDescriptions() string {
	s := make([]string, len(internal.SleepDescriptions))
	for i, d := range internal.SleepDescriptions {
		s[i] = string(d)
	}
	return strings.Join(s, ", ")
}
