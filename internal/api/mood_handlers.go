package api

import (
	"github.com/gin-gonic/gin"
	"github.com/vipinnagar8700/meditationLife-sub000/internal"
	"github.com/vipinnagar8700/meditationLife-sub000/internal/response"
	"github.com/vipinnagar8700/meditationLife-sub000/internal/service"
)

func PostMood(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := principal(c)

		var req service.MoodLogRequest
		if !bindJSON(c, app.Logger(), &req) {
			return
		}

		entry, created, err := app.Tracker().LogMood(c.Request.Context(), user.ID, &req)
		if err != nil {
			HandleError(c, app.Logger(), err)
			return
		}

		msg := "Mood updated successfully"
		if created {
			msg = "Mood logged successfully"
		}
		HandleSuccess(c, app.Logger(), response.Success(entry, msg))
	}
}

func GetMoodHistory(app App) gin.HandlerFunc {
	return listHandler(app, internal.KindMood, service.DefaultHistoryLimit, false)
}

// GetMoodStats reports stats over the last ?days=N days. Missing or
// non-positive values use 30 days and anything above 365 is clamped to 365;
// the stats carry the window actually used as periodDays.
func GetMoodStats(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := principal(c)
		stats, err := app.Tracker().MoodStats(c.Request.Context(), user.ID, queryInt(c, "days"))
		if err != nil {
			HandleError(c, app.Logger(), err)
			return
		}
		HandleSuccess(c, app.Logger(), response.Stats(stats))
	}
}

// listHandler serves the paged listings. allUsers drops the owner scope and
// must only be mounted behind RequireAdmin.
func listHandler(app App, kind internal.Kind, defaultLimit int, allUsers bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		q, err := listQuery(c, kind)
		if err != nil {
			HandleError(c, app.Logger(), err)
			return
		}
		if !allUsers {
			q.UserID = principal(c).ID
		}

		res, err := app.Tracker().ListEntries(c.Request.Context(), q, defaultLimit)
		if err != nil {
			HandleError(c, app.Logger(), err)
			return
		}
		HandleSuccess(c, app.Logger(), response.Page(res.Items, res.Pagination))
	}
}
