package api

import (
	"github.com/gin-gonic/gin"
	"github.com/vipinnagar8700/meditationLife-sub000/internal"
	"github.com/vipinnagar8700/meditationLife-sub000/internal/response"
	"github.com/vipinnagar8700/meditationLife-sub000/internal/service"
)

func PostSleep(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := principal(c)

		var body service.SleepLogRequest
		if !bindJSON(c, app.Logger(), &body) {
			return
		}

		entry, created, err := app.Tracker().LogSleep(c.Request.Context(), user.ID, &body)
		if err != nil {
			HandleError(c, app.Logger(), err)
			return
		}

		msg := "Sleep updated successfully"
		if created {
			msg = "Sleep logged successfully"
		}
		HandleSuccess(c, app.Logger(), response.Success(entry, msg))
	}
}

func GetSleepHistory(app App) gin.HandlerFunc {
	return listHandler(app, internal.KindSleep, service.DefaultHistoryLimit, false)
}

// GetSleepStats reports stats over the last ?days=N days. Missing or
// non-positive values use 30 days and anything above 365 is clamped to 365;
// the stats carry the window actually used as periodDays.
func GetSleepStats(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := principal(c)
		stats, err := app.Tracker().SleepStats(c.Request.Context(), user.ID, queryInt(c, "days"))
		if err != nil {
			HandleError(c, app.Logger(), err)
			return
		}
		HandleSuccess(c, app.Logger(), response.Stats(stats))
	}
}
