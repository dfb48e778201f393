package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vipinnagar8700/meditationLife-sub000/internal/auth"
	"github.com/vipinnagar8700/meditationLife-sub000/internal/metrics"
	"github.com/vipinnagar8700/meditationLife-sub000/internal/response"
)

func NewRouter(app App) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestIDMiddleware(), AccessLogMiddleware(app.Logger()), metrics.Middleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, response.Message("ok"))
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	tracking := r.Group("/api/tracking", auth.Middleware(app.Auth(), app.Logger()))
	if l := app.Limiter(); l != nil {
		tracking.Use(l.Middleware())
	}

	tracking.POST("/mood/log", PostMood(app))
	tracking.GET("/mood/history", GetMoodHistory(app))
	tracking.GET("/mood/stats", GetMoodStats(app))
	tracking.POST("/sleep/log", PostSleep(app))
	tracking.GET("/sleep/history", GetSleepHistory(app))
	tracking.GET("/sleep/stats", GetSleepStats(app))
	tracking.GET("/all", GetAll(app))
	tracking.GET("/dashboard", GetDashboard(app))

	admin := tracking.Group("/admin", auth.RequireAdmin())
	admin.GET("/all", GetAdminAll(app))
	admin.GET("/stats", GetAdminStats(app))

	tracking.GET("/:id", GetEntry(app))
	tracking.PUT("/:id", PutEntry(app))
	tracking.DELETE("/:id", DeleteEntry(app))

	return r
}
