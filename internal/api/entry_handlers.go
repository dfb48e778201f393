package api

import (
	"github.com/gin-gonic/gin"
	"github.com/vipinnagar8700/meditationLife-sub000/internal/response"
	"github.com/vipinnagar8700/meditationLife-sub000/internal/service"
)

func GetAll(app App) gin.HandlerFunc {
	return listHandler(app, "", service.DefaultAllLimit, false)
}

func GetDashboard(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		d, err := app.Tracker().Dashboard(c.Request.Context(), principal(c).ID)
		if err != nil {
			HandleError(c, app.Logger(), err)
			return
		}
		HandleSuccess(c, app.Logger(), response.Success(d, ""))
	}
}

func GetEntry(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		entry, err := app.Tracker().GetEntry(c.Request.Context(), principal(c), c.Param("id"))
		if err != nil {
			HandleError(c, app.Logger(), err)
			return
		}
		HandleSuccess(c, app.Logger(), response.Success(entry, ""))
	}
}

func PutEntry(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.UpdateEntryRequest
		if !bindJSON(c, app.Logger(), &req) {
			return
		}
		entry, err := app.Tracker().UpdateEntry(c.Request.Context(), principal(c), c.Param("id"), &req)
		if err != nil {
			HandleError(c, app.Logger(), err)
			return
		}
		HandleSuccess(c, app.Logger(), response.Success(entry, "Entry updated successfully"))
	}
}

func DeleteEntry(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := app.Tracker().DeleteEntry(c.Request.Context(), principal(c), c.Param("id")); err != nil {
			HandleError(c, app.Logger(), err)
			return
		}
		HandleSuccess(c, app.Logger(), response.Message("Entry deleted successfully"))
	}
}

func GetAdminAll(app App) gin.HandlerFunc {
	return listHandler(app, "", service.DefaultAdminLimit, true)
}

func GetAdminStats(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		ov, err := app.Tracker().AdminOverview(c.Request.Context())
		if err != nil {
			HandleError(c, app.Logger(), err)
			return
		}
		HandleSuccess(c, app.Logger(), response.Stats(ov))
	}
}
