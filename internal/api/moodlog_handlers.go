package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Loquest/Mentl2/internal/auth"
	"github.com/Loquest/Mentl2/internal/service"
)

type windowQuery struct {
	Days int `form:"days"`
}

func PostMoodLog(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)

		var req service.MoodLogRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Invalid JSON")
			return
		}

		log, err := service.CreateMoodLog(c.Request.Context(), app.MoodLogRepo(), user.ID, &req)
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to save mood log")
			return
		}

		HandleCreated(c, app.Logger(), log)
	}
}

func GetMoodLogs(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)

		var q service.MoodLogQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Invalid query")
			return
		}

		logs, err := service.ListMoodLogs(c.Request.Context(), app.MoodLogRepo(), user.ID, q)
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to fetch mood logs")
			return
		}

		HandleSuccess(c, app.Logger(), gin.H{"mood_logs": logs}, map[string]any{"count": len(logs)})
	}
}

func GetMoodLog(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)

		log, err := service.GetMoodLog(c.Request.Context(), app.MoodLogRepo(), user.ID, c.Param("id"))
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to fetch mood log")
			return
		}

		HandleSuccess(c, app.Logger(), log, nil)
	}
}

func PutMoodLog(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)

		var upd service.MoodLogUpdate
		if err := c.ShouldBindJSON(&upd); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Invalid JSON")
			return
		}

		log, err := service.UpdateMoodLog(c.Request.Context(), app.MoodLogRepo(), user.ID, c.Param("id"), &upd)
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to update mood log")
			return
		}

		HandleSuccess(c, app.Logger(), log, nil)
	}
}

func DeleteMoodLog(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)

		if err := service.DeleteMoodLog(c.Request.Context(), app.MoodLogRepo(), user.ID, c.Param("id")); err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to delete mood log")
			return
		}

		HandleSuccess(c, app.Logger(), gin.H{"deleted": true}, nil)
	}
}

func GetMoodSummary(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)

		var q windowQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Invalid days")
			return
		}

		summary, err := app.Analytics().TrendSummary(c.Request.Context(), user.ID, q.Days)
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to compute mood summary")
			return
		}

		HandleSuccess(c, app.Logger(), summary, nil)
	}
}

func GetMoodPatterns(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)

		var q windowQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Invalid days")
			return
		}

		report, err := app.Analytics().PatternReport(c.Request.Context(), user.ID, q.Days)
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to compute mood patterns")
			return
		}

		HandleSuccess(c, app.Logger(), report, nil)
	}
}
