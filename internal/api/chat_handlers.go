package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Loquest/Mentl2/internal/auth"
	"github.com/Loquest/Mentl2/internal/service"
)

type historyQuery struct {
	Limit int `form:"limit"`
}

func PostChat(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)

		var req service.ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Invalid JSON")
			return
		}

		resp, err := app.Chat().Chat(c.Request.Context(), user, &req)
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to generate response")
			return
		}

		HandleSuccess(c, app.Logger(), resp, nil)
	}
}

func GetChatHistory(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)

		var q historyQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Invalid limit")
			return
		}

		msgs, err := app.Chat().History(c.Request.Context(), user.ID, q.Limit)
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to fetch chat history")
			return
		}

		HandleSuccess(c, app.Logger(), gin.H{"messages": msgs}, map[string]any{"count": len(msgs)})
	}
}

func DeleteChatHistory(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)

		if err := app.Chat().ClearHistory(c.Request.Context(), user.ID); err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to clear chat history")
			return
		}

		HandleSuccess(c, app.Logger(), gin.H{"cleared": true}, nil)
	}
}
