package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Loquest/Mentl2/internal/service"
)

func GetContentList(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q service.ContentQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Invalid query")
			return
		}

		items, err := app.Content().List(c.Request.Context(), q)
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to fetch content")
			return
		}

		HandleSuccess(c, app.Logger(), gin.H{"content": items}, map[string]any{"count": len(items)})
	}
}

func GetContentItem(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		item, err := app.Content().Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to fetch content item")
			return
		}

		HandleSuccess(c, app.Logger(), item, nil)
	}
}
