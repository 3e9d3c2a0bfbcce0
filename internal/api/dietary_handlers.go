package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Loquest/Mentl2/internal/auth"
	"github.com/Loquest/Mentl2/internal/service"
)

func GetDietaryPreferences(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)

		view, err := app.Dietary().Preferences(c.Request.Context(), user.ID)
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to fetch dietary preferences")
			return
		}

		HandleSuccess(c, app.Logger(), view, nil)
	}
}

func PutDietaryPreferences(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)

		var req service.DietaryPreferencesRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Invalid JSON")
			return
		}

		view, err := app.Dietary().UpdatePreferences(c.Request.Context(), user.ID, &req)
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to update dietary preferences")
			return
		}

		HandleSuccess(c, app.Logger(), view, nil)
	}
}

func PostDietarySuggestion(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)

		var req service.SuggestionRequest
		// an empty body asks for a default suggestion
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				HandleError(c, app.Logger(), err, http.StatusBadRequest, "Invalid JSON")
				return
			}
		}

		resp, err := app.Dietary().Suggest(c.Request.Context(), user, &req)
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to generate suggestion")
			return
		}

		HandleSuccess(c, app.Logger(), resp, nil)
	}
}
