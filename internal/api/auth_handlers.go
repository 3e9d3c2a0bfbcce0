package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Loquest/Mentl2/internal/auth"
	"github.com/Loquest/Mentl2/internal/service"
)

func PostRegister(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Invalid JSON")
			return
		}

		token, err := app.Auth().Register(c.Request.Context(), &req)
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Registration failed")
			return
		}

		HandleCreated(c, app.Logger(), token)
	}
}

func PostLogin(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Invalid JSON")
			return
		}

		token, err := app.Auth().Login(c.Request.Context(), &req)
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Login failed")
			return
		}

		HandleSuccess(c, app.Logger(), token, nil)
	}
}

func GetMe(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := app.Auth().Me(c.Request.Context(), auth.CurrentUser(c).ID)
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to fetch profile")
			return
		}

		HandleSuccess(c, app.Logger(), user, nil)
	}
}

func PutProfile(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)

		var upd service.ProfileUpdate
		if err := c.ShouldBindJSON(&upd); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Invalid JSON")
			return
		}

		updated, err := app.Auth().UpdateProfile(c.Request.Context(), user.ID, &upd)
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to update profile")
			return
		}

		HandleSuccess(c, app.Logger(), updated, nil)
	}
}
