package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Loquest/Mentl2/internal"
	"github.com/Loquest/Mentl2/internal/auth"
	"github.com/Loquest/Mentl2/internal/service"
)

var errPushDisabled = errors.New("push notifications are not configured")

type notificationQuery struct {
	UnreadOnly bool `form:"unread_only"`
	Limit      int  `form:"limit"`
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

func GetNotifications(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)

		var q notificationQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Invalid query")
			return
		}

		list, err := app.Notifications().List(c.Request.Context(), user.ID, q.UnreadOnly, q.Limit)
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to fetch notifications")
			return
		}

		HandleSuccess(c, app.Logger(), list, nil)
	}
}

func PutNotificationRead(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)

		if err := app.Notifications().MarkRead(c.Request.Context(), user.ID, c.Param("id")); err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to mark notification read")
			return
		}

		HandleSuccess(c, app.Logger(), gin.H{"read": true}, nil)
	}
}

func PutAllNotificationsRead(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)

		n, err := app.Notifications().MarkAllRead(c.Request.Context(), user.ID)
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to mark notifications read")
			return
		}

		HandleSuccess(c, app.Logger(), gin.H{"updated": n}, nil)
	}
}

func GetNotificationPreferences(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)

		prefs, err := app.Notifications().NotificationPreferences(c.Request.Context(), user.ID)
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to fetch preferences")
			return
		}

		HandleSuccess(c, app.Logger(), prefs, nil)
	}
}

func PutNotificationPreferences(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)

		var upd internal.NotificationPreferences
		if err := c.ShouldBindJSON(&upd); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Invalid JSON")
			return
		}

		prefs, err := app.Notifications().UpdatePreferences(c.Request.Context(), user.ID, upd)
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to update preferences")
			return
		}

		HandleSuccess(c, app.Logger(), prefs, nil)
	}
}

func GetVAPIDPublicKey(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := app.Config().VAPIDPublicKey
		if key == "" {
			HandleError(c, app.Logger(), errPushDisabled, http.StatusServiceUnavailable, "Push notifications unavailable")
			return
		}

		HandleSuccess(c, app.Logger(), gin.H{"public_key": key}, nil)
	}
}

func PostPushSubscribe(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)

		var req service.PushSubscriptionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Invalid JSON")
			return
		}

		if err := app.Notifications().Subscribe(c.Request.Context(), user.ID, &req); err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to save subscription")
			return
		}

		HandleCreated(c, app.Logger(), gin.H{"subscribed": true})
	}
}

func PostPushUnsubscribe(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)

		var req unsubscribeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Invalid JSON")
			return
		}

		if err := app.Notifications().Unsubscribe(c.Request.Context(), user.ID, req.Endpoint); err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to remove subscription")
			return
		}

		HandleSuccess(c, app.Logger(), gin.H{"unsubscribed": true}, nil)
	}
}
