package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Loquest/Mentl2/internal/auth"
)

const serviceName = "mentl2"

// NewRouter builds the engine with every route under /api.
func NewRouter(app App) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(RequestLogger(app.Logger()))
	r.Use(CORS(app.Config().AllowedOrigins()))

	api := r.Group("/api")
	api.GET("/health", GetHealth(app))
	api.POST("/auth/register", PostRegister(app))
	api.POST("/auth/login", PostLogin(app))
	api.GET("/push/vapid-public-key", GetVAPIDPublicKey(app))
	api.GET("/content", GetContentList(app))
	api.GET("/content/:id", GetContentItem(app))

	protected := api.Group("")
	protected.Use(auth.AuthMiddleware(app.AuthProvider(), app.Logger()))

	protected.GET("/auth/me", GetMe(app))
	protected.PUT("/auth/profile", PutProfile(app))

	protected.POST("/mood-logs", PostMoodLog(app))
	protected.GET("/mood-logs", GetMoodLogs(app))
	protected.GET("/mood-logs/analytics/summary", GetMoodSummary(app))
	protected.GET("/mood-logs/analytics/advanced", GetMoodPatterns(app))
	protected.GET("/mood-logs/:id", GetMoodLog(app))
	protected.PUT("/mood-logs/:id", PutMoodLog(app))
	protected.DELETE("/mood-logs/:id", DeleteMoodLog(app))

	protected.POST("/chat", PostChat(app))
	protected.GET("/chat/history", GetChatHistory(app))
	protected.DELETE("/chat/history", DeleteChatHistory(app))

	protected.POST("/caregivers/invite", PostInvite(app))
	protected.GET("/caregivers/invitations/sent", GetSentInvitations(app))
	protected.GET("/caregivers/invitations/received", GetReceivedInvitations(app))
	protected.POST("/caregivers/invitations/:id/accept", PostAcceptInvitation(app))
	protected.POST("/caregivers/invitations/:id/reject", PostRejectInvitation(app))
	protected.DELETE("/caregivers/invitations/:id", DeleteInvitation(app))
	protected.GET("/caregivers", GetCaregivers(app))
	protected.GET("/caregivers/patients", GetPatients(app))
	protected.GET("/caregivers/patients/:id/mood-logs", GetPatientMoodLogs(app))
	protected.GET("/caregivers/patients/:id/analytics", GetPatientAnalytics(app))
	protected.DELETE("/caregivers/:id", DeleteRelationship(app))
	protected.PUT("/caregivers/:id/permissions", PutPermissions(app))

	protected.GET("/notifications", GetNotifications(app))
	protected.PUT("/notifications/read-all", PutAllNotificationsRead(app))
	protected.PUT("/notifications/:id/read", PutNotificationRead(app))
	protected.GET("/notifications/preferences", GetNotificationPreferences(app))
	protected.PUT("/notifications/preferences", PutNotificationPreferences(app))

	protected.POST("/push/subscribe", PostPushSubscribe(app))
	protected.POST("/push/unsubscribe", PostPushUnsubscribe(app))
	protected.DELETE("/push/unsubscribe", PostPushUnsubscribe(app))

	protected.GET("/users/me/dietary-preferences", GetDietaryPreferences(app))
	protected.PUT("/users/me/dietary-preferences", PutDietaryPreferences(app))
	protected.POST("/dietary/suggestions", PostDietarySuggestion(app))

	return r
}

func GetHealth(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"service":   serviceName,
			"env":       app.Config().Env,
			"timestamp": time.Now().UTC(),
		})
	}
}
