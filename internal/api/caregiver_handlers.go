package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Loquest/Mentl2/internal"
	"github.com/Loquest/Mentl2/internal/auth"
	"github.com/Loquest/Mentl2/internal/service"
)

func PostInvite(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)

		var req service.InviteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Invalid JSON")
			return
		}

		inv, err := app.Caregivers().Invite(c.Request.Context(), user, &req)
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to send invitation")
			return
		}

		HandleCreated(c, app.Logger(), inv)
	}
}

func GetSentInvitations(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)

		invs, err := app.Caregivers().SentInvitations(c.Request.Context(), user.ID)
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to fetch invitations")
			return
		}

		HandleSuccess(c, app.Logger(), gin.H{"invitations": invs}, nil)
	}
}

func GetReceivedInvitations(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)

		invs, err := app.Caregivers().ReceivedInvitations(c.Request.Context(), user)
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to fetch invitations")
			return
		}

		HandleSuccess(c, app.Logger(), gin.H{"invitations": invs}, nil)
	}
}

func PostAcceptInvitation(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)

		rel, err := app.Caregivers().Accept(c.Request.Context(), user, c.Param("id"))
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to accept invitation")
			return
		}

		HandleSuccess(c, app.Logger(), rel, nil)
	}
}

func PostRejectInvitation(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)

		inv, err := app.Caregivers().Reject(c.Request.Context(), user, c.Param("id"))
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to reject invitation")
			return
		}

		HandleSuccess(c, app.Logger(), inv, nil)
	}
}

func DeleteInvitation(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)

		inv, err := app.Caregivers().Cancel(c.Request.Context(), user, c.Param("id"))
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to cancel invitation")
			return
		}

		HandleSuccess(c, app.Logger(), inv, nil)
	}
}

func GetCaregivers(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)

		rels, err := app.Caregivers().Caregivers(c.Request.Context(), user.ID)
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to fetch caregivers")
			return
		}

		HandleSuccess(c, app.Logger(), gin.H{"caregivers": rels}, nil)
	}
}

func GetPatients(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)

		rels, err := app.Caregivers().Patients(c.Request.Context(), user.ID)
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to fetch patients")
			return
		}

		HandleSuccess(c, app.Logger(), gin.H{"patients": rels}, nil)
	}
}

func DeleteRelationship(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)

		if err := app.Caregivers().Remove(c.Request.Context(), user, c.Param("id")); err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to remove relationship")
			return
		}

		HandleSuccess(c, app.Logger(), gin.H{"removed": true}, nil)
	}
}

func PutPermissions(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)

		var perms internal.Permissions
		if err := c.ShouldBindJSON(&perms); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Invalid JSON")
			return
		}

		rel, err := app.Caregivers().UpdatePermissions(c.Request.Context(), user, c.Param("id"), perms)
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to update permissions")
			return
		}

		HandleSuccess(c, app.Logger(), rel, nil)
	}
}

func GetPatientMoodLogs(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)

		var q service.MoodLogQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Invalid query")
			return
		}

		logs, err := app.Caregivers().PatientMoodLogs(c.Request.Context(), user, c.Param("id"), q)
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to fetch patient mood logs")
			return
		}

		HandleSuccess(c, app.Logger(), logs, map[string]any{"count": len(logs.MoodLogs)})
	}
}

func GetPatientAnalytics(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)

		var q windowQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Invalid days")
			return
		}

		report, err := app.Caregivers().PatientAnalytics(c.Request.Context(), user, c.Param("id"), q.Days)
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to compute patient analytics")
			return
		}

		HandleSuccess(c, app.Logger(), report, nil)
	}
}
