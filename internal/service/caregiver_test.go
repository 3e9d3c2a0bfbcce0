package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Loquest/Mentl2/internal"
	"github.com/Loquest/Mentl2/internal/analytics"
	"github.com/Loquest/Mentl2/internal/storage"
)

type caregiverFixture struct {
	repos     *storage.Repositories
	svc       *CaregiverService
	patient   *internal.User
	caregiver *internal.User
	stranger  *internal.User
	now       time.Time
}

func newCaregiverFixture(t *testing.T) *caregiverFixture {
	t.Helper()
	repos := newRepos(t)
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	analyticsSvc := NewAnalyticsService(repos.MoodLogs, 1000)
	analyticsSvc.now = func() time.Time { return now }
	svc := NewCaregiverService(repos.Users, repos.Caregivers, repos.Notifications, repos.MoodLogs, analyticsSvc, internal.NewNopLogger())
	svc.now = func() time.Time { return now }
	return &caregiverFixture{
		repos:     repos,
		svc:       svc,
		patient:   seedUser(t, repos, "p1", "pat@example.com", "Pat"),
		caregiver: seedUser(t, repos, "c1", "casey@example.com", "Casey"),
		stranger:  seedUser(t, repos, "s1", "sky@example.com", "Sky"),
		now:       now,
	}
}

// link invites the caregiver and accepts, returning the relationship.
func (f *caregiverFixture) link(t *testing.T, perms *internal.Permissions) *internal.CaregiverRelationship {
	t.Helper()
	ctx := context.Background()
	inv, err := f.svc.Invite(ctx, f.patient, &InviteRequest{CaregiverEmail: f.caregiver.Email, Permissions: perms})
	require.NoError(t, err)
	rel, err := f.svc.Accept(ctx, f.caregiver, inv.ID)
	require.NoError(t, err)
	return rel
}

func TestCaregiver_InviteDefaultsAndDuplicates(t *testing.T) {
	f := newCaregiverFixture(t)
	ctx := context.Background()

	inv, err := f.svc.Invite(ctx, f.patient, &InviteRequest{CaregiverEmail: "Casey@Example.com"})
	require.NoError(t, err)
	assert.Equal(t, internal.InvitationPending, inv.Status)
	assert.Equal(t, "casey@example.com", inv.CaregiverEmail)
	assert.Equal(t, internal.Permissions{ViewMoodLogs: true, ViewAnalytics: true, ReceiveAlerts: true}, inv.Permissions)

	_, err = f.svc.Invite(ctx, f.patient, &InviteRequest{CaregiverEmail: "casey@example.com"})
	assert.ErrorIs(t, err, internal.ErrConflict)

	_, err = f.svc.Invite(ctx, f.patient, &InviteRequest{CaregiverEmail: "not an email"})
	assert.ErrorIs(t, err, internal.ErrValidation)

	_, err = f.svc.Invite(ctx, f.patient, &InviteRequest{CaregiverEmail: "PAT@example.com"})
	assert.ErrorIs(t, err, internal.ErrValidation)

	custom, err := f.svc.Invite(ctx, f.patient, &InviteRequest{
		CaregiverEmail: "new@example.com",
		Permissions:    &internal.Permissions{ViewMoodLogs: true},
	})
	require.NoError(t, err)
	assert.False(t, custom.Permissions.ReceiveAlerts)

	notes, err := f.repos.Notifications.ListNotifications(ctx, "c1", false, 0)
	require.NoError(t, err)
	require.Len(t, notes, 1, "registered invitee is notified")
	assert.Equal(t, internal.NotificationInvitation, notes[0].Type)

	received, err := f.svc.ReceivedInvitations(ctx, f.caregiver)
	require.NoError(t, err)
	assert.Len(t, received, 1)

	sent, err := f.svc.SentInvitations(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, sent, 2)
}

func TestCaregiver_AcceptCreatesRelationship(t *testing.T) {
	f := newCaregiverFixture(t)
	ctx := context.Background()
	rel := f.link(t, nil)

	assert.Equal(t, "p1", rel.PatientID)
	assert.Equal(t, "c1", rel.CaregiverID)
	assert.Equal(t, "Pat", rel.PatientName)
	assert.True(t, rel.Permissions.ReceiveAlerts)

	caregivers, err := f.svc.Caregivers(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, caregivers, 1)
	patients, err := f.svc.Patients(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, patients, 1)

	notes, err := f.repos.Notifications.ListNotifications(ctx, "p1", false, 0)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, internal.NotificationInvitationAccepted, notes[0].Type)

	received, err := f.svc.ReceivedInvitations(ctx, f.caregiver)
	require.NoError(t, err)
	assert.Empty(t, received)

	_, err = f.svc.Invite(ctx, f.patient, &InviteRequest{CaregiverEmail: f.caregiver.Email})
	assert.ErrorIs(t, err, internal.ErrConflict, "already linked")
}

// stuckInvitations fails every invitation update.
type stuckInvitations struct {
	storage.CaregiverRepository
}

func (stuckInvitations) UpdateInvitation(ctx context.Context, inv *internal.CaregiverInvitation) error {
	return errBoom
}

func TestCaregiver_AcceptRollsBackWhenInvitationUpdateFails(t *testing.T) {
	f := newCaregiverFixture(t)
	ctx := context.Background()
	inv, err := f.svc.Invite(ctx, f.patient, &InviteRequest{CaregiverEmail: f.caregiver.Email})
	require.NoError(t, err)

	stuck := NewCaregiverService(f.repos.Users, stuckInvitations{f.repos.Caregivers}, f.repos.Notifications, f.repos.MoodLogs, nil, internal.NewNopLogger())
	_, err = stuck.Accept(ctx, f.caregiver, inv.ID)
	assert.ErrorIs(t, err, errBoom)

	caregivers, err := f.svc.Caregivers(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, caregivers)
	notes, err := f.repos.Notifications.ListNotifications(ctx, "p1", false, 0)
	require.NoError(t, err)
	assert.Empty(t, notes)

	// the invitation is still pending and can be accepted once storage recovers
	rel, err := f.svc.Accept(ctx, f.caregiver, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "c1", rel.CaregiverID)
}

func TestCaregiver_RespondGuards(t *testing.T) {
	f := newCaregiverFixture(t)
	ctx := context.Background()
	inv, err := f.svc.Invite(ctx, f.patient, &InviteRequest{CaregiverEmail: f.caregiver.Email})
	require.NoError(t, err)

	_, err = f.svc.Accept(ctx, f.stranger, inv.ID)
	assert.ErrorIs(t, err, internal.ErrNotFound, "invitation for someone else")
	_, err = f.svc.Accept(ctx, f.caregiver, "missing")
	assert.ErrorIs(t, err, internal.ErrNotFound)
	_, err = f.svc.Cancel(ctx, f.stranger, inv.ID)
	assert.ErrorIs(t, err, internal.ErrNotFound)

	rejected, err := f.svc.Reject(ctx, f.caregiver, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, internal.InvitationRejected, rejected.Status)
	require.NotNil(t, rejected.RespondedAt)

	_, err = f.svc.Accept(ctx, f.caregiver, inv.ID)
	assert.ErrorIs(t, err, internal.ErrConflict)

	again, err := f.svc.Invite(ctx, f.patient, &InviteRequest{CaregiverEmail: f.caregiver.Email})
	require.NoError(t, err, "a rejected invitation does not block a new one")
	cancelled, err := f.svc.Cancel(ctx, f.patient, again.ID)
	require.NoError(t, err)
	assert.Equal(t, internal.InvitationCancelled, cancelled.Status)
	_, err = f.svc.Cancel(ctx, f.patient, again.ID)
	assert.ErrorIs(t, err, internal.ErrConflict)
}

func TestCaregiver_PermissionsAndRemoval(t *testing.T) {
	f := newCaregiverFixture(t)
	ctx := context.Background()
	rel := f.link(t, nil)

	_, err := f.svc.UpdatePermissions(ctx, f.caregiver, rel.ID, internal.Permissions{})
	assert.ErrorIs(t, err, internal.ErrForbidden)
	_, err = f.svc.UpdatePermissions(ctx, f.stranger, rel.ID, internal.Permissions{})
	assert.ErrorIs(t, err, internal.ErrNotFound)

	updated, err := f.svc.UpdatePermissions(ctx, f.patient, rel.ID, internal.Permissions{ViewAnalytics: true})
	require.NoError(t, err)
	assert.False(t, updated.Permissions.ViewMoodLogs)

	_, err = f.svc.PatientMoodLogs(ctx, f.caregiver, "p1", MoodLogQuery{})
	assert.ErrorIs(t, err, internal.ErrForbidden)
	_, err = f.svc.PatientAnalytics(ctx, f.caregiver, "p1", 30)
	assert.NoError(t, err)

	assert.ErrorIs(t, f.svc.Remove(ctx, f.stranger, rel.ID), internal.ErrNotFound)
	require.NoError(t, f.svc.Remove(ctx, f.caregiver, rel.ID))
	assert.ErrorIs(t, f.svc.Remove(ctx, f.patient, rel.ID), internal.ErrNotFound)

	_, err = f.svc.PatientAnalytics(ctx, f.caregiver, "p1", 30)
	assert.ErrorIs(t, err, internal.ErrForbidden)
}

func TestCaregiver_PatientViews(t *testing.T) {
	f := newCaregiverFixture(t)
	ctx := context.Background()
	f.link(t, nil)

	// 2024-03-01 .. 2024-03-10; the last week starts 2024-03-03.
	seedDays(t, f.repos.MoodLogs, "p1", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), 3, 8, 8, 7, 8, 6, 3, 5, 2, 6)

	logs, err := f.svc.PatientMoodLogs(ctx, f.caregiver, "p1", MoodLogQuery{Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, "Pat", logs.PatientName)
	assert.Len(t, logs.MoodLogs, 5)

	view, err := f.svc.PatientAnalytics(ctx, f.caregiver, "p1", 30)
	require.NoError(t, err)
	assert.Equal(t, 10, view.TotalLogs)
	assert.Equal(t, analytics.TrendDeclining, view.MoodTrend)
	require.Len(t, view.RecentConcerns, 3)
	assert.Equal(t, ConcernMedium, view.RecentConcerns[0].Severity)
	assert.Equal(t, Concern{Severity: ConcernHigh, Message: "Low mood (2/10) logged on 2024-03-09.", Date: "2024-03-09"}, view.RecentConcerns[1])
	assert.Equal(t, "2024-03-07", view.RecentConcerns[2].Date)

	_, err = f.svc.PatientMoodLogs(ctx, f.stranger, "p1", MoodLogQuery{})
	assert.ErrorIs(t, err, internal.ErrForbidden)
}
