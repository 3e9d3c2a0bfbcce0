package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Loquest/Mentl2/internal"
	"github.com/Loquest/Mentl2/internal/analytics"
	"github.com/Loquest/Mentl2/internal/storage"
)

const (
	concernRating   = 3
	concernDays     = 7
	maxConcerns     = 5
	ConcernHigh     = "high"
	ConcernMedium   = "medium"
	PatientLogLimit = 30
)

type InviteRequest struct {
	CaregiverEmail string                `json:"caregiver_email" validate:"required,email"`
	Permissions    *internal.Permissions `json:"permissions,omitempty"`
}

type Concern struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Date     string `json:"date,omitempty"`
}

type PatientMoodLogs struct {
	PatientID   string             `json:"patient_id"`
	PatientName string             `json:"patient_name"`
	MoodLogs    []internal.MoodLog `json:"mood_logs"`
}

// PatientAnalytics is the caregiver's view of a patient's trend summary.
type PatientAnalytics struct {
	analytics.TrendSummary
	PatientID      string    `json:"patient_id"`
	PatientName    string    `json:"patient_name"`
	RecentConcerns []Concern `json:"recent_concerns"`
}

type CaregiverService struct {
	users         storage.UserRepository
	caregivers    storage.CaregiverRepository
	notifications storage.NotificationRepository
	logs          storage.MoodLogRepository
	analytics     *AnalyticsService
	logger        internal.Logger
	now           func() time.Time
}

func NewCaregiverService(
	users storage.UserRepository,
	caregivers storage.CaregiverRepository,
	notifications storage.NotificationRepository,
	logs storage.MoodLogRepository,
	analyticsSvc *AnalyticsService,
	logger internal.Logger,
) *CaregiverService {
	return &CaregiverService{
		users:         users,
		caregivers:    caregivers,
		notifications: notifications,
		logs:          logs,
		analytics:     analyticsSvc,
		logger:        logger,
		now:           time.Now,
	}
}

// Invite records a pending invitation from patient to the given email.
// Permissions default to all granted.
func (s *CaregiverService) Invite(ctx context.Context, patient *internal.User, req *InviteRequest) (*internal.CaregiverInvitation, error) {
	req.CaregiverEmail = normalizeEmail(req.CaregiverEmail)
	if err := Validate(req); err != nil {
		return nil, err
	}
	if strings.EqualFold(req.CaregiverEmail, patient.Email) {
		return nil, invalid("you cannot invite yourself as a caregiver")
	}

	sent, err := s.caregivers.ListInvitationsByPatient(ctx, patient.ID)
	if err != nil {
		return nil, err
	}
	for _, inv := range sent {
		if inv.Status == internal.InvitationPending && strings.EqualFold(inv.CaregiverEmail, req.CaregiverEmail) {
			return nil, fmt.Errorf("%w: invitation already sent to this email", internal.ErrConflict)
		}
	}

	invitee, err := s.users.GetUserByEmail(ctx, req.CaregiverEmail)
	switch {
	case err == nil:
		if _, err := s.caregivers.FindRelationship(ctx, patient.ID, invitee.ID); err == nil {
			return nil, fmt.Errorf("%w: this person is already your caregiver", internal.ErrConflict)
		} else if !errors.Is(err, internal.ErrNotFound) {
			return nil, err
		}
	case errors.Is(err, internal.ErrNotFound):
		invitee = nil
	default:
		return nil, err
	}

	perms := internal.Permissions{ViewMoodLogs: true, ViewAnalytics: true, ReceiveAlerts: true}
	if req.Permissions != nil {
		perms = *req.Permissions
	}
	inv := &internal.CaregiverInvitation{
		ID:             uuid.NewString(),
		PatientID:      patient.ID,
		PatientName:    patient.Name,
		CaregiverEmail: req.CaregiverEmail,
		Permissions:    perms,
		Status:         internal.InvitationPending,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.caregivers.CreateInvitation(ctx, inv); err != nil {
		return nil, err
	}
	s.logger.Infow("caregiver invitation sent", "invitation_id", inv.ID, "patient_id", patient.ID)

	if invitee != nil {
		s.notify(ctx, &internal.Notification{
			UserID:    invitee.ID,
			Type:      internal.NotificationInvitation,
			Title:     "New caregiver invitation",
			Message:   fmt.Sprintf("%s has invited you to be their caregiver.", patient.Name),
			PatientID: patient.ID,
		})
	}
	return inv, nil
}

// notify writes an in-app notification; failures are logged only.
func (s *CaregiverService) notify(ctx context.Context, n *internal.Notification) {
	n.ID = uuid.NewString()
	n.CreatedAt = s.now().UTC()
	if err := s.notifications.CreateNotification(ctx, n); err != nil {
		s.logger.Errorw("failed to create notification", "user_id", n.UserID, "type", n.Type, "error", err)
	}
}

func (s *CaregiverService) SentInvitations(ctx context.Context, patientID string) ([]internal.CaregiverInvitation, error) {
	return s.caregivers.ListInvitationsByPatient(ctx, patientID)
}

func (s *CaregiverService) ReceivedInvitations(ctx context.Context, user *internal.User) ([]internal.CaregiverInvitation, error) {
	return s.caregivers.ListInvitationsByEmail(ctx, user.Email, internal.InvitationPending)
}

// received loads a pending invitation addressed to user. Invitations for
// other addresses are reported as not found.
func (s *CaregiverService) received(ctx context.Context, user *internal.User, invitationID string) (*internal.CaregiverInvitation, error) {
	inv, err := s.caregivers.GetInvitation(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(inv.CaregiverEmail, user.Email) {
		return nil, internal.ErrNotFound
	}
	if inv.Status != internal.InvitationPending {
		return nil, fmt.Errorf("%w: invitation is already %s", internal.ErrConflict, inv.Status)
	}
	return inv, nil
}

func (s *CaregiverService) respond(ctx context.Context, inv *internal.CaregiverInvitation, status string) error {
	now := s.now().UTC()
	inv.Status = status
	inv.RespondedAt = &now
	return s.caregivers.UpdateInvitation(ctx, inv)
}

// Accept turns the invitation into a relationship and tells the patient.
func (s *CaregiverService) Accept(ctx context.Context, caregiver *internal.User, invitationID string) (*internal.CaregiverRelationship, error) {
	inv, err := s.received(ctx, caregiver, invitationID)
	if err != nil {
		return nil, err
	}
	rel := &internal.CaregiverRelationship{
		ID:             uuid.NewString(),
		PatientID:      inv.PatientID,
		PatientName:    inv.PatientName,
		CaregiverID:    caregiver.ID,
		CaregiverName:  caregiver.Name,
		CaregiverEmail: caregiver.Email,
		Permissions:    inv.Permissions,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.caregivers.CreateRelationship(ctx, rel); err != nil {
		return nil, err
	}
	if err := s.respond(ctx, inv, internal.InvitationAccepted); err != nil {
		// the invitation is still pending, so the relationship must not outlive it
		if derr := s.caregivers.DeleteRelationship(ctx, rel.ID); derr != nil {
			s.logger.Errorw("failed to roll back relationship", "relationship_id", rel.ID, "error", derr)
		}
		return nil, err
	}
	s.logger.Infow("caregiver invitation accepted", "invitation_id", inv.ID, "relationship_id", rel.ID)
	s.notify(ctx, &internal.Notification{
		UserID:  inv.PatientID,
		Type:    internal.NotificationInvitationAccepted,
		Title:   "Caregiver invitation accepted",
		Message: fmt.Sprintf("%s is now your caregiver.", caregiver.Name),
	})
	return rel, nil
}

func (s *CaregiverService) Reject(ctx context.Context, caregiver *internal.User, invitationID string) (*internal.CaregiverInvitation, error) {
	inv, err := s.received(ctx, caregiver, invitationID)
	if err != nil {
		return nil, err
	}
	if err := s.respond(ctx, inv, internal.InvitationRejected); err != nil {
		return nil, err
	}
	return inv, nil
}

// Cancel withdraws a pending invitation the patient sent.
func (s *CaregiverService) Cancel(ctx context.Context, patient *internal.User, invitationID string) (*internal.CaregiverInvitation, error) {
	inv, err := s.caregivers.GetInvitation(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	if inv.PatientID != patient.ID {
		return nil, internal.ErrNotFound
	}
	if inv.Status != internal.InvitationPending {
		return nil, fmt.Errorf("%w: invitation is already %s", internal.ErrConflict, inv.Status)
	}
	if err := s.respond(ctx, inv, internal.InvitationCancelled); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *CaregiverService) Caregivers(ctx context.Context, patientID string) ([]internal.CaregiverRelationship, error) {
	return s.caregivers.ListCaregiversForPatient(ctx, patientID)
}

func (s *CaregiverService) Patients(ctx context.Context, caregiverID string) ([]internal.CaregiverRelationship, error) {
	return s.caregivers.ListPatientsForCaregiver(ctx, caregiverID)
}

// Remove deletes a relationship; either side may end it.
func (s *CaregiverService) Remove(ctx context.Context, user *internal.User, relationshipID string) error {
	rel, err := s.caregivers.GetRelationship(ctx, relationshipID)
	if err != nil {
		return err
	}
	if rel.PatientID != user.ID && rel.CaregiverID != user.ID {
		return internal.ErrNotFound
	}
	if err := s.caregivers.DeleteRelationship(ctx, relationshipID); err != nil {
		return err
	}
	s.logger.Infow("caregiver relationship removed", "relationship_id", rel.ID, "removed_by", user.ID)
	return nil
}

// UpdatePermissions lets the patient change what a caregiver may see.
func (s *CaregiverService) UpdatePermissions(ctx context.Context, patient *internal.User, relationshipID string, perms internal.Permissions) (*internal.CaregiverRelationship, error) {
	rel, err := s.caregivers.GetRelationship(ctx, relationshipID)
	if err != nil {
		return nil, err
	}
	switch patient.ID {
	case rel.PatientID:
	case rel.CaregiverID:
		return nil, fmt.Errorf("%w: only the patient can change permissions", internal.ErrForbidden)
	default:
		return nil, internal.ErrNotFound
	}
	rel.Permissions = perms
	if err := s.caregivers.UpdateRelationship(ctx, rel); err != nil {
		return nil, err
	}
	return rel, nil
}

// edge returns the caregiver's relationship to patientID if allow grants access.
func (s *CaregiverService) edge(ctx context.Context, caregiverID, patientID string, allow func(internal.Permissions) bool) (*internal.CaregiverRelationship, error) {
	rel, err := s.caregivers.FindRelationship(ctx, patientID, caregiverID)
	if err != nil {
		if errors.Is(err, internal.ErrNotFound) {
			return nil, fmt.Errorf("%w: you are not a caregiver for this patient", internal.ErrForbidden)
		}
		return nil, err
	}
	if !allow(rel.Permissions) {
		return nil, fmt.Errorf("%w: permission not granted by the patient", internal.ErrForbidden)
	}
	return rel, nil
}

func (s *CaregiverService) PatientMoodLogs(ctx context.Context, caregiver *internal.User, patientID string, q MoodLogQuery) (*PatientMoodLogs, error) {
	rel, err := s.edge(ctx, caregiver.ID, patientID, func(p internal.Permissions) bool { return p.ViewMoodLogs })
	if err != nil {
		return nil, err
	}
	if q.Limit == 0 {
		q.Limit = PatientLogLimit
	}
	logs, err := ListMoodLogs(ctx, s.logs, patientID, q)
	if err != nil {
		return nil, err
	}
	return &PatientMoodLogs{PatientID: patientID, PatientName: rel.PatientName, MoodLogs: logs}, nil
}

func (s *CaregiverService) PatientAnalytics(ctx context.Context, caregiver *internal.User, patientID string, days int) (*PatientAnalytics, error) {
	rel, err := s.edge(ctx, caregiver.ID, patientID, func(p internal.Permissions) bool { return p.ViewAnalytics })
	if err != nil {
		return nil, err
	}
	w, err := s.analytics.Window(ctx, patientID, days)
	if err != nil {
		return nil, err
	}
	summary := analytics.Summarize(w)
	return &PatientAnalytics{
		TrendSummary:   summary,
		PatientID:      patientID,
		PatientName:    rel.PatientName,
		RecentConcerns: recentConcerns(w, summary.MoodTrend, s.now().UTC()),
	}, nil
}

// recentConcerns flags logs rated 3 or lower in the last week, newest first,
// and a declining trend.
func recentConcerns(w analytics.Window, trend analytics.Trend, now time.Time) []Concern {
	out := []Concern{}
	if trend == analytics.TrendDeclining {
		out = append(out, Concern{Severity: ConcernMedium, Message: "Mood has been trending downward recently."})
	}
	cutoff := now.AddDate(0, 0, -concernDays).Format(DateLayout)
	records := w.Records()
	for i := len(records) - 1; i >= 0 && len(out) < maxConcerns; i-- {
		r := records[i]
		if r.Date < cutoff || r.MoodRating > concernRating {
			continue
		}
		severity := ConcernMedium
		if r.MoodRating <= 2 {
			severity = ConcernHigh
		}
		out = append(out, Concern{
			Severity: severity,
			Message:  fmt.Sprintf("Low mood (%d/10) logged on %s.", r.MoodRating, r.Date),
			Date:     r.Date,
		})
	}
	return out
}
