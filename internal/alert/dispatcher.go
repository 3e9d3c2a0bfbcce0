// Package alert fans a crisis event out to every caregiver allowed to receive alerts.
package alert

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Loquest/Mentl2/internal"
	"github.com/Loquest/Mentl2/internal/notify"
	"github.com/Loquest/Mentl2/internal/triage"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var ErrSeverityTooLow = errors.New("alert: severity below alert threshold")

const DefaultConcurrency = 8

type Alert struct {
	PatientID   string
	PatientName string
	Severity    triage.Severity
	Excerpt     string
}

type RelationshipLister interface {
	ListCaregiversForPatient(ctx context.Context, patientID string) ([]internal.CaregiverRelationship, error)
}

type PreferenceSource interface {
	NotificationPreferences(ctx context.Context, userID string) (internal.NotificationPreferences, error)
}

type NotificationWriter interface {
	CreateNotification(ctx context.Context, n *internal.Notification) error
}

// Report counts per-channel outcomes. Skipped channels count in neither column.
type Report struct {
	Edges        int `json:"edges"`
	Notified     int `json:"notified"`
	NotifyFailed int `json:"notify_failed"`
	Emailed      int `json:"emailed"`
	EmailFailed  int `json:"email_failed"`
	Pushed       int `json:"pushed"`
	PushFailed   int `json:"push_failed"`
}

type edgeResult struct {
	notified, notifyFailed bool
	emailed, emailFailed   bool
	pushed, pushFailed     bool
}

type Dispatcher struct {
	edges         RelationshipLister
	prefs         PreferenceSource
	notifications NotificationWriter
	email         notify.EmailSender
	push          notify.PushSender
	concurrency   int
	logger        internal.Logger
}

func NewDispatcher(
	edges RelationshipLister,
	prefs PreferenceSource,
	notifications NotificationWriter,
	email notify.EmailSender,
	push notify.PushSender,
	concurrency int,
	logger internal.Logger,
) *Dispatcher {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Dispatcher{
		edges:         edges,
		prefs:         prefs,
		notifications: notifications,
		email:         email,
		push:          push,
		concurrency:   concurrency,
		logger:        logger,
	}
}

// Dispatch alerts every caregiver of the patient whose edge grants receive_alerts.
// Per-caregiver delivery failures are logged and counted, never returned.
func (d *Dispatcher) Dispatch(ctx context.Context, a Alert) (Report, error) {
	if a.Severity != triage.SeverityHigh && a.Severity != triage.SeverityCritical {
		return Report{}, ErrSeverityTooLow
	}

	all, err := d.edges.ListCaregiversForPatient(ctx, a.PatientID)
	if err != nil {
		return Report{}, fmt.Errorf("alert: list caregivers: %w", err)
	}
	var edges []internal.CaregiverRelationship
	for _, e := range all {
		if e.Permissions.ReceiveAlerts {
			edges = append(edges, e)
		}
	}

	results := make([]edgeResult, len(edges))
	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for i, edge := range edges {
		g.Go(func() error {
			results[i] = d.deliver(ctx, a, edge)
			return nil
		})
	}
	_ = g.Wait()

	report := Report{Edges: len(edges)}
	for _, r := range results {
		report.Notified += btoi(r.notified)
		report.NotifyFailed += btoi(r.notifyFailed)
		report.Emailed += btoi(r.emailed)
		report.EmailFailed += btoi(r.emailFailed)
		report.Pushed += btoi(r.pushed)
		report.PushFailed += btoi(r.pushFailed)
	}
	d.logger.Infow("crisis alerts dispatched",
		"patient_id", a.PatientID,
		"severity", a.Severity,
		"edges", report.Edges,
		"notified", report.Notified,
		"failures", report.NotifyFailed+report.EmailFailed+report.PushFailed,
	)
	return report, nil
}

// deliver writes the in-app notification first, then tries email and push.
func (d *Dispatcher) deliver(ctx context.Context, a Alert, edge internal.CaregiverRelationship) edgeResult {
	var res edgeResult
	log := d.logger.With("patient_id", a.PatientID, "caregiver_id", edge.CaregiverID)

	n := &internal.Notification{
		ID:        uuid.NewString(),
		UserID:    edge.CaregiverID,
		Type:      internal.NotificationCrisisAlert,
		Title:     title(a),
		Message:   message(a),
		Severity:  string(a.Severity),
		PatientID: a.PatientID,
		Excerpt:   a.Excerpt,
		CreatedAt: time.Now().UTC(),
	}
	if err := d.notifications.CreateNotification(ctx, n); err != nil {
		log.Errorw("crisis notification failed", "error", err)
		res.notifyFailed = true
	} else {
		res.notified = true
	}

	prefs, err := d.prefs.NotificationPreferences(ctx, edge.CaregiverID)
	if err != nil {
		// unreadable preferences fall back to the defaults, which allow both channels
		log.Warnw("notification preferences unavailable", "error", err)
		prefs = internal.NotificationPreferences{}
	}

	if d.email != nil && prefs.AllowsEmailCrisis() && edge.CaregiverEmail != "" {
		if err := d.email.Send(ctx, emailFor(a, edge)); err != nil {
			log.Errorw("crisis email failed", "error", err)
			res.emailFailed = true
		} else {
			res.emailed = true
		}
	}

	// a nil push sender means push delivery is not configured
	if d.push != nil && prefs.AllowsPushCrisis() {
		intent := notify.PushIntent{
			UserID:   edge.CaregiverID,
			Kind:     internal.NotificationCrisisAlert,
			Title:    n.Title,
			Body:     n.Message,
			Severity: string(a.Severity),
			Data:     map[string]string{"patient_id": a.PatientID, "notification_id": n.ID},
		}
		if err := d.push.Publish(ctx, intent); err != nil {
			log.Errorw("crisis push failed", "error", err)
			res.pushFailed = true
		} else {
			res.pushed = true
		}
	}
	return res
}

func title(a Alert) string {
	if a.Severity == triage.SeverityCritical {
		return fmt.Sprintf("URGENT: %s may be in crisis", a.PatientName)
	}
	return fmt.Sprintf("Concern alert for %s", a.PatientName)
}

func message(a Alert) string {
	return fmt.Sprintf("%s shared something in their companion chat that may indicate they need support. Please check in with them as soon as you can.", a.PatientName)
}

func emailFor(a Alert, edge internal.CaregiverRelationship) notify.Email {
	text := fmt.Sprintf(
		"Hi %s,\n\n%s\n\nSeverity: %s\nMessage excerpt: %q\n\nIf you believe they are in immediate danger, call 911. "+
			"The 988 Suicide & Crisis Lifeline is available 24/7 by call or text.\n",
		edge.CaregiverName, message(a), a.Severity, a.Excerpt,
	)
	return notify.Email{
		To:      edge.CaregiverEmail,
		ToName:  edge.CaregiverName,
		Subject: title(a),
		Text:    text,
	}
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}
