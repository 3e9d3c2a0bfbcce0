package storage

import (
	"context"

	"github.com/Loquest/Mentl2/internal"
)

type UserRepository interface {
	// CreateUser returns internal.ErrConflict when the email is taken.
	CreateUser(ctx context.Context, user *internal.User) error
	GetUserByID(ctx context.Context, id string) (*internal.User, error)
	GetUserByEmail(ctx context.Context, email string) (*internal.User, error)
	UpdateUser(ctx context.Context, user *internal.User) error
}

// MoodLogFilter bounds a listing by inclusive YYYY-MM-DD dates. Zero values are unbounded.
type MoodLogFilter struct {
	StartDate string
	EndDate   string
	Limit     int
}

type MoodLogRepository interface {
	// CreateMoodLog returns internal.ErrDuplicateDate when the user already has a log for that date.
	CreateMoodLog(ctx context.Context, log *internal.MoodLog) error
	GetMoodLog(ctx context.Context, userID, id string) (*internal.MoodLog, error)
	UpdateMoodLog(ctx context.Context, log *internal.MoodLog) error
	DeleteMoodLog(ctx context.Context, userID, id string) error
	// ListMoodLogs returns logs newest date first.
	ListMoodLogs(ctx context.Context, userID string, filter MoodLogFilter) ([]internal.MoodLog, error)
}

type CaregiverRepository interface {
	CreateInvitation(ctx context.Context, inv *internal.CaregiverInvitation) error
	GetInvitation(ctx context.Context, id string) (*internal.CaregiverInvitation, error)
	UpdateInvitation(ctx context.Context, inv *internal.CaregiverInvitation) error
	ListInvitationsByPatient(ctx context.Context, patientID string) ([]internal.CaregiverInvitation, error)
	// ListInvitationsByEmail matches the caregiver email case-insensitively; an empty status matches all.
	ListInvitationsByEmail(ctx context.Context, email, status string) ([]internal.CaregiverInvitation, error)

	CreateRelationship(ctx context.Context, rel *internal.CaregiverRelationship) error
	GetRelationship(ctx context.Context, id string) (*internal.CaregiverRelationship, error)
	FindRelationship(ctx context.Context, patientID, caregiverID string) (*internal.CaregiverRelationship, error)
	UpdateRelationship(ctx context.Context, rel *internal.CaregiverRelationship) error
	DeleteRelationship(ctx context.Context, id string) error
	ListCaregiversForPatient(ctx context.Context, patientID string) ([]internal.CaregiverRelationship, error)
	ListPatientsForCaregiver(ctx context.Context, caregiverID string) ([]internal.CaregiverRelationship, error)
}

type NotificationRepository interface {
	CreateNotification(ctx context.Context, n *internal.Notification) error
	// ListNotifications returns newest first; limit <= 0 means no limit.
	ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]internal.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) (int, error)
}

type ChatRepository interface {
	// GetChatHistory returns internal.ErrNotFound when the user has never chatted.
	GetChatHistory(ctx context.Context, userID string) (*internal.ChatHistory, error)
	// AppendChatMessages keeps only the newest internal.MaxChatHistory messages.
	AppendChatMessages(ctx context.Context, userID string, msgs ...internal.ChatMessage) error
	ClearChatHistory(ctx context.Context, userID string) error
}

// ContentFilter narrows the library. Search is a case-insensitive regular expression
// over title and description, or an exact match against a lowercased tag.
type ContentFilter struct {
	Category    string
	ContentType string
	Search      string
	Limit       int
}

type ContentRepository interface {
	// UpsertContent inserts the item or replaces the one with the same ID.
	UpsertContent(ctx context.Context, c *internal.Content) error
	GetContent(ctx context.Context, id string) (*internal.Content, error)
	// ListContent returns items oldest first, then by ID.
	ListContent(ctx context.Context, filter ContentFilter) ([]internal.Content, error)
}

// Repositories groups every repository served by one backend.
type Repositories struct {
	Users         UserRepository
	MoodLogs      MoodLogRepository
	Caregivers    CaregiverRepository
	Notifications NotificationRepository
	Chats         ChatRepository
	Content       ContentRepository
	closer        func(ctx context.Context) error
}

func (r *Repositories) Close(ctx context.Context) error {
	if r.closer == nil {
		return nil
	}
	return r.closer(ctx)
}

type backend interface {
	UserRepository
	MoodLogRepository
	CaregiverRepository
	NotificationRepository
	ChatRepository
	ContentRepository
}

func newRepositories(b backend, closer func(ctx context.Context) error) *Repositories {
	return &Repositories{
		Users:         b,
		MoodLogs:      b,
		Caregivers:    b,
		Notifications: b,
		Chats:         b,
		Content:       b,
		closer:        closer,
	}
}

func trimHistory(msgs []internal.ChatMessage) []internal.ChatMessage {
	if len(msgs) > internal.MaxChatHistory {
		msgs = msgs[len(msgs)-internal.MaxChatHistory:]
	}
	return msgs
}
