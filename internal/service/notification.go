package service

import (
	"context"

	"github.com/samber/lo"

	"github.com/Loquest/Mentl2/internal"
	"github.com/Loquest/Mentl2/internal/alert"
	"github.com/Loquest/Mentl2/internal/storage"
)

const DefaultNotificationLimit = 50

type NotificationList struct {
	Notifications []internal.Notification `json:"notifications"`
	UnreadCount   int                     `json:"unread_count"`
}

type PushSubscriptionRequest struct {
	Endpoint string `json:"endpoint" validate:"required,url"`
	Keys     struct {
		P256dh string `json:"p256dh" validate:"required"`
		Auth   string `json:"auth" validate:"required"`
	} `json:"keys"`
}

type NotificationService struct {
	users         storage.UserRepository
	notifications storage.NotificationRepository
	logger        internal.Logger
}

var _ alert.PreferenceSource = (*NotificationService)(nil)

func NewNotificationService(users storage.UserRepository, notifications storage.NotificationRepository, logger internal.Logger) *NotificationService {
	return &NotificationService{users: users, notifications: notifications, logger: logger}
}

func (s *NotificationService) List(ctx context.Context, userID string, unreadOnly bool, limit int) (*NotificationList, error) {
	if limit <= 0 || limit > DefaultNotificationLimit {
		limit = DefaultNotificationLimit
	}
	items, err := s.notifications.ListNotifications(ctx, userID, unreadOnly, limit)
	if err != nil {
		return nil, err
	}
	unread, err := s.notifications.ListNotifications(ctx, userID, true, 0)
	if err != nil {
		return nil, err
	}
	return &NotificationList{Notifications: items, UnreadCount: len(unread)}, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	return s.notifications.MarkNotificationRead(ctx, userID, id)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int, error) {
	return s.notifications.MarkAllNotificationsRead(ctx, userID)
}

// NotificationPreferences returns the user's stored preferences; unset channels mean allowed.
func (s *NotificationService) NotificationPreferences(ctx context.Context, userID string) (internal.NotificationPreferences, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return internal.NotificationPreferences{}, err
	}
	return user.NotificationPreferences, nil
}

// UpdatePreferences merges the channels present in upd into the stored preferences.
func (s *NotificationService) UpdatePreferences(ctx context.Context, userID string, upd internal.NotificationPreferences) (internal.NotificationPreferences, error) {
	if upd.EmailCrisisAlerts == nil && upd.PushCrisisAlerts == nil {
		return internal.NotificationPreferences{}, invalid("no fields to update")
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return internal.NotificationPreferences{}, err
	}
	prefs := user.NotificationPreferences
	if upd.EmailCrisisAlerts != nil {
		prefs.EmailCrisisAlerts = lo.ToPtr(*upd.EmailCrisisAlerts)
	}
	if upd.PushCrisisAlerts != nil {
		prefs.PushCrisisAlerts = lo.ToPtr(*upd.PushCrisisAlerts)
	}
	user.NotificationPreferences = prefs
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return internal.NotificationPreferences{}, err
	}
	return prefs, nil
}

// Subscribe stores a web-push subscription, replacing any with the same endpoint.
func (s *NotificationService) Subscribe(ctx context.Context, userID string, req *PushSubscriptionRequest) error {
	if err := Validate(req); err != nil {
		return err
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	subs := lo.Reject(user.PushSubscriptions, func(p internal.PushSubscription, _ int) bool {
		return p.Endpoint == req.Endpoint
	})
	user.PushSubscriptions = append(subs, internal.PushSubscription{
		Endpoint: req.Endpoint,
		P256dh:   req.Keys.P256dh,
		Auth:     req.Keys.Auth,
	})
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return err
	}
	s.logger.Infow("push subscription saved", "user_id", userID, "subscriptions", len(user.PushSubscriptions))
	return nil
}

func (s *NotificationService) Unsubscribe(ctx context.Context, userID, endpoint string) error {
	if endpoint == "" {
		return invalid("endpoint is required")
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	subs := lo.Reject(user.PushSubscriptions, func(p internal.PushSubscription, _ int) bool {
		return p.Endpoint == endpoint
	})
	if len(subs) == len(user.PushSubscriptions) {
		return internal.ErrNotFound
	}
	user.PushSubscriptions = subs
	return s.users.UpdateUser(ctx, user)
}
