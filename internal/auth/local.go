package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Loquest/Mentl2/internal"
	"github.com/Loquest/Mentl2/internal/storage"
)

const (
	DevUserEmail = "demo@mentl2.local"
	DevUserName  = "Demo User"
)

// LocalAuthProvider accepts a fixed development token as the demo user and
// hands every other token to next.
type LocalAuthProvider struct {
	Token  string
	users  storage.UserRepository
	next   Provider
	logger internal.Logger
}

var _ Provider = (*LocalAuthProvider)(nil)

func (a *LocalAuthProvider) ValidateToken(ctx context.Context, token string) (*internal.User, error) {
	if a.Token != "" && token == a.Token {
		return a.demoUser(ctx)
	}
	if a.next == nil {
		a.logger.Warnf("invalid token")
		return nil, ErrInvalidToken
	}
	return a.next.ValidateToken(ctx, token)
}

func (a *LocalAuthProvider) demoUser(ctx context.Context) (*internal.User, error) {
	u, err := a.users.GetUserByEmail(ctx, DevUserEmail)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, internal.ErrNotFound) {
		return nil, err
	}
	u = &internal.User{
		ID:         uuid.NewString(),
		Email:      DevUserEmail,
		Name:       DevUserName,
		Conditions: []string{},
		CreatedAt:  time.Now().UTC(),
	}
	if err := a.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, internal.ErrConflict) {
			return a.users.GetUserByEmail(ctx, DevUserEmail)
		}
		return nil, err
	}
	a.logger.Infow("created demo user for development token", "user_id", u.ID)
	return u, nil
}

func NewLocalAuthProvider(token string, users storage.UserRepository, next Provider, logger internal.Logger) *LocalAuthProvider {
	return &LocalAuthProvider{Token: token, users: users, next: next, logger: logger}
}
