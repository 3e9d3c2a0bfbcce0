package auth

import (
	"context"
	"errors"

	"github.com/Loquest/Mentl2/internal"
)

var ErrInvalidToken = errors.New("invalid token")

// Provider resolves a bearer token to the user it was issued for.
type Provider interface {
	ValidateToken(ctx context.Context, token string) (*internal.User, error)
}

// Issuer mints bearer tokens after a successful login or registration.
type Issuer interface {
	IssueToken(userID string) (string, error)
}
