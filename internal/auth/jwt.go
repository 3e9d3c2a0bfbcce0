package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Loquest/Mentl2/internal"
	"github.com/Loquest/Mentl2/internal/storage"
)

type Claims struct {
	jwt.RegisteredClaims
}

// JWTProvider issues and validates HS256 tokens whose subject is the user id.
type JWTProvider struct {
	secret []byte
	ttl    time.Duration
	users  storage.UserRepository
	logger internal.Logger
	now    func() time.Time
}

var (
	_ Provider = (*JWTProvider)(nil)
	_ Issuer   = (*JWTProvider)(nil)
)

func NewJWTProvider(secret string, ttl time.Duration, users storage.UserRepository, logger internal.Logger) (*JWTProvider, error) {
	if secret == "" {
		return nil, errors.New("auth: jwt secret is empty")
	}
	if ttl <= 0 {
		return nil, errors.New("auth: jwt ttl must be positive")
	}
	return &JWTProvider{secret: []byte(secret), ttl: ttl, users: users, logger: logger, now: time.Now}, nil
}

func (p *JWTProvider) IssueToken(userID string) (string, error) {
	now := p.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (p *JWTProvider) ValidateToken(ctx context.Context, token string) (*internal.User, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(p.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	user, err := p.users.GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, internal.ErrNotFound) {
			p.logger.Warnw("token subject no longer exists", "user_id", claims.Subject)
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return user, nil
}
