package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Loquest/Mentl2/internal"
	"github.com/Loquest/Mentl2/internal/auth"
	"github.com/Loquest/Mentl2/internal/storage"
)

type RegisterRequest struct {
	Email      string   `json:"email" validate:"required,email"`
	Password   string   `json:"password" validate:"required,min=8,max=72"`
	Name       string   `json:"name" validate:"required,max=100"`
	Conditions []string `json:"conditions" validate:"dive,required,max=50"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ProfileUpdate struct {
	Name       *string   `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Conditions *[]string `json:"conditions,omitempty" validate:"omitempty,dive,required,max=50"`
}

type TokenResponse struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	User        *internal.User `json:"user"`
}

type AuthService struct {
	users      storage.UserRepository
	issuer     auth.Issuer
	logger     internal.Logger
	bcryptCost int
}

func NewAuthService(users storage.UserRepository, issuer auth.Issuer, logger internal.Logger) *AuthService {
	return &AuthService{users: users, issuer: issuer, logger: logger, bcryptCost: bcrypt.DefaultCost}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*TokenResponse, error) {
	req.Email = normalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if err := Validate(req); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	conditions := req.Conditions
	if conditions == nil {
		conditions = []string{}
	}
	user := &internal.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hash),
		Conditions:   conditions,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, internal.ErrConflict) {
			return nil, fmt.Errorf("%w: email already registered", internal.ErrConflict)
		}
		return nil, err
	}
	s.logger.Infow("user registered", "user_id", user.ID)
	return s.tokenFor(user)
}

func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*TokenResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := Validate(req); err != nil {
		return nil, err
	}
	user, err := s.users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, internal.ErrNotFound) {
			return nil, internal.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, internal.ErrInvalidCredentials
	}
	return s.tokenFor(user)
}

func (s *AuthService) tokenFor(user *internal.User) (*TokenResponse, error) {
	token, err := s.issuer.IssueToken(user.ID)
	if err != nil {
		return nil, err
	}
	return &TokenResponse{AccessToken: token, TokenType: "bearer", User: user}, nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*internal.User, error) {
	return s.users.GetUserByID(ctx, userID)
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID string, upd *ProfileUpdate) (*internal.User, error) {
	if upd.Name == nil && upd.Conditions == nil {
		return nil, invalid("no fields to update")
	}
	if err := Validate(upd); err != nil {
		return nil, err
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		user.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.Conditions != nil {
		user.Conditions = append([]string{}, *upd.Conditions...)
	}
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
