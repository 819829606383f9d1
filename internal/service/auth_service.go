package service

import (
	"context"
	"strings"
	"time"

	"docbrief/internal/config"
	"docbrief/internal/model"
	appErr "docbrief/internal/pkg/errors"
	"docbrief/internal/pkg/jwt"
	"docbrief/internal/pkg/password"
	"docbrief/internal/repo"
)

const userCustomIDCounter = "user_custom_id"

type AuthService struct {
	users         *repo.UserRepo
	counters      *repo.CounterRepo
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewAuthService(users *repo.UserRepo, counters *repo.CounterRepo, cfg config.AuthConfig) *AuthService {
	return &AuthService{
		users:         users,
		counters:      counters,
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     time.Duration(cfg.AccessTTLMinutes) * time.Minute,
		refreshTTL:    time.Duration(cfg.RefreshTTLHours) * time.Hour,
	}
}

func (s *AuthService) Signup(ctx context.Context, name, email, plainPassword string) (*model.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || strings.TrimSpace(plainPassword) == "" {
		return nil, appErr.ErrInvalid
	}
	hash, err := password.Hash(plainPassword)
	if err != nil {
		return nil, err
	}
	seq, err := s.counters.Next(ctx, userCustomIDCounter)
	if err != nil {
		return nil, err
	}
	now := time.Now().UnixMilli()
	user := &model.User{
		ID:           newID(),
		CustomID:     formatCustomID(seq),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Ctime:        now,
		Mtime:        now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login returns the user plus a fresh access/refresh pair. Unknown email
// and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, plainPassword string) (*model.User, string, string, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, "", "", appErr.ErrUnauthorized
	}
	if err := password.Compare(user.PasswordHash, plainPassword); err != nil {
		return nil, "", "", appErr.ErrUnauthorized
	}
	access, err := jwt.GenerateToken(user.ID, s.accessSecret, s.accessTTL)
	if err != nil {
		return nil, "", "", err
	}
	refresh, err := jwt.GenerateToken(user.ID, s.refreshSecret, s.refreshTTL)
	if err != nil {
		return nil, "", "", err
	}
	return user, access, refresh, nil
}

// Refresh validates a cookie-borne refresh token and reissues an access
// token. The refresh token itself is not rotated.
func (s *AuthService) Refresh(refreshToken string) (string, error) {
	claims, err := jwt.ParseToken(refreshToken, s.refreshSecret)
	if err != nil {
		return "", appErr.ErrForbidden
	}
	return jwt.GenerateToken(claims.UserID, s.accessSecret, s.accessTTL)
}

// VerifyAccess parses an access token, for routes where identity is
// optional and a bad token downgrades to anonymous instead of failing.
func (s *AuthService) VerifyAccess(token string) (string, error) {
	claims, err := jwt.ParseToken(token, s.accessSecret)
	if err != nil {
		return "", appErr.ErrUnauthorized
	}
	return claims.UserID, nil
}

func (s *AuthService) Profile(ctx context.Context, userID string) (*model.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *AuthService) ChangeName(ctx context.Context, userID, name string) (*model.User, error) {
	name = strings.TrimSpace(name)
	if len(name) < 2 || len(name) > 100 {
		return nil, appErr.ErrInvalid
	}
	if err := s.users.UpdateName(ctx, userID, name, time.Now().UnixMilli()); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, userID)
}

func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return appErr.ErrInvalid
	}
	if len(newPassword) < 6 {
		return appErr.ErrInvalid
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := password.Compare(user.PasswordHash, currentPassword); err != nil {
		return appErr.ErrInvalid
	}
	hash, err := password.Hash(newPassword)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, userID, hash, time.Now().UnixMilli())
}

func (s *AuthService) AccessSecret() []byte {
	return s.accessSecret
}
