package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/portfolio/internal/apperr"
	"github.com/Skotchmaster/portfolio/internal/events"
	"github.com/Skotchmaster/portfolio/internal/models"
	pkg_hash "github.com/Skotchmaster/portfolio/pkg/hash"
	"github.com/Skotchmaster/portfolio/pkg/logging"
	"github.com/Skotchmaster/portfolio/pkg/tokens"
)

const msgInvalidCredentials = "Invalid credentials"

type UserStore interface {
	CreateUserIfNotExists(ctx context.Context, u *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	SetRefreshToken(ctx context.Context, id uuid.UUID, token *string) error
	RotateRefreshToken(ctx context.Context, id uuid.UUID, old, next string) (bool, error)
	UpdateUser(ctx context.Context, id uuid.UUID, fields map[string]any) (*models.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string, refreshToken *string) error
}

type TokenIssuer interface {
	IssueAccessToken(id tokens.Identity) (tokens.Issued, error)
	IssueRefreshToken(id tokens.Identity) (tokens.Issued, error)
	VerifyRefreshToken(token string) (*tokens.Claims, error)
}

type AuthService struct {
	Users      UserStore
	Tokens     TokenIssuer
	Events     events.Publisher
	BcryptCost int
}

type TokenPair struct {
	Access  tokens.Issued
	Refresh tokens.Issued
}

type Session struct {
	User   models.PublicUser
	Tokens TokenPair
}

type RegisterInput struct {
	Email    string `json:"email"    validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name"     validate:"required,min=1,max=100"`
}

type LoginInput struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ProfileInput struct {
	Name   *string `json:"name"   validate:"omitempty,min=1,max=100"`
	Avatar *string `json:"avatar" validate:"omitempty,url|len=0"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword"     validate:"required,min=8,max=72"`
}

func identityOf(u *models.User) tokens.Identity {
	return tokens.Identity{UserID: u.ID.String(), Email: u.Email, Role: string(u.Role)}
}

func (s *AuthService) issuePair(u *models.User) (TokenPair, error) {
	access, err := s.Tokens.IssueAccessToken(identityOf(u))
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.Tokens.IssueRefreshToken(identityOf(u))
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	pwHash, err := pkg_hash.HashPassword(in.Password, s.BcryptCost)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := models.User{
		Base:         models.Base{ID: uuid.New()},
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: pwHash,
		Name:         strings.TrimSpace(in.Name),
		Role:         models.RoleEditor,
	}
	pair, err := s.issuePair(&user)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot issue tokens", "error", err)
		return nil, err
	}
	user.CurrentRefreshToken = &pair.Refresh.Token

	if err := s.Users.CreateUserIfNotExists(ctx, &user); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			l.Warn("register_failed", "status", 409, "reason", "email already registered")
			return nil, apperr.Conflict("Email already registered")
		}
		l.Error("register_error", "status", 500, "error", err)
		return nil, err
	}

	l.Info("user_registered", "user_id", user.ID.String())
	events.Emit(ctx, s.Events, l, events.TopicUsers, user.ID.String(), events.Event{
		Type: "user_registered",
		ID:   user.ID.String(),
		Data: map[string]any{"email": user.Email, "role": user.Role},
	})
	return &Session{User: user.Public(), Tokens: pair}, nil
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	user, err := s.Users.FindUserByEmail(ctx, strings.TrimSpace(in.Email))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			pkg_hash.BurnCompare(in.Password, s.BcryptCost)
			l.Warn("login_failed", "status", 401, "reason", "unknown email")
			return nil, apperr.Unauthorized(msgInvalidCredentials)
		}
		l.Error("login_error", "status", 500, "error", err)
		return nil, err
	}
	if !pkg_hash.CheckPassword(user.PasswordHash, in.Password) {
		l.Warn("login_failed", "status", 401, "reason", "wrong password", "user_id", user.ID.String())
		return nil, apperr.Unauthorized(msgInvalidCredentials)
	}

	pair, err := s.issuePair(user)
	if err != nil {
		l.Error("login_error", "status", 500, "reason", "cannot issue tokens", "error", err)
		return nil, err
	}
	if err := s.Users.SetRefreshToken(ctx, user.ID, &pair.Refresh.Token); err != nil {
		l.Error("login_error", "status", 500, "reason", "cannot store refresh token", "error", err)
		return nil, err
	}

	l.Info("user_logged_in", "user_id", user.ID.String())
	events.Emit(ctx, s.Events, l, events.TopicUsers, user.ID.String(), events.Event{
		Type: "user_logged_in",
		ID:   user.ID.String(),
	})
	return &Session{User: user.Public(), Tokens: pair}, nil
}

// Refresh exchanges a live refresh token for a new pair. The presented token
// must equal the one stored on the user row; the swap to the new token only
// succeeds if no other request replaced it in between.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	if refreshToken == "" {
		l.Warn("refresh_failed", "status", 401, "reason", "missing refresh token")
		return nil, apperr.Unauthorized("Refresh token required")
	}
	claims, err := s.Tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		reason := "invalid refresh token"
		if errors.Is(err, tokens.ErrTokenExpired) {
			reason = "refresh token expired"
		}
		l.Warn("refresh_failed", "status", 401, "reason", reason)
		return nil, apperr.Unauthorized("Invalid refresh token")
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		l.Warn("refresh_failed", "status", 401, "reason", "malformed subject")
		return nil, apperr.Unauthorized("Invalid refresh token")
	}

	user, err := s.Users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			l.Warn("refresh_failed", "status", 401, "reason", "user no longer exists", "user_id", claims.UserID)
			return nil, apperr.Unauthorized("Invalid refresh token")
		}
		return nil, err
	}
	if user.CurrentRefreshToken == nil || *user.CurrentRefreshToken != refreshToken {
		l.Warn("refresh_failed", "status", 401, "reason", "refresh token is not current", "user_id", claims.UserID)
		return nil, apperr.Unauthorized("Invalid refresh token")
	}

	pair, err := s.issuePair(user)
	if err != nil {
		l.Error("refresh_error", "status", 500, "reason", "cannot issue tokens", "error", err)
		return nil, err
	}
	swapped, err := s.Users.RotateRefreshToken(ctx, user.ID, refreshToken, pair.Refresh.Token)
	if err != nil {
		l.Error("refresh_error", "status", 500, "reason", "cannot rotate refresh token", "error", err)
		return nil, err
	}
	if !swapped {
		l.Warn("refresh_failed", "status", 401, "reason", "concurrent rotation", "user_id", claims.UserID)
		return nil, apperr.Unauthorized("Invalid refresh token")
	}

	l.Info("token_refreshed", "user_id", claims.UserID)
	return &pair, nil
}

// Logout clears the stored refresh token. Calling it twice is harmless.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout", "user_id", userID.String())
	if err := s.Users.SetRefreshToken(ctx, userID, nil); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil
		}
		l.Error("logout_error", "status", 500, "error", err)
		return err
	}
	l.Info("user_logged_out")
	return nil
}

func (s *AuthService) Profile(ctx context.Context, userID uuid.UUID) (models.PublicUser, error) {
	user, err := s.Users.GetUserByID(ctx, userID)
	if err != nil {
		return models.PublicUser{}, err
	}
	return user.Public(), nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, in ProfileInput) (models.PublicUser, error) {
	fields := map[string]any{}
	if in.Name != nil {
		fields["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Avatar != nil {
		if *in.Avatar == "" {
			fields["avatar"] = nil
		} else {
			fields["avatar"] = *in.Avatar
		}
	}
	user, err := s.Users.UpdateUser(ctx, userID, fields)
	if err != nil {
		return models.PublicUser{}, err
	}
	return user.Public(), nil
}

// ChangePassword verifies the current password, stores the new hash and
// starts a fresh session, revoking every other one.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, in ChangePasswordInput) (*Session, error) {
	l := logging.FromContext(ctx).With("svc", "auth.change_password", "user_id", userID.String())

	user, err := s.Users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !pkg_hash.CheckPassword(user.PasswordHash, in.CurrentPassword) {
		l.Warn("change_password_failed", "status", 401, "reason", "wrong current password")
		return nil, apperr.Unauthorized("Current password is incorrect")
	}
	pwHash, err := pkg_hash.HashPassword(in.NewPassword, s.BcryptCost)
	if err != nil {
		return nil, err
	}
	pair, err := s.issuePair(user)
	if err != nil {
		return nil, err
	}
	if err := s.Users.UpdatePassword(ctx, user.ID, pwHash, &pair.Refresh.Token); err != nil {
		l.Error("change_password_error", "status", 500, "error", err)
		return nil, err
	}
	l.Info("password_changed")
	return &Session{User: user.Public(), Tokens: pair}, nil
}
