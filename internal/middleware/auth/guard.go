// Package auth resolves the caller from an access token and gates routes by
// role.
package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/portfolio/internal/apperr"
	"github.com/Skotchmaster/portfolio/internal/models"
	"github.com/Skotchmaster/portfolio/pkg/logging"
	"github.com/Skotchmaster/portfolio/pkg/tokens"
)

const (
	AccessCookie  = "accessToken"
	RefreshCookie = "refreshToken"

	userKey = "user"
)

type ctxKey struct{}

type TokenVerifier interface {
	VerifyAccessToken(token string) (*tokens.Claims, error)
}

type UserLookup interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type Guard struct {
	Tokens TokenVerifier
	Users  UserLookup
}

func NewGuard(t TokenVerifier, u UserLookup) *Guard {
	return &Guard{Tokens: t, Users: u}
}

// RequireAuth rejects the request unless it carries a valid access token for
// a user that still exists.
func (g *Guard) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, err := g.authenticate(c)
		if err != nil {
			return err
		}
		attach(c, user)
		return next(c)
	}
}

// OptionalAuth attaches the user when the credential checks out and lets the
// request through anonymously otherwise.
func (g *Guard) OptionalAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if credential(c) == "" {
			return next(c)
		}
		user, err := g.authenticate(c)
		if err != nil {
			logging.FromContext(c.Request().Context()).Debug("optional_auth_ignored", "reason", err.Error())
			return next(c)
		}
		attach(c, user)
		return next(c)
	}
}

func (g *Guard) authenticate(c echo.Context) (*models.User, error) {
	l := logging.FromContext(c.Request().Context())

	raw := credential(c)
	if raw == "" {
		return nil, apperr.Unauthorized("Authentication required")
	}
	claims, err := g.Tokens.VerifyAccessToken(raw)
	if err != nil {
		reason := "invalid access token"
		if errors.Is(err, tokens.ErrTokenExpired) {
			reason = "access token expired"
		}
		l.Debug("auth_failed", "status", 401, "reason", reason)
		return nil, apperr.Unauthorized("Invalid or expired token")
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired token")
	}

	user, err := g.Users.GetUserByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			l.Warn("auth_failed", "status", 401, "reason", "user no longer exists", "user_id", claims.UserID)
			return nil, apperr.Unauthorized("User no longer exists")
		}
		return nil, err
	}
	return user, nil
}

// credential prefers the accessToken cookie over an Authorization header.
func credential(c echo.Context) string {
	if ck, err := c.Cookie(AccessCookie); err == nil && ck.Value != "" {
		return ck.Value
	}
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func attach(c echo.Context, u *models.User) {
	c.Set(userKey, u)
	req := c.Request()
	ctx := WithUser(req.Context(), u)
	ctx = logging.IntoContext(ctx, logging.FromContext(ctx).With("user_id", u.ID.String()))
	c.SetRequest(req.WithContext(ctx))
}

// RequireRole must run after RequireAuth.
func RequireRole(roles ...models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u := CurrentUser(c)
			if u == nil {
				return apperr.Unauthorized("Authentication required")
			}
			for _, r := range roles {
				if u.Role == r {
					return next(c)
				}
			}
			logging.FromContext(c.Request().Context()).Warn("access_denied", "status", 403, "role", string(u.Role))
			return apperr.Forbidden("Insufficient permissions")
		}
	}
}

// CurrentUser returns the authenticated user or nil for anonymous requests.
func CurrentUser(c echo.Context) *models.User {
	if u, ok := c.Get(userKey).(*models.User); ok {
		return u
	}
	return nil
}

func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

func UserFromContext(ctx context.Context) *models.User {
	u, _ := ctx.Value(ctxKey{}).(*models.User)
	return u
}
