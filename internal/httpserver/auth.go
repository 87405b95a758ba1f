package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/portfolio/internal/middleware/auth"
	"github.com/Skotchmaster/portfolio/internal/models"
	"github.com/Skotchmaster/portfolio/internal/service"
	"github.com/Skotchmaster/portfolio/pkg/logging"
)

type AuthHTTP struct {
	Svc     *service.AuthService
	Cookies Cookies
}

type sessionResponse struct {
	User         models.PublicUser `json:"user"`
	AccessToken  string            `json:"accessToken"`
	RefreshToken string            `json:"refreshToken"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func newSessionResponse(s *service.Session) sessionResponse {
	return sessionResponse{User: s.User, AccessToken: s.Tokens.Access.Token, RefreshToken: s.Tokens.Refresh.Token}
}

func (h *AuthHTTP) Register(c echo.Context) error {
	var in service.RegisterInput
	if err := bind(c, &in); err != nil {
		return err
	}
	s, err := h.Svc.Register(c.Request().Context(), in)
	if err != nil {
		return err
	}
	h.Cookies.Set(c, s.Tokens)
	return respond(c, http.StatusCreated, "Registration successful", newSessionResponse(s))
}

func (h *AuthHTTP) Login(c echo.Context) error {
	var in service.LoginInput
	if err := bind(c, &in); err != nil {
		return err
	}
	s, err := h.Svc.Login(c.Request().Context(), in)
	if err != nil {
		return err
	}
	h.Cookies.Set(c, s.Tokens)
	return respond(c, http.StatusOK, "Login successful", newSessionResponse(s))
}

// Refresh takes the refresh token from its cookie, or from a JSON body for
// clients that do not keep cookies.
func (h *AuthHTTP) Refresh(c echo.Context) error {
	token := ""
	if ck, err := c.Cookie(auth.RefreshCookie); err == nil {
		token = ck.Value
	}
	if token == "" {
		var body refreshRequest
		if err := c.Bind(&body); err == nil {
			token = body.RefreshToken
		}
	}

	pair, err := h.Svc.Refresh(c.Request().Context(), token)
	if err != nil {
		h.Cookies.Clear(c)
		return err
	}
	h.Cookies.Set(c, *pair)
	return respond(c, http.StatusOK, "Token refreshed", echo.Map{
		"accessToken":  pair.Access.Token,
		"refreshToken": pair.Refresh.Token,
	})
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	u := auth.CurrentUser(c)
	if err := h.Svc.Logout(c.Request().Context(), u.ID); err != nil {
		return err
	}
	h.Cookies.Clear(c)
	return respond(c, http.StatusOK, "Logged out", nil)
}

func (h *AuthHTTP) Me(c echo.Context) error {
	u, err := h.Svc.Profile(c.Request().Context(), auth.CurrentUser(c).ID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Profile retrieved", u)
}

func (h *AuthHTTP) UpdateMe(c echo.Context) error {
	var in service.ProfileInput
	if err := bind(c, &in); err != nil {
		return err
	}
	u, err := h.Svc.UpdateProfile(c.Request().Context(), auth.CurrentUser(c).ID, in)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Profile updated", u)
}

func (h *AuthHTTP) ChangePassword(c echo.Context) error {
	var in service.ChangePasswordInput
	if err := bind(c, &in); err != nil {
		return err
	}
	s, err := h.Svc.ChangePassword(c.Request().Context(), auth.CurrentUser(c).ID, in)
	if err != nil {
		return err
	}
	h.Cookies.Set(c, s.Tokens)
	logging.FromContext(c.Request().Context()).Info("session_replaced", "reason", "password changed")
	return respond(c, http.StatusOK, "Password changed", newSessionResponse(s))
}
