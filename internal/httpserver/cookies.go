package httpserver

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/portfolio/internal/middleware/auth"
	"github.com/Skotchmaster/portfolio/internal/service"
	"github.com/Skotchmaster/portfolio/pkg/tokens"
)

// Cookies builds the session cookies. Production cookies are Secure and
// SameSite=Strict; elsewhere they are Lax so plain-http dev setups work.
type Cookies struct {
	Production bool
}

func (k Cookies) sameSite() http.SameSite {
	if k.Production {
		return http.SameSiteStrictMode
	}
	return http.SameSiteLaxMode
}

func (k Cookies) create(name string, t tokens.Issued) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    t.Token,
		Path:     "/",
		Expires:  t.ExpiresAt,
		MaxAge:   int(t.TTL / time.Second),
		HttpOnly: true,
		Secure:   k.Production,
		SameSite: k.sameSite(),
	}
}

func (k Cookies) delete(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   k.Production,
		SameSite: k.sameSite(),
	}
}

func (k Cookies) Set(c echo.Context, pair service.TokenPair) {
	c.SetCookie(k.create(auth.AccessCookie, pair.Access))
	c.SetCookie(k.create(auth.RefreshCookie, pair.Refresh))
}

func (k Cookies) Clear(c echo.Context) {
	c.SetCookie(k.delete(auth.AccessCookie))
	c.SetCookie(k.delete(auth.RefreshCookie))
}
