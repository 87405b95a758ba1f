// Package ratelimit throttles requests per client IP with a sliding window.
package ratelimit

import (
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/portfolio/pkg/logging"
)

const defaultMessage = "Too many requests, please try again later."

type Config struct {
	Name    string
	Max     int
	Window  time.Duration
	Message string
	// BypassLoopback lets 127.0.0.1 and ::1 through unthrottled. Callers
	// must only enable it outside production.
	BypassLoopback bool
}

// New returns an echo middleware that answers 429 with the standard
// envelope once a client exceeds cfg.Max requests per cfg.Window.
func New(cfg Config) echo.MiddlewareFunc {
	msg := cfg.Message
	if msg == "" {
		msg = defaultMessage
	}

	limiter := httprate.Limit(cfg.Max, cfg.Window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			logging.FromContext(r.Context()).Warn("rate_limited", "status", http.StatusTooManyRequests, "limiter", cfg.Name)
			w.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": false,
				"message": msg,
				"data":    nil,
			})
		}),
	)
	wrapped := echo.WrapMiddleware(limiter)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		limited := wrapped(next)
		return func(c echo.Context) error {
			if cfg.BypassLoopback && isLoopback(c.Request().RemoteAddr) {
				return next(c)
			}
			return limited(c)
		}
	}
}

func isLoopback(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
