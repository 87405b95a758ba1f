package ratelimit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(cfg Config) *echo.Echo {
	e := echo.New()
	e.GET("/", func(c echo.Context) error { return c.String(http.StatusOK, "ok") }, New(cfg))
	return e
}

func hit(e *echo.Echo, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remote
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestLimit_BlocksAfterMax(t *testing.T) {
	e := newServer(Config{Name: "auth", Max: 2, Window: time.Minute, Message: "Too many attempts"})

	assert.Equal(t, http.StatusOK, hit(e, "203.0.113.1:1000").Code)
	assert.Equal(t, http.StatusOK, hit(e, "203.0.113.1:1001").Code)

	rec := hit(e, "203.0.113.1:1002")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Too many attempts", body["message"])

	assert.Equal(t, http.StatusOK, hit(e, "198.51.100.7:1000").Code, "other clients have their own budget")
}

func TestLimit_LoopbackBypass(t *testing.T) {
	on := newServer(Config{Max: 1, Window: time.Minute, BypassLoopback: true})
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, hit(on, "127.0.0.1:4000").Code)
		assert.Equal(t, http.StatusOK, hit(on, "[::1]:4000").Code)
	}
	assert.Equal(t, http.StatusOK, hit(on, "203.0.113.5:1").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(on, "203.0.113.5:2").Code)

	off := newServer(Config{Max: 1, Window: time.Minute})
	assert.Equal(t, http.StatusOK, hit(off, "127.0.0.1:4000").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(off, "127.0.0.1:4000").Code)
}
