package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/portfolio/internal/events"
	"github.com/Skotchmaster/portfolio/internal/middleware/auth"
	"github.com/Skotchmaster/portfolio/internal/migrations"
	"github.com/Skotchmaster/portfolio/internal/models"
	"github.com/Skotchmaster/portfolio/internal/repo"
	"github.com/Skotchmaster/portfolio/internal/service"
	"github.com/Skotchmaster/portfolio/internal/storage"
	"github.com/Skotchmaster/portfolio/pkg/db"
	"github.com/Skotchmaster/portfolio/pkg/hash"
	"github.com/Skotchmaster/portfolio/pkg/logging"
	"github.com/Skotchmaster/portfolio/pkg/tokens"
)

const testMediaMax = 64 << 10

type testServer struct {
	e    *echo.Echo
	repo *repo.GormRepo
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	gdb, err := db.Open(ctx, db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })
	require.NoError(t, migrations.AutoMigrate(ctx, gdb))

	codec, err := tokens.NewCodec(tokens.Config{
		AccessSecret:  []byte("test-access-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
	})
	require.NoError(t, err)

	r := repo.New(gdb)
	pub := &events.Recorder{}
	settings := &service.SettingsService{Store: r}

	e := New(&Deps{
		Log:            logging.Discard(),
		AllowedOrigins: []string{"http://localhost:3000"},
		MediaMaxBytes:  testMediaMax,
		DB:             gdb,
		Guard:          auth.NewGuard(codec, r),
		Auth:           &service.AuthService{Users: r, Tokens: codec, Events: pub, BcryptCost: bcrypt.MinCost},
		Projects:       &service.ProjectService{Store: r.Projects(), Events: pub},
		Posts:          &service.PostService{Store: r.Posts(), Events: pub},
		Certifications: &service.CertificationService{Store: r.Certifications(), Events: pub},
		Experiments:    &service.ExperimentService{Store: r.Experiments(), Events: pub},
		Offerings:      &service.OfferingService{Store: r.Offerings(), Events: pub},
		Settings:       settings,
		Contact:        &service.ContactService{Store: r.Contacts(), Events: pub},
		Media:          &service.MediaService{Store: r.Media(), Objects: storage.NewMemoryStore("http://cdn.test"), MaxBytes: testMediaMax},
		Users:          &service.UserAdminService{Store: r.Users(), Users: r},
		Search:         &service.SearchService{Posts: r.Posts(), Projects: r.Projects()},
	})
	return &testServer{e: e, repo: r}
}

type call struct {
	method  string
	path    string
	body    string
	cookies []*http.Cookie
	bearer  string
}

func (s *testServer) do(t *testing.T, c call) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()
	var req *http.Request
	if c.body != "" {
		req = httptest.NewRequest(c.method, c.path, strings.NewReader(c.body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(c.method, c.path, nil)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	if c.bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+c.bearer)
	}

	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var env Envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func cookieByName(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func dataMap(t *testing.T, env Envelope) map[string]any {
	t.Helper()
	m, ok := env.Data.(map[string]any)
	require.True(t, ok, "data is %T", env.Data)
	return m
}

func (s *testServer) register(t *testing.T, email string) (access string, refresh *http.Cookie) {
	t.Helper()
	rec, env := s.do(t, call{
		method: http.MethodPost,
		path:   "/api/auth/register",
		body:   `{"email":"` + email + `","password":"password123","name":"Tester"}`,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.True(t, env.Success)
	return dataMap(t, env)["accessToken"].(string), cookieByName(rec, auth.RefreshCookie)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, call{method: http.MethodGet, path: "/health/live"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	rec, _ = s.do(t, call{method: http.MethodGet, path: "/health/ready"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthFlow_RegisterLoginRefreshLogout(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, call{
		method: http.MethodPost,
		path:   "/api/auth/register",
		body:   `{"email":"Alice@Example.com","password":"password123","name":"Alice"}`,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	user := dataMap(t, env)["user"].(map[string]any)
	assert.Equal(t, "Alice@Example.com", user["email"])
	assert.Equal(t, "EDITOR", user["role"])
	assert.NotContains(t, rec.Body.String(), "password")

	access := cookieByName(rec, auth.AccessCookie)
	require.NotNil(t, access)
	assert.True(t, access.HttpOnly)
	assert.Equal(t, "/", access.Path)
	assert.Equal(t, http.SameSiteLaxMode, access.SameSite)
	assert.False(t, access.Secure)
	assert.Equal(t, int((15 * time.Minute).Seconds()), access.MaxAge)

	// emails match exactly as stored
	rec, _ = s.do(t, call{
		method: http.MethodPost,
		path:   "/api/auth/login",
		body:   `{"email":"alice@example.com","password":"password123"}`,
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, env = s.do(t, call{
		method: http.MethodPost,
		path:   "/api/auth/login",
		body:   `{"email":"Alice@Example.com","password":"password123"}`,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Login successful", env.Message)
	loginRefresh := cookieByName(rec, auth.RefreshCookie)
	require.NotNil(t, loginRefresh)

	rec, _ = s.do(t, call{method: http.MethodGet, path: "/api/auth/me", cookies: []*http.Cookie{cookieByName(rec, auth.AccessCookie)}})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = s.do(t, call{method: http.MethodPost, path: "/api/auth/refresh", cookies: []*http.Cookie{loginRefresh}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rotated := cookieByName(rec, auth.RefreshCookie)
	require.NotNil(t, rotated)
	assert.NotEqual(t, loginRefresh.Value, rotated.Value)
	assert.Equal(t, rotated.Value, dataMap(t, env)["refreshToken"])

	// the token that was just rotated away is dead
	rec, env = s.do(t, call{method: http.MethodPost, path: "/api/auth/refresh", cookies: []*http.Cookie{loginRefresh}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, env.Success)
	cleared := cookieByName(rec, auth.RefreshCookie)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Less(t, cleared.MaxAge, 0)
}

func TestAuthFlow_RefreshFromBodyAndLogout(t *testing.T) {
	s := newTestServer(t)
	access, refresh := s.register(t, "bob@example.com")
	require.NotNil(t, refresh)

	rec, env := s.do(t, call{
		method: http.MethodPost,
		path:   "/api/auth/refresh",
		body:   `{"refreshToken":"` + refresh.Value + `"}`,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	next := dataMap(t, env)["refreshToken"].(string)

	rec, _ = s.do(t, call{method: http.MethodPost, path: "/api/auth/logout", bearer: access})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, cookieByName(rec, auth.AccessCookie).Value)

	rec, _ = s.do(t, call{
		method: http.MethodPost,
		path:   "/api/auth/refresh",
		body:   `{"refreshToken":"` + next + `"}`,
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_LoginFailuresLookAlike(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "carol@example.com")

	recWrong, envWrong := s.do(t, call{
		method: http.MethodPost,
		path:   "/api/auth/login",
		body:   `{"email":"carol@example.com","password":"nope-nope"}`,
	})
	recMissing, envMissing := s.do(t, call{
		method: http.MethodPost,
		path:   "/api/auth/login",
		body:   `{"email":"nobody@example.com","password":"nope-nope"}`,
	})

	assert.Equal(t, http.StatusUnauthorized, recWrong.Code)
	assert.Equal(t, recWrong.Code, recMissing.Code)
	assert.Equal(t, envWrong.Message, envMissing.Message)
}

func TestErrors_Envelope(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, call{method: http.MethodPost, path: "/api/auth/register", body: `{"email":"bad","password":"x","name":""}`})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Validation failed", env.Message)
	assert.Nil(t, env.Data)
	fields := map[string]bool{}
	for _, f := range env.Errors {
		fields[f.Field] = true
	}
	assert.True(t, fields["email"])
	assert.True(t, fields["password"])

	rec, env = s.do(t, call{method: http.MethodPost, path: "/api/auth/register", body: `{"email":`})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body", env.Message)

	rec, env = s.do(t, call{method: http.MethodGet, path: "/api/nowhere"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, env.Success)

	rec, _ = s.do(t, call{method: http.MethodGet, path: "/api/projects/does-not-exist"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env = s.do(t, call{method: http.MethodGet, path: "/api/auth/me"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Authentication required", env.Message)
}

func TestRoleGates(t *testing.T) {
	s := newTestServer(t)
	editor, _ := s.register(t, "editor@example.com")

	pw, err := hash.HashPassword("password123", bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, s.repo.CreateUserIfNotExists(context.Background(), &models.User{
		Email: "admin@example.com", PasswordHash: pw, Name: "Admin", Role: models.RoleAdmin,
	}))
	rec, env := s.do(t, call{method: http.MethodPost, path: "/api/auth/login", body: `{"email":"admin@example.com","password":"password123"}`})
	require.Equal(t, http.StatusOK, rec.Code)
	admin := dataMap(t, env)["accessToken"].(string)

	// anonymous writes are rejected before role checks
	rec, _ = s.do(t, call{method: http.MethodPost, path: "/api/projects", body: `{"title":"X"}`})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, env = s.do(t, call{method: http.MethodPost, path: "/api/projects", bearer: editor, body: `{"title":"Rate Limiter","status":"PUBLISHED"}`})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "rate-limiter", dataMap(t, env)["slug"])

	rec, env = s.do(t, call{method: http.MethodGet, path: "/api/projects/rate-limiter"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Rate Limiter", dataMap(t, env)["title"])

	rec, env = s.do(t, call{method: http.MethodGet, path: "/api/users", bearer: editor})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Insufficient permissions", env.Message)

	rec, env = s.do(t, call{method: http.MethodGet, path: "/api/users?limit=10", bearer: admin})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, env.Meta)
	assert.EqualValues(t, 2, env.Meta.Total)
	assert.Equal(t, 10, env.Meta.Limit)

	rec, _ = s.do(t, call{method: http.MethodPut, path: "/api/settings/site_title", bearer: editor, body: `{"value":"Mine"}`})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec, _ = s.do(t, call{method: http.MethodPut, path: "/api/settings/site_title", bearer: admin, body: `{"value":"Mine"}`})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = s.do(t, call{method: http.MethodGet, path: "/api/settings"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Mine", dataMap(t, env)["site_title"])
}

func TestContact_PublicSubmitStaffRead(t *testing.T) {
	s := newTestServer(t)
	editor, _ := s.register(t, "staff@example.com")

	rec, env := s.do(t, call{
		method: http.MethodPost,
		path:   "/api/contact",
		body:   `{"name":"Visitor","email":"v@example.com","subject":"Hi","message":"I would like to talk about a project."}`,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotEmpty(t, dataMap(t, env)["id"])

	rec, _ = s.do(t, call{method: http.MethodGet, path: "/api/contact"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, env = s.do(t, call{method: http.MethodGet, path: "/api/contact", bearer: editor})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, env.Meta.Total)
}

func TestProductionErrorsHideDetail(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(true)
	e.GET("/boom", func(echo.Context) error { return assert.AnError })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "Internal server error", env.Message)
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
}

func TestCookies_ProductionAttributes(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	exp := time.Now().Add(time.Hour).Truncate(time.Second).UTC()
	Cookies{Production: true}.Set(c, service.TokenPair{
		Access:  tokens.Issued{Token: "a", ExpiresAt: exp, TTL: time.Hour},
		Refresh: tokens.Issued{Token: "r", ExpiresAt: exp, TTL: time.Hour},
	})

	for _, name := range []string{auth.AccessCookie, auth.RefreshCookie} {
		ck := cookieByName(rec, name)
		require.NotNil(t, ck, name)
		assert.True(t, ck.Secure)
		assert.True(t, ck.HttpOnly)
		assert.Equal(t, http.SameSiteStrictMode, ck.SameSite)
		assert.Equal(t, 3600, ck.MaxAge)
	}
}

func TestMedia_OversizedBodyRejectedBeforeParsing(t *testing.T) {
	s := newTestServer(t)
	editor, _ := s.register(t, "uploader@example.com")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "huge.png")
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte{0}, testMediaMax+multipartOverhead+1))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/media", &body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+editor)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code, rec.Body.String())
	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.False(t, env.Success)
}

func TestUploadLimit(t *testing.T) {
	assert.Equal(t, "1088K", uploadLimit(64<<10))
	assert.Equal(t, "6144K", uploadLimit(0))
}
