package httpserver

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"github.com/Skotchmaster/portfolio/internal/middleware/auth"
	"github.com/Skotchmaster/portfolio/internal/middleware/ratelimit"
	"github.com/Skotchmaster/portfolio/internal/models"
	"github.com/Skotchmaster/portfolio/internal/service"
	"github.com/Skotchmaster/portfolio/internal/telemetry"
	"github.com/Skotchmaster/portfolio/internal/validate"
	loggingmw "github.com/Skotchmaster/portfolio/pkg/middleware/logging"
	metricsmw "github.com/Skotchmaster/portfolio/pkg/middleware/metrics"
)

type Limits struct {
	General ratelimit.Config
	Auth    ratelimit.Config
	Contact ratelimit.Config
}

// multipartOverhead covers boundaries, part headers and the alt field.
const multipartOverhead = 1 << 20

// uploadLimit is the request body cap for media uploads, in echo's size
// notation.
func uploadLimit(maxBytes int64) string {
	if maxBytes <= 0 {
		maxBytes = service.DefaultMediaMaxBytes
	}
	return fmt.Sprintf("%dK", (maxBytes+multipartOverhead+1023)/1024)
}

type Deps struct {
	Log            *slog.Logger
	Production     bool
	AllowedOrigins []string
	ServiceName    string
	Tracing        bool
	Metrics        *metricsmw.Metrics
	Limits         Limits
	MediaMaxBytes  int64

	DB             *gorm.DB
	Guard          *auth.Guard
	Auth           *service.AuthService
	Projects       *service.ProjectService
	Posts          *service.PostService
	Certifications *service.CertificationService
	Experiments    *service.ExperimentService
	Offerings      *service.OfferingService
	Settings       *service.SettingsService
	Contact        *service.ContactService
	Media          *service.MediaService
	Users          *service.UserAdminService
	Search         *service.SearchService
}

// New builds the echo instance with the middleware chain and every route.
func New(d *Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validate.New()
	e.HTTPErrorHandler = ErrorHandler(d.Production)

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.RequestID())
	if d.Tracing {
		e.Use(telemetry.Middleware(d.ServiceName))
	}
	if d.Metrics != nil {
		e.Use(d.Metrics.Middleware())
	}
	e.Use(loggingmw.RequestLogger(d.Log))
	e.Use(middleware.Recover())
	e.Use(middleware.Secure())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     d.AllowedOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization, echo.HeaderXRequestID},
	}))

	Register(e, d)
	return e
}

func Register(e *echo.Echo, d *Deps) {
	health := &HealthHTTP{DB: d.DB}
	e.GET("/health/live", health.Live)
	e.GET("/health/ready", health.Ready)
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}

	api := e.Group("/api")
	if d.Limits.General.Max > 0 {
		api.Use(ratelimit.New(d.Limits.General))
	}

	requireAuth := d.Guard.RequireAuth
	optionalAuth := d.Guard.OptionalAuth
	staff := []echo.MiddlewareFunc{requireAuth, auth.RequireRole(models.RoleAdmin, models.RoleEditor)}
	admin := []echo.MiddlewareFunc{requireAuth, auth.RequireRole(models.RoleAdmin)}

	authH := &AuthHTTP{Svc: d.Auth, Cookies: Cookies{Production: d.Production}}
	authGroup := api.Group("/auth")
	var authLimit []echo.MiddlewareFunc
	if d.Limits.Auth.Max > 0 {
		authLimit = append(authLimit, ratelimit.New(d.Limits.Auth))
	}
	authGroup.POST("/register", authH.Register, authLimit...)
	authGroup.POST("/login", authH.Login, authLimit...)
	authGroup.POST("/refresh", authH.Refresh, authLimit...)
	authGroup.POST("/logout", authH.Logout, requireAuth)
	authGroup.GET("/me", authH.Me, requireAuth)
	authGroup.PATCH("/me", authH.UpdateMe, requireAuth)
	authGroup.POST("/change-password", authH.ChangePassword, requireAuth)

	projects := &ProjectHTTP{Svc: d.Projects}
	g := api.Group("/projects")
	g.GET("", projects.List, optionalAuth)
	g.GET("/:id", projects.Get, optionalAuth)
	g.POST("", projects.Create, staff...)
	g.PUT("/:id", projects.Update, staff...)
	g.PATCH("/:id", projects.Update, staff...)
	g.DELETE("/:id", projects.Delete, staff...)

	posts := &PostHTTP{Svc: d.Posts}
	g = api.Group("/posts")
	g.GET("", posts.List, optionalAuth)
	g.GET("/:id", posts.Get, optionalAuth)
	g.POST("", posts.Create, staff...)
	g.PUT("/:id", posts.Update, staff...)
	g.PATCH("/:id", posts.Update, staff...)
	g.DELETE("/:id", posts.Delete, staff...)

	certs := &CertificationHTTP{Svc: d.Certifications}
	g = api.Group("/certifications")
	g.GET("", certs.List)
	g.GET("/:id", certs.Get)
	g.POST("", certs.Create, staff...)
	g.PUT("/:id", certs.Update, staff...)
	g.PATCH("/:id", certs.Update, staff...)
	g.DELETE("/:id", certs.Delete, staff...)

	experiments := &ExperimentHTTP{Svc: d.Experiments}
	g = api.Group("/experiments")
	g.GET("", experiments.List, optionalAuth)
	g.GET("/:id", experiments.Get, optionalAuth)
	g.POST("", experiments.Create, staff...)
	g.PUT("/:id", experiments.Update, staff...)
	g.PATCH("/:id", experiments.Update, staff...)
	g.DELETE("/:id", experiments.Delete, staff...)

	offerings := &OfferingHTTP{Svc: d.Offerings}
	g = api.Group("/services")
	g.GET("", offerings.List, optionalAuth)
	g.GET("/:id", offerings.Get, optionalAuth)
	g.POST("", offerings.Create, staff...)
	g.PUT("/:id", offerings.Update, staff...)
	g.PATCH("/:id", offerings.Update, staff...)
	g.DELETE("/:id", offerings.Delete, staff...)

	settings := &SettingsHTTP{Svc: d.Settings}
	g = api.Group("/settings")
	g.GET("", settings.List)
	g.GET("/:key", settings.Get)
	g.PUT("/:key", settings.Put, admin...)
	g.DELETE("/:key", settings.Delete, admin...)

	contact := &ContactHTTP{Svc: d.Contact}
	g = api.Group("/contact")
	if d.Limits.Contact.Max > 0 {
		g.POST("", contact.Submit, ratelimit.New(d.Limits.Contact))
	} else {
		g.POST("", contact.Submit)
	}
	g.GET("", contact.List, staff...)
	g.GET("/:id", contact.Get, staff...)
	g.PATCH("/:id", contact.SetStatus, staff...)
	g.DELETE("/:id", contact.Delete, staff...)

	media := &MediaHTTP{Svc: d.Media}
	g = api.Group("/media", staff...)
	g.GET("", media.List)
	g.GET("/:id", media.Get)
	g.POST("", media.Upload, middleware.BodyLimit(uploadLimit(d.MediaMaxBytes)))
	g.DELETE("/:id", media.Delete)

	users := &UsersHTTP{Svc: d.Users}
	g = api.Group("/users", admin...)
	g.GET("", users.List)
	g.GET("/:id", users.Get)
	g.PUT("/:id", users.Update)
	g.PATCH("/:id", users.Update)
	g.DELETE("/:id", users.Delete)

	search := &SearchHTTP{Svc: d.Search}
	api.GET("/search", search.Search)
}
