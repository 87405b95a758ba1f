package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/portfolio/internal/apperr"
	"github.com/Skotchmaster/portfolio/internal/middleware/auth"
	"github.com/Skotchmaster/portfolio/internal/service"
	"github.com/Skotchmaster/portfolio/pkg/db"
	"github.com/Skotchmaster/portfolio/pkg/logging"
)

type SettingsHTTP struct {
	Svc *service.SettingsService
}

func (h *SettingsHTTP) List(c echo.Context) error {
	all, err := h.Svc.All(c.Request().Context())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Settings retrieved", all)
}

func (h *SettingsHTTP) Get(c echo.Context) error {
	s, err := h.Svc.Get(c.Request().Context(), c.Param("key"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Setting retrieved", s)
}

func (h *SettingsHTTP) Put(c echo.Context) error {
	var in service.SettingInput
	if err := c.Bind(&in); err != nil {
		return apperr.New(apperr.ErrValidation, "Invalid request body")
	}
	s, err := h.Svc.Put(c.Request().Context(), c.Param("key"), in)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Setting saved", s)
}

func (h *SettingsHTTP) Delete(c echo.Context) error {
	if err := h.Svc.Delete(c.Request().Context(), c.Param("key")); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Setting deleted", nil)
}

type ContactHTTP struct {
	Svc *service.ContactService
}

func (h *ContactHTTP) Submit(c echo.Context) error {
	var in service.ContactInput
	if err := bind(c, &in); err != nil {
		return err
	}
	msg, err := h.Svc.Submit(c.Request().Context(), in, service.Origin{
		IP:        c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "Message sent", echo.Map{"id": msg.ID})
}

func (h *ContactHTTP) List(c echo.Context) error {
	q, err := listQuery(c)
	if err != nil {
		return err
	}
	page, err := h.Svc.List(c.Request().Context(), service.ContactFilter{ListQuery: q, Status: c.QueryParam("status")})
	if err != nil {
		return err
	}
	return respondPage(c, "Messages retrieved", page)
}

func (h *ContactHTTP) Get(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	msg, err := h.Svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Message retrieved", msg)
}

func (h *ContactHTTP) SetStatus(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var in service.ContactStatusInput
	if err := bind(c, &in); err != nil {
		return err
	}
	msg, err := h.Svc.SetStatus(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Message updated", msg)
}

func (h *ContactHTTP) Delete(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Message deleted", nil)
}

type MediaHTTP struct {
	Svc *service.MediaService
}

func (h *MediaHTTP) Upload(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "media_upload")

	fh, err := c.FormFile("file")
	if err != nil {
		l.Warn("upload_failed", "status", 400, "reason", "missing file field", "error", err)
		return apperr.Invalid("file", "is required")
	}
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	var alt *string
	if v := c.FormValue("alt"); v != "" {
		alt = &v
	}
	m, err := h.Svc.Upload(c.Request().Context(), auth.CurrentUser(c), service.Upload{
		Filename: fh.Filename,
		Body:     f,
		Alt:      alt,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "File uploaded", m)
}

func (h *MediaHTTP) List(c echo.Context) error {
	q, err := listQuery(c)
	if err != nil {
		return err
	}
	page, err := h.Svc.List(c.Request().Context(), service.MediaFilter{ListQuery: q, MimeType: c.QueryParam("mimeType")})
	if err != nil {
		return err
	}
	return respondPage(c, "Media retrieved", page)
}

func (h *MediaHTTP) Get(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	m, err := h.Svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Media retrieved", m)
}

func (h *MediaHTTP) Delete(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Media deleted", nil)
}

type UsersHTTP struct {
	Svc *service.UserAdminService
}

func (h *UsersHTTP) List(c echo.Context) error {
	q, err := listQuery(c)
	if err != nil {
		return err
	}
	page, err := h.Svc.List(c.Request().Context(), service.UserFilter{ListQuery: q, Role: c.QueryParam("role")})
	if err != nil {
		return err
	}
	return respondPage(c, "Users retrieved", page)
}

func (h *UsersHTTP) Get(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	u, err := h.Svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "User retrieved", u)
}

func (h *UsersHTTP) Update(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var in service.UserUpdateInput
	if err := bind(c, &in); err != nil {
		return err
	}
	u, err := h.Svc.Update(c.Request().Context(), auth.CurrentUser(c), id, in)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "User updated", u)
}

func (h *UsersHTTP) Delete(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(c.Request().Context(), auth.CurrentUser(c), id); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "User deleted", nil)
}

type SearchHTTP struct {
	Svc *service.SearchService
}

func (h *SearchHTTP) Search(c echo.Context) error {
	q, err := listQuery(c)
	if err != nil {
		return err
	}
	page, err := h.Svc.Search(c.Request().Context(), service.SearchQuery{
		Q:     c.QueryParam("q"),
		Type:  c.QueryParam("type"),
		Page:  q.Page,
		Limit: q.Limit,
	})
	if err != nil {
		return err
	}
	return respondPage(c, "Search results", page)
}

type HealthHTTP struct {
	DB *gorm.DB
}

func (h *HealthHTTP) Live(c echo.Context) error {
	return respond(c, http.StatusOK, "OK", echo.Map{"status": "live"})
}

func (h *HealthHTTP) Ready(c echo.Context) error {
	if err := db.Ping(c.Request().Context(), h.DB); err != nil {
		logging.FromContext(c.Request().Context()).Error("readiness_failed", "status", 503, "error", err)
		return apperr.Unavailable("Database unavailable")
	}
	return respond(c, http.StatusOK, "OK", echo.Map{"status": "ready"})
}
