package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/portfolio/internal/middleware/auth"
	"github.com/Skotchmaster/portfolio/internal/service"
)

type ProjectHTTP struct {
	Svc *service.ProjectService
}

func (h *ProjectHTTP) List(c echo.Context) error {
	q, err := listQuery(c)
	if err != nil {
		return err
	}
	featured, err := boolQuery(c, "featured")
	if err != nil {
		return err
	}
	page, err := h.Svc.List(c.Request().Context(), auth.CurrentUser(c), service.ProjectFilter{
		ListQuery: q,
		Status:    c.QueryParam("status"),
		Category:  c.QueryParam("category"),
		Featured:  featured,
	})
	if err != nil {
		return err
	}
	return respondPage(c, "Projects retrieved", page)
}

func (h *ProjectHTTP) Get(c echo.Context) error {
	p, err := h.Svc.Get(c.Request().Context(), auth.CurrentUser(c), c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Project retrieved", p)
}

func (h *ProjectHTTP) Create(c echo.Context) error {
	var in service.ProjectInput
	if err := bind(c, &in); err != nil {
		return err
	}
	p, err := h.Svc.Create(c.Request().Context(), auth.CurrentUser(c), in)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "Project created", p)
}

func (h *ProjectHTTP) Update(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var in service.ProjectInput
	if err := bind(c, &in); err != nil {
		return err
	}
	p, err := h.Svc.Update(c.Request().Context(), auth.CurrentUser(c), id, in)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Project updated", p)
}

func (h *ProjectHTTP) Delete(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(c.Request().Context(), auth.CurrentUser(c), id); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Project deleted", nil)
}

type PostHTTP struct {
	Svc *service.PostService
}

func (h *PostHTTP) List(c echo.Context) error {
	q, err := listQuery(c)
	if err != nil {
		return err
	}
	featured, err := boolQuery(c, "featured")
	if err != nil {
		return err
	}
	page, err := h.Svc.List(c.Request().Context(), auth.CurrentUser(c), service.PostFilter{
		ListQuery: q,
		Status:    c.QueryParam("status"),
		Tag:       c.QueryParam("tag"),
		Featured:  featured,
	})
	if err != nil {
		return err
	}
	return respondPage(c, "Posts retrieved", page)
}

func (h *PostHTTP) Get(c echo.Context) error {
	p, err := h.Svc.Get(c.Request().Context(), auth.CurrentUser(c), c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Post retrieved", p)
}

func (h *PostHTTP) Create(c echo.Context) error {
	var in service.PostInput
	if err := bind(c, &in); err != nil {
		return err
	}
	p, err := h.Svc.Create(c.Request().Context(), auth.CurrentUser(c), in)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "Post created", p)
}

func (h *PostHTTP) Update(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var in service.PostInput
	if err := bind(c, &in); err != nil {
		return err
	}
	p, err := h.Svc.Update(c.Request().Context(), auth.CurrentUser(c), id, in)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Post updated", p)
}

func (h *PostHTTP) Delete(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(c.Request().Context(), auth.CurrentUser(c), id); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Post deleted", nil)
}

type CertificationHTTP struct {
	Svc *service.CertificationService
}

func (h *CertificationHTTP) List(c echo.Context) error {
	q, err := listQuery(c)
	if err != nil {
		return err
	}
	featured, err := boolQuery(c, "featured")
	if err != nil {
		return err
	}
	page, err := h.Svc.List(c.Request().Context(), service.CertificationFilter{
		ListQuery: q,
		Issuer:    c.QueryParam("issuer"),
		Featured:  featured,
	})
	if err != nil {
		return err
	}
	return respondPage(c, "Certifications retrieved", page)
}

func (h *CertificationHTTP) Get(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	cert, err := h.Svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Certification retrieved", cert)
}

func (h *CertificationHTTP) Create(c echo.Context) error {
	var in service.CertificationInput
	if err := bind(c, &in); err != nil {
		return err
	}
	cert, err := h.Svc.Create(c.Request().Context(), auth.CurrentUser(c), in)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "Certification created", cert)
}

func (h *CertificationHTTP) Update(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var in service.CertificationInput
	if err := bind(c, &in); err != nil {
		return err
	}
	cert, err := h.Svc.Update(c.Request().Context(), auth.CurrentUser(c), id, in)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Certification updated", cert)
}

func (h *CertificationHTTP) Delete(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(c.Request().Context(), auth.CurrentUser(c), id); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Certification deleted", nil)
}

type ExperimentHTTP struct {
	Svc *service.ExperimentService
}

func (h *ExperimentHTTP) List(c echo.Context) error {
	q, err := listQuery(c)
	if err != nil {
		return err
	}
	featured, err := boolQuery(c, "featured")
	if err != nil {
		return err
	}
	page, err := h.Svc.List(c.Request().Context(), auth.CurrentUser(c), service.ExperimentFilter{
		ListQuery: q,
		Status:    c.QueryParam("status"),
		Tag:       c.QueryParam("tag"),
		Featured:  featured,
	})
	if err != nil {
		return err
	}
	return respondPage(c, "Experiments retrieved", page)
}

func (h *ExperimentHTTP) Get(c echo.Context) error {
	e, err := h.Svc.Get(c.Request().Context(), auth.CurrentUser(c), c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Experiment retrieved", e)
}

func (h *ExperimentHTTP) Create(c echo.Context) error {
	var in service.ExperimentInput
	if err := bind(c, &in); err != nil {
		return err
	}
	e, err := h.Svc.Create(c.Request().Context(), auth.CurrentUser(c), in)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "Experiment created", e)
}

func (h *ExperimentHTTP) Update(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var in service.ExperimentInput
	if err := bind(c, &in); err != nil {
		return err
	}
	e, err := h.Svc.Update(c.Request().Context(), auth.CurrentUser(c), id, in)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Experiment updated", e)
}

func (h *ExperimentHTTP) Delete(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(c.Request().Context(), auth.CurrentUser(c), id); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Experiment deleted", nil)
}

type OfferingHTTP struct {
	Svc *service.OfferingService
}

func (h *OfferingHTTP) List(c echo.Context) error {
	q, err := listQuery(c)
	if err != nil {
		return err
	}
	active, err := boolQuery(c, "active")
	if err != nil {
		return err
	}
	page, err := h.Svc.List(c.Request().Context(), auth.CurrentUser(c), service.OfferingFilter{ListQuery: q, Active: active})
	if err != nil {
		return err
	}
	return respondPage(c, "Services retrieved", page)
}

func (h *OfferingHTTP) Get(c echo.Context) error {
	o, err := h.Svc.Get(c.Request().Context(), auth.CurrentUser(c), c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Service retrieved", o)
}

func (h *OfferingHTTP) Create(c echo.Context) error {
	var in service.OfferingInput
	if err := bind(c, &in); err != nil {
		return err
	}
	o, err := h.Svc.Create(c.Request().Context(), auth.CurrentUser(c), in)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "Service created", o)
}

func (h *OfferingHTTP) Update(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var in service.OfferingInput
	if err := bind(c, &in); err != nil {
		return err
	}
	o, err := h.Svc.Update(c.Request().Context(), auth.CurrentUser(c), id, in)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Service updated", o)
}

func (h *OfferingHTTP) Delete(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(c.Request().Context(), auth.CurrentUser(c), id); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Service deleted", nil)
}
