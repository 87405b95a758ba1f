package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/Skotchmaster/portfolio/internal/events"
	"github.com/Skotchmaster/portfolio/internal/models"
	"github.com/Skotchmaster/portfolio/internal/repo"
	"github.com/Skotchmaster/portfolio/internal/slugs"
	"github.com/Skotchmaster/portfolio/pkg/logging"
)

const kindService = "service"

// OfferingService manages the services the site owner offers.
type OfferingService struct {
	Store  *repo.Store[models.Offering]
	Events events.Publisher
}

type OfferingFilter struct {
	repo.ListQuery
	Active *bool
}

type OfferingInput struct {
	Title       *string   `json:"title"       validate:"omitempty,min=1,max=200"`
	Slug        *string   `json:"slug"        validate:"omitempty,max=96"`
	Description *string   `json:"description" validate:"omitempty,max=5000"`
	Icon        *string   `json:"icon"        validate:"omitempty,max=200"`
	Features    *[]string `json:"features"    validate:"omitempty,max=50,dive,max=200"`
	PriceFrom   *float64  `json:"priceFrom"   validate:"omitempty,gte=0"`
	Active      *bool     `json:"active"`
	SortOrder   *int      `json:"sortOrder"`
}

// List shows anonymous callers active services only.
func (s *OfferingService) List(ctx context.Context, viewer *models.User, f OfferingFilter) (repo.Page[models.Offering], error) {
	active := f.Active
	if !isStaff(viewer) {
		t := true
		active = &t
	}
	var scopes []repo.Scope
	if active != nil {
		scopes = append(scopes, repo.Eq("active", *active))
	}
	return s.Store.List(ctx, f.ListQuery, scopes...)
}

func (s *OfferingService) Get(ctx context.Context, viewer *models.User, ref string) (*models.Offering, error) {
	var scopes []repo.Scope
	if !isStaff(viewer) {
		scopes = append(scopes, repo.Eq("active", true))
	}
	return s.Store.GetByIDOrSlug(ctx, ref, scopes...)
}

func (s *OfferingService) Create(ctx context.Context, viewer *models.User, in OfferingInput) (*models.Offering, error) {
	l := logging.FromContext(ctx).With("svc", "services.create")

	title, err := requireTitle("title", in.Title)
	if err != nil {
		return nil, err
	}
	slug, err := slugs.Resolve(ctx, deref(in.Slug), title, slugTaken(s.Store, uuid.Nil))
	if err != nil {
		return nil, err
	}

	o := models.Offering{Title: title, Slug: slug, Active: true}
	applyOffering(&o, in)
	if err := s.Store.Create(ctx, &o); err != nil {
		return nil, err
	}
	l.Info("service_created", "id", o.ID.String(), "slug", o.Slug)
	emitContent(ctx, s.Events, l, kindService, "created", o.ID, viewer, map[string]any{"slug": o.Slug})
	return &o, nil
}

func (s *OfferingService) Update(ctx context.Context, viewer *models.User, id uuid.UUID, in OfferingInput) (*models.Offering, error) {
	l := logging.FromContext(ctx).With("svc", "services.update", "id", id.String())

	o, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		if o.Title, err = requireTitle("title", in.Title); err != nil {
			return nil, err
		}
	}
	if in.Slug != nil && *in.Slug != "" && *in.Slug != o.Slug {
		if o.Slug, err = slugs.Resolve(ctx, *in.Slug, o.Title, slugTaken(s.Store, o.ID)); err != nil {
			return nil, err
		}
	}
	applyOffering(o, in)
	if err := s.Store.Save(ctx, o); err != nil {
		return nil, err
	}
	l.Info("service_updated")
	emitContent(ctx, s.Events, l, kindService, "updated", o.ID, viewer, map[string]any{"slug": o.Slug})
	return o, nil
}

func (s *OfferingService) Delete(ctx context.Context, viewer *models.User, id uuid.UUID) error {
	l := logging.FromContext(ctx).With("svc", "services.delete", "id", id.String())
	if err := s.Store.Delete(ctx, id); err != nil {
		return err
	}
	l.Info("service_deleted")
	emitContent(ctx, s.Events, l, kindService, "deleted", id, viewer, nil)
	return nil
}

func applyOffering(o *models.Offering, in OfferingInput) {
	set(&o.Description, in.Description)
	setNullable(&o.Icon, in.Icon)
	setList(&o.Features, in.Features)
	if in.PriceFrom != nil {
		p := *in.PriceFrom
		o.PriceFrom = &p
	}
	set(&o.Active, in.Active)
	set(&o.SortOrder, in.SortOrder)
	ensureList(&o.Features)
}
