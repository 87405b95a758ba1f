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

const kindExperiment = "experiment"

type ExperimentService struct {
	Store  *repo.Store[models.Experiment]
	Events events.Publisher
}

type ExperimentFilter struct {
	repo.ListQuery
	Status   string
	Tag      string
	Featured *bool
}

type ExperimentInput struct {
	Title       *string        `json:"title"       validate:"omitempty,min=1,max=200"`
	Slug        *string        `json:"slug"        validate:"omitempty,max=96"`
	Description *string        `json:"description" validate:"omitempty,max=5000"`
	DemoURL     *string        `json:"demoUrl"     validate:"omitempty,url|len=0"`
	RepoURL     *string        `json:"repoUrl"     validate:"omitempty,url|len=0"`
	Tags        *[]string      `json:"tags"        validate:"omitempty,max=30,dive,max=50"`
	Status      *models.Status `json:"status"      validate:"omitempty,oneof=DRAFT PUBLISHED"`
	Featured    *bool          `json:"featured"`
}

func (s *ExperimentService) List(ctx context.Context, viewer *models.User, f ExperimentFilter) (repo.Page[models.Experiment], error) {
	return s.Store.List(ctx, f.ListQuery,
		visibleStatus(viewer, f.Status),
		featuredScope(f.Featured),
		tagScope("tags", f.Tag),
	)
}

func (s *ExperimentService) Get(ctx context.Context, viewer *models.User, ref string) (*models.Experiment, error) {
	return s.Store.GetByIDOrSlug(ctx, ref, visibleStatus(viewer, ""))
}

func (s *ExperimentService) Create(ctx context.Context, viewer *models.User, in ExperimentInput) (*models.Experiment, error) {
	l := logging.FromContext(ctx).With("svc", "experiments.create")

	title, err := requireTitle("title", in.Title)
	if err != nil {
		return nil, err
	}
	slug, err := slugs.Resolve(ctx, deref(in.Slug), title, slugTaken(s.Store, uuid.Nil))
	if err != nil {
		return nil, err
	}

	e := models.Experiment{Title: title, Slug: slug, Status: models.StatusDraft}
	applyExperiment(&e, in)
	if err := s.Store.Create(ctx, &e); err != nil {
		return nil, err
	}
	l.Info("experiment_created", "id", e.ID.String(), "slug", e.Slug)
	emitContent(ctx, s.Events, l, kindExperiment, "created", e.ID, viewer, map[string]any{"slug": e.Slug, "status": e.Status})
	return &e, nil
}

func (s *ExperimentService) Update(ctx context.Context, viewer *models.User, id uuid.UUID, in ExperimentInput) (*models.Experiment, error) {
	l := logging.FromContext(ctx).With("svc", "experiments.update", "id", id.String())

	e, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		if e.Title, err = requireTitle("title", in.Title); err != nil {
			return nil, err
		}
	}
	if in.Slug != nil && *in.Slug != "" && *in.Slug != e.Slug {
		if e.Slug, err = slugs.Resolve(ctx, *in.Slug, e.Title, slugTaken(s.Store, e.ID)); err != nil {
			return nil, err
		}
	}
	applyExperiment(e, in)
	if err := s.Store.Save(ctx, e); err != nil {
		return nil, err
	}
	l.Info("experiment_updated")
	emitContent(ctx, s.Events, l, kindExperiment, "updated", e.ID, viewer, map[string]any{"slug": e.Slug, "status": e.Status})
	return e, nil
}

func (s *ExperimentService) Delete(ctx context.Context, viewer *models.User, id uuid.UUID) error {
	l := logging.FromContext(ctx).With("svc", "experiments.delete", "id", id.String())
	if err := s.Store.Delete(ctx, id); err != nil {
		return err
	}
	l.Info("experiment_deleted")
	emitContent(ctx, s.Events, l, kindExperiment, "deleted", id, viewer, nil)
	return nil
}

func applyExperiment(e *models.Experiment, in ExperimentInput) {
	set(&e.Description, in.Description)
	setNullable(&e.DemoURL, in.DemoURL)
	setNullable(&e.RepoURL, in.RepoURL)
	setList(&e.Tags, in.Tags)
	set(&e.Status, in.Status)
	set(&e.Featured, in.Featured)
	ensureList(&e.Tags)
}
