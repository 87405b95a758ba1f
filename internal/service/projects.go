package service

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/portfolio/internal/events"
	"github.com/Skotchmaster/portfolio/internal/models"
	"github.com/Skotchmaster/portfolio/internal/repo"
	"github.com/Skotchmaster/portfolio/internal/search"
	"github.com/Skotchmaster/portfolio/internal/slugs"
	"github.com/Skotchmaster/portfolio/pkg/logging"
)

type ProjectService struct {
	Store  *repo.Store[models.Project]
	Index  search.Indexer
	Events events.Publisher
}

type ProjectFilter struct {
	repo.ListQuery
	Status   string
	Category string
	Featured *bool
}

type ProjectInput struct {
	Title        *string        `json:"title"        validate:"omitempty,min=1,max=200"`
	Slug         *string        `json:"slug"         validate:"omitempty,max=96"`
	Summary      *string        `json:"summary"      validate:"omitempty,max=1000"`
	Content      *string        `json:"content"`
	CoverImage   *string        `json:"coverImage"   validate:"omitempty,url|len=0"`
	Technologies *[]string      `json:"technologies" validate:"omitempty,max=50,dive,max=50"`
	RepoURL      *string        `json:"repoUrl"      validate:"omitempty,url|len=0"`
	LiveURL      *string        `json:"liveUrl"      validate:"omitempty,url|len=0"`
	Category     *string        `json:"category"     validate:"omitempty,max=100"`
	Featured     *bool          `json:"featured"`
	Status       *models.Status `json:"status"       validate:"omitempty,oneof=DRAFT PUBLISHED"`
	SortOrder    *int           `json:"sortOrder"`
}

func projectDocument(p *models.Project) search.Document {
	return search.Document{
		ID:          p.ID.String(),
		Kind:        search.KindProject,
		Title:       p.Title,
		Slug:        p.Slug,
		Summary:     p.Summary,
		Body:        p.Content,
		Tags:        p.Technologies,
		PublishedAt: p.PublishedAt,
	}
}

func (s *ProjectService) List(ctx context.Context, viewer *models.User, f ProjectFilter) (repo.Page[models.Project], error) {
	return s.Store.List(ctx, f.ListQuery,
		visibleStatus(viewer, f.Status),
		featuredScope(f.Featured),
		func(db *gorm.DB) *gorm.DB {
			if f.Category == "" {
				return db
			}
			return db.Where("category = ?", f.Category)
		},
	)
}

func (s *ProjectService) Get(ctx context.Context, viewer *models.User, ref string) (*models.Project, error) {
	return s.Store.GetByIDOrSlug(ctx, ref, visibleStatus(viewer, ""))
}

func (s *ProjectService) Create(ctx context.Context, viewer *models.User, in ProjectInput) (*models.Project, error) {
	l := logging.FromContext(ctx).With("svc", "projects.create")

	title, err := requireTitle("title", in.Title)
	if err != nil {
		return nil, err
	}
	slug, err := slugs.Resolve(ctx, deref(in.Slug), title, slugTaken(s.Store, uuid.Nil))
	if err != nil {
		return nil, err
	}

	p := models.Project{Title: title, Slug: slug, Status: models.StatusDraft}
	applyProject(&p, in)
	if err := s.Store.Create(ctx, &p); err != nil {
		l.Warn("project_create_failed", "error", err)
		return nil, err
	}

	l.Info("project_created", "id", p.ID.String(), "slug", p.Slug)
	syncIndex(ctx, s.Index, l, projectDocument(&p), p.Status == models.StatusPublished)
	emitContent(ctx, s.Events, l, search.KindProject, "created", p.ID, viewer, map[string]any{"slug": p.Slug, "status": p.Status})
	return &p, nil
}

func (s *ProjectService) Update(ctx context.Context, viewer *models.User, id uuid.UUID, in ProjectInput) (*models.Project, error) {
	l := logging.FromContext(ctx).With("svc", "projects.update", "id", id.String())

	p, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		if p.Title, err = requireTitle("title", in.Title); err != nil {
			return nil, err
		}
	}
	if in.Slug != nil && *in.Slug != "" && *in.Slug != p.Slug {
		if p.Slug, err = slugs.Resolve(ctx, *in.Slug, p.Title, slugTaken(s.Store, p.ID)); err != nil {
			return nil, err
		}
	}
	applyProject(p, in)
	if err := s.Store.Save(ctx, p); err != nil {
		l.Warn("project_update_failed", "error", err)
		return nil, err
	}

	l.Info("project_updated")
	syncIndex(ctx, s.Index, l, projectDocument(p), p.Status == models.StatusPublished)
	emitContent(ctx, s.Events, l, search.KindProject, "updated", p.ID, viewer, map[string]any{"slug": p.Slug, "status": p.Status})
	return p, nil
}

func (s *ProjectService) Delete(ctx context.Context, viewer *models.User, id uuid.UUID) error {
	l := logging.FromContext(ctx).With("svc", "projects.delete", "id", id.String())
	if err := s.Store.Delete(ctx, id); err != nil {
		return err
	}
	l.Info("project_deleted")
	dropFromIndex(ctx, s.Index, l, search.KindProject, id)
	emitContent(ctx, s.Events, l, search.KindProject, "deleted", id, viewer, nil)
	return nil
}

func applyProject(p *models.Project, in ProjectInput) {
	set(&p.Summary, in.Summary)
	set(&p.Content, in.Content)
	setNullable(&p.CoverImage, in.CoverImage)
	setList(&p.Technologies, in.Technologies)
	setNullable(&p.RepoURL, in.RepoURL)
	setNullable(&p.LiveURL, in.LiveURL)
	set(&p.Category, in.Category)
	set(&p.Featured, in.Featured)
	set(&p.Status, in.Status)
	set(&p.SortOrder, in.SortOrder)
	ensureList(&p.Technologies)
	stampPublished(p.Status, &p.PublishedAt)
}
