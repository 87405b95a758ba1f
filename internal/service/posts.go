package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/portfolio/internal/apperr"
	"github.com/Skotchmaster/portfolio/internal/events"
	"github.com/Skotchmaster/portfolio/internal/models"
	"github.com/Skotchmaster/portfolio/internal/repo"
	"github.com/Skotchmaster/portfolio/internal/search"
	"github.com/Skotchmaster/portfolio/internal/slugs"
	"github.com/Skotchmaster/portfolio/pkg/logging"
)

const wordsPerMinute = 200

type PostService struct {
	Store  *repo.Store[models.Post]
	Index  search.Indexer
	Events events.Publisher
}

type PostFilter struct {
	repo.ListQuery
	Status   string
	Tag      string
	Featured *bool
}

type PostInput struct {
	Title      *string        `json:"title"      validate:"omitempty,min=1,max=200"`
	Slug       *string        `json:"slug"       validate:"omitempty,max=96"`
	Excerpt    *string        `json:"excerpt"    validate:"omitempty,max=1000"`
	Content    *string        `json:"content"`
	CoverImage *string        `json:"coverImage" validate:"omitempty,url|len=0"`
	Tags       *[]string      `json:"tags"       validate:"omitempty,max=30,dive,max=50"`
	Status     *models.Status `json:"status"     validate:"omitempty,oneof=DRAFT PUBLISHED"`
	Featured   *bool          `json:"featured"`
}

// ReadingTime estimates minutes to read content, never less than one.
func ReadingTime(content string) int {
	words := len(strings.Fields(content))
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}

func postDocument(p *models.Post) search.Document {
	return search.Document{
		ID:          p.ID.String(),
		Kind:        search.KindPost,
		Title:       p.Title,
		Slug:        p.Slug,
		Summary:     p.Excerpt,
		Body:        p.Content,
		Tags:        p.Tags,
		PublishedAt: p.PublishedAt,
	}
}

func (s *PostService) List(ctx context.Context, viewer *models.User, f PostFilter) (repo.Page[models.Post], error) {
	return s.Store.List(ctx, f.ListQuery,
		visibleStatus(viewer, f.Status),
		featuredScope(f.Featured),
		tagScope("tags", strings.TrimSpace(f.Tag)),
	)
}

// Get resolves a post by id or slug. An anonymous read of a published post
// counts as a view.
func (s *PostService) Get(ctx context.Context, viewer *models.User, ref string) (*models.Post, error) {
	p, err := s.Store.GetByIDOrSlug(ctx, ref, visibleStatus(viewer, ""))
	if err != nil {
		return nil, err
	}
	if viewer == nil && p.Status == models.StatusPublished {
		if err := s.Store.Increment(ctx, p.ID, "views", 1); err != nil {
			logging.FromContext(ctx).Warn("post_view_count_failed", "id", p.ID.String(), "error", err)
		} else {
			p.Views++
		}
	}
	return p, nil
}

func (s *PostService) Create(ctx context.Context, viewer *models.User, in PostInput) (*models.Post, error) {
	l := logging.FromContext(ctx).With("svc", "posts.create")

	title, err := requireTitle("title", in.Title)
	if err != nil {
		return nil, err
	}
	if in.Content == nil || strings.TrimSpace(*in.Content) == "" {
		return nil, apperr.Invalid("content", "is required")
	}
	slug, err := slugs.Resolve(ctx, deref(in.Slug), title, slugTaken(s.Store, uuid.Nil))
	if err != nil {
		return nil, err
	}

	p := models.Post{Title: title, Slug: slug, Status: models.StatusDraft}
	if viewer != nil {
		p.AuthorID = &viewer.ID
	}
	applyPost(&p, in)
	if err := s.Store.Create(ctx, &p); err != nil {
		l.Warn("post_create_failed", "error", err)
		return nil, err
	}

	l.Info("post_created", "id", p.ID.String(), "slug", p.Slug)
	syncIndex(ctx, s.Index, l, postDocument(&p), p.Status == models.StatusPublished)
	emitContent(ctx, s.Events, l, search.KindPost, "created", p.ID, viewer, map[string]any{"slug": p.Slug, "status": p.Status})
	return &p, nil
}

func (s *PostService) Update(ctx context.Context, viewer *models.User, id uuid.UUID, in PostInput) (*models.Post, error) {
	l := logging.FromContext(ctx).With("svc", "posts.update", "id", id.String())

	p, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		if p.Title, err = requireTitle("title", in.Title); err != nil {
			return nil, err
		}
	}
	if in.Content != nil && strings.TrimSpace(*in.Content) == "" {
		return nil, apperr.Invalid("content", "is required")
	}
	if in.Slug != nil && *in.Slug != "" && *in.Slug != p.Slug {
		if p.Slug, err = slugs.Resolve(ctx, *in.Slug, p.Title, slugTaken(s.Store, p.ID)); err != nil {
			return nil, err
		}
	}
	applyPost(p, in)
	// views is bumped concurrently by readers; never write it back from here.
	if err := s.Store.Save(ctx, p, "views"); err != nil {
		l.Warn("post_update_failed", "error", err)
		return nil, err
	}

	l.Info("post_updated")
	syncIndex(ctx, s.Index, l, postDocument(p), p.Status == models.StatusPublished)
	emitContent(ctx, s.Events, l, search.KindPost, "updated", p.ID, viewer, map[string]any{"slug": p.Slug, "status": p.Status})
	return p, nil
}

func (s *PostService) Delete(ctx context.Context, viewer *models.User, id uuid.UUID) error {
	l := logging.FromContext(ctx).With("svc", "posts.delete", "id", id.String())
	if err := s.Store.Delete(ctx, id); err != nil {
		return err
	}
	l.Info("post_deleted")
	dropFromIndex(ctx, s.Index, l, search.KindPost, id)
	emitContent(ctx, s.Events, l, search.KindPost, "deleted", id, viewer, nil)
	return nil
}

func applyPost(p *models.Post, in PostInput) {
	set(&p.Excerpt, in.Excerpt)
	set(&p.Content, in.Content)
	setNullable(&p.CoverImage, in.CoverImage)
	setList(&p.Tags, in.Tags)
	set(&p.Status, in.Status)
	set(&p.Featured, in.Featured)
	ensureList(&p.Tags)
	p.ReadingTime = ReadingTime(p.Content)
	stampPublished(p.Status, &p.PublishedAt)
}
