package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Skotchmaster/portfolio/internal/apperr"
	"github.com/Skotchmaster/portfolio/internal/events"
	"github.com/Skotchmaster/portfolio/internal/models"
	"github.com/Skotchmaster/portfolio/internal/repo"
	"github.com/Skotchmaster/portfolio/internal/search"
	"github.com/Skotchmaster/portfolio/internal/slugs"
)

// A nil viewer is an anonymous caller. Any signed-in user counts as staff.
func isStaff(viewer *models.User) bool {
	return viewer != nil
}

func actorID(viewer *models.User) string {
	if viewer == nil {
		return ""
	}
	return viewer.ID.String()
}

// visibleStatus limits anonymous callers to published rows and lets staff
// filter by any status.
func visibleStatus(viewer *models.User, requested string) repo.Scope {
	if !isStaff(viewer) {
		return repo.Eq("status", models.StatusPublished)
	}
	if requested != "" {
		return repo.Eq("status", strings.ToUpper(requested))
	}
	return func(db *gorm.DB) *gorm.DB { return db }
}

func featuredScope(featured *bool) repo.Scope {
	return func(db *gorm.DB) *gorm.DB {
		if featured == nil {
			return db
		}
		return db.Where("featured = ?", *featured)
	}
}

func tagScope(column, tag string) repo.Scope {
	return func(db *gorm.DB) *gorm.DB {
		if tag == "" {
			return db
		}
		return db.Where(datatypes.JSONArrayQuery(column).Contains(tag))
	}
}

func slugTaken[T any](store *repo.Store[T], except uuid.UUID) slugs.TakenFunc {
	return func(ctx context.Context, slug string) (bool, error) {
		return store.SlugTaken(ctx, slug, except)
	}
}

// nullable turns an empty string into nil so optional columns can be cleared.
func nullable(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func setNullable(dst **string, v *string) {
	if v != nil {
		*dst = nullable(v)
	}
}

func setList(dst *datatypes.JSONSlice[string], v *[]string) {
	if v != nil {
		*dst = cleanList(*v)
	}
}

func cleanList(in []string) datatypes.JSONSlice[string] {
	out := make(datatypes.JSONSlice[string], 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func requireTitle(field string, v *string) (string, error) {
	if v == nil || strings.TrimSpace(*v) == "" {
		return "", apperr.Invalid(field, "is required")
	}
	return strings.TrimSpace(*v), nil
}

// stampPublished sets publishedAt the first time a row becomes published.
func stampPublished(status models.Status, publishedAt **time.Time) {
	if status == models.StatusPublished && *publishedAt == nil {
		now := time.Now().UTC()
		*publishedAt = &now
	}
}

func emitContent(ctx context.Context, p events.Publisher, l *slog.Logger, kind, action string, id uuid.UUID, viewer *models.User, data any) {
	events.Emit(ctx, p, l, events.TopicContent, id.String(), events.Event{
		Type:    kind + "_" + action,
		Kind:    kind,
		ID:      id.String(),
		ActorID: actorID(viewer),
		Data:    data,
	})
}

// syncIndex keeps the search index in step with a row: published rows are
// (re)indexed, anything else is removed. Index failures are logged only.
func syncIndex(ctx context.Context, idx search.Indexer, l *slog.Logger, doc search.Document, published bool) {
	if idx == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	var err error
	if published {
		err = idx.Index(ctx, doc)
	} else {
		err = idx.Delete(ctx, doc.Kind, doc.ID)
	}
	if err != nil {
		l.Warn("search_index_failed", "kind", doc.Kind, "id", doc.ID, "error", err)
	}
}

func dropFromIndex(ctx context.Context, idx search.Indexer, l *slog.Logger, kind string, id uuid.UUID) {
	syncIndex(ctx, idx, l, search.Document{Kind: kind, ID: id.String()}, false)
}

// ensureList stores [] instead of JSON null.
func ensureList(dst *datatypes.JSONSlice[string]) {
	if *dst == nil {
		*dst = datatypes.JSONSlice[string]{}
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
