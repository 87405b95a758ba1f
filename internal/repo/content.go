package repo

import (
	"github.com/Skotchmaster/portfolio/internal/models"
)

var publishedSort = map[string]string{
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
	"title":       "title",
	"publishedAt": "published_at",
}

func withKeys(base map[string]string, extra map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func (r *GormRepo) Projects() *Store[models.Project] {
	return NewStore[models.Project](r.DB, "Project", []string{"title", "summary", "content", "category"}, Sort{
		Columns: withKeys(publishedSort, map[string]string{"sortOrder": "sort_order"}),
		Default: "createdAt",
		Desc:    true,
	})
}

func (r *GormRepo) Posts() *Store[models.Post] {
	return NewStore[models.Post](r.DB, "Post", []string{"title", "excerpt", "content"}, Sort{
		Columns: withKeys(publishedSort, map[string]string{"views": "views", "readingTime": "reading_time"}),
		Default: "createdAt",
		Desc:    true,
	})
}

func (r *GormRepo) Certifications() *Store[models.Certification] {
	return NewStore[models.Certification](r.DB, "Certification", []string{"name", "issuer"}, Sort{
		Columns: map[string]string{
			"issueDate": "issue_date",
			"name":      "name",
			"sortOrder": "sort_order",
			"createdAt": "created_at",
		},
		Default: "issueDate",
		Desc:    true,
	})
}

func (r *GormRepo) Experiments() *Store[models.Experiment] {
	return NewStore[models.Experiment](r.DB, "Experiment", []string{"title", "description"}, Sort{
		Columns: map[string]string{
			"createdAt": "created_at",
			"updatedAt": "updated_at",
			"title":     "title",
		},
		Default: "createdAt",
		Desc:    true,
	})
}

func (r *GormRepo) Offerings() *Store[models.Offering] {
	return NewStore[models.Offering](r.DB, "Service", []string{"title", "description"}, Sort{
		Columns: map[string]string{
			"sortOrder": "sort_order",
			"title":     "title",
			"priceFrom": "price_from",
			"createdAt": "created_at",
		},
		Default: "sortOrder",
	})
}

func (r *GormRepo) Contacts() *Store[models.ContactMessage] {
	return NewStore[models.ContactMessage](r.DB, "Message", []string{"name", "email", "subject", "message"}, Sort{
		Columns: map[string]string{
			"createdAt": "created_at",
			"status":    "status",
			"name":      "name",
		},
		Default: "createdAt",
		Desc:    true,
	})
}

func (r *GormRepo) Media() *Store[models.Media] {
	return NewStore[models.Media](r.DB, "Media", []string{"filename", "alt"}, Sort{
		Columns: map[string]string{
			"createdAt": "created_at",
			"size":      "size",
			"filename":  "filename",
		},
		Default: "createdAt",
		Desc:    true,
	})
}
