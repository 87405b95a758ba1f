package service

import (
	"context"
	"sort"
	"strings"

	"github.com/Skotchmaster/portfolio/internal/apperr"
	"github.com/Skotchmaster/portfolio/internal/models"
	"github.com/Skotchmaster/portfolio/internal/repo"
	"github.com/Skotchmaster/portfolio/internal/search"
	"github.com/Skotchmaster/portfolio/pkg/logging"
)

// SearchService answers site search from Elasticsearch when configured and
// from SQL substring matching over published rows otherwise.
type SearchService struct {
	Index    search.Indexer
	Posts    *repo.Store[models.Post]
	Projects *repo.Store[models.Project]
}

type SearchQuery struct {
	Q     string
	Type  string
	Page  int
	Limit int
}

func (s *SearchService) Search(ctx context.Context, in SearchQuery) (repo.Page[search.Hit], error) {
	l := logging.FromContext(ctx).With("svc", "search")

	q := repo.ListQuery{Page: in.Page, Limit: in.Limit, Search: in.Q}.Normalize()
	if q.Search == "" {
		return repo.Page[search.Hit]{}, apperr.Invalid("q", "is required")
	}
	var kinds []string
	switch strings.ToLower(in.Type) {
	case "":
	case search.KindPost:
		kinds = []string{search.KindPost}
	case search.KindProject:
		kinds = []string{search.KindProject}
	default:
		return repo.Page[search.Hit]{}, apperr.Invalid("type", "must be one of: post, project")
	}

	if s.Index != nil {
		res, err := s.Index.Search(ctx, q.Search, kinds, q.Offset(), q.Limit)
		if err == nil {
			return pageOf(res.Hits, res.Total, q), nil
		}
		l.Warn("search_backend_failed", "error", err, "reason", "falling back to sql")
	}
	return s.searchSQL(ctx, q, kinds)
}

func (s *SearchService) searchSQL(ctx context.Context, q repo.ListQuery, kinds []string) (repo.Page[search.Hit], error) {
	want := func(kind string) bool {
		if len(kinds) == 0 {
			return true
		}
		return kinds[0] == kind
	}
	published := repo.Eq("status", models.StatusPublished)

	// Each source contributes its best page*limit rows; the merged slice is
	// then cut to the requested page.
	window := repo.ListQuery{Page: 1, Limit: q.Page * q.Limit, Search: q.Search, SortBy: "publishedAt", SortOrder: "desc"}
	if window.Limit > repo.MaxLimit {
		window.Limit = repo.MaxLimit
	}

	var (
		hits  []search.Hit
		total int64
	)
	if want(search.KindPost) {
		page, err := s.Posts.List(ctx, window, published)
		if err != nil {
			return repo.Page[search.Hit]{}, err
		}
		total += page.Total
		for i := range page.Items {
			hits = append(hits, search.Hit{Document: postDocument(&page.Items[i])})
		}
	}
	if want(search.KindProject) {
		page, err := s.Projects.List(ctx, window, published)
		if err != nil {
			return repo.Page[search.Hit]{}, err
		}
		total += page.Total
		for i := range page.Items {
			hits = append(hits, search.Hit{Document: projectDocument(&page.Items[i])})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i].PublishedAt, hits[j].PublishedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return a.After(*b)
	})

	from := q.Offset()
	if from > len(hits) {
		from = len(hits)
	}
	to := from + q.Limit
	if to > len(hits) {
		to = len(hits)
	}
	return pageOf(hits[from:to], total, q), nil
}

func pageOf(hits []search.Hit, total int64, q repo.ListQuery) repo.Page[search.Hit] {
	if hits == nil {
		hits = []search.Hit{}
	}
	pages := int((total + int64(q.Limit) - 1) / int64(q.Limit))
	return repo.Page[search.Hit]{Items: hits, Total: total, Page: q.Page, Limit: q.Limit, TotalPages: pages}
}
