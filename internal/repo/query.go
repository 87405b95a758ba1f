package repo

import (
	"math"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100

	// MaxPage keeps (page-1)*limit inside an int32 offset.
	MaxPage = math.MaxInt32 / MaxLimit
)

// ListQuery is the common list contract shared by every collection endpoint.
type ListQuery struct {
	Page      int
	Limit     int
	Search    string
	SortBy    string
	SortOrder string
}

func (q ListQuery) Normalize() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	if q.Page > MaxPage {
		q.Page = MaxPage
	}
	q.Search = strings.TrimSpace(q.Search)
	q.SortOrder = strings.ToLower(q.SortOrder)
	return q
}

func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

type Page[T any] struct {
	Items      []T
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

func newPage[T any](items []T, total int64, q ListQuery) Page[T] {
	pages := 0
	if q.Limit > 0 {
		pages = int((total + int64(q.Limit) - 1) / int64(q.Limit))
	}
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Total: total, Page: q.Page, Limit: q.Limit, TotalPages: pages}
}

// Scope narrows a list query; filters are expressed as scopes.
type Scope = func(*gorm.DB) *gorm.DB

// Sort whitelists API sort keys and maps them to columns.
type Sort struct {
	Columns map[string]string
	Default string
	Desc    bool
}

func (s Sort) clause(sortBy, order string) clause.OrderByColumn {
	col, ok := s.Columns[sortBy]
	desc := s.Desc
	if !ok {
		col = s.Columns[s.Default]
	}
	switch order {
	case "asc":
		desc = false
	case "desc":
		desc = true
	}
	return clause.OrderByColumn{Column: clause.Column{Name: col}, Desc: desc}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func searchScope(term string, columns []string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		if term == "" || len(columns) == 0 {
			return db
		}
		pattern := "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
		conds := make([]string, len(columns))
		args := make([]any, len(columns))
		for i, c := range columns {
			conds[i] = "LOWER(" + c + `) LIKE ? ESCAPE '\'`
			args[i] = pattern
		}
		return db.Where("("+strings.Join(conds, " OR ")+")", args...)
	}
}

func Eq(column string, v any) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(clause.Eq{Column: clause.Column{Name: column}, Value: v})
	}
}
