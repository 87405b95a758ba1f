package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/portfolio/internal/apperr"
)

// Store is the CRUD surface shared by the content tables.
type Store[T any] struct {
	db       *gorm.DB
	entity   string
	searchOn []string
	sort     Sort
}

func NewStore[T any](db *gorm.DB, entity string, searchOn []string, sort Sort) *Store[T] {
	return &Store[T]{db: db, entity: entity, searchOn: searchOn, sort: sort}
}

func (s *Store[T]) List(ctx context.Context, q ListQuery, scopes ...Scope) (Page[T], error) {
	q = q.Normalize()
	base := s.db.WithContext(ctx).Model(new(T)).
		Scopes(scopes...).
		Scopes(searchScope(q.Search, s.searchOn))

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return Page[T]{}, translate(err, s.entity)
	}

	var items []T
	if err := base.Session(&gorm.Session{}).
		Order(s.sort.clause(q.SortBy, q.SortOrder)).
		Offset(q.Offset()).
		Limit(q.Limit).
		Find(&items).Error; err != nil {
		return Page[T]{}, translate(err, s.entity)
	}
	return newPage(items, total, q), nil
}

func (s *Store[T]) Get(ctx context.Context, id uuid.UUID, scopes ...Scope) (*T, error) {
	var item T
	if err := s.db.WithContext(ctx).Scopes(scopes...).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, translate(err, s.entity)
	}
	return &item, nil
}

func (s *Store[T]) GetBySlug(ctx context.Context, slug string, scopes ...Scope) (*T, error) {
	var item T
	if err := s.db.WithContext(ctx).Scopes(scopes...).Where("slug = ?", slug).First(&item).Error; err != nil {
		return nil, translate(err, s.entity)
	}
	return &item, nil
}

// GetByIDOrSlug resolves a path parameter that may be either form.
func (s *Store[T]) GetByIDOrSlug(ctx context.Context, ref string, scopes ...Scope) (*T, error) {
	if id, err := uuid.Parse(ref); err == nil {
		item, err := s.Get(ctx, id, scopes...)
		if err == nil || !errors.Is(err, apperr.ErrNotFound) {
			return item, err
		}
	}
	return s.GetBySlug(ctx, ref, scopes...)
}

func (s *Store[T]) Create(ctx context.Context, item *T) error {
	return translate(s.db.WithContext(ctx).Create(item).Error, s.entity)
}

// Save writes every column of item except omit.
func (s *Store[T]) Save(ctx context.Context, item *T, omit ...string) error {
	tx := s.db.WithContext(ctx)
	if len(omit) > 0 {
		tx = tx.Omit(omit...)
	}
	return translate(tx.Save(item).Error, s.entity)
}

func (s *Store[T]) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(new(T))
	if res.Error != nil {
		return translate(res.Error, s.entity)
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, s.entity)
	}
	return nil
}

// SlugTaken reports whether another row already owns slug.
func (s *Store[T]) SlugTaken(ctx context.Context, slug string, except uuid.UUID) (bool, error) {
	var n int64
	q := s.db.WithContext(ctx).Model(new(T)).Where("slug = ?", slug)
	if except != uuid.Nil {
		q = q.Where("id <> ?", except)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, translate(err, s.entity)
	}
	return n > 0, nil
}

// Increment adds delta to column without reading the row first.
func (s *Store[T]) Increment(ctx context.Context, id uuid.UUID, column string, delta int) error {
	res := s.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + ?", delta))
	return translate(res.Error, s.entity)
}
