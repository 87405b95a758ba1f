package repo

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/portfolio/internal/apperr"
)

type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}

// translate maps gorm errors onto apperr kinds. entity names the row type in
// client-facing messages.
func translate(err error, entity string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.NotFound(entity + " not found")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperr.Conflict(entity + " already exists")
	}
	return fmt.Errorf("%s: %w", entity, err)
}
