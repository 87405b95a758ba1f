package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/portfolio/internal/apperr"
	"github.com/Skotchmaster/portfolio/internal/models"
)

const userEntity = "User"

var ErrUserAlreadyExist = apperr.Conflict("Email already registered")

func (r *GormRepo) Users() *Store[models.User] {
	return NewStore[models.User](r.DB, userEntity, []string{"name", "email"}, Sort{
		Columns: map[string]string{
			"createdAt": "created_at",
			"updatedAt": "updated_at",
			"name":      "name",
			"email":     "email",
			"role":      "role",
		},
		Default: "createdAt",
		Desc:    true,
	})
}

// CreateUserIfNotExists inserts u unless a row with the same email exists.
func (r *GormRepo) CreateUserIfNotExists(ctx context.Context, u *models.User) error {
	res := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
		Create(u)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return ErrUserAlreadyExist
		}
		return translate(res.Error, userEntity)
	}
	if res.RowsAffected == 0 {
		return ErrUserAlreadyExist
	}
	return nil
}

func (r *GormRepo) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err, userEntity)
	}
	return &user, nil
}

func (r *GormRepo) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translate(err, userEntity)
	}
	return &user, nil
}

// SetRefreshToken overwrites the stored refresh token; nil clears it.
func (r *GormRepo) SetRefreshToken(ctx context.Context, id uuid.UUID, token *string) error {
	res := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("current_refresh_token", token)
	if res.Error != nil {
		return translate(res.Error, userEntity)
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, userEntity)
	}
	return nil
}

// RotateRefreshToken swaps old for next only if old is still the stored
// value. It reports false when another request rotated or cleared it first.
func (r *GormRepo) RotateRefreshToken(ctx context.Context, id uuid.UUID, old, next string) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND current_refresh_token = ?", id, old).
		Update("current_refresh_token", next)
	if res.Error != nil {
		return false, translate(res.Error, userEntity)
	}
	return res.RowsAffected == 1, nil
}

// UpdatePassword stores a new hash and the refresh token of the new session
// in one statement.
func (r *GormRepo) UpdatePassword(ctx context.Context, id uuid.UUID, hash string, refreshToken *string) error {
	res := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"password_hash":         hash,
			"current_refresh_token": refreshToken,
		})
	if res.Error != nil {
		return translate(res.Error, userEntity)
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, userEntity)
	}
	return nil
}

func (r *GormRepo) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&models.User{}).Count(&n).Error; err != nil {
		return 0, translate(err, userEntity)
	}
	return n, nil
}

// UpdateUser applies column updates to one user and returns the fresh row.
func (r *GormRepo) UpdateUser(ctx context.Context, id uuid.UUID, fields map[string]any) (*models.User, error) {
	if len(fields) > 0 {
		res := r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return nil, translate(res.Error, userEntity)
		}
		if res.RowsAffected == 0 {
			return nil, translate(gorm.ErrRecordNotFound, userEntity)
		}
	}
	return r.GetUserByID(ctx, id)
}
