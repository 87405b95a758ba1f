package repo

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/portfolio/internal/models"
)

const settingEntity = "Setting"

func (r *GormRepo) ListSettings(ctx context.Context) ([]models.Setting, error) {
	var out []models.Setting
	if err := r.DB.WithContext(ctx).Order("key ASC").Find(&out).Error; err != nil {
		return nil, translate(err, settingEntity)
	}
	return out, nil
}

func (r *GormRepo) GetSetting(ctx context.Context, key string) (*models.Setting, error) {
	var s models.Setting
	if err := r.DB.WithContext(ctx).Where("key = ?", key).First(&s).Error; err != nil {
		return nil, translate(err, settingEntity)
	}
	return &s, nil
}

func (r *GormRepo) UpsertSetting(ctx context.Context, key string, value datatypes.JSON) (*models.Setting, error) {
	s := models.Setting{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&s).Error
	if err != nil {
		return nil, translate(err, settingEntity)
	}
	return r.GetSetting(ctx, key)
}

// SeedSetting inserts key only when it is absent.
func (r *GormRepo) SeedSetting(ctx context.Context, key string, value datatypes.JSON) (bool, error) {
	s := models.Setting{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	res := r.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&s)
	if res.Error != nil {
		return false, translate(res.Error, settingEntity)
	}
	return res.RowsAffected == 1, nil
}

func (r *GormRepo) DeleteSetting(ctx context.Context, key string) error {
	res := r.DB.WithContext(ctx).Where("key = ?", key).Delete(&models.Setting{})
	if res.Error != nil {
		return translate(res.Error, settingEntity)
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, settingEntity)
	}
	return nil
}
