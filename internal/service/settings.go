package service

import (
	"context"
	"encoding/json"
	"regexp"

	"gorm.io/datatypes"

	"github.com/Skotchmaster/portfolio/internal/apperr"
	"github.com/Skotchmaster/portfolio/internal/models"
	"github.com/Skotchmaster/portfolio/pkg/logging"
)

var settingKeyRe = regexp.MustCompile(`^[a-z][a-z0-9_.-]{0,63}$`)

type SettingStore interface {
	ListSettings(ctx context.Context) ([]models.Setting, error)
	GetSetting(ctx context.Context, key string) (*models.Setting, error)
	UpsertSetting(ctx context.Context, key string, value datatypes.JSON) (*models.Setting, error)
	SeedSetting(ctx context.Context, key string, value datatypes.JSON) (bool, error)
	DeleteSetting(ctx context.Context, key string) error
}

type SettingsService struct {
	Store SettingStore
}

// SettingInput wraps the raw JSON value of one key.
type SettingInput struct {
	Value json.RawMessage `json:"value"`
}

// DefaultSettings are inserted at startup when missing.
var DefaultSettings = map[string]any{
	"site_title":    "My Portfolio",
	"tagline":       "Software engineer",
	"contact_email": "",
	"social_links":  map[string]string{},
}

// All returns every setting as a key to value map.
func (s *SettingsService) All(ctx context.Context) (map[string]json.RawMessage, error) {
	rows, err := s.Store.ListSettings(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]json.RawMessage, len(rows))
	for _, r := range rows {
		out[r.Key] = json.RawMessage(r.Value)
	}
	return out, nil
}

func (s *SettingsService) Get(ctx context.Context, key string) (*models.Setting, error) {
	return s.Store.GetSetting(ctx, key)
}

func (s *SettingsService) Put(ctx context.Context, key string, in SettingInput) (*models.Setting, error) {
	if !settingKeyRe.MatchString(key) {
		return nil, apperr.Invalid("key", "must be lowercase letters, digits, dots, dashes or underscores")
	}
	if len(in.Value) == 0 || !json.Valid(in.Value) {
		return nil, apperr.Invalid("value", "is required")
	}
	st, err := s.Store.UpsertSetting(ctx, key, datatypes.JSON(in.Value))
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("setting_updated", "key", key)
	return st, nil
}

func (s *SettingsService) Delete(ctx context.Context, key string) error {
	if err := s.Store.DeleteSetting(ctx, key); err != nil {
		return err
	}
	logging.FromContext(ctx).Info("setting_deleted", "key", key)
	return nil
}

// SeedDefaults inserts every missing default and reports how many were new.
func (s *SettingsService) SeedDefaults(ctx context.Context) (int, error) {
	created := 0
	for key, v := range DefaultSettings {
		raw, err := json.Marshal(v)
		if err != nil {
			return created, err
		}
		ok, err := s.Store.SeedSetting(ctx, key, datatypes.JSON(raw))
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}
	return created, nil
}
