package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/portfolio/internal/apperr"
	"github.com/Skotchmaster/portfolio/internal/models"
	"github.com/Skotchmaster/portfolio/internal/repo"
	"github.com/Skotchmaster/portfolio/pkg/logging"
)

// UserAdminService is the ADMIN-only user management surface.
type UserAdminService struct {
	Store *repo.Store[models.User]
	Users UserStore
}

type UserFilter struct {
	repo.ListQuery
	Role string
}

type UserUpdateInput struct {
	Name   *string      `json:"name"   validate:"omitempty,min=1,max=100"`
	Avatar *string      `json:"avatar" validate:"omitempty,url|len=0"`
	Role   *models.Role `json:"role"   validate:"omitempty,oneof=ADMIN EDITOR"`
}

func (s *UserAdminService) List(ctx context.Context, f UserFilter) (repo.Page[models.PublicUser], error) {
	var scopes []repo.Scope
	if f.Role != "" {
		role := models.Role(strings.ToUpper(f.Role))
		if !role.Valid() {
			return repo.Page[models.PublicUser]{}, apperr.Invalid("role", "must be one of: ADMIN, EDITOR")
		}
		scopes = append(scopes, repo.Eq("role", role))
	}
	page, err := s.Store.List(ctx, f.ListQuery, scopes...)
	if err != nil {
		return repo.Page[models.PublicUser]{}, err
	}
	return repo.Page[models.PublicUser]{
		Items:      models.PublicUsers(page.Items),
		Total:      page.Total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: page.TotalPages,
	}, nil
}

func (s *UserAdminService) Get(ctx context.Context, id uuid.UUID) (models.PublicUser, error) {
	u, err := s.Users.GetUserByID(ctx, id)
	if err != nil {
		return models.PublicUser{}, err
	}
	return u.Public(), nil
}

func (s *UserAdminService) Update(ctx context.Context, actor *models.User, id uuid.UUID, in UserUpdateInput) (models.PublicUser, error) {
	l := logging.FromContext(ctx).With("svc", "users.update", "target_id", id.String())

	fields := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return models.PublicUser{}, apperr.Invalid("name", "is required")
		}
		fields["name"] = name
	}
	if in.Avatar != nil {
		fields["avatar"] = nullable(in.Avatar)
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return models.PublicUser{}, apperr.Invalid("role", "must be one of: ADMIN, EDITOR")
		}
		if actor != nil && actor.ID == id && *in.Role != models.RoleAdmin {
			return models.PublicUser{}, apperr.Invalid("role", "you cannot remove your own admin role")
		}
		fields["role"] = *in.Role
	}

	u, err := s.Users.UpdateUser(ctx, id, fields)
	if err != nil {
		return models.PublicUser{}, err
	}
	l.Info("user_updated", "fields", len(fields))
	return u.Public(), nil
}

func (s *UserAdminService) Delete(ctx context.Context, actor *models.User, id uuid.UUID) error {
	if actor != nil && actor.ID == id {
		return apperr.Invalid("id", "you cannot delete your own account")
	}
	if err := s.Store.Delete(ctx, id); err != nil {
		return err
	}
	logging.FromContext(ctx).Info("user_deleted", "target_id", id.String(), "actor_id", actorID(actor))
	return nil
}
