package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleEditor Role = "EDITOR"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleEditor
}

type User struct {
	Base
	Email               string  `gorm:"type:text;uniqueIndex;not null"    json:"email"`
	PasswordHash        string  `gorm:"type:text;not null"                json:"-"`
	Name                string  `gorm:"type:text;not null"                json:"name"`
	Role                Role    `gorm:"type:text;not null;default:EDITOR" json:"role"`
	CurrentRefreshToken *string `gorm:"type:text"                         json:"-"`
	Avatar              *string `gorm:"type:text"                         json:"avatar"`
}

// PublicUser is the only user shape that leaves the service layer.
type PublicUser struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	Avatar    *string   `json:"avatar"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func PublicUsers(users []User) []PublicUser {
	out := make([]PublicUser, len(users))
	for i := range users {
		out[i] = users[i].Public()
	}
	return out
}
