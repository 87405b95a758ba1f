package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Project struct {
	Base
	Title        string                      `gorm:"type:text;not null"             json:"title"`
	Slug         string                      `gorm:"type:text;uniqueIndex;not null" json:"slug"`
	Summary      string                      `gorm:"type:text"                      json:"summary"`
	Content      string                      `gorm:"type:text"                      json:"content"`
	CoverImage   *string                     `gorm:"type:text"                      json:"coverImage"`
	Technologies datatypes.JSONSlice[string] `json:"technologies"`
	RepoURL      *string                     `gorm:"type:text"                      json:"repoUrl"`
	LiveURL      *string                     `gorm:"type:text"                      json:"liveUrl"`
	Category     string                      `gorm:"type:text;index"                json:"category"`
	Featured     bool                        `gorm:"not null;default:false"         json:"featured"`
	Status       Status                      `gorm:"type:text;not null;index"       json:"status"`
	SortOrder    int                         `gorm:"not null;default:0"             json:"sortOrder"`
	PublishedAt  *time.Time                  `json:"publishedAt"`
}

type Post struct {
	Base
	Title       string                      `gorm:"type:text;not null"             json:"title"`
	Slug        string                      `gorm:"type:text;uniqueIndex;not null" json:"slug"`
	Excerpt     string                      `gorm:"type:text"                      json:"excerpt"`
	Content     string                      `gorm:"type:text;not null"             json:"content"`
	CoverImage  *string                     `gorm:"type:text"                      json:"coverImage"`
	Tags        datatypes.JSONSlice[string] `json:"tags"`
	Status      Status                      `gorm:"type:text;not null;index"       json:"status"`
	Featured    bool                        `gorm:"not null;default:false"         json:"featured"`
	ReadingTime int                         `gorm:"not null;default:1"             json:"readingTime"`
	Views       int64                       `gorm:"not null;default:0"             json:"views"`
	AuthorID    *uuid.UUID                  `gorm:"type:uuid;index"                json:"authorId"`
	PublishedAt *time.Time                  `json:"publishedAt"`

	Author *User `gorm:"constraint:OnDelete:SET NULL;foreignKey:AuthorID;references:ID" json:"-"`
}

type Certification struct {
	Base
	Name          string                      `gorm:"type:text;not null"     json:"name"`
	Issuer        string                      `gorm:"type:text;not null"     json:"issuer"`
	IssueDate     time.Time                   `gorm:"not null"               json:"issueDate"`
	ExpiryDate    *time.Time                  `json:"expiryDate"`
	CredentialID  *string                     `gorm:"type:text"              json:"credentialId"`
	CredentialURL *string                     `gorm:"type:text"              json:"credentialUrl"`
	Image         *string                     `gorm:"type:text"              json:"image"`
	Skills        datatypes.JSONSlice[string] `json:"skills"`
	Featured      bool                        `gorm:"not null;default:false" json:"featured"`
	SortOrder     int                         `gorm:"not null;default:0"     json:"sortOrder"`
}

type Experiment struct {
	Base
	Title       string                      `gorm:"type:text;not null"             json:"title"`
	Slug        string                      `gorm:"type:text;uniqueIndex;not null" json:"slug"`
	Description string                      `gorm:"type:text"                      json:"description"`
	DemoURL     *string                     `gorm:"type:text"                      json:"demoUrl"`
	RepoURL     *string                     `gorm:"type:text"                      json:"repoUrl"`
	Tags        datatypes.JSONSlice[string] `json:"tags"`
	Status      Status                      `gorm:"type:text;not null;index"       json:"status"`
	Featured    bool                        `gorm:"not null;default:false"         json:"featured"`
}

// Offering is a service the site owner sells; stored in the services table.
type Offering struct {
	Base
	Title       string                      `gorm:"type:text;not null"             json:"title"`
	Slug        string                      `gorm:"type:text;uniqueIndex;not null" json:"slug"`
	Description string                      `gorm:"type:text"                      json:"description"`
	Icon        *string                     `gorm:"type:text"                      json:"icon"`
	Features    datatypes.JSONSlice[string] `json:"features"`
	PriceFrom   *float64                    `json:"priceFrom"`
	Active      bool                        `gorm:"not null"                       json:"active"`
	SortOrder   int                         `gorm:"not null;default:0"             json:"sortOrder"`
}

func (Offering) TableName() string { return "services" }
