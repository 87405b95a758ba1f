package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Setting struct {
	Key       string         `gorm:"type:text;primaryKey" json:"key"`
	Value     datatypes.JSON `gorm:"not null"             json:"value"`
	UpdatedAt time.Time      `gorm:"not null"             json:"updatedAt"`
}

type ContactStatus string

const (
	ContactNew      ContactStatus = "NEW"
	ContactRead     ContactStatus = "READ"
	ContactReplied  ContactStatus = "REPLIED"
	ContactArchived ContactStatus = "ARCHIVED"
)

func (s ContactStatus) Valid() bool {
	switch s {
	case ContactNew, ContactRead, ContactReplied, ContactArchived:
		return true
	}
	return false
}

type ContactMessage struct {
	Base
	Name      string        `gorm:"type:text;not null"       json:"name"`
	Email     string        `gorm:"type:text;not null"       json:"email"`
	Subject   *string       `gorm:"type:text"                json:"subject"`
	Message   string        `gorm:"type:text;not null"       json:"message"`
	Status    ContactStatus `gorm:"type:text;not null;index" json:"status"`
	IP        string        `gorm:"type:text"                json:"ip"`
	UserAgent string        `gorm:"type:text"                json:"userAgent"`
}

type Media struct {
	Base
	Filename   string     `gorm:"type:text;not null"             json:"filename"`
	Key        string     `gorm:"type:text;uniqueIndex;not null" json:"key"`
	URL        string     `gorm:"type:text;not null"             json:"url"`
	MimeType   string     `gorm:"type:text;not null;index"       json:"mimeType"`
	Size       int64      `gorm:"not null"                       json:"size"`
	Alt        *string    `gorm:"type:text"                      json:"alt"`
	UploadedBy *uuid.UUID `gorm:"type:uuid;index"                json:"uploadedBy"`
}

// All lists every table in migration order.
func All() []any {
	return []any{
		&User{},
		&Project{},
		&Post{},
		&Certification{},
		&Experiment{},
		&Offering{},
		&Setting{},
		&ContactMessage{},
		&Media{},
	}
}
