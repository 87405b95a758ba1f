package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/portfolio/internal/apperr"
	"github.com/Skotchmaster/portfolio/internal/events"
	"github.com/Skotchmaster/portfolio/internal/models"
	"github.com/Skotchmaster/portfolio/internal/repo"
	"github.com/Skotchmaster/portfolio/pkg/logging"
)

const kindCertification = "certification"

type CertificationService struct {
	Store  *repo.Store[models.Certification]
	Events events.Publisher
}

type CertificationFilter struct {
	repo.ListQuery
	Issuer   string
	Featured *bool
}

type CertificationInput struct {
	Name          *string    `json:"name"          validate:"omitempty,min=1,max=200"`
	Issuer        *string    `json:"issuer"        validate:"omitempty,min=1,max=200"`
	IssueDate     *time.Time `json:"issueDate"`
	ExpiryDate    *time.Time `json:"expiryDate"`
	CredentialID  *string    `json:"credentialId"  validate:"omitempty,max=200"`
	CredentialURL *string    `json:"credentialUrl" validate:"omitempty,url|len=0"`
	Image         *string    `json:"image"         validate:"omitempty,url|len=0"`
	Skills        *[]string  `json:"skills"        validate:"omitempty,max=50,dive,max=50"`
	Featured      *bool      `json:"featured"`
	SortOrder     *int       `json:"sortOrder"`
}

func (s *CertificationService) List(ctx context.Context, f CertificationFilter) (repo.Page[models.Certification], error) {
	return s.Store.List(ctx, f.ListQuery,
		featuredScope(f.Featured),
		func(db *gorm.DB) *gorm.DB {
			if f.Issuer == "" {
				return db
			}
			return db.Where("LOWER(issuer) = ?", strings.ToLower(f.Issuer))
		},
	)
}

func (s *CertificationService) Get(ctx context.Context, id uuid.UUID) (*models.Certification, error) {
	return s.Store.Get(ctx, id)
}

func (s *CertificationService) Create(ctx context.Context, viewer *models.User, in CertificationInput) (*models.Certification, error) {
	l := logging.FromContext(ctx).With("svc", "certifications.create")

	name, err := requireTitle("name", in.Name)
	if err != nil {
		return nil, err
	}
	issuer, err := requireTitle("issuer", in.Issuer)
	if err != nil {
		return nil, err
	}
	if in.IssueDate == nil {
		return nil, apperr.Invalid("issueDate", "is required")
	}

	c := models.Certification{Name: name, Issuer: issuer}
	if err := applyCertification(&c, in); err != nil {
		return nil, err
	}
	if err := s.Store.Create(ctx, &c); err != nil {
		return nil, err
	}
	l.Info("certification_created", "id", c.ID.String())
	emitContent(ctx, s.Events, l, kindCertification, "created", c.ID, viewer, nil)
	return &c, nil
}

func (s *CertificationService) Update(ctx context.Context, viewer *models.User, id uuid.UUID, in CertificationInput) (*models.Certification, error) {
	l := logging.FromContext(ctx).With("svc", "certifications.update", "id", id.String())

	c, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		if c.Name, err = requireTitle("name", in.Name); err != nil {
			return nil, err
		}
	}
	if in.Issuer != nil {
		if c.Issuer, err = requireTitle("issuer", in.Issuer); err != nil {
			return nil, err
		}
	}
	if err := applyCertification(c, in); err != nil {
		return nil, err
	}
	if err := s.Store.Save(ctx, c); err != nil {
		return nil, err
	}
	l.Info("certification_updated")
	emitContent(ctx, s.Events, l, kindCertification, "updated", c.ID, viewer, nil)
	return c, nil
}

func (s *CertificationService) Delete(ctx context.Context, viewer *models.User, id uuid.UUID) error {
	l := logging.FromContext(ctx).With("svc", "certifications.delete", "id", id.String())
	if err := s.Store.Delete(ctx, id); err != nil {
		return err
	}
	l.Info("certification_deleted")
	emitContent(ctx, s.Events, l, kindCertification, "deleted", id, viewer, nil)
	return nil
}

func applyCertification(c *models.Certification, in CertificationInput) error {
	if in.IssueDate != nil {
		c.IssueDate = in.IssueDate.UTC()
	}
	if in.ExpiryDate != nil {
		exp := in.ExpiryDate.UTC()
		c.ExpiryDate = &exp
	}
	if c.ExpiryDate != nil && c.ExpiryDate.Before(c.IssueDate) {
		return apperr.Invalid("expiryDate", "must not be before issueDate")
	}
	setNullable(&c.CredentialID, in.CredentialID)
	setNullable(&c.CredentialURL, in.CredentialURL)
	setNullable(&c.Image, in.Image)
	setList(&c.Skills, in.Skills)
	set(&c.Featured, in.Featured)
	set(&c.SortOrder, in.SortOrder)
	ensureList(&c.Skills)
	return nil
}
