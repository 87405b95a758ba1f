package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/portfolio/internal/apperr"
	"github.com/Skotchmaster/portfolio/internal/events"
	"github.com/Skotchmaster/portfolio/internal/models"
	"github.com/Skotchmaster/portfolio/internal/repo"
	"github.com/Skotchmaster/portfolio/pkg/logging"
)

type ContactService struct {
	Store  *repo.Store[models.ContactMessage]
	Events events.Publisher
}

type ContactInput struct {
	Name    string  `json:"name"    validate:"required,min=1,max=100"`
	Email   string  `json:"email"   validate:"required,email,max=254"`
	Subject *string `json:"subject" validate:"omitempty,max=200"`
	Message string  `json:"message" validate:"required,min=10,max=5000"`
}

// Origin is where a contact submission came from.
type Origin struct {
	IP        string
	UserAgent string
}

type ContactFilter struct {
	repo.ListQuery
	Status string
}

type ContactStatusInput struct {
	Status models.ContactStatus `json:"status" validate:"required,oneof=NEW READ REPLIED ARCHIVED"`
}

func (s *ContactService) Submit(ctx context.Context, in ContactInput, from Origin) (*models.ContactMessage, error) {
	l := logging.FromContext(ctx).With("svc", "contact.submit")

	msg := models.ContactMessage{
		Name:      strings.TrimSpace(in.Name),
		Email:     strings.TrimSpace(in.Email),
		Subject:   nullable(in.Subject),
		Message:   strings.TrimSpace(in.Message),
		Status:    models.ContactNew,
		IP:        from.IP,
		UserAgent: truncate(from.UserAgent, 512),
	}
	if len([]rune(msg.Message)) < 10 {
		return nil, apperr.Invalid("message", "must be at least 10 characters")
	}
	if err := s.Store.Create(ctx, &msg); err != nil {
		l.Error("contact_submit_error", "status", 500, "error", err)
		return nil, err
	}

	l.Info("contact_submitted", "id", msg.ID.String())
	events.Emit(ctx, s.Events, l, events.TopicContact, msg.ID.String(), events.Event{
		Type: "contact_submitted",
		Kind: "contact",
		ID:   msg.ID.String(),
		Data: map[string]any{"name": msg.Name, "email": msg.Email, "subject": msg.Subject},
	})
	return &msg, nil
}

func (s *ContactService) List(ctx context.Context, f ContactFilter) (repo.Page[models.ContactMessage], error) {
	var scopes []repo.Scope
	if f.Status != "" {
		st := models.ContactStatus(strings.ToUpper(f.Status))
		if !st.Valid() {
			return repo.Page[models.ContactMessage]{}, apperr.Invalid("status", "must be one of: NEW, READ, REPLIED, ARCHIVED")
		}
		scopes = append(scopes, repo.Eq("status", st))
	}
	return s.Store.List(ctx, f.ListQuery, scopes...)
}

func (s *ContactService) Get(ctx context.Context, id uuid.UUID) (*models.ContactMessage, error) {
	return s.Store.Get(ctx, id)
}

func (s *ContactService) SetStatus(ctx context.Context, id uuid.UUID, in ContactStatusInput) (*models.ContactMessage, error) {
	if !in.Status.Valid() {
		return nil, apperr.Invalid("status", "must be one of: NEW, READ, REPLIED, ARCHIVED")
	}
	msg, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	msg.Status = in.Status
	if err := s.Store.Save(ctx, msg); err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("contact_status_changed", "id", id.String(), "to", string(in.Status))
	return msg, nil
}

func (s *ContactService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.Store.Delete(ctx, id); err != nil {
		return err
	}
	logging.FromContext(ctx).Info("contact_deleted", "id", id.String())
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
