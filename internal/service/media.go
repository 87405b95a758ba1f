package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/Skotchmaster/portfolio/internal/apperr"
	"github.com/Skotchmaster/portfolio/internal/models"
	"github.com/Skotchmaster/portfolio/internal/repo"
	"github.com/Skotchmaster/portfolio/internal/storage"
	"github.com/Skotchmaster/portfolio/pkg/logging"
)

const DefaultMediaMaxBytes = 5 << 20

// allowedMedia maps each accepted sniffed type to the file extensions that
// may declare it. The first extension is used for the object key.
var allowedMedia = map[string][]string{
	"image/jpeg":      {".jpg", ".jpeg"},
	"image/png":       {".png"},
	"image/gif":       {".gif"},
	"image/webp":      {".webp"},
	"image/avif":      {".avif"},
	"application/pdf": {".pdf"},
}

type MediaService struct {
	Store    *repo.Store[models.Media]
	Objects  storage.ObjectStore
	MaxBytes int64
	now      func() time.Time
}

type Upload struct {
	Filename string
	Body     io.Reader
	Alt      *string
}

type MediaFilter struct {
	repo.ListQuery
	MimeType string
}

func (s *MediaService) maxBytes() int64 {
	if s.MaxBytes <= 0 {
		return DefaultMediaMaxBytes
	}
	return s.MaxBytes
}

func (s *MediaService) clock() time.Time {
	if s.now != nil {
		return s.now().UTC()
	}
	return time.Now().UTC()
}

func (s *MediaService) Upload(ctx context.Context, viewer *models.User, up Upload) (*models.Media, error) {
	l := logging.FromContext(ctx).With("svc", "media.upload")

	if s.Objects == nil {
		return nil, apperr.Unavailable("Media storage is not configured")
	}
	filename := path.Base(strings.ReplaceAll(strings.TrimSpace(up.Filename), `\`, "/"))
	if filename == "" || filename == "." || filename == "/" {
		return nil, apperr.Invalid("file", "is required")
	}

	data, err := io.ReadAll(io.LimitReader(up.Body, s.maxBytes()+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes() {
		return nil, apperr.Invalid("file", fmt.Sprintf("must be at most %d bytes", s.maxBytes()))
	}
	if len(data) == 0 {
		return nil, apperr.Invalid("file", "must not be empty")
	}

	mime := mimetype.Detect(data)
	ext, err := checkMedia(filename, mime)
	if err != nil {
		l.Warn("media_rejected", "status", 400, "reason", err.Error(), "sniffed", mime.String())
		return nil, err
	}

	id := uuid.New()
	now := s.clock()
	key := fmt.Sprintf("media/%04d/%02d/%s%s", now.Year(), int(now.Month()), id, ext)
	contentType := baseMime(mime.String())
	if err := s.Objects.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		l.Error("media_upload_error", "status", 500, "reason", "object store put failed", "error", err)
		return nil, err
	}

	m := models.Media{
		Base:     models.Base{ID: id},
		Filename: filename,
		Key:      key,
		URL:      s.Objects.URL(key),
		MimeType: contentType,
		Size:     int64(len(data)),
		Alt:      nullable(up.Alt),
	}
	if viewer != nil {
		m.UploadedBy = &viewer.ID
	}
	if err := s.Store.Create(ctx, &m); err != nil {
		if delErr := s.Objects.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			l.Warn("media_orphaned", "key", key, "error", delErr)
		}
		return nil, err
	}

	l.Info("media_uploaded", "id", m.ID.String(), "key", key, "size", m.Size, "mime", contentType)
	return &m, nil
}

func (s *MediaService) List(ctx context.Context, f MediaFilter) (repo.Page[models.Media], error) {
	var scopes []repo.Scope
	if f.MimeType != "" {
		scopes = append(scopes, repo.Eq("mime_type", strings.ToLower(f.MimeType)))
	}
	return s.Store.List(ctx, f.ListQuery, scopes...)
}

func (s *MediaService) Get(ctx context.Context, id uuid.UUID) (*models.Media, error) {
	return s.Store.Get(ctx, id)
}

// Delete removes the stored object first, then the row.
func (s *MediaService) Delete(ctx context.Context, id uuid.UUID) error {
	l := logging.FromContext(ctx).With("svc", "media.delete", "id", id.String())
	if s.Objects == nil {
		return apperr.Unavailable("Media storage is not configured")
	}
	m, err := s.Store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Objects.Delete(ctx, m.Key); err != nil {
		l.Error("media_delete_error", "status", 500, "reason", "object store delete failed", "error", err)
		return err
	}
	if err := s.Store.Delete(ctx, id); err != nil {
		return err
	}
	l.Info("media_deleted", "key", m.Key)
	return nil
}

// checkMedia accepts the upload when the sniffed type is allowed and the
// declared extension belongs to it. It returns the canonical extension.
func checkMedia(filename string, mime *mimetype.MIME) (string, error) {
	exts, ok := allowedMedia[baseMime(mime.String())]
	if !ok {
		return "", apperr.Invalid("file", "unsupported file type")
	}
	declared := strings.ToLower(path.Ext(filename))
	for _, e := range exts {
		if declared == e {
			return exts[0], nil
		}
	}
	return "", apperr.Invalid("file", "file extension does not match its content")
}

// baseMime drops parameters such as "; charset=binary".
func baseMime(s string) string {
	if i := strings.IndexByte(s, ';'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(strings.ToLower(s))
}
