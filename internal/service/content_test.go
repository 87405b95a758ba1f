package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/portfolio/internal/apperr"
	"github.com/Skotchmaster/portfolio/internal/models"
	"github.com/Skotchmaster/portfolio/internal/repo"
	"github.com/Skotchmaster/portfolio/internal/search"
)

type fakeIndexer struct {
	docs    map[string]search.Document
	deleted []string
}

func newFakeIndexer() *fakeIndexer {
	return &fakeIndexer{docs: map[string]search.Document{}}
}

func (f *fakeIndexer) Index(_ context.Context, doc search.Document) error {
	f.docs[doc.Kind+":"+doc.ID] = doc
	return nil
}

func (f *fakeIndexer) Delete(_ context.Context, kind, id string) error {
	delete(f.docs, kind+":"+id)
	f.deleted = append(f.deleted, kind+":"+id)
	return nil
}

func (f *fakeIndexer) Search(context.Context, string, []string, int, int) (search.Result, error) {
	hits := make([]search.Hit, 0, len(f.docs))
	for _, d := range f.docs {
		hits = append(hits, search.Hit{Document: d, Score: 1})
	}
	return search.Result{Total: int64(len(hits)), Hits: hits}, nil
}

func staff(t *testing.T, env *testEnv) *models.User {
	t.Helper()
	s := register(t, env, uuid.NewString()+"@example.com")
	u, err := env.Repo.GetUserByID(context.Background(), s.User.ID)
	require.NoError(t, err)
	return u
}

func TestProjectService_SlugsAndVisibility(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	idx := newFakeIndexer()
	svc := &ProjectService{Store: env.Repo.Projects(), Index: idx, Events: env.Events}
	editor := staff(t, env)

	a, err := svc.Create(ctx, editor, ProjectInput{Title: ptr("Hello World"), Technologies: &[]string{"go", " go ", ""}})
	require.NoError(t, err)
	assert.Equal(t, "hello-world", a.Slug)
	assert.Equal(t, models.StatusDraft, a.Status)
	assert.Nil(t, a.PublishedAt)
	assert.Equal(t, []string{"go"}, []string(a.Technologies))

	b, err := svc.Create(ctx, editor, ProjectInput{Title: ptr("Hello, World!"), Status: ptr(models.StatusPublished)})
	require.NoError(t, err)
	assert.Equal(t, "hello-world-2", b.Slug)
	require.NotNil(t, b.PublishedAt)
	assert.Contains(t, idx.docs, "project:"+b.ID.String())

	_, err = svc.Create(ctx, editor, ProjectInput{Title: ptr("Other"), Slug: ptr("hello-world")})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = svc.Create(ctx, editor, ProjectInput{})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	public, err := svc.List(ctx, nil, ProjectFilter{ListQuery: repo.ListQuery{}, Status: "DRAFT"})
	require.NoError(t, err)
	require.Len(t, public.Items, 1)
	assert.Equal(t, b.ID, public.Items[0].ID)

	all, err := svc.List(ctx, editor, ProjectFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Total)

	_, err = svc.Get(ctx, nil, "hello-world")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	got, err := svc.Get(ctx, editor, "hello-world")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	got, err = svc.Get(ctx, nil, b.ID.String())
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
}

func TestProjectService_Update(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	idx := newFakeIndexer()
	svc := &ProjectService{Store: env.Repo.Projects(), Index: idx, Events: env.Events}
	editor := staff(t, env)

	p, err := svc.Create(ctx, editor, ProjectInput{Title: ptr("First"), RepoURL: ptr("https://github.com/x/y")})
	require.NoError(t, err)
	other, err := svc.Create(ctx, editor, ProjectInput{Title: ptr("Second")})
	require.NoError(t, err)

	up, err := svc.Update(ctx, editor, p.ID, ProjectInput{Title: ptr("Renamed"), RepoURL: ptr(""), Status: ptr(models.StatusPublished)})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", up.Title)
	assert.Equal(t, "first", up.Slug)
	assert.Nil(t, up.RepoURL)
	require.NotNil(t, up.PublishedAt)
	firstPublished := *up.PublishedAt
	assert.Contains(t, idx.docs, "project:"+p.ID.String())

	up, err = svc.Update(ctx, editor, p.ID, ProjectInput{Slug: ptr("first")})
	require.NoError(t, err)
	assert.Equal(t, "first", up.Slug)

	_, err = svc.Update(ctx, editor, p.ID, ProjectInput{Slug: ptr(other.Slug)})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	up, err = svc.Update(ctx, editor, p.ID, ProjectInput{Status: ptr(models.StatusDraft)})
	require.NoError(t, err)
	assert.NotContains(t, idx.docs, "project:"+p.ID.String())
	up, err = svc.Update(ctx, editor, p.ID, ProjectInput{Status: ptr(models.StatusPublished)})
	require.NoError(t, err)
	assert.True(t, firstPublished.Equal(*up.PublishedAt))

	_, err = svc.Update(ctx, editor, uuid.New(), ProjectInput{Title: ptr("x")})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, editor, p.ID))
	assert.ErrorIs(t, svc.Delete(ctx, editor, p.ID), apperr.ErrNotFound)
	assert.Contains(t, env.Events.Types(), "project_deleted")
}

func TestReadingTime(t *testing.T) {
	assert.Equal(t, 1, ReadingTime(""))
	assert.Equal(t, 1, ReadingTime("a few words"))
	words := make([]byte, 0, 401*2)
	for i := 0; i < 401; i++ {
		words = append(words, 'w', ' ')
	}
	assert.Equal(t, 3, ReadingTime(string(words)))
}

func TestPostService_ViewsAndTags(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := &PostService{Store: env.Repo.Posts(), Events: env.Events}
	editor := staff(t, env)

	p, err := svc.Create(ctx, editor, PostInput{
		Title:   ptr("Go Tips"),
		Content: ptr("some content here"),
		Tags:    &[]string{"go", "backend"},
		Status:  ptr(models.StatusPublished),
	})
	require.NoError(t, err)
	require.NotNil(t, p.AuthorID)
	assert.Equal(t, editor.ID, *p.AuthorID)
	assert.Equal(t, 1, p.ReadingTime)

	_, err = svc.Create(ctx, editor, PostInput{Title: ptr("Rust Notes"), Content: ptr("x"), Tags: &[]string{"rust"}, Status: ptr(models.StatusPublished)})
	require.NoError(t, err)
	_, err = svc.Create(ctx, editor, PostInput{Title: ptr("No content")})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	got, err := svc.Get(ctx, nil, "go-tips")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Views)
	_, err = svc.Get(ctx, nil, p.ID.String())
	require.NoError(t, err)
	got, err = svc.Get(ctx, editor, "go-tips")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Views)

	_, err = svc.Update(ctx, editor, p.ID, PostInput{Excerpt: ptr("short")})
	require.NoError(t, err)
	got, err = svc.Get(ctx, editor, "go-tips")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Views)

	tagged, err := svc.List(ctx, nil, PostFilter{Tag: "go"})
	require.NoError(t, err)
	require.Len(t, tagged.Items, 1)
	assert.Equal(t, p.ID, tagged.Items[0].ID)

	draft, err := svc.Create(ctx, editor, PostInput{Title: ptr("Draft"), Content: ptr("x")})
	require.NoError(t, err)
	_, err = svc.Get(ctx, nil, draft.Slug)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestOfferingService_ActiveVisibility(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := &OfferingService{Store: env.Repo.Offerings(), Events: env.Events}
	editor := staff(t, env)

	on, err := svc.Create(ctx, editor, OfferingInput{Title: ptr("Consulting"), SortOrder: ptr(2)})
	require.NoError(t, err)
	assert.True(t, on.Active)
	off, err := svc.Create(ctx, editor, OfferingInput{Title: ptr("Training"), Active: ptr(false), SortOrder: ptr(1)})
	require.NoError(t, err)
	assert.False(t, off.Active)

	public, err := svc.List(ctx, nil, OfferingFilter{})
	require.NoError(t, err)
	require.Len(t, public.Items, 1)
	assert.Equal(t, on.ID, public.Items[0].ID)

	all, err := svc.List(ctx, editor, OfferingFilter{})
	require.NoError(t, err)
	require.Len(t, all.Items, 2)
	assert.Equal(t, off.ID, all.Items[0].ID, "default sort is sortOrder ascending")

	_, err = svc.Get(ctx, nil, off.Slug)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCertificationService(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := &CertificationService{Store: env.Repo.Certifications(), Events: env.Events}
	editor := staff(t, env)

	_, err := svc.Create(ctx, editor, CertificationInput{Name: ptr("CKA"), Issuer: ptr("CNCF")})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	issued := mustTime(t, "2024-01-10T00:00:00Z")
	expired := mustTime(t, "2023-01-10T00:00:00Z")
	_, err = svc.Create(ctx, editor, CertificationInput{Name: ptr("CKA"), Issuer: ptr("CNCF"), IssueDate: &issued, ExpiryDate: &expired})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	c, err := svc.Create(ctx, editor, CertificationInput{Name: ptr("CKA"), Issuer: ptr("CNCF"), IssueDate: &issued, Skills: &[]string{"k8s"}})
	require.NoError(t, err)

	page, err := svc.List(ctx, CertificationFilter{Issuer: "cncf"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	up, err := svc.Update(ctx, editor, c.ID, CertificationInput{CredentialID: ptr("ABC-1")})
	require.NoError(t, err)
	require.NotNil(t, up.CredentialID)
	assert.Equal(t, "ABC-1", *up.CredentialID)
}

func TestExperimentService(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := &ExperimentService{Store: env.Repo.Experiments(), Events: env.Events}
	editor := staff(t, env)

	e, err := svc.Create(ctx, editor, ExperimentInput{Title: ptr("WebGL Toy"), Tags: &[]string{"3d"}})
	require.NoError(t, err)
	assert.Equal(t, "webgl-toy", e.Slug)

	page, err := svc.List(ctx, nil, ExperimentFilter{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	_, err = svc.Update(ctx, editor, e.ID, ExperimentInput{Status: ptr(models.StatusPublished)})
	require.NoError(t, err)
	page, err = svc.List(ctx, nil, ExperimentFilter{Tag: "3d"})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)

	assert.Equal(t, []string{"user_registered", "experiment_created", "experiment_updated"}, env.Events.Types())
}
