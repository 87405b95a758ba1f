package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/portfolio/internal/events"
	"github.com/Skotchmaster/portfolio/internal/migrations"
	"github.com/Skotchmaster/portfolio/internal/repo"
	"github.com/Skotchmaster/portfolio/pkg/db"
	"github.com/Skotchmaster/portfolio/pkg/tokens"
)

type testEnv struct {
	Repo   *repo.GormRepo
	Codec  *tokens.Codec
	Events *events.Recorder
	Auth   *AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	gdb, err := db.Open(ctx, db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })
	require.NoError(t, migrations.AutoMigrate(ctx, gdb))

	codec, err := tokens.NewCodec(tokens.Config{
		AccessSecret:  []byte("test-access-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
	})
	require.NoError(t, err)

	r := repo.New(gdb)
	rec := &events.Recorder{}
	return &testEnv{
		Repo:   r,
		Codec:  codec,
		Events: rec,
		Auth: &AuthService{
			Users:      r,
			Tokens:     codec,
			Events:     rec,
			BcryptCost: bcrypt.MinCost,
		},
	}
}

func ptr[T any](v T) *T { return &v }

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return v
}
