package tokens

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	c, err := NewCodec(Config{
		AccessSecret:  []byte("test-access-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
	})
	require.NoError(t, err)
	return c
}

func TestNewCodec_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "missing access secret", cfg: Config{RefreshSecret: []byte("r")}},
		{name: "missing refresh secret", cfg: Config{AccessSecret: []byte("a")}},
		{name: "same secrets", cfg: Config{AccessSecret: []byte("s"), RefreshSecret: []byte("s")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCodec(tt.cfg)
			require.Error(t, err)
		})
	}
}

func TestCodec_DefaultTTLs(t *testing.T) {
	c := newTestCodec(t)
	assert.Equal(t, 15*time.Minute, c.AccessTTL())
	assert.Equal(t, 7*24*time.Hour, c.RefreshTTL())
}

func TestCodec_AccessRoundTrip(t *testing.T) {
	c := newTestCodec(t)

	identities := []Identity{
		{UserID: uuid.NewString(), Email: "alice@example.com", Role: "ADMIN"},
		{UserID: uuid.NewString(), Email: "Bob@Example.com", Role: "EDITOR"},
		{UserID: "42", Email: "", Role: ""},
	}

	for _, id := range identities {
		issued, err := c.IssueAccessToken(id)
		require.NoError(t, err)
		require.NotEmpty(t, issued.Token)
		assert.WithinDuration(t, time.Now().Add(15*time.Minute), issued.ExpiresAt, 2*time.Second)

		claims, err := c.VerifyAccessToken(issued.Token)
		require.NoError(t, err)
		assert.Equal(t, id, claims.Identity())
		assert.Equal(t, TypeAccess, claims.Type)
		assert.Equal(t, issued.ExpiresAt.Unix(), claims.ExpiresAt.Unix())
	}
}

func TestCodec_RefreshRoundTrip(t *testing.T) {
	c := newTestCodec(t)
	id := Identity{UserID: uuid.NewString(), Email: "alice@example.com", Role: "EDITOR"}

	issued, err := c.IssueRefreshToken(id)
	require.NoError(t, err)

	claims, err := c.VerifyRefreshToken(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.Identity())
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), claims.ExpiresAt.Time, 2*time.Second)
}

func TestCodec_TokensIssuedTogetherDiffer(t *testing.T) {
	c := newTestCodec(t)
	id := Identity{UserID: "u1", Email: "a@x.com", Role: "EDITOR"}

	a, err := c.IssueRefreshToken(id)
	require.NoError(t, err)
	b, err := c.IssueRefreshToken(id)
	require.NoError(t, err)

	assert.NotEqual(t, a.Token, b.Token)
}

func TestCodec_ClassesAreNotInterchangeable(t *testing.T) {
	c := newTestCodec(t)
	id := Identity{UserID: "u1", Email: "a@x.com", Role: "EDITOR"}

	access, err := c.IssueAccessToken(id)
	require.NoError(t, err)
	refresh, err := c.IssueRefreshToken(id)
	require.NoError(t, err)

	_, err = c.VerifyRefreshToken(access.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = c.VerifyAccessToken(refresh.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCodec_SameSecretDifferentTypeRejected(t *testing.T) {
	// A codec whose refresh secret equals another codec's access secret must
	// still refuse the foreign class because of the typ claim.
	a, err := NewCodec(Config{AccessSecret: []byte("shared"), RefreshSecret: []byte("r1")})
	require.NoError(t, err)
	b, err := NewCodec(Config{AccessSecret: []byte("a2"), RefreshSecret: []byte("shared")})
	require.NoError(t, err)

	access, err := a.IssueAccessToken(Identity{UserID: "u1"})
	require.NoError(t, err)

	_, err = b.VerifyRefreshToken(access.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCodec_Expired(t *testing.T) {
	c := newTestCodec(t)
	past := c.WithClock(func() time.Time { return time.Now().Add(-24 * time.Hour) })
	id := Identity{UserID: "u1", Email: "a@x.com", Role: "EDITOR"}

	access, err := past.IssueAccessToken(id)
	require.NoError(t, err)
	_, err = c.VerifyAccessToken(access.Token)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.ErrorIs(t, err, ErrTokenExpired)

	long := past.WithClock(func() time.Time { return time.Now().Add(-8 * 24 * time.Hour) })
	refresh, err := long.IssueRefreshToken(id)
	require.NoError(t, err)
	_, err = c.VerifyRefreshToken(refresh.Token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestCodec_WrongSecretIsNotExpiry(t *testing.T) {
	c := newTestCodec(t)
	other, err := NewCodec(Config{AccessSecret: []byte("other-a"), RefreshSecret: []byte("other-r")})
	require.NoError(t, err)

	issued, err := other.IssueAccessToken(Identity{UserID: "u1"})
	require.NoError(t, err)

	_, err = c.VerifyAccessToken(issued.Token)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.False(t, errors.Is(err, ErrTokenExpired))
}

func TestCodec_TamperedTokenRejected(t *testing.T) {
	c := newTestCodec(t)
	issued, err := c.IssueAccessToken(Identity{UserID: "u1", Email: "a@x.com", Role: "EDITOR"})
	require.NoError(t, err)
	token := issued.Token

	// The final character of each base64url segment can carry unused padding
	// bits, so it is skipped; every other position must break verification.
	skip := map[int]bool{len(token) - 1: true}
	for i, ch := range token {
		if ch == '.' {
			skip[i] = true
			skip[i-1] = true
		}
	}

	for i := range token {
		if skip[i] {
			continue
		}
		replacement := byte('A')
		if token[i] == 'A' {
			replacement = 'B'
		}
		tampered := token[:i] + string(replacement) + token[i+1:]

		_, err := c.VerifyAccessToken(tampered)
		require.Errorf(t, err, "tampering at position %d must fail", i)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
}

func TestCodec_MalformedInput(t *testing.T) {
	c := newTestCodec(t)
	for _, in := range []string{"", "garbage", "a.b.c", strings.Repeat("x", 300)} {
		_, err := c.VerifyAccessToken(in)
		assert.ErrorIs(t, err, ErrInvalidToken, in)
	}
}

func TestCodec_AlgNoneRejected(t *testing.T) {
	c := newTestCodec(t)
	// {"alg":"none","typ":"JWT"}.{"userId":"u1","typ":"access","exp":9999999999}.
	token := "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0.eyJ1c2VySWQiOiJ1MSIsInR5cCI6ImFjY2VzcyIsImV4cCI6OTk5OTk5OTk5OX0."

	_, err := c.VerifyAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
