package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildQuery(t *testing.T) {
	q := buildQuery("golang", []string{KindPost}, 10, 5)
	raw, err := json.Marshal(q)
	require.NoError(t, err)

	s := string(raw)
	assert.Contains(t, s, `"multi_match"`)
	assert.Contains(t, s, `"title^3"`)
	assert.Contains(t, s, `"fuzziness":"AUTO"`)
	assert.Contains(t, s, `"terms":{"kind":["post"]}`)
	assert.Contains(t, s, `"from":10`)
	assert.Contains(t, s, `"size":5`)

	noKinds, err := json.Marshal(buildQuery("x", nil, 0, 10))
	require.NoError(t, err)
	assert.NotContains(t, string(noKinds), "terms")
}

func TestDecodeResult(t *testing.T) {
	body := `{"hits":{"total":{"value":2},"hits":[
		{"_score":1.5,"_source":{"id":"a","kind":"post","title":"Hello","slug":"hello"}},
		{"_score":0.7,"_source":{"id":"b","kind":"project","title":"World","slug":"world","tags":["go"]}}
	]}}`

	res, err := decodeResult(strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Total)
	require.Len(t, res.Hits, 2)
	assert.Equal(t, "hello", res.Hits[0].Slug)
	assert.InDelta(t, 1.5, res.Hits[0].Score, 0.001)
	assert.Equal(t, []string{"go"}, res.Hits[1].Tags)
}

// fakeES answers the handful of endpoints the indexer touches.
func fakeES(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		switch {
		case r.URL.Path == "/":
			_, _ = w.Write([]byte(`{"version":{"number":"9.0.0"}}`))
		case strings.HasSuffix(r.URL.Path, "/_search"):
			_, _ = w.Write([]byte(`{"hits":{"total":{"value":1},"hits":[{"_score":2,"_source":{"id":"p1","kind":"post","title":"T","slug":"t"}}]}}`))
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"result":"not_found"}`))
		default:
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"result":"created"}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestESIndexer_RoundTrip(t *testing.T) {
	srv, calls := fakeES(t)
	ctx := context.Background()

	x, err := NewESIndexer(ctx, Config{URL: srv.URL, Index: "portfolio"})
	require.NoError(t, err)

	require.NoError(t, x.Index(ctx, Document{ID: "p1", Kind: KindPost, Title: "T", Slug: "t"}))
	require.NoError(t, x.Delete(ctx, KindPost, "missing"))

	res, err := x.Search(ctx, "t", nil, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Total)
	assert.Equal(t, "p1", res.Hits[0].ID)

	assert.Contains(t, *calls, "PUT /portfolio/_doc/post:p1")
	assert.Contains(t, *calls, "DELETE /portfolio/_doc/post:missing")
	assert.Contains(t, *calls, "POST /portfolio/_search")
}
