// Package search indexes published content in Elasticsearch and queries it.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
)

const (
	KindPost    = "post"
	KindProject = "project"
)

type Document struct {
	ID          string     `json:"id"`
	Kind        string     `json:"kind"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Summary     string     `json:"summary"`
	Body        string     `json:"body"`
	Tags        []string   `json:"tags"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
}

type Hit struct {
	Document
	Score float64 `json:"score"`
}

type Result struct {
	Total int64
	Hits  []Hit
}

type Indexer interface {
	Index(ctx context.Context, doc Document) error
	Delete(ctx context.Context, kind, id string) error
	Search(ctx context.Context, query string, kinds []string, from, size int) (Result, error)
}

type Config struct {
	URL      string
	User     string
	Password string
	Index    string
}

type ESIndexer struct {
	es    *elasticsearch.Client
	index string
}

// NewESIndexer connects and checks the cluster answers before returning.
func NewESIndexer(ctx context.Context, cfg Config) (*ESIndexer, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: new client: %w", err)
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch: info %s: %s", res.Status(), body)
	}

	return &ESIndexer{es: client, index: cfg.Index}, nil
}

func docID(kind, id string) string { return kind + ":" + id }

func (x *ESIndexer) Index(ctx context.Context, doc Document) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(doc); err != nil {
		return fmt.Errorf("elasticsearch: encode: %w", err)
	}
	res, err := x.es.Index(x.index, &buf,
		x.es.Index.WithContext(ctx),
		x.es.Index.WithDocumentID(docID(doc.Kind, doc.ID)),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch: index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch: index: %s", res.Status())
	}
	return nil
}

func (x *ESIndexer) Delete(ctx context.Context, kind, id string) error {
	res, err := x.es.Delete(x.index, docID(kind, id), x.es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch: delete: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("elasticsearch: delete: %s", res.Status())
	}
	return nil
}

func buildQuery(query string, kinds []string, from, size int) map[string]any {
	must := map[string]any{
		"multi_match": map[string]any{
			"query":     query,
			"fields":    []string{"title^3", "summary^2", "body", "tags"},
			"fuzziness": "AUTO",
		},
	}
	boolQ := map[string]any{"must": must}
	if len(kinds) > 0 {
		boolQ["filter"] = map[string]any{"terms": map[string]any{"kind": kinds}}
	}
	return map[string]any{
		"query": map[string]any{"bool": boolQ},
		"from":  from,
		"size":  size,
	}
}

func (x *ESIndexer) Search(ctx context.Context, query string, kinds []string, from, size int) (Result, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(buildQuery(query, kinds, from, size)); err != nil {
		return Result{}, fmt.Errorf("elasticsearch: encode: %w", err)
	}

	res, err := x.es.Search(
		x.es.Search.WithContext(ctx),
		x.es.Search.WithIndex(x.index),
		x.es.Search.WithBody(&buf),
	)
	if err != nil {
		return Result{}, fmt.Errorf("elasticsearch: search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return Result{}, errors.New("elasticsearch: search: " + res.Status())
	}
	return decodeResult(res.Body)
}

func decodeResult(r io.Reader) (Result, error) {
	var body struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Score  float64  `json:"_score"`
				Source Document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		return Result{}, fmt.Errorf("elasticsearch: decode: %w", err)
	}

	hits := make([]Hit, len(body.Hits.Hits))
	for i, h := range body.Hits.Hits {
		hits[i] = Hit{Document: h.Source, Score: h.Score}
	}
	return Result{Total: body.Hits.Total.Value, Hits: hits}, nil
}
