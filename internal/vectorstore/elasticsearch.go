package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/jonathan/recruiting-agent/internal/types"
)

// ElasticsearchConfig configures the Elasticsearch backend
type ElasticsearchConfig struct {
	Addresses   []string
	Username    string
	Password    string
	IndexPrefix string
	Dimensions  int
}

// Elasticsearch keeps one index per collection and searches with approximate kNN
type Elasticsearch struct {
	client     *elasticsearch.Client
	prefix     string
	dimensions int

	mu      sync.Mutex
	ensured map[string]bool
}

// esDocument is the indexed source of a Document
type esDocument struct {
	Text      string                 `json:"text"`
	Metadata  types.DocumentMetadata `json:"metadata"`
	Embedding []float32              `json:"embedding"`
}

// NewElasticsearch creates a client for cfg.Addresses.
func NewElasticsearch(cfg ElasticsearchConfig) (*Elasticsearch, error) {
	esCfg := elasticsearch.Config{
		Addresses: cfg.Addresses,
	}
	if cfg.Username != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}

	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	return &Elasticsearch{
		client:     es,
		prefix:     cfg.IndexPrefix,
		dimensions: cfg.Dimensions,
		ensured:    make(map[string]bool),
	}, nil
}

func (e *Elasticsearch) index(collection string) string {
	return strings.ToLower(e.prefix + collection)
}

// ensureIndex creates the collection index with a dense_vector mapping if it is missing.
func (e *Elasticsearch) ensureIndex(ctx context.Context, collection string) error {
	index := e.index(collection)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ensured[index] {
		return nil
	}

	res, err := e.client.Indices.Exists([]string{index}, e.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to check index %s: %w", index, err)
	}
	res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		vector := map[string]any{
			"type":       "dense_vector",
			"index":      true,
			"similarity": "cosine",
		}
		if e.dimensions > 0 {
			vector["dims"] = e.dimensions
		}
		mapping := map[string]any{
			"mappings": map[string]any{
				"properties": map[string]any{
					"text":      map[string]any{"type": "text"},
					"metadata":  map[string]any{"type": "object", "enabled": false},
					"embedding": vector,
				},
			},
		}
		body, err := json.Marshal(mapping)
		if err != nil {
			return err
		}
		res, err := e.client.Indices.Create(index,
			e.client.Indices.Create.WithBody(bytes.NewReader(body)),
			e.client.Indices.Create.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("failed to create index %s: %w", index, err)
		}
		defer res.Body.Close()
		if res.IsError() {
			return responseError("create index "+index, res)
		}
	} else if res.IsError() {
		return responseError("check index "+index, res)
	}

	e.ensured[index] = true
	return nil
}

// Put implements Store.
func (e *Elasticsearch) Put(ctx context.Context, collection string, doc Document) error {
	if err := checkDimensions(e.dimensions, doc.Vector); err != nil {
		return err
	}
	if err := e.ensureIndex(ctx, collection); err != nil {
		return err
	}

	body, err := json.Marshal(esDocument{Text: doc.Text, Metadata: doc.Metadata, Embedding: doc.Vector})
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	res, err := e.client.Index(e.index(collection), bytes.NewReader(body),
		e.client.Index.WithDocumentID(doc.ID),
		e.client.Index.WithRefresh("true"),
		e.client.Index.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to index document %s: %w", doc.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("index document "+doc.ID, res)
	}
	return nil
}

// Get implements Store.
func (e *Elasticsearch) Get(ctx context.Context, collection, id string) (*Document, error) {
	res, err := e.client.Get(e.index(collection), id, e.client.Get.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s: %w", id, err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil, &NotFoundError{Collection: collection, ID: id}
	}
	if res.IsError() {
		return nil, responseError("get document "+id, res)
	}

	var payload struct {
		ID     string     `json:"_id"`
		Found  bool       `json:"found"`
		Source esDocument `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", id, err)
	}
	if !payload.Found {
		return nil, &NotFoundError{Collection: collection, ID: id}
	}
	return &Document{
		ID:       payload.ID,
		Text:     payload.Source.Text,
		Vector:   payload.Source.Embedding,
		Metadata: payload.Source.Metadata,
	}, nil
}

// Count implements Store.
func (e *Elasticsearch) Count(ctx context.Context, collection string) (int, error) {
	res, err := e.client.Count(
		e.client.Count.WithIndex(e.index(collection)),
		e.client.Count.WithContext(ctx))
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", collection, err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return 0, nil
	}
	if res.IsError() {
		return 0, responseError("count "+collection, res)
	}

	var payload struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("failed to decode count: %w", err)
	}
	return payload.Count, nil
}

// Clear implements Store by dropping the collection index.
func (e *Elasticsearch) Clear(ctx context.Context, collection string) error {
	index := e.index(collection)
	res, err := e.client.Indices.Delete([]string{index},
		e.client.Indices.Delete.WithIgnoreUnavailable(true),
		e.client.Indices.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to delete index %s: %w", index, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("delete index "+index, res)
	}

	e.mu.Lock()
	delete(e.ensured, index)
	e.mu.Unlock()
	return nil
}

// Search implements Store.
func (e *Elasticsearch) Search(ctx context.Context, collection string, vector []float32, k int) ([]Match, error) {
	if err := checkDimensions(e.dimensions, vector); err != nil {
		return nil, err
	}
	if k <= 0 {
		return []Match{}, nil
	}

	query := map[string]any{
		"size": k,
		"knn": map[string]any{
			"field":          "embedding",
			"query_vector":   vector,
			"k":              k,
			"num_candidates": max(k*10, 100),
		},
		"_source": []string{"text", "metadata"},
	}
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	res, err := e.client.Search(
		e.client.Search.WithIndex(e.index(collection)),
		e.client.Search.WithBody(bytes.NewReader(body)),
		e.client.Search.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", collection, err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return []Match{}, nil
	}
	if res.IsError() {
		return nil, responseError("search "+collection, res)
	}

	var payload struct {
		Hits struct {
			Hits []struct {
				ID     string     `json:"_id"`
				Score  float64    `json:"_score"`
				Source esDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	matches := make([]Match, 0, len(payload.Hits.Hits))
	for _, hit := range payload.Hits.Hits {
		matches = append(matches, Match{
			Document: Document{
				ID:       hit.ID,
				Text:     hit.Source.Text,
				Metadata: hit.Source.Metadata,
			},
			Distance: distanceFromScore(hit.Score),
		})
	}
	return matches, nil
}

// distanceFromScore inverts the cosine kNN score, which is (1 + cos) / 2.
func distanceFromScore(score float64) float64 {
	return 2 - 2*score
}

func responseError(op string, res *esapi.Response) error {
	detail, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
	return fmt.Errorf("elasticsearch %s failed: %s: %s", op, res.Status(), strings.TrimSpace(string(detail)))
}
