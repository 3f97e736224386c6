// Package vectorstore stores embedded job descriptions and resumes and
// answers nearest-neighbour queries over them.
package vectorstore

import (
	"context"
	"fmt"
	"math"

	"github.com/jonathan/recruiting-agent/internal/types"
)

// Default collection names.
const (
	CollectionJobs    = "job_descriptions"
	CollectionResumes = "resumes"
)

// Document is one embedded text
type Document struct {
	ID       string                 `json:"id"`
	Text     string                 `json:"text"`
	Vector   []float32              `json:"-"`
	Metadata types.DocumentMetadata `json:"metadata"`
}

// Match is a search hit. Distance is the cosine distance in [0, 2].
type Match struct {
	Document
	Distance float64 `json:"distance"`
}

// Similarity converts the distance into a similarity clamped to [0, 1].
func (m Match) Similarity() float64 {
	return min(max(1-m.Distance, 0), 1)
}

// Store is a collection-scoped vector index. Implementations are safe for concurrent use.
type Store interface {
	// Put inserts or replaces a document
	Put(ctx context.Context, collection string, doc Document) error
	// Get returns a *NotFoundError when the document does not exist
	Get(ctx context.Context, collection, id string) (*Document, error)
	Count(ctx context.Context, collection string) (int, error)
	Clear(ctx context.Context, collection string) error
	// Search returns at most k documents ordered by ascending distance
	Search(ctx context.Context, collection string, vector []float32, k int) ([]Match, error)
}

// NotFoundError reports a missing document
type NotFoundError struct {
	Collection string
	ID         string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("document %s not found in %s", e.ID, e.Collection)
}

// DimensionError reports a vector whose length does not match the store
type DimensionError struct {
	Expected int
	Actual   int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("vector has %d dimensions, store expects %d", e.Actual, e.Expected)
}

func checkDimensions(expected int, v []float32) error {
	if expected > 0 && len(v) != expected {
		return &DimensionError{Expected: expected, Actual: len(v)}
	}
	return nil
}

// CosineDistance returns 1 - cos(a, b). Zero vectors are at distance 1 from everything.
func CosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 1
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}
