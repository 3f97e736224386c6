package vectorstore

import (
	"context"
	"sort"
	"sync"
)

// Memory is an in-process Store scanning every document on search
type Memory struct {
	mu          sync.RWMutex
	dimensions  int
	collections map[string]map[string]memoryEntry
	seq         int
}

type memoryEntry struct {
	doc Document
	// seq keeps insertion order for stable ties
	seq int
}

// NewMemory creates an empty store. dimensions of 0 accepts any vector length.
func NewMemory(dimensions int) *Memory {
	return &Memory{
		dimensions:  dimensions,
		collections: make(map[string]map[string]memoryEntry),
	}
}

// Put implements Store.
func (m *Memory) Put(_ context.Context, collection string, doc Document) error {
	if err := checkDimensions(m.dimensions, doc.Vector); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.collections[collection]
	if !ok {
		c = make(map[string]memoryEntry)
		m.collections[collection] = c
	}
	doc.Vector = append([]float32(nil), doc.Vector...)
	seq := m.seq
	if existing, ok := c[doc.ID]; ok {
		seq = existing.seq
	} else {
		m.seq++
	}
	c[doc.ID] = memoryEntry{doc: doc, seq: seq}
	return nil
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, collection, id string) (*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.collections[collection][id]
	if !ok {
		return nil, &NotFoundError{Collection: collection, ID: id}
	}
	doc := e.doc
	return &doc, nil
}

// Count implements Store.
func (m *Memory) Count(_ context.Context, collection string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.collections[collection]), nil
}

// Clear implements Store.
func (m *Memory) Clear(_ context.Context, collection string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.collections, collection)
	return nil
}

// Search implements Store.
func (m *Memory) Search(ctx context.Context, collection string, vector []float32, k int) ([]Match, error) {
	if err := checkDimensions(m.dimensions, vector); err != nil {
		return nil, err
	}
	if k <= 0 {
		return []Match{}, nil
	}

	m.mu.RLock()
	type scored struct {
		match Match
		seq   int
	}
	hits := make([]scored, 0, len(m.collections[collection]))
	for _, e := range m.collections[collection] {
		hits = append(hits, scored{
			match: Match{Document: e.doc, Distance: CosineDistance(vector, e.doc.Vector)},
			seq:   e.seq,
		})
	}
	m.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].match.Distance != hits[j].match.Distance {
			return hits[i].match.Distance < hits[j].match.Distance
		}
		return hits[i].seq < hits[j].seq
	})
	if len(hits) > k {
		hits = hits[:k]
	}

	matches := make([]Match, len(hits))
	for i, h := range hits {
		matches[i] = h.match
	}
	return matches, nil
}
