package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/recruiting-agent/internal/types"
)

func TestCosineDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 0},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 1},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, 2},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 1},
		{"length mismatch", []float32{1}, []float32{1, 0}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CosineDistance(tt.a, tt.b), 1e-9)
		})
	}
}

func TestMatch_Similarity(t *testing.T) {
	assert.InDelta(t, 0.75, Match{Distance: 0.25}.Similarity(), 1e-9)
	assert.Equal(t, 0.0, Match{Distance: 1.6}.Similarity())
	assert.Equal(t, 1.0, Match{Distance: -0.1}.Similarity())
}

func TestMemory_PutGetCount(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(2)

	meta := types.DocumentMetadata{Filename: "jane.pdf"}
	require.NoError(t, store.Put(ctx, CollectionResumes, Document{ID: "r1", Text: "Go developer", Vector: []float32{1, 0}, Metadata: meta}))
	require.NoError(t, store.Put(ctx, CollectionResumes, Document{ID: "r2", Text: "Java developer", Vector: []float32{0, 1}}))

	doc, err := store.Get(ctx, CollectionResumes, "r1")
	require.NoError(t, err)
	assert.Equal(t, "Go developer", doc.Text)
	assert.Equal(t, "jane.pdf", doc.Metadata.Filename)

	n, err := store.Count(ctx, CollectionResumes)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = store.Count(ctx, CollectionJobs)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = store.Get(ctx, CollectionJobs, "r1")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, CollectionJobs, nf.Collection)
}

func TestMemory_DimensionMismatch(t *testing.T) {
	store := NewMemory(3)
	err := store.Put(context.Background(), CollectionJobs, Document{ID: "j1", Vector: []float32{1, 0}})

	var dimErr *DimensionError
	require.ErrorAs(t, err, &dimErr)
	assert.Equal(t, 3, dimErr.Expected)
	assert.Equal(t, 2, dimErr.Actual)
}

func TestMemory_SearchOrdersByDistanceThenInsertion(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(0)

	require.NoError(t, store.Put(ctx, CollectionResumes, Document{ID: "far", Vector: []float32{0, 1}}))
	require.NoError(t, store.Put(ctx, CollectionResumes, Document{ID: "tie-a", Vector: []float32{1, 1}}))
	require.NoError(t, store.Put(ctx, CollectionResumes, Document{ID: "near", Vector: []float32{1, 0}}))
	require.NoError(t, store.Put(ctx, CollectionResumes, Document{ID: "tie-b", Vector: []float32{2, 2}}))

	matches, err := store.Search(ctx, CollectionResumes, []float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, "near", matches[0].ID)
	assert.Equal(t, "tie-a", matches[1].ID)
	assert.Equal(t, "tie-b", matches[2].ID)
	assert.InDelta(t, 0, matches[0].Distance, 1e-9)
}

func TestMemory_SearchEmpty(t *testing.T) {
	store := NewMemory(0)

	matches, err := store.Search(context.Background(), CollectionResumes, []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, matches)

	matches, err = store.Search(context.Background(), CollectionResumes, []float32{1, 0}, 0)
	require.NoError(t, err)
	assert.NotNil(t, matches)
	assert.Empty(t, matches)
}

func TestMemory_PutReplacesAndClear(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(0)

	require.NoError(t, store.Put(ctx, CollectionJobs, Document{ID: "j1", Text: "old", Vector: []float32{1}}))
	require.NoError(t, store.Put(ctx, CollectionJobs, Document{ID: "j1", Text: "new", Vector: []float32{1}}))

	doc, err := store.Get(ctx, CollectionJobs, "j1")
	require.NoError(t, err)
	assert.Equal(t, "new", doc.Text)

	n, _ := store.Count(ctx, CollectionJobs)
	assert.Equal(t, 1, n)

	require.NoError(t, store.Clear(ctx, CollectionJobs))
	n, _ = store.Count(ctx, CollectionJobs)
	assert.Zero(t, n)
}
