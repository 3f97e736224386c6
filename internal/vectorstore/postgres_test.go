package vectorstore

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/jonathan/recruiting-agent/internal/types"
)

func TestVectorLiteral(t *testing.T) {
	assert.Equal(t, "[1,0.5,-0.25]", vectorLiteral([]float32{1, 0.5, -0.25}))
	assert.Equal(t, "[]", vectorLiteral(nil))
}

func TestParseVector(t *testing.T) {
	v, err := parseVector("[1,0.5,-0.25]")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0.5, -0.25}, v)

	v, err = parseVector("[]")
	require.NoError(t, err)
	assert.Empty(t, v)

	_, err = parseVector("[1,abc]")
	assert.Error(t, err)
}

func setupPostgres(t *testing.T) (*Postgres, context.Context) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping pgvector integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	t.Cleanup(cancel)

	container, err := postgres.Run(ctx,
		"pgvector/pgvector:pg16",
		postgres.WithDatabase("vectors_test"),
		postgres.WithUsername("recruiter"),
		postgres.WithPassword("recruiter"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Skipf("pgvector container unavailable: %v", err)
	}
	testcontainers.CleanupContainer(t, container)

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	store := NewPostgres(pool, 3)
	require.NoError(t, store.EnsureSchema(ctx))
	require.NoError(t, store.EnsureSchema(ctx))
	return store, ctx
}

func TestIntegration_PostgresStore(t *testing.T) {
	store, ctx := setupPostgres(t)

	meta := types.DocumentMetadata{Filename: "jane.pdf", UploadedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	require.NoError(t, store.Put(ctx, CollectionResumes, Document{ID: "near", Text: "Go", Vector: []float32{1, 0, 0}, Metadata: meta}))
	require.NoError(t, store.Put(ctx, CollectionResumes, Document{ID: "far", Text: "Java", Vector: []float32{0, 1, 0}}))
	require.NoError(t, store.Put(ctx, CollectionJobs, Document{ID: "job", Text: "Backend", Vector: []float32{1, 1, 0}}))

	doc, err := store.Get(ctx, CollectionResumes, "near")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0}, doc.Vector)
	assert.Equal(t, "jane.pdf", doc.Metadata.Filename)
	assert.True(t, meta.UploadedAt.Equal(doc.Metadata.UploadedAt))

	_, err = store.Get(ctx, CollectionResumes, "missing")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)

	matches, err := store.Search(ctx, CollectionResumes, []float32{1, 0.1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "near", matches[0].ID)
	assert.Less(t, matches[0].Distance, matches[1].Distance)

	n, err := store.Count(ctx, CollectionResumes)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, store.Clear(ctx, CollectionResumes))
	n, err = store.Count(ctx, CollectionResumes)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = store.Count(ctx, CollectionJobs)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
