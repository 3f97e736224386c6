package vectorstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres stores documents in a pgvector column and searches with the cosine distance operator
type Postgres struct {
	pool       *pgxpool.Pool
	dimensions int
}

// NewPostgres creates a store on pool. Call EnsureSchema before first use.
func NewPostgres(pool *pgxpool.Pool, dimensions int) *Postgres {
	return &Postgres{pool: pool, dimensions: dimensions}
}

// EnsureSchema installs the vector extension and the documents table.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	column := "vector"
	if p.dimensions > 0 {
		column = fmt.Sprintf("vector(%d)", p.dimensions)
	}
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS vector_documents (
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			content TEXT NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}',
			embedding %s NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (collection, id)
		)`, column),
	}
	for _, stmt := range statements {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to prepare vector schema: %w", err)
		}
	}
	return nil
}

// Put implements Store.
func (p *Postgres) Put(ctx context.Context, collection string, doc Document) error {
	if err := checkDimensions(p.dimensions, doc.Vector); err != nil {
		return err
	}
	meta, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `
		INSERT INTO vector_documents (collection, id, content, metadata, embedding)
		VALUES ($1, $2, $3, $4, $5::vector)
		ON CONFLICT (collection, id) DO UPDATE SET
			content = EXCLUDED.content,
			metadata = EXCLUDED.metadata,
			embedding = EXCLUDED.embedding`
	if _, err := p.pool.Exec(ctx, query, collection, doc.ID, doc.Text, meta, vectorLiteral(doc.Vector)); err != nil {
		return fmt.Errorf("failed to store document %s: %w", doc.ID, err)
	}
	return nil
}

// Get implements Store.
func (p *Postgres) Get(ctx context.Context, collection, id string) (*Document, error) {
	query := `
		SELECT id, content, metadata, embedding::text
		FROM vector_documents
		WHERE collection = $1 AND id = $2`

	var (
		doc       Document
		meta      []byte
		embedding string
	)
	err := p.pool.QueryRow(ctx, query, collection, id).Scan(&doc.ID, &doc.Text, &meta, &embedding)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &NotFoundError{Collection: collection, ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s: %w", id, err)
	}
	if err := json.Unmarshal(meta, &doc.Metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata of %s: %w", id, err)
	}
	if doc.Vector, err = parseVector(embedding); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Count implements Store.
func (p *Postgres) Count(ctx context.Context, collection string) (int, error) {
	var n int
	err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM vector_documents WHERE collection = $1`, collection).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", collection, err)
	}
	return n, nil
}

// Clear implements Store.
func (p *Postgres) Clear(ctx context.Context, collection string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM vector_documents WHERE collection = $1`, collection); err != nil {
		return fmt.Errorf("failed to clear %s: %w", collection, err)
	}
	return nil
}

// Search implements Store.
func (p *Postgres) Search(ctx context.Context, collection string, vector []float32, k int) ([]Match, error) {
	if err := checkDimensions(p.dimensions, vector); err != nil {
		return nil, err
	}
	if k <= 0 {
		return []Match{}, nil
	}

	query := `
		SELECT id, content, metadata, embedding <=> $2::vector AS distance
		FROM vector_documents
		WHERE collection = $1
		ORDER BY distance, created_at
		LIMIT $3`
	rows, err := p.pool.Query(ctx, query, collection, vectorLiteral(vector), k)
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", collection, err)
	}
	defer rows.Close()

	matches := []Match{}
	for rows.Next() {
		var (
			m    Match
			meta []byte
		)
		if err := rows.Scan(&m.ID, &m.Text, &meta, &m.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		if err := json.Unmarshal(meta, &m.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata of %s: %w", m.ID, err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating matches: %w", err)
	}
	return matches, nil
}

// vectorLiteral renders v in pgvector's text format, e.g. [1,0.5,0].
func vectorLiteral(v []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

func parseVector(s string) ([]float32, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
	if s == "" {
		return []float32{}, nil
	}
	parts := strings.Split(s, ",")
	v := make([]float32, len(parts))
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil {
			return nil, fmt.Errorf("invalid vector component %q: %w", part, err)
		}
		v[i] = float32(f)
	}
	return v, nil
}
