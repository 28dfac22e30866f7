package rag

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// SearchStore is the similarity-search contract: matches filtered
// server-side to similarity >= minScore, ordered by similarity descending,
// capped at topK. Callers perform no re-ranking of their own.
type SearchStore interface {
	Search(ctx context.Context, botID uuid.UUID, embedding []float32, minScore float64, topK int) ([]RetrievedMatch, error)
}

type PostgresSearchStore struct {
	pool *pgxpool.Pool
}

func NewPostgresSearchStore(pool *pgxpool.Pool) *PostgresSearchStore {
	return &PostgresSearchStore{pool: pool}
}

func (s *PostgresSearchStore) Search(ctx context.Context, botID uuid.UUID, embedding []float32, minScore float64, topK int) ([]RetrievedMatch, error) {
	if len(embedding) == 0 {
		return nil, fmt.Errorf("embedding is empty")
	}
	if topK <= 0 {
		topK = 5
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	probes := topK * 10
	if probes < 10 {
		probes = 10
	}
	if _, err := conn.Exec(ctx, fmt.Sprintf("SET ivfflat.probes = %d", probes)); err != nil {
		return nil, fmt.Errorf("set ivfflat probes: %w", err)
	}

	// Cosine similarity; chunks without embeddings are not retrievable.
	rows, err := conn.Query(ctx, `
        SELECT id, source_id, COALESCE(heading, ''), excerpt,
               1 - (embedding <=> $2::vector) AS similarity
        FROM chunks
        WHERE bot_id = $1
          AND embedding IS NOT NULL
          AND 1 - (embedding <=> $2::vector) >= $3
        ORDER BY embedding <=> $2::vector
        LIMIT $4
    `, botID, pgvector.NewVector(embedding), minScore, topK)
	if err != nil {
		return nil, fmt.Errorf("query similar chunks: %w", err)
	}
	defer rows.Close()

	matches := make([]RetrievedMatch, 0, topK)
	for rows.Next() {
		var m RetrievedMatch
		if err := rows.Scan(&m.ChunkID, &m.SourceID, &m.Heading, &m.Excerpt, &m.Similarity); err != nil {
			return nil, fmt.Errorf("scan similar chunk: %w", err)
		}
		matches = append(matches, m)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return matches, nil
}

var _ SearchStore = (*PostgresSearchStore)(nil)
