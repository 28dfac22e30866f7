package rag

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SourceStore resolves the owning source of a chunk for citation
// enrichment.
type SourceStore interface {
	Get(ctx context.Context, sourceID uuid.UUID) (Source, error)
}

type PostgresSourceStore struct {
	pool *pgxpool.Pool
}

func NewPostgresSourceStore(pool *pgxpool.Pool) *PostgresSourceStore {
	return &PostgresSourceStore{pool: pool}
}

func (s *PostgresSourceStore) Get(ctx context.Context, sourceID uuid.UUID) (Source, error) {
	var src Source
	err := s.pool.QueryRow(ctx, `
        SELECT id, bot_id, source_type,
               COALESCE(original_url, ''), COALESCE(canonical_url, ''), COALESCE(storage_path, '')
        FROM sources
        WHERE id = $1
    `, sourceID).Scan(&src.ID, &src.BotID, &src.SourceType, &src.OriginalURL, &src.CanonicalURL, &src.StoragePath)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Source{}, &StoreError{Op: "query source", Err: fmt.Errorf("source %s not found", sourceID)}
		}
		return Source{}, &StoreError{Op: "query source", Err: err}
	}
	return src, nil
}

var _ SourceStore = (*PostgresSourceStore)(nil)
