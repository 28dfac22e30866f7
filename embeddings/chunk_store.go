package embeddings

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// PostgresChunkStore persists chunk embeddings in the chunks table.
type PostgresChunkStore struct {
	pool *pgxpool.Pool
}

func NewPostgresChunkStore(pool *pgxpool.Pool) *PostgresChunkStore {
	return &PostgresChunkStore{pool: pool}
}

func (s *PostgresChunkStore) UpdateEmbeddings(ctx context.Context, chunkIDs []uuid.UUID, vectors [][]float32) (int, error) {
	if len(chunkIDs) == 0 || len(vectors) == 0 || len(chunkIDs) != len(vectors) {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for i := range chunkIDs {
		batch.Queue(
			"UPDATE chunks SET embedding = $2, updated_at = NOW() WHERE id = $1",
			chunkIDs[i], pgvector.NewVector(vectors[i]),
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	updated := 0
	for range chunkIDs {
		tag, err := results.Exec()
		if err != nil {
			return updated, fmt.Errorf("update chunk embedding: %w", err)
		}
		updated += int(tag.RowsAffected())
	}
	return updated, nil
}

// PendingChunks returns the ids and excerpts of a source's chunks that have
// no embedding yet, in chunk order. Re-embedding only these rows makes the
// backfill idempotent after a partial batch failure.
func (s *PostgresChunkStore) PendingChunks(ctx context.Context, sourceID uuid.UUID) ([]uuid.UUID, []string, error) {
	rows, err := s.pool.Query(ctx, `
        SELECT id, excerpt
        FROM chunks
        WHERE source_id = $1 AND embedding IS NULL
        ORDER BY chunk_index
    `, sourceID)
	if err != nil {
		return nil, nil, fmt.Errorf("query pending chunks: %w", err)
	}
	defer rows.Close()

	var (
		ids      []uuid.UUID
		excerpts []string
	)
	for rows.Next() {
		var id uuid.UUID
		var excerpt string
		if err := rows.Scan(&id, &excerpt); err != nil {
			return nil, nil, fmt.Errorf("scan pending chunk: %w", err)
		}
		ids = append(ids, id)
		excerpts = append(excerpts, excerpt)
	}
	if rows.Err() != nil {
		return nil, nil, rows.Err()
	}

	return ids, excerpts, nil
}

var _ ChunkStore = (*PostgresChunkStore)(nil)
