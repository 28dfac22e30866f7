package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the tenant knowledge-base tables if they do not
// exist. The embedding column is nullable: chunks are created by the
// ingestion pipeline without vectors and backfilled in batches, and the
// similarity search only considers rows where the embedding is present.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("embedding dimension must be positive")
	}

	stmts := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		`CREATE TABLE IF NOT EXISTS bots (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL,
			name TEXT NOT NULL,
			system_prompt TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS sources (
			id UUID PRIMARY KEY,
			bot_id UUID NOT NULL REFERENCES bots(id) ON DELETE CASCADE,
			source_type TEXT NOT NULL,
			original_url TEXT,
			canonical_url TEXT,
			storage_path TEXT,
			status TEXT NOT NULL DEFAULT 'pending',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS chunks (
			id UUID PRIMARY KEY,
			source_id UUID NOT NULL REFERENCES sources(id) ON DELETE CASCADE,
			bot_id UUID NOT NULL REFERENCES bots(id) ON DELETE CASCADE,
			chunk_index INT NOT NULL,
			heading TEXT,
			excerpt TEXT NOT NULL,
			embedding VECTOR(%d),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE(source_id, chunk_index)
		)`, dimension),
		`CREATE TABLE IF NOT EXISTS queries (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			bot_id UUID NOT NULL REFERENCES bots(id) ON DELETE CASCADE,
			session_id TEXT NOT NULL,
			query_text TEXT NOT NULL,
			page_url TEXT,
			returned_sources JSONB,
			response_summary TEXT,
			tokens_used INT NOT NULL DEFAULT 0,
			prompt_tokens INT,
			completion_tokens INT,
			confidence DOUBLE PRECISION,
			latency_ms BIGINT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		"CREATE INDEX IF NOT EXISTS idx_chunks_bot ON chunks(bot_id)",
		"CREATE INDEX IF NOT EXISTS idx_chunks_source ON chunks(source_id)",
		"CREATE INDEX IF NOT EXISTS idx_chunks_embedding ON chunks USING ivfflat (embedding vector_cosine_ops)",
		"CREATE INDEX IF NOT EXISTS idx_queries_bot_session ON queries(bot_id, session_id, created_at)",
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("execute schema statement: %w", err)
		}
	}

	return nil
}
