package rag

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QueryLog persists one record per answered query. Inserts are best-effort
// from the answer pipeline's perspective; RecentPairs backs the chat
// history fallback.
type QueryLog interface {
	Insert(ctx context.Context, record QueryLogRecord) error
	// RecentPairs returns the last limit query/response pairs for a
	// session, oldest first.
	RecentPairs(ctx context.Context, botID uuid.UUID, sessionID string, limit int) ([]HistoryPair, error)
}

type PostgresQueryLog struct {
	pool *pgxpool.Pool
}

func NewPostgresQueryLog(pool *pgxpool.Pool) *PostgresQueryLog {
	return &PostgresQueryLog{pool: pool}
}

func (l *PostgresQueryLog) Insert(ctx context.Context, record QueryLogRecord) error {
	citations, err := json.Marshal(record.Citations)
	if err != nil {
		return fmt.Errorf("marshal citations: %w", err)
	}

	_, err = l.pool.Exec(ctx, `
        INSERT INTO queries (
            bot_id, session_id, query_text, page_url, returned_sources,
            response_summary, tokens_used, prompt_tokens, completion_tokens,
            confidence, latency_ms
        ) VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9, $10, $11)
    `, record.BotID, record.SessionID, record.QueryText, record.PageURL, citations,
		record.ResponseSummary, record.TokensUsed, record.PromptTokens, record.CompletionTokens,
		record.Confidence, record.LatencyMS)
	if err != nil {
		return &StoreError{Op: "insert query log", Err: err}
	}
	return nil
}

func (l *PostgresQueryLog) RecentPairs(ctx context.Context, botID uuid.UUID, sessionID string, limit int) ([]HistoryPair, error) {
	if limit <= 0 {
		limit = 5
	}

	rows, err := l.pool.Query(ctx, `
        SELECT query_text, COALESCE(response_summary, '')
        FROM queries
        WHERE bot_id = $1 AND session_id = $2
        ORDER BY created_at DESC
        LIMIT $3
    `, botID, sessionID, limit)
	if err != nil {
		return nil, &StoreError{Op: "query recent messages", Err: err}
	}
	defer rows.Close()

	pairs := make([]HistoryPair, 0, limit)
	for rows.Next() {
		var pair HistoryPair
		if err := rows.Scan(&pair.Query, &pair.Response); err != nil {
			return nil, &StoreError{Op: "scan recent message", Err: err}
		}
		pairs = append(pairs, pair)
	}
	if rows.Err() != nil {
		return nil, &StoreError{Op: "query recent messages", Err: rows.Err()}
	}

	// Most recent first from SQL; reverse to chronological order.
	for i, j := 0, len(pairs)-1; i < j; i, j = i+1, j-1 {
		pairs[i], pairs[j] = pairs[j], pairs[i]
	}
	return pairs, nil
}

var _ QueryLog = (*PostgresQueryLog)(nil)
