package analytics

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/singlebitxyz/botrag/rag"
)

// SummaryStats aggregates a bot's query log over a lookback window.
type SummaryStats struct {
	TotalQueries     int64
	UniqueSessions   int64
	TotalTokens      int64
	PromptTokens     int64
	CompletionTokens int64
	AvgConfidence    *float64
	AvgLatencyMS     *float64
	PeriodDays       int
}

// Service answers analytics questions from the queries table. Access is
// ownership-checked through the bot store.
type Service struct {
	pool   *pgxpool.Pool
	bots   rag.BotStore
	logger *log.Logger
}

func NewService(pool *pgxpool.Pool, bots rag.BotStore, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}

	return &Service{
		pool:   pool,
		bots:   bots,
		logger: logger,
	}
}

// Summary returns the bot's usage statistics for the trailing period.
func (s *Service) Summary(ctx context.Context, botID, userID uuid.UUID, days int) (SummaryStats, error) {
	if days <= 0 {
		days = 30
	}

	if _, err := s.bots.GetForUser(ctx, botID, userID); err != nil {
		return SummaryStats{}, err
	}

	since := time.Now().AddDate(0, 0, -days)

	stats := SummaryStats{PeriodDays: days}
	err := s.pool.QueryRow(ctx, `
        SELECT COUNT(*),
               COUNT(DISTINCT session_id),
               COALESCE(SUM(tokens_used), 0),
               COALESCE(SUM(prompt_tokens), 0),
               COALESCE(SUM(completion_tokens), 0),
               AVG(confidence)::float8,
               AVG(latency_ms)::float8
        FROM queries
        WHERE bot_id = $1 AND created_at >= $2
    `, botID, since).Scan(
		&stats.TotalQueries,
		&stats.UniqueSessions,
		&stats.TotalTokens,
		&stats.PromptTokens,
		&stats.CompletionTokens,
		&stats.AvgConfidence,
		&stats.AvgLatencyMS,
	)
	if err != nil {
		s.logger.Printf("summary stats failed for bot %s: %v", botID, err)
		return SummaryStats{}, &rag.StoreError{Op: "query summary stats", Err: err}
	}

	return stats, nil
}

// TopQuery is a recurring question, grouped by its normalized text.
type TopQuery struct {
	QueryText     string
	Frequency     int64
	AvgConfidence *float64
	TotalTokens   int64
	FirstSeen     time.Time
	LastSeen      time.Time
}

// UnansweredQuery is a query the bot likely failed to answer: low
// confidence, or no sources retrieved at all.
type UnansweredQuery struct {
	QueryText       string
	Confidence      *float64
	SourcesCount    int
	ResponseSummary string
	CreatedAt       time.Time
}

// DailyUsage is one day's worth of query volume.
type DailyUsage struct {
	Date          time.Time
	QueryCount    int64
	TotalTokens   int64
	AvgConfidence *float64
}

// TopQueries returns the most frequently asked questions over the trailing
// period. Queries are grouped case-insensitively on the first 100 characters
// and only questions asked more than once are reported.
func (s *Service) TopQueries(ctx context.Context, botID, userID uuid.UUID, limit, days int) ([]TopQuery, error) {
	if limit <= 0 {
		limit = 10
	}
	if days <= 0 {
		days = 30
	}

	if _, err := s.bots.GetForUser(ctx, botID, userID); err != nil {
		return nil, err
	}

	since := time.Now().AddDate(0, 0, -days)

	rows, err := s.pool.Query(ctx, `
        SELECT LEFT(LOWER(TRIM(query_text)), 100),
               COUNT(*),
               AVG(confidence)::float8,
               COALESCE(SUM(tokens_used), 0),
               MIN(created_at),
               MAX(created_at)
        FROM queries
        WHERE bot_id = $1 AND created_at >= $2
        GROUP BY 1
        HAVING COUNT(*) >= 2
        ORDER BY COUNT(*) DESC
        LIMIT $3
    `, botID, since, limit)
	if err != nil {
		s.logger.Printf("top queries failed for bot %s: %v", botID, err)
		return nil, &rag.StoreError{Op: "query top queries", Err: err}
	}
	defer rows.Close()

	var top []TopQuery
	for rows.Next() {
		var q TopQuery
		if err := rows.Scan(&q.QueryText, &q.Frequency, &q.AvgConfidence, &q.TotalTokens, &q.FirstSeen, &q.LastSeen); err != nil {
			return nil, &rag.StoreError{Op: "query top queries", Err: err}
		}
		top = append(top, q)
	}
	if err := rows.Err(); err != nil {
		return nil, &rag.StoreError{Op: "query top queries", Err: err}
	}
	return top, nil
}

// UnansweredQueries returns recent queries where confidence fell below 0.3
// or no sources were returned, newest first.
func (s *Service) UnansweredQueries(ctx context.Context, botID, userID uuid.UUID, limit, days int) ([]UnansweredQuery, error) {
	if limit <= 0 {
		limit = 20
	}
	if days <= 0 {
		days = 30
	}

	if _, err := s.bots.GetForUser(ctx, botID, userID); err != nil {
		return nil, err
	}

	since := time.Now().AddDate(0, 0, -days)

	rows, err := s.pool.Query(ctx, `
        SELECT query_text,
               confidence,
               COALESCE(jsonb_array_length(returned_sources), 0),
               LEFT(COALESCE(response_summary, ''), 200),
               created_at
        FROM queries
        WHERE bot_id = $1 AND created_at >= $2
          AND (confidence < 0.3
               OR returned_sources IS NULL
               OR jsonb_array_length(returned_sources) = 0)
        ORDER BY created_at DESC
        LIMIT $3
    `, botID, since, limit)
	if err != nil {
		s.logger.Printf("unanswered queries failed for bot %s: %v", botID, err)
		return nil, &rag.StoreError{Op: "query unanswered queries", Err: err}
	}
	defer rows.Close()

	var unanswered []UnansweredQuery
	for rows.Next() {
		var q UnansweredQuery
		if err := rows.Scan(&q.QueryText, &q.Confidence, &q.SourcesCount, &q.ResponseSummary, &q.CreatedAt); err != nil {
			return nil, &rag.StoreError{Op: "query unanswered queries", Err: err}
		}
		unanswered = append(unanswered, q)
	}
	if err := rows.Err(); err != nil {
		return nil, &rag.StoreError{Op: "query unanswered queries", Err: err}
	}
	return unanswered, nil
}

// UsageOverTime returns per-day query counts for the trailing period in
// chronological order. Days without traffic are omitted.
func (s *Service) UsageOverTime(ctx context.Context, botID, userID uuid.UUID, days int) ([]DailyUsage, error) {
	if days <= 0 {
		days = 30
	}

	if _, err := s.bots.GetForUser(ctx, botID, userID); err != nil {
		return nil, err
	}

	since := time.Now().AddDate(0, 0, -days)

	rows, err := s.pool.Query(ctx, `
        SELECT created_at::date,
               COUNT(*),
               COALESCE(SUM(tokens_used), 0),
               AVG(confidence)::float8
        FROM queries
        WHERE bot_id = $1 AND created_at >= $2
        GROUP BY 1
        ORDER BY 1
    `, botID, since)
	if err != nil {
		s.logger.Printf("usage over time failed for bot %s: %v", botID, err)
		return nil, &rag.StoreError{Op: "query usage over time", Err: err}
	}
	defer rows.Close()

	var usage []DailyUsage
	for rows.Next() {
		var d DailyUsage
		if err := rows.Scan(&d.Date, &d.QueryCount, &d.TotalTokens, &d.AvgConfidence); err != nil {
			return nil, &rag.StoreError{Op: "query usage over time", Err: err}
		}
		usage = append(usage, d)
	}
	if err := rows.Err(); err != nil {
		return nil, &rag.StoreError{Op: "query usage over time", Err: err}
	}
	return usage, nil
}
