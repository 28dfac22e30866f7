package rag

import (
	"time"

	"github.com/google/uuid"
)

// RetrievedMatch is one ranked hit from the similarity search, ephemeral
// and scoped to a single query. Similarity is in [0,1] and present on every
// row the Postgres adapter returns.
type RetrievedMatch struct {
	ChunkID    uuid.UUID
	SourceID   uuid.UUID
	Heading    string
	Excerpt    string
	Similarity float64
}

// SourceInfo enriches a citation with the owning source's provenance.
type SourceInfo struct {
	SourceID     uuid.UUID `json:"source_id"`
	SourceType   string    `json:"source_type"`
	OriginalURL  string    `json:"original_url,omitempty"`
	CanonicalURL string    `json:"canonical_url,omitempty"`
	StoragePath  string    `json:"storage_path,omitempty"`
	Filename     string    `json:"filename,omitempty"`
}

// Citation is either minimal (chunk id only, the widget/production path)
// or enriched with heading, score, and source provenance when metadata is
// requested.
type Citation struct {
	ChunkID uuid.UUID   `json:"chunk_id"`
	Heading string      `json:"heading,omitempty"`
	Score   *float64    `json:"score,omitempty"`
	Source  *SourceInfo `json:"source,omitempty"`
}

// ChatTurn is a raw client-supplied message in chronological order.
type ChatTurn struct {
	Text      string
	IsUser    bool
	Timestamp time.Time
}

// HistoryPair is one answered query derived by pairing consecutive
// user/assistant turns.
type HistoryPair struct {
	Query    string
	Response string
}

type Bot struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Name         string
	SystemPrompt string
}

type Source struct {
	ID           uuid.UUID
	BotID        uuid.UUID
	SourceType   string
	OriginalURL  string
	CanonicalURL string
	StoragePath  string
}

// QueryLogRecord is written once per answered query and never updated.
type QueryLogRecord struct {
	BotID            uuid.UUID
	SessionID        string
	QueryText        string
	PageURL          string
	Citations        []Citation
	ResponseSummary  string
	TokensUsed       int
	PromptTokens     int
	CompletionTokens int
	Confidence       *float64
	LatencyMS        int64
}

// Answer is the successful result of one answer request.
type Answer struct {
	Answer         string
	Citations      []Citation
	Confidence     *float64
	ContextPreview string
}
