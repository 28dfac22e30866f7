package rag

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/singlebitxyz/botrag/llm"
)

const (
	defaultTopK     = 5
	defaultMinScore = 0.25

	// defaultSessionID is the sentinel used when the caller supplies none.
	defaultSessionID = "server-session"

	defaultSystemPrompt = "You are a helpful assistant. Use the provided context to answer. If unsure, say you don't know."

	summaryLimit        = 2000
	contextPreviewLimit = 1000
)

// Embedder is the slice of the embedding orchestrator the retriever needs.
type Embedder interface {
	EmbedWithFallback(ctx context.Context, texts []string) ([][]float32, string, error)
}

// Service is the per-request answer pipeline. It holds no cross-request
// mutable state; every field is read-only after construction and the
// service is safe for concurrent use.
type Service struct {
	search   SearchStore
	embedder Embedder
	llm      llm.Client
	bots     BotStore
	sources  SourceStore
	queries  QueryLog
	logger   *log.Logger
}

func NewService(search SearchStore, embedder Embedder, llmClient llm.Client, bots BotStore, sources SourceStore, queries QueryLog, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}

	return &Service{
		search:   search,
		embedder: embedder,
		llm:      llmClient,
		bots:     bots,
		sources:  sources,
		queries:  queries,
		logger:   logger,
	}
}

// Retrieve embeds the query and returns ranked chunk matches. Ordering,
// thresholding, and the topK cap are the search store's contract; no
// re-ranking happens here.
func (s *Service) Retrieve(ctx context.Context, botID uuid.UUID, queryText string, topK int, minScore float64) ([]RetrievedMatch, error) {
	if strings.TrimSpace(queryText) == "" {
		return nil, &ValidationError{Reason: "query_text is required"}
	}
	if topK <= 0 {
		topK = defaultTopK
	}

	vectors, provider, err := s.embedder.EmbedWithFallback(ctx, []string{queryText})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, &StoreError{Op: "embed query", Err: fmt.Errorf("embedder returned no vectors")}
	}
	s.logger.Printf("query embedded: bot_id=%s provider=%s", botID, provider)

	matches, err := s.search.Search(ctx, botID, vectors[0], minScore, topK)
	if err != nil {
		s.logger.Printf("retrieval failed: bot_id=%s error=%v", botID, err)
		return nil, &StoreError{Op: "retrieval", Err: err}
	}
	s.logger.Printf("chunks retrieved: bot_id=%s count=%d top_k=%d min_score=%v", botID, len(matches), topK, minScore)
	return matches, nil
}

// AnswerRequest carries one answer call's inputs. An empty UserID marks an
// anonymous widget call: the bot is then resolved without an ownership
// check, the bot id itself being the authorization boundary.
type AnswerRequest struct {
	BotID           uuid.UUID
	UserID          uuid.UUID
	QueryText       string
	TopK            int
	MinScore        float64
	SessionID       string
	PageURL         string
	IncludeMetadata bool
	History         []ChatTurn
}

// Answer runs the full pipeline: retrieve, assemble the prompt, generate,
// and log. Steps execute strictly in sequence; the only failures that stop
// the pipeline are validation, authorization, embedding exhaustion, and
// search/store errors. Citation source lookups, the history DB fallback,
// and the query-log write all degrade gracefully.
func (s *Service) Answer(ctx context.Context, req AnswerRequest) (Answer, error) {
	if req.TopK <= 0 {
		req.TopK = defaultTopK
	}
	if req.MinScore <= 0 {
		req.MinScore = defaultMinScore
	}

	start := time.Now()

	matches, err := s.Retrieve(ctx, req.BotID, req.QueryText, req.TopK, req.MinScore)
	if err != nil {
		return Answer{}, err
	}

	excerpts := make([]string, len(matches))
	for i, match := range matches {
		excerpts[i] = match.Excerpt
	}
	contextText := strings.Join(excerpts, "\n\n")

	var confidence *float64
	var citations []Citation
	if req.IncludeMetadata {
		confidence = confidenceFrom(matches)
		citations = s.enrichedCitations(ctx, matches)
	} else {
		// Lightweight citations for the production/widget path: no extra
		// lookups.
		citations = make([]Citation, len(matches))
		for i, match := range matches {
			citations[i] = Citation{ChunkID: match.ChunkID}
		}
	}

	systemPrompt, err := s.resolveSystemPrompt(ctx, req.BotID, req.UserID)
	if err != nil {
		return Answer{}, err
	}

	history := s.assembleHistory(ctx, req)

	prompt := buildPrompt(systemPrompt, history, contextText, req.QueryText)

	result, err := s.llm.Generate(ctx, prompt)
	if err != nil {
		return Answer{}, fmt.Errorf("llm generate: %w", err)
	}
	latency := time.Since(start).Milliseconds()

	s.logQuery(ctx, req, citations, result, confidence, latency)

	return Answer{
		Answer:         result.Text,
		Citations:      citations,
		Confidence:     confidence,
		ContextPreview: truncate(contextText, contextPreviewLimit),
	}, nil
}

// confidenceFrom averages the similarity scores and caps at 1.0. Nil when
// no match carries a score.
func confidenceFrom(matches []RetrievedMatch) *float64 {
	if len(matches) == 0 {
		return nil
	}
	sum := 0.0
	for _, match := range matches {
		sum += match.Similarity
	}
	mean := sum / float64(len(matches))
	if mean > 1.0 {
		mean = 1.0
	}
	return &mean
}

func (s *Service) enrichedCitations(ctx context.Context, matches []RetrievedMatch) []Citation {
	// Batch-resolve each distinct source once; a failed lookup is logged
	// and that citation simply carries no source info.
	sourcesByID := make(map[uuid.UUID]*Source)
	for _, match := range matches {
		if _, seen := sourcesByID[match.SourceID]; seen {
			continue
		}
		src, err := s.sources.Get(ctx, match.SourceID)
		if err != nil {
			s.logger.Printf("failed to fetch source %s: %v", match.SourceID, err)
			sourcesByID[match.SourceID] = nil
			continue
		}
		sourcesByID[match.SourceID] = &src
	}

	citations := make([]Citation, len(matches))
	for i, match := range matches {
		score := match.Similarity
		citation := Citation{
			ChunkID: match.ChunkID,
			Heading: match.Heading,
			Score:   &score,
		}
		if src := sourcesByID[match.SourceID]; src != nil {
			citation.Source = sourceInfo(src)
		}
		citations[i] = citation
	}
	return citations
}

func sourceInfo(src *Source) *SourceInfo {
	info := &SourceInfo{
		SourceID:     src.ID,
		SourceType:   src.SourceType,
		OriginalURL:  src.OriginalURL,
		CanonicalURL: src.CanonicalURL,
		StoragePath:  src.StoragePath,
	}
	switch src.SourceType {
	case "pdf", "docx", "txt":
		// Storage paths look like bots/{bot}/sources/{source}/{filename}.
		if src.StoragePath != "" {
			parts := strings.Split(src.StoragePath, "/")
			info.Filename = parts[len(parts)-1]
		}
	}
	return info
}

func (s *Service) resolveSystemPrompt(ctx context.Context, botID, userID uuid.UUID) (string, error) {
	var bot Bot
	var err error
	if userID != uuid.Nil {
		bot, err = s.bots.GetForUser(ctx, botID, userID)
		if err != nil {
			return "", err
		}
	} else {
		bot, err = s.bots.Get(ctx, botID)
		if err != nil {
			s.logger.Printf("failed to fetch bot for widget query: %v", err)
		}
	}

	if bot.SystemPrompt != "" {
		return bot.SystemPrompt, nil
	}
	return defaultSystemPrompt, nil
}

// assembleHistory prefers client-supplied turns; with none it falls back to
// the persisted query log for the session. The fallback never fails the
// request.
func (s *Service) assembleHistory(ctx context.Context, req AnswerRequest) []HistoryPair {
	if len(req.History) > 0 {
		pairs := PairTurns(req.History)
		if len(pairs) > 0 {
			s.logger.Printf("using %d previous messages from client chat history", len(pairs))
		}
		return pairs
	}

	if req.SessionID == "" {
		return nil
	}

	pairs, err := s.queries.RecentPairs(ctx, req.BotID, req.SessionID, maxHistoryPairs)
	if err != nil {
		s.logger.Printf("failed to retrieve chat history for session %s: %v", req.SessionID, err)
		return nil
	}

	filtered := pairs[:0]
	for _, pair := range pairs {
		if pair.Query != "" && pair.Response != "" {
			filtered = append(filtered, pair)
		}
	}
	if len(filtered) > 0 {
		s.logger.Printf("retrieved %d previous messages from database for session %s", len(filtered), req.SessionID)
	}
	return filtered
}

// buildPrompt assembles the fixed-order prompt: system prompt, optional
// previous-conversation block, retrieved context, the literal question, and
// the closing instruction.
func buildPrompt(systemPrompt string, history []HistoryPair, contextText, question string) string {
	if rendered := renderHistory(history); rendered != "" {
		return fmt.Sprintf(
			"System prompt: %s\n\nPrevious conversation:\n%s\n\nContext from knowledge base:\n%s\n\nUser question: %s\n\nAnswer concisely and cite sources by heading if helpful. Consider the conversation history when answering.",
			systemPrompt, rendered, contextText, question,
		)
	}
	return fmt.Sprintf(
		"System prompt: %s\n\nContext:\n%s\n\nUser question: %s\n\nAnswer concisely and cite sources by heading if helpful.",
		systemPrompt, contextText, question,
	)
}

// logQuery is fire-and-forget: failures are warned about and never affect
// the response.
func (s *Service) logQuery(ctx context.Context, req AnswerRequest, citations []Citation, result llm.Result, confidence *float64, latencyMS int64) {
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = defaultSessionID
	}

	record := QueryLogRecord{
		BotID:            req.BotID,
		SessionID:        sessionID,
		QueryText:        req.QueryText,
		PageURL:          req.PageURL,
		Citations:        citations,
		ResponseSummary:  truncate(result.Text, summaryLimit),
		TokensUsed:       result.Usage.TotalTokens,
		PromptTokens:     result.Usage.PromptTokens,
		CompletionTokens: result.Usage.CompletionTokens,
		Confidence:       confidence,
		LatencyMS:        latencyMS,
	}

	if err := s.queries.Insert(ctx, record); err != nil {
		s.logger.Printf("failed to log query: %v", err)
	}
}

// truncate caps text at limit characters, never splitting a multi-byte rune.
func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
