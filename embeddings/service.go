package embeddings

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
)

// ChunkStore persists embedding vectors against already-created chunk rows.
type ChunkStore interface {
	// UpdateEmbeddings writes one vector per chunk id and returns the number
	// of rows updated. Mismatched or empty inputs are a no-op returning 0.
	UpdateEmbeddings(ctx context.Context, chunkIDs []uuid.UUID, vectors [][]float32) (int, error)
}

// Service orchestrates the configured providers: ordered fallback, batch
// splitting, and dimension conformance. The provider list is read-only
// after construction and the service is safe for concurrent use.
type Service struct {
	providers []Provider
	chunks    ChunkStore
	dimension int
	batchSize int
	logger    *log.Logger
}

func NewService(providers []Provider, chunks ChunkStore, dimension, batchSize int, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	if batchSize <= 0 {
		batchSize = 64
	}

	return &Service{
		providers: providers,
		chunks:    chunks,
		dimension: dimension,
		batchSize: batchSize,
		logger:    logger,
	}
}

// EmbedWithFallback tries each provider in order and returns the first
// successful result along with the name of the provider that produced it.
// Every returned vector has exactly the configured dimension: longer
// vectors are truncated to a prefix, shorter ones zero-padded; the policy
// is fixed and applied nowhere else. When every provider fails, the last
// error is wrapped in a TransientError so callers treat exhaustion as
// retryable.
func (s *Service) EmbedWithFallback(ctx context.Context, texts []string) ([][]float32, string, error) {
	if len(s.providers) == 0 {
		return nil, "", &TransientError{Provider: "none", Err: fmt.Errorf("no embedding providers configured")}
	}

	var lastErr error
	for _, provider := range s.providers {
		vectors, err := provider.EmbedTexts(ctx, texts, "")
		if err != nil {
			if IsFatal(err) {
				s.logger.Printf("fatal error from %s embeddings: %v", provider.Name(), err)
			} else {
				s.logger.Printf("transient error from %s embeddings: %v; trying fallback", provider.Name(), err)
			}
			lastErr = err
			continue
		}

		for i, vec := range vectors {
			if len(vec) != s.dimension {
				s.logger.Printf("provider %s:%s returned dimension %d, conforming to %d",
					provider.Name(), provider.Model(), len(vec), s.dimension)
				vectors[i] = conform(vec, s.dimension)
			}
		}
		return vectors, provider.Name(), nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("embedding failed")
	}
	return nil, "", &TransientError{Provider: "all", Err: lastErr}
}

// EmbedChunksForSource embeds texts in consecutive batches and persists
// each batch's vectors against the matching chunk ids. Batches run strictly
// one after another; a failed batch stops the loop but does not roll back
// the batches already committed. The returned count is what actually
// persisted, so the caller can mark the owning source failed when it is
// short of len(chunkIDs). Re-running is idempotent for chunks that still
// have no embedding.
func (s *Service) EmbedChunksForSource(ctx context.Context, sourceID uuid.UUID, chunkIDs []uuid.UUID, texts []string) (int, error) {
	if len(texts) == 0 || len(chunkIDs) == 0 || len(texts) != len(chunkIDs) {
		s.logger.Printf("embed chunks for source %s called with invalid inputs", sourceID)
		return 0, nil
	}

	total := len(texts)
	totalBatches := (total + s.batchSize - 1) / s.batchSize
	s.logger.Printf("embedding %d chunks for source %s (batch_size=%d, batches=%d)",
		total, sourceID, s.batchSize, totalBatches)

	updated := 0
	for start := 0; start < total; start += s.batchSize {
		end := start + s.batchSize
		if end > total {
			end = total
		}
		batchNum := start/s.batchSize + 1

		vectors, providerUsed, err := s.EmbedWithFallback(ctx, texts[start:end])
		if err != nil {
			return updated, fmt.Errorf("embed batch %d/%d for source %s: %w", batchNum, totalBatches, sourceID, err)
		}

		count, err := s.chunks.UpdateEmbeddings(ctx, chunkIDs[start:end], vectors)
		if err != nil {
			return updated, fmt.Errorf("persist batch %d/%d for source %s: %w", batchNum, totalBatches, sourceID, err)
		}
		updated += count
		s.logger.Printf("batch %d/%d for source %s: embedded %d via %s, updated %d",
			batchNum, totalBatches, sourceID, end-start, providerUsed, count)
	}

	s.logger.Printf("embedding complete for source %s: updated %d/%d chunks", sourceID, updated, total)
	return updated, nil
}

func conform(vec []float32, dimension int) []float32 {
	if len(vec) >= dimension {
		return vec[:dimension]
	}
	padded := make([]float32, dimension)
	copy(padded, vec)
	return padded
}
