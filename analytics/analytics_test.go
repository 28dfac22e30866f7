package analytics_test

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/google/uuid"

	"github.com/singlebitxyz/botrag/analytics"
	"github.com/singlebitxyz/botrag/rag"
)

type stubBots struct {
	err   error
	calls int
}

func (s *stubBots) GetForUser(ctx context.Context, botID, userID uuid.UUID) (rag.Bot, error) {
	s.calls++
	if s.err != nil {
		return rag.Bot{}, s.err
	}
	return rag.Bot{ID: botID, UserID: userID}, nil
}

func (s *stubBots) Get(ctx context.Context, botID uuid.UUID) (rag.Bot, error) {
	return rag.Bot{ID: botID}, nil
}

var _ rag.BotStore = (*stubBots)(nil)

// Every analytics method must verify ownership before touching the queries
// table. The nil pool guarantees the test fails loudly if a method skips
// the check and reaches the database anyway.
func TestAnalyticsRequiresOwnership(t *testing.T) {
	bots := &stubBots{err: rag.ErrForbidden}
	svc := analytics.NewService(nil, bots, log.New(io.Discard, "", 0))

	botID := uuid.New()
	userID := uuid.New()
	ctx := context.Background()

	if _, err := svc.Summary(ctx, botID, userID, 30); !errors.Is(err, rag.ErrForbidden) {
		t.Fatalf("Summary: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.TopQueries(ctx, botID, userID, 10, 30); !errors.Is(err, rag.ErrForbidden) {
		t.Fatalf("TopQueries: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.UnansweredQueries(ctx, botID, userID, 20, 30); !errors.Is(err, rag.ErrForbidden) {
		t.Fatalf("UnansweredQueries: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.UsageOverTime(ctx, botID, userID, 30); !errors.Is(err, rag.ErrForbidden) {
		t.Fatalf("UsageOverTime: expected ErrForbidden, got %v", err)
	}
	if bots.calls != 4 {
		t.Fatalf("expected 4 ownership checks, got %d", bots.calls)
	}
}
