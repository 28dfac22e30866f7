package rag_test

import (
	"fmt"
	"testing"

	"github.com/singlebitxyz/botrag/rag"
)

func user(text string) rag.ChatTurn      { return rag.ChatTurn{Text: text, IsUser: true} }
func assistant(text string) rag.ChatTurn { return rag.ChatTurn{Text: text, IsUser: false} }

func TestPairTurnsDropsUnansweredUserTurn(t *testing.T) {
	pairs := rag.PairTurns([]rag.ChatTurn{user("a"), assistant("b"), user("c")})
	if len(pairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(pairs))
	}
	if pairs[0].Query != "a" || pairs[0].Response != "b" {
		t.Fatalf("unexpected pair: %+v", pairs[0])
	}
}

func TestPairTurnsSkipsLeadingAssistantTurn(t *testing.T) {
	pairs := rag.PairTurns([]rag.ChatTurn{assistant("x"), user("a"), assistant("b")})
	if len(pairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(pairs))
	}
	if pairs[0].Query != "a" || pairs[0].Response != "b" {
		t.Fatalf("unexpected pair: %+v", pairs[0])
	}
}

func TestPairTurnsKeepsMostRecentFive(t *testing.T) {
	var turns []rag.ChatTurn
	for i := 1; i <= 20; i++ {
		turns = append(turns, user(fmt.Sprintf("q%d", i)), assistant(fmt.Sprintf("r%d", i)))
	}

	pairs := rag.PairTurns(turns)
	if len(pairs) != 5 {
		t.Fatalf("expected 5 pairs, got %d", len(pairs))
	}
	if pairs[0].Query != "q16" || pairs[4].Query != "q20" {
		t.Fatalf("expected the most recent pairs, got %+v", pairs)
	}
}

func TestPairTurnsEmptyInput(t *testing.T) {
	if pairs := rag.PairTurns(nil); len(pairs) != 0 {
		t.Fatalf("expected no pairs, got %d", len(pairs))
	}
}

func TestPairTurnsConsecutiveUserTurns(t *testing.T) {
	pairs := rag.PairTurns([]rag.ChatTurn{user("a"), user("b"), assistant("c")})
	if len(pairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(pairs))
	}
	if pairs[0].Query != "b" || pairs[0].Response != "c" {
		t.Fatalf("unexpected pair: %+v", pairs[0])
	}
}
