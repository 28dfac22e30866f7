package rag

import "strings"

// maxHistoryPairs bounds the conversation window supplied to the prompt.
const maxHistoryPairs = 5

// PairTurns reconstructs ordered query/response pairs from an interleaved
// chronological message list. A user turn immediately followed by a
// non-user turn forms a pair; unanswered user turns and standalone
// assistant turns are dropped. The result keeps only the most recent
// maxHistoryPairs pairs.
func PairTurns(turns []ChatTurn) []HistoryPair {
	var pairs []HistoryPair

	for i := 0; i < len(turns); {
		if !turns[i].IsUser {
			i++
			continue
		}
		if i+1 < len(turns) && !turns[i+1].IsUser {
			query := strings.TrimSpace(turns[i].Text)
			response := strings.TrimSpace(turns[i+1].Text)
			if query != "" && response != "" {
				pairs = append(pairs, HistoryPair{Query: query, Response: response})
			}
			i += 2
			continue
		}
		i++
	}

	if len(pairs) > maxHistoryPairs {
		pairs = pairs[len(pairs)-maxHistoryPairs:]
	}
	return pairs
}

// renderHistory formats pairs as the "previous conversation" prompt block.
func renderHistory(pairs []HistoryPair) string {
	parts := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		if pair.Query == "" || pair.Response == "" {
			continue
		}
		parts = append(parts, "User: "+pair.Query+"\nAssistant: "+pair.Response)
	}
	return strings.Join(parts, "\n\n")
}
