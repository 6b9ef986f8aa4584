package sentiment

import (
	"context"
	"strings"
)

// ruleThreshold is looser than the model path's 0.1: keyword counts are a
// weak signal, so the fallback is intentionally less decisive.
const ruleThreshold = 0.2

var positiveWords = []string{
	"great", "excellent", "amazing", "wonderful", "fantastic",
	"love", "perfect", "best", "awesome", "impressive",
	"thank", "thanks", "good", "nice", "happy", "help",
}

var negativeWords = []string{
	"bad", "terrible", "awful", "horrible", "worst",
	"hate", "disappointed", "frustrating", "poor", "broken",
	"bug", "issue", "problem", "error", "fail", "crash",
	"slow", "confusing", "difficult", "useless",
}

// RuleScorer is the deterministic keyword-based fallback scorer. It needs no
// model, no network, and always produces the same result for the same text.
type RuleScorer struct{}

// Analyze scans the text against the fixed keyword lists.
func (RuleScorer) Analyze(_ context.Context, text string) Result {
	return scoreByRules(text)
}

// AnalyzeBatch scores each text independently; order and length match the input.
func (s RuleScorer) AnalyzeBatch(ctx context.Context, texts []string) []Result {
	results := make([]Result, len(texts))
	for i, text := range texts {
		results[i] = s.Analyze(ctx, text)
	}
	return results
}

func scoreByRules(text string) Result {
	if strings.TrimSpace(text) == "" {
		return Result{Label: Neutral, Score: 0.0}
	}

	lower := strings.ToLower(text)

	var positive, negative int
	for _, word := range positiveWords {
		if strings.Contains(lower, word) {
			positive++
		}
	}
	for _, word := range negativeWords {
		if strings.Contains(lower, word) {
			negative++
		}
	}

	total := positive + negative
	if total == 0 {
		return Result{Label: Neutral, Score: 0.0}
	}

	score := float64(positive-negative) / float64(total)
	return Result{Label: labelForScore(score, ruleThreshold), Score: score}
}
