package sentiment

import (
	"context"

	"github.com/cbruckner/feedbacklens/internal/llm"
)

// Sentiment labels.
const (
	Positive = "positive"
	Negative = "negative"
	Neutral  = "neutral"
)

// Result is a sentiment classification. Score is in [-1.0, 1.0]; the label
// always agrees with the score's sign under the producing scorer's thresholds.
type Result struct {
	Label string
	Score float64
}

// Scorer maps feedback text to a sentiment classification.
//
// Implementations are stateless after construction and safe for concurrent
// use. The strategy (model-backed vs rule-based) is chosen once by NewScorer
// at startup, not per call.
type Scorer interface {
	Analyze(ctx context.Context, text string) Result
	AnalyzeBatch(ctx context.Context, texts []string) []Result
}

// NewScorer returns a model-backed scorer when an LLM provider is available,
// and the deterministic rule-based scorer otherwise. The model-backed scorer
// still degrades to rule-based scoring per call if inference fails.
func NewScorer(provider llm.Provider) Scorer {
	if provider != nil && provider.IsConfigured() {
		return &ModelScorer{provider: provider}
	}
	return RuleScorer{}
}

// labelForScore derives the label from a score under the given threshold.
// The model path uses 0.1; the rule-based fallback uses the looser 0.2.
func labelForScore(score, threshold float64) string {
	switch {
	case score > threshold:
		return Positive
	case score < -threshold:
		return Negative
	default:
		return Neutral
	}
}
