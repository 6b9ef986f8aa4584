package sentiment

import (
	"context"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/cbruckner/feedbacklens/internal/llm"
)

const (
	// maxInputLen matches the truncation window of the classifier: anything
	// past it contributes nothing to the class probabilities.
	maxInputLen    = 512
	modelThreshold = 0.1
)

const sentimentPrompt = `You are classifying the sentiment of customer feedback for a product team.

For each numbered feedback text below, estimate class probabilities.

%s

Respond with ONLY this JSON:
{
    "results": [
        {"positive": 0.0, "negative": 0.0, "neutral": 0.0}
    ]
}

One entry per numbered text, in the same order. The three probabilities in each entry must sum to 1.`

// ModelScorer classifies sentiment with an LLM provider. Every inference
// failure is caught locally and routed to the rule-based fallback; a failure
// inside a batch falls back for the whole batch, never partially.
type ModelScorer struct {
	provider llm.Provider
	fallback RuleScorer
}

// Analyze classifies a single text.
func (m *ModelScorer) Analyze(ctx context.Context, text string) Result {
	if strings.TrimSpace(text) == "" {
		return Result{Label: Neutral, Score: 0.0}
	}

	results, err := m.classify(ctx, []string{text})
	if err != nil {
		log.Printf("Model sentiment analysis failed: %v", err)
		return m.fallback.Analyze(ctx, text)
	}
	return results[0]
}

// AnalyzeBatch classifies texts in a single model call. Empty texts are
// scored neutral without touching the model.
func (m *ModelScorer) AnalyzeBatch(ctx context.Context, texts []string) []Result {
	results := make([]Result, len(texts))

	var indices []int
	var nonEmpty []string
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			results[i] = Result{Label: Neutral, Score: 0.0}
			continue
		}
		indices = append(indices, i)
		nonEmpty = append(nonEmpty, text)
	}
	if len(nonEmpty) == 0 {
		return results
	}

	scored, err := m.classify(ctx, nonEmpty)
	if err != nil {
		log.Printf("Batch sentiment analysis failed, falling back to rules: %v", err)
		scored = m.fallback.AnalyzeBatch(ctx, nonEmpty)
	}
	for j, i := range indices {
		results[i] = scored[j]
	}
	return results
}

func (m *ModelScorer) classify(ctx context.Context, texts []string) ([]Result, error) {
	var b strings.Builder
	for i, text := range texts {
		fmt.Fprintf(&b, "%d. %s\n", i+1, truncate(text, maxInputLen))
	}

	responseText, err := m.provider.Generate(ctx, fmt.Sprintf(sentimentPrompt, b.String()), 64*len(texts)+128)
	if err != nil {
		return nil, err
	}

	parsed := llm.ParseJSONResponse(responseText)
	if parsed == nil {
		return nil, fmt.Errorf("unparseable model response")
	}

	raw, ok := parsed["results"].([]any)
	if !ok || len(raw) != len(texts) {
		return nil, fmt.Errorf("expected %d results, got %d", len(texts), len(raw))
	}

	results := make([]Result, len(texts))
	for i, entry := range raw {
		m, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("malformed result entry %d", i)
		}
		results[i] = parseModelEntry(m)
	}
	return results, nil
}

// parseModelEntry converts one model output entry into a Result. The
// multi-class shape yields score = P(positive) - P(negative) with the label
// derived from the score; a single-label shape maps confidence to a signed
// score whose sign agrees with the label.
func parseModelEntry(entry map[string]any) Result {
	if label, ok := entry["label"].(string); ok {
		confidence := getFloat(entry, "score")
		switch {
		case strings.Contains(strings.ToLower(label), Positive):
			return Result{Label: Positive, Score: confidence}
		case strings.Contains(strings.ToLower(label), Negative):
			return Result{Label: Negative, Score: -confidence}
		default:
			return Result{Label: Neutral, Score: 0.0}
		}
	}

	score := getFloat(entry, Positive) - getFloat(entry, Negative)
	return Result{Label: labelForScore(score, modelThreshold), Score: score}
}

// truncate cuts text to at most max bytes without splitting a rune.
func truncate(text string, max int) string {
	if len(text) <= max {
		return text
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

func getFloat(m map[string]any, key string) float64 {
	if v, ok := m[key].(float64); ok {
		return v
	}
	return 0.0
}
