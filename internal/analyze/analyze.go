package analyze

import (
	"context"
	"fmt"
	"time"

	"github.com/cbruckner/feedbacklens/internal/database"
	"github.com/cbruckner/feedbacklens/internal/impact"
	"github.com/cbruckner/feedbacklens/internal/llm"
	"github.com/cbruckner/feedbacklens/internal/sentiment"
	"github.com/cbruckner/feedbacklens/internal/trends"
)

// Service exposes the feedback analysis operations. Every operation returns
// a result struct with a Success flag and an Error message instead of a Go
// error: analysis failures are data for the caller, not control flow. Only
// the constructor and storage plumbing surface real errors.
type Service struct {
	db       *database.DB
	scorer   sentiment.Scorer
	provider llm.Provider
}

// NewService creates an analysis service. The sentiment strategy is fixed
// here: model-backed when the provider responds, rule-based otherwise.
func NewService(db *database.DB, provider llm.Provider) *Service {
	return &Service{
		db:       db,
		scorer:   sentiment.NewScorer(provider),
		provider: provider,
	}
}

// Status carries the shared success/error sentinel of every operation result.
type Status struct {
	Success bool
	Error   string
}

func failure(format string, args ...any) Status {
	return Status{Error: fmt.Sprintf(format, args...)}
}

// SearchResult is the outcome of a feedback search.
type SearchResult struct {
	Status
	Count   int
	Results []database.Feedback
}

// SearchFeedback returns stored records matching the filter, newest first.
func (s *Service) SearchFeedback(filter database.SearchFilter) SearchResult {
	records, err := s.db.SearchFeedback(filter)
	if err != nil {
		return SearchResult{Status: failure("search failed: %v", err)}
	}
	return SearchResult{
		Status:  Status{Success: true},
		Count:   len(records),
		Results: records,
	}
}

// ItemSentiment is the per-record outcome of a sentiment analysis.
type ItemSentiment struct {
	ID         int64
	Title      string
	Sentiment  string
	Score      float64
	Confidence float64
}

// SentimentSummary aggregates a batch of sentiment results.
type SentimentSummary struct {
	AverageScore     float64
	Distribution     map[string]int
	OverallSentiment string
}

// SentimentResult is the outcome of AnalyzeSentiment.
type SentimentResult struct {
	Status
	Count   int
	Results []ItemSentiment
	Summary SentimentSummary
	Trends  map[string]trends.Bucket // weekly buckets, nil unless requested
}

// AnalyzeSentiment scores the given records, reusing stored sentiment where
// the pipeline already computed it and invoking the scorer for the rest.
func (s *Service) AnalyzeSentiment(ctx context.Context, ids []int64, includeTrends bool) SentimentResult {
	records, err := s.db.GetFeedbackByIDs(ids)
	if err != nil {
		return SentimentResult{Status: failure("loading feedback: %v", err)}
	}
	if len(records) == 0 {
		return SentimentResult{Status: failure("no feedback items found")}
	}

	// Score only the records without stored sentiment, in one batch.
	var missing []int
	var missingTexts []string
	for i, r := range records {
		if r.Sentiment == nil || r.SentimentScore == nil {
			missing = append(missing, i)
			missingTexts = append(missingTexts, r.Content)
		}
	}
	computed := s.scorer.AnalyzeBatch(ctx, missingTexts)

	scored := make([]sentiment.Result, len(records))
	for i, r := range records {
		if r.Sentiment != nil && r.SentimentScore != nil {
			scored[i] = sentiment.Result{Label: *r.Sentiment, Score: *r.SentimentScore}
		}
	}
	for j, i := range missing {
		scored[i] = computed[j]
	}

	result := SentimentResult{
		Status: Status{Success: true},
		Count:  len(records),
		Summary: SentimentSummary{
			Distribution: map[string]int{
				sentiment.Positive: 0,
				sentiment.Negative: 0,
				sentiment.Neutral:  0,
			},
		},
	}

	var total float64
	for i, r := range records {
		result.Results = append(result.Results, ItemSentiment{
			ID:         r.ID,
			Title:      r.Title,
			Sentiment:  scored[i].Label,
			Score:      scored[i].Score,
			Confidence: abs(scored[i].Score),
		})
		result.Summary.Distribution[scored[i].Label]++
		total += scored[i].Score
	}

	avg := total / float64(len(records))
	result.Summary.AverageScore = avg
	switch {
	case avg > 0.1:
		result.Summary.OverallSentiment = sentiment.Positive
	case avg < -0.1:
		result.Summary.OverallSentiment = sentiment.Negative
	default:
		result.Summary.OverallSentiment = sentiment.Neutral
	}

	if includeTrends {
		points := make([]trends.Point, len(records))
		for i, r := range records {
			points[i] = trends.Point{At: r.CreatedTime(), Score: scored[i].Score}
		}
		result.Trends = trends.GroupByWeek(points)
	}

	return result
}

// PrioritizedItem is one ranked record from PrioritizeIssues.
type PrioritizedItem struct {
	ID            int64
	Title         string
	ImpactScore   float64
	CustomerTier  string
	Sentiment     string
	CreatedAt     string
	PriorityLevel string
}

// PriorityResult is the outcome of PrioritizeIssues.
type PriorityResult struct {
	Status
	Count       int
	Results     []PrioritizedItem
	FactorsUsed []string
}

var defaultFactors = []string{
	impact.FactorCustomerTier,
	impact.FactorSentiment,
	impact.FactorRecency,
}

// PrioritizeIssues ranks the given records by business impact, highest
// first. Ties keep storage order.
func (s *Service) PrioritizeIssues(ids []int64, factors []string) PriorityResult {
	if len(factors) == 0 {
		factors = defaultFactors
	}

	records, err := s.db.GetFeedbackByIDs(ids)
	if err != nil {
		return PriorityResult{Status: failure("loading feedback: %v", err)}
	}
	if len(records) == 0 {
		return PriorityResult{Status: failure("no feedback items found")}
	}

	now := time.Now().UTC()
	inputs := make([]impact.Input, len(records))
	for i, r := range records {
		inputs[i] = impact.Input{
			Tier:      deref(r.CustomerTier),
			Sentiment: deref(r.Sentiment),
			Severity:  deref(r.Severity),
			CreatedAt: r.CreatedTime(),
		}
	}

	ranked := impact.Prioritize(inputs, factors, now)
	result := PriorityResult{
		Status:      Status{Success: true},
		Count:       len(ranked),
		FactorsUsed: factors,
	}
	for _, entry := range ranked {
		r := records[entry.Index]
		result.Results = append(result.Results, PrioritizedItem{
			ID:            r.ID,
			Title:         r.Title,
			ImpactScore:   entry.Score,
			CustomerTier:  deref(r.CustomerTier),
			Sentiment:     deref(r.Sentiment),
			CreatedAt:     r.CreatedAt,
			PriorityLevel: entry.Priority,
		})
	}
	return result
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
