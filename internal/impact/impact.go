package impact

import (
	"sort"
	"time"
)

// Factor names accepted by Score.
const (
	FactorCustomerTier = "customer_tier"
	FactorSentiment    = "sentiment"
	FactorRecency      = "recency"
)

// Priority buckets derived from the impact score.
const (
	PriorityCritical = "critical"
	PriorityHigh     = "high"
	PriorityMedium   = "medium"
	PriorityLow      = "low"
)

// Input is the snapshot of a feedback record the scorer reads. Severity is
// weighed whenever it is set, independent of the requested factors.
type Input struct {
	Tier      string
	Sentiment string
	Severity  string
	CreatedAt time.Time
}

var tierWeights = map[string]float64{
	"enterprise":   40,
	"business":     25,
	"professional": 20,
	"free":         10,
}

var sentimentWeights = map[string]float64{
	"negative": 30,
	"neutral":  15,
	"positive": 0,
}

var severityWeights = map[string]float64{
	"critical": 30,
	"high":     20,
	"medium":   10,
	"low":      5,
}

// Score computes a 0-100 business-impact score from additive factor weights.
// Only factors named in factors contribute, except severity which always
// applies when the record carries one. The result is pure given now; recency
// decays to zero after 20 days.
func Score(input Input, factors []string, now time.Time) float64 {
	requested := make(map[string]bool, len(factors))
	for _, f := range factors {
		requested[f] = true
	}

	var score float64

	if requested[FactorCustomerTier] {
		if w, ok := tierWeights[input.Tier]; ok {
			score += w
		} else {
			score += tierWeights["free"]
		}
	}

	if requested[FactorSentiment] {
		score += sentimentWeights[input.Sentiment]
	}

	if requested[FactorRecency] && !input.CreatedAt.IsZero() {
		ageDays := now.Sub(input.CreatedAt).Hours() / 24
		if recency := 20 - ageDays; recency > 0 {
			score += recency
		}
	}

	if input.Severity != "" {
		if w, ok := severityWeights[input.Severity]; ok {
			score += w
		} else {
			score += severityWeights["low"]
		}
	}

	if score > 100 {
		score = 100
	}
	return score
}

// PriorityLevel maps a score to its priority bucket.
func PriorityLevel(score float64) string {
	switch {
	case score >= 80:
		return PriorityCritical
	case score >= 60:
		return PriorityHigh
	case score >= 40:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// Ranked pairs an index into the caller's record slice with its score.
type Ranked struct {
	Index    int
	Score    float64
	Priority string
}

// Prioritize scores every input and returns them sorted by score descending.
// The sort is stable: ties keep their input order.
func Prioritize(inputs []Input, factors []string, now time.Time) []Ranked {
	ranked := make([]Ranked, len(inputs))
	for i, input := range inputs {
		score := Score(input, factors, now)
		ranked[i] = Ranked{Index: i, Score: score, Priority: PriorityLevel(score)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}
