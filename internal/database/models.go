package database

import "time"

// Feedback represents a single normalized customer communication.
// Analysis fields (sentiment, impact_score, severity, themes) are filled
// in by the pipeline after collection.
type Feedback struct {
	ID             int64
	Source         string
	SourceID       string
	Title          string
	Content        string
	Category       *string
	URL            *string
	ContentFetched bool
	CustomerID     string
	CustomerEmail  *string
	CustomerName   *string
	CustomerTier   *string
	Sentiment      *string
	SentimentScore *float64
	ImpactScore    float64
	Severity       *string
	Status         string
	CreatedAt      string // RFC 3339
	UpdatedAt      *string
}

// CreatedTime parses the record's creation timestamp. Records collected
// from sources that only report a date parse as midnight UTC.
func (f *Feedback) CreatedTime() time.Time {
	if t, err := time.Parse(time.RFC3339, f.CreatedAt); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02", f.CreatedAt); err == nil {
		return t
	}
	return time.Time{}
}

// ThemeSnapshot is a persisted theme extraction result for a period,
// kept so theme evolution can compare two periods later.
type ThemeSnapshot struct {
	ID         int64
	PeriodID   string
	Name       string
	Keywords   []string
	Frequency  int
	Confidence float64
	CreatedAt  *string
}

// Summary is a stored executive summary for a period.
type Summary struct {
	ID               int64
	PeriodID         string
	OverviewMarkdown string
	FeedbackCount    int
	NegativeCount    int
	CriticalCount    int
	GeneratedAt      *string
}

// SyncState tracks the last successful sync per source.
type SyncState struct {
	Source   string
	LastSync *string
	Status   string
}

// Stats contains aggregate database statistics.
type Stats struct {
	TotalFeedback    int
	AnalyzedFeedback int
	NegativeFeedback int
	OpenFeedback     int
	Summaries        int
	ThemePeriods     int
}
