package analyze

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cbruckner/feedbacklens/internal/database"
	"github.com/cbruckner/feedbacklens/internal/impact"
)

// mockProvider returns canned responses for LLM-dependent paths.
type mockProvider struct {
	response string
	err      error
}

func (m *mockProvider) IsConfigured() bool { return true }

func (m *mockProvider) Generate(_ context.Context, _ string, _ int) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func ptr(s string) *string { return &s }

func insertRecord(t *testing.T, db *database.DB, sourceID, title, content string, createdAt time.Time, mutate func(*database.Feedback)) int64 {
	t.Helper()
	f := &database.Feedback{
		Source:     "zendesk",
		SourceID:   sourceID,
		Title:      title,
		Content:    content,
		CustomerID: "cust-1",
		CreatedAt:  createdAt.UTC().Format(time.RFC3339),
	}
	if mutate != nil {
		mutate(f)
	}
	id, err := db.InsertFeedback(f)
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if f.Sentiment != nil {
		score := 0.0
		if f.SentimentScore != nil {
			score = *f.SentimentScore
		} else if *f.Sentiment == "positive" {
			score = 0.8
		} else if *f.Sentiment == "negative" {
			score = -0.8
		}
		if err := db.UpdateSentiment(id, *f.Sentiment, score); err != nil {
			t.Fatalf("update sentiment failed: %v", err)
		}
	}
	return id
}

func TestSearchFeedback(t *testing.T) {
	db := openTestDB(t)
	now := time.Now().UTC()
	insertRecord(t, db, "t1", "Login broken", "cannot login at all", now, func(f *database.Feedback) {
		f.Sentiment = ptr("negative")
	})
	insertRecord(t, db, "t2", "Nice release", "love the new release", now, func(f *database.Feedback) {
		f.Sentiment = ptr("positive")
	})

	svc := NewService(db, nil)
	result := svc.SearchFeedback(database.SearchFilter{Sentiment: "negative"})
	if !result.Success {
		t.Fatalf("search failed: %s", result.Error)
	}
	if result.Count != 1 || result.Results[0].Title != "Login broken" {
		t.Errorf("unexpected search result: %+v", result)
	}
}

func TestAnalyzeSentimentUsesStoredAndComputed(t *testing.T) {
	db := openTestDB(t)
	now := time.Now().UTC()

	stored := insertRecord(t, db, "t1", "Stored", "whatever text", now, func(f *database.Feedback) {
		f.Sentiment = ptr("positive")
		score := 0.9
		f.SentimentScore = &score
	})
	unscored := insertRecord(t, db, "t2", "Unscored", "terrible broken bug", now, nil)

	svc := NewService(db, nil) // rule-based scorer
	result := svc.AnalyzeSentiment(context.Background(), []int64{stored, unscored}, false)
	if !result.Success {
		t.Fatalf("analysis failed: %s", result.Error)
	}
	if result.Count != 2 {
		t.Fatalf("count = %d, want 2", result.Count)
	}

	byTitle := make(map[string]ItemSentiment)
	for _, item := range result.Results {
		byTitle[item.Title] = item
	}
	if byTitle["Stored"].Score != 0.9 || byTitle["Stored"].Sentiment != "positive" {
		t.Errorf("stored sentiment not reused: %+v", byTitle["Stored"])
	}
	if byTitle["Unscored"].Sentiment != "negative" {
		t.Errorf("unscored record not classified: %+v", byTitle["Unscored"])
	}
	if result.Summary.Distribution["positive"] != 1 || result.Summary.Distribution["negative"] != 1 {
		t.Errorf("distribution = %v", result.Summary.Distribution)
	}
}

func TestAnalyzeSentimentTrends(t *testing.T) {
	db := openTestDB(t)
	var ids []int64
	for i := 0; i < 3; i++ {
		created := time.Date(2026, 2, 2+i*7, 12, 0, 0, 0, time.UTC)
		id := insertRecord(t, db, fmt.Sprintf("t%d", i), "Item", "great product", created, nil)
		ids = append(ids, id)
	}

	svc := NewService(db, nil)
	result := svc.AnalyzeSentiment(context.Background(), ids, true)
	if !result.Success {
		t.Fatalf("analysis failed: %s", result.Error)
	}
	if len(result.Trends) != 3 {
		t.Errorf("expected 3 weekly buckets, got %v", result.Trends)
	}
}

func TestAnalyzeSentimentNoRecords(t *testing.T) {
	svc := NewService(openTestDB(t), nil)
	result := svc.AnalyzeSentiment(context.Background(), []int64{999}, false)
	if result.Success || result.Error == "" {
		t.Errorf("expected failure sentinel, got %+v", result.Status)
	}
}

func TestPrioritizeIssues(t *testing.T) {
	db := openTestDB(t)
	old := time.Now().UTC().Add(-60 * 24 * time.Hour)

	low := insertRecord(t, db, "t1", "Minor gripe", "meh", old, func(f *database.Feedback) {
		f.CustomerTier = ptr("free")
		f.Sentiment = ptr("positive")
	})
	high := insertRecord(t, db, "t2", "Enterprise outage", "all broken", old, func(f *database.Feedback) {
		f.CustomerTier = ptr("enterprise")
		f.Sentiment = ptr("negative")
		f.Severity = ptr("critical")
	})

	svc := NewService(db, nil)
	result := svc.PrioritizeIssues([]int64{low, high}, nil)
	if !result.Success {
		t.Fatalf("prioritize failed: %s", result.Error)
	}
	if result.Results[0].ID != high || result.Results[0].PriorityLevel != impact.PriorityCritical {
		t.Errorf("results[0] = %+v, want enterprise outage first", result.Results[0])
	}
	if result.Results[1].ID != low {
		t.Errorf("results[1] = %+v", result.Results[1])
	}
	if len(result.FactorsUsed) == 0 {
		t.Error("expected default factors to be reported")
	}
}

func TestIdentifyThemesPersistsSnapshot(t *testing.T) {
	db := openTestDB(t)
	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	contents := []string{
		"billing invoice wrong again",
		"billing invoice incorrect charge",
		"billing invoice missing line",
		"dashboard slow loading daily",
		"dashboard slow loading report",
		"dashboard slow loading graphs",
	}
	for i, content := range contents {
		insertRecord(t, db, fmt.Sprintf("t%d", i), "Item", content, base.Add(time.Duration(i)*time.Hour), nil)
	}

	svc := NewService(db, nil)
	start := base.Add(-24 * time.Hour)
	end := base.Add(24 * time.Hour)
	result := svc.IdentifyThemes(start, end, 2, 2)
	if !result.Success {
		t.Fatalf("theme extraction failed: %s", result.Error)
	}
	if result.AnalyzedItems != len(contents) {
		t.Errorf("analyzed %d items, want %d", result.AnalyzedItems, len(contents))
	}
	if result.Count == 0 {
		t.Fatal("expected at least one theme")
	}

	stored, err := db.GetThemeSnapshots(result.PeriodID)
	if err != nil {
		t.Fatalf("loading snapshot: %v", err)
	}
	if len(stored) != result.Count {
		t.Errorf("stored %d snapshots, want %d", len(stored), result.Count)
	}
}

func TestIdentifyThemesEmptyRange(t *testing.T) {
	svc := NewService(openTestDB(t), nil)
	result := svc.IdentifyThemes(time.Now().Add(-time.Hour), time.Now(), 5, 1)
	if result.Success {
		t.Error("expected failure for empty range")
	}
}

func TestCompareThemePeriods(t *testing.T) {
	db := openTestDB(t)
	db.ReplaceThemeSnapshots("2026-02-01..2026-02-28", []database.ThemeSnapshot{
		{PeriodID: "2026-02-01..2026-02-28", Name: "Billing", Keywords: []string{"billing"}, Frequency: 10, Confidence: 0.5},
	})
	db.ReplaceThemeSnapshots("2026-03-01..2026-03-31", []database.ThemeSnapshot{
		{PeriodID: "2026-03-01..2026-03-31", Name: "Billing", Keywords: []string{"billing"}, Frequency: 20, Confidence: 0.5},
	})

	svc := NewService(db, nil)
	result := svc.CompareThemePeriods("2026-02-01..2026-02-28", "2026-03-01..2026-03-31")
	if !result.Success {
		t.Fatalf("comparison failed: %s", result.Error)
	}
	if len(result.Evolution.Emerging) != 1 || result.Evolution.Emerging[0].Name != "Billing" {
		t.Errorf("evolution = %+v", result.Evolution)
	}
}

func TestGenerateSummaryFallbackInsights(t *testing.T) {
	db := openTestDB(t)
	now := time.Now().UTC()
	insertRecord(t, db, "t1", "Broken export", "export fails", now, func(f *database.Feedback) {
		f.Sentiment = ptr("negative")
		f.Severity = ptr("critical")
	})
	insertRecord(t, db, "t2", "Great app", "love it", now, func(f *database.Feedback) {
		f.Sentiment = ptr("positive")
	})

	svc := NewService(db, nil)
	result := svc.GenerateSummary(context.Background(), now.Add(-time.Hour), now.Add(time.Hour), FormatDetailed)
	if !result.Success {
		t.Fatalf("summary failed: %s", result.Error)
	}
	if result.Overview.TotalFeedback != 2 || result.Overview.CriticalIssues != 1 {
		t.Errorf("overview = %+v", result.Overview)
	}
	if result.Overview.ResponseRate != "50.0%" {
		t.Errorf("response rate = %s", result.Overview.ResponseRate)
	}
	if len(result.KeyInsights) != 3 {
		t.Errorf("expected 3 fallback insights, got %v", result.KeyInsights)
	}
	if result.BySource["zendesk"] != 2 {
		t.Errorf("by source = %v", result.BySource)
	}
	if !strings.Contains(result.Markdown, "## Key Insights") {
		t.Error("markdown missing insights section")
	}

	stored, err := db.GetSummary(result.PeriodID)
	if err != nil || stored == nil {
		t.Fatalf("summary not persisted: %v", err)
	}
	if stored.NegativeCount != 1 || stored.CriticalCount != 1 {
		t.Errorf("stored summary = %+v", stored)
	}
}

func TestGenerateSummaryModelInsights(t *testing.T) {
	db := openTestDB(t)
	now := time.Now().UTC()
	insertRecord(t, db, "t1", "Slow sync", "sync is slow", now, func(f *database.Feedback) {
		f.Sentiment = ptr("negative")
	})

	provider := &mockProvider{response: `{"insights": ["Sync performance is the top complaint"]}`}
	svc := NewService(db, provider)
	result := svc.GenerateSummary(context.Background(), now.Add(-time.Hour), now.Add(time.Hour), FormatBrief)
	if !result.Success {
		t.Fatalf("summary failed: %s", result.Error)
	}
	if len(result.KeyInsights) != 1 || result.KeyInsights[0] != "Sync performance is the top complaint" {
		t.Errorf("insights = %v", result.KeyInsights)
	}
	if result.BySource != nil {
		t.Error("brief format should not include breakdowns")
	}
}

func TestGenerateSummaryEmpty(t *testing.T) {
	svc := NewService(openTestDB(t), nil)
	result := svc.GenerateSummary(context.Background(), time.Now().Add(-time.Hour), time.Now(), FormatBrief)
	if result.Success {
		t.Error("expected failure sentinel for empty range")
	}
}
