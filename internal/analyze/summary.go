package analyze

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/cbruckner/feedbacklens/internal/database"
	"github.com/cbruckner/feedbacklens/internal/llm"
	"github.com/cbruckner/feedbacklens/internal/sentiment"
)

// Summary formats.
const (
	FormatBrief    = "brief"
	FormatDetailed = "detailed"
)

const insightsPrompt = `You are writing key insights for an executive summary of customer feedback.

Period statistics:
%s

Sample of negative feedback titles:
%s

Write 3-5 one-sentence insights a product leader should act on.

Respond with ONLY this JSON:
{
    "insights": [
        "First insight",
        "Second insight",
        "Third insight"
    ]
}`

// Overview is the headline statistics block of an executive summary.
type Overview struct {
	TotalFeedback      int
	SentimentBreakdown map[string]int
	CriticalIssues     int // records marked critical or high severity
	ResponseRate       string
}

// SummaryResult is the outcome of GenerateSummary.
type SummaryResult struct {
	Status
	PeriodID    string
	Overview    Overview
	KeyInsights []string
	BySource    map[string]int // detailed format only
	ByCategory  map[string]int
	ByTier      map[string]int
	Markdown    string
}

// GenerateSummary builds an executive summary over the range and persists it
// for the period. Key insights come from the LLM when one is configured; the
// deterministic fallback derives them from the counts alone.
func (s *Service) GenerateSummary(ctx context.Context, start, end time.Time, format string) SummaryResult {
	records, err := s.db.GetFeedbackInRange(start, end)
	if err != nil {
		return SummaryResult{Status: failure("loading feedback: %v", err)}
	}
	if len(records) == 0 {
		return SummaryResult{Status: failure("no feedback to summarize")}
	}

	total := len(records)
	breakdown := map[string]int{
		sentiment.Positive: 0,
		sentiment.Negative: 0,
		sentiment.Neutral:  0,
	}
	critical := 0
	var negativeTitles []string
	for _, r := range records {
		label := sentiment.Neutral
		if r.Sentiment != nil {
			label = *r.Sentiment
		}
		breakdown[label]++
		if label == sentiment.Negative {
			negativeTitles = append(negativeTitles, r.Title)
		}
		if sev := deref(r.Severity); sev == "critical" || sev == "high" {
			critical++
		}
	}

	result := SummaryResult{
		Status: Status{Success: true},
		Overview: Overview{
			TotalFeedback:      total,
			SentimentBreakdown: breakdown,
			CriticalIssues:     critical,
			ResponseRate:       fmt.Sprintf("%.1f%%", float64(breakdown[sentiment.Positive])/float64(total)*100),
		},
	}

	result.KeyInsights = s.generateInsights(ctx, result.Overview, negativeTitles)

	if format == FormatDetailed {
		result.BySource = groupCount(records, func(r database.Feedback) string { return r.Source })
		result.ByCategory = groupCount(records, func(r database.Feedback) string { return deref(r.Category) })
		result.ByTier = groupCount(records, func(r database.Feedback) string { return deref(r.CustomerTier) })
	}

	result.PeriodID = database.MakePeriodID(
		start.UTC().Format("2006-01-02"),
		end.UTC().Format("2006-01-02"),
	)
	result.Markdown = renderMarkdown(result)

	if err := s.db.InsertSummary(result.PeriodID, result.Markdown, total, breakdown[sentiment.Negative], critical); err != nil {
		return SummaryResult{Status: failure("storing summary: %v", err)}
	}

	log.Printf("Summary generated for %s: %d items, %d negative, %d critical",
		result.PeriodID, total, breakdown[sentiment.Negative], critical)
	return result
}

func (s *Service) generateInsights(ctx context.Context, overview Overview, negativeTitles []string) []string {
	if s.provider == nil || !s.provider.IsConfigured() {
		return fallbackInsights(overview)
	}

	stats := fmt.Sprintf("- total feedback: %d\n- negative: %d\n- positive: %d\n- critical issues: %d",
		overview.TotalFeedback,
		overview.SentimentBreakdown[sentiment.Negative],
		overview.SentimentBreakdown[sentiment.Positive],
		overview.CriticalIssues)

	if len(negativeTitles) > 10 {
		negativeTitles = negativeTitles[:10]
	}
	sample := "(none)"
	if len(negativeTitles) > 0 {
		sample = "- " + strings.Join(negativeTitles, "\n- ")
	}

	responseText, err := s.provider.Generate(ctx, fmt.Sprintf(insightsPrompt, stats, sample), 512)
	if err != nil || responseText == "" {
		log.Printf("Insight generation failed, using fallback: %v", err)
		return fallbackInsights(overview)
	}

	parsed := llm.ParseJSONResponse(responseText)
	if parsed != nil {
		if arr, ok := parsed["insights"].([]any); ok {
			var insights []string
			for _, entry := range arr {
				if line, ok := entry.(string); ok {
					insights = append(insights, line)
				}
			}
			if len(insights) > 0 {
				return insights
			}
		}
	}
	return fallbackInsights(overview)
}

func fallbackInsights(overview Overview) []string {
	return []string{
		fmt.Sprintf("Received %d feedback items in the period", overview.TotalFeedback),
		fmt.Sprintf("%d negative feedback items require attention", overview.SentimentBreakdown[sentiment.Negative]),
		fmt.Sprintf("%d critical issues need immediate action", overview.CriticalIssues),
	}
}

func groupCount(records []database.Feedback, key func(database.Feedback) string) map[string]int {
	groups := make(map[string]int)
	for _, r := range records {
		k := key(r)
		if k == "" {
			k = "unknown"
		}
		groups[k]++
	}
	return groups
}

func renderMarkdown(result SummaryResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Feedback Summary: %s\n\n", database.FormatPeriodDisplay(result.PeriodID))
	fmt.Fprintf(&b, "## Overview\n\n")
	fmt.Fprintf(&b, "- **Total feedback:** %d\n", result.Overview.TotalFeedback)
	fmt.Fprintf(&b, "- **Positive:** %d / **Negative:** %d / **Neutral:** %d\n",
		result.Overview.SentimentBreakdown[sentiment.Positive],
		result.Overview.SentimentBreakdown[sentiment.Negative],
		result.Overview.SentimentBreakdown[sentiment.Neutral])
	fmt.Fprintf(&b, "- **Critical issues:** %d\n", result.Overview.CriticalIssues)
	fmt.Fprintf(&b, "- **Positive share:** %s\n\n", result.Overview.ResponseRate)

	fmt.Fprintf(&b, "## Key Insights\n\n")
	for _, insight := range result.KeyInsights {
		fmt.Fprintf(&b, "- %s\n", insight)
	}

	for _, section := range []struct {
		title  string
		groups map[string]int
	}{
		{"By Source", result.BySource},
		{"By Category", result.ByCategory},
		{"By Customer Tier", result.ByTier},
	} {
		if len(section.groups) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n## %s\n\n", section.title)
		for _, key := range sortedKeys(section.groups) {
			fmt.Fprintf(&b, "- %s: %d\n", key, section.groups[key])
		}
	}

	return b.String()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if m[keys[i]] != m[keys[j]] {
			return m[keys[i]] > m[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}
