package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cbruckner/feedbacklens/internal/analyze"
	"github.com/cbruckner/feedbacklens/internal/collect"
	"github.com/cbruckner/feedbacklens/internal/config"
	"github.com/cbruckner/feedbacklens/internal/database"
	"github.com/cbruckner/feedbacklens/internal/fetch"
	"github.com/cbruckner/feedbacklens/internal/impact"
	"github.com/cbruckner/feedbacklens/internal/llm"
	"github.com/cbruckner/feedbacklens/internal/sentiment"
)

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full pipeline run.
type Result struct {
	PeriodID string
	Steps    []StepResult
}

// Pipeline orchestrates the 6-step analysis pipeline: sync sources, fetch
// excerpt content, score sentiment, score impact, extract themes, and
// compose the period summary.
type Pipeline struct {
	cfg      *config.Config
	db       *database.DB
	provider llm.Provider
	service  *analyze.Service
	daysBack int
}

// New creates a new pipeline.
func New(cfg *config.Config, db *database.DB, daysBack int) *Pipeline {
	a := cfg.Analysis
	provider := llm.CreateProvider(a.Provider, a.Model, a.OllamaURL, a.OpenAIModel, a.APIKeyEnv)

	return &Pipeline{
		cfg:      cfg,
		db:       db,
		provider: provider,
		service:  analyze.NewService(db, provider),
		daysBack: daysBack,
	}
}

// Run executes the full 6-step pipeline over the trailing daysBack window.
func (p *Pipeline) Run(ctx context.Context) *Result {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -p.daysBack)
	r := &Result{PeriodID: database.MakePeriodID(start.Format("2006-01-02"), end.Format("2006-01-02"))}

	step := p.runSync()
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	r.Steps = append(r.Steps, p.runFetch())
	r.Steps = append(r.Steps, p.runSentiment(ctx))
	r.Steps = append(r.Steps, p.runImpact())
	r.Steps = append(r.Steps, p.runThemes(start, end))
	r.Steps = append(r.Steps, p.runSummary(ctx, start, end))

	return r
}

// DryRun shows what would be done without executing.
func (p *Pipeline) DryRun() *Result {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -p.daysBack)
	periodID := database.MakePeriodID(start.Format("2006-01-02"), end.Format("2006-01-02"))
	r := &Result{PeriodID: periodID}

	states, _ := p.db.GetAllSyncStates()
	r.Steps = append(r.Steps, StepResult{
		Name:    "Sync",
		Summary: fmt.Sprintf("[dry-run] %d sources have synced before", len(states)),
	})

	needing, _ := p.db.GetFeedbackNeedingFetch()
	r.Steps = append(r.Steps, StepResult{
		Name:    "Fetch",
		Summary: fmt.Sprintf("[dry-run] %d records need content fetching", len(needing)),
	})

	unanalyzed, _ := p.db.GetUnanalyzedFeedback()
	r.Steps = append(r.Steps, StepResult{
		Name:    "Sentiment",
		Summary: fmt.Sprintf("[dry-run] %d records need sentiment scoring", len(unanalyzed)),
	})

	inRange, _ := p.db.GetFeedbackInRange(start, end)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Impact",
		Summary: fmt.Sprintf("[dry-run] %d records in range would be rescored", len(inRange)),
	})
	r.Steps = append(r.Steps, StepResult{
		Name:    "Themes",
		Summary: fmt.Sprintf("[dry-run] would extract themes from %d records", len(inRange)),
	})

	existing, _ := p.db.GetSummary(periodID)
	if existing != nil {
		r.Steps = append(r.Steps, StepResult{
			Name:    "Summary",
			Summary: fmt.Sprintf("[dry-run] Summary already exists for %s", periodID),
		})
	} else {
		r.Steps = append(r.Steps, StepResult{
			Name:    "Summary",
			Summary: fmt.Sprintf("[dry-run] Would compose summary for %s", periodID),
		})
	}

	return r
}

func (p *Pipeline) runSync() StepResult {
	log.Println("Step 1/6: Syncing feedback sources...")
	collector := collect.NewCollector(p.cfg, p.db, p.daysBack)
	result := collector.Collect()
	return StepResult{
		Name:    "Sync",
		Summary: fmt.Sprintf("Found %d new records (%d total, %d duplicates)", result.NewRecords, result.TotalFound, result.Duplicates),
	}
}

func (p *Pipeline) runFetch() StepResult {
	log.Println("Step 2/6: Fetching full review content...")
	fetcher := fetch.NewContentFetcher(p.db, 15*time.Second)
	result := fetcher.FetchMissingContent()
	return StepResult{
		Name:    "Fetch",
		Summary: fmt.Sprintf("Fetched %d records, %d failed", result.Fetched, result.Failed),
	}
}

func (p *Pipeline) runSentiment(ctx context.Context) StepResult {
	log.Println("Step 3/6: Scoring sentiment...")
	records, err := p.db.GetUnanalyzedFeedback()
	if err != nil {
		return StepResult{Name: "Sentiment", Err: err}
	}
	if len(records) == 0 {
		return StepResult{Name: "Sentiment", Summary: "All records already scored"}
	}

	scorer := sentiment.NewScorer(p.provider)
	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = r.Content
	}

	scored := 0
	for i, result := range scorer.AnalyzeBatch(ctx, texts) {
		if err := p.db.UpdateSentiment(records[i].ID, result.Label, result.Score); err != nil {
			log.Printf("Failed to store sentiment for %d: %v", records[i].ID, err)
			continue
		}
		scored++
	}
	return StepResult{
		Name:    "Sentiment",
		Summary: fmt.Sprintf("Scored %d of %d records", scored, len(records)),
	}
}

func (p *Pipeline) runImpact() StepResult {
	log.Println("Step 4/6: Scoring business impact...")
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -p.daysBack)

	records, err := p.db.GetFeedbackInRange(start, end)
	if err != nil {
		return StepResult{Name: "Impact", Err: err}
	}

	factors := []string{impact.FactorCustomerTier, impact.FactorSentiment, impact.FactorRecency}
	now := time.Now().UTC()
	updated := 0
	for _, r := range records {
		input := impact.Input{
			CreatedAt: r.CreatedTime(),
		}
		if r.CustomerTier != nil {
			input.Tier = *r.CustomerTier
		}
		if r.Sentiment != nil {
			input.Sentiment = *r.Sentiment
		}
		if r.Severity != nil {
			input.Severity = *r.Severity
		}

		score := impact.Score(input, factors, now)
		if err := p.db.UpdateImpactScore(r.ID, score); err != nil {
			log.Printf("Failed to store impact score for %d: %v", r.ID, err)
			continue
		}
		updated++
	}
	return StepResult{
		Name:    "Impact",
		Summary: fmt.Sprintf("Rescored %d records", updated),
	}
}

func (p *Pipeline) runThemes(start, end time.Time) StepResult {
	log.Println("Step 5/6: Extracting themes...")
	a := p.cfg.Analysis
	result := p.service.IdentifyThemes(start, end, a.NumThemes, a.MinFrequency)
	if !result.Success {
		return StepResult{Name: "Themes", Summary: result.Error}
	}
	return StepResult{
		Name:    "Themes",
		Summary: fmt.Sprintf("Extracted %d themes from %d records", result.Count, result.AnalyzedItems),
	}
}

func (p *Pipeline) runSummary(ctx context.Context, start, end time.Time) StepResult {
	log.Println("Step 6/6: Composing summary...")
	result := p.service.GenerateSummary(ctx, start, end, analyze.FormatDetailed)
	if !result.Success {
		return StepResult{Name: "Summary", Summary: result.Error}
	}
	return StepResult{
		Name:    "Summary",
		Summary: fmt.Sprintf("Summary composed: %d records, %d negative", result.Overview.TotalFeedback, result.Overview.SentimentBreakdown[sentiment.Negative]),
	}
}
