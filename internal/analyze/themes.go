package analyze

import (
	"time"

	"github.com/cbruckner/feedbacklens/internal/database"
	"github.com/cbruckner/feedbacklens/internal/themes"
)

// ThemeResult is the outcome of IdentifyThemes.
type ThemeResult struct {
	Status
	Count         int
	Themes        []themes.Theme
	AnalyzedItems int
	PeriodID      string
}

// IdentifyThemes extracts themes from all feedback in the range and persists
// them as the period's snapshot so later runs can track evolution against it.
func (s *Service) IdentifyThemes(start, end time.Time, numThemes, minFrequency int) ThemeResult {
	if numThemes <= 0 {
		numThemes = 10
	}
	if minFrequency <= 0 {
		minFrequency = 3
	}

	records, err := s.db.GetFeedbackInRange(start, end)
	if err != nil {
		return ThemeResult{Status: failure("loading feedback: %v", err)}
	}
	if len(records) == 0 {
		return ThemeResult{Status: failure("no feedback items found in date range")}
	}

	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = r.Content
	}

	extracted := themes.ExtractThemes(texts, numThemes, minFrequency)

	periodID := database.MakePeriodID(
		start.UTC().Format("2006-01-02"),
		end.UTC().Format("2006-01-02"),
	)
	snapshots := make([]database.ThemeSnapshot, len(extracted))
	for i, t := range extracted {
		snapshots[i] = database.ThemeSnapshot{
			PeriodID:   periodID,
			Name:       t.Name,
			Keywords:   t.Keywords,
			Frequency:  t.Frequency,
			Confidence: t.Confidence,
		}
	}
	if err := s.db.ReplaceThemeSnapshots(periodID, snapshots); err != nil {
		return ThemeResult{Status: failure("storing theme snapshot: %v", err)}
	}

	return ThemeResult{
		Status:        Status{Success: true},
		Count:         len(extracted),
		Themes:        extracted,
		AnalyzedItems: len(records),
		PeriodID:      periodID,
	}
}

// EvolutionResult is the outcome of comparing two stored theme periods.
type EvolutionResult struct {
	Status
	Evolution themes.Evolution
}

// CompareThemePeriods loads the stored snapshots of two periods and tracks
// how themes moved between them.
func (s *Service) CompareThemePeriods(historicalPeriod, currentPeriod string) EvolutionResult {
	historical, err := s.db.GetThemeSnapshots(historicalPeriod)
	if err != nil {
		return EvolutionResult{Status: failure("loading historical themes: %v", err)}
	}
	current, err := s.db.GetThemeSnapshots(currentPeriod)
	if err != nil {
		return EvolutionResult{Status: failure("loading current themes: %v", err)}
	}
	if len(current) == 0 {
		return EvolutionResult{Status: failure("no themes stored for period %s", currentPeriod)}
	}

	return EvolutionResult{
		Status:    Status{Success: true},
		Evolution: themes.TrackEvolution(toThemes(historical), toThemes(current)),
	}
}

func toThemes(snapshots []database.ThemeSnapshot) []themes.Theme {
	result := make([]themes.Theme, len(snapshots))
	for i, s := range snapshots {
		result[i] = themes.Theme{
			Name:       s.Name,
			Keywords:   s.Keywords,
			Frequency:  s.Frequency,
			Confidence: s.Confidence,
		}
	}
	return result
}
