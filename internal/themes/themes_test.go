package themes

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
)

func TestExtractThemesEmpty(t *testing.T) {
	result := ExtractThemes(nil, 5, 1)
	if len(result) != 0 {
		t.Errorf("expected no themes for empty input, got %d", len(result))
	}
}

func TestExtractThemesClustersTopics(t *testing.T) {
	texts := []string{
		"the billing invoice is wrong, billing charged twice",
		"billing invoice error, double billing charge",
		"invoice billing problem with my billing statement",
		"dashboard loads slowly, dashboard performance is bad",
		"slow dashboard performance, dashboard takes forever",
		"dashboard performance issue, very slow dashboard",
	}

	result := ExtractThemes(texts, 2, 2)
	if len(result) == 0 {
		t.Fatal("expected themes from clusterable input")
	}

	total := 0
	for _, theme := range result {
		total += theme.Frequency
		if theme.Confidence != float64(theme.Frequency)/float64(len(texts)) {
			t.Errorf("theme %q: confidence %.3f != frequency/total", theme.Name, theme.Confidence)
		}
		if len(theme.Keywords) == 0 || len(theme.Keywords) > 5 {
			t.Errorf("theme %q: %d keywords", theme.Name, len(theme.Keywords))
		}
		if theme.Frequency < 2 {
			t.Errorf("theme %q below min frequency: %d", theme.Name, theme.Frequency)
		}
	}
	if total > len(texts) {
		t.Errorf("frequencies sum to %d, more than %d texts", total, len(texts))
	}

	for i := 1; i < len(result); i++ {
		if result[i].Frequency > result[i-1].Frequency {
			t.Error("themes not sorted by frequency descending")
		}
	}
}

func TestExtractThemesIsDeterministic(t *testing.T) {
	texts := []string{
		"export feature broken, export fails every time",
		"export feature crashes on large export",
		"export error when running export job",
		"login page timeout, login never completes",
		"login timeout error on the login form",
		"cannot login, login page times out",
	}

	first := ExtractThemes(texts, 2, 1)
	for run := 0; run < 3; run++ {
		again := ExtractThemes(texts, 2, 1)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("extraction not reproducible: %+v vs %+v", first, again)
		}
	}
}

func TestExtractThemesKeywordFallback(t *testing.T) {
	// Two texts with num_themes=3 forces the frequency fallback.
	texts := []string{
		"payment failed during checkout",
		"payment declined at checkout again",
	}

	result := ExtractThemes(texts, 3, 2)
	if len(result) == 0 {
		t.Fatal("expected fallback themes")
	}
	for _, theme := range result {
		if len(theme.Keywords) != 1 {
			t.Errorf("fallback theme %q should have one keyword, got %v", theme.Name, theme.Keywords)
		}
		if theme.Name != titleCase(theme.Keywords[0]) {
			t.Errorf("fallback theme name %q does not match keyword %q", theme.Name, theme.Keywords[0])
		}
	}
}

func TestKeywordThemesSkipsStopPhrases(t *testing.T) {
	texts := []string{"this that with from", "this that with from"}
	result := keywordThemes(texts, 5, 1)
	if len(result) != 0 {
		t.Errorf("expected stop phrases to be dropped, got %+v", result)
	}
}

func TestClusterThemeNames(t *testing.T) {
	texts := []string{
		"slow loading dashboard", "slow loading dashboard",
		"slow loading dashboard", "slow loading dashboard",
	}
	result := ExtractThemes(texts, 1, 1)
	if len(result) != 1 {
		t.Fatalf("expected a single theme, got %d", len(result))
	}
	if !strings.Contains(result[0].Name, " & ") {
		t.Errorf("cluster theme name %q missing two-term form", result[0].Name)
	}
}

func TestTokenizeDropsStopwords(t *testing.T) {
	tokens := tokenize("The app IS very slow and buggy")
	want := []string{"app", "slow", "buggy"}
	if !reflect.DeepEqual(tokens, want) {
		t.Errorf("tokenize = %v, want %v", tokens, want)
	}
}

func TestNgramsProducesPhrases(t *testing.T) {
	grams := ngrams([]string{"slow", "dashboard", "loading"})
	want := map[string]bool{
		"slow": true, "dashboard": true, "loading": true,
		"slow dashboard": true, "dashboard loading": true,
		"slow dashboard loading": true,
	}
	if len(grams) != len(want) {
		t.Fatalf("got %d grams: %v", len(grams), grams)
	}
	for _, g := range grams {
		if !want[g] {
			t.Errorf("unexpected gram %q", g)
		}
	}
}

func TestFitVectorizerMinDocFreq(t *testing.T) {
	// "unique" appears in a single document and must not enter the vocabulary.
	v, _ := fitVectorizer([]string{
		"billing problem unique",
		"billing problem",
		"billing problem",
	})
	if v == nil {
		t.Fatal("expected a fitted vectorizer")
	}
	for _, term := range v.terms {
		if term == "unique" {
			t.Error("single-document term entered the vocabulary")
		}
	}
}

func TestKmeansReproducible(t *testing.T) {
	vectors := [][]float64{
		{1, 0, 0}, {0.9, 0.1, 0}, {0, 1, 0}, {0.1, 0.9, 0}, {0, 0, 1}, {0, 0.1, 0.9},
	}
	labels1, _ := kmeans(vectors, 3)
	labels2, _ := kmeans(vectors, 3)
	if !reflect.DeepEqual(labels1, labels2) {
		t.Errorf("kmeans not reproducible: %v vs %v", labels1, labels2)
	}
	if labels1[0] != labels1[1] || labels1[2] != labels1[3] || labels1[4] != labels1[5] {
		t.Errorf("expected natural pairs to share clusters: %v", labels1)
	}
}

func TestTrackEvolutionNoHistory(t *testing.T) {
	current := make([]Theme, 7)
	for i := range current {
		current[i] = Theme{Name: fmt.Sprintf("Theme %d", i), Frequency: 10 - i}
	}

	evo := TrackEvolution(nil, current)
	if len(evo.Emerging) != 5 {
		t.Errorf("expected top 5 emerging without history, got %d", len(evo.Emerging))
	}
	if len(evo.Declining) != 0 || len(evo.Stable) != 0 {
		t.Error("expected no declining or stable themes without history")
	}
}

func TestTrackEvolutionStatuses(t *testing.T) {
	historical := []Theme{
		{Name: "Billing & Invoice", Frequency: 10},
		{Name: "Slow Dashboard", Frequency: 10},
		{Name: "Export Errors", Frequency: 10},
		{Name: "Old Login Flow", Frequency: 4},
	}
	current := []Theme{
		{Name: "Billing & Invoice", Frequency: 20}, // +100% -> emerging
		{Name: "Slow Dashboard", Frequency: 5},     // -50% -> declining
		{Name: "Export Errors", Frequency: 11},     // +10% -> stable
		{Name: "Mobile Crashes", Frequency: 8},     // new -> emerging
	}

	evo := TrackEvolution(historical, current)

	if len(evo.Emerging) != 2 {
		t.Fatalf("expected 2 emerging, got %+v", evo.Emerging)
	}
	// Growth-rate descending: +100% before the brand-new theme at 0.
	if evo.Emerging[0].Name != "Billing & Invoice" {
		t.Errorf("emerging[0] = %s", evo.Emerging[0].Name)
	}

	if len(evo.Declining) != 2 {
		t.Fatalf("expected 2 declining, got %+v", evo.Declining)
	}
	// Most negative first: the disappeared theme at -100%.
	if evo.Declining[0].Name != "Old Login Flow" || !evo.Declining[0].Disappeared {
		t.Errorf("declining[0] = %+v", evo.Declining[0])
	}
	if evo.Declining[1].Name != "Slow Dashboard" {
		t.Errorf("declining[1] = %+v", evo.Declining[1])
	}

	if len(evo.Stable) != 1 || evo.Stable[0].Name != "Export Errors" {
		t.Errorf("stable = %+v", evo.Stable)
	}
}

func TestTrackEvolutionZeroHistoricalFrequency(t *testing.T) {
	historical := []Theme{{Name: "Sync Issues", Frequency: 0}}
	current := []Theme{{Name: "Sync Issues", Frequency: 6}}

	evo := TrackEvolution(historical, current)

	if len(evo.Emerging) != 1 {
		t.Fatalf("expected 1 emerging, got %+v", evo)
	}
	if evo.Emerging[0].GrowthRate != 1.0 {
		t.Errorf("growth rate = %.2f, want 1.0 for zero historical frequency", evo.Emerging[0].GrowthRate)
	}
}

func TestClusterSimilarGroups(t *testing.T) {
	texts := []string{
		"billing invoice wrong charge",
		"billing invoice wrong charge amount",
		"dashboard loading slow today",
		"dashboard loading slow again",
	}

	groups := ClusterSimilar(texts, 0.5)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %v", groups)
	}
	if !reflect.DeepEqual(groups[0], []int{0, 1}) || !reflect.DeepEqual(groups[1], []int{2, 3}) {
		t.Errorf("unexpected grouping: %v", groups)
	}
}

func TestClusterSimilarSingletons(t *testing.T) {
	groups := ClusterSimilar([]string{"only one text"}, 0.5)
	if len(groups) != 1 || len(groups[0]) != 1 {
		t.Errorf("expected a singleton group, got %v", groups)
	}

	if got := ClusterSimilar(nil, 0.5); len(got) != 0 {
		t.Errorf("expected no groups for empty input, got %v", got)
	}

	// No shared vocabulary: every text stays alone.
	groups = ClusterSimilar([]string{"alpha words", "beta terms", "gamma items"}, 0.5)
	if len(groups) != 3 {
		t.Errorf("expected singletons without shared terms, got %v", groups)
	}
}
