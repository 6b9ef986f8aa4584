package themes

import (
	"regexp"
	"sort"
	"strings"
)

// Theme is a recurring topic surfaced across a collection of feedback texts.
type Theme struct {
	Name       string
	Keywords   []string // most representative first, at most 5
	Frequency  int      // number of source texts contributing to the theme
	Confidence float64  // Frequency / total texts
}

const maxKeywords = 5

// ExtractThemes identifies up to numThemes themes across the texts, ranked by
// frequency descending. Clustering over TF-IDF vectors is the primary path;
// with too few documents or a degenerate vocabulary it degrades to simple
// keyword frequency counting. Themes backed by fewer than minFrequency texts
// are dropped.
func ExtractThemes(texts []string, numThemes, minFrequency int) []Theme {
	if len(texts) == 0 {
		return []Theme{}
	}
	if numThemes <= 0 {
		numThemes = 5
	}
	if minFrequency <= 0 {
		minFrequency = 1
	}

	if len(texts) >= numThemes {
		if result := clusterThemes(texts, numThemes, minFrequency); result != nil {
			return result
		}
	}
	return keywordThemes(texts, numThemes, minFrequency)
}

// clusterThemes partitions the texts into numThemes clusters over TF-IDF
// vectors and names each retained cluster after its two highest-weighted
// terms. Returns nil when the vocabulary is empty, signalling the caller to
// use the keyword fallback.
func clusterThemes(texts []string, numThemes, minFrequency int) []Theme {
	v, matrix := fitVectorizer(texts)
	if v == nil {
		return nil
	}

	labels, centers := kmeans(matrix, numThemes)
	if labels == nil {
		return nil
	}

	sizes := make(map[int]int)
	for _, label := range labels {
		sizes[label]++
	}

	var result []Theme
	total := float64(len(texts))
	for c, center := range centers {
		size := sizes[c]
		if size < minFrequency {
			continue
		}

		top := topTerms(center, v.terms, maxKeywords)
		if len(top) == 0 {
			continue
		}
		name := titleCase(top[0])
		if len(top) >= 2 {
			name = titleCase(top[0]) + " & " + titleCase(top[1])
		}

		result = append(result, Theme{
			Name:       name,
			Keywords:   top,
			Frequency:  size,
			Confidence: float64(size) / total,
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Frequency > result[j].Frequency
	})
	return result
}

// topTerms returns the n highest-weighted vocabulary terms of a centroid.
func topTerms(center []float64, terms []string, n int) []string {
	type weighted struct {
		term   string
		weight float64
	}
	var candidates []weighted
	for i, w := range center {
		if w > 0 {
			candidates = append(candidates, weighted{terms[i], w})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].weight != candidates[j].weight {
			return candidates[i].weight > candidates[j].weight
		}
		return candidates[i].term < candidates[j].term
	})
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	result := make([]string, len(candidates))
	for i, c := range candidates {
		result[i] = c.term
	}
	return result
}

var wordPattern = regexp.MustCompile(`\b[a-z]{4,}\b`)

// stopPhrases are common filler words excluded from the keyword fallback.
var stopPhrases = map[string]bool{
	"this": true, "that": true, "with": true, "from": true,
	"have": true, "been": true, "were": true, "their": true,
}

// keywordThemes is the frequency-based fallback: words of four or more
// letters counted across texts, returned as single-keyword themes. Each text
// counts toward at most one theme (its highest-ranked matching word), so
// theme frequencies never sum past the number of texts.
func keywordThemes(texts []string, numThemes, minFrequency int) []Theme {
	docWords := make([][]string, len(texts))
	counts := make(map[string]int)
	for i, text := range texts {
		seen := make(map[string]bool)
		for _, word := range wordPattern.FindAllString(strings.ToLower(text), -1) {
			if stopPhrases[word] || seen[word] {
				continue
			}
			seen[word] = true
			docWords[i] = append(docWords[i], word)
			counts[word]++
		}
	}

	var words []string
	for word, count := range counts {
		if count >= minFrequency {
			words = append(words, word)
		}
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})
	if len(words) > numThemes {
		words = words[:numThemes]
	}

	rank := make(map[string]int, len(words))
	for i, word := range words {
		rank[word] = i
	}

	// Attribute each text to its best-ranked surviving word.
	assigned := make([]int, len(words))
	for _, wordsInDoc := range docWords {
		best := -1
		for _, word := range wordsInDoc {
			if r, ok := rank[word]; ok && (best == -1 || r < best) {
				best = r
			}
		}
		if best >= 0 {
			assigned[best]++
		}
	}

	total := float64(len(texts))
	result := make([]Theme, 0, len(words))
	for i, word := range words {
		if assigned[i] < minFrequency {
			continue
		}
		result = append(result, Theme{
			Name:       titleCase(word),
			Keywords:   []string{word},
			Frequency:  assigned[i],
			Confidence: float64(assigned[i]) / total,
		})
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Frequency > result[j].Frequency
	})
	return result
}

// titleCase uppercases the first letter of each space-separated word.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
