package themes

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

const (
	maxVocabulary = 1000
	minDocFreq    = 2
	maxNgram      = 3
)

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// stopwords is the fixed English stopword list applied before n-gram
// construction. Phrases never start or end with a stopword because stopword
// tokens are removed outright.
var stopwords = map[string]bool{
	"a": true, "about": true, "above": true, "after": true, "again": true,
	"all": true, "am": true, "an": true, "and": true, "any": true, "are": true,
	"as": true, "at": true, "be": true, "because": true, "been": true,
	"before": true, "being": true, "below": true, "between": true, "both": true,
	"but": true, "by": true, "can": true, "did": true, "do": true, "does": true,
	"doing": true, "down": true, "during": true, "each": true, "few": true,
	"for": true, "from": true, "further": true, "had": true, "has": true,
	"have": true, "having": true, "he": true, "her": true, "here": true,
	"hers": true, "him": true, "his": true, "how": true, "i": true, "if": true,
	"in": true, "into": true, "is": true, "it": true, "its": true, "just": true,
	"me": true, "more": true, "most": true, "my": true, "no": true, "nor": true,
	"not": true, "now": true, "of": true, "off": true, "on": true, "once": true,
	"only": true, "or": true, "other": true, "our": true, "out": true,
	"over": true, "own": true, "same": true, "she": true, "should": true,
	"so": true, "some": true, "such": true, "than": true, "that": true,
	"the": true, "their": true, "them": true, "then": true, "there": true,
	"these": true, "they": true, "this": true, "those": true, "through": true,
	"to": true, "too": true, "under": true, "until": true, "up": true,
	"very": true, "was": true, "we": true, "were": true, "what": true,
	"when": true, "where": true, "which": true, "while": true, "who": true,
	"whom": true, "why": true, "will": true, "with": true, "you": true,
	"your": true, "yours": true,
}

// vectorizer holds a fitted TF-IDF vocabulary over 1-3 word phrases.
type vectorizer struct {
	terms []string  // vocabulary, index = column in the document vectors
	idf   []float64 // per-term inverse document frequency
}

// tokenize lowercases, splits on non-alphanumerics, and drops stopwords.
func tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		if !stopwords[tok] {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// ngrams expands tokens into all phrases of 1 to maxNgram consecutive tokens.
func ngrams(tokens []string) []string {
	var grams []string
	for n := 1; n <= maxNgram; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			grams = append(grams, strings.Join(tokens[i:i+n], " "))
		}
	}
	return grams
}

// fitVectorizer builds the vocabulary and document-term matrix. Terms must
// appear in at least minDocFreq documents; the vocabulary is capped at
// maxVocabulary terms by total frequency. Returns nil when no term survives.
func fitVectorizer(texts []string) (*vectorizer, [][]float64) {
	docGrams := make([][]string, len(texts))
	docFreq := make(map[string]int)
	totalFreq := make(map[string]int)

	for i, text := range texts {
		grams := ngrams(tokenize(text))
		docGrams[i] = grams

		seen := make(map[string]bool)
		for _, g := range grams {
			totalFreq[g]++
			if !seen[g] {
				seen[g] = true
				docFreq[g]++
			}
		}
	}

	var candidates []string
	for term, df := range docFreq {
		if df >= minDocFreq {
			candidates = append(candidates, term)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	// Highest total frequency first; alphabetical tie-break keeps the
	// vocabulary (and thus cluster names) stable across runs.
	sort.Slice(candidates, func(i, j int) bool {
		if totalFreq[candidates[i]] != totalFreq[candidates[j]] {
			return totalFreq[candidates[i]] > totalFreq[candidates[j]]
		}
		return candidates[i] < candidates[j]
	})
	if len(candidates) > maxVocabulary {
		candidates = candidates[:maxVocabulary]
	}
	sort.Strings(candidates)

	index := make(map[string]int, len(candidates))
	for i, term := range candidates {
		index[term] = i
	}

	v := &vectorizer{terms: candidates, idf: make([]float64, len(candidates))}
	n := float64(len(texts))
	for i, term := range candidates {
		// Smoothed IDF: ln((1+n)/(1+df)) + 1, never zero or negative.
		v.idf[i] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}

	matrix := make([][]float64, len(texts))
	for d, grams := range docGrams {
		row := make([]float64, len(candidates))
		for _, g := range grams {
			if col, ok := index[g]; ok {
				row[col]++
			}
		}
		for col := range row {
			row[col] *= v.idf[col]
		}
		normalize(row)
		matrix[d] = row
	}

	return v, matrix
}

// normalize scales a vector to unit Euclidean length in place.
func normalize(vec []float64) {
	var sum float64
	for _, x := range vec {
		sum += x * x
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range vec {
		vec[i] /= norm
	}
}

// cosineSimilarity of two vectors; unit-normalized inputs make this a dot product.
func cosineSimilarity(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
