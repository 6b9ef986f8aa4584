package themes

// ClusterSimilar groups texts by pairwise cosine similarity over the shared
// TF-IDF representation. Grouping is a greedy single pass: the first
// unassigned text opens a group and claims every later unassigned text whose
// similarity to it meets the threshold. Two texts each similar to an already
// assigned third can therefore land in different groups; grouping is not a
// transitive closure. Returns groups of text indices in first-seen order.
func ClusterSimilar(texts []string, threshold float64) [][]int {
	if len(texts) == 0 {
		return [][]int{}
	}

	singletons := func() [][]int {
		groups := make([][]int, len(texts))
		for i := range texts {
			groups[i] = []int{i}
		}
		return groups
	}

	if len(texts) < 2 {
		return singletons()
	}

	v, matrix := fitVectorizer(texts)
	if v == nil {
		return singletons()
	}

	assigned := make([]bool, len(texts))
	var groups [][]int
	for i := range texts {
		if assigned[i] {
			continue
		}
		group := []int{i}
		assigned[i] = true
		for j := i + 1; j < len(texts); j++ {
			if assigned[j] {
				continue
			}
			if cosineSimilarity(matrix[i], matrix[j]) >= threshold {
				group = append(group, j)
				assigned[j] = true
			}
		}
		groups = append(groups, group)
	}
	return groups
}
