package themes

import (
	"math"
	"math/rand"
)

const (
	kmeansSeed     = 42
	kmeansRestarts = 10
	kmeansMaxIter  = 300
)

// kmeans partitions vectors into k clusters. It runs kmeansRestarts
// initializations from a fixed seed and keeps the assignment with the lowest
// inertia, so results are reproducible for the same input. Returns the
// per-vector cluster labels and the final centroids.
func kmeans(vectors [][]float64, k int) ([]int, [][]float64) {
	n := len(vectors)
	if n == 0 || k <= 0 {
		return nil, nil
	}
	if k > n {
		k = n
	}
	dim := len(vectors[0])

	rng := rand.New(rand.NewSource(kmeansSeed))

	var bestLabels []int
	var bestCenters [][]float64
	bestInertia := math.MaxFloat64

	for restart := 0; restart < kmeansRestarts; restart++ {
		centers := initCenters(vectors, k, rng)
		labels := make([]int, n)

		for iter := 0; iter < kmeansMaxIter; iter++ {
			changed := false
			for i, vec := range vectors {
				best := nearestCenter(vec, centers)
				if labels[i] != best {
					labels[i] = best
					changed = true
				}
			}
			if iter > 0 && !changed {
				break
			}

			// Recompute centroids; empty clusters keep their previous center.
			counts := make([]int, k)
			next := make([][]float64, k)
			for c := range next {
				next[c] = make([]float64, dim)
			}
			for i, vec := range vectors {
				counts[labels[i]]++
				for d, x := range vec {
					next[labels[i]][d] += x
				}
			}
			for c := range next {
				if counts[c] == 0 {
					copy(next[c], centers[c])
					continue
				}
				for d := range next[c] {
					next[c][d] /= float64(counts[c])
				}
			}
			centers = next
		}

		inertia := 0.0
		for i, vec := range vectors {
			inertia += squaredDistance(vec, centers[labels[i]])
		}
		if inertia < bestInertia {
			bestInertia = inertia
			bestLabels = labels
			bestCenters = centers
		}
	}

	return bestLabels, bestCenters
}

// initCenters picks k distinct vectors as starting centroids.
func initCenters(vectors [][]float64, k int, rng *rand.Rand) [][]float64 {
	perm := rng.Perm(len(vectors))
	centers := make([][]float64, k)
	for c := 0; c < k; c++ {
		centers[c] = make([]float64, len(vectors[0]))
		copy(centers[c], vectors[perm[c]])
	}
	return centers
}

func nearestCenter(vec []float64, centers [][]float64) int {
	best := 0
	bestDist := math.MaxFloat64
	for c, center := range centers {
		d := squaredDistance(vec, center)
		if d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best
}

func squaredDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum
}
