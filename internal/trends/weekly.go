package trends

import (
	"fmt"
	"time"
)

// Bucket is the aggregate sentiment of one time bucket.
type Bucket struct {
	Average float64
	Count   int
}

// Point is one scored record in a time series.
type Point struct {
	At    time.Time
	Score float64
}

// GroupByWeek buckets points by ISO week of their timestamp and averages the
// scores per bucket. Weeks with no points do not appear; the map is sparse,
// not zero-filled.
func GroupByWeek(points []Point) map[string]Bucket {
	sums := make(map[string]float64)
	counts := make(map[string]int)

	for _, p := range points {
		key := WeekKey(p.At)
		sums[key] += p.Score
		counts[key]++
	}

	buckets := make(map[string]Bucket, len(counts))
	for key, count := range counts {
		buckets[key] = Bucket{Average: sums[key] / float64(count), Count: count}
	}
	return buckets
}

// WeekKey formats a timestamp as its ISO week, e.g. "2026-W07". The ISO year
// can differ from the calendar year at year boundaries.
func WeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}
