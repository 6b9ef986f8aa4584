package sentiment

// TrendSummary describes the recent direction of a chronological score series.
type TrendSummary struct {
	Trend         string  // "improving", "declining", or "stable"
	RecentAverage float64 // mean of the last window
	Change        float64 // recent average minus the preceding window's average
	Direction     string  // sign of the recent average: positive/negative/neutral
}

const trendChangeThreshold = 0.1

// Trends summarizes a chronological series of sentiment scores. The change
// between the two most recent windows drives the trend; with fewer than two
// full windows of data there is nothing to compare against and the trend is
// reported stable with zero change.
func Trends(scores []float64, windowSize int) TrendSummary {
	if windowSize <= 0 {
		windowSize = 7
	}
	if len(scores) == 0 {
		return TrendSummary{Trend: "stable", Direction: Neutral}
	}

	window := windowSize
	if len(scores) < window {
		window = len(scores)
	}

	recent := mean(scores[len(scores)-window:])

	summary := TrendSummary{
		Trend:         "stable",
		RecentAverage: recent,
		Direction:     signDirection(recent),
	}

	if len(scores) >= 2*windowSize {
		earlier := mean(scores[len(scores)-2*windowSize : len(scores)-windowSize])
		summary.Change = recent - earlier
		switch {
		case summary.Change > trendChangeThreshold:
			summary.Trend = "improving"
		case summary.Change < -trendChangeThreshold:
			summary.Trend = "declining"
		}
	}

	return summary
}

// signDirection reports the plain sign of the recent average. Unlike
// sentiment labels, direction carries no neutral band around zero.
func signDirection(avg float64) string {
	switch {
	case avg > 0:
		return Positive
	case avg < 0:
		return Negative
	default:
		return Neutral
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
