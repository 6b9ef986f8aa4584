package trends

import (
	"math"
	"testing"
	"time"
)

func day(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t
}

func TestGroupByWeek(t *testing.T) {
	points := []Point{
		{At: day("2026-02-02"), Score: 0.5}, // Monday of week 6
		{At: day("2026-02-04"), Score: -0.5},
		{At: day("2026-02-09"), Score: 0.8}, // week 7
	}

	buckets := GroupByWeek(points)
	if len(buckets) != 2 {
		t.Fatalf("expected 2 buckets, got %v", buckets)
	}

	week6 := buckets["2026-W06"]
	if week6.Count != 2 || math.Abs(week6.Average) > 1e-9 {
		t.Errorf("week 6 = %+v, want count 2 average 0", week6)
	}
	week7 := buckets["2026-W07"]
	if week7.Count != 1 || week7.Average != 0.8 {
		t.Errorf("week 7 = %+v", week7)
	}
}

func TestGroupByWeekSparse(t *testing.T) {
	buckets := GroupByWeek([]Point{{At: day("2026-01-05"), Score: 0.1}})
	if len(buckets) != 1 {
		t.Errorf("expected a single sparse bucket, got %v", buckets)
	}
	if len(GroupByWeek(nil)) != 0 {
		t.Error("expected no buckets for empty input")
	}
}

func TestWeekKeyYearBoundary(t *testing.T) {
	// 2027-01-01 is a Friday, still ISO week 53 of 2026.
	if key := WeekKey(day("2027-01-01")); key != "2026-W53" {
		t.Errorf("WeekKey = %s, want 2026-W53", key)
	}
	if key := WeekKey(day("2026-02-02")); key != "2026-W06" {
		t.Errorf("WeekKey = %s, want 2026-W06", key)
	}
}
