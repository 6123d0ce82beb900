package domain

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// RegionRollup summarizes all assessments for one region.
type RegionRollup struct {
	RegionID    string   `json:"region_id"`
	MeanScore   float64  `json:"mean_score"`
	MaxCategory Category `json:"max_category"`
	EventCount  int      `json:"event_count"`
}

// TrendPoint is one bucket of the score-over-time series.
type TrendPoint struct {
	Timestamp time.Time `json:"timestamp"`
	MeanScore float64   `json:"mean_score"`
}

// RollupByRegion reduces assessments to per-region summaries. Pure: it
// only reads already-computed assessments. An empty input yields an empty
// map; a region simply absent from the input has event_count zero by
// definition.
func RollupByRegion(assessments []RiskAssessment) map[string]RegionRollup {
	scores := make(map[string][]float64)
	rollups := make(map[string]RegionRollup)

	for _, a := range assessments {
		scores[a.RegionID] = append(scores[a.RegionID], a.Score)
		r := rollups[a.RegionID]
		r.RegionID = a.RegionID
		r.EventCount++
		if a.Category > r.MaxCategory {
			r.MaxCategory = a.Category
		}
		rollups[a.RegionID] = r
	}

	for region, s := range scores {
		r := rollups[region]
		r.MeanScore = stat.Mean(s, nil)
		rollups[region] = r
	}
	return rollups
}

// Trend buckets assessments by truncating their record timestamps to the
// window and returns the mean score per bucket in chronological order.
// Window must be positive; zero-length input yields a nil series.
func Trend(assessments []RiskAssessment, window time.Duration) []TrendPoint {
	if window <= 0 || len(assessments) == 0 {
		return nil
	}

	buckets := make(map[time.Time][]float64)
	for _, a := range assessments {
		key := a.Timestamp.UTC().Truncate(window)
		buckets[key] = append(buckets[key], a.Score)
	}

	points := make([]TrendPoint, 0, len(buckets))
	for ts, s := range buckets {
		points = append(points, TrendPoint{Timestamp: ts, MeanScore: stat.Mean(s, nil)})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})
	return points
}

// CategoryCounts tallies assessments per risk category, feeding the risk
// distribution display.
func CategoryCounts(assessments []RiskAssessment) map[Category]int {
	counts := make(map[Category]int, len(Categories))
	for _, a := range assessments {
		counts[a.Category]++
	}
	return counts
}
