package domain

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRollupByRegion(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, RollupByRegion(nil))
	})

	t.Run("groups by region", func(t *testing.T) {
		assessments := []RiskAssessment{
			{RegionID: "tokyo-japan", Score: 20, Category: CategorySafe},
			{RegionID: "tokyo-japan", Score: 40, Category: CategoryWarning},
			{RegionID: "tokyo-japan", Score: 90, Category: CategoryDanger},
			{RegionID: "london-uk", Score: 10, Category: CategorySafe},
		}

		rollups := RollupByRegion(assessments)
		require.Len(t, rollups, 2)

		want := map[string]RegionRollup{
			"tokyo-japan": {RegionID: "tokyo-japan", MeanScore: 50, MaxCategory: CategoryDanger, EventCount: 3},
			"london-uk":   {RegionID: "london-uk", MeanScore: 10, MaxCategory: CategorySafe, EventCount: 1},
		}
		if diff := cmp.Diff(want, rollups); diff != "" {
			t.Errorf("rollup mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestTrend(t *testing.T) {
	base := time.Date(2024, 4, 26, 0, 0, 0, 0, time.UTC)

	t.Run("empty input yields nil series", func(t *testing.T) {
		assert.Nil(t, Trend(nil, time.Hour))
	})

	t.Run("non-positive window yields nil series", func(t *testing.T) {
		assert.Nil(t, Trend([]RiskAssessment{{Score: 10}}, 0))
	})

	t.Run("buckets by window in chronological order", func(t *testing.T) {
		assessments := []RiskAssessment{
			{Timestamp: base.Add(25 * time.Hour), Score: 80},
			{Timestamp: base.Add(30 * time.Minute), Score: 10},
			{Timestamp: base.Add(100 * time.Minute), Score: 30},
			{Timestamp: base.Add(90 * time.Minute), Score: 50},
		}

		points := Trend(assessments, time.Hour)
		require.Len(t, points, 3)

		assert.Equal(t, base, points[0].Timestamp)
		assert.InDelta(t, 10, points[0].MeanScore, 1e-9)
		assert.Equal(t, base.Add(time.Hour), points[1].Timestamp)
		assert.InDelta(t, 40, points[1].MeanScore, 1e-9)
		assert.Equal(t, base.Add(25*time.Hour), points[2].Timestamp)
		assert.InDelta(t, 80, points[2].MeanScore, 1e-9)
	})
}

func TestCategoryCounts(t *testing.T) {
	assessments := []RiskAssessment{
		{Category: CategorySafe},
		{Category: CategorySafe},
		{Category: CategoryWarning},
		{Category: CategoryDanger},
	}

	counts := CategoryCounts(assessments)
	assert.Equal(t, 2, counts[CategorySafe])
	assert.Equal(t, 1, counts[CategoryWarning])
	assert.Equal(t, 1, counts[CategoryDanger])
}
