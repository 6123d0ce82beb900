package domain

import (
	"fmt"
	"math"
	"sort"
)

// weightTolerance is how far the feature weight sum may drift from 1.0
// before the configuration is rejected at load time.
const weightTolerance = 1e-6

// EngineConfig is the engine's only externally tunable surface: the
// feature weight table, the score cutpoints, and per-type severity
// floors. It is passed explicitly into scoring calls rather than read
// from package state so tests can vary it freely.
type EngineConfig struct {
	// FeatureWeights maps feature name to its share of the composite
	// score. Must cover at least one feature and sum to 1.0.
	FeatureWeights map[string]float64 `json:"feature_weights"`

	// ScoreThresholds are three ascending cutpoints over the 0-100 score.
	// The first two bound the Safe/Warning/Danger categories; all three
	// bound the Low/Medium/High/Critical severity bands. Keeping the
	// category and severity cutpoints shared guarantees a Danger record
	// never alerts below High.
	ScoreThresholds [3]float64 `json:"score_thresholds"`

	// TypeSeverityOverrides sets the minimum alert severity per disaster
	// type. The effective severity is the greater of the score-derived
	// band and this floor.
	TypeSeverityOverrides map[EventType]Severity `json:"type_severity_overrides"`
}

// DefaultEngineConfig returns the tuned default rule set. The figures are
// demo-data defaults, not physical constants.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		FeatureWeights: map[string]float64{
			FeatureWindSpeed:            0.30,
			FeatureTemperatureExtremity: 0.25,
			FeaturePopulationDensity:    0.20,
			FeatureRainfall:             0.15,
			FeatureHumidity:             0.10,
		},
		ScoreThresholds: [3]float64{33, 66, 90},
		TypeSeverityOverrides: map[EventType]Severity{
			EventEarthquake: SeverityHigh,
			EventWildfire:   SeverityHigh,
			EventFlood:      SeverityMedium,
			EventCyclone:    SeverityMedium,
		},
	}
}

// Validate rejects weight tables that do not sum to 1.0 and cutpoints that
// are not strictly ascending within (0, 100]. Called once at config load;
// scoring assumes a valid config afterwards.
func (c EngineConfig) Validate() error {
	if len(c.FeatureWeights) == 0 {
		return fmt.Errorf("feature_weights is empty")
	}
	var sum float64
	for _, name := range c.weightOrder() {
		w := c.FeatureWeights[name]
		if w < 0 {
			return fmt.Errorf("feature_weights[%s] is negative: %v", name, w)
		}
		sum += w
	}
	if math.Abs(sum-1.0) > weightTolerance {
		return fmt.Errorf("feature_weights sum to %v, want 1.0 within %v", sum, weightTolerance)
	}

	prev := 0.0
	for i, cut := range c.ScoreThresholds {
		if cut <= prev || cut > 100 {
			return fmt.Errorf("score_thresholds[%d] = %v is not ascending within (0,100]", i, cut)
		}
		prev = cut
	}
	return nil
}

// weightOrder returns the weighted feature names sorted, so every
// iteration over the table is deterministic.
func (c EngineConfig) weightOrder() []string {
	names := make([]string, 0, len(c.FeatureWeights))
	for name := range c.FeatureWeights {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
