package domain

// Score combines a normalized feature vector into a composite risk score
// in [0,100]. Features absent from the weight table contribute nothing;
// weighted features absent from the vector contribute the neutral
// midpoint, mirroring the normalizer's missing-attribute rule. Pure and
// deterministic: weights are applied in sorted feature order so the
// floating-point sum never depends on map iteration order.
func Score(features map[string]float64, cfg EngineConfig) float64 {
	var total float64
	for _, name := range cfg.weightOrder() {
		weight := cfg.FeatureWeights[name]
		value, ok := features[name]
		if !ok {
			value = neutralMidpoint
		}
		value, _ = clampTo(value, 0, 1)
		total += weight * value
	}

	score := total * 100
	score, _ = clampTo(score, 0, 100)
	return score
}

// AssessObservation runs the full rule pipeline on one weather
// observation: normalize, score, classify. The returned assessment also
// reports which raw attributes were clamped so the caller can log them.
func AssessObservation(o WeatherObservation, cfg EngineConfig) (RiskAssessment, []string) {
	features, clamped := NormalizeObservation(o)
	score := Score(features, cfg)
	return RiskAssessment{
		SourceID:   observationID(o),
		SourceKind: SourceObservation,
		RegionID:   o.RegionID,
		Timestamp:  o.Timestamp,
		Score:      score,
		Category:   Classify(score, cfg),
		// Observations have no disaster type; only the score sets severity.
		Severity:   SeverityFor(score, "", cfg),
		Features:   features,
		AssessedAt: clock.Now().UTC(),
	}, clamped
}

// AssessEvent runs the full rule pipeline on one disaster event, applying
// the event type's severity floor.
func AssessEvent(e DisasterEvent, cfg EngineConfig) (RiskAssessment, []string) {
	features, clamped := NormalizeEvent(e)
	score := Score(features, cfg)
	return RiskAssessment{
		SourceID:   e.ID,
		SourceKind: SourceEvent,
		RegionID:   e.RegionID,
		EventType:  e.Type,
		Timestamp:  e.Timestamp,
		Score:      score,
		Category:   Classify(score, cfg),
		Severity:   SeverityFor(score, e.Type, cfg),
		Features:   features,
		AssessedAt: clock.Now().UTC(),
	}, clamped
}
