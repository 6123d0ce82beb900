package domain

// Classify buckets a composite score into its risk category. Bands are
// inclusive-lower / exclusive-upper, with the top band closed at 100:
// score < cut0 is Safe, cut0 ≤ score < cut1 is Warning, score ≥ cut1 is
// Danger. Monotonic by construction: a higher score never yields a lower
// category.
func Classify(score float64, cfg EngineConfig) Category {
	switch {
	case score < cfg.ScoreThresholds[0]:
		return CategorySafe
	case score < cfg.ScoreThresholds[1]:
		return CategoryWarning
	default:
		return CategoryDanger
	}
}

// SeverityFor maps a score and disaster type to an alert severity. The
// score alone picks a band over the three cutpoints; the event type's
// configured floor then escalates it: severity = max(score band, type
// floor). Pass an empty type for records with no disaster type.
func SeverityFor(score float64, eventType EventType, cfg EngineConfig) Severity {
	band := SeverityLow
	switch {
	case score >= cfg.ScoreThresholds[2]:
		band = SeverityCritical
	case score >= cfg.ScoreThresholds[1]:
		band = SeverityHigh
	case score >= cfg.ScoreThresholds[0]:
		band = SeverityMedium
	}

	if floor, ok := cfg.TypeSeverityOverrides[eventType]; ok && floor > band {
		return floor
	}
	return band
}
