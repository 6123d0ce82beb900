// Package domain models weather observations, disaster events, and the
// deterministic risk scoring rules applied to them.
//
// # Records
//
// Two record kinds feed the engine. A [WeatherObservation] is one sampled
// weather state per region per time bucket (temperature in °C, relative
// humidity in %, wind speed in km/h, rainfall in mm). A [DisasterEvent] is
// a reported disaster occurrence (earthquake, flood, cyclone, wildfire,
// drought, landslide) with a raw severity magnitude and impact estimates.
// Both are immutable once produced by the acquisition collaborator.
//
// # Feature normalization
//
// Raw attributes are linearly rescaled into [0,1] against fixed domains:
//
//	temperature:  [-20, 50] °C, then transformed to "extremity": the
//	              distance from a 20°C comfort midpoint over a ±20°C
//	              range, so extreme heat and extreme cold both raise
//	              risk and anything past 0°C or 40°C is fully extreme
//	wind_speed:   [0, 120] km/h (saturates at hurricane force)
//	rainfall:     [0, 100] mm
//	humidity:     [0, 100] %  (divide by 100)
//	population:   [0, 100000] people affected
//
// Values outside a domain are clamped to the nearest bound rather than
// rejected; clamping is surfaced to the caller so it can be logged and
// counted, but it is never an error. Attributes a record cannot supply
// (an observation has no affected population, an event carries no weather
// state) default to the neutral midpoint 0.5 so every record yields a
// complete feature vector.
//
// # Scoring and classification
//
// The composite score is a weighted sum of normalized features scaled to
// [0,100]. Weights are configuration, must sum to 1.0, and default to:
//
//	wind_speed 0.30 | temperature_extremity 0.25 | population_density 0.20
//	rainfall 0.15 | humidity 0.10
//
// Categories are fixed bands over the score, inclusive-lower /
// exclusive-upper with the top band closed at 100:
//
//	score < 33  → Safe | 33 ≤ score < 66 → Warning | score ≥ 66 → Danger
//
// Alert severity uses the same cutpoints plus a third at 90 (Low, Medium,
// High, Critical) and is then escalated to the event type's configured
// minimum band, whichever is higher. Earthquakes and wildfires therefore
// never alert below High regardless of score.
//
// All scoring functions are pure: the same input always yields the same
// score, and the weighted sum is accumulated in sorted feature order so
// floating-point results are reproducible across runs.
package domain
