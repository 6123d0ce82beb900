package domain

import "sort"

// Feature names produced by the normalizer. The same names key the weight
// table and the trained model's feature order.
const (
	FeatureTemperatureExtremity = "temperature_extremity"
	FeatureHumidity             = "humidity"
	FeatureWindSpeed            = "wind_speed"
	FeatureRainfall             = "rainfall"
	FeaturePopulationDensity    = "population_density"
)

// FeatureNames lists every feature in sorted order. Scoring and training
// both iterate this slice so floating-point accumulation is reproducible.
var FeatureNames = []string{
	FeatureHumidity,
	FeaturePopulationDensity,
	FeatureRainfall,
	FeatureTemperatureExtremity,
	FeatureWindSpeed,
}

// Fixed normalization domains for raw attributes.
const (
	tempMin = -20.0
	tempMax = 50.0
	// comfortMidpoint is the temperature treated as zero-risk; extremity
	// is the distance from it, saturating at extremityRange so 0°C and
	// 40°C are already fully extreme.
	comfortMidpoint = 20.0
	extremityRange  = 20.0

	// windMax saturates at hurricane force; anything past ~120 km/h is
	// maximal risk regardless of how far past.
	windMax     = 120.0 // km/h
	rainfallMax = 100.0 // mm
	humidityMax = 100.0 // %

	populationMax = 100000.0 // people affected

	// neutralMidpoint substitutes for attributes a record cannot supply,
	// keeping the downstream weighted sum total. A deliberate robustness
	// choice over strict validation.
	neutralMidpoint = 0.5
)

// Raw attribute keys accepted by NormalizeRaw. These match the JSON field
// names of the records minus unit suffixes.
const (
	AttrTemperature        = "temperature"
	AttrHumidity           = "humidity"
	AttrWindSpeed          = "wind_speed"
	AttrRainfall           = "rainfall"
	AttrPopulationAffected = "population_affected"
)

// NormalizeRaw maps raw attribute values to the bounded feature vector.
// Unknown keys are ignored; missing keys fall back to the neutral midpoint.
// The returned slice names the attributes that were clamped to a domain
// bound, in sorted order, for warning logs and metrics. Clamping is not
// an error.
func NormalizeRaw(attrs map[string]float64) (map[string]float64, []string) {
	features := map[string]float64{
		FeatureTemperatureExtremity: neutralMidpoint,
		FeatureHumidity:             neutralMidpoint,
		FeatureWindSpeed:            neutralMidpoint,
		FeatureRainfall:             neutralMidpoint,
		FeaturePopulationDensity:    neutralMidpoint,
	}

	var clamped []string
	note := func(attr string, wasClamped bool) {
		if wasClamped {
			clamped = append(clamped, attr)
		}
	}

	if t, ok := attrs[AttrTemperature]; ok {
		v, c := clampTo(t, tempMin, tempMax)
		distance := v - comfortMidpoint
		if distance < 0 {
			distance = -distance
		}
		extremity, _ := clampTo(distance/extremityRange, 0, 1)
		features[FeatureTemperatureExtremity] = extremity
		note(AttrTemperature, c)
	}
	if h, ok := attrs[AttrHumidity]; ok {
		v, c := clampTo(h, 0, humidityMax)
		features[FeatureHumidity] = v / humidityMax
		note(AttrHumidity, c)
	}
	if w, ok := attrs[AttrWindSpeed]; ok {
		v, c := clampTo(w, 0, windMax)
		features[FeatureWindSpeed] = v / windMax
		note(AttrWindSpeed, c)
	}
	if r, ok := attrs[AttrRainfall]; ok {
		v, c := clampTo(r, 0, rainfallMax)
		features[FeatureRainfall] = v / rainfallMax
		note(AttrRainfall, c)
	}
	if p, ok := attrs[AttrPopulationAffected]; ok {
		v, c := clampTo(p, 0, populationMax)
		features[FeaturePopulationDensity] = v / populationMax
		note(AttrPopulationAffected, c)
	}

	sort.Strings(clamped)
	return features, clamped
}

// NormalizeObservation maps a weather observation to the feature vector.
// Observations carry no impact attributes, so population_density stays at
// the neutral midpoint.
func NormalizeObservation(o WeatherObservation) (map[string]float64, []string) {
	return NormalizeRaw(map[string]float64{
		AttrTemperature: o.Temperature,
		AttrHumidity:    o.Humidity,
		AttrWindSpeed:   o.WindSpeed,
		AttrRainfall:    o.Rainfall,
	})
}

// NormalizeEvent maps a disaster event to the feature vector. Events carry
// no weather state, so the weather features stay at the neutral midpoint.
func NormalizeEvent(e DisasterEvent) (map[string]float64, []string) {
	return NormalizeRaw(map[string]float64{
		AttrPopulationAffected: float64(e.PopulationAffected),
	})
}

// clampTo bounds v to [lo, hi] and reports whether it was out of domain.
func clampTo(v, lo, hi float64) (float64, bool) {
	if v < lo {
		return lo, true
	}
	if v > hi {
		return hi, true
	}
	return v, false
}
