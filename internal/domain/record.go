package domain

import (
	"fmt"
	"time"
)

// EventType identifies the kind of disaster a DisasterEvent reports.
type EventType string

const (
	EventEarthquake EventType = "earthquake"
	EventFlood      EventType = "flood"
	EventCyclone    EventType = "cyclone"
	EventWildfire   EventType = "wildfire"
	EventDrought    EventType = "drought"
	EventLandslide  EventType = "landslide"
)

// KnownEventTypes lists every recognized disaster type in a fixed order.
var KnownEventTypes = []EventType{
	EventEarthquake, EventFlood, EventCyclone,
	EventWildfire, EventDrought, EventLandslide,
}

// WeatherObservation is one sampled weather state for a region and time
// bucket. Immutable once generated by the acquisition collaborator.
type WeatherObservation struct {
	Timestamp   time.Time `json:"timestamp"`
	RegionID    string    `json:"region_id"`
	Temperature float64   `json:"temperature_c"`
	Humidity    float64   `json:"humidity_pct"`
	WindSpeed   float64   `json:"wind_speed_kmh"`
	Rainfall    float64   `json:"rainfall_mm"`
}

// DisasterEvent is a reported disaster occurrence. Immutable after creation.
type DisasterEvent struct {
	ID                 string    `json:"event_id"`
	Type               EventType `json:"type"`
	RegionID           string    `json:"region_id"`
	Timestamp          time.Time `json:"timestamp"`
	SeverityRaw        float64   `json:"severity_raw"`
	PopulationAffected int       `json:"population_affected"`
	EconomicLossUSD    float64   `json:"estimated_economic_loss_usd"`
}

// Category is the ordinal risk label derived from a composite score.
// Higher values are higher risk, so categories compare with <, >.
type Category int

const (
	CategorySafe Category = iota
	CategoryWarning
	CategoryDanger
)

func (c Category) String() string {
	switch c {
	case CategorySafe:
		return "Safe"
	case CategoryWarning:
		return "Warning"
	case CategoryDanger:
		return "Danger"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// Categories lists all risk categories in ascending order of risk.
var Categories = []Category{CategorySafe, CategoryWarning, CategoryDanger}

// MarshalText renders the label. Text rather than JSON marshaling so the
// category also works as a JSON map key, as in per-class probabilities.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(data []byte) error {
	parsed, err := ParseCategory(string(data))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCategory converts a label back to a Category.
func ParseCategory(s string) (Category, error) {
	switch s {
	case "Safe":
		return CategorySafe, nil
	case "Warning":
		return CategoryWarning, nil
	case "Danger":
		return CategoryDanger, nil
	default:
		return 0, fmt.Errorf("unknown risk category %q", s)
	}
}

// Severity is the alert notification level. Ordinal, ascending.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "Low"
	case SeverityMedium:
		return "Medium"
	case SeverityHigh:
		return "High"
	case SeverityCritical:
		return "Critical"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(data []byte) error {
	parsed, err := ParseSeverity(string(data))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSeverity converts a label back to a Severity. Matching is
// case-insensitive on the first letter to tolerate env-var style input.
func ParseSeverity(s string) (Severity, error) {
	switch s {
	case "Low", "low":
		return SeverityLow, nil
	case "Medium", "medium":
		return SeverityMedium, nil
	case "High", "high":
		return SeverityHigh, nil
	case "Critical", "critical":
		return SeverityCritical, nil
	default:
		return 0, fmt.Errorf("unknown alert severity %q", s)
	}
}

// SourceKind distinguishes which record kind produced an assessment.
type SourceKind string

const (
	SourceObservation SourceKind = "observation"
	SourceEvent       SourceKind = "event"
)

// RiskAssessment is the derived, never-persisted output of the engine for
// one record. It is recomputed on every refresh; a new value replaces the
// old one rather than mutating it.
type RiskAssessment struct {
	SourceID   string             `json:"source_id"`
	SourceKind SourceKind         `json:"source_kind"`
	RegionID   string             `json:"region_id"`
	EventType  EventType          `json:"event_type,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
	Score      float64            `json:"composite_score"`
	Category   Category           `json:"category"`
	Severity   Severity           `json:"alert_severity"`
	Features   map[string]float64 `json:"contributing_features"`
	AssessedAt time.Time          `json:"assessed_at"`
}
