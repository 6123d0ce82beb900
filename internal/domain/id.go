package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// observationID produces a deterministic ID for a weather observation from
// its region and time bucket. Observations arrive without their own IDs;
// a deterministic hash keeps reassessment of the same record idempotent,
// the same reason disaster event IDs are stable upstream.
func observationID(o WeatherObservation) string {
	input := fmt.Sprintf("%s|%s", o.RegionID, o.Timestamp.UTC().Format(time.RFC3339))
	hash := sha256.Sum256([]byte(input))
	return "obs-" + hex.EncodeToString(hash[:8])
}
