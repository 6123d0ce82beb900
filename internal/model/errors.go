package model

import (
	"errors"
	"fmt"
)

// ErrNotTrained is returned when a prediction is requested before any
// model has been trained. Callers surface a "prediction unavailable"
// state rather than failing the whole request cycle.
var ErrNotTrained = errors.New("no trained model available")

// InsufficientDataError reports a training call with fewer labeled
// samples than the configured minimum. Fatal to that training call only;
// a previously trained model remains valid.
type InsufficientDataError struct {
	Got int
	Min int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient training data: got %d labeled samples, need at least %d", e.Got, e.Min)
}

// FeatureMismatchError reports a feature vector missing a feature the
// model requires. Fatal to that training or prediction call only; no
// partial or default prediction is returned in its place.
type FeatureMismatchError struct {
	Feature string
}

func (e *FeatureMismatchError) Error() string {
	return fmt.Sprintf("feature vector is missing required feature %q", e.Feature)
}
