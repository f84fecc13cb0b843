package errors

import "fmt"

// ParseError wraps a specific error with context about where it occurred.
type ParseError struct {
	Line   int
	Record []string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d: %v (record: %v)", e.Line, e.Err, e.Record)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// InsufficientDataError reports a series that lacks the history needed for
// lag construction, training, or the holdout window.
type InsufficientDataError struct {
	Series string
	Have   int
	Need   int
}

func (e *InsufficientDataError) Error() string {
	if e.Series == "" {
		return fmt.Sprintf("%v: have %d records, need %d", ErrInsufficientData, e.Have, e.Need)
	}
	return fmt.Sprintf("%v for %s: have %d records, need %d", ErrInsufficientData, e.Series, e.Have, e.Need)
}

func (e *InsufficientDataError) Unwrap() error {
	return ErrInsufficientData
}

// InvalidParameterError reports a caller-supplied value outside its domain.
// Err is ErrInvalidParameter unless a more specific sentinel applies.
type InvalidParameterError struct {
	Name   string
	Value  any
	Reason string
	Err    error
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("%v: %s=%v: %s", e.sentinel(), e.Name, e.Value, e.Reason)
}

func (e *InvalidParameterError) Unwrap() []error {
	if e.Err == nil || e.Err == ErrInvalidParameter {
		return []error{ErrInvalidParameter}
	}
	return []error{ErrInvalidParameter, e.Err}
}

func (e *InvalidParameterError) sentinel() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidParameter
}

// UnresolvedStaffingError reports an agent search that hit its cap without
// reaching the target service level.
type UnresolvedStaffingError struct {
	MaxAgents            int
	Erlangs              float64
	AchievedServiceLevel float64
}

func (e *UnresolvedStaffingError) Error() string {
	return fmt.Sprintf("%v: %.2f erlangs, best service level %.4f at %d agents",
		ErrUnresolvedStaffing, e.Erlangs, e.AchievedServiceLevel, e.MaxAgents)
}

func (e *UnresolvedStaffingError) Unwrap() error {
	return ErrUnresolvedStaffing
}

// Define specific error types for better error handling
var (
	ErrInvalidFieldCount  = fmt.Errorf("invalid field count")
	ErrInvalidDate        = fmt.Errorf("invalid date")
	ErrInvalidVolume      = fmt.Errorf("invalid volume")
	ErrInvalidHandleTime  = fmt.Errorf("invalid handle time")
	ErrMissingColumn      = fmt.Errorf("missing column")
	ErrEmptyRecord        = fmt.Errorf("empty record")
	ErrInsufficientData   = fmt.Errorf("insufficient data")
	ErrInvalidParameter   = fmt.Errorf("invalid parameter")
	ErrEmptyHorizon       = fmt.Errorf("empty horizon")
	ErrUnresolvedStaffing = fmt.Errorf("staffing target not reachable")
)
