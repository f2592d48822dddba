package valueobject

import "errors"

// Severity grades how urgent a diagnosis is (Value Object).
type Severity string

const (
	SeverityNone   Severity = "none"
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Validate checks that the severity is a known grade.
func (s Severity) Validate() error {
	switch s {
	case SeverityNone, SeverityLow, SeverityMedium, SeverityHigh:
		return nil
	default:
		return errors.New("invalid severity")
	}
}

// String returns the wire representation of the severity.
func (s Severity) String() string {
	return string(s)
}

// Rank returns an ordering value: none < low < medium < high.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	default:
		return 0
	}
}
