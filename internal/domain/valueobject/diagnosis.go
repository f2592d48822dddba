package valueobject

import (
	"errors"
	"fmt"
)

// DiagnosisCategory is the broad outcome of classifying a leaf image (Value Object).
type DiagnosisCategory string

const (
	CategoryHealthy      DiagnosisCategory = "healthy"
	CategoryDisease      DiagnosisCategory = "disease"
	CategoryUnrecognized DiagnosisCategory = "unknown"
	CategoryFailed       DiagnosisCategory = "error"
)

// Validate checks that the category is one of the known outcomes.
func (c DiagnosisCategory) Validate() error {
	switch c {
	case CategoryHealthy, CategoryDisease, CategoryUnrecognized, CategoryFailed:
		return nil
	default:
		return errors.New("invalid diagnosis category")
	}
}

// String returns the wire representation of the category.
func (c DiagnosisCategory) String() string {
	return string(c)
}

// Diagnosis is the structured outcome of applying the severity policy to a
// classification result. Immutable once built.
type Diagnosis struct {
	category       DiagnosisCategory
	severity       Severity
	className      string
	confidence     float64
	description    string
	recommendation string
	color          string
	icon           string
}

// NewDiagnosis builds a diagnosis with validation. Disease diagnoses must
// carry a non-none severity.
func NewDiagnosis(
	category DiagnosisCategory,
	severity Severity,
	className string,
	confidence float64,
	description, recommendation, color, icon string,
) (Diagnosis, error) {
	if err := category.Validate(); err != nil {
		return Diagnosis{}, err
	}
	if err := severity.Validate(); err != nil {
		return Diagnosis{}, err
	}
	if confidence < 0 || confidence > 1 {
		return Diagnosis{}, errors.New("confidence must be within [0,1]")
	}
	if category == CategoryDisease && severity == SeverityNone {
		return Diagnosis{}, errors.New("disease diagnosis requires a severity grade")
	}

	return Diagnosis{
		category:       category,
		severity:       severity,
		className:      className,
		confidence:     confidence,
		description:    description,
		recommendation: recommendation,
		color:          color,
		icon:           icon,
	}, nil
}

func (d Diagnosis) Category() DiagnosisCategory { return d.category }
func (d Diagnosis) Severity() Severity          { return d.severity }
func (d Diagnosis) ClassName() string           { return d.className }
func (d Diagnosis) Confidence() float64         { return d.confidence }
func (d Diagnosis) Description() string         { return d.description }
func (d Diagnosis) Recommendation() string      { return d.recommendation }
func (d Diagnosis) Color() string               { return d.color }
func (d Diagnosis) Icon() string                { return d.icon }

// IsDisease reports whether this diagnosis names a disease.
func (d Diagnosis) IsDisease() bool {
	return d.category == CategoryDisease
}

// ConfidencePercent formats the confidence for display.
func (d Diagnosis) ConfidencePercent() string {
	return fmt.Sprintf("%.2f%%", d.confidence*100)
}

// ExceedsThreshold reports whether the confidence is strictly above the
// given alert threshold.
func (d Diagnosis) ExceedsThreshold(threshold float64) bool {
	return d.confidence > threshold
}
