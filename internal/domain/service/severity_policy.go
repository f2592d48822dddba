package service

import (
	"strings"

	"github.com/dreschagin/leafwatch/internal/domain/valueobject"
)

// Confidence boundaries for disease severity. Both are exclusive: a
// confidence of exactly 0.6 grades Low, exactly 0.8 grades Medium.
const (
	severityHighThreshold   = 0.8
	severityMediumThreshold = 0.6
)

// UnrecognizedLabel is the sentinel class name used when the classifier
// returns a label outside the model's valid set.
const UnrecognizedLabel = "unrecognized"

// severityCopy bundles the fixed human copy attached to a diagnosis grade.
type severityCopy struct {
	description    string
	recommendation string
	color          string
	icon           string
}

var (
	healthyTerms = []string{"healthy", "no disease", "normal"}

	diseaseTerms = []string{
		"bacterial_spot", "early_blight", "late_blight",
		"leaf_mold", "septoria_leaf_spot", "spider_mites",
		"target_spot", "yellow_leaf_curl_virus", "mosaic_virus",
		"powdery_mildew",
	}

	healthyCopy = severityCopy{
		description:    "Leaf is healthy, no sign of disease",
		recommendation: "Continue regular care",
		color:          "success",
		icon:           "fa-check-circle",
	}

	diseaseCopyBySeverity = map[valueobject.Severity]severityCopy{
		valueobject.SeverityHigh: {
			description:    "Disease detected",
			recommendation: "Treat immediately: isolate the plant and apply a targeted fungicide",
			color:          "danger",
			icon:           "fa-exclamation-triangle",
		},
		valueobject.SeverityMedium: {
			description:    "Disease detected",
			recommendation: "Monitor closely and treat with an appropriate product",
			color:          "warning",
			icon:           "fa-exclamation-circle",
		},
		valueobject.SeverityLow: {
			description:    "Disease detected",
			recommendation: "Keep watching: re-check the plant in 1-2 days",
			color:          "info",
			icon:           "fa-info-circle",
		},
	}

	unrecognizedCopy = severityCopy{
		description:    "Unusual pattern detected on the leaf",
		recommendation: "Keep monitoring and consult an expert",
		color:          "info",
		icon:           "fa-question-circle",
	}

	failedCopy = severityCopy{
		description:    "Image could not be analyzed",
		recommendation: "Check the classifier service and retry",
		color:          "gray",
		icon:           "fa-times-circle",
	}
)

// SeverityPolicy maps a classification result onto a diagnosis (Domain
// Service). Pure: no I/O, deterministic, total over all string inputs.
type SeverityPolicy struct{}

// NewSeverityPolicy creates a SeverityPolicy.
func NewSeverityPolicy() *SeverityPolicy {
	return &SeverityPolicy{}
}

// Diagnose grades a class name and confidence. Match order: healthy terms
// first, then disease terms, otherwise unrecognized. Matching is a
// case-insensitive substring test, as the label files mix casing.
func (p *SeverityPolicy) Diagnose(className string, confidence float64) valueobject.Diagnosis {
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	lowered := strings.ToLower(className)

	if matchesAny(lowered, healthyTerms) {
		return mustDiagnosis(valueobject.CategoryHealthy, valueobject.SeverityNone, className, confidence, healthyCopy)
	}

	if matchesAny(lowered, diseaseTerms) {
		severity := p.gradeDisease(confidence)
		text := diseaseCopyBySeverity[severity]
		text.description = "Disease detected: " + className
		return mustDiagnosis(valueobject.CategoryDisease, severity, className, confidence, text)
	}

	return mustDiagnosis(valueobject.CategoryUnrecognized, valueobject.SeverityLow, className, confidence, unrecognizedCopy)
}

// AnalysisFailed builds the diagnosis reported when the classifier is
// unavailable. The capture survives; only the analysis result degrades.
func (p *SeverityPolicy) AnalysisFailed(reason string) valueobject.Diagnosis {
	text := failedCopy
	if reason != "" {
		text.description = "Image could not be analyzed: " + reason
	}
	return mustDiagnosis(valueobject.CategoryFailed, valueobject.SeverityNone, "analysis_failed", 0, text)
}

// gradeDisease maps confidence onto a severity grade. Boundaries are
// exclusive: 0.6 and 0.8 fall to the lower grade.
func (p *SeverityPolicy) gradeDisease(confidence float64) valueobject.Severity {
	switch {
	case confidence > severityHighThreshold:
		return valueobject.SeverityHigh
	case confidence > severityMediumThreshold:
		return valueobject.SeverityMedium
	default:
		return valueobject.SeverityLow
	}
}

func matchesAny(lowered string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(lowered, term) {
			return true
		}
	}
	return false
}

func mustDiagnosis(
	category valueobject.DiagnosisCategory,
	severity valueobject.Severity,
	className string,
	confidence float64,
	text severityCopy,
) valueobject.Diagnosis {
	d, err := valueobject.NewDiagnosis(
		category, severity, className, confidence,
		text.description, text.recommendation, text.color, text.icon,
	)
	if err != nil {
		// Unreachable: the policy only combines valid category/severity pairs.
		panic(err)
	}
	return d
}
