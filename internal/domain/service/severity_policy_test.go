package service

import (
	"testing"

	"github.com/dreschagin/leafwatch/internal/domain/valueobject"
)

func TestSeverityPolicy_DiseaseThresholds(t *testing.T) {
	policy := NewSeverityPolicy()

	tests := []struct {
		name         string
		confidence   float64
		wantSeverity valueobject.Severity
	}{
		{name: "above high boundary", confidence: 0.81, wantSeverity: valueobject.SeverityHigh},
		{name: "well above high boundary", confidence: 0.99, wantSeverity: valueobject.SeverityHigh},
		{name: "exactly high boundary falls to medium", confidence: 0.8, wantSeverity: valueobject.SeverityMedium},
		{name: "above medium boundary", confidence: 0.61, wantSeverity: valueobject.SeverityMedium},
		{name: "exactly medium boundary falls to low", confidence: 0.6, wantSeverity: valueobject.SeverityLow},
		{name: "below medium boundary", confidence: 0.3, wantSeverity: valueobject.SeverityLow},
		{name: "zero confidence", confidence: 0, wantSeverity: valueobject.SeverityLow},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := policy.Diagnose("late_blight", tc.confidence)
			if d.Category() != valueobject.CategoryDisease {
				t.Fatalf("expected disease category, got %s", d.Category())
			}
			if d.Severity() != tc.wantSeverity {
				t.Fatalf("confidence %.2f: expected severity %s, got %s",
					tc.confidence, tc.wantSeverity, d.Severity())
			}
		})
	}
}

func TestSeverityPolicy_LateBlightHighConfidence(t *testing.T) {
	policy := NewSeverityPolicy()

	d := policy.Diagnose("Late_blight", 0.85)
	if d.Category() != valueobject.CategoryDisease {
		t.Fatalf("expected disease, got %s", d.Category())
	}
	if d.Severity() != valueobject.SeverityHigh {
		t.Fatalf("expected high severity, got %s", d.Severity())
	}
	if d.Color() != "danger" {
		t.Fatalf("expected danger color tag, got %s", d.Color())
	}
}

func TestSeverityPolicy_HealthyIgnoresConfidence(t *testing.T) {
	policy := NewSeverityPolicy()

	for _, confidence := range []float64{0.05, 0.42, 0.95} {
		d := policy.Diagnose("healthy", confidence)
		if d.Category() != valueobject.CategoryHealthy {
			t.Fatalf("confidence %.2f: expected healthy, got %s", confidence, d.Category())
		}
		if d.Severity() != valueobject.SeverityNone {
			t.Fatalf("confidence %.2f: expected severity none, got %s", confidence, d.Severity())
		}
	}
}

func TestSeverityPolicy_HealthyWinsOverDiseaseMatch(t *testing.T) {
	policy := NewSeverityPolicy()

	// A label matching both sets must grade healthy: healthy terms are
	// checked first.
	d := policy.Diagnose("healthy_late_blight_lookalike", 0.9)
	if d.Category() != valueobject.CategoryHealthy {
		t.Fatalf("expected healthy, got %s", d.Category())
	}
}

func TestSeverityPolicy_UnrecognizedLabel(t *testing.T) {
	policy := NewSeverityPolicy()

	d := policy.Diagnose("Unknown_leaf_spot", 0.99)
	if d.Category() != valueobject.CategoryUnrecognized {
		t.Fatalf("expected unknown category, got %s", d.Category())
	}
	if d.Severity() != valueobject.SeverityLow {
		t.Fatalf("expected low severity, got %s", d.Severity())
	}
}

func TestSeverityPolicy_CaseInsensitiveSubstring(t *testing.T) {
	policy := NewSeverityPolicy()

	d := policy.Diagnose("Tomato_Septoria_Leaf_Spot", 0.7)
	if d.Category() != valueobject.CategoryDisease {
		t.Fatalf("expected disease via substring match, got %s", d.Category())
	}
	if d.Severity() != valueobject.SeverityMedium {
		t.Fatalf("expected medium severity, got %s", d.Severity())
	}
}

func TestSeverityPolicy_ConfidenceClamped(t *testing.T) {
	policy := NewSeverityPolicy()

	d := policy.Diagnose("late_blight", 1.7)
	if d.Confidence() != 1 {
		t.Fatalf("expected confidence clamped to 1, got %f", d.Confidence())
	}

	d = policy.Diagnose("late_blight", -0.2)
	if d.Confidence() != 0 {
		t.Fatalf("expected confidence clamped to 0, got %f", d.Confidence())
	}
}

func TestSeverityPolicy_AnalysisFailed(t *testing.T) {
	policy := NewSeverityPolicy()

	d := policy.AnalysisFailed("connection refused")
	if d.Category() != valueobject.CategoryFailed {
		t.Fatalf("expected error category, got %s", d.Category())
	}
	if d.Confidence() != 0 {
		t.Fatalf("expected zero confidence, got %f", d.Confidence())
	}
	if d.Severity() != valueobject.SeverityNone {
		t.Fatalf("expected severity none, got %s", d.Severity())
	}
}
