package validate

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/procdoc/procdoc/internal/extract"
	"github.com/procdoc/procdoc/internal/schema"
)

func sectionsWithConfidences(confidences ...float64) []extract.ExtractedSection {
	out := make([]extract.ExtractedSection, len(confidences))
	for i, c := range confidences {
		out[i] = extract.ExtractedSection{
			Type:       schema.TypeGeneral,
			Name:       "Section",
			PageRange:  [2]int{i + 1, i + 1},
			Data:       json.RawMessage(`[]`),
			Confidence: c,
		}
	}
	return out
}

func newGate() *Gate {
	fixed := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	return NewGate(GateConfig{Now: func() time.Time { return fixed }})
}

func TestAggregateConfidence(t *testing.T) {
	if got := AggregateConfidence(nil); got != 0.0 {
		t.Errorf("empty list = %v, want 0.0 (worst case)", got)
	}
	got := AggregateConfidence(sectionsWithConfidences(0.8, 0.9, 1.0))
	if math.Abs(got-0.9) > 1e-9 {
		t.Errorf("aggregate = %v, want 0.9", got)
	}
}

func TestEvaluate(t *testing.T) {
	g := newGate()

	t.Run("high confidence approves", func(t *testing.T) {
		result, status := g.Evaluate(Input{
			DocumentID: "doc-1",
			Sections:   sectionsWithConfidences(0.95, 0.92, 0.90),
			PageCount:  10,
		})
		if status != DispositionApproved {
			t.Errorf("status = %s, want approved", status)
		}
		if result.ReviewReason != "" {
			t.Errorf("unexpected reason: %q", result.ReviewReason)
		}
	})

	t.Run("mixed confidences go to review", func(t *testing.T) {
		// Aggregate (0.95+0.92+0.40)/3 = 0.7567: below the approve
		// threshold, and one section below the low threshold.
		result, status := g.Evaluate(Input{
			DocumentID: "doc-2",
			Sections:   sectionsWithConfidences(0.95, 0.92, 0.40),
			PageCount:  10,
		})
		if status != DispositionInReview {
			t.Errorf("status = %s, want in_review", status)
		}
		if !strings.Contains(result.ReviewReason, "Low confidence (0.76)") {
			t.Errorf("reason = %q, want low confidence mention", result.ReviewReason)
		}
		if !strings.Contains(result.ReviewReason, "1 section(s) with very low confidence") {
			t.Errorf("reason = %q, want low section count", result.ReviewReason)
		}
		if !strings.Contains(result.ReviewReason, "; ") {
			t.Errorf("reason parts not joined with semicolon: %q", result.ReviewReason)
		}
	})

	t.Run("very low aggregate goes to review", func(t *testing.T) {
		result, status := g.Evaluate(Input{
			DocumentID: "doc-3",
			Sections:   sectionsWithConfidences(0.5, 0.6),
			PageCount:  4,
		})
		if status != DispositionInReview {
			t.Errorf("status = %s, want in_review", status)
		}
		if !strings.Contains(result.ReviewReason, "Very low confidence (0.55)") {
			t.Errorf("reason = %q", result.ReviewReason)
		}
	})

	t.Run("high aggregate with one weak section still reviews", func(t *testing.T) {
		_, status := g.Evaluate(Input{
			DocumentID: "doc-4",
			Sections:   sectionsWithConfidences(1.0, 1.0, 1.0, 1.0, 1.0, 0.5),
			PageCount:  12,
		})
		if status != DispositionInReview {
			t.Errorf("status = %s, want in_review (weak section gates approval)", status)
		}
	})

	t.Run("no sections rejects", func(t *testing.T) {
		result, status := g.Evaluate(Input{DocumentID: "doc-5", PageCount: 3})
		if status != DispositionRejected {
			t.Errorf("status = %s, want rejected", status)
		}
		if result.ReviewReason != "Structure validation failed" {
			t.Errorf("reason = %q", result.ReviewReason)
		}
		if len(result.ValidationErrors) == 0 {
			t.Error("expected explicit error list")
		}
		if result.Metadata.AggregateConfidence != 0.0 {
			t.Errorf("aggregate = %v, want 0.0", result.Metadata.AggregateConfidence)
		}
	})

	t.Run("missing section metadata rejects", func(t *testing.T) {
		bad := sectionsWithConfidences(0.9)
		bad[0].Name = ""
		bad[0].Data = nil
		result, status := g.Evaluate(Input{DocumentID: "doc-6", Sections: bad, PageCount: 1})
		if status != DispositionRejected {
			t.Errorf("status = %s, want rejected", status)
		}
		if len(result.ValidationErrors) != 2 {
			t.Errorf("errors = %v, want name and data errors", result.ValidationErrors)
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		in := Input{
			DocumentID: "doc-7",
			Sections:   sectionsWithConfidences(0.95, 0.92, 0.40),
			PageCount:  10,
		}
		first, firstStatus := g.Evaluate(in)
		for i := 0; i < 10; i++ {
			result, status := g.Evaluate(in)
			if status != firstStatus || result.ReviewReason != first.ReviewReason {
				t.Fatalf("non-deterministic evaluation: %s %q vs %s %q",
					status, result.ReviewReason, firstStatus, first.ReviewReason)
			}
		}
	})

	t.Run("boundary values", func(t *testing.T) {
		// Exactly at the approve threshold approves.
		_, status := g.Evaluate(Input{
			DocumentID: "doc-8",
			Sections:   sectionsWithConfidences(0.85, 0.85),
			PageCount:  2,
		})
		if status != DispositionApproved {
			t.Errorf("aggregate at threshold = %s, want approved", status)
		}
		// Exactly at the low threshold is not a low section.
		_, status = g.Evaluate(Input{
			DocumentID: "doc-9",
			Sections:   sectionsWithConfidences(1.0, 0.70),
			PageCount:  2,
		})
		if status != DispositionApproved {
			t.Errorf("section at low threshold = %s, want approved", status)
		}
	})
}
