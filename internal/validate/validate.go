// Package validate decides a document's disposition from its extracted
// sections' confidence scores and structural well-formedness.
package validate

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/procdoc/procdoc/internal/extract"
	"github.com/procdoc/procdoc/internal/header"
)

// Disposition is the terminal classification of a document. A document
// is evaluated exactly once per pipeline run; there are no transitions
// between terminal states except by explicit human decision.
type Disposition string

const (
	DispositionPending  Disposition = "pending"
	DispositionApproved Disposition = "approved"
	DispositionRejected Disposition = "rejected"
	DispositionInReview Disposition = "in_review"
)

// Metadata summarizes a processed document.
type Metadata struct {
	PageCount           int       `json:"page_count"`
	SectionCount        int       `json:"section_count"`
	AggregateConfidence float64   `json:"aggregate_confidence"`
	ProcessedAt         time.Time `json:"processed_at"`
	Provider            string    `json:"provider,omitempty"`
}

// DocumentResult is the terminal artifact of a pipeline run.
type DocumentResult struct {
	DocumentID       string                    `json:"document_id"`
	Header           header.DocumentHeader     `json:"document_header"`
	Metadata         Metadata                  `json:"metadata"`
	Sections         []extract.ExtractedSection `json:"sections"`
	ValidationStatus Disposition               `json:"validation_status"`
	ReviewReason     string                    `json:"review_reason,omitempty"`
	ValidationErrors []string                  `json:"validation_errors,omitempty"`
}

// Gate evaluates documents against confidence thresholds.
type Gate struct {
	confidenceThreshold    float64
	lowConfidenceThreshold float64
	now                    func() time.Time
	logger                 *slog.Logger
}

// GateConfig configures a validation Gate.
type GateConfig struct {
	ConfidenceThreshold    float64 // Auto-approve floor (default 0.85)
	LowConfidenceThreshold float64 // Per-section and aggregate review floor (default 0.70)
	Now                    func() time.Time
	Logger                 *slog.Logger
}

// NewGate creates a validation gate.
func NewGate(cfg GateConfig) *Gate {
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = 0.85
	}
	if cfg.LowConfidenceThreshold <= 0 {
		cfg.LowConfidenceThreshold = 0.70
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		confidenceThreshold:    cfg.ConfidenceThreshold,
		lowConfidenceThreshold: cfg.LowConfidenceThreshold,
		now:                    cfg.Now,
		logger:                 logger.With("component", "validate"),
	}
}

// Input carries everything the gate judges.
type Input struct {
	DocumentID string
	Header     header.DocumentHeader
	Sections   []extract.ExtractedSection
	PageCount  int
	Provider   string
}

// Evaluate decides the document's disposition. The decision is a pure
// function of the section confidences and structural validity: the
// same input always yields the same disposition and reason string.
func (g *Gate) Evaluate(in Input) (*DocumentResult, Disposition) {
	aggregate := AggregateConfidence(in.Sections)
	structuralErrs := g.structuralErrors(in)

	lowSections := 0
	for _, s := range in.Sections {
		if s.Confidence < g.lowConfidenceThreshold {
			lowSections++
		}
	}

	var reasons []string
	var status Disposition
	switch {
	case len(structuralErrs) > 0:
		status = DispositionRejected
		reasons = append(reasons, "Structure validation failed")
	case aggregate >= g.confidenceThreshold && lowSections == 0:
		status = DispositionApproved
	default:
		status = DispositionInReview
		if aggregate < g.lowConfidenceThreshold {
			reasons = append(reasons, fmt.Sprintf("Very low confidence (%.2f)", aggregate))
		} else if aggregate < g.confidenceThreshold {
			reasons = append(reasons, fmt.Sprintf("Low confidence (%.2f)", aggregate))
		}
		if lowSections > 0 {
			reasons = append(reasons, fmt.Sprintf("%d section(s) with very low confidence", lowSections))
		}
	}

	result := &DocumentResult{
		DocumentID: in.DocumentID,
		Header:     in.Header,
		Metadata: Metadata{
			PageCount:           in.PageCount,
			SectionCount:        len(in.Sections),
			AggregateConfidence: aggregate,
			ProcessedAt:         g.now().UTC(),
			Provider:            in.Provider,
		},
		Sections:         in.Sections,
		ValidationStatus: status,
		ReviewReason:     strings.Join(reasons, "; "),
		ValidationErrors: structuralErrs,
	}

	g.logger.Info("document evaluated",
		"document_id", in.DocumentID,
		"status", status,
		"aggregate_confidence", fmt.Sprintf("%.3f", aggregate),
		"low_sections", lowSections,
	)
	return result, status
}

// AggregateConfidence is the arithmetic mean of section confidences.
// An empty list scores 0.0: no data is treated as worst case, never as
// nothing to judge.
func AggregateConfidence(sections []extract.ExtractedSection) float64 {
	if len(sections) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, s := range sections {
		sum += s.Confidence
	}
	return sum / float64(len(sections))
}

// structuralErrors checks document well-formedness independent of
// confidence: at least one section, per-section metadata present, and
// required document metadata set.
func (g *Gate) structuralErrors(in Input) []string {
	var errs []string
	if in.DocumentID == "" {
		errs = append(errs, "missing document_id")
	}
	if len(in.Sections) == 0 {
		errs = append(errs, "document has no sections")
	}
	for i, s := range in.Sections {
		if s.Name == "" {
			errs = append(errs, fmt.Sprintf("section %d missing name", i))
		}
		if s.PageRange[0] < 1 || s.PageRange[1] < s.PageRange[0] {
			errs = append(errs, fmt.Sprintf("section %d has invalid page range [%d,%d]", i, s.PageRange[0], s.PageRange[1]))
		}
		if s.Data == nil {
			errs = append(errs, fmt.Sprintf("section %d missing data", i))
		}
	}
	return errs
}
