// Package pipeline orchestrates the document processing stages: page
// extraction, header and section detection, per-section extraction,
// validation, and persistence.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/procdoc/procdoc/internal/detect"
	"github.com/procdoc/procdoc/internal/extract"
	"github.com/procdoc/procdoc/internal/header"
	"github.com/procdoc/procdoc/internal/pdf"
	"github.com/procdoc/procdoc/internal/providers"
	"github.com/procdoc/procdoc/internal/schema"
	"github.com/procdoc/procdoc/internal/storage"
	"github.com/procdoc/procdoc/internal/validate"
)

// PageSource produces ordered page records for a document.
// *pdf.Extractor is the production implementation.
type PageSource interface {
	Pages(ctx context.Context, path string) ([]pdf.Page, error)
}

// Pipeline runs documents through the full processing sequence. Stages
// are strictly ordered per document: no section extraction starts
// before the merged, repaired section list exists.
type Pipeline struct {
	pages    PageSource
	header   *header.Extractor
	detector *detect.Detector
	sections *extract.Extractor
	gate     *validate.Gate
	store    *storage.Store
	provider string
	logger   *slog.Logger
}

// Config wires the pipeline's collaborators.
type Config struct {
	Client   providers.VisionClient
	Registry *schema.Registry
	Store    *storage.Store

	BatchSize          int     // Detection pages per call
	Workers            int     // Concurrent section extractions
	ExtractRetries     int     // Attempts per section extraction
	MaxTokensDetection int
	MaxTokensExtract   int
	DetectionFallback  bool // Whole-document section on detection failure
	DPI                int  // Page render resolution

	// Pages overrides the PDF page source. Defaults to a pdf.Extractor.
	Pages PageSource

	ConfidenceThreshold    float64
	LowConfidenceThreshold float64

	Logger *slog.Logger
}

// New assembles a pipeline from config.
func New(cfg Config) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	pages := cfg.Pages
	if pages == nil {
		pages = pdf.NewExtractor(pdf.ExtractorConfig{
			DPI:    cfg.DPI,
			Logger: logger,
		})
	}
	return &Pipeline{
		pages: pages,
		header: header.NewExtractor(header.ExtractorConfig{
			Client:    cfg.Client,
			Retries:   cfg.ExtractRetries,
			MaxTokens: cfg.MaxTokensDetection,
			Logger:    logger,
		}),
		detector: detect.NewDetector(detect.DetectorConfig{
			Client:    cfg.Client,
			BatchSize: cfg.BatchSize,
			MaxTokens: cfg.MaxTokensDetection,
			Fallback:  cfg.DetectionFallback,
			Logger:    logger,
		}),
		sections: extract.NewExtractor(extract.ExtractorConfig{
			Client:    cfg.Client,
			Registry:  cfg.Registry,
			Workers:   cfg.Workers,
			Retries:   cfg.ExtractRetries,
			MaxTokens: cfg.MaxTokensExtract,
			Logger:    logger,
		}),
		gate: validate.NewGate(validate.GateConfig{
			ConfidenceThreshold:    cfg.ConfidenceThreshold,
			LowConfidenceThreshold: cfg.LowConfidenceThreshold,
			Logger:                 logger,
		}),
		store:    cfg.Store,
		provider: cfg.Client.Name(),
		logger:   logger.With("component", "pipeline"),
	}
}

// ProcessDocument runs one PDF through the pipeline and returns its
// terminal result. A detection failure aborts the document; extraction
// failures degrade individual sections but the run completes.
func (p *Pipeline) ProcessDocument(ctx context.Context, pdfPath string) (*validate.DocumentResult, error) {
	documentID := pdf.DocumentID(pdfPath)
	logger := p.logger.With("document_id", documentID)
	logger.Info("processing document", "path", pdfPath)

	pages, err := p.pages.Pages(ctx, pdfPath)
	if err != nil {
		return nil, fmt.Errorf("page extraction failed for %s: %w", documentID, err)
	}
	logger.Info("pages extracted", "pages", len(pages))

	hdr := p.header.Extract(ctx, pages[0])

	sections, err := p.detector.Detect(ctx, pages)
	if err != nil {
		return nil, fmt.Errorf("section detection failed for %s: %w", documentID, err)
	}
	if err := p.store.SaveDetection(documentID, sections); err != nil {
		return nil, err
	}

	extracted := p.sections.ExtractAll(ctx, pages, sections)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, sec := range extracted {
		if err := p.store.SaveSection(documentID, sec.Name, sec); err != nil {
			logger.Warn("failed to persist section artifact", "section", sec.Name, "error", err)
		}
	}

	result, disposition := p.gate.Evaluate(validate.Input{
		DocumentID: documentID,
		Header:     hdr,
		Sections:   extracted,
		PageCount:  len(pages),
		Provider:   p.provider,
	})

	switch disposition {
	case validate.DispositionApproved:
		if err := p.store.SaveFinal(result); err != nil {
			return nil, err
		}
	default:
		// in_review and rejected both land in the queue so an operator
		// sees every document that did not auto-approve.
		if err := p.store.QueueForReview(result); err != nil {
			return nil, err
		}
	}

	logger.Info("document processed",
		"status", disposition,
		"sections", len(extracted),
		"aggregate_confidence", fmt.Sprintf("%.3f", result.Metadata.AggregateConfidence),
	)
	return result, nil
}

// BatchSummary reports the outcome of a batch run.
type BatchSummary struct {
	Completed []string          `json:"completed"`
	Failed    map[string]string `json:"failed"`
	Skipped   []string          `json:"skipped"`
}

// ProcessBatch runs multiple PDFs sequentially, resuming past progress:
// documents with a final result are skipped. One document's failure
// never stops the batch.
func (p *Pipeline) ProcessBatch(ctx context.Context, pdfPaths []string) (*BatchSummary, error) {
	progress, err := p.store.LoadProgress()
	if err != nil {
		return nil, err
	}

	summary := &BatchSummary{Failed: make(map[string]string)}
	done := make(map[string]bool, len(progress.Completed))
	for _, id := range progress.Completed {
		done[id] = true
	}

	for _, path := range pdfPaths {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		documentID := pdf.DocumentID(path)
		if done[documentID] || p.store.HasFinal(documentID) {
			p.logger.Info("skipping already processed document", "document_id", documentID)
			summary.Skipped = append(summary.Skipped, documentID)
			continue
		}

		if _, err := p.ProcessDocument(ctx, path); err != nil {
			p.logger.Error("document failed", "document_id", documentID, "error", err)
			summary.Failed[documentID] = err.Error()
			progress.Failed[documentID] = err.Error()
		} else {
			summary.Completed = append(summary.Completed, documentID)
			progress.Completed = append(progress.Completed, documentID)
			delete(progress.Failed, documentID)
		}

		if err := p.store.SaveProgress(progress); err != nil {
			p.logger.Warn("failed to save progress", "error", err)
		}
	}

	p.logger.Info("batch complete",
		"completed", len(summary.Completed),
		"failed", len(summary.Failed),
		"skipped", len(summary.Skipped),
	)
	return summary, nil
}
