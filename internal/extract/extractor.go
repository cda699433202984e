// Package extract turns detected sections into structured records via
// schema-guided vision calls.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	retry "github.com/avast/retry-go/v4"
	"github.com/google/uuid"

	"github.com/procdoc/procdoc/internal/detect"
	"github.com/procdoc/procdoc/internal/docfmt"
	"github.com/procdoc/procdoc/internal/jsonx"
	"github.com/procdoc/procdoc/internal/pdf"
	"github.com/procdoc/procdoc/internal/providers"
	"github.com/procdoc/procdoc/internal/schema"
)

// ExtractedSection is one section's structured output. A section whose
// extraction failed after retries is recorded with empty data and
// confidence 0 rather than aborting its siblings.
type ExtractedSection struct {
	Type          schema.SectionType `json:"section_type"`
	Name          string             `json:"section_name"`
	PageRange     [2]int             `json:"page_range"`
	Data          json.RawMessage    `json:"data"`
	Confidence    float64            `json:"confidence"`
	QualityIssues []string           `json:"quality_issues,omitempty"`
	Failed        bool               `json:"failed,omitempty"`
	Error         string             `json:"error,omitempty"`
}

// Extractor runs per-section structured extraction.
type Extractor struct {
	client    providers.VisionClient
	limiter   *providers.RateLimiter
	registry  *schema.Registry
	workers   int
	retries   int
	maxTokens int
	logger    *slog.Logger
}

// ExtractorConfig configures a new Extractor.
type ExtractorConfig struct {
	Client    providers.VisionClient
	Registry  *schema.Registry
	Workers   int // Concurrent section extractions (default 5)
	Retries   int // Attempts per section (default 3)
	MaxTokens int // Completion budget per extraction call (default 16000)
	Logger    *slog.Logger
}

// NewExtractor creates a section extractor.
func NewExtractor(cfg ExtractorConfig) *Extractor {
	if cfg.Workers <= 0 {
		cfg.Workers = 5
	}
	if cfg.Retries <= 0 {
		cfg.Retries = 3
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 16000
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		client:    cfg.Client,
		limiter:   providers.NewRateLimiter(cfg.Client.RequestsPerSecond()),
		registry:  cfg.Registry,
		workers:   cfg.Workers,
		retries:   cfg.Retries,
		maxTokens: cfg.MaxTokens,
		logger:    logger.With("component", "extract"),
	}
}

// ExtractAll extracts every section concurrently with a bounded worker
// count, returning results in section order. A failed section never
// aborts its siblings.
func (e *Extractor) ExtractAll(ctx context.Context, pages []pdf.Page, sections []detect.Section) []ExtractedSection {
	results := make([]ExtractedSection, len(sections))
	sem := make(chan struct{}, e.workers)
	var wg sync.WaitGroup

	for i, sec := range sections {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, sec detect.Section) {
			defer wg.Done()
			defer func() { <-sem }()
			results[idx] = e.ExtractSection(ctx, pages, sec)
		}(i, sec)
	}
	wg.Wait()

	return results
}

// ExtractSection extracts one section with bounded retry.
func (e *Extractor) ExtractSection(ctx context.Context, pages []pdf.Page, sec detect.Section) ExtractedSection {
	logger := e.logger.With("section", sec.Name, "start", sec.StartPage, "end", sec.EndPage)
	logger.Debug("extracting section")

	out := ExtractedSection{
		Type:      sec.Type,
		Name:      sec.Name,
		PageRange: [2]int{sec.StartPage, sec.EndPage},
	}

	sectionPages, err := slicePages(pages, sec)
	if err != nil {
		out.Failed = true
		out.Error = err.Error()
		out.Data = json.RawMessage("null")
		return out
	}

	images := make([][]byte, len(sectionPages))
	for i, p := range sectionPages {
		images[i] = p.Image
	}
	prompt := extractionPrompt(sec, e.registry.Raw(sec.Type))

	value, err := retry.DoWithData(
		func() (jsonx.Value, error) {
			if err := e.limiter.Wait(ctx); err != nil {
				return jsonx.Value{}, err
			}
			result, err := e.client.Invoke(ctx, &providers.VisionRequest{
				Prompt:    prompt,
				Images:    images,
				MaxTokens: e.maxTokens,
				RequestID: uuid.New().String(),
			})
			if err != nil {
				return jsonx.Value{}, err
			}
			raw, err := jsonx.Repair(result.Content)
			if err != nil {
				return jsonx.Value{}, fmt.Errorf("extraction reply unparseable: %w", err)
			}
			return jsonx.Decode(raw)
		},
		retry.Context(ctx),
		retry.Attempts(uint(e.retries)),
		retry.Delay(e.client.RetryDelayBase()),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		logger.Warn("section extraction failed", "error", err)
		out.Failed = true
		out.Error = err.Error()
		out.Data = json.RawMessage("null")
		return out
	}

	formatted := docfmt.Format(value, sec.Type)

	data, err := json.Marshal(formatted)
	if err != nil {
		out.Failed = true
		out.Error = err.Error()
		out.Data = json.RawMessage("null")
		return out
	}
	out.Data = data

	// Schema violations degrade quality but keep the data: the review
	// gate decides what happens to the document.
	var decoded any
	if err := json.Unmarshal(data, &decoded); err == nil {
		if err := e.registry.Validate(sec.Type, decoded); err != nil {
			out.QualityIssues = append(out.QualityIssues, "schema validation failed")
			logger.Warn("section failed schema validation", "error", err)
		}
	}

	confidence, issues := Confidence(formatted)
	out.Confidence = confidence
	out.QualityIssues = append(out.QualityIssues, issues...)

	logger.Info("section extracted", "confidence", fmt.Sprintf("%.2f", confidence))
	return out
}

// slicePages selects the section's page window from the full sequence.
func slicePages(pages []pdf.Page, sec detect.Section) ([]pdf.Page, error) {
	if sec.StartPage < 1 || sec.EndPage > len(pages) || sec.StartPage > sec.EndPage {
		return nil, fmt.Errorf("section %s range [%d,%d] outside document of %d pages",
			sec.Name, sec.StartPage, sec.EndPage, len(pages))
	}
	return pages[sec.StartPage-1 : sec.EndPage], nil
}

// extractionPrompt asks for the section's content structured to its schema.
func extractionPrompt(sec detect.Section, schemaText string) string {
	return fmt.Sprintf(`Extract all information from this document section into JSON.

Section: %s (%s)
Pages: %d to %d

REQUIRED JSON SCHEMA:
%s

INSTRUCTIONS:
1. Analyze ALL pages in this section carefully
2. Extract ALL text including text in images, charts, tables
3. Structure according to the schema above
4. If a field is not present, omit it or leave it empty
5. Never use placeholder text like "N/A" or "Unknown"

Return the complete JSON now (no markdown, just JSON):`,
		sec.Name, sec.Type, sec.StartPage, sec.EndPage, schemaText)
}
