// Package header extracts document-level metadata from the first page.
package header

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	retry "github.com/avast/retry-go/v4"
	"github.com/google/uuid"

	"github.com/procdoc/procdoc/internal/jsonx"
	"github.com/procdoc/procdoc/internal/pdf"
	"github.com/procdoc/procdoc/internal/providers"
)

// TextPair is an orig/current value pair as used across all DocuPorter
// output records.
type TextPair struct {
	OrigText string `json:"orig_text"`
	Text     string `json:"text"`
}

// DocumentHeader is the identification block of a procedural document.
type DocumentHeader struct {
	DocumentSource        TextPair `json:"document_source"`
	DocumentType          TextPair `json:"document_type"`
	DocumentNumber        TextPair `json:"document_number"`
	DocumentVersionNumber TextPair `json:"document_version_number"`
	WorkDescription       TextPair `json:"work_description"`
	Purpose               TextPair `json:"purpose"`
	Sections              []string `json:"sections"`
}

// Empty reports whether no header field carries content.
func (h DocumentHeader) Empty() bool {
	for _, p := range []TextPair{
		h.DocumentSource, h.DocumentType, h.DocumentNumber,
		h.DocumentVersionNumber, h.WorkDescription, h.Purpose,
	} {
		if p.Text != "" || p.OrigText != "" {
			return false
		}
	}
	return true
}

// Extractor pulls the document header from the first page.
type Extractor struct {
	client    providers.VisionClient
	limiter   *providers.RateLimiter
	retries   int
	maxTokens int
	logger    *slog.Logger
}

// ExtractorConfig configures a header Extractor.
type ExtractorConfig struct {
	Client    providers.VisionClient
	Retries   int // Attempts (default 3)
	MaxTokens int // Completion budget (default 4096)
	Logger    *slog.Logger
}

// NewExtractor creates a document header extractor.
func NewExtractor(cfg ExtractorConfig) *Extractor {
	if cfg.Retries <= 0 {
		cfg.Retries = 3
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		client:    cfg.Client,
		limiter:   providers.NewRateLimiter(cfg.Client.RequestsPerSecond()),
		retries:   cfg.Retries,
		maxTokens: cfg.MaxTokens,
		logger:    logger.With("component", "header"),
	}
}

// Extract reads the header from the document's first page. Header
// extraction never fails a pipeline run: any error degrades to an
// empty header structure.
func (e *Extractor) Extract(ctx context.Context, firstPage pdf.Page) DocumentHeader {
	header, err := retry.DoWithData(
		func() (DocumentHeader, error) {
			if err := e.limiter.Wait(ctx); err != nil {
				return DocumentHeader{}, err
			}
			result, err := e.client.Invoke(ctx, &providers.VisionRequest{
				Prompt:    headerPrompt,
				Images:    [][]byte{firstPage.Image},
				MaxTokens: e.maxTokens,
				RequestID: uuid.New().String(),
			})
			if err != nil {
				return DocumentHeader{}, err
			}
			return parseHeader(result.Content)
		},
		retry.Context(ctx),
		retry.Attempts(uint(e.retries)),
		retry.Delay(e.client.RetryDelayBase()),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		e.logger.Warn("header extraction failed, using empty header", "error", err)
		return DocumentHeader{Sections: []string{}}
	}

	if header.Sections == nil {
		header.Sections = []string{}
	}
	return header
}

// parseHeader decodes a header reply, tolerating wrapper text.
func parseHeader(content string) (DocumentHeader, error) {
	raw, err := jsonx.Repair(content)
	if err != nil {
		return DocumentHeader{}, fmt.Errorf("header reply unparseable: %w", err)
	}
	var h DocumentHeader
	if err := json.Unmarshal(raw, &h); err != nil {
		return DocumentHeader{}, fmt.Errorf("failed to decode header: %w", err)
	}
	return h, nil
}

const headerPrompt = `Extract document header information from this first page of the document.

Look for the following information typically found at the top of technical/safety documents:
1. Document Source - The organization or entity that created the document
2. Document Type - Type of document (e.g. "Work Method Statement", "Safety Procedure")
3. Document Number - The unique document identifier/reference number
4. Document Version Number - Version or revision number
5. Work Description - Title or description of the work/procedure
6. Purpose - The purpose or objective of the document

CRITICAL: For each field, extract the EXACT text as it appears in the document.
Duplicate the same value for both "orig_text" and "text" fields.

REQUIRED JSON STRUCTURE:
{
    "document_source": {"orig_text": "", "text": ""},
    "document_type": {"orig_text": "", "text": ""},
    "document_number": {"orig_text": "", "text": ""},
    "document_version_number": {"orig_text": "", "text": ""},
    "work_description": {"orig_text": "", "text": ""},
    "purpose": {"orig_text": "", "text": ""}
}

EXTRACTION RULES:
1. Look for labeled fields (e.g. "Document No:", "Version:", "Type:")
2. Extract the EXACT text, do not paraphrase or modify
3. Both "orig_text" and "text" should have the SAME value
4. If a field is not found, use empty strings for both
5. Check headers, footers, title blocks, and document control sections

Return ONLY the JSON object, no additional text or markdown.`
