// Package pdf turns PDF documents into ordered page records for the pipeline.
package pdf

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Page is a single rasterized document page.
// Page numbers are 1-indexed and contiguous.
type Page struct {
	Number int    `json:"page_number"`
	Image  []byte `json:"-"`
	Text   string `json:"text,omitempty"`
}

// Extractor renders PDF pages to PNG images and extracts plain text.
// Rendering uses pdftoppm/pdftotext (poppler-utils); page counting and
// validation use pdfcpu.
type Extractor struct {
	dpi     int
	workers int
	logger  *slog.Logger
}

// ExtractorConfig configures a new Extractor.
type ExtractorConfig struct {
	DPI     int // Render resolution (default 150)
	Workers int // Concurrent page renders (default NumCPU)
	Logger  *slog.Logger
}

// NewExtractor creates a new page extractor.
func NewExtractor(cfg ExtractorConfig) *Extractor {
	if cfg.DPI <= 0 {
		cfg.DPI = 150
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		dpi:     cfg.DPI,
		workers: cfg.Workers,
		logger:  logger.With("component", "pdf"),
	}
}

// PageCount returns the number of pages in a PDF.
func PageCount(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	count, err := api.PageCount(f, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to get page count: %w", err)
	}
	return count, nil
}

// Pages renders every page of the PDF and returns them in order,
// contiguously numbered from 1. Returns an error if the PDF has no pages.
func (e *Extractor) Pages(ctx context.Context, path string) ([]Page, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("PDF not found: %s", path)
	}

	pageCount, err := PageCount(path)
	if err != nil {
		return nil, err
	}
	if pageCount == 0 {
		return nil, fmt.Errorf("PDF has no pages: %s", path)
	}

	e.logger.Debug("extracting pages", "file", filepath.Base(path), "pages", pageCount)

	type result struct {
		page Page
		err  error
	}

	results := make(chan result, pageCount)
	sem := make(chan struct{}, e.workers)

	for num := 1; num <= pageCount; num++ {
		sem <- struct{}{} // acquire
		go func(pageNum int) {
			defer func() { <-sem }() // release

			if err := ctx.Err(); err != nil {
				results <- result{err: err}
				return
			}

			page, err := e.renderPage(path, pageNum)
			results <- result{page: page, err: err}
		}(num)
	}

	pages := make([]Page, pageCount)
	for i := 0; i < pageCount; i++ {
		r := <-results
		if r.err != nil {
			return nil, fmt.Errorf("failed to render page: %w", r.err)
		}
		pages[r.page.Number-1] = r.page
	}

	return pages, nil
}

// renderPage renders one page to PNG via pdftoppm and extracts its plain
// text via pdftotext.
func (e *Extractor) renderPage(pdfPath string, pageNum int) (Page, error) {
	tmpDir, err := os.MkdirTemp("", "procdoc-page-*")
	if err != nil {
		return Page{}, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	outputPrefix := filepath.Join(tmpDir, "page")
	pageStr := fmt.Sprintf("%d", pageNum)

	// -png: output PNG format
	// -f/-l N: page range (single page)
	// -r N: resolution in DPI
	// -singlefile: don't add page number suffix
	cmd := exec.Command("pdftoppm",
		"-png",
		"-f", pageStr,
		"-l", pageStr,
		"-r", fmt.Sprintf("%d", e.dpi),
		"-singlefile",
		pdfPath,
		outputPrefix,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return Page{}, fmt.Errorf("pdftoppm failed for page %d: %w (output: %s)", pageNum, err, string(output))
	}

	image, err := os.ReadFile(outputPrefix + ".png")
	if err != nil {
		return Page{}, fmt.Errorf("pdftoppm did not create expected output: %w", err)
	}

	text, err := extractText(pdfPath, pageNum)
	if err != nil {
		// Text is advisory; rendering succeeded, so keep the page.
		e.logger.Warn("text extraction failed", "page", pageNum, "error", err)
		text = ""
	}

	return Page{Number: pageNum, Image: image, Text: text}, nil
}

// extractText extracts plain text for a single page via pdftotext.
func extractText(pdfPath string, pageNum int) (string, error) {
	pageStr := fmt.Sprintf("%d", pageNum)
	cmd := exec.Command("pdftotext",
		"-f", pageStr,
		"-l", pageStr,
		"-layout",
		pdfPath,
		"-", // stdout
	)
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext failed: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// DocumentID derives a document identifier from a PDF path (the file stem).
func DocumentID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
