package detect

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	retry "github.com/avast/retry-go/v4"
	"github.com/google/uuid"

	"github.com/procdoc/procdoc/internal/pdf"
	"github.com/procdoc/procdoc/internal/providers"
)

// Detector runs section boundary detection over a page sequence.
// Documents larger than the batch size are processed in contiguous
// batches; the merge step is a strict barrier that sees every batch
// result before joining sections across seams.
type Detector struct {
	client    providers.VisionClient
	limiter   *providers.RateLimiter
	batchSize int
	maxTokens int
	fallback  bool
	logger    *slog.Logger
}

// DetectorConfig configures a new Detector.
type DetectorConfig struct {
	Client    providers.VisionClient
	BatchSize int  // Max pages per model call (default 20)
	MaxTokens int  // Completion budget per detection call (default 4096)
	Fallback  bool // Substitute a whole-document section on total failure
	Logger    *slog.Logger
}

// NewDetector creates a section detector.
func NewDetector(cfg DetectorConfig) *Detector {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{
		client:    cfg.Client,
		limiter:   providers.NewRateLimiter(cfg.Client.RequestsPerSecond()),
		batchSize: cfg.BatchSize,
		maxTokens: cfg.MaxTokens,
		fallback:  cfg.Fallback,
		logger:    logger.With("component", "detect"),
	}
}

// Detect partitions pages into sections. pages must be non-empty and
// contiguously numbered from 1. The returned list partitions
// [1, len(pages)] exactly. Returns ErrNoSections when no batch yields a
// usable candidate, unless fallback mode is enabled.
func (d *Detector) Detect(ctx context.Context, pages []pdf.Page) ([]Section, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("no pages to detect sections in")
	}
	for i, p := range pages {
		if p.Number != i+1 {
			return nil, fmt.Errorf("pages not contiguously numbered: index %d has page number %d", i, p.Number)
		}
	}

	total := len(pages)
	candidates, err := d.collectCandidates(ctx, pages)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		if d.fallback {
			d.logger.Warn("detection failed, substituting whole-document fallback", "pages", total, "error", err)
			return []Section{FallbackSection(total)}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrNoSections, err)
	}

	merged := mergeCandidates(candidates)
	sections := Reconcile(merged, total)
	if len(sections) == 0 {
		if d.fallback {
			d.logger.Warn("detection produced no sections, substituting whole-document fallback", "pages", total)
			return []Section{FallbackSection(total)}, nil
		}
		return nil, ErrNoSections
	}

	d.logger.Info("sections detected", "pages", total, "sections", len(sections))
	return sections, nil
}

// collectCandidates runs one detection call per batch, in parallel, and
// concatenates the results. A batch whose call or parse fails after
// retries contributes zero candidates; the repair pass restores
// coverage from its neighbors.
func (d *Detector) collectCandidates(ctx context.Context, pages []pdf.Page) ([]Candidate, error) {
	total := len(pages)
	if total <= d.batchSize {
		return d.detectBatch(ctx, pages, 1, total, total)
	}

	numBatches := (total + d.batchSize - 1) / d.batchSize
	results := make([][]Candidate, numBatches)
	errs := make([]error, numBatches)

	var wg sync.WaitGroup
	for b := 0; b < numBatches; b++ {
		start := b*d.batchSize + 1
		end := start + d.batchSize - 1
		if end > total {
			end = total
		}
		wg.Add(1)
		go func(idx, start, end int) {
			defer wg.Done()
			batch, err := d.detectBatch(ctx, pages[start-1:end], start, end, total)
			if err != nil {
				d.logger.Warn("batch detection failed", "batch", idx+1, "start", start, "end", end, "error", err)
				errs[idx] = err
				return
			}
			results[idx] = batch
		}(b, start, end)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var candidates []Candidate
	failed := 0
	for i, batch := range results {
		if errs[i] != nil {
			failed++
			continue
		}
		candidates = append(candidates, batch...)
	}
	if failed == numBatches {
		return nil, fmt.Errorf("all %d detection batches failed: %w", numBatches, errs[0])
	}
	return candidates, nil
}

// detectBatch issues one detection call over pages [batchStart, batchEnd]
// with bounded retry, then parses and clamps the reply.
func (d *Detector) detectBatch(ctx context.Context, pages []pdf.Page, batchStart, batchEnd, total int) ([]Candidate, error) {
	var prompt string
	if total <= d.batchSize {
		prompt = detectionPrompt(total)
	} else {
		prompt = batchDetectionPrompt(batchStart, batchEnd, total)
	}

	images := make([][]byte, len(pages))
	for i, p := range pages {
		images[i] = p.Image
	}

	attempts := d.client.MaxRetries()
	if attempts <= 0 {
		attempts = 1
	}

	candidates, err := retry.DoWithData(
		func() ([]Candidate, error) {
			if err := d.limiter.Wait(ctx); err != nil {
				return nil, err
			}
			result, err := d.client.Invoke(ctx, &providers.VisionRequest{
				Prompt:    prompt,
				Images:    images,
				MaxTokens: d.maxTokens,
				RequestID: uuid.New().String(),
			})
			if err != nil {
				return nil, err
			}
			return parseCandidates(result.Content, batchStart, batchEnd)
		},
		retry.Context(ctx),
		retry.Attempts(uint(attempts)),
		retry.Delay(d.client.RetryDelayBase()),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}

	d.logger.Debug("batch detected", "start", batchStart, "end", batchEnd, "candidates", len(candidates))
	return candidates, nil
}
