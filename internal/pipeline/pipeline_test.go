package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/procdoc/procdoc/internal/detect"
	"github.com/procdoc/procdoc/internal/home"
	"github.com/procdoc/procdoc/internal/pdf"
	"github.com/procdoc/procdoc/internal/providers"
	"github.com/procdoc/procdoc/internal/schema"
	"github.com/procdoc/procdoc/internal/storage"
	"github.com/procdoc/procdoc/internal/validate"
)

// fakePages serves canned page sequences keyed by document ID.
type fakePages struct {
	docs map[string]int // document ID -> page count
}

func (f *fakePages) Pages(_ context.Context, path string) ([]pdf.Page, error) {
	id := pdf.DocumentID(path)
	n, ok := f.docs[id]
	if !ok {
		return nil, fmt.Errorf("unknown document %s", id)
	}
	pages := make([]pdf.Page, n)
	for i := range pages {
		pages[i] = pdf.Page{Number: i + 1, Image: []byte(fmt.Sprintf("%s-%d", id, i+1))}
	}
	return pages, nil
}

// scriptedClient answers header, detection, and extraction prompts for
// a small document with a predictable section layout.
func scriptedClient(extractionConfidenceLow bool) *providers.MockClient {
	mock := providers.NewMockClient()
	mock.Retries = 1
	mock.Handler = func(req *providers.VisionRequest) (string, error) {
		switch {
		case strings.Contains(req.Prompt, "Extract document header"):
			return `{"document_number": {"orig_text": "WMS-1", "text": "WMS-1"}}`, nil
		case strings.Contains(req.Prompt, "identify logical sections"):
			sections := []detect.Candidate{
				{Type: schema.TypeSafety, Name: "Safety", StartPage: 1, EndPage: 2, Confidence: 0.95},
				{Type: schema.TypeTooling, Name: "Tooling", StartPage: 3, EndPage: 4, Confidence: 0.9},
			}
			b, _ := json.Marshal(sections)
			return string(b), nil
		case strings.Contains(req.Prompt, "Extract all information"):
			if extractionConfidenceLow {
				return `[{"text": "", "orig_text": ""}, {"text": "", "orig_text": ""}]`, nil
			}
			return `[{"text": "content", "orig_text": "content"}]`, nil
		}
		return "", fmt.Errorf("unexpected prompt")
	}
	return mock
}

func newTestPipeline(t *testing.T, mock *providers.MockClient, docs map[string]int) (*Pipeline, *storage.Store) {
	t.Helper()
	dir, err := home.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	store, err := storage.NewStore(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	registry, err := schema.NewRegistry()
	if err != nil {
		t.Fatal(err)
	}
	p := New(Config{
		Client:   mock,
		Registry: registry,
		Store:    store,
		Pages:    &fakePages{docs: docs},
	})
	return p, store
}

func TestProcessDocument(t *testing.T) {
	t.Run("clean document approves and persists final", func(t *testing.T) {
		p, store := newTestPipeline(t, scriptedClient(false), map[string]int{"doc": 4})

		result, err := p.ProcessDocument(context.Background(), "/input/doc.pdf")
		if err != nil {
			t.Fatalf("ProcessDocument() error = %v", err)
		}
		if result.ValidationStatus != validate.DispositionApproved {
			t.Errorf("status = %s, want approved", result.ValidationStatus)
		}
		if result.Header.DocumentNumber.Text != "WMS-1" {
			t.Errorf("header not carried: %+v", result.Header)
		}
		if !store.HasFinal("doc") {
			t.Error("final result not persisted")
		}
		if _, err := store.LoadDetection("doc"); err != nil {
			t.Errorf("detection artifact not persisted: %v", err)
		}
		pending, _ := store.PendingReviews()
		if len(pending) != 0 {
			t.Errorf("approved document must not be queued: %d pending", len(pending))
		}
	})

	t.Run("weak extraction routes to review queue", func(t *testing.T) {
		p, store := newTestPipeline(t, scriptedClient(true), map[string]int{"doc": 4})

		result, err := p.ProcessDocument(context.Background(), "/input/doc.pdf")
		if err != nil {
			t.Fatalf("ProcessDocument() error = %v", err)
		}
		if result.ValidationStatus != validate.DispositionInReview {
			t.Errorf("status = %s, want in_review", result.ValidationStatus)
		}
		if result.ReviewReason == "" {
			t.Error("review reason missing")
		}
		pending, err := store.PendingReviews()
		if err != nil {
			t.Fatal(err)
		}
		if len(pending) != 1 || pending[0].DocumentID != "doc" {
			t.Errorf("review queue = %+v", pending)
		}
		if store.HasFinal("doc") {
			t.Error("reviewed document must not reach final storage")
		}
	})

	t.Run("detection failure surfaces as error with no result", func(t *testing.T) {
		mock := providers.NewMockClient()
		mock.Retries = 1
		mock.Handler = func(req *providers.VisionRequest) (string, error) {
			if strings.Contains(req.Prompt, "Extract document header") {
				return `{}`, nil
			}
			return "nonsense", nil
		}
		p, store := newTestPipeline(t, mock, map[string]int{"doc": 4})

		_, err := p.ProcessDocument(context.Background(), "/input/doc.pdf")
		if err == nil {
			t.Fatal("expected detection failure")
		}
		if store.HasFinal("doc") {
			t.Error("no result may be produced on detection failure")
		}
		pending, _ := store.PendingReviews()
		if len(pending) != 0 {
			t.Error("failed document must not be queued")
		}
	})
}

func TestProcessBatch(t *testing.T) {
	mock := providers.NewMockClient()
	mock.Retries = 1
	mock.Handler = func(req *providers.VisionRequest) (string, error) {
		if strings.Contains(req.Prompt, "Extract document header") {
			return `{}`, nil
		}
		if strings.Contains(req.Prompt, "identify logical sections") {
			b, _ := json.Marshal([]detect.Candidate{
				{Type: schema.TypeGeneral, Name: "Content", StartPage: 1, EndPage: 2, Confidence: 0.9},
			})
			return string(b), nil
		}
		return `[{"text": "data", "orig_text": "data"}]`, nil
	}

	p, store := newTestPipeline(t, mock, map[string]int{"a": 2, "b": 2})

	summary, err := p.ProcessBatch(context.Background(), []string{"/in/a.pdf", "/in/b.pdf", "/in/missing.pdf"})
	if err != nil {
		t.Fatalf("ProcessBatch() error = %v", err)
	}
	if len(summary.Completed) != 2 {
		t.Errorf("completed = %v, want a and b", summary.Completed)
	}
	if _, ok := summary.Failed["missing"]; !ok {
		t.Errorf("failed = %v, want missing recorded", summary.Failed)
	}

	// A second run resumes: everything already done is skipped.
	summary2, err := p.ProcessBatch(context.Background(), []string{"/in/a.pdf", "/in/b.pdf"})
	if err != nil {
		t.Fatal(err)
	}
	if len(summary2.Skipped) != 2 || len(summary2.Completed) != 0 {
		t.Errorf("resume run: skipped=%v completed=%v", summary2.Skipped, summary2.Completed)
	}

	progress, err := store.LoadProgress()
	if err != nil {
		t.Fatal(err)
	}
	if len(progress.Completed) != 2 || progress.Failed["missing"] == "" {
		t.Errorf("progress = %+v", progress)
	}
}
