package storage

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/procdoc/procdoc/internal/detect"
	"github.com/procdoc/procdoc/internal/extract"
	"github.com/procdoc/procdoc/internal/home"
	"github.com/procdoc/procdoc/internal/schema"
	"github.com/procdoc/procdoc/internal/validate"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir, err := home.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	store, err := NewStore(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	return store
}

func sampleResult(id string, status validate.Disposition) *validate.DocumentResult {
	return &validate.DocumentResult{
		DocumentID: id,
		Sections: []extract.ExtractedSection{
			{Type: schema.TypeSafety, Name: "Safety", PageRange: [2]int{1, 3},
				Data: json.RawMessage(`[]`), Confidence: 0.9},
		},
		ValidationStatus: status,
	}
}

func TestDetectionRoundTrip(t *testing.T) {
	store := newTestStore(t)
	sections := []detect.Section{
		{Type: schema.TypeSafety, Name: "Safety", StartPage: 1, EndPage: 5, Confidence: 0.9},
		{Type: schema.TypeGeneral, Name: "Rest", StartPage: 6, EndPage: 10, Confidence: 0.7},
	}

	if err := store.SaveDetection("doc-1", sections); err != nil {
		t.Fatalf("SaveDetection() error = %v", err)
	}
	got, err := store.LoadDetection("doc-1")
	if err != nil {
		t.Fatalf("LoadDetection() error = %v", err)
	}
	if len(got) != 2 || got[0].Name != "Safety" || got[1].EndPage != 10 {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestFinalStorage(t *testing.T) {
	store := newTestStore(t)
	result := sampleResult("doc-2", validate.DispositionApproved)

	if store.HasFinal("doc-2") {
		t.Error("HasFinal before save")
	}
	if err := store.SaveFinal(result); err != nil {
		t.Fatalf("SaveFinal() error = %v", err)
	}
	if !store.HasFinal("doc-2") {
		t.Error("HasFinal after save")
	}
	got, err := store.LoadFinal("doc-2")
	if err != nil {
		t.Fatalf("LoadFinal() error = %v", err)
	}
	if got.ValidationStatus != validate.DispositionApproved {
		t.Errorf("status = %s", got.ValidationStatus)
	}
}

func TestReviewQueue(t *testing.T) {
	store := newTestStore(t)

	t.Run("queue and list", func(t *testing.T) {
		for _, id := range []string{"doc-a", "doc-b"} {
			if err := store.QueueForReview(sampleResult(id, validate.DispositionInReview)); err != nil {
				t.Fatalf("QueueForReview() error = %v", err)
			}
		}
		pending, err := store.PendingReviews()
		if err != nil {
			t.Fatalf("PendingReviews() error = %v", err)
		}
		if len(pending) != 2 {
			t.Fatalf("pending = %d, want 2", len(pending))
		}
	})

	t.Run("approve dequeues into final", func(t *testing.T) {
		if err := store.Approve("doc-a"); err != nil {
			t.Fatalf("Approve() error = %v", err)
		}
		pending, _ := store.PendingReviews()
		if len(pending) != 1 {
			t.Errorf("pending = %d, want 1", len(pending))
		}
		got, err := store.LoadFinal("doc-a")
		if err != nil {
			t.Fatalf("LoadFinal() error = %v", err)
		}
		if got.ValidationStatus != validate.DispositionApproved {
			t.Errorf("status = %s, want approved", got.ValidationStatus)
		}
	})

	t.Run("reject records reason", func(t *testing.T) {
		if err := store.Reject("doc-b", "illegible scan"); err != nil {
			t.Fatalf("Reject() error = %v", err)
		}
		got, err := store.LoadFinal("doc-b")
		if err != nil {
			t.Fatalf("LoadFinal() error = %v", err)
		}
		if got.ValidationStatus != validate.DispositionRejected || got.ReviewReason != "illegible scan" {
			t.Errorf("got %s %q", got.ValidationStatus, got.ReviewReason)
		}
	})

	t.Run("approve unknown document errors", func(t *testing.T) {
		if err := store.Approve("nope"); err == nil {
			t.Error("expected error")
		}
	})
}

func TestPendingReviewsOrderedByTime(t *testing.T) {
	store := newTestStore(t)

	// Filename order (doc-a, doc-m, doc-z) is the reverse of processing
	// order, so directory listing order would get this wrong.
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"doc-z", "doc-m", "doc-a"} {
		r := sampleResult(id, validate.DispositionInReview)
		r.Metadata.ProcessedAt = base.Add(time.Duration(i) * time.Minute)
		if err := store.QueueForReview(r); err != nil {
			t.Fatalf("QueueForReview() error = %v", err)
		}
	}

	pending, err := store.PendingReviews()
	if err != nil {
		t.Fatalf("PendingReviews() error = %v", err)
	}
	want := []string{"doc-z", "doc-m", "doc-a"}
	if len(pending) != len(want) {
		t.Fatalf("pending = %d, want %d", len(pending), len(want))
	}
	for i, id := range want {
		if pending[i].DocumentID != id {
			t.Errorf("pending[%d] = %s, want %s", i, pending[i].DocumentID, id)
		}
	}
}

func TestProgress(t *testing.T) {
	store := newTestStore(t)

	p, err := store.LoadProgress()
	if err != nil {
		t.Fatalf("LoadProgress() error = %v", err)
	}
	if len(p.Completed) != 0 {
		t.Errorf("fresh progress not empty: %+v", p)
	}

	p.Completed = append(p.Completed, "doc-1")
	p.Failed["doc-2"] = "detection produced no sections"
	if err := store.SaveProgress(p); err != nil {
		t.Fatalf("SaveProgress() error = %v", err)
	}

	got, err := store.LoadProgress()
	if err != nil {
		t.Fatalf("LoadProgress() error = %v", err)
	}
	if len(got.Completed) != 1 || got.Failed["doc-2"] == "" {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not set")
	}
}

func TestSaveSectionSanitizesName(t *testing.T) {
	store := newTestStore(t)
	if err := store.SaveSection("doc-3", "Material Risks / Controls", map[string]string{"k": "v"}); err != nil {
		t.Fatalf("SaveSection() error = %v", err)
	}
}
