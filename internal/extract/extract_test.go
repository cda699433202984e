package extract

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/procdoc/procdoc/internal/detect"
	"github.com/procdoc/procdoc/internal/jsonx"
	"github.com/procdoc/procdoc/internal/pdf"
	"github.com/procdoc/procdoc/internal/providers"
	"github.com/procdoc/procdoc/internal/schema"
)

func mustValue(t *testing.T, s string) jsonx.Value {
	t.Helper()
	v, err := jsonx.Decode([]byte(s))
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestConfidence(t *testing.T) {
	t.Run("full array scores 1.0", func(t *testing.T) {
		v := mustValue(t, `[{"text": "a", "orig_text": "a"}, {"text": "b", "orig_text": "b"}]`)
		score, issues := Confidence(v)
		if score != 1.0 {
			t.Errorf("score = %v, want 1.0", score)
		}
		if len(issues) != 0 {
			t.Errorf("unexpected issues: %v", issues)
		}
	})

	t.Run("empty data scores lowest", func(t *testing.T) {
		for _, payload := range []string{`[]`, `{}`, `null`} {
			score, issues := Confidence(mustValue(t, payload))
			if score != 0.7 {
				t.Errorf("Confidence(%s) = %v, want 0.7", payload, score)
			}
			if len(issues) == 0 {
				t.Errorf("Confidence(%s) reported no issues", payload)
			}
		}
	})

	t.Run("partial penalty proportional to empty items", func(t *testing.T) {
		v := mustValue(t, `[{"text": "full", "orig_text": "full"}, {"text": "", "orig_text": ""}]`)
		score, issues := Confidence(v)
		if score != 0.9 {
			t.Errorf("score = %v, want 0.9 (half the items empty)", score)
		}
		if len(issues) != 1 || !strings.Contains(issues[0], "1 of 2") {
			t.Errorf("issues = %v", issues)
		}
	})

	t.Run("object with most fields empty", func(t *testing.T) {
		v := mustValue(t, `{"a": "", "b": "", "c": "x"}`)
		score, _ := Confidence(v)
		if score != 0.8 {
			t.Errorf("score = %v, want 0.8", score)
		}
	})

	t.Run("monotonicity: emptier never scores higher", func(t *testing.T) {
		fuller := mustValue(t, `[{"text": "a", "orig_text": "a"}, {"text": "b", "orig_text": "b"}]`)
		emptier := mustValue(t, `[{"text": "a", "orig_text": "a"}, {"text": "", "orig_text": ""}]`)
		emptiest := mustValue(t, `[{"text": "", "orig_text": ""}, {"text": "", "orig_text": ""}]`)

		sf, _ := Confidence(fuller)
		se, _ := Confidence(emptier)
		st, _ := Confidence(emptiest)
		if !(st <= se && se <= sf) {
			t.Errorf("monotonicity violated: %v, %v, %v", st, se, sf)
		}
	})
}

func testPages(n int) []pdf.Page {
	pages := make([]pdf.Page, n)
	for i := range pages {
		pages[i] = pdf.Page{Number: i + 1, Image: []byte(fmt.Sprintf("img-%d", i+1))}
	}
	return pages
}

func newTestExtractor(t *testing.T, mock *providers.MockClient) *Extractor {
	t.Helper()
	reg, err := schema.NewRegistry()
	if err != nil {
		t.Fatal(err)
	}
	return NewExtractor(ExtractorConfig{Client: mock, Registry: reg})
}

func TestExtractSection(t *testing.T) {
	section := detect.Section{
		Type: schema.TypeTooling, Name: "Tooling", StartPage: 2, EndPage: 4, Confidence: 0.9,
	}

	t.Run("successful extraction", func(t *testing.T) {
		mock := providers.NewMockClient()
		mock.ResponseText = `[{"tool_set": {"text": "hand tools"}, "tools": [{"text": "torque wrench"}]}]`

		e := newTestExtractor(t, mock)
		got := e.ExtractSection(context.Background(), testPages(10), section)
		if got.Failed {
			t.Fatalf("extraction failed: %s", got.Error)
		}
		if got.Confidence != 1.0 {
			t.Errorf("confidence = %v, want 1.0", got.Confidence)
		}
		// DocuPorter formatting mirrored orig_ fields into the data.
		if !strings.Contains(string(got.Data), `"orig_text":"torque wrench"`) {
			t.Errorf("orig fields not mirrored: %s", got.Data)
		}
		// Only the section's page window was sent.
		if imgs := len(mock.Requests[0].Images); imgs != 3 {
			t.Errorf("images sent = %d, want 3", imgs)
		}
	})

	t.Run("retries on unparseable reply", func(t *testing.T) {
		mock := providers.NewMockClient()
		mock.Responses = []string{"not json", `[{"tool_set": {"text": "kit"}}]`}

		e := newTestExtractor(t, mock)
		got := e.ExtractSection(context.Background(), testPages(10), section)
		if got.Failed {
			t.Fatalf("extraction failed: %s", got.Error)
		}
		if mock.RequestCount() != 2 {
			t.Errorf("calls = %d, want 2", mock.RequestCount())
		}
	})

	t.Run("exhausted retries record failure", func(t *testing.T) {
		mock := providers.NewMockClient()
		mock.ResponseText = "never json"

		e := newTestExtractor(t, mock)
		got := e.ExtractSection(context.Background(), testPages(10), section)
		if !got.Failed {
			t.Fatal("expected failure")
		}
		if got.Confidence != 0 {
			t.Errorf("confidence = %v, want 0", got.Confidence)
		}
		if string(got.Data) != "null" {
			t.Errorf("data = %s, want null", got.Data)
		}
		if mock.RequestCount() != 3 {
			t.Errorf("calls = %d, want 3", mock.RequestCount())
		}
	})

	t.Run("schema violation noted but data kept", func(t *testing.T) {
		mock := providers.NewMockClient()
		mock.ResponseText = `{"tools": "should be an array section"}`

		e := newTestExtractor(t, mock)
		got := e.ExtractSection(context.Background(), testPages(10), section)
		if got.Failed {
			t.Fatal("schema violation must not fail the section")
		}
		found := false
		for _, issue := range got.QualityIssues {
			if strings.Contains(issue, "schema validation failed") {
				found = true
			}
		}
		if !found {
			t.Errorf("quality issues = %v, want schema violation noted", got.QualityIssues)
		}
	})

	t.Run("range outside document fails cleanly", func(t *testing.T) {
		e := newTestExtractor(t, providers.NewMockClient())
		bad := detect.Section{Name: "X", StartPage: 5, EndPage: 20}
		got := e.ExtractSection(context.Background(), testPages(10), bad)
		if !got.Failed {
			t.Error("expected failure for out-of-range section")
		}
	})
}

func TestExtractAll(t *testing.T) {
	sections := []detect.Section{
		{Type: schema.TypeSafety, Name: "Safety", StartPage: 1, EndPage: 2},
		{Type: schema.TypeTooling, Name: "Tooling", StartPage: 3, EndPage: 5},
		{Type: schema.TypeGeneral, Name: "Other", StartPage: 6, EndPage: 10},
	}

	mock := providers.NewMockClient()
	mock.Retries = 1
	mock.Handler = func(req *providers.VisionRequest) (string, error) {
		if strings.Contains(req.Prompt, "Section: Tooling") {
			return "garbage", nil
		}
		return `[{"text": "content", "orig_text": "content"}]`, nil
	}

	e := newTestExtractor(t, mock)
	got := e.ExtractAll(context.Background(), testPages(10), sections)
	if len(got) != 3 {
		t.Fatalf("results = %d, want 3", len(got))
	}

	// Results come back in section order regardless of scheduling.
	for i, sec := range sections {
		if got[i].Name != sec.Name {
			t.Errorf("result %d = %s, want %s", i, got[i].Name, sec.Name)
		}
	}

	// The failed section does not poison its siblings.
	if !got[1].Failed {
		t.Error("expected Tooling to fail")
	}
	if got[0].Failed || got[2].Failed {
		t.Error("sibling sections must succeed independently")
	}
}
