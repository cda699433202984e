package docfmt

import (
	"encoding/json"
	"testing"

	"github.com/procdoc/procdoc/internal/jsonx"
	"github.com/procdoc/procdoc/internal/schema"
)

func decode(t *testing.T, s string) jsonx.Value {
	t.Helper()
	v, err := jsonx.Decode([]byte(s))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func encode(t *testing.T, v jsonx.Value) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return string(b)
}

func TestDuplicateOrigFields(t *testing.T) {
	t.Run("mirrors text into orig_text", func(t *testing.T) {
		in := decode(t, `{"text": "wear gloves"}`)
		got := encode(t, DuplicateOrigFields(in))
		want := `{"orig_text":"wear gloves","text":"wear gloves"}`
		if got != want {
			t.Errorf("got %s, want %s", got, want)
		}
	})

	t.Run("mirrors orig_text back to text", func(t *testing.T) {
		in := decode(t, `{"orig_text": "original"}`)
		got := DuplicateOrigFields(in)
		text, ok := got.Get("text")
		if !ok || text.Str != "original" {
			t.Errorf("text = %+v, want mirrored value", text)
		}
	})

	t.Run("leaves existing pairs alone", func(t *testing.T) {
		in := decode(t, `{"orig_text": "before", "text": "after"}`)
		got := encode(t, DuplicateOrigFields(in))
		want := `{"orig_text":"before","text":"after"}`
		if got != want {
			t.Errorf("got %s, want %s", got, want)
		}
	})

	t.Run("recurses through nesting", func(t *testing.T) {
		in := decode(t, `[{"tools": [{"text": "wrench"}]}]`)
		got := encode(t, DuplicateOrigFields(in))
		want := `[{"tools":[{"orig_text":"wrench","text":"wrench"}]}]`
		if got != want {
			t.Errorf("got %s, want %s", got, want)
		}
	})
}

func TestCleanEmptyFields(t *testing.T) {
	t.Run("empty pair record collapses", func(t *testing.T) {
		in := decode(t, `{"orig_text": "", "text": "", "orig_image": "", "image": ""}`)
		got := CleanEmptyFields(in)
		if !got.IsEmpty() {
			t.Errorf("expected empty object, got %s", encode(t, got))
		}
	})

	t.Run("empty items dropped from arrays", func(t *testing.T) {
		in := decode(t, `[{"text": "keep"}, {"orig_text": "", "text": ""}, {}]`)
		got := CleanEmptyFields(in)
		if len(got.Arr) != 1 {
			t.Fatalf("items = %d, want 1", len(got.Arr))
		}
	})

	t.Run("pair record with content keeps empty pair fields", func(t *testing.T) {
		in := decode(t, `{"orig_text": "x", "text": "x", "image": ""}`)
		got := CleanEmptyFields(in)
		if _, ok := got.Get("image"); !ok {
			t.Error("empty image field should survive in a record with content")
		}
	})
}

func TestFixTaskSequences(t *testing.T) {
	in := decode(t, `[
		{"sequence_no": {"orig_text": "1", "text": "1"}, "sequence_name": {"text": "Prepare"}},
		{"sequence_no": {"text": ""}, "sequence_name": {"text": "Tasks to be done under isolation"}},
		{"sequence_no": {"text": "a."}, "sequence_name": {"text": "Isolate pump"}},
		{"sequence_no": {"text": "b."}, "sequence_name": {"text": "Verify isolation"}},
		{"sequence_no": {"orig_text": "4", "text": "4"}, "sequence_name": {"text": "Restore"}}
	]`)

	got := FixTaskSequences(in)
	if len(got.Arr) != 5 {
		t.Fatalf("items = %d, want 5", len(got.Arr))
	}

	wantSeq := []string{"1", "", "2", "3", "4"}
	for i, want := range wantSeq {
		if text := pairText(got.Arr[i], "sequence_no"); text != want {
			t.Errorf("item %d sequence_no = %q, want %q", i, text, want)
		}
	}

	// Required fields get padded with empty pairs.
	if _, ok := got.Arr[0].Get("step_no"); !ok {
		t.Error("step_no not padded")
	}
	if _, ok := got.Arr[0].Get("equipment_asset"); !ok {
		t.Error("equipment_asset not padded")
	}
}

func TestFormat(t *testing.T) {
	in := decode(t, `[
		{"sequence_no": {"text": "1"}, "sequence_name": {"text": "Check oil"}, "step_no": {"text": "1.1"}},
		{"orig_text": "", "text": ""}
	]`)
	got := Format(in, schema.TypeTaskActivities)
	if len(got.Arr) != 1 {
		t.Fatalf("items = %d, want 1 (empty record cleaned)", len(got.Arr))
	}
	if text := pairText(got.Arr[0], "sequence_no"); text != "1" {
		t.Errorf("sequence_no = %q, want 1", text)
	}
	if orig, ok := got.Arr[0].Get("sequence_no"); ok {
		if ot, ok := orig.Get("orig_text"); !ok || ot.Str != "1" {
			t.Errorf("orig_text not mirrored: %+v", orig)
		}
	}
}
