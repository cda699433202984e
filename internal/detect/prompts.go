package detect

import (
	"fmt"
	"strings"

	"github.com/procdoc/procdoc/internal/schema"
)

// sectionVocabulary renders the section type list for prompt embedding.
func sectionVocabulary() string {
	var b strings.Builder
	for _, t := range schema.All() {
		fmt.Fprintf(&b, "- %s: %s\n", t, t.Description())
	}
	return b.String()
}

func typeNames() string {
	types := schema.All()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

// detectionPrompt asks for document-level sections over the whole
// document. Used when the page count fits in a single batch.
func detectionPrompt(totalPages int) string {
	return fmt.Sprintf(`Analyze these document pages and identify logical sections.

Total pages in document: %d
All pages are shown in order.

Expected section types:
%s
Identify DOCUMENT-LEVEL sections only. A section is a major structural
division introduced by a heading. Numbered sub-steps or sequences inside
a task activities region are NOT separate sections.

Return ONLY a JSON array with this exact structure:
[
    {
        "section_type": "one of: %s",
        "section_name": "exact heading text, or a short descriptive name",
        "start_page": number (1-indexed),
        "end_page": number (1-indexed),
        "confidence": number (0.0-1.0)
    }
]

Requirements:
- Sections must not overlap
- All pages (1 to %d) must be covered
- If unsure about section type, use 'general'
- Return ONLY the JSON array, no additional text or markdown`,
		totalPages, sectionVocabulary(), typeNames(), totalPages)
}

// batchDetectionPrompt covers one batch window of a larger document.
// The model sees only pages [batchStart, batchEnd] but is told the full
// document extent so it can recognize sections that continue past the
// window. Returned page numbers must stay inside the window; the merge
// step joins continuations across batch seams.
func batchDetectionPrompt(batchStart, batchEnd, totalPages int) string {
	return fmt.Sprintf(`Analyze these document pages and identify logical sections.

Total pages in document: %d
You are shown pages %d through %d of the document, in order.

Expected section types:
%s
Identify DOCUMENT-LEVEL sections only. A section is a major structural
division introduced by a heading. Numbered sub-steps or sequences inside
a task activities region are NOT separate sections.

A section may begin before page %d or continue past page %d. Still report
it, but the start_page and end_page you return MUST be within %d and %d.
Use the same section_name for a continuing section as its heading text so
it can be joined with adjacent pages.

Return ONLY a JSON array with this exact structure:
[
    {
        "section_type": "one of: %s",
        "section_name": "exact heading text, or a short descriptive name",
        "start_page": number (1-indexed),
        "end_page": number (1-indexed),
        "confidence": number (0.0-1.0)
    }
]

Requirements:
- Sections must not overlap
- Every page from %d to %d must be covered
- If unsure about section type, use 'general'
- Return ONLY the JSON array, no additional text or markdown`,
		totalPages, batchStart, batchEnd,
		sectionVocabulary(),
		batchStart, batchEnd, batchStart, batchEnd,
		typeNames(),
		batchStart, batchEnd)
}
