// Package detect partitions a document's page sequence into labeled,
// non-overlapping, fully-covering sections using batched vision calls.
package detect

import (
	"errors"
	"fmt"

	"github.com/procdoc/procdoc/internal/schema"
)

// ErrNoSections indicates total detection failure: no batch produced a
// usable candidate. Callers must treat this as a hard failure rather
// than fabricating a catch-all section.
var ErrNoSections = errors.New("detection produced no sections")

// Candidate is one section boundary proposed by a single batch call.
// Candidates are ephemeral: the merge step either fuses them into
// Sections or flushes them through unchanged.
type Candidate struct {
	Type       schema.SectionType `json:"section_type"`
	Name       string             `json:"section_name"`
	StartPage  int                `json:"start_page"`
	EndPage    int                `json:"end_page"`
	Confidence float64            `json:"confidence"`
}

// Section is a post-merge, post-repair section. The detector guarantees
// that a returned list is sorted by start page, begins at page 1, ends
// at the document's last page, and has no gaps or overlaps.
type Section struct {
	Type       schema.SectionType `json:"section_type"`
	Name       string             `json:"section_name"`
	StartPage  int                `json:"start_page"`
	EndPage    int                `json:"end_page"`
	Confidence float64            `json:"confidence"`
}

// PageCount returns the number of pages the section spans.
func (s Section) PageCount() int {
	return s.EndPage - s.StartPage + 1
}

func (s Section) String() string {
	return fmt.Sprintf("%s[%d-%d]", s.Name, s.StartPage, s.EndPage)
}
