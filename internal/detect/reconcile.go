package detect

import (
	"sort"

	"github.com/procdoc/procdoc/internal/schema"
)

// Reconcile repairs a non-empty section list so it exactly partitions
// [1, totalPages]: sorted by start page, first section starts at 1,
// last ends at totalPages, and adjacent sections neither gap nor
// overlap. Gaps are closed by extending the earlier section; overlaps
// by shrinking it. Reconcile is idempotent: an already-valid list
// passes through unchanged.
func Reconcile(sections []Section, totalPages int) []Section {
	if len(sections) == 0 {
		return nil
	}

	out := make([]Section, len(sections))
	copy(out, sections)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartPage < out[j].StartPage
	})

	out[0].StartPage = 1
	out[len(out)-1].EndPage = totalPages

	for i := 0; i < len(out)-1; i++ {
		cur, next := &out[i], &out[i+1]
		if cur.EndPage < next.StartPage-1 {
			cur.EndPage = next.StartPage - 1
		} else if cur.EndPage >= next.StartPage {
			cur.EndPage = next.StartPage - 1
		}
	}

	// Degenerate ranges can appear when the model stacked several
	// sections on the same start page. Drop them and re-anchor.
	kept := out[:0]
	for _, s := range out {
		if s.StartPage <= s.EndPage {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	kept[0].StartPage = 1
	kept[len(kept)-1].EndPage = totalPages

	return kept
}

// FallbackSection builds a single whole-document section. Only used
// when fallback mode is explicitly enabled after total detection
// failure.
func FallbackSection(totalPages int) Section {
	return Section{
		Type:       schema.TypeGeneral,
		Name:       "Document Content",
		StartPage:  1,
		EndPage:    totalPages,
		Confidence: 0.5,
	}
}
