package extract

import (
	"fmt"

	"github.com/procdoc/procdoc/internal/jsonx"
)

// Confidence scores the structural completeness of extracted section
// data in [0,1]. This is a cheap structural proxy, not a semantic
// accuracy measure: validation thresholds downstream are calibrated
// against exactly this scale.
//
// Scoring: start at 1.0. Array data loses up to 0.2 proportional to
// the fraction of mostly-empty items. Object data loses 0.3 when empty
// outright, or 0.2 when most of its fields are empty. Anything empty
// at the top level loses 0.3.
func Confidence(v jsonx.Value) (float64, []string) {
	score := 1.0
	var issues []string

	switch v.Kind {
	case jsonx.KindArray:
		if len(v.Arr) == 0 {
			score -= 0.3
			issues = append(issues, "section data is empty")
			break
		}
		mostlyEmpty := 0
		for _, item := range v.Arr {
			if isMostlyEmpty(item) {
				mostlyEmpty++
			}
		}
		if mostlyEmpty > 0 {
			fraction := float64(mostlyEmpty) / float64(len(v.Arr))
			score -= 0.2 * fraction
			issues = append(issues, fmt.Sprintf("%d of %d items mostly empty", mostlyEmpty, len(v.Arr)))
		}
	case jsonx.KindObject:
		if len(v.Obj) == 0 {
			score -= 0.3
			issues = append(issues, "section data is empty")
			break
		}
		emptyFields := 0
		for _, m := range v.Obj {
			if isMostlyEmpty(m.Value) {
				emptyFields++
			}
		}
		if emptyFields*2 > len(v.Obj) {
			score -= 0.2
			issues = append(issues, "most fields empty")
		}
	default:
		if v.IsEmpty() {
			score -= 0.3
			issues = append(issues, "section data is empty")
		}
	}

	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score, issues
}

// isMostlyEmpty reports whether more than half of a value's leaf
// fields are empty, checked recursively.
func isMostlyEmpty(v jsonx.Value) bool {
	total, empty := v.LeafStats()
	if total == 0 {
		return true
	}
	return empty*2 > total
}
