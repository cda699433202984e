package detect

import "sort"

// mergeCandidates fuses batch results into sections. Candidates from
// all batches are sorted by start page, then walked with a single
// accumulator: a candidate joins the accumulator only when its name AND
// type match exactly and it is adjacent to or overlapping the
// accumulator's range (start ≤ current end + 1). The adjacency gate
// keeps two same-named sections in distant parts of the document from
// being fused into one.
func mergeCandidates(candidates []Candidate) []Section {
	if len(candidates) == 0 {
		return nil
	}

	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartPage < sorted[j].StartPage
	})

	var out []Section
	current := toSection(sorted[0])
	for _, next := range sorted[1:] {
		if next.Name == current.Name &&
			next.Type == current.Type &&
			next.StartPage <= current.EndPage+1 {
			if next.EndPage > current.EndPage {
				current.EndPage = next.EndPage
			}
			current.Confidence = (current.Confidence + next.Confidence) / 2
			continue
		}
		out = append(out, current)
		current = toSection(next)
	}
	out = append(out, current)
	return out
}

func toSection(c Candidate) Section {
	return Section{
		Type:       c.Type,
		Name:       c.Name,
		StartPage:  c.StartPage,
		EndPage:    c.EndPage,
		Confidence: c.Confidence,
	}
}
