package detect

import (
	"encoding/json"
	"fmt"

	"github.com/procdoc/procdoc/internal/jsonx"
	"github.com/procdoc/procdoc/internal/schema"
)

// rawCandidate is the wire shape of one detection result. section_type
// is kept as a plain string here so off-vocabulary values can be
// normalized instead of failing the unmarshal.
type rawCandidate struct {
	SectionType string  `json:"section_type"`
	SectionName string  `json:"section_name"`
	StartPage   int     `json:"start_page"`
	EndPage     int     `json:"end_page"`
	Confidence  float64 `json:"confidence"`
}

// parseCandidates extracts a candidate list from raw model output and
// clamps every candidate to the batch window [batchStart, batchEnd].
// Clamping rather than discarding keeps coverage repairable later.
// An unparseable reply returns an error; the caller treats the batch
// as contributing zero candidates.
func parseCandidates(content string, batchStart, batchEnd int) ([]Candidate, error) {
	repaired, err := jsonx.RepairArray(content)
	if err != nil {
		return nil, fmt.Errorf("detection reply is not a JSON array: %w", err)
	}

	var raw []rawCandidate
	if err := json.Unmarshal(repaired, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode detection reply: %w", err)
	}

	candidates := make([]Candidate, 0, len(raw))
	for _, rc := range raw {
		c := Candidate{
			Type:       schema.Normalize(rc.SectionType),
			Name:       rc.SectionName,
			StartPage:  rc.StartPage,
			EndPage:    rc.EndPage,
			Confidence: rc.Confidence,
		}
		if c.Name == "" {
			c.Name = synthesizeName(c.Type, c.StartPage)
		}
		if c.StartPage > c.EndPage {
			c.StartPage, c.EndPage = c.EndPage, c.StartPage
		}
		c.StartPage = clampInt(c.StartPage, batchStart, batchEnd)
		c.EndPage = clampInt(c.EndPage, batchStart, batchEnd)
		c.Confidence = clampFloat(c.Confidence, 0, 1)
		candidates = append(candidates, c)
	}
	return candidates, nil
}

// synthesizeName labels a candidate the model left unnamed.
func synthesizeName(t schema.SectionType, startPage int) string {
	return fmt.Sprintf("%s (page %d)", t, startPage)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
