package health

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Chronotype is the subject's biological rhythm class.
type Chronotype string

const (
	ChronotypeLion    Chronotype = "Lion"
	ChronotypeBear    Chronotype = "Bear"
	ChronotypeWolf    Chronotype = "Wolf"
	ChronotypeDolphin Chronotype = "Dolphin"
	ChronotypeUnknown Chronotype = "Unknown"
)

var chronotypes = []Chronotype{ChronotypeLion, ChronotypeBear, ChronotypeWolf, ChronotypeDolphin}

// maxLabelDistance bounds typo tolerance for labels typed by people or
// echoed back by the narrative service.
const maxLabelDistance = 2

// ParseChronotype maps a free-form label to a Chronotype. Unrecognised or
// ambiguous labels yield ChronotypeUnknown.
func ParseChronotype(label string) Chronotype {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" {
		return ChronotypeUnknown
	}
	best, bestDist, tie := ChronotypeUnknown, maxLabelDistance+1, false
	for _, c := range chronotypes {
		d := levenshtein.ComputeDistance(label, strings.ToLower(string(c)))
		switch {
		case d < bestDist:
			best, bestDist, tie = c, d, false
		case d == bestDist:
			tie = true
		}
	}
	if tie || bestDist > maxLabelDistance {
		return ChronotypeUnknown
	}
	return best
}

// DedupePatterns drops pattern tags that are near-duplicates of an earlier
// tag (case-insensitive edit distance of at most 2, or 10% of the length for
// long tags). Order of first occurrence is kept.
func DedupePatterns(tags []string) []string {
	out := make([]string, 0, len(tags))
	var seen []string
	for _, raw := range tags {
		tag := strings.TrimSpace(raw)
		if tag == "" {
			continue
		}
		norm := strings.ToLower(tag)
		dup := false
		for _, s := range seen {
			limit := max(2, len(norm)/10)
			if levenshtein.ComputeDistance(norm, s) <= limit {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		seen = append(seen, norm)
		out = append(out, tag)
	}
	return out
}
