package glossary

import (
	"regexp"
	"sort"
)

var glsdispIDRe = regexp.MustCompile(`\\glsdisp\{([^}]*)\}`)

// UsageCount is the number of glossary links pointing at one term.
type UsageCount struct {
	TermID string
	Count  int
}

// CountUsage tallies \glsdisp links per term, sorted by count descending
// then term ID for stable output. Terms from the glossary that are never
// linked appear with a zero count.
func CountUsage(content string, terms []Term) []UsageCount {
	counts := map[string]int{}
	for _, t := range terms {
		counts[t.ID] = 0
	}
	for _, m := range glsdispIDRe.FindAllStringSubmatch(content, -1) {
		counts[m[1]]++
	}

	out := make([]UsageCount, 0, len(counts))
	for id, n := range counts {
		out = append(out, UsageCount{TermID: id, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].TermID < out[j].TermID
	})
	return out
}
