// Package citation handles the manuscript's citation inventory and the
// attribution-unit markup used for quote verification.
package citation

import (
	"os"
	"regexp"
	"sort"
	"strings"

	folioerrors "github.com/openmdma/folio/core/errors"
)

// Group is one distinct set of citation keys and the manuscript lines on
// which that exact set is cited together.
type Group struct {
	Keys  []string
	Lines []int
}

// Line pairs a manuscript line number with its content.
type Line struct {
	Number  int
	Content string
}

var citeRe = regexp.MustCompile(`\\(?:text)?cite\{([^}]+)\}`)

// Extract scans LaTeX content for \cite and \textcite commands and groups
// the line numbers by the exact key set cited. Groups are ordered by how
// often they are cited (most lines first), then by key.
func Extract(content string) []Group {
	byKeys := make(map[string][]int)

	for lineNum, line := range strings.Split(content, "\n") {
		for _, m := range citeRe.FindAllStringSubmatch(line, -1) {
			keys := splitKeys(m[1])
			id := strings.Join(keys, ",")
			n := lineNum + 1
			if existing := byKeys[id]; len(existing) == 0 || existing[len(existing)-1] != n {
				byKeys[id] = append(byKeys[id], n)
			}
		}
	}

	groups := make([]Group, 0, len(byKeys))
	for id, lines := range byKeys {
		sort.Ints(lines)
		groups = append(groups, Group{Keys: strings.Split(id, ","), Lines: lines})
	}
	sort.Slice(groups, func(i, j int) bool {
		if len(groups[i].Lines) != len(groups[j].Lines) {
			return len(groups[i].Lines) > len(groups[j].Lines)
		}
		return strings.Join(groups[i].Keys, ",") > strings.Join(groups[j].Keys, ",")
	})
	return groups
}

// ExtractFile reads a LaTeX file and extracts its citation groups.
func ExtractFile(path string) ([]Group, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, folioerrors.NewIO("read", path, err)
	}
	return Extract(string(data)), nil
}

// LinesFromContent fetches the content of specific line numbers.
// Out-of-range numbers are ignored.
func LinesFromContent(content string, numbers []int) []Line {
	all := strings.Split(content, "\n")
	var out []Line
	for _, n := range numbers {
		if n >= 1 && n <= len(all) {
			out = append(out, Line{Number: n, Content: strings.TrimSpace(all[n-1])})
		}
	}
	return out
}

// GroupParagraphs splits lines into paragraphs of consecutive line numbers.
func GroupParagraphs(lines []Line) [][]Line {
	var paragraphs [][]Line
	var current []Line
	for _, line := range lines {
		if len(current) > 0 && line.Number > current[len(current)-1].Number+1 {
			paragraphs = append(paragraphs, current)
			current = nil
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		paragraphs = append(paragraphs, current)
	}
	return paragraphs
}

func splitKeys(s string) []string {
	parts := strings.Split(s, ",")
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		if k := strings.TrimSpace(p); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
