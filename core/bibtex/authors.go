package bibtex

import (
	"regexp"
	"strings"
)

// Author is one parsed author name.
type Author struct {
	Last  string
	First string
}

var andSplitRe = regexp.MustCompile(`\s+and\s+`)
var braceWrapRe = regexp.MustCompile(`^\{(.+)\}$`)

// ParseAuthors splits a BibTeX author field ("Last, First and First Last")
// into individual names. Institutional names wrapped in braces are kept
// whole as a last name.
func ParseAuthors(field string) []Author {
	if field == "" {
		return nil
	}
	var authors []Author
	for _, name := range andSplitRe.Split(field, -1) {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		authors = append(authors, parseAuthorName(name))
	}
	return authors
}

func parseAuthorName(name string) Author {
	// Unwrap case-protection braces, e.g. {Psychedelics in Recovery}.
	if m := braceWrapRe.FindStringSubmatch(name); m != nil {
		return Author{Last: strings.TrimSpace(m[1])}
	}

	if comma := strings.Index(name, ","); comma >= 0 {
		return Author{
			Last:  strings.TrimSpace(name[:comma]),
			First: strings.TrimSpace(name[comma+1:]),
		}
	}

	parts := strings.Fields(name)
	if len(parts) >= 2 {
		return Author{
			Last:  parts[len(parts)-1],
			First: strings.Join(parts[:len(parts)-1], " "),
		}
	}
	return Author{Last: name}
}

// FormatAuthorList renders authors the way inline prose cites them:
// "Smith", "Smith and Jones", or "Smith et al." for three or more.
func FormatAuthorList(authors []Author) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return authors[0].Last
	case 2:
		return authors[0].Last + " and " + authors[1].Last
	default:
		return authors[0].Last + " et al."
	}
}
