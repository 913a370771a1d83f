package wiki

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/openmdma/folio/core/bibtex"
)

const maxListedNames = 10

// cs1Template picks the Citation Style 1 template for a BibTeX entry type.
func cs1Template(entryType string) string {
	switch strings.ToLower(entryType) {
	case "article":
		return "cite journal"
	case "book", "inbook", "incollection", "thesis", "phdthesis", "mastersthesis", "manual", "reference":
		return "cite book"
	default:
		// online, misc, unpublished, report and anything unrecognized
		return "cite web"
	}
}

var latexEmphRe = regexp.MustCompile(`\\(?:textit|emph)\{([^}]*)\}`)

func cleanTitle(s string) string {
	s = latexEmphRe.ReplaceAllString(s, "$1")
	s = strings.ReplaceAll(s, "{", "")
	s = strings.ReplaceAll(s, "}", "")
	return strings.TrimSpace(s)
}

func yearOf(e bibtex.Entry) string {
	if y := e.Field("year"); y != "" {
		return y
	}
	if d := e.Field("date"); d != "" {
		if len(d) >= 4 {
			return d[:4]
		}
		return d
	}
	return ""
}

// EntryToCS1 renders one BibTeX entry as a CS1 template invocation.
func EntryToCS1(e bibtex.Entry) string {
	var b strings.Builder
	b.WriteString("{{")
	b.WriteString(cs1Template(e.Type))

	limitNames := func(names []bibtex.Author) []bibtex.Author {
		if len(names) > maxListedNames {
			return names[:maxListedNames]
		}
		return names
	}

	if raw := e.Field("author"); raw != "" {
		for i, n := range limitNames(bibtex.ParseAuthors(raw)) {
			if n.Last != "" {
				fmt.Fprintf(&b, " |last%d=%s", i+1, n.Last)
			}
			if n.First != "" {
				fmt.Fprintf(&b, " |first%d=%s", i+1, n.First)
			}
		}
	} else if raw := e.Field("editor"); raw != "" {
		// Editors are listed only when the entry has no authors.
		for i, n := range limitNames(bibtex.ParseAuthors(raw)) {
			if n.Last != "" {
				fmt.Fprintf(&b, " |editor%d-last=%s", i+1, n.Last)
			}
			if n.First != "" {
				fmt.Fprintf(&b, " |editor%d-first=%s", i+1, n.First)
			}
		}
	}

	if y := yearOf(e); y != "" {
		fmt.Fprintf(&b, " |year=%s", y)
	}
	if t := e.Field("title"); t != "" {
		fmt.Fprintf(&b, " |title=%s", cleanTitle(t))
	}
	journal := e.Field("journal")
	if journal == "" {
		journal = e.Field("journaltitle")
	}
	if journal != "" {
		fmt.Fprintf(&b, " |journal=%s", cleanTitle(journal))
	}
	if v := e.Field("volume"); v != "" {
		fmt.Fprintf(&b, " |volume=%s", v)
	}
	issue := e.Field("number")
	if issue == "" {
		issue = e.Field("issue")
	}
	if issue != "" {
		fmt.Fprintf(&b, " |issue=%s", issue)
	}
	if p := e.Field("pages"); p != "" {
		fmt.Fprintf(&b, " |pages=%s", strings.ReplaceAll(p, "--", "–"))
	}
	publisher := e.Field("publisher")
	if publisher == "" {
		publisher = e.Field("institution")
	}
	if publisher != "" {
		fmt.Fprintf(&b, " |publisher=%s", cleanTitle(publisher))
	}
	doi := e.Field("doi")
	if doi != "" {
		fmt.Fprintf(&b, " |doi=%s", doi)
	}
	if u := e.Field("url"); u != "" && doi == "" {
		fmt.Fprintf(&b, " |url=%s", u)
	}
	if i := e.Field("isbn"); i != "" {
		fmt.Fprintf(&b, " |isbn=%s", i)
	}

	b.WriteString("}}")
	return b.String()
}

// Placeholder forms as they appear after pandoc, which HTML-escapes the
// angle brackets.
var (
	citePlaceholderRe     = regexp.MustCompile(`(?:&lt;|<){3}CITE:([^&>]+)(?:&gt;|>){3}`)
	textcitePlaceholderRe = regexp.MustCompile(`(?:&lt;|<){3}TEXTCITE:([^&>]+)(?:&gt;|>){3}`)
	emptyReferencesRe     = regexp.MustCompile(`<references\s*/>\s*`)
)

// Convert rewrites citation placeholders in converted wiki text into
// <ref name=.../> tags and appends a list-defined references section for
// every key that was actually cited. Keys with no bibliography entry keep
// a visible marker so they are easy to find.
func Convert(content string, entries map[string]bibtex.Entry) string {
	used := map[string]bool{}

	refTags := func(keys []string) string {
		var b strings.Builder
		for _, k := range keys {
			if _, ok := entries[k]; ok {
				used[k] = true
				fmt.Fprintf(&b, `<ref name="%s" />`, k)
			} else {
				fmt.Fprintf(&b, "[MISSING: %s]", k)
			}
		}
		return b.String()
	}

	content = textcitePlaceholderRe.ReplaceAllStringFunc(content, func(m string) string {
		keys := splitKeys(textcitePlaceholderRe.FindStringSubmatch(m)[1])
		if len(keys) == 0 {
			return m
		}
		e, ok := entries[keys[0]]
		if !ok {
			return refTags(keys)
		}
		head := inlineAuthor(e)
		return head + refTags(keys)
	})

	content = citePlaceholderRe.ReplaceAllStringFunc(content, func(m string) string {
		return refTags(splitKeys(citePlaceholderRe.FindStringSubmatch(m)[1]))
	})

	content = emptyReferencesRe.ReplaceAllString(content, "")

	keys := make([]string, 0, len(used))
	for k := range used {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var refs strings.Builder
	refs.WriteString("\n== References ==\n<references>\n")
	for _, k := range keys {
		fmt.Fprintf(&refs, "<ref name=\"%s\">%s</ref>\n", k, EntryToCS1(entries[k]))
	}
	refs.WriteString("</references>\n")

	return strings.TrimRight(content, "\n") + "\n" + refs.String()
}

func inlineAuthor(e bibtex.Entry) string {
	names := bibtex.ParseAuthors(e.Field("author"))
	head := bibtex.FormatAuthorList(names)
	if head == "" {
		head = "Unknown"
	}
	if y := yearOf(e); y != "" {
		return fmt.Sprintf("%s (%s)", head, y)
	}
	return head
}
