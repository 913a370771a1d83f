// Package latex provides span-level scanning primitives for LaTeX sources.
//
// Nothing here is a general LaTeX parser. The manuscript tooling needs three
// things from a source file: where the sectioning commands are, where the
// arguments of "skip" commands are (labels, citations and friends), and how
// the body text divides into sections. All three are pattern scans that
// return byte-offset spans into the original content, so substitutions can
// be applied without disturbing anything else.
package latex

import (
	"fmt"
	"regexp"
	"strings"
)

// Span is a half-open byte range [Start, End) within a document.
type Span struct {
	Start int
	End   int
}

// Contains reports whether pos falls inside the span.
func (s Span) Contains(pos int) bool {
	return s.Start <= pos && pos < s.End
}

// InAny reports whether pos falls inside any of the given spans.
func InAny(pos int, spans []Span) bool {
	for _, s := range spans {
		if s.Contains(pos) {
			return true
		}
	}
	return false
}

// Section is one \section{...} block of a document.
type Section struct {
	// Title is the raw section title as written in the source.
	Title string

	// CleanTitle is the title with markup stars stripped, used for
	// matching against glossary defined-in annotations.
	CleanTitle string

	// Start is the offset of the first byte after the \section command.
	Start int

	// End is the offset one past the last byte of the section body.
	End int
}

// Body returns the section's text from the full document content.
func (s Section) Body(content string) string {
	return content[s.Start:s.End]
}

// FindHeadings returns the spans of all sectioning commands in content.
// Starred variants (\section*{...}) are included. Commands come from the
// config file and are escaped like skip tags.
func FindHeadings(content string, commands []string) []Span {
	if len(commands) == 0 {
		return nil
	}
	escaped := make([]string, len(commands))
	for i, cmd := range commands {
		escaped[i] = regexp.QuoteMeta(cmd)
	}
	pattern := fmt.Sprintf(`\\(%s)\*?\{[^}]*\}`, strings.Join(escaped, "|"))
	return matchSpans(content, pattern)
}

// FindSkipSpans returns the spans of all \tag{...} commands for the given
// tags. Tags may contain regex metacharacters (e.g. "nameref*") and are
// escaped before matching.
func FindSkipSpans(content string, tags []string) []Span {
	if len(tags) == 0 {
		return nil
	}
	escaped := make([]string, len(tags))
	for i, tag := range tags {
		escaped[i] = regexp.QuoteMeta(tag)
	}
	pattern := fmt.Sprintf(`\\(%s)\{[^}]*\}`, strings.Join(escaped, "|"))
	return matchSpans(content, pattern)
}

var glsdispRe = regexp.MustCompile(`\\glsdisp\{[^}]*\}\{[^}]*\}`)

// FindLinkedSpans returns the spans of existing \glsdisp{id}{text} markup.
// Both argument groups are covered, so a re-run over already-linked output
// never matches a stem inside earlier markup.
func FindLinkedSpans(content string) []Span {
	var spans []Span
	for _, loc := range glsdispRe.FindAllStringIndex(content, -1) {
		spans = append(spans, Span{Start: loc[0], End: loc[1]})
	}
	return spans
}

func matchSpans(content, pattern string) []Span {
	re := regexp.MustCompile(pattern)
	var spans []Span
	for _, loc := range re.FindAllStringIndex(content, -1) {
		spans = append(spans, Span{Start: loc[0], End: loc[1]})
	}
	return spans
}

var sectionRe = regexp.MustCompile(`\\section\{([^}]+)\}`)

// SplitSections divides content into its \section{...} blocks. Each
// section's body runs from the end of its heading command to the start of
// the next \section (or end of document). Text before the first \section
// belongs to no section and is never rewritten.
func SplitSections(content string) []Section {
	matches := sectionRe.FindAllStringSubmatchIndex(content, -1)
	sections := make([]Section, 0, len(matches))
	for i, m := range matches {
		end := len(content)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		title := content[m[2]:m[3]]
		sections = append(sections, Section{
			Title:      title,
			CleanTitle: strings.TrimSpace(strings.TrimLeft(title, "*")),
			Start:      m[1],
			End:        end,
		})
	}
	return sections
}

// isWordChar reports whether b is part of a word for stem expansion.
// Hyphens count so compound terms like "ego-dissolution" stay whole.
func isWordChar(b byte) bool {
	return b == '-' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}

// ExpandWord widens [start, end) within text to cover the complete word
// around the matched fragment.
func ExpandWord(text string, start, end int) (int, int) {
	for start > 0 && isWordChar(text[start-1]) {
		start--
	}
	for end < len(text) && isWordChar(text[end]) {
		end++
	}
	return start, end
}
