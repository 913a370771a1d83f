package glossary

import (
	"os"
	"regexp"
	"strings"

	folioerrors "github.com/openmdma/folio/core/errors"
	"github.com/openmdma/folio/internal/logging"
)

// Term is one glossary definition.
type Term struct {
	// ID is the entry key used in \glsdisp{id}{...} markup.
	ID string

	// Name is the display name from the entry's name={...} field.
	Name string

	// Stems are the case-insensitive word fragments that detect mentions
	// of this term in running text. A term with no stems is never linked.
	Stems []string

	// DefinedIn is the clean title of the section that defines the term.
	// The linker never rewrites a term inside its own defining section.
	DefinedIn string
}

const entryCommand = `\newglossaryentry{`

var (
	nameRe      = regexp.MustCompile(`name=\{([^}]+)\}`)
	definedInRe = regexp.MustCompile(`%defined_in=\{([^}]+)\}`)
	stemRe      = regexp.MustCompile(`%stem=\{([^}]+)\}`)
)

// ParseTerms extracts glossary terms from glossary source content.
//
// Each entry is \newglossaryentry{id}{body} where the body carries the
// name={...} field plus %stem={...} and %defined_in={...} annotations in
// trailing comments. A malformed entry is skipped with a warning; it never
// aborts the remaining entries.
func ParseTerms(content string) []Term {
	parts := strings.Split(content, entryCommand)

	var terms []Term
	for _, part := range parts[1:] {
		if strings.TrimSpace(part) == "" {
			continue
		}

		idEnd := strings.IndexByte(part, '}')
		if idEnd < 0 {
			logging.Warn("skipping malformed glossary entry: unterminated id", "snippet", snippet(part))
			continue
		}
		id := strings.TrimSpace(part[:idEnd])
		if id == "" {
			logging.Warn("skipping malformed glossary entry: empty id")
			continue
		}

		body, ok := balancedGroup(part[idEnd+1:])
		if !ok {
			logging.Warn("skipping malformed glossary entry: unbalanced body", "id", id)
			continue
		}

		term := Term{ID: id}
		if m := nameRe.FindStringSubmatch(body); m != nil {
			term.Name = m[1]
		}
		if m := definedInRe.FindStringSubmatch(body); m != nil {
			term.DefinedIn = m[1]
		}
		if m := stemRe.FindStringSubmatch(body); m != nil {
			for _, stem := range strings.Split(m[1], ",") {
				if s := strings.TrimSpace(stem); s != "" {
					term.Stems = append(term.Stems, s)
				}
			}
		}

		terms = append(terms, term)
	}
	return terms
}

// LoadTerms reads and parses a glossary definitions file.
func LoadTerms(path string) ([]Term, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, folioerrors.NewIO("read", path, err)
	}
	return ParseTerms(string(data)), nil
}

// balancedGroup returns the content of the first {...} group in s,
// honoring nested braces.
func balancedGroup(s string) (string, bool) {
	open := strings.IndexByte(s, '{')
	if open < 0 {
		return "", false
	}
	depth := 1
	for i := open + 1; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return strings.TrimSpace(s[open+1 : i]), true
			}
		}
	}
	return "", false
}

func snippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 40 {
		return s[:40] + "..."
	}
	return s
}
