package refs

import (
	"os"
	"regexp"
	"strings"

	folioerrors "github.com/openmdma/folio/core/errors"
	"github.com/openmdma/folio/core/bibtex"
)

// BblEntry is one formatted bibliography entry from the .bbl file.
type BblEntry struct {
	Title string
	// Authors is the display form: "First Last", "A and B", or
	// "First Last et al." for three or more.
	Authors string
	// FirstFamily is the first author's family name.
	FirstFamily string
	// Number is the entry's 1-based position in the bibliography.
	Number int
}

// BblData indexes bibliography entries by citation key.
type BblData struct {
	Entries map[string]BblEntry
}

var (
	bblEntryRe   = regexp.MustCompile(`(?s)\\entry\{([^}]+)\}\{[^}]+\}\{[^}]*\}\{[^}]*\}(.*?)(\\entry\{|\\enddatalist|$)`)
	authorHeadRe = regexp.MustCompile(`(?s)\\name\{author\}\{(\d+)\}\{[^}]*\}\{(.*?)\}\s*\\strng`)
	hashSplitRe  = regexp.MustCompile(`\{[^}]*hash=`)
	cleanBraceRe = regexp.MustCompile(`\{([^}]*)\}`)
	cleanCmdRe   = regexp.MustCompile(`\\(?:textit|textbf|emph)\{([^}]*)\}`)
	bibCmdRe     = regexp.MustCompile(`\\bib[a-z]+`)
)

// ParseBbl extracts bibliography entries from .bbl content.
func ParseBbl(content string) *BblData {
	data := &BblData{Entries: make(map[string]BblEntry)}

	counter := 0
	rest := content
	for {
		m := bblEntryRe.FindStringSubmatchIndex(rest)
		if m == nil {
			break
		}
		key := rest[m[2]:m[3]]
		body := rest[m[4]:m[5]]

		entry := BblEntry{Title: key}
		if title, ok := bblField("title", body); ok {
			entry.Title = cleanLatex(title)
		}
		entry.Authors, entry.FirstFamily = parseBblAuthors(body)

		counter++
		entry.Number = counter
		data.Entries[key] = entry

		// The terminator may be the next \entry; resume on it.
		rest = rest[m[6]:]
		if rest == "" {
			break
		}
	}
	return data
}

// ParseBblFile reads and parses a .bbl file. Like the .aux file, a missing
// .bbl is survivable; citation expansions then fall back to bare \cite.
func ParseBblFile(path string) (*BblData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &BblData{Entries: map[string]BblEntry{}}, nil
		}
		return nil, folioerrors.NewIO("read", path, err)
	}
	return ParseBbl(string(data)), nil
}

// bblField extracts \field{name}{value} honoring nested braces.
func bblField(name, content string) (string, bool) {
	marker := `\field{` + name + `}{`
	start := strings.Index(content, marker)
	if start < 0 {
		return "", false
	}
	start += len(marker)
	depth := 1
	for i := start; i < len(content); i++ {
		switch content[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return content[start:i], true
			}
		}
	}
	return "", false
}

// authorField extracts name={value} from an author block, unwrapping the
// extra braces institutional names carry.
func authorField(name, block string) (string, bool) {
	marker := name + `={`
	start := strings.Index(block, marker)
	if start < 0 {
		return "", false
	}
	start += len(marker)
	depth := 1
	for i := start; i < len(block); i++ {
		switch block[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				value := block[start:i]
				if strings.HasPrefix(value, "{") && strings.HasSuffix(value, "}") {
					value = value[1 : len(value)-1]
				}
				return value, true
			}
		}
	}
	return "", false
}

func parseBblAuthors(body string) (string, string) {
	m := authorHeadRe.FindStringSubmatch(body)
	if m == nil {
		return "Unknown Author", ""
	}
	block := m[2]

	var authors []bibtex.Author
	locs := hashSplitRe.FindAllStringIndex(block, -1)
	for i, loc := range locs {
		end := len(block)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		chunk := block[loc[0]:end]

		family, okF := authorField("family", chunk)
		if !okF {
			continue
		}
		given, _ := authorField("given", chunk)
		authors = append(authors, bibtex.Author{Last: cleanName(family), First: cleanName(given)})
	}

	if len(authors) == 0 {
		return "Unknown Author", ""
	}

	display := make([]string, len(authors))
	for i, a := range authors {
		if a.First != "" {
			display[i] = a.First + " " + a.Last
		} else {
			display[i] = a.Last
		}
	}

	var formatted string
	switch len(display) {
	case 1:
		formatted = display[0]
	case 2:
		formatted = display[0] + " and " + display[1]
	default:
		formatted = display[0] + " et al."
	}
	return formatted, authors[0].Last
}

// cleanName drops biblatex name-formatting commands like \bibnamedelima.
func cleanName(s string) string {
	return strings.Join(strings.Fields(bibCmdRe.ReplaceAllString(s, " ")), " ")
}

func cleanLatex(text string) string {
	text = cleanCmdRe.ReplaceAllString(text, "$1")
	text = cleanBraceRe.ReplaceAllString(text, "$1")
	return text
}
