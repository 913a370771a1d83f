// Package bibtex reads the manuscript's BibTeX bibliography.
//
// This is not a full BibTeX implementation. It parses the subset the
// manuscript's machine-managed references.bib actually uses: @Type{key, ...}
// entries with field = {braced}, field = "quoted" or bare values, honoring
// nested braces. Malformed entries are skipped with a warning so one bad
// entry never blocks the rest of the bibliography.
package bibtex

import (
	"os"
	"regexp"
	"strings"

	folioerrors "github.com/openmdma/folio/core/errors"
	"github.com/openmdma/folio/internal/logging"
)

// Entry is a single bibliography entry.
type Entry struct {
	// Type is the entry type, lowercased (e.g. "article", "book").
	Type string

	// Key is the citation key.
	Key string

	// Fields maps lowercased field names to whitespace-normalized values.
	Fields map[string]string
}

// Field returns a field value, or "" when absent.
func (e Entry) Field(name string) string {
	return e.Fields[strings.ToLower(name)]
}

var entryStartRe = regexp.MustCompile(`@(\w+)\{`)

// Parse extracts all entries from BibTeX content. Text between entries
// (comments, stray prose) is ignored.
func Parse(content string) []Entry {
	starts := entryStartRe.FindAllStringSubmatchIndex(content, -1)

	var entries []Entry
	for _, m := range starts {
		entryType := strings.ToLower(content[m[2]:m[3]])
		body, ok := balancedFrom(content, m[1]-1)
		if !ok {
			logging.Warn("skipping malformed BibTeX entry: unbalanced braces",
				"type", entryType, "offset", m[0])
			continue
		}

		comma := strings.IndexByte(body, ',')
		if comma < 0 {
			// An entry with a key and no fields is legal if useless.
			key := strings.TrimSpace(body)
			if key == "" {
				logging.Warn("skipping BibTeX entry with no key", "type", entryType)
				continue
			}
			entries = append(entries, Entry{Type: entryType, Key: key, Fields: map[string]string{}})
			continue
		}

		key := strings.TrimSpace(body[:comma])
		if key == "" {
			logging.Warn("skipping BibTeX entry with empty key", "type", entryType)
			continue
		}

		entries = append(entries, Entry{
			Type:   entryType,
			Key:    key,
			Fields: parseFields(body[comma+1:]),
		})
	}
	return entries
}

// ParseFile reads and parses a BibTeX file.
func ParseFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, folioerrors.NewIO("read", path, err)
	}
	return Parse(string(data)), nil
}

// Keys returns all citation keys in entry order.
func Keys(entries []Entry) []string {
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	return keys
}

// DOIMap returns the citation key to DOI mapping for entries that have one.
func DOIMap(entries []Entry) map[string]string {
	m := make(map[string]string)
	for _, e := range entries {
		if doi := e.Field("doi"); doi != "" {
			m[e.Key] = doi
		}
	}
	return m
}

// ByKey indexes entries by citation key.
func ByKey(entries []Entry) map[string]Entry {
	m := make(map[string]Entry, len(entries))
	for _, e := range entries {
		m[e.Key] = e
	}
	return m
}

// balancedFrom returns the content of the brace group opening at content[open],
// honoring nesting. open must point at '{'.
func balancedFrom(content string, open int) (string, bool) {
	depth := 0
	for i := open; i < len(content); i++ {
		switch content[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return content[open+1 : i], true
			}
		}
	}
	return "", false
}

// parseFields scans "name = value, name = value" pairs from an entry body.
func parseFields(body string) map[string]string {
	fields := make(map[string]string)
	i := skipSpace(body, 0)
	for i < len(body) {
		// Field name.
		start := i
		for i < len(body) && isFieldChar(body[i]) {
			i++
		}
		name := strings.ToLower(strings.TrimSpace(body[start:i]))
		i = skipSpace(body, i)
		if name == "" || i >= len(body) || body[i] != '=' {
			// Not a field; resynchronize at the next comma.
			if next := strings.IndexByte(body[i:], ','); next >= 0 {
				i = skipSpace(body, i+next+1)
				continue
			}
			break
		}
		i = skipSpace(body, i+1)
		if i >= len(body) {
			break
		}

		var value string
		switch body[i] {
		case '{':
			inner, ok := balancedFrom(body, i)
			if !ok {
				logging.Warn("unterminated braced value in BibTeX field", "field", name)
				return fields
			}
			value = inner
			i += len(inner) + 2
		case '"':
			end := strings.IndexByte(body[i+1:], '"')
			if end < 0 {
				logging.Warn("unterminated quoted value in BibTeX field", "field", name)
				return fields
			}
			value = body[i+1 : i+1+end]
			i += end + 2
		default:
			end := i
			for end < len(body) && body[end] != ',' && body[end] != '\n' {
				end++
			}
			value = body[i:end]
			i = end
		}

		fields[name] = normalizeSpace(value)

		// Advance past the separating comma, if any.
		i = skipSpace(body, i)
		if i < len(body) && body[i] == ',' {
			i++
		}
		i = skipSpace(body, i)
	}
	return fields
}

func isFieldChar(b byte) bool {
	return b == '_' || b == '-' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func skipSpace(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	return i
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
