package citation

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/openmdma/folio/internal/logging"
)

// KeyMeta is per-citation-key metadata pulled from the bibliography and the
// papers directory: the DOI and the local file holding the cited paper.
type KeyMeta struct {
	DOI  string
	File string
}

// InventoryEntry is one line of the citation inventory. Status is READY
// when every key in the group has a local file to verify against.
type InventoryEntry struct {
	Status string
	Keys   []string
	DOIs   []string
	Files  []string
	Lines  []int
}

// Inventory statuses.
const (
	StatusReady       = "READY"
	StatusMissingFile = "MISSING_FILE"
)

// BuildInventory combines citation groups with key metadata.
func BuildInventory(groups []Group, meta map[string]KeyMeta) []InventoryEntry {
	entries := make([]InventoryEntry, 0, len(groups))
	for _, g := range groups {
		entry := InventoryEntry{Keys: g.Keys, Lines: g.Lines}
		withFiles := 0
		for _, key := range g.Keys {
			m, ok := meta[key]
			if !ok {
				continue
			}
			if m.DOI != "" {
				entry.DOIs = append(entry.DOIs, m.DOI)
			}
			if m.File != "" {
				entry.Files = append(entry.Files, m.File)
				withFiles++
			}
		}
		if len(g.Keys) > 0 && withFiles == len(g.Keys) {
			entry.Status = StatusReady
		} else {
			entry.Status = StatusMissingFile
		}
		entries = append(entries, entry)
	}
	return entries
}

// FormatInventory renders entries in the inventory line format:
//
//	READY (key1,key2), (doi1), (file1,file2) - 10,42,97
func FormatInventory(entries []InventoryEntry) string {
	var b strings.Builder
	for _, e := range entries {
		nums := make([]string, len(e.Lines))
		for i, n := range e.Lines {
			nums[i] = fmt.Sprintf("%d", n)
		}
		fmt.Fprintf(&b, "%s (%s), (%s), (%s) - %s\n",
			e.Status,
			strings.Join(e.Keys, ","),
			strings.Join(e.DOIs, ","),
			strings.Join(e.Files, ","),
			strings.Join(nums, ","))
	}
	return b.String()
}

// inventoryGrammar parses one inventory line. The " - " separator gets its
// own token so the hyphens inside DOIs stay part of their atoms.
//
//nolint:govet // participle grammar tags are not standard struct tags
type inventoryGrammar struct {
	Status string   `parser:"@Atom"`
	Keys   []string `parser:"'(' ( @Atom ( ',' @Atom )* )? ')' ','"`
	DOIs   []string `parser:"'(' ( @Atom ( ',' @Atom )* )? ')' ','"`
	Files  []string `parser:"'(' ( @Atom ( ',' @Atom )* )? ')'"`
	Lines  []int    `parser:"Sep @Atom ( ',' @Atom )*"`
}

var inventoryLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Sep", Pattern: ` - `},
	{Name: "Punct", Pattern: `[(),]`},
	{Name: "Atom", Pattern: `[^\s(),]+`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var inventoryParser = participle.MustBuild[inventoryGrammar](
	participle.Lexer(inventoryLexer),
	participle.Elide("Whitespace"),
)

// ParseInventory reads back a previously written inventory. Lines that do
// not parse (headers, prose) are skipped with a debug log.
func ParseInventory(content string) []InventoryEntry {
	var entries []InventoryEntry
	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		parsed, err := inventoryParser.ParseString("", line)
		if err != nil {
			logging.Debug("skipping non-inventory line", "line", line)
			continue
		}
		entries = append(entries, InventoryEntry{
			Status: parsed.Status,
			Keys:   parsed.Keys,
			DOIs:   parsed.DOIs,
			Files:  parsed.Files,
			Lines:  parsed.Lines,
		})
	}
	return entries
}
