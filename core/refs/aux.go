// Package refs expands custom reference commands for the EPUB build.
//
// The typeset run leaves two byproducts behind: the .aux file mapping
// labels to section numbers and the .bbl file carrying formatted
// bibliography entries. Reading those back lets \cref, \combinedref and
// friends be rewritten into plain hyperlinked text that survives the
// EPUB conversion.
package refs

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	folioerrors "github.com/openmdma/folio/core/errors"
	"github.com/openmdma/folio/internal/logging"
)

// Label is one \newlabel entry from the .aux file.
type Label struct {
	Number string
	Page   string
	Title  string
}

// AuxData holds everything the expander needs from the .aux file.
type AuxData struct {
	// Labels maps label names to their number/page/title.
	Labels map[string]Label

	// CrefLabels maps label names to display text like "Section 2.1",
	// derived from cleveref's @cref bookkeeping entries.
	CrefLabels map[string]string
}

var (
	newlabelRe = regexp.MustCompile(`\\newlabel\{([^}]+)\}\{\{([^}]*)\}\{([^}]*)\}\{([^}]*)\}`)
	crefRe     = regexp.MustCompile(`\\newlabel\{([^@}]+)@cref\}\{\{([^}]*)\}`)
)

// crefGrammar parses cleveref's bracketed label payload, e.g.
// "[section][1][2]2.1" or "[appendix][1][]A".
//
//nolint:govet // participle grammar tags are not standard struct tags
type crefGrammar struct {
	Type     string   `parser:"'[' @Ident ']'"`
	Counters []string `parser:"( '[' @Ref? ']' )*"`
	Ref      string   `parser:"@Ref"`
}

var crefLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "LBrack", Pattern: `\[`},
	{Name: "RBrack", Pattern: `\]`},
	{Name: "Ident", Pattern: `[a-z][a-zA-Z]*`},
	{Name: "Ref", Pattern: `[A-Z0-9]+(?:\.[0-9]+)*`},
})

var crefParser = participle.MustBuild[crefGrammar](
	participle.Lexer(crefLexer),
)

// ParseAux extracts label data from .aux content.
func ParseAux(content string) *AuxData {
	data := &AuxData{
		Labels:     make(map[string]Label),
		CrefLabels: make(map[string]string),
	}

	for _, m := range newlabelRe.FindAllStringSubmatch(content, -1) {
		name := m[1]
		if strings.HasSuffix(name, "@cref") {
			continue
		}
		data.Labels[name] = Label{Number: m[2], Page: m[3], Title: m[4]}
	}

	for _, m := range crefRe.FindAllStringSubmatch(content, -1) {
		name := m[1]
		parsed, err := crefParser.ParseString("", m[2])
		if err != nil {
			logging.Warn("skipping unparsable cref label", "label", name, "payload", m[2])
			continue
		}
		data.CrefLabels[name] = fmt.Sprintf("%s %s", capitalize(parsed.Type), parsed.Ref)
	}

	return data
}

// ParseAuxFile reads and parses a .aux file. A missing file is not fatal:
// the expander then leaves cref-style commands untouched.
func ParseAuxFile(path string) (*AuxData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Warn("aux file not found; references stay unexpanded", "path", path)
			return &AuxData{Labels: map[string]Label{}, CrefLabels: map[string]string{}}, nil
		}
		return nil, folioerrors.NewIO("read", path, err)
	}
	return ParseAux(string(data)), nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
