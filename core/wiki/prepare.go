// Package wiki supports the MediaWiki export: citation commands become
// placeholders that survive the pandoc conversion, then get rewritten into
// list-defined references with Citation Style 1 templates.
package wiki

import (
	"fmt"
	"regexp"
	"strings"
)

var citeCmdRe = regexp.MustCompile(`\\(text|paren|auto)?cite\{([^}]+)\}`)

// Prepare converts LaTeX citation commands into placeholders pandoc will
// pass through untouched. \textcite keeps its own placeholder kind so the
// post-processing step can restore the inline author form.
func Prepare(content string) string {
	return citeCmdRe.ReplaceAllStringFunc(content, func(m string) string {
		sub := citeCmdRe.FindStringSubmatch(m)
		kind, keys := sub[1], sub[2]
		if kind == "text" {
			return fmt.Sprintf("<<<TEXTCITE:%s>>>", keys)
		}
		return fmt.Sprintf("<<<CITE:%s>>>", keys)
	})
}

// Glossary markup has no wiki equivalent; \glsdisp{id}{text} collapses to
// its display text before conversion.
var glsdispRe = regexp.MustCompile(`\\glsdisp\{[^}]*\}\{([^}]*)\}`)

// StripGlossaryMarkup replaces glossary links with their display text.
func StripGlossaryMarkup(content string) string {
	return glsdispRe.ReplaceAllString(content, "$1")
}

func splitKeys(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
