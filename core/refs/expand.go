package refs

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/openmdma/folio/internal/logging"
)

// Expander rewrites custom reference commands using parsed .aux and .bbl
// data. Commands whose label or key cannot be resolved are left in place
// (or marked, for citations) so a failed lookup is visible in the output
// rather than silently dropped.
type Expander struct {
	Aux *AuxData
	Bbl *BblData
}

// Counts reports how many of each command were rewritten.
type Counts struct {
	Cref         int
	CombinedRef  int
	CombinedCref int
	ProseCite    int
	TextCite     int
}

var (
	crefCmdRe         = regexp.MustCompile(`\\cref\{([^}]+)\}`)
	combinedRefCmdRe  = regexp.MustCompile(`\\combinedref\{([^}]+)\}`)
	combinedCrefCmdRe = regexp.MustCompile(`\\combinedcref\{([^}]+)\}`)
	proseCiteCmdRe    = regexp.MustCompile(`\\prosecite\{([^}]+)\}`)
	textCiteCmdRe     = regexp.MustCompile(`\\textcite\{([^}]+)\}`)
	nbspCiteRe        = regexp.MustCompile(`~\\(cite|parencite|textcite)\{`)
)

// Expand rewrites all supported commands in content and returns the result
// with per-command counts.
func (e *Expander) Expand(content string) (string, Counts) {
	var counts Counts

	content = crefCmdRe.ReplaceAllStringFunc(content, func(m string) string {
		counts.Cref++
		return e.expandCref(crefCmdRe.FindStringSubmatch(m)[1])
	})
	content = combinedRefCmdRe.ReplaceAllStringFunc(content, func(m string) string {
		counts.CombinedRef++
		return e.expandCombinedRef(combinedRefCmdRe.FindStringSubmatch(m)[1])
	})
	content = combinedCrefCmdRe.ReplaceAllStringFunc(content, func(m string) string {
		counts.CombinedCref++
		return e.expandCombinedCref(combinedCrefCmdRe.FindStringSubmatch(m)[1])
	})
	content = proseCiteCmdRe.ReplaceAllStringFunc(content, func(m string) string {
		counts.ProseCite++
		return e.expandProseCite(proseCiteCmdRe.FindStringSubmatch(m)[1])
	})
	content = textCiteCmdRe.ReplaceAllStringFunc(content, func(m string) string {
		counts.TextCite++
		return e.expandTextCite(textCiteCmdRe.FindStringSubmatch(m)[1])
	})

	// Non-breaking spaces before citations render awkwardly next to
	// superscript markers in EPUB output.
	content = nbspCiteRe.ReplaceAllString(content, ` \$1{`)

	return content, counts
}

// expandCref handles \cref{a} and \cref{a,b,c}, producing hyperlinked
// display text joined with "and".
func (e *Expander) expandCref(arg string) string {
	labels := splitList(arg)
	if len(labels) == 0 {
		logging.Warn("cref with no labels left unchanged", "arg", arg)
		return fmt.Sprintf(`\cref{%s}`, arg)
	}

	if len(labels) == 1 {
		label := labels[0]
		if text, ok := e.lookupCref(label); ok {
			return hyperref(label, text)
		}
		return fmt.Sprintf(`\cref{%s}`, label)
	}

	expanded := make([]string, len(labels))
	for i, label := range labels {
		if text, ok := e.lookupCref(label); ok {
			expanded[i] = hyperref(label, text)
		} else {
			expanded[i] = fmt.Sprintf("[REF:%s]", label)
		}
	}
	if len(expanded) == 2 {
		return expanded[0] + " and " + expanded[1]
	}
	return strings.Join(expanded[:len(expanded)-1], ", ") + ", and " + expanded[len(expanded)-1]
}

func (e *Expander) expandCombinedRef(label string) string {
	info, ok := e.Aux.Labels[label]
	if !ok {
		return fmt.Sprintf(`\combinedref{%s}`, label)
	}
	return hyperref(label, fmt.Sprintf("%s (%s)", info.Number, info.Title))
}

func (e *Expander) expandCombinedCref(label string) string {
	info, hasLabel := e.Aux.Labels[label]
	if !hasLabel || info.Title == "" {
		return fmt.Sprintf(`\combinedcref{%s}`, label)
	}
	text, ok := e.Aux.CrefLabels[label]
	if !ok {
		text = info.Number
	}
	return hyperref(label, fmt.Sprintf("%s (%s)", text, info.Title))
}

func (e *Expander) expandProseCite(key string) string {
	entry, ok := e.Bbl.Entries[key]
	if !ok {
		return fmt.Sprintf("[UNKNOWN: %s]", key)
	}
	return fmt.Sprintf(`%s by %s \cite{%s}`, entry.Title, entry.Authors, key)
}

// expandTextCite converts a single-key \textcite to "LastName \cite{key}",
// and a multi-key one to \parencite for correct parenthetical punctuation.
func (e *Expander) expandTextCite(arg string) string {
	keys := splitList(arg)
	if len(keys) == 0 {
		logging.Warn("textcite with no keys left unchanged", "arg", arg)
		return fmt.Sprintf(`\textcite{%s}`, arg)
	}
	if len(keys) > 1 {
		return fmt.Sprintf(`\parencite{%s}`, strings.Join(keys, ","))
	}

	key := keys[0]
	entry, ok := e.Bbl.Entries[key]
	if !ok || entry.FirstFamily == "" {
		return fmt.Sprintf(`\cite{%s}`, key)
	}
	return fmt.Sprintf(`%s \cite{%s}`, entry.FirstFamily, key)
}

func (e *Expander) lookupCref(label string) (string, bool) {
	if text, ok := e.Aux.CrefLabels[label]; ok {
		return text, true
	}
	if info, ok := e.Aux.Labels[label]; ok {
		return info.Number, true
	}
	return "", false
}

func hyperref(label, text string) string {
	return fmt.Sprintf(`\hyperref[%s]{%s}`, label, text)
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
