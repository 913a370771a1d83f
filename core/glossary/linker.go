// Package glossary implements the first-occurrence glossary auto-linker.
//
// The linker scans a manuscript section by section and rewrites, for each
// glossary term, at most one mention per section into \glsdisp{id}{word}
// markup. Mentions inside headings and skip-tag arguments are never
// rewritten, a term is never linked inside its own defining section, and
// exempt sections are left untouched entirely.
package glossary

import (
	"fmt"
	"sort"
	"strings"

	"github.com/openmdma/folio/core/latex"
)

// Options controls linker behavior. Zero values for the slice fields mean
// "no exclusions of that kind"; callers normally populate them from the
// project configuration.
type Options struct {
	// SkipTags are markup commands whose argument text is off-limits.
	SkipTags []string

	// HeadingCommands are sectioning commands treated as headings.
	HeadingCommands []string

	// ExemptSections are title fragments of sections that must not be
	// rewritten at all.
	ExemptSections []string
}

// Substitution records one applied replacement for the audit trail.
type Substitution struct {
	TermID  string
	Section string
	// Offset is the byte offset of the replaced word in the input document.
	Offset  int
	Matched string
}

// Stats summarizes one linker run.
type Stats struct {
	TotalSections    int
	SkippedExempt    int
	TermChecks       int
	SkippedDefinedIn int
	SkippedInTag     int
	SkippedHeading   int
	StemsSearched    int
	Replaced         int
}

// Result is the outcome of a linker run.
type Result struct {
	// Output is the transformed document.
	Output string

	// Substitutions lists every replacement, in document order.
	Substitutions []Substitution

	// UnmatchedTerms are terms with stems that matched nowhere in the
	// document. Likely stale or misspelled stems; not an error.
	UnmatchedTerms []string

	Stats Stats

	// DebugLog holds one line per decision for manual audit.
	DebugLog []string
}

// candidate is a potential replacement site for one term.
type candidate struct {
	start   int // absolute offset of the expanded word
	end     int
	stemLen int
	word    string
}

// Link runs the glossary linker over content.
func Link(content string, terms []Term, opts Options) *Result {
	res := &Result{}

	headings := latex.FindHeadings(content, opts.HeadingCommands)
	skipSpans := latex.FindSkipSpans(content, opts.SkipTags)
	skipSpans = append(skipSpans, latex.FindLinkedSpans(content)...)
	sections := latex.SplitSections(content)

	matchedAnywhere := make(map[string]bool)
	var applied []Substitution

	for _, section := range sections {
		res.Stats.TotalSections++

		if isExempt(section.Title, opts.ExemptSections) {
			res.Stats.SkippedExempt++
			res.debugf("skipping exempt section: %s", section.Title)
			continue
		}

		body := section.Body(content)
		res.debugf("processing section %q (%d chars)", section.Title, len(body))

		// Collect every term's ordered candidate list for this section.
		perTerm := make(map[string][]candidate)
		var termOrder []string
		for _, term := range terms {
			res.Stats.TermChecks++

			if term.DefinedIn != "" && term.DefinedIn == section.CleanTitle {
				res.Stats.SkippedDefinedIn++
				res.debugf("  skipping %q: defined in this section", term.ID)
				continue
			}
			if len(term.Stems) == 0 {
				continue
			}

			cands, sawMatch := res.findCandidates(body, section, term, content, headings, skipSpans)
			if sawMatch {
				// Raw match anywhere, even in an excluded zone, means the
				// stem is not stale.
				matchedAnywhere[term.ID] = true
			}
			if len(cands) > 0 {
				perTerm[term.ID] = cands
				termOrder = append(termOrder, term.ID)
			}
		}

		// Greedy assignment: repeatedly take the leftmost pending candidate
		// over all unreplaced terms. At equal starts the longer stem wins.
		// Spans consumed by a replacement are never matched again.
		var consumed []latex.Span
		replaced := make(map[string]bool)
		for {
			best := ""
			for _, id := range termOrder {
				if replaced[id] || len(perTerm[id]) == 0 {
					continue
				}
				if best == "" || less(perTerm[id][0], perTerm[best][0], id, best) {
					best = id
				}
			}
			if best == "" {
				break
			}
			head := perTerm[best][0]
			if overlapsAny(head, consumed) {
				perTerm[best] = perTerm[best][1:]
				continue
			}
			consumed = append(consumed, latex.Span{Start: head.start, End: head.end})
			replaced[best] = true
			applied = append(applied, Substitution{
				TermID:  best,
				Section: section.Title,
				Offset:  head.start,
				Matched: head.word,
			})
			res.Stats.Replaced++
			res.debugf("  replacing %q at %d with \\glsdisp{%s}{%s}", head.word, head.start, best, head.word)
		}
	}

	for _, term := range terms {
		if len(term.Stems) > 0 && !matchedAnywhere[term.ID] {
			res.UnmatchedTerms = append(res.UnmatchedTerms, term.ID)
		}
	}

	res.Substitutions = applied
	res.Output = applyReplacements(content, applied)
	return res
}

// findCandidates returns a term's valid replacement sites in one section,
// ordered by start offset (longer stems first at equal starts).
func (r *Result) findCandidates(body string, section latex.Section, term Term, content string, headings, skipSpans []latex.Span) ([]candidate, bool) {
	lowerBody := strings.ToLower(body)

	var cands []candidate
	sawMatch := false
	for _, stem := range term.Stems {
		r.Stats.StemsSearched++
		lowerStem := strings.ToLower(stem)

		for from := 0; ; {
			idx := strings.Index(lowerBody[from:], lowerStem)
			if idx < 0 {
				break
			}
			matchStart := from + idx
			from = matchStart + 1
			sawMatch = true

			wordStart, wordEnd := latex.ExpandWord(body, matchStart, matchStart+len(stem))
			absStart := section.Start + wordStart
			absEnd := section.Start + wordEnd

			if latex.InAny(absStart, headings) {
				r.Stats.SkippedHeading++
				r.debugf("  stem %q at %d: inside heading", stem, absStart)
				continue
			}
			if latex.InAny(absStart, skipSpans) {
				r.Stats.SkippedInTag++
				r.debugf("  stem %q at %d: inside skip tag", stem, absStart)
				continue
			}

			cands = append(cands, candidate{
				start:   absStart,
				end:     absEnd,
				stemLen: len(stem),
				word:    content[absStart:absEnd],
			})
		}
	}

	sort.Slice(cands, func(i, j int) bool {
		if cands[i].start != cands[j].start {
			return cands[i].start < cands[j].start
		}
		return cands[i].stemLen > cands[j].stemLen
	})
	return cands, sawMatch
}

// less orders two head candidates: leftmost first, longer stem at ties,
// then term ID for determinism.
func less(a, b candidate, aID, bID string) bool {
	if a.start != b.start {
		return a.start < b.start
	}
	if a.stemLen != b.stemLen {
		return a.stemLen > b.stemLen
	}
	return aID < bID
}

func overlapsAny(c candidate, spans []latex.Span) bool {
	for _, s := range spans {
		if c.start < s.End && s.Start < c.end {
			return true
		}
	}
	return false
}

// applyReplacements rewrites content with \glsdisp markup, applying in
// reverse document order so earlier offsets stay valid.
func applyReplacements(content string, subs []Substitution) string {
	ordered := make([]Substitution, len(subs))
	copy(ordered, subs)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Offset > ordered[j].Offset })

	out := content
	for _, sub := range ordered {
		end := sub.Offset + len(sub.Matched)
		markup := fmt.Sprintf(`\glsdisp{%s}{%s}`, sub.TermID, sub.Matched)
		out = out[:sub.Offset] + markup + out[end:]
	}
	return out
}

func isExempt(title string, fragments []string) bool {
	for _, f := range fragments {
		if f != "" && strings.Contains(title, f) {
			return true
		}
	}
	return false
}

func (r *Result) debugf(format string, args ...any) {
	r.DebugLog = append(r.DebugLog, fmt.Sprintf(format, args...))
}
