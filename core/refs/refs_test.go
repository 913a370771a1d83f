package refs

import (
	"strings"
	"testing"
)

const sampleAux = `\relax
\newlabel{essentials}{{2.1}{5}{Essentials}{section.2.1}{}}
\newlabel{essentials@cref}{{[section][1][2]2.1}{[1][5][]5}}
\newlabel{internalizedReports@cref}{{[appendix][1][]A}{[1][88][]88}}
\newlabel{riskTable}{{3}{12}{Risk overview}{table.3}{}}
`

const sampleBbl = `\entry{mithoefer2018}{article}{}{}
  \name{author}{2}{}{%
    {{un=0,uniquepart=base,hash=aa}{%
       family={Mithoefer},
       familyi={M\bibinitperiod},
       given={Michael\bibnamedelima C.},
       giveni={M\bibinitperiod}}}%
    {{un=0,uniquepart=base,hash=bb}{%
       family={Feduccia},
       given={Allison\bibnamedelima A.}}}%
  }
  \strng{namehash}{xx}
  \field{title}{MDMA-assisted psychotherapy for severe {PTSD}}
  \field{year}{2018}
\entry{pir2021}{misc}{}{}
  \name{author}{1}{}{%
    {{hash=cc}{%
       family={{Psychedelics in Recovery}}}}%
  }
  \strng{namehash}{yy}
  \field{title}{Fellowship literature}
\enddatalist
`

func TestParseAux(t *testing.T) {
	data := ParseAux(sampleAux)

	if len(data.Labels) != 2 {
		t.Fatalf("expected 2 labels, got %d", len(data.Labels))
	}
	ess := data.Labels["essentials"]
	if ess.Number != "2.1" || ess.Page != "5" || ess.Title != "Essentials" {
		t.Errorf("unexpected label: %+v", ess)
	}

	if got := data.CrefLabels["essentials"]; got != "Section 2.1" {
		t.Errorf("cref label: got %q, want %q", got, "Section 2.1")
	}
	if got := data.CrefLabels["internalizedReports"]; got != "Appendix A" {
		t.Errorf("appendix cref label: got %q, want %q", got, "Appendix A")
	}
}

func TestParseBbl(t *testing.T) {
	data := ParseBbl(sampleBbl)

	if len(data.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(data.Entries))
	}

	m := data.Entries["mithoefer2018"]
	if m.Title != "MDMA-assisted psychotherapy for severe PTSD" {
		t.Errorf("title not cleaned: %q", m.Title)
	}
	if m.FirstFamily != "Mithoefer" {
		t.Errorf("first family: %q", m.FirstFamily)
	}
	if !strings.Contains(m.Authors, "Mithoefer") || !strings.Contains(m.Authors, "and") {
		t.Errorf("two-author formatting wrong: %q", m.Authors)
	}
	if m.Number != 1 {
		t.Errorf("entry number: %d", m.Number)
	}

	// Institutional author with extra braces.
	pir := data.Entries["pir2021"]
	if pir.FirstFamily != "Psychedelics in Recovery" {
		t.Errorf("institutional author mis-parsed: %q", pir.FirstFamily)
	}
}

func newTestExpander(t *testing.T) *Expander {
	t.Helper()
	return &Expander{Aux: ParseAux(sampleAux), Bbl: ParseBbl(sampleBbl)}
}

func TestExpandCref(t *testing.T) {
	e := newTestExpander(t)

	out, counts := e.Expand(`See \cref{essentials} for details.`)
	if counts.Cref != 1 {
		t.Errorf("cref count: %d", counts.Cref)
	}
	if !strings.Contains(out, `\hyperref[essentials]{Section 2.1}`) {
		t.Errorf("single cref not expanded: %s", out)
	}

	out, _ = e.Expand(`Compare \cref{essentials,riskTable}.`)
	if !strings.Contains(out, `\hyperref[essentials]{Section 2.1} and \hyperref[riskTable]{3}`) {
		t.Errorf("multi cref not joined with and: %s", out)
	}

	// Unknown labels stay as-is for single references.
	out, _ = e.Expand(`\cref{missing}`)
	if out != `\cref{missing}` {
		t.Errorf("unknown single cref should stay put: %s", out)
	}
}

func TestExpandCombinedRef(t *testing.T) {
	e := newTestExpander(t)
	out, counts := e.Expand(`\combinedref{riskTable}`)
	if counts.CombinedRef != 1 {
		t.Errorf("count: %d", counts.CombinedRef)
	}
	if out != `\hyperref[riskTable]{3 (Risk overview)}` {
		t.Errorf("combinedref expansion: %s", out)
	}
}

func TestExpandCombinedCref(t *testing.T) {
	e := newTestExpander(t)
	out, _ := e.Expand(`\combinedcref{essentials}`)
	if out != `\hyperref[essentials]{Section 2.1 (Essentials)}` {
		t.Errorf("combinedcref expansion: %s", out)
	}
}

func TestExpandProseCite(t *testing.T) {
	e := newTestExpander(t)

	out, _ := e.Expand(`\prosecite{mithoefer2018}`)
	want := `MDMA-assisted psychotherapy for severe PTSD by Michael C. Mithoefer and Allison A. Feduccia \cite{mithoefer2018}`
	if out != want {
		t.Errorf("prosecite expansion:\n got %s\nwant %s", out, want)
	}

	out, _ = e.Expand(`\prosecite{ghost}`)
	if out != "[UNKNOWN: ghost]" {
		t.Errorf("unknown prosecite: %s", out)
	}
}

func TestExpandTextCite(t *testing.T) {
	e := newTestExpander(t)

	out, counts := e.Expand(`\textcite{mithoefer2018} showed benefits.`)
	if counts.TextCite != 1 {
		t.Errorf("count: %d", counts.TextCite)
	}
	if !strings.HasPrefix(out, `Mithoefer \cite{mithoefer2018}`) {
		t.Errorf("single textcite: %s", out)
	}

	out, _ = e.Expand(`\textcite{a,b}`)
	if out != `\parencite{a,b}` {
		t.Errorf("multi textcite should become parencite: %s", out)
	}
}

func TestExpandDegenerateArgumentsLeftInPlace(t *testing.T) {
	e := newTestExpander(t)

	// A stray comma or whitespace-only argument must not abort the run.
	out, _ := e.Expand(`see \cref{ , } here`)
	if out != `see \cref{ , } here` {
		t.Errorf("empty cref should stay put: %s", out)
	}

	out, _ = e.Expand(`per \textcite{ } findings`)
	if out != `per \textcite{ } findings` {
		t.Errorf("empty textcite should stay put: %s", out)
	}
}

func TestExpandStripsNonBreakingSpaceBeforeCites(t *testing.T) {
	e := newTestExpander(t)
	out, _ := e.Expand(`claim~\cite{k} and more~\parencite{k}`)
	if strings.Contains(out, "~") {
		t.Errorf("non-breaking spaces should be replaced: %s", out)
	}
	if !strings.Contains(out, ` \cite{k}`) || !strings.Contains(out, ` \parencite{k}`) {
		t.Errorf("citations damaged: %s", out)
	}
}

func TestParseAuxFileMissing(t *testing.T) {
	data, err := ParseAuxFile("/nonexistent/paper.aux")
	if err != nil {
		t.Fatalf("missing aux should not error: %v", err)
	}
	if len(data.Labels) != 0 {
		t.Errorf("expected empty labels, got %d", len(data.Labels))
	}
}
