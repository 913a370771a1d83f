package latex

import (
	"strings"
	"testing"
)

func TestSplitSections(t *testing.T) {
	content := `\documentclass{article}
\section{Intro}
Opening text.
\section{**Methods}
Body text here.
`
	sections := SplitSections(content)
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(sections))
	}
	if sections[0].Title != "Intro" {
		t.Errorf("unexpected first title: %s", sections[0].Title)
	}
	if sections[1].CleanTitle != "Methods" {
		t.Errorf("stars not stripped from clean title: %q", sections[1].CleanTitle)
	}
	if !strings.Contains(sections[0].Body(content), "Opening text.") {
		t.Errorf("first body wrong: %q", sections[0].Body(content))
	}
	if strings.Contains(sections[0].Body(content), "Body text") {
		t.Error("first section body bleeds into second section")
	}
	if sections[1].End != len(content) {
		t.Errorf("last section should run to end of document, got %d", sections[1].End)
	}
}

func TestSplitSectionsPreamble(t *testing.T) {
	content := `Preamble only, no sections.`
	if got := SplitSections(content); len(got) != 0 {
		t.Errorf("expected no sections, got %d", len(got))
	}
}

func TestFindHeadings(t *testing.T) {
	content := `\section{One} text \subsection*{Two} more \paragraph{skip}`
	spans := FindHeadings(content, []string{"section", "subsection"})
	if len(spans) != 2 {
		t.Fatalf("expected 2 heading spans, got %d", len(spans))
	}
	if content[spans[0].Start:spans[0].End] != `\section{One}` {
		t.Errorf("unexpected first span: %q", content[spans[0].Start:spans[0].End])
	}
	// Starred variant must match too.
	if content[spans[1].Start:spans[1].End] != `\subsection*{Two}` {
		t.Errorf("starred heading not matched: %q", content[spans[1].Start:spans[1].End])
	}
}

func TestFindHeadingsEscapesMetacharacters(t *testing.T) {
	// Commands come from user config and must not be treated as patterns.
	content := `\part+{One} \section{Two}`
	spans := FindHeadings(content, []string{"part+", "section"})
	if len(spans) != 2 {
		t.Fatalf("expected 2 heading spans, got %d", len(spans))
	}
	if content[spans[0].Start:spans[0].End] != `\part+{One}` {
		t.Errorf("unexpected first span: %q", content[spans[0].Start:spans[0].End])
	}
}

func TestFindSkipSpans(t *testing.T) {
	content := `See \cite{smith2020} and \nameref*{sec:intro} plus plain text.`
	spans := FindSkipSpans(content, []string{"cite", "nameref*"})
	if len(spans) != 2 {
		t.Fatalf("expected 2 skip spans, got %d", len(spans))
	}
	if content[spans[1].Start:spans[1].End] != `\nameref*{sec:intro}` {
		t.Errorf("starred tag not escaped properly: %q", content[spans[1].Start:spans[1].End])
	}
}

func TestFindLinkedSpans(t *testing.T) {
	content := `Text \glsdisp{schema}{schemas} and more \glsdisp{set}{mindset}.`
	spans := FindLinkedSpans(content)
	if len(spans) != 2 {
		t.Fatalf("expected 2 linked spans, got %d", len(spans))
	}
	// Both argument groups are inside the span.
	if !spans[0].Contains(strings.Index(content, "schemas")) {
		t.Error("display argument should be inside the linked span")
	}
}

func TestInAny(t *testing.T) {
	spans := []Span{{Start: 5, End: 10}, {Start: 20, End: 25}}
	cases := []struct {
		pos  int
		want bool
	}{
		{4, false}, {5, true}, {9, true}, {10, false}, {22, true}, {30, false},
	}
	for _, c := range cases {
		if got := InAny(c.pos, spans); got != c.want {
			t.Errorf("InAny(%d) = %v, want %v", c.pos, got, c.want)
		}
	}
}

func TestExpandWord(t *testing.T) {
	text := "the ego-dissolution effect"
	// "dissolution" starts at 8, ends at 19.
	start, end := ExpandWord(text, 8, 19)
	if text[start:end] != "ego-dissolution" {
		t.Errorf("expected hyphenated word, got %q", text[start:end])
	}

	// A fragment in the middle of a word expands both ways.
	start, end = ExpandWord("dissociative", 3, 6)
	if start != 0 || end != len("dissociative") {
		t.Errorf("expected full word, got [%d,%d)", start, end)
	}
}
