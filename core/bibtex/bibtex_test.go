package bibtex

import (
	"testing"
)

const sampleBib = `% manuscript bibliography

@article{mithoefer2018,
  title = {MDMA-assisted psychotherapy for {PTSD}},
  author = {Mithoefer, Michael C. and Feduccia, Allison A.},
  journal = {Psychopharmacology},
  year = {2018},
  volume = {236},
  doi = {10.1007/s00213-019-05249-5},
}

@book{stolaroff2004,
  title = "The Secret Chief Revisited",
  author = {Stolaroff, Myron},
  year = 2004
}

@misc{mapsProtocol,
  title = {A Manual for {MDMA}-Assisted Psychotherapy},
  url = {https://maps.org/treatment-manual},
}
`

func TestParse(t *testing.T) {
	entries := Parse(sampleBib)
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	art := entries[0]
	if art.Type != "article" || art.Key != "mithoefer2018" {
		t.Errorf("unexpected first entry: %s %s", art.Type, art.Key)
	}
	// Nested braces stay inside the value.
	if art.Field("title") != "MDMA-assisted psychotherapy for {PTSD}" {
		t.Errorf("title mis-parsed: %q", art.Field("title"))
	}
	if art.Field("doi") != "10.1007/s00213-019-05249-5" {
		t.Errorf("doi mis-parsed: %q", art.Field("doi"))
	}

	book := entries[1]
	if book.Field("title") != "The Secret Chief Revisited" {
		t.Errorf("quoted value mis-parsed: %q", book.Field("title"))
	}
	if book.Field("year") != "2004" {
		t.Errorf("bare value mis-parsed: %q", book.Field("year"))
	}
}

func TestParseSkipsMalformedEntry(t *testing.T) {
	content := `@article{broken, title = {never closed
@article{fine, title = {ok}}
`
	entries := Parse(content)
	// The first entry swallows everything up to the last balanced brace;
	// with no balance at all it is dropped, and entries found after its
	// start are still attempted.
	for _, e := range entries {
		if e.Key == "broken" {
			t.Error("unbalanced entry should have been skipped")
		}
	}
}

func TestDOIMap(t *testing.T) {
	entries := Parse(sampleBib)
	dois := DOIMap(entries)
	if len(dois) != 1 {
		t.Fatalf("expected 1 DOI, got %d", len(dois))
	}
	if dois["mithoefer2018"] == "" {
		t.Error("missing DOI for mithoefer2018")
	}
}

func TestKeys(t *testing.T) {
	entries := Parse(sampleBib)
	keys := Keys(entries)
	want := []string{"mithoefer2018", "stolaroff2004", "mapsProtocol"}
	for i, k := range want {
		if keys[i] != k {
			t.Errorf("key %d: got %s, want %s", i, keys[i], k)
		}
	}
}

func TestParseAuthors(t *testing.T) {
	cases := []struct {
		field string
		want  []Author
	}{
		{"Mithoefer, Michael C. and Feduccia, Allison A.", []Author{
			{Last: "Mithoefer", First: "Michael C."},
			{Last: "Feduccia", First: "Allison A."},
		}},
		{"Myron Stolaroff", []Author{{Last: "Stolaroff", First: "Myron"}}},
		{"{Psychedelics in Recovery}", []Author{{Last: "Psychedelics in Recovery"}}},
		{"Shulgin", []Author{{Last: "Shulgin"}}},
		{"", nil},
	}
	for _, c := range cases {
		got := ParseAuthors(c.field)
		if len(got) != len(c.want) {
			t.Errorf("ParseAuthors(%q): got %d authors, want %d", c.field, len(got), len(c.want))
			continue
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Errorf("ParseAuthors(%q)[%d] = %+v, want %+v", c.field, i, got[i], c.want[i])
			}
		}
	}
}

func TestFormatAuthorList(t *testing.T) {
	one := []Author{{Last: "Smith"}}
	two := []Author{{Last: "Smith"}, {Last: "Jones"}}
	three := []Author{{Last: "Smith"}, {Last: "Jones"}, {Last: "Lee"}}

	if got := FormatAuthorList(one); got != "Smith" {
		t.Errorf("one author: %q", got)
	}
	if got := FormatAuthorList(two); got != "Smith and Jones" {
		t.Errorf("two authors: %q", got)
	}
	if got := FormatAuthorList(three); got != "Smith et al." {
		t.Errorf("three authors: %q", got)
	}
}
