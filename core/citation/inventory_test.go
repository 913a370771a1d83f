package citation

import (
	"slices"
	"strings"
	"testing"
)

func TestBuildInventoryStatus(t *testing.T) {
	groups := []Group{
		{Keys: []string{"a", "b"}, Lines: []int{10, 20}},
		{Keys: []string{"c"}, Lines: []int{30}},
	}
	meta := map[string]KeyMeta{
		"a": {DOI: "10.1000/a", File: "papers/a.pdf"},
		"b": {File: "papers/b.pdf"},
		// c has no file.
	}
	entries := BuildInventory(groups, meta)
	if entries[0].Status != StatusReady {
		t.Errorf("group with all files should be READY, got %s", entries[0].Status)
	}
	if entries[1].Status != StatusMissingFile {
		t.Errorf("group missing a file should be MISSING_FILE, got %s", entries[1].Status)
	}
	if !slices.Equal(entries[0].Files, []string{"papers/a.pdf", "papers/b.pdf"}) {
		t.Errorf("unexpected files: %v", entries[0].Files)
	}
}

func TestInventoryRoundTrip(t *testing.T) {
	entries := []InventoryEntry{
		{
			Status: StatusReady,
			Keys:   []string{"mithoefer2018", "ot2014"},
			DOIs:   []string{"10.1007/s00213-019-05249-5"},
			Files:  []string{"papers/mithoefer2018.pdf", "papers/ot2014.pdf"},
			Lines:  []int{42, 97, 103},
		},
		{
			Status: StatusMissingFile,
			Keys:   []string{"greyLit"},
			Lines:  []int{7},
		},
	}

	formatted := FormatInventory(entries)
	parsed := ParseInventory(formatted)

	if len(parsed) != len(entries) {
		t.Fatalf("round trip lost entries: %d != %d", len(parsed), len(entries))
	}
	got := parsed[0]
	if got.Status != StatusReady {
		t.Errorf("status lost: %s", got.Status)
	}
	if !slices.Equal(got.Keys, entries[0].Keys) {
		t.Errorf("keys lost: %v", got.Keys)
	}
	if !slices.Equal(got.DOIs, entries[0].DOIs) {
		t.Errorf("dois lost: %v", got.DOIs)
	}
	if !slices.Equal(got.Lines, entries[0].Lines) {
		t.Errorf("lines lost: %v", got.Lines)
	}
	if parsed[1].Status != StatusMissingFile || len(parsed[1].Files) != 0 {
		t.Errorf("empty lists mishandled: %+v", parsed[1])
	}
}

func TestParseInventorySkipsProse(t *testing.T) {
	content := `# Citation inventory

READY (k1), (10.1/x), (f.pdf) - 5
Some explanatory prose that is not an entry.
`
	entries := ParseInventory(content)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if !slices.Equal(entries[0].Keys, []string{"k1"}) {
		t.Errorf("unexpected keys: %v", entries[0].Keys)
	}
}

func TestFormatInventoryShape(t *testing.T) {
	entries := []InventoryEntry{{
		Status: StatusReady,
		Keys:   []string{"a"},
		DOIs:   []string{"10.1/x"},
		Files:  []string{"a.pdf"},
		Lines:  []int{1, 2},
	}}
	got := strings.TrimSpace(FormatInventory(entries))
	want := "READY (a), (10.1/x), (a.pdf) - 1,2"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
