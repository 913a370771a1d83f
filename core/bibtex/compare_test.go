package bibtex

import (
	"testing"
)

const oldBib = `@article{a1, title = {One}, year = {2001}}
@article{a2, title = {Two}, year = {2002}}
`

func TestCompareIdenticalExceptAddedFile(t *testing.T) {
	newBib := `@article{a1, title = {One}, year = {2001}, file = {papers/one.pdf}}
@article{a2, title = {Two}, year = {2002}}
`
	d := Compare(Parse(oldBib), Parse(newBib))

	if !d.IdenticalExcept("file") {
		t.Errorf("expected identical except file field: %+v", d)
	}
	if d.IdenticalExcept() {
		t.Error("without the allowance the added field should fail the check")
	}
	if got := d.FieldsAdded["a1"]; len(got) != 1 || got[0] != "file" {
		t.Errorf("expected file added on a1, got %v", got)
	}
}

func TestCompareDetectsChangesAndRemovals(t *testing.T) {
	newBib := `@article{a1, title = {One edited}}
@book{a3, title = {Three}}
`
	d := Compare(Parse(oldBib), Parse(newBib))

	if len(d.OnlyInOld) != 1 || d.OnlyInOld[0] != "a2" {
		t.Errorf("expected a2 only in old, got %v", d.OnlyInOld)
	}
	if len(d.OnlyInNew) != 1 || d.OnlyInNew[0] != "a3" {
		t.Errorf("expected a3 only in new, got %v", d.OnlyInNew)
	}
	if got := d.FieldsChanged["a1"]; len(got) != 1 || got[0] != "title" {
		t.Errorf("expected title changed on a1, got %v", got)
	}
	if got := d.FieldsRemoved["a1"]; len(got) != 1 || got[0] != "year" {
		t.Errorf("expected year removed on a1, got %v", got)
	}
	if d.IdenticalExcept("file") {
		t.Error("changed bibliographies must not pass the check")
	}
}

func TestCompareWhitespaceInsensitive(t *testing.T) {
	a := Parse(`@article{k, title = {Spaced   Out
Title}}`)
	b := Parse(`@article{k, title = {Spaced Out Title}}`)
	d := Compare(a, b)
	if !d.IdenticalExcept() {
		t.Errorf("whitespace differences should not count: %+v", d)
	}
}

func TestCompareTypeChanged(t *testing.T) {
	a := Parse(`@article{k, title = {T}}`)
	b := Parse(`@book{k, title = {T}}`)
	d := Compare(a, b)
	if len(d.TypeChanged) != 1 || d.TypeChanged[0] != "k" {
		t.Errorf("expected type change on k, got %v", d.TypeChanged)
	}
}
