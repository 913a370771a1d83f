package bibtex

import (
	"slices"
	"sort"
)

// Diff describes how one bibliography differs from another. It backs the
// "bib check" workflow: after a tool annotates references.bib with file
// paths, the annotated copy must be identical to the original except for
// the added fields.
type Diff struct {
	// OnlyInOld and OnlyInNew list citation keys present in one file only.
	OnlyInOld []string
	OnlyInNew []string

	// FieldsAdded maps keys to field names present only in the new entry.
	FieldsAdded map[string][]string

	// FieldsRemoved maps keys to field names missing from the new entry.
	FieldsRemoved map[string][]string

	// FieldsChanged maps keys to field names whose values differ.
	// Values are compared whitespace-normalized.
	FieldsChanged map[string][]string

	// TypeChanged lists keys whose entry type differs.
	TypeChanged []string
}

// Compare diffs two bibliographies.
func Compare(oldEntries, newEntries []Entry) *Diff {
	d := &Diff{
		FieldsAdded:   make(map[string][]string),
		FieldsRemoved: make(map[string][]string),
		FieldsChanged: make(map[string][]string),
	}

	oldByKey := ByKey(oldEntries)
	newByKey := ByKey(newEntries)

	for _, e := range oldEntries {
		if _, ok := newByKey[e.Key]; !ok {
			d.OnlyInOld = append(d.OnlyInOld, e.Key)
		}
	}
	for _, e := range newEntries {
		if _, ok := oldByKey[e.Key]; !ok {
			d.OnlyInNew = append(d.OnlyInNew, e.Key)
		}
	}

	for _, oldEntry := range oldEntries {
		newEntry, ok := newByKey[oldEntry.Key]
		if !ok {
			continue
		}
		if oldEntry.Type != newEntry.Type {
			d.TypeChanged = append(d.TypeChanged, oldEntry.Key)
		}
		for name, oldVal := range oldEntry.Fields {
			newVal, present := newEntry.Fields[name]
			switch {
			case !present:
				d.FieldsRemoved[oldEntry.Key] = append(d.FieldsRemoved[oldEntry.Key], name)
			case oldVal != newVal:
				d.FieldsChanged[oldEntry.Key] = append(d.FieldsChanged[oldEntry.Key], name)
			}
		}
		for name := range newEntry.Fields {
			if _, present := oldEntry.Fields[name]; !present {
				d.FieldsAdded[oldEntry.Key] = append(d.FieldsAdded[oldEntry.Key], name)
			}
		}
	}

	sort.Strings(d.OnlyInOld)
	sort.Strings(d.OnlyInNew)
	sort.Strings(d.TypeChanged)
	for _, m := range []map[string][]string{d.FieldsAdded, d.FieldsRemoved, d.FieldsChanged} {
		for k := range m {
			sort.Strings(m[k])
		}
	}
	return d
}

// IdenticalExcept reports whether the two bibliographies are identical
// apart from fields in allowedAdded being added to new entries.
func (d *Diff) IdenticalExcept(allowedAdded ...string) bool {
	if len(d.OnlyInOld) > 0 || len(d.OnlyInNew) > 0 || len(d.TypeChanged) > 0 {
		return false
	}
	if len(d.FieldsRemoved) > 0 || len(d.FieldsChanged) > 0 {
		return false
	}
	for _, added := range d.FieldsAdded {
		for _, name := range added {
			if !slices.Contains(allowedAdded, name) {
				return false
			}
		}
	}
	return true
}
