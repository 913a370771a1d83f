package citation

import (
	"strings"

	folioerrors "github.com/openmdma/folio/core/errors"
)

// Attribution unit markers. A paragraph reviewed for citation attribution
// comes back with "->" and "<-" inserted around the run of sentences whose
// claims rest on one citation set.
const (
	unitOpen  = "->"
	unitClose = "<-"
)

// Unit is one attribution unit: a maximal run of consecutive sentences
// sharing a citation context.
type Unit struct {
	// Text is the unit's content with markers removed and space trimmed.
	Text string

	// Offset is the byte offset of the unit's text within the unmarked
	// paragraph.
	Offset int
}

// ParseUnits extracts attribution units from marked-up paragraph text.
// Markers must pair up in order and may not nest.
func ParseUnits(marked string) ([]Unit, error) {
	var units []Unit
	var plain strings.Builder

	inUnit := false
	unitStart := 0
	var unit strings.Builder

	for i := 0; i < len(marked); {
		switch {
		case strings.HasPrefix(marked[i:], unitOpen):
			if inUnit {
				return nil, folioerrors.NewParse("attribution units", "", "nested unit marker")
			}
			inUnit = true
			unitStart = plain.Len()
			unit.Reset()
			i += len(unitOpen)
		case strings.HasPrefix(marked[i:], unitClose):
			if !inUnit {
				return nil, folioerrors.NewParse("attribution units", "", "unit close without open")
			}
			inUnit = false
			text := strings.TrimSpace(unit.String())
			lead := len(unit.String()) - len(strings.TrimLeft(unit.String(), " \t\n"))
			units = append(units, Unit{Text: text, Offset: unitStart + lead})
			i += len(unitClose)
		default:
			plain.WriteByte(marked[i])
			if inUnit {
				unit.WriteByte(marked[i])
			}
			i++
		}
	}
	if inUnit {
		return nil, folioerrors.NewParse("attribution units", "", "unit never closed")
	}
	return units, nil
}

// StripMarkers removes all unit markers from marked text.
func StripMarkers(marked string) string {
	out := strings.ReplaceAll(marked, unitOpen, "")
	return strings.ReplaceAll(out, unitClose, "")
}

// MarkersOnlyAdded reports whether marked is exactly the original text plus
// markers, comparing whitespace-normalized. The review step is required to
// return the input verbatim with markers inserted; anything else means the
// marked text cannot be trusted for offsets.
func MarkersOnlyAdded(original, marked string) bool {
	return normalize(original) == normalize(StripMarkers(marked))
}

func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
