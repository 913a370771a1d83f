package wiki

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/openmdma/folio/core/errors"
)

var (
	referencesBlockRe = regexp.MustCompile(`(?s)<references>.*</references>`)
	refDefExpr        = xpath.MustCompile("//references/ref")
)

// ValidateRefs checks the generated references section: the block must be
// well-formed XML, every definition needs a name, and names must be unique.
func ValidateRefs(content string) error {
	block := referencesBlockRe.FindString(content)
	if block == "" {
		return errors.NewValidation("references", "no <references> block found")
	}

	doc, err := xmlquery.Parse(strings.NewReader(block))
	if err != nil {
		return errors.NewParse("xml", "references block", err.Error())
	}

	seen := map[string]bool{}
	for _, ref := range xmlquery.QuerySelectorAll(doc, refDefExpr) {
		name := ref.SelectAttr("name")
		if name == "" {
			return errors.NewValidation("references", "ref definition without a name attribute")
		}
		if seen[name] {
			return errors.NewValidation("references", fmt.Sprintf("duplicate ref name %q", name))
		}
		seen[name] = true
		if strings.TrimSpace(ref.InnerText()) == "" {
			return errors.NewValidation("references", fmt.Sprintf("ref %q has an empty body", name))
		}
	}
	if len(seen) == 0 {
		return errors.NewValidation("references", "references block defines no refs")
	}

	// Every inline use must resolve to a definition in the block.
	for _, m := range inlineRefRe.FindAllStringSubmatch(content, -1) {
		if !seen[m[1]] {
			return errors.NewValidation("references", fmt.Sprintf("ref %q used but never defined", m[1]))
		}
	}
	return nil
}

var inlineRefRe = regexp.MustCompile(`<ref name="([^"]+)" />`)
