// Command folio maintains the Open MDMA manuscript: glossary linking,
// bibliography checks, citation inventories, reference expansion, and the
// wiki export pipeline.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/openmdma/folio/core/bibtex"
	"github.com/openmdma/folio/core/citation"
	"github.com/openmdma/folio/core/glossary"
	"github.com/openmdma/folio/core/refs"
	"github.com/openmdma/folio/core/sqlite"
	"github.com/openmdma/folio/core/wiki"
	"github.com/openmdma/folio/internal/archive"
	"github.com/openmdma/folio/internal/audit"
	"github.com/openmdma/folio/internal/config"
	"github.com/openmdma/folio/internal/logging"
)

const version = "0.2.0"

// CLI defines the command-line interface for folio.
var CLI struct {
	// Global flags
	Config    string `name:"config" short:"c" help:"Path to .folio.yaml" type:"path"`
	Verbose   bool   `name:"verbose" short:"v" help:"Enable debug logging"`
	LogFormat string `name:"log-format" help:"Log format: text or json" default:"text"`

	// Command groups (noun-first organization)
	Glossary GlossaryGroup `cmd:"" help:"Glossary link operations (link, count)"`
	Bib      BibGroup      `cmd:"" help:"Bibliography operations (check, keys)"`
	Cite     CiteGroup     `cmd:"" help:"Citation operations (inventory, units)"`
	Refs     RefsGroup     `cmd:"" help:"Cross-reference expansion"`
	Wiki     WikiGroup     `cmd:"" help:"Wiki export pipeline (prepare, refs)"`
	Runs     RunsGroup     `cmd:"" help:"Run history and log archives"`
	Init     InitCmd       `cmd:"" help:"Write a default .folio.yaml"`
	Version  VersionCmd    `cmd:"" help:"Print version information"`
}

// GlossaryGroup contains glossary operations.
type GlossaryGroup struct {
	Link  LinkCmd  `cmd:"" help:"Link first glossary term occurrences per section"`
	Count CountCmd `cmd:"" help:"Count glossary links per term"`
}

// BibGroup contains bibliography operations.
type BibGroup struct {
	Check BibCheckCmd `cmd:"" help:"Verify two bib files differ only by added fields"`
	Keys  BibKeysCmd  `cmd:"" help:"List citation keys (optionally with DOIs)"`
}

// CiteGroup contains citation inventory operations.
type CiteGroup struct {
	Inventory CiteInventoryCmd `cmd:"" help:"Extract citation groups into an inventory"`
	Units     CiteUnitsCmd     `cmd:"" help:"Parse attribution unit markers in marked text"`
}

// RefsGroup contains cross-reference operations.
type RefsGroup struct {
	Expand RefsExpandCmd `cmd:"" help:"Expand \\cref and friends to plain text"`
}

// WikiGroup contains wiki export operations.
type WikiGroup struct {
	Prepare WikiPrepareCmd `cmd:"" help:"Convert citations to pandoc-safe placeholders"`
	Refs    WikiRefsCmd    `cmd:"" help:"Rewrite placeholders into MediaWiki references"`
}

// RunsGroup contains run history operations.
type RunsGroup struct {
	List    RunsListCmd    `cmd:"" help:"List recorded linker runs"`
	Archive RunsArchiveCmd `cmd:"" help:"Archive old debug logs to tar.xz"`
}

// pick returns the first non-empty value.
func pick(flag, fromConfig string) string {
	if flag != "" {
		return flag
	}
	return fromConfig
}

// LinkCmd runs the glossary linker over the manuscript.
type LinkCmd struct {
	Paper    string `help:"Manuscript file (default from config)" type:"path"`
	Glossary string `help:"Glossary definitions file (default from config)" type:"path"`
	Output   string `help:"Output file (default from config)" type:"path"`
	DryRun   bool   `name:"dry-run" help:"Report substitutions without writing output"`
	NoAudit  bool   `name:"no-audit" help:"Skip recording the run in the audit database"`
}

func (c *LinkCmd) Run(cfg *config.Config) error {
	paperPath := pick(c.Paper, cfg.Paper)
	content, err := os.ReadFile(paperPath)
	if err != nil {
		return fmt.Errorf("read manuscript: %w", err)
	}

	terms, err := glossary.LoadTerms(pick(c.Glossary, cfg.Glossary))
	if err != nil {
		return err
	}
	logging.Info("loaded glossary terms", "count", len(terms))

	result := glossary.Link(string(content), terms, glossary.Options{
		SkipTags:        cfg.SkipTags,
		HeadingCommands: cfg.HeadingCommands,
		ExemptSections:  cfg.ExemptSections,
	})

	for _, id := range result.UnmatchedTerms {
		logging.Warn("term matched nowhere, stem may be stale", "term", id)
	}

	fmt.Printf("Sections scanned: %d\n", result.Stats.TotalSections)
	fmt.Printf("Replacements:     %d\n", result.Stats.Replaced)
	fmt.Printf("Unmatched terms:  %d\n", len(result.UnmatchedTerms))

	if c.DryRun {
		for _, sub := range result.Substitutions {
			fmt.Printf("  %s: %q in section %q (offset %d)\n", sub.TermID, sub.Matched, sub.Section, sub.Offset)
		}
		return nil
	}

	outPath := pick(c.Output, cfg.Output)
	if err := os.WriteFile(outPath, []byte(result.Output), 0644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Printf("Wrote %s\n", outPath)

	if cfg.DebugLog != "" && len(result.DebugLog) > 0 {
		log := strings.Join(result.DebugLog, "\n") + "\n"
		if err := os.WriteFile(cfg.DebugLog, []byte(log), 0644); err != nil {
			logging.Warn("could not write debug log", "path", cfg.DebugLog, "error", err)
		}
	}

	if !c.NoAudit && cfg.AuditDB != "" {
		// The audit trail is a side channel; failures never abort a run.
		store, err := audit.Open(cfg.AuditDB)
		if err != nil {
			logging.Warn("audit database unavailable", "path", cfg.AuditDB, "error", err)
			return nil
		}
		defer store.Close()
		id, err := store.RecordRun("glossary link", paperPath, content, result.Substitutions)
		if err != nil {
			logging.Warn("could not record run", "error", err)
			return nil
		}
		logging.Debug("recorded run", "id", id)
	}
	return nil
}

// CountCmd counts glossary link usage per term.
type CountCmd struct {
	Paper    string `help:"Manuscript file (default from config output)" type:"path"`
	Glossary string `help:"Glossary definitions file (default from config)" type:"path"`
	All      bool   `help:"Include terms with zero links"`
}

func (c *CountCmd) Run(cfg *config.Config) error {
	// Counts are usually wanted on the linked output, not the source.
	paperPath := pick(c.Paper, cfg.Output)
	content, err := os.ReadFile(paperPath)
	if err != nil {
		return fmt.Errorf("read manuscript: %w", err)
	}
	terms, err := glossary.LoadTerms(pick(c.Glossary, cfg.Glossary))
	if err != nil {
		return err
	}

	counts := glossary.CountUsage(string(content), terms)
	total := 0
	for _, uc := range counts {
		if uc.Count == 0 && !c.All {
			continue
		}
		fmt.Printf("%5d  %s\n", uc.Count, uc.TermID)
		total += uc.Count
	}
	fmt.Printf("Total links: %d\n", total)
	return nil
}

// BibCheckCmd verifies an annotated bibliography against the original.
type BibCheckCmd struct {
	Old   string   `arg:"" help:"Original bib file" type:"existingfile"`
	New   string   `arg:"" help:"Annotated bib file" type:"existingfile"`
	Allow []string `help:"Field names the new file may add" default:"file"`
}

func (c *BibCheckCmd) Run(cfg *config.Config) error {
	oldEntries, err := bibtex.ParseFile(c.Old)
	if err != nil {
		return err
	}
	newEntries, err := bibtex.ParseFile(c.New)
	if err != nil {
		return err
	}

	diff := bibtex.Compare(oldEntries, newEntries)
	if diff.IdenticalExcept(c.Allow...) {
		fmt.Printf("OK: %s matches %s (allowed additions: %s)\n", c.New, c.Old, strings.Join(c.Allow, ","))
		return nil
	}

	for _, k := range diff.OnlyInOld {
		fmt.Printf("missing in %s: %s\n", c.New, k)
	}
	for _, k := range diff.OnlyInNew {
		fmt.Printf("extra in %s: %s\n", c.New, k)
	}
	for _, k := range diff.TypeChanged {
		fmt.Printf("type changed: %s\n", k)
	}
	for k, fields := range diff.FieldsRemoved {
		fmt.Printf("fields removed from %s: %s\n", k, strings.Join(fields, ","))
	}
	for k, fields := range diff.FieldsChanged {
		fmt.Printf("fields changed in %s: %s\n", k, strings.Join(fields, ","))
	}
	for k, fields := range diff.FieldsAdded {
		var bad []string
		for _, f := range fields {
			allowed := false
			for _, a := range c.Allow {
				if f == a {
					allowed = true
				}
			}
			if !allowed {
				bad = append(bad, f)
			}
		}
		if len(bad) > 0 {
			fmt.Printf("unexpected fields added to %s: %s\n", k, strings.Join(bad, ","))
		}
	}
	return fmt.Errorf("bib files differ beyond allowed additions")
}

// BibKeysCmd lists citation keys.
type BibKeysCmd struct {
	Bib string `help:"Bib file (default from config)" type:"path"`
	DOI bool   `name:"doi" help:"Include DOIs"`
}

func (c *BibKeysCmd) Run(cfg *config.Config) error {
	entries, err := bibtex.ParseFile(pick(c.Bib, cfg.Bib))
	if err != nil {
		return err
	}
	dois := bibtex.DOIMap(entries)
	for _, key := range bibtex.Keys(entries) {
		if c.DOI {
			fmt.Printf("%s\t%s\n", key, dois[key])
		} else {
			fmt.Println(key)
		}
	}
	return nil
}

// CiteInventoryCmd extracts citation groups into an inventory file.
type CiteInventoryCmd struct {
	Paper  string `help:"Manuscript file (default from config)" type:"path"`
	Bib    string `help:"Bib file (default from config)" type:"path"`
	Output string `short:"o" help:"Inventory output file (default stdout)" type:"path"`
}

func (c *CiteInventoryCmd) Run(cfg *config.Config) error {
	groups, err := citation.ExtractFile(pick(c.Paper, cfg.Paper))
	if err != nil {
		return err
	}
	entries, err := bibtex.ParseFile(pick(c.Bib, cfg.Bib))
	if err != nil {
		return err
	}

	meta := make(map[string]citation.KeyMeta, len(entries))
	for _, e := range entries {
		meta[e.Key] = citation.KeyMeta{DOI: e.Field("doi"), File: e.Field("file")}
	}

	out := citation.FormatInventory(citation.BuildInventory(groups, meta))
	if c.Output == "" {
		fmt.Print(out)
		return nil
	}
	if err := os.WriteFile(c.Output, []byte(out), 0644); err != nil {
		return fmt.Errorf("write inventory: %w", err)
	}
	fmt.Printf("Wrote %s (%d groups)\n", c.Output, len(groups))
	return nil
}

// CiteUnitsCmd parses attribution unit markers in marked-up text.
type CiteUnitsCmd struct {
	Marked   string `arg:"" help:"File containing -> ... <- unit markers" type:"existingfile"`
	Original string `help:"Unmarked original to verify markers were only added" type:"path"`
}

func (c *CiteUnitsCmd) Run(cfg *config.Config) error {
	marked, err := os.ReadFile(c.Marked)
	if err != nil {
		return fmt.Errorf("read marked text: %w", err)
	}

	if c.Original != "" {
		original, err := os.ReadFile(c.Original)
		if err != nil {
			return fmt.Errorf("read original text: %w", err)
		}
		if !citation.MarkersOnlyAdded(string(original), string(marked)) {
			return fmt.Errorf("marked text changes more than unit markers")
		}
	}

	units, err := citation.ParseUnits(string(marked))
	if err != nil {
		return err
	}
	for i, u := range units {
		fmt.Printf("unit %d: %s\n", i+1, u.Text)
	}
	fmt.Printf("Units: %d\n", len(units))
	return nil
}

// RefsExpandCmd expands cross-reference commands to plain text.
type RefsExpandCmd struct {
	Paper  string `help:"Manuscript file (default from config)" type:"path"`
	Aux    string `help:"Aux file with label data (default from config)" type:"path"`
	Bbl    string `help:"Bbl file with citation data (default from config)" type:"path"`
	Output string `short:"o" help:"Output file (default INPUT with -expanded suffix)" type:"path"`
}

func (c *RefsExpandCmd) Run(cfg *config.Config) error {
	paperPath := pick(c.Paper, cfg.Paper)
	content, err := os.ReadFile(paperPath)
	if err != nil {
		return fmt.Errorf("read manuscript: %w", err)
	}

	auxData, err := refs.ParseAuxFile(pick(c.Aux, cfg.Aux))
	if err != nil {
		return err
	}
	bblData, err := refs.ParseBblFile(pick(c.Bbl, cfg.Bbl))
	if err != nil {
		return err
	}

	expander := &refs.Expander{Aux: auxData, Bbl: bblData}
	expanded, counts := expander.Expand(string(content))

	outPath := c.Output
	if outPath == "" {
		ext := filepath.Ext(paperPath)
		outPath = strings.TrimSuffix(paperPath, ext) + "-expanded" + ext
	}
	if err := os.WriteFile(outPath, []byte(expanded), 0644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Printf("Wrote %s\n", outPath)
	fmt.Printf("cref=%d combinedref=%d combinedcref=%d prosecite=%d textcite=%d\n",
		counts.Cref, counts.CombinedRef, counts.CombinedCref, counts.ProseCite, counts.TextCite)
	return nil
}

// WikiPrepareCmd massages LaTeX source before pandoc conversion.
type WikiPrepareCmd struct {
	Input  string `arg:"" help:"LaTeX source file" type:"existingfile"`
	Output string `short:"o" help:"Output file (default stdout)" type:"path"`
}

func (c *WikiPrepareCmd) Run(cfg *config.Config) error {
	content, err := os.ReadFile(c.Input)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	out := wiki.Prepare(wiki.StripGlossaryMarkup(string(content)))
	if c.Output == "" {
		fmt.Print(out)
		return nil
	}
	if err := os.WriteFile(c.Output, []byte(out), 0644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Printf("Wrote %s\n", c.Output)
	return nil
}

// WikiRefsCmd rewrites citation placeholders into MediaWiki references.
type WikiRefsCmd struct {
	Input  string `arg:"" help:"Pandoc-converted wiki text" type:"existingfile"`
	Bib    string `help:"Bib file (default from config)" type:"path"`
	Output string `short:"o" help:"Output file (default INPUT overwritten)" type:"path"`
}

func (c *WikiRefsCmd) Run(cfg *config.Config) error {
	content, err := os.ReadFile(c.Input)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	entries, err := bibtex.ParseFile(pick(c.Bib, cfg.Bib))
	if err != nil {
		return err
	}

	out := wiki.Convert(string(content), bibtex.ByKey(entries))
	if err := wiki.ValidateRefs(out); err != nil {
		return err
	}

	outPath := c.Output
	if outPath == "" {
		outPath = c.Input
	}
	if err := os.WriteFile(outPath, []byte(out), 0644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Printf("Wrote %s\n", outPath)
	return nil
}

// RunsListCmd lists recorded linker runs.
type RunsListCmd struct {
	Limit int  `help:"Maximum runs to show" default:"20"`
	Subs  bool `help:"Show each run's substitutions"`
}

func (c *RunsListCmd) Run(cfg *config.Config) error {
	store, err := audit.Open(cfg.AuditDB)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(c.Limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No recorded runs.")
		return nil
	}
	for _, r := range runs {
		fmt.Printf("%s  %s  %-14s  %s  subs=%d\n",
			r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), r.Command, r.SourcePath, r.Substitutions)
		if c.Subs {
			subs, err := store.RunSubstitutions(r.ID)
			if err != nil {
				return err
			}
			for _, s := range subs {
				fmt.Printf("    %s: %q in %q\n", s.TermID, s.Matched, s.Section)
			}
		}
	}
	return nil
}

// RunsArchiveCmd bundles old debug logs into a tar.xz archive.
type RunsArchiveCmd struct {
	Dir     string `help:"Directory containing logs" default:"." type:"path"`
	Pattern string `help:"Glob for log files to archive" default:"glossary_debug*.log"`
}

func (c *RunsArchiveCmd) Run(cfg *config.Config) error {
	dst, names, err := archive.ArchiveLogs(c.Dir, c.Pattern)
	if err != nil {
		return err
	}
	if dst == "" {
		fmt.Println("No logs to archive.")
		return nil
	}
	fmt.Printf("Archived %d logs to %s\n", len(names), dst)
	return nil
}

// InitCmd writes a default project configuration.
type InitCmd struct {
	Force bool `help:"Overwrite an existing config file"`
}

func (c *InitCmd) Run(cfg *config.Config) error {
	path := CLI.Config
	if path == "" {
		path = config.DefaultPath
	}
	if !c.Force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	if err := config.Default().Write(path); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(cfg *config.Config) error {
	info := sqlite.GetInfo()
	fmt.Printf("folio %s (sqlite: %s/%s)\n", version, info.DriverType, info.DriverName)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("folio"),
		kong.Description("Open MDMA manuscript tooling"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	level := logging.LevelInfo
	if CLI.Verbose {
		level = logging.LevelDebug
	}
	logging.InitLogger(level, logging.ParseFormat(CLI.LogFormat))

	cfg, err := config.LoadOrDefault(CLI.Config)
	ctx.FatalIfErrorf(err)

	err = ctx.Run(cfg)
	ctx.FatalIfErrorf(err)
}
