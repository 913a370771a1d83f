package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	if cfg.Paper != "paper.tex" {
		t.Errorf("unexpected default paper path: %s", cfg.Paper)
	}
	if !slices.Contains(cfg.SkipTags, "cite") {
		t.Error("default skip tags should include cite")
	}
	if !slices.Contains(cfg.SkipTags, "nameref*") {
		t.Error("default skip tags should include starred nameref")
	}
	if len(cfg.ExemptSections) == 0 {
		t.Error("default config should exempt the quick start section")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".folio.yaml")
	content := `paper: manuscript.tex
skip_tags:
  - cite
  - footnote
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Paper != "manuscript.tex" {
		t.Errorf("paper not overridden: %s", cfg.Paper)
	}
	if !slices.Equal(cfg.SkipTags, []string{"cite", "footnote"}) {
		t.Errorf("skip tags not overridden: %v", cfg.SkipTags)
	}
	// Fields absent from the file keep their defaults.
	if cfg.Glossary != "glossary.tex" {
		t.Errorf("glossary default lost: %s", cfg.Glossary)
	}
}

func TestLoadOrDefaultMissingFile(t *testing.T) {
	dir := t.TempDir()
	cwd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(cwd)

	cfg, err := LoadOrDefault("")
	if err != nil {
		t.Fatalf("missing default config should not be an error: %v", err)
	}
	if cfg.Paper != "paper.tex" {
		t.Errorf("expected defaults, got paper=%s", cfg.Paper)
	}
}

func TestLoadOrDefaultExplicitMissingFile(t *testing.T) {
	if _, err := LoadOrDefault(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("explicitly named missing config should be an error")
	}
}

func TestWriteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".folio.yaml")

	orig := Default()
	orig.Output = "out.tex"
	if err := orig.Write(path); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if loaded.Output != "out.tex" {
		t.Errorf("output lost in round trip: %s", loaded.Output)
	}
	if !slices.Equal(loaded.SkipTags, orig.SkipTags) {
		t.Errorf("skip tags changed in round trip: %v", loaded.SkipTags)
	}
}
