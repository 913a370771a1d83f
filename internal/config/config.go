// Package config handles the .folio.yaml project configuration.
//
// The exclusion rules the glossary linker applies (skip tags, heading
// commands, exempt sections) are configuration rather than code: the set of
// markup commands a manuscript uses grows over time and the list here is not
// assumed complete.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when --config is not given.
const DefaultPath = ".folio.yaml"

// Config is the project configuration loaded from .folio.yaml.
type Config struct {
	// Paths to the manuscript inputs and outputs.
	Paper    string `yaml:"paper"`
	Glossary string `yaml:"glossary"`
	Bib      string `yaml:"bib"`
	Aux      string `yaml:"aux"`
	Bbl      string `yaml:"bbl"`
	Output   string `yaml:"output"`
	DebugLog string `yaml:"debug_log"`
	AuditDB  string `yaml:"audit_db"`

	// SkipTags lists markup commands whose argument is never rewritten.
	SkipTags []string `yaml:"skip_tags"`

	// HeadingCommands lists sectioning commands treated as headings.
	// Starred variants are matched automatically.
	HeadingCommands []string `yaml:"heading_commands"`

	// ExemptSections lists section-title fragments that are never touched
	// by the glossary linker.
	ExemptSections []string `yaml:"exempt_sections"`
}

// Default returns the configuration used when no .folio.yaml exists.
func Default() *Config {
	return &Config{
		Paper:    "paper.tex",
		Glossary: "glossary.tex",
		Bib:      "references.bib",
		Aux:      "paper.aux",
		Bbl:      "paper.bbl",
		Output:   "paper-linked.tex",
		DebugLog: "glossary_debug.log",
		AuditDB:  ".folio/audit.db",
		SkipTags: []string{
			"label", "ref", "cite", "todo", "hyperref", "url", "textcite",
			"nameref", "nameref*", "combinedref", "cref", "prosecite",
		},
		HeadingCommands: []string{"chapter", "section", "subsection", "subsubsection"},
		ExemptSections:  []string{"Quick Start / Essentials"},
	}
}

// Load reads and parses a config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault loads the config at path if it exists, or falls back to
// defaults. An explicit path that cannot be read is still an error.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return Default(), nil
		}
	}
	return Load(path)
}

// Write serializes the configuration to path. Used by "folio init".
func (c *Config) Write(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	header := []byte("# folio project configuration\n")
	return os.WriteFile(path, append(header, data...), 0644)
}
