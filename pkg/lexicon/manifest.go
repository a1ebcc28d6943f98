package lexicon

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest describes a lexicon directory: where its tables live and the
// words that are too few to deserve a file.
type Manifest struct {
	Lang         string              `yaml:"lang" json:"lang"`
	Name         string              `yaml:"name" json:"name"`
	Version      string              `yaml:"version" json:"version"`
	Source       string              `yaml:"source" json:"source,omitempty"`
	License      string              `yaml:"license" json:"license,omitempty"`
	Format       FormatSpec          `yaml:"format" json:"-"`
	Files        FileSpec            `yaml:"files" json:"-"`
	Multipliers  map[string][]string `yaml:"multipliers" json:"-"`
	Conjunctions []string            `yaml:"conjunctions" json:"-"`
	Minus        []string            `yaml:"minus" json:"-"`
}

// FormatSpec describes the table layout. Tables are form<TAB>value rows
// unless Delimiter says otherwise.
type FormatSpec struct {
	Delimiter string `yaml:"delimiter"`
	Encoding  string `yaml:"encoding"`
	HasHeader bool   `yaml:"has_header"`
}

// FileSpec names the table files, relative to the manifest.
type FileSpec struct {
	Digit     string `yaml:"digit"`
	Zero      string `yaml:"zero"`
	Tens      string `yaml:"tens"`
	Multiples string `yaml:"multiples"`
	Fused     string `yaml:"fused"`
}

// LoadManifest reads and parses a manifest.yaml file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if m.Lang == "" {
		return nil, fmt.Errorf("manifest %s: missing lang", path)
	}
	if m.Files.Digit == "" {
		m.Files.Digit = "digit.tsv"
	}
	if m.Files.Tens == "" {
		m.Files.Tens = "tens.tsv"
	}
	for name := range m.Multipliers {
		if _, err := ParseTier(name); err != nil {
			return nil, fmt.Errorf("manifest %s: %w", path, err)
		}
	}
	return &m, nil
}

// WriteManifest marshals m to path.
func WriteManifest(path string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
