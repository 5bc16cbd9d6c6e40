package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/duynguyendang/gerd/pkg/erd"
	"gopkg.in/yaml.v3"
)

// Manifest describes the contents of one environment's catalog. It is the
// seed file read by `gerd import`.
type Manifest struct {
	Environment       string                     `yaml:"environment"`
	Description       string                     `yaml:"description"`
	Templates         []string                   `yaml:"templates"`
	Indexes           map[string][]erd.IndexInfo `yaml:"indexes"`
	Titles            map[string]string          `yaml:"titles"`
	BusinessFunctions map[string]string          `yaml:"business_functions"`

	// dir resolves relative template paths.
	dir string
}

// ImportStats counts what Import wrote.
type ImportStats struct {
	Templates         int `json:"templates"`
	Tables            int `json:"tables"`
	Titles            int `json:"titles"`
	BusinessFunctions int `json:"business_functions"`
}

// LoadManifest reads and parses a manifest file. Template paths in it are
// relative to the manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	m.dir = filepath.Dir(path)
	return &m, nil
}

func (m *Manifest) templatePath(p string) string {
	if filepath.IsAbs(p) || m.dir == "" {
		return p
	}
	return filepath.Join(m.dir, p)
}

// Import writes everything the manifest lists into the store. It stops at
// the first failure.
func (s *Store) Import(m *Manifest) (ImportStats, error) {
	var stats ImportStats

	for _, p := range m.Templates {
		data, err := os.ReadFile(m.templatePath(p))
		if err != nil {
			return stats, fmt.Errorf("failed to read template %s: %w", p, err)
		}
		t, err := s.PutTemplate(data)
		if err != nil {
			return stats, fmt.Errorf("template %s: %w", p, err)
		}
		slog.Debug("imported template", "name", t.Name, "items", t.Len())
		stats.Templates++
	}
	for table, indexes := range m.Indexes {
		if err := s.PutTableIndexes(table, indexes); err != nil {
			return stats, err
		}
		stats.Tables++
	}
	for item, title := range m.Titles {
		if err := s.PutTitle(item, title); err != nil {
			return stats, err
		}
		stats.Titles++
	}
	for tmpl, object := range m.BusinessFunctions {
		if err := s.PutBusinessFunction(tmpl, object); err != nil {
			return stats, err
		}
		stats.BusinessFunctions++
	}
	return stats, nil
}
