package systems

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Catalog is the ordered list of systems.
type Catalog []System

type catalogFile struct {
	Systems []System `yaml:"systems" toml:"systems"`
}

// Format is a catalog file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFor picks the encoding from a file name's extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: unsupported catalog extension %q", ErrInvalidCatalog, filepath.Ext(path))
	}
}

// LoadCatalog reads and validates a catalog file.
func LoadCatalog(path string) (Catalog, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data, format)
}

// ParseCatalog decodes and validates a catalog.
func ParseCatalog(data []byte, format Format) (Catalog, error) {
	var file catalogFile
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
		}
	case FormatTOML:
		if err := toml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
		}
	default:
		return nil, fmt.Errorf("%w: unknown format %q", ErrInvalidCatalog, format)
	}
	catalog := Catalog(file.Systems)
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	return catalog, nil
}

// Validate checks the catalog can feed the headline: at least one entry,
// every id present and unique, every title present.
func (c Catalog) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("%w: no systems", ErrInvalidCatalog)
	}
	seen := make(map[string]bool, len(c))
	for i, s := range c {
		if strings.TrimSpace(s.ID) == "" {
			return fmt.Errorf("%w: system %d has no id", ErrInvalidCatalog, i)
		}
		if strings.TrimSpace(s.Title) == "" {
			return fmt.Errorf("%w: system %q has no title", ErrInvalidCatalog, s.ID)
		}
		if seen[s.ID] {
			return fmt.Errorf("%w: duplicate id %q", ErrInvalidCatalog, s.ID)
		}
		seen[s.ID] = true
	}
	return nil
}

// Lookup returns the system with the given id.
func (c Catalog) Lookup(id string) (System, bool) {
	for _, s := range c {
		if s.ID == id {
			return s, true
		}
	}
	return System{}, false
}

// Defaults returns every system resolved with no visitor flags.
func (c Catalog) Defaults() []Entry {
	return Resolve(c, nil)
}
