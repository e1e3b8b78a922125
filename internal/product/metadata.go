package product

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFilename is looked up in the working directory when no path is configured.
const DefaultFilename = "product.yaml"

// Metadata holds the product fields the packager cares about.
// JSON files are accepted too since they parse as YAML.
type Metadata struct {
	// Name is the product name.
	Name string `yaml:"name"`
	// DisplayName overrides Name for user-facing labels.
	DisplayName string `yaml:"display_name"`
	// Version is informational and only logged.
	Version string `yaml:"version"`
}

// Load reads metadata from path. A missing file yields empty metadata, not an error.
func Load(path string) (*Metadata, error) {
	if path == "" {
		path = DefaultFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if errors.Is(err, os.ErrNotExist) {
		return new(Metadata), nil
	} else if err != nil {
		return nil, fmt.Errorf("read product metadata: %w", err)
	}

	var meta Metadata
	if err = yaml.Unmarshal(contents, &meta); err != nil {
		return nil, fmt.Errorf("decode product metadata %s: %w", path, err)
	}

	return &meta, nil
}

// VolumeName returns the display name, then the name; empty when neither is set.
func (m *Metadata) VolumeName() string {
	if m == nil {
		return ""
	}

	if name := strings.TrimSpace(m.DisplayName); name != "" {
		return name
	}

	return strings.TrimSpace(m.Name)
}
