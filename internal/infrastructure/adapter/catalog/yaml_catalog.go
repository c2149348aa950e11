// Package catalog loads the issue catalog from YAML. The catalog is an
// immutable configuration artifact: it is parsed and validated once at
// process start, and catalog changes are a deployment concern rather than a
// runtime mutation.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"support-triage-agent/internal/domain/entity"
)

//go:embed default_catalog.yaml
var defaultCatalogYAML []byte

// Sentinel errors for catalog loading.
var (
	ErrEmptyCatalogFile  = errors.New("catalog file contains no causes")
	ErrDuplicateCauseID  = errors.New("catalog contains duplicate cause ID")
)

// catalogFile is the YAML document shape.
type catalogFile struct {
	Causes []entity.Cause `yaml:"causes"`
}

// YAMLCatalog implements the CatalogProvider port over a parsed YAML file.
type YAMLCatalog struct {
	causes []entity.Cause
}

// NewDefaultCatalog loads the embedded hardware issue catalog.
func NewDefaultCatalog() (*YAMLCatalog, error) {
	return parse(defaultCatalogYAML)
}

// NewCatalogFromFile loads a catalog from the given YAML file.
func NewCatalogFromFile(path string) (*YAMLCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return parse(data)
}

// parse unmarshals and validates a catalog document. Keywords are lowercased
// here so the diagnosis engine's case-insensitive matching never depends on
// how the file was written.
func parse(data []byte) (*YAMLCatalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
	}
	if len(file.Causes) == 0 {
		return nil, ErrEmptyCatalogFile
	}

	seen := make(map[string]bool, len(file.Causes))
	for i := range file.Causes {
		cause := &file.Causes[i]
		if cause.Priority == "" {
			cause.Priority = entity.CausePriorityNormal
		}
		for j, kw := range cause.Keywords {
			cause.Keywords[j] = strings.ToLower(strings.TrimSpace(kw))
		}
		if err := cause.Validate(); err != nil {
			return nil, fmt.Errorf("catalog entry %d (%s): %w", i, cause.ID, err)
		}
		if seen[cause.ID] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCauseID, cause.ID)
		}
		seen[cause.ID] = true
	}

	return &YAMLCatalog{causes: file.Causes}, nil
}

// Causes returns all catalog entries in declaration order.
func (c *YAMLCatalog) Causes() []entity.Cause {
	out := make([]entity.Cause, len(c.causes))
	copy(out, c.causes)
	return out
}

// Len returns the number of catalog entries.
func (c *YAMLCatalog) Len() int {
	return len(c.causes)
}
