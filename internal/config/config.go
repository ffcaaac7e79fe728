// Package config loads the catalog connection settings.
//
// The settings file is re-read on every Load so that edits take effect on the
// next catalog command without restarting a long invocation.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	caterrors "github.com/maxkimambo/cgaprov/internal/errors"
)

const (
	// DefaultPath is the settings file looked up in the working directory
	DefaultPath = "pipeline_config.conf"

	// PasswordEnvVar overrides catalog_pass when set
	PasswordEnvVar = "CGAPROV_CATALOG_PASS"

	KeyRootFolder  = "root_folder"
	KeyCatalogUser = "catalog_user"
	KeyCatalogPass = "catalog_pass"
	KeyArtifactDir = "artifact_dir"
)

// Catalog holds the settings needed to talk to the catalog CLI
type Catalog struct {
	RootFolder  string
	User        string
	Password    string
	ArtifactDir string
}

// Executable returns the path of the catalog command-line tool
func (c *Catalog) Executable() string {
	return filepath.Join(c.RootFolder, "bin", "opencga.sh")
}

// Source supplies catalog settings. Implementations must be safe to call
// repeatedly and must not have side effects.
type Source interface {
	Load() (*Catalog, error)
}

// FileSource reads settings from a flat key/value YAML file on every Load
type FileSource struct {
	Path   string
	Getenv func(string) string
}

// NewFileSource creates a FileSource for path, defaulting to DefaultPath
func NewFileSource(path string) *FileSource {
	if path == "" {
		path = DefaultPath
	}
	return &FileSource{Path: path, Getenv: os.Getenv}
}

// Load reads and validates the settings file
func (s *FileSource) Load() (*Catalog, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, caterrors.NewConfigUnreadableError(s.Path, err)
	}

	values, err := Parse(data)
	if err != nil {
		return nil, caterrors.NewConfigUnreadableError(s.Path, err)
	}

	getenv := s.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	if pass := getenv(PasswordEnvVar); pass != "" {
		values[KeyCatalogPass] = pass
	}

	return FromValues(s.Path, values)
}

// Parse decodes a flat key/value document: either a YAML mapping, whose
// scalars of any type are kept as their literal text, or INI-style
// "key = value" lines with optional [section] headers and # or ; comments.
func Parse(data []byte) (map[string]string, error) {
	var raw map[string]yaml.Node
	yamlErr := yaml.Unmarshal(data, &raw)
	if yamlErr != nil {
		if values, ok := parseAssignments(data); ok {
			return values, nil
		}
		return nil, yamlErr
	}

	values := make(map[string]string, len(raw))
	for key, node := range raw {
		if node.Kind != yaml.ScalarNode {
			continue
		}
		values[strings.TrimSpace(key)] = strings.TrimSpace(node.Value)
	}
	return values, nil
}

// parseAssignments reads "key = value" lines. Sections only group keys; the
// file is flat, so a later key overrides an earlier one.
func parseAssignments(data []byte) (map[string]string, bool) {
	values := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "", strings.HasPrefix(line, "#"), strings.HasPrefix(line, ";"):
			continue
		case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, false
		}
		values[key] = strings.Trim(strings.TrimSpace(value), `"'`)
	}
	return values, len(values) > 0
}

// FromValues builds a Catalog from parsed values, checking required keys.
// origin names where the values came from for error messages.
func FromValues(origin string, values map[string]string) (*Catalog, error) {
	for _, key := range []string{KeyRootFolder, KeyCatalogUser, KeyCatalogPass} {
		if values[key] == "" {
			return nil, caterrors.NewMissingConfigKeyError(origin, key)
		}
	}

	artifactDir := values[KeyArtifactDir]
	if artifactDir == "" {
		artifactDir = filepath.Join(os.TempDir(), "cgaprov")
	}

	return &Catalog{
		RootFolder:  values[KeyRootFolder],
		User:        values[KeyCatalogUser],
		Password:    values[KeyCatalogPass],
		ArtifactDir: artifactDir,
	}, nil
}

// StaticSource always returns the same settings
type StaticSource struct {
	Catalog Catalog
}

// Load returns a copy of the static settings
func (s StaticSource) Load() (*Catalog, error) {
	c := s.Catalog
	return &c, nil
}
