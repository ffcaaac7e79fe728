// Package catalog provisions projects and studies through the OpenCGA
// command-line tool.
package catalog

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/maxkimambo/cgaprov/internal/config"
	caterrors "github.com/maxkimambo/cgaprov/internal/errors"
	"github.com/maxkimambo/cgaprov/internal/logger"
	"github.com/maxkimambo/cgaprov/internal/shell"
)

// Placeholders filled from the configuration on every command
const (
	PlaceholderExecutable = "opencga"
	PlaceholderUser       = "user"
	PlaceholderPassword   = "password"
)

const artifactExt = ".ids"

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// Client issues catalog commands. Settings are loaded from the source on
// every call.
type Client struct {
	source config.Source
	runner shell.Runner
}

// NewClient creates a catalog client
func NewClient(source config.Source, runner shell.Runner) *Client {
	return &Client{source: source, runner: runner}
}

func (c *Client) render(tmpl shell.Template, params map[string]string) (*config.Catalog, shell.Command, error) {
	cfg, err := c.source.Load()
	if err != nil {
		return nil, shell.Command{}, err
	}

	bound := make(map[string]string, len(params)+3)
	for k, v := range params {
		bound[k] = v
	}
	bound[PlaceholderExecutable] = cfg.Executable()
	bound[PlaceholderUser] = cfg.User
	bound[PlaceholderPassword] = cfg.Password

	argv, err := tmpl.Render(bound)
	if err != nil {
		return nil, shell.Command{}, err
	}
	return cfg, shell.Command{Argv: argv, Secret: []string{cfg.Password}}, nil
}

// Exec runs a mutating catalog command, discarding its output
func (c *Client) Exec(ctx context.Context, tmpl shell.Template, params map[string]string) error {
	_, cmd, err := c.render(tmpl, params)
	if err != nil {
		return err
	}
	return c.runner.Run(ctx, cmd)
}

// Exists runs a read-only catalog query with its output captured to a fresh
// artifact file named after artifact, and reports whether anything was
// printed. An empty answer means the object is not in the catalog.
func (c *Client) Exists(ctx context.Context, tmpl shell.Template, params map[string]string, artifact string) (bool, error) {
	cfg, cmd, err := c.render(tmpl, params)
	if err != nil {
		return false, err
	}

	outputPath, err := reserveArtifact(cfg.ArtifactDir, artifact)
	if err != nil {
		return false, err
	}
	defer os.Remove(outputPath)

	path, err := c.runner.RunToFile(ctx, cmd, outputPath)
	if err != nil {
		return false, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, caterrors.NewExternalCommandError(caterrors.CodeCommandLaunch,
			fmt.Sprintf("Cannot inspect query output %s", path),
			"Completion check").
			WithContext("path", path).
			WithOriginalError(err)
	}

	logger.Op.WithFields(map[string]interface{}{
		"artifact": path,
		"bytes":    info.Size(),
	}).Debug("Catalog query finished")

	return info.Size() > 0, nil
}

// reserveArtifact creates an empty output file unique to one query, so
// checks running at the same time, in this process or another, never read
// each other's answer
func reserveArtifact(dir, artifact string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", caterrors.NewConfigurationError(caterrors.CodeConfigUnreadable,
			fmt.Sprintf("Cannot create artifact directory %s", dir),
			"Completion check").
			WithContext("path", dir).
			WithOriginalError(err)
	}

	base := strings.TrimSuffix(ArtifactFileName(artifact), artifactExt)
	f, err := os.CreateTemp(dir, base+"-*"+artifactExt)
	if err != nil {
		return "", caterrors.NewConfigurationError(caterrors.CodeConfigUnreadable,
			fmt.Sprintf("Cannot create artifact file in %s", dir),
			"Completion check").
			WithContext("path", dir).
			WithOriginalError(err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return f.Name(), nil
}

// ArtifactFileName maps an artifact name to a safe file name
func ArtifactFileName(name string) string {
	return unsafeFileChars.ReplaceAllString(name, "_") + artifactExt
}
