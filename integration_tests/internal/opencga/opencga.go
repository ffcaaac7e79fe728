// Package opencga queries a catalog through its command-line tool, for
// verifying the outcome of integration tests independently of the provisioner.
package opencga

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

type Client struct {
	rootFolder string
	user       string
	password   string
	env        []string
}

func NewClient(rootFolder, user, password string, env []string) *Client {
	return &Client{
		rootFolder: rootFolder,
		user:       user,
		password:   password,
		env:        env,
	}
}

func (c *Client) run(ctx context.Context, args ...string) (string, error) {
	args = append(args, "--user", c.user, "--password", c.password, "--output-format", "IDS")
	cmd := exec.CommandContext(ctx, filepath.Join(c.rootFolder, "bin", "opencga.sh"), args...)
	cmd.Env = c.env

	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("opencga %s: %w", strings.Join(args[:2], " "), err)
	}
	return strings.TrimSpace(string(output)), nil
}

// ProjectExists reports whether the user owns a project with alias
func (c *Client) ProjectExists(ctx context.Context, alias string) (bool, error) {
	out, err := c.run(ctx, "projects", "info", "--project-id", c.user+"@"+alias)
	if err != nil {
		return false, err
	}
	return out != "", nil
}

// StudyExists reports whether project contains a study with alias
func (c *Client) StudyExists(ctx context.Context, project, alias string) (bool, error) {
	out, err := c.run(ctx, "studies", "info", "--study-id", c.user+"@"+project+"/"+alias)
	if err != nil {
		return false, err
	}
	return out != "", nil
}
