package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// StateEnvVar tells the fake catalog script where to keep its objects
const StateEnvVar = "FAKE_CATALOG_STATE"

// Catalog credentials written to every workspace settings file
const (
	CatalogUser     = "admin"
	CatalogPassword = "s3cret"
)

// fakeCatalogScript mimics the parts of opencga.sh the provisioner uses.
// Objects are empty marker files under $FAKE_CATALOG_STATE/objects; every
// invocation is appended to calls.log. Info queries print the object ID when
// it exists and nothing otherwise.
const fakeCatalogScript = `#!/bin/sh
state="${FAKE_CATALOG_STATE:?FAKE_CATALOG_STATE not set}"
mkdir -p "$state/objects"
echo "$1 $2" >> "$state/calls.log"

group="$1"; action="$2"; shift 2
user=""; pass=""; alias=""; project=""; study=""
while [ $# -gt 0 ]; do
  case "$1" in
    --user) user="$2"; shift 2 ;;
    --password) pass="$2"; shift 2 ;;
    -a) alias="$2"; shift 2 ;;
    --project-id) project="$2"; shift 2 ;;
    --study-id) study="$2"; shift 2 ;;
    *) shift ;;
  esac
done

if [ "$pass" != "` + CatalogPassword + `" ]; then
  echo "Unauthorized: invalid password for user $user" >&2
  exit 1
fi

key() { printf '%s' "$1" | tr '/@:' '___'; }

case "$group $action" in
  "projects create")
    id="$user@$alias"
    touch "$state/objects/project_$(key "$id")"
    echo "$id" ;;
  "projects info")
    if [ -f "$state/objects/project_$(key "$project")" ]; then echo "$project"; fi ;;
  "studies create")
    if [ ! -f "$state/objects/project_$(key "$project")" ]; then
      echo "Project $project not found" >&2
      exit 1
    fi
    id="$project/$alias"
    touch "$state/objects/study_$(key "$id")"
    echo "$id" ;;
  "studies info")
    if [ -f "$state/objects/study_$(key "$study")" ]; then echo "$study"; fi ;;
  *)
    echo "unsupported command: $group $action" >&2
    exit 2 ;;
esac
`

// Workspace is a catalog installation backed by the fake script
type Workspace struct {
	Dir        string
	ConfigPath string
	StateDir   string
}

// SetupCatalogWorkspace creates a workspace with bin/opencga.sh, a settings
// file pointing at it and an empty catalog state. It is removed when the test
// ends unless PRESERVE_TEST_WORKSPACE=true.
func SetupCatalogWorkspace(t *testing.T) *Workspace {
	t.Helper()

	dir, err := os.MkdirTemp("", "cgaprov-"+strings.ReplaceAll(t.Name(), "/", "_")+"-")
	require.NoError(t, err, "failed to create test workspace directory")

	ws := &Workspace{
		Dir:        dir,
		ConfigPath: filepath.Join(dir, "pipeline_config.conf"),
		StateDir:   filepath.Join(dir, "state"),
	}

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "bin"), 0o755))
	require.NoError(t, os.MkdirAll(ws.StateDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bin", "opencga.sh"), []byte(fakeCatalogScript), 0o755))

	settings := fmt.Sprintf("root_folder: %s\ncatalog_user: %s\ncatalog_pass: %s\nartifact_dir: %s\n",
		dir, CatalogUser, CatalogPassword, filepath.Join(dir, "artifacts"))
	require.NoError(t, os.WriteFile(ws.ConfigPath, []byte(settings), 0o600))

	t.Cleanup(func() {
		if os.Getenv("PRESERVE_TEST_WORKSPACE") == "true" {
			t.Logf("Test workspace preserved in: %s", dir)
			return
		}
		if err := os.RemoveAll(dir); err != nil {
			t.Logf("Warning: failed to clean up workspace directory %s: %v", dir, err)
		}
	})

	return ws
}

// Env returns the environment for processes that talk to this workspace
func (w *Workspace) Env() []string {
	return append(os.Environ(), StateEnvVar+"="+w.StateDir)
}

// Calls returns the "group action" of every catalog command executed so far
func (w *Workspace) Calls(t *testing.T) []string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(w.StateDir, "calls.log"))
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

// CountCalls returns how many times "group action" was executed
func (w *Workspace) CountCalls(t *testing.T, groupAction string) int {
	n := 0
	for _, c := range w.Calls(t) {
		if c == groupAction {
			n++
		}
	}
	return n
}
