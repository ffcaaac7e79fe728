package catalog

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxkimambo/cgaprov/internal/config"
	"github.com/maxkimambo/cgaprov/internal/dag"
	"github.com/maxkimambo/cgaprov/internal/shell"
)

// slowCatalogScript answers study queries after a delay: admin@a-b/c exists
// and answers quickly, every other study is absent and answers slowly.
// Projects always exist. Study creations are appended to CREATED_LOG.
const slowCatalogScript = `#!/bin/sh
group="$1"; action="$2"; shift 2
project=""; study=""; alias=""
while [ $# -gt 0 ]; do
  case "$1" in
    --project-id) project="$2"; shift 2 ;;
    --study-id) study="$2"; shift 2 ;;
    -a) alias="$2"; shift 2 ;;
    *) shift ;;
  esac
done
case "$group $action" in
  "projects info") echo "$project" ;;
  "studies info")
    if [ "$study" = "admin@a-b/c" ]; then
      sleep 0.1
      echo "$study"
    else
      sleep 0.6
    fi ;;
  "studies create") echo "$project/$alias" >> "$CREATED_LOG" ;;
esac
`

func TestCompleteChecks_SimilarAliasesInParallel(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "bin"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "bin", "opencga.sh"), []byte(slowCatalogScript), 0o755))
	createdLog := filepath.Join(root, "created.log")

	source := config.StaticSource{Catalog: config.Catalog{
		RootFolder:  root,
		User:        "admin",
		Password:    "s3cret",
		ArtifactDir: filepath.Join(root, "artifacts"),
	}}
	runner := &shell.ExecRunner{Env: append(os.Environ(), "CREATED_LOG="+createdLog)}
	client := NewClient(source, runner)

	// Both sanitise to "study-a-b-c".
	present, err := NewCreateStudy(StudyParams{
		Alias: "c", Name: "C", ProjectAlias: "a-b", ProjectName: "AB",
	}, client)
	require.NoError(t, err)
	absent, err := NewCreateStudy(StudyParams{
		Alias: "b-c", Name: "BC", ProjectAlias: "a", ProjectName: "A",
	}, client)
	require.NoError(t, err)

	execConfig := dag.DefaultExecutorConfig()
	execConfig.MaxParallelTasks = 2
	execConfig.ProgressInterval = 0

	_, result, err := dag.Schedule(context.Background(), execConfig, absent, present)
	require.NoError(t, err)

	created, err := os.ReadFile(createdLog)
	require.NoError(t, err, "the absent study was never created")
	assert.Equal(t, []string{"admin@a/b-c"}, strings.Fields(string(created)))
	assert.Equal(t, 1, result.Count(dag.StatusCompleted))

	entries, err := os.ReadDir(filepath.Join(root, "artifacts"))
	require.NoError(t, err)
	assert.Empty(t, entries, "query artifacts are removed after each check")
}
