package report

import (
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxkimambo/cgaprov/internal/dag"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func sampleResult(success bool) *dag.ExecutionResult {
	result := &dag.ExecutionResult{
		RunID:         "run-1",
		Success:       success,
		ExecutionTime: 1500 * time.Millisecond,
		NodeResults: map[string]*dag.NodeResult{
			"p": {NodeID: "p", Task: "CreateProject(alias=p1)", Status: dag.StatusSkipped},
			"s": {NodeID: "s", Task: "CreateStudy(alias=s1)", Status: dag.StatusCompleted, Duration: 2 * time.Second},
			"x": {NodeID: "x", Task: "CreateStudy(alias=s0)", Status: dag.StatusPending},
		},
	}
	if !success {
		result.NodeResults["s"].Status = dag.StatusFailed
		result.NodeResults["s"].Error = errors.New("exit status 1")
	}
	return result
}

func TestBox_Render(t *testing.T) {
	out := NewBox(ToneInfo, "Title").WithWidth(80).
		AddLine("plain").
		AddBullet("bullet").
		AddKeyValue("Key", "value").
		Render()

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 6)
	assert.True(t, strings.HasPrefix(lines[0], "╭"))
	assert.True(t, strings.HasPrefix(lines[5], "╰"))
	assert.Contains(t, lines[1], "ℹ Title")
	assert.Contains(t, lines[3], "• bullet")
	assert.Contains(t, lines[4], "Key:")

	width := utf8.RuneCountInString(lines[0])
	for _, line := range lines {
		assert.Equal(t, width, utf8.RuneCountInString(line), "line %q", line)
	}
}

func TestBox_WrapsLongLines(t *testing.T) {
	long := strings.Repeat("word ", 30)
	out := NewBox(ToneWarning, "Title").WithWidth(40).AddLine(long).Render()

	for _, line := range strings.Split(out, "\n") {
		assert.LessOrEqual(t, utf8.RuneCountInString(line), 40)
	}
}

func TestTable_String(t *testing.T) {
	table := NewTable("Task", "Status")
	table.AddRow("CreateProject(alias=p1)", "completed")
	table.AddRow("only one cell")

	assert.Equal(t, 1, table.Len())
	out := table.String()
	assert.Contains(t, out, "│ CreateProject(alias=p1) │ completed │")
	assert.True(t, strings.HasPrefix(out, "┌"))
}

func TestSummary_Success(t *testing.T) {
	out := Summary(sampleResult(true)).WithWidth(100).Render()

	assert.Contains(t, out, "✓ Provisioning complete")
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "1.5s")
	assert.NotContains(t, out, "Failed")
}

func TestSummary_Failure(t *testing.T) {
	out := Summary(sampleResult(false)).WithWidth(100).Render()

	assert.Contains(t, out, "✗ Provisioning failed")
	assert.Contains(t, out, "Failed:")
	assert.Contains(t, out, "• CreateStudy(alias=s1): exit status 1")
}

func TestTaskTable_SkipsUnvisited(t *testing.T) {
	out := TaskTable(sampleResult(true)).String()

	assert.Contains(t, out, "CreateProject(alias=p1)")
	assert.Contains(t, out, "2s")
	assert.NotContains(t, out, "CreateStudy(alias=s0)")
}
