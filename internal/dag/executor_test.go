package dag

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	caterrors "github.com/maxkimambo/cgaprov/internal/errors"
)

func testConfig() *ExecutorConfig {
	config := DefaultExecutorConfig()
	config.ProgressInterval = 0
	return config
}

func parallelConfig(n int) *ExecutorConfig {
	config := testConfig()
	config.MaxParallelTasks = n
	return config
}

func statusOf(t *testing.T, result *ExecutionResult, ft *fakeTask) NodeStatus {
	t.Helper()
	nr, ok := result.NodeResults[nodeID(ft)]
	require.True(t, ok, "no result for %s", ft.name)
	return nr.Status
}

func TestDefaultExecutorConfig(t *testing.T) {
	config := DefaultExecutorConfig()

	assert.Equal(t, 1, config.MaxParallelTasks)
	assert.Equal(t, time.Duration(0), config.TaskTimeout)
	assert.False(t, config.VerifyAfterRun)
	assert.Equal(t, 30*time.Second, config.ProgressInterval)
}

func TestExecutor_Execute_SingleNode(t *testing.T) {
	cat := newFakeCatalog()
	a := cat.task("a")

	_, result, err := Schedule(context.Background(), testConfig(), a)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 1, cat.runCount("a"))
	assert.Equal(t, StatusCompleted, statusOf(t, result, a))
	assert.True(t, result.NodeResults[nodeID(a)].Success())
}

func TestExecutor_Execute_WithDependencies(t *testing.T) {
	// B depends on A, both missing: A runs before B.
	cat := newFakeCatalog()
	a := cat.task("a")
	b := cat.task("b", a)

	_, result, err := Schedule(context.Background(), testConfig(), b)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, cat.runOrder())
	assert.Equal(t, StatusCompleted, statusOf(t, result, a))
	assert.Equal(t, StatusCompleted, statusOf(t, result, b))
}

func TestExecutor_Execute_Idempotent(t *testing.T) {
	cat := newFakeCatalog()
	project := cat.task("project")
	s1 := cat.task("s1", project)
	s2 := cat.task("s2", project)

	_, _, err := Schedule(context.Background(), testConfig(), s1, s2)
	require.NoError(t, err)
	assert.Equal(t, 3, cat.totalRuns())

	_, result, err := Schedule(context.Background(), testConfig(), s1, s2)
	require.NoError(t, err)
	assert.Equal(t, 3, cat.totalRuns())
	assert.Equal(t, 2, result.Count(StatusSkipped))
	assert.Equal(t, 0, result.Count(StatusCompleted))
}

func TestExecutor_Execute_CompleteTaskNeverRuns(t *testing.T) {
	cat := newFakeCatalog()
	a := cat.task("a")
	b := cat.task("b", a)
	cat.present["b"] = true

	_, result, err := Schedule(context.Background(), testConfig(), b)
	require.NoError(t, err)

	assert.Equal(t, 0, cat.totalRuns())
	assert.Equal(t, StatusSkipped, statusOf(t, result, b))
	// A complete task is satisfied without visiting its dependencies
	assert.Equal(t, StatusPending, statusOf(t, result, a))
	assert.True(t, result.Success)
}

func TestExecutor_Execute_PresentDependencySkipped(t *testing.T) {
	cat := newFakeCatalog()
	a := cat.task("a")
	b := cat.task("b", a)
	cat.present["a"] = true

	_, result, err := Schedule(context.Background(), testConfig(), b)
	require.NoError(t, err)

	assert.Equal(t, 0, cat.runCount("a"))
	assert.Equal(t, 1, cat.runCount("b"))
	assert.Equal(t, StatusSkipped, statusOf(t, result, a))
	assert.Equal(t, StatusCompleted, statusOf(t, result, b))
}

func TestExecutor_Execute_TaskFailure(t *testing.T) {
	// C depends on A; A's run fails: C never runs and the error names A.
	cat := newFakeCatalog()
	a := cat.task("a")
	c := cat.task("c", a)
	cat.failRun["a"] = caterrors.NewCommandExitError("opencga.sh projects create", 1, "boom", errors.New("exit status 1"))

	_, result, err := Schedule(context.Background(), testConfig(), c)
	require.Error(t, err)

	assert.Contains(t, err.Error(), "Fake(name=a)")
	assert.True(t, errors.Is(err, caterrors.ErrExternalCommand))
	assert.Equal(t, 1, cat.runCount("a"))
	assert.Equal(t, 0, cat.runCount("c"))
	assert.False(t, result.Success)
	assert.Equal(t, StatusFailed, statusOf(t, result, a))
	assert.Equal(t, StatusCancelled, statusOf(t, result, c))

	cErr := result.NodeResults[nodeID(c)].Error
	assert.True(t, errors.Is(cErr, caterrors.ErrDependencyFailed))
}

func TestExecutor_Execute_FailureStopsOnlyDependents(t *testing.T) {
	cat := newFakeCatalog()
	bad := cat.task("bad")
	good := cat.task("good")
	dependent := cat.task("dependent", bad)
	cat.failRun["bad"] = errors.New("boom")

	_, result, err := Schedule(context.Background(), testConfig(), dependent, good)
	require.Error(t, err)

	assert.Equal(t, 1, cat.runCount("good"))
	assert.Equal(t, 0, cat.runCount("dependent"))
	assert.Equal(t, StatusCompleted, statusOf(t, result, good))
	assert.Equal(t, StatusCancelled, statusOf(t, result, dependent))
}

func TestExecutor_Execute_CompletionCheckFailure(t *testing.T) {
	cat := newFakeCatalog()
	a := cat.task("a")
	b := cat.task("b", a)
	cat.failComplete["a"] = errors.New("catalog unreachable")

	_, result, err := Schedule(context.Background(), testConfig(), b)
	require.Error(t, err)

	assert.Contains(t, err.Error(), "catalog unreachable")
	assert.Equal(t, 0, cat.totalRuns())
	assert.Equal(t, StatusFailed, statusOf(t, result, a))
	assert.Equal(t, StatusCancelled, statusOf(t, result, b))
}

func TestExecutor_Execute_CycleRunsNothing(t *testing.T) {
	cat := newFakeCatalog()
	a := cat.task("a")
	b := cat.task("b", a)
	a.deps = []*fakeTask{b}

	graph, result, err := Schedule(context.Background(), testConfig(), a)
	require.Error(t, err)
	assert.True(t, errors.Is(err, caterrors.ErrCyclicDependency))
	assert.Nil(t, graph)
	assert.Nil(t, result)
	assert.Equal(t, 0, cat.totalRuns())
}

func TestExecutor_Execute_InvalidDAG(t *testing.T) {
	cat := newFakeCatalog()
	d := NewDAG()
	a, b := NewNode(cat.task("a")), NewNode(cat.task("b"))
	require.NoError(t, d.AddNode(a))
	require.NoError(t, d.AddNode(b))
	require.NoError(t, d.AddDependency(a.ID(), b.ID()))
	require.NoError(t, d.AddDependency(b.ID(), a.ID()))
	require.NoError(t, d.AddRoot(a.ID()))

	result, err := NewExecutor(d, testConfig()).Execute(context.Background())
	require.Error(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 0, cat.totalRuns())
}

func TestExecutor_Execute_NoRoots(t *testing.T) {
	result, err := NewExecutor(NewDAG(), testConfig()).Execute(context.Background())
	assert.Error(t, err)
	assert.NotNil(t, result)
}

func TestExecutor_Execute_VerifyAfterRun(t *testing.T) {
	cat := newFakeCatalog()
	a := cat.task("a")
	b := cat.task("b", a)
	cat.noEffect["a"] = true

	config := testConfig()
	config.VerifyAfterRun = true

	_, result, err := Schedule(context.Background(), config, b)
	require.Error(t, err)

	assert.Contains(t, err.Error(), "does not report it as present")
	assert.Equal(t, 0, cat.runCount("b"))
	assert.Equal(t, StatusFailed, statusOf(t, result, a))
}

func TestExecutor_Execute_NoVerifyByDefault(t *testing.T) {
	cat := newFakeCatalog()
	a := cat.task("a")
	cat.noEffect["a"] = true

	_, result, err := Schedule(context.Background(), testConfig(), a)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, statusOf(t, result, a))
}

func TestExecutor_Execute_ContextCancellation(t *testing.T) {
	cat := newFakeCatalog()
	a := cat.task("a")
	b := cat.task("b", a)
	c := cat.task("c", b)

	ctx, cancel := context.WithCancel(context.Background())
	cat.onRun = func(name string) {
		if name == "a" {
			cancel()
		}
	}

	_, result, err := Schedule(ctx, testConfig(), c)
	require.Error(t, err)

	// The run in progress when cancellation arrived finishes normally
	assert.Equal(t, StatusCompleted, statusOf(t, result, a))
	assert.True(t, cat.present["a"])
	assert.Equal(t, StatusCancelled, statusOf(t, result, b))
	assert.Equal(t, StatusCancelled, statusOf(t, result, c))
	assert.Equal(t, 1, cat.totalRuns())
}

func TestExecutor_Execute_AlreadyCancelled(t *testing.T) {
	cat := newFakeCatalog()
	a := cat.task("a")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, result, err := Schedule(ctx, testConfig(), a)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatusCancelled, statusOf(t, result, a))
	assert.Equal(t, 0, cat.totalRuns())
}

func TestExecutor_Execute_CancelledWhileWaitingForWorker(t *testing.T) {
	cat := newFakeCatalog()
	a := cat.task("a")

	graph, err := Resolve(a)
	require.NoError(t, err)
	executor := NewExecutor(graph, testConfig())
	// Hold the only worker slot so the completion check has to wait.
	executor.workers <- struct{}{}

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	result, err := executor.Execute(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatusCancelled, statusOf(t, result, a))
	assert.Equal(t, 0, result.Count(StatusFailed))
	assert.Equal(t, 0, cat.totalRuns())
}

func TestExecutor_Execute_SharedDependencyRunsOnceInParallel(t *testing.T) {
	cat := newFakeCatalog()
	cat.runDelay = 10 * time.Millisecond
	project := cat.task("project")

	var studies []*fakeTask
	for i := 0; i < 8; i++ {
		studies = append(studies, cat.task(fmt.Sprintf("study%d", i), project))
	}
	top := cat.task("top", studies...)

	_, result, err := Schedule(context.Background(), parallelConfig(4), top)
	require.NoError(t, err)

	assert.Equal(t, 1, cat.runCount("project"))
	for _, s := range studies {
		assert.Equal(t, 1, cat.runCount(s.name))
	}
	assert.Equal(t, 10, cat.totalRuns())
	assert.True(t, result.Success)
	assert.LessOrEqual(t, cat.maxInFlight, 4)
}

func TestExecutor_Execute_ParallelBoundedByWorkers(t *testing.T) {
	cat := newFakeCatalog()
	cat.runDelay = 20 * time.Millisecond

	var deps []*fakeTask
	for i := 0; i < 6; i++ {
		deps = append(deps, cat.task(fmt.Sprintf("dep%d", i)))
	}
	top := cat.task("top", deps...)

	_, _, err := Schedule(context.Background(), parallelConfig(2), top)
	require.NoError(t, err)

	assert.Equal(t, 7, cat.totalRuns())
	assert.LessOrEqual(t, cat.maxInFlight, 2)
	assert.Equal(t, "top", cat.runOrder()[6])
}

func TestExecutor_Execute_SerialRunsOneAtATime(t *testing.T) {
	cat := newFakeCatalog()
	cat.runDelay = 5 * time.Millisecond
	top := cat.task("top", cat.task("x"), cat.task("y"), cat.task("z"))

	_, _, err := Schedule(context.Background(), testConfig(), top)
	require.NoError(t, err)
	assert.Equal(t, 1, cat.maxInFlight)
	assert.Equal(t, []string{"x", "y", "z", "top"}, cat.runOrder())
}

func TestExecutor_Execute_ConcurrentExecutorsShareCatalog(t *testing.T) {
	cat := newFakeCatalog()
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, err := Schedule(context.Background(), testConfig(), cat.task(fmt.Sprintf("t%d", i)))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 4, cat.totalRuns())
}

func TestExecutor_GetProgress(t *testing.T) {
	cat := newFakeCatalog()
	graph, err := Resolve(cat.task("b", cat.task("a")))
	require.NoError(t, err)

	executor := NewExecutor(graph, testConfig())
	_, err = executor.Execute(context.Background())
	require.NoError(t, err)

	finished, total := executor.GetProgress()
	assert.Equal(t, 2, finished)
	assert.Equal(t, 2, total)
}

func TestExecutionResult_Sorted(t *testing.T) {
	cat := newFakeCatalog()
	_, result, err := Schedule(context.Background(), testConfig(), cat.task("b"), cat.task("a"))
	require.NoError(t, err)

	sorted := result.Sorted()
	require.Len(t, sorted, 2)
	assert.Equal(t, "Fake(name=a)", sorted[0].Task)
	assert.Equal(t, "Fake(name=b)", sorted[1].Task)
}
