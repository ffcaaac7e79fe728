package dag

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	caterrors "github.com/maxkimambo/cgaprov/internal/errors"
	"github.com/maxkimambo/cgaprov/internal/logger"
)

// ExecutorConfig contains configuration for the DAG executor
type ExecutorConfig struct {
	// MaxParallelTasks bounds how many catalog commands run at once.
	// Independent dependencies are only satisfied concurrently when it is
	// greater than one.
	MaxParallelTasks int

	// TaskTimeout bounds how long a task waits for a worker slot. Zero
	// means wait indefinitely. A started command is never interrupted.
	TaskTimeout time.Duration

	// VerifyAfterRun re-checks completion after each successful run and
	// fails the task if the catalog still does not reflect it.
	VerifyAfterRun bool

	// ProgressInterval is how often running tasks are reported. Zero
	// disables progress reports.
	ProgressInterval time.Duration
}

// DefaultExecutorConfig returns a default configuration
func DefaultExecutorConfig() *ExecutorConfig {
	return &ExecutorConfig{
		MaxParallelTasks: 1,
		TaskTimeout:      0,
		VerifyAfterRun:   false,
		ProgressInterval: 30 * time.Second,
	}
}

// ExecutionResult contains the results of DAG execution
type ExecutionResult struct {
	// RunID identifies this invocation in logs
	RunID string

	// Success indicates no task failed or was cancelled
	Success bool

	// NodeResults maps node IDs to their execution results
	NodeResults map[string]*NodeResult

	// ExecutionTime is the total time taken for execution
	ExecutionTime time.Duration

	// Error is the first failure encountered, naming the failing task
	Error error
}

// Count returns how many nodes ended with the given status
func (r *ExecutionResult) Count(status NodeStatus) int {
	n := 0
	for _, nr := range r.NodeResults {
		if nr.Status == status {
			n++
		}
	}
	return n
}

// Sorted returns the node results ordered by task label
func (r *ExecutionResult) Sorted() []*NodeResult {
	out := make([]*NodeResult, 0, len(r.NodeResults))
	for _, nr := range r.NodeResults {
		out = append(out, nr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Task < out[j].Task })
	return out
}

// NodeResult contains the result of a single node execution
type NodeResult struct {
	NodeID    string
	Task      string
	Kind      string
	Status    NodeStatus
	Error     error
	StartTime *time.Time
	EndTime   *time.Time
	Duration  time.Duration
}

// Success reports whether the node's effect is present in the catalog
func (r *NodeResult) Success() bool {
	return r.Status.Satisfied()
}

type satisfyState struct {
	done chan struct{}
	err  error
}

// Executor satisfies the requested nodes of a DAG, running each distinct
// task at most once
type Executor struct {
	dag       *DAG
	config    *ExecutorConfig
	workers   chan struct{}
	runID     string
	results   map[string]*NodeResult
	states    map[string]*satisfyState
	firstErr  error
	mutex     sync.RWMutex
	startTime time.Time
	finished  chan struct{}
}

// NewExecutor creates a new DAG executor
func NewExecutor(dag *DAG, config *ExecutorConfig) *Executor {
	if config == nil {
		config = DefaultExecutorConfig()
	}
	parallel := config.MaxParallelTasks
	if parallel < 1 {
		parallel = 1
	}

	return &Executor{
		dag:      dag,
		config:   config,
		workers:  make(chan struct{}, parallel),
		runID:    uuid.NewString(),
		results:  make(map[string]*NodeResult),
		states:   make(map[string]*satisfyState),
		finished: make(chan struct{}),
	}
}

// Execute satisfies every root of the DAG. The returned error is the first
// task failure (or the cancellation cause); the result is always non-nil.
func (e *Executor) Execute(ctx context.Context) (*ExecutionResult, error) {
	e.startTime = time.Now()
	e.initializeResults()

	if err := e.dag.Validate(); err != nil {
		return e.buildResult(err), err
	}

	roots := e.dag.Roots()
	if len(roots) == 0 {
		err := fmt.Errorf("no tasks requested")
		return e.buildResult(err), err
	}

	if logger.User != nil {
		logger.User.Starting(fmt.Sprintf("Provisioning %d task(s), %d in graph (run %s)", len(roots), e.dag.Size(), e.runID))
	}

	if e.config.ProgressInterval > 0 {
		go e.logProgress()
	}

	e.satisfyAll(ctx, roots)
	close(e.finished)

	e.mutex.RLock()
	err := e.firstErr
	e.mutex.RUnlock()
	if err == nil {
		err = ctx.Err()
	}

	result := e.buildResult(err)
	e.logFinal(result)
	return result, result.Error
}

// satisfyAll satisfies ids, concurrently when parallelism allows
func (e *Executor) satisfyAll(ctx context.Context, ids []string) map[string]error {
	errs := make(map[string]error, len(ids))

	if cap(e.workers) == 1 || len(ids) < 2 {
		for _, id := range ids {
			if err := e.satisfy(ctx, id); err != nil {
				errs[id] = err
			}
		}
		return errs
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if err := e.satisfy(ctx, id); err != nil {
				mu.Lock()
				errs[id] = err
				mu.Unlock()
			}
		}(id)
	}
	wg.Wait()
	return errs
}

// satisfy memoises satisfyNode per node, so a task shared by several
// dependents is checked and run once and every dependent sees the same outcome.
func (e *Executor) satisfy(ctx context.Context, id string) error {
	e.mutex.Lock()
	if st, ok := e.states[id]; ok {
		e.mutex.Unlock()
		<-st.done
		return st.err
	}
	st := &satisfyState{done: make(chan struct{})}
	e.states[id] = st
	e.mutex.Unlock()

	st.err = e.satisfyNode(ctx, id)
	close(st.done)
	return st.err
}

func (e *Executor) satisfyNode(ctx context.Context, id string) error {
	node, err := e.dag.GetNode(id)
	if err != nil {
		return err
	}
	label := node.Label()

	if err := ctx.Err(); err != nil {
		e.setNodeFinished(id, StatusCancelled, err)
		return err
	}

	complete, err := e.checkComplete(ctx, node)
	if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		// Cancelled while waiting for a worker slot.
		e.setNodeFinished(id, StatusCancelled, err)
		return err
	}
	if err != nil {
		e.fail(id, err)
		return fmt.Errorf("completion check of %s failed: %w", label, err)
	}
	if complete {
		// Satisfied at the task level: dependencies are not visited.
		e.setNodeFinished(id, StatusSkipped, nil)
		if logger.User != nil {
			logger.User.Skipf("Already present: %s", label)
		}
		return nil
	}

	deps, err := e.dag.GetDependencies(id)
	if err != nil {
		e.fail(id, err)
		return err
	}

	depErrs := e.satisfyAll(ctx, deps)
	for _, depID := range deps {
		depErr, failed := depErrs[depID]
		if !failed {
			continue
		}
		depNode, _ := e.dag.GetNode(depID)
		cancelErr := caterrors.NewDependencyFailedError(label, depNode.Label(), depErr)
		e.setNodeFinished(id, StatusCancelled, cancelErr)
		if logger.User != nil {
			logger.User.Warnf("Not running %s: dependency %s failed", label, depNode.Label())
		}
		return cancelErr
	}

	if err := ctx.Err(); err != nil {
		e.setNodeFinished(id, StatusCancelled, err)
		return err
	}

	release, err := e.acquireWorker(ctx)
	if err != nil {
		e.setNodeFinished(id, StatusCancelled, err)
		return err
	}

	e.setNodeStarted(id)
	e.opLog(node).Debug("Running task")

	// Once started, a run is allowed to finish even if the invocation is
	// cancelled.
	runErr := node.Task.Run(context.WithoutCancel(ctx))
	release()

	if runErr != nil {
		e.fail(id, runErr)
		if logger.User != nil {
			logger.User.Errorf("Task failed: %s - %s", label, caterrors.DisplayErrorSummary(runErr))
		}
		return fmt.Errorf("task %s failed: %w", label, runErr)
	}

	if e.config.VerifyAfterRun {
		present, err := e.checkComplete(context.WithoutCancel(ctx), node)
		if err == nil && !present {
			err = caterrors.NewNotCompleteAfterRunError(label)
		}
		if err != nil {
			e.fail(id, err)
			return fmt.Errorf("task %s failed: %w", label, err)
		}
	}

	e.setNodeFinished(id, StatusCompleted, nil)
	if logger.User != nil {
		logger.User.Successf("Task completed: %s", label)
	}
	return nil
}

func (e *Executor) checkComplete(ctx context.Context, node *Node) (bool, error) {
	release, err := e.acquireWorker(ctx)
	if err != nil {
		return false, err
	}
	defer release()

	complete, err := node.Task.Complete(ctx)
	e.opLog(node).WithField("complete", complete).Debug("Completion check")
	return complete, err
}

// acquireWorker takes a worker slot, honouring cancellation and TaskTimeout
func (e *Executor) acquireWorker(ctx context.Context) (func(), error) {
	var timeout <-chan time.Time
	if e.config.TaskTimeout > 0 {
		timer := time.NewTimer(e.config.TaskTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case e.workers <- struct{}{}:
		return func() { <-e.workers }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timeout:
		return nil, fmt.Errorf("timed out after %v waiting for a worker slot", e.config.TaskTimeout)
	}
}

func (e *Executor) opLog(node *Node) *logrus.Entry {
	return logger.Op.WithFields(map[string]interface{}{
		"run_id":  e.runID,
		"task":    node.Label(),
		"task_id": node.ID(),
	})
}

// initializeResults creates result entries for all nodes
func (e *Executor) initializeResults() {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	for _, nodeID := range e.dag.GetAllNodes() {
		node, _ := e.dag.GetNode(nodeID)
		e.results[nodeID] = &NodeResult{
			NodeID: nodeID,
			Task:   node.Label(),
			Kind:   node.Identity.Kind,
			Status: StatusPending,
		}
	}
}

func (e *Executor) setNodeStarted(nodeID string) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if result, exists := e.results[nodeID]; exists {
		now := time.Now()
		result.StartTime = &now
		result.Status = StatusRunning
	}
}

func (e *Executor) fail(nodeID string, err error) {
	e.setNodeFinished(nodeID, StatusFailed, err)

	node, _ := e.dag.GetNode(nodeID)
	e.mutex.Lock()
	if e.firstErr == nil {
		e.firstErr = fmt.Errorf("task %s failed: %w", node.Label(), err)
	}
	e.mutex.Unlock()
}

func (e *Executor) setNodeFinished(nodeID string, status NodeStatus, err error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if result, exists := e.results[nodeID]; exists {
		now := time.Now()
		if result.StartTime == nil {
			result.StartTime = &now
		}
		result.EndTime = &now
		result.Status = status
		result.Error = err
		result.Duration = now.Sub(*result.StartTime)
	}
}

// GetProgress returns how many nodes have finished and the total node count
func (e *Executor) GetProgress() (finished, total int) {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	total = len(e.results)
	for _, result := range e.results {
		if result.Status != StatusPending && result.Status != StatusRunning {
			finished++
		}
	}
	return finished, total
}

// buildResult constructs the final execution result
func (e *Executor) buildResult(err error) *ExecutionResult {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	result := &ExecutionResult{
		RunID:         e.runID,
		NodeResults:   make(map[string]*NodeResult, len(e.results)),
		ExecutionTime: time.Since(e.startTime),
		Success:       err == nil,
		Error:         err,
	}

	for nodeID, nodeResult := range e.results {
		resultCopy := *nodeResult
		result.NodeResults[nodeID] = &resultCopy
		if nodeResult.Status == StatusFailed || nodeResult.Status == StatusCancelled {
			result.Success = false
		}
	}

	return result
}

func (e *Executor) logProgress() {
	ticker := time.NewTicker(e.config.ProgressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.finished:
			return
		case <-ticker.C:
			e.printProgress()
		}
	}
}

func (e *Executor) printProgress() {
	finished, total := e.GetProgress()

	e.mutex.RLock()
	var running []string
	for _, result := range e.results {
		if result.Status == StatusRunning {
			running = append(running, result.Task)
		}
	}
	e.mutex.RUnlock()
	sort.Strings(running)

	if logger.User != nil && len(running) > 0 {
		logger.User.Infof("Progress: %d/%d tasks finished, waiting on %s",
			finished, total, strings.Join(running, ", "))
	}
}

func (e *Executor) logFinal(result *ExecutionResult) {
	if logger.User == nil {
		return
	}

	completed := result.Count(StatusCompleted)
	skipped := result.Count(StatusSkipped)
	failed := result.Count(StatusFailed)
	cancelled := result.Count(StatusCancelled)
	elapsed := result.ExecutionTime.Round(time.Millisecond)

	if result.Success {
		logger.User.Successf("Execution completed: %d run, %d already present in %v", completed, skipped, elapsed)
		return
	}
	logger.User.Errorf("Execution failed: %d run, %d already present, %d failed, %d not run in %v",
		completed, skipped, failed, cancelled, elapsed)
}
