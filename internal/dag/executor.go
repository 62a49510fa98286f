package dag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/vk/tsdat/internal/ctxlog"
)

// ErrSkipped marks nodes that did not run because something upstream failed.
var ErrSkipped = errors.New("skipped")

// TaskFunc is the work performed for a single node.
type TaskFunc func(ctx context.Context, id string) error

// Executor runs a TaskFunc for every node of a Graph, respecting dependencies.
type Executor struct {
	graph      *Graph
	numWorkers int
	fn         TaskFunc

	wg    sync.WaitGroup
	tasks map[string]*task
}

// NewExecutor creates an executor with the given number of workers. A
// non-positive worker count runs one worker.
func NewExecutor(g *Graph, workers int, fn TaskFunc) *Executor {
	if workers < 1 {
		workers = 1
	}
	return &Executor{graph: g, numWorkers: workers, fn: fn}
}

// State returns the state a node reached in the last run.
func (e *Executor) State(id string) State {
	t, ok := e.tasks[id]
	if !ok {
		return Pending
	}
	return State(t.state.Load())
}

// Run executes the entire graph concurrently and returns an error if any node fails.
// It respects the cancellation signal from the provided context.
func (e *Executor) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	if err := e.graph.DetectCycles(); err != nil {
		return err
	}

	order := e.graph.Nodes()
	e.tasks = make(map[string]*task, len(order))
	for _, id := range order {
		e.tasks[id] = &task{id: id}
	}
	for _, id := range order {
		deps, _ := e.graph.Dependencies(id)
		e.tasks[id].depCount.Store(int32(len(deps)))
		for _, dep := range deps {
			e.tasks[dep].dependents = append(e.tasks[dep].dependents, e.tasks[id])
		}
	}

	readyChan := make(chan *task, len(order))
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	rootCount := 0
	for _, id := range order {
		if t := e.tasks[id]; t.depCount.Load() == 0 {
			readyChan <- t
			rootCount++
		}
	}
	logger.Debug("Found all root nodes.", "count", rootCount, "nodes", len(order))

	e.wg.Add(len(order))
	for i := 0; i < e.numWorkers; i++ {
		go e.worker(runCtx, readyChan, cancel, i)
	}
	e.wg.Wait()
	close(readyChan)

	var failed []string
	var rootCause error
	for _, id := range order {
		t := e.tasks[id]
		if State(t.state.Load()) != Failed {
			continue
		}
		logger.Error("Node failed execution.", "nodeID", id, "error", t.err)
		failed = append(failed, id)
		if rootCause == nil {
			rootCause = t.err
		}
	}
	if rootCause != nil {
		return fmt.Errorf("execution failed for %s: %w", strings.Join(failed, ", "), rootCause)
	}
	return ctx.Err()
}

// finish records a terminal state for t exactly once.
func (e *Executor) finish(t *task, s State, err error) bool {
	done := false
	t.finishOnce.Do(func() {
		t.state.Store(int32(s))
		t.err = err
		e.wg.Done()
		done = true
	})
	return done
}

// skipDependents recursively marks all downstream nodes as skipped.
func (e *Executor) skipDependents(ctx context.Context, t *task) {
	logger := ctxlog.FromContext(ctx)
	for _, dependent := range t.dependents {
		if e.finish(dependent, Skipped, fmt.Errorf("%w due to upstream failure of '%s'", ErrSkipped, t.id)) {
			logger.Warn("Skipping dependent node due to upstream failure.", "nodeID", dependent.id, "dependency", t.id)
			e.skipDependents(ctx, dependent)
		}
	}
}

// worker is the core processing loop for a single concurrent worker.
func (e *Executor) worker(ctx context.Context, readyChan chan *task, cancel context.CancelFunc, workerID int) {
	logger := ctxlog.FromContext(ctx)

	for t := range readyChan {
		workerLogger := logger.With("workerID", workerID, "nodeID", t.id)

		if ctx.Err() != nil {
			if e.finish(t, Skipped, ctx.Err()) {
				workerLogger.Warn("Context canceled, skipping node execution.")
				e.skipDependents(ctx, t)
			}
			continue
		}

		workerLogger.Debug("Worker picked up node for execution.")
		t.state.Store(int32(Running))

		if err := e.fn(ctxlog.WithLogger(ctx, workerLogger), t.id); err != nil {
			workerLogger.Error("Node execution failed.", "error", err)
			e.finish(t, Failed, err)
			cancel()
			e.skipDependents(ctx, t)
			continue
		}

		workerLogger.Debug("Node execution succeeded.")
		// Unlock dependents before finishing; the wait group must stay above
		// zero while work is still being queued.
		for _, dependent := range t.dependents {
			if dependent.depCount.Add(-1) == 0 {
				workerLogger.Debug("Unlocking dependent node.", "dependentID", dependent.id)
				readyChan <- dependent
			}
		}
		e.finish(t, Done, nil)
	}
}
