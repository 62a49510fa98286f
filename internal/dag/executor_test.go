package dag

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildRetrievalGraph(t *testing.T) *Graph {
	t.Helper()
	g := New()
	for _, id := range []string{"time", "height", "temperature", "wind", "rh"} {
		g.AddNode(id)
	}
	for _, coord := range []string{"time", "height"} {
		for _, v := range []string{"temperature", "wind", "rh"} {
			require.NoError(t, g.AddEdge(coord, v))
		}
	}
	return g
}

func TestExecutor_RunsDependenciesFirst(t *testing.T) {
	g := buildRetrievalGraph(t)

	var mu sync.Mutex
	finished := make(map[string]bool)
	fn := func(ctx context.Context, id string) error {
		mu.Lock()
		defer mu.Unlock()
		deps, err := g.Dependencies(id)
		if err != nil {
			return err
		}
		for _, d := range deps {
			if !finished[d] {
				return errors.New(id + " ran before " + d)
			}
		}
		finished[id] = true
		return nil
	}

	e := NewExecutor(g, 4, fn)
	require.NoError(t, e.Run(context.Background()))
	assert.Len(t, finished, 5)
	for _, id := range g.Nodes() {
		assert.Equal(t, Done, e.State(id), id)
	}
}

func TestExecutor_FailureSkipsDependents(t *testing.T) {
	g := buildRetrievalGraph(t)
	boom := errors.New("no input matched coord 'height'")

	var ran atomic.Int32
	fn := func(ctx context.Context, id string) error {
		ran.Add(1)
		if id == "height" {
			return boom
		}
		return nil
	}

	e := NewExecutor(g, 2, fn)
	err := e.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "execution failed for height")

	assert.Equal(t, Failed, e.State("height"))
	for _, id := range []string{"temperature", "wind", "rh"} {
		assert.Equal(t, Skipped, e.State(id), id)
	}
	assert.LessOrEqual(t, ran.Load(), int32(2), "only the coordinates may run")
}

func TestExecutor_ContextCanceled(t *testing.T) {
	g := buildRetrievalGraph(t)
	ctx, cancel := context.WithCancel(context.Background())

	fn := func(ctx context.Context, id string) error {
		if id == "time" || id == "height" {
			cancel()
		}
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- NewExecutor(g, 1, fn).Run(ctx) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("executor did not return after cancellation")
	}
}

func TestExecutor_RejectsCycles(t *testing.T) {
	g := New()
	g.AddNode("a")
	g.AddNode("b")
	require.NoError(t, g.AddEdge("a", "b"))
	require.NoError(t, g.AddEdge("b", "a"))

	err := NewExecutor(g, 1, func(context.Context, string) error { return nil }).Run(context.Background())
	assert.ErrorContains(t, err, "cycle detected")
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "skipped", Skipped.String())
	assert.Equal(t, "unknown", State(42).String())
}
