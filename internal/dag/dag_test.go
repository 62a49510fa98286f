package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	g := New()
	require.NotNil(t, g)
	assert.Empty(t, g.nodes)
	assert.Empty(t, g.Nodes())
}

func TestAddNode(t *testing.T) {
	g := New()

	g.AddNode("time")
	g.AddNode("time")
	g.AddNode("temperature")

	assert.Equal(t, []string{"time", "temperature"}, g.Nodes(), "duplicates are ignored and order is kept")
}

func TestAddEdge(t *testing.T) {
	t.Run("success case", func(t *testing.T) {
		g := New()
		g.AddNode("time")
		g.AddNode("temperature")
		g.AddNode("humidity")

		require.NoError(t, g.AddEdge("time", "temperature"))
		require.NoError(t, g.AddEdge("time", "humidity"))

		deps, err := g.Dependencies("temperature")
		require.NoError(t, err)
		assert.Equal(t, []string{"time"}, deps)

		dependents, err := g.Dependents("time")
		require.NoError(t, err)
		assert.Equal(t, []string{"humidity", "temperature"}, dependents)
	})

	t.Run("error cases", func(t *testing.T) {
		g := New()
		g.AddNode("time")

		assert.ErrorContains(t, g.AddEdge("dne", "time"), "source node not found")
		assert.ErrorContains(t, g.AddEdge("time", "dne"), "destination node not found")
		assert.ErrorContains(t, g.AddEdge("time", "time"), "self-referential edge")

		_, err := g.Dependencies("dne")
		assert.Error(t, err)
		_, err = g.Dependents("dne")
		assert.Error(t, err)
	})
}

func TestDetectCycles(t *testing.T) {
	t.Run("empty graph has no cycles", func(t *testing.T) {
		assert.NoError(t, New().DetectCycles())
	})

	t.Run("coords feeding data vars", func(t *testing.T) {
		g := New()
		for _, id := range []string{"time", "height", "temperature", "wind"} {
			g.AddNode(id)
		}
		require.NoError(t, g.AddEdge("time", "temperature"))
		require.NoError(t, g.AddEdge("height", "temperature"))
		require.NoError(t, g.AddEdge("time", "wind"))
		assert.NoError(t, g.DetectCycles())
	})

	t.Run("direct cycle is detected", func(t *testing.T) {
		g := New()
		g.AddNode("a")
		g.AddNode("b")
		require.NoError(t, g.AddEdge("a", "b"))
		require.NoError(t, g.AddEdge("b", "a"))
		assert.ErrorContains(t, g.DetectCycles(), "cycle detected")
	})

	t.Run("cycle in a disjoint component is detected", func(t *testing.T) {
		g := New()
		g.AddNode("a")
		g.AddNode("b")
		require.NoError(t, g.AddEdge("a", "b"))

		g.AddNode("x")
		g.AddNode("y")
		g.AddNode("z")
		require.NoError(t, g.AddEdge("x", "y"))
		require.NoError(t, g.AddEdge("y", "z"))
		require.NoError(t, g.AddEdge("z", "y"))
		assert.ErrorContains(t, g.DetectCycles(), "cycle detected")
	})
}
