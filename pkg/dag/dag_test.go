package dag_test

import (
	"testing"

	"github.com/darkjune/eclipse/pkg/dag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect[ID comparable, T any](d *dag.DAG[ID, T]) []ID {
	var ids []ID
	for id := range d.TopologicalOrder() {
		ids = append(ids, id)
	}
	return ids
}

func TestNew(t *testing.T) {
	t.Parallel()

	d := dag.New[string, int]()
	assert.NotNil(t, d)
	assert.Equal(t, 0, d.EdgeCount())
}

func TestAddVertexIfNotExist(t *testing.T) {
	t.Parallel()

	t.Run("does not change existing vertex", func(t *testing.T) {
		t.Parallel()
		d := dag.New[string, int]()

		d.AddVertexIfNotExist("A", 1)
		d.AddVertexIfNotExist("A", 999)

		val, exists := d.GetVertex("A")
		assert.True(t, exists)
		assert.Equal(t, 1, val)
	})

	t.Run("keeps insertion order", func(t *testing.T) {
		t.Parallel()
		d := dag.New[string, int]()

		d.AddVertexIfNotExist("B", 2)
		d.AddVertexIfNotExist("A", 1)

		var ids []string
		for id := range d.Vertices() {
			ids = append(ids, id)
		}
		assert.Equal(t, []string{"B", "A"}, ids)
	})
}

func TestAddEdge(t *testing.T) {
	t.Parallel()

	t.Run("adds edge between existing vertices", func(t *testing.T) {
		t.Parallel()
		d := dag.New[string, int]()
		d.AddVertexIfNotExist("A", 1)
		d.AddVertexIfNotExist("B", 2)

		require.NoError(t, d.AddEdge("A", "B"))
		assert.True(t, d.EdgeExists("A", "B"))
		assert.False(t, d.EdgeExists("B", "A"))
		assert.Equal(t, []string{"B"}, d.OutEdges("A"))
		assert.Equal(t, 1, d.EdgeCount())
	})

	t.Run("when vertex is missing", func(t *testing.T) {
		t.Parallel()
		d := dag.New[string, int]()
		d.AddVertexIfNotExist("A", 1)

		assert.ErrorIs(t, d.AddEdge("A", "B"), dag.ErrVertexNotFound)
	})

	t.Run("when edge exists", func(t *testing.T) {
		t.Parallel()
		d := dag.New[string, int]()
		d.AddVertexIfNotExist("A", 1)
		d.AddVertexIfNotExist("B", 2)

		require.NoError(t, d.AddEdge("A", "B"))
		assert.ErrorIs(t, d.AddEdge("A", "B"), dag.ErrEdgeAlreadyExists)
	})

	t.Run("rejects cycles", func(t *testing.T) {
		t.Parallel()
		d := dag.New[string, int]()
		d.AddVertexIfNotExist("A", 1)
		d.AddVertexIfNotExist("B", 2)
		d.AddVertexIfNotExist("C", 3)

		require.NoError(t, d.AddEdge("A", "B"))
		require.NoError(t, d.AddEdge("B", "C"))

		assert.ErrorIs(t, d.AddEdge("C", "A"), dag.ErrCycleDetected)
		assert.ErrorIs(t, d.AddEdge("A", "A"), dag.ErrCycleDetected)
		assert.False(t, d.EdgeExists("C", "A"))
		assert.Equal(t, 2, d.EdgeCount())
	})
}

func TestSink(t *testing.T) {
	t.Parallel()

	d := dag.New[string, int]()
	for _, id := range []string{"A", "B", "C", "D"} {
		d.AddVertexIfNotExist(id, 0)
	}
	require.NoError(t, d.AddEdge("A", "B"))
	require.NoError(t, d.AddEdge("B", "C"))

	assert.Equal(t, "C", d.Sink("A"))
	assert.Equal(t, "C", d.Sink("C"))
	assert.Equal(t, "D", d.Sink("D"))
	assert.Equal(t, "missing", d.Sink("missing"))
}

func TestTopologicalOrder(t *testing.T) {
	t.Parallel()

	t.Run("sources come first", func(t *testing.T) {
		t.Parallel()
		d := dag.New[string, int]()
		d.AddVertexIfNotExist("C", 3)
		d.AddVertexIfNotExist("B", 2)
		d.AddVertexIfNotExist("A", 1)
		require.NoError(t, d.AddEdge("A", "B"))
		require.NoError(t, d.AddEdge("B", "C"))

		assert.Equal(t, []string{"A", "B", "C"}, collect(d))
	})

	t.Run("ties keep insertion order", func(t *testing.T) {
		t.Parallel()
		d := dag.New[string, int]()
		d.AddVertexIfNotExist("X", 0)
		d.AddVertexIfNotExist("Y", 0)
		d.AddVertexIfNotExist("Z", 0)

		assert.Equal(t, []string{"X", "Y", "Z"}, collect(d))
	})

	t.Run("stops when yield returns false", func(t *testing.T) {
		t.Parallel()
		d := dag.New[string, int]()
		d.AddVertexIfNotExist("X", 0)
		d.AddVertexIfNotExist("Y", 0)

		count := 0
		for range d.TopologicalOrder() {
			count++
			break
		}
		assert.Equal(t, 1, count)
	})
}
