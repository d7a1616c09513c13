// Package dag implements a small directed acyclic graph with insertion-ordered vertices and edges.
package dag

import (
	"errors"
	"iter"
	"slices"
)

var (
	ErrEdgeAlreadyExists = errors.New("edge already exists")
	ErrCycleDetected     = errors.New("cycle detected")
	ErrVertexNotFound    = errors.New("vertex not found")
)

type DAG[ID comparable, T any] struct {
	order    []ID
	vertices map[ID]T
	out      map[ID][]ID
	in       map[ID][]ID
}

func New[ID comparable, T any]() *DAG[ID, T] {
	return &DAG[ID, T]{
		vertices: make(map[ID]T),
		out:      make(map[ID][]ID),
		in:       make(map[ID][]ID),
	}
}

// EdgeCount returns the total number of edges in the DAG
func (d *DAG[ID, T]) EdgeCount() int {
	count := 0
	for _, targets := range d.out {
		count += len(targets)
	}
	return count
}

func (d *DAG[ID, T]) VertexExists(id ID) bool {
	_, exists := d.vertices[id]
	return exists
}

func (d *DAG[ID, T]) EdgeExists(source, target ID) bool {
	return slices.Contains(d.out[source], target)
}

func (d *DAG[ID, T]) GetVertex(id ID) (T, bool) {
	val, exists := d.vertices[id]
	return val, exists
}

// AddVertexIfNotExist adds a vertex. An existing vertex keeps its value.
func (d *DAG[ID, T]) AddVertexIfNotExist(id ID, v T) {
	if d.VertexExists(id) {
		return
	}
	d.vertices[id] = v
	d.order = append(d.order, id)
}

// AddEdge adds an edge from source to target. The graph is left unchanged when the edge
// would close a cycle.
func (d *DAG[ID, T]) AddEdge(source, target ID) error {
	if !d.VertexExists(source) || !d.VertexExists(target) {
		return ErrVertexNotFound
	}
	if d.EdgeExists(source, target) {
		return ErrEdgeAlreadyExists
	}
	if source == target || d.reaches(target, source) {
		return ErrCycleDetected
	}

	d.out[source] = append(d.out[source], target)
	d.in[target] = append(d.in[target], source)
	return nil
}

// OutEdges returns the targets of edges leaving id, in insertion order.
func (d *DAG[ID, T]) OutEdges(id ID) []ID {
	return slices.Clone(d.out[id])
}

// Sink follows the first outgoing edge from id until a vertex without outgoing edges is reached.
func (d *DAG[ID, T]) Sink(id ID) ID {
	for {
		next := d.out[id]
		if len(next) == 0 {
			return id
		}
		id = next[0]
	}
}

// Vertices iterates over vertices in insertion order.
func (d *DAG[ID, T]) Vertices() iter.Seq2[ID, T] {
	return func(yield func(ID, T) bool) {
		for _, id := range d.order {
			if !yield(id, d.vertices[id]) {
				return
			}
		}
	}
}

// TopologicalOrder iterates over vertices so that every edge source comes before its target.
// Ties are broken by insertion order.
func (d *DAG[ID, T]) TopologicalOrder() iter.Seq2[ID, T] {
	inDegree := make(map[ID]int, len(d.vertices))
	for id, sources := range d.in {
		inDegree[id] = len(sources)
	}

	var queue []ID
	for _, id := range d.order {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	return func(yield func(ID, T) bool) {
		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]

			if !yield(current, d.vertices[current]) {
				return
			}

			for _, neighbor := range d.out[current] {
				inDegree[neighbor]--
				if inDegree[neighbor] == 0 {
					queue = append(queue, neighbor)
				}
			}
		}
	}
}

func (d *DAG[ID, T]) reaches(from, to ID) bool {
	visited := map[ID]bool{}
	stack := []ID{from}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if current == to {
			return true
		}
		if visited[current] {
			continue
		}
		visited[current] = true
		stack = append(stack, d.out[current]...)
	}

	return false
}
