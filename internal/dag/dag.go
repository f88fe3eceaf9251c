// SPDX-License-Identifier: MPL-2.0

// Package dag provides directed acyclic graph operations for topological sorting
// and cycle detection. It is used by the module graph builder to order C++
// module interface units so that every unit is compiled after the units it
// imports.
package dag

import (
	"container/heap"
	"fmt"
	"slices"
	"strings"
)

type (
	// CycleError indicates that the graph contains a cycle, preventing topological ordering.
	CycleError struct {
		// Cycle is a closed path through the graph: the first node is repeated
		// at the end (e.g. [a b a]).
		Cycle []string
	}

	// Graph is a directed graph for topological sorting.
	// Nodes are identified by string keys. Edges represent "must come before" relationships:
	// an edge from A to B means A must be processed before B.
	Graph struct {
		// adjacency maps each node to its outgoing neighbors (nodes that depend on it).
		adjacency map[string][]string
		// nodes tracks all nodes in insertion order for deterministic output.
		nodes []string
		// index maps a node to its insertion position.
		index map[string]int
	}

	// readyQueue is a min-heap of insertion indices.
	readyQueue []int
)

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Cycle, " -> "))
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		adjacency: make(map[string][]string),
		index:     make(map[string]int),
	}
}

// AddNode adds a node to the graph. If the node already exists, this is a no-op.
func (g *Graph) AddNode(name string) {
	if _, ok := g.index[name]; ok {
		return
	}
	g.index[name] = len(g.nodes)
	g.nodes = append(g.nodes, name)
}

// AddEdge adds a directed edge from -> to, meaning "from" must come before "to".
// Both nodes are implicitly added if they don't exist. Duplicate edges are ignored.
func (g *Graph) AddEdge(from, to string) {
	g.AddNode(from)
	g.AddNode(to)
	if slices.Contains(g.adjacency[from], to) {
		return
	}
	g.adjacency[from] = append(g.adjacency[from], to)
}

// Has reports whether name is a node of the graph.
func (g *Graph) Has(name string) bool {
	_, ok := g.index[name]
	return ok
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// TopologicalSort returns a valid order using Kahn's algorithm.
// Returns CycleError if the graph contains a cycle.
// The returned order is deterministic: whenever several nodes are ready, the
// one added to the graph first is emitted first.
func (g *Graph) TopologicalSort() ([]string, error) {
	if len(g.nodes) == 0 {
		return nil, nil
	}

	inDegree := make([]int, len(g.nodes))
	for _, neighbors := range g.adjacency {
		for _, neighbor := range neighbors {
			inDegree[g.index[neighbor]]++
		}
	}

	ready := &readyQueue{}
	for i := range g.nodes {
		if inDegree[i] == 0 {
			heap.Push(ready, i)
		}
	}

	result := make([]string, 0, len(g.nodes))
	for ready.Len() > 0 {
		i := heap.Pop(ready).(int)
		node := g.nodes[i]
		result = append(result, node)

		for _, neighbor := range g.adjacency[node] {
			j := g.index[neighbor]
			inDegree[j]--
			if inDegree[j] == 0 {
				heap.Push(ready, j)
			}
		}
	}

	if len(result) != len(g.nodes) {
		return nil, &CycleError{Cycle: g.findCycle(inDegree)}
	}
	return result, nil
}

// findCycle walks the nodes Kahn's algorithm could not release and returns one
// closed path among them. Every such node has a remaining predecessor that is
// also unreleased, so following predecessors must revisit a node.
func (g *Graph) findCycle(inDegree []int) []string {
	stuck := make(map[string]bool)
	for i, node := range g.nodes {
		if inDegree[i] > 0 {
			stuck[node] = true
		}
	}

	// Depth-first search over outgoing edges restricted to stuck nodes.
	const (
		unvisited = iota
		onStack
		done
	)
	state := make(map[string]int, len(stuck))
	var stack []string
	var cycle []string

	var visit func(node string) bool
	visit = func(node string) bool {
		state[node] = onStack
		stack = append(stack, node)
		for _, next := range g.adjacency[node] {
			if !stuck[next] {
				continue
			}
			switch state[next] {
			case onStack:
				start := slices.Index(stack, next)
				cycle = append(slices.Clone(stack[start:]), next)
				return true
			case unvisited:
				if visit(next) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[node] = done
		return false
	}

	for _, node := range g.nodes {
		if stuck[node] && state[node] == unvisited {
			if visit(node) {
				return cycle
			}
		}
	}

	// Unreachable for a well-formed graph; fall back to listing the stuck nodes.
	var rest []string
	for _, node := range g.nodes {
		if stuck[node] {
			rest = append(rest, node)
		}
	}
	return rest
}

func (q readyQueue) Len() int           { return len(q) }
func (q readyQueue) Less(i, j int) bool { return q[i] < q[j] }
func (q readyQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }

func (q *readyQueue) Push(x any) { *q = append(*q, x.(int)) }

func (q *readyQueue) Pop() any {
	old := *q
	n := len(old)
	x := old[n-1]
	*q = old[:n-1]
	return x
}
