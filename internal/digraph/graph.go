// Copyright (c) 2017 Uber Technologies, Inc.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Package digraph is a small generically-keyed directed graph used for
// static diagnostics over a node tree's declared wiring, as opposed to
// the dynamic, per-evaluation cycle detection the engine itself performs
// on its atomic-node call stack.
package digraph

// Graph is a directed graph over any comparable key type. The zero value
// is not usable; construct with New.
type Graph[K comparable] struct {
	edges map[K][]K
	nodes map[K]struct{}
	order []K
}

// New builds an empty graph.
func New[K comparable]() *Graph[K] {
	return &Graph[K]{
		edges: make(map[K][]K),
		nodes: make(map[K]struct{}),
	}
}

// AddEdge records a directed edge from -> to. Both endpoints are added as
// nodes even if one has no further edges.
func (g *Graph[K]) AddEdge(from, to K) {
	g.insert(from)
	g.insert(to)
	g.edges[from] = append(g.edges[from], to)
}

func (g *Graph[K]) insert(n K) {
	if _, ok := g.nodes[n]; ok {
		return
	}
	g.nodes[n] = struct{}{}
	g.order = append(g.order, n)
}

type visitState int

const (
	unvisited visitState = iota
	visiting
	done
)

// DetectCycle runs a depth-first search over every node and returns the
// first cycle found as an ordered path of keys (the repeated key appears
// at both ends), or ok=false if the graph is acyclic. Iteration order
// over nodes without incoming structure is the order edges were first
// added, so the result is deterministic for a fixed sequence of AddEdge
// calls.
func (g *Graph[K]) DetectCycle() (cycle []K, ok bool) {
	state := make(map[K]visitState, len(g.nodes))
	var stack []K

	var visit func(n K) []K
	visit = func(n K) []K {
		state[n] = visiting
		stack = append(stack, n)
		for _, next := range g.edges[n] {
			switch state[next] {
			case visiting:
				start := indexOf(stack, next)
				path := append([]K(nil), stack[start:]...)
				return append(path, next)
			case unvisited:
				if found := visit(next); found != nil {
					return found
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[n] = done
		return nil
	}

	for _, n := range g.order {
		if state[n] == unvisited {
			if found := visit(n); found != nil {
				return found, true
			}
		}
	}
	return nil, false
}

func indexOf[K comparable](s []K, v K) int {
	for i, e := range s {
		if e == v {
			return i
		}
	}
	return -1
}
