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

package calcgraph

import "github.com/vincentzz/nodeengin-sub001/internal/digraph"

// indexes holds the three lookup structures the engine builds once from a
// root CalculationNode, per spec §4.2. All three are immutable once
// buildIndexes returns.
type indexes struct {
	// pathToNode maps every inner and leaf node's absolute path to itself.
	pathToNode map[Path]CalculationNode

	// scopeProvider maps a group path P to: rid -> direct children of P
	// providing rid, i.e. atomic children declaring it in their outputs and
	// child groups whose export scope makes it visible. Len > 1 signals
	// ambiguity.
	scopeProvider map[Path]map[resourceKey][]CalculationNode

	// flywireByTarget maps a group path P to: absolute target connection
	// point -> the flywire, for every static flywire declared on P.
	flywireByTarget map[Path]map[connectionPointKey]Flywire

	// staticFlywireCycle records a flywire-induced dependency cycle found
	// at construction time, if any. It is purely diagnostic: per spec
	// §8 property 4, the engine constructor itself never rejects cycles.
	staticFlywireCycle []Path
}

// buildIndexes performs one depth-first walk of root and populates the
// three indexes. The root's own name is used to synthesise its absolute
// path ("/" + root.Name()).
func buildIndexes(root CalculationNode) *indexes {
	idx := &indexes{
		pathToNode:      make(map[Path]CalculationNode),
		scopeProvider:   make(map[Path]map[resourceKey][]CalculationNode),
		flywireByTarget: make(map[Path]map[connectionPointKey]Flywire),
	}
	rootPath := Path("/" + root.Name())
	idx.walk(root, rootPath)
	idx.staticFlywireCycle = idx.detectStaticFlywireCycle()
	return idx
}

// detectStaticFlywireCycle builds a directed graph over node paths, one
// edge per flywire from target node path to source node path, and looks
// for a cycle. The tree itself has no back-edges (spec §9), so a cycle
// here can only be introduced by the flywires layered on top of it.
func (idx *indexes) detectStaticFlywireCycle() []Path {
	g := digraph.New[Path]()
	any := false
	for _, byTarget := range idx.flywireByTarget {
		for _, fw := range byTarget {
			g.AddEdge(fw.Target.NodePath, fw.Source.NodePath)
			any = true
		}
	}
	if !any {
		return nil
	}
	cycle, ok := g.DetectCycle()
	if !ok {
		return nil
	}
	return cycle
}

func (idx *indexes) walk(n CalculationNode, p Path) {
	idx.pathToNode[p] = n

	group, ok := n.(*NodeGroup)
	if !ok {
		return
	}

	providers := make(map[resourceKey][]CalculationNode)
	for _, child := range group.children {
		if atomic, ok := child.(AtomicNode); ok {
			for _, out := range atomic.Outputs() {
				k := ridKey(out)
				providers[k] = append(providers[k], child)
			}
			continue
		}
		if childGroup, ok := child.(*NodeGroup); ok {
			for rid := range idx.visibleExports(childGroup, p.Child(child.Name())) {
				providers[rid] = append(providers[rid], child)
			}
		}
	}
	idx.scopeProvider[p] = providers

	flywires := make(map[connectionPointKey]Flywire)
	for _, fw := range group.flywires {
		abs := Flywire{
			Source: fw.Source.ToAbsolute(p),
			Target: fw.Target.ToAbsolute(p),
		}
		flywires[abs.Target.Key()] = abs
	}
	idx.flywireByTarget[p] = flywires

	for _, child := range group.children {
		idx.walk(child, p.Child(child.Name()))
	}
}

// visibleExports returns the set of resource ids (by key) that a group
// exposes to its parent's scope-provider index, honoring the group's own
// export Scope over the union of its descendants' outputs.
func (idx *indexes) visibleExports(group *NodeGroup, groupPath Path) map[resourceKey]struct{} {
	produced := map[resourceKey]ConnectionPoint{}
	idx.collectDescendantOutputs(group, groupPath, produced)

	visible := make(map[resourceKey]struct{})
	for k, cp := range produced {
		if group.exports.Visible(cp) {
			visible[k] = struct{}{}
		}
	}
	return visible
}

func (idx *indexes) collectDescendantOutputs(n CalculationNode, p Path, out map[resourceKey]ConnectionPoint) {
	switch node := n.(type) {
	case AtomicNode:
		for _, rid := range node.Outputs() {
			out[ridKey(rid)] = ConnectionPoint{NodePath: p, RID: rid}
		}
	case *NodeGroup:
		for _, child := range node.children {
			idx.collectDescendantOutputs(child, p.Child(child.Name()), out)
		}
	}
}

// node returns the node at the given absolute path.
func (idx *indexes) node(p Path) (CalculationNode, bool) {
	n, ok := idx.pathToNode[p]
	return n, ok
}

// providers returns the direct children of group path p that declare rid,
// via p's export-aware scope-provider index.
func (idx *indexes) providers(p Path, rid ResourceIdentifier) []CalculationNode {
	return idx.scopeProvider[p][ridKey(rid)]
}

// flywireFor returns the static flywire targeting cp (already absolute),
// if one is declared on the group at parentPath.
func (idx *indexes) flywireFor(parentPath Path, cp ConnectionPoint) (Flywire, bool) {
	fw, ok := idx.flywireByTarget[parentPath][cp.Key()]
	return fw, ok
}
