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

import "fmt"

// NodeBuilder is the mutable mirror of the immutable CalculationNode tree
// that editors splice. ToNode projects the builder's current state into a
// fresh immutable node; the builder itself is never consumed by an engine.
type NodeBuilder interface {
	Name() string
	ToNode() CalculationNode

	isNodeBuilder()
}

// FromNode mirrors an immutable tree into a fresh, independent builder
// tree.
func FromNode(n CalculationNode) NodeBuilder {
	switch node := n.(type) {
	case AtomicNode:
		return &AtomicNodeBuilder{node: node}
	case *NodeGroup:
		gb := &NodeGroupBuilder{
			name:     node.Name(),
			cells:    make(map[string]*childCell),
			order:    nil,
			flywires: append([]Flywire(nil), node.Flywires()...),
			exports:  node.Exports(),
		}
		for _, child := range node.Children() {
			gb.insertCell(child.Name(), FromNode(child))
		}
		return gb
	default:
		panic(fmt.Sprintf("calcgraph: unrecognised node kind %T", n))
	}
}

// AtomicNodeBuilder wraps an AtomicNode unchanged; atomic nodes have no
// internal structure for an editor to splice.
type AtomicNodeBuilder struct {
	node AtomicNode
}

func (b *AtomicNodeBuilder) isNodeBuilder() {}

// Name returns the wrapped node's name.
func (b *AtomicNodeBuilder) Name() string { return b.node.Name() }

// ToNode returns the wrapped AtomicNode as-is.
func (b *AtomicNodeBuilder) ToNode() CalculationNode { return b.node }

// AtomicNode returns the underlying immutable AtomicNode.
func (b *AtomicNodeBuilder) AtomicNode() AtomicNode { return b.node }

// childCell is the interior-mutable cell that gives a child builder a
// stable identity across sibling mutations: add_flywire, delete_flywire,
// set_exports, and any add_node/delete_nodes that do not touch this
// particular child never replace the cell, only (when relevant) its
// contents.
type childCell struct {
	builder NodeBuilder
}

// NodeGroupBuilder is the mutable mirror of a NodeGroup: a live graph of
// child builder cells, a flywire set, and an export scope.
type NodeGroupBuilder struct {
	name     string
	cells    map[string]*childCell
	order    []string
	flywires []Flywire
	exports  Scope
}

func (b *NodeGroupBuilder) isNodeBuilder() {}

// Name returns the group's name.
func (b *NodeGroupBuilder) Name() string { return b.name }

func (b *NodeGroupBuilder) insertCell(name string, nb NodeBuilder) {
	b.cells[name] = &childCell{builder: nb}
	b.order = append(b.order, name)
}

// Nodes returns a snapshot of the group's current children, projected to
// immutable CalculationNodes.
func (b *NodeGroupBuilder) Nodes() []CalculationNode {
	out := make([]CalculationNode, 0, len(b.order))
	for _, name := range b.order {
		out = append(out, b.cells[name].builder.ToNode())
	}
	return out
}

// GetChildBuilder returns the same NodeBuilder reference across calls for
// a given name, even after sibling mutations, so editors can hold
// long-lived child handles (spec §8 property 8).
func (b *NodeGroupBuilder) GetChildBuilder(name string) (NodeBuilder, bool) {
	cell, ok := b.cells[name]
	if !ok {
		return nil, false
	}
	return cell.builder, true
}

// AddNode adds a new child built fresh from an immutable node. It returns
// an error if a child with that name already exists.
func (b *NodeGroupBuilder) AddNode(n CalculationNode) error {
	if _, exists := b.cells[n.Name()]; exists {
		return ArgumentError{Message: fmt.Sprintf("child %q already exists in group %q", n.Name(), b.name)}
	}
	b.insertCell(n.Name(), FromNode(n))
	return nil
}

// DeleteNodes removes the named children. Any flywire with exactly one
// endpoint among the removed children is also removed and returned to the
// caller as a cross-boundary flywire so an editor can offer recreation;
// flywires with both endpoints among the removed children are discarded
// silently, since both sides vanish together.
func (b *NodeGroupBuilder) DeleteNodes(names []string) (crossBoundary []Flywire) {
	removed := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, ok := b.cells[name]; ok {
			delete(b.cells, name)
			removed[name] = struct{}{}
		}
	}
	if len(removed) == 0 {
		return nil
	}

	newOrder := b.order[:0:0]
	for _, name := range b.order {
		if _, gone := removed[name]; !gone {
			newOrder = append(newOrder, name)
		}
	}
	b.order = newOrder

	var kept []Flywire
	for _, fw := range b.flywires {
		_, srcGone := removed[fw.Source.NodePath.Name()]
		_, tgtGone := removed[fw.Target.NodePath.Name()]
		switch {
		case srcGone && tgtGone:
			// both sides vanished together; nothing to report.
		case srcGone || tgtGone:
			crossBoundary = append(crossBoundary, fw)
		default:
			kept = append(kept, fw)
		}
	}
	b.flywires = kept
	return crossBoundary
}

// Flywires returns a defensive copy of the group's current static
// flywires.
func (b *NodeGroupBuilder) Flywires() []Flywire {
	return append([]Flywire(nil), b.flywires...)
}

// AddFlywire checks source/target resource-id compatibility and appends
// the flywire; on a FlywireTypeError the builder is left unchanged.
func (b *NodeGroupBuilder) AddFlywire(fw Flywire) error {
	if !ridCompatible(fw.Source.RID, fw.Target.RID) {
		return FlywireTypeError{Flywire: fw}
	}
	b.flywires = append(b.flywires, fw)
	return nil
}

// DeleteFlywire removes the first flywire equal to fw, if present.
func (b *NodeGroupBuilder) DeleteFlywire(fw Flywire) {
	for i, existing := range b.flywires {
		if existing == fw {
			b.flywires = append(b.flywires[:i], b.flywires[i+1:]...)
			return
		}
	}
}

// GetExports returns the group's current export scope.
func (b *NodeGroupBuilder) GetExports() Scope { return b.exports }

// SetExports replaces the group's export scope.
func (b *NodeGroupBuilder) SetExports(s Scope) { b.exports = s }

// ToNode projects the builder's current state into a fresh immutable
// NodeGroup.
func (b *NodeGroupBuilder) ToNode() CalculationNode {
	return NewNodeGroup(b.name, b.Nodes(), b.flywires, b.exports)
}

// ridCompatible reports whether two resource identifiers are shaped
// compatibly enough for a flywire to connect them. calcgraph has no
// user-level type system for resources beyond the identifier's own Go
// type, so compatibility means "same concrete Go type", the minimum bar
// spec §3 names ("identical RID shape at minimum").
func ridCompatible(a, b ResourceIdentifier) bool {
	return fmt.Sprintf("%T", a) == fmt.Sprintf("%T", b)
}

// GroupChildren splices N existing children of a group into a brand-new
// child NodeGroup, moving their internal flywires (both endpoints among
// the grouped set) along with them. Flywires crossing the new boundary
// (exactly one endpoint in the grouped set) are removed from the parent
// and returned for the editor to offer recreation, mirroring DeleteNodes.
func (b *NodeGroupBuilder) GroupChildren(newGroupName string, names []string) (crossBoundary []Flywire, err error) {
	if _, exists := b.cells[newGroupName]; exists {
		return nil, ArgumentError{Message: fmt.Sprintf("child %q already exists in group %q", newGroupName, b.name)}
	}

	grouped := make(map[string]struct{}, len(names))
	var children []CalculationNode
	for _, name := range names {
		cell, ok := b.cells[name]
		if !ok {
			return nil, ArgumentError{Message: fmt.Sprintf("no such child %q in group %q", name, b.name)}
		}
		grouped[name] = struct{}{}
		children = append(children, cell.builder.ToNode())
	}

	var internal, external []Flywire
	for _, fw := range b.flywires {
		_, srcIn := grouped[fw.Source.NodePath.Name()]
		_, tgtIn := grouped[fw.Target.NodePath.Name()]
		switch {
		case srcIn && tgtIn:
			internal = append(internal, fw)
		case srcIn || tgtIn:
			external = append(external, fw)
		default:
			continue
		}
	}

	b.DeleteNodes(names)

	newGroup := NewNodeGroup(newGroupName, children, internal, Scope{Tag: ScopeExclude})
	if err := b.AddNode(newGroup); err != nil {
		return nil, err
	}
	return external, nil
}

// Ungroup dissolves the named child group, splicing its children and
// internal flywires back up into b. The inverse of GroupChildren when
// applied immediately afterwards with no other edits in between (spec §8
// property 9).
func (b *NodeGroupBuilder) Ungroup(groupName string) error {
	cell, ok := b.cells[groupName]
	if !ok {
		return ArgumentError{Message: fmt.Sprintf("no such child %q in group %q", groupName, b.name)}
	}
	inner, ok := cell.builder.(*NodeGroupBuilder)
	if !ok {
		return ArgumentError{Message: fmt.Sprintf("child %q is not a group", groupName)}
	}

	children := inner.Nodes()
	flywires := inner.Flywires()

	b.DeleteNodes([]string{groupName})
	for _, child := range children {
		if err := b.AddNode(child); err != nil {
			return err
		}
	}
	b.flywires = append(b.flywires, flywires...)
	return nil
}
