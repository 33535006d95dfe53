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

// CalculationNode is the tagged variant at the root of the tree: it is
// either an AtomicNode (a leaf) or a NodeGroup (an inner node). Dispatch on
// the concrete type via a type switch; there is no virtual method beyond
// Name(), which both variants share. The interface carries no unexported
// marker method on purpose: user-defined AtomicNode implementations live
// outside this package and must be able to satisfy it.
type CalculationNode interface {
	// Name returns this node's name, unique among its siblings.
	Name() string
}

// AtomicNode is a leaf computation unit: it declares the resources it
// needs, the resources it produces, and a pure function from snapshot and
// resolved inputs to a Result per declared output.
//
// Implementations must be safe to evaluate repeatedly with the same
// (snapshot, inputs) pair and must return exactly the same outputs.
type AtomicNode interface {
	CalculationNode

	// Inputs returns the resources this node directly declares as
	// dependencies. ResolveDependencies may demand more once partial
	// inputs are known (staged discovery).
	Inputs() []ResourceIdentifier

	// Outputs returns the (non-empty) set of resources this node can
	// produce.
	Outputs() []ResourceIdentifier

	// ResolveDependencies is called iteratively during evaluation: given
	// the snapshot and whatever inputs have been resolved so far, it
	// returns the set of additional resource ids now required. It must
	// be monotonic: each call's return value is disjoint from every
	// already-resolved key, and an empty return ends discovery.
	ResolveDependencies(snapshot Snapshot, partialInputs map[string]Result) []ResourceIdentifier

	// Compute produces exactly one Result per declared output, given the
	// fully resolved inputs.
	Compute(snapshot Snapshot, inputs map[string]Result) map[string]Result
}

// Flywire is a static rewire within a NodeGroup: the target's declared
// input is satisfied by the source's value instead of by provider
// resolution. Paths on either endpoint may be relative to the owning
// group; they are canonicalised to absolute when the flywire index is
// built.
type Flywire struct {
	Source ConnectionPoint
	Target ConnectionPoint
}

func (f Flywire) String() string {
	return fmt.Sprintf("%v:%v -> %v:%v", f.Source.NodePath, f.Source.RID, f.Target.NodePath, f.Target.RID)
}

// ScopeTag distinguishes an export Scope's two polarities.
type ScopeTag int

const (
	// ScopeExclude means the scope's set lists connection points hidden
	// from outside the group; every other descendant output is visible.
	// This is the zero value, so a Scope left unset behaves as "export
	// everything" rather than the footgun of hiding everything.
	ScopeExclude ScopeTag = iota
	// ScopeInclude means the scope's set lists exactly the connection
	// points visible from outside the group.
	ScopeInclude
)

// Scope determines which outputs of a NodeGroup are visible to outer
// scopes. Every connection point in the set must reference a resource
// actually produced by a descendant of the owning group.
type Scope struct {
	Tag   ScopeTag
	Items []ConnectionPoint
}

// NewIncludeScope builds a Scope visible only through the listed points.
func NewIncludeScope(items ...ConnectionPoint) Scope {
	return Scope{Tag: ScopeInclude, Items: items}
}

// NewExcludeScope builds a Scope visible through everything except the
// listed points.
func NewExcludeScope(items ...ConnectionPoint) Scope {
	return Scope{Tag: ScopeExclude, Items: items}
}

// Visible reports whether cp is exported by this scope.
func (s Scope) Visible(cp ConnectionPoint) bool {
	found := false
	for _, item := range s.Items {
		if item == cp {
			found = true
			break
		}
	}
	switch s.Tag {
	case ScopeInclude:
		return found
	default:
		return !found
	}
}

// NodeGroup is an inner node owning a set of uniquely-named children, a
// set of static flywires, and an export scope.
type NodeGroup struct {
	name     string
	children []CalculationNode
	flywires []Flywire
	exports  Scope
}

// NewNodeGroup constructs an inner node. Child names must be unique; this
// is enforced by the builder layer rather than here, since the immutable
// constructor is also used to project builder state that has already been
// validated.
func NewNodeGroup(name string, children []CalculationNode, flywires []Flywire, exports Scope) *NodeGroup {
	return &NodeGroup{
		name:     name,
		children: append([]CalculationNode(nil), children...),
		flywires: append([]Flywire(nil), flywires...),
		exports:  exports,
	}
}

// Name returns the group's name.
func (g *NodeGroup) Name() string { return g.name }

// Children returns a defensive copy of the group's children.
func (g *NodeGroup) Children() []CalculationNode {
	return append([]CalculationNode(nil), g.children...)
}

// Flywires returns a defensive copy of the group's static flywires.
func (g *NodeGroup) Flywires() []Flywire {
	return append([]Flywire(nil), g.flywires...)
}

// Exports returns the group's export scope.
func (g *NodeGroup) Exports() Scope {
	return g.exports
}

// Child looks up a direct child by name.
func (g *NodeGroup) Child(name string) (CalculationNode, bool) {
	for _, c := range g.children {
		if c.Name() == name {
			return c, true
		}
	}
	return nil, false
}
