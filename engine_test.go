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

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRID is the minimal ResourceIdentifier used across this file's fixture
// graphs: a plain comparable string-keyed value type, per resource.go's
// guidance that implementations should be value types rather than pointers.
type testRID string

func (r testRID) ResourceKey() string { return string(r) }

// fakeNode is a generic, configurable AtomicNode double standing in for a
// real domain node in tests that only care about evaluation mechanics:
// precedence, caching, cycle detection and sub-graph extraction.
type fakeNode struct {
	name    string
	inputs  []ResourceIdentifier
	outputs []ResourceIdentifier
	compute func(snapshot Snapshot, inputs map[string]Result) map[string]Result
	calls   *int
}

func (n *fakeNode) Name() string                  { return n.name }
func (n *fakeNode) Inputs() []ResourceIdentifier  { return n.inputs }
func (n *fakeNode) Outputs() []ResourceIdentifier { return n.outputs }
func (n *fakeNode) ResolveDependencies(Snapshot, map[string]Result) []ResourceIdentifier {
	return nil
}
func (n *fakeNode) Compute(snapshot Snapshot, inputs map[string]Result) map[string]Result {
	if n.calls != nil {
		*n.calls++
	}
	return n.compute(snapshot, inputs)
}

// constNode is a fakeNode that produces a single fixed output value and
// declares no inputs, the simplest possible provider.
func constNode(name string, rid ResourceIdentifier, value Value) *fakeNode {
	calls := 0
	return &fakeNode{
		name:    name,
		outputs: []ResourceIdentifier{rid},
		calls:   &calls,
		compute: func(Snapshot, map[string]Result) map[string]Result {
			return map[string]Result{ridKey(rid): Success(value)}
		},
	}
}

func snap(token string) Snapshot { return NewSnapshot(token) }

func TestEngine_ByResolvePrecedence(t *testing.T) {
	ask := testRID("ask")
	provider := constNode("provider", ask, 100)
	root := NewNodeGroup("root", []CalculationNode{provider}, nil, Scope{})

	e, err := NewEngine(root)
	require.NoError(t, err)

	res := e.Evaluate(snap("t1"), []ResourceIdentifier{ask})
	v, ok := res[ridKey(ask)].Value()
	require.True(t, ok)
	assert.Equal(t, 100, v)
}

func TestEngine_FlywireOverridesResolve(t *testing.T) {
	ask := testRID("ask")
	provider := constNode("provider", ask, 1)
	override := constNode("override", ask, 999)

	consumer := &fakeNode{
		name:    "consumer",
		inputs:  []ResourceIdentifier{ask},
		outputs: []ResourceIdentifier{testRID("doubled")},
		compute: func(_ Snapshot, inputs map[string]Result) map[string]Result {
			v, _ := inputs[ridKey(ask)].Value()
			return map[string]Result{"doubled": Success(v.(int) * 2)}
		},
	}

	fw := Flywire{
		Source: ConnectionPoint{NodePath: "override", RID: ask},
		Target: ConnectionPoint{NodePath: "consumer", RID: ask},
	}
	root := NewNodeGroup("root", []CalculationNode{provider, override, consumer}, []Flywire{fw}, Scope{})

	e, err := NewEngine(root)
	require.NoError(t, err)

	res := e.Evaluate(snap("t1"), []ResourceIdentifier{testRID("doubled")})
	v, ok := res["doubled"].Value()
	require.True(t, ok)
	assert.Equal(t, 999*2, v)
}

func TestEngine_AdhocOutputShortCircuitsComputeAndTrace(t *testing.T) {
	ask := testRID("ask")
	calls := 0
	provider := &fakeNode{
		name:    "provider",
		outputs: []ResourceIdentifier{ask},
		calls:   &calls,
		compute: func(Snapshot, map[string]Result) map[string]Result {
			return map[string]Result{ridKey(ask): Success(1)}
		},
	}
	root := NewNodeGroup("root", []CalculationNode{provider}, nil, Scope{})

	e, err := NewEngine(root)
	require.NoError(t, err)

	adhoc := NewAdhocOverride(nil, map[ConnectionPoint]Result{
		{NodePath: "/root/provider", RID: ask}: Success(42),
	}, nil)

	result, err := e.EvaluateForResult(e.RootNodePath(), snap("t1"), []ResourceIdentifier{ask}, adhoc)
	require.NoError(t, err)

	v, ok := result.Results[ridKey(ask)].Value()
	require.True(t, ok)
	assert.Equal(t, 42, v)
	assert.Equal(t, 0, calls, "compute must not run when every declared output is ad-hoc overridden")
	_, traced := result.NodeEvalMap["/root/provider"]
	assert.False(t, traced, "a fully ad-hoc-overridden node must not appear in the trace")
}

func TestEngine_AmbiguousProvider(t *testing.T) {
	ask := testRID("ask")
	a := constNode("a", ask, 1)
	b := constNode("b", ask, 2)
	root := NewNodeGroup("root", []CalculationNode{a, b}, nil, Scope{})

	e, err := NewEngine(root)
	require.NoError(t, err)

	res := e.Evaluate(snap("t1"), []ResourceIdentifier{ask})
	r := res[ridKey(ask)]
	require.True(t, r.IsFailure())
	var ambErr AmbiguousProviderError
	assert.ErrorAs(t, r.Err(), &ambErr)
}

func TestEngine_NoProvider(t *testing.T) {
	root := NewNodeGroup("root", nil, nil, Scope{})

	e, err := NewEngine(root)
	require.NoError(t, err)

	res := e.Evaluate(snap("t1"), []ResourceIdentifier{testRID("missing")})
	r := res["missing"]
	require.True(t, r.IsFailure())
	var npErr NoProviderError
	assert.ErrorAs(t, r.Err(), &npErr)
}

func TestEngine_CycleDetection(t *testing.T) {
	aOut := testRID("aOut")
	bOut := testRID("bOut")

	a := &fakeNode{
		name:    "a",
		inputs:  []ResourceIdentifier{bOut},
		outputs: []ResourceIdentifier{aOut},
		compute: func(_ Snapshot, inputs map[string]Result) map[string]Result {
			return map[string]Result{ridKey(aOut): inputs[ridKey(bOut)]}
		},
	}
	b := &fakeNode{
		name:    "b",
		inputs:  []ResourceIdentifier{aOut},
		outputs: []ResourceIdentifier{bOut},
		compute: func(_ Snapshot, inputs map[string]Result) map[string]Result {
			return map[string]Result{ridKey(bOut): inputs[ridKey(aOut)]}
		},
	}
	root := NewNodeGroup("root", []CalculationNode{a, b}, nil, Scope{})

	e, err := NewEngine(root)
	require.NoError(t, err)

	result, err := e.EvaluateForResult(e.RootNodePath(), snap("t1"), []ResourceIdentifier{aOut}, nil)
	require.NoError(t, err)
	r := result.Results[ridKey(aOut)]
	require.True(t, r.IsFailure())
	var cycleErr CycleError
	assert.ErrorAs(t, r.Err(), &cycleErr)
}

func TestEngine_ByParentGroupFallsThroughToAncestor(t *testing.T) {
	shared := testRID("shared")
	provider := constNode("provider", shared, "top")

	consumer := &fakeNode{
		name:    "consumer",
		inputs:  []ResourceIdentifier{shared},
		outputs: []ResourceIdentifier{testRID("echo")},
		compute: func(_ Snapshot, inputs map[string]Result) map[string]Result {
			return map[string]Result{"echo": inputs[ridKey(shared)]}
		},
	}
	inner := NewNodeGroup("inner", []CalculationNode{consumer}, nil, Scope{})
	root := NewNodeGroup("root", []CalculationNode{provider, inner}, nil, Scope{})

	e, err := NewEngine(root)
	require.NoError(t, err)

	result, err := e.EvaluateForResult(e.RootNodePath(), snap("t1"), []ResourceIdentifier{testRID("echo")}, nil)
	require.NoError(t, err)
	v, ok := result.Results["echo"].Value()
	require.True(t, ok)
	assert.Equal(t, "top", v)

	ne := result.NodeEvalMap["/root/inner/consumer"]
	require.NotNil(t, ne)
	assert.Equal(t, InputByParentGroup, ne.Inputs[ridKey(shared)].Tag)
}

func TestEngine_SubgraphExtractionIsMinimal(t *testing.T) {
	used := testRID("used")
	unused := testRID("unused")
	usedProvider := constNode("usedProvider", used, 1)
	unusedProvider := constNode("unusedProvider", unused, 2)
	root := NewNodeGroup("root", []CalculationNode{usedProvider, unusedProvider}, nil, Scope{})

	e, err := NewEngine(root)
	require.NoError(t, err)

	result, err := e.EvaluateForResult(e.RootNodePath(), snap("t1"), []ResourceIdentifier{used}, nil)
	require.NoError(t, err)

	group, ok := result.Graph.(*NodeGroup)
	require.True(t, ok)
	_, hasUsed := group.Child("usedProvider")
	_, hasUnused := group.Child("unusedProvider")
	assert.True(t, hasUsed)
	assert.False(t, hasUnused, "an untouched sibling must not appear in the extracted sub-graph")
}

func TestEngine_NewEngineRejectsNilRoot(t *testing.T) {
	_, err := NewEngine(nil)
	require.Error(t, err)
	var argErr ArgumentError
	assert.ErrorAs(t, err, &argErr)
}

func TestEngine_EvaluateForResultRejectsPathOutsideRoot(t *testing.T) {
	root := NewNodeGroup("root", nil, nil, Scope{})
	e, err := NewEngine(root)
	require.NoError(t, err)

	_, err = e.EvaluateForResult(Path("/elsewhere"), snap("t1"), []ResourceIdentifier{testRID("x")}, nil)
	require.Error(t, err)
}

func TestEngine_AdhocFlywireTakesPrecedenceOverStaticFlywire(t *testing.T) {
	ask := testRID("ask")
	staticSource := constNode("staticSource", ask, "static")
	adhocSource := constNode("adhocSource", ask, "adhoc")
	consumer := &fakeNode{
		name:    "consumer",
		inputs:  []ResourceIdentifier{ask},
		outputs: []ResourceIdentifier{testRID("echo")},
		compute: func(_ Snapshot, inputs map[string]Result) map[string]Result {
			return map[string]Result{"echo": inputs[ridKey(ask)]}
		},
	}
	staticFW := Flywire{
		Source: ConnectionPoint{NodePath: "staticSource", RID: ask},
		Target: ConnectionPoint{NodePath: "consumer", RID: ask},
	}
	root := NewNodeGroup("root", []CalculationNode{staticSource, adhocSource, consumer}, []Flywire{staticFW}, Scope{})

	e, err := NewEngine(root)
	require.NoError(t, err)

	adhocFW := Flywire{
		Source: ConnectionPoint{NodePath: "/root/adhocSource", RID: ask},
		Target: ConnectionPoint{NodePath: "/root/consumer", RID: ask},
	}
	adhoc := NewAdhocOverride(nil, nil, []Flywire{adhocFW})

	result, err := e.EvaluateForResult(e.RootNodePath(), snap("t1"), []ResourceIdentifier{testRID("echo")}, adhoc)
	require.NoError(t, err)
	v, ok := result.Results["echo"].Value()
	require.True(t, ok)
	assert.Equal(t, "adhoc", v)
}

func TestEngine_ExpiredContextSurfacesAsAttributedTimeoutFailure(t *testing.T) {
	ask := testRID("ask")
	calls := 0
	provider := &fakeNode{
		name:    "provider",
		outputs: []ResourceIdentifier{ask},
		calls:   &calls,
		compute: func(Snapshot, map[string]Result) map[string]Result {
			return map[string]Result{ridKey(ask): Success(1)}
		},
	}
	root := NewNodeGroup("root", []CalculationNode{provider}, nil, Scope{})

	e, err := NewEngine(root)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := e.EvaluateForResult(e.RootNodePath(), snap("t1"), []ResourceIdentifier{ask}, nil, WithContext(ctx))
	require.NoError(t, err, "an expired budget must surface as a per-node Failure, never as a fatal engine error")

	r := result.Results[ridKey(ask)]
	require.True(t, r.IsFailure())
	var computeErr ComputeError
	require.ErrorAs(t, r.Err(), &computeErr)
	assert.Equal(t, Path("/root/provider"), computeErr.NodePath)
	assert.ErrorIs(t, computeErr.Cause, ErrTimeout)
	assert.Equal(t, 0, calls, "Compute must not run once the budget has already expired")
}

func TestEngine_ResultKeyedByResourceKeyString(t *testing.T) {
	rid := testRID("x")
	assert.Equal(t, "x", ridKey(rid))
	assert.Equal(t, fmt.Sprintf("%v", rid), rid.ResourceKey())
}
