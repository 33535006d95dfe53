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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildIndexes_ExcludeScopeHidesListedOutput(t *testing.T) {
	hidden := testRID("hidden")
	visible := testRID("visible")
	hiddenProvider := constNode("hiddenProvider", hidden, 1)
	visibleProvider := constNode("visibleProvider", visible, 2)

	inner := NewNodeGroup("inner", []CalculationNode{hiddenProvider, visibleProvider}, nil,
		NewExcludeScope(ConnectionPoint{NodePath: "/root/inner/hiddenProvider", RID: hidden}))
	root := NewNodeGroup("root", []CalculationNode{inner}, nil, Scope{})

	idx := buildIndexes(root)
	assert.Empty(t, idx.providers("/root", hidden))
	require.Len(t, idx.providers("/root", visible), 1)
}

func TestBuildIndexes_IncludeScopeOnlyExposesListedOutput(t *testing.T) {
	a := testRID("a")
	b := testRID("b")
	aProvider := constNode("aProvider", a, 1)
	bProvider := constNode("bProvider", b, 2)

	inner := NewNodeGroup("inner", []CalculationNode{aProvider, bProvider}, nil,
		NewIncludeScope(ConnectionPoint{NodePath: "/root/inner/aProvider", RID: a}))
	root := NewNodeGroup("root", []CalculationNode{inner}, nil, Scope{})

	idx := buildIndexes(root)
	require.Len(t, idx.providers("/root", a), 1)
	assert.Empty(t, idx.providers("/root", b))
}

func TestBuildIndexes_FlywireByTargetIsCanonicalised(t *testing.T) {
	rid := testRID("x")
	source := constNode("source", rid, 1)
	target := &fakeNode{name: "target", inputs: []ResourceIdentifier{rid}, outputs: []ResourceIdentifier{testRID("y")}, compute: func(Snapshot, map[string]Result) map[string]Result { return nil }}
	fw := Flywire{
		Source: ConnectionPoint{NodePath: "source", RID: rid},
		Target: ConnectionPoint{NodePath: "target", RID: rid},
	}
	root := NewNodeGroup("root", []CalculationNode{source, target}, []Flywire{fw}, Scope{})

	idx := buildIndexes(root)
	got, ok := idx.flywireFor("/root", ConnectionPoint{NodePath: "/root/target", RID: rid})
	require.True(t, ok)
	assert.Equal(t, Path("/root/source"), got.Source.NodePath)
	assert.Equal(t, Path("/root/target"), got.Target.NodePath)
}

func TestBuildIndexes_DetectsStaticFlywireCycle(t *testing.T) {
	ridA := testRID("a")
	ridB := testRID("b")
	a := &fakeNode{name: "a", outputs: []ResourceIdentifier{ridA}, compute: func(Snapshot, map[string]Result) map[string]Result { return nil }}
	b := &fakeNode{name: "b", outputs: []ResourceIdentifier{ridB}, compute: func(Snapshot, map[string]Result) map[string]Result { return nil }}

	fw1 := Flywire{Source: ConnectionPoint{NodePath: "a", RID: ridA}, Target: ConnectionPoint{NodePath: "b", RID: ridB}}
	fw2 := Flywire{Source: ConnectionPoint{NodePath: "b", RID: ridB}, Target: ConnectionPoint{NodePath: "a", RID: ridA}}
	root := NewNodeGroup("root", []CalculationNode{a, b}, []Flywire{fw1, fw2}, Scope{})

	idx := buildIndexes(root)
	assert.NotEmpty(t, idx.staticFlywireCycle, "two flywires whose targets feed each other's sources form a cycle")
}

func TestNewEngine_LogsStaticWarningOnFlywireCycle(t *testing.T) {
	ridA := testRID("a")
	ridB := testRID("b")
	a := &fakeNode{name: "a", outputs: []ResourceIdentifier{ridA}, compute: func(Snapshot, map[string]Result) map[string]Result { return nil }}
	b := &fakeNode{name: "b", outputs: []ResourceIdentifier{ridB}, compute: func(Snapshot, map[string]Result) map[string]Result { return nil }}
	fw1 := Flywire{Source: ConnectionPoint{NodePath: "a", RID: ridA}, Target: ConnectionPoint{NodePath: "b", RID: ridB}}
	fw2 := Flywire{Source: ConnectionPoint{NodePath: "b", RID: ridB}, Target: ConnectionPoint{NodePath: "a", RID: ridA}}
	root := NewNodeGroup("root", []CalculationNode{a, b}, []Flywire{fw1, fw2}, Scope{})

	rec := &recordingLogger{}
	_, err := NewEngine(root, WithLogger(rec))
	require.NoError(t, err, "a static flywire cycle is diagnostic only and must never fail construction")
	assert.NotEmpty(t, rec.warnings)
}

type recordingLogger struct {
	warnings []string
}

func (r *recordingLogger) ResolvedDependency(Path, ResourceIdentifier, InputSourceTag) {}
func (r *recordingLogger) AttributedFailure(Path, ResourceIdentifier, error)           {}
func (r *recordingLogger) StaticWarning(msg string)                                    { r.warnings = append(r.warnings, msg) }
