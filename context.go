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

import "context"

// AdhocOverride is a per-evaluation injection of input values, output
// values, and additional flywires supplied by the caller. Entries never
// mutate and are only consulted during the evaluation that carries them.
type AdhocOverride struct {
	Inputs   map[connectionPointKey]Result
	Outputs  map[connectionPointKey]Result
	Flywires []Flywire

	// flywireIndex mirrors Flywires keyed by absolute target, built once
	// by NewAdhocOverride for O(1) lookup during resolution.
	flywireIndex map[connectionPointKey]Flywire
}

// NewAdhocOverride builds an AdhocOverride from caller-supplied maps. A nil
// adhoc is equivalent to NewAdhocOverride(nil, nil, nil): no overrides
// apply.
func NewAdhocOverride(inputs map[ConnectionPoint]Result, outputs map[ConnectionPoint]Result, flywires []Flywire) *AdhocOverride {
	a := &AdhocOverride{
		Inputs:       make(map[connectionPointKey]Result, len(inputs)),
		Outputs:      make(map[connectionPointKey]Result, len(outputs)),
		Flywires:     append([]Flywire(nil), flywires...),
		flywireIndex: make(map[connectionPointKey]Flywire, len(flywires)),
	}
	for cp, r := range inputs {
		a.Inputs[cp.Key()] = r
	}
	for cp, r := range outputs {
		a.Outputs[cp.Key()] = r
	}
	for _, fw := range flywires {
		a.flywireIndex[fw.Target.Key()] = fw
	}
	return a
}

func (a *AdhocOverride) getInput(cp ConnectionPoint) (Result, bool) {
	if a == nil {
		return Result{}, false
	}
	r, ok := a.Inputs[cp.Key()]
	return r, ok
}

func (a *AdhocOverride) getOutput(cp ConnectionPoint) (Result, bool) {
	if a == nil {
		return Result{}, false
	}
	r, ok := a.Outputs[cp.Key()]
	return r, ok
}

func (a *AdhocOverride) getFlywire(cp ConnectionPoint) (Flywire, bool) {
	if a == nil {
		return Flywire{}, false
	}
	fw, ok := a.flywireIndex[cp.Key()]
	return fw, ok
}

// OutputSourceTag says how an output's value was produced.
type OutputSourceTag int

const (
	ByEvaluation OutputSourceTag = iota
	ByAdhoc
)

// OutputResult is one AtomicNode output's value together with how it was
// produced.
type OutputResult struct {
	Tag    OutputSourceTag
	Result Result
}

// InputSourceTag says which precedence rule satisfied a dependency.
type InputSourceTag int

const (
	InputByAdhoc InputSourceTag = iota
	InputByAdhocFlywire
	InputByFlywire
	InputByResolve
	InputByParentGroup
)

// InputResult is one AtomicNode input's value together with the precedence
// rule that resolved it. Direct is true when the rid was part of the
// node's originally declared Inputs(), false when it was demanded by a
// later round of staged ResolveDependencies. The extra InputByParentGroup
// entry recorded under the parent group's own path always has Direct left
// unset (false); the asking node's own entry keeps the round's flag.
type InputResult struct {
	Tag    InputSourceTag
	Direct bool
	Result Result
}

// NodeEvaluation is the input/output trace recorded for one node path
// during one evaluation. Written once per node per evaluation; entries are
// only ever added, never replaced.
type NodeEvaluation struct {
	Inputs  map[string]InputResult
	Outputs map[string]OutputResult
}

func newNodeEvaluation() *NodeEvaluation {
	return &NodeEvaluation{
		Inputs:  make(map[string]InputResult),
		Outputs: make(map[string]OutputResult),
	}
}

// evaluationContext is the per-evaluation mutable state described in spec
// §4.3: it lives only for the duration of one evaluate_for_result call and
// must never be shared across concurrent evaluations.
type evaluationContext struct {
	snapshot        Snapshot
	requestedPath   Path
	adhoc           *AdhocOverride
	outputCache     map[Path]map[string]OutputResult
	groupCache      map[Path]map[string]Result
	nodeEvaluations map[Path]*NodeEvaluation
	usedFlywires    map[Path]map[Flywire]struct{}
	logger          Logger
	budget          context.Context
}

func newEvaluationContext(path Path, snapshot Snapshot, adhoc *AdhocOverride, logger Logger, budget context.Context) *evaluationContext {
	if budget == nil {
		budget = context.Background()
	}
	return &evaluationContext{
		snapshot:        snapshot,
		requestedPath:   path,
		adhoc:           adhoc,
		outputCache:     make(map[Path]map[string]OutputResult),
		groupCache:      make(map[Path]map[string]Result),
		nodeEvaluations: make(map[Path]*NodeEvaluation),
		usedFlywires:    make(map[Path]map[Flywire]struct{}),
		logger:          logger,
		budget:          budget,
	}
}

// cachedGroupValue returns a previously-resolved group-scoped resource
// value. Group-level resolution results are cached separately from atomic
// output caches because a group is not itself computed and must not be
// mistaken for a touched leaf when extracting the evaluation's sub-graph.
func (ctx *evaluationContext) cachedGroupValue(p Path, key string) (Result, bool) {
	r, ok := ctx.groupCache[p][key]
	return r, ok
}

func (ctx *evaluationContext) cacheGroupValue(p Path, key string, r Result) {
	bucket, ok := ctx.groupCache[p]
	if !ok {
		bucket = make(map[string]Result)
		ctx.groupCache[p] = bucket
	}
	bucket[key] = r
}

func (ctx *evaluationContext) evalFor(p Path) *NodeEvaluation {
	ne, ok := ctx.nodeEvaluations[p]
	if !ok {
		ne = newNodeEvaluation()
		ctx.nodeEvaluations[p] = ne
	}
	return ne
}

func (ctx *evaluationContext) cachedOutputs(p Path) map[string]OutputResult {
	return ctx.outputCache[p]
}

func (ctx *evaluationContext) cacheOutput(p Path, rid ResourceIdentifier, or OutputResult) {
	bucket, ok := ctx.outputCache[p]
	if !ok {
		bucket = make(map[string]OutputResult)
		ctx.outputCache[p] = bucket
	}
	bucket[ridKey(rid)] = or
	ctx.evalFor(p).Outputs[ridKey(rid)] = or
}

func (ctx *evaluationContext) recordInput(p Path, rid ResourceIdentifier, ir InputResult) {
	ctx.evalFor(p).Inputs[ridKey(rid)] = ir
}

func (ctx *evaluationContext) markFlywireUsed(groupPath Path, fw Flywire) {
	bucket, ok := ctx.usedFlywires[groupPath]
	if !ok {
		bucket = make(map[Flywire]struct{})
		ctx.usedFlywires[groupPath] = bucket
	}
	bucket[fw] = struct{}{}
}

// EvaluationResult is the value returned by an evaluation: per-resource
// results, the full per-node trace, and the minimal sub-graph actually
// touched.
type EvaluationResult struct {
	Snapshot      Snapshot
	RequestedPath Path
	Adhoc         *AdhocOverride
	Results       map[string]Result
	NodeEvalMap   map[Path]*NodeEvaluation
	Graph         CalculationNode
}
