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
	"fmt"
	"sort"
)

// CalculationEngine resolves resource requests against an immutable node
// tree. An engine is built once from a root CalculationNode; its indexes
// and the tree itself are read-only and may be shared across concurrently
// running evaluations, each of which must own its own evaluationContext.
type CalculationEngine struct {
	root     CalculationNode
	rootPath Path
	idx      *indexes
	logger   Logger
}

// NewEngine builds the engine's indexes from root in one depth-first walk.
// A failure during index construction (e.g. a nil root) is fatal for the
// returned engine.
func NewEngine(root CalculationNode, opts ...EngineOption) (*CalculationEngine, error) {
	if root == nil {
		return nil, ArgumentError{Message: "root must not be nil"}
	}
	e := &CalculationEngine{
		root:     root,
		rootPath: Path("/" + root.Name()),
		logger:   noopLogger{},
	}
	for _, opt := range opts {
		opt.applyEngineOption(e)
	}
	if e.logger == nil {
		e.logger = noopLogger{}
	}
	e.idx = buildIndexes(root)
	if len(e.idx.staticFlywireCycle) > 0 {
		e.logger.StaticWarning(fmt.Sprintf("static flywire cycle detected (non-fatal): %v", e.idx.staticFlywireCycle))
	}
	return e, nil
}

// GetNode returns the node at the given absolute path.
func (e *CalculationEngine) GetNode(p Path) (CalculationNode, bool) {
	return e.idx.node(p)
}

// RootNodePath returns the engine's root node's absolute path.
func (e *CalculationEngine) RootNodePath() Path {
	return e.rootPath
}

// Evaluate is a convenience projection of EvaluateForResult against the
// engine root with no ad-hoc override, returning only the per-resource
// results.
func (e *CalculationEngine) Evaluate(snapshot Snapshot, requested []ResourceIdentifier) map[string]Result {
	res, err := e.EvaluateForResult(e.rootPath, snapshot, requested, nil)
	if err != nil {
		out := make(map[string]Result, len(requested))
		for _, rid := range requested {
			out[ridKey(rid)] = Failure(err)
		}
		return out
	}
	return res.Results
}

// EvaluateForResult resolves every resource in requested starting from
// path, honoring adhoc, and returns the full EvaluationResult: per-resource
// results, the per-node trace, and the minimal touched sub-graph.
//
// requested resource keys are always present in the returned Results map,
// even on total failure.
func (e *CalculationEngine) EvaluateForResult(
	path Path,
	snapshot Snapshot,
	requested []ResourceIdentifier,
	adhoc *AdhocOverride,
	opts ...EvaluateOption,
) (*EvaluationResult, error) {
	if path == "" {
		return nil, ArgumentError{Message: "path must not be empty"}
	}
	if !path.IsDescendantOf(e.rootPath) {
		return nil, ArgumentError{Message: fmt.Sprintf("path %v is not a descendant of root %v", path, e.rootPath)}
	}
	if requested == nil {
		return nil, ArgumentError{Message: "requested must not be nil"}
	}

	cfg := &evaluateConfig{maxDepth: defaultMaxDepth}
	for _, opt := range opts {
		opt.applyEvaluateOption(cfg)
	}

	ctx := newEvaluationContext(path, snapshot, adhoc, e.logger, cfg.budget)

	reqMap := make(map[string]ResourceIdentifier, len(requested))
	for _, rid := range requested {
		reqMap[ridKey(rid)] = rid
	}

	results, evalErr := e.evaluateWithContextSafe(path, reqMap, ctx, nil, cfg)

	finalResults := make(map[string]Result, len(reqMap))
	if evalErr != nil {
		// The Result callers see keeps the full wrapped chain so
		// errors.As/errors.Is still reach the originating typed error; the
		// logger only needs the root cause, not every hop's added context.
		rootCause := errRootCause(evalErr)
		for k, rid := range reqMap {
			finalResults[k] = Failure(evalErr)
			e.logger.AttributedFailure(path, rid, rootCause)
		}
	} else {
		for k, rid := range reqMap {
			r, ok := results[k]
			if !ok {
				r = Failure(NoProviderError{Path: path, RID: rid})
			}
			finalResults[k] = r
			if r.IsFailure() {
				e.logger.AttributedFailure(path, rid, r.Err())
			}
		}
	}

	return &EvaluationResult{
		Snapshot:      snapshot,
		RequestedPath: path,
		Adhoc:         adhoc,
		Results:       finalResults,
		NodeEvalMap:   ctx.nodeEvaluations,
		Graph:         e.extractSubgraph(ctx),
	}, nil
}

// evaluateWithContextSafe wraps evaluateWithContext the way the teacher
// wraps fallible constructor calls: any unexpected panic is captured here
// rather than crashing the caller, matching spec's Result::try_of
// boundary around the whole evaluation.
func (e *CalculationEngine) evaluateWithContextSafe(
	path Path,
	requested map[string]ResourceIdentifier,
	ctx *evaluationContext,
	stack []Path,
	cfg *evaluateConfig,
) (result map[string]Result, fatal error) {
	defer func() {
		if p := recover(); p != nil {
			fatal = ComputeError{NodePath: path, Cause: fmt.Errorf("panic: %v", p)}
		}
	}()
	if len(stack) > cfg.maxDepth {
		return nil, ArgumentError{Message: fmt.Sprintf("exceeded max evaluation depth %d at %v", cfg.maxDepth, path)}
	}
	return e.evaluateWithContext(path, requested, ctx, stack)
}

// evaluateWithContext dispatches on the node at path: see spec §4.3.
func (e *CalculationEngine) evaluateWithContext(
	path Path,
	requested map[string]ResourceIdentifier,
	ctx *evaluationContext,
	stack []Path,
) (map[string]Result, error) {
	node, ok := e.idx.node(path)
	if !ok {
		out := make(map[string]Result, len(requested))
		for k, rid := range requested {
			out[k] = Failure(NoProviderError{Path: path, RID: rid})
		}
		return out, nil
	}

	switch n := node.(type) {
	case AtomicNode:
		return e.evaluateAtomic(path, n, requested, ctx, stack)
	case *NodeGroup:
		return e.evaluateGroup(path, n, requested, ctx, stack)
	default:
		return nil, ArgumentError{Message: fmt.Sprintf("unrecognised node kind at %v", path)}
	}
}

// evaluateAtomic implements spec §4.3 "AtomicNode" dispatch plus §4.3.1.
func (e *CalculationEngine) evaluateAtomic(
	path Path,
	node AtomicNode,
	requested map[string]ResourceIdentifier,
	ctx *evaluationContext,
	stack []Path,
) (map[string]Result, error) {
	for _, s := range stack {
		if s == path {
			return nil, CycleError{Stack: append([]Path(nil), stack...), Path: path}
		}
	}

	// Step 1: ad-hoc output short-circuit. If every declared output is
	// overridden, the node is never computed and never recorded in the
	// trace (spec §8 property 5).
	declared := node.Outputs()
	if len(declared) > 0 {
		adhocAll := make(map[string]Result, len(declared))
		for _, rid := range declared {
			if r, ok := ctx.adhoc.getOutput(ConnectionPoint{NodePath: path, RID: rid}); ok {
				adhocAll[ridKey(rid)] = r
			}
		}
		if len(adhocAll) == len(declared) {
			out := make(map[string]Result, len(requested))
			for k := range requested {
				if r, ok := adhocAll[k]; ok {
					out[k] = r
				}
			}
			return out, nil
		}
	}

	if cached := ctx.cachedOutputs(path); cached != nil && coversAll(cached, requested) {
		return extractResults(cached, requested), nil
	}

	newStack := append(append([]Path(nil), stack...), path)
	if err := e.computeAtomic(path, node, ctx, newStack); err != nil {
		return nil, err
	}

	cached := ctx.cachedOutputs(path)
	return extractResults(cached, requested), nil
}

// computeAtomic runs spec §4.3.1 steps 2-4 (staged dependency discovery,
// compute, merge) and caches every declared output. Step 5's panic
// recovery happens in runAtomicBody; only a genuine CycleError escapes
// this function, since that is the one failure spec §4.3.4 says is fatal
// rather than locally attributed.
func (e *CalculationEngine) computeAtomic(path Path, node AtomicNode, ctx *evaluationContext, stack []Path) error {
	adhocOut := make(map[string]Result)
	for _, rid := range node.Outputs() {
		if r, ok := ctx.adhoc.getOutput(ConnectionPoint{NodePath: path, RID: rid}); ok {
			adhocOut[ridKey(rid)] = r
		}
	}

	var computed map[string]Result
	var fatal error
	if err := ctx.budget.Err(); err != nil {
		computed = failAllOutputs(node, ComputeError{NodePath: path, Cause: ErrTimeout})
	} else {
		computed, fatal = e.runAtomicBody(path, node, ctx, stack)
		if fatal != nil {
			return fatal
		}
	}

	for k, r := range computed {
		tag := ByEvaluation
		if av, ok := adhocOut[k]; ok {
			r = av
			tag = ByAdhoc
		}
		ctx.cacheOutput(path, stringRID(k), OutputResult{Tag: tag, Result: r})
	}
	return nil
}

// runAtomicBody performs the staged dependency-discovery loop and the
// final Compute call, recovering any panic from user code into a Failure
// attributed to every declared output (spec §4.3.1 step 5). A returned
// fatal error is always a CycleError raised by a nested resolveDependency
// call and must propagate uncaught.
func (e *CalculationEngine) runAtomicBody(path Path, node AtomicNode, ctx *evaluationContext, stack []Path) (result map[string]Result, fatal error) {
	defer func() {
		if p := recover(); p != nil {
			result = failAllOutputs(node, ComputeError{NodePath: path, Cause: fmt.Errorf("panic: %v", p)})
			fatal = nil
		}
	}()

	params := make(map[string]Result)
	nextDeps := node.Inputs()
	direct := true
	for len(nextDeps) > 0 {
		for _, rid := range nextDeps {
			tag, r, err := e.resolveDependency(path, rid, ctx, stack)
			if err != nil {
				return nil, err
			}
			params[ridKey(rid)] = r
			ctx.recordInput(path, rid, InputResult{Tag: tag, Direct: direct, Result: r})
			e.logger.ResolvedDependency(path, rid, tag)
		}
		nextDeps = node.ResolveDependencies(ctx.snapshot, copyResultMap(params))
		direct = false
	}

	return node.Compute(ctx.snapshot, params), nil
}

// resolveDependency implements spec §4.3.3's strict precedence order.
func (e *CalculationEngine) resolveDependency(path Path, rid ResourceIdentifier, ctx *evaluationContext, stack []Path) (InputSourceTag, Result, error) {
	cp := ConnectionPoint{NodePath: path, RID: rid}
	parent := path.Parent()

	// 1. ByAdhoc
	if r, ok := ctx.adhoc.getInput(cp); ok {
		return InputByAdhoc, r, nil
	}

	// 2. ByAdhocFlywire
	if fw, ok := ctx.adhoc.getFlywire(cp); ok {
		r, err := e.evaluateSingle(fw.Source, ctx, stack)
		if err != nil {
			return 0, Result{}, err
		}
		return InputByAdhocFlywire, r, nil
	}

	if parent != "" {
		// 3. ByFlywire
		if fw, ok := e.idx.flywireFor(parent, cp); ok {
			r, err := e.evaluateSingle(fw.Source, ctx, stack)
			if err != nil {
				return 0, Result{}, err
			}
			ctx.markFlywireUsed(parent, fw)
			return InputByFlywire, r, nil
		}

		// 4. ByResolve
		providers := e.idx.providers(parent, rid)
		switch len(providers) {
		case 1:
			childPath := parent.Child(providers[0].Name())
			r, err := e.evaluateSingle(ConnectionPoint{NodePath: childPath, RID: rid}, ctx, stack)
			if err != nil {
				return 0, Result{}, err
			}
			return InputByResolve, r, nil
		default:
			if len(providers) > 1 {
				return InputByResolve, Failure(AmbiguousProviderError{Path: parent, RID: rid}), nil
			}
		}
	}

	// 5. ByParentGroup
	if parent != "" && parent != e.rootPath {
		tag, r, err := e.resolveDependency(parent, rid, ctx, stack)
		if err != nil {
			return 0, Result{}, err
		}
		ctx.recordInput(parent, rid, InputResult{Tag: InputByParentGroup, Direct: false, Result: r})
		return InputByParentGroup, r, nil
	}

	// 6. Otherwise.
	return InputByResolve, Failure(NoProviderError{Path: parent, RID: rid}), nil
}

// evaluateSingle resolves one connection point by recursing into
// evaluate_with_context and lifting the single result. Every recursive hop
// through here wraps a propagating fatal error with the connection point
// it was resolving, the way the teacher's call frames wrap a failed
// constructor invocation: errRootCause still recovers the original
// CycleError untouched, while the wrapped message grows
// one path segment per hop.
func (e *CalculationEngine) evaluateSingle(cp ConnectionPoint, ctx *evaluationContext, stack []Path) (Result, error) {
	m, err := e.evaluateWithContext(cp.NodePath, map[string]ResourceIdentifier{ridKey(cp.RID): cp.RID}, ctx, stack)
	if err != nil {
		return Result{}, errWrapf(err, "resolving %v at %v", cp.RID, cp.NodePath)
	}
	r, ok := m[ridKey(cp.RID)]
	if !ok {
		return Failure(NoProviderError{Path: cp.NodePath, RID: cp.RID}), nil
	}
	return r, nil
}

// evaluateGroup implements spec §4.3.2 group-level resource resolution.
func (e *CalculationEngine) evaluateGroup(
	path Path,
	group *NodeGroup,
	requested map[string]ResourceIdentifier,
	ctx *evaluationContext,
	stack []Path,
) (map[string]Result, error) {
	out := make(map[string]Result, len(requested))
	for k, rid := range requested {
		if r, ok := ctx.cachedGroupValue(path, k); ok {
			out[k] = r
			continue
		}
		r, err := e.resolveGroupResource(path, rid, ctx, stack)
		if err != nil {
			return nil, err
		}
		ctx.cacheGroupValue(path, k, r)
		out[k] = r
	}
	return out, nil
}

func (e *CalculationEngine) resolveGroupResource(path Path, rid ResourceIdentifier, ctx *evaluationContext, stack []Path) (Result, error) {
	cp := ConnectionPoint{NodePath: path, RID: rid}
	if r, ok := ctx.adhoc.getOutput(cp); ok {
		return r, nil
	}

	providers := e.idx.providers(path, rid)
	switch len(providers) {
	case 0:
		return Failure(NoProviderError{Path: path, RID: rid}), nil
	case 1:
		childPath := path.Child(providers[0].Name())
		return e.evaluateSingle(ConnectionPoint{NodePath: childPath, RID: rid}, ctx, stack)
	default:
		return Failure(AmbiguousProviderError{Path: path, RID: rid}), nil
	}
}

// extractSubgraph implements spec §4.3.5: the minimal immutable tree
// containing exactly the touched atomic nodes, their group ancestors, and
// (per group) only the flywires actually consulted.
func (e *CalculationEngine) extractSubgraph(ctx *evaluationContext) CalculationNode {
	touched := make(map[Path]struct{})
	for p := range ctx.nodeEvaluations {
		if n, ok := e.idx.node(p); ok {
			if _, isAtomic := n.(AtomicNode); isAtomic {
				touched[p] = struct{}{}
			}
		}
	}

	sub := e.buildSubtree(e.root, e.rootPath, touched, ctx)
	if sub != nil {
		return sub
	}
	if group, ok := e.root.(*NodeGroup); ok {
		return NewNodeGroup(group.Name(), nil, nil, group.exports)
	}
	return nil
}

func (e *CalculationEngine) buildSubtree(node CalculationNode, path Path, touched map[Path]struct{}, ctx *evaluationContext) CalculationNode {
	switch n := node.(type) {
	case AtomicNode:
		if _, ok := touched[path]; ok {
			return n
		}
		return nil
	case *NodeGroup:
		var kept []CalculationNode
		for _, child := range n.children {
			if sub := e.buildSubtree(child, path.Child(child.Name()), touched, ctx); sub != nil {
				kept = append(kept, sub)
			}
		}
		if len(kept) == 0 {
			return nil
		}
		var flywires []Flywire
		for fw := range ctx.usedFlywires[path] {
			flywires = append(flywires, fw)
		}
		// ctx.usedFlywires[path] is a map, so iteration order is random;
		// sort before handing the slice to NewNodeGroup so two runs over
		// the same evaluation produce a structurally identical sub-graph.
		sort.Slice(flywires, func(i, j int) bool {
			return flywires[i].String() < flywires[j].String()
		})
		return NewNodeGroup(n.Name(), kept, flywires, n.exports)
	default:
		return nil
	}
}

func coversAll(cache map[string]OutputResult, requested map[string]ResourceIdentifier) bool {
	for k := range requested {
		if _, ok := cache[k]; !ok {
			return false
		}
	}
	return true
}

func extractResults(cache map[string]OutputResult, requested map[string]ResourceIdentifier) map[string]Result {
	out := make(map[string]Result, len(requested))
	for k := range requested {
		if or, ok := cache[k]; ok {
			out[k] = or.Result
		}
	}
	return out
}

func copyResultMap(m map[string]Result) map[string]Result {
	out := make(map[string]Result, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func failAllOutputs(node AtomicNode, err error) map[string]Result {
	out := make(map[string]Result)
	for _, rid := range node.Outputs() {
		out[ridKey(rid)] = Failure(err)
	}
	return out
}

// stringRID adapts a resourceKey back into the minimal ResourceIdentifier
// shape cacheOutput needs purely for map storage; it never round-trips
// through ResourceKey() again, since OutputResult is keyed by string
// throughout the evaluation context.
type stringRID string

func (s stringRID) ResourceKey() string { return string(s) }
