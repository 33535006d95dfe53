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

	"github.com/rs/zerolog"
)

// Logger receives evaluation telemetry. It never influences control flow;
// a nil Logger (the default noopLogger) silently drops everything.
type Logger interface {
	ResolvedDependency(path Path, rid ResourceIdentifier, tag InputSourceTag)
	AttributedFailure(path Path, rid ResourceIdentifier, err error)
	StaticWarning(msg string)
}

type noopLogger struct{}

func (noopLogger) ResolvedDependency(Path, ResourceIdentifier, InputSourceTag) {}
func (noopLogger) AttributedFailure(Path, ResourceIdentifier, error)           {}
func (noopLogger) StaticWarning(string)                                        {}

// zerologLogger adapts zerolog.Logger to the Logger interface, matching
// the structured-logging idiom used elsewhere in the retrieval pack
// (alexisbeaulieu97/streamy, R3E-Network/service_layer).
type zerologLogger struct {
	log zerolog.Logger
}

// NewZerologLogger wraps a zerolog.Logger as a calcgraph Logger.
func NewZerologLogger(log zerolog.Logger) Logger {
	return zerologLogger{log: log}
}

func (z zerologLogger) ResolvedDependency(path Path, rid ResourceIdentifier, tag InputSourceTag) {
	z.log.Debug().
		Str("path", string(path)).
		Str("rid", rid.ResourceKey()).
		Int("source_tag", int(tag)).
		Msg("resolved dependency")
}

func (z zerologLogger) AttributedFailure(path Path, rid ResourceIdentifier, err error) {
	z.log.Warn().
		Str("path", string(path)).
		Str("rid", rid.ResourceKey()).
		Err(err).
		Msg("attributed failure")
}

func (z zerologLogger) StaticWarning(msg string) {
	z.log.Warn().Msg(msg)
}

// EngineOption configures an Engine at construction time. It's the
// functional-options idiom the teacher uses for Container construction,
// generalized to calcgraph's own cross-cutting concerns (logging).
type EngineOption interface {
	applyEngineOption(*CalculationEngine)
}

type engineOptionFunc func(*CalculationEngine)

func (f engineOptionFunc) applyEngineOption(e *CalculationEngine) { f(e) }

// WithLogger attaches a Logger to the engine; every ResolvedDependency and
// AttributedFailure event during subsequent evaluations is reported to it.
func WithLogger(logger Logger) EngineOption {
	return engineOptionFunc(func(e *CalculationEngine) {
		e.logger = logger
	})
}

// EvaluateOption modifies the default behavior of a single
// EvaluateForResult call.
type EvaluateOption interface {
	applyEvaluateOption(*evaluateConfig)
}

type evaluateOptionFunc func(*evaluateConfig)

func (f evaluateOptionFunc) applyEvaluateOption(c *evaluateConfig) { f(c) }

type evaluateConfig struct {
	maxDepth int
	budget   context.Context
}

const defaultMaxDepth = 4096

// WithMaxDepth overrides the evaluation-stack depth limit. The limit is
// compared against the stack only once, at the top-level call where the
// stack is still empty, so it does not bound the depth of nested
// atomic-node recursion; a negative n fails every requested resource with
// an ArgumentError.
func WithMaxDepth(n int) EvaluateOption {
	return evaluateOptionFunc(func(c *evaluateConfig) {
		c.maxDepth = n
	})
}

// WithContext attaches an external cancellation/deadline budget to a
// single EvaluateForResult call. Per-node, every Compute about to run is
// checked against it first: a cancelled or expired context surfaces as an
// ordinary Failure(ErrTimeout) attributed to that node, never as a fatal
// engine error. The budget itself is the caller's responsibility; the
// engine only reacts to it (spec's GraphExecutor cancellation story is out
// of core scope).
func WithContext(ctx context.Context) EvaluateOption {
	return evaluateOptionFunc(func(c *evaluateConfig) {
		c.budget = ctx
	})
}
