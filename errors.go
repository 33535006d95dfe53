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
	"errors"
	"fmt"
)

// ErrTimeout is the sentinel ComputeError cause surfaced when an
// evaluation's context is cancelled or past its deadline before a node's
// Compute runs. The governing call attributes it to the specific atomic
// node and treats it as an ordinary Failure, never as a fatal engine
// error; cancellation and budget enforcement themselves are an external
// driver's responsibility, not the engine's.
var ErrTimeout = errors.New("calcgraph: evaluation budget exceeded")

// ArgumentError is returned when a caller-supplied argument to an engine
// operation is missing or invalid, e.g. a path outside the engine root.
type ArgumentError struct {
	Message string
}

func (e ArgumentError) Error() string { return "argument error: " + e.Message }

// NoProviderError means no producer could be discovered for a resource
// under a given group path.
type NoProviderError struct {
	Path Path
	RID  ResourceIdentifier
}

func (e NoProviderError) Error() string {
	return fmt.Sprintf("no resource provider for %v under %v", e.RID, e.Path)
}

// AmbiguousProviderError means more than one sibling node declares the
// same output under a group path.
type AmbiguousProviderError struct {
	Path Path
	RID  ResourceIdentifier
}

func (e AmbiguousProviderError) Error() string {
	return fmt.Sprintf("ambiguous providers for %v under %v", e.RID, e.Path)
}

// CycleError means an atomic node was re-entered while already on the
// evaluation stack.
type CycleError struct {
	Stack []Path
	Path  Path
}

func (e CycleError) Error() string {
	msg := "cycle detected: "
	for _, p := range e.Stack {
		msg += string(p) + " -> "
	}
	msg += string(e.Path)
	return msg
}

// ComputeError wraps a failure raised by an AtomicNode's Compute or
// ResolveDependencies, or by a recovered panic from either.
type ComputeError struct {
	NodePath Path
	Cause    error
}

func (e ComputeError) Error() string {
	if e.NodePath == "" {
		return fmt.Sprintf("compute error: %v", e.Cause)
	}
	return fmt.Sprintf("compute error at %v: %v", e.NodePath, e.Cause)
}

func (e ComputeError) Unwrap() error { return e.Cause }

// FlywireTypeError means a flywire's source and target resource ids are
// not type-compatible.
type FlywireTypeError struct {
	Flywire Flywire
}

func (e FlywireTypeError) Error() string {
	return fmt.Sprintf("flywire type mismatch: %v -> %v", e.Flywire.Source, e.Flywire.Target)
}

// SerializationError wraps a JSON encode/decode failure from the calcjson
// contract.
type SerializationError struct {
	Cause error
}

func (e SerializationError) Error() string {
	return fmt.Sprintf("serialization error: %v", e.Cause)
}

func (e SerializationError) Unwrap() error { return e.Cause }

// errRootCause returns the root cause of err, unwrapping any wrappedError
// chain; it returns err unchanged if no root cause is known.
func errRootCause(err error) error {
	if we, ok := err.(wrappedError); ok {
		return we.rootCause
	}
	return err
}

// errWrapf wraps err with additional context, preserving whatever root
// cause err already carried (or using err itself as the root cause if this
// is the first wrap). Mirrors the teacher's errWrapf/wrappedError idiom so
// that errRootCause(errWrapf(errWrapf(err, ...), ...)) == err.
func errWrapf(err error, msg string, args ...interface{}) error {
	if err == nil {
		return nil
	}

	rootCause := err
	if we, ok := err.(wrappedError); ok {
		rootCause = we.rootCause
	}

	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}

	return wrappedError{
		rootCause: rootCause,
		err:       fmt.Errorf("%v: %w", msg, err),
	}
}

type wrappedError struct {
	rootCause error
	err       error
}

func (e wrappedError) Error() string { return e.err.Error() }
func (e wrappedError) Unwrap() error { return e.err }
