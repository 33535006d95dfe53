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

// Result is the sum type every fallible operation in calcgraph flows
// through: a computed Value, or the error that prevented it. A Result is
// never both; the zero Result is a Success of a nil value, which is never
// produced by the engine itself.
type Result struct {
	value Value
	err   error
}

// Success wraps a computed value as a successful Result.
func Success(v Value) Result {
	return Result{value: v}
}

// Failure wraps an error as a failed Result.
func Failure(err error) Result {
	if err == nil {
		panic("calcgraph: Failure called with a nil error")
	}
	return Result{err: err}
}

// IsSuccess reports whether the Result holds a value rather than an error.
func (r Result) IsSuccess() bool {
	return r.err == nil
}

// IsFailure reports whether the Result holds an error.
func (r Result) IsFailure() bool {
	return r.err != nil
}

// Value returns the wrapped value and true, or the zero Value and false if
// this Result is a Failure.
func (r Result) Value() (Value, bool) {
	if r.err != nil {
		return nil, false
	}
	return r.value, true
}

// Err returns the wrapped error, or nil if this Result is a Success.
func (r Result) Err() error {
	return r.err
}

// Unwrap exposes the wrapped error to errors.Is / errors.As chains.
func (r Result) Unwrap() error {
	return r.err
}

// Map applies f to a Success value and rewraps the outcome; a Failure is
// returned unchanged.
func (r Result) Map(f func(Value) Value) Result {
	if r.err != nil {
		return r
	}
	return Success(f(r.value))
}

// FlatMap applies f to a Success value, letting f decide the outcome;
// a Failure is returned unchanged.
func (r Result) FlatMap(f func(Value) Result) Result {
	if r.err != nil {
		return r
	}
	return f(r.value)
}

// TryOf calls fn and converts any panic raised by it into a Failure,
// attributing the panic's value as a ComputeError cause. This is the sole
// sanctioned boundary at which a panic from user-supplied code (an
// AtomicNode's compute or resolve_dependencies) is allowed to cross into
// calcgraph's own control flow.
func TryOf(fn func() Result) (result Result) {
	defer func() {
		if p := recover(); p != nil {
			result = Failure(ComputeError{Cause: fmt.Errorf("panic: %v", p)})
		}
	}()
	return fn()
}

// FlattenResult collapses a Result of a Result into a single Result:
// Success(Success(x)) -> Success(x), Success(Failure(e)) -> Failure(e),
// Failure(e) -> Failure(e).
func FlattenResult(r Result) Result {
	if r.err != nil {
		return r
	}
	inner, ok := r.value.(Result)
	if !ok {
		return r
	}
	return inner
}

// Equal compares tag and content: two Successes are equal iff their values
// compare equal with ==, two Failures are equal iff their error messages
// compare equal, and a Success is never equal to a Failure.
func (r Result) Equal(other Result) bool {
	if r.err != nil || other.err != nil {
		if r.err == nil || other.err == nil {
			return false
		}
		return r.err.Error() == other.err.Error()
	}
	return r.value == other.value
}

func (r Result) String() string {
	if r.err != nil {
		return fmt.Sprintf("Failure(%v)", r.err)
	}
	return fmt.Sprintf("Success(%v)", r.value)
}
