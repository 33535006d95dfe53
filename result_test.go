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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultSuccessFailure(t *testing.T) {
	s := Success(42)
	assert.True(t, s.IsSuccess())
	assert.False(t, s.IsFailure())
	v, ok := s.Value()
	require.True(t, ok)
	assert.Equal(t, 42, v)
	assert.NoError(t, s.Err())

	f := Failure(errors.New("boom"))
	assert.True(t, f.IsFailure())
	assert.False(t, f.IsSuccess())
	_, ok = f.Value()
	assert.False(t, ok)
	assert.EqualError(t, f.Err(), "boom")
}

func TestFailureWithNilPanics(t *testing.T) {
	assert.Panics(t, func() { Failure(nil) })
}

func TestResultMap(t *testing.T) {
	s := Success(2).Map(func(v Value) Value { return v.(int) * 10 })
	v, _ := s.Value()
	assert.Equal(t, 20, v)

	f := Failure(errors.New("boom")).Map(func(v Value) Value { return 1 })
	assert.True(t, f.IsFailure())
	assert.EqualError(t, f.Err(), "boom")
}

func TestResultFlatMap(t *testing.T) {
	s := Success(2).FlatMap(func(v Value) Result { return Success(v.(int) + 1) })
	v, _ := s.Value()
	assert.Equal(t, 3, v)

	chained := Success(2).FlatMap(func(Value) Result { return Failure(errors.New("nope")) })
	assert.True(t, chained.IsFailure())

	f := Failure(errors.New("boom")).FlatMap(func(Value) Result { return Success(1) })
	assert.True(t, f.IsFailure())
}

func TestTryOfRecoversPanic(t *testing.T) {
	r := TryOf(func() Result {
		panic("something broke")
	})
	require.True(t, r.IsFailure())
	var ce ComputeError
	require.ErrorAs(t, r.Err(), &ce)
}

func TestTryOfPassesThroughSuccess(t *testing.T) {
	r := TryOf(func() Result { return Success(7) })
	v, ok := r.Value()
	require.True(t, ok)
	assert.Equal(t, 7, v)
}

func TestFlattenResult(t *testing.T) {
	assert.Equal(t, Success(1), FlattenResult(Success(Success(1))))

	inner := Failure(errors.New("inner"))
	assert.True(t, FlattenResult(Success(inner)).IsFailure())

	outer := Failure(errors.New("outer"))
	assert.Equal(t, outer, FlattenResult(outer))
}

func TestResultEqual(t *testing.T) {
	assert.True(t, Success(1).Equal(Success(1)))
	assert.False(t, Success(1).Equal(Success(2)))
	assert.True(t, Failure(errors.New("x")).Equal(Failure(errors.New("x"))))
	assert.False(t, Failure(errors.New("x")).Equal(Failure(errors.New("y"))))
	assert.False(t, Success(1).Equal(Failure(errors.New("x"))))
}
