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

// This file lives in the calcjson_test package, not calcjson, specifically
// so it can import money (which itself imports calcjson) without forming an
// import cycle.
package calcjson_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	calcgraph "github.com/vincentzz/nodeengin-sub001"
	"github.com/vincentzz/nodeengin-sub001/calcjson"
	"github.com/vincentzz/nodeengin-sub001/money"
)

func registryWithMoney(t *testing.T) *calcjson.NodeTypeRegistry {
	t.Helper()
	registry := calcjson.NewNodeTypeRegistry()
	require.NoError(t, money.RegisterAll(registry))
	return registry
}

func TestToFromJSON_RoundTripsAtomicNode(t *testing.T) {
	registry := registryWithMoney(t)
	ask := money.AskProvider{NodeName: "ask", Instrument: "APPLE", Source: "Bloomberg", Value: decimal.RequireFromString("100.25")}

	result := calcjson.ToJSON(ask, registry)
	text, ok := result.Value()
	require.True(t, ok)

	decoded := calcjson.FromJSON(text.(string), registry)
	node, ok := decoded.Value()
	require.True(t, ok)

	got, ok := node.(money.AskProvider)
	require.True(t, ok)
	assert.Equal(t, ask.NodeName, got.NodeName)
	assert.Equal(t, ask.Instrument, got.Instrument)
	assert.Equal(t, ask.Source, got.Source)
	assert.True(t, ask.Value.Equal(got.Value))
}

func TestToFromJSON_RoundTripsGroupWithFlywiresAndScope(t *testing.T) {
	registry := registryWithMoney(t)

	ask := money.AskProvider{NodeName: "ask", Instrument: "APPLE", Source: "Bloomberg", Value: decimal.RequireFromString("1.5")}
	bid := money.HardcodeAttributeProvider{NodeName: "bid", Instrument: "APPLE", Source: "HARDCODED", Attribute: money.Bid, Value: decimal.RequireFromString("1.25")}
	calc := money.MidSpreadCalculator{NodeName: "mid", Instrument: "APPLE", Source: "FALCON", AskSource: "Bloomberg"}

	fw := calcgraph.Flywire{
		Source: calcgraph.ConnectionPoint{NodePath: "bid", RID: money.Resource{Instrument: "APPLE", Source: "HARDCODED", Attribute: money.Bid}},
		Target: calcgraph.ConnectionPoint{NodePath: "mid", RID: money.Resource{Instrument: "APPLE", Source: "Bloomberg", Attribute: money.Bid}},
	}
	scope := calcgraph.NewExcludeScope()
	group := calcgraph.NewNodeGroup("root", []calcgraph.CalculationNode{ask, bid, calc}, []calcgraph.Flywire{fw}, scope)

	result := calcjson.ToJSON(group, registry)
	text, ok := result.Value()
	require.True(t, ok)

	decoded := calcjson.FromJSON(text.(string), registry)
	node, ok := decoded.Value()
	require.True(t, ok)

	decodedGroup, ok := node.(*calcgraph.NodeGroup)
	require.True(t, ok)
	assert.Equal(t, "root", decodedGroup.Name())
	assert.Len(t, decodedGroup.Children(), 3)
	require.Len(t, decodedGroup.Flywires(), 1)
	assert.Equal(t, fw, decodedGroup.Flywires()[0])
	assert.Equal(t, scope.Tag, decodedGroup.Exports().Tag)

	reEncoded := calcjson.ToJSON(decodedGroup, registry)
	reText, ok := reEncoded.Value()
	require.True(t, ok)
	assert.Equal(t, text, reText, "re-encoding a decoded graph must byte-for-byte match the original encoding")
}

func TestFromJSON_UnknownTagFails(t *testing.T) {
	registry := calcjson.NewNodeTypeRegistry()
	result := calcjson.FromJSON(`{"tag":"nonexistent","name":"x"}`, registry)
	require.True(t, result.IsFailure())
	var serErr calcgraph.SerializationError
	assert.ErrorAs(t, result.Err(), &serErr)
}

func TestRegister_RejectsReservedGroupTag(t *testing.T) {
	registry := calcjson.NewNodeTypeRegistry()
	err := registry.Register("group", money.DecodeAskProvider)
	require.Error(t, err)
}

func TestRegister_RejectsDuplicateTag(t *testing.T) {
	registry := calcjson.NewNodeTypeRegistry()
	require.NoError(t, registry.Register("money.AskProvider", money.DecodeAskProvider))
	err := registry.Register("money.AskProvider", money.DecodeAskProvider)
	require.Error(t, err)
}
