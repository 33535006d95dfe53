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
//
// Encoding relies on encoding/json's struct-field and sorted-map-key
// ordering for stability rather than a third-party JSON library: nothing
// in the retrieval pack ships an alternative JSON codec, and every
// configuration/contract surface in the pack (OpenTofu's HCL-adjacent
// JSON plans, go-mysql-server's JSON type) itself bottoms out on
// encoding/json for the wire format.
package calcjson

import (
	"encoding/json"
	"fmt"

	"github.com/vincentzz/nodeengin-sub001"
)

const schemaVersion = 1

// doc is the wire shape of one CalculationNode, recursively.
type doc struct {
	Version  int             `json:"version,omitempty"`
	Tag      string          `json:"tag"`
	Name     string          `json:"name"`
	Params   json.RawMessage `json:"params,omitempty"`
	Children []doc           `json:"children,omitempty"`
	Flywires []flywireDoc    `json:"flywires,omitempty"`
	Exports  *scopeDoc       `json:"exports,omitempty"`
}

type cpDoc struct {
	Path      calcgraph.Path  `json:"path"`
	RIDTag    string          `json:"rid_tag"`
	RIDParams json.RawMessage `json:"rid_params,omitempty"`
}

type flywireDoc struct {
	Source cpDoc `json:"source"`
	Target cpDoc `json:"target"`
}

type scopeDoc struct {
	Tag   string  `json:"tag"`
	Items []cpDoc `json:"items,omitempty"`
}

// ToJSON encodes a CalculationNode to its stable JSON form.
func ToJSON(node calcgraph.CalculationNode, registry *NodeTypeRegistry) calcgraph.Result {
	d, err := encodeNode(node, registry)
	if err != nil {
		return calcgraph.Failure(calcgraph.SerializationError{Cause: err})
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return calcgraph.Failure(calcgraph.SerializationError{Cause: err})
	}
	return calcgraph.Success(string(raw))
}

// FromJSON decodes a CalculationNode previously produced by ToJSON.
func FromJSON(text string, registry *NodeTypeRegistry) calcgraph.Result {
	var d doc
	if err := json.Unmarshal([]byte(text), &d); err != nil {
		return calcgraph.Failure(calcgraph.SerializationError{Cause: err})
	}
	node, err := decodeNode(d, registry)
	if err != nil {
		return calcgraph.Failure(calcgraph.SerializationError{Cause: err})
	}
	return calcgraph.Success(node)
}

func encodeNode(node calcgraph.CalculationNode, registry *NodeTypeRegistry) (doc, error) {
	switch n := node.(type) {
	case *calcgraph.NodeGroup:
		var children []doc
		for _, c := range n.Children() {
			cd, err := encodeNode(c, registry)
			if err != nil {
				return doc{}, err
			}
			children = append(children, cd)
		}

		var flywires []flywireDoc
		for _, fw := range n.Flywires() {
			fd, err := encodeFlywire(fw)
			if err != nil {
				return doc{}, err
			}
			flywires = append(flywires, fd)
		}

		exports, err := encodeScope(n.Exports())
		if err != nil {
			return doc{}, err
		}

		return doc{
			Version:  schemaVersion,
			Tag:      groupTag,
			Name:     n.Name(),
			Children: children,
			Flywires: flywires,
			Exports:  exports,
		}, nil
	case calcgraph.AtomicNode:
		enc, ok := n.(NodeEncoder)
		if !ok {
			return doc{}, fmt.Errorf("calcjson: atomic node %q of type %T does not implement NodeEncoder", n.Name(), n)
		}
		params, err := enc.EncodeParams()
		if err != nil {
			return doc{}, err
		}
		return doc{
			Version: schemaVersion,
			Tag:     enc.EncodeTag(),
			Name:    n.Name(),
			Params:  params,
		}, nil
	default:
		return doc{}, fmt.Errorf("calcjson: unrecognised node kind %T", node)
	}
}

func decodeNode(d doc, registry *NodeTypeRegistry) (calcgraph.CalculationNode, error) {
	if d.Tag == groupTag {
		children := make([]calcgraph.CalculationNode, 0, len(d.Children))
		for _, cd := range d.Children {
			child, err := decodeNode(cd, registry)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}

		flywires := make([]calcgraph.Flywire, 0, len(d.Flywires))
		for _, fd := range d.Flywires {
			fw, err := decodeFlywire(fd, registry)
			if err != nil {
				return nil, err
			}
			flywires = append(flywires, fw)
		}

		exports, err := decodeScope(d.Exports, registry)
		if err != nil {
			return nil, err
		}

		return calcgraph.NewNodeGroup(d.Name, children, flywires, exports), nil
	}

	ctor, ok := registry.lookupNode(d.Tag)
	if !ok {
		return nil, fmt.Errorf("calcjson: no constructor registered for node tag %q", d.Tag)
	}
	node, err := ctor(d.Params)
	if err != nil {
		return nil, err
	}
	return node, nil
}

func encodeConnectionPoint(cp calcgraph.ConnectionPoint) (cpDoc, error) {
	enc, ok := cp.RID.(RIDEncoder)
	if !ok {
		return cpDoc{}, fmt.Errorf("calcjson: resource id %T does not implement RIDEncoder", cp.RID)
	}
	params, err := enc.EncodeRIDParams()
	if err != nil {
		return cpDoc{}, err
	}
	return cpDoc{Path: cp.NodePath, RIDTag: enc.EncodeRIDTag(), RIDParams: params}, nil
}

func decodeConnectionPoint(d cpDoc, registry *NodeTypeRegistry) (calcgraph.ConnectionPoint, error) {
	ctor, ok := registry.lookupResource(d.RIDTag)
	if !ok {
		return calcgraph.ConnectionPoint{}, fmt.Errorf("calcjson: no constructor registered for resource tag %q", d.RIDTag)
	}
	rid, err := ctor(d.RIDParams)
	if err != nil {
		return calcgraph.ConnectionPoint{}, err
	}
	return calcgraph.NewConnectionPoint(d.Path, rid), nil
}

func encodeFlywire(fw calcgraph.Flywire) (flywireDoc, error) {
	src, err := encodeConnectionPoint(fw.Source)
	if err != nil {
		return flywireDoc{}, err
	}
	tgt, err := encodeConnectionPoint(fw.Target)
	if err != nil {
		return flywireDoc{}, err
	}
	return flywireDoc{Source: src, Target: tgt}, nil
}

func decodeFlywire(d flywireDoc, registry *NodeTypeRegistry) (calcgraph.Flywire, error) {
	src, err := decodeConnectionPoint(d.Source, registry)
	if err != nil {
		return calcgraph.Flywire{}, err
	}
	tgt, err := decodeConnectionPoint(d.Target, registry)
	if err != nil {
		return calcgraph.Flywire{}, err
	}
	return calcgraph.Flywire{Source: src, Target: tgt}, nil
}

func encodeScope(s calcgraph.Scope) (*scopeDoc, error) {
	tag := "exclude"
	if s.Tag == calcgraph.ScopeInclude {
		tag = "include"
	}
	items := make([]cpDoc, 0, len(s.Items))
	for _, cp := range s.Items {
		cd, err := encodeConnectionPoint(cp)
		if err != nil {
			return nil, err
		}
		items = append(items, cd)
	}
	return &scopeDoc{Tag: tag, Items: items}, nil
}

func decodeScope(d *scopeDoc, registry *NodeTypeRegistry) (calcgraph.Scope, error) {
	if d == nil {
		return calcgraph.Scope{Tag: calcgraph.ScopeExclude}, nil
	}
	tag := calcgraph.ScopeExclude
	if d.Tag == "include" {
		tag = calcgraph.ScopeInclude
	}
	items := make([]calcgraph.ConnectionPoint, 0, len(d.Items))
	for _, cd := range d.Items {
		cp, err := decodeConnectionPoint(cd, registry)
		if err != nil {
			return calcgraph.Scope{}, err
		}
		items = append(items, cp)
	}
	return calcgraph.Scope{Tag: tag, Items: items}, nil
}
