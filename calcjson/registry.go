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

// Package calcjson is the versioned, class-tagged JSON contract for
// calcgraph node trees: a registry maps a type tag to a constructor, and
// encode/decode round-trip through it.
package calcjson

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/vincentzz/nodeengin-sub001"
)

// groupTag is "group", reserved for calcgraph.NodeGroup itself; every
// other tag names a registered AtomicNode constructor.
const groupTag = "group"

// NodeConstructor builds an AtomicNode from its encoded parameter payload.
type NodeConstructor func(params json.RawMessage) (calcgraph.AtomicNode, error)

// RIDConstructor builds a ResourceIdentifier from its encoded parameter
// payload.
type RIDConstructor func(params json.RawMessage) (calcgraph.ResourceIdentifier, error)

// NodeEncoder is implemented by AtomicNode types that want to participate
// in the JSON contract. Atomic nodes that never cross the serialization
// boundary need not implement it.
type NodeEncoder interface {
	EncodeTag() string
	EncodeParams() (json.RawMessage, error)
}

// RIDEncoder is implemented by ResourceIdentifier types that want to
// participate in the JSON contract.
type RIDEncoder interface {
	EncodeRIDTag() string
	EncodeRIDParams() (json.RawMessage, error)
}

// NodeTypeRegistry maps a node or resource-identifier tag to its
// constructor. Registration is strictly write-once-per-tag, mirroring the
// process-wide-but-write-once registry the source system uses; callers
// should prefer a dependency-injected instance over a single global.
type NodeTypeRegistry struct {
	mu        sync.RWMutex
	nodes     map[string]NodeConstructor
	resources map[string]RIDConstructor
}

// NewNodeTypeRegistry builds an empty registry.
func NewNodeTypeRegistry() *NodeTypeRegistry {
	return &NodeTypeRegistry{
		nodes:     make(map[string]NodeConstructor),
		resources: make(map[string]RIDConstructor),
	}
}

// Register adds a node tag's constructor. It is an error to register the
// same tag twice, to register the reserved "group" tag, or to register an
// empty tag.
func (r *NodeTypeRegistry) Register(tag string, ctor NodeConstructor) error {
	if tag == "" {
		return calcgraph.ArgumentError{Message: "calcjson: empty node tag"}
	}
	if tag == groupTag {
		return calcgraph.ArgumentError{Message: "calcjson: tag \"group\" is reserved"}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.nodes[tag]; exists {
		return calcgraph.ArgumentError{Message: fmt.Sprintf("calcjson: node tag %q already registered", tag)}
	}
	r.nodes[tag] = ctor
	return nil
}

// RegisterResource adds a resource-identifier tag's constructor, subject
// to the same write-once constraint as Register.
func (r *NodeTypeRegistry) RegisterResource(tag string, ctor RIDConstructor) error {
	if tag == "" {
		return calcgraph.ArgumentError{Message: "calcjson: empty resource tag"}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.resources[tag]; exists {
		return calcgraph.ArgumentError{Message: fmt.Sprintf("calcjson: resource tag %q already registered", tag)}
	}
	r.resources[tag] = ctor
	return nil
}

func (r *NodeTypeRegistry) lookupNode(tag string) (NodeConstructor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ctor, ok := r.nodes[tag]
	return ctor, ok
}

func (r *NodeTypeRegistry) lookupResource(tag string) (RIDConstructor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ctor, ok := r.resources[tag]
	return ctor, ok
}
