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
	"path"
	"strings"
)

// Value is an opaque, dynamically-typed payload carried by a Result. Atomic
// nodes downcast it at the compute boundary; a failed downcast is reported
// as a ComputeError rather than a panic.
type Value interface{}

// ResourceIdentifier is an opaque, equatable, hashable key naming a
// resource an AtomicNode can produce or require. Any comparable Go type
// may implement it; equal identifiers are interchangeable in every index
// lookup, so implementations should be plain value types (structs of
// comparable fields), never pointers.
type ResourceIdentifier interface {
	// ResourceKey returns a string uniquely identifying this resource,
	// used for map storage (reflect-free and comparable-safe).
	ResourceKey() string
}

// Snapshot is an opaque time-like token threaded through an evaluation.
// Equal snapshots must cause AtomicNode.Compute to be deterministic.
type Snapshot struct {
	token string
}

// NewSnapshot wraps an opaque token as a Snapshot.
func NewSnapshot(token string) Snapshot {
	return Snapshot{token: token}
}

// String returns the opaque token backing this Snapshot.
func (s Snapshot) String() string {
	return s.token
}

// Path identifies a node in the tree by its slash-separated location from
// the engine root, e.g. "/root/rawGroup/AskProvider". Paths are always
// canonicalised (via ToAbsolute) before being stored in an index.
type Path string

// Root reports whether this path has no parent, i.e. it names the engine's
// root node.
func (p Path) Root() bool {
	return p.Parent() == ""
}

// Parent returns the path one level up, or "" if p is already the root.
func (p Path) Parent() Path {
	dir := path.Dir(string(p))
	if dir == "." || dir == "/" {
		return ""
	}
	return Path(dir)
}

// Name returns the final path segment.
func (p Path) Name() string {
	return path.Base(string(p))
}

// Child appends a name as a new path segment.
func (p Path) Child(name string) Path {
	return Path(path.Join(string(p), name))
}

// IsDescendantOf reports whether p is equal to root or nested under it.
func (p Path) IsDescendantOf(root Path) bool {
	if p == root {
		return true
	}
	return strings.HasPrefix(string(p), string(root)+"/")
}

// ToAbsolute resolves a possibly-relative path against a base path. A path
// starting with "/" is already absolute and is returned unchanged; any
// other path is treated as a sequence of names joined onto base (".."
// segments walk up, consistent with path.Clean semantics).
func ToAbsolute(base Path, relative Path) Path {
	if strings.HasPrefix(string(relative), "/") {
		return relative
	}
	return Path(path.Clean(path.Join(string(base), string(relative))))
}

// ConnectionPoint pairs a node path with a resource id. It is canonicalised
// to an absolute path the moment it is stored in an index.
type ConnectionPoint struct {
	NodePath Path
	RID      ResourceIdentifier
}

// NewConnectionPoint builds a ConnectionPoint from a path and resource id.
func NewConnectionPoint(nodePath Path, rid ResourceIdentifier) ConnectionPoint {
	return ConnectionPoint{NodePath: nodePath, RID: rid}
}

// Key returns a value usable as a map key for this connection point.
func (cp ConnectionPoint) Key() connectionPointKey {
	return connectionPointKey{path: cp.NodePath, rid: cp.RID.ResourceKey()}
}

// ToAbsolute resolves a connection point's node path against base.
func (cp ConnectionPoint) ToAbsolute(base Path) ConnectionPoint {
	return ConnectionPoint{NodePath: ToAbsolute(base, cp.NodePath), RID: cp.RID}
}

// connectionPointKey is the comparable projection of a ConnectionPoint used
// as a map key; ResourceIdentifier itself is only required to be
// comparable, which is not sufficient for safe map-key use across
// differently-shaped implementations, so we key on its string form.
type connectionPointKey struct {
	path Path
	rid  string
}

// resourceKey is the comparable projection of a ResourceIdentifier used
// wherever a bare rid (no path) is a map key.
type resourceKey = string

func ridKey(rid ResourceIdentifier) resourceKey {
	return rid.ResourceKey()
}
