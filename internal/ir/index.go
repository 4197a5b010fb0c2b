/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ir

import "strings"

// NodeID addresses a widget inside an Index.
type NodeID int

// NoNode is the parent of the root.
const NoNode NodeID = -1

// Node is one arena entry.
type Node struct {
	ID     NodeID
	Parent NodeID
	Depth  int
	Widget *Widget
}

// Index is a flat pre-order arena over a model. Parent links are integer IDs,
// so no widget holds a reference to its parent. The index is a snapshot: build
// a new one after mutating the tree.
type Index struct {
	nodes  []Node
	byName map[string]NodeID // first occurrence wins
}

// BuildIndex flattens the model into an arena.
func BuildIndex(m *Model) *Index {
	idx := &Index{byName: map[string]NodeID{}}
	if m == nil || m.Root == nil {
		return idx
	}
	var add func(w *Widget, parent NodeID, depth int)
	add = func(w *Widget, parent NodeID, depth int) {
		id := NodeID(len(idx.nodes))
		idx.nodes = append(idx.nodes, Node{ID: id, Parent: parent, Depth: depth, Widget: w})
		if _, dup := idx.byName[w.Name]; !dup {
			idx.byName[w.Name] = id
		}
		for _, c := range w.Children {
			add(c, id, depth+1)
		}
	}
	add(m.Root, NoNode, 0)
	return idx
}

// Len returns the number of nodes.
func (x *Index) Len() int { return len(x.nodes) }

// Nodes returns the arena in pre-order.
func (x *Index) Nodes() []Node { return x.nodes }

// Node returns the node with id.
func (x *Index) Node(id NodeID) (Node, bool) {
	if id < 0 || int(id) >= len(x.nodes) {
		return Node{}, false
	}
	return x.nodes[id], true
}

// Lookup returns the id of the first widget named name.
func (x *Index) Lookup(name string) (NodeID, bool) {
	id, ok := x.byName[name]
	return id, ok
}

// Has reports whether a widget named name exists.
func (x *Index) Has(name string) bool {
	_, ok := x.byName[name]
	return ok
}

// ParentOf returns the parent widget name of name; ok is false for the root or unknown names.
func (x *Index) ParentOf(name string) (string, bool) {
	id, ok := x.byName[name]
	if !ok {
		return "", false
	}
	p := x.nodes[id].Parent
	if p == NoNode {
		return "", false
	}
	return x.nodes[p].Widget.Name, true
}

// Path returns the slash-separated path from the root to name, e.g. "main_window/central/ok_button".
func (x *Index) Path(name string) string {
	id, ok := x.byName[name]
	if !ok {
		return ""
	}
	return x.pathOf(id)
}

// PathAt returns the path of the node with the given id.
func (x *Index) PathAt(id NodeID) string {
	if id < 0 || int(id) >= len(x.nodes) {
		return ""
	}
	return x.pathOf(id)
}

func (x *Index) pathOf(id NodeID) string {
	var parts []string
	for id != NoNode {
		n := x.nodes[id]
		parts = append(parts, n.Widget.Name)
		id = n.Parent
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}
