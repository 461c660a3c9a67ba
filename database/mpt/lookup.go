// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package mpt

import (
	"bytes"

	"github.com/costa-wang/substrate-digest/common"
)

// nodeResolver resolves the node addressed by a child reference, returning
// the node and its encoding.
type nodeResolver func(ChildReference) (Node, []byte, error)

// pathVisitor is informed about every node touched while navigating a path.
type pathVisitor func(node Node, encoded []byte)

// Lookup retrieves the value associated to the given key in the trie with
// the given root. The value is nil and false is returned if the key is not
// present.
func Lookup(source NodeSource, config Config, root common.Hash, key []byte) ([]byte, bool, error) {
	node, encoded, err := loadRoot(source, config, root)
	if err != nil {
		return nil, false, err
	}
	resolve := func(ref ChildReference) (Node, []byte, error) {
		return loadNode(source, ref)
	}
	value, found, err := lookupPath(resolve, node, encoded, KeyToNibbles(key), nil)
	if err != nil || !found {
		return nil, false, err
	}
	return bytes.Clone(value), true, nil
}

// lookupPath navigates from the given node along the given path. Every node
// on the way, including the start node, is reported to the visitor if
// present. Navigation ends at the first node proving the presence or
// absence of the path.
func lookupPath(resolve nodeResolver, node Node, encoded []byte, path []Nibble, visit pathVisitor) ([]byte, bool, error) {
	for {
		if visit != nil {
			visit(node, encoded)
		}
		switch n := node.(type) {
		case *LeafNode:
			if !nibblesEqual(n.Path, path) {
				return nil, false, nil
			}
			return n.Value, true, nil
		case *BranchNode:
			if !IsPrefixOf(n.Path, path) {
				return nil, false, nil
			}
			rest := path[len(n.Path):]
			if len(rest) == 0 {
				return n.Value, n.HasValue(), nil
			}
			child := n.Children[rest[0]]
			if child.IsEmpty() {
				return nil, false, nil
			}
			var err error
			node, encoded, err = resolve(child)
			if err != nil {
				return nil, false, err
			}
			path = rest[1:]
		default:
			return nil, false, nil
		}
	}
}
