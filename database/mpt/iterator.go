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
	"fmt"

	"github.com/costa-wang/substrate-digest/common"
)

// ForEach calls the given function for every key/value pair of the trie with
// the given root in ascending key order. Iteration stops at the first error
// returned by the consumer, which is forwarded to the caller.
func ForEach(source NodeSource, config Config, root common.Hash, consume func(key, value []byte) error) error {
	node, _, err := loadRoot(source, config, root)
	if err != nil {
		return err
	}
	return forEach(source, node, nil, consume)
}

// ForEach calls the given function for every key/value pair of the trie in
// ascending key order.
func (t *Trie) ForEach(consume func(key, value []byte) error) error {
	return ForEach(t.store, t.config, t.root, consume)
}

func forEach(source NodeSource, node Node, prefix []Nibble, consume func(key, value []byte) error) error {
	switch n := node.(type) {
	case *LeafNode:
		return emit(concatNibbles(prefix, n.Path), n.Value, consume)
	case *BranchNode:
		path := concatNibbles(prefix, n.Path)
		// A branch's value has a key shorter than all keys in its sub-tries.
		if n.HasValue() {
			if err := emit(path, n.Value, consume); err != nil {
				return err
			}
		}
		for i, ref := range n.Children {
			if ref.IsEmpty() {
				continue
			}
			child, _, err := loadNode(source, ref)
			if err != nil {
				return err
			}
			if err := forEach(source, child, concatNibbles(path, []Nibble{Nibble(i)}), consume); err != nil {
				return err
			}
		}
	}
	return nil
}

func emit(path []Nibble, value []byte, consume func(key, value []byte) error) error {
	key, err := NibblesToKey(path)
	if err != nil {
		return fmt.Errorf("invalid trie, value stored at odd path %s", formatNibbles(path))
	}
	return consume(key, value)
}
