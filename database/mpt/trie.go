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
	"fmt"

	"github.com/costa-wang/substrate-digest/common"
)

// Trie is a mutable trie on top of a content addressed node store. Every
// update writes the modified nodes along the updated path to the store and
// produces a new root; nodes of previous versions are retained, so that
// each root ever produced remains accessible in the store.
//
// A Trie is not safe for concurrent use.
type Trie struct {
	store  NodeStore
	config Config
	hasher common.Hasher
	root   common.Hash
}

// NewTrie creates an empty trie using the given store.
func NewTrie(store NodeStore, config Config) *Trie {
	return &Trie{
		store:  store,
		config: config,
		hasher: config.Hasher(),
		root:   config.EmptyRoot(),
	}
}

// OpenTrie opens the trie with the given root in the given store.
func OpenTrie(store NodeStore, config Config, root common.Hash) (*Trie, error) {
	if _, _, err := loadRoot(store, config, root); err != nil {
		return nil, fmt.Errorf("failed to open trie with root %v: %w", root, err)
	}
	return &Trie{
		store:  store,
		config: config,
		hasher: config.Hasher(),
		root:   root,
	}, nil
}

// Root returns the current root hash of the trie.
func (t *Trie) Root() common.Hash {
	return t.root
}

// Get retrieves the value associated to the given key.
func (t *Trie) Get(key []byte) ([]byte, bool, error) {
	return Lookup(t.store, t.config, t.root, key)
}

// Set associates the given value to the given key. An empty value deletes
// the key from the trie.
func (t *Trie) Set(key, value []byte) error {
	if len(value) == 0 {
		return t.Delete(key)
	}
	return t.update(KeyToNibbles(key), bytes.Clone(value))
}

// Delete removes the given key from the trie. Deleting a missing key has no
// effect.
func (t *Trie) Delete(key []byte) error {
	return t.update(KeyToNibbles(key), nil)
}

func (t *Trie) update(path []Nibble, value []byte) error {
	if len(path) > MaxPathLength {
		return fmt.Errorf("key of %d nibbles exceeds maximum length", len(path))
	}
	root, _, err := loadRoot(t.store, t.config, t.root)
	if err != nil {
		return err
	}
	var newRoot Node
	var changed bool
	if value == nil {
		newRoot, changed, err = t.remove(root, path)
	} else {
		newRoot, changed, err = t.insert(root, path, value)
	}
	if err != nil || !changed {
		return err
	}
	if newRoot.Kind() == KindEmpty {
		t.root = t.config.EmptyRoot()
		return nil
	}
	encoded := EncodeNode(newRoot)
	hash := t.hasher.Hash(encoded)
	if err := t.write(hash, encoded); err != nil {
		return err
	}
	t.root = hash
	return nil
}

// insert sets the value of the given path in the sub-trie rooted by the given
// node and returns the new root of this sub-trie.
func (t *Trie) insert(node Node, path []Nibble, value []byte) (Node, bool, error) {
	switch n := node.(type) {
	case *LeafNode:
		if nibblesEqual(n.Path, path) {
			if bytes.Equal(n.Value, value) {
				return n, false, nil
			}
			return &LeafNode{Path: n.Path, Value: value}, true, nil
		}
		shared := GetCommonPrefixLength(n.Path, path)
		branch := &BranchNode{Path: path[:shared]}
		if err := t.addLeaf(branch, n.Path[shared:], n.Value); err != nil {
			return nil, false, err
		}
		if err := t.addLeaf(branch, path[shared:], value); err != nil {
			return nil, false, err
		}
		return branch, true, nil

	case *BranchNode:
		shared := GetCommonPrefixLength(n.Path, path)
		if shared < len(n.Path) {
			// The new path diverges within the branch's path; split it.
			branch := &BranchNode{Path: path[:shared]}
			lower := &BranchNode{Path: n.Path[shared+1:], Children: n.Children, Value: n.Value}
			ref, err := t.reference(lower)
			if err != nil {
				return nil, false, err
			}
			branch.Children[n.Path[shared]] = ref
			if err := t.addLeaf(branch, path[shared:], value); err != nil {
				return nil, false, err
			}
			return branch, true, nil
		}

		rest := path[shared:]
		if len(rest) == 0 {
			if bytes.Equal(n.Value, value) {
				return n, false, nil
			}
			return &BranchNode{Path: n.Path, Children: n.Children, Value: value}, true, nil
		}

		child, _, err := loadNode(t.store, n.Children[rest[0]])
		if err != nil {
			return nil, false, err
		}
		newChild, changed, err := t.insert(child, rest[1:], value)
		if err != nil || !changed {
			return n, false, err
		}
		ref, err := t.reference(newChild)
		if err != nil {
			return nil, false, err
		}
		res := &BranchNode{Path: n.Path, Children: n.Children, Value: n.Value}
		res.Children[rest[0]] = ref
		return res, true, nil
	}
	return &LeafNode{Path: path, Value: value}, true, nil
}

// addLeaf adds a value to a branch, relative to the branch's position. An
// empty suffix makes the value the branch's value.
func (t *Trie) addLeaf(branch *BranchNode, suffix []Nibble, value []byte) error {
	if len(suffix) == 0 {
		branch.Value = value
		return nil
	}
	ref, err := t.reference(&LeafNode{Path: suffix[1:], Value: value})
	if err != nil {
		return err
	}
	branch.Children[suffix[0]] = ref
	return nil
}

// remove deletes the given path from the sub-trie rooted by the given node
// and returns the new root of this sub-trie.
func (t *Trie) remove(node Node, path []Nibble) (Node, bool, error) {
	switch n := node.(type) {
	case *LeafNode:
		if nibblesEqual(n.Path, path) {
			return EmptyNode{}, true, nil
		}
		return n, false, nil

	case *BranchNode:
		if !IsPrefixOf(n.Path, path) {
			return n, false, nil
		}
		rest := path[len(n.Path):]
		if len(rest) == 0 {
			if !n.HasValue() {
				return n, false, nil
			}
			res, err := t.normalize(&BranchNode{Path: n.Path, Children: n.Children})
			return res, true, err
		}

		ref := n.Children[rest[0]]
		if ref.IsEmpty() {
			return n, false, nil
		}
		child, _, err := loadNode(t.store, ref)
		if err != nil {
			return nil, false, err
		}
		newChild, changed, err := t.remove(child, rest[1:])
		if err != nil || !changed {
			return n, false, err
		}
		res := &BranchNode{Path: n.Path, Children: n.Children, Value: n.Value}
		if newChild.Kind() == KindEmpty {
			res.Children[rest[0]] = ChildReference{}
		} else {
			res.Children[rest[0]], err = t.reference(newChild)
			if err != nil {
				return nil, false, err
			}
		}
		normalized, err := t.normalize(res)
		return normalized, true, err
	}
	return node, false, nil
}

// normalize restores the structural invariants of a branch after a removal:
// a branch without children becomes a leaf, and a branch without a value
// and a single child is merged with its child.
func (t *Trie) normalize(branch *BranchNode) (Node, error) {
	count := branch.ChildCount()
	if count == 0 {
		if !branch.HasValue() {
			return EmptyNode{}, nil
		}
		return &LeafNode{Path: branch.Path, Value: branch.Value}, nil
	}
	if count > 1 || branch.HasValue() {
		return branch, nil
	}

	for i, ref := range branch.Children {
		if ref.IsEmpty() {
			continue
		}
		child, _, err := loadNode(t.store, ref)
		if err != nil {
			return nil, err
		}
		path := concatNibbles(branch.Path, []Nibble{Nibble(i)}, child.GetPath())
		switch c := child.(type) {
		case *LeafNode:
			return &LeafNode{Path: path, Value: c.Value}, nil
		case *BranchNode:
			return &BranchNode{Path: path, Children: c.Children, Value: c.Value}, nil
		}
		return nil, fmt.Errorf("invalid child of kind %v in branch", child.Kind())
	}
	return branch, nil
}

// reference encodes the given node and produces the reference to it, writing
// nodes referenced by hash to the store.
func (t *Trie) reference(node Node) (ChildReference, error) {
	return newReference(t.hasher, EncodeNode(node), t.write)
}

func (t *Trie) write(hash common.Hash, encoded []byte) error {
	stored, err := t.store.Insert(encoded)
	if err != nil {
		return err
	}
	if stored != hash {
		return fmt.Errorf("node store hashed node %v as %v, hashers differ", hash, stored)
	}
	return nil
}
