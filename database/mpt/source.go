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

//go:generate mockgen -source source.go -destination source_mocks.go -package mpt

import (
	"fmt"

	"github.com/costa-wang/substrate-digest/common"
)

// ErrMissingNode is reported if a node referenced by its hash can not be
// found in the node source.
const ErrMissingNode = common.ConstError("missing node")

// NodeSource provides read access to encoded nodes addressed by the hash of
// their encoding.
type NodeSource interface {
	// Get retrieves the encoding of the node with the given hash. If no such
	// node is known, false is returned without an error.
	Get(hash common.Hash) ([]byte, bool, error)
}

// NodeWriter consumes encoded nodes.
type NodeWriter interface {
	// Insert stores the given encoded node and returns its hash. Inserting
	// the same node multiple times has no additional effect.
	Insert(data []byte) (common.Hash, error)
}

// NodeStore is a content addressed store for encoded nodes.
type NodeStore interface {
	NodeSource
	NodeWriter
}

// loadNode resolves the node addressed by the given reference. Inline nodes
// are decoded from the reference, hashed nodes are fetched from the source.
// Besides the node, its encoding is returned.
func loadNode(source NodeSource, ref ChildReference) (Node, []byte, error) {
	var data []byte
	switch {
	case ref.IsInline():
		data = ref.Inline()
	case ref.IsHash():
		var err error
		data, err = fetchNode(source, ref.Hash())
		if err != nil {
			return nil, nil, err
		}
	default:
		return EmptyNode{}, emptyNodeEncoding, nil
	}
	node, err := DecodeNode(data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode node %v: %w", ref, err)
	}
	return node, data, nil
}

func fetchNode(source NodeSource, hash common.Hash) ([]byte, error) {
	data, found, err := source.Get(hash)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %v", ErrMissingNode, hash)
	}
	return data, nil
}

// loadRoot resolves the root node of the trie with the given root hash. The
// empty trie's root does not need to be present in the source.
func loadRoot(source NodeSource, config Config, root common.Hash) (Node, []byte, error) {
	if root == config.EmptyRoot() {
		return EmptyNode{}, emptyNodeEncoding, nil
	}
	return loadNode(source, NewHashReference(root))
}
