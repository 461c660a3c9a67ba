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

const (
	// ErrRootMismatch is reported if no node of a witness hashes to the root.
	ErrRootMismatch = common.ConstError("proof does not contain the root node")
	// ErrIncompleteProof is reported if a node required for a lookup is
	// missing in the witness.
	ErrIncompleteProof = common.ConstError("proof is missing a required node")
	// ErrExtraneousNode is reported for witness nodes not required by any
	// of the verified items, and for duplicated nodes.
	ErrExtraneousNode = common.ConstError("proof contains an extraneous node")
	// ErrValueMismatch is reported if the value proven for a key differs
	// from the expected value.
	ErrValueMismatch = common.ConstError("proven value does not match")
)

// ProofItem is a claim to be verified by a proof. A nil Value claims the
// absence of the key.
type ProofItem struct {
	Key   []byte
	Value []byte
}

func (i ProofItem) String() string {
	if i.Value == nil {
		return fmt.Sprintf("0x%x -> absent", i.Key)
	}
	return fmt.Sprintf("0x%x -> 0x%x", i.Key, i.Value)
}

// VerifyProof checks that the given witness proves all items against the
// given root. All lookups are resolved exclusively through the witness,
// including nodes embedded in their parents. The witness must not contain
// any node not needed by the items.
func VerifyProof(config Config, root common.Hash, proof [][]byte, items []ProofItem) error {
	witness, err := newWitness(config.Hasher(), proof)
	if err != nil {
		return err
	}

	var rootNode Node
	var rootEncoding []byte
	if root == config.EmptyRoot() {
		rootNode, rootEncoding = EmptyNode{}, emptyNodeEncoding
	} else {
		if _, found := witness.nodes[root]; !found {
			return fmt.Errorf("%w: %v", ErrRootMismatch, root)
		}
		rootNode, rootEncoding, err = witness.get(root)
		if err != nil {
			return err
		}
	}

	for _, item := range items {
		value, found, err := lookupPath(witness.resolve, rootNode, rootEncoding, KeyToNibbles(item.Key), nil)
		if err != nil {
			return fmt.Errorf("failed to verify %v: %w", item, err)
		}
		switch {
		case item.Value == nil && found:
			return fmt.Errorf("%w: key 0x%x is present with value 0x%x", ErrValueMismatch, item.Key, value)
		case item.Value != nil && !found:
			return fmt.Errorf("%w: key 0x%x is absent", ErrValueMismatch, item.Key)
		case item.Value != nil && !bytes.Equal(item.Value, value):
			return fmt.Errorf("%w: key 0x%x has value 0x%x, expected 0x%x", ErrValueMismatch, item.Key, value, item.Value)
		}
	}

	return witness.checkAllUsed()
}

// witness indexes the nodes of a proof by their hash and tracks which of
// them are used during verification.
type witness struct {
	hasher common.Hasher
	nodes  map[common.Hash]int
	proof  [][]byte
	used   []bool
}

func newWitness(hasher common.Hasher, proof [][]byte) (*witness, error) {
	res := &witness{
		hasher: hasher,
		nodes:  make(map[common.Hash]int, len(proof)),
		proof:  proof,
		used:   make([]bool, len(proof)),
	}
	for i, node := range proof {
		hash := hasher.Hash(node)
		if _, found := res.nodes[hash]; found {
			return nil, fmt.Errorf("%w: node %v listed multiple times", ErrExtraneousNode, hash)
		}
		res.nodes[hash] = i
	}
	return res, nil
}

func (w *witness) get(hash common.Hash) (Node, []byte, error) {
	pos, found := w.nodes[hash]
	if !found {
		return nil, nil, fmt.Errorf("%w: %v", ErrIncompleteProof, hash)
	}
	w.used[pos] = true
	encoded := w.proof[pos]
	node, err := DecodeNode(encoded)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid proof node %v: %w", hash, err)
	}
	return node, encoded, nil
}

func (w *witness) resolve(ref ChildReference) (Node, []byte, error) {
	if ref.IsInline() {
		return w.get(w.hasher.Hash(ref.Inline()))
	}
	return w.get(ref.Hash())
}

func (w *witness) checkAllUsed() error {
	for i, used := range w.used {
		if !used {
			return fmt.Errorf("%w: %v", ErrExtraneousNode, w.hasher.Hash(w.proof[i]))
		}
	}
	return nil
}
