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
	"strings"

	"github.com/costa-wang/substrate-digest/common"
)

// A proof is a list of encoded nodes, the witness, sufficient for verifying
// the presence or absence of a set of keys in a trie with a known root. The
// witness contains every node visited while looking up the keys, including
// nodes embedded in their parents. Each node is listed once, in the order
// nodes are first visited.

// GenerateProof produces the witness for the given keys in the trie with the
// given root. Keys not present in the trie are covered by a proof of their
// absence.
func GenerateProof(source NodeSource, config Config, root common.Hash, keys [][]byte) ([][]byte, error) {
	hasher := config.Hasher()
	rootNode, encoded, err := loadRoot(source, config, root)
	if err != nil {
		return nil, err
	}
	if rootNode.Kind() == KindEmpty {
		return [][]byte{}, nil
	}

	resolve := func(ref ChildReference) (Node, []byte, error) {
		return loadNode(source, ref)
	}

	res := [][]byte{}
	seen := map[common.Hash]struct{}{}
	record := func(node Node, _ []byte) {
		encoded := EncodeNode(node)
		hash := hasher.Hash(encoded)
		if _, found := seen[hash]; found {
			return
		}
		seen[hash] = struct{}{}
		res = append(res, encoded)
	}

	for _, key := range keys {
		if _, _, err := lookupPath(resolve, rootNode, encoded, KeyToNibbles(key), record); err != nil {
			return nil, fmt.Errorf("failed to generate proof for key 0x%x: %w", key, err)
		}
	}
	return res, nil
}

// GenerateProof produces the witness for the given keys in this trie.
func (t *Trie) GenerateProof(keys [][]byte) ([][]byte, error) {
	return GenerateProof(t.store, t.config, t.root, keys)
}

// MergeProofs combines the given witness lists into one, listing each node
// once. Since nodes are only ever added, a merged proof verifies the union of
// the key sets of its parts against the same root.
func MergeProofs(hasher common.Hasher, proofs ...[][]byte) [][]byte {
	res := [][]byte{}
	seen := map[common.Hash]struct{}{}
	for _, proof := range proofs {
		for _, node := range proof {
			hash := hasher.Hash(node)
			if _, found := seen[hash]; found {
				continue
			}
			seen[hash] = struct{}{}
			res = append(res, node)
		}
	}
	return res
}

// EncodeProof serializes a witness list as a compact encoded number of nodes
// followed by each node prefixed by its compact encoded length.
func EncodeProof(proof [][]byte) []byte {
	size := compactLength(uint64(len(proof)))
	for _, node := range proof {
		size += compactLength(uint64(len(node))) + len(node)
	}
	res := make([]byte, 0, size)
	res = appendCompact(res, uint64(len(proof)))
	for _, node := range proof {
		res = appendLengthPrefixed(res, node)
	}
	return res
}

// DecodeProof parses a witness list serialized by EncodeProof.
func DecodeProof(data []byte) ([][]byte, error) {
	count, pos, err := readCompact(data)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid node count: %w", ErrDecode, err)
	}
	// Every node occupies at least one byte.
	if count > uint64(len(data)-pos) {
		return nil, fmt.Errorf("%w: %d nodes can not be stored in %d bytes", ErrDecode, count, len(data)-pos)
	}
	res := make([][]byte, 0, count)
	for i := uint64(0); i < count; i++ {
		node, n, err := readLengthPrefixed(data[pos:])
		if err != nil {
			return nil, fmt.Errorf("invalid node %d: %w", i, err)
		}
		res = append(res, append([]byte(nil), node...))
		pos += n
	}
	if pos != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes after proof", ErrBadFormat, len(data)-pos)
	}
	return res, nil
}

// FormatProof renders the nodes of a witness list, one per line.
func FormatProof(hasher common.Hasher, proof [][]byte) string {
	var builder strings.Builder
	for _, encoded := range proof {
		hash := hasher.Hash(encoded)
		node, err := DecodeNode(encoded)
		if err != nil {
			fmt.Fprintf(&builder, "%v: invalid node 0x%x: %v\n", hash, encoded, err)
			continue
		}
		fmt.Fprintf(&builder, "%v: %v\n", hash, node)
	}
	return builder.String()
}
