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
	"encoding/binary"
	"fmt"
	"reflect"
	"sync"

	"github.com/costa-wang/substrate-digest/common"
)

const (
	// ErrBadFormat is reported for structurally malformed node encodings.
	ErrBadFormat = common.ConstError("malformed node encoding")
	// ErrDecode is reported if a nested, length prefixed value of a node can
	// not be decoded.
	ErrDecode = common.ConstError("failed to decode nested value")
)

// EncodeNode produces the canonical encoding of the given node. The layout is
//
//	empty:  0x00
//	leaf:   header(01, len(path)) nibbles(path) compact(len(value)) value
//	branch: header(1v, len(path)) nibbles(path) bitmap(u16 le)
//	        { compact(len(child)) child }* [ compact(len(value)) value ]
//
// where v is set if the branch carries a value, and children are listed in
// ascending slot order. The node is expected to be valid; no checks are
// performed.
func EncodeNode(node Node) []byte {
	return appendNode(nil, node)
}

func appendNode(dst []byte, node Node) []byte {
	switch n := node.(type) {
	case *LeafNode:
		dst = appendHeader(dst, headerLeaf, len(n.Path))
		dst = appendPackedNibbles(dst, n.Path)
		return appendLengthPrefixed(dst, n.Value)
	case *BranchNode:
		variant := headerBranchWithoutValue
		if n.HasValue() {
			variant = headerBranchWithValue
		}
		dst = appendHeader(dst, variant, len(n.Path))
		dst = appendPackedNibbles(dst, n.Path)
		dst = binary.LittleEndian.AppendUint16(dst, n.Bitmap())
		for _, child := range n.Children {
			if !child.IsEmpty() {
				dst = appendLengthPrefixed(dst, child.payload())
			}
		}
		if n.HasValue() {
			dst = appendLengthPrefixed(dst, n.Value)
		}
		return dst
	}
	return append(dst, headerEmpty)
}

// encodedNodeSize computes the length of the encoding of the given node
// without producing it.
func encodedNodeSize(node Node) int {
	switch n := node.(type) {
	case *LeafNode:
		return headerLength(len(n.Path)) + packedNibblesLength(len(n.Path)) +
			compactLength(uint64(len(n.Value))) + len(n.Value)
	case *BranchNode:
		size := headerLength(len(n.Path)) + packedNibblesLength(len(n.Path)) + 2
		for _, child := range n.Children {
			if !child.IsEmpty() {
				payload := child.payload()
				size += compactLength(uint64(len(payload))) + len(payload)
			}
		}
		if n.HasValue() {
			size += compactLength(uint64(len(n.Value))) + len(n.Value)
		}
		return size
	}
	return 1
}

// DecodeNode parses an encoded node. The input has to be consumed entirely
// and encoded canonically, otherwise an error is returned. Decoding is shallow:
// inline children are kept in their encoded form. The resulting node does not
// alias the input buffer.
func DecodeNode(data []byte) (Node, error) {
	variant, count, pos, err := readHeader(data)
	if err != nil {
		return nil, err
	}
	if variant == headerEmpty {
		if len(data) != 1 {
			return nil, fmt.Errorf("%w: %d trailing bytes after empty node", ErrBadFormat, len(data)-1)
		}
		return EmptyNode{}, nil
	}

	packed := packedNibblesLength(count)
	if len(data)-pos < packed {
		return nil, fmt.Errorf("%w: path of %d nibbles truncated", ErrBadFormat, count)
	}
	path, err := unpackNibbles(data[pos:pos+packed], count)
	if err != nil {
		return nil, err
	}
	pos += packed

	var node Node
	if variant == headerLeaf {
		node, pos, err = decodeLeafBody(data, pos, path)
	} else {
		node, pos, err = decodeBranchBody(data, pos, path, variant == headerBranchWithValue)
	}
	if err != nil {
		return nil, err
	}
	if pos != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes after %v node", ErrBadFormat, len(data)-pos, node.Kind())
	}
	return node, nil
}

func decodeLeafBody(data []byte, pos int, path []Nibble) (Node, int, error) {
	value, n, err := readValue(data[pos:])
	if err != nil {
		return nil, 0, fmt.Errorf("invalid leaf value: %w", err)
	}
	return &LeafNode{Path: path, Value: value}, pos + n, nil
}

func decodeBranchBody(data []byte, pos int, path []Nibble, hasValue bool) (Node, int, error) {
	if len(data)-pos < 2 {
		return nil, 0, fmt.Errorf("%w: missing child bitmap", ErrBadFormat)
	}
	bitmap := binary.LittleEndian.Uint16(data[pos:])
	pos += 2
	if bitmap == 0 {
		return nil, 0, fmt.Errorf("%w: branch without children", ErrBadFormat)
	}

	res := &BranchNode{Path: path}
	for i := 0; i < len(res.Children); i++ {
		if bitmap&(1<<i) == 0 {
			continue
		}
		payload, n, err := readLengthPrefixed(data[pos:])
		if err != nil {
			return nil, 0, fmt.Errorf("invalid child %d: %w", i, err)
		}
		pos += n
		switch len(payload) {
		case 0:
			return nil, 0, fmt.Errorf("%w: empty reference for child %d", ErrBadFormat, i)
		case common.HashSize:
			res.Children[i] = NewHashReference(common.Hash(payload))
		default:
			res.Children[i] = ChildReference{kind: childInline, inline: bytes.Clone(payload)}
		}
	}

	if hasValue {
		value, n, err := readValue(data[pos:])
		if err != nil {
			return nil, 0, fmt.Errorf("invalid branch value: %w", err)
		}
		res.Value = value
		pos += n
	}
	return res, pos, nil
}

// readValue reads a length prefixed, non-empty value.
func readValue(data []byte) ([]byte, int, error) {
	value, n, err := readLengthPrefixed(data)
	if err != nil {
		return nil, 0, err
	}
	if len(value) == 0 {
		return nil, 0, fmt.Errorf("%w: empty value", ErrBadFormat)
	}
	return bytes.Clone(value), n, nil
}

var emptyNodeEncoding = []byte{headerEmpty}

// EmptyNodeEncoding returns the encoding of the empty node.
func EmptyNodeEncoding() []byte {
	return bytes.Clone(emptyNodeEncoding)
}

var emptyRootHashes sync.Map // common.Hasher -> common.Hash

// EmptyRootHash returns the root hash of an empty trie for the given hasher,
// which is the hash of the encoded empty node. The result is computed once
// per hasher. Hashers of non-comparable types can not be used as cache keys
// and are asked every time.
func EmptyRootHash(hasher common.Hasher) common.Hash {
	if !reflect.TypeOf(hasher).Comparable() {
		return hasher.Hash(emptyNodeEncoding)
	}
	if hash, found := emptyRootHashes.Load(hasher); found {
		return hash.(common.Hash)
	}
	hash := hasher.Hash(emptyNodeEncoding)
	emptyRootHashes.Store(hasher, hash)
	return hash
}
