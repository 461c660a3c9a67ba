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
	"strings"

	"github.com/costa-wang/substrate-digest/common"
)

// This file defines the node types of a radix-16 Merkle Patricia Trie without
// extension nodes. There are three different types of nodes:
//
//  - empty nodes  ... the root node of an empty trie
//  - leaf nodes   ... the end of a key path, carrying a non-empty value
//  - branch nodes ... inner nodes splitting navigation paths on the next
//                     nibble, optionally carrying the value of the key ending
//                     at the branch
//
// Both leaf and branch nodes carry a partial path, the nibbles consumed
// between the parent's slot and the node itself. A sequence of single-child
// branches is thus collapsed into the partial path of the next node, making
// extension nodes unnecessary.
//
// Nodes do not point to each other. Children are addressed by the hash of
// their encoding or, if this encoding is shorter than a hash, embedded
// directly into the parent.

// NodeKind enumerates the node variants.
type NodeKind byte

const (
	KindEmpty NodeKind = iota
	KindLeaf
	KindBranch
)

func (k NodeKind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindLeaf:
		return "leaf"
	case KindBranch:
		return "branch"
	}
	return fmt.Sprintf("unknown(%d)", byte(k))
}

// Node is implemented by EmptyNode, *LeafNode, and *BranchNode. The set of
// implementations is closed; use a type switch to inspect a node.
type Node interface {
	// Kind returns the variant of this node.
	Kind() NodeKind
	// GetPath returns the partial path covered by this node.
	GetPath() []Nibble

	sealed()
}

// ----------------------------------------------------------------------------
//                               Empty Node
// ----------------------------------------------------------------------------

// EmptyNode is the root of an empty trie. Its encoding is the single byte 0x00.
type EmptyNode struct{}

func (EmptyNode) Kind() NodeKind    { return KindEmpty }
func (EmptyNode) GetPath() []Nibble { return nil }
func (EmptyNode) sealed()           {}

func (EmptyNode) String() string { return "Empty" }

// ----------------------------------------------------------------------------
//                               Leaf Node
// ----------------------------------------------------------------------------

// LeafNode terminates a key path. The full key of the leaf is the path of
// its parents, the slot nibbles leading to it, and its own partial Path.
type LeafNode struct {
	Path  []Nibble
	Value []byte
}

func (*LeafNode) Kind() NodeKind      { return KindLeaf }
func (n *LeafNode) GetPath() []Nibble { return n.Path }
func (*LeafNode) sealed()             {}

func (n *LeafNode) String() string {
	return fmt.Sprintf("Leaf{path: %s, value: 0x%x}", formatNibbles(n.Path), n.Value)
}

// ----------------------------------------------------------------------------
//                               Branch Node
// ----------------------------------------------------------------------------

// BranchNode splits the navigation path on the nibble following its partial
// Path. A nil Value means the branch carries no value; at least one child
// must be present in every valid branch.
type BranchNode struct {
	Path     []Nibble
	Children [16]ChildReference
	Value    []byte
}

func (*BranchNode) Kind() NodeKind      { return KindBranch }
func (n *BranchNode) GetPath() []Nibble { return n.Path }
func (*BranchNode) sealed()             {}

// HasValue reports whether a value is attached to this branch.
func (n *BranchNode) HasValue() bool {
	return n.Value != nil
}

// Bitmap returns the 16-bit child presence mask, bit i set if slot i is used.
func (n *BranchNode) Bitmap() uint16 {
	res := uint16(0)
	for i, child := range n.Children {
		if !child.IsEmpty() {
			res |= 1 << i
		}
	}
	return res
}

// ChildCount returns the number of non-empty child slots.
func (n *BranchNode) ChildCount() int {
	count := 0
	for _, child := range n.Children {
		if !child.IsEmpty() {
			count++
		}
	}
	return count
}

func (n *BranchNode) String() string {
	var builder strings.Builder
	builder.WriteString("Branch{path: ")
	builder.WriteString(formatNibbles(n.Path))
	builder.WriteString(", children: [")
	first := true
	for i, child := range n.Children {
		if child.IsEmpty() {
			continue
		}
		if !first {
			builder.WriteString(", ")
		}
		first = false
		fmt.Fprintf(&builder, "%s: %v", Nibble(i), child)
	}
	builder.WriteString("]")
	if n.HasValue() {
		fmt.Fprintf(&builder, ", value: 0x%x", n.Value)
	}
	builder.WriteString("}")
	return builder.String()
}

// ----------------------------------------------------------------------------
//                             Child References
// ----------------------------------------------------------------------------

type childKind byte

const (
	childEmpty childKind = iota
	childInline
	childHash
)

// ChildReference is the content of a branch slot. It is either empty, the
// hash of the encoding of the child node, or an inline child, which is the
// full encoding of a node shorter than a hash. The zero value is empty.
type ChildReference struct {
	kind   childKind
	hash   common.Hash
	inline []byte
}

// NewHashReference creates a reference addressing a child by its hash.
func NewHashReference(hash common.Hash) ChildReference {
	return ChildReference{kind: childHash, hash: hash}
}

// NewInlineReference creates a reference embedding the given encoded node.
// Encodings of exactly common.HashSize bytes can not be embedded since they
// would be indistinguishable from a hash on the wire.
func NewInlineReference(encoded []byte) (ChildReference, error) {
	if len(encoded) == 0 || len(encoded) == common.HashSize {
		return ChildReference{}, fmt.Errorf("inline child of %d bytes not supported", len(encoded))
	}
	return ChildReference{kind: childInline, inline: bytes.Clone(encoded)}, nil
}

// newReference produces the reference for the child with the given encoding,
// embedding it if it is shorter than a hash. Encodings that need to be
// hashed are passed to the given consumer, if present.
func newReference(hasher common.Hasher, encoded []byte, consumer func(hash common.Hash, encoded []byte) error) (ChildReference, error) {
	if len(encoded) < common.HashSize {
		return ChildReference{kind: childInline, inline: encoded}, nil
	}
	hash := hasher.Hash(encoded)
	if consumer != nil {
		if err := consumer(hash, encoded); err != nil {
			return ChildReference{}, err
		}
	}
	return NewHashReference(hash), nil
}

// IsEmpty reports whether the slot is unused.
func (r ChildReference) IsEmpty() bool { return r.kind == childEmpty }

// IsHash reports whether the child is referenced by its hash.
func (r ChildReference) IsHash() bool { return r.kind == childHash }

// IsInline reports whether the child is embedded in its parent.
func (r ChildReference) IsInline() bool { return r.kind == childInline }

// Hash returns the referenced hash. Only valid for hash references.
func (r ChildReference) Hash() common.Hash { return r.hash }

// Inline returns the embedded encoding. Only valid for inline references.
func (r ChildReference) Inline() []byte { return r.inline }

// payload is the byte string stored for this reference on the wire.
func (r ChildReference) payload() []byte {
	switch r.kind {
	case childHash:
		return r.hash[:]
	case childInline:
		return r.inline
	}
	return nil
}

// Equal tests whether the two references address the same child in the
// same way.
func (r ChildReference) Equal(other ChildReference) bool {
	if r.kind != other.kind {
		return false
	}
	switch r.kind {
	case childHash:
		return r.hash == other.hash
	case childInline:
		return bytes.Equal(r.inline, other.inline)
	}
	return true
}

func (r ChildReference) String() string {
	switch r.kind {
	case childHash:
		return r.hash.String()
	case childInline:
		return fmt.Sprintf("inline(0x%x)", r.inline)
	}
	return "empty"
}
