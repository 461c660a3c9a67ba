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
	"slices"
	"unsafe"

	"github.com/costa-wang/substrate-digest/common"
)

const (
	// ErrUnsortedInput is reported if keys are not passed to a RootBuilder in
	// strictly increasing order.
	ErrUnsortedInput = common.ConstError("keys not in strictly increasing order")
	// ErrBuilderFinished is reported when using a RootBuilder after Finish
	// was called or after an error occurred.
	ErrBuilderFinished = common.ConstError("root builder is finished")
)

// Pair is a key/value entry of a trie.
type Pair struct {
	Key   []byte
	Value []byte
}

// BuildResult summarizes the trie produced by a RootBuilder.
type BuildResult struct {
	// Root is the hash of the encoded root node.
	Root common.Hash
	// Encoded is the encoding of the root node.
	Encoded []byte
	// Pairs is the number of key/value pairs covered by the trie.
	Pairs int
	// Nodes is the number of hashed nodes, including the root. Inline nodes
	// are not counted.
	Nodes int
}

// RootBuilder computes the root of a trie from a stream of key/value pairs
// in ascending key order without materializing the trie. Only the nodes
// along the path of the most recent key are retained, in a stack of open
// branches indexed by their depth. Each node is encoded as soon as no more
// keys can be added to it. Nodes referenced by hash can be passed to an
// optional NodeWriter, producing the full trie in a store.
//
// Pairs with empty values are ignored, consistent with Trie.Set where an
// empty value deletes a key.
type RootBuilder struct {
	hasher common.Hasher
	sink   NodeWriter

	stack        []*builderFrame
	pending      builderItem
	lastKey      []Nibble
	started      bool
	rootEncoding []byte

	pairs int
	nodes int
	err   error
}

// builderFrame is an open branch node at a fixed depth. The branch covers
// all keys starting with prefix, which has exactly depth nibbles.
type builderFrame struct {
	depth    int
	prefix   []Nibble
	children [16]ChildReference
	value    []byte
}

// builderItem is either a leaf waiting to be attached to a branch, or a
// completed sub-trie rooted by a branch at the given depth. The key is the
// full path of the leaf or the prefix of the branch.
type builderItem struct {
	key   []Nibble
	value []byte          // set for leaves
	ref   *ChildReference // set for completed branches
}

// NewRootBuilder creates a builder using the hasher of the given
// configuration. If sink is not nil, all hashed nodes are written to it.
func NewRootBuilder(config Config, sink NodeWriter) *RootBuilder {
	return &RootBuilder{
		hasher: config.Hasher(),
		sink:   sink,
	}
}

// Add adds the next key/value pair. Keys must be strictly increasing.
func (b *RootBuilder) Add(key, value []byte) error {
	if b.err != nil {
		return b.err
	}
	if len(value) == 0 {
		return nil
	}
	path := KeyToNibbles(key)
	if len(path) > MaxPathLength {
		return fmt.Errorf("key of %d bytes exceeds maximum length", len(key))
	}
	if !b.started {
		b.started = true
		b.lastKey = path
		b.pending = builderItem{key: path, value: bytes.Clone(value)}
		b.pairs++
		return nil
	}
	if comparePaths(b.lastKey, path) >= 0 {
		b.err = fmt.Errorf("%w: 0x%x after %s", ErrUnsortedInput, key, formatNibbles(b.lastKey))
		return b.err
	}

	divergence := GetCommonPrefixLength(b.lastKey, path)

	// Close all branches below the divergence point.
	for len(b.stack) > 0 && b.top().depth > divergence {
		if err := b.closeTop(divergence); err != nil {
			b.err = err
			return err
		}
	}

	// Attach the pending item to the branch at the divergence depth.
	if len(b.stack) == 0 || b.top().depth < divergence {
		b.stack = append(b.stack, &builderFrame{
			depth:  divergence,
			prefix: slices.Clone(path[:divergence]),
		})
	}
	if err := b.attach(b.top(), b.pending); err != nil {
		b.err = err
		return err
	}

	b.lastKey = path
	b.pending = builderItem{key: path, value: bytes.Clone(value)}
	b.pairs++
	return nil
}

// Finish completes the trie and returns its root. The builder can not be
// used anymore afterwards.
func (b *RootBuilder) Finish() (BuildResult, error) {
	if b.err != nil {
		return BuildResult{}, b.err
	}
	b.err = ErrBuilderFinished

	if !b.started {
		return BuildResult{
			Root:    EmptyRootHash(b.hasher),
			Encoded: EmptyNodeEncoding(),
		}, nil
	}

	for len(b.stack) > 0 {
		if err := b.closeTop(-1); err != nil {
			return BuildResult{}, err
		}
	}

	var encoded []byte
	if b.pending.ref != nil {
		// The root is always referenced by hash, even if it was inlined.
		encoded = b.rootEncoding
	} else {
		encoded = EncodeNode(&LeafNode{Path: b.pending.key, Value: b.pending.value})
	}
	root := b.hasher.Hash(encoded)
	if err := b.write(root, encoded); err != nil {
		return BuildResult{}, err
	}
	return BuildResult{
		Root:    root,
		Encoded: encoded,
		Pairs:   b.pairs,
		Nodes:   b.nodes,
	}, nil
}

func (b *RootBuilder) top() *builderFrame {
	return b.stack[len(b.stack)-1]
}

// closeTop attaches the pending item to the top-most branch, encodes the
// branch, and makes it the new pending item. The boundary is the depth of
// the branch the closed branch will be attached to, or -1 if it is the root.
func (b *RootBuilder) closeTop(boundary int) error {
	frame := b.top()
	b.stack = b.stack[:len(b.stack)-1]
	if err := b.attach(frame, b.pending); err != nil {
		return err
	}

	parentDepth := boundary
	if len(b.stack) > 0 && b.top().depth > parentDepth {
		parentDepth = b.top().depth
	}

	node := &BranchNode{
		Path:     frame.prefix[parentDepth+1:],
		Children: frame.children,
		Value:    frame.value,
	}
	encoded := EncodeNode(node)
	var ref ChildReference
	if parentDepth < 0 && len(b.stack) == 0 {
		// Root nodes are hashed by Finish.
		b.rootEncoding = encoded
		ref = ChildReference{kind: childInline, inline: encoded}
	} else {
		var err error
		ref, err = newReference(b.hasher, encoded, b.write)
		if err != nil {
			return err
		}
	}
	b.pending = builderItem{key: frame.prefix, ref: &ref}
	return nil
}

// attach places the given item in the matching slot of the given branch, or
// makes it the branch's value if the item's key ends at the branch.
func (b *RootBuilder) attach(frame *builderFrame, item builderItem) error {
	if item.ref != nil {
		frame.children[item.key[frame.depth]] = *item.ref
		return nil
	}
	if len(item.key) == frame.depth {
		frame.value = item.value
		return nil
	}
	leaf := &LeafNode{Path: item.key[frame.depth+1:], Value: item.value}
	ref, err := newReference(b.hasher, EncodeNode(leaf), b.write)
	if err != nil {
		return err
	}
	frame.children[item.key[frame.depth]] = ref
	return nil
}

// write records a hashed node and forwards it to the sink, if present.
func (b *RootBuilder) write(hash common.Hash, encoded []byte) error {
	b.nodes++
	if b.sink == nil {
		return nil
	}
	stored, err := b.sink.Insert(encoded)
	if err != nil {
		return fmt.Errorf("failed to write node %v: %w", hash, err)
	}
	if stored != hash {
		return fmt.Errorf("node store hashed node %v as %v, hashers differ", hash, stored)
	}
	return nil
}

// GetMemoryFootprint provides the size of the builder's retained state.
func (b *RootBuilder) GetMemoryFootprint() *common.MemoryFootprint {
	mf := common.NewMemoryFootprint(unsafe.Sizeof(*b))
	size := uintptr(0)
	for _, frame := range b.stack {
		size += unsafe.Sizeof(*frame) + uintptr(len(frame.prefix)+len(frame.value))
		for _, child := range frame.children {
			size += uintptr(len(child.inline))
		}
	}
	stack := common.NewMemoryFootprint(size)
	stack.SetNote(fmt.Sprintf("%d open branches", len(b.stack)))
	mf.AddChild("stack", stack)
	return mf
}

// comparePaths orders paths lexicographically; a prefix precedes its
// extensions.
func comparePaths(a, b []Nibble) int {
	shared := GetCommonPrefixLength(a, b)
	switch {
	case shared < len(a) && shared < len(b):
		if a[shared] < b[shared] {
			return -1
		}
		return 1
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

// ComputeRoot computes the root hash of the trie containing the given pairs.
// The pairs do not need to be sorted; for duplicate keys the last value wins.
func ComputeRoot(config Config, pairs []Pair) (common.Hash, error) {
	res, err := buildTrie(config, pairs, nil)
	return res.Root, err
}

// ComputeRootEncoding computes the encoding of the root node of the trie
// containing the given pairs, the unhashed form of the trie.
func ComputeRootEncoding(config Config, pairs []Pair) ([]byte, error) {
	res, err := buildTrie(config, pairs, nil)
	return res.Encoded, err
}

// ComputeOrderedRoot computes the root of the trie mapping the compact
// encoded index of each value to the value, as used for ordered lists like
// the extrinsics of a block.
func ComputeOrderedRoot(config Config, values [][]byte) (common.Hash, error) {
	pairs := make([]Pair, 0, len(values))
	for i, value := range values {
		pairs = append(pairs, Pair{Key: appendCompact(nil, uint64(i)), Value: value})
	}
	return ComputeRoot(config, pairs)
}

// BuildTrie writes all nodes of the trie containing the given pairs to the
// given writer and returns its root.
func BuildTrie(config Config, pairs []Pair, sink NodeWriter) (BuildResult, error) {
	return buildTrie(config, pairs, sink)
}

func buildTrie(config Config, pairs []Pair, sink NodeWriter) (BuildResult, error) {
	builder := NewRootBuilder(config, sink)
	for _, pair := range SortPairs(pairs) {
		if err := builder.Add(pair.Key, pair.Value); err != nil {
			return BuildResult{}, err
		}
	}
	return builder.Finish()
}

// SortPairs returns a copy of the given pairs sorted by key. Of pairs with
// the same key, only the last one is retained.
func SortPairs(pairs []Pair) []Pair {
	res := slices.Clone(pairs)
	slices.SortStableFunc(res, func(a, b Pair) int {
		return bytes.Compare(a.Key, b.Key)
	})
	out := res[:0]
	for i, pair := range res {
		if i+1 < len(res) && bytes.Equal(pair.Key, res[i+1].Key) {
			continue
		}
		out = append(out, pair)
	}
	return out
}
