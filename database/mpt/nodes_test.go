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
	"strings"
	"testing"

	"github.com/costa-wang/substrate-digest/common"
)

func TestNodeKind_Print(t *testing.T) {
	tests := []struct {
		kind  NodeKind
		print string
	}{
		{KindEmpty, "empty"},
		{KindLeaf, "leaf"},
		{KindBranch, "branch"},
		{NodeKind(12), "unknown(12)"},
	}
	for _, test := range tests {
		if got, want := test.kind.String(), test.print; got != want {
			t.Errorf("invalid print, got %s, wanted %s", got, want)
		}
	}
}

func TestNodes_KindsAreReported(t *testing.T) {
	tests := []struct {
		node Node
		kind NodeKind
	}{
		{EmptyNode{}, KindEmpty},
		{&LeafNode{}, KindLeaf},
		{&BranchNode{}, KindBranch},
	}
	for _, test := range tests {
		if got, want := test.node.Kind(), test.kind; got != want {
			t.Errorf("invalid kind of %T, got %v, wanted %v", test.node, got, want)
		}
	}
}

func TestChildReference_ZeroValueIsEmpty(t *testing.T) {
	ref := ChildReference{}
	if !ref.IsEmpty() || ref.IsHash() || ref.IsInline() {
		t.Errorf("zero reference should be empty")
	}
	if got, want := ref.String(), "empty"; got != want {
		t.Errorf("invalid print, got %s, wanted %s", got, want)
	}
}

func TestChildReference_InlineReferencesRejectHashSizedPayloads(t *testing.T) {
	for _, size := range []int{0, common.HashSize} {
		if _, err := NewInlineReference(make([]byte, size)); err == nil {
			t.Errorf("inline reference of %d bytes should be rejected", size)
		}
	}
	for _, size := range []int{1, common.HashSize - 1, common.HashSize + 1} {
		ref, err := NewInlineReference(make([]byte, size))
		if err != nil {
			t.Fatalf("failed to create inline reference of %d bytes: %v", size, err)
		}
		if !ref.IsInline() || len(ref.Inline()) != size {
			t.Errorf("invalid inline reference for %d bytes", size)
		}
	}
}

func TestChildReference_Equality(t *testing.T) {
	a := NewHashReference(common.Hash{1})
	b := NewHashReference(common.Hash{2})
	c, _ := NewInlineReference([]byte{1})
	d, _ := NewInlineReference([]byte{1})

	if !a.Equal(a) || a.Equal(b) || a.Equal(c) {
		t.Errorf("invalid equality of hash references")
	}
	if !c.Equal(d) || c.Equal(ChildReference{}) {
		t.Errorf("invalid equality of inline references")
	}
	if !(ChildReference{}).Equal(ChildReference{}) {
		t.Errorf("empty references should be equal")
	}
}

func TestBranchNode_BitmapAndChildCount(t *testing.T) {
	branch := &BranchNode{}
	branch.Children[0] = NewHashReference(common.Hash{})
	branch.Children[9] = NewHashReference(common.Hash{})
	branch.Children[15] = NewHashReference(common.Hash{})
	if got, want := branch.Bitmap(), uint16(1<<0|1<<9|1<<15); got != want {
		t.Errorf("invalid bitmap, got %016b, wanted %016b", got, want)
	}
	if got, want := branch.ChildCount(), 3; got != want {
		t.Errorf("invalid child count, got %d, wanted %d", got, want)
	}
	if branch.HasValue() {
		t.Errorf("branch should not have a value")
	}
	branch.Value = []byte{1}
	if !branch.HasValue() {
		t.Errorf("branch should have a value")
	}
}

func TestNodes_Print(t *testing.T) {
	leaf := &LeafNode{Path: []Nibble{1, 2}, Value: []byte{3}}
	if got, want := leaf.String(), "Leaf{path: 0x12, value: 0x03}"; got != want {
		t.Errorf("invalid print, got %s, wanted %s", got, want)
	}
	branch := &BranchNode{Path: []Nibble{0xa}, Value: []byte{1}}
	branch.Children[2] = mustInline(t, leaf)
	got := branch.String()
	for _, part := range []string{"path: 0xa", "2: inline(0x", "value: 0x01"} {
		if !strings.Contains(got, part) {
			t.Errorf("print of branch %s does not contain %s", got, part)
		}
	}
}
