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
	"errors"
	"strings"
	"testing"

	"github.com/costa-wang/substrate-digest/common"
	"go.uber.org/mock/gomock"
)

func buildVisitorTestTrie(t *testing.T) (NodeStore, common.Hash) {
	t.Helper()
	store := newTestStore(SubstrateConfig)
	pairs := []Pair{p("aa", "a0"), p("aaaa", "aa"), p("aabb", "ab"), p("bb", "b0"), p("bbbb", "bb"), p("bbcc", "bc")}
	res, err := BuildTrie(SubstrateConfig, pairs, store)
	if err != nil {
		t.Fatalf("failed to build trie: %v", err)
	}
	return store, res.Root
}

func TestVisitTrie_NodesAreVisitedInDepthFirstOrder(t *testing.T) {
	store, root := buildVisitorTestTrie(t)
	paths := []string{}
	err := VisitTrie(store, SubstrateConfig, root, MakeVisitor(func(node Node, info NodeInfo) VisitResponse {
		paths = append(paths, formatNibbles(concatNibbles(info.Path, node.GetPath())))
		return VisitResponseContinue
	}))
	if err != nil {
		t.Fatalf("failed to visit trie: %v", err)
	}
	want := []string{"0x", "0xaa", "0xaaaa", "0xaabb", "0xbb", "0xbbbb", "0xbbcc"}
	if got := strings.Join(paths, ","); got != strings.Join(want, ",") {
		t.Errorf("unexpected visiting order, got %s, wanted %s", got, strings.Join(want, ","))
	}
}

func TestVisitTrie_VisitCanBeAborted(t *testing.T) {
	store, root := buildVisitorTestTrie(t)
	ctrl := gomock.NewController(t)
	visitor := NewMockNodeVisitor(ctrl)
	gomock.InOrder(
		visitor.EXPECT().Visit(gomock.Any(), gomock.Any()).Return(VisitResponseContinue),
		visitor.EXPECT().Visit(gomock.Any(), gomock.Any()).Return(VisitResponseAbort),
	)
	if err := VisitTrie(store, SubstrateConfig, root, visitor); err != nil {
		t.Errorf("failed to visit trie: %v", err)
	}
}

func TestVisitTrie_SubTriesCanBePruned(t *testing.T) {
	store, root := buildVisitorTestTrie(t)
	count := 0
	err := VisitTrie(store, SubstrateConfig, root, MakeVisitor(func(node Node, info NodeInfo) VisitResponse {
		count++
		if info.Depth == 1 {
			return VisitResponsePrune
		}
		return VisitResponseContinue
	}))
	if err != nil {
		t.Fatalf("failed to visit trie: %v", err)
	}
	if got, want := count, 3; got != want {
		t.Errorf("unexpected number of visited nodes, got %d, wanted %d", got, want)
	}
}

func TestVisitTrie_MissingNodesAreReported(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := NewMockNodeSource(ctrl)
	root := &BranchNode{}
	root.Children[1] = NewHashReference(common.Hash{1})
	root.Children[2] = NewHashReference(common.Hash{2})
	encoded := EncodeNode(root)
	hash := SubstrateConfig.Hashing.Hash(encoded)
	source.EXPECT().Get(hash).Return(encoded, true, nil)
	source.EXPECT().Get(common.Hash{1}).Return(nil, false, nil)

	visitor := NewMockNodeVisitor(ctrl)
	visitor.EXPECT().Visit(gomock.Any(), gomock.Any()).Return(VisitResponseContinue)

	if err := VisitTrie(source, SubstrateConfig, hash, visitor); !errors.Is(err, ErrMissingNode) {
		t.Errorf("missing node not reported, got %v", err)
	}
}

func TestGetTrieNodeStatistics_CountsNodes(t *testing.T) {
	store, root := buildVisitorTestTrie(t)
	stats, err := GetTrieNodeStatistics(store, SubstrateConfig, root)
	if err != nil {
		t.Fatalf("failed to collect statistics: %v", err)
	}
	rootEncoding, _, _ := store.Get(root)

	if got, want := stats.NumLeaves, 4; got != want {
		t.Errorf("unexpected number of leaves, got %d, wanted %d", got, want)
	}
	if got, want := stats.NumBranches, 3; got != want {
		t.Errorf("unexpected number of branches, got %d, wanted %d", got, want)
	}
	if got, want := stats.NumBranchesWithValue, 2; got != want {
		t.Errorf("unexpected number of branches with value, got %d, wanted %d", got, want)
	}
	if got, want := stats.NumEmbedded, 6; got != want {
		t.Errorf("unexpected number of embedded nodes, got %d, wanted %d", got, want)
	}
	if got, want := stats.StoredBytes, len(rootEncoding); got != want {
		t.Errorf("unexpected number of stored bytes, got %d, wanted %d", got, want)
	}
	if got, want := stats.numChildren[2], 3; got != want {
		t.Errorf("unexpected number of branches with two children, got %d, wanted %d", got, want)
	}
	out := stats.String()
	for _, want := range []string{"Leaves, 4", "Branches, 3", "Embedded, 6", "Node depth distribution"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in statistics:\n%s", want, out)
		}
	}
}

func TestGetTrieNodeStatistics_EmptyTrie(t *testing.T) {
	stats, err := GetTrieNodeStatistics(newTestStore(SubstrateConfig), SubstrateConfig, SubstrateConfig.EmptyRoot())
	if err != nil {
		t.Fatalf("failed to collect statistics: %v", err)
	}
	if stats.NumLeaves != 0 || stats.NumBranches != 0 || stats.StoredBytes != 0 {
		t.Errorf("empty trie should have no nodes, got %v", &stats)
	}
}
