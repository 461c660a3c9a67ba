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

//go:generate mockgen -source visitor.go -destination visitor_mocks.go -package mpt

import (
	"fmt"
	"strings"

	"github.com/costa-wang/substrate-digest/common"
)

// ----------------------------------------------------------------------------
//                            Visitor Interface
// ----------------------------------------------------------------------------

// NodeVisitor defines an interface for any consumer interested in visiting
// the nodes of a trie. It is intended for generic trie analysis
// infrastructure.
type NodeVisitor interface {
	// Visit is called for each node. Through the response the visitor can
	// decide control the visiting process. It may be
	//  - continued: keep processing additional nodes
	//  - aborted: stop processing nodes and end node iteration
	//  - pruned: skip the child nodes of the current node and continue with
	//       the next node following the last descendent of the current node
	Visit(Node, NodeInfo) VisitResponse
}

type NodeInfo struct {
	Reference ChildReference // the reference to the node; the root is referenced by hash
	Path      []Nibble       // the path leading to the node, excluding its own partial path
	Depth     int            // the nesting level of the visited node
	Size      int            // the length of the node's encoding
}

// Embedded is true if the node is stored inline in its parent.
func (i NodeInfo) Embedded() bool {
	return i.Reference.IsInline()
}

type VisitResponse int

const (
	VisitResponseContinue VisitResponse = 0
	VisitResponseAbort    VisitResponse = 1
	VisitResponsePrune    VisitResponse = 2
)

// VisitTrie visits the nodes of the trie with the given root in depth-first
// order, children in ascending slot order after their parent. Nodes are
// loaded lazily; the trie does not need to fit into memory.
func VisitTrie(source NodeSource, config Config, root common.Hash, visitor NodeVisitor) error {
	node, encoded, err := loadRoot(source, config, root)
	if err != nil {
		return err
	}
	info := NodeInfo{Reference: NewHashReference(root), Size: len(encoded)}
	_, err = visitNode(source, node, info, visitor)
	return err
}

// VisitTrie visits all nodes of this trie.
func (t *Trie) VisitTrie(visitor NodeVisitor) error {
	return VisitTrie(t.store, t.config, t.root, visitor)
}

// visitNode returns true if the visit was aborted.
func visitNode(source NodeSource, node Node, info NodeInfo, visitor NodeVisitor) (bool, error) {
	switch visitor.Visit(node, info) {
	case VisitResponseAbort:
		return true, nil
	case VisitResponsePrune:
		return false, nil
	}
	branch, ok := node.(*BranchNode)
	if !ok {
		return false, nil
	}
	path := concatNibbles(info.Path, branch.Path)
	for i, ref := range branch.Children {
		if ref.IsEmpty() {
			continue
		}
		child, encoded, err := loadNode(source, ref)
		if err != nil {
			return false, err
		}
		childInfo := NodeInfo{
			Reference: ref,
			Path:      concatNibbles(path, []Nibble{Nibble(i)}),
			Depth:     info.Depth + 1,
			Size:      len(encoded),
		}
		if abort, err := visitNode(source, child, childInfo, visitor); abort || err != nil {
			return abort, err
		}
	}
	return false, nil
}

// ----------------------------------------------------------------------------
//                          Lambda Visitor
// ----------------------------------------------------------------------------

// MakeVisitor wraps a function into the node visitor interface.
func MakeVisitor(visit func(Node, NodeInfo) VisitResponse) NodeVisitor {
	return &lambdaVisitor{visit}
}

type lambdaVisitor struct {
	visit func(Node, NodeInfo) VisitResponse
}

func (v *lambdaVisitor) Visit(n Node, i NodeInfo) VisitResponse {
	return v.visit(n, i)
}

// ----------------------------------------------------------------------------
//                            Node Statistics
// ----------------------------------------------------------------------------

// GetTrieNodeStatistics computes node statistics for the trie with the given
// root.
func GetTrieNodeStatistics(source NodeSource, config Config, root common.Hash) (NodeStatistic, error) {
	collector := &nodeStatisticsCollector{}
	if err := VisitTrie(source, config, root, collector); err != nil {
		return NodeStatistic{}, err
	}
	return collector.stats, nil
}

type NodeStatistic struct {
	NumLeaves            int
	NumBranches          int
	NumBranchesWithValue int
	NumEmbedded          int

	// total size of all encodings of nodes referenced by hash
	StoredBytes int

	numChildren [17]int
	depths      []int
}

func (s *NodeStatistic) String() string {
	builder := strings.Builder{}

	builder.WriteString("Node types:\n")
	builder.WriteString(fmt.Sprintf("Leaves, %d\n", s.NumLeaves))
	builder.WriteString(fmt.Sprintf("Branches, %d\n", s.NumBranches))
	builder.WriteString(fmt.Sprintf("Branches with value, %d\n", s.NumBranchesWithValue))
	builder.WriteString(fmt.Sprintf("Embedded, %d\n", s.NumEmbedded))
	builder.WriteString(fmt.Sprintf("Stored bytes, %d\n", s.StoredBytes))

	builder.WriteString("Branch-Node-Size Distribution:\n")
	for i, count := range s.numChildren {
		if i > 0 {
			builder.WriteString(fmt.Sprintf("%d, %d\n", i, count))
		}
	}

	if len(s.depths) > 0 {
		builder.WriteString("Node depth distribution:\n")
		for i, count := range s.depths {
			builder.WriteString(fmt.Sprintf("%d, %d\n", i, count))
		}
	}

	return builder.String()
}

type nodeStatisticsCollector struct {
	stats NodeStatistic
}

func (c *nodeStatisticsCollector) Visit(node Node, info NodeInfo) VisitResponse {
	if node.Kind() == KindEmpty {
		return VisitResponseContinue
	}
	c.registerDepth(info)
	if info.Embedded() {
		c.stats.NumEmbedded++
	} else {
		c.stats.StoredBytes += info.Size
	}
	switch t := node.(type) {
	case *LeafNode:
		c.stats.NumLeaves++
	case *BranchNode:
		c.stats.NumBranches++
		if t.HasValue() {
			c.stats.NumBranchesWithValue++
		}
		c.stats.numChildren[t.ChildCount()]++
	}
	return VisitResponseContinue
}

func (c *nodeStatisticsCollector) registerDepth(info NodeInfo) {
	for len(c.stats.depths) <= info.Depth {
		c.stats.depths = append(c.stats.depths, 0)
	}
	c.stats.depths[info.Depth]++
}
