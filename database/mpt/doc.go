// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

/*
Package mpt implements a radix-16 Merkle Patricia Trie without extension
nodes, where shared path segments are stored in leaves and branches directly.

The package provides
  - the canonical node encoding (EncodeNode, DecodeNode)
  - a streaming root builder consuming sorted key/value pairs (RootBuilder)
  - a mutable trie over a content addressed node store (Trie)
  - lookups, ordered iteration and node visitors on stored tries
  - proof generation and verification (GenerateProof, VerifyProof)
  - a structural verification of stored tries (VerifyTrie)

Nodes are addressed by the hash of their encoding. Nodes encoding to less than
a hash width are embedded in their parent, except for the root node, which is
always hashed.

Todos:
  - ~~streaming root computation~~
  - ~~inclusion and non-inclusion proofs~~
  - ~~structural verification of stored tries~~
  - compute hashes of independent subtrees in parallel in the Trie
  - support pruning of roots no longer recorded in a node store
*/
package mpt
