// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package common

//go:generate mockgen -source hasher.go -destination hasher_mocks.go -package common

import (
	"hash"
	"sync"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// Hasher is the hash capability used for content addressing trie nodes. Any
// implementation must be deterministic and produce HashSize bytes of output.
// Implementations must be safe for concurrent use.
type Hasher interface {
	// Hash computes the digest of the given data.
	Hash(data []byte) Hash
	// Name returns a short identifier of the hashing algorithm.
	Name() string
}

// Blake2b256 is the default hasher, computing 256-bit BLAKE2b digests.
var Blake2b256 Hasher = &pooledHasher{
	name: "blake2b-256",
	pool: sync.Pool{New: func() any {
		h, err := blake2b.New256(nil)
		if err != nil {
			panic(err) // only fails for oversized keys
		}
		return h
	}},
}

// Keccak256 computes legacy Keccak-256 digests as used by Ethereum.
var Keccak256 Hasher = &pooledHasher{
	name: "keccak-256",
	pool: sync.Pool{New: func() any { return sha3.NewLegacyKeccak256() }},
}

// GetHasherByName locates one of the hashers provided by this package.
func GetHasherByName(name string) (Hasher, bool) {
	for _, hasher := range []Hasher{Blake2b256, Keccak256} {
		if hasher.Name() == name {
			return hasher, true
		}
	}
	return nil, false
}

// pooledHasher recycles hash.Hash instances since their allocation is
// noticeable when hashing many small nodes.
type pooledHasher struct {
	name string
	pool sync.Pool
}

func (h *pooledHasher) Hash(data []byte) Hash {
	hasher := h.pool.Get().(hash.Hash)
	hasher.Reset()
	hasher.Write(data)
	var res Hash
	hasher.Sum(res[:0])
	h.pool.Put(hasher)
	return res
}

func (h *pooledHasher) Name() string {
	return h.name
}
