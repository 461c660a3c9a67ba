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

import (
	"bytes"
	"fmt"
)

// HashSize is the number of bytes of a digest produced by any Hasher.
const HashSize = 32

// Hash is the fixed-size digest used for content addressing trie nodes.
type Hash [HashSize]byte

// HashFromBytes converts the given slice into a hash. The slice must be
// exactly HashSize bytes long.
func HashFromBytes(data []byte) (Hash, error) {
	var res Hash
	if len(data) != HashSize {
		return res, fmt.Errorf("invalid hash length, got %d, wanted %d", len(data), HashSize)
	}
	copy(res[:], data)
	return res, nil
}

// Compare provides a total order on hashes, following the order of their
// byte representation.
func (h Hash) Compare(other Hash) int {
	return bytes.Compare(h[:], other[:])
}

func (h Hash) String() string {
	return fmt.Sprintf("0x%x", h[:])
}
