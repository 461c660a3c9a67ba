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
	"encoding/hex"
	"fmt"
	"sync"
	"testing"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

func TestHasher_EmptyInputProducesKnownDigests(t *testing.T) {
	tests := []struct {
		hasher Hasher
		want   string
	}{
		{Blake2b256, "0e5751c026e543b2e8ab2eb06099daa1d1e5df47778f7787faab45cdf12fe3a8"},
		{Keccak256, "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"},
	}
	for _, test := range tests {
		got := test.hasher.Hash(nil)
		if want := test.want; hex.EncodeToString(got[:]) != want {
			t.Errorf("invalid %s digest of empty input, got %x, wanted %s", test.hasher.Name(), got, want)
		}
	}
}

func TestHasher_MatchesReferenceImplementation(t *testing.T) {
	inputs := [][]byte{
		{0},
		{1, 2, 3},
		make([]byte, 31),
		make([]byte, 32),
		make([]byte, 1024),
	}
	for _, input := range inputs {
		if got, want := Blake2b256.Hash(input), Hash(blake2b.Sum256(input)); got != want {
			t.Errorf("invalid blake2b digest for %x, got %v, wanted %v", input, got, want)
		}

		keccak := sha3.NewLegacyKeccak256()
		keccak.Write(input)
		want, _ := HashFromBytes(keccak.Sum(nil))
		if got := Keccak256.Hash(input); got != want {
			t.Errorf("invalid keccak digest for %x, got %v, wanted %v", input, got, want)
		}
	}
}

func TestHasher_CanBeUsedConcurrently(t *testing.T) {
	const N = 16
	want := Blake2b256.Hash([]byte("node"))
	var wg sync.WaitGroup
	errs := make([]error, N)
	for i := 0; i < N; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if got := Blake2b256.Hash([]byte("node")); got != want {
					errs[i] = fmt.Errorf("unexpected digest, got %v, wanted %v", got, want)
					return
				}
			}
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			t.Error(err)
		}
	}
}

func TestHasher_GetHasherByName(t *testing.T) {
	for _, hasher := range []Hasher{Blake2b256, Keccak256} {
		got, found := GetHasherByName(hasher.Name())
		if !found || got != hasher {
			t.Errorf("failed to locate hasher %s", hasher.Name())
		}
	}
	if _, found := GetHasherByName("unknown"); found {
		t.Errorf("unknown hasher should not be found")
	}
}

func TestHash_CompareAndFromBytes(t *testing.T) {
	a := Hash{1}
	b := Hash{2}
	if a.Compare(b) >= 0 || b.Compare(a) <= 0 || a.Compare(a) != 0 {
		t.Errorf("invalid order of hashes %v and %v", a, b)
	}
	if _, err := HashFromBytes([]byte{1, 2}); err == nil {
		t.Errorf("converting a short slice should fail")
	}
	got, err := HashFromBytes(a[:])
	if err != nil || got != a {
		t.Errorf("failed to convert hash bytes, got %v, err %v", got, err)
	}
}
