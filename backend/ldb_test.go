// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package backend

import (
	"bytes"
	"strings"
	"testing"

	"github.com/costa-wang/substrate-digest/common"
)

var dbKeySink DbKey

func BenchmarkConvertTableSpace(b *testing.B) {
	hash := common.Hash{}
	for i := 1; i <= b.N; i++ {
		hash[0] = byte(i)
		dbKeySink = NodeStoreKey.ToDBKey(hash[:])
	}
}

func TestTableSpace_KeysArePrefixed(t *testing.T) {
	hash := common.Hash{1, 2, 3}
	key := NodeStoreKey.ToDBKey(hash[:])
	if got, want := key.ToBytes()[0], byte('N'); got != want {
		t.Errorf("invalid prefix, got %c, wanted %c", got, want)
	}
	if !bytes.Equal(key.ToBytes()[1:], hash[:]) {
		t.Errorf("invalid key, got %x, wanted %x", key.ToBytes()[1:], hash[:])
	}
	if got, want := MetadataKey.ToPrefixedKey([]byte("hasher")), []byte("Mhasher"); !bytes.Equal(got, want) {
		t.Errorf("invalid prefixed key, got %s, wanted %s", got, want)
	}
}

func TestTableSpace_OversizedKeysPanic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("converting an oversized key should panic")
		}
	}()
	NodeStoreKey.ToDBKey(make([]byte, common.HashSize+1))
}

func TestOpenLevelDb_ReportsMemoryFootprint(t *testing.T) {
	db, err := OpenLevelDb(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("failed to open LevelDB: %v", err)
	}
	defer db.Close()
	if got := db.GetMemoryFootprint().String(); !strings.Contains(got, "writeBuffer") {
		t.Errorf("footprint should report the write buffer, got %s", got)
	}
}
