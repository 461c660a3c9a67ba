// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package nodestore

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/costa-wang/substrate-digest/common"
)

type nodeStore interface {
	Get(hash common.Hash) ([]byte, bool, error)
	Insert(data []byte) (common.Hash, error)
	ForEach(func(common.Hash, []byte) error) error
	Close() error
	common.MemoryFootprintProvider
}

type storeFactory struct {
	name   string
	create func(t *testing.T) nodeStore
}

func getStoreFactories() []storeFactory {
	return []storeFactory{
		{"memory", func(t *testing.T) nodeStore {
			return NewMemory(common.Blake2b256)
		}},
		{"leveldb", func(t *testing.T) nodeStore {
			store, err := OpenLevelDb(t.TempDir(), common.Blake2b256)
			if err != nil {
				t.Fatalf("failed to open store: %v", err)
			}
			return store
		}},
		{"leveldb-small-batches", func(t *testing.T) nodeStore {
			store, err := OpenLevelDb(t.TempDir(), common.Blake2b256)
			if err != nil {
				t.Fatalf("failed to open store: %v", err)
			}
			store.batchSize = 2
			return store
		}},
	}
}

func TestNodeStore_InsertedNodesCanBeRetrieved(t *testing.T) {
	for _, factory := range getStoreFactories() {
		t.Run(factory.name, func(t *testing.T) {
			store := factory.create(t)
			defer store.Close()

			for i := 0; i < 10; i++ {
				data := []byte(fmt.Sprintf("node-%d", i))
				hash, err := store.Insert(data)
				if err != nil {
					t.Fatalf("failed to insert node: %v", err)
				}
				if want := common.Blake2b256.Hash(data); hash != want {
					t.Errorf("unexpected hash, got %v, wanted %v", hash, want)
				}
			}
			for i := 0; i < 10; i++ {
				data := []byte(fmt.Sprintf("node-%d", i))
				got, found, err := store.Get(common.Blake2b256.Hash(data))
				if err != nil || !found {
					t.Fatalf("failed to fetch node %d, found %t, err %v", i, found, err)
				}
				if !bytes.Equal(got, data) {
					t.Errorf("unexpected node data, got %s, wanted %s", got, data)
				}
			}
		})
	}
}

func TestNodeStore_MissingNodesAreReportedAsNotFound(t *testing.T) {
	for _, factory := range getStoreFactories() {
		t.Run(factory.name, func(t *testing.T) {
			store := factory.create(t)
			defer store.Close()
			data, found, err := store.Get(common.Hash{1, 2, 3})
			if err != nil || found || data != nil {
				t.Errorf("missing node should not be found, got %x, %t, %v", data, found, err)
			}
		})
	}
}

func TestNodeStore_InsertIsIdempotent(t *testing.T) {
	for _, factory := range getStoreFactories() {
		t.Run(factory.name, func(t *testing.T) {
			store := factory.create(t)
			defer store.Close()
			for i := 0; i < 3; i++ {
				if _, err := store.Insert([]byte("node")); err != nil {
					t.Fatalf("failed to insert node: %v", err)
				}
			}
			count := 0
			if err := store.ForEach(func(common.Hash, []byte) error {
				count++
				return nil
			}); err != nil {
				t.Fatalf("failed to iterate nodes: %v", err)
			}
			if count != 1 {
				t.Errorf("unexpected number of nodes, got %d, wanted 1", count)
			}
		})
	}
}

func TestNodeStore_ForEachPropagatesErrors(t *testing.T) {
	injected := errors.New("injected")
	for _, factory := range getStoreFactories() {
		t.Run(factory.name, func(t *testing.T) {
			store := factory.create(t)
			defer store.Close()
			if _, err := store.Insert([]byte("node")); err != nil {
				t.Fatalf("failed to insert node: %v", err)
			}
			err := store.ForEach(func(common.Hash, []byte) error { return injected })
			if !errors.Is(err, injected) {
				t.Errorf("unexpected error, got %v, wanted %v", err, injected)
			}
		})
	}
}

func TestNodeStore_ProvidesMemoryFootprint(t *testing.T) {
	for _, factory := range getStoreFactories() {
		t.Run(factory.name, func(t *testing.T) {
			store := factory.create(t)
			defer store.Close()
			if _, err := store.Insert([]byte("node")); err != nil {
				t.Fatalf("failed to insert node: %v", err)
			}
			if mf := store.GetMemoryFootprint(); mf.Total() == 0 {
				t.Errorf("memory footprint should not be empty")
			}
		})
	}
}

func TestLevelDb_NodesArePersistent(t *testing.T) {
	dir := t.TempDir()
	store, err := OpenLevelDb(dir, common.Blake2b256)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	hash, err := store.Insert([]byte("node"))
	if err != nil {
		t.Fatalf("failed to insert node: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}

	store, err = OpenLevelDb(dir, common.Blake2b256)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer store.Close()
	data, found, err := store.Get(hash)
	if err != nil || !found || !bytes.Equal(data, []byte("node")) {
		t.Errorf("node not restored, got %x, %t, %v", data, found, err)
	}
}

func TestLevelDb_ReopeningWithDifferentHasherFails(t *testing.T) {
	dir := t.TempDir()
	store, err := OpenLevelDb(dir, common.Blake2b256)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}
	_, err = OpenLevelDb(dir, common.Keccak256)
	if !errors.Is(err, ErrHasherMismatch) {
		t.Errorf("unexpected error, got %v, wanted %v", err, ErrHasherMismatch)
	}
}

func TestLevelDb_PendingNodesAreVisibleBeforeFlush(t *testing.T) {
	store, err := OpenLevelDb(t.TempDir(), common.Blake2b256)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()
	hash, err := store.Insert([]byte("node"))
	if err != nil {
		t.Fatalf("failed to insert node: %v", err)
	}
	if _, found, err := store.Get(hash); err != nil || !found {
		t.Errorf("pending node should be visible, found %t, err %v", found, err)
	}
	if got := store.GetMemoryFootprint().String(); !strings.Contains(got, "1 pending nodes") {
		t.Errorf("footprint should report pending nodes, got %s", got)
	}
}

func TestLevelDb_RootsCanBeRecordedAndRetrieved(t *testing.T) {
	dir := t.TempDir()
	store, err := OpenLevelDb(dir, common.Blake2b256)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	if _, found, err := store.GetRoot("head"); found || err != nil {
		t.Errorf("unexpected root in empty store, found %t, err %v", found, err)
	}
	hash, err := store.Insert([]byte("root"))
	if err != nil {
		t.Fatalf("failed to insert node: %v", err)
	}
	if err := store.SetRoot("head", hash); err != nil {
		t.Fatalf("failed to set root: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}

	store, err = OpenLevelDb(dir, common.Blake2b256)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer store.Close()
	root, found, err := store.GetRoot("head")
	if err != nil || !found || root != hash {
		t.Errorf("root not restored, got %v, %t, %v", root, found, err)
	}
	if _, found, _ := store.Get(root); !found {
		t.Errorf("node of recorded root not present")
	}
}

func TestLevelDb_FlushedNodesAreNotWrittenAgain(t *testing.T) {
	store, err := OpenLevelDb(t.TempDir(), common.Blake2b256)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	node := []byte{0x42, 0xaa, 0x04, 0xbb}
	if _, err := store.Insert(node); err != nil {
		t.Fatalf("failed to insert node: %v", err)
	}
	if err := store.Flush(); err != nil {
		t.Fatalf("failed to flush store: %v", err)
	}
	hash, err := store.Insert(node)
	if err != nil {
		t.Fatalf("failed to insert node: %v", err)
	}
	if got := store.batch.Len(); got != 0 {
		t.Errorf("node already in the database should not be queued, got %d pending writes", got)
	}
	if data, found, err := store.Get(hash); err != nil || !found || !bytes.Equal(data, node) {
		t.Errorf("node should remain retrievable, got %x, %t, %v", data, found, err)
	}
}
