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
	"fmt"
	"unsafe"

	"github.com/costa-wang/substrate-digest/common"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
)

// KeyValue is a content addressed node store on top of any key/value
// database following go-ethereum's ethdb interfaces. Nodes are stored under
// the hash of their encoding. It is safe for concurrent use if the
// underlying database is.
type KeyValue struct {
	db     ethdb.KeyValueStore
	hasher common.Hasher
}

// NewKeyValue creates a node store on top of the given database, hashing
// nodes with the given hasher.
func NewKeyValue(db ethdb.KeyValueStore, hasher common.Hasher) *KeyValue {
	return &KeyValue{db: db, hasher: hasher}
}

// NewMemory creates an empty in-memory node store.
func NewMemory(hasher common.Hasher) *KeyValue {
	return NewKeyValue(memorydb.New(), hasher)
}

// Get retrieves the encoded node with the given hash.
func (s *KeyValue) Get(hash common.Hash) ([]byte, bool, error) {
	found, err := s.db.Has(hash[:])
	if err != nil || !found {
		return nil, false, err
	}
	data, err := s.db.Get(hash[:])
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Has tests whether a node with the given hash is present.
func (s *KeyValue) Has(hash common.Hash) (bool, error) {
	return s.db.Has(hash[:])
}

// Insert stores the given encoded node under its hash.
func (s *KeyValue) Insert(data []byte) (common.Hash, error) {
	hash := s.hasher.Hash(data)
	found, err := s.db.Has(hash[:])
	if err != nil {
		return hash, err
	}
	if found {
		return hash, nil
	}
	return hash, s.db.Put(hash[:], data)
}

// ForEach calls the given function for every stored node until it returns
// an error. The order of nodes is unspecified.
func (s *KeyValue) ForEach(consume func(hash common.Hash, data []byte) error) error {
	iter := s.db.NewIterator(nil, nil)
	defer iter.Release()
	for iter.Next() {
		hash, err := common.HashFromBytes(iter.Key())
		if err != nil {
			continue
		}
		if err := consume(hash, iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}

// Hasher returns the hasher used for addressing nodes.
func (s *KeyValue) Hasher() common.Hasher {
	return s.hasher
}

func (s *KeyValue) Close() error {
	return s.db.Close()
}

// GetMemoryFootprint provides the size of the store in memory in bytes. For
// in-memory databases the size of the stored nodes is included.
func (s *KeyValue) GetMemoryFootprint() *common.MemoryFootprint {
	mf := common.NewMemoryFootprint(unsafe.Sizeof(*s))
	if mem, ok := s.db.(*memorydb.Database); ok {
		size := uintptr(0)
		_ = s.ForEach(func(hash common.Hash, data []byte) error {
			size += uintptr(len(hash) + len(data))
			return nil
		})
		nodes := common.NewMemoryFootprint(size)
		nodes.SetNote(fmt.Sprintf("%d nodes", mem.Len()))
		mf.AddChild("nodes", nodes)
	}
	return mf
}
