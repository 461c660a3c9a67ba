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
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/costa-wang/substrate-digest/backend"
	"github.com/costa-wang/substrate-digest/common"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// ErrHasherMismatch is reported when opening a store created with a
// different hashing algorithm.
const ErrHasherMismatch = common.ConstError("node store uses a different hasher")

// defaultBatchSize is the number of inserted nodes buffered before they are
// written to the database.
const defaultBatchSize = 1024

var hasherMetadataKey = backend.MetadataKey.ToPrefixedKey([]byte("hasher"))

// LevelDb is a persistent, content addressed node store. Nodes are stored in
// the NodeStoreKey table space keyed by their hash. Inserts are buffered in
// a write batch until Flush is called or the batch is full.
type LevelDb struct {
	db        *backend.LevelDbMemoryFootprintWrapper
	hasher    common.Hasher
	batchSize int

	mu      sync.Mutex
	batch   *leveldb.Batch
	pending map[common.Hash][]byte
}

// OpenLevelDb opens or creates a node store in the given directory. The
// name of the hasher is recorded on creation; reopening the store with a
// different hasher fails.
func OpenLevelDb(path string, hasher common.Hasher) (*LevelDb, error) {
	db, err := backend.OpenLevelDb(path, nil)
	if err != nil {
		return nil, err
	}
	if err := checkHasher(db, hasher); err != nil {
		return nil, errors.Join(err, db.Close())
	}
	return &LevelDb{
		db:        db,
		hasher:    hasher,
		batchSize: defaultBatchSize,
		batch:     new(leveldb.Batch),
		pending:   map[common.Hash][]byte{},
	}, nil
}

func checkHasher(db *backend.LevelDbMemoryFootprintWrapper, hasher common.Hasher) error {
	name, err := db.Get(hasherMetadataKey, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return db.Put(hasherMetadataKey, []byte(hasher.Name()), nil)
	}
	if err != nil {
		return err
	}
	if string(name) != hasher.Name() {
		return fmt.Errorf("%w: store uses %s, requested %s", ErrHasherMismatch, name, hasher.Name())
	}
	return nil
}

// Get retrieves the encoded node with the given hash.
func (s *LevelDb) Get(hash common.Hash) ([]byte, bool, error) {
	s.mu.Lock()
	data, found := s.pending[hash]
	s.mu.Unlock()
	if found {
		return data, true, nil
	}
	data, err := s.db.Get(backend.NodeStoreKey.ToDBKey(hash[:]).ToBytes(), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Insert stores the given encoded node under its hash. Nodes already present
// in the database or the pending batch are not written again.
func (s *LevelDb) Insert(data []byte) (common.Hash, error) {
	hash := s.hasher.Hash(data)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.pending[hash]; found {
		return hash, nil
	}
	found, err := s.db.Has(backend.NodeStoreKey.ToDBKey(hash[:]).ToBytes(), nil)
	if err != nil {
		return hash, err
	}
	if found {
		return hash, nil
	}
	s.pending[hash] = append([]byte(nil), data...)
	s.batch.Put(backend.NodeStoreKey.ToDBKey(hash[:]).ToBytes(), data)
	if s.batch.Len() >= s.batchSize {
		return hash, s.flush()
	}
	return hash, nil
}

// ForEach calls the given function for every stored node until it returns
// an error. Nodes are visited in the order of their hashes. Pending inserts
// are flushed first.
func (s *LevelDb) ForEach(consume func(hash common.Hash, data []byte) error) error {
	if err := s.Flush(); err != nil {
		return err
	}
	iter := s.db.NewIterator(util.BytesPrefix([]byte{byte(backend.NodeStoreKey)}), nil)
	defer iter.Release()
	for iter.Next() {
		hash, err := common.HashFromBytes(iter.Key()[1:]) // strip the table space
		if err != nil {
			return err
		}
		if err := consume(hash, iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}

// SetRoot records the given root hash under the given name. Pending nodes are
// flushed first, so a recorded root is always complete in the database.
func (s *LevelDb) SetRoot(name string, root common.Hash) error {
	if err := s.Flush(); err != nil {
		return err
	}
	return s.db.Put(backend.RootKey.ToPrefixedKey([]byte(name)), root[:], nil)
}

// GetRoot retrieves the root hash recorded under the given name.
func (s *LevelDb) GetRoot(name string) (common.Hash, bool, error) {
	data, err := s.db.Get(backend.RootKey.ToPrefixedKey([]byte(name)), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return common.Hash{}, false, nil
	}
	if err != nil {
		return common.Hash{}, false, err
	}
	hash, err := common.HashFromBytes(data)
	if err != nil {
		return common.Hash{}, false, fmt.Errorf("invalid root %q: %w", name, err)
	}
	return hash, true, nil
}

// Hasher returns the hasher used for addressing nodes.
func (s *LevelDb) Hasher() common.Hasher {
	return s.hasher
}

// Flush writes all buffered nodes to the database.
func (s *LevelDb) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flush()
}

func (s *LevelDb) flush() error {
	if s.batch.Len() == 0 {
		return nil
	}
	if err := s.db.Write(s.batch, nil); err != nil {
		return err
	}
	s.batch.Reset()
	s.pending = map[common.Hash][]byte{}
	return nil
}

// Close flushes buffered nodes and closes the database.
func (s *LevelDb) Close() error {
	return errors.Join(s.Flush(), s.db.Close())
}

// GetMemoryFootprint provides the size of the store in memory in bytes.
func (s *LevelDb) GetMemoryFootprint() *common.MemoryFootprint {
	mf := common.NewMemoryFootprint(unsafe.Sizeof(*s))
	s.mu.Lock()
	batch := common.NewMemoryFootprint(uintptr(len(s.batch.Dump())))
	batch.SetNote(fmt.Sprintf("%d pending nodes", len(s.pending)))
	s.mu.Unlock()
	mf.AddChild("batch", batch)
	mf.AddChild("levelDb", s.db.GetMemoryFootprint())
	return mf
}
