// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package proof

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/costa-wang/substrate-digest/common"
	"github.com/costa-wang/substrate-digest/common/interrupt"
	"github.com/costa-wang/substrate-digest/database/mpt"
	"golang.org/x/exp/maps"
)

//go:generate mockgen -source verification.go -destination verification_mocks.go -package proof

// ErrInvalidProof is an error returned when a generated proof does not
// verify against the trie it was generated from.
const ErrInvalidProof = common.ConstError("invalid proof")

const (
	// batchSize is the number of keys covered by a single proof.
	batchSize = 10
	// numAbsentKeys is the number of random keys not in the trie for which
	// proofs of absence are checked.
	numAbsentKeys = 1000
)

// VerifyTrie verifies the consistency of proofs for the trie with the given
// root. All key/value pairs of the trie are enumerated, proofs are generated
// for batches of keys, and it is checked that values in the trie and the
// proofs match. Additionally, proofs of absence are checked for random keys
// not present in the trie. The process can be interrupted by the context.
func VerifyTrie(ctx context.Context, store mpt.NodeStore, config mpt.Config, root common.Hash, observer mpt.VerificationObserver) error {
	if observer == nil {
		observer = mpt.NilVerificationObserver{}
	}
	observer.StartVerification()
	trie, err := mpt.OpenTrie(store, config, root)
	if err == nil {
		err = verifyTrie(ctx, trie, config, observer)
	}
	observer.EndVerification(err)
	return err
}

func verifyTrie(ctx context.Context, trie verifiableTrie, config mpt.Config, observer mpt.VerificationObserver) error {
	observer.Progress("Collecting and verifying proofs ... ")
	verifier := pairVerifier{
		ctx:       ctx,
		config:    config,
		trie:      trie,
		observer:  observer,
		logWindow: 1000_000,
		batch:     map[string][]byte{},
	}
	err := trie.ForEach(verifier.add)
	if err == nil {
		err = verifier.flush()
	}
	if err != nil {
		return err
	}
	observer.Progress(fmt.Sprintf("Verified %d keys", verifier.counter))
	return verifyAbsentKeys(ctx, trie, config, numAbsentKeys, observer)
}

// verifyAbsentKeys verifies proofs for keys that are not present in the trie.
func verifyAbsentKeys(ctx context.Context, trie verifiableTrie, config mpt.Config, number int, observer mpt.VerificationObserver) error {
	observer.Progress(fmt.Sprintf("Verifying %d absent keys ...", number))
	keys, err := generateAbsentKeys(trie, number)
	if err != nil {
		return err
	}
	for len(keys) > 0 {
		if interrupt.IsCancelled(ctx) {
			return interrupt.ErrCanceled
		}
		batch := keys[:min(batchSize, len(keys))]
		keys = keys[len(batch):]
		if err := verifyKeys(trie, config, batch, map[string][]byte{}); err != nil {
			return err
		}
	}
	return nil
}

// verifyKeys generates a proof for the given keys and checks that it proves
// the given content, where keys missing in the content are claimed absent.
func verifyKeys(trie verifiableTrie, config mpt.Config, keys [][]byte, content map[string][]byte) error {
	proof, err := trie.GenerateProof(keys)
	if err != nil {
		return err
	}
	items := make([]mpt.ProofItem, 0, len(keys))
	for _, key := range keys {
		items = append(items, mpt.ProofItem{Key: key, Value: content[string(key)]})
	}
	if err := mpt.VerifyProof(config, trie.Root(), proof, items); err != nil {
		return errors.Join(ErrInvalidProof, err)
	}
	return nil
}

// generateAbsentKeys generates keys that do not appear in the trie.
func generateAbsentKeys(trie verifiableTrie, number int) ([][]byte, error) {
	res := make([][]byte, 0, number)
	for len(res) < number {
		j := rand.Int()
		key := []byte{byte(j), byte(j >> 8), byte(j >> 16), byte(j >> 24), 1}

		// if an unlikely situation happens and the key is in the trie, skip it
		_, exists, err := trie.Get(key)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}
		res = append(res, key)
	}
	return res, nil
}

// pairVerifier collects the key/value pairs of a trie and verifies proofs
// for them in batches, keeping memory usage bounded and allowing for
// responsive cancellation.
type pairVerifier struct {
	ctx      context.Context
	config   mpt.Config
	trie     verifiableTrie
	observer mpt.VerificationObserver

	logWindow int
	counter   int
	batch     map[string][]byte
}

func (v *pairVerifier) add(key, value []byte) error {
	if v.counter%100 == 0 && interrupt.IsCancelled(v.ctx) {
		return interrupt.ErrCanceled
	}
	v.counter++
	v.batch[string(key)] = value
	if len(v.batch) >= batchSize {
		if err := v.flush(); err != nil {
			return err
		}
	}
	if v.counter%v.logWindow == 0 {
		v.observer.Progress(fmt.Sprintf("  ... verified %d keys", v.counter))
	}
	return nil
}

func (v *pairVerifier) flush() error {
	if len(v.batch) == 0 {
		return nil
	}
	keys := make([][]byte, 0, len(v.batch))
	for _, key := range maps.Keys(v.batch) {
		keys = append(keys, []byte(key))
	}
	if err := verifyKeys(v.trie, v.config, keys, v.batch); err != nil {
		return err
	}
	v.batch = map[string][]byte{}
	return nil
}

// verifiableTrie is an interface for a trie that can provide proofs and trie
// properties to validate the proofs against the trie.
type verifiableTrie interface {
	// Root returns the root hash of the trie.
	Root() common.Hash

	// Get returns the value for the given key.
	Get(key []byte) ([]byte, bool, error)

	// ForEach enumerates all key/value pairs of the trie.
	ForEach(consume func(key, value []byte) error) error

	// GenerateProof creates a proof for the given keys.
	GenerateProof(keys [][]byte) ([][]byte, error)
}
