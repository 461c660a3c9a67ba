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
	"strings"
	"testing"

	"github.com/costa-wang/substrate-digest/backend/nodestore"
	"github.com/costa-wang/substrate-digest/common"
	"github.com/costa-wang/substrate-digest/common/interrupt"
	"github.com/costa-wang/substrate-digest/database/mpt"
	"go.uber.org/mock/gomock"
)

func buildTrie(t *testing.T, numPairs int) (mpt.NodeStore, common.Hash) {
	t.Helper()
	store := nodestore.NewMemory(mpt.SubstrateConfig.Hashing)
	r := rand.New(rand.NewSource(int64(numPairs)))
	pairs := make([]mpt.Pair, 0, numPairs)
	for i := 0; i < numPairs; i++ {
		key := make([]byte, 4+r.Intn(16))
		r.Read(key)
		value := make([]byte, 1+r.Intn(50))
		r.Read(value)
		pairs = append(pairs, mpt.Pair{Key: key, Value: value})
	}
	res, err := mpt.BuildTrie(mpt.SubstrateConfig, pairs, store)
	if err != nil {
		t.Fatalf("failed to build trie: %v", err)
	}
	return store, res.Root
}

func TestVerification_VerifyTrie(t *testing.T) {
	for _, numPairs := range []int{0, 1, 10, 95} {
		t.Run(fmt.Sprintf("pairs-%d", numPairs), func(t *testing.T) {
			store, root := buildTrie(t, numPairs)

			ctrl := gomock.NewController(t)
			observer := mpt.NewMockVerificationObserver(ctrl)
			observer.EXPECT().StartVerification()
			observer.EXPECT().Progress(gomock.Any()).AnyTimes()
			observer.EXPECT().EndVerification(nil)

			if err := VerifyTrie(context.Background(), store, mpt.SubstrateConfig, root, observer); err != nil {
				t.Errorf("failed to verify trie: %v", err)
			}
		})
	}
}

func TestVerification_VerifyTrie_CannotOpen(t *testing.T) {
	store := nodestore.NewMemory(mpt.SubstrateConfig.Hashing)

	ctrl := gomock.NewController(t)
	observer := mpt.NewMockVerificationObserver(ctrl)
	observer.EXPECT().StartVerification()
	observer.EXPECT().EndVerification(gomock.Not(nil))

	err := VerifyTrie(context.Background(), store, mpt.SubstrateConfig, common.Hash{1}, observer)
	if !errors.Is(err, mpt.ErrMissingNode) {
		t.Errorf("expected missing root, got %v", err)
	}
}

func TestVerification_FailingTrie(t *testing.T) {
	injected := errors.New("injected")
	pairs := func(consume func(key, value []byte) error) error {
		for i := 0; i < 5; i++ {
			if err := consume([]byte{byte(i)}, []byte{1}); err != nil {
				return err
			}
		}
		return nil
	}

	tests := map[string]func(trie *MockverifiableTrie){
		"ForEach": func(trie *MockverifiableTrie) {
			trie.EXPECT().ForEach(gomock.Any()).Return(injected)
		},
		"GenerateProof": func(trie *MockverifiableTrie) {
			trie.EXPECT().ForEach(gomock.Any()).DoAndReturn(pairs)
			trie.EXPECT().GenerateProof(gomock.Any()).Return(nil, injected)
		},
		"Get": func(trie *MockverifiableTrie) {
			trie.EXPECT().ForEach(gomock.Any()).Return(nil)
			trie.EXPECT().Get(gomock.Any()).Return(nil, false, injected)
		},
	}
	for name, setup := range tests {
		t.Run(name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			trie := NewMockverifiableTrie(ctrl)
			setup(trie)
			err := verifyTrie(context.Background(), trie, mpt.SubstrateConfig, mpt.NilVerificationObserver{})
			if !errors.Is(err, injected) {
				t.Errorf("expected error %v, got %v", injected, err)
			}
		})
	}
}

func TestVerification_InvalidProofsAreDetected(t *testing.T) {
	store, root := buildTrie(t, 20)
	trie, err := mpt.OpenTrie(store, mpt.SubstrateConfig, root)
	if err != nil {
		t.Fatalf("failed to open trie: %v", err)
	}

	tests := map[string]func(proof [][]byte) [][]byte{
		"missing node": func(proof [][]byte) [][]byte {
			return proof[:len(proof)-1]
		},
		"extra node": func(proof [][]byte) [][]byte {
			return append(proof, []byte{0x42, 0x11, 0x04, 0x01})
		},
		"empty": func(proof [][]byte) [][]byte {
			return [][]byte{}
		},
	}
	for name, corrupt := range tests {
		t.Run(name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mock := NewMockverifiableTrie(ctrl)
			mock.EXPECT().Root().Return(root).AnyTimes()
			mock.EXPECT().ForEach(gomock.Any()).DoAndReturn(trie.ForEach)
			mock.EXPECT().GenerateProof(gomock.Any()).DoAndReturn(func(keys [][]byte) ([][]byte, error) {
				proof, err := trie.GenerateProof(keys)
				return corrupt(proof), err
			})
			err := verifyTrie(context.Background(), mock, mpt.SubstrateConfig, mpt.NilVerificationObserver{})
			if !errors.Is(err, ErrInvalidProof) {
				t.Errorf("expected error %v, got %v", ErrInvalidProof, err)
			}
		})
	}
}

func TestVerification_GeneratesAbsentKeys(t *testing.T) {
	ctrl := gomock.NewController(t)
	trie := NewMockverifiableTrie(ctrl)
	gomock.InOrder(
		trie.EXPECT().Get(gomock.Any()).Return([]byte{1}, true, nil),
		trie.EXPECT().Get(gomock.Any()).Return(nil, false, nil),
	)

	keys, err := generateAbsentKeys(trie, 1)
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if len(keys) != 1 {
		t.Errorf("expected 1 key, got %d", len(keys))
	}
}

func TestVerification_CanBeCancelled(t *testing.T) {
	store, root := buildTrie(t, 500)
	trie, err := mpt.OpenTrie(store, mpt.SubstrateConfig, root)
	if err != nil {
		t.Fatalf("failed to open trie: %v", err)
	}

	ctx := newCountingWhenDoneContext(context.Background(), 10_000_000)
	if err := verifyTrie(ctx, trie, mpt.SubstrateConfig, mpt.NilVerificationObserver{}); err != nil {
		t.Fatalf("failed to verify trie: %v", err)
	}

	for i := 0; i < ctx.count; i++ {
		ctx := newCountingWhenDoneContext(context.Background(), i)
		err := verifyTrie(ctx, trie, mpt.SubstrateConfig, mpt.NilVerificationObserver{})
		if !errors.Is(err, interrupt.ErrCanceled) {
			t.Errorf("expected error %v, got %v", interrupt.ErrCanceled, err)
		}
	}
}

func TestVerification_LogProcessedKeys(t *testing.T) {
	store, root := buildTrie(t, 30)
	trie, err := mpt.OpenTrie(store, mpt.SubstrateConfig, root)
	if err != nil {
		t.Fatalf("failed to open trie: %v", err)
	}

	const logWindow = 10
	ctrl := gomock.NewController(t)
	observer := mpt.NewMockVerificationObserver(ctrl)
	observer.EXPECT().Progress(gomock.Any()).Do(func(msg string) {
		if !strings.Contains(msg, "  ... verified") {
			t.Errorf("unexpected log message %q", msg)
		}
	}).Times(3)

	verifier := pairVerifier{
		ctx:       context.Background(),
		config:    mpt.SubstrateConfig,
		trie:      trie,
		observer:  observer,
		logWindow: logWindow,
		batch:     map[string][]byte{},
	}
	if err := trie.ForEach(verifier.add); err != nil {
		t.Fatalf("failed to verify keys: %v", err)
	}
}

// countingWhenDoneContext is a context.Context that counts the number of times Done is called, and signals done only
// when the threshold is reached.
type countingWhenDoneContext struct {
	context.Context
	count     int // count the number of executions checking done
	threshold int // when this threshold is reached, signal done from this point onwards
	done      chan struct{}
}

func newCountingWhenDoneContext(ctx context.Context, threshold int) *countingWhenDoneContext {
	return &countingWhenDoneContext{
		Context:   ctx,
		threshold: threshold,
		done:      make(chan struct{}),
	}
}

func (c *countingWhenDoneContext) Done() <-chan struct{} {
	if c.count == c.threshold { // equality to close only once
		close(c.done)
	}
	c.count++
	return c.done
}
