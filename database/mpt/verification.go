// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package mpt

//go:generate mockgen -source verification.go -destination verification_mocks.go -package mpt

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/costa-wang/substrate-digest/common"
)

// VerificationObserver is a listener interface for tracking the progress of the verification
// of a trie. It can, for instance, be implemented by a user interface to keep the user updated
// on current activities.
type VerificationObserver interface {
	StartVerification()
	Progress(msg string)
	EndVerification(res error)
}

// NilVerificationObserver is a trivial implementation of the observer interface above which
// ignores all reported events.
type NilVerificationObserver struct{}

func (NilVerificationObserver) StartVerification()        {}
func (NilVerificationObserver) Progress(msg string)       {}
func (NilVerificationObserver) EndVerification(res error) {}

// maxReportedIssues limits the number of issues collected before a
// verification is stopped.
const maxReportedIssues = 100

// VerifyTrie runs a list of validation checks on the trie with the given
// root. These checks include:
//   - all referenced nodes are present and can be decoded
//   - all hashes are consistent
//   - all nodes are encoded canonically and embedded if and only if their
//     encoding is shorter than a hash
//   - all branches are required, values are stored at full byte keys
func VerifyTrie(source NodeSource, config Config, root common.Hash, observer VerificationObserver) (res error) {
	if observer == nil {
		observer = NilVerificationObserver{}
	}
	observer.StartVerification()
	defer func() {
		observer.EndVerification(res)
	}()

	observer.Progress(fmt.Sprintf("Checking trie with root %v using %v hashing ...", root, config.Name))
	if root == config.EmptyRoot() {
		observer.Progress("Trie is empty")
		return nil
	}

	v := &trieVerifier{
		source:   source,
		hasher:   config.Hasher(),
		observer: observer,
	}
	v.verifyHashed(root, nil)
	if len(v.issues) > 0 {
		return errors.Join(v.issues...)
	}
	observer.Progress(fmt.Sprintf("Checked %d nodes, %d of them embedded, holding %d values", v.nodes, v.embedded, v.values))
	return nil
}

type trieVerifier struct {
	source   NodeSource
	hasher   common.Hasher
	observer VerificationObserver

	nodes, embedded, values int
	issues                  []error
}

func (v *trieVerifier) report(path []Nibble, format string, args ...any) {
	v.issues = append(v.issues, fmt.Errorf("node at %s: %s", formatNibbles(path), fmt.Sprintf(format, args...)))
}

func (v *trieVerifier) failed() bool {
	return len(v.issues) >= maxReportedIssues
}

// verifyHashed checks the node stored under the given hash, located at the
// given position in the trie.
func (v *trieVerifier) verifyHashed(hash common.Hash, position []Nibble) {
	data, found, err := v.source.Get(hash)
	if err != nil {
		v.issues = append(v.issues, err)
		return
	}
	if !found {
		v.report(position, "%v: %v", ErrMissingNode, hash)
		return
	}
	if got := v.hasher.Hash(data); got != hash {
		v.report(position, "inconsistent hash, stored as %v, hashes to %v", hash, got)
		return
	}
	// Only the root may be referenced by hash if it is short.
	if position != nil && len(data) < common.HashSize {
		v.report(position, "node of %d bytes should be embedded", len(data))
	}
	v.verifyEncoding(data, position)
}

func (v *trieVerifier) verifyEncoding(data []byte, position []Nibble) {
	v.nodes++
	if v.nodes%1_000_000 == 0 {
		v.observer.Progress(fmt.Sprintf("  ... checked %d nodes", v.nodes))
	}
	node, err := DecodeNode(data)
	if err != nil {
		v.report(position, "%v", err)
		return
	}
	if encoded := EncodeNode(node); !bytes.Equal(encoded, data) {
		v.report(position, "non-canonical encoding 0x%x, expected 0x%x", data, encoded)
	}

	path := concatNibbles(position, node.GetPath())
	switch n := node.(type) {
	case EmptyNode:
		if position != nil {
			v.report(position, "empty node referenced as a child")
		}
	case *LeafNode:
		v.verifyValuePath(path)
	case *BranchNode:
		if n.HasValue() {
			v.verifyValuePath(path)
		}
		if !n.HasValue() && n.ChildCount() < 2 {
			v.report(position, "branch without value with %d children", n.ChildCount())
		}
		for i, ref := range n.Children {
			if v.failed() {
				return
			}
			child := concatNibbles(path, []Nibble{Nibble(i)})
			switch {
			case ref.IsHash():
				v.verifyHashed(ref.Hash(), child)
			case ref.IsInline():
				v.embedded++
				if len(ref.Inline()) >= common.HashSize {
					v.report(child, "embedded node of %d bytes should be hashed", len(ref.Inline()))
				}
				v.verifyEncoding(ref.Inline(), child)
			}
		}
	}
}

func (v *trieVerifier) verifyValuePath(path []Nibble) {
	v.values++
	if len(path)%2 != 0 {
		v.report(path, "value stored at odd path")
	}
}
