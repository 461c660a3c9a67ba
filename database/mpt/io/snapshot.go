// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package io

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/costa-wang/substrate-digest/common"
	"github.com/costa-wang/substrate-digest/common/interrupt"
	"github.com/costa-wang/substrate-digest/database/mpt"
)

// This file provides a pair of export and import functions capable of
// serializing the content of a trie into a single, payload-only data blob
// with a built-in consistency check, which can be used for transferring
// tries between node stores.
//
// Format:
//
//	file ::= <magic-number> <version> <hash> [<pair>]*
//	hash ::= 'H' <1-byte hasher name length> <hasher name> <root-hash>
//	pair ::= 'P' <4-byte big-endian key length> <key>
//	             <4-byte big-endian value length> <value>
//
// Pairs are listed in strictly ascending key order. The produced data stream
// may be further compressed (e.g. using Gzip) to reduce its size.

var snapshotMagicNumber = []byte("SMPT")

const snapshotFormatVersion = byte(1)

// maxSnapshotItemLength limits the size of keys and values accepted by the
// import to protect against corrupted length fields.
const maxSnapshotItemLength = 1 << 28

// cancelCheckInterval is the number of pairs processed between checks of
// the context.
const cancelCheckInterval = 1000

// Export writes all pairs of the trie with the given root to the output.
// The number of exported pairs is returned.
func Export(ctx context.Context, source mpt.NodeSource, config mpt.Config, root common.Hash, out io.Writer) (int, error) {
	writer := bufio.NewWriter(out)
	if _, err := writer.Write(snapshotMagicNumber); err != nil {
		return 0, err
	}
	if err := writer.WriteByte(snapshotFormatVersion); err != nil {
		return 0, err
	}

	name := config.Hasher().Name()
	if len(name) > 255 {
		return 0, fmt.Errorf("hasher name %q too long", name)
	}
	header := append([]byte{'H', byte(len(name))}, name...)
	if _, err := writer.Write(append(header, root[:]...)); err != nil {
		return 0, err
	}

	count := 0
	err := mpt.ForEach(source, config, root, func(key, value []byte) error {
		if count%cancelCheckInterval == 0 && interrupt.IsCancelled(ctx) {
			return interrupt.ErrCanceled
		}
		count++
		if err := writer.WriteByte('P'); err != nil {
			return err
		}
		if err := writeBlob(writer, key); err != nil {
			return err
		}
		return writeBlob(writer, value)
	})
	if err != nil {
		return count, err
	}
	return count, writer.Flush()
}

func writeBlob(out *bufio.Writer, data []byte) error {
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(data)))
	if _, err := out.Write(length[:]); err != nil {
		return err
	}
	_, err := out.Write(data)
	return err
}

// Snapshot is an exported trie being read from an input stream.
type Snapshot struct {
	// Config is the trie configuration matching the hasher of the export.
	Config mpt.Config
	// Root is the root hash the imported pairs have to reproduce.
	Root common.Hash

	in *bufio.Reader
}

// OpenSnapshot reads the header of an exported trie from the given input.
func OpenSnapshot(in io.Reader) (*Snapshot, error) {
	reader := bufio.NewReader(in)

	// Start by checking the magic number.
	buffer := make([]byte, len(snapshotMagicNumber))
	if _, err := io.ReadFull(reader, buffer); err != nil {
		return nil, err
	} else if !bytes.Equal(buffer, snapshotMagicNumber) {
		return nil, fmt.Errorf("invalid format, wrong magic number")
	}

	// Check the version number.
	if _, err := io.ReadFull(reader, buffer[0:1]); err != nil {
		return nil, err
	} else if buffer[0] != snapshotFormatVersion {
		return nil, fmt.Errorf("invalid format, unsupported version %d", buffer[0])
	}

	// Read the root hash and resolve the configuration.
	if _, err := io.ReadFull(reader, buffer[0:2]); err != nil {
		return nil, err
	} else if buffer[0] != 'H' {
		return nil, fmt.Errorf("invalid format, missing root hash")
	}
	name := make([]byte, buffer[1])
	if _, err := io.ReadFull(reader, name); err != nil {
		return nil, err
	}
	config, found := getConfigByHasherName(string(name))
	if !found {
		return nil, fmt.Errorf("unsupported hasher %q", name)
	}
	res := &Snapshot{Config: config, in: reader}
	if _, err := io.ReadFull(reader, res.Root[:]); err != nil {
		return nil, err
	}
	return res, nil
}

func getConfigByHasherName(name string) (mpt.Config, bool) {
	for _, configName := range mpt.GetConfigNames() {
		config, _ := mpt.GetConfigByName(configName)
		if config.Hasher().Name() == name {
			return config, true
		}
	}
	return mpt.Config{}, false
}

// Import reads the pairs of the snapshot and builds the trie, writing its
// nodes to the given sink if not nil. The import fails if the resulting root
// does not match the root listed in the snapshot. Progress is reported to
// the given tracker if not nil.
func (s *Snapshot) Import(ctx context.Context, sink mpt.NodeWriter, progress *ImportProgress) (mpt.BuildResult, error) {
	if progress != nil {
		sink = progress.Sink(sink)
	}
	builder := mpt.NewRootBuilder(s.Config, sink)
	buffer := []byte{0}
	count := 0
	for {
		if count%cancelCheckInterval == 0 && interrupt.IsCancelled(ctx) {
			return mpt.BuildResult{}, interrupt.ErrCanceled
		}
		if _, err := io.ReadFull(s.in, buffer); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return mpt.BuildResult{}, err
		}
		if buffer[0] != 'P' {
			return mpt.BuildResult{}, fmt.Errorf("format error encountered, unexpected token type: %c", buffer[0])
		}
		key, err := readBlob(s.in)
		if err != nil {
			return mpt.BuildResult{}, fmt.Errorf("failed to read key of pair %d: %w", count, err)
		}
		value, err := readBlob(s.in)
		if err != nil {
			return mpt.BuildResult{}, fmt.Errorf("failed to read value of pair %d: %w", count, err)
		}
		if len(value) == 0 {
			return mpt.BuildResult{}, fmt.Errorf("empty value for key 0x%x", key)
		}
		if err := builder.Add(key, value); err != nil {
			return mpt.BuildResult{}, err
		}
		count++
		if progress != nil {
			progress.AddPair()
		}
	}

	res, err := builder.Finish()
	if err != nil {
		return res, err
	}
	if res.Root != s.Root {
		return res, fmt.Errorf("failed to reproduce valid trie, hashes do not match, got %v, wanted %v", res.Root, s.Root)
	}
	return res, nil
}

func readBlob(in io.Reader) ([]byte, error) {
	var length [4]byte
	if _, err := io.ReadFull(in, length[:]); err != nil {
		return nil, unexpectedEOF(err)
	}
	size := binary.BigEndian.Uint32(length[:])
	if size > maxSnapshotItemLength {
		return nil, fmt.Errorf("item of %d bytes exceeds maximum length", size)
	}
	res := make([]byte, size)
	if _, err := io.ReadFull(in, res); err != nil {
		return nil, unexpectedEOF(err)
	}
	return res, nil
}

func unexpectedEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
