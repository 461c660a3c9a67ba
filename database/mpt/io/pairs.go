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
	"fmt"
	"io"
	"strings"

	"github.com/costa-wang/substrate-digest/common"
	"github.com/costa-wang/substrate-digest/database/mpt"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// This file provides a human readable text format for lists of key/value
// pairs, used for feeding data into tries and for dumping their content.
//
// Format:
//
//	file ::= [<line>]*
//	line ::= <hex-key> <whitespace> <hex-value> '\n'
//	       | '#' <comment> '\n'
//	       | '\n'
//
// Keys and values are 0x-prefixed hex strings. A key may be "0x" for the
// empty key; values must not be empty.

// ReadPairs parses the pairs listed in the given input. The result is in
// input order and may contain duplicate keys.
func ReadPairs(in io.Reader) ([]mpt.Pair, error) {
	res := []mpt.Pair{}
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: expected key and value, got %d fields", line, len(fields))
		}
		key, err := hexutil.Decode(fields[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid key %q: %w", line, fields[0], err)
		}
		value, err := hexutil.Decode(fields[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid value %q: %w", line, fields[1], err)
		}
		if len(value) == 0 {
			return nil, fmt.Errorf("line %d: empty value for key %s", line, fields[0])
		}
		res = append(res, mpt.Pair{Key: key, Value: value})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// WritePairs writes the given pairs to the output, one per line.
func WritePairs(out io.Writer, pairs []mpt.Pair) error {
	writer := bufio.NewWriter(out)
	for _, pair := range pairs {
		if err := writePair(writer, pair.Key, pair.Value); err != nil {
			return err
		}
	}
	return writer.Flush()
}

// DumpTrie writes all pairs of the trie with the given root to the output,
// in ascending key order.
func DumpTrie(source mpt.NodeSource, config mpt.Config, root common.Hash, out io.Writer) error {
	writer := bufio.NewWriter(out)
	err := mpt.ForEach(source, config, root, func(key, value []byte) error {
		return writePair(writer, key, value)
	})
	if err != nil {
		return err
	}
	return writer.Flush()
}

func writePair(out io.Writer, key, value []byte) error {
	_, err := fmt.Fprintf(out, "%s %s\n", hexutil.Encode(key), hexutil.Encode(value))
	return err
}
