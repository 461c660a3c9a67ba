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

import (
	"encoding/binary"
	"fmt"
	"math/bits"

	"github.com/costa-wang/substrate-digest/common"
)

// The compact integer encoding is used for all lengths in encoded nodes and
// for nibble counts exceeding the capacity of a node header. It is the SCALE
// compact format, where the two least significant bits of the first byte
// select the mode:
//
//	0b00: single byte, value in the upper six bits        (v < 2^6)
//	0b01: two byte little endian, value in upper 14 bits   (v < 2^14)
//	0b10: four byte little endian, value in upper 30 bits  (v < 2^30)
//	0b11: upper six bits hold n-4, followed by the value as n little endian
//	      bytes, where n is the minimal number of bytes
//
// Encodings are required to be minimal; decoders reject any other form so
// that every value has exactly one encoding.

const (
	compactSingleByteLimit = 1 << 6
	compactTwoByteLimit    = 1 << 14
	compactFourByteLimit   = 1 << 30
)

const errCompactTruncated = common.ConstError("compact integer truncated")

// appendCompact appends the compact encoding of the given value to dst.
func appendCompact(dst []byte, value uint64) []byte {
	switch {
	case value < compactSingleByteLimit:
		return append(dst, byte(value<<2))
	case value < compactTwoByteLimit:
		return binary.LittleEndian.AppendUint16(dst, uint16(value<<2)|0b01)
	case value < compactFourByteLimit:
		return binary.LittleEndian.AppendUint32(dst, uint32(value<<2)|0b10)
	}
	numBytes := (bits.Len64(value) + 7) / 8
	dst = append(dst, byte((numBytes-4)<<2)|0b11)
	for i := 0; i < numBytes; i++ {
		dst = append(dst, byte(value>>(8*i)))
	}
	return dst
}

// compactLength is the number of bytes used for encoding the given value.
func compactLength(value uint64) int {
	switch {
	case value < compactSingleByteLimit:
		return 1
	case value < compactTwoByteLimit:
		return 2
	case value < compactFourByteLimit:
		return 4
	}
	return 1 + (bits.Len64(value)+7)/8
}

// readCompact decodes a compact integer from the start of data. It returns
// the value and the number of bytes consumed.
func readCompact(data []byte) (uint64, int, error) {
	if len(data) == 0 {
		return 0, 0, errCompactTruncated
	}
	switch data[0] & 0b11 {
	case 0b00:
		return uint64(data[0] >> 2), 1, nil
	case 0b01:
		if len(data) < 2 {
			return 0, 0, errCompactTruncated
		}
		value := uint64(binary.LittleEndian.Uint16(data) >> 2)
		if value < compactSingleByteLimit {
			return 0, 0, fmt.Errorf("non-minimal two byte compact integer %d", value)
		}
		return value, 2, nil
	case 0b10:
		if len(data) < 4 {
			return 0, 0, errCompactTruncated
		}
		value := uint64(binary.LittleEndian.Uint32(data) >> 2)
		if value < compactTwoByteLimit {
			return 0, 0, fmt.Errorf("non-minimal four byte compact integer %d", value)
		}
		return value, 4, nil
	}

	numBytes := int(data[0]>>2) + 4
	if numBytes > 8 {
		return 0, 0, fmt.Errorf("compact integer of %d bytes exceeds 64 bit", numBytes)
	}
	if len(data) < numBytes+1 {
		return 0, 0, errCompactTruncated
	}
	value := uint64(0)
	for i := 0; i < numBytes; i++ {
		value |= uint64(data[1+i]) << (8 * i)
	}
	if value < compactFourByteLimit || data[numBytes] == 0 {
		return 0, 0, fmt.Errorf("non-minimal big compact integer %d", value)
	}
	return value, numBytes + 1, nil
}

// appendLengthPrefixed appends the given payload preceded by its length in
// compact encoding.
func appendLengthPrefixed(dst []byte, payload []byte) []byte {
	dst = appendCompact(dst, uint64(len(payload)))
	return append(dst, payload...)
}

// readLengthPrefixed reads a compact length prefixed payload from the start
// of data. It returns the payload and the total number of consumed bytes.
// Failures are reported as decoding errors of the nested sub-value.
func readLengthPrefixed(data []byte) ([]byte, int, error) {
	length, n, err := readCompact(data)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: invalid length prefix: %w", ErrDecode, err)
	}
	if length > uint64(len(data)-n) {
		return nil, 0, fmt.Errorf("%w: payload of %d bytes truncated to %d bytes", ErrDecode, length, len(data)-n)
	}
	end := n + int(length)
	return data[n:end], end, nil
}
