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
	"fmt"
	"strings"
)

// Nibble is a 4-bit unsigned integer in the range 0-F. It is a single letter
// used to navigate in the MPT structure.
type Nibble byte

// Rune converts a Nibble in a hexa-decimal rune (0-9a-f).
func (n Nibble) Rune() rune {
	if n < 10 {
		return rune('0' + n)
	} else if n < 16 {
		return rune('a' + n - 10)
	} else {
		return '?'
	}
}

// String converts a Nibble in a hexa-decimal string (0-9a-f).
func (n Nibble) String() string {
	return string(n.Rune())
}

// KeyToNibbles converts the given key into a path of Nibbles, two per byte,
// high nibble first.
func KeyToNibbles(key []byte) []Nibble {
	res := make([]Nibble, len(key)*2)
	parseNibbles(res, key)
	return res
}

// NibblesToKey converts a path of Nibbles back into the key it was derived
// from. This is only possible for paths of even length.
func NibblesToKey(path []Nibble) ([]byte, error) {
	if len(path)%2 != 0 {
		return nil, fmt.Errorf("cannot convert path of odd length %d into a key", len(path))
	}
	res := make([]byte, len(path)/2)
	for i := range res {
		res[i] = byte(path[2*i]<<4) | byte(path[2*i+1])
	}
	return res, nil
}

func parseNibbles(dst []Nibble, src []byte) {
	for i := 0; i < len(src); i++ {
		dst[2*i] = Nibble(src[i] >> 4)
		dst[2*i+1] = Nibble(src[i] & 0xF)
	}
}

// GetCommonPrefixLength computes the length of the common prefix of the given
// Nibble-slices.
func GetCommonPrefixLength(a, b []Nibble) int {
	lengthA := len(a)
	if lengthA > len(b) {
		return GetCommonPrefixLength(b, a)
	}
	for i := 0; i < lengthA; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return lengthA
}

// IsPrefixOf tests whether one Nibble slice is the prefix of another.
func IsPrefixOf(a, b []Nibble) bool {
	return len(a) <= len(b) && GetCommonPrefixLength(a, b) == len(a)
}

// nibblesEqual tests whether the two given paths are identical.
func nibblesEqual(a, b []Nibble) bool {
	return len(a) == len(b) && GetCommonPrefixLength(a, b) == len(a)
}

// concatNibbles creates a fresh path covering the given parts.
func concatNibbles(parts ...[]Nibble) []Nibble {
	length := 0
	for _, part := range parts {
		length += len(part)
	}
	res := make([]Nibble, 0, length)
	for _, part := range parts {
		res = append(res, part...)
	}
	return res
}

// formatNibbles renders a path as a hex string, e.g. "0x3a7" for an odd path.
func formatNibbles(path []Nibble) string {
	var builder strings.Builder
	builder.WriteString("0x")
	for _, n := range path {
		builder.WriteRune(n.Rune())
	}
	return builder.String()
}

// packedNibblesLength is the number of bytes required to pack the given
// number of nibbles.
func packedNibblesLength(count int) int {
	return (count + 1) / 2
}

// appendPackedNibbles packs the given path two nibbles per byte, most
// significant nibble first. For odd paths the first byte holds a zero
// padding nibble in its high half.
func appendPackedNibbles(dst []byte, path []Nibble) []byte {
	if len(path)%2 == 1 {
		dst = append(dst, byte(path[0]))
		path = path[1:]
	}
	for i := 0; i < len(path); i += 2 {
		dst = append(dst, byte(path[i]<<4)|byte(path[i+1]))
	}
	return dst
}

// unpackNibbles is the inverse of appendPackedNibbles. The data must contain
// exactly packedNibblesLength(count) bytes, and any padding nibble must be 0.
func unpackNibbles(data []byte, count int) ([]Nibble, error) {
	if len(data) != packedNibblesLength(count) {
		return nil, fmt.Errorf("%w: expected %d bytes for %d nibbles, got %d", ErrBadFormat, packedNibblesLength(count), count, len(data))
	}
	res := make([]Nibble, 0, count)
	if count%2 == 1 {
		if data[0]>>4 != 0 {
			return nil, fmt.Errorf("%w: non-zero padding nibble 0x%x", ErrBadFormat, data[0]>>4)
		}
		res = append(res, Nibble(data[0]&0xF))
		data = data[1:]
	}
	for _, b := range data {
		res = append(res, Nibble(b>>4), Nibble(b&0xF))
	}
	return res, nil
}
