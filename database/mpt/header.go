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

import "fmt"

// The first byte of every encoded node is a header. The two most significant
// bits select the node variant, the remaining six bits hold the number of
// nibbles of the node's partial path. Paths longer than what fits into the
// six bits use the escape value 0x3F and continue with a compact encoded
// count of the nibbles exceeding headerInlineNibbles.

const (
	headerEmpty              byte = 0b00 << 6
	headerLeaf               byte = 0b01 << 6
	headerBranchWithoutValue byte = 0b10 << 6
	headerBranchWithValue    byte = 0b11 << 6

	headerVariantMask  byte = 0b11 << 6
	headerNibbleMask   byte = 0x3F
	headerContinuation byte = 0x3F

	// headerInlineNibbles is the largest nibble count stored directly in the
	// header byte.
	headerInlineNibbles = 62

	// MaxPathLength is the maximum number of nibbles in a node's partial path.
	MaxPathLength = 65535
)

// appendHeader appends the header for a node of the given variant covering
// a partial path of the given number of nibbles.
func appendHeader(dst []byte, variant byte, nibbles int) []byte {
	if nibbles <= headerInlineNibbles {
		return append(dst, variant|byte(nibbles))
	}
	dst = append(dst, variant|headerContinuation)
	return appendCompact(dst, uint64(nibbles-headerInlineNibbles))
}

// headerLength is the number of bytes of a header for the given path length.
func headerLength(nibbles int) int {
	if nibbles <= headerInlineNibbles {
		return 1
	}
	return 1 + compactLength(uint64(nibbles-headerInlineNibbles))
}

// readHeader parses the header at the start of data. It returns the variant
// bits, the nibble count and the number of bytes consumed.
func readHeader(data []byte) (byte, int, int, error) {
	if len(data) == 0 {
		return 0, 0, 0, fmt.Errorf("%w: missing node header", ErrBadFormat)
	}
	variant := data[0] & headerVariantMask
	count := int(data[0] & headerNibbleMask)
	if variant == headerEmpty {
		if data[0] != headerEmpty {
			return 0, 0, 0, fmt.Errorf("%w: invalid empty node header 0x%02x", ErrBadFormat, data[0])
		}
		return variant, 0, 1, nil
	}
	if count != int(headerContinuation) {
		return variant, count, 1, nil
	}
	extra, n, err := readCompact(data[1:])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: invalid nibble count continuation: %w", ErrBadFormat, err)
	}
	if extra == 0 {
		return 0, 0, 0, fmt.Errorf("%w: nibble count continuation must not be zero", ErrBadFormat)
	}
	if extra > MaxPathLength-headerInlineNibbles {
		return 0, 0, 0, fmt.Errorf("%w: nibble count %d exceeds limit of %d", ErrBadFormat, extra+headerInlineNibbles, MaxPathLength)
	}
	return variant, headerInlineNibbles + int(extra), 1 + n, nil
}
