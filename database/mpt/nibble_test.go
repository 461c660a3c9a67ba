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
	"bytes"
	"errors"
	"testing"
)

func TestNibble_Print(t *testing.T) {
	tests := []struct {
		value Nibble
		print string
	}{
		{Nibble(0), "0"},
		{Nibble(1), "1"},
		{Nibble(2), "2"},
		{Nibble(3), "3"},
		{Nibble(4), "4"},
		{Nibble(5), "5"},
		{Nibble(6), "6"},
		{Nibble(7), "7"},
		{Nibble(8), "8"},
		{Nibble(9), "9"},
		{Nibble(10), "a"},
		{Nibble(11), "b"},
		{Nibble(12), "c"},
		{Nibble(13), "d"},
		{Nibble(14), "e"},
		{Nibble(15), "f"},
		{Nibble(16), "?"},
		{Nibble(255), "?"},
	}

	for _, test := range tests {
		if got, want := test.value.String(), test.print; got != want {
			t.Errorf("invalid print, got %s, wanted %s", got, want)
		}
	}
}

func TestNibbles_GetCommonPrefix(t *testing.T) {
	tests := []struct {
		a, b []byte
		res  int
	}{
		{[]byte{}, []byte{}, 0},
		{[]byte{}, []byte{1}, 0},
		{[]byte{1}, []byte{}, 0},

		{[]byte{1}, []byte{1}, 1},
		{[]byte{1, 2}, []byte{1, 2}, 2},
		{[]byte{1, 2, 3}, []byte{1, 2, 3}, 3},

		{[]byte{1, 2, 3}, []byte{1, 2, 3, 4, 5}, 3},
		{[]byte{1, 2, 3, 4, 5}, []byte{1, 2, 3}, 3},

		{[]byte{1, 2, 3}, []byte{1, 3, 2}, 1},
		{[]byte{1, 2, 3}, []byte{3, 2, 1}, 0},
	}

	for _, test := range tests {
		a := make([]Nibble, len(test.a))
		for i, cur := range test.a {
			a[i] = Nibble(cur)
		}
		b := make([]Nibble, len(test.b))
		for i, cur := range test.b {
			b[i] = Nibble(cur)
		}
		if got, want := GetCommonPrefixLength(a, b), test.res; got != want {
			t.Errorf("invalid common prefix length of %v and %v, got %d, wanted %d", a, b, got, want)
		}
	}
}

func TestNibbles_IsPrefixOf(t *testing.T) {
	tests := []struct {
		a, b []byte
		res  bool
	}{
		{[]byte{}, []byte{}, true},
		{[]byte{}, []byte{1}, true},
		{[]byte{1}, []byte{}, false},

		{[]byte{1}, []byte{1}, true},
		{[]byte{1, 2}, []byte{1, 2}, true},
		{[]byte{1, 2, 3}, []byte{1, 2, 3}, true},

		{[]byte{1, 2, 3}, []byte{1, 2, 3, 4, 5}, true},
		{[]byte{1, 2, 3, 4, 5}, []byte{1, 2, 3}, false},

		{[]byte{1, 2, 3}, []byte{1, 3, 2}, false},
		{[]byte{1, 2, 3}, []byte{3, 2, 1}, false},
	}

	for _, test := range tests {
		a := make([]Nibble, len(test.a))
		for i, cur := range test.a {
			a[i] = Nibble(cur)
		}
		b := make([]Nibble, len(test.b))
		for i, cur := range test.b {
			b[i] = Nibble(cur)
		}
		if got, want := IsPrefixOf(a, b), test.res; got != want {
			t.Errorf("invalid is-prefix-of result for %v and %v, got %t, wanted %t", a, b, got, want)
		}
	}
}

func TestNibbles_KeyToNibblesAndBack(t *testing.T) {
	tests := []struct {
		key  []byte
		path []Nibble
	}{
		{nil, []Nibble{}},
		{[]byte{0x12}, []Nibble{1, 2}},
		{[]byte{0xab, 0x0f}, []Nibble{0xa, 0xb, 0x0, 0xf}},
	}
	for _, test := range tests {
		path := KeyToNibbles(test.key)
		if !nibblesEqual(path, test.path) {
			t.Errorf("invalid path for key %x, got %v, wanted %v", test.key, path, test.path)
		}
		key, err := NibblesToKey(path)
		if err != nil {
			t.Fatalf("failed to convert path back: %v", err)
		}
		if !bytes.Equal(key, test.key) {
			t.Errorf("invalid key, got %x, wanted %x", key, test.key)
		}
	}
	if _, err := NibblesToKey([]Nibble{1, 2, 3}); err == nil {
		t.Errorf("converting an odd path into a key should fail")
	}
}

func TestNibbles_PackingUsesPaddingForOddLength(t *testing.T) {
	tests := []struct {
		path   []Nibble
		packed []byte
	}{
		{[]Nibble{}, []byte{}},
		{[]Nibble{0xa}, []byte{0x0a}},
		{[]Nibble{1, 2}, []byte{0x12}},
		{[]Nibble{1, 2, 3}, []byte{0x01, 0x23}},
		{[]Nibble{0xf, 0xe, 0xd, 0xc}, []byte{0xfe, 0xdc}},
	}
	for _, test := range tests {
		packed := appendPackedNibbles(nil, test.path)
		if !bytes.Equal(packed, test.packed) {
			t.Errorf("invalid packing of %v, got %x, wanted %x", test.path, packed, test.packed)
		}
		if got, want := packedNibblesLength(len(test.path)), len(test.packed); got != want {
			t.Errorf("invalid packed length, got %d, wanted %d", got, want)
		}
		path, err := unpackNibbles(packed, len(test.path))
		if err != nil {
			t.Fatalf("failed to unpack %x: %v", packed, err)
		}
		if !nibblesEqual(path, test.path) {
			t.Errorf("invalid unpacked path, got %v, wanted %v", path, test.path)
		}
	}
}

func TestNibbles_UnpackingDetectsInvalidInput(t *testing.T) {
	tests := []struct {
		data  []byte
		count int
	}{
		{[]byte{0x1a}, 1},       // non-zero padding
		{[]byte{0x12}, 3},       // too short
		{[]byte{0x12, 0x34}, 2}, // too long
	}
	for _, test := range tests {
		if _, err := unpackNibbles(test.data, test.count); !errors.Is(err, ErrBadFormat) {
			t.Errorf("unpacking %x as %d nibbles should fail with bad format, got %v", test.data, test.count, err)
		}
	}
}

func TestNibbles_Format(t *testing.T) {
	if got, want := formatNibbles([]Nibble{1, 0xa, 3}), "0x1a3"; got != want {
		t.Errorf("invalid format, got %s, wanted %s", got, want)
	}
	if got, want := formatNibbles(concatNibbles([]Nibble{1}, nil, []Nibble{2, 3})), "0x123"; got != want {
		t.Errorf("invalid concatenation, got %s, wanted %s", got, want)
	}
}
