// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package common

import (
	"fmt"
	"sort"
	"strings"
)

// MemoryFootprint describes the memory consumption of a structure, e.g. a
// node store or a trie builder, and its components.
type MemoryFootprint struct {
	value    uintptr
	note     string
	children map[string]*MemoryFootprint
}

// MemoryFootprintProvider is implemented by structures able to report their
// memory usage.
type MemoryFootprintProvider interface {
	GetMemoryFootprint() *MemoryFootprint
}

// NewMemoryFootprint creates a new MemoryFootprint with the given number of
// bytes directly used by a structure.
func NewMemoryFootprint(value uintptr) *MemoryFootprint {
	return &MemoryFootprint{
		value:    value,
		children: map[string]*MemoryFootprint{},
	}
}

// AddChild attaches the footprint of a sub-component. Nil children are ignored.
func (mf *MemoryFootprint) AddChild(name string, child *MemoryFootprint) {
	if child != nil {
		mf.children[name] = child
	}
}

// SetNote attaches a free-text note printed with the footprint.
func (mf *MemoryFootprint) SetNote(note string) {
	mf.note = note
}

// Value provides the number of bytes used excluding sub-components.
func (mf *MemoryFootprint) Value() uintptr {
	return mf.value
}

// Total provides the number of bytes used including all sub-components.
// Components reachable through multiple paths are only counted once.
func (mf *MemoryFootprint) Total() uintptr {
	return mf.total(map[*MemoryFootprint]bool{})
}

func (mf *MemoryFootprint) total(seen map[*MemoryFootprint]bool) uintptr {
	if seen[mf] {
		return 0
	}
	seen[mf] = true
	res := mf.value
	for _, child := range mf.children {
		res += child.total(seen)
	}
	return res
}

// String renders the footprint as a tree, one line per component, children
// before their parent and siblings in lexicographical order.
func (mf *MemoryFootprint) String() string {
	var builder strings.Builder
	mf.print(&builder, ".", map[*MemoryFootprint]bool{})
	return builder.String()
}

func (mf *MemoryFootprint) print(builder *strings.Builder, path string, seen map[*MemoryFootprint]bool) {
	if seen[mf] {
		return
	}
	seen[mf] = true
	names := make([]string, 0, len(mf.children))
	for name := range mf.children {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		mf.children[name].print(builder, path+"/"+name, seen)
	}
	builder.WriteString(formatMemory(mf.Total()))
	builder.WriteString(" ")
	builder.WriteString(path)
	if mf.note != "" {
		builder.WriteString(" (")
		builder.WriteString(mf.note)
		builder.WriteString(")")
	}
	builder.WriteString("\n")
}

func formatMemory(bytes uintptr) string {
	const unit = 1024
	const prefixes = " KMGTPE"
	value := float64(bytes)
	exp := 0
	for value >= unit && exp+1 < len(prefixes) {
		value /= unit
		exp++
	}
	return fmt.Sprintf("%6.1f %cB", value, prefixes[exp])
}
