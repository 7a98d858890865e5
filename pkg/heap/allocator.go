// Copyright 2026 Intel Corporation. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package heap

import (
	"sort"

	"github.com/pkg/errors"
)

const (
	// Alignment is the minimum alignment and size granularity of allocations.
	Alignment = 16
)

// span is a contiguous range of heap offsets.
type span struct {
	off  uint64
	size uint64
}

func (s span) end() uint64 {
	return s.off + s.size
}

// Allocator hands out ranges of a fixed-size offset space.
//
// Allocation is best-fit: the smallest free range that fits wins, ties
// going to the lowest offset. Freed ranges are coalesced with their free
// neighbors. The outcome depends only on the sequence of calls, so every
// PE issuing the same sequence ends up with the same offsets.
type Allocator struct {
	size uint64 // largest request, the heap size
	span uint64 // managed space, size rounded up to Alignment
	free []span // free ranges sorted by offset
	used []span // allocated ranges sorted by offset
}

// Stats describes the state of an Allocator.
type Stats struct {
	// Size is the total size of the managed space, the heap size rounded
	// up to Alignment.
	Size uint64
	// InUse is the number of bytes allocated.
	InUse uint64
	// Allocations is the number of live allocations.
	Allocations int
	// FreeRanges is the number of free ranges.
	FreeRanges int
	// LargestFree is the size of the largest free range.
	LargestFree uint64
}

// NewAllocator creates an allocator for a heap of size bytes. The offset
// space is size rounded up to Alignment, so a request of size bytes fits.
func NewAllocator(size uint64) *Allocator {
	a := &Allocator{size: size, span: alignUp(size, Alignment)}
	if size > 0 {
		a.free = []span{{off: 0, size: a.span}}
	}
	return a
}

// Allocate allocates size bytes with the default alignment.
func (a *Allocator) Allocate(size uint64) (uint64, error) {
	return a.AllocateAligned(Alignment, size)
}

// AllocateAligned allocates size bytes at an offset aligned to align,
// which must be a power of two.
func (a *Allocator) AllocateAligned(align, size uint64) (uint64, error) {
	if align == 0 || align&(align-1) != 0 {
		return 0, errors.Wrapf(ErrAlloc, "alignment %d is not a power of two", align)
	}
	if align < Alignment {
		align = Alignment
	}
	if size == 0 {
		return 0, errors.Wrap(ErrAlloc, "zero-sized allocation")
	}
	if size > a.size {
		return 0, errors.Wrapf(ErrAlloc, "%d bytes exceeds heap size %d", size, a.size)
	}

	size = alignUp(size, Alignment)

	best := -1
	var bestStart uint64
	for i, s := range a.free {
		start := alignUp(s.off, align)
		if start < s.off || start+size > s.end() || start+size < start {
			continue
		}
		if best < 0 || s.size < a.free[best].size {
			best, bestStart = i, start
		}
	}
	if best < 0 {
		return 0, errors.Wrapf(ErrAlloc, "no free range for %d bytes (aligned to %d)", size, align)
	}

	s := a.free[best]
	rest := make([]span, 0, 2)
	if head := bestStart - s.off; head > 0 {
		rest = append(rest, span{off: s.off, size: head})
	}
	if tail := s.end() - (bestStart + size); tail > 0 {
		rest = append(rest, span{off: bestStart + size, size: tail})
	}
	a.free = append(a.free[:best], append(rest, a.free[best+1:]...)...)
	a.insertUsed(span{off: bestStart, size: size})

	return bestStart, nil
}

// Free releases the allocation starting at off.
func (a *Allocator) Free(off uint64) error {
	idx := a.findUsed(off)
	if idx < 0 {
		return errors.Wrapf(ErrInvalidAddress, "offset 0x%x is not an allocation", off)
	}

	s := a.used[idx]
	a.used = append(a.used[:idx], a.used[idx+1:]...)
	a.release(s)

	return nil
}

// Size returns the (aligned) size of the allocation starting at off.
func (a *Allocator) Size(off uint64) (uint64, bool) {
	if idx := a.findUsed(off); idx >= 0 {
		return a.used[idx].size, true
	}
	return 0, false
}

// Contains checks if [off, off+length) lies within a single allocation.
func (a *Allocator) Contains(off, length uint64) bool {
	i := sort.Search(len(a.used), func(i int) bool { return a.used[i].end() > off })
	if i == len(a.used) {
		return false
	}
	s := a.used[i]
	return s.off <= off && off+length <= s.end() && off+length >= off
}

// Stats returns usage statistics.
func (a *Allocator) Stats() Stats {
	st := Stats{
		Size:        a.span,
		Allocations: len(a.used),
		FreeRanges:  len(a.free),
	}
	for _, s := range a.used {
		st.InUse += s.size
	}
	for _, s := range a.free {
		if s.size > st.LargestFree {
			st.LargestFree = s.size
		}
	}
	return st
}

func (a *Allocator) findUsed(off uint64) int {
	i := sort.Search(len(a.used), func(i int) bool { return a.used[i].off >= off })
	if i < len(a.used) && a.used[i].off == off {
		return i
	}
	return -1
}

func (a *Allocator) insertUsed(s span) {
	i := sort.Search(len(a.used), func(i int) bool { return a.used[i].off >= s.off })
	a.used = append(a.used, span{})
	copy(a.used[i+1:], a.used[i:])
	a.used[i] = s
}

// release returns a range to the free list, merging it with adjacent ranges.
func (a *Allocator) release(s span) {
	i := sort.Search(len(a.free), func(i int) bool { return a.free[i].off >= s.off })

	if i < len(a.free) && s.end() == a.free[i].off {
		s.size += a.free[i].size
		a.free = append(a.free[:i], a.free[i+1:]...)
	}
	if i > 0 && a.free[i-1].end() == s.off {
		a.free[i-1].size += s.size
		return
	}

	a.free = append(a.free, span{})
	copy(a.free[i+1:], a.free[i:])
	a.free[i] = s
}

func alignUp(v, align uint64) uint64 {
	return (v + align - 1) &^ (align - 1)
}
