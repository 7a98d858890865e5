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

// Package heap implements the symmetric heap of a PE.
//
// Every PE maps a segment of the same size and allocates from it with an
// Allocator. As long as all PEs issue the same sequence of allocation calls
// they end up with identical offsets, so a buffer allocated on one PE names
// the corresponding memory on every other PE by its offset alone.
package heap

import (
	"math/bits"
	"sync"

	"github.com/pkg/errors"

	logger "github.com/intel/symmetric-memory/pkg/log"
)

var (
	// ErrAlloc is returned when an allocation can't be satisfied.
	ErrAlloc = errors.New("allocation failed")
	// ErrInvalidAddress is returned for memory not allocated from the heap.
	ErrInvalidAddress = errors.New("invalid symmetric address")
)

var log = logger.NewLogger("heap")

// Heap is the symmetric heap of the local PE.
type Heap struct {
	sync.Mutex
	seg   *Segment
	mem   []byte
	alloc *Allocator
}

// New creates a heap managing the heap region of the given segment.
func New(seg *Segment) *Heap {
	return &Heap{
		seg:   seg,
		mem:   seg.Heap(),
		alloc: NewAllocator(seg.HeapSize()),
	}
}

// Segment returns the segment backing the heap.
func (h *Heap) Segment() *Segment {
	return h.seg
}

// Size returns the usable size of the heap.
func (h *Heap) Size() uint64 {
	return uint64(len(h.mem))
}

// Malloc allocates size bytes of symmetric memory.
func (h *Heap) Malloc(size uint64) (Buffer, error) {
	return h.Align(Alignment, size)
}

// Align allocates size bytes of symmetric memory aligned to alignment.
func (h *Heap) Align(alignment, size uint64) (Buffer, error) {
	h.Lock()
	defer h.Unlock()

	off, err := h.alloc.AllocateAligned(alignment, size)
	if err != nil {
		log.Debug("allocation of %d bytes (alignment %d) failed: %v", size, alignment, err)
		return Buffer{}, err
	}

	log.Debug("allocated %d bytes at 0x%x", size, off)

	return h.buffer(off, size), nil
}

// Calloc allocates zeroed symmetric memory for n elements of size bytes.
func (h *Heap) Calloc(n, size uint64) (Buffer, error) {
	hi, total := bits.Mul64(n, size)
	if hi != 0 {
		return Buffer{}, errors.Wrapf(ErrAlloc, "%d x %d bytes overflows", n, size)
	}

	b, err := h.Malloc(total)
	if err != nil {
		return Buffer{}, err
	}

	mem := b.Bytes()
	for i := range mem {
		mem[i] = 0
	}

	return b, nil
}

// Free releases a symmetric buffer.
func (h *Heap) Free(b Buffer) error {
	if !b.symmetric {
		return errors.Wrapf(ErrInvalidAddress, "can't free %s", b)
	}

	h.Lock()
	defer h.Unlock()

	if err := h.alloc.Free(b.off); err != nil {
		return err
	}

	log.Debug("freed %s", b)

	return nil
}

// MallocSignal allocates a zero-initialized signal word.
func (h *Heap) MallocSignal() (SignalWord, error) {
	b, err := h.Calloc(1, SignalWordSize)
	if err != nil {
		return SignalWord{}, err
	}
	return SignalWord{off: b.off, addr: wordAt(b.mem)}, nil
}

// FreeSignal releases a signal word.
func (h *Heap) FreeSignal(w SignalWord) error {
	if w.IsZero() {
		return errors.Wrapf(ErrInvalidAddress, "can't free zero signal word")
	}

	h.Lock()
	defer h.Unlock()

	return h.alloc.Free(w.off)
}

// Check verifies that [off, off+length) lies within a live allocation.
func (h *Heap) Check(off, length uint64) error {
	h.Lock()
	defer h.Unlock()

	if !h.alloc.Contains(off, length) {
		return errors.Wrapf(ErrInvalidAddress, "0x%x+%d is not within an allocation", off, length)
	}
	return nil
}

// CheckBuffer verifies that b is a live symmetric buffer.
func (h *Heap) CheckBuffer(b Buffer) error {
	if !b.symmetric {
		return errors.Wrapf(ErrInvalidAddress, "%s is not symmetric", b)
	}
	return h.Check(b.off, uint64(len(b.mem)))
}

// CheckSignal verifies that w is a live signal word.
func (h *Heap) CheckSignal(w SignalWord) error {
	if w.IsZero() {
		return errors.Wrap(ErrInvalidAddress, "zero signal word")
	}
	return h.Check(w.off, 4)
}

// Stats returns heap usage statistics.
func (h *Heap) Stats() Stats {
	h.Lock()
	defer h.Unlock()
	return h.alloc.Stats()
}

// Close releases the heap, unmapping and optionally unlinking its segment.
func (h *Heap) Close(unlink bool) error {
	var err error
	if unlink {
		err = h.seg.Unlink()
	}
	if cerr := h.seg.Close(); err == nil {
		err = cerr
	}
	h.mem = nil
	return err
}

func (h *Heap) buffer(off, size uint64) Buffer {
	return Buffer{
		off:       off,
		mem:       h.mem[off : off+size : off+size],
		symmetric: true,
	}
}
