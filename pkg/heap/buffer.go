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
	"fmt"
	"unsafe"
)

// Buffer is a region of memory usable as a source or target of transfers.
//
// Symmetric buffers are allocated from the symmetric heap: the same offset
// names the same-sized region on every PE. Host buffers wrap ordinary local
// memory and can only be the local side of a transfer.
type Buffer struct {
	off       uint64
	mem       []byte
	symmetric bool
}

// HostBuffer wraps local memory as a (non-symmetric) Buffer.
func HostBuffer(b []byte) Buffer {
	return Buffer{mem: b}
}

// Offset returns the heap offset of a symmetric buffer.
func (b Buffer) Offset() uint64 {
	return b.off
}

// Len returns the length of the buffer in bytes.
func (b Buffer) Len() int {
	return len(b.mem)
}

// Bytes returns the local memory of the buffer.
func (b Buffer) Bytes() []byte {
	return b.mem
}

// Symmetric checks if the buffer was allocated from the symmetric heap.
func (b Buffer) Symmetric() bool {
	return b.symmetric
}

// IsZero checks if the buffer is the zero Buffer.
func (b Buffer) IsZero() bool {
	return b.mem == nil && b.off == 0 && !b.symmetric
}

// Slice returns the sub-buffer [from, to) of the buffer.
func (b Buffer) Slice(from, to int) Buffer {
	if from < 0 || to < from || to > len(b.mem) {
		panic(fmt.Sprintf("heap: slice [%d:%d] out of range for buffer of %d bytes",
			from, to, len(b.mem)))
	}
	return Buffer{
		off:       b.off + uint64(from),
		mem:       b.mem[from:to:to],
		symmetric: b.symmetric,
	}
}

func (b Buffer) String() string {
	if !b.symmetric {
		return fmt.Sprintf("host buffer of %d bytes", len(b.mem))
	}
	return fmt.Sprintf("symmetric buffer 0x%x+%d", b.off, len(b.mem))
}

// SignalWord is a 32-bit symmetric word used for signalling between PEs.
// It is a distinct type so that it can't be passed to ordinary transfers.
type SignalWord struct {
	off  uint64
	addr *int32
}

// SignalWordSize is the size of the memory reserved for a SignalWord.
const SignalWordSize = Alignment

// Offset returns the heap offset of the word.
func (w SignalWord) Offset() uint64 {
	return w.off
}

// Addr returns the address of the local instance of the word.
func (w SignalWord) Addr() *int32 {
	return w.addr
}

// IsZero checks if the word is the zero SignalWord.
func (w SignalWord) IsZero() bool {
	return w.addr == nil
}

func (w SignalWord) String() string {
	return fmt.Sprintf("signal word 0x%x", w.off)
}

// PeerRef is the view of a symmetric buffer as it lives on another PE,
// directly addressable from this process.
type PeerRef struct {
	PE     int
	Offset uint64
	mem    []byte
}

// NewPeerRef creates a reference to the given memory of a PE.
func NewPeerRef(pe int, off uint64, mem []byte) PeerRef {
	return PeerRef{PE: pe, Offset: off, mem: mem}
}

// Bytes returns the directly addressable memory of the reference.
func (r PeerRef) Bytes() []byte {
	return r.mem
}

// Len returns the length of the referenced memory.
func (r PeerRef) Len() int {
	return len(r.mem)
}

// Pointer returns the address of the referenced memory.
func (r PeerRef) Pointer() unsafe.Pointer {
	if len(r.mem) == 0 {
		return nil
	}
	return unsafe.Pointer(&r.mem[0])
}

// wordAt returns the 32-bit word at the start of mem.
func wordAt(mem []byte) *int32 {
	return (*int32)(unsafe.Pointer(&mem[0]))
}

// WordAt returns the 32-bit word at the given offset of mem, which must be
// 4-byte aligned relative to a page-aligned mapping.
func WordAt(mem []byte, off uint64) *int32 {
	return wordAt(mem[off : off+4])
}
