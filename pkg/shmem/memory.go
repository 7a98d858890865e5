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

package shmem

import (
	"github.com/pkg/errors"

	"github.com/intel/symmetric-memory/pkg/heap"
)

// Malloc allocates size bytes of symmetric memory. Every PE must make the
// same sequence of allocation calls to get matching buffers.
func (r *Runtime) Malloc(size uint64) (heap.Buffer, error) {
	j, err := r.active()
	if err != nil {
		return heap.Buffer{}, err
	}
	return j.heap.Malloc(size)
}

// Calloc allocates zeroed symmetric memory for n elements of size bytes.
func (r *Runtime) Calloc(n, size uint64) (heap.Buffer, error) {
	j, err := r.active()
	if err != nil {
		return heap.Buffer{}, err
	}
	return j.heap.Calloc(n, size)
}

// Align allocates size bytes of symmetric memory aligned to alignment.
func (r *Runtime) Align(alignment, size uint64) (heap.Buffer, error) {
	j, err := r.active()
	if err != nil {
		return heap.Buffer{}, err
	}
	return j.heap.Align(alignment, size)
}

// Free releases symmetric memory.
func (r *Runtime) Free(b heap.Buffer) error {
	j, err := r.active()
	if err != nil {
		return err
	}
	return j.heap.Free(b)
}

// MallocSignal allocates a symmetric signal word.
func (r *Runtime) MallocSignal() (heap.SignalWord, error) {
	j, err := r.active()
	if err != nil {
		return heap.SignalWord{}, err
	}
	return j.heap.MallocSignal()
}

// FreeSignal releases a symmetric signal word.
func (r *Runtime) FreeSignal(w heap.SignalWord) error {
	j, err := r.active()
	if err != nil {
		return err
	}
	return j.heap.FreeSignal(w)
}

// Ptr returns a direct reference to the copy of b on PE pe.
func (r *Runtime) Ptr(b heap.Buffer, pe int) (heap.PeerRef, error) {
	j, err := r.active()
	if err != nil {
		return heap.PeerRef{}, err
	}
	if pe < 0 || pe >= j.nPEs {
		return heap.PeerRef{}, errors.Wrapf(ErrInvalidAddress, "invalid PE %d", pe)
	}
	if err := j.heap.CheckBuffer(b); err != nil {
		return heap.PeerRef{}, err
	}
	return j.tr.PeerRef(pe, b.Offset(), uint64(b.Len()))
}

// HeapStats returns the allocation statistics of the symmetric heap.
func (r *Runtime) HeapStats() (heap.Stats, error) {
	j, err := r.active()
	if err != nil {
		return heap.Stats{}, err
	}
	return j.heap.Stats(), nil
}
