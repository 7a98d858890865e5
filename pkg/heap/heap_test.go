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
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func createHeap(t *testing.T, rank, nranks int, size uint64) (*Heap, string) {
	path := filepath.Join(t.TempDir(), "segment")
	seg, err := CreateSegment(path, rank, nranks, size)
	require.NoError(t, err)
	h := New(seg)
	t.Cleanup(func() { h.Close(true) })
	return h, path
}

func TestSegmentLayout(t *testing.T) {
	h, path := createHeap(t, 2, 4, 8192)
	seg := h.Segment()

	require.Equal(t, 2, seg.Rank())
	require.Equal(t, 4, seg.NRanks())
	require.Equal(t, os.Getpid(), seg.PID())
	require.Equal(t, uint64(8192), seg.HeapSize())
	require.Zero(t, seg.HeapOffset()%pageSize)
	require.Equal(t, uint64(8192), h.Size())

	info, err := os.Stat(path)
	require.NoError(t, err)
	_, _, total := Layout(4, 8192)
	require.Equal(t, int64(total), info.Size())

	_, err = CreateSegment(path, 2, 4, 8192)
	require.Error(t, err, "segments are created exclusively")
}

func TestSegmentSharing(t *testing.T) {
	h, path := createHeap(t, 0, 2, 4096)

	peer, err := OpenSegment(path)
	require.NoError(t, err)
	defer peer.Close()

	b, err := h.Malloc(64)
	require.NoError(t, err)
	copy(b.Bytes(), "hello, peer")

	remote := peer.Heap()[b.Offset() : b.Offset()+64]
	require.Equal(t, "hello, peer", string(remote[:11]), "writes visible through peer mapping")

	*peer.SyncWord(1) = 7
	require.Equal(t, int32(7), *h.Segment().SyncWord(1))
}

func TestOpenInvalidSegment(t *testing.T) {
	dir := t.TempDir()

	_, err := OpenSegment(filepath.Join(dir, "missing"))
	require.Error(t, err)

	small := filepath.Join(dir, "small")
	require.NoError(t, os.WriteFile(small, []byte("tiny"), 0600))
	_, err = OpenSegment(small)
	require.Error(t, err)

	garbage := filepath.Join(dir, "garbage")
	require.NoError(t, os.WriteFile(garbage, make([]byte, 2*HeaderSize), 0600))
	_, err = OpenSegment(garbage)
	require.Error(t, err)
}

func TestHeapAllocation(t *testing.T) {
	h, _ := createHeap(t, 0, 1, 8192)

	_, err := h.Malloc(0)
	require.True(t, errors.Is(err, ErrAlloc))
	_, err = h.Malloc(8193)
	require.True(t, errors.Is(err, ErrAlloc))

	b, err := h.Malloc(100)
	require.NoError(t, err)
	require.True(t, b.Symmetric())
	require.Equal(t, 100, b.Len())
	require.NoError(t, h.CheckBuffer(b))
	require.NoError(t, h.CheckBuffer(b.Slice(10, 20)))

	for i := range b.Bytes() {
		b.Bytes()[i] = 0xff
	}
	require.NoError(t, h.Free(b))
	require.True(t, errors.Is(h.CheckBuffer(b), ErrInvalidAddress), "freed buffer")
	require.True(t, errors.Is(h.Free(b), ErrInvalidAddress), "double free")

	z, err := h.Calloc(10, 10)
	require.NoError(t, err)
	require.Equal(t, b.Offset(), z.Offset(), "freed space reused")
	for _, v := range z.Bytes() {
		require.Zero(t, v, "calloc zeroes memory")
	}

	_, err = h.Calloc(1<<33, 1<<33)
	require.True(t, errors.Is(err, ErrAlloc), "overflow")

	a, err := h.Align(1024, 10)
	require.NoError(t, err)
	require.Zero(t, a.Offset()%1024)

	host := HostBuffer(make([]byte, 8))
	require.False(t, host.Symmetric())
	require.True(t, errors.Is(h.Free(host), ErrInvalidAddress))
	require.True(t, errors.Is(h.CheckBuffer(host), ErrInvalidAddress))

	st := h.Stats()
	require.Equal(t, 2, st.Allocations)
}

func TestUnalignedHeapSize(t *testing.T) {
	h, path := createHeap(t, 0, 1, 1000)
	require.Equal(t, uint64(1000), h.Segment().HeapSize())

	b, err := h.Malloc(1000)
	require.NoError(t, err)
	require.Equal(t, 1000, b.Len())
	for i := range b.Bytes() {
		b.Bytes()[i] = byte(i)
	}
	require.NoError(t, h.Free(b))

	small, err := h.Malloc(16)
	require.NoError(t, err)
	rest, err := h.Malloc(984)
	require.NoError(t, err)
	require.Equal(t, small.Offset()+16, rest.Offset())
	require.Equal(t, 984, len(rest.Bytes()))
	rest.Bytes()[983] = 0xff

	seg, err := OpenSegment(path)
	require.NoError(t, err, "rounded heap passes validation")
	require.NoError(t, seg.Close())
}

func TestSignalWords(t *testing.T) {
	h, _ := createHeap(t, 0, 1, 4096)

	w, err := h.MallocSignal()
	require.NoError(t, err)
	require.False(t, w.IsZero())
	require.Zero(t, *w.Addr())
	require.Zero(t, w.Offset()%4)
	require.NoError(t, h.CheckSignal(w))

	require.NoError(t, h.FreeSignal(w))
	require.True(t, errors.Is(h.CheckSignal(w), ErrInvalidAddress))
	require.True(t, errors.Is(h.CheckSignal(SignalWord{}), ErrInvalidAddress))
	require.True(t, errors.Is(h.FreeSignal(SignalWord{}), ErrInvalidAddress))
}
