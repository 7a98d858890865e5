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

// Package shm implements a transport over shared memory segments mapped
// into every PE process.
package shm

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/intel/symmetric-memory/pkg/heap"
	logger "github.com/intel/symmetric-memory/pkg/log"
	"github.com/intel/symmetric-memory/pkg/transport"
)

const (
	// TransportName is the name of the shared memory transport.
	TransportName = "shm"
	// TransportDescription describes the shared memory transport.
	TransportDescription = "PEs on a single host sharing memory mapped heap segments."
)

var (
	// ErrNotConnected is returned when accessing a PE that isn't connected.
	ErrNotConnected = errors.New("PE not connected")
	// ErrOutOfRange is returned for accesses beyond the heap of a PE.
	ErrOutOfRange = errors.New("access out of heap range")
)

var log = logger.NewLogger("shm")

type shm struct {
	sync.RWMutex
	local *heap.Segment
	peers []*heap.Segment
	heaps [][]byte
}

// New creates a shared memory transport for the given local segment.
func New(local *heap.Segment) (transport.Transport, error) {
	if local == nil {
		return nil, errors.New("shm: nil local segment")
	}
	return &shm{local: local}, nil
}

func (t *shm) Name() string {
	return TransportName
}

// Connect maps the segment of every peer. The local PE uses its own mapping.
func (t *shm) Connect(peers []transport.Peer) error {
	t.Lock()
	defer t.Unlock()

	if t.peers != nil {
		return errors.New("shm: already connected")
	}

	myRank := t.local.Rank()
	segs := make([]*heap.Segment, len(peers))
	heaps := make([][]byte, len(peers))

	for i, p := range peers {
		if p.Rank != i {
			closeSegments(segs, myRank)
			return errors.Errorf("shm: peer #%d has rank %d", i, p.Rank)
		}
		if i == myRank {
			segs[i] = t.local
			heaps[i] = t.local.Heap()
			continue
		}

		seg, err := heap.OpenSegment(p.Segment)
		if err != nil {
			closeSegments(segs, myRank)
			return errors.Wrapf(err, "shm: failed to connect %s", p)
		}
		segs[i] = seg

		rank, nranks, size := seg.Rank(), seg.NRanks(), seg.HeapSize()
		if rank != p.Rank || nranks != len(peers) || size != p.HeapSize {
			closeSegments(segs, myRank)
			return errors.Errorf("shm: segment of %s describes PE %d/%d with %d bytes of heap",
				p, rank, nranks, size)
		}
		heaps[i] = seg.Heap()

		log.Debug("connected %s", p)
	}

	t.peers = segs
	t.heaps = heaps

	log.Info("PE %d connected to %d peers", myRank, len(peers))

	return nil
}

func (t *shm) Write(pe int, off uint64, src []byte) error {
	dst, err := t.memory(pe, off, uint64(len(src)))
	if err != nil {
		return err
	}
	copy(dst, src)
	return nil
}

func (t *shm) Read(pe int, off uint64, dst []byte) error {
	src, err := t.memory(pe, off, uint64(len(dst)))
	if err != nil {
		return err
	}
	copy(dst, src)
	return nil
}

func (t *shm) Word(pe int, off uint64) (*int32, error) {
	if off%4 != 0 {
		return nil, errors.Wrapf(ErrOutOfRange, "unaligned signal word at 0x%x", off)
	}
	mem, err := t.memory(pe, off, 4)
	if err != nil {
		return nil, err
	}
	return heap.WordAt(mem, 0), nil
}

func (t *shm) SyncWord(pe, slot int) (*int32, error) {
	t.RLock()
	defer t.RUnlock()

	if pe < 0 || pe >= len(t.peers) || t.peers[pe] == nil {
		return nil, errors.Wrapf(ErrNotConnected, "PE %d", pe)
	}
	if slot < 0 || slot >= len(t.peers) {
		return nil, errors.Wrapf(ErrOutOfRange, "sync slot %d", slot)
	}
	return t.peers[pe].SyncWord(slot), nil
}

func (t *shm) PeerRef(pe int, off, length uint64) (heap.PeerRef, error) {
	mem, err := t.memory(pe, off, length)
	if err != nil {
		return heap.PeerRef{}, err
	}
	return heap.NewPeerRef(pe, off, mem), nil
}

func (t *shm) NPeers() int {
	t.RLock()
	defer t.RUnlock()
	return len(t.peers)
}

// Close unmaps all peer segments. The local segment is left for its owner.
func (t *shm) Close() error {
	t.Lock()
	defer t.Unlock()

	err := closeSegments(t.peers, t.local.Rank())
	t.peers = nil
	t.heaps = nil

	return err
}

func (t *shm) memory(pe int, off, length uint64) ([]byte, error) {
	t.RLock()
	defer t.RUnlock()

	if pe < 0 || pe >= len(t.heaps) {
		return nil, errors.Wrapf(ErrNotConnected, "PE %d", pe)
	}
	mem := t.heaps[pe]
	if off > uint64(len(mem)) || length > uint64(len(mem))-off {
		return nil, errors.Wrapf(ErrOutOfRange, "0x%x+%d on PE %d with %d bytes of heap",
			off, length, pe, len(mem))
	}
	return mem[off : off+length : off+length], nil
}

func closeSegments(segs []*heap.Segment, local int) error {
	var err error
	for i, seg := range segs {
		if seg == nil || i == local {
			continue
		}
		if cerr := seg.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "shm: failed to close segment of PE %d", i)
		}
	}
	return err
}

func init() {
	if err := transport.Register(TransportName, TransportDescription, New); err != nil {
		log.Error("failed to register transport: %v", err)
	}
}
