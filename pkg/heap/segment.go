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
	"encoding/binary"
	"os"
	"path/filepath"
	"sync/atomic"
	"unsafe"

	"github.com/pkg/errors"
)

// Segment layout:
//
//	+--------------------+ 0
//	| header             |
//	+--------------------+ HeaderSize
//	| sync region        |  one int32 counter per PE, page aligned
//	+--------------------+ heapOffset
//	| symmetric heap     |
//	+--------------------+ total
const (
	// HeaderSize is the size of the segment header.
	HeaderSize = 4096
	// DefaultDir is the preferred directory for segment files.
	DefaultDir = "/dev/shm"
	// SegmentVersion is the layout version of segments.
	SegmentVersion = 1

	pageSize       = 4096
	segmentMagic   = "SHMEMSEG"
	hdrMagic       = 0
	hdrVersion     = 8
	hdrRank        = 12
	hdrNRanks      = 16
	hdrPID         = 20
	hdrSyncOffset  = 24
	hdrHeapOffset  = 32
	hdrHeapSize    = 40
	hdrTotalSize   = 48
	hdrReady       = 56
	syncWordStride = 4
)

// Segment is a file-backed shared memory mapping holding one PE's heap.
type Segment struct {
	path  string
	file  *os.File
	mem   []byte
	owner bool
}

// Layout calculates the sync and heap offsets and total size of a segment.
func Layout(nranks int, heapSize uint64) (syncOff, heapOff, total uint64) {
	syncOff = HeaderSize
	heapOff = syncOff + alignUp(uint64(nranks)*syncWordStride, pageSize)
	total = heapOff + alignUp(heapSize, pageSize)
	return syncOff, heapOff, total
}

// SegmentDir returns dir if set, otherwise /dev/shm if available, else os.TempDir().
func SegmentDir(dir string) string {
	if dir != "" {
		return dir
	}
	if info, err := os.Stat(DefaultDir); err == nil && info.IsDir() {
		return DefaultDir
	}
	return os.TempDir()
}

// CreateSegment creates and maps a new segment file.
func CreateSegment(path string, rank, nranks int, heapSize uint64) (*Segment, error) {
	syncOff, heapOff, total := Layout(nranks, heapSize)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0600)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create segment %q", path)
	}
	cleanup := func() {
		file.Close()
		os.Remove(path)
	}

	if err := file.Truncate(int64(total)); err != nil {
		cleanup()
		return nil, errors.Wrapf(err, "failed to resize segment %q to %d bytes", path, total)
	}

	mem, err := mmapFile(file, int(total))
	if err != nil {
		cleanup()
		return nil, errors.Wrapf(err, "failed to map segment %q", path)
	}

	s := &Segment{path: path, file: file, mem: mem, owner: true}

	copy(mem[hdrMagic:], segmentMagic)
	s.put32(hdrVersion, SegmentVersion)
	s.put32(hdrRank, uint32(rank))
	s.put32(hdrNRanks, uint32(nranks))
	s.put32(hdrPID, uint32(os.Getpid()))
	s.put64(hdrSyncOffset, syncOff)
	s.put64(hdrHeapOffset, heapOff)
	s.put64(hdrHeapSize, heapSize)
	s.put64(hdrTotalSize, total)
	atomic.StoreUint32(s.word(hdrReady), 1)

	return s, nil
}

// OpenSegment maps an existing segment file created by another PE.
func OpenSegment(path string) (*Segment, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open segment %q", path)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, errors.Wrapf(err, "failed to stat segment %q", path)
	}
	if info.Size() < HeaderSize {
		file.Close()
		return nil, errors.Errorf("segment %q too small (%d bytes)", path, info.Size())
	}

	mem, err := mmapFile(file, int(info.Size()))
	if err != nil {
		file.Close()
		return nil, errors.Wrapf(err, "failed to map segment %q", path)
	}

	s := &Segment{path: path, file: file, mem: mem}
	if err := s.validate(uint64(info.Size())); err != nil {
		s.Close()
		return nil, errors.Wrapf(err, "invalid segment %q", path)
	}

	return s, nil
}

func (s *Segment) validate(size uint64) error {
	if string(s.mem[hdrMagic:hdrMagic+len(segmentMagic)]) != segmentMagic {
		return errors.New("bad magic")
	}
	if v := s.get32(hdrVersion); v != SegmentVersion {
		return errors.Errorf("unsupported version %d", v)
	}
	if atomic.LoadUint32(s.word(hdrReady)) != 1 {
		return errors.New("segment not ready")
	}
	if total := s.get64(hdrTotalSize); total != size {
		return errors.Errorf("size mismatch, header says %d, file has %d", total, size)
	}
	if s.HeapOffset()+alignUp(s.HeapSize(), Alignment) > size || s.SyncOffset()+uint64(s.NRanks())*syncWordStride > s.HeapOffset() {
		return errors.New("inconsistent layout")
	}
	return nil
}

// Path returns the path of the segment file.
func (s *Segment) Path() string {
	return s.path
}

// Name returns the file name of the segment.
func (s *Segment) Name() string {
	return filepath.Base(s.path)
}

// Rank returns the rank of the PE owning the segment.
func (s *Segment) Rank() int {
	return int(s.get32(hdrRank))
}

// NRanks returns the number of PEs the segment was laid out for.
func (s *Segment) NRanks() int {
	return int(s.get32(hdrNRanks))
}

// PID returns the process id of the segment creator.
func (s *Segment) PID() int {
	return int(s.get32(hdrPID))
}

// SyncOffset returns the offset of the sync region.
func (s *Segment) SyncOffset() uint64 {
	return s.get64(hdrSyncOffset)
}

// HeapOffset returns the offset of the heap region.
func (s *Segment) HeapOffset() uint64 {
	return s.get64(hdrHeapOffset)
}

// HeapSize returns the usable size of the heap region.
func (s *Segment) HeapSize() uint64 {
	return s.get64(hdrHeapSize)
}

// Bytes returns the whole mapping.
func (s *Segment) Bytes() []byte {
	return s.mem
}

// Heap returns the heap region of the mapping, rounded up to the
// allocation granularity so that an allocation of HeapSize bytes fits.
func (s *Segment) Heap() []byte {
	off, size := s.HeapOffset(), alignUp(s.HeapSize(), Alignment)
	return s.mem[off : off+size : off+size]
}

// SyncWord returns the sync counter for the given PE.
func (s *Segment) SyncWord(pe int) *int32 {
	return WordAt(s.mem, s.SyncOffset()+uint64(pe)*syncWordStride)
}

// Close unmaps the segment and closes its file.
func (s *Segment) Close() error {
	var err error
	if s.mem != nil {
		err = munmap(s.mem)
		s.mem = nil
	}
	if s.file != nil {
		if cerr := s.file.Close(); err == nil {
			err = cerr
		}
		s.file = nil
	}
	return err
}

// Unlink removes the segment file. Existing mappings stay valid.
func (s *Segment) Unlink() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to remove segment %q", s.path)
	}
	return nil
}

func (s *Segment) word(off uint64) *uint32 {
	return (*uint32)(unsafe.Pointer(&s.mem[off]))
}

func (s *Segment) put32(off uint64, v uint32) {
	binary.LittleEndian.PutUint32(s.mem[off:], v)
}

func (s *Segment) get32(off uint64) uint32 {
	return binary.LittleEndian.Uint32(s.mem[off:])
}

func (s *Segment) put64(off uint64, v uint64) {
	binary.LittleEndian.PutUint64(s.mem[off:], v)
}

func (s *Segment) get64(off uint64) uint64 {
	return binary.LittleEndian.Uint64(s.mem[off:])
}
