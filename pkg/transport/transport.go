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

// Package transport defines the lower transport the RMA engine dispatches
// data movement into, and a registry of transport implementations.
package transport

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/intel/symmetric-memory/pkg/heap"
	logger "github.com/intel/symmetric-memory/pkg/log"
)

// Peer describes a PE as learned during bootstrap.
type Peer struct {
	// Rank is the world PE number of the peer.
	Rank int `json:"rank"`
	// Segment is the path of the shared memory segment of the peer.
	Segment string `json:"segment"`
	// HeapSize is the size of the symmetric heap of the peer.
	HeapSize uint64 `json:"heapSize"`
	// PID is the process id of the peer.
	PID int `json:"pid"`
	// Host is the host name of the peer.
	Host string `json:"host"`
}

func (p Peer) String() string {
	return fmt.Sprintf("PE %d (pid %d@%s, %s)", p.Rank, p.PID, p.Host, p.Segment)
}

// Transport moves data between the symmetric heaps of PEs. All offsets are
// relative to the start of the symmetric heap.
type Transport interface {
	// Name returns the name of the transport.
	Name() string
	// Connect sets up access to the given peers, indexed by rank.
	Connect(peers []Peer) error
	// Write copies src to the heap of pe at off.
	Write(pe int, off uint64, src []byte) error
	// Read copies from the heap of pe at off to dst.
	Read(pe int, off uint64, dst []byte) error
	// Word returns the signal word at off in the heap of pe.
	Word(pe int, off uint64) (*int32, error)
	// SyncWord returns the sync counter slot of pe.
	SyncWord(pe, slot int) (*int32, error)
	// PeerRef returns a directly addressable view of the heap of pe.
	PeerRef(pe int, off, length uint64) (heap.PeerRef, error)
	// NPeers returns the number of connected peers.
	NPeers() int
	// Close releases all peer resources.
	Close() error
}

// CreateFn creates a transport for the given local segment.
type CreateFn func(local *heap.Segment) (Transport, error)

type implementation struct {
	name        string
	description string
	create      CreateFn
}

var (
	lock  sync.RWMutex
	impls = map[string]*implementation{}
	log   = logger.NewLogger("transport")
)

// Register registers a transport implementation.
func Register(name, description string, create CreateFn) error {
	lock.Lock()
	defer lock.Unlock()

	if create == nil {
		return transportError("transport %q has a nil instantiation function", name)
	}
	if _, ok := impls[name]; ok {
		return transportError("transport %q already registered", name)
	}

	log.Debug("registering transport %q...", name)
	impls[name] = &implementation{name: name, description: description, create: create}

	return nil
}

// New creates an instance of the named transport.
func New(name string, local *heap.Segment) (Transport, error) {
	lock.RLock()
	impl, ok := impls[name]
	lock.RUnlock()

	if !ok {
		return nil, transportError("unknown transport %q (available: %s)",
			name, strings.Join(Available(), ", "))
	}

	return impl.create(local)
}

// Available returns the names of the registered transports.
func Available() []string {
	lock.RLock()
	defer lock.RUnlock()

	names := make([]string, 0, len(impls))
	for name := range impls {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Describe returns the description of the named transport.
func Describe(name string) string {
	lock.RLock()
	defer lock.RUnlock()

	if impl, ok := impls[name]; ok {
		return impl.description
	}
	return ""
}

func transportError(format string, args ...interface{}) error {
	return fmt.Errorf("transport: "+format, args...)
}
