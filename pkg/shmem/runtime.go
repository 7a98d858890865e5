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

// Package shmem implements a symmetric memory runtime for a fixed set of
// processing elements (PEs).
//
// Every PE of a job calls Init with the same unique id, created by one of
// them with GetUniqueID and distributed out of band. Once initialized, PEs
// allocate symmetric memory collectively, which yields the same offsets on
// every PE, and read and write each others' memory with one-sided put and
// get operations ordered on execution streams. Signals provide point-to-point
// synchronization and teams provide subsets of PEs for collective work.
package shmem

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/intel/symmetric-memory/pkg/bootstrap"
	"github.com/intel/symmetric-memory/pkg/heap"
	logger "github.com/intel/symmetric-memory/pkg/log"
	"github.com/intel/symmetric-memory/pkg/rma"
	"github.com/intel/symmetric-memory/pkg/stream"
	"github.com/intel/symmetric-memory/pkg/team"
	"github.com/intel/symmetric-memory/pkg/transport"
	"github.com/intel/symmetric-memory/pkg/uid"
	"github.com/intel/symmetric-memory/pkg/version"
)

var log = logger.NewLogger("shmem")

// Runtime is the symmetric memory runtime of a single PE.
type Runtime struct {
	sync.RWMutex
	lifecycle  sync.Mutex // serializes Init, Finalize and GetUniqueID
	segmentDir string
	transport  string
	state      State
	pending    *pendingID
	job        *job
}

// Option is an option applied to a Runtime.
type Option func(*Runtime)

// WithSegmentDir sets the directory of the heap segments.
func WithSegmentDir(dir string) Option {
	return func(r *Runtime) {
		r.segmentDir = dir
	}
}

// WithTransport sets the name of the transport connecting the PEs.
func WithTransport(name string) Option {
	return func(r *Runtime) {
		r.transport = name
	}
}

// pendingID is a unique id created by this runtime, with its listener.
type pendingID struct {
	id uid.ID
	ln net.Listener
}

// job is the state of an initialized runtime.
type job struct {
	id      uid.ID
	myPE    int
	nPEs    int
	memSize uint64
	heap    *heap.Heap
	boot    *bootstrap.Bootstrap
	tr      transport.Transport
	teams   *team.Registry
	stream  *stream.Queue
	engine  *rma.Engine
}

// New creates a new, uninitialized runtime.
func New(options ...Option) *Runtime {
	r := &Runtime{}
	for _, o := range options {
		o(r)
	}
	return r
}

// SegmentName returns the name of the heap segment of a PE.
func SegmentName(id uid.ID, rank int) string {
	return fmt.Sprintf("shmem-%s-%d", id.Session(), rank)
}

// GetUniqueID creates the unique id of a new job. The rendezvous listener is
// bound right away and kept for Init of PE 0 in this process.
func (r *Runtime) GetUniqueID() (uid.ID, error) {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()

	ln, err := bootstrap.Listen(bootstrap.Address())
	if err != nil {
		return uid.ID{}, errors.Wrapf(ErrBootstrap, "%v", err)
	}

	id, err := uid.New(advertisedAddress(ln.Addr()))
	if err != nil {
		ln.Close()
		return uid.ID{}, errors.Wrapf(ErrBootstrap, "%v", err)
	}

	r.Lock()
	if r.pending != nil {
		r.pending.ln.Close()
	}
	r.pending = &pendingID{id: id, ln: ln}
	r.Unlock()

	log.Debug("created unique id %s for rendezvous at %s", id.Short(), id.Address())

	return id, nil
}

// Init initializes the runtime as PE rank of a job of nranks PEs with a
// symmetric heap of memSize bytes. It blocks until every PE of the job joined.
func (r *Runtime) Init(ctx context.Context, rank, nranks int, memSize uint64, id uid.ID) error {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()

	if err := r.checkState(); err != nil {
		return err
	}
	if err := checkInitArgs(rank, nranks, memSize, id); err != nil {
		return err
	}

	r.setState(Initializing)

	log.Info("PE %d/%d initializing (heap %d bytes, session %s)...", rank, nranks, memSize, id.Short())

	j := &job{
		id:      id,
		myPE:    rank,
		nPEs:    nranks,
		memSize: memSize,
	}
	err := j.start(ctx, r.listener(id), r.config())

	r.Lock()
	defer r.Unlock()

	if err != nil {
		j.abort()
		r.state = Error
		log.Error("PE %d/%d failed to initialize: %v", rank, nranks, err)
		return errors.Wrapf(ErrInit, "PE %d/%d: %v", rank, nranks, err)
	}

	r.job = j
	r.state = Initialized

	log.Info("PE %d/%d initialized", rank, nranks)

	return nil
}

// Finalize releases every resource of the runtime. Pending operations on
// the default stream are drained first.
func (r *Runtime) Finalize() error {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()

	r.Lock()
	if r.state != Initialized {
		r.Unlock()
		return ErrNotInitialized
	}
	j := r.job
	r.job = nil
	r.state = Uninitialized
	r.Unlock()

	log.Info("PE %d/%d finalizing...", j.myPE, j.nPEs)

	if err := j.close(context.Background()); err != nil {
		log.Error("PE %d/%d: finalization failed: %v", j.myPE, j.nPEs, err)
		return err
	}

	return nil
}

// InitStatus returns the initialization state of the runtime.
func (r *Runtime) InitStatus() State {
	r.RLock()
	defer r.RUnlock()
	return r.state
}

// Version returns the major and minor version of the runtime API.
func (r *Runtime) Version() (int, int) {
	return version.API()
}

// MyPE returns the rank of the calling PE.
func (r *Runtime) MyPE() (int, error) {
	j, err := r.active()
	if err != nil {
		return -1, err
	}
	return j.myPE, nil
}

// NPEs returns the number of PEs in the job.
func (r *Runtime) NPEs() (int, error) {
	j, err := r.active()
	if err != nil {
		return -1, err
	}
	return j.nPEs, nil
}

// DefaultStream returns the stream used for operations issued without one.
func (r *Runtime) DefaultStream() (stream.Stream, error) {
	j, err := r.active()
	if err != nil {
		return nil, err
	}
	return j.stream, nil
}

// CreateStream creates a new stream. The caller destroys it.
func (r *Runtime) CreateStream(name string) (stream.Stream, error) {
	j, err := r.active()
	if err != nil {
		return nil, err
	}
	return stream.New(fmt.Sprintf("pe%d-%s", j.myPE, name)), nil
}

// BarrierAll waits until the default stream is drained and every PE entered
// the barrier.
func (r *Runtime) BarrierAll(ctx context.Context) error {
	j, err := r.active()
	if err != nil {
		return err
	}
	if err := j.engine.Quiet(ctx, nil); err != nil {
		return err
	}
	return j.boot.Barrier(ctx)
}

// active returns the job of an initialized runtime.
func (r *Runtime) active() (*job, error) {
	r.RLock()
	defer r.RUnlock()

	if r.state != Initialized {
		return nil, ErrNotInitialized
	}
	return r.job, nil
}

func (r *Runtime) checkState() error {
	r.RLock()
	defer r.RUnlock()

	switch r.state {
	case Initializing, Initialized:
		return errors.Wrap(ErrInit, "runtime already initialized")
	case Error:
		return errors.Wrap(ErrInit, "runtime failed to initialize earlier")
	}
	return nil
}

func (r *Runtime) setState(state State) {
	r.Lock()
	defer r.Unlock()
	r.state = state
}

// listener hands over the pending listener if it belongs to id.
func (r *Runtime) listener(id uid.ID) net.Listener {
	r.Lock()
	defer r.Unlock()

	p := r.pending
	if p == nil {
		return nil
	}
	r.pending = nil
	if p.id != id {
		p.ln.Close()
		return nil
	}
	return p.ln
}

// config returns the effective configuration of the runtime.
func (r *Runtime) config() options {
	o := configured()
	if r.segmentDir != "" {
		o.SegmentDir = r.segmentDir
	}
	if r.transport != "" {
		o.Transport = r.transport
	}
	return o
}

func checkInitArgs(rank, nranks int, memSize uint64, id uid.ID) error {
	if nranks <= 0 || nranks > team.MaxPEs {
		return errors.Wrapf(ErrInit, "invalid number of PEs %d", nranks)
	}
	if rank < 0 || rank >= nranks {
		return errors.Wrapf(ErrInit, "invalid rank %d of %d PEs", rank, nranks)
	}
	if memSize == 0 {
		return errors.Wrap(ErrInit, "zero heap size")
	}
	if err := id.Validate(); err != nil {
		return errors.Wrapf(ErrInit, "%v", err)
	}
	return nil
}

// start brings up the job: heap, rendezvous, transport, teams and streams.
func (j *job) start(ctx context.Context, ln net.Listener, o options) error {
	path := filepath.Join(heap.SegmentDir(o.SegmentDir), SegmentName(j.id, j.myPE))
	seg, err := heap.CreateSegment(path, j.myPE, j.nPEs, j.memSize)
	if err != nil {
		if ln != nil {
			ln.Close()
		}
		return err
	}
	j.heap = heap.New(seg)

	if j.boot, err = bootstrap.New(j.id, j.myPE, j.nPEs, ln); err != nil {
		return err
	}

	host, _ := os.Hostname()
	peers, err := j.boot.Exchange(ctx, transport.Peer{
		Rank:     j.myPE,
		Segment:  path,
		HeapSize: j.memSize,
		PID:      os.Getpid(),
		Host:     host,
	})
	if err != nil {
		return err
	}

	if j.tr, err = transport.New(o.Transport, seg); err != nil {
		return err
	}
	if err = j.tr.Connect(peers); err != nil {
		return err
	}

	if j.teams, err = team.NewRegistry(j.myPE, j.nPEs); err != nil {
		return err
	}
	j.stream = stream.New(fmt.Sprintf("pe%d-default", j.myPE))
	j.engine = rma.NewEngine(j.myPE, j.nPEs, j.heap, j.tr, j.teams, j.stream)

	return j.boot.Barrier(ctx)
}

// close tears down an initialized job.
func (j *job) close(ctx context.Context) error {
	var result *multierror.Error

	if err := j.stream.Synchronize(ctx); err != nil {
		log.Warn("PE %d: default stream had failed operations: %v", j.myPE, err)
	}
	if err := j.boot.Barrier(ctx); err != nil {
		log.Warn("PE %d: final barrier failed: %v", j.myPE, err)
	}
	if err := j.stream.Destroy(); err != nil {
		result = multierror.Append(result, errors.Wrap(err, "failed to destroy default stream"))
	}
	if err := j.tr.Close(); err != nil {
		result = multierror.Append(result, errors.Wrap(err, "failed to close transport"))
	}
	j.teams.Reset()
	if err := j.heap.Close(true); err != nil {
		result = multierror.Append(result, errors.Wrap(err, "failed to release heap"))
	}
	if err := j.boot.Close(ctx); err != nil {
		result = multierror.Append(result, errors.Wrap(err, "failed to leave rendezvous"))
	}

	return result.ErrorOrNil()
}

// abort releases whatever a failed start managed to set up.
func (j *job) abort() {
	if j.stream != nil {
		j.stream.Destroy()
	}
	if j.tr != nil {
		j.tr.Close()
	}
	if j.boot != nil {
		j.boot.Abort()
	}
	if j.heap != nil {
		j.heap.Close(true)
	}
}

// advertisedAddress returns a dialable form of a listener address.
func advertisedAddress(addr net.Addr) string {
	tcp, ok := addr.(*net.TCPAddr)
	if !ok || !tcp.IP.IsUnspecified() {
		return addr.String()
	}
	host, err := os.Hostname()
	if err != nil {
		host = "localhost"
	}
	return net.JoinHostPort(host, strconv.Itoa(tcp.Port))
}

func shmemError(format string, args ...interface{}) error {
	return fmt.Errorf("shmem: "+format, args...)
}
