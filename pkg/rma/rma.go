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

// Package rma implements one-sided remote memory access between PEs:
// put and get, their non-blocking variants, signalled puts, remote signal
// updates, stream-ordered signal waits and stream barriers.
//
// Every operation checks its preconditions synchronously and then runs on
// an execution stream. Failures during stream execution are recorded on the
// stream and reported by its Synchronize, never by the enqueueing call.
package rma

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/intel/symmetric-memory/pkg/heap"
	logger "github.com/intel/symmetric-memory/pkg/log"
	"github.com/intel/symmetric-memory/pkg/signal"
	"github.com/intel/symmetric-memory/pkg/stream"
	"github.com/intel/symmetric-memory/pkg/team"
	"github.com/intel/symmetric-memory/pkg/transport"
)

var (
	// ErrSizeMismatch is returned when source and destination lengths differ.
	ErrSizeMismatch = errors.New("size mismatch")
	// ErrInvalidStream is returned when a required stream is not given.
	ErrInvalidStream = errors.New("invalid stream")
)

var (
	log   = logger.NewLogger("rma")
	stall = logger.RateLimit(log, logger.Interval(5*time.Second))
)

// Stats are the operation counters of an Engine.
type Stats struct {
	Puts       uint64
	Gets       uint64
	PutBytes   uint64
	GetBytes   uint64
	SignalOps  uint64
	SignalWait uint64
	Barriers   uint64
	Failures   uint64
}

// Engine issues RMA operations of the local PE.
type Engine struct {
	sync.Mutex
	myPE     int
	nPEs     int
	heap     *heap.Heap
	tr       transport.Transport
	teams    *team.Registry
	def      stream.Stream
	expected []int32
	stats    Stats
}

// NewEngine creates an engine over the given heap, connected transport and
// team registry. Operations given no stream use the default stream.
func NewEngine(myPE, nPEs int, h *heap.Heap, tr transport.Transport, teams *team.Registry, def stream.Stream) *Engine {
	return &Engine{
		myPE:     myPE,
		nPEs:     nPEs,
		heap:     h,
		tr:       tr,
		teams:    teams,
		def:      def,
		expected: make([]int32, nPEs),
	}
}

// Put copies src to dst on pe and waits for the copy to complete.
func (e *Engine) Put(dst, src heap.Buffer, pe int, s stream.Stream) error {
	ev, err := e.PutNBI(dst, src, pe, s)
	if err != nil {
		return err
	}
	return ev.Wait(context.Background())
}

// PutNBI enqueues a copy of src to dst on pe and returns without waiting.
func (e *Engine) PutNBI(dst, src heap.Buffer, pe int, s stream.Stream) (*stream.Event, error) {
	if err := e.checkTransfer(dst, src, pe); err != nil {
		return nil, err
	}

	name := fmt.Sprintf("put %d bytes to PE %d", src.Len(), pe)
	return e.enqueue(s, name, func(context.Context) error {
		if err := e.tr.Write(pe, dst.Offset(), src.Bytes()); err != nil {
			return e.failed(err)
		}
		atomic.AddUint64(&e.stats.Puts, 1)
		atomic.AddUint64(&e.stats.PutBytes, uint64(src.Len()))
		return nil
	})
}

// Get copies src on pe to dst and waits for the copy to complete.
func (e *Engine) Get(dst, src heap.Buffer, pe int, s stream.Stream) error {
	ev, err := e.GetNBI(dst, src, pe, s)
	if err != nil {
		return err
	}
	return ev.Wait(context.Background())
}

// GetNBI enqueues a copy of src on pe to dst and returns without waiting.
func (e *Engine) GetNBI(dst, src heap.Buffer, pe int, s stream.Stream) (*stream.Event, error) {
	if err := e.checkTransfer(src, dst, pe); err != nil {
		return nil, err
	}

	name := fmt.Sprintf("get %d bytes from PE %d", dst.Len(), pe)
	return e.enqueue(s, name, func(context.Context) error {
		if err := e.tr.Read(pe, src.Offset(), dst.Bytes()); err != nil {
			return e.failed(err)
		}
		atomic.AddUint64(&e.stats.Gets, 1)
		atomic.AddUint64(&e.stats.GetBytes, uint64(dst.Len()))
		return nil
	})
}

// PutSignal copies src to dst on pe, then updates sig on pe, and waits for
// both to complete. Anyone observing the update also observes the data.
func (e *Engine) PutSignal(dst, src heap.Buffer, sig heap.SignalWord, val int32, op signal.Op, pe int, s stream.Stream) error {
	ev, err := e.PutSignalNBI(dst, src, sig, val, op, pe, s)
	if err != nil {
		return err
	}
	return ev.Wait(context.Background())
}

// PutSignalNBI enqueues a signalled put and returns without waiting.
func (e *Engine) PutSignalNBI(dst, src heap.Buffer, sig heap.SignalWord, val int32, op signal.Op, pe int, s stream.Stream) (*stream.Event, error) {
	if err := e.checkTransfer(dst, src, pe); err != nil {
		return nil, err
	}
	if err := e.checkSignal(sig, op); err != nil {
		return nil, err
	}

	name := fmt.Sprintf("put %d bytes with %s %d to PE %d", src.Len(), op, val, pe)
	return e.enqueue(s, name, func(context.Context) error {
		if err := e.tr.Write(pe, dst.Offset(), src.Bytes()); err != nil {
			return e.failed(err)
		}
		atomic.AddUint64(&e.stats.Puts, 1)
		atomic.AddUint64(&e.stats.PutBytes, uint64(src.Len()))
		return e.apply(sig, val, op, pe)
	})
}

// SignalOp enqueues an update of sig on pe on the given stream.
func (e *Engine) SignalOp(sig heap.SignalWord, val int32, op signal.Op, pe int, s stream.Stream) error {
	if s == nil {
		return errors.Wrap(ErrInvalidStream, "signal operation needs a stream")
	}
	if err := e.checkPE(pe); err != nil {
		return err
	}
	if err := e.checkSignal(sig, op); err != nil {
		return err
	}

	name := fmt.Sprintf("%s %d on PE %d", op, val, pe)
	_, err := e.enqueue(s, name, func(context.Context) error {
		return e.apply(sig, val, op, pe)
	})
	return err
}

// SignalWait blocks the given stream, not the caller, until the local
// instance of sig compares to val as requested. The wait is only aborted
// by destroying the stream.
func (e *Engine) SignalWait(sig heap.SignalWord, val int32, cmp signal.Cmp, s stream.Stream) error {
	if s == nil {
		return errors.Wrap(ErrInvalidStream, "signal wait needs a stream")
	}
	if !cmp.Valid() {
		return errors.Wrapf(signal.ErrInvalidCmp, "comparison %d", cmp)
	}
	if err := e.heap.CheckSignal(sig); err != nil {
		return err
	}

	name := fmt.Sprintf("wait for %s %s %d", sig, cmp, val)
	_, err := e.enqueue(s, name, func(ctx context.Context) error {
		opts := waitOptions(func(elapsed time.Duration) {
			stall.Warn("PE %d: stream wait for %s %s %d is stalled", e.myPE, sig, cmp, val)
			log.Debug("PE %d: %s stalled for %s", e.myPE, name, elapsed)
		})
		if _, err := signal.Wait(ctx, sig.Addr(), cmp, val, opts); err != nil {
			return err
		}
		atomic.AddUint64(&e.stats.SignalWait, 1)
		return nil
	})
	return err
}

// Fetch atomically loads the local instance of sig.
func (e *Engine) Fetch(sig heap.SignalWord) (int32, error) {
	if err := e.heap.CheckSignal(sig); err != nil {
		return 0, err
	}
	return signal.Load(sig.Addr()), nil
}

// Quiet waits until every operation issued on the stream has completed.
func (e *Engine) Quiet(ctx context.Context, s stream.Stream) error {
	if s == nil {
		s = e.def
	}
	return s.Synchronize(ctx)
}

// BarrierOnStream enqueues a barrier among the members of t. The stream
// passes the barrier once every member enqueued it and reached it.
func (e *Engine) BarrierOnStream(t team.Team, s stream.Stream) error {
	info, ok := e.teams.Get(t)
	if !ok {
		return errors.Wrapf(team.ErrInvalidArgs, "barrier on invalid team %d", t)
	}

	peers := []int{}
	expected := []int32{}

	e.Lock()
	for _, pe := range info.Members() {
		if pe == e.myPE {
			continue
		}
		e.expected[pe]++
		peers = append(peers, pe)
		expected = append(expected, e.expected[pe])
	}
	e.Unlock()

	name := fmt.Sprintf("barrier on team %d", t)
	_, err := e.enqueue(s, name, func(ctx context.Context) error {
		for _, pe := range peers {
			w, err := e.tr.SyncWord(pe, e.myPE)
			if err != nil {
				return e.failed(err)
			}
			if err := signal.Apply(w, signal.Add, 1); err != nil {
				return e.failed(err)
			}
		}
		for i, pe := range peers {
			w, err := e.tr.SyncWord(e.myPE, pe)
			if err != nil {
				return e.failed(err)
			}
			want := expected[i]
			opts := waitOptions(func(time.Duration) {
				stall.Warn("PE %d: %s is stalled waiting for PE %d", e.myPE, name, pe)
			})
			_, err = signal.WaitFunc(ctx, w, func(cur int32) bool { return cur-want >= 0 }, opts)
			if err != nil {
				return err
			}
		}
		atomic.AddUint64(&e.stats.Barriers, 1)
		return nil
	})
	return err
}

// Stats returns a snapshot of the operation counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Puts:       atomic.LoadUint64(&e.stats.Puts),
		Gets:       atomic.LoadUint64(&e.stats.Gets),
		PutBytes:   atomic.LoadUint64(&e.stats.PutBytes),
		GetBytes:   atomic.LoadUint64(&e.stats.GetBytes),
		SignalOps:  atomic.LoadUint64(&e.stats.SignalOps),
		SignalWait: atomic.LoadUint64(&e.stats.SignalWait),
		Barriers:   atomic.LoadUint64(&e.stats.Barriers),
		Failures:   atomic.LoadUint64(&e.stats.Failures),
	}
}

// checkTransfer checks the remote and local sides of a transfer.
func (e *Engine) checkTransfer(remote, local heap.Buffer, pe int) error {
	if err := e.checkPE(pe); err != nil {
		return err
	}
	if err := e.heap.CheckBuffer(remote); err != nil {
		return err
	}
	if remote.Len() != local.Len() {
		return errors.Wrapf(ErrSizeMismatch, "%s vs. %s", remote, local)
	}
	return nil
}

func (e *Engine) checkPE(pe int) error {
	if pe < 0 || pe >= e.nPEs {
		return errors.Wrapf(heap.ErrInvalidAddress, "PE %d out of range [0, %d)", pe, e.nPEs)
	}
	return nil
}

func (e *Engine) checkSignal(sig heap.SignalWord, op signal.Op) error {
	if !op.Valid() {
		return errors.Wrapf(signal.ErrInvalidOp, "operation %d", op)
	}
	return e.heap.CheckSignal(sig)
}

// apply updates sig on pe and wakes up its waiters.
func (e *Engine) apply(sig heap.SignalWord, val int32, op signal.Op, pe int) error {
	w, err := e.tr.Word(pe, sig.Offset())
	if err != nil {
		return e.failed(err)
	}
	if err := signal.Apply(w, op, val); err != nil {
		return e.failed(err)
	}
	atomic.AddUint64(&e.stats.SignalOps, 1)
	return nil
}

func (e *Engine) enqueue(s stream.Stream, name string, op stream.Op) (*stream.Event, error) {
	if s == nil {
		s = e.def
	}
	if s == nil {
		return nil, errors.Wrapf(ErrInvalidStream, "no stream for %s", name)
	}
	return s.Enqueue(name, op)
}

func (e *Engine) failed(err error) error {
	atomic.AddUint64(&e.stats.Failures, 1)
	return err
}

func rmaError(format string, args ...interface{}) error {
	return fmt.Errorf("rma: "+format, args...)
}
