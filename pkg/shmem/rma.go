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
	"context"

	"github.com/intel/symmetric-memory/pkg/heap"
	"github.com/intel/symmetric-memory/pkg/signal"
	"github.com/intel/symmetric-memory/pkg/stream"
	"github.com/intel/symmetric-memory/pkg/team"
)

// Put copies src into dst on PE pe, ordered on s, and waits for the copy.
// A nil stream stands for the default stream.
func (r *Runtime) Put(dst, src heap.Buffer, pe int, s stream.Stream) error {
	j, err := r.active()
	if err != nil {
		return err
	}
	return j.engine.Put(dst, src, pe, s)
}

// PutNBI enqueues a put on s and returns without waiting for it.
func (r *Runtime) PutNBI(dst, src heap.Buffer, pe int, s stream.Stream) (*stream.Event, error) {
	j, err := r.active()
	if err != nil {
		return nil, err
	}
	return j.engine.PutNBI(dst, src, pe, s)
}

// Get copies src on PE pe into dst, ordered on s, and waits for the copy.
func (r *Runtime) Get(dst, src heap.Buffer, pe int, s stream.Stream) error {
	j, err := r.active()
	if err != nil {
		return err
	}
	return j.engine.Get(dst, src, pe, s)
}

// GetNBI enqueues a get on s and returns without waiting for it.
func (r *Runtime) GetNBI(dst, src heap.Buffer, pe int, s stream.Stream) (*stream.Event, error) {
	j, err := r.active()
	if err != nil {
		return nil, err
	}
	return j.engine.GetNBI(dst, src, pe, s)
}

// PutSignal copies src into dst on PE pe, then updates sig on pe.
func (r *Runtime) PutSignal(dst, src heap.Buffer, sig heap.SignalWord, val int32, op signal.Op, pe int, s stream.Stream) error {
	j, err := r.active()
	if err != nil {
		return err
	}
	return j.engine.PutSignal(dst, src, sig, val, op, pe, s)
}

// PutSignalNBI is the non-blocking variant of PutSignal.
func (r *Runtime) PutSignalNBI(dst, src heap.Buffer, sig heap.SignalWord, val int32, op signal.Op, pe int, s stream.Stream) (*stream.Event, error) {
	j, err := r.active()
	if err != nil {
		return nil, err
	}
	return j.engine.PutSignalNBI(dst, src, sig, val, op, pe, s)
}

// SignalOp updates sig on PE pe, ordered on s.
func (r *Runtime) SignalOp(sig heap.SignalWord, val int32, op signal.Op, pe int, s stream.Stream) error {
	j, err := r.active()
	if err != nil {
		return err
	}
	return j.engine.SignalOp(sig, val, op, pe, s)
}

// SignalWait blocks s until the local sig compares to val as cmp says.
// The calling goroutine is not blocked.
func (r *Runtime) SignalWait(sig heap.SignalWord, val int32, cmp signal.Cmp, s stream.Stream) error {
	j, err := r.active()
	if err != nil {
		return err
	}
	return j.engine.SignalWait(sig, val, cmp, s)
}

// SignalFetch returns the current value of the local sig.
func (r *Runtime) SignalFetch(sig heap.SignalWord) (int32, error) {
	j, err := r.active()
	if err != nil {
		return 0, err
	}
	return j.engine.Fetch(sig)
}

// Quiet waits until everything issued on s completed.
func (r *Runtime) Quiet(ctx context.Context, s stream.Stream) error {
	j, err := r.active()
	if err != nil {
		return err
	}
	return j.engine.Quiet(ctx, s)
}

// BarrierOnStream enqueues a barrier of the PEs of t on s.
func (r *Runtime) BarrierOnStream(t team.Team, s stream.Stream) error {
	j, err := r.active()
	if err != nil {
		return err
	}
	return j.engine.BarrierOnStream(t, s)
}

// BarrierAllOnStream enqueues a barrier of all PEs on s.
func (r *Runtime) BarrierAllOnStream(s stream.Stream) error {
	return r.BarrierOnStream(team.World, s)
}
