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

	"github.com/prometheus/client_golang/prometheus"

	"github.com/intel/symmetric-memory/pkg/heap"
	"github.com/intel/symmetric-memory/pkg/instrumentation"
	"github.com/intel/symmetric-memory/pkg/metrics"
	"github.com/intel/symmetric-memory/pkg/signal"
	"github.com/intel/symmetric-memory/pkg/stream"
	"github.com/intel/symmetric-memory/pkg/team"
	"github.com/intel/symmetric-memory/pkg/uid"
)

// std is the runtime of the process.
var std = New()

// Default returns the runtime of the process.
func Default() *Runtime {
	return std
}

// GetUniqueID creates the unique id of a new job with the default runtime.
func GetUniqueID() (uid.ID, error) {
	return std.GetUniqueID()
}

// Init initializes the default runtime.
func Init(ctx context.Context, rank, nranks int, memSize uint64, id uid.ID) error {
	return std.Init(ctx, rank, nranks, memSize, id)
}

// Finalize finalizes the default runtime.
func Finalize() error {
	return std.Finalize()
}

// InitStatus returns the state of the default runtime.
func InitStatus() State {
	return std.InitStatus()
}

// Version returns the major and minor version of the runtime API.
func Version() (int, int) {
	return std.Version()
}

// MyPE returns the rank of the calling PE.
func MyPE() (int, error) {
	return std.MyPE()
}

// NPEs returns the number of PEs in the job.
func NPEs() (int, error) {
	return std.NPEs()
}

// Malloc allocates symmetric memory with the default runtime.
func Malloc(size uint64) (heap.Buffer, error) {
	return std.Malloc(size)
}

// Calloc allocates zeroed symmetric memory with the default runtime.
func Calloc(n, size uint64) (heap.Buffer, error) {
	return std.Calloc(n, size)
}

// Free releases symmetric memory of the default runtime.
func Free(b heap.Buffer) error {
	return std.Free(b)
}

// MallocSignal allocates a signal word with the default runtime.
func MallocSignal() (heap.SignalWord, error) {
	return std.MallocSignal()
}

// FreeSignal releases a signal word of the default runtime.
func FreeSignal(w heap.SignalWord) error {
	return std.FreeSignal(w)
}

// Ptr returns a direct reference to the copy of b on PE pe.
func Ptr(b heap.Buffer, pe int) (heap.PeerRef, error) {
	return std.Ptr(b, pe)
}

// Put copies src into dst on PE pe and waits for the copy.
func Put(dst, src heap.Buffer, pe int, s stream.Stream) error {
	return std.Put(dst, src, pe, s)
}

// Get copies src on PE pe into dst and waits for the copy.
func Get(dst, src heap.Buffer, pe int, s stream.Stream) error {
	return std.Get(dst, src, pe, s)
}

// PutSignal copies src into dst on PE pe, then updates sig on pe.
func PutSignal(dst, src heap.Buffer, sig heap.SignalWord, val int32, op signal.Op, pe int, s stream.Stream) error {
	return std.PutSignal(dst, src, sig, val, op, pe, s)
}

// SignalOp updates sig on PE pe.
func SignalOp(sig heap.SignalWord, val int32, op signal.Op, pe int, s stream.Stream) error {
	return std.SignalOp(sig, val, op, pe, s)
}

// SignalWait blocks s until the local sig satisfies the comparison.
func SignalWait(sig heap.SignalWord, val int32, cmp signal.Cmp, s stream.Stream) error {
	return std.SignalWait(sig, val, cmp, s)
}

// Quiet waits until everything issued on s completed.
func Quiet(ctx context.Context, s stream.Stream) error {
	return std.Quiet(ctx, s)
}

// BarrierAll is a host barrier of all PEs.
func BarrierAll(ctx context.Context) error {
	return std.BarrierAll(ctx)
}

// TeamSplitStrided creates a strided team with the default runtime.
func TeamSplitStrided(parent team.Team, start, stride, size int) (team.Team, error) {
	return std.TeamSplitStrided(parent, start, stride, size)
}

// TeamSplit2D splits a team into a grid with the default runtime.
func TeamSplit2D(parent team.Team, xRange int) (team.Team, team.Team, error) {
	return std.TeamSplit2D(parent, xRange)
}

// TeamMyPE returns the rank of the calling PE in t, or -1.
func TeamMyPE(t team.Team) int {
	return std.TeamMyPE(t)
}

// TeamNPEs returns the number of PEs in t, or -1.
func TeamNPEs(t team.Team) int {
	return std.TeamNPEs(t)
}

// TeamTranslatePE translates a PE between teams, or returns -1.
func TeamTranslatePE(src team.Team, pe int, dst team.Team) int {
	return std.TeamTranslatePE(src, pe, dst)
}

// TeamDestroy releases t.
func TeamDestroy(t team.Team) {
	std.TeamDestroy(t)
}

func init() {
	err := metrics.RegisterCollector("shmem", func() (prometheus.Collector, error) {
		return std.Collector(), nil
	})
	if err != nil {
		log.Error("failed to register collector: %v", err)
	}
	instrumentation.GetHTTPMux().Handle(StatusPath, std)
}
