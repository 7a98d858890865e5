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
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/intel/symmetric-memory/pkg/metrics"
)

func TestCollectorUninitialized(t *testing.T) {
	r := New(WithSegmentDir(t.TempDir()))

	expected := `
# HELP shmem_state Initialization state of the runtime, 1 for the current state.
# TYPE shmem_state gauge
shmem_state{state="error"} 0
shmem_state{state="initialized"} 0
shmem_state{state="initializing"} 0
shmem_state{state="uninitialized"} 1
`
	require.NoError(t, testutil.CollectAndCompare(r.Collector(), strings.NewReader(expected), "shmem_state"))
	require.Equal(t, 0, testutil.CollectAndCount(r.Collector(), "shmem_rma_operations_total"))
}

func TestCollectorInitialized(t *testing.T) {
	r := New(WithSegmentDir(t.TempDir()))
	id, err := r.GetUniqueID()
	require.NoError(t, err)
	require.NoError(t, r.Init(context.Background(), 0, 1, testHeapSize, id))
	defer r.Finalize()

	buf, err := r.Malloc(256)
	require.NoError(t, err)
	require.NoError(t, r.Put(buf, buf, 0, nil))

	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(r.Collector()))

	families, err := reg.Gather()
	require.NoError(t, err)

	values := map[string]float64{}
	for _, f := range families {
		for _, m := range f.GetMetric() {
			key := f.GetName()
			for _, l := range m.GetLabel() {
				key += "," + l.GetName() + "=" + l.GetValue()
			}
			switch {
			case m.GetCounter() != nil:
				values[key] = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				values[key] = m.GetGauge().GetValue()
			}
		}
	}

	for key, expected := range map[string]float64{
		"shmem_state,state=initialized":                 1,
		"shmem_rma_operations_total,operation=put,pe=0": 1,
		"shmem_rma_operations_total,operation=get,pe=0": 0,
		"shmem_rma_bytes_total,direction=put,pe=0":      256,
		"shmem_heap_bytes,pe=0,type=size":               testHeapSize,
		"shmem_heap_bytes,pe=0,type=inuse":              256,
		"shmem_heap_allocations,pe=0":                   1,
		"shmem_teams,pe=0":                              1,
		"shmem_stream_pending,pe=0":                     0,
		"shmem_rma_failures_total,pe=0":                 0,
	} {
		if values[key] != expected {
			t.Errorf("%s: expected %v, got %v", key, expected, values[key])
		}
	}
}

func TestCollectorRegistered(t *testing.T) {
	require.Contains(t, metrics.Collectors(), "shmem")
}
