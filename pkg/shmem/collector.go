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
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus Metric descriptor indices and descriptor table
const (
	stateDesc = iota
	rmaOpsDesc
	rmaBytesDesc
	rmaFailuresDesc
	heapBytesDesc
	heapAllocationsDesc
	streamPendingDesc
	teamsDesc
	numDescriptors
)

var descriptors = [numDescriptors]*prometheus.Desc{
	stateDesc: prometheus.NewDesc(
		"shmem_state",
		"Initialization state of the runtime, 1 for the current state.",
		[]string{"state"}, nil,
	),
	rmaOpsDesc: prometheus.NewDesc(
		"shmem_rma_operations_total",
		"Number of RMA operations issued by the PE.",
		[]string{
			"pe",
			// put, get, signal, wait or barrier
			"operation",
		}, nil,
	),
	rmaBytesDesc: prometheus.NewDesc(
		"shmem_rma_bytes_total",
		"Number of bytes transferred by the PE.",
		[]string{
			"pe",
			// put or get
			"direction",
		}, nil,
	),
	rmaFailuresDesc: prometheus.NewDesc(
		"shmem_rma_failures_total",
		"Number of RMA operations that failed on their stream.",
		[]string{"pe"}, nil,
	),
	heapBytesDesc: prometheus.NewDesc(
		"shmem_heap_bytes",
		"Symmetric heap usage of the PE.",
		[]string{
			"pe",
			// size, inuse or largest_free
			"type",
		}, nil,
	),
	heapAllocationsDesc: prometheus.NewDesc(
		"shmem_heap_allocations",
		"Number of live symmetric allocations.",
		[]string{"pe"}, nil,
	),
	streamPendingDesc: prometheus.NewDesc(
		"shmem_stream_pending",
		"Number of unfinished operations on the default stream.",
		[]string{"pe"}, nil,
	),
	teamsDesc: prometheus.NewDesc(
		"shmem_teams",
		"Number of live teams, including the world team.",
		[]string{"pe"}, nil,
	),
}

type collector struct {
	r *Runtime
}

// Collector returns a prometheus collector for the runtime.
func (r *Runtime) Collector() prometheus.Collector {
	return &collector{r: r}
}

// Describe implements prometheus.Collector interface
func (c *collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range descriptors {
		ch <- d
	}
}

// Collect implements prometheus.Collector interface
func (c *collector) Collect(ch chan<- prometheus.Metric) {
	current := c.r.InitStatus()
	for state := Uninitialized; state <= Error; state++ {
		value := 0.0
		if state == current {
			value = 1.0
		}
		ch <- prometheus.MustNewConstMetric(descriptors[stateDesc],
			prometheus.GaugeValue, value, state.String())
	}

	j, err := c.r.active()
	if err != nil {
		return
	}

	pe := strconv.Itoa(j.myPE)
	stats := j.engine.Stats()
	for op, cnt := range map[string]uint64{
		"put":     stats.Puts,
		"get":     stats.Gets,
		"signal":  stats.SignalOps,
		"wait":    stats.SignalWait,
		"barrier": stats.Barriers,
	} {
		ch <- prometheus.MustNewConstMetric(descriptors[rmaOpsDesc],
			prometheus.CounterValue, float64(cnt), pe, op)
	}
	ch <- prometheus.MustNewConstMetric(descriptors[rmaBytesDesc],
		prometheus.CounterValue, float64(stats.PutBytes), pe, "put")
	ch <- prometheus.MustNewConstMetric(descriptors[rmaBytesDesc],
		prometheus.CounterValue, float64(stats.GetBytes), pe, "get")
	ch <- prometheus.MustNewConstMetric(descriptors[rmaFailuresDesc],
		prometheus.CounterValue, float64(stats.Failures), pe)

	hs := j.heap.Stats()
	ch <- prometheus.MustNewConstMetric(descriptors[heapBytesDesc],
		prometheus.GaugeValue, float64(hs.Size), pe, "size")
	ch <- prometheus.MustNewConstMetric(descriptors[heapBytesDesc],
		prometheus.GaugeValue, float64(hs.InUse), pe, "inuse")
	ch <- prometheus.MustNewConstMetric(descriptors[heapBytesDesc],
		prometheus.GaugeValue, float64(hs.LargestFree), pe, "largest_free")
	ch <- prometheus.MustNewConstMetric(descriptors[heapAllocationsDesc],
		prometheus.GaugeValue, float64(hs.Allocations), pe)

	ch <- prometheus.MustNewConstMetric(descriptors[streamPendingDesc],
		prometheus.GaugeValue, float64(j.stream.Pending()), pe)
	ch <- prometheus.MustNewConstMetric(descriptors[teamsDesc],
		prometheus.GaugeValue, float64(j.teams.Count()), pe)
}
