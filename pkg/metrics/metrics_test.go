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

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type testCollector struct {
	desc *prometheus.Desc
}

func newTestCollector() (prometheus.Collector, error) {
	return &testCollector{
		desc: prometheus.NewDesc("test_collector_value", "A test value.", nil, nil),
	}, nil
}

func (c *testCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

func (c *testCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, 42)
}

func TestRegisterCollector(t *testing.T) {
	require.NoError(t, RegisterCollector("test", newTestCollector))
	require.Error(t, RegisterCollector("test", newTestCollector), "duplicate registration")
	require.Error(t, RegisterCollector("nil", nil))
	require.Contains(t, Collectors(), "test")

	g, err := NewMetricGatherer()
	require.NoError(t, err)

	families, err := g.Gather()
	require.NoError(t, err)

	found := false
	for _, f := range families {
		if f.GetName() == "test_collector_value" {
			found = true
			require.Len(t, f.GetMetric(), 1)
			require.Equal(t, float64(42), f.GetMetric()[0].GetGauge().GetValue())
		}
	}
	require.True(t, found, "test collector gathered")

	// collectors are initialized once but can be gathered repeatedly
	g, err = NewMetricGatherer()
	require.NoError(t, err)
	_, err = g.Gather()
	require.NoError(t, err)
}
