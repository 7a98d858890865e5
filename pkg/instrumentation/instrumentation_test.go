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

package instrumentation

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/intel/symmetric-memory/pkg/config"
)

func TestSamplingIdempotency(t *testing.T) {
	tcases := []Sampling{
		Disabled,
		Testing,
		Production,
		0.2, 0.25, 0.5, 0.75, 0.8,
	}
	for _, tc := range tcases {
		var chk Sampling
		if err := chk.Parse(tc.String()); err != nil {
			t.Errorf("failed to parse Sampling.String() %q: %v", tc, err)
		}
		if chk != tc {
			t.Errorf("expected sampling value for %q: %v, got: %v", tc, tc, chk)
		}
	}
}

func TestValidate(t *testing.T) {
	o := &options{}
	o.Reset()
	require.NoError(t, o.Validate())

	o.Sampling = 2
	require.Error(t, o.Validate())
}

func getMetrics(t *testing.T, address string) (int, string) {
	rpl, err := http.Get("http://" + address + PrometheusMetricsPath)
	require.NoError(t, err)
	defer rpl.Body.Close()

	body, err := io.ReadAll(rpl.Body)
	require.NoError(t, err)

	return rpl.StatusCode, string(body)
}

func TestPrometheusExport(t *testing.T) {
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "instrumentation_test_total",
		Help: "A test counter.",
	})
	counter.Add(3)
	reg := prometheus.NewRegistry()
	reg.MustRegister(counter)
	RegisterGatherer(reg)

	require.NoError(t, config.SetYAML([]byte(`
instrumentation:
  httpEndpoint: 127.0.0.1:0
  prometheusExport: true
`)))
	defer config.Reset()

	require.NoError(t, Start())
	defer Stop()

	address := GetHTTPAddress()
	require.NotEmpty(t, address)
	opt.HTTPEndpoint = address

	status, body := getMetrics(t, address)
	require.Equal(t, http.StatusOK, status)
	require.True(t, strings.Contains(body, "instrumentation_test_total 3"), "metrics:\n%s", body)

	// disabling the export removes /metrics but keeps the server
	opt.PrometheusExport = false
	require.NoError(t, svc.reconfigure())
	status, _ = getMetrics(t, address)
	require.Equal(t, http.StatusNotFound, status)

	opt.PrometheusExport = true
	require.NoError(t, svc.reconfigure())
	status, _ = getMetrics(t, address)
	require.Equal(t, http.StatusOK, status)
}
