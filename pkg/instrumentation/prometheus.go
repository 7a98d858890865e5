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
	"fmt"
	"strings"
	"sync"
	"time"

	"contrib.go.opencensus.io/exporter/prometheus"
	pclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	model "github.com/prometheus/client_model/go"
	"go.opencensus.io/stats/view"

	"github.com/intel/symmetric-memory/pkg/instrumentation/http"
	"github.com/intel/symmetric-memory/pkg/metrics"
)

const (
	// PrometheusMetricsPath is the URL path for exposing metrics to Prometheus.
	PrometheusMetricsPath = "/metrics"
)

// dynamically registered prometheus gatherers
var dynamicGatherers = &gatherers{gatherers: pclient.Gatherers{}}

// metricsExporter exports our prometheus collectors and opencensus views.
type metricsExporter struct {
	exporter *prometheus.Exporter
	mux      *http.ServeMux
	period   time.Duration
}

// start creates the exporter and registers it for /metrics on the given mux.
func (m *metricsExporter) start(mux *http.ServeMux, period time.Duration, export bool) error {
	if !export {
		log.Info("Prometheus metrics export is disabled")
		return nil
	}

	log.Debug("creating Prometheus exporter...")

	registry := pclient.NewRegistry()
	exp, err := prometheus.NewExporter(prometheus.Options{
		Namespace: prometheusNamespace(ServiceName),
		Registry:  registry,
		OnError:   func(err error) { log.Error("prometheus export: %v", err) },
	})
	if err != nil {
		return instrumentationError("failed to create Prometheus exporter: %v", err)
	}

	collected, err := metrics.NewMetricGatherer()
	if err != nil {
		return instrumentationError("failed to create metrics gatherer: %v", err)
	}

	handler := promhttp.HandlerFor(
		pclient.Gatherers{registry, collected, dynamicGatherers},
		promhttp.HandlerOpts{ErrorLog: promLogger{}},
	)

	mux.Handle(PrometheusMetricsPath, handler)
	view.RegisterExporter(exp)
	if period > 0 {
		view.SetReportingPeriod(period)
	}

	*m = metricsExporter{exporter: exp, mux: mux, period: period}

	return nil
}

// stop unregisters the exporter.
func (m *metricsExporter) stop() {
	if m.exporter == nil {
		return
	}

	view.UnregisterExporter(m.exporter)
	m.mux.Unregister(PrometheusMetricsPath)
	*m = metricsExporter{}
}

// reconfigure restarts the exporter if its configuration changed.
func (m *metricsExporter) reconfigure(mux *http.ServeMux, period time.Duration, export bool) error {
	if m.exporter != nil && export && m.mux == mux {
		if period != m.period && period > 0 {
			view.SetReportingPeriod(period)
			m.period = period
		}
		return nil
	}
	m.stop()
	return m.start(mux, period, export)
}

// mutate service name into a valid Prometheus namespace name.
func prometheusNamespace(service string) string {
	return strings.ReplaceAll(strings.ToLower(service), "-", "_")
}

// gatherers is a trivial wrapper around prometheus Gatherers.
type gatherers struct {
	sync.RWMutex
	gatherers pclient.Gatherers
}

// Register registers a new gatherer.
func (g *gatherers) Register(gatherer pclient.Gatherer) {
	g.Lock()
	defer g.Unlock()
	g.gatherers = append(g.gatherers, gatherer)
}

// Gather implements the pclient.Gatherer interface.
func (g *gatherers) Gather() ([]*model.MetricFamily, error) {
	g.RLock()
	defer g.RUnlock()
	return g.gatherers.Gather()
}

// promLogger routes promhttp errors to our logger.
type promLogger struct{}

func (promLogger) Println(v ...interface{}) {
	log.Error("%s", strings.TrimSpace(fmt.Sprintln(v...)))
}
