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
	"sync"

	"github.com/intel/symmetric-memory/pkg/instrumentation/http"
)

// service runs the HTTP endpoint and the trace and metrics exporters of a PE.
type service struct {
	sync.RWMutex
	http    *http.Server
	tracing *tracing
	metrics *metricsExporter
	pe      int
	running bool
}

// newService creates an instance of our instrumentation services.
func newService() *service {
	return &service{
		http:    http.NewServer(),
		tracing: &tracing{},
		metrics: &metricsExporter{},
	}
}

// Start starts instrumentation services.
func (s *service) Start() error {
	s.Lock()
	defer s.Unlock()

	if s.running {
		return nil
	}
	log.Info("starting instrumentation of PE %d", s.pe)

	addr, err := http.PEAddress(opt.HTTPEndpoint, s.pe)
	if err != nil {
		return instrumentationError("PE %d: %v", s.pe, err)
	}
	if err := s.http.Start(addr); err != nil {
		return instrumentationError("failed to start HTTP server: %v", err)
	}
	if err := s.tracing.start(s.traceTarget()); err != nil {
		s.http.Stop()
		return instrumentationError("failed to start tracing: %v", err)
	}
	err = s.metrics.start(s.http.GetMux(), opt.ReportPeriod.Duration(), opt.PrometheusExport)
	if err != nil {
		s.tracing.stop()
		s.http.Stop()
		return instrumentationError("failed to start metrics: %v", err)
	}
	if err := registerGrpcViews(); err != nil {
		s.metrics.stop()
		s.tracing.stop()
		s.http.Stop()
		return err
	}

	s.running = true

	return nil
}

// Stop stops instrumentation services.
func (s *service) Stop() {
	s.Lock()
	defer s.Unlock()

	if !s.running {
		return
	}

	unregisterGrpcViews()
	s.metrics.stop()
	s.tracing.stop()
	s.http.Stop()
	s.running = false
}

// reconfigure reconfigures running instrumentation services.
func (s *service) reconfigure() error {
	s.Lock()
	defer s.Unlock()

	if !s.running {
		return nil
	}

	addr, err := http.PEAddress(opt.HTTPEndpoint, s.pe)
	if err != nil {
		return instrumentationError("PE %d: %v", s.pe, err)
	}
	if err := s.http.Reconfigure(addr); err != nil {
		return instrumentationError("failed to reconfigure HTTP server: %v", err)
	}
	err = s.tracing.reconfigure(s.traceTarget())
	if err != nil {
		return instrumentationError("failed to reconfigure tracing: %v", err)
	}
	err = s.metrics.reconfigure(s.http.GetMux(), opt.ReportPeriod.Duration(), opt.PrometheusExport)
	if err != nil {
		return instrumentationError("failed to reconfigure metrics: %v", err)
	}
	return nil
}

func (s *service) traceTarget() traceTarget {
	return traceTarget{
		agent:     opt.JaegerAgent,
		collector: opt.JaegerCollector,
		sampling:  opt.Sampling,
		pe:        s.pe,
	}
}

// setPE sets the rank used to pick the HTTP port of this process.
func (s *service) setPE(pe int) {
	s.Lock()
	defer s.Unlock()
	s.pe = pe
}

// Restart restarts instrumentation services.
func (s *service) Restart() error {
	s.Stop()
	return s.Start()
}

// TracingEnabled returns true if the Jaeger tracing sampler is not disabled.
func (s *service) TracingEnabled() bool {
	s.RLock()
	defer s.RUnlock()

	return float64(opt.Sampling) > 0.0 && s.tracing.exporter != nil
}
