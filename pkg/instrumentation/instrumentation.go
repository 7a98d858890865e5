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

// Package instrumentation serves runtime metrics over HTTP and exports
// opencensus views and traces of the bootstrap gRPC traffic.
package instrumentation

import (
	"fmt"

	pclient "github.com/prometheus/client_golang/prometheus"

	"github.com/intel/symmetric-memory/pkg/instrumentation/http"
	logger "github.com/intel/symmetric-memory/pkg/log"
)

const (
	// ServiceName is our service name in external tracing and metrics services.
	ServiceName = "shmem"
)

// Our logger instance.
var log = logger.NewLogger("instrumentation")

// Our instrumentation service instance.
var svc = newService()

// GetHTTPMux returns our HTTP request multiplexer for external handlers.
func GetHTTPMux() *http.ServeMux {
	return svc.http.GetMux()
}

// GetHTTPAddress returns the address our HTTP server is bound to.
func GetHTTPAddress() string {
	return svc.http.GetAddress()
}

// TracingEnabled returns true if the Jaeger tracing sampler is not disabled.
func TracingEnabled() bool {
	return svc.TracingEnabled()
}

// SetPE sets the rank of this process. The HTTP endpoint of a PE listens
// on the configured port shifted by its rank.
func SetPE(pe int) {
	svc.setPE(pe)
}

// Start our internal instrumentation services.
func Start() error {
	return svc.Start()
}

// Stop stops our internal instrumentation services.
func Stop() {
	svc.Stop()
}

// Restart restarts our internal instrumentation services.
func Restart() error {
	return svc.Restart()
}

// RegisterGatherer registers an extra prometheus Gatherer for /metrics.
func RegisterGatherer(g pclient.Gatherer) {
	dynamicGatherers.Register(g)
}

// instrumentationError produces a formatted instrumentation-specific error.
func instrumentationError(format string, args ...interface{}) error {
	return fmt.Errorf("instrumentation: "+format, args...)
}
