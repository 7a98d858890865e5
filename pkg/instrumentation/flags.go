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
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"

	"go.opencensus.io/trace"

	"github.com/intel/symmetric-memory/pkg/config"
	"github.com/intel/symmetric-memory/pkg/utils"
)

// Sampling defines how often trace samples are taken.
type Sampling float64

const (
	// Disabled is the trace configuration for disabling tracing.
	Disabled Sampling = 0.0
	// Production is a trace configuration for production use.
	Production Sampling = 0.1
	// Testing is a trace configuration for testing.
	Testing Sampling = 1.0

	defaultSampling         = "0"
	defaultReportPeriod     = "15s"
	defaultJaegerCollector  = ""
	defaultJaegerAgent      = ""
	defaultHTTPEndpoint     = ""
	defaultPrometheusExport = "false"
)

// options encapsulates our configurable instrumentation parameters.
type options struct {
	// Sampling is the sampling frequency for traces.
	Sampling Sampling `json:"sampling"`
	// ReportPeriod is the OpenCensus view reporting period.
	ReportPeriod config.Duration `json:"reportPeriod"`
	// JaegerCollector is the URL to the Jaeger HTTP Thrift collector.
	JaegerCollector string `json:"jaegerCollector,omitempty"`
	// JaegerAgent, if set, defines the address of a Jaeger agent to send spans to.
	JaegerAgent string `json:"jaegerAgent,omitempty"`
	// HTTPEndpoint is our HTTP endpoint, used among others to export Prometheus /metrics.
	HTTPEndpoint string `json:"httpEndpoint,omitempty"`
	// PrometheusExport defines whether we export /metrics to/for Prometheus.
	PrometheusExport bool `json:"prometheusExport"`
}

// Our instrumentation options.
var opt = &options{}

// MarshalJSON is the JSON marshaller for Sampling values.
func (s Sampling) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON is the JSON unmarshaller for Sampling values.
func (s *Sampling) UnmarshalJSON(raw []byte) error {
	var obj interface{}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return instrumentationError("failed to unmarshal Sampling value: %v", err)
	}
	switch v := obj.(type) {
	case string:
		return s.Parse(v)
	case float64:
		*s = Sampling(v)
	default:
		return instrumentationError("invalid Sampling value of type %T: %v", obj, obj)
	}
	return nil
}

// Parse parses the given string to a Sampling value.
func (s *Sampling) Parse(value string) error {
	switch strings.ToLower(value) {
	case "disabled":
		*s = Disabled
	case "testing":
		*s = Testing
	case "production":
		*s = Production
	default:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return instrumentationError("invalid Sampling value '%s': %v", value, err)
		}
		*s = Sampling(f)
	}
	return nil
}

// String returns the Sampling value as a string.
func (s Sampling) String() string {
	switch s {
	case Disabled:
		return "disabled"
	case Production:
		return "production"
	case Testing:
		return "testing"
	}
	return strconv.FormatFloat(float64(s), 'f', -1, 64)
}

// Sampler returns a trace.Sampler corresponding to the Sampling value.
func (s Sampling) Sampler() trace.Sampler {
	if s == Disabled {
		return trace.NeverSample()
	}
	return trace.ProbabilitySampler(float64(s))
}

// parseEnv parses the environment for default values.
func parseEnv(name, defval string, parsefn func(string) error) {
	if envval := os.Getenv(name); envval != "" {
		err := parsefn(envval)
		if err == nil {
			return
		}
		log.Error("invalid environment %s=%q: %v, using default %q", name, envval, err, defval)
	}
	if err := parsefn(defval); err != nil {
		log.Error("invalid default %s=%q: %v", name, defval, err)
	}
}

// Reset resets the options to the defaults given in the environment.
func (o *options) Reset() {
	*o = options{}

	params := map[string]struct {
		defval  string
		parsefn func(string) error
	}{
		"SHMEM_JAEGER_COLLECTOR": {
			defaultJaegerCollector,
			func(v string) error { o.JaegerCollector = v; return nil },
		},
		"SHMEM_JAEGER_AGENT": {
			defaultJaegerAgent,
			func(v string) error { o.JaegerAgent = v; return nil },
		},
		"SHMEM_HTTP_ENDPOINT": {
			defaultHTTPEndpoint,
			func(v string) error { o.HTTPEndpoint = v; return nil },
		},
		"SHMEM_PROMETHEUS_EXPORT": {
			defaultPrometheusExport,
			func(v string) error {
				enabled, err := utils.ParseEnabled(v)
				if err != nil {
					return err
				}
				o.PrometheusExport = enabled
				return nil
			},
		},
		"SHMEM_SAMPLING_FREQUENCY": {
			defaultSampling,
			func(v string) error { return o.Sampling.Parse(v) },
		},
		"SHMEM_REPORT_PERIOD": {
			defaultReportPeriod,
			func(v string) error {
				d, err := time.ParseDuration(v)
				if err != nil {
					return err
				}
				o.ReportPeriod = config.Duration(d)
				return nil
			},
		},
	}

	for envvar, p := range params {
		parseEnv(envvar, p.defval, p.parsefn)
	}
}

// Validate checks the options.
func (o *options) Validate() error {
	if o.Sampling < 0 || o.Sampling > 1 {
		return instrumentationError("sampling %v out of range [0, 1]", o.Sampling)
	}
	if o.ReportPeriod < 0 {
		return instrumentationError("negative report period %s", o.ReportPeriod)
	}
	return nil
}

// Configured reconfigures running services.
func (o *options) Configured() error {
	log.Info("instrumentation configuration is now %+v", *o)
	if err := svc.reconfigure(); err != nil {
		log.Error("failed to reconfigure instrumentation: %v", err)
		return err
	}
	return nil
}

// Describe returns help about the instrumentation configuration.
func (o *options) Describe() string {
	return `Instrumentation for traces and metrics.
  sampling: trace sampling frequency (disabled, production, testing, or 0.0-1.0)
  reportPeriod: opencensus view reporting period
  jaegerCollector: Jaeger HTTP collector URL
  jaegerAgent: Jaeger agent address
  httpEndpoint: HTTP endpoint to serve /metrics on, for instance ":8891"
  prometheusExport: whether to export /metrics`
}

func init() {
	if err := config.Register("instrumentation", opt); err != nil {
		log.Error("failed to register configuration: %v", err)
	}
}
