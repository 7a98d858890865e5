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
	"contrib.go.opencensus.io/exporter/jaeger"
	"go.opencensus.io/trace"
)

// traceTarget is where and how often spans are exported.
type traceTarget struct {
	agent     string
	collector string
	sampling  Sampling
	pe        int
}

func (t traceTarget) enabled() bool {
	return t.agent != "" || t.collector != ""
}

// tracing exports the spans of a PE to jaeger, tagged with its rank.
type tracing struct {
	exporter *jaeger.Exporter
	target   traceTarget
}

func (t *tracing) start(target traceTarget) error {
	if !target.enabled() {
		log.Info("jaeger tracing disabled")
		return nil
	}

	exp, err := jaeger.NewExporter(jaeger.Options{
		ServiceName:       ServiceName,
		CollectorEndpoint: target.collector,
		AgentEndpoint:     target.agent,
		Process: jaeger.Process{
			ServiceName: ServiceName,
			Tags:        []jaeger.Tag{jaeger.Int64Tag("pe", int64(target.pe))},
		},
		OnError: func(err error) { log.Error("jaeger export of PE %d: %v", target.pe, err) },
	})
	if err != nil {
		return instrumentationError("failed to create jaeger exporter: %v", err)
	}

	t.exporter, t.target = exp, target
	trace.RegisterExporter(exp)
	trace.ApplyConfig(trace.Config{DefaultSampler: target.sampling.Sampler()})
	log.Info("exporting traces of PE %d to jaeger (agent %q, collector %q)",
		target.pe, target.agent, target.collector)

	return nil
}

func (t *tracing) stop() {
	if t.exporter == nil {
		return
	}
	t.exporter.Flush()
	trace.UnregisterExporter(t.exporter)
	log.Info("stopped jaeger tracing")
	*t = tracing{}
}

// reconfigure switches to target. Only a sampling change keeps the exporter.
func (t *tracing) reconfigure(target traceTarget) error {
	if t.exporter != nil {
		cur := t.target
		cur.sampling = target.sampling
		if cur == target {
			t.target = target
			trace.ApplyConfig(trace.Config{DefaultSampler: target.sampling.Sampler()})
			return nil
		}
	}
	t.stop()
	return t.start(target)
}
