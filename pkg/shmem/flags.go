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
	"os"
	"sync"

	"github.com/intel/symmetric-memory/pkg/config"
	"github.com/intel/symmetric-memory/pkg/heap"
	"github.com/intel/symmetric-memory/pkg/transport"
	"github.com/intel/symmetric-memory/pkg/transport/shm"
)

const (
	// environment variables overriding the defaults.
	envSegmentDir = "SHMEM_SEGMENT_DIR"
	envTransport  = "SHMEM_TRANSPORT"
)

// options is our configuration fragment.
type options struct {
	// SegmentDir is the directory of the heap segments.
	SegmentDir string `json:"segmentDir,omitempty"`
	// Transport is the name of the transport connecting the PEs.
	Transport string `json:"transport,omitempty"`
}

var (
	optLock sync.RWMutex
	opt     = &options{}
)

func (o *options) Reset() {
	optLock.Lock()
	defer optLock.Unlock()

	*o = options{
		SegmentDir: os.Getenv(envSegmentDir),
		Transport:  shm.TransportName,
	}
	if name, ok := os.LookupEnv(envTransport); ok {
		o.Transport = name
	}
}

func (o *options) Validate() error {
	if o.Transport == "" {
		return shmemError("no transport configured")
	}
	for _, name := range transport.Available() {
		if name == o.Transport {
			return nil
		}
	}
	return shmemError("unknown transport %q, available: %v", o.Transport, transport.Available())
}

func (o *options) Describe() string {
	return `Symmetric memory runtime.
  segmentDir: directory for heap segments, /dev/shm if empty and available
  transport: transport connecting the PEs, shm by default`
}

// configured returns a snapshot of the configuration.
func configured() options {
	optLock.RLock()
	defer optLock.RUnlock()
	return *opt
}

// SegmentDir returns the configured directory of the heap segments.
func SegmentDir() string {
	return heap.SegmentDir(configured().SegmentDir)
}

func init() {
	if err := config.Register("shmem", opt); err != nil {
		log.Error("failed to register configuration: %v", err)
	}
}
