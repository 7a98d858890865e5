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

package bootstrap

import (
	"net"
	"os"
	"sync"
	"time"

	"github.com/intel/symmetric-memory/pkg/config"
)

const (
	// DefaultTimeout is the default time limit for rendezvous operations.
	DefaultTimeout = 120 * time.Second
	// DefaultAddress is the default address PE 0 serves the rendezvous on.
	DefaultAddress = "127.0.0.1:0"

	envAddress = "SHMEM_BOOTSTRAP_ADDRESS"
	envTimeout = "SHMEM_BOOTSTRAP_TIMEOUT"
)

// options is the configuration of the rendezvous.
type options struct {
	// Address is the host:port to serve the rendezvous on.
	Address string `json:"address"`
	// Timeout limits the time spent in a single rendezvous operation.
	Timeout config.Duration `json:"timeout"`
}

var (
	optLock sync.RWMutex
	opt     = &options{}
)

// Address returns the configured rendezvous address.
func Address() string {
	optLock.RLock()
	defer optLock.RUnlock()
	return opt.Address
}

// Timeout returns the configured rendezvous timeout.
func Timeout() time.Duration {
	optLock.RLock()
	defer optLock.RUnlock()
	return opt.Timeout.Duration()
}

// SetTimeout overrides the configured rendezvous timeout.
func SetTimeout(timeout time.Duration) {
	optLock.Lock()
	defer optLock.Unlock()
	opt.Timeout = config.Duration(timeout)
}

func (o *options) Reset() {
	optLock.Lock()
	defer optLock.Unlock()

	o.Address = DefaultAddress
	o.Timeout = config.Duration(DefaultTimeout)

	if addr := os.Getenv(envAddress); addr != "" {
		o.Address = addr
	}
	if value := os.Getenv(envTimeout); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			o.Timeout = config.Duration(d)
		} else {
			log.Warn("ignoring invalid %s=%q: %v", envTimeout, value, err)
		}
	}
}

func (o *options) Validate() error {
	if _, _, err := net.SplitHostPort(o.Address); err != nil {
		return bootstrapError("invalid address %q: %v", o.Address, err)
	}
	if o.Timeout <= 0 {
		return bootstrapError("invalid timeout %s", o.Timeout)
	}
	return nil
}

func (o *options) Describe() string {
	return `PE rendezvous.
  address: host:port the first PE serves the rendezvous on
  timeout: time limit for joining the job and for host barriers`
}

func init() {
	if err := config.Register("bootstrap", opt); err != nil {
		log.Error("failed to register configuration: %v", err)
	}
}
