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

package rma

import (
	"sync"
	"time"

	"github.com/intel/symmetric-memory/pkg/config"
	"github.com/intel/symmetric-memory/pkg/signal"
)

const (
	// DefaultStallWarning is the default time after which stalled waits are reported.
	DefaultStallWarning = 10 * time.Second
)

// options tune how streams wait for signal words.
type options struct {
	// PollInterval bounds a single sleep of a waiting stream.
	PollInterval config.Duration `json:"pollInterval"`
	// Spin is the number of busy checks before a waiting stream sleeps.
	Spin int `json:"spin"`
	// StallWarning is the time after which a stalled wait is reported.
	StallWarning config.Duration `json:"stallWarning"`
}

var (
	optLock sync.RWMutex
	opt     = &options{}
)

func (o *options) Reset() {
	optLock.Lock()
	defer optLock.Unlock()

	*o = options{
		PollInterval: config.Duration(signal.DefaultPollInterval),
		Spin:         signal.DefaultSpin,
		StallWarning: config.Duration(DefaultStallWarning),
	}
}

func (o *options) Validate() error {
	if o.PollInterval <= 0 {
		return rmaError("invalid poll interval %s", o.PollInterval)
	}
	if o.Spin < 0 {
		return rmaError("invalid spin count %d", o.Spin)
	}
	if o.StallWarning < 0 {
		return rmaError("invalid stall warning period %s", o.StallWarning)
	}
	return nil
}

func (o *options) Describe() string {
	return `Waiting for signals on streams.
  pollInterval: longest single sleep of a waiting stream
  spin: number of busy checks before sleeping
  stallWarning: period of warnings about stalled waits, 0 to disable`
}

// waitOptions returns the signal wait options for the current configuration.
func waitOptions(onStall func(time.Duration)) signal.WaitOptions {
	optLock.RLock()
	defer optLock.RUnlock()

	return signal.WaitOptions{
		PollInterval: opt.PollInterval.Duration(),
		Spin:         opt.Spin,
		StallAfter:   opt.StallWarning.Duration(),
		OnStall:      onStall,
	}
}

func init() {
	if err := config.Register("rma", opt); err != nil {
		log.Error("failed to register configuration: %v", err)
	}
}
