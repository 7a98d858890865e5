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

package signal

import (
	"context"
	"time"
)

const (
	// DefaultPollInterval is the default upper bound for a single sleep of a waiter.
	DefaultPollInterval = time.Millisecond
	// DefaultSpin is the default number of busy checks before sleeping.
	DefaultSpin = 64
)

// WaitOptions tune how Wait blocks.
type WaitOptions struct {
	// PollInterval bounds a single sleep between checks.
	PollInterval time.Duration
	// Spin is the number of busy checks before starting to sleep.
	Spin int
	// StallAfter, if non-zero, is the time after which OnStall is called
	// periodically while the wait is still unsatisfied.
	StallAfter time.Duration
	// OnStall is called with the time spent waiting so far.
	OnStall func(time.Duration)
}

// Wait blocks until cmp holds between the word at addr and val, or ctx is done.
// It returns the satisfying value of the word.
func Wait(ctx context.Context, addr *int32, cmp Cmp, val int32, opts WaitOptions) (int32, error) {
	if !cmp.Valid() {
		return 0, ErrInvalidCmp
	}
	return WaitFunc(ctx, addr, func(cur int32) bool { return cmp.Eval(cur, val) }, opts)
}

// WaitFunc blocks until ready holds for the word at addr, or ctx is done.
func WaitFunc(ctx context.Context, addr *int32, ready func(int32) bool, opts WaitOptions) (int32, error) {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Spin < 0 {
		opts.Spin = 0
	}

	for i := 0; i < opts.Spin; i++ {
		if cur := Load(addr); ready(cur) {
			return cur, nil
		}
	}

	start := time.Now()
	nextStall := opts.StallAfter
	for {
		cur := Load(addr)
		if ready(cur) {
			return cur, nil
		}
		if err := ctx.Err(); err != nil {
			return cur, err
		}
		if opts.OnStall != nil && nextStall > 0 {
			if elapsed := time.Since(start); elapsed >= nextStall {
				opts.OnStall(elapsed)
				nextStall += opts.StallAfter
			}
		}
		sleep(addr, cur, opts.PollInterval)
	}
}
