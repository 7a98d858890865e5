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

package log

import (
	"fmt"
	"sync"
	"time"

	goxrate "golang.org/x/time/rate"
)

// Rate is the highest rate messages of one format are passed through.
type Rate struct {
	// Limit is the sustained rate.
	Limit goxrate.Limit
	// Burst is the number of messages passed at once.
	Burst int
	// Window is the number of formats tracked, 0 for DefaultWindow.
	Window int
}

const (
	// DefaultWindow is the number of formats tracked by default.
	DefaultWindow = 256
	// MinimumWindow is the least number of formats tracked.
	MinimumWindow = 32
)

// Every returns a Limit of one message per interval.
func Every(interval time.Duration) goxrate.Limit {
	return goxrate.Every(interval)
}

// Interval returns a Rate of one message per interval.
func Interval(interval time.Duration) Rate {
	return Rate{Limit: Every(interval), Burst: 1}
}

// ratelimited limits messages by format, so that messages which differ
// only in their arguments, like repeated stall reports of a wait, share a
// limit. The number of dropped messages is reported with the next one
// that passes.
type ratelimited struct {
	Logger
	sync.Mutex
	rate   Rate
	order  []string
	limits map[string]*limit
}

type limit struct {
	*goxrate.Limiter
	dropped int
}

// RateLimit returns a rate-limited version of the given logger.
func RateLimit(l Logger, rate Rate) Logger {
	if rate.Window == 0 {
		rate.Window = DefaultWindow
	} else if rate.Window < MinimumWindow {
		rate.Window = MinimumWindow
	}
	if rate.Burst < 1 {
		rate.Burst = 1
	}
	return &ratelimited{
		Logger: l,
		rate:   rate,
		order:  make([]string, 0, rate.Window),
		limits: map[string]*limit{},
	}
}

func (rl *ratelimited) Debug(format string, args ...interface{}) {
	if rl.Logger.DebugEnabled() {
		rl.emit(rl.Logger.Debug, format, args)
	}
}

func (rl *ratelimited) Info(format string, args ...interface{}) {
	rl.emit(rl.Logger.Info, format, args)
}

func (rl *ratelimited) Warn(format string, args ...interface{}) {
	rl.emit(rl.Logger.Warn, format, args)
}

func (rl *ratelimited) Error(format string, args ...interface{}) {
	rl.emit(rl.Logger.Error, format, args)
}

func (rl *ratelimited) emit(fn func(string, ...interface{}), format string, args []interface{}) {
	dropped, ok := rl.pass(format)
	if !ok {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if dropped > 0 {
		fn("%s (%d similar messages suppressed)", msg, dropped)
	} else {
		fn("%s", msg)
	}
}

// pass checks if a message of format can go through. If so, it returns
// the number of messages dropped since the last one passed.
func (rl *ratelimited) pass(format string) (int, bool) {
	rl.Lock()
	defer rl.Unlock()

	lim := rl.limitFor(format)
	if !lim.Allow() {
		lim.dropped++
		return 0, false
	}
	dropped := lim.dropped
	lim.dropped = 0
	return dropped, true
}

// limitFor returns the limit of format, forgetting the oldest format if
// the window is full. Called with the lock held.
func (rl *ratelimited) limitFor(format string) *limit {
	if lim, ok := rl.limits[format]; ok {
		return lim
	}
	if len(rl.order) == cap(rl.order) {
		delete(rl.limits, rl.order[0])
		rl.order = append(rl.order[:0], rl.order[1:]...)
	}
	rl.order = append(rl.order, format)
	lim := &limit{Limiter: goxrate.NewLimiter(rl.rate.Limit, rl.rate.Burst)}
	rl.limits[format] = lim
	return lim
}
