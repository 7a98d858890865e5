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
	"os"
	"os/signal"
)

var toggle chan os.Signal

// SetupDebugToggleSignal flips debugging on sig. With no sources given the
// signal forces debugging on for every source, otherwise only the named
// sources are flipped.
func SetupDebugToggleSignal(sig os.Signal, sources ...string) {
	log.Lock()
	defer log.Unlock()

	stopToggle()

	toggle = make(chan os.Signal, 1)
	signal.Notify(toggle, sig)

	go func(ch <-chan os.Signal) {
		for range ch {
			flipDebug(sources)
		}
	}(toggle)
}

// ClearDebugToggleSignal stops debug toggling by signal.
func ClearDebugToggleSignal() {
	log.Lock()
	defer log.Unlock()
	stopToggle()
}

func flipDebug(sources []string) {
	if len(sources) == 0 {
		log.Lock()
		log.forced = !log.forced
		state := log.forced
		log.Unlock()
		defaultLogger().Warn("debugging forced for all sources: %v", state)
		return
	}

	log.Lock()
	debug := log.debug.clone()
	state := !debug.isEnabled(sources[0], false)
	for _, src := range sources {
		debug[src] = state
	}
	log.update(nil, debug)
	log.Unlock()
	defaultLogger().Warn("debugging for %v: %v", sources, state)
}

func stopToggle() {
	if toggle != nil {
		signal.Stop(toggle)
		close(toggle)
		toggle = nil
	}
}
