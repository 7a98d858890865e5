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
	"strings"
	"sync"
)

// logging is the runtime state shared by all loggers.
type logging struct {
	sync.RWMutex
	level    Level                // lowest severity passed through
	active   Backend              // active backend
	backends map[string]BackendFn // registered backends
	loggers  map[string]*logger   // loggers by source
	enabled  srcmap               // sources enabled for logging
	debug    srcmap               // sources enabled for debugging
	forced   bool                 // forced debugging for all sources
	align    int                  // longest enabled source name
}

var log = &logging{
	level:    DefaultLevel,
	active:   createFmtBackend(),
	backends: map[string]BackendFn{FmtBackendName: createFmtBackend},
	loggers:  map[string]*logger{},
	enabled:  srcmap{"*": true},
	debug:    srcmap{},
}

// Get returns the logger for the given source, creating it if necessary.
func Get(source string) Logger {
	return log.get(source)
}

// NewLogger is an alias for Get.
func NewLogger(source string) Logger {
	return log.get(source)
}

func (l *logging) get(source string) *logger {
	source = strings.Trim(source, "[] ")

	l.Lock()
	defer l.Unlock()

	if lg, ok := l.loggers[source]; ok {
		return lg
	}

	lg := &logger{source: source}
	l.loggers[source] = lg
	l.configure(lg)
	l.realign()

	return lg
}

// configure updates the enabled/debug state of a logger from the source maps.
func (l *logging) configure(lg *logger) {
	lg.enabled = l.enabled.isEnabled(lg.source, true)
	lg.debug = l.debug.isEnabled(lg.source, false)
}

// realign recalculates source alignment for the active backend.
func (l *logging) realign() {
	align := 0
	for _, lg := range l.loggers {
		if (lg.enabled || lg.debug) && len(lg.source) > align {
			align = len(lg.source)
		}
	}
	l.align = align
	if l.active != nil {
		l.active.SetSourceAlignment(align)
	}
}

// update reconfigures all loggers using the given source maps.
func (l *logging) update(enabled, debug srcmap) {
	if enabled != nil {
		l.enabled = enabled.clone()
	}
	if debug != nil {
		l.debug = debug.clone()
	}
	for _, lg := range l.loggers {
		l.configure(lg)
	}
	l.realign()
}

func (l *logging) setBackend(name string) error {
	if l.active != nil && l.active.Name() == name {
		return nil
	}

	fn, ok := l.backends[name]
	if !ok {
		return loggerError("unknown logger backend %q", name)
	}

	if l.active != nil {
		l.active.Stop()
	}
	l.active = fn()
	l.active.SetSourceAlignment(l.align)

	return nil
}

// SetLevel sets the lowest severity level passed through.
func SetLevel(level Level) {
	log.Lock()
	defer log.Unlock()
	log.level = level
}

// SetBackend activates the named logger backend.
func SetBackend(name string) error {
	log.Lock()
	defer log.Unlock()
	return log.setBackend(name)
}

// EnableLogging sets the logging state of the given sources.
func EnableLogging(state bool, sources ...string) {
	log.Lock()
	defer log.Unlock()

	m := log.enabled.clone()
	for _, src := range sources {
		m[src] = state
	}
	log.update(m, nil)
}

// EnableDebug sets the debugging state of the given sources.
func EnableDebug(state bool, sources ...string) {
	log.Lock()
	defer log.Unlock()

	m := log.debug.clone()
	for _, src := range sources {
		m[src] = state
	}
	log.update(nil, m)
}

// Flush flushes the active backend.
func Flush() {
	log.RLock()
	active := log.active
	log.RUnlock()
	if active != nil {
		active.Flush()
	}
}
