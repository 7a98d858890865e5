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
	"os"
)

// Level describes the severity of log messages.
type Level int

const (
	// LevelDebug is the severity for debug messages.
	LevelDebug Level = iota
	// LevelInfo is the severity for informational messages.
	LevelInfo
	// LevelWarn is the severity for warnings.
	LevelWarn
	// LevelError is the severity for errors.
	LevelError
	// LevelPanic is the severity for panic messages.
	LevelPanic
	// LevelFatal is the severity for fatal errors.
	LevelFatal
)

// Logger is the interface for producing log messages for/from a particular source.
type Logger interface {
	// Debug formats and emits a debug message.
	Debug(format string, args ...interface{})
	// Info formats and emits an informational message.
	Info(format string, args ...interface{})
	// Warn formats and emits a warning message.
	Warn(format string, args ...interface{})
	// Error formats and emits an error message.
	Error(format string, args ...interface{})
	// Panic formats and emits an error message then panics with the same.
	Panic(format string, args ...interface{})
	// Fatal formats and emits an error message and os.Exit()'s with status 1.
	Fatal(format string, args ...interface{})

	// DebugBlock formats and emits a multiline debug message.
	DebugBlock(prefix string, format string, args ...interface{})
	// InfoBlock formats and emits a multiline information message.
	InfoBlock(prefix string, format string, args ...interface{})
	// WarnBlock formats and emits a multiline warning message.
	WarnBlock(prefix string, format string, args ...interface{})
	// ErrorBlock formats and emits a multiline error message.
	ErrorBlock(prefix string, format string, args ...interface{})

	// EnableDebug enables debug messages for this Logger.
	EnableDebug(bool) bool
	// DebugEnabled checks if debug messages are enabled for this Logger.
	DebugEnabled() bool

	// Source returns the source name of this Logger.
	Source() string
}

// logger implements Logger for a single source.
type logger struct {
	source  string
	enabled bool
	debug   bool
}

func (l *logger) Source() string {
	return l.source
}

func (l *logger) EnableDebug(state bool) bool {
	log.Lock()
	defer log.Unlock()

	old := l.debug
	m := log.debug.clone()
	m[l.source] = state
	log.update(nil, m)

	return old
}

func (l *logger) DebugEnabled() bool {
	log.RLock()
	defer log.RUnlock()
	return l.debug || log.forced
}

func (l *logger) Debug(format string, args ...interface{}) {
	if active, ok := l.passes(LevelDebug); ok {
		active.Log(LevelDebug, l.source, "", format, args...)
	}
}

func (l *logger) Info(format string, args ...interface{}) {
	if active, ok := l.passes(LevelInfo); ok {
		active.Log(LevelInfo, l.source, "", format, args...)
	}
}

func (l *logger) Warn(format string, args ...interface{}) {
	if active, ok := l.passes(LevelWarn); ok {
		active.Log(LevelWarn, l.source, "", format, args...)
	}
}

func (l *logger) Error(format string, args ...interface{}) {
	if active, ok := l.passes(LevelError); ok {
		active.Log(LevelError, l.source, "", format, args...)
	}
}

func (l *logger) Fatal(format string, args ...interface{}) {
	active, _ := l.passes(LevelFatal)
	active.Log(LevelFatal, l.source, "", format, args...)
	active.Flush()
	os.Exit(1)
}

func (l *logger) Panic(format string, args ...interface{}) {
	active, _ := l.passes(LevelPanic)
	active.Log(LevelPanic, l.source, "", format, args...)
	active.Flush()
	panic(fmt.Sprintf("["+l.source+"] "+format, args...))
}

func (l *logger) DebugBlock(prefix string, format string, args ...interface{}) {
	if active, ok := l.passes(LevelDebug); ok {
		active.Log(LevelDebug, l.source, prefix, format, args...)
	}
}

func (l *logger) InfoBlock(prefix string, format string, args ...interface{}) {
	if active, ok := l.passes(LevelInfo); ok {
		active.Log(LevelInfo, l.source, prefix, format, args...)
	}
}

func (l *logger) WarnBlock(prefix string, format string, args ...interface{}) {
	if active, ok := l.passes(LevelWarn); ok {
		active.Log(LevelWarn, l.source, prefix, format, args...)
	}
}

func (l *logger) ErrorBlock(prefix string, format string, args ...interface{}) {
	if active, ok := l.passes(LevelError); ok {
		active.Log(LevelError, l.source, prefix, format, args...)
	}
}

// passes returns the active backend and whether a message of the level gets through.
func (l *logger) passes(level Level) (Backend, bool) {
	log.RLock()
	defer log.RUnlock()

	switch {
	case level == LevelDebug:
		return log.active, l.debug || log.forced
	case level >= LevelError:
		return log.active, true
	case level < log.level:
		return log.active, false
	default:
		return log.active, l.enabled
	}
}
