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
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// BackendFn is a function that creates a Backend instance.
type BackendFn func() Backend

// Backend can format and emit log messages.
type Backend interface {
	// Name returns the name of this backend.
	Name() string
	// Log emits a message with the given severity, source, and line prefix.
	// Messages with a non-empty prefix are emitted line by line.
	Log(level Level, source, prefix, format string, args ...interface{})
	// Flush flushes any buffered messages.
	Flush()
	// Stop stops the backend instance.
	Stop()
	// SetSourceAlignment sets the maximum source length for alignment.
	SetSourceAlignment(int)
}

// RegisterBackend registers a logger backend.
func RegisterBackend(name string, fn BackendFn) {
	log.Lock()
	defer log.Unlock()
	log.backends[name] = fn
}

const (
	// FmtBackendName is the name of our simple fmt-based logging backend.
	FmtBackendName = "fmt"
)

// severity tags fmtBackend uses to prefix emitted messages with.
var fmtTags = map[Level]string{
	LevelDebug: "D: ",
	LevelInfo:  "I: ",
	LevelWarn:  "W: ",
	LevelError: "E: ",
	LevelFatal: "FATAL ERROR: ",
	LevelPanic: "PANIC: ",
}

// output is where the fmt backend writes to.
var output io.Writer = os.Stderr

// SetOutput redirects the output of the fmt backend.
func SetOutput(w io.Writer) {
	log.Lock()
	defer log.Unlock()
	output = w
	if f, ok := log.active.(*fmtBackend); ok {
		f.Lock()
		f.w = bufio.NewWriter(w)
		f.Unlock()
	}
}

// fmtBackend is our simple, default fmt.Fprintf-based Backend.
type fmtBackend struct {
	sync.Mutex
	w     *bufio.Writer
	align int
}

func createFmtBackend() Backend {
	return &fmtBackend{w: bufio.NewWriter(output)}
}

func (*fmtBackend) Name() string {
	return FmtBackendName
}

func (f *fmtBackend) Log(level Level, source, prefix, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)

	f.Lock()
	defer f.Unlock()

	src := f.source(source)
	for _, line := range strings.Split(msg, "\n") {
		if prefix == "" {
			fmt.Fprintln(f.w, fmtTags[level]+src, line)
		} else {
			fmt.Fprintln(f.w, fmtTags[level]+src, prefix+line)
		}
	}
	f.w.Flush()
}

func (f *fmtBackend) Flush() {
	f.Lock()
	defer f.Unlock()
	f.w.Flush()
}

func (f *fmtBackend) Stop() {
	f.Flush()
}

func (f *fmtBackend) SetSourceAlignment(align int) {
	f.Lock()
	defer f.Unlock()
	f.align = align
}

// source centers the source name within the alignment width.
func (f *fmtBackend) source(source string) string {
	if f.align <= len(source) {
		return "[" + source + "]"
	}
	suf := (f.align - len(source)) / 2
	pre := f.align - (len(source) + suf)
	return "[" + strings.Repeat(" ", pre) + source + strings.Repeat(" ", suf) + "]"
}
