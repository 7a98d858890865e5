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

package config

import (
	"fmt"
	"os"
)

// Logger is the set of logging functions used by this package.
//
// pkg/log registers its configuration here, so it can't be imported
// directly. Instead pkg/log plugs its logger in using SetLogger.
type Logger struct {
	DebugEnabled func() bool
	Debugf       func(string, ...interface{})
	Infof        func(string, ...interface{})
	Warningf     func(string, ...interface{})
	Errorf       func(string, ...interface{})
}

var log = Logger{
	DebugEnabled: func() bool { return false },
	Debugf:       func(string, ...interface{}) {},
	Infof:        stderrf("I: "),
	Warningf:     stderrf("W: "),
	Errorf:       stderrf("E: "),
}

// SetLogger overrides the given non-nil logging functions.
func SetLogger(l Logger) {
	if l.DebugEnabled != nil {
		log.DebugEnabled = l.DebugEnabled
	}
	if l.Debugf != nil {
		log.Debugf = l.Debugf
	}
	if l.Infof != nil {
		log.Infof = l.Infof
	}
	if l.Warningf != nil {
		log.Warningf = l.Warningf
	}
	if l.Errorf != nil {
		log.Errorf = l.Errorf
	}
}

func stderrf(tag string) func(string, ...interface{}) {
	return func(format string, args ...interface{}) {
		fmt.Fprintf(os.Stderr, tag+"[config] "+format+"\n", args...)
	}
}
