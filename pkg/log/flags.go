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
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/intel/symmetric-memory/pkg/config"
	"github.com/intel/symmetric-memory/pkg/utils"
)

const (
	// DefaultLevel is the default logging severity level.
	DefaultLevel = LevelInfo
	// command-line argument prefix.
	optPrefix = "logger"
	// Flag for enabling/disabling normal non-debug logging for sources.
	optEnable = optPrefix + "-sources"
	// Flag for enabling/disabling debug logging for sources.
	optDebug = optPrefix + "-debug"
	// Flag for selecting logging level.
	optLevel = optPrefix + "-level"
	// Flag for selecting logging backend.
	optLogger = optPrefix
	// environment variables overriding the defaults.
	envLevel = "SHMEM_LOG_LEVEL"
	envDebug = "SHMEM_LOG_DEBUG"
)

// options is our configuration fragment.
type options struct {
	// Level is the lowest severity level passed through.
	Level Level `json:"level"`
	// Sources enables/disables normal logging for sources.
	Sources srcmap `json:"sources,omitempty"`
	// Debug enables/disables debug logging for sources.
	Debug srcmap `json:"debug,omitempty"`
	// Backend is the name of the logger backend to use.
	Backend string `json:"backend,omitempty"`
}

// defaults given on the command line or in the environment.
var defaults = &options{
	Level:   DefaultLevel,
	Sources: srcmap{},
	Debug:   srcmap{},
	Backend: FmtBackendName,
}

// runtime configuration.
var opt = &options{}

var levelNames = map[Level]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warning",
	LevelError: "error",
	LevelFatal: "fatal",
	LevelPanic: "panic",
}

// ParseLevel parses the named severity level.
func ParseLevel(value string) (Level, error) {
	name := strings.ToLower(strings.TrimSpace(value))
	if name == "warn" {
		name = "warning"
	}
	for level, n := range levelNames {
		if n == name {
			return level, nil
		}
	}
	return LevelInfo, loggerError("invalid logging level %q", value)
}

// String returns the name of the level.
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return levelNames[LevelInfo]
}

// Set sets the level from the given name.
func (l *Level) Set(value string) error {
	level, err := ParseLevel(value)
	if err != nil {
		return err
	}
	*l = level
	if l == &defaults.Level {
		SetLevel(level)
	}
	return nil
}

// MarshalJSON marshals the level by name.
func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// UnmarshalJSON unmarshals the level from its name.
func (l *Level) UnmarshalJSON(raw []byte) error {
	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		return loggerError("invalid logging level %s", string(raw))
	}
	level, err := ParseLevel(name)
	if err != nil {
		return err
	}
	*l = level
	return nil
}

// backendFlag sets the default backend from the command line.
type backendFlag struct{}

func (backendFlag) String() string {
	return defaults.Backend
}

func (backendFlag) Set(value string) error {
	if err := SetBackend(value); err != nil {
		return err
	}
	defaults.Backend = value
	return nil
}

// srcmap tracks logging or debugging settings for sources.
type srcmap map[string]bool

// parse updates the srcmap from a spec like "on:a,b,off:c" or "*".
func (m srcmap) parse(value string) error {
	prev := ""
	for _, entry := range strings.Split(value, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		state, src := "", entry
		if split := strings.Split(entry, ":"); len(split) == 2 {
			state, src = split[0], split[1]
		} else if len(split) > 2 {
			return loggerError("invalid state spec %q in source map", entry)
		}

		if state != "" {
			prev = state
		} else if state = prev; state == "" {
			state = "on"
		}
		if src == "all" {
			src = "*"
		}

		enabled, err := utils.ParseEnabled(state)
		if err != nil {
			return loggerError("invalid state %q in source map", state)
		}
		m[src] = enabled
	}
	return nil
}

// isEnabled checks the state of a source, falling back to '*' and then def.
func (m srcmap) isEnabled(source string, def bool) bool {
	if state, ok := m[source]; ok {
		return state
	}
	if state, ok := m["*"]; ok {
		return state
	}
	return def
}

func (m srcmap) clone() srcmap {
	c := make(srcmap, len(m))
	for src, state := range m {
		c[src] = state
	}
	return c
}

// String returns a string representation of the srcmap.
func (m srcmap) String() string {
	on, off := []string{}, []string{}
	for src, state := range m {
		if state {
			on = append(on, src)
		} else {
			off = append(off, src)
		}
	}
	sort.Strings(on)
	sort.Strings(off)

	switch {
	case len(off) == 0:
		return "on:" + strings.Join(on, ",")
	case len(on) == 0:
		return "off:" + strings.Join(off, ",")
	}
	return "on:" + strings.Join(on, ",") + ",off:" + strings.Join(off, ",")
}

// MarshalJSON marshals the srcmap as a string spec.
func (m srcmap) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON unmarshals a srcmap from a string spec.
func (m *srcmap) UnmarshalJSON(raw []byte) error {
	var spec string
	if err := json.Unmarshal(raw, &spec); err != nil {
		return loggerError("invalid source map %s", string(raw))
	}
	*m = srcmap{}
	return m.parse(spec)
}

// srcmapFlag updates one of the default srcmaps from the command line.
type srcmapFlag struct {
	m     srcmap
	debug bool
}

func (f *srcmapFlag) String() string {
	if f.m == nil {
		return ""
	}
	return f.m.String()
}

func (f *srcmapFlag) Set(value string) error {
	if err := f.m.parse(value); err != nil {
		return err
	}
	log.Lock()
	defer log.Unlock()
	if f.debug {
		log.update(nil, f.m)
	} else {
		log.update(f.m, nil)
	}
	return nil
}

// Reset resets the configuration to the command line/environment defaults.
func (o *options) Reset() {
	*o = options{
		Level:   defaults.Level,
		Sources: defaults.Sources.clone(),
		Debug:   defaults.Debug.clone(),
		Backend: defaults.Backend,
	}
}

// Validate checks the configured backend.
func (o *options) Validate() error {
	if o.Backend == "" {
		return nil
	}
	log.RLock()
	defer log.RUnlock()
	if _, ok := log.backends[o.Backend]; !ok {
		return loggerError("unknown logger backend %q", o.Backend)
	}
	return nil
}

// Configured activates the updated configuration.
func (o *options) Configured() error {
	log.Lock()
	defer log.Unlock()

	log.level = o.Level
	if o.Backend != "" {
		if err := log.setBackend(o.Backend); err != nil {
			return err
		}
	}
	sources := o.Sources
	if len(sources) == 0 {
		sources = srcmap{"*": true}
	}
	log.update(sources, o.Debug)

	return nil
}

// Describe returns help about the logger configuration.
func (o *options) Describe() string {
	return configHelp
}

const configHelp = `Logging and debugging messages.
  level: lowest severity passed through (debug, info, warning, error)
  sources: sources to enable/disable, for instance "on:*,off:heap"
  debug: sources to produce debug messages, for instance "bootstrap,rma"
  backend: logger backend to use (fmt, klog)`

// parseEnv picks up defaults from the environment.
func parseEnv() {
	if value, ok := os.LookupEnv(envLevel); ok {
		if level, err := ParseLevel(value); err == nil {
			defaults.Level = level
			log.level = level
		}
	}
	if value, ok := os.LookupEnv(envDebug); ok {
		if err := defaults.Debug.parse(value); err == nil {
			log.debug = defaults.Debug.clone()
		}
	}
}

func init() {
	parseEnv()

	cfglog := log.get("config")
	config.SetLogger(config.Logger{
		DebugEnabled: cfglog.DebugEnabled,
		Debugf:       cfglog.Debug,
		Infof:        cfglog.Info,
		Warningf:     cfglog.Warn,
		Errorf:       cfglog.Error,
	})

	flag.Var(backendFlag{}, optLogger,
		"logger backend to use (fmt, klog).")
	flag.Var(&defaults.Level, optLevel,
		"lowest severity level to pass through (debug, info, warning, error).")
	flag.Var(&srcmapFlag{m: defaults.Sources}, optEnable,
		"comma-separated list of sources to enable/disable.\n"+
			"Specify '*' or 'all' for every source, prefix with 'off:' to disable.")
	flag.Var(&srcmapFlag{m: defaults.Debug, debug: true}, optDebug,
		"comma-separated list of sources to enable debug messages for.\n"+
			"Specify '*' or 'all' for every source, prefix with 'off:' to disable.")

	if err := config.Register(optPrefix, opt); err != nil {
		cfglog.Error("failed to register configuration: %v", err)
	}
}

func loggerError(format string, args ...interface{}) error {
	return fmt.Errorf("logger: "+format, args...)
}
