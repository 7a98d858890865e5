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
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	orig := output
	buf := &bytes.Buffer{}
	SetOutput(buf)
	t.Cleanup(func() {
		SetOutput(orig)
	})
	return buf
}

func TestLevels(t *testing.T) {
	buf := captureOutput(t)
	l := Get("levels")

	SetLevel(LevelWarn)
	defer SetLevel(DefaultLevel)

	l.Info("suppressed info")
	l.Warn("passed warning")
	l.Error("passed error")
	l.Debug("suppressed debug")

	out := buf.String()
	require.NotContains(t, out, "suppressed")
	require.Regexp(t, `W: \[ *levels *\] passed warning`, out)
	require.Regexp(t, `E: \[ *levels *\] passed error`, out)
}

func TestDebugging(t *testing.T) {
	buf := captureOutput(t)
	l := Get("debugging")

	require.False(t, l.DebugEnabled())
	l.Debug("not yet")

	require.False(t, l.EnableDebug(true))
	require.True(t, l.DebugEnabled())
	l.Debug("now %d", 42)
	l.DebugBlock("  <", "line1\nline2")

	require.True(t, l.EnableDebug(false))
	l.Debug("not any more")

	out := buf.String()
	require.NotContains(t, out, "not yet")
	require.NotContains(t, out, "not any more")
	require.Contains(t, out, "now 42")
	require.Contains(t, out, "  <line1")
	require.Contains(t, out, "  <line2")
}

func TestSourceMaps(t *testing.T) {
	type testCase struct {
		name    string
		spec    string
		source  string
		def     bool
		enabled bool
		invalid bool
	}

	for _, tc := range []testCase{
		{name: "plain", spec: "heap", source: "heap", enabled: true},
		{name: "all", spec: "all", source: "rma", enabled: true},
		{name: "off", spec: "off:heap", source: "heap", def: true, enabled: false},
		{name: "mixed", spec: "on:*,off:heap,team", source: "team", enabled: false},
		{name: "mixed other", spec: "on:*,off:heap,team", source: "rma", enabled: true},
		{name: "default", spec: "heap", source: "rma", def: true, enabled: true},
		{name: "invalid state", spec: "maybe:heap", invalid: true},
		{name: "invalid entry", spec: "on:off:heap", invalid: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			m := srcmap{}
			err := m.parse(tc.spec)
			if tc.invalid {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.enabled, m.isEnabled(tc.source, tc.def))
		})
	}
}

func TestSourceDisabling(t *testing.T) {
	buf := captureOutput(t)
	l := Get("noisy")

	EnableLogging(false, "noisy")
	l.Info("hidden")
	l.Error("errors always pass")
	EnableLogging(true, "noisy")
	l.Info("visible")

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "errors always pass")
	require.Contains(t, out, "visible")
}

func TestLevelParsing(t *testing.T) {
	for name, level := range map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"warn":    LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
	} {
		parsed, err := ParseLevel(name)
		require.NoError(t, err, name)
		require.Equal(t, level, parsed, name)
	}
	_, err := ParseLevel("verbose")
	require.Error(t, err)

	var l Level
	require.NoError(t, l.UnmarshalJSON([]byte(`"error"`)))
	require.Equal(t, LevelError, l)
	raw, err := l.MarshalJSON()
	require.NoError(t, err)
	require.Equal(t, `"error"`, string(raw))
}

func TestAlignment(t *testing.T) {
	buf := captureOutput(t)
	Get("a-rather-long-source-name")
	Get("rma").Info("aligned")

	line := strings.TrimSpace(buf.String())
	require.True(t, strings.HasPrefix(line, "I: ["), line)
	require.Contains(t, line, " rma ")
}

func TestDefaultSource(t *testing.T) {
	buf := captureOutput(t)
	orig := Default()
	defer SetDefaultSource(orig.Source())

	l := SetDefaultSource("pe3")
	require.Equal(t, "pe3", Default().Source())
	l.Info("tagged")
	require.Regexp(t, `\[ *pe3 *\] tagged`, buf.String())
}

func TestFlipDebug(t *testing.T) {
	captureOutput(t)
	a, b := Get("flip-a"), Get("flip-b")

	flipDebug([]string{"flip-a", "flip-b"})
	require.True(t, a.DebugEnabled())
	require.True(t, b.DebugEnabled())

	flipDebug([]string{"flip-a", "flip-b"})
	require.False(t, a.DebugEnabled())
	require.False(t, b.DebugEnabled())

	flipDebug(nil)
	require.True(t, Get("flip-other").DebugEnabled())
	flipDebug(nil)
	require.False(t, Get("flip-other").DebugEnabled())
}
