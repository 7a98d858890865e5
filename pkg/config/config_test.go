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

package config_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/intel/symmetric-memory/pkg/config"
)

type dummyCfg struct{}

func (*dummyCfg) Reset()           {}
func (*dummyCfg) Describe() string { return "dummy fragment" }

func TestInvalidRegistration(t *testing.T) {
	config.ReInitialize()

	var (
		i = 3
		s = dummyCfg{}
	)

	type testCase struct {
		name string
		path string
		ptr  interface{}
	}

	for _, tc := range []testCase{
		{name: "nil", path: "nil", ptr: nil},
		{name: "non-pointer", path: "nonPtr", ptr: i},
		{name: "pointer to non-struct", path: "ptrToNonStruct", ptr: &i},
		{name: "empty path", path: "", ptr: &s},
		{name: "invalid path", path: "test..path", ptr: &s},
		{name: "non-fragment ptr", path: "nonFragmentPtr", ptr: &struct{}{}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := config.Register(tc.path, tc.ptr)
			require.Error(t, err, tc.name)
		})
	}
}

func TestConflictingRegistration(t *testing.T) {
	config.ReInitialize()

	type testCase struct {
		name  string
		path  string
		valid bool
	}

	for _, tc := range []testCase{
		{name: "register fragment #1", path: "runtime.group.module1", valid: true},
		{name: "conflicting path #1", path: "Runtime.group.module1"},
		{name: "conflicting path #2", path: "runtime.Group.module1"},
		{name: "conflicting path #3", path: "runtime.group.Module1"},
		{name: "fragment under fragment", path: "runtime.group.module1.sub-module"},
		{name: "fragment over subtree", path: "runtime.group"},
		{name: "register fragment #2", path: "runtime.group.module2", valid: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := config.Register(tc.path, &dummyCfg{})
			if tc.valid {
				require.NoError(t, err, tc.name)
			} else {
				require.Error(t, err, tc.name)
			}
		})
	}
}

type testFragment struct {
	Count    int             `json:"count"`
	Name     string          `json:"name"`
	Interval config.Duration `json:"interval"`
	Peers    []string        `json:"peers,omitempty"`

	configured int
}

func (f *testFragment) Describe() string { return "test fragment" }

func (f *testFragment) Reset() {
	configured := f.configured
	*f = testFragment{
		Count:      1,
		Name:       "default",
		Interval:   config.Duration(time.Second),
		configured: configured,
	}
}

func (f *testFragment) Validate() error {
	if f.Count < 0 {
		return fmt.Errorf("invalid (negative) count %d", f.Count)
	}
	if strings.Contains(f.Name, "invalid") {
		return fmt.Errorf("invalid name %q", f.Name)
	}
	return nil
}

func (f *testFragment) Configured() error {
	f.configured++
	return nil
}

func TestSetYAML(t *testing.T) {
	config.ReInitialize()

	var (
		frag  = &testFragment{}
		other = &testFragment{}
	)

	require.NoError(t, config.Register("shmem.heap", frag), "register shmem.heap")
	require.NoError(t, config.Register("shmem.bootstrap", other), "register shmem.bootstrap")
	require.Equal(t, 1, frag.Count, "defaults after registration")

	type testCase struct {
		name     string
		data     string
		valid    bool
		count    int
		fragName string
		interval time.Duration
	}

	for _, tc := range []testCase{
		{
			name: "full fragment",
			data: `
shmem:
  heap:
    count: 5
    name: segment
    interval: 250ms
`,
			valid:    true,
			count:    5,
			fragName: "segment",
			interval: 250 * time.Millisecond,
		},
		{
			name: "partial fragment keeps defaults",
			data: `
shmem:
  heap:
    count: 7
`,
			valid:    true,
			count:    7,
			fragName: "default",
			interval: time.Second,
		},
		{
			name: "negative count",
			data: `
shmem:
  heap:
    count: -1
`,
		},
		{
			name: "invalid name",
			data: `
shmem:
  heap:
    name: an invalid name
`,
		},
		{
			name: "unknown key",
			data: `
shmem:
  heap:
    bogus: 1
`,
		},
		{
			name: "unknown fragment",
			data: `
shmem:
  stream:
    count: 1
`,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := config.SetYAML([]byte(tc.data))
			if !tc.valid {
				require.Error(t, err, tc.name)
				return
			}
			require.NoError(t, err, tc.name)
			require.Equal(t, tc.count, frag.Count)
			require.Equal(t, tc.fragName, frag.Name)
			require.Equal(t, tc.interval, frag.Interval.Duration())
			require.Equal(t, 1, other.Count, "untouched fragment reset to defaults")
		})
	}

	require.Equal(t, frag.configured, other.configured, "notifications")
	require.NotZero(t, frag.configured, "notifications")
}

func TestParseYAMLFile(t *testing.T) {
	config.ReInitialize()

	frag := &testFragment{}
	require.NoError(t, config.Register("heap", frag))

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("heap:\n  peers: [a, b]\n"), 0644))
	require.NoError(t, config.ParseYAMLFile(path))
	require.Equal(t, []string{"a", "b"}, frag.Peers)

	raw, err := config.GetYAML()
	require.NoError(t, err)
	require.Contains(t, string(raw), "peers:")

	require.Error(t, config.ParseYAMLFile(filepath.Join(t.TempDir(), "missing.yaml")))
	require.Error(t, config.Register("late", &dummyCfg{}), "registration after use")
}

func TestGetConfig(t *testing.T) {
	config.ReInitialize()

	var (
		mod1 = &dummyCfg{}
		mod2 = &dummyCfg{}
	)

	require.NoError(t, config.Register("config.mod1", mod1), "register mod1")
	require.NoError(t, config.Register("config.mod2", mod2), "register mod2")

	m1, ok := config.GetConfig("config.mod1")
	require.True(t, ok && m1.(*dummyCfg) == mod1, "check mod1")

	m2, ok := config.GetConfig("config.mod2")
	require.True(t, ok && m2.(*dummyCfg) == mod2, "check mod2")

	_, ok = config.GetConfig("config")
	require.False(t, ok, "internal node has no fragment")

	require.Contains(t, config.Describe("config.mod1"), "dummy fragment")
}
