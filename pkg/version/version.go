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

// Package version carries the runtime API version and build metadata.
//
// Version and Build are overridden at link time, for instance:
//
//	-ldflags "-X=github.com/intel/symmetric-memory/pkg/version.Version=<version> \
//	          -X=github.com/intel/symmetric-memory/pkg/version.Build=<build-id>"
package version

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const (
	// Major is the major version of the runtime API.
	Major = 1
	// Minor is the minor version of the runtime API.
	Minor = 0
)

var (
	// Version is our version as given by 'git describe'.
	Version = "unknown"
	// Build is the SHA1 of the repository we've been built from.
	Build = "unknown"
)

// API returns the major and minor version of the runtime API.
func API() (int, int) {
	return Major, Minor
}

// String returns a one-line version summary.
func String() string {
	return fmt.Sprintf("api %d.%d, version %s, build %s", Major, Minor, Version, Build)
}

// PrintVersionInfo prints version information about this binary.
func PrintVersionInfo() {
	fmt.Printf("%s version information:\n", filepath.Base(os.Args[0]))
	fmt.Printf("  - api:     %d.%d\n", Major, Minor)
	fmt.Printf("  - version: %s\n", Version)
	fmt.Printf("  - build:   %s\n", Build)
}

// versionFlag hooks -version into command line parsing.
type versionFlag struct{}

func (versionFlag) IsBoolFlag() bool {
	return true
}

func (versionFlag) Set(value string) error {
	print, err := strconv.ParseBool(value)
	if err != nil {
		return err
	}
	if print {
		PrintVersionInfo()
		os.Exit(0)
	}
	return nil
}

func (versionFlag) String() string {
	return "false"
}

func init() {
	flag.Var(versionFlag{}, "version", "print version information about "+filepath.Base(os.Args[0]))
}
