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

package testutils

import (
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hashicorp/go-multierror"
)

// VerifyDeepEqual fails the test with a diff unless expected and seen match.
func VerifyDeepEqual(t *testing.T, what string, expected, seen interface{}, opts ...cmp.Option) bool {
	t.Helper()
	diff := cmp.Diff(expected, seen, opts...)
	if diff == "" {
		return true
	}
	t.Errorf("unexpected %s (-expected +seen):\n%s", what, diff)
	return false
}

var pePrefix = regexp.MustCompile(`^PE ([0-9]+): `)

// FailedPEs returns the PEs reported failed in an error from RunPEs.
func FailedPEs(err error) []int {
	merr, ok := err.(*multierror.Error)
	if !ok || merr == nil {
		return nil
	}
	pes := []int{}
	for _, e := range merr.Errors {
		m := pePrefix.FindStringSubmatch(e.Error())
		if m == nil {
			continue
		}
		pe, _ := strconv.Atoi(m[1])
		pes = append(pes, pe)
	}
	return pes
}

// VerifyFailedPEs checks that exactly the given PEs failed in a RunPEs
// error and that every failure mentions all of the given substrings.
func VerifyFailedPEs(t *testing.T, err error, failed []int, substrings ...string) bool {
	t.Helper()
	if len(failed) == 0 {
		if err != nil {
			t.Errorf("expected all PEs to succeed, got %v", err)
			return false
		}
		return true
	}
	if err == nil {
		t.Errorf("expected PEs %v to fail, got no error", failed)
		return false
	}
	if !VerifyDeepEqual(t, "failed PEs", failed, FailedPEs(err)) {
		return false
	}
	ok := true
	for _, e := range err.(*multierror.Error).Errors {
		for _, s := range substrings {
			if !strings.Contains(e.Error(), s) {
				t.Errorf("expected %q in failure %q", s, e.Error())
				ok = false
			}
		}
	}
	return ok
}
