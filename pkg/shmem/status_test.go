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

package shmem

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/intel/symmetric-memory/pkg/testutils"
)

func getStatus(t *testing.T, r *Runtime) Status {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, StatusPath, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var st Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	return st
}

func TestStatus(t *testing.T) {
	r := New(WithSegmentDir(t.TempDir()))
	testutils.VerifyDeepEqual(t, "status", Status{State: "uninitialized", PE: -1, NPEs: -1}, getStatus(t, r))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, StatusPath, nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	runJob(t, 2, func(r *Runtime, pe int) error {
		buf, err := r.Malloc(100)
		if err != nil {
			return err
		}
		defer r.Free(buf)

		expected := Status{
			State: "initialized",
			PE:    pe,
			NPEs:  2,
			Heap: &HeapStatus{
				Size:        testHeapSize,
				InUse:       112,
				Allocations: 1,
				LargestFree: testHeapSize - 112,
			},
			Teams: 1,
		}
		testutils.VerifyDeepEqual(t, "status", expected, getStatus(t, r))
		return nil
	})
}
