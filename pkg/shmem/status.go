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
)

// StatusPath is where the default runtime reports its status over HTTP.
const StatusPath = "/shmem/status"

// Status is a snapshot of a runtime.
type Status struct {
	State   string      `json:"state"`
	PE      int         `json:"pe"`
	NPEs    int         `json:"npes"`
	Heap    *HeapStatus `json:"heap,omitempty"`
	Teams   int         `json:"teams,omitempty"`
	Pending int         `json:"pending,omitempty"`
}

// HeapStatus describes the usage of the symmetric heap.
type HeapStatus struct {
	Size        uint64 `json:"size"`
	InUse       uint64 `json:"inUse"`
	Allocations int    `json:"allocations"`
	LargestFree uint64 `json:"largestFree"`
}

// Status returns a snapshot of the runtime. PE and NPEs are -1 unless the
// runtime is initialized.
func (r *Runtime) Status() Status {
	r.RLock()
	defer r.RUnlock()

	st := Status{State: r.state.String(), PE: -1, NPEs: -1}
	if r.state != Initialized {
		return st
	}

	j := r.job
	hs := j.heap.Stats()
	st.PE, st.NPEs = j.myPE, j.nPEs
	st.Heap = &HeapStatus{
		Size:        hs.Size,
		InUse:       hs.InUse,
		Allocations: hs.Allocations,
		LargestFree: hs.LargestFree,
	}
	st.Teams = j.teams.Count()
	st.Pending = j.stream.Pending()

	return st
}

// ServeHTTP reports the status of the runtime as JSON.
func (r *Runtime) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(r.Status()); err != nil {
		log.Error("failed to send status: %v", err)
	}
}
