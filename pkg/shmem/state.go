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

// State is the initialization state of a Runtime.
type State int

const (
	// Uninitialized is the state before Init and after Finalize.
	Uninitialized State = iota
	// Initializing is the state during the rendezvous of Init.
	Initializing
	// Initialized is the state of a usable runtime.
	Initialized
	// Error is the terminal state of a runtime that failed to initialize.
	Error
)

var stateNames = map[State]string{
	Uninitialized: "uninitialized",
	Initializing:  "initializing",
	Initialized:   "initialized",
	Error:         "error",
}

// String returns the name of the state.
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}
