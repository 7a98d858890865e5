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
	"github.com/pkg/errors"

	"github.com/intel/symmetric-memory/pkg/heap"
	"github.com/intel/symmetric-memory/pkg/rma"
	"github.com/intel/symmetric-memory/pkg/team"
)

var (
	// ErrNotInitialized is returned for calls that need an initialized runtime.
	ErrNotInitialized = errors.New("runtime not initialized")
	// ErrInit is returned when the runtime fails to initialize.
	ErrInit = errors.New("initialization failed")
	// ErrBootstrap is returned when a unique id cannot be created.
	ErrBootstrap = errors.New("bootstrap failed")
	// ErrAlloc is returned when symmetric memory cannot be allocated.
	ErrAlloc = heap.ErrAlloc
	// ErrInvalidAddress is returned for addresses outside the symmetric heap.
	ErrInvalidAddress = heap.ErrInvalidAddress
	// ErrSizeMismatch is returned when the two sides of a transfer differ in size.
	ErrSizeMismatch = rma.ErrSizeMismatch
	// ErrInvalidStream is returned for signal operations without a stream.
	ErrInvalidStream = rma.ErrInvalidStream
	// ErrInvalidTeamArgs is returned for invalid team split arguments.
	ErrInvalidTeamArgs = team.ErrInvalidArgs
)
