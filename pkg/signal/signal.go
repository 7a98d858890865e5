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

// Package signal implements the atomic signal words PEs use to notify
// each other about completed transfers.
//
// A signal word is a 32-bit integer in symmetric memory. Writers update it
// with Apply, readers block on it with Wait until a comparison against a
// given value holds. Words live in shared mappings, so the updates are done
// with atomic operations and sleeping waiters are woken through the futex of
// the shared word where the platform supports it.
package signal

import (
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/pkg/errors"
)

// Op is an update operation on a signal word.
type Op int32

const (
	// Set stores the value into the word.
	Set Op = iota
	// Add atomically adds the value to the word.
	Add
)

// Cmp is a comparison between the current value of a word and a value.
type Cmp int32

const (
	// EQ holds if the word equals the value.
	EQ Cmp = iota
	// NE holds if the word differs from the value.
	NE
	// GT holds if the word is greater than the value.
	GT
	// GE holds if the word is greater than or equal to the value.
	GE
	// LT holds if the word is less than the value.
	LT
	// LE holds if the word is less than or equal to the value.
	LE
)

var (
	// ErrInvalidOp is returned for unknown update operations.
	ErrInvalidOp = errors.New("invalid signal operation")
	// ErrInvalidCmp is returned for unknown comparisons.
	ErrInvalidCmp = errors.New("invalid signal comparison")
)

var opNames = map[Op]string{
	Set: "set",
	Add: "add",
}

var cmpNames = map[Cmp]string{
	EQ: "eq",
	NE: "ne",
	GT: "gt",
	GE: "ge",
	LT: "lt",
	LE: "le",
}

func (op Op) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return "op#" + strconv.Itoa(int(op))
}

// Valid checks if op is a known operation.
func (op Op) Valid() bool {
	_, ok := opNames[op]
	return ok
}

// ParseOp parses an operation by name.
func ParseOp(name string) (Op, error) {
	for op, n := range opNames {
		if strings.EqualFold(n, name) {
			return op, nil
		}
	}
	return Set, errors.Wrapf(ErrInvalidOp, "%q", name)
}

func (cmp Cmp) String() string {
	if name, ok := cmpNames[cmp]; ok {
		return name
	}
	return "cmp#" + strconv.Itoa(int(cmp))
}

// Valid checks if cmp is a known comparison.
func (cmp Cmp) Valid() bool {
	_, ok := cmpNames[cmp]
	return ok
}

// ParseCmp parses a comparison by name.
func ParseCmp(name string) (Cmp, error) {
	for cmp, n := range cmpNames {
		if strings.EqualFold(n, name) {
			return cmp, nil
		}
	}
	return EQ, errors.Wrapf(ErrInvalidCmp, "%q", name)
}

// Eval evaluates the comparison for the current word value cur.
func (cmp Cmp) Eval(cur, val int32) bool {
	switch cmp {
	case EQ:
		return cur == val
	case NE:
		return cur != val
	case GT:
		return cur > val
	case GE:
		return cur >= val
	case LT:
		return cur < val
	case LE:
		return cur <= val
	}
	return false
}

// Apply atomically updates the word at addr and wakes up any waiters.
func Apply(addr *int32, op Op, val int32) error {
	switch op {
	case Set:
		atomic.StoreInt32(addr, val)
	case Add:
		atomic.AddInt32(addr, val)
	default:
		return errors.Wrapf(ErrInvalidOp, "%d", op)
	}
	wake(addr)
	return nil
}

// Load atomically loads the word at addr.
func Load(addr *int32) int32 {
	return atomic.LoadInt32(addr)
}
