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

// Package team implements the registry of PE teams.
//
// A team is an ordered subset of the world PEs described by a global start
// PE, a global stride and a size. The world team always exists and covers
// every PE. New teams are split from existing ones; PE numbers passed to a
// split are relative to the parent team.
package team

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"

	logger "github.com/intel/symmetric-memory/pkg/log"
)

// Team is a handle to a team of PEs. The low bits of a handle select a
// slot of the registry, the high bits carry the generation of the slot, so
// the handle of a destroyed team stays invalid after its slot is reused.
type Team int32

const (
	// Invalid is the handle of no team.
	Invalid Team = -1
	// World is the handle of the team of all PEs.
	World Team = 0
	// MaxTeams is the maximum number of simultaneously existing teams.
	MaxTeams = 2048
	// MaxPEs is the maximum number of PEs in the world.
	MaxPEs = 16384

	slotBits = 11
	slotMask = 1<<slotBits - 1
	genMask  = 1<<(31-slotBits) - 1
)

// Axis selects one of the teams produced by a 2D split.
type Axis int

const (
	// AxisX selects the team of consecutive PEs.
	AxisX Axis = iota
	// AxisY selects the team of PEs strided by the x range.
	AxisY
)

// ErrInvalidArgs is returned for invalid team split arguments.
var ErrInvalidArgs = errors.New("invalid team arguments")

var log = logger.NewLogger("team")

// Info describes a team as seen by the local PE.
type Info struct {
	// Start is the world PE of the first member.
	Start int
	// Stride is the world PE distance between consecutive members.
	Stride int
	// Size is the number of members.
	Size int
	// MyPE is the index of the local PE within the team.
	MyPE int

	members []int
	index   map[int]int
}

// Global returns the world PE of the given team member, or -1.
func (i *Info) Global(pe int) int {
	if pe < 0 || pe >= len(i.members) {
		return -1
	}
	return i.members[pe]
}

// Local returns the team index of the given world PE, or -1.
func (i *Info) Local(global int) int {
	if idx, ok := i.index[global]; ok {
		return idx
	}
	return -1
}

// Members returns the world PEs of the team in team order.
func (i *Info) Members() []int {
	return append([]int(nil), i.members...)
}

func (i *Info) String() string {
	return fmt.Sprintf("team{start: %d, stride: %d, size: %d, mype: %d}",
		i.Start, i.Stride, i.Size, i.MyPE)
}

func newInfo(start, stride, size, myPE int) *Info {
	i := &Info{
		Start:   start,
		Stride:  stride,
		Size:    size,
		MyPE:    myPE,
		members: make([]int, size),
		index:   make(map[int]int, size),
	}
	for idx := 0; idx < size; idx++ {
		global := start + idx*stride
		i.members[idx] = global
		i.index[global] = idx
	}
	return i
}

// Registry tracks the teams the local PE is a member of.
type Registry struct {
	sync.RWMutex
	myPE  int
	nPEs  int
	teams []*Info
	gens  []uint32
}

// NewRegistry creates a registry with the world team for the given PE.
func NewRegistry(myPE, nPEs int) (*Registry, error) {
	if nPEs <= 0 || nPEs > MaxPEs || myPE < 0 || myPE >= nPEs {
		return nil, errors.Wrapf(ErrInvalidArgs, "PE %d of %d", myPE, nPEs)
	}
	r := &Registry{
		myPE:  myPE,
		nPEs:  nPEs,
		teams: make([]*Info, MaxTeams),
		gens:  make([]uint32, MaxTeams),
	}
	r.teams[World] = newInfo(0, 1, nPEs, myPE)
	return r, nil
}

// Get returns information about a team, if it exists.
func (r *Registry) Get(t Team) (Info, bool) {
	r.RLock()
	defer r.RUnlock()

	info, ok := r.lookup(t)
	if !ok {
		return Info{}, false
	}
	return *info, true
}

// MyPE returns the index of the local PE in the team, or -1.
func (r *Registry) MyPE(t Team) int {
	r.RLock()
	defer r.RUnlock()

	if info, ok := r.lookup(t); ok {
		return info.MyPE
	}
	return -1
}

// NPEs returns the size of the team, or -1.
func (r *Registry) NPEs(t Team) int {
	r.RLock()
	defer r.RUnlock()

	if info, ok := r.lookup(t); ok {
		return info.Size
	}
	return -1
}

// Count returns the number of existing teams, including the world team.
func (r *Registry) Count() int {
	r.RLock()
	defer r.RUnlock()

	cnt := 0
	for _, info := range r.teams {
		if info != nil {
			cnt++
		}
	}
	return cnt
}

// TranslatePE translates a PE of the source team to the destination team.
// It returns -1 if either team is invalid or the PE is not a member of both.
func (r *Registry) TranslatePE(src Team, pe int, dst Team) int {
	r.RLock()
	defer r.RUnlock()

	srcInfo, ok := r.lookup(src)
	if !ok {
		return -1
	}
	dstInfo, ok := r.lookup(dst)
	if !ok {
		return -1
	}
	global := srcInfo.Global(pe)
	if global < 0 {
		return -1
	}
	return dstInfo.Local(global)
}

// SplitStrided creates a team of size PEs of the parent, starting at parent
// PE start with a parent PE stride. The call must be made by every member of
// the parent with identical arguments. PEs not in the new team get Invalid.
func (r *Registry) SplitStrided(parent Team, start, stride, size int) (Team, error) {
	r.Lock()
	defer r.Unlock()
	return r.splitStrided(parent, start, stride, size)
}

func (r *Registry) splitStrided(parent Team, start, stride, size int) (Team, error) {
	p, ok := r.lookup(parent)
	if !ok {
		return Invalid, errors.Wrapf(ErrInvalidArgs, "invalid parent team %d", parent)
	}

	if start < 0 || start >= p.Size || size <= 0 || size > p.Size || stride < 1 {
		return Invalid, errors.Wrapf(ErrInvalidArgs,
			"start %d, stride %d, size %d for parent %s", start, stride, size, p)
	}

	gStart := p.members[start]
	gStride := p.Stride * stride
	gEnd := gStart + gStride*(size-1)
	if gEnd >= r.nPEs {
		return Invalid, errors.Wrapf(ErrInvalidArgs,
			"start %d, stride %d, size %d for parent %s exceeds %d PEs",
			start, stride, size, p, r.nPEs)
	}

	if r.myPE < gStart || (r.myPE-gStart)%gStride != 0 || (r.myPE-gStart)/gStride >= size {
		log.Debug("PE %d is not a member of team (start %d, stride %d, size %d)",
			r.myPE, gStart, gStride, size)
		return Invalid, nil
	}

	slot := r.freeSlot()
	if slot < 0 {
		return Invalid, errors.Wrapf(ErrInvalidArgs, "no free team slots (max %d)", MaxTeams)
	}

	info := newInfo(gStart, gStride, size, (r.myPE-gStart)/gStride)
	r.teams[slot] = info
	t := handle(slot, r.gens[slot])

	log.Debug("created team %d (slot %d): %s", t, slot, info)

	return t, nil
}

// Split2D splits the parent into teams of xRange consecutive PEs (x axis)
// and teams of PEs strided by xRange (y axis), returning the ones the local
// PE is a member of. An xRange beyond the parent size is clamped.
func (r *Registry) Split2D(parent Team, xRange int) (Team, Team, error) {
	if xRange <= 0 {
		return Invalid, Invalid, errors.Wrapf(ErrInvalidArgs, "x range %d", xRange)
	}

	r.Lock()
	defer r.Unlock()

	p, ok := r.lookup(parent)
	if !ok {
		return Invalid, Invalid, errors.Wrapf(ErrInvalidArgs, "invalid parent team %d", parent)
	}
	size := p.Size
	if xRange > size {
		xRange = size
	}

	xTeams := (size + xRange - 1) / xRange
	x, err := r.splitAll(parent, xTeams, func(i int) (int, int, int) {
		n := xRange
		if i == xTeams-1 && size%xRange != 0 {
			n = size % xRange
		}
		return i * xRange, 1, n
	})
	if err != nil {
		return Invalid, Invalid, err
	}

	y, err := r.splitAll(parent, xRange, func(i int) (int, int, int) {
		n := size / xRange
		if i < size%xRange {
			n++
		}
		return i, xRange, n
	})
	if err != nil {
		r.destroy(x)
		return Invalid, Invalid, err
	}

	return x, y, nil
}

// SplitAxis performs a 2D split of the parent and keeps the team of the
// given axis only.
func (r *Registry) SplitAxis(parent Team, xRange int, axis Axis) (Team, error) {
	if axis != AxisX && axis != AxisY {
		return Invalid, errors.Wrapf(ErrInvalidArgs, "invalid axis %d", axis)
	}

	x, y, err := r.Split2D(parent, xRange)
	if err != nil {
		return Invalid, err
	}

	if axis == AxisX {
		r.Destroy(y)
		return x, nil
	}
	r.Destroy(x)
	return y, nil
}

// splitAll creates cnt teams with the given geometries and returns the one
// the local PE is a member of.
func (r *Registry) splitAll(parent Team, cnt int, geometry func(int) (int, int, int)) (Team, error) {
	mine := Invalid
	for i := 0; i < cnt; i++ {
		start, stride, size := geometry(i)
		t, err := r.splitStrided(parent, start, stride, size)
		if err != nil {
			r.destroy(mine)
			return Invalid, err
		}
		if t == Invalid {
			continue
		}
		if mine != Invalid {
			r.destroy(mine)
			r.destroy(t)
			return Invalid, errors.Wrapf(ErrInvalidArgs,
				"PE %d is a member of multiple split teams", r.myPE)
		}
		mine = t
	}
	return mine, nil
}

// Destroy releases a team. Destroying the world team or an invalid
// handle is a no-op.
func (r *Registry) Destroy(t Team) {
	r.Lock()
	defer r.Unlock()
	r.destroy(t)
}

func (r *Registry) destroy(t Team) {
	if t == World {
		log.Warn("refusing to destroy the world team")
		return
	}
	if _, ok := r.lookup(t); !ok {
		if t != Invalid {
			log.Warn("can't destroy invalid team %d", t)
		}
		return
	}
	r.release(int(t & slotMask))
	log.Debug("destroyed team %d", t)
}

// Reset destroys every team except the world team.
func (r *Registry) Reset() {
	r.Lock()
	defer r.Unlock()
	for slot, info := range r.teams {
		if slot != int(World) && info != nil {
			r.release(slot)
		}
	}
}

// release frees a slot and moves it to its next generation.
func (r *Registry) release(slot int) {
	r.teams[slot] = nil
	r.gens[slot] = (r.gens[slot] + 1) & genMask
}

func handle(slot int, gen uint32) Team {
	return Team(gen<<slotBits | uint32(slot))
}

func (r *Registry) lookup(t Team) (*Info, bool) {
	if t < 0 {
		return nil, false
	}
	slot, gen := int(t&slotMask), uint32(t)>>slotBits
	info := r.teams[slot]
	if info == nil || r.gens[slot] != gen {
		return nil, false
	}
	return info, true
}

func (r *Registry) freeSlot() int {
	for slot, info := range r.teams {
		if info == nil {
			return slot
		}
	}
	return -1
}
