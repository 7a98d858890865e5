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
	"github.com/intel/symmetric-memory/pkg/team"
)

// TeamSplitStrided creates a team of size PEs of parent, starting at parent
// PE start with the given stride. PEs that are not members of the new team
// get team.Invalid.
func (r *Runtime) TeamSplitStrided(parent team.Team, start, stride, size int) (team.Team, error) {
	j, err := r.active()
	if err != nil {
		return team.Invalid, err
	}
	return j.teams.SplitStrided(parent, start, stride, size)
}

// TeamSplit2D splits parent into a grid with rows of xRange PEs. It returns
// the row (x) and column (y) teams of the calling PE.
func (r *Runtime) TeamSplit2D(parent team.Team, xRange int) (team.Team, team.Team, error) {
	j, err := r.active()
	if err != nil {
		return team.Invalid, team.Invalid, err
	}
	return j.teams.Split2D(parent, xRange)
}

// TeamSplitAxis is like TeamSplit2D but creates only the teams of one axis.
func (r *Runtime) TeamSplitAxis(parent team.Team, xRange int, axis team.Axis) (team.Team, error) {
	j, err := r.active()
	if err != nil {
		return team.Invalid, err
	}
	return j.teams.SplitAxis(parent, xRange, axis)
}

// TeamMyPE returns the rank of the calling PE in t, or -1.
func (r *Runtime) TeamMyPE(t team.Team) int {
	j, err := r.active()
	if err != nil {
		return -1
	}
	return j.teams.MyPE(t)
}

// TeamNPEs returns the number of PEs in t, or -1.
func (r *Runtime) TeamNPEs(t team.Team) int {
	j, err := r.active()
	if err != nil {
		return -1
	}
	return j.teams.NPEs(t)
}

// TeamTranslatePE translates pe of team src to its rank in team dst, or -1.
func (r *Runtime) TeamTranslatePE(src team.Team, pe int, dst team.Team) int {
	j, err := r.active()
	if err != nil {
		return -1
	}
	return j.teams.TranslatePE(src, pe, dst)
}

// TeamDestroy releases t.
func (r *Runtime) TeamDestroy(t team.Team) {
	j, err := r.active()
	if err != nil {
		log.Warn("can't destroy team %d: %v", t, err)
		return
	}
	j.teams.Destroy(t)
}

// TeamInfo returns the description of t.
func (r *Runtime) TeamInfo(t team.Team) (team.Info, bool) {
	j, err := r.active()
	if err != nil {
		return team.Info{}, false
	}
	return j.teams.Get(t)
}
