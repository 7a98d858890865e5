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

package team

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/intel/symmetric-memory/pkg/testutils"
)

func newRegistry(t *testing.T, myPE, nPEs int) *Registry {
	r, err := NewRegistry(myPE, nPEs)
	require.NoError(t, err)
	return r
}

func TestNewRegistry(t *testing.T) {
	tcases := []struct {
		name  string
		myPE  int
		nPEs  int
		valid bool
	}{
		{name: "single PE", myPE: 0, nPEs: 1, valid: true},
		{name: "last PE", myPE: 7, nPEs: 8, valid: true},
		{name: "PE out of range", myPE: 8, nPEs: 8},
		{name: "negative PE", myPE: -1, nPEs: 8},
		{name: "no PEs", myPE: 0, nPEs: 0},
		{name: "too many PEs", myPE: 0, nPEs: MaxPEs + 1},
	}
	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := NewRegistry(tc.myPE, tc.nPEs)
			if !tc.valid {
				require.True(t, errors.Is(err, ErrInvalidArgs), "unexpected error %v", err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.myPE, r.MyPE(World))
			require.Equal(t, tc.nPEs, r.NPEs(World))
		})
	}
}

func TestSplitStrided(t *testing.T) {
	tcases := []struct {
		name    string
		myPE    int
		nPEs    int
		start   int
		stride  int
		size    int
		invalid bool
		member  bool
		teamPE  int
		members []int
	}{
		{
			name: "even PEs, member", myPE: 2, nPEs: 8,
			start: 0, stride: 2, size: 4,
			member: true, teamPE: 1, members: []int{0, 2, 4, 6},
		},
		{
			name: "even PEs, non-member", myPE: 3, nPEs: 8,
			start: 0, stride: 2, size: 4,
		},
		{
			name: "tail, member", myPE: 7, nPEs: 8,
			start: 4, stride: 1, size: 4,
			member: true, teamPE: 3, members: []int{4, 5, 6, 7},
		},
		{
			name: "beyond size, non-member", myPE: 6, nPEs: 8,
			start: 0, stride: 2, size: 3,
		},
		{
			name: "negative start", myPE: 0, nPEs: 8,
			start: -1, stride: 1, size: 2, invalid: true,
		},
		{
			name: "start out of parent", myPE: 0, nPEs: 8,
			start: 8, stride: 1, size: 1, invalid: true,
		},
		{
			name: "zero size", myPE: 0, nPEs: 8,
			start: 0, stride: 1, size: 0, invalid: true,
		},
		{
			name: "size larger than parent", myPE: 0, nPEs: 8,
			start: 0, stride: 1, size: 9, invalid: true,
		},
		{
			name: "zero stride", myPE: 0, nPEs: 8,
			start: 0, stride: 0, size: 2, invalid: true,
		},
		{
			name: "end beyond world", myPE: 0, nPEs: 8,
			start: 2, stride: 3, size: 3, invalid: true,
		},
	}
	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			r := newRegistry(t, tc.myPE, tc.nPEs)
			team, err := r.SplitStrided(World, tc.start, tc.stride, tc.size)
			if tc.invalid {
				require.True(t, errors.Is(err, ErrInvalidArgs), "unexpected error %v", err)
				require.Equal(t, Invalid, team)
				return
			}
			require.NoError(t, err)
			if !tc.member {
				require.Equal(t, Invalid, team)
				require.Equal(t, -1, r.MyPE(team))
				require.Equal(t, -1, r.NPEs(team))
				return
			}
			require.NotEqual(t, Invalid, team)
			require.Equal(t, tc.teamPE, r.MyPE(team))
			require.Equal(t, tc.size, r.NPEs(team))

			info, ok := r.Get(team)
			require.True(t, ok)
			testutils.VerifyDeepEqual(t, "members", tc.members, info.Members())
		})
	}
}

func TestNestedSplit(t *testing.T) {
	// world of 16, evens (stride 2), then every other of the evens
	type testCase struct {
		name   string
		myPE   int
		evenPE int
		quadPE int
	}
	for _, tc := range []testCase{
		{name: "member", myPE: 10, evenPE: 5, quadPE: 2},
		{name: "first member", myPE: 2, evenPE: 1, quadPE: 0},
		{name: "non-member of quads", myPE: 8, evenPE: 4, quadPE: -1},
		{name: "non-member of evens", myPE: 7, evenPE: -1, quadPE: -1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r := newRegistry(t, tc.myPE, 16)

			evens, err := r.SplitStrided(World, 0, 2, 8)
			require.NoError(t, err)
			require.Equal(t, tc.evenPE, r.MyPE(evens))
			if tc.evenPE < 0 {
				require.Equal(t, Invalid, evens)
				return
			}

			quads, err := r.SplitStrided(evens, 1, 2, 4)
			require.NoError(t, err)
			if tc.quadPE < 0 {
				require.Equal(t, Invalid, quads)
				require.Equal(t, -1, r.MyPE(quads))
				require.Equal(t, 2, r.Count())
				return
			}

			info, ok := r.Get(quads)
			require.True(t, ok)
			require.Equal(t, 2, info.Start)
			require.Equal(t, 4, info.Stride)
			require.Equal(t, []int{2, 6, 10, 14}, info.Members())
			require.Equal(t, tc.quadPE, r.MyPE(quads))
		})
	}
}

func TestNestedSplitMembership(t *testing.T) {
	r := newRegistry(t, 6, 16)

	evens, err := r.SplitStrided(World, 0, 2, 8)
	require.NoError(t, err)

	quads, err := r.SplitStrided(evens, 1, 2, 4)
	require.NoError(t, err)
	require.Equal(t, 1, r.MyPE(quads))
	require.Equal(t, 3, r.TranslatePE(quads, 1, evens))
	require.Equal(t, 6, r.TranslatePE(quads, 1, World))
	require.Equal(t, 0, r.TranslatePE(World, 2, quads))
	require.Equal(t, -1, r.TranslatePE(World, 3, quads))
}

func TestSplit2D(t *testing.T) {
	tcases := []struct {
		name   string
		nPEs   int
		xRange int
		// per PE: x team members and y team members
		x [][]int
		y [][]int
	}{
		{
			name: "2x2", nPEs: 4, xRange: 2,
			x: [][]int{{0, 1}, {0, 1}, {2, 3}, {2, 3}},
			y: [][]int{{0, 2}, {1, 3}, {0, 2}, {1, 3}},
		},
		{
			name: "uneven", nPEs: 5, xRange: 2,
			x: [][]int{{0, 1}, {0, 1}, {2, 3}, {2, 3}, {4}},
			y: [][]int{{0, 2, 4}, {1, 3}, {0, 2, 4}, {1, 3}, {0, 2, 4}},
		},
		{
			name: "clamped", nPEs: 3, xRange: 8,
			x: [][]int{{0, 1, 2}, {0, 1, 2}, {0, 1, 2}},
			y: [][]int{{0}, {1}, {2}},
		},
	}
	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			for pe := 0; pe < tc.nPEs; pe++ {
				r := newRegistry(t, pe, tc.nPEs)
				x, y, err := r.Split2D(World, tc.xRange)
				require.NoError(t, err)

				xi, ok := r.Get(x)
				require.True(t, ok, "PE %d has no x team", pe)
				yi, ok := r.Get(y)
				require.True(t, ok, "PE %d has no y team", pe)

				testutils.VerifyDeepEqual(t, fmt.Sprintf("PE %d x team", pe), tc.x[pe], xi.Members())
				testutils.VerifyDeepEqual(t, fmt.Sprintf("PE %d y team", pe), tc.y[pe], yi.Members())
				require.Equal(t, 3, r.Count())
			}
		})
	}
}

func TestSplit2DInvalid(t *testing.T) {
	r := newRegistry(t, 0, 4)

	x, y, err := r.Split2D(World, 0)
	require.True(t, errors.Is(err, ErrInvalidArgs))
	require.Equal(t, Invalid, x)
	require.Equal(t, Invalid, y)

	_, _, err = r.Split2D(Team(17), 2)
	require.True(t, errors.Is(err, ErrInvalidArgs))
	require.Equal(t, 1, r.Count())
}

func TestSplitAxis(t *testing.T) {
	r := newRegistry(t, 3, 4)

	y, err := r.SplitAxis(World, 2, AxisY)
	require.NoError(t, err)
	info, ok := r.Get(y)
	require.True(t, ok)
	require.Equal(t, []int{1, 3}, info.Members())
	require.Equal(t, 2, r.Count())

	_, err = r.SplitAxis(World, 2, Axis(5))
	require.True(t, errors.Is(err, ErrInvalidArgs))
}

func TestTranslatePE(t *testing.T) {
	r := newRegistry(t, 0, 8)
	evens, err := r.SplitStrided(World, 0, 2, 4)
	require.NoError(t, err)

	tcases := []struct {
		name     string
		src      Team
		pe       int
		dst      Team
		expected int
	}{
		{name: "world to evens", src: World, pe: 4, dst: evens, expected: 2},
		{name: "evens to world", src: evens, pe: 3, dst: World, expected: 6},
		{name: "identity", src: World, pe: 5, dst: World, expected: 5},
		{name: "non-member", src: World, pe: 5, dst: evens, expected: -1},
		{name: "PE out of range", src: evens, pe: 4, dst: World, expected: -1},
		{name: "negative PE", src: World, pe: -1, dst: evens, expected: -1},
		{name: "invalid source", src: Invalid, pe: 0, dst: World, expected: -1},
		{name: "unknown target", src: World, pe: 0, dst: Team(99), expected: -1},
	}
	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			if got := r.TranslatePE(tc.src, tc.pe, tc.dst); got != tc.expected {
				t.Errorf("expected %d, got %d", tc.expected, got)
			}
		})
	}
}

func TestDestroy(t *testing.T) {
	r := newRegistry(t, 0, 4)

	a, err := r.SplitStrided(World, 0, 1, 2)
	require.NoError(t, err)
	b, err := r.SplitStrided(World, 0, 2, 2)
	require.NoError(t, err)
	require.Equal(t, Team(1), a)
	require.Equal(t, Team(2), b)

	r.Destroy(a)
	require.Equal(t, -1, r.NPEs(a))
	require.Equal(t, -1, r.MyPE(a))
	_, ok := r.Get(a)
	require.False(t, ok)

	// the freed slot is reused, under a new handle
	c, err := r.SplitStrided(World, 0, 1, 3)
	require.NoError(t, err)
	require.NotEqual(t, a, c)
	require.Equal(t, a&slotMask, c&slotMask)
	require.Equal(t, 3, r.NPEs(c))
	require.Equal(t, -1, r.NPEs(a), "destroyed handle answers for the new team")
	require.Equal(t, -1, r.TranslatePE(a, 0, World))
	require.Equal(t, 2, r.NPEs(b))

	// destroying a stale handle leaves the new team alone
	r.Destroy(a)
	require.Equal(t, 3, r.NPEs(c))

	r.Destroy(World)
	r.Destroy(Invalid)
	r.Destroy(Team(99))
	require.Equal(t, 4, r.NPEs(World))

	r.Reset()
	require.Equal(t, 1, r.Count())
	require.Equal(t, 4, r.NPEs(World))
	require.Equal(t, -1, r.NPEs(b), "handle survived Reset")
	require.Equal(t, -1, r.NPEs(c), "handle survived Reset")
}

func TestHandleGenerations(t *testing.T) {
	r := newRegistry(t, 0, 2)
	seen := map[Team]bool{}
	for i := 0; i < 100; i++ {
		team, err := r.SplitStrided(World, 0, 1, 2)
		require.NoError(t, err)
		require.True(t, team > 0, "handle %d", team)
		require.False(t, seen[team], "handle %d handed out twice", team)
		seen[team] = true
		r.Destroy(team)
	}
	for team := range seen {
		require.Equal(t, -1, r.NPEs(team))
	}
	require.Equal(t, 1, r.Count())
}

func TestTeamSlotsExhausted(t *testing.T) {
	r := newRegistry(t, 0, 2)
	for i := 1; i < MaxTeams; i++ {
		team, err := r.SplitStrided(World, 0, 1, 1)
		require.NoError(t, err)
		require.Equal(t, Team(i), team)
	}
	team, err := r.SplitStrided(World, 0, 1, 2)
	require.True(t, errors.Is(err, ErrInvalidArgs))
	require.Equal(t, Invalid, team)
}
