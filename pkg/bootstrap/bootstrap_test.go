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

package bootstrap

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/intel/symmetric-memory/pkg/transport"
	"github.com/intel/symmetric-memory/pkg/uid"
)

func peer(rank int, heapSize uint64) transport.Peer {
	return transport.Peer{
		Rank:     rank,
		Segment:  fmt.Sprintf("/dev/shm/test-%d", rank),
		HeapSize: heapSize,
		PID:      1000 + rank,
		Host:     "localhost",
	}
}

type result struct {
	peers []transport.Peer
	err   error
}

// runJob runs nranks PEs through join, a barrier, and leave.
func runJob(t *testing.T, nranks int, heapSize func(int) uint64) []result {
	ln, err := Listen("127.0.0.1:0")
	require.NoError(t, err)
	id, err := uid.New(ln.Addr().String())
	require.NoError(t, err)

	results := make([]result, nranks)
	wg := sync.WaitGroup{}
	for rank := 0; rank < nranks; rank++ {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()

			var b *Bootstrap
			var err error
			if rank == 0 {
				b, err = New(id, rank, nranks, ln)
			} else {
				b, err = New(id, rank, nranks, nil)
			}
			if err != nil {
				results[rank].err = err
				return
			}

			ctx := context.Background()
			peers, err := b.Exchange(ctx, peer(rank, heapSize(rank)))
			if err != nil {
				results[rank].err = err
				b.Abort()
				return
			}
			if err := b.Barrier(ctx); err != nil {
				results[rank].err = err
				b.Abort()
				return
			}
			results[rank] = result{peers: peers, err: b.Close(ctx)}
		}(rank)
	}
	wg.Wait()

	return results
}

func TestRendezvous(t *testing.T) {
	const nranks = 4
	results := runJob(t, nranks, func(int) uint64 { return 1 << 20 })

	expected := []transport.Peer{}
	for rank := 0; rank < nranks; rank++ {
		expected = append(expected, peer(rank, 1<<20))
	}
	for rank, r := range results {
		require.NoError(t, r.err, "PE %d", rank)
		if diff := cmp.Diff(expected, r.peers); diff != "" {
			t.Errorf("PE %d: unexpected peers (-want +got):\n%s", rank, diff)
		}
	}
}

func TestRendezvousHeapSizeMismatch(t *testing.T) {
	SetTimeout(3 * time.Second)
	defer SetTimeout(DefaultTimeout)

	results := runJob(t, 3, func(rank int) uint64 {
		if rank == 2 {
			return 2 << 20
		}
		return 1 << 20
	})

	for rank, r := range results {
		require.True(t, errors.Is(r.err, ErrRendezvous), "PE %d: unexpected error %v", rank, r.err)
	}
}

func TestRendezvousTimeout(t *testing.T) {
	SetTimeout(200 * time.Millisecond)
	defer SetTimeout(DefaultTimeout)

	ln, err := Listen("127.0.0.1:0")
	require.NoError(t, err)
	id, err := uid.New(ln.Addr().String())
	require.NoError(t, err)

	// only PE 0 of 2 shows up
	b, err := New(id, 0, 2, ln)
	require.NoError(t, err)
	defer b.Abort()

	_, err = b.Exchange(context.Background(), peer(0, 4096))
	require.True(t, errors.Is(err, ErrRendezvous), "unexpected error %v", err)
}

func TestServerValidation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	tcases := []struct {
		name string
		req  *JoinRequest
		code codes.Code
	}{
		{
			name: "wrong session",
			req:  &JoinRequest{Session: "other", NRanks: 2, Peer: peer(0, 4096)},
			code: codes.PermissionDenied,
		},
		{
			name: "wrong job size",
			req:  &JoinRequest{Session: "s", NRanks: 3, Peer: peer(0, 4096)},
			code: codes.InvalidArgument,
		},
		{
			name: "rank out of range",
			req:  &JoinRequest{Session: "s", NRanks: 2, Peer: peer(2, 4096)},
			code: codes.InvalidArgument,
		},
	}
	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewServer("s", 2)
			_, err := s.Join(ctx, tc.req)
			require.Equal(t, tc.code, status.Code(err), "unexpected error %v", err)
		})
	}
}

func TestServerDuplicateJoin(t *testing.T) {
	s := NewServer("s", 2)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	first := make(chan error, 1)
	go func() {
		_, err := s.Join(ctx, &JoinRequest{Session: "s", NRanks: 2, Peer: peer(1, 4096)})
		first <- err
	}()

	require.Eventually(t, func() bool {
		s.Lock()
		defer s.Unlock()
		return s.njoined == 1
	}, time.Second, time.Millisecond)

	_, err := s.Join(ctx, &JoinRequest{Session: "s", NRanks: 2, Peer: peer(1, 4096)})
	require.Equal(t, codes.AlreadyExists, status.Code(err))

	// the waiting PE is failed too
	require.Equal(t, codes.AlreadyExists, status.Code(<-first))
}

func TestServerBarrierAndLeave(t *testing.T) {
	s := NewServer("s", 2)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := s.Barrier(ctx, &BarrierRequest{Session: "s", Rank: 0, Epoch: 1})
	require.Equal(t, codes.FailedPrecondition, status.Code(err), "barrier before join")

	wg := sync.WaitGroup{}
	for rank := 0; rank < 2; rank++ {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			if _, err := s.Join(ctx, &JoinRequest{Session: "s", NRanks: 2, Peer: peer(rank, 4096)}); err != nil {
				t.Errorf("PE %d: join failed: %v", rank, err)
				return
			}
			reply, err := s.Barrier(ctx, &BarrierRequest{Session: "s", Rank: rank, Epoch: 1})
			if err != nil {
				t.Errorf("PE %d: barrier failed: %v", rank, err)
				return
			}
			if reply.Epoch != 1 {
				t.Errorf("PE %d: expected epoch 1, got %d", rank, reply.Epoch)
			}
		}(rank)
	}
	wg.Wait()

	reply, err := s.Leave(ctx, &LeaveRequest{Session: "s", Rank: 1})
	require.NoError(t, err)
	require.Equal(t, 1, reply.Remaining)
	reply, err = s.Leave(ctx, &LeaveRequest{Session: "s", Rank: 1})
	require.NoError(t, err)
	require.Equal(t, 1, reply.Remaining, "leaving twice is idempotent")
	reply, err = s.Leave(ctx, &LeaveRequest{Session: "s", Rank: 0})
	require.NoError(t, err)
	require.Equal(t, 0, reply.Remaining)
	require.NoError(t, s.WaitLeft(ctx))
}

func TestOptionsValidate(t *testing.T) {
	tcases := []struct {
		name  string
		opts  options
		valid bool
	}{
		{name: "defaults", opts: options{Address: DefaultAddress, Timeout: 1}, valid: true},
		{name: "missing port", opts: options{Address: "localhost", Timeout: 1}},
		{name: "zero timeout", opts: options{Address: DefaultAddress}},
	}
	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.opts.Validate()
			if tc.valid && err != nil {
				t.Errorf("unexpected error %v", err)
			}
			if !tc.valid && err == nil {
				t.Errorf("expected an error")
			}
		})
	}
}
