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

package stream

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestOrdering(t *testing.T) {
	s := New("ordering")
	defer s.Destroy()

	var (
		lock  sync.Mutex
		order []int
	)
	for i := 0; i < 100; i++ {
		i := i
		_, err := s.Enqueue(fmt.Sprintf("op #%d", i), func(context.Context) error {
			lock.Lock()
			defer lock.Unlock()
			order = append(order, i)
			return nil
		})
		require.NoError(t, err)
	}

	require.NoError(t, s.Synchronize(context.Background()))
	require.Len(t, order, 100)
	for i, v := range order {
		require.Equal(t, i, v, "operations executed out of order")
	}
	require.Zero(t, s.Pending())
}

func TestEnqueueDoesNotBlock(t *testing.T) {
	s := New("gate")
	defer s.Destroy()

	gate := make(chan struct{})
	blocked, err := s.Enqueue("gate", func(ctx context.Context) error {
		select {
		case <-gate:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	require.NoError(t, err)

	ran := false
	after, err := s.Enqueue("after", func(context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, err, "enqueue behind a blocked op")
	require.Equal(t, 2, s.Pending())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.True(t, errors.Is(s.Synchronize(ctx), context.DeadlineExceeded))
	require.False(t, ran, "op behind gate ran early")

	close(gate)
	require.NoError(t, blocked.Wait(context.Background()))
	require.NoError(t, after.Wait(context.Background()))
	require.True(t, ran)
}

func TestErrorReporting(t *testing.T) {
	s := New("errors")
	defer s.Destroy()

	failure := errors.New("copy failed")
	e, err := s.Enqueue("failing", func(context.Context) error { return failure })
	require.NoError(t, err)
	_, err = s.Enqueue("succeeding", func(context.Context) error { return nil })
	require.NoError(t, err)

	require.True(t, errors.Is(s.Synchronize(context.Background()), failure))
	require.True(t, errors.Is(e.Err(), failure))
	require.NoError(t, s.Synchronize(context.Background()), "errors are reported once")
}

func TestDestroy(t *testing.T) {
	s := New("destroy")

	started := make(chan struct{})
	waiting, err := s.Enqueue("wait forever", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	require.NoError(t, err)
	queued, err := s.Enqueue("never runs", func(context.Context) error { return nil })
	require.NoError(t, err)

	<-started
	require.NoError(t, s.Destroy())

	require.True(t, errors.Is(waiting.Err(), ErrDestroyed))
	require.True(t, errors.Is(queued.Err(), ErrDestroyed))

	_, err = s.Enqueue("late", func(context.Context) error { return nil })
	require.True(t, errors.Is(err, ErrDestroyed))
	require.True(t, errors.Is(s.Destroy(), ErrDestroyed))
	require.True(t, errors.Is(s.Synchronize(context.Background()), ErrDestroyed))
}

func TestIDs(t *testing.T) {
	a, b := New("a"), New("b")
	defer a.Destroy()
	defer b.Destroy()
	require.NotEqual(t, a.ID(), b.ID())
}
