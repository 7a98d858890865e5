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

package launch

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/intel/symmetric-memory/pkg/heap"
	"github.com/intel/symmetric-memory/pkg/shmem"
	"github.com/intel/symmetric-memory/pkg/signal"
)

const envHelper = "SHMEM_LAUNCH_HELPER"

// TestHelperProcess is the PE program of the other tests.
func TestHelperProcess(t *testing.T) {
	mode := os.Getenv(envHelper)
	if mode == "" {
		t.Skip("only run as a launched PE")
	}

	env, err := FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	switch mode {
	case "env":
		fmt.Printf("PE %d/%d\n", env.Rank, env.NRanks)
	case "fail":
		if env.Rank == 1 {
			os.Exit(3)
		}
		time.Sleep(time.Minute)
	case "ring":
		if err := ring(); err != nil {
			fmt.Fprintf(os.Stderr, "PE %d: %v\n", env.Rank, err)
			os.Exit(4)
		}
	}
	os.Exit(0)
}

func ring() error {
	ctx := context.Background()
	r := shmem.New()

	env, err := Init(ctx, r)
	if err != nil {
		return err
	}
	defer r.Finalize()

	buf, err := r.Malloc(8 << 10)
	if err != nil {
		return err
	}
	sig, err := r.MallocSignal()
	if err != nil {
		return err
	}
	if err := r.BarrierAll(ctx); err != nil {
		return err
	}

	s, err := r.CreateStream("ring")
	if err != nil {
		return err
	}
	defer s.Destroy()

	src := heap.HostBuffer(make([]byte, 4))
	binary.LittleEndian.PutUint32(src.Bytes(), uint32(env.Rank))
	next := (env.Rank + 1) % env.NRanks
	if err := r.PutSignal(buf.Slice(0, 4), src, sig, 1, signal.Set, next, s); err != nil {
		return err
	}
	if err := r.SignalWait(sig, 1, signal.EQ, s); err != nil {
		return err
	}
	if err := r.Quiet(ctx, s); err != nil {
		return err
	}

	got := int(binary.LittleEndian.Uint32(buf.Bytes()))
	if expected := (env.Rank - 1 + env.NRanks) % env.NRanks; got != expected {
		return fmt.Errorf("read %d, expected %d", got, expected)
	}
	return nil
}

// syncBuffer collects the output of several PEs.
type syncBuffer struct {
	sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.Lock()
	defer b.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.Lock()
	defer b.Unlock()
	return b.buf.String()
}

func helperJob(t *testing.T, mode string, nranks int, stdout *syncBuffer) Job {
	t.Setenv(envHelper, mode)
	t.Setenv("SHMEM_SEGMENT_DIR", t.TempDir())
	return Job{
		NRanks:    nranks,
		MemSize:   1 << 20,
		Command:   []string{os.Args[0], "-test.run=TestHelperProcess"},
		Stdout:    stdout,
		KillGrace: time.Second,
	}
}

func TestSpawn(t *testing.T) {
	stdout := &syncBuffer{}
	job := helperJob(t, "env", 3, stdout)

	require.NoError(t, Spawn(context.Background(), job))
	for rank := 0; rank < 3; rank++ {
		require.Contains(t, stdout.String(), fmt.Sprintf("PE %d/3\n", rank))
	}
}

func TestSpawnAbort(t *testing.T) {
	job := helperJob(t, "fail", 3, &syncBuffer{})

	start := time.Now()
	err := Spawn(context.Background(), job)
	require.Less(t, time.Since(start), 30*time.Second, "job was not aborted")

	merr, ok := err.(*multierror.Error)
	require.True(t, ok, "expected multierror, got %v", err)
	require.Len(t, merr.Errors, 3)
	for i, err := range merr.Errors {
		if i == 1 {
			require.False(t, errors.Is(err, ErrAborted), "PE 1 should have failed on its own")
			require.True(t, strings.Contains(err.Error(), "PE 1 failed"), "unexpected error %v", err)
		} else {
			require.True(t, errors.Is(err, ErrAborted), "PE %d: unexpected error %v", i, err)
		}
	}
}

func TestSpawnRing(t *testing.T) {
	job := helperJob(t, "ring", 4, &syncBuffer{})
	require.NoError(t, Spawn(context.Background(), job))
}

func TestSpawnInvalid(t *testing.T) {
	require.True(t, errors.Is(Spawn(context.Background(), Job{NRanks: 0, Command: []string{"true"}}), ErrEnv))
	require.True(t, errors.Is(Spawn(context.Background(), Job{NRanks: 1}), ErrEnv))
}
