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

// shmem-ring passes a buffer around a ring of PEs. It is meant to be started
// by shmem-launch, which sets up the launch environment of every PE.
package main

import (
	"context"
	"encoding/binary"
	"flag"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"github.com/intel/symmetric-memory/pkg/heap"
	"github.com/intel/symmetric-memory/pkg/instrumentation"
	"github.com/intel/symmetric-memory/pkg/launch"
	logger "github.com/intel/symmetric-memory/pkg/log"
	"github.com/intel/symmetric-memory/pkg/shmem"
	"github.com/intel/symmetric-memory/pkg/signal"
	"github.com/intel/symmetric-memory/pkg/utils"
	_ "github.com/intel/symmetric-memory/pkg/version"
)

var log = logger.NewLogger("shmem-ring")

func main() {
	flag.Parse()
	configure()

	logger.SetupDebugToggleSignal(syscall.SIGUSR1)
	rate := logger.Interval(time.Minute)
	logger.SetGrpcLogger("grpc", &rate)

	env, err := launch.FromEnv()
	if err != nil {
		log.Fatal("%v", err)
	}
	log = logger.SetDefaultSource(fmt.Sprintf("pe%d", env.Rank))

	size, err := utils.ParseSize(opt.size)
	if err != nil || size < 4 {
		log.Fatal("invalid buffer size %q", opt.size)
	}

	instrumentation.SetPE(env.Rank)
	if err := instrumentation.Start(); err != nil {
		log.Fatal("failed to start instrumentation: %v", err)
	}
	defer instrumentation.Stop()

	ctx := context.Background()
	r := shmem.Default()

	if _, err := launch.Init(ctx, r); err != nil {
		log.Fatal("failed to initialize: %v", err)
	}

	err = ring(ctx, r, env, size)
	if ferr := r.Finalize(); err == nil {
		err = ferr
	}
	if err != nil {
		log.Error("PE %d: %v", env.Rank, err)
		logger.Flush()
		os.Exit(1)
	}
	logger.Flush()
}

// ring passes the buffer around the ring opt.rounds times. In every round
// each PE stamps the buffer with the round and its rank and sends it on.
func ring(ctx context.Context, r *shmem.Runtime, env launch.Env, size uint64) error {
	buf, err := r.Malloc(size)
	if err != nil {
		return err
	}
	defer r.Free(buf)

	sig, err := r.MallocSignal()
	if err != nil {
		return err
	}
	defer r.FreeSignal(sig)

	if err := r.BarrierAll(ctx); err != nil {
		return err
	}

	s, err := r.CreateStream("ring")
	if err != nil {
		return err
	}
	defer s.Destroy()

	var (
		me   = env.Rank
		next = (me + 1) % env.NRanks
		prev = (me - 1 + env.NRanks) % env.NRanks
		src  = heap.HostBuffer(make([]byte, size))
	)

	start := time.Now()
	for round := 1; round <= opt.rounds; round++ {
		binary.LittleEndian.PutUint32(src.Bytes(), uint32(round<<16|me))
		if err := r.PutSignal(buf, src, sig, 1, signal.Add, next, s); err != nil {
			return err
		}
		if err := r.SignalWait(sig, int32(round), signal.GE, s); err != nil {
			return err
		}
		if err := r.Quiet(ctx, s); err != nil {
			return err
		}

		stamp := binary.LittleEndian.Uint32(buf.Bytes())
		if from, rnd := int(stamp&0xffff), int(stamp>>16); from != prev || rnd < round {
			return errors.Errorf("round %d: got stamp of PE %d round %d, expected PE %d", round, from, rnd, prev)
		}

		// keep the next round from overwriting buf before it is checked
		if err := r.BarrierAllOnStream(s); err != nil {
			return err
		}
	}
	if err := r.Quiet(ctx, s); err != nil {
		return err
	}

	stats, err := r.HeapStats()
	if err != nil {
		return err
	}
	log.Info("PE %d: %d rounds of %s in %s (heap in use %s)", me, opt.rounds,
		utils.FormatSize(size), time.Since(start).Round(time.Microsecond), utils.FormatSize(stats.InUse))

	return r.BarrierAll(ctx)
}
