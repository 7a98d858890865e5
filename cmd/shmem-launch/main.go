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

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/intel/symmetric-memory/pkg/heap"
	"github.com/intel/symmetric-memory/pkg/launch"
	logger "github.com/intel/symmetric-memory/pkg/log"
	"github.com/intel/symmetric-memory/pkg/shmem"
	"github.com/intel/symmetric-memory/pkg/utils"
	_ "github.com/intel/symmetric-memory/pkg/version"
)

var log = logger.NewLogger("shmem-launch")

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(),
		"usage: %s [options] -- <PE program> [arguments]\n\noptions:\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	var (
		nranks    = flag.Int("n", 2, "number of PEs to launch.")
		memSize   = flag.String("mem-size", "64Mi", "symmetric heap size of every PE.")
		uidFile   = flag.String("uid-file", "", "file to distribute the unique id in, temporary if empty.")
		killGrace = flag.Duration("kill-grace", launch.DefaultKillGrace, "time PEs get to exit after an abort.")
		reap      = flag.Bool("reap", true, "remove heap segments left behind by dead PEs before launching.")
	)

	flag.Usage = usage
	flag.Parse()
	logger.SetupDebugToggleSignal(syscall.SIGUSR1)

	if flag.NArg() == 0 {
		log.Error("no PE program given")
		flag.Usage()
		os.Exit(1)
	}

	size, err := utils.ParseSize(*memSize)
	if err != nil {
		log.Fatal("%v", err)
	}

	if *reap {
		removed, err := heap.ReapStale(shmem.SegmentDir(), "shmem-*")
		if err != nil {
			log.Warn("failed to reap stale segments: %v", err)
		} else if len(removed) > 0 {
			log.Info("removed %d stale heap segments", len(removed))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	job := launch.Job{
		NRanks:    *nranks,
		MemSize:   size,
		Command:   flag.Args(),
		UIDFile:   *uidFile,
		KillGrace: *killGrace,
	}

	start := time.Now()
	if err := launch.Spawn(ctx, job); err != nil {
		log.Error("job failed: %v", err)
		logger.Flush()
		os.Exit(1)
	}

	log.Info("%d PEs finished in %s", *nranks, time.Since(start).Round(time.Millisecond))
	logger.Flush()
}
