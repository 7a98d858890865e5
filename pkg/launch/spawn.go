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
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// ErrAborted is reported for PEs killed because another PE failed.
var ErrAborted = errors.New("aborted")

// DefaultKillGrace is the time PEs get to exit after an abort.
const DefaultKillGrace = 5 * time.Second

// Job describes a job to launch.
type Job struct {
	// NRanks is the number of PEs to start.
	NRanks int
	// MemSize is the heap size of every PE.
	MemSize uint64
	// Command is the PE program and its arguments.
	Command []string
	// UIDFile is the unique id file, a temporary one if empty.
	UIDFile string
	// Stdout and Stderr receive the output of the PEs, os.Stdout and os.Stderr if nil.
	Stdout io.Writer
	Stderr io.Writer
	// KillGrace is the time PEs get to exit after an abort.
	KillGrace time.Duration
}

// pe is a launched PE process.
type pe struct {
	rank int
	cmd  *exec.Cmd
	err  error
}

// Spawn starts the PEs of the job and waits for them. If any PE fails, the
// others are terminated.
func Spawn(ctx context.Context, job Job) error {
	if job.NRanks <= 0 {
		return errors.Wrapf(ErrEnv, "invalid number of PEs %d", job.NRanks)
	}
	if len(job.Command) == 0 {
		return errors.Wrap(ErrEnv, "no command to launch")
	}
	if job.Stdout == nil {
		job.Stdout = os.Stdout
	}
	if job.Stderr == nil {
		job.Stderr = os.Stderr
	}
	if job.KillGrace <= 0 {
		job.KillGrace = DefaultKillGrace
	}

	if job.UIDFile == "" {
		dir, err := os.MkdirTemp("", "shmem-launch-")
		if err != nil {
			return errors.Wrap(err, "failed to create unique id directory")
		}
		defer os.RemoveAll(dir)
		job.UIDFile = filepath.Join(dir, "uid")
	} else {
		os.Remove(job.UIDFile)
		defer os.Remove(job.UIDFile)
	}

	ctx, abort := context.WithCancel(ctx)
	defer abort()

	pes := make([]*pe, job.NRanks)
	for rank := range pes {
		p, err := start(job, rank)
		if err != nil {
			for _, started := range pes[:rank] {
				started.cmd.Process.Kill()
				started.cmd.Wait()
			}
			return err
		}
		pes[rank] = p
	}

	log.Info("launched %d PEs of %v", job.NRanks, job.Command)

	done := make(chan struct{})
	go terminate(ctx, done, pes, job.KillGrace)

	var (
		wg      sync.WaitGroup
		lock    sync.Mutex
		aborted bool
	)
	for _, p := range pes {
		wg.Add(1)
		go func(p *pe) {
			defer wg.Done()
			err := p.cmd.Wait()

			lock.Lock()
			defer lock.Unlock()

			switch {
			case err == nil:
				log.Debug("PE %d exited", p.rank)
			case aborted:
				p.err = errors.Wrapf(ErrAborted, "PE %d: %v", p.rank, err)
			default:
				p.err = errors.Wrapf(err, "PE %d failed", p.rank)
				log.Error("PE %d failed (%v), aborting the job...", p.rank, err)
				aborted = true
				abort()
			}
		}(p)
	}
	wg.Wait()
	close(done)

	var result *multierror.Error
	for _, p := range pes {
		if p.err != nil {
			result = multierror.Append(result, p.err)
		}
	}
	return result.ErrorOrNil()
}

// terminate stops all PEs once ctx is cancelled, killing the ones that
// don't exit within grace.
func terminate(ctx context.Context, done <-chan struct{}, pes []*pe, grace time.Duration) {
	select {
	case <-done:
		return
	case <-ctx.Done():
	}

	for _, p := range pes {
		p.cmd.Process.Signal(syscall.SIGTERM)
	}

	select {
	case <-done:
	case <-time.After(grace):
		log.Warn("PEs did not exit in %s, killing them...", grace)
		for _, p := range pes {
			p.cmd.Process.Kill()
		}
	}
}

// start starts PE rank of the job.
func start(job Job, rank int) (*pe, error) {
	env := Env{
		Rank:    rank,
		NRanks:  job.NRanks,
		MemSize: job.MemSize,
		UIDFile: job.UIDFile,
	}

	cmd := exec.Command(job.Command[0], job.Command[1:]...)
	cmd.Env = append(os.Environ(), env.Environ()...)
	cmd.Stdout = job.Stdout
	cmd.Stderr = job.Stderr

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(err, "failed to start PE %d", rank)
	}

	log.Debug("started PE %d (pid %d)", rank, cmd.Process.Pid)

	return &pe{rank: rank, cmd: cmd}, nil
}
