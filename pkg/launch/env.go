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

// Package launch starts the PEs of a job as local processes and helps PE
// programs pick up their place in the job.
//
// A launched PE finds its rank, the size of the job, the size of its heap and
// the file used to distribute the unique id of the job in its environment.
// PE 0 creates the unique id and publishes it in the file, the others wait
// for it to appear.
package launch

import (
	"os"
	"strconv"

	"github.com/pkg/errors"

	logger "github.com/intel/symmetric-memory/pkg/log"
	"github.com/intel/symmetric-memory/pkg/utils"
)

const (
	// EnvRank is the environment variable carrying the rank of a PE.
	EnvRank = "SHMEM_RANK"
	// EnvNRanks is the environment variable carrying the number of PEs.
	EnvNRanks = "SHMEM_NRANKS"
	// EnvMemSize is the environment variable carrying the heap size of a PE.
	EnvMemSize = "SHMEM_MEM_SIZE"
	// EnvUIDFile is the environment variable carrying the unique id file.
	EnvUIDFile = "SHMEM_UID_FILE"
)

// ErrEnv is returned for a missing or malformed launch environment.
var ErrEnv = errors.New("invalid launch environment")

var log = logger.NewLogger("launch")

// Env is the launch environment of a PE.
type Env struct {
	Rank    int
	NRanks  int
	MemSize uint64
	UIDFile string
}

// FromEnv parses the launch environment of the process.
func FromEnv() (Env, error) {
	return parseEnv(os.LookupEnv)
}

func parseEnv(lookup func(string) (string, bool)) (Env, error) {
	var (
		e   Env
		err error
	)

	get := func(name string) (string, error) {
		value, ok := lookup(name)
		if !ok || value == "" {
			return "", errors.Wrapf(ErrEnv, "%s not set", name)
		}
		return value, nil
	}

	value, err := get(EnvRank)
	if err != nil {
		return Env{}, err
	}
	if e.Rank, err = strconv.Atoi(value); err != nil {
		return Env{}, errors.Wrapf(ErrEnv, "%s: %v", EnvRank, err)
	}

	if value, err = get(EnvNRanks); err != nil {
		return Env{}, err
	}
	if e.NRanks, err = strconv.Atoi(value); err != nil {
		return Env{}, errors.Wrapf(ErrEnv, "%s: %v", EnvNRanks, err)
	}

	if value, err = get(EnvMemSize); err != nil {
		return Env{}, err
	}
	if e.MemSize, err = utils.ParseSize(value); err != nil {
		return Env{}, errors.Wrapf(ErrEnv, "%s: %v", EnvMemSize, err)
	}

	if e.UIDFile, err = get(EnvUIDFile); err != nil {
		return Env{}, err
	}

	if e.NRanks <= 0 || e.Rank < 0 || e.Rank >= e.NRanks {
		return Env{}, errors.Wrapf(ErrEnv, "invalid rank %d of %d PEs", e.Rank, e.NRanks)
	}

	return e, nil
}

// Environ returns the environment variables describing e.
func (e Env) Environ() []string {
	return []string{
		EnvRank + "=" + strconv.Itoa(e.Rank),
		EnvNRanks + "=" + strconv.Itoa(e.NRanks),
		EnvMemSize + "=" + strconv.FormatUint(e.MemSize, 10),
		EnvUIDFile + "=" + e.UIDFile,
	}
}
