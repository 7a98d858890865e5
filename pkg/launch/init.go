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

	"github.com/pkg/errors"

	"github.com/intel/symmetric-memory/pkg/shmem"
	"github.com/intel/symmetric-memory/pkg/uid"
)

// Init initializes r as the PE described by the launch environment. PE 0
// creates and publishes the unique id of the job, the others wait for it.
func Init(ctx context.Context, r *shmem.Runtime) (Env, error) {
	env, err := FromEnv()
	if err != nil {
		return Env{}, err
	}

	var id uid.ID
	if env.Rank == 0 {
		if id, err = r.GetUniqueID(); err != nil {
			return Env{}, err
		}
		if err = PublishUID(env.UIDFile, id); err != nil {
			return Env{}, errors.Wrap(shmem.ErrBootstrap, err.Error())
		}
	} else {
		if id, err = AwaitUID(ctx, env.UIDFile, DefaultPollInterval); err != nil {
			return Env{}, errors.Wrap(shmem.ErrBootstrap, err.Error())
		}
	}

	if err := r.Init(ctx, env.Rank, env.NRanks, env.MemSize, id); err != nil {
		return Env{}, err
	}

	return env, nil
}
