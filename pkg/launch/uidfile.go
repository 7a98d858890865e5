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
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/intel/symmetric-memory/pkg/uid"
)

// DefaultPollInterval is the default interval of checking for the id file.
const DefaultPollInterval = 50 * time.Millisecond

// PublishUID atomically writes id into the file at path.
func PublishUID(path string, id uid.ID) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrapf(err, "failed to publish unique id")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(id.String() + "\n"); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "failed to write unique id")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "failed to write unique id")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "failed to publish unique id")
	}

	log.Debug("published unique id %s in %s", id.Short(), path)

	return nil
}

// AwaitUID waits until a unique id is published at path and returns it.
func AwaitUID(ctx context.Context, path string, poll time.Duration) (uid.ID, error) {
	if poll <= 0 {
		poll = DefaultPollInterval
	}

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			return uid.Parse(strings.TrimSpace(string(data)))
		case !os.IsNotExist(err):
			return uid.ID{}, errors.Wrapf(err, "failed to read unique id")
		}

		select {
		case <-ctx.Done():
			return uid.ID{}, errors.Wrapf(ctx.Err(), "no unique id published in %s", path)
		case <-ticker.C:
		}
	}
}
