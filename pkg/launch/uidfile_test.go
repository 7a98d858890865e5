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
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/intel/symmetric-memory/pkg/uid"
)

func TestPublishAwait(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uid")
	id, err := uid.New("127.0.0.1:1234")
	require.NoError(t, err)

	go func() {
		time.Sleep(100 * time.Millisecond)
		if err := PublishUID(path, id); err != nil {
			t.Errorf("failed to publish: %v", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got, err := AwaitUID(ctx, path, 10*time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, id, got)
}

func TestAwaitTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uid")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := AwaitUID(ctx, path, 10*time.Millisecond)
	require.True(t, errors.Is(err, context.DeadlineExceeded), "unexpected error %v", err)
}
