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

package heap

import (
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/pkg/errors"
)

// SegmentOwner returns the PID of the process that created the segment at path.
func SegmentOwner(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return -1, errors.Wrapf(err, "failed to open segment %q", path)
	}
	defer file.Close()

	hdr := make([]byte, hdrReady)
	if _, err := io.ReadFull(file, hdr); err != nil {
		return -1, errors.Wrapf(err, "failed to read segment header %q", path)
	}
	if string(hdr[hdrMagic:hdrMagic+len(segmentMagic)]) != segmentMagic {
		return -1, errors.Errorf("%q is not a segment", path)
	}

	return int(binary.LittleEndian.Uint32(hdr[hdrPID:])), nil
}

// ownerAlive checks if the process pid still exists.
func ownerAlive(pid int) (bool, error) {
	if pid <= 0 {
		return false, nil
	}

	p, err := os.FindProcess(pid)
	if err != nil {
		return false, errors.Wrapf(err, "FindProcess() failed for PID %d", pid)
	}

	err = p.Signal(syscall.Signal(0))
	switch {
	case err == nil:
		return true, nil
	case err == os.ErrProcessDone, errors.Is(err, syscall.ESRCH):
		return false, nil
	case errors.Is(err, syscall.EPERM):
		return true, nil
	}

	return false, errors.Wrapf(err, "failed to check process %d", pid)
}

// ReapStale removes segments matching pattern in dir that were left behind
// by processes which no longer exist. It returns the removed paths.
func ReapStale(dir, pattern string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid segment pattern %q", pattern)
	}

	removed := []string{}
	for _, path := range paths {
		pid, err := SegmentOwner(path)
		if err != nil {
			log.Debug("skipping %s: %v", path, err)
			continue
		}
		alive, err := ownerAlive(pid)
		if err != nil {
			log.Warn("can't tell if owner of %s is alive: %v", path, err)
			continue
		}
		if alive {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return removed, errors.Wrapf(err, "failed to remove stale segment %q", path)
		}
		log.Info("removed stale segment %s of PID %d", path, pid)
		removed = append(removed, path)
	}

	return removed, nil
}
