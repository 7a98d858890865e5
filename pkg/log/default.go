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

package log

import (
	"os"
	"path/filepath"
)

// deflog is named after the binary until a PE program renames it.
var deflog = log.get(filepath.Base(filepath.Clean(os.Args[0])))

// Default returns the default Logger.
func Default() Logger {
	return defaultLogger()
}

// SetDefaultSource makes the logger of source the default one. PE programs
// use it to tag process-wide messages, including grpc ones, with their rank.
func SetDefaultSource(source string) Logger {
	l := log.get(source)
	log.Lock()
	deflog = l
	log.Unlock()
	return l
}

func defaultLogger() *logger {
	log.RLock()
	defer log.RUnlock()
	return deflog
}
