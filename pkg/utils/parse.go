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

package utils

import (
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/api/resource"
)

// ParseEnabled parses an enabled/disabled state from the given string.
func ParseEnabled(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "on", "true", "enable", "enabled", "yes", "1":
		return true, nil
	case "off", "false", "disable", "disabled", "no", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid enabled/disabled state %q", value)
}

// ParseSize parses a memory size given as a plain byte count or as a
// quantity with a binary or decimal suffix (for instance 64Mi or 1G).
func ParseSize(value string) (uint64, error) {
	q, err := resource.ParseQuantity(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid memory size %q: %v", value, err)
	}
	size, ok := q.AsInt64()
	if !ok || size < 0 {
		return 0, fmt.Errorf("invalid memory size %q", value)
	}
	return uint64(size), nil
}

// FormatSize formats a memory size using binary suffixes where exact.
func FormatSize(size uint64) string {
	return resource.NewQuantity(int64(size), resource.BinarySI).String()
}
