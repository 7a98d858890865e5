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

package config

import (
	"fmt"
	"os"
	"reflect"
	"sync"

	"github.com/hashicorp/go-multierror"
	"sigs.k8s.io/yaml"
)

// Fragment is a piece of runtime configuration registered by some package.
type Fragment interface {
	// Reset resets the fragment to its defaults.
	Reset()
	// Describe returns a description of the fragment.
	Describe() string
}

// FragmentValidator is a Fragment that can validate its own content.
type FragmentValidator interface {
	Validate() error
}

// FragmentNotifier is a Fragment that wants to know about configuration updates.
type FragmentNotifier interface {
	Configured() error
}

var (
	lock sync.Mutex
	root = newNode(nil, nil)
)

// Register registers a configuration fragment at the given dotted path.
func Register(path string, ptr interface{}) error {
	if ptr == nil {
		return configError("can't register nil fragment at %q", path)
	}
	t := reflect.TypeOf(ptr)
	if t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Struct {
		return configError("can't register %T at %q, not a pointer to struct", ptr, path)
	}
	if _, ok := ptr.(Fragment); !ok {
		return configError("can't register %T at %q, not a Fragment", ptr, path)
	}

	p := makePath(path)
	if p.Len() == 0 {
		return configError("can't register %T with an empty path", ptr)
	}

	lock.Lock()
	defer lock.Unlock()

	if root.cfgValue.IsValid() {
		return configError("can't register %q, configuration already in use", path)
	}
	if err := root.add(p, ptr); err != nil {
		return configError("failed to register %q: %v", path, err)
	}

	ptr.(Fragment).Reset()
	log.Debugf("registered configuration fragment %q (%T)", path, ptr)

	return nil
}

// GetConfig returns the fragment registered at the given path.
func GetConfig(path string) (interface{}, bool) {
	lock.Lock()
	defer lock.Unlock()

	n := root.get(path)
	if n == nil || n.ptr == nil {
		return nil, false
	}
	return n.ptr, true
}

// SetYAML resets all fragments, then updates them from the given YAML data.
func SetYAML(raw []byte) error {
	lock.Lock()
	defer lock.Unlock()

	if err := root.compile(); err != nil {
		return configError("failed to compile configuration: %v", err)
	}

	root.reset()
	if err := yaml.UnmarshalStrict(raw, root.cfgValue.Interface()); err != nil {
		return configError("failed to parse configuration: %v", err)
	}

	if err := root.validate(); err != nil {
		root.reset()
		return configError("invalid configuration: %v", err)
	}

	return root.notify()
}

// ParseYAMLFile updates the configuration from the given file.
func ParseYAMLFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return configError("failed to read configuration file %q: %v", path, err)
	}
	log.Infof("using configuration file %q", path)
	return SetYAML(raw)
}

// GetYAML returns the current configuration as YAML.
func GetYAML() ([]byte, error) {
	lock.Lock()
	defer lock.Unlock()

	if err := root.compile(); err != nil {
		return nil, configError("failed to compile configuration: %v", err)
	}
	return yaml.Marshal(root.cfgValue.Interface())
}

// Reset resets all registered fragments to their defaults.
func Reset() error {
	lock.Lock()
	defer lock.Unlock()

	root.reset()
	return root.notify()
}

// Describe returns a description of the fragments at or under the given paths.
func Describe(paths ...string) string {
	lock.Lock()
	defer lock.Unlock()

	if len(paths) == 0 {
		return root.describe()
	}

	str := ""
	for _, path := range paths {
		if n := root.get(path); n != nil {
			str += n.describe()
		}
	}
	return str
}

// ReInitialize drops all registered fragments. Intended for tests.
func ReInitialize() {
	lock.Lock()
	defer lock.Unlock()
	root = newNode(nil, nil)
}

// validate runs all fragment validators, collecting every error.
func (n *node) validate() error {
	var errors *multierror.Error

	n.depthFirst(func(p *node) {
		if v, ok := p.ptr.(FragmentValidator); ok {
			if err := v.Validate(); err != nil {
				errors = multierror.Append(errors, fmt.Errorf("%s: %w", p.path, err))
			}
		}
	})

	return errors.ErrorOrNil()
}

// notify lets fragments know that their configuration was updated.
func (n *node) notify() error {
	var errors *multierror.Error

	n.depthFirst(func(p *node) {
		if v, ok := p.ptr.(FragmentNotifier); ok {
			if err := v.Configured(); err != nil {
				errors = multierror.Append(errors, fmt.Errorf("%s: %w", p.path, err))
			}
		}
	})

	return errors.ErrorOrNil()
}

func configError(format string, args ...interface{}) error {
	return fmt.Errorf("config: "+format, args...)
}
