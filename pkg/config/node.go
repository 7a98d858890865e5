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
	"reflect"
	"sort"
	"strings"
	"unicode"
)

// A node in the configuration tree.
//
// Leaf nodes hold registered fragments. Internal nodes only group their
// children under a common path prefix. Once the tree is first used, a
// struct type mirroring the tree is generated with reflect so that the
// whole configuration can be (un)marshalled in one go.
type node struct {
	path     Path
	ptr      interface{}
	children map[string]*node
	cfgType  reflect.Type
	cfgValue reflect.Value
}

func newNode(path Path, ptr interface{}) *node {
	return &node{
		path:     path.Clone(),
		ptr:      ptr,
		children: map[string]*node{},
	}
}

func (n *node) isLeaf() bool {
	return len(n.children) == 0
}

// add inserts a fragment at the given path.
func (n *node) add(path Path, ptr interface{}) error {
	if err := path.Validate(); err != nil {
		return err
	}

	p := n
	for idx, name := range path.Canonical() {
		if p.ptr != nil {
			return fmt.Errorf("conflict with fragment %q (%T)", p.path, p.ptr)
		}
		c, ok := p.children[name]
		if !ok {
			c = newNode(path.Sub(0, idx+1), nil)
			p.children[name] = c
		}
		p = c
	}

	if p.ptr != nil {
		return fmt.Errorf("conflict with fragment %q (%T)", p.path, p.ptr)
	}
	if !p.isLeaf() {
		return fmt.Errorf("conflict with existing subtree %q", p.path)
	}

	p.path = path.Clone()
	p.ptr = ptr

	return nil
}

// get looks up the node for the given path.
func (n *node) get(path string) *node {
	p := n
	for _, name := range makePath(path).Canonical() {
		c, ok := p.children[name]
		if !ok {
			return nil
		}
		p = c
	}
	return p
}

// sortedChildren returns the children of this node in name order.
func (n *node) sortedChildren() []*node {
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)

	children := make([]*node, 0, len(names))
	for _, name := range names {
		children = append(children, n.children[name])
	}
	return children
}

func (n *node) depthFirst(fn func(*node)) {
	for _, c := range n.sortedChildren() {
		c.depthFirst(fn)
	}
	fn(n)
}

func (n *node) reset() {
	n.depthFirst(func(p *node) {
		if p.ptr != nil {
			p.ptr.(Fragment).Reset()
		}
	})
}

// compile generates the struct type and value mirroring this subtree.
func (n *node) compile() error {
	if n.cfgValue.IsValid() {
		return nil
	}

	if n.ptr != nil {
		n.cfgType = reflect.TypeOf(n.ptr).Elem()
		n.cfgValue = reflect.ValueOf(n.ptr)
		return nil
	}

	children := n.sortedChildren()
	fields := make([]reflect.StructField, 0, len(children))
	for _, c := range children {
		if err := c.compile(); err != nil {
			return err
		}
		fields = append(fields, reflect.StructField{
			Name: c.path.FieldName(),
			Type: reflect.PointerTo(c.cfgType),
			Tag:  reflect.StructTag(c.path.StructTags()),
		})
	}

	n.cfgType = reflect.StructOf(fields)
	n.cfgValue = reflect.New(n.cfgType)
	for _, c := range children {
		n.cfgValue.Elem().FieldByName(c.path.FieldName()).Set(c.cfgValue)
	}

	return nil
}

func (n *node) describe() string {
	str := ""
	n.depthFirst(func(p *node) {
		if p.ptr == nil {
			return
		}
		str += fmt.Sprintf("- %s:\n", p.path)
		for _, line := range strings.Split(strings.TrimSpace(p.ptr.(Fragment).Describe()), "\n") {
			str += "    " + line + "\n"
		}
	})
	return str
}

const (
	pathSep = "."
	wordSep = "-"
)

// Path is a dotted configuration path split into its components.
type Path []string

func makePath(s string) Path {
	if s == "" {
		return Path{}
	}
	return strings.Split(s, pathSep)
}

// Validate checks that none of the path components are empty.
func (p Path) Validate() error {
	for _, name := range p {
		if name == "" {
			return fmt.Errorf("invalid path %q, has empty component", p.String())
		}
	}
	return nil
}

func (p Path) String() string {
	return strings.Join(p, pathSep)
}

// Clone returns a copy of the path.
func (p Path) Clone() Path {
	c := make(Path, len(p))
	copy(c, p)
	return c
}

// Sub returns the [beg, end) components of the path.
func (p Path) Sub(beg, end int) Path {
	return p[beg:end]
}

// Name returns the last component of the path.
func (p Path) Name() string {
	return p[len(p)-1]
}

// FieldName returns the generated struct field name for the path.
func (p Path) FieldName() string {
	return goName(p.Name())
}

// StructTags returns the generated struct field tags for the path.
func (p Path) StructTags() string {
	return fmt.Sprintf(`json:"%s,omitempty"`, p.Name())
}

// Canonical returns the path with components in canonical (Go name) form.
func (p Path) Canonical() Path {
	c := make(Path, 0, len(p))
	for _, word := range p {
		c = append(c, goName(word))
	}
	return c
}

// Len returns the number of components in the path.
func (p Path) Len() int {
	return len(p)
}

func goName(name string) string {
	b := strings.Builder{}
	for _, w := range strings.Split(name, wordSep) {
		if w == "" {
			continue
		}
		r := []rune(w)
		b.WriteRune(unicode.ToUpper(r[0]))
		b.WriteString(string(r[1:]))
	}
	return b.String()
}
