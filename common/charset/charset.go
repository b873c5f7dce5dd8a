// Copyright 2023 The CubeFS Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package charset

import (
	"fmt"
)

// Registry answers pure queries against the charset/collation tables.
type Registry interface {
	IsSupportedCharset(charset string) bool
	IsSupportedCollate(collate string) bool
	CharsetCollateMatch(charset, collate string) bool
}

type collation struct {
	charset        string
	defaultCollate string
	collates       []string
	desc           string
	maxLen         int
}

type registry struct {
	charsets   map[string]struct{}
	collates   map[string]struct{}
	collations map[string]collation
}

var defaultRegistry = newRegistry([]collation{
	{charset: "utf8", defaultCollate: "utf8_bin", collates: []string{"utf8_bin"}, desc: "UTF-8 Unicode", maxLen: 4},
})

// Default returns the built-in registry.
func Default() Registry {
	return defaultRegistry
}

func newRegistry(table []collation) *registry {
	r := &registry{
		charsets:   make(map[string]struct{}),
		collates:   make(map[string]struct{}),
		collations: make(map[string]collation),
	}
	for _, c := range table {
		r.charsets[c.charset] = struct{}{}
		for _, coll := range c.collates {
			r.collates[coll] = struct{}{}
		}
		r.collations[c.charset] = c
	}
	return r
}

func (r *registry) IsSupportedCharset(charset string) bool {
	_, ok := r.charsets[charset]
	return ok
}

func (r *registry) IsSupportedCollate(collate string) bool {
	_, ok := r.collates[collate]
	return ok
}

func (r *registry) CharsetCollateMatch(charset, collate string) bool {
	c, ok := r.collations[charset]
	if !ok {
		return false
	}
	for _, coll := range c.collates {
		if coll == collate {
			return true
		}
	}
	return false
}

// DefaultCollation returns the default collation of charset.
func DefaultCollation(charset string) (string, error) {
	c, ok := defaultRegistry.collations[charset]
	if !ok {
		return "", fmt.Errorf("charset `%s' not support", charset)
	}
	return c.defaultCollate, nil
}

// CharsetByCollation returns the charset that owns collate.
func CharsetByCollation(collate string) (string, error) {
	for name, c := range defaultRegistry.collations {
		for _, coll := range c.collates {
			if coll == collate {
				return name, nil
			}
		}
	}
	return "", fmt.Errorf("collation `%s' not support", collate)
}
