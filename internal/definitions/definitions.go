/*
 * MIT License
 *
 * Copyright (c) 2026 Nguyen Thanh Phuong
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

// Package definitions loads and validates status word bit definitions
// from declarative YAML files.
//
// A definitions file maps status categories (e.g. SOLUTION_STATUS) to a
// description and an ordered list of fields. A field is either a single
// bit flag ("mask") or a multi-bit enumerated value ("enum"). The file is
// validated once at load time and treated as read-only afterwards.
package definitions

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Field kinds as they appear in the YAML definitions file.
const (
	FieldMask = "mask"
	FieldEnum = "enum"
)

// Field defines one bit flag or one enumerated bit range within a
// status word.
type Field struct {
	Type string `yaml:"type" json:"type"`
	Name string `yaml:"name" json:"name"`

	// Mask fields: the single bit position tested against the value.
	Bit uint `yaml:"bit" json:"bit,omitempty"`

	// Enum fields: the value is shifted right by Shift, then masked.
	// Mask must cover a contiguous run of low bits (e.g. 0xF).
	Shift  uint              `yaml:"shift" json:"shift,omitempty"`
	Mask   uint64            `yaml:"mask" json:"mask,omitempty"`
	Values map[uint64]string `yaml:"values" json:"values,omitempty"`
}

// Category groups the fields of one status word type.
type Category struct {
	Description string  `yaml:"description" json:"description"`
	Fields      []Field `yaml:"fields" json:"fields"`
}

// Set is a full parsed and validated definitions file.
type Set struct {
	Categories map[string]Category
}

// Parse unmarshals and validates a definitions document.
func Parse(data []byte) (*Set, error) {
	var categories map[string]Category
	if err := yaml.Unmarshal(data, &categories); err != nil {
		return nil, fmt.Errorf("failed to parse definitions YAML: %w", err)
	}

	if len(categories) == 0 {
		return nil, fmt.Errorf("definitions file contains no categories")
	}

	set := &Set{Categories: categories}
	if err := Validate(set); err != nil {
		return nil, err
	}

	return set, nil
}

// Load reads and parses a definitions file from disk.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definitions file: %w", err)
	}
	return Parse(data)
}

// CategoryNames returns all category names in sorted order.
func (s *Set) CategoryNames() []string {
	names := make([]string, 0, len(s.Categories))
	for name := range s.Categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Category returns the named category. The boolean reports whether it
// exists in the set.
func (s *Set) Category(name string) (Category, bool) {
	c, ok := s.Categories[name]
	return c, ok
}
