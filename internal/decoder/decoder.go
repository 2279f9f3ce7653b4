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

// Package decoder turns integer status words into human-readable flag
// lists based on field definitions.
//
// Decoding is a pure function of the value and the definitions: single
// bit fields are active when their bit is set, enumerated fields always
// contribute one line (named if mapped, an explicit unknown marker
// otherwise).
package decoder

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/phuonguno98/statusdeck/internal/definitions"
)

// Flag is one decoded line of output.
type Flag struct {
	// Name of the field that matched.
	Name string `json:"name"`

	// Detail is the enum value name ("Unknown value (N)" if unmapped).
	// Empty for single-bit flags.
	Detail string `json:"detail,omitempty"`

	// Value is the integer extracted from an enum bit range.
	Value uint64 `json:"value,omitempty"`

	// Unknown marks an enum value absent from the definitions.
	Unknown bool `json:"unknown,omitempty"`
}

// String renders the flag the way the UI displays it.
func (f Flag) String() string {
	if f.Detail == "" {
		return f.Name
	}
	return fmt.Sprintf("%s: %s", f.Name, f.Detail)
}

// Decode returns the active flags of a status value, in definition order.
//
// Mask fields appear only when their bit is set. Enum fields always
// appear; an extracted value missing from the mapping is reported as
// unknown rather than omitted or treated as an error.
func Decode(value uint64, fields []definitions.Field) []Flag {
	flags := make([]Flag, 0, len(fields))

	for _, f := range fields {
		switch f.Type {
		case definitions.FieldMask:
			if (value>>f.Bit)&1 == 1 {
				flags = append(flags, Flag{Name: f.Name})
			}

		case definitions.FieldEnum:
			extracted := (value >> f.Shift) & f.Mask
			name, ok := f.Values[extracted]
			if !ok {
				name = fmt.Sprintf("Unknown value (%d)", extracted)
			}
			flags = append(flags, Flag{
				Name:    f.Name,
				Detail:  name,
				Value:   extracted,
				Unknown: !ok,
			})
		}
	}

	return flags
}

// ParseValue parses user input into a status value.
//
// Input is decimal by default; a 0x prefix switches to hexadecimal,
// since sensor documentation quotes status words both ways. Negative,
// empty and non-numeric input is rejected with a user-facing message.
func ParseValue(input string) (uint64, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return 0, errors.New("please enter a status value to decode")
	}
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("invalid status value %q: must not be negative", s)
	}

	base := 10
	digits := s
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		base = 16
		digits = s[2:]
	}

	value, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, fmt.Errorf("invalid status value %q: exceeds 64 bits", s)
		}
		return 0, fmt.Errorf("invalid status value %q: please enter a valid integer", s)
	}

	return value, nil
}
