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

package definitions

import (
	"fmt"
	"math/bits"
)

// maxBit is the highest addressable bit position in a status word.
const maxBit = 63

// Validate checks definitions correctness.
// It performs declarative validation only and MUST NOT mutate the set.
//
// Within one category, every bit may belong to at most one field;
// overlapping bit spans make decoding ambiguous and are rejected.
func Validate(set *Set) error {
	type span struct {
		start uint
		end   uint
		field string
	}

	for name, cat := range set.Categories {
		if len(cat.Fields) == 0 {
			return fmt.Errorf("category %q: no fields defined", name)
		}

		var spans []span

		for i, f := range cat.Fields {
			if f.Name == "" {
				return fmt.Errorf("category %q: field %d has no name", name, i)
			}

			var start, end uint

			switch f.Type {
			case FieldMask:
				if f.Bit > maxBit {
					return fmt.Errorf(
						"category %q: field %q: bit %d out of range (0-%d)",
						name, f.Name, f.Bit, maxBit,
					)
				}
				start, end = f.Bit, f.Bit

			case FieldEnum:
				if f.Mask == 0 {
					return fmt.Errorf("category %q: field %q: enum mask must not be zero", name, f.Name)
				}
				// Mask must be a contiguous run of low bits (0x1, 0x3, 0x7, 0xF, ...)
				// so the extracted window is well defined.
				if f.Mask&(f.Mask+1) != 0 {
					return fmt.Errorf(
						"category %q: field %q: enum mask 0x%X is not contiguous",
						name, f.Name, f.Mask,
					)
				}
				width := uint(bits.Len64(f.Mask))
				if f.Shift > maxBit || f.Shift+width-1 > maxBit {
					return fmt.Errorf(
						"category %q: field %q: enum window (shift=%d, mask=0x%X) exceeds bit %d",
						name, f.Name, f.Shift, f.Mask, maxBit,
					)
				}
				if len(f.Values) == 0 {
					return fmt.Errorf("category %q: field %q: enum has no values", name, f.Name)
				}
				for v := range f.Values {
					if v > f.Mask {
						return fmt.Errorf(
							"category %q: field %q: enum value %d does not fit mask 0x%X",
							name, f.Name, v, f.Mask,
						)
					}
				}
				start, end = f.Shift, f.Shift+width-1

			default:
				return fmt.Errorf(
					"category %q: field %q: unknown type %q (must be %q or %q)",
					name, f.Name, f.Type, FieldMask, FieldEnum,
				)
			}

			// Overlap check (inclusive spans).
			for _, s := range spans {
				if !(end < s.start || start > s.end) {
					return fmt.Errorf(
						"category %q: bit overlap: field %q (bits %d-%d) overlaps field %q (bits %d-%d)",
						name, f.Name, start, end, s.field, s.start, s.end,
					)
				}
			}

			spans = append(spans, span{start: start, end: end, field: f.Name})
		}
	}

	return nil
}
