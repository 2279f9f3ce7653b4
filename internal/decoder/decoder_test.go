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

package decoder

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/phuonguno98/statusdeck/internal/definitions"
)

func maskFields() []definitions.Field {
	return []definitions.Field{
		{Type: definitions.FieldMask, Bit: 0, Name: "MAIN_POWER_OK"},
		{Type: definitions.FieldMask, Bit: 1, Name: "IMU_POWER_OK"},
		{Type: definitions.FieldMask, Bit: 4, Name: "TEMPERATURE_OK"},
	}
}

func enumField() definitions.Field {
	return definitions.Field{
		Type:  definitions.FieldEnum,
		Name:  "SOLUTION_MODE",
		Shift: 0,
		Mask:  0xF,
		Values: map[uint64]string{
			0: "UNINITIALIZED",
			1: "VERTICAL_GYRO",
			2: "AHRS",
			3: "NAV_VELOCITY",
			4: "NAV_POSITION",
		},
	}
}

func TestDecode_ZeroValue(t *testing.T) {
	flags := Decode(0, maskFields())
	if len(flags) != 0 {
		t.Errorf("Decode(0) with mask-only fields = %v, want empty", flags)
	}
}

func TestDecode_SingleBits(t *testing.T) {
	fields := maskFields()

	// Toggling exactly one defined bit yields exactly that flag.
	for _, f := range fields {
		value := uint64(1) << f.Bit
		flags := Decode(value, fields)
		if len(flags) != 1 {
			t.Fatalf("Decode(1<<%d) returned %d flags, want 1", f.Bit, len(flags))
		}
		if flags[0].Name != f.Name {
			t.Errorf("Decode(1<<%d) = %q, want %q", f.Bit, flags[0].Name, f.Name)
		}
	}
}

func TestDecode_UndefinedBitsIgnored(t *testing.T) {
	// Bit 2 has no definition; only named bits may match.
	flags := Decode(1<<2|1<<4, maskFields())
	if len(flags) != 1 || flags[0].Name != "TEMPERATURE_OK" {
		t.Errorf("Decode() = %v, want only TEMPERATURE_OK", flags)
	}
}

func TestDecode_PreservesDefinitionOrder(t *testing.T) {
	flags := Decode(1<<0|1<<1|1<<4, maskFields())
	want := []string{"MAIN_POWER_OK", "IMU_POWER_OK", "TEMPERATURE_OK"}

	if len(flags) != len(want) {
		t.Fatalf("Decode() returned %d flags, want %d", len(flags), len(want))
	}
	for i, name := range want {
		if flags[i].Name != name {
			t.Errorf("flags[%d].Name = %q, want %q", i, flags[i].Name, name)
		}
	}
}

func TestDecode_EnumMappedValues(t *testing.T) {
	f := enumField()
	fields := []definitions.Field{f}

	for value, name := range f.Values {
		flags := Decode(value, fields)
		if len(flags) != 1 {
			t.Fatalf("Decode(%d) returned %d flags, want 1", value, len(flags))
		}
		if flags[0].Detail != name {
			t.Errorf("Decode(%d) detail = %q, want %q", value, flags[0].Detail, name)
		}
		if flags[0].Unknown {
			t.Errorf("Decode(%d) marked unknown, value is mapped", value)
		}
		if flags[0].Value != value {
			t.Errorf("Decode(%d) extracted value = %d", value, flags[0].Value)
		}
	}
}

func TestDecode_EnumUnknownValue(t *testing.T) {
	flags := Decode(9, []definitions.Field{enumField()})
	if len(flags) != 1 {
		t.Fatalf("Decode(9) returned %d flags, want 1", len(flags))
	}

	// Unmapped values are reported explicitly, never omitted.
	if !flags[0].Unknown {
		t.Error("Decode(9) not marked unknown")
	}
	if flags[0].Detail != "Unknown value (9)" {
		t.Errorf("Decode(9) detail = %q, want %q", flags[0].Detail, "Unknown value (9)")
	}
}

func TestDecode_EnumShiftAndMask(t *testing.T) {
	f := definitions.Field{
		Type:  definitions.FieldEnum,
		Name:  "CLOCK_STATE",
		Shift: 1,
		Mask:  0xF,
		Values: map[uint64]string{
			2: "STEERING",
		},
	}

	// Value 0b...00101 -> bits 1-4 hold 0b0010 = 2.
	flags := Decode(0b00101, []definitions.Field{f})
	if len(flags) != 1 {
		t.Fatalf("Decode() returned %d flags, want 1", len(flags))
	}
	if flags[0].Value != 2 || flags[0].Detail != "STEERING" {
		t.Errorf("Decode() = %+v, want value 2 (STEERING)", flags[0])
	}
}

func TestDecode_Idempotent(t *testing.T) {
	fields := append(maskFields(), enumField())
	value := uint64(0x13)

	first := Decode(value, fields)
	for i := 0; i < 10; i++ {
		if got := Decode(value, fields); !reflect.DeepEqual(got, first) {
			t.Fatalf("Decode() run %d = %v, want %v", i, got, first)
		}
	}
}

func TestFlag_String(t *testing.T) {
	tests := []struct {
		flag     Flag
		expected string
	}{
		{Flag{Name: "MAIN_POWER_OK"}, "MAIN_POWER_OK"},
		{Flag{Name: "SOLUTION_MODE", Detail: "AHRS", Value: 2}, "SOLUTION_MODE: AHRS"},
		{Flag{Name: "SOLUTION_MODE", Detail: "Unknown value (9)", Value: 9, Unknown: true}, "SOLUTION_MODE: Unknown value (9)"},
	}

	for _, tt := range tests {
		if got := tt.flag.String(); got != tt.expected {
			t.Errorf("Flag.String() = %q, want %q", got, tt.expected)
		}
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected uint64
		wantErr  bool
	}{
		{name: "Decimal", input: "273", expected: 273},
		{name: "Zero", input: "0", expected: 0},
		{name: "Whitespace trimmed", input: "  42 ", expected: 42},
		{name: "Hex lowercase prefix", input: "0x1F", expected: 31},
		{name: "Hex uppercase prefix", input: "0XFF", expected: 255},
		{name: "Max uint64", input: "18446744073709551615", expected: 18446744073709551615},
		{name: "Empty", input: "", wantErr: true},
		{name: "Blank", input: "   ", wantErr: true},
		{name: "Negative", input: "-1", wantErr: true},
		{name: "Non-numeric", input: "abc", wantErr: true},
		{name: "Trailing garbage", input: "12x", wantErr: true},
		{name: "Bare hex prefix", input: "0x", wantErr: true},
		{name: "Overflow", input: "18446744073709551616", wantErr: true},
		{name: "Float", input: "1.5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseValue(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseValue(%q) expected error, got %d", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseValue(%q) error = %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("ParseValue(%q) = %d, want %d", tt.input, got, tt.expected)
			}
		})
	}
}

func ExampleDecode() {
	fields := []definitions.Field{
		{Type: definitions.FieldMask, Bit: 0, Name: "MAIN_POWER_OK"},
		{Type: definitions.FieldMask, Bit: 1, Name: "IMU_POWER_OK"},
	}

	for _, f := range Decode(3, fields) {
		fmt.Println(f)
	}
	// Output:
	// MAIN_POWER_OK
	// IMU_POWER_OK
}
