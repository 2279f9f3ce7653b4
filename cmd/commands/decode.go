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

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phuonguno98/statusdeck/internal/decoder"
	"github.com/phuonguno98/statusdeck/internal/definitions"
)

var decodeDefinitionsFile string

var decodeCmd = &cobra.Command{
	Use:   "decode <category> <value>",
	Short: "Decode a status value in the terminal",
	Long: `Decode a sensor status word against one status category and print
the active flags.

The value is decimal by default; use a 0x prefix for hexadecimal.

Examples:
  # Decode a general status word
  statusdeck decode GENERAL_STATUS 127

  # Hexadecimal input
  statusdeck decode SOLUTION_STATUS 0xF4

  # Use a custom definitions file
  statusdeck decode --definitions my_codes.yaml MY_STATUS 273`,
	Args: cobra.ExactArgs(2),
	RunE: runDecode,
}

func init() {
	rootCmd.AddCommand(decodeCmd)
	decodeCmd.Flags().StringVar(&decodeDefinitionsFile, "definitions", "",
		"Path to a YAML definitions file (default: built-in definitions)")
}

func runDecode(_ *cobra.Command, args []string) error {
	categoryName, input := args[0], args[1]

	set, err := loadDefinitionsSet(decodeDefinitionsFile)
	if err != nil {
		return err
	}

	value, err := decoder.ParseValue(input)
	if err != nil {
		return err
	}

	cat, ok := set.Category(categoryName)
	if !ok {
		return fmt.Errorf("unknown status category: %s (use 'statusdeck list-categories' to see available categories)", categoryName)
	}

	fmt.Printf("\n%s = %d (0x%X)\n", categoryName, value, value)
	if cat.Description != "" {
		fmt.Println(cat.Description)
	}
	fmt.Println()

	flags := decoder.Decode(value, cat.Fields)
	if len(flags) == 0 {
		fmt.Println("No active flags found for this code.")
		return nil
	}

	fmt.Println("Active Flags:")
	for _, f := range flags {
		fmt.Printf("  - %s\n", f)
	}

	return nil
}

// loadDefinitionsSet returns the built-in definitions or, when a path is
// given, the definitions loaded from that file.
func loadDefinitionsSet(path string) (*definitions.Set, error) {
	if path == "" {
		return definitions.Default()
	}
	return definitions.Load(path)
}
