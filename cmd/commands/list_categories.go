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

	"github.com/phuonguno98/statusdeck/internal/definitions"
)

var listDefinitionsFile string

var listCategoriesCmd = &cobra.Command{
	Use:   "list-categories",
	Short: "List available status categories",
	Long: `List all status categories known to the decoder, with their field
counts and descriptions.

Examples:
  # List the built-in categories
  statusdeck list-categories

  # List categories of a custom definitions file
  statusdeck list-categories --definitions my_codes.yaml`,
	RunE: runListCategories,
}

func init() {
	rootCmd.AddCommand(listCategoriesCmd)
	listCategoriesCmd.Flags().StringVar(&listDefinitionsFile, "definitions", "",
		"Path to a YAML definitions file (default: built-in definitions)")
}

func runListCategories(_ *cobra.Command, _ []string) error {
	set, err := loadDefinitionsSet(listDefinitionsFile)
	if err != nil {
		return err
	}

	fmt.Println("\n========================================")
	fmt.Println("   StatusDeck - Status Categories")
	fmt.Println("========================================")

	fmt.Print(definitions.FormatCategoriesTable(set))

	fmt.Println("\nExample usage:")
	if names := set.CategoryNames(); len(names) > 0 {
		fmt.Printf("  statusdeck decode %s 273\n", names[0])
	}
	fmt.Println()

	return nil
}
