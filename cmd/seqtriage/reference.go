// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meshbio/seqtriage/internal/reference"
	"github.com/meshbio/seqtriage/pkg/types"
)

var referenceCmd = &cobra.Command{
	Use:   "reference",
	Short: "Validate a cell line reference table",
	Long: `Reference loads a cell line reference table the same way classify
does and reports how many patterns were registered. Use --match to test
which patterns a piece of text would hit.`,
	RunE: runReference,
}

func runReference(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("path")
	matchText, _ := cmd.Flags().GetString("match")
	minLen, _ := cmd.Flags().GetInt("min-pattern-length")

	ref, err := reference.Load(types.ReferenceConfig{
		Path:             path,
		MinPatternLength: minLen,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Loaded %d patterns from %s\n", ref.Len(), path)

	if matchText != "" {
		matches := ref.FindMatches(matchText)
		if len(matches) == 0 {
			fmt.Println("No matches.")
			return nil
		}
		var names []string
		for _, m := range matches {
			names = append(names, m.Display)
		}
		fmt.Printf("Matches: %s\n", strings.Join(names, ", "))
	}
	return nil
}

func init() {
	referenceCmd.Flags().String("path", "", "reference table (CSV or TSV) to validate (required)")
	referenceCmd.Flags().String("match", "", "test text against the loaded patterns")
	referenceCmd.Flags().Int("min-pattern-length", 3, "minimum registered pattern length")
	referenceCmd.MarkFlagRequired("path")

	rootCmd.AddCommand(referenceCmd)
}
