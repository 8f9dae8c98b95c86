// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report reads sample batches from delimited text, writes the
// augmented output batch, and computes aggregate summaries. The output
// column set is fixed so downstream tooling sees stable headers across
// runs.
// See docs/ARCHITECTURE § Reporting.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/meshbio/seqtriage/pkg/types"
)

// ClassificationColumns are the result columns, always emitted in this
// order ahead of the source columns.
var ClassificationColumns = []string{
	"top_label", "confidence", "evidence",
	"is_cell_line", "is_bulk_sorted", "is_control", "adjacent_normal",
	"tissue_origin", "grade",
	"derived_confidence", "derived_evidence",
}

// Batch is an ordered set of sample records with their source column order.
type Batch struct {
	Columns []string
	Records []types.SampleRecord
}

// ReadBatch parses a tab-delimited batch with a header row of field
// names. Rows that cannot be parsed become nil records, which classify
// as Unknown with a parse-error note; a bad row never aborts the read.
func ReadBatch(r io.Reader) (Batch, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return Batch{}, fmt.Errorf("reading batch header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	b := Batch{Columns: header}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			b.Records = append(b.Records, nil)
			continue
		}

		record := make(types.SampleRecord, len(header))
		for i, col := range header {
			if i >= len(row) {
				break
			}
			// Keep the first occurrence of a duplicated column.
			if _, ok := record[col]; ok {
				continue
			}
			record[col] = strings.TrimSpace(row[i])
		}
		b.Records = append(b.Records, record)
	}
	return b, nil
}

// WriteBatch writes the augmented batch: classification columns first,
// then the source columns, one output row per input row in input order.
func WriteBatch(w io.Writer, b Batch, results []types.ClassificationResult) error {
	if len(results) != len(b.Records) {
		return fmt.Errorf("result count %d does not match record count %d", len(results), len(b.Records))
	}

	cw := csv.NewWriter(w)
	cw.Comma = '\t'

	header := append(append([]string{}, ClassificationColumns...), b.Columns...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, record := range b.Records {
		row := resultFields(results[i])
		for _, col := range b.Columns {
			row = append(row, record.Get(col))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// resultFields flattens a result into the ClassificationColumns order.
func resultFields(res types.ClassificationResult) []string {
	return []string{
		string(res.TopLabel),
		fmt.Sprintf("%.2f", res.Confidence),
		strings.Join(res.Evidence, "; "),
		yesNo(res.IsCellLine),
		yesNo(res.IsBulkSorted),
		yesNo(res.IsControl),
		yesNo(res.AdjacentNormal),
		res.TissueOrigin,
		string(res.Grade),
		fmt.Sprintf("%.2f", res.DerivedConfidence),
		strings.Join(res.DerivedEvidence, "; "),
	}
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

// Summarize computes aggregate counts across one classified batch.
func Summarize(results []types.ClassificationResult) types.ClassificationSummary {
	s := types.ClassificationSummary{
		Total:         len(results),
		Labels:        make(map[types.Category]int),
		TissueOrigins: make(map[string]int),
		Grades:        make(map[types.Grade]int),
	}
	for _, cat := range types.Categories() {
		s.Labels[cat] = 0
	}

	for _, res := range results {
		s.Labels[res.TopLabel]++
		s.TissueOrigins[res.TissueOrigin]++
		s.Grades[res.Grade]++
		if res.IsCellLine {
			s.CellLines++
		}
		if res.IsControl {
			s.Controls++
		}
		if res.IsBulkSorted {
			s.BulkSorted++
		}
		if res.AdjacentNormal {
			s.AdjacentNormal++
		}
		if res.Malformed {
			s.Malformed++
		}
	}
	return s
}

// FormatSummary writes a human-readable summary table to w.
func FormatSummary(s types.ClassificationSummary, w io.Writer) {
	fmt.Fprintf(w, "Classification Summary\n")
	fmt.Fprintln(w, strings.Repeat("-", 40))
	fmt.Fprintf(w, "Total samples: %d\n\n", s.Total)

	fmt.Fprintln(w, "Label distribution:")
	for _, cat := range types.Categories() {
		count := s.Labels[cat]
		pct := 0.0
		if s.Total > 0 {
			pct = 100 * float64(count) / float64(s.Total)
		}
		fmt.Fprintf(w, "  %-14s %5d  (%5.1f%%)\n", cat, count, pct)
	}

	fmt.Fprintf(w, "\nCell line samples:       %d\n", s.CellLines)
	fmt.Fprintf(w, "Control samples:         %d\n", s.Controls)
	fmt.Fprintf(w, "Bulk sorted samples:     %d\n", s.BulkSorted)
	fmt.Fprintf(w, "Adjacent normal samples: %d\n", s.AdjacentNormal)
	if s.Malformed > 0 {
		fmt.Fprintf(w, "Malformed records:       %d\n", s.Malformed)
	}

	fmt.Fprintln(w, "\nGrade distribution:")
	for _, k := range sortedGradeKeys(s.Grades) {
		fmt.Fprintf(w, "  %-14s %5d\n", k, s.Grades[k])
	}

	fmt.Fprintln(w, "\nTissue origin distribution:")
	for _, k := range sortedStringKeys(s.TissueOrigins) {
		fmt.Fprintf(w, "  %-14s %5d\n", k, s.TissueOrigins[k])
	}
}

func sortedStringKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedGradeKeys(m map[types.Grade]int) []types.Grade {
	keys := make([]types.Grade, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
