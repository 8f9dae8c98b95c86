// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/meshbio/seqtriage/pkg/types"
)

// RunInfo summarizes one archived run.
type RunInfo struct {
	ID        int64  `json:"id" yaml:"id"`
	CreatedAt string `json:"created_at" yaml:"created_at"`
	InputFile string `json:"input_file" yaml:"input_file"`
	Total     int    `json:"total" yaml:"total"`

	Tumor        int `json:"tumor" yaml:"tumor"`
	Normal       int `json:"normal" yaml:"normal"`
	CellLine     int `json:"cell_line" yaml:"cell_line"`
	PreMalignant int `json:"pre_malignant" yaml:"pre_malignant"`
	Unknown      int `json:"unknown" yaml:"unknown"`
	Malformed    int `json:"malformed" yaml:"malformed"`
}

// QueryOptions holds parameters for archive queries.
type QueryOptions struct {
	// Evidence is an FTS5 full-text search over evidence strings.
	Evidence string

	// Label filters by primary category.
	Label types.Category

	// Tissue filters by tissue origin.
	Tissue string

	// RunID filters by run; zero means all runs.
	RunID int64

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Evidence == "" && q.Label == "" && q.Tissue == "" && q.RunID == 0
}

// StoredResult is one archived classification with its run and position.
type StoredResult struct {
	RunID    int64 `json:"run_id" yaml:"run_id"`
	Position int   `json:"position" yaml:"position"`
	types.ClassificationResult
}

// ListRuns returns all archived runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, input_file, total, tumor, normal, cell_line, pre_malignant, unknown, malformed
		 FROM runs ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var r RunInfo
		var input sql.NullString
		if err := rows.Scan(&r.ID, &r.CreatedAt, &input, &r.Total,
			&r.Tumor, &r.Normal, &r.CellLine, &r.PreMalignant,
			&r.Unknown, &r.Malformed); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if input.Valid {
			r.InputFile = input.String
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Retrieve queries archived results with optional full-text search
// over evidence and structured filters. Full-text queries are ranked
// by relevance; structured-only queries are sorted by run and position.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]StoredResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Evidence != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT r.run_id, r.position, r.label, r.confidence, r.evidence,
				r.is_cell_line, r.is_control, r.is_bulk_sorted, r.adjacent_normal,
				r.tissue_origin, r.grade, r.derived_confidence, r.derived_evidence
			FROM results_fts
			JOIN results r ON r.rowid = results_fts.rowid
			WHERE results_fts MATCH ?`)
		args = append(args, opts.Evidence)
	} else {
		qb.WriteString(
			`SELECT r.run_id, r.position, r.label, r.confidence, r.evidence,
				r.is_cell_line, r.is_control, r.is_bulk_sorted, r.adjacent_normal,
				r.tissue_origin, r.grade, r.derived_confidence, r.derived_evidence
			FROM results r
			WHERE 1=1`)
	}

	if opts.Label != "" {
		qb.WriteString(` AND r.label = ?`)
		args = append(args, string(opts.Label))
	}
	if opts.Tissue != "" {
		qb.WriteString(` AND r.tissue_origin = ?`)
		args = append(args, opts.Tissue)
	}
	if opts.RunID != 0 {
		qb.WriteString(` AND r.run_id = ?`)
		args = append(args, opts.RunID)
	}

	if useFTS {
		qb.WriteString(` ORDER BY results_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY r.run_id, r.position`)
	}
	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying archive: %w", err)
	}
	defer rows.Close()

	var results []StoredResult
	for rows.Next() {
		var (
			sr                         StoredResult
			label, grade               string
			evidence, derived          sql.NullString
			cellLine, control          int
			bulkSorted, adjacentNormal int
		)
		if err := rows.Scan(&sr.RunID, &sr.Position, &label, &sr.Confidence, &evidence,
			&cellLine, &control, &bulkSorted, &adjacentNormal,
			&sr.TissueOrigin, &grade, &sr.DerivedConfidence, &derived); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}

		sr.TopLabel = types.Category(label)
		sr.Grade = types.Grade(grade)
		sr.IsCellLine = cellLine != 0
		sr.IsControl = control != 0
		sr.IsBulkSorted = bulkSorted != 0
		sr.AdjacentNormal = adjacentNormal != 0
		if evidence.Valid && evidence.String != "" {
			sr.Evidence = strings.Split(evidence.String, "; ")
		}
		if derived.Valid && derived.String != "" {
			sr.DerivedEvidence = strings.Split(derived.String, "; ")
		}

		results = append(results, sr)
	}
	return results, rows.Err()
}
