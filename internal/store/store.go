// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store archives classification runs in a SQLite database so
// past batches can be listed and queried, including full-text search
// over evidence strings.
// See docs/ARCHITECTURE § Run Archive.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/meshbio/seqtriage/pkg/types"
)

const (
	indexDir = "index"
	dbFile   = "seqtriage.db"
)

// Store manages the run archive database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// NewStore opens or creates the archive at dir/index/seqtriage.db,
// creating the schema if needed.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.Dir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at TEXT NOT NULL,
			input_file TEXT,
			total INTEGER NOT NULL,
			tumor INTEGER NOT NULL,
			normal INTEGER NOT NULL,
			cell_line INTEGER NOT NULL,
			pre_malignant INTEGER NOT NULL,
			unknown INTEGER NOT NULL,
			malformed INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS results (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL REFERENCES runs(id),
			position INTEGER NOT NULL,
			label TEXT NOT NULL,
			confidence REAL NOT NULL,
			evidence TEXT,
			is_cell_line INTEGER NOT NULL,
			is_control INTEGER NOT NULL,
			is_bulk_sorted INTEGER NOT NULL,
			adjacent_normal INTEGER NOT NULL,
			tissue_origin TEXT,
			grade TEXT,
			derived_confidence REAL NOT NULL,
			derived_evidence TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_run ON results(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_results_label ON results(label)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='results_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE results_fts USING fts5(evidence, content=results, content_rowid=rowid)`,
			`CREATE TRIGGER results_ai AFTER INSERT ON results BEGIN
				INSERT INTO results_fts(rowid, evidence) VALUES (new.rowid, new.evidence);
			END`,
			`CREATE TRIGGER results_ad AFTER DELETE ON results BEGIN
				INSERT INTO results_fts(results_fts, rowid, evidence) VALUES('delete', old.rowid, old.evidence);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// SaveRun archives one classified batch and returns the new run ID.
func (s *Store) SaveRun(ctx context.Context, inputFile string, results []types.ClassificationResult, summary types.ClassificationSummary) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (created_at, input_file, total, tumor, normal, cell_line, pre_malignant, unknown, malformed)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339), inputFile,
		summary.Total,
		summary.Labels[types.CategoryTumor],
		summary.Labels[types.CategoryNormal],
		summary.Labels[types.CategoryCellLine],
		summary.Labels[types.CategoryPreMalignant],
		summary.Labels[types.CategoryUnknown],
		summary.Malformed,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO results (run_id, position, label, confidence, evidence,
			is_cell_line, is_control, is_bulk_sorted, adjacent_normal,
			tissue_origin, grade, derived_confidence, derived_evidence)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range results {
		_, err := stmt.ExecContext(ctx,
			runID, i, string(r.TopLabel), r.Confidence, joinLines(r.Evidence),
			boolInt(r.IsCellLine), boolInt(r.IsControl),
			boolInt(r.IsBulkSorted), boolInt(r.AdjacentNormal),
			r.TissueOrigin, string(r.Grade),
			r.DerivedConfidence, joinLines(r.DerivedEvidence),
		)
		if err != nil {
			return 0, fmt.Errorf("inserting result %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

func joinLines(lines []string) string {
	return strings.Join(lines, "; ")
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
