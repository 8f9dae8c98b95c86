// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"
)

// ExportRun holds one run with its results for serialized export.
type ExportRun struct {
	Run     RunInfo        `json:"run" yaml:"run"`
	Results []StoredResult `json:"results" yaml:"results"`
}

// ExportYAML writes an archived run with all its results as YAML to w.
func (s *Store) ExportYAML(ctx context.Context, runID int64, w io.Writer) error {
	runs, err := s.ListRuns(ctx)
	if err != nil {
		return err
	}

	var run *RunInfo
	for i := range runs {
		if runs[i].ID == runID {
			run = &runs[i]
			break
		}
	}
	if run == nil {
		return fmt.Errorf("run %d not found", runID)
	}

	results, err := s.Retrieve(ctx, QueryOptions{RunID: runID, MaxResults: run.Total + 1})
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(ExportRun{Run: *run, Results: results})
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	_, err = w.Write(data)
	return err
}
