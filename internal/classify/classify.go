// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify aggregates scored evidence into one label and
// confidence per record, and runs batches with record-level
// parallelism. Records are independent; the only shared state is the
// read-only reference set inside the scorer.
// See docs/ARCHITECTURE § Classification.
package classify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/meshbio/seqtriage/internal/extract"
	"github.com/meshbio/seqtriage/internal/score"
	"github.com/meshbio/seqtriage/pkg/types"
)

// progressEvery is how often batch progress is reported.
const progressEvery = 50

// InvalidRecordError reports a record that is structurally unusable.
// The batch loop recovers it into an Unknown result; it never aborts a run.
type InvalidRecordError struct {
	Position int
	Reason   string
}

func (e *InvalidRecordError) Error() string {
	return fmt.Sprintf("invalid record at position %d: %s", e.Position, e.Reason)
}

// Classifier turns per-category evidence into final decisions.
type Classifier struct {
	scorer     *score.Scorer
	extractCfg types.ExtractConfig
	cfg        types.ClassifyConfig
}

// New builds a Classifier. The scorer must be non-nil.
func New(scorer *score.Scorer, extractCfg types.ExtractConfig, cfg types.ClassifyConfig) *Classifier {
	return &Classifier{scorer: scorer, extractCfg: extractCfg, cfg: cfg}
}

// ClassifyRecord classifies one record. It returns an
// InvalidRecordError only when the record is structurally unusable
// (nil); a well-formed record with no evidence is a valid Unknown, not
// an error.
func (c *Classifier) ClassifyRecord(record types.SampleRecord) (types.ClassificationResult, error) {
	if record == nil {
		return MalformedResult("record is not a field map"),
			&InvalidRecordError{Reason: "record is not a field map"}
	}

	ex := extract.Extract(record, c.extractCfg)
	evidence := c.scorer.Score(record, ex)
	return c.decide(evidence), nil
}

// MalformedResult is the degraded output for a structurally unusable
// record: Unknown with an explicit parse-error evidence note.
func MalformedResult(reason string) types.ClassificationResult {
	return types.ClassificationResult{
		TopLabel:     types.CategoryUnknown,
		Confidence:   0,
		Evidence:     []string{"malformed record: " + reason},
		TissueOrigin: "unknown",
		Grade:        types.GradeUnknown,
		Malformed:    true,
	}
}

// decide aggregates evidence into the final result: sum weights per
// category, clamp, apply precedence, then derive the secondary
// attributes from the same evidence.
func (c *Classifier) decide(evidence []types.Evidence) types.ClassificationResult {
	scores := make(map[types.Category]float64)
	for _, ev := range evidence {
		switch cat := types.Category(ev.Target); cat {
		case types.CategoryTumor, types.CategoryNormal,
			types.CategoryCellLine, types.CategoryPreMalignant:
			scores[cat] += ev.Weight
		}
	}
	for cat, sc := range scores {
		scores[cat] = c.clamp(sc)
	}

	top := c.pickLabel(scores)

	result := types.ClassificationResult{
		TopLabel:     top,
		TissueOrigin: "unknown",
		Grade:        types.GradeUnknown,
	}
	if top != types.CategoryUnknown {
		result.Confidence = scores[top]
		for _, ev := range evidence {
			if ev.Target == string(top) {
				result.Evidence = append(result.Evidence, ev.Description)
			}
		}
	}
	result.IsCellLine = top == types.CategoryCellLine

	c.derive(evidence, &result)
	return result
}

// pickLabel applies the decision policy: strong cell-line evidence
// takes precedence over equal or lower scores, otherwise the strictly
// highest score wins, with the configured tie-break for equal Tumor
// and Pre-malignant scores.
func (c *Classifier) pickLabel(scores map[types.Category]float64) types.Category {
	maxOther := 0.0
	for _, cat := range []types.Category{
		types.CategoryTumor, types.CategoryNormal, types.CategoryPreMalignant,
	} {
		if scores[cat] > maxOther {
			maxOther = scores[cat]
		}
	}

	if cell := scores[types.CategoryCellLine]; cell >= c.cfg.CellLineCorroboration &&
		cell >= maxOther && cell > c.cfg.UnknownThreshold {
		return types.CategoryCellLine
	}

	top := types.CategoryUnknown
	topScore := c.cfg.UnknownThreshold
	for _, cat := range []types.Category{
		types.CategoryTumor, types.CategoryNormal,
		types.CategoryCellLine, types.CategoryPreMalignant,
	} {
		if scores[cat] > topScore {
			top = cat
			topScore = scores[cat]
		}
	}

	if top == types.CategoryTumor &&
		scores[types.CategoryPreMalignant] == topScore &&
		c.cfg.TieBreak != types.TieBreakPreferTumor {
		top = types.CategoryPreMalignant
	}
	return top
}

// derive fills the secondary attributes from the non-category evidence.
// These do not influence the primary label.
func (c *Classifier) derive(evidence []types.Evidence, result *types.ClassificationResult) {
	var weight float64
	for _, ev := range evidence {
		switch {
		case ev.Target == types.TargetControl:
			result.IsControl = true
		case ev.Target == types.TargetAdjacentNormal:
			result.AdjacentNormal = true
		case ev.Target == types.TargetBulkSorted:
			result.IsBulkSorted = true
		case strings.HasPrefix(ev.Target, types.TargetTissuePrefix):
			tissue := strings.TrimPrefix(ev.Target, types.TargetTissuePrefix)
			if result.TissueOrigin == "unknown" && tissue != "ambiguous" {
				result.TissueOrigin = tissue
			}
		case strings.HasPrefix(ev.Target, types.TargetGradePrefix):
			if result.Grade == types.GradeUnknown {
				result.Grade = types.Grade(strings.TrimPrefix(ev.Target, types.TargetGradePrefix))
			}
		default:
			continue
		}
		weight += ev.Weight
		result.DerivedEvidence = append(result.DerivedEvidence, ev.Description)
	}
	result.DerivedConfidence = c.clamp(weight)
}

func (c *Classifier) clamp(score float64) float64 {
	if limit := c.cfg.ConfidenceCap; limit > 0 && score > limit {
		return limit
	}
	return score
}

// ClassifyBatch classifies records concurrently, preserving input
// order in the output. Structurally bad records degrade to Unknown
// with a parse-error note; they never abort the batch. Progress is
// written to w.
func (c *Classifier) ClassifyBatch(ctx context.Context, records []types.SampleRecord, w io.Writer) ([]types.ClassificationResult, error) {
	results := make([]types.ClassificationResult, len(records))
	if len(records) == 0 {
		return results, nil
	}

	workers := c.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(records) {
		workers = len(records)
	}

	// Workers share w for warnings and progress; writes are serialized.
	var wmu sync.Mutex
	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, record := range records {
		i, record := i, record
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			res, err := c.ClassifyRecord(record)
			if err != nil {
				// Fail-soft: the degraded result is already in res.
				var ire *InvalidRecordError
				if errors.As(err, &ire) {
					ire.Position = i
				}
				wmu.Lock()
				fmt.Fprintf(w, "warning: %v\n", err)
				wmu.Unlock()
			}
			results[i] = res

			if n := done.Add(1); n%progressEvery == 0 {
				wmu.Lock()
				fmt.Fprintf(w, "classified %d/%d samples\n", n, len(records))
				wmu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
