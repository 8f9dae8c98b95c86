// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"context"
	"strings"
	"testing"

	"github.com/meshbio/seqtriage/internal/reference"
	"github.com/meshbio/seqtriage/internal/rules"
	"github.com/meshbio/seqtriage/internal/score"
	"github.com/meshbio/seqtriage/pkg/types"
)

var testExtractCfg = types.ExtractConfig{
	PrimaryFields:   []string{"disease", "cell_line", "sample_title"},
	SecondaryFields: []string{"study_title"},
}

func testClassifier(t *testing.T, cfg types.ClassifyConfig, names ...string) *Classifier {
	t.Helper()
	var ref *reference.Set
	if len(names) > 0 {
		ref = reference.NewFromNames(names, 3)
	}
	return New(score.New(ref, rules.Default(), cfg), testExtractCfg, cfg)
}

func classifyOne(t *testing.T, c *Classifier, record types.SampleRecord) types.ClassificationResult {
	t.Helper()
	result, err := c.ClassifyRecord(record)
	if err != nil {
		t.Fatalf("ClassifyRecord: %v", err)
	}
	return result
}

func TestClassifyRecord(t *testing.T) {
	tests := []struct {
		name           string
		record         types.SampleRecord
		wantLabel      types.Category
		wantConfidence float64
		wantTissue     string
		wantGrade      types.Grade
	}{
		{
			name:           "tumor keyword",
			record:         types.SampleRecord{"disease": "esophageal adenocarcinoma"},
			wantLabel:      types.CategoryTumor,
			wantConfidence: 0.5,
			wantTissue:     "esophagus",
			wantGrade:      types.GradeUnknown,
		},
		{
			name:           "barrett with low grade dysplasia",
			record:         types.SampleRecord{"disease": "barrett esophagus low grade dysplasia"},
			wantLabel:      types.CategoryPreMalignant,
			wantConfidence: 1.0, // barrett + dysplasia
			wantTissue:     "esophagus",
			wantGrade:      types.GradeLGD,
		},
		{
			name: "healthy control",
			record: types.SampleRecord{
				"disease":      "none",
				"sample_title": "healthy control blood donor",
			},
			wantLabel:      types.CategoryNormal,
			wantConfidence: 1.3, // disease field + healthy + control
			wantTissue:     "blood",
			wantGrade:      types.GradeUnknown,
		},
		{
			name: "empty disease field corroborates normal",
			record: types.SampleRecord{
				"disease":      "",
				"sample_title": "healthy control",
			},
			wantLabel:      types.CategoryNormal,
			wantConfidence: 1.3, // empty disease field + healthy + control
			wantTissue:     "unknown",
			wantGrade:      types.GradeUnknown,
		},
		{
			name:           "no evidence falls to unknown",
			record:         types.SampleRecord{"sample_title": "sample 42"},
			wantLabel:      types.CategoryUnknown,
			wantConfidence: 0,
			wantTissue:     "unknown",
			wantGrade:      types.GradeUnknown,
		},
		{
			name:           "empty record falls to unknown",
			record:         types.SampleRecord{},
			wantLabel:      types.CategoryUnknown,
			wantConfidence: 0,
			wantTissue:     "unknown",
			wantGrade:      types.GradeUnknown,
		},
		{
			name: "confidence clamped at cap",
			record: types.SampleRecord{
				"disease": "malignant metastatic carcinoma tumor cancer sarcoma",
			},
			wantLabel:      types.CategoryTumor,
			wantConfidence: 2.0,
			wantTissue:     "unknown",
			wantGrade:      types.GradeUnknown,
		},
	}

	c := testClassifier(t, types.DefaultClassifyConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyOne(t, c, tt.record)
			if got.TopLabel != tt.wantLabel {
				t.Errorf("TopLabel = %q, want %q (evidence %v)", got.TopLabel, tt.wantLabel, got.Evidence)
			}
			if got.Confidence != tt.wantConfidence {
				t.Errorf("Confidence = %v, want %v (evidence %v)", got.Confidence, tt.wantConfidence, got.Evidence)
			}
			if got.TissueOrigin != tt.wantTissue {
				t.Errorf("TissueOrigin = %q, want %q", got.TissueOrigin, tt.wantTissue)
			}
			if got.Grade != tt.wantGrade {
				t.Errorf("Grade = %q, want %q", got.Grade, tt.wantGrade)
			}
		})
	}
}

func TestAddingEvidenceNeverLowersScore(t *testing.T) {
	c := testClassifier(t, types.DefaultClassifyConfig())

	base := classifyOne(t, c, types.SampleRecord{"disease": "gastric carcinoma"})
	more := classifyOne(t, c, types.SampleRecord{"disease": "gastric carcinoma", "sample_title": "malignant tumor"})

	if more.TopLabel != types.CategoryTumor {
		t.Fatalf("TopLabel = %q, want Tumor", more.TopLabel)
	}
	if more.Confidence < base.Confidence {
		t.Errorf("added keywords lowered confidence: %v -> %v", base.Confidence, more.Confidence)
	}
	if len(more.Evidence) < len(base.Evidence) {
		t.Errorf("added keywords shrank evidence: %v -> %v", base.Evidence, more.Evidence)
	}
}

func TestClassifyUnknownHasNoEvidence(t *testing.T) {
	c := testClassifier(t, types.DefaultClassifyConfig())
	got := classifyOne(t, c, types.SampleRecord{})
	if len(got.Evidence) != 0 {
		t.Errorf("unknown result carries evidence: %v", got.Evidence)
	}
	if got.Malformed {
		t.Error("empty record marked malformed")
	}
}

func TestCellLinePrecedence(t *testing.T) {
	tests := []struct {
		name      string
		names     []string
		record    types.SampleRecord
		wantLabel types.Category
		wantCell  bool
	}{
		{
			name:  "reference match outranks equal tumor score",
			names: []string{"MCF7"},
			record: types.SampleRecord{
				"cell_line": "MCF7",
				"disease":   "breast carcinoma cancer", // two keywords, 1.0
			},
			wantLabel: types.CategoryCellLine,
			wantCell:  true,
		},
		{
			name:  "generic keywords alone are not corroboration against tumor",
			names: nil,
			record: types.SampleRecord{
				"disease":      "gastric carcinoma tumor biopsy", // 1.0
				"sample_title": "primary culture",                // 0.3
			},
			wantLabel: types.CategoryTumor,
			wantCell:  false,
		},
		{
			name:  "generic keywords win when nothing else scores",
			names: nil,
			record: types.SampleRecord{
				"sample_title": "passage 12 of primary culture", // 0.6
			},
			wantLabel: types.CategoryCellLine,
			wantCell:  true,
		},
		{
			name:  "strong cell line loses to strictly higher tumor score",
			names: []string{"MCF7"},
			record: types.SampleRecord{
				"cell_line": "MCF7", // 1.0
				"disease":   "invasive metastatic malignant carcinoma",
			},
			wantLabel: types.CategoryTumor,
			wantCell:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testClassifier(t, types.DefaultClassifyConfig(), tt.names...)
			got := classifyOne(t, c, tt.record)
			if got.TopLabel != tt.wantLabel {
				t.Errorf("TopLabel = %q, want %q (evidence %v)", got.TopLabel, tt.wantLabel, got.Evidence)
			}
			if got.IsCellLine != tt.wantCell {
				t.Errorf("IsCellLine = %v, want %v", got.IsCellLine, tt.wantCell)
			}
		})
	}
}

func TestTieBreak(t *testing.T) {
	// carcinoma and dysplasia each score 0.5 in their category.
	record := types.SampleRecord{"disease": "carcinoma with dysplasia"}

	tests := []struct {
		policy types.TieBreak
		want   types.Category
	}{
		{types.TieBreakPreferPreMalignant, types.CategoryPreMalignant},
		{types.TieBreakPreferTumor, types.CategoryTumor},
		{"", types.CategoryPreMalignant}, // unset defaults to pre-malignant
	}

	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			cfg := types.DefaultClassifyConfig()
			cfg.TieBreak = tt.policy
			c := testClassifier(t, cfg)
			got := classifyOne(t, c, record)
			if got.TopLabel != tt.want {
				t.Errorf("TopLabel = %q, want %q", got.TopLabel, tt.want)
			}
		})
	}
}

func TestEvidenceMatchesLabel(t *testing.T) {
	c := testClassifier(t, types.DefaultClassifyConfig())
	got := classifyOne(t, c, types.SampleRecord{
		"disease":      "esophageal adenocarcinoma",
		"sample_title": "healthy margin", // normal evidence for a losing category
	})

	if got.TopLabel != types.CategoryTumor {
		t.Fatalf("TopLabel = %q, want Tumor", got.TopLabel)
	}
	for _, ev := range got.Evidence {
		if strings.Contains(ev, "healthy") {
			t.Errorf("losing-category evidence leaked into Evidence: %v", got.Evidence)
		}
	}
	if len(got.Evidence) == 0 {
		t.Error("winning label carries no evidence")
	}
}

func TestDerivedAttributes(t *testing.T) {
	c := testClassifier(t, types.DefaultClassifyConfig())
	got := classifyOne(t, c, types.SampleRecord{
		"disease":      "esophageal adenocarcinoma",
		"sample_title": "facs sorted adjacent normal tissue",
	})

	if !got.IsBulkSorted {
		t.Error("IsBulkSorted not set for sorted population")
	}
	if !got.AdjacentNormal {
		t.Error("AdjacentNormal not set")
	}
	if got.TissueOrigin != "esophagus" {
		t.Errorf("TissueOrigin = %q, want esophagus", got.TissueOrigin)
	}
	if len(got.DerivedEvidence) == 0 {
		t.Error("no derived evidence recorded")
	}
	if got.DerivedConfidence <= 0 || got.DerivedConfidence > 2.0 {
		t.Errorf("DerivedConfidence = %v, want in (0, 2.0]", got.DerivedConfidence)
	}
}

func TestClassifyRecordNil(t *testing.T) {
	c := testClassifier(t, types.DefaultClassifyConfig())
	got, err := c.ClassifyRecord(nil)
	if err == nil {
		t.Fatal("nil record did not error")
	}
	if got.TopLabel != types.CategoryUnknown || !got.Malformed {
		t.Errorf("result = %+v, want malformed Unknown", got)
	}
	if len(got.Evidence) != 1 || !strings.HasPrefix(got.Evidence[0], "malformed record:") {
		t.Errorf("Evidence = %v, want single malformed note", got.Evidence)
	}
}

func TestClassifyBatch(t *testing.T) {
	c := testClassifier(t, types.DefaultClassifyConfig(), "MCF7")
	records := []types.SampleRecord{
		{"disease": "gastric carcinoma"},
		{"cell_line": "MCF7"},
		{"disease": "none", "sample_title": "healthy donor"},
		{},
	}

	var buf strings.Builder
	results, err := c.ClassifyBatch(context.Background(), records, &buf)
	if err != nil {
		t.Fatalf("ClassifyBatch: %v", err)
	}
	if len(results) != len(records) {
		t.Fatalf("got %d results, want %d", len(results), len(records))
	}

	want := []types.Category{
		types.CategoryTumor,
		types.CategoryCellLine,
		types.CategoryNormal,
		types.CategoryUnknown,
	}
	for i, w := range want {
		if results[i].TopLabel != w {
			t.Errorf("results[%d].TopLabel = %q, want %q", i, results[i].TopLabel, w)
		}
	}
}

func TestClassifyBatchMalformedRecord(t *testing.T) {
	c := testClassifier(t, types.DefaultClassifyConfig())
	records := []types.SampleRecord{
		{"disease": "carcinoma"},
		nil,
		{"disease": "carcinoma"},
	}

	var buf strings.Builder
	results, err := c.ClassifyBatch(context.Background(), records, &buf)
	if err != nil {
		t.Fatalf("ClassifyBatch: %v", err)
	}

	if !results[1].Malformed || results[1].TopLabel != types.CategoryUnknown {
		t.Errorf("results[1] = %+v, want malformed Unknown", results[1])
	}
	if results[0].Malformed || results[2].Malformed {
		t.Error("well-formed neighbors marked malformed")
	}
	if !strings.Contains(buf.String(), "position 1") {
		t.Errorf("warning does not name the record position: %q", buf.String())
	}
}

func TestClassifyBatchConcurrentWriter(t *testing.T) {
	// Every record here triggers a warning line, so parallel workers all
	// contend for the shared writer. Lines must come out whole.
	cfg := types.DefaultClassifyConfig()
	cfg.Workers = 8
	c := testClassifier(t, cfg)

	records := make([]types.SampleRecord, 300)

	var buf strings.Builder
	results, err := c.ClassifyBatch(context.Background(), records, &buf)
	if err != nil {
		t.Fatalf("ClassifyBatch: %v", err)
	}
	for i, res := range results {
		if !res.Malformed {
			t.Fatalf("results[%d] not marked malformed", i)
		}
	}

	var warnings, progress int
	for _, line := range strings.Split(strings.TrimRight(buf.String(), "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "warning: invalid record at position "):
			warnings++
		case strings.HasPrefix(line, "classified ") && strings.HasSuffix(line, "/300 samples"):
			progress++
		default:
			t.Fatalf("interleaved or malformed output line: %q", line)
		}
	}
	if warnings != 300 {
		t.Errorf("got %d warning lines, want 300", warnings)
	}
	if progress != 6 {
		t.Errorf("got %d progress lines, want 6", progress)
	}
}

func TestClassifyBatchDeterministic(t *testing.T) {
	c := testClassifier(t, types.DefaultClassifyConfig(), "MCF7", "HeLa")

	var records []types.SampleRecord
	for i := 0; i < 120; i++ {
		switch i % 3 {
		case 0:
			records = append(records, types.SampleRecord{"disease": "lung adenocarcinoma"})
		case 1:
			records = append(records, types.SampleRecord{"cell_line": "HeLa culture"})
		default:
			records = append(records, types.SampleRecord{"sample_title": "healthy control"})
		}
	}

	var buf strings.Builder
	first, err := c.ClassifyBatch(context.Background(), records, &buf)
	if err != nil {
		t.Fatalf("ClassifyBatch: %v", err)
	}
	if !strings.Contains(buf.String(), "classified 50/120 samples") {
		t.Errorf("progress not reported: %q", buf.String())
	}

	for run := 0; run < 3; run++ {
		again, err := c.ClassifyBatch(context.Background(), records, &strings.Builder{})
		if err != nil {
			t.Fatalf("run %d: %v", run, err)
		}
		for i := range again {
			if again[i].TopLabel != first[i].TopLabel || again[i].Confidence != first[i].Confidence {
				t.Fatalf("run %d: results[%d] differs: %+v vs %+v", run, i, again[i], first[i])
			}
		}
	}
}

func TestClassifyBatchEmpty(t *testing.T) {
	c := testClassifier(t, types.DefaultClassifyConfig())
	results, err := c.ClassifyBatch(context.Background(), nil, &strings.Builder{})
	if err != nil {
		t.Fatalf("ClassifyBatch: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results, want 0", len(results))
	}
}

func TestClassifyBatchCancelled(t *testing.T) {
	c := testClassifier(t, types.DefaultClassifyConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records := make([]types.SampleRecord, 500)
	for i := range records {
		records[i] = types.SampleRecord{"disease": "carcinoma"}
	}
	if _, err := c.ClassifyBatch(ctx, records, &strings.Builder{}); err == nil {
		t.Error("cancelled batch did not error")
	}
}
