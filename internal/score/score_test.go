// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package score

import (
	"strings"
	"testing"

	"github.com/meshbio/seqtriage/internal/extract"
	"github.com/meshbio/seqtriage/internal/reference"
	"github.com/meshbio/seqtriage/internal/rules"
	"github.com/meshbio/seqtriage/pkg/types"
)

var testExtractCfg = types.ExtractConfig{
	PrimaryFields:   []string{"disease", "cell_line", "sample_title"},
	SecondaryFields: []string{"study_title"},
}

func testScorer(names ...string) *Scorer {
	var ref *reference.Set
	if len(names) > 0 {
		ref = reference.NewFromNames(names, 3)
	}
	return New(ref, rules.Default(), types.DefaultClassifyConfig())
}

func scoreRecord(s *Scorer, record types.SampleRecord) []types.Evidence {
	return s.Score(record, extract.Extract(record, testExtractCfg))
}

// evidenceFor filters the evidence list down to one target.
func evidenceFor(evidence []types.Evidence, target string) []types.Evidence {
	var out []types.Evidence
	for _, ev := range evidence {
		if ev.Target == target {
			out = append(out, ev)
		}
	}
	return out
}

func totalWeight(evidence []types.Evidence) float64 {
	var w float64
	for _, ev := range evidence {
		w += ev.Weight
	}
	return w
}

func TestScoreEmptyRecord(t *testing.T) {
	s := testScorer("MCF7")
	if got := scoreRecord(s, types.SampleRecord{}); len(got) != 0 {
		t.Errorf("empty record produced evidence: %v", got)
	}
}

func TestScoreIdempotent(t *testing.T) {
	s := testScorer("MCF7")
	record := types.SampleRecord{
		"disease":     "lung adenocarcinoma",
		"cell_line":   "MCF7 culture",
		"study_title": "Pan-cancer study of adjacent normal tissue",
	}

	first := scoreRecord(s, record)
	for i := 0; i < 5; i++ {
		got := scoreRecord(s, record)
		if len(got) != len(first) {
			t.Fatalf("run %d: %d evidence items, want %d", i, len(got), len(first))
		}
		for j := range got {
			if got[j] != first[j] {
				t.Fatalf("run %d: evidence %d = %+v, want %+v", i, j, got[j], first[j])
			}
		}
	}
}

func TestScoreKeywordDedup(t *testing.T) {
	s := testScorer()
	record := types.SampleRecord{
		"disease":      "gastric carcinoma",
		"sample_title": "carcinoma biopsy",
	}

	evidence := scoreRecord(s, record)
	var carcinoma int
	for _, ev := range evidence {
		if ev.Description == "keyword: carcinoma" {
			carcinoma++
		}
	}
	if carcinoma != 1 {
		t.Errorf("keyword repeated in two fields scored %d times, want 1", carcinoma)
	}
}

func TestScoreKeywordBoundary(t *testing.T) {
	s := testScorer()
	record := types.SampleRecord{"disease": "lung adenocarcinoma"}

	evidence := scoreRecord(s, record)
	for _, ev := range evidence {
		if ev.Description == "keyword: carcinoma" {
			t.Error("carcinoma matched inside adenocarcinoma")
		}
	}

	tumor := evidenceFor(evidence, string(types.CategoryTumor))
	if w := totalWeight(tumor); w != 0.5 {
		t.Errorf("tumor weight = %v, want 0.5 (adenocarcinoma only); evidence %v", w, tumor)
	}
}

func TestScoreReferenceTiers(t *testing.T) {
	tests := []struct {
		name       string
		record     types.SampleRecord
		wantWeight float64
		wantCount  int
	}{
		{
			name:       "primary field match at full weight",
			record:     types.SampleRecord{"cell_line": "MCF7"},
			wantWeight: 1.0,
			wantCount:  1,
		},
		{
			name:       "secondary field match at reduced weight",
			record:     types.SampleRecord{"study_title": "Expression profiling of MCF7"},
			wantWeight: 0.4,
			wantCount:  1,
		},
		{
			name: "primary match suppresses secondary re-score",
			record: types.SampleRecord{
				"cell_line":   "MCF7",
				"study_title": "MCF7 drug response",
			},
			wantWeight: 1.0,
			wantCount:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testScorer("MCF7")
			got := evidenceFor(scoreRecord(s, tt.record), string(types.CategoryCellLine))
			if len(got) != tt.wantCount {
				t.Fatalf("cell-line evidence count = %d, want %d: %v", len(got), tt.wantCount, got)
			}
			if w := totalWeight(got); w != tt.wantWeight {
				t.Errorf("cell-line weight = %v, want %v", w, tt.wantWeight)
			}
		})
	}
}

func TestScoreReferenceVariantDedup(t *testing.T) {
	// "OVCAR-3" registers both "ovcar-3" and "ovcar3"; a text holding the
	// original form matches both patterns but carries one display name.
	s := testScorer("OVCAR-3")
	record := types.SampleRecord{"cell_line": "OVCAR-3"}

	got := evidenceFor(scoreRecord(s, record), string(types.CategoryCellLine))
	if len(got) != 1 {
		t.Fatalf("variant patterns scored separately: %v", got)
	}
	if !strings.Contains(got[0].Description, "OVCAR-3") {
		t.Errorf("evidence %q does not carry the display name", got[0].Description)
	}
}

func TestScoreTumorFlag(t *testing.T) {
	tests := []struct {
		name   string
		record types.SampleRecord
		want   bool
	}{
		{"yes", types.SampleRecord{"Tumor": "yes"}, true},
		{"true", types.SampleRecord{"is_tumor": "TRUE"}, true},
		{"numeric", types.SampleRecord{"Tumor": "1"}, true},
		{"no", types.SampleRecord{"Tumor": "no"}, false},
		{"absent", types.SampleRecord{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testScorer()
			got := evidenceFor(scoreRecord(s, tt.record), string(types.CategoryTumor))
			var flagged bool
			for _, ev := range got {
				if strings.HasPrefix(ev.Description, "tumor flag:") {
					flagged = true
					if ev.Weight != 1.0 {
						t.Errorf("tumor flag weight = %v, want 1.0", ev.Weight)
					}
				}
			}
			if flagged != tt.want {
				t.Errorf("tumor flag fired = %v, want %v; evidence %v", flagged, tt.want, got)
			}
		})
	}
}

func TestScoreDiseaseField(t *testing.T) {
	s := testScorer()

	t.Run("healthy value corroborates normal and control", func(t *testing.T) {
		record := types.SampleRecord{"disease": "none", "sample_title": "donor biopsy"}
		evidence := scoreRecord(s, record)
		if got := evidenceFor(evidence, string(types.CategoryNormal)); totalWeight(got) != 0.3 {
			t.Errorf("normal evidence = %v, want single 0.3 entry", got)
		}
		if got := evidenceFor(evidence, types.TargetControl); len(got) != 1 {
			t.Errorf("control evidence = %v, want 1 entry", got)
		}
	})

	t.Run("empty disease on non-empty record", func(t *testing.T) {
		record := types.SampleRecord{"disease": "", "sample_title": "biopsy section"}
		evidence := evidenceFor(scoreRecord(s, record), string(types.CategoryNormal))
		if len(evidence) != 1 || evidence[0].Description != "disease field empty" {
			t.Errorf("evidence = %v, want one disease-field-empty entry", evidence)
		}
	})

	t.Run("empty disease on empty record stays silent", func(t *testing.T) {
		record := types.SampleRecord{"disease": ""}
		if evidence := scoreRecord(s, record); len(evidence) != 0 {
			t.Errorf("evidence = %v, want none", evidence)
		}
	})
}

func TestScoreTissues(t *testing.T) {
	s := testScorer()

	t.Run("single tissue", func(t *testing.T) {
		record := types.SampleRecord{"disease": "esophageal adenocarcinoma"}
		got := evidenceFor(scoreRecord(s, record), types.TargetTissuePrefix+"esophagus")
		if len(got) != 1 {
			t.Fatalf("esophagus evidence = %v, want 1 entry", got)
		}
	})

	t.Run("ambiguous tissues noted at zero weight", func(t *testing.T) {
		record := types.SampleRecord{"disease": "lung metastasis of gastric origin"}
		evidence := scoreRecord(s, record)
		amb := evidenceFor(evidence, types.TargetTissuePrefix+"ambiguous")
		if len(amb) != 1 {
			t.Fatalf("ambiguity note = %v, want 1 entry", amb)
		}
		if amb[0].Weight != 0 {
			t.Errorf("ambiguity weight = %v, want 0", amb[0].Weight)
		}
	})
}

func TestScoreGradeFirstMatchWins(t *testing.T) {
	s := testScorer()
	record := types.SampleRecord{"disease": "barrett esophagus with lgd progressing to hgd"}

	evidence := scoreRecord(s, record)
	if got := evidenceFor(evidence, types.TargetGradePrefix+string(types.GradeLGD)); len(got) != 1 {
		t.Errorf("LGD evidence = %v, want 1 entry", got)
	}
	if got := evidenceFor(evidence, types.TargetGradePrefix+string(types.GradeHGD)); len(got) != 0 {
		t.Errorf("HGD evidence = %v, want none once LGD matched", got)
	}
}

func TestScoreAdjacentNormalCorroboratesNormal(t *testing.T) {
	s := testScorer()
	record := types.SampleRecord{"sample_title": "adjacent normal tissue"}

	evidence := scoreRecord(s, record)
	if got := evidenceFor(evidence, types.TargetAdjacentNormal); len(got) == 0 {
		t.Error("no adjacent-normal evidence")
	}
	var corroborated bool
	for _, ev := range evidenceFor(evidence, string(types.CategoryNormal)) {
		if strings.HasPrefix(ev.Description, "adjacent normal:") {
			corroborated = true
		}
	}
	if !corroborated {
		t.Error("adjacent-normal hit did not corroborate Normal")
	}
}

func TestScoreBlankKeywordDoesNotPanic(t *testing.T) {
	// A hand-edited rule table can slip a blank keyword past loading if
	// Validate is bypassed; scoring must tolerate it rather than panic.
	table := rules.Default()
	table.Families[0].Keywords = append(table.Families[0].Keywords, "")
	s := New(nil, table, types.DefaultClassifyConfig())
	record := types.SampleRecord{"disease": "gastric carcinoma"}

	evidence := s.Score(record, extract.Extract(record, testExtractCfg))
	for _, ev := range evidence {
		if ev.Description == "keyword: " {
			t.Errorf("blank keyword produced evidence: %v", evidence)
		}
	}
}

func TestScoreKeywordOnlyNilReference(t *testing.T) {
	s := testScorer() // nil reference set
	record := types.SampleRecord{"cell_line": "MCF7 culture"}

	evidence := evidenceFor(scoreRecord(s, record), string(types.CategoryCellLine))
	if w := totalWeight(evidence); w != 0.3 {
		t.Errorf("cell-line weight = %v, want 0.3 (generic keyword only); evidence %v", w, evidence)
	}
}
