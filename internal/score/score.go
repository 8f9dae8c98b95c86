// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package score applies the rule tables and the reference set to a
// record's normalized text, producing weighted evidence per category
// and derived attribute. Scoring is a pure function of its inputs:
// re-running it over the same record yields the same evidence list.
// See docs/ARCHITECTURE § Evidence Scoring.
package score

import (
	"fmt"
	"strings"

	"github.com/meshbio/seqtriage/internal/extract"
	"github.com/meshbio/seqtriage/internal/reference"
	"github.com/meshbio/seqtriage/internal/rules"
	"github.com/meshbio/seqtriage/pkg/types"
)

const (
	tumorFlagWeight  = 1.0
	structuralWeight = 0.3
	attributeWeight  = 0.5
	bulkSortedWeight = 0.3
)

// Scorer evaluates rule families against extracted record text. Safe
// for concurrent use; it holds only read-only state.
type Scorer struct {
	ref   *reference.Set
	table rules.Table
	cfg   types.ClassifyConfig
}

// New builds a Scorer over a reference set (nil in keyword-only mode)
// and a rule table.
func New(ref *reference.Set, table rules.Table, cfg types.ClassifyConfig) *Scorer {
	return &Scorer{ref: ref, table: table, cfg: cfg}
}

// collector accumulates evidence, dropping repeats of the same
// (target, description) pair within one record.
type collector struct {
	evidence []types.Evidence
	seen     map[string]bool
}

func (c *collector) add(target string, weight float64, description string) {
	key := target + "\x00" + description
	if c.seen[key] {
		return
	}
	c.seen[key] = true
	c.evidence = append(c.evidence, types.Evidence{
		Target:      target,
		Weight:      weight,
		Description: description,
	})
}

// Score produces the ordered evidence list for one record. The order
// is fixed by rule-table and reference registration order, so output
// is deterministic across runs.
func (s *Scorer) Score(record types.SampleRecord, ex extract.Extracted) []types.Evidence {
	c := &collector{seen: make(map[string]bool)}

	allText := ex.Primary
	if ex.Secondary != "" {
		allText = strings.TrimSpace(allText + " " + ex.Secondary)
	}

	s.scoreTumorFlags(record, c)
	s.scoreReference(ex, c)
	s.scoreCellLineKeywords(allText, c)
	s.scoreFamilies(allText, c)
	s.scoreDiseaseField(record, ex, c)
	s.scoreFlags(allText, c)
	s.scoreTissues(allText, c)
	s.scoreGrade(allText, c)

	return c.evidence
}

// scoreTumorFlags checks explicit tumor columns such as Tumor=yes.
func (s *Scorer) scoreTumorFlags(record types.SampleRecord, c *collector) {
	for _, field := range s.table.TumorFlagFields {
		v := strings.ToLower(strings.TrimSpace(record.Get(field)))
		if v == "" {
			continue
		}
		for _, flag := range s.table.TumorFlagValues {
			if v == flag {
				c.add(string(types.CategoryTumor), tumorFlagWeight,
					fmt.Sprintf("tumor flag: %s=%s", field, v))
				break
			}
		}
	}
}

// scoreReference matches the reference set against the primary blob at
// full weight and the secondary blob at reduced weight. A name already
// matched in the primary tier is not re-scored from the secondary one.
func (s *Scorer) scoreReference(ex extract.Extracted, c *collector) {
	if s.ref.Len() == 0 {
		return
	}

	primarySeen := make(map[string]bool)
	for _, m := range s.ref.FindMatches(ex.Primary) {
		if primarySeen[m.Display] {
			continue
		}
		primarySeen[m.Display] = true
		c.add(string(types.CategoryCellLine), s.cfg.ReferenceMatchWeightPrimary,
			"cell line match: "+m.Display)
	}

	secondarySeen := make(map[string]bool)
	for _, m := range s.ref.FindMatches(ex.Secondary) {
		if primarySeen[m.Display] || secondarySeen[m.Display] {
			continue
		}
		secondarySeen[m.Display] = true
		c.add(string(types.CategoryCellLine), s.cfg.ReferenceMatchWeightSecondary,
			"cell line match (secondary): "+m.Display)
	}
}

// scoreCellLineKeywords adds low-confidence generic keyword evidence
// ("culture", "passage"). Alone this is not corroboration for the
// cell-line precedence rule.
func (s *Scorer) scoreCellLineKeywords(text string, c *collector) {
	for _, kw := range s.table.CellLineGeneric {
		if reference.ContainsToken(text, kw) {
			c.add(string(types.CategoryCellLine), s.cfg.CellLineKeywordWeight,
				"cell line keyword: "+kw)
		}
	}
}

// scoreFamilies applies the primary-category keyword families. Each
// distinct keyword contributes its family weight once.
func (s *Scorer) scoreFamilies(text string, c *collector) {
	for _, f := range s.table.Families {
		for _, kw := range f.Keywords {
			if reference.ContainsToken(text, kw) {
				c.add(string(f.Category), f.Weight, "keyword: "+kw)
			}
		}
	}
}

// scoreDiseaseField performs the structural normal check: a diagnosis
// field explicitly stating no disease, or present but empty on an
// otherwise non-empty record, corroborates Normal.
func (s *Scorer) scoreDiseaseField(record types.SampleRecord, ex extract.Extracted, c *collector) {
	for _, field := range s.table.DiseaseFields {
		v, ok := record[field]
		if !ok {
			continue
		}
		v = strings.ToLower(strings.TrimSpace(v))

		if v == "" {
			if !ex.Empty() {
				c.add(string(types.CategoryNormal), structuralWeight, "disease field empty")
				c.add(types.TargetControl, structuralWeight, "disease field empty")
			}
			return
		}
		for _, healthy := range s.table.HealthyDiseaseValues {
			if v == healthy {
				c.add(string(types.CategoryNormal), structuralWeight, "disease field: "+v)
				c.add(types.TargetControl, structuralWeight, "disease field: "+v)
				return
			}
		}
		return
	}
}

// scoreFlags covers the sorted-population, adjacent-normal, and
// control keyword checks. Adjacent-normal hits also corroborate the
// Normal category.
func (s *Scorer) scoreFlags(text string, c *collector) {
	for _, kw := range s.table.BulkSorted {
		if reference.ContainsToken(text, kw) {
			c.add(types.TargetBulkSorted, bulkSortedWeight, "sorted population: "+kw)
		}
	}

	for _, kw := range s.table.AdjacentNormal {
		if reference.ContainsToken(text, kw) {
			c.add(types.TargetAdjacentNormal, attributeWeight, "adjacent normal: "+kw)
			c.add(string(types.CategoryNormal), attributeWeight, "adjacent normal: "+kw)
		}
	}

	for _, kw := range s.table.ControlKeywords {
		if reference.ContainsToken(text, kw) {
			c.add(types.TargetControl, attributeWeight, "control indicator: "+kw)
		}
	}
}

// scoreTissues records the first matching keyword per canonical
// tissue. More than one distinct tissue matching is recorded as an
// ambiguity note with zero weight.
func (s *Scorer) scoreTissues(text string, c *collector) {
	var matched []string
	for _, tr := range s.table.Tissues {
		for _, kw := range tr.Keywords {
			if reference.ContainsToken(text, kw) {
				c.add(types.TargetTissuePrefix+tr.Tissue, attributeWeight,
					fmt.Sprintf("tissue: %s (%s)", tr.Tissue, kw))
				matched = append(matched, tr.Tissue)
				break
			}
		}
	}
	if len(matched) > 1 {
		c.add(types.TargetTissuePrefix+"ambiguous", 0,
			"ambiguous tissue: "+strings.Join(matched, ", "))
	}
}

// scoreGrade records the dysplasia grade. Rules are checked in table
// order and the first match wins.
func (s *Scorer) scoreGrade(text string, c *collector) {
	for _, gr := range s.table.Grades {
		for _, kw := range gr.Keywords {
			if reference.ContainsToken(text, kw) {
				c.add(types.TargetGradePrefix+string(gr.Grade), attributeWeight,
					fmt.Sprintf("grade: %s (%s)", gr.Grade, kw))
				return
			}
		}
	}
}
