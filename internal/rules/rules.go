// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rules holds the keyword, tissue, and grade tables the scorer
// applies. The tables are data, not code: Default returns the built-in
// set and Load replaces it from a YAML file, so the engine generalizes
// beyond one cancer type without code changes.
// See docs/ARCHITECTURE § Rule Tables.
package rules

import (
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/meshbio/seqtriage/pkg/types"
)

// Family is one keyword family contributing evidence to a primary
// category. Each distinct keyword matched contributes the family
// weight once per record.
type Family struct {
	Name     string         `yaml:"name"`
	Category types.Category `yaml:"category"`
	Weight   float64        `yaml:"weight"`
	Keywords []string       `yaml:"keywords"`
}

// TissueRule maps keywords to one canonical tissue name.
type TissueRule struct {
	Tissue   string   `yaml:"tissue"`
	Keywords []string `yaml:"keywords"`
}

// GradeRule maps keywords to one dysplasia grade. Rules are checked in
// table order and the first match wins; grade is not additive.
type GradeRule struct {
	Grade    types.Grade `yaml:"grade"`
	Keywords []string    `yaml:"keywords"`
}

// Table is the complete rule set for one classification run.
type Table struct {
	// Families are the primary-category keyword families.
	Families []Family `yaml:"families"`

	// CellLineGeneric are generic cell-line keywords scored at the
	// configured keyword weight; alone they are not corroboration.
	CellLineGeneric []string `yaml:"cell_line_generic"`

	Tissues []TissueRule `yaml:"tissues"`
	Grades  []GradeRule  `yaml:"grades"`

	// BulkSorted and AdjacentNormal feed the derived flags.
	BulkSorted     []string `yaml:"bulk_sorted"`
	AdjacentNormal []string `yaml:"adjacent_normal"`

	// ControlKeywords feed the is_control flag.
	ControlKeywords []string `yaml:"control_keywords"`

	// TumorFlagFields/TumorFlagValues drive the explicit tumor flag
	// check (e.g. Tumor=yes in archive exports).
	TumorFlagFields []string `yaml:"tumor_flag_fields"`
	TumorFlagValues []string `yaml:"tumor_flag_values"`

	// DiseaseFields are the diagnosis fields for the structural normal
	// check; HealthyDiseaseValues are values treated as "no disease".
	DiseaseFields        []string `yaml:"disease_fields"`
	HealthyDiseaseValues []string `yaml:"healthy_disease_values"`
}

// Default returns the built-in rule tables.
func Default() Table {
	return Table{
		Families: []Family{
			{
				Name:     "malignancy",
				Category: types.CategoryTumor,
				Weight:   0.5,
				Keywords: []string{
					"carcinoma", "cancer", "tumor", "tumour", "malignant",
					"adenocarcinoma", "squamous cell carcinoma", "scc",
					"invasive", "metastatic", "neoplasm", "sarcoma",
					"lymphoma", "leukemia", "melanoma", "glioblastoma",
					"blastoma", "carcinoid", "adenoma", "papilloma", "fibroma",
				},
			},
			{
				Name:     "pre-malignant",
				Category: types.CategoryPreMalignant,
				Weight:   0.5,
				Keywords: []string{
					"barrett", "metaplasia", "dysplasia", "lgd", "hgd",
					"pre-malignant", "premalignant", "precancerous",
					"precursor", "atypia", "hyperplasia", "in situ",
				},
			},
			{
				Name:     "normal",
				Category: types.CategoryNormal,
				Weight:   0.5,
				Keywords: []string{
					"normal", "healthy", "control", "non-diseased",
					"squamous epithelium", "healthy donor", "baseline",
					"wild type", "non-tumor", "benign",
				},
			},
		},
		CellLineGeneric: []string{
			"cell line", "cellline", "culture", "cultured",
			"passage", "passaged", "clone",
		},
		Tissues: []TissueRule{
			{Tissue: "esophagus", Keywords: []string{"esophagus", "esophageal", "oesophagus", "oesophageal"}},
			{Tissue: "stomach", Keywords: []string{"stomach", "gastric"}},
			{Tissue: "colon", Keywords: []string{"colon", "colorectal", "intestine", "intestinal", "rectal"}},
			{Tissue: "lung", Keywords: []string{"lung", "pulmonary"}},
			{Tissue: "liver", Keywords: []string{"liver", "hepatic", "hepatocellular"}},
			{Tissue: "breast", Keywords: []string{"breast", "mammary"}},
			{Tissue: "pancreas", Keywords: []string{"pancreas", "pancreatic"}},
			{Tissue: "brain", Keywords: []string{"brain", "cerebral", "glioma"}},
			{Tissue: "ovary", Keywords: []string{"ovary", "ovarian"}},
			{Tissue: "prostate", Keywords: []string{"prostate", "prostatic"}},
			{Tissue: "kidney", Keywords: []string{"kidney", "renal"}},
			{Tissue: "skin", Keywords: []string{"skin", "cutaneous", "dermal"}},
			{Tissue: "blood", Keywords: []string{"blood", "pbmc", "leukocyte"}},
		},
		Grades: []GradeRule{
			{Grade: types.GradeLGD, Keywords: []string{"lgd", "low grade dysplasia", "low-grade dysplasia"}},
			{Grade: types.GradeHGD, Keywords: []string{"hgd", "high grade dysplasia", "high-grade dysplasia"}},
			{Grade: types.GradeIndefinite, Keywords: []string{"indefinite for dysplasia", "indefinite"}},
			{Grade: types.GradeNone, Keywords: []string{"no dysplasia", "without dysplasia"}},
		},
		BulkSorted: []string{
			"sorted", "purified", "isolated", "enriched", "facs",
			"magnetic", "cd4", "cd8", "t cell", "b cell",
			"monocyte", "macrophage",
		},
		AdjacentNormal: []string{
			"adjacent normal", "normal adjacent", "adjacent",
			"marginal normal", "paired normal", "surrounding normal",
		},
		ControlKeywords: []string{
			"control", "healthy", "healthy donor", "baseline",
		},
		TumorFlagFields: []string{"Tumor", "is_tumor"},
		TumorFlagValues: []string{"yes", "true", "1"},
		DiseaseFields:   []string{"disease", "disease_state", "Disease", "diagnosis"},
		HealthyDiseaseValues: []string{
			"none", "healthy", "normal", "non-diseased", "not applicable",
		},
	}
}

// Load reads a complete rule table from a YAML file, replacing the
// built-in defaults. The file must pass Validate.
func Load(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("reading rules file: %w", err)
	}
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Table{}, fmt.Errorf("parsing rules file %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return Table{}, fmt.Errorf("rules file %s: %w", path, err)
	}
	return t, nil
}

// Validate checks the table for structural problems: empty families,
// unknown categories, non-positive weights, and blank keywords in any
// keyword list.
func (t Table) Validate() error {
	if len(t.Families) == 0 {
		return fmt.Errorf("no keyword families defined")
	}
	for _, f := range t.Families {
		if f.Name == "" {
			return fmt.Errorf("keyword family with empty name")
		}
		switch f.Category {
		case types.CategoryTumor, types.CategoryNormal,
			types.CategoryCellLine, types.CategoryPreMalignant:
		default:
			return fmt.Errorf("family %s: unknown category %q", f.Name, f.Category)
		}
		if f.Weight <= 0 {
			return fmt.Errorf("family %s: weight must be positive", f.Name)
		}
		if len(f.Keywords) == 0 {
			return fmt.Errorf("family %s: no keywords", f.Name)
		}
		if err := checkKeywords(f.Keywords, "family "+f.Name); err != nil {
			return err
		}
	}
	for _, tr := range t.Tissues {
		if tr.Tissue == "" || len(tr.Keywords) == 0 {
			return fmt.Errorf("tissue rule with empty tissue or keywords")
		}
		if err := checkKeywords(tr.Keywords, "tissue "+tr.Tissue); err != nil {
			return err
		}
	}
	for _, gr := range t.Grades {
		if gr.Grade == "" || len(gr.Keywords) == 0 {
			return fmt.Errorf("grade rule with empty grade or keywords")
		}
		if err := checkKeywords(gr.Keywords, "grade "+string(gr.Grade)); err != nil {
			return err
		}
	}

	lists := []struct {
		name     string
		keywords []string
	}{
		{"cell_line_generic", t.CellLineGeneric},
		{"bulk_sorted", t.BulkSorted},
		{"adjacent_normal", t.AdjacentNormal},
		{"control_keywords", t.ControlKeywords},
	}
	for _, l := range lists {
		if err := checkKeywords(l.keywords, l.name); err != nil {
			return err
		}
	}
	return nil
}

// checkKeywords rejects blank entries, which would otherwise match
// everywhere or nowhere depending on the matcher.
func checkKeywords(keywords []string, context string) error {
	for _, kw := range keywords {
		if strings.TrimSpace(kw) == "" {
			return fmt.Errorf("%s: blank keyword", context)
		}
	}
	return nil
}
