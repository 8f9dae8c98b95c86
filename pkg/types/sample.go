// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// SampleRecord is one sequencing run's metadata: an open mapping from
// field name to raw value. Most fields are optional and frequently
// empty. Records are never mutated by the classifier; results are
// emitted alongside them.
type SampleRecord map[string]string

// Get returns the trimmed value for a field, or "" when the field is
// absent. Field names are matched exactly as stored.
func (r SampleRecord) Get(field string) string {
	if r == nil {
		return ""
	}
	return r[field]
}

// Category is a primary classification label.
type Category string

const (
	CategoryTumor        Category = "Tumor"
	CategoryNormal       Category = "Normal"
	CategoryCellLine     Category = "Cell line"
	CategoryPreMalignant Category = "Pre-malignant"
	CategoryUnknown      Category = "Unknown"
)

// Categories lists the primary labels in reporting order.
func Categories() []Category {
	return []Category{
		CategoryTumor,
		CategoryNormal,
		CategoryCellLine,
		CategoryPreMalignant,
		CategoryUnknown,
	}
}

// Grade is a disease-severity sub-classification (dysplasia grading),
// independent of the primary label.
type Grade string

const (
	GradeLGD        Grade = "LGD"
	GradeHGD        Grade = "HGD"
	GradeIndefinite Grade = "indefinite"
	GradeNone       Grade = "no dysplasia"
	GradeUnknown    Grade = "unknown"
)

// Evidence targets for derived attributes. Primary-category evidence
// uses the Category name as its target; derived-attribute evidence uses
// one of these, with tissue and grade targets carrying their value
// after the prefix (e.g. "tissue/esophagus", "grade/LGD").
const (
	TargetControl        = "control"
	TargetAdjacentNormal = "adjacent_normal"
	TargetBulkSorted     = "bulk_sorted"
	TargetTissuePrefix   = "tissue/"
	TargetGradePrefix    = "grade/"
)

// Evidence is a single weighted observation supporting a candidate
// classification or derived attribute. Evidence accumulates in order
// per record; the same (target, description) pair never contributes
// twice within one record.
type Evidence struct {
	// Target is a Category name or a derived-attribute target.
	Target string `json:"target" yaml:"target"`

	// Weight is the category-specific contribution of this observation.
	Weight float64 `json:"weight" yaml:"weight"`

	// Description is the human-readable audit string
	// (e.g. `cell line match: MCF7`, `keyword: barrett`).
	Description string `json:"description" yaml:"description"`
}

// ClassificationResult is the per-record output: the winning label with
// its confidence and evidence trail, plus derived attributes computed
// from the same evidence. Created once per record and never mutated.
type ClassificationResult struct {
	// TopLabel is the winning primary category.
	TopLabel Category `json:"top_label" yaml:"top_label"`

	// Confidence is the winning category's summed weight, clamped to
	// the configured cap.
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// Evidence lists the descriptions that contributed to the winning
	// category, in observation order.
	Evidence []string `json:"evidence" yaml:"evidence"`

	IsCellLine     bool `json:"is_cell_line" yaml:"is_cell_line"`
	IsControl      bool `json:"is_control" yaml:"is_control"`
	IsBulkSorted   bool `json:"is_bulk_sorted" yaml:"is_bulk_sorted"`
	AdjacentNormal bool `json:"adjacent_normal" yaml:"adjacent_normal"`

	// TissueOrigin is the canonical tissue name or "unknown".
	TissueOrigin string `json:"tissue_origin" yaml:"tissue_origin"`

	// Grade is the dysplasia grade or "unknown".
	Grade Grade `json:"grade" yaml:"grade"`

	// DerivedConfidence and DerivedEvidence mirror Confidence/Evidence
	// for the derived attributes.
	DerivedConfidence float64  `json:"derived_confidence" yaml:"derived_confidence"`
	DerivedEvidence   []string `json:"derived_evidence" yaml:"derived_evidence"`

	// Malformed marks a record that could not be classified
	// structurally; such records carry TopLabel Unknown and a parse
	// error note in Evidence.
	Malformed bool `json:"malformed,omitempty" yaml:"malformed,omitempty"`
}

// ClassificationSummary aggregates counts across one classified batch.
type ClassificationSummary struct {
	Total          int              `json:"total" yaml:"total"`
	Labels         map[Category]int `json:"labels" yaml:"labels"`
	TissueOrigins  map[string]int   `json:"tissue_origins" yaml:"tissue_origins"`
	Grades         map[Grade]int    `json:"grades" yaml:"grades"`
	CellLines      int              `json:"cell_lines" yaml:"cell_lines"`
	Controls       int              `json:"controls" yaml:"controls"`
	BulkSorted     int              `json:"bulk_sorted" yaml:"bulk_sorted"`
	AdjacentNormal int              `json:"adjacent_normal" yaml:"adjacent_normal"`
	Malformed      int              `json:"malformed" yaml:"malformed"`
}
