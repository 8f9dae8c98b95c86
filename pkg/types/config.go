package types

// ExtractConfig holds the field-tier configuration for text extraction.
type ExtractConfig struct {
	// PrimaryFields are the high-trust fields, in concatenation order
	// (e.g. disease, cell_line, sample_title, source_name).
	PrimaryFields []string `json:"primary_fields" yaml:"primary_fields"`

	// SecondaryFields are contextual fields matched at reduced weight
	// (e.g. study_title, experiment_title).
	SecondaryFields []string `json:"secondary_fields" yaml:"secondary_fields"`
}

// ReferenceConfig holds settings for the cell-line reference set.
type ReferenceConfig struct {
	// Path is the reference table (CSV or TSV) with at least one name column.
	Path string `json:"path" yaml:"path"`

	// NameColumns are the columns registered as patterns. Empty uses
	// the defaults (CellLineName, StrippedCellLineName, name, cell_line_name).
	NameColumns []string `json:"name_columns,omitempty" yaml:"name_columns,omitempty"`

	// MinPatternLength drops patterns shorter than this (default 3).
	MinPatternLength int `json:"min_pattern_length" yaml:"min_pattern_length"`

	// KeywordOnly allows classification without a reference set. When
	// false, a missing or empty reference table is fatal.
	KeywordOnly bool `json:"keyword_only" yaml:"keyword_only"`
}

// TieBreak selects the policy for equal Tumor and Pre-malignant scores.
type TieBreak string

const (
	TieBreakPreferPreMalignant TieBreak = "prefer-premalignant"
	TieBreakPreferTumor        TieBreak = "prefer-tumor"
)

// ClassifyConfig holds scoring weights and decision thresholds.
type ClassifyConfig struct {
	// CellLineKeywordWeight is the weight of a generic cell-line
	// keyword hit such as "culture" or "passage" (default 0.3).
	CellLineKeywordWeight float64 `json:"cell_line_keyword_weight" yaml:"cell_line_keyword_weight"`

	// ReferenceMatchWeightPrimary is the weight of a reference pattern
	// found in the primary text (default 1.0).
	ReferenceMatchWeightPrimary float64 `json:"reference_match_weight_primary" yaml:"reference_match_weight_primary"`

	// ReferenceMatchWeightSecondary is the weight of a reference
	// pattern found only in the secondary text (default 0.4).
	ReferenceMatchWeightSecondary float64 `json:"reference_match_weight_secondary" yaml:"reference_match_weight_secondary"`

	// ConfidenceCap clamps every category score (default 2.0).
	ConfidenceCap float64 `json:"confidence_cap" yaml:"confidence_cap"`

	// UnknownThreshold is the score a category must exceed to avoid the
	// Unknown fallback (default 0.0).
	UnknownThreshold float64 `json:"unknown_threshold" yaml:"unknown_threshold"`

	// CellLineCorroboration is the minimum cell-line score for the
	// cell-line precedence rule. At the default 1.0, keyword-only
	// evidence never claims precedence over other categories.
	CellLineCorroboration float64 `json:"cell_line_corroboration" yaml:"cell_line_corroboration"`

	// TieBreak resolves equal Tumor and Pre-malignant scores
	// (default prefer-premalignant).
	TieBreak TieBreak `json:"tie_break" yaml:"tie_break"`

	// Workers bounds batch concurrency. Zero or negative uses GOMAXPROCS.
	Workers int `json:"workers" yaml:"workers"`
}

// StoreConfig holds settings for the run archive.
type StoreConfig struct {
	// Dir is the base directory for the archive (contains index/).
	Dir string `json:"dir" yaml:"dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Extract   ExtractConfig   `json:"extract" yaml:"extract"`
	Reference ReferenceConfig `json:"reference" yaml:"reference"`
	Classify  ClassifyConfig  `json:"classify" yaml:"classify"`
	Store     StoreConfig     `json:"store" yaml:"store"`

	// RulesPath optionally overrides the built-in keyword tables with a
	// YAML rules file.
	RulesPath string `json:"rules_path,omitempty" yaml:"rules_path,omitempty"`
}

// DefaultPrimaryFields are the high-trust fields checked first.
func DefaultPrimaryFields() []string {
	return []string{
		"disease", "disease_state", "Disease", "cell_line", "cell_type",
		"sample_title", "source_name", "tissue_type", "histological_type",
		"Histological_Type", "phenotype", "SampleName", "Tumor", "is_tumor",
		"body_site", "Body_Site", "organism_part", "sampling_site",
	}
}

// DefaultSecondaryFields are the contextual fields matched at reduced weight.
func DefaultSecondaryFields() []string {
	return []string{
		"study_title", "experiment_title", "treatment", "genotype",
		"isolate", "strain", "library_name", "biomaterial_provider",
	}
}

// DefaultClassifyConfig returns the documented default weights and thresholds.
func DefaultClassifyConfig() ClassifyConfig {
	return ClassifyConfig{
		CellLineKeywordWeight:         0.3,
		ReferenceMatchWeightPrimary:   1.0,
		ReferenceMatchWeightSecondary: 0.4,
		ConfidenceCap:                 2.0,
		UnknownThreshold:              0.0,
		CellLineCorroboration:         1.0,
		TieBreak:                      TieBreakPreferPreMalignant,
	}
}

// DefaultPipelineConfig returns a PipelineConfig with all defaults applied.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Extract: ExtractConfig{
			PrimaryFields:   DefaultPrimaryFields(),
			SecondaryFields: DefaultSecondaryFields(),
		},
		Reference: ReferenceConfig{
			MinPatternLength: 3,
		},
		Classify: DefaultClassifyConfig(),
		Store: StoreConfig{
			Dir:        "runs",
			MaxResults: 20,
		},
	}
}
