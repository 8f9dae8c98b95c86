// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/viper"

	"github.com/meshbio/seqtriage/pkg/types"
)

func init() {
	defaults := types.DefaultPipelineConfig()

	viper.SetDefault("extract.primary_fields", defaults.Extract.PrimaryFields)
	viper.SetDefault("extract.secondary_fields", defaults.Extract.SecondaryFields)

	viper.SetDefault("reference.min_pattern_length", defaults.Reference.MinPatternLength)
	viper.SetDefault("reference.keyword_only", false)

	viper.SetDefault("classify.cell_line_keyword_weight", defaults.Classify.CellLineKeywordWeight)
	viper.SetDefault("classify.reference_match_weight_primary", defaults.Classify.ReferenceMatchWeightPrimary)
	viper.SetDefault("classify.reference_match_weight_secondary", defaults.Classify.ReferenceMatchWeightSecondary)
	viper.SetDefault("classify.confidence_cap", defaults.Classify.ConfidenceCap)
	viper.SetDefault("classify.unknown_threshold", defaults.Classify.UnknownThreshold)
	viper.SetDefault("classify.cell_line_corroboration", defaults.Classify.CellLineCorroboration)
	viper.SetDefault("classify.tie_break", string(defaults.Classify.TieBreak))
	viper.SetDefault("classify.workers", 0)

	viper.SetDefault("store.dir", defaults.Store.Dir)
	viper.SetDefault("store.max_results", defaults.Store.MaxResults)
}

// pipelineConfig assembles the effective configuration from config
// file, environment, and flag bindings.
func pipelineConfig() types.PipelineConfig {
	return types.PipelineConfig{
		Extract: types.ExtractConfig{
			PrimaryFields:   viper.GetStringSlice("extract.primary_fields"),
			SecondaryFields: viper.GetStringSlice("extract.secondary_fields"),
		},
		Reference: types.ReferenceConfig{
			Path:             viper.GetString("reference.path"),
			NameColumns:      viper.GetStringSlice("reference.name_columns"),
			MinPatternLength: viper.GetInt("reference.min_pattern_length"),
			KeywordOnly:      viper.GetBool("reference.keyword_only"),
		},
		Classify: types.ClassifyConfig{
			CellLineKeywordWeight:         viper.GetFloat64("classify.cell_line_keyword_weight"),
			ReferenceMatchWeightPrimary:   viper.GetFloat64("classify.reference_match_weight_primary"),
			ReferenceMatchWeightSecondary: viper.GetFloat64("classify.reference_match_weight_secondary"),
			ConfidenceCap:                 viper.GetFloat64("classify.confidence_cap"),
			UnknownThreshold:              viper.GetFloat64("classify.unknown_threshold"),
			CellLineCorroboration:         viper.GetFloat64("classify.cell_line_corroboration"),
			TieBreak:                      types.TieBreak(viper.GetString("classify.tie_break")),
			Workers:                       viper.GetInt("classify.workers"),
		},
		Store: types.StoreConfig{
			Dir:        viper.GetString("store.dir"),
			MaxResults: viper.GetInt("store.max_results"),
		},
		RulesPath: viper.GetString("rules.path"),
	}
}
