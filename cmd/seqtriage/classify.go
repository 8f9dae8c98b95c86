// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meshbio/seqtriage/internal/classify"
	"github.com/meshbio/seqtriage/internal/logger"
	"github.com/meshbio/seqtriage/internal/reference"
	"github.com/meshbio/seqtriage/internal/report"
	"github.com/meshbio/seqtriage/internal/rules"
	"github.com/meshbio/seqtriage/internal/score"
	"github.com/meshbio/seqtriage/internal/store"
	"github.com/meshbio/seqtriage/pkg/types"
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify a batch of sample metadata records",
	Long: `Classify reads a tab-delimited batch of sample metadata, scores each
record against the cell-line reference set and the keyword rule tables,
and writes the batch back out with classification columns prepended:
label, confidence, evidence, and the derived attributes.

A run always finishes and always produces one output row per input row;
structurally bad rows degrade to Unknown with a parse-error note.`,
	RunE: runClassify,
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig()

	inputPath, _ := cmd.Flags().GetString("input")
	outputPath, _ := cmd.Flags().GetString("output")
	save, _ := cmd.Flags().GetBool("save")

	table := rules.Default()
	if cfg.RulesPath != "" {
		var err error
		table, err = rules.Load(cfg.RulesPath)
		if err != nil {
			return err
		}
		logger.Log.WithField("path", cfg.RulesPath).Info("Loaded rule tables")
	}

	ref, err := loadReference(cfg.Reference)
	if err != nil {
		return err
	}

	in, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("opening input %s: %w", inputPath, err)
	}
	defer in.Close()

	batch, err := report.ReadBatch(in)
	if err != nil {
		return err
	}
	logger.Log.WithFields(logrus.Fields{
		"samples": len(batch.Records),
		"columns": len(batch.Columns),
	}).Info("Loaded batch")

	scorer := score.New(ref, table, cfg.Classify)
	classifier := classify.New(scorer, cfg.Extract, cfg.Classify)

	results, err := classifier.ClassifyBatch(context.Background(), batch.Records, os.Stderr)
	if err != nil {
		return err
	}

	out := os.Stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("creating output %s: %w", outputPath, err)
		}
		defer f.Close()
		out = f
	}
	if err := report.WriteBatch(out, batch, results); err != nil {
		return err
	}

	summary := report.Summarize(results)
	report.FormatSummary(summary, os.Stderr)

	if save {
		st, err := store.NewStore(cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()

		runID, err := st.SaveRun(context.Background(), inputPath, results, summary)
		if err != nil {
			return err
		}
		logger.Log.WithField("run", runID).Info("Archived run")
	}

	return nil
}

// loadReference loads the configured reference set, or returns nil in
// keyword-only mode. A missing or unusable reference table is fatal
// unless keyword-only mode is explicitly enabled.
func loadReference(cfg types.ReferenceConfig) (*reference.Set, error) {
	if cfg.Path == "" {
		if cfg.KeywordOnly {
			logger.Log.Warn("No reference set: running in keyword-only mode")
			return nil, nil
		}
		return nil, fmt.Errorf("no reference table configured: set reference.path or enable reference.keyword_only")
	}

	ref, err := reference.Load(cfg)
	if err != nil {
		if cfg.KeywordOnly {
			logger.Log.WithField("error", err).Warn("Reference load failed: running in keyword-only mode")
			return nil, nil
		}
		return nil, err
	}
	logger.Log.WithField("patterns", ref.Len()).Info("Loaded cell line reference")
	return ref, nil
}

func init() {
	classifyCmd.Flags().StringP("input", "i", "", "input TSV file with sample metadata (required)")
	classifyCmd.Flags().StringP("output", "o", "", "output TSV file (default: stdout)")
	classifyCmd.Flags().String("reference", "", "cell line reference table (CSV or TSV)")
	classifyCmd.Flags().String("rules", "", "YAML rule table overriding the built-in keywords")
	classifyCmd.Flags().Bool("keyword-only", false, "classify without a reference set")
	classifyCmd.Flags().Int("workers", 0, "batch concurrency (0 = number of CPUs)")
	classifyCmd.Flags().Bool("save", false, "archive the run in the store")
	classifyCmd.MarkFlagRequired("input")

	viper.BindPFlag("reference.path", classifyCmd.Flags().Lookup("reference"))
	viper.BindPFlag("reference.keyword_only", classifyCmd.Flags().Lookup("keyword-only"))
	viper.BindPFlag("rules.path", classifyCmd.Flags().Lookup("rules"))
	viper.BindPFlag("classify.workers", classifyCmd.Flags().Lookup("workers"))

	rootCmd.AddCommand(classifyCmd)
}
