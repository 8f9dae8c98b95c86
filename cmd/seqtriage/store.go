// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meshbio/seqtriage/internal/store"
	"github.com/meshbio/seqtriage/pkg/types"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "List, query, and export archived classification runs",
	Long: `Store manages the local SQLite archive of classification runs written
by classify --save. Use subcommands to list runs, query results with
full-text search over evidence strings, or export a run as YAML.`,
}

// --- list subcommand ---

var storeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived runs, newest first",
	RunE:  runStoreList,
}

func runStoreList(cmd *cobra.Command, args []string) error {
	st, err := store.NewStore(pipelineConfig().Store)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns(context.Background())
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No archived runs.")
		return nil
	}

	fmt.Printf("%-4s  %-20s  %-30s  %6s  %6s  %6s  %6s  %6s  %6s\n",
		"Run", "Created", "Input", "Total", "Tumor", "Normal", "Cell", "PreMal", "Unk")
	fmt.Println(strings.Repeat("-", 104))
	for _, r := range runs {
		input := r.InputFile
		if len(input) > 30 {
			input = input[:27] + "..."
		}
		fmt.Printf("%-4d  %-20s  %-30s  %6d  %6d  %6d  %6d  %6d  %6d\n",
			r.ID, r.CreatedAt, input, r.Total,
			r.Tumor, r.Normal, r.CellLine, r.PreMalignant, r.Unknown)
	}
	return nil
}

// --- query subcommand ---

var storeQueryCmd = &cobra.Command{
	Use:   "query [evidence terms]",
	Short: "Query archived results with full-text search and filters",
	Long: `Query searches archived classification results with FTS5 full-text
search over evidence strings, structured filters (label, tissue, run),
or a combination of both.`,
	RunE: runStoreQuery,
}

func runStoreQuery(cmd *cobra.Command, args []string) error {
	st, err := store.NewStore(pipelineConfig().Store)
	if err != nil {
		return err
	}
	defer st.Close()

	opts := queryOptsFromFlags(cmd, args)
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide evidence terms, --label, --tissue, or --run")
	}

	results, err := st.Retrieve(context.Background(), opts)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("%-4s  %-4s  %-5s  %-14s  %-5s  %-12s  %s\n",
		"Run", "Pos", "Conf", "Label", "Cell", "Tissue", "Evidence")
	fmt.Println(strings.Repeat("-", 100))
	for _, r := range results {
		evidence := strings.Join(r.Evidence, "; ")
		if len(evidence) > 40 {
			evidence = evidence[:37] + "..."
		}
		fmt.Printf("%-4d  %-4d  %-5.2f  %-14s  %-5s  %-12s  %s\n",
			r.RunID, r.Position, r.Confidence, r.TopLabel,
			yesNo(r.IsCellLine), r.TissueOrigin, evidence)
	}
	fmt.Printf("\n%d results\n", len(results))
	return nil
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

// --- export subcommand ---

var storeExportCmd = &cobra.Command{
	Use:   "export [run-id]",
	Short: "Export an archived run as YAML",
	Args:  cobra.ExactArgs(1),
	RunE:  runStoreExport,
}

func runStoreExport(cmd *cobra.Command, args []string) error {
	var runID int64
	if _, err := fmt.Sscanf(args[0], "%d", &runID); err != nil {
		return fmt.Errorf("invalid run id %q", args[0])
	}

	st, err := store.NewStore(pipelineConfig().Store)
	if err != nil {
		return err
	}
	defer st.Close()

	return st.ExportYAML(context.Background(), runID, os.Stdout)
}

// --- shared helpers ---

func queryOptsFromFlags(cmd *cobra.Command, args []string) store.QueryOptions {
	label, _ := cmd.Flags().GetString("label")
	tissue, _ := cmd.Flags().GetString("tissue")
	runID, _ := cmd.Flags().GetInt64("run")
	limit, _ := cmd.Flags().GetInt("limit")

	return store.QueryOptions{
		Evidence:   strings.Join(args, " "),
		Label:      types.Category(label),
		Tissue:     tissue,
		RunID:      runID,
		MaxResults: limit,
	}
}

func init() {
	storeCmd.PersistentFlags().String("store-dir", "runs", "base directory for the run archive")
	viper.BindPFlag("store.dir", storeCmd.PersistentFlags().Lookup("store-dir"))

	storeQueryCmd.Flags().String("label", "", "filter by label: Tumor, Normal, Cell line, Pre-malignant, Unknown")
	storeQueryCmd.Flags().String("tissue", "", "filter by tissue origin")
	storeQueryCmd.Flags().Int64("run", 0, "filter by run id")
	storeQueryCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")

	storeCmd.AddCommand(storeListCmd)
	storeCmd.AddCommand(storeQueryCmd)
	storeCmd.AddCommand(storeExportCmd)

	rootCmd.AddCommand(storeCmd)
}
