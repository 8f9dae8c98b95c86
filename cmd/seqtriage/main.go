// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the seqtriage CLI.
// See docs/ARCHITECTURE § Pipeline Interface.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meshbio/seqtriage/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the seqtriage CLI.
var rootCmd = &cobra.Command{
	Use:   "seqtriage",
	Short: "Evidence-based classification of sequencing-sample metadata",
	Long: `seqtriage classifies sequencing samples into biological categories
(Tumor, Normal, Cell line, Pre-malignant, Unknown) from heterogeneous,
sparsely populated metadata records. Every label carries a confidence
score and a human-auditable evidence trail, plus derived attributes:
tissue of origin, dysplasia grade, and control/adjacent-normal flags.

The classify subcommand runs a batch; reference inspects a cell-line
reference table; store lists and queries archived runs.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logger.SetLevel(viper.GetString("log.level"))
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./seqtriage.yaml or ~/.config/seqtriage/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("seqtriage")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "seqtriage"))
		}
	}

	viper.SetEnvPrefix("SEQTRIAGE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
