// Command gqlintel loads a GraphQL project's schema and documents and
// reports on it: project status and schema stats (analyze), the full set
// of syntax/validation/lint diagnostics per file (diagnostics), and a
// project-wide lint pass (lint). Adapted from the teacher's
// cmd/graphql-go-gen/main.go; no code generation subcommand is carried
// over, since this module has no codegen pipeline behind it.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	cfgFile string
	verbose bool
	quiet   bool
)

func loggerFromFlags(cmd *cobra.Command) Logger {
	return newLogger(cmd.OutOrStdout(), cmd.ErrOrStderr(), verbose, quiet)
}

var rootCmd = &cobra.Command{
	Use:     "gqlintel",
	Short:   "A GraphQL schema and document analysis tool",
	Long:    "gqlintel loads a project's GraphQL schema and operation documents and answers diagnostic and lint queries against them.",
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")

	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newDiagnosticsCmd())
	rootCmd.AddCommand(newLintCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
