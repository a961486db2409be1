package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// analyzeReport is analyze's summary: how much of the project loaded, and
// what load_schemas_from_config/load_documents_from_config flagged along
// the way — the "did my config load" check distinct from diagnostics/lint,
// which assume a project is already loaded cleanly.
type analyzeReport struct {
	ConfigPath          string         `json:"configPath"`
	SchemaFileCount     int            `json:"schemaFileCount"`
	DocumentFileCount   int            `json:"documentFileCount"`
	HasSchema           bool           `json:"hasSchema"`
	TypeCounts          map[string]int `json:"typeCounts"`
	TotalTypeCount      int            `json:"totalTypeCount"`
	SchemaConflictCount int            `json:"schemaConflictCount"`
	PendingResolved     int            `json:"pendingIntrospectionsResolved"`
	ContentErrorCount   int            `json:"contentErrorCount"`
}

func newAnalyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze",
		Short: "Load a project's config and report its schema/document status",
		Long:  "Discovers and loads gqlintel configuration, registers every schema and document source, resolves remote introspection, and reports a summary of what loaded.",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := loggerFromFlags(cmd)

			result, err := loadProject(cmd.Context(), cfgFile, log)
			if err != nil {
				return err
			}

			snap := result.host.Snapshot()
			defer snap.Close()

			status := snap.ProjectStatus()
			stats := snap.SchemaStats()

			report := analyzeReport{
				ConfigPath:          result.configPath,
				SchemaFileCount:     status.SchemaFileCount,
				DocumentFileCount:   status.DocumentFileCount,
				HasSchema:           status.HasSchema,
				TypeCounts:          stats.TypeCounts,
				TotalTypeCount:      stats.TotalTypeCount,
				SchemaConflictCount: stats.ConflictCount,
				PendingResolved:     len(result.schemaResult.PendingIntrospections),
				ContentErrorCount:   len(result.schemaResult.ContentErrors) + len(result.documentResult.Errors),
			}

			out, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding report: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}
