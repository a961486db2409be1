package main

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/kestrelgql/gqlintel/pkg/analysis"
)

func newLintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lint",
		Short: "Run every lint rule across the project",
		Long:  "Loads the project and prints every per-file and project-wide lint diagnostic, as JSON.",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := loggerFromFlags(cmd)

			result, err := loadProject(cmd.Context(), cfgFile, log)
			if err != nil {
				return err
			}

			snap := result.host.Snapshot()
			defer snap.Close()

			uris := result.host.Files()
			names := make([]string, len(uris))
			for i, u := range uris {
				names[i] = string(u)
			}
			sort.Strings(names)

			uriByFile := map[uint32]string{}
			var all []jsonDiagnostic
			for _, uri := range names {
				fileID, ok := snap.FileID(analysis.Uri(uri))
				if !ok {
					continue
				}
				uriByFile[uint32(fileID)] = uri
				for _, d := range snap.LintDiagnostics(fileID) {
					all = append(all, toJSONDiagnostic(uri, d))
				}
			}

			for _, d := range snap.ProjectLintDiagnostics() {
				all = append(all, toJSONDiagnostic(uriByFile[uint32(d.FileID)], d))
			}

			out, err := json.MarshalIndent(all, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding lint diagnostics: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}
