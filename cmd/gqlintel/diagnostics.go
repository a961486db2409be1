package main

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/kestrelgql/gqlintel/pkg/analysis"
)

func newDiagnosticsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diagnostics",
		Short: "Print syntax, validation, and lint diagnostics for every project file",
		Long:  "Loads the project and prints all_diagnostics_for_file's output for every registered file, as JSON.",
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

			var all []jsonDiagnostic
			for _, uri := range names {
				fileID, ok := snap.FileID(analysis.Uri(uri))
				if !ok {
					continue
				}
				for _, d := range snap.AllDiagnosticsForFile(fileID) {
					all = append(all, toJSONDiagnostic(uri, d))
				}
			}

			out, err := json.MarshalIndent(all, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding diagnostics: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}
