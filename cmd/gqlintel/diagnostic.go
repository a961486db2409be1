package main

import "github.com/kestrelgql/gqlintel/pkg/analysis"

// jsonDiagnostic is the wire shape diagnostics/lint print, independent of
// internal/feature.Diagnostic's byte-offset Range so the CLI's JSON
// contract doesn't shift if that type's fields ever do.
type jsonDiagnostic struct {
	File     string `json:"file"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Source   string `json:"source"`
}

func toJSONDiagnostic(file string, d analysis.Diagnostic) jsonDiagnostic {
	return jsonDiagnostic{
		File:     file,
		Start:    d.Range.Start,
		End:      d.Range.End,
		Severity: d.Severity.String(),
		Message:  d.Message,
		Source:   d.Source,
	}
}
