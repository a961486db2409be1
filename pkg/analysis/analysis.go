package analysis

import (
	"sort"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/kestrelgql/gqlintel/internal/db"
	"github.com/kestrelgql/gqlintel/internal/feature"
	"github.com/kestrelgql/gqlintel/internal/hir"
	"github.com/kestrelgql/gqlintel/internal/ids"
	"github.com/kestrelgql/gqlintel/internal/lint"
	"github.com/kestrelgql/gqlintel/internal/registry"
	"github.com/kestrelgql/gqlintel/internal/syntax"
)

// Analysis is the immutable, clone-cheap read handle of spec.md §6. It
// pins the database at the revision it was taken and answers every feature
// query against that pinned view; constructing one (via
// AnalysisHost.Snapshot) does the project's one shared parse/HIR-build
// pass, memoized on Storage so repeated snapshots between edits are free.
type Analysis struct {
	snap    *db.Snapshot
	storage *db.Storage
	reg     *registry.FileRegistry
	rules   *lint.Registry
	lintCfg lint.Config
	project *projectData
}

// Close releases the database snapshot this Analysis pins. Must be called
// exactly once; holding an Analysis open across the owning AnalysisHost's
// next mutation deadlocks that mutation (see host_test.go).
func (a *Analysis) Close() {
	a.snap.Close()
}

// FileID resolves uri against this snapshot's file set.
func (a *Analysis) FileID(uri Uri) (ids.FileID, bool) {
	return a.project.files.Lookup(uri)
}

// FileContent returns file's interned source text.
func (a *Analysis) FileContent(file ids.FileID) (string, bool) {
	c, ok := a.project.files.Content[file]
	if !ok {
		return "", false
	}
	return c.Text(), true
}

// Position/Range are re-exported so callers of this package never need to
// reach into internal/syntax directly.
type Position = syntax.Position
type Range = syntax.Range
type ByteRange = syntax.ByteRange

// Diagnostic is the uniform diagnostic shape every query below returns,
// mirroring internal/feature.Diagnostic.
type Diagnostic = feature.Diagnostic

func (a *Analysis) allFeatureDiagnostics(file ids.FileID) []feature.Diagnostic {
	return feature.Diagnostics(a.project.featureCtx, a.rules, a.lintCfg, a.project.astSchema, file, a.project.syntaxErrorsByDoc)
}

// Diagnostics returns file's syntax and schema-validation diagnostics —
// the two categories that can never be disabled by lint configuration.
func (a *Analysis) Diagnostics(file ids.FileID) []Diagnostic {
	return filterDiagnostics(a.allFeatureDiagnostics(file), "syntax", "validation")
}

// ValidationDiagnostics returns only file's schema-validation errors.
func (a *Analysis) ValidationDiagnostics(file ids.FileID) []Diagnostic {
	return filterDiagnostics(a.allFeatureDiagnostics(file), "validation")
}

// LintDiagnostics returns only file's per-file lint diagnostics (every
// Diagnostic whose Source is a lint rule name, not "syntax"/"validation").
func (a *Analysis) LintDiagnostics(file ids.FileID) []Diagnostic {
	all := a.allFeatureDiagnostics(file)
	out := make([]Diagnostic, 0, len(all))
	for _, d := range all {
		if d.Source != "syntax" && d.Source != "validation" {
			out = append(out, d)
		}
	}
	return out
}

// ProjectLintDiagnostics runs every project-wide lint rule once and returns
// every diagnostic it reports, across the whole project.
func (a *Analysis) ProjectLintDiagnostics() []Diagnostic {
	diags := a.rules.CheckProject(a.project.lintProject, a.lintCfg)
	out := make([]Diagnostic, 0, len(diags))
	for _, d := range diags {
		out = append(out, fromLintDiagnostic(d))
	}
	return out
}

// AllDiagnosticsForFile is all_diagnostics_for_file: syntax + validation +
// per-file lint + whichever project-wide lint diagnostics are keyed to
// file, matching spec.md §4.7.
func (a *Analysis) AllDiagnosticsForFile(file ids.FileID) []Diagnostic {
	return feature.AllDiagnosticsForFile(a.project.featureCtx, a.rules, a.lintCfg, a.project.astSchema, file, a.project.syntaxErrorsByDoc)
}

// FixedDiagnostic is a lint diagnostic paired with its code fix, if the
// rule that reported it offered one — the shape lint_diagnostics_with_fixes
// needs and the plain Diagnostic type (deliberately) does not carry.
type FixedDiagnostic struct {
	Diagnostic
	Fix *lint.CodeFix
}

// LintDiagnosticsWithFixes is lint_diagnostics_with_fixes: file's per-file
// lint diagnostics plus whichever project-wide ones are keyed to it, each
// paired with its CodeFix. Bypasses internal/feature (whose Diagnostic
// drops Fix) and converts lint.Diagnostic directly, reusing the same
// block-offset remap feature.fromLintDiagnostic performs internally.
func (a *Analysis) LintDiagnosticsWithFixes(file ids.FileID) []FixedDiagnostic {
	var out []FixedDiagnostic
	for _, d := range a.rules.CheckFile(file, a.project.lintProject.FileDocs[file], a.project.lintProject, a.lintCfg) {
		out = append(out, FixedDiagnostic{Diagnostic: fromLintDiagnostic(d), Fix: d.Fix})
	}
	for _, d := range a.rules.CheckProject(a.project.lintProject, a.lintCfg) {
		if d.FileID != file {
			continue
		}
		out = append(out, FixedDiagnostic{Diagnostic: fromLintDiagnostic(d), Fix: d.Fix})
	}
	return out
}

func fromLintDiagnostic(d lint.Diagnostic) Diagnostic {
	start, end := d.Range.Start, d.Range.End
	if d.BlockByteOffset != nil {
		start += *d.BlockByteOffset
		end += *d.BlockByteOffset
	}
	return Diagnostic{
		Range:    syntax.ByteRange{Start: start, End: end},
		Severity: d.Severity,
		Message:  d.Message,
		Source:   d.RuleName,
		FileID:   d.FileID,
	}
}

func filterDiagnostics(diags []Diagnostic, sources ...string) []Diagnostic {
	out := make([]Diagnostic, 0, len(diags))
	for _, d := range diags {
		for _, s := range sources {
			if d.Source == s {
				out = append(out, d)
				break
			}
		}
	}
	return out
}

// SemanticTokens returns file's semantic token classification.
func (a *Analysis) SemanticTokens(file ids.FileID) []feature.SemanticToken {
	return feature.SemanticTokens(a.project.featureCtx, file)
}

// FoldingRanges returns file's foldable regions.
func (a *Analysis) FoldingRanges(file ids.FileID) []feature.FoldingRange {
	return feature.FoldingRanges(a.project.featureCtx, file)
}

// InlayHints returns file's inlay hints, optionally restricted to the lines
// lineRange covers (nil means the whole file).
func (a *Analysis) InlayHints(file ids.FileID, lineRange *Range) []feature.InlayHint {
	return feature.InlayHints(a.project.featureCtx, file, lineRange)
}

// Completions returns completion items at pos within file.
func (a *Analysis) Completions(file ids.FileID, pos Position) []feature.CompletionItem {
	return feature.Completion(a.project.featureCtx, file, pos)
}

// Hover returns hover content for the symbol at pos within file, or nil if
// there is nothing to show there.
func (a *Analysis) Hover(file ids.FileID, pos Position) *feature.Hover {
	return feature.HoverAt(a.project.featureCtx, file, pos, a.project.syntaxErrorsByDoc)
}

// GotoDefinition returns the definition site(s) of the symbol at pos.
func (a *Analysis) GotoDefinition(file ids.FileID, pos Position) []feature.Location {
	return feature.GotoDefinition(a.project.featureCtx, file, pos)
}

// FindReferences returns every declaration and usage site of the symbol at
// pos within file.
func (a *Analysis) FindReferences(file ids.FileID, pos Position) *feature.References {
	return feature.FindReferences(a.project.featureCtx, file, pos)
}

// FindFragmentReferences returns every declaration and usage site of the
// named fragment, independent of cursor position.
func (a *Analysis) FindFragmentReferences(name string) *feature.References {
	return feature.FindFragmentReferences(a.project.featureCtx, name)
}

// SelectionRanges returns, for each position in positions, the innermost-
// to-outermost chain of enclosing syntactic ranges — LSP's
// textDocument/selectionRange takes one position per cursor/multi-cursor,
// so this answers all of them in one project-wide snapshot.
func (a *Analysis) SelectionRanges(file ids.FileID, positions []Position) []*feature.SelectionRange {
	out := make([]*feature.SelectionRange, len(positions))
	for i, pos := range positions {
		out[i] = feature.SelectionRangeAt(a.project.featureCtx, file, pos)
	}
	return out
}

// DeprecatedFieldCodeLenses returns only the "deprecated, N usage(s)" code
// lenses for file, filtering out fragment-usage-count lenses.
func (a *Analysis) DeprecatedFieldCodeLenses(file ids.FileID) []feature.CodeLens {
	var out []feature.CodeLens
	for _, lens := range feature.CodeLenses(a.project.featureCtx, file) {
		if strings.HasPrefix(lens.Title, "deprecated,") {
			out = append(out, lens)
		}
	}
	return out
}

// CodeLenses returns every code lens for file: fragment usage counts and
// deprecated-field usage annotations together.
func (a *Analysis) CodeLenses(file ids.FileID) []feature.CodeLens {
	return feature.CodeLenses(a.project.featureCtx, file)
}

// DocumentSymbols returns file's outline.
func (a *Analysis) DocumentSymbols(file ids.FileID) []feature.DocSymbol {
	return feature.DocumentSymbols(a.project.featureCtx, file)
}

// WorkspaceSymbols searches every type/fragment/operation name project-wide.
func (a *Analysis) WorkspaceSymbols(query string) []feature.WorkspaceSymbol {
	return feature.WorkspaceSymbols(a.project.featureCtx, query)
}

// FieldUsage returns usage info for one (type, field) pair, or nil if it is
// never selected anywhere in the project.
func (a *Analysis) FieldUsage(typeName, fieldName string) *lint.FieldUsageInfo {
	return lint.UsageFor(a.project.featureCtx.FieldUsage, a.project.featureCtx.Implementers, typeName, fieldName)
}

// ComplexityAnalysis runs spec.md §4.8's cost/connection analysis for the
// named operation, or false if no operation with that name exists.
func (a *Analysis) ComplexityAnalysis(operationName string) (lint.ComplexityResult, bool) {
	for _, op := range a.project.featureCtx.Operations {
		if op.Name == operationName {
			return lint.AnalyzeComplexity(op, a.project.lintProject), true
		}
	}
	return lint.ComplexityResult{}, false
}

// FragmentUsages returns, for every fragment defined in the project, how
// many distinct operations transitively spread it (directly or through
// another fragment) — the same reachability relation codelens.go's
// fragmentUsageCounts computes, re-derived here since that helper is
// unexported.
func (a *Analysis) FragmentUsages() map[string]int {
	counts := map[string]int{}
	ctx := a.project.featureCtx
	for _, op := range ctx.Operations {
		visited := map[string]bool{}
		var visit func(name string)
		visit = func(name string) {
			if visited[name] {
				return
			}
			visited[name] = true
			counts[name]++
			for spread := range ctx.FragmentSpreads[name] {
				visit(spread)
			}
		}
		for spread := range directFragmentSpreads(op) {
			visit(spread)
		}
	}
	for name := range ctx.Fragments {
		if _, ok := counts[name]; !ok {
			counts[name] = 0
		}
	}
	return counts
}

// directFragmentSpreads collects the fragment names op's own selection set
// spreads directly, one level — mirrors internal/lint's unexported
// operationSpreads and internal/feature's unexported operationSpreadNames.
func directFragmentSpreads(op *hir.OperationStructure) map[string]bool {
	out := map[string]bool{}
	var walk func(sel ast.SelectionSet)
	walk = func(sel ast.SelectionSet) {
		for _, s := range sel {
			switch v := s.(type) {
			case *ast.Field:
				walk(v.SelectionSet)
			case *ast.FragmentSpread:
				out[v.Name] = true
			case *ast.InlineFragment:
				walk(v.SelectionSet)
			}
		}
	}
	walk(op.SelectionSet)
	return out
}

// ProjectStatus summarizes the current project: how many schema and
// document files are registered, and whether a schema has been loaded at
// all (every host has at least the Apollo builtins file, so this is false
// only for a pathological registry with that file removed).
type ProjectStatus struct {
	SchemaFileCount   int
	DocumentFileCount int
	HasSchema         bool
}

// ProjectStatus reports the project's current file counts.
func (a *Analysis) ProjectStatus() ProjectStatus {
	return ProjectStatus{
		SchemaFileCount:   len(a.project.files.SchemaFiles),
		DocumentFileCount: len(a.project.files.DocumentFiles),
		HasSchema:         len(a.project.files.SchemaFiles) > 0,
	}
}

// SchemaStats summarizes the merged schema: how many types of each kind it
// declares, and how many structural conflicts hir.BuildSchemaTypes found
// while merging `extend type` blocks.
type SchemaStats struct {
	TypeCounts     map[string]int // hir.TypeKind.String() -> count
	ConflictCount  int
	TotalTypeCount int
}

// SchemaStats summarizes the project's merged schema-type index.
func (a *Analysis) SchemaStats() SchemaStats {
	stats := SchemaStats{TypeCounts: map[string]int{}}
	for _, t := range a.project.featureCtx.Types {
		stats.TypeCounts[t.Kind.String()]++
		stats.TotalTypeCount++
	}
	stats.ConflictCount = len(a.project.lintProject.Conflicts)
	return stats
}

// FieldCoverage reports, across every Object/Interface type in the merged
// schema, how many of its fields are selected by at least one operation
// anywhere in the project.
type FieldCoverage struct {
	TotalFields  int
	UsedFields   int
	UnusedFields []FieldRef
}

// FieldRef names one (type, field) pair.
type FieldRef struct {
	Type  string
	Field string
}

// FieldCoverage computes project-wide field usage coverage.
func (a *Analysis) FieldCoverage() FieldCoverage {
	var cov FieldCoverage
	ctx := a.project.featureCtx
	names := make([]string, 0, len(ctx.Types))
	for name := range ctx.Types {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		t := ctx.Types[name]
		if t.Kind != hir.KindObject && t.Kind != hir.KindInterface {
			continue
		}
		for _, fieldName := range t.FieldOrder {
			cov.TotalFields++
			if lint.UsageFor(ctx.FieldUsage, ctx.Implementers, name, fieldName) != nil {
				cov.UsedFields++
			} else {
				cov.UnusedFields = append(cov.UnusedFields, FieldRef{Type: name, Field: fieldName})
			}
		}
	}
	return cov
}
