package feature

import (
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/validator"

	"github.com/kestrelgql/gqlintel/internal/ids"
	"github.com/kestrelgql/gqlintel/internal/lint"
	"github.com/kestrelgql/gqlintel/internal/syntax"
)

// Severity mirrors lint.Severity for diagnostics that don't originate from
// a lint rule (syntax errors and spec-validation errors are always Error).
type Severity = lint.Severity

// Diagnostic is the uniform feature-query shape from spec.md §4.7: a
// file-relative byte range (already adjusted for the owning document's
// line/byte offsets), severity, message, and an optional source rule name.
type Diagnostic struct {
	Range    syntax.ByteRange
	Severity Severity
	Message  string
	Source   string // "syntax", "validation", or a lint rule name
	FileID   ids.FileID
}

func fromSyntaxErrors(doc *syntax.ParsedDocument, errs []syntax.SyntaxError) []Diagnostic {
	out := make([]Diagnostic, 0, len(errs))
	for _, e := range errs {
		out = append(out, Diagnostic{
			Range:    syntax.ByteRange{Start: e.Range.Start + doc.ByteOffset, End: e.Range.End + doc.ByteOffset},
			Severity: lint.SeverityError,
			Message:  e.Message,
			Source:   "syntax",
		})
	}
	return out
}

// Diagnostics is diagnostics(file) from spec.md §4.7: syntax errors plus
// spec-validation diagnostics plus per-file lint rule diagnostics, for
// every document belonging to file. astSchema is hir.BuildASTSchema's
// result (may be nil, in which case validation is skipped and only the
// tolerant HIR-backed lint rules run). syntaxErrorsByDoc supplies each
// document's own syntax errors, computed once by the caller alongside parse.
func Diagnostics(ctx *Context, rules *lint.Registry, cfg lint.Config, astSchema *ast.Schema, file ids.FileID, syntaxErrorsByDoc map[*syntax.ParsedDocument][]syntax.SyntaxError) []Diagnostic {
	var out []Diagnostic
	for _, doc := range ctx.docsFor(file) {
		out = append(out, fromSyntaxErrors(doc, syntaxErrorsByDoc[doc])...)
		if doc.QueryDoc != nil && astSchema != nil {
			out = append(out, validateAgainstSchema(ctx, doc, astSchema)...)
		}
	}
	project := ctx.toLintProject()
	for _, d := range rules.CheckFile(file, ctx.docsFor(file), project, cfg) {
		out = append(out, fromLintDiagnostic(d))
	}
	return out
}

// AllDiagnosticsForFile additionally folds in project-wide lint
// diagnostics keyed to file, matching all_diagnostics_for_file.
func AllDiagnosticsForFile(ctx *Context, rules *lint.Registry, cfg lint.Config, astSchema *ast.Schema, file ids.FileID, syntaxErrorsByDoc map[*syntax.ParsedDocument][]syntax.SyntaxError) []Diagnostic {
	out := Diagnostics(ctx, rules, cfg, astSchema, file, syntaxErrorsByDoc)
	project := ctx.toLintProject()
	for _, d := range rules.CheckProject(project, cfg) {
		if d.FileID != file {
			continue
		}
		out = append(out, fromLintDiagnostic(d))
	}
	return out
}

// validateAgainstSchema runs spec validation against doc's own QueryDocument
// widened with whatever project fragments it spreads but doesn't define
// itself (spec.md Testable Property 6): gqlparser's KnownFragmentNames rule
// only sees the QueryDocument it's handed, so a cross-file spread needs its
// target fragment spliced in first or it reads as unknown.
func validateAgainstSchema(ctx *Context, doc *syntax.ParsedDocument, schema *ast.Schema) []Diagnostic {
	errs := validator.Validate(schema, withProjectFragments(ctx, doc.QueryDoc))
	return fromGqlErrors(doc, errs)
}

// withProjectFragments returns q unchanged if every fragment it spreads
// (directly or transitively, through other spread-in fragments) is already
// defined in q.Fragments. Otherwise it returns a copy of q with the missing
// fragments appended, so validator.Validate sees a self-contained document
// without reporting unrelated project fragments as unused.
func withProjectFragments(ctx *Context, q *ast.QueryDocument) *ast.QueryDocument {
	have := make(map[string]bool, len(q.Fragments))
	for _, f := range q.Fragments {
		have[f.Name] = true
	}

	var queue []string
	for _, op := range q.Operations {
		queue = append(queue, spreadNames(op.SelectionSet)...)
	}
	for _, f := range q.Fragments {
		queue = append(queue, spreadNames(f.SelectionSet)...)
	}

	var added ast.FragmentDefinitionList
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if have[name] {
			continue
		}
		frag, ok := ctx.FragmentDefs[name]
		if !ok {
			continue
		}
		have[name] = true
		added = append(added, frag)
		queue = append(queue, spreadNames(frag.SelectionSet)...)
	}

	if len(added) == 0 {
		return q
	}
	widened := *q
	widened.Fragments = append(append(ast.FragmentDefinitionList{}, q.Fragments...), added...)
	return &widened
}

// spreadNames collects every fragment name sel spreads into, directly or
// through a nested inline fragment.
func spreadNames(sel ast.SelectionSet) []string {
	var out []string
	for _, s := range sel {
		switch v := s.(type) {
		case *ast.FragmentSpread:
			out = append(out, v.Name)
		case *ast.InlineFragment:
			out = append(out, spreadNames(v.SelectionSet)...)
		case *ast.Field:
			if v.SelectionSet != nil {
				out = append(out, spreadNames(v.SelectionSet)...)
			}
		}
	}
	return out
}

// fromGqlErrors converts gqlerror.List entries into file-relative
// Diagnostics. gqlerror locations are 1-based line/column against the
// block's own source, so they're reprojected via the document's byte
// offset the same way syntax errors are.
func fromGqlErrors(doc *syntax.ParsedDocument, errs gqlerror.List) []Diagnostic {
	out := make([]Diagnostic, 0, len(errs))
	for _, e := range errs {
		start := doc.ByteOffset
		if len(e.Locations) > 0 {
			loc := e.Locations[0]
			start = syntax.PosOffset(doc, &ast.Position{Line: loc.Line, Column: loc.Column}) + doc.ByteOffset
		}
		out = append(out, Diagnostic{
			Range:    syntax.ByteRange{Start: start, End: start},
			Severity: lint.SeverityError,
			Message:  e.Message,
			Source:   "validation",
		})
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
