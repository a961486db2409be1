package lint

import (
	"encoding/json"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/kestrelgql/gqlintel/internal/hir"
	"github.com/kestrelgql/gqlintel/internal/syntax"
)

// NoUnusedFragmentRule flags fragment definitions that are never spread,
// directly or transitively, from any operation in the project. Grounded on
// project.FragmentSpreads — hir.BuildFragmentSpreadsIndex's
// fragment-spread-graph index — walked the same way require_id_field walks
// fragment bodies: start from every operation's own spreads and follow
// spread-of-spread edges until the reachable set stops growing.
type NoUnusedFragmentRule struct{}

func (NoUnusedFragmentRule) Name() string { return "no_unused_fragment" }
func (NoUnusedFragmentRule) Description() string {
	return "Flags fragments that are never spread from any operation"
}
func (NoUnusedFragmentRule) DefaultSeverity() Severity { return SeverityWarning }

func (NoUnusedFragmentRule) CheckProject(project *ProjectContext, _ json.RawMessage) []Diagnostic {
	reachable := map[string]bool{}
	var visit func(name string)
	visit = func(name string) {
		if reachable[name] {
			return
		}
		reachable[name] = true
		for spread := range project.FragmentSpreads[name] {
			visit(spread)
		}
	}

	for _, op := range project.Operations {
		for spread := range operationSpreads(op) {
			visit(spread)
		}
	}

	var out []Diagnostic
	for _, df := range project.DocumentFiles {
		for _, doc := range df.Docs {
			if doc.QueryDoc == nil {
				continue
			}
			var docDiags []Diagnostic
			for _, frag := range doc.QueryDoc.Fragments {
				if frag.Name == "" || reachable[frag.Name] {
					continue
				}
				start := syntax.PosOffset(doc, frag.Position)
				docDiags = append(docDiags, Diagnostic{
					FileID:  df.FileID,
					Range:   syntax.ByteRange{Start: start, End: start + len(frag.Name)},
					Message: "Fragment '" + frag.Name + "' is never used",
				})
			}
			out = append(out, withBlockContext(docDiags, doc)...)
		}
	}
	return out
}

// operationSpreads returns the set of fragment names an operation's
// selection set spreads directly. Inline fragments and nested field
// selections are walked too — a spread nested several fields deep still
// keeps its fragment reachable.
func operationSpreads(op *hir.OperationStructure) map[string]bool {
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
