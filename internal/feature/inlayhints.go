package feature

import (
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/kestrelgql/gqlintel/internal/hir"
	"github.com/kestrelgql/gqlintel/internal/ids"
	"github.com/kestrelgql/gqlintel/internal/syntax"
)

// InlayHint is one ": Type" annotation rendered after a selection-leaf
// field or a variable's declared type, per spec.md §4.7. PaddingLeft/
// PaddingRight reproduce inlay_hints.rs's per-kind padding: variable-type
// hints render with no padding on either side, field-type hints keep the
// default padding on both.
type InlayHint struct {
	Position     syntax.Position
	Label        string
	PaddingLeft  bool
	PaddingRight bool
}

// InlayHints returns hints for file, restricted to lineRange when non-nil
// (a hint is included if its line falls within [lineRange.Start.Line,
// lineRange.End.Line]), grounded on
// original_source/crates/graphql-ide/src/inlay_hints.rs. Hints only exist
// where schema context resolves a field's type; an unresolvable or
// unknown parent type contributes no hints rather than guessing.
func InlayHints(ctx *Context, file ids.FileID, lineRange *syntax.Range) []InlayHint {
	var out []InlayHint
	for _, doc := range ctx.docsFor(file) {
		if doc.QueryDoc == nil {
			continue
		}
		for _, op := range doc.QueryDoc.Operations {
			for _, vd := range op.VariableDefinitions {
				if vd.Type == nil {
					continue
				}
				end := syntax.PosOffset(doc, vd.Position) + 1 + len(vd.Variable)
				pos := syntax.EditorRangeForBytes(doc, end, end).Start
				hint := InlayHint{Position: pos, Label: ": " + typeString(toTypeRef(vd.Type)), PaddingLeft: false, PaddingRight: false}
				if includeByLine(hint.Position, lineRange) {
					out = append(out, hint)
				}
			}
			out = append(out, collectSelectionHints(ctx, doc, op.SelectionSet, ctx.rootTypeFor(op.Operation), lineRange)...)
		}
		for _, frag := range doc.QueryDoc.Fragments {
			out = append(out, collectSelectionHints(ctx, doc, frag.SelectionSet, frag.TypeCondition, lineRange)...)
		}
	}
	return out
}

func collectSelectionHints(ctx *Context, doc *syntax.ParsedDocument, sel ast.SelectionSet, parentType string, lineRange *syntax.Range) []InlayHint {
	var out []InlayHint
	for _, s := range sel {
		switch v := s.(type) {
		case *ast.Field:
			f, ok := fieldDefOn(ctx.Types, parentType, v.Name)
			if ok {
				if v.SelectionSet == nil {
					nameStart := syntax.PosOffset(doc, v.Position)
					if v.Alias != "" && v.Alias != v.Name {
						nameStart += len(v.Alias) + 2
					}
					end := nameStart + len(v.Name)
					pos := syntax.EditorRangeForBytes(doc, end, end).Start
					hint := InlayHint{Position: pos, Label: ": " + typeString(f.Type), PaddingLeft: true, PaddingRight: true}
					if includeByLine(hint.Position, lineRange) {
						out = append(out, hint)
					}
				} else if childType, ok := fieldReturnType(ctx.Types, parentType, v.Name); ok {
					out = append(out, collectSelectionHints(ctx, doc, v.SelectionSet, childType, lineRange)...)
				}
			}
		case *ast.InlineFragment:
			inlineType := parentType
			if v.TypeCondition != "" {
				inlineType = v.TypeCondition
			}
			out = append(out, collectSelectionHints(ctx, doc, v.SelectionSet, inlineType, lineRange)...)
		case *ast.FragmentSpread:
			// Fragment spreads get no hints here — the fragment's own
			// definition carries them.
		}
	}
	return out
}

func includeByLine(pos syntax.Position, lineRange *syntax.Range) bool {
	if lineRange == nil {
		return true
	}
	return pos.Line >= lineRange.Start.Line && pos.Line <= lineRange.End.Line
}

// toTypeRef mirrors hir's own *ast.Type -> TypeRef conversion for the one
// case inlay hints need it (a variable's declared type), kept local since
// hir doesn't export a standalone converter for a bare *ast.Type.
func toTypeRef(t *ast.Type) hir.TypeRef {
	if t == nil {
		return hir.TypeRef{}
	}
	if t.NamedType != "" {
		return hir.TypeRef{NamedType: t.NamedType, NonNull: t.NonNull}
	}
	inner := toTypeRef(t.Elem)
	return hir.TypeRef{ListOf: &inner, NonNull: t.NonNull}
}
