package lint

import (
	"encoding/json"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/kestrelgql/gqlintel/internal/hir"
	"github.com/kestrelgql/gqlintel/internal/ids"
	"github.com/kestrelgql/gqlintel/internal/syntax"
)

// RequireIDFieldRule warns when a selection set on a type doesn't request
// one of a configurable set of "identity" fields (default: id), so long as
// the type actually declares that field. Ported from
// original_source/crates/linter/src/rules/require_id_field.rs, including
// its fragment-spread resolution (fragments checked only for the field at
// their own top level, never recursing into nested field selections) and
// its per-required-field cloned visited-fragment sets, which prevent a
// fragment shared by sibling spreads from being marked "already checked"
// before every sibling gets its turn.
type RequireIDFieldRule struct{}

func (RequireIDFieldRule) Name() string        { return "require_id_field" }
func (RequireIDFieldRule) Description() string { return "Warns when an identity field is not requested on types that have it" }
func (RequireIDFieldRule) DefaultSeverity() Severity {
	return SeverityWarning
}

// RequireIDFieldOptions mirrors RequireIdFieldOptions: the list of field
// names to require, restricted at check time to whichever of them exist on
// the type being checked.
type RequireIDFieldOptions struct {
	Fields []string `json:"fields"`
}

func parseRequireIDFieldOptions(raw json.RawMessage) RequireIDFieldOptions {
	opts := RequireIDFieldOptions{Fields: []string{"id"}}
	if len(raw) == 0 {
		return opts
	}
	var parsed RequireIDFieldOptions
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return opts
	}
	return parsed
}

type requireIDCtx struct {
	types        map[string]*hir.SchemaType
	fragments    map[string]*hir.FragmentStructure
	optionFields []string
}

func (RequireIDFieldRule) CheckFile(fileID ids.FileID, docs []*syntax.ParsedDocument, project *ProjectContext, options json.RawMessage) []Diagnostic {
	opts := parseRequireIDFieldOptions(options)
	rctx := &requireIDCtx{types: project.Types, fragments: project.Fragments, optionFields: opts.Fields}

	var out []Diagnostic
	for _, doc := range docs {
		if doc.QueryDoc == nil {
			continue
		}
		var docDiags []Diagnostic

		for _, op := range doc.QueryDoc.Operations {
			rootType := project.Roots.Query
			switch op.Operation {
			case ast.Mutation:
				rootType = project.Roots.Mutation
			case ast.Subscription:
				rootType = project.Roots.Subscription
			}
			if rootType == "" || op.SelectionSet == nil {
				continue
			}
			loc := operationLocation(doc, op)
			checkSelectionSetForID(doc, op.SelectionSet, rootType, loc, rctx, &docDiags)
		}

		for _, frag := range doc.QueryDoc.Fragments {
			if frag.TypeCondition == "" || frag.SelectionSet == nil {
				continue
			}
			loc := fragmentLocation(doc, frag)
			checkSelectionSetForID(doc, frag.SelectionSet, frag.TypeCondition, loc, rctx, &docDiags)
		}

		out = append(out, withBlockContext(docDiags, doc)...)
	}
	return out
}

type idLoc struct{ start, end int }

func operationLocation(doc *syntax.ParsedDocument, op *ast.OperationDefinition) idLoc {
	if op.Name != "" {
		start := syntax.PosOffset(doc, op.Position)
		return idLoc{start, start + len(op.Name)}
	}
	start := syntax.PosOffset(doc, op.Position)
	return idLoc{start, start + 1}
}

func fragmentLocation(doc *syntax.ParsedDocument, frag *ast.FragmentDefinition) idLoc {
	start := syntax.PosOffset(doc, frag.Position)
	return idLoc{start, start + len(frag.Name)}
}

func fieldLocation(doc *syntax.ParsedDocument, f *ast.Field) idLoc {
	start := syntax.PosOffset(doc, f.Position)
	return idLoc{start, start + len(f.Name)}
}

func requiredFieldsForType(types map[string]*hir.SchemaType, typeName string, optionFields []string) []string {
	t, ok := types[typeName]
	if !ok || (t.Kind != hir.KindObject && t.Kind != hir.KindInterface) {
		return nil
	}
	var out []string
	for _, name := range optionFields {
		if _, exists := t.Fields[name]; exists {
			out = append(out, name)
		}
	}
	return out
}

func fieldReturnType(types map[string]*hir.SchemaType, parentType, fieldName string) (string, bool) {
	f, ok := fieldDefOn(types, parentType, fieldName)
	if !ok {
		return "", false
	}
	return f.Type.UnwrappedName(), true
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func checkSelectionSetForID(doc *syntax.ParsedDocument, sel ast.SelectionSet, parentType string, loc idLoc, ctx *requireIDCtx, diags *[]Diagnostic) {
	required := requiredFieldsForType(ctx.types, parentType, ctx.optionFields)
	found := map[string]bool{}

	for _, s := range sel {
		switch v := s.(type) {
		case *ast.Field:
			if containsString(required, v.Name) {
				found[v.Name] = true
			}
			if v.SelectionSet != nil {
				if fieldType, ok := fieldReturnType(ctx.types, parentType, v.Name); ok {
					checkSelectionSetForID(doc, v.SelectionSet, fieldType, fieldLocation(doc, v), ctx, diags)
				}
			}
		case *ast.FragmentSpread:
			if len(required) > 0 {
				for _, rf := range required {
					visited := map[string]bool{}
					if fragmentContainsField(v.Name, rf, ctx, visited) {
						found[rf] = true
					}
				}
			}
		case *ast.InlineFragment:
			inlineType := parentType
			if v.TypeCondition != "" {
				inlineType = v.TypeCondition
			}
			for _, ns := range v.SelectionSet {
				switch nv := ns.(type) {
				case *ast.Field:
					if containsString(required, nv.Name) {
						found[nv.Name] = true
					}
					if nv.SelectionSet != nil {
						if fieldType, ok := fieldReturnType(ctx.types, inlineType, nv.Name); ok {
							checkSelectionSetForID(doc, nv.SelectionSet, fieldType, fieldLocation(doc, nv), ctx, diags)
						}
					}
				case *ast.FragmentSpread:
					if len(required) > 0 {
						for _, rf := range required {
							visited := map[string]bool{}
							if fragmentContainsField(nv.Name, rf, ctx, visited) {
								found[rf] = true
							}
						}
					}
				case *ast.InlineFragment:
					// Matches the original: nested inline fragments inside an
					// inline fragment are not walked here.
				}
			}
		}
	}

	for _, rf := range required {
		if found[rf] {
			continue
		}
		insertPos, indent := insertionPoint(doc, sel)
		fix := &CodeFix{
			Title: "Add '" + rf + "' field to " + parentType,
			Edits: []TextEdit{{
				Range:   syntax.ByteRange{Start: insertPos, End: insertPos},
				NewText: rf + "\n" + indent,
			}},
		}
		*diags = append(*diags, Diagnostic{
			Range:   syntax.ByteRange{Start: loc.start, End: loc.end},
			Message: "Selection set on type '" + parentType + "' should include the '" + rf + "' field",
			Fix:     fix,
		})
	}
}

// insertionPoint mirrors extract_indentation: insert right before the first
// selection, reusing its line's leading whitespace, or just after the
// opening brace with a two-space default for an empty selection set.
func insertionPoint(doc *syntax.ParsedDocument, sel ast.SelectionSet) (int, string) {
	if len(sel) == 0 {
		return 0, "  "
	}
	first := sel[0]
	var pos *ast.Position
	switch v := first.(type) {
	case *ast.Field:
		pos = v.Position
	case *ast.FragmentSpread:
		pos = v.Position
	case *ast.InlineFragment:
		pos = v.Position
	}
	start := syntax.PosOffset(doc, pos)
	src := doc.Source.Input
	before := src[:start]
	newline := -1
	for i := len(before) - 1; i >= 0; i-- {
		if before[i] == '\n' {
			newline = i
			break
		}
	}
	indent := "  "
	if newline >= 0 {
		indentStart := newline + 1
		i := indentStart
		for i < len(before) && (before[i] == ' ' || before[i] == '\t') {
			i++
		}
		indent = before[indentStart:i]
	}
	return start, indent
}

// fragmentContainsField ports fragment_contains_field: it checks only the
// fragment's own top-level selections for targetField, recursing into
// nested fragment spreads (and inline fragments, tracking their type
// condition) but never into a field's own nested selection set — selecting
// `abilities { id }` selects id on Ability, not on the fragment's type.
func fragmentContainsField(fragmentName, targetField string, ctx *requireIDCtx, visited map[string]bool) bool {
	if visited[fragmentName] {
		return false
	}
	visited[fragmentName] = true

	frag, ok := ctx.fragments[fragmentName]
	if !ok {
		return false
	}
	return checkFragmentSelectionForField(frag.SelectionSet, targetField, ctx, visited)
}

func checkFragmentSelectionForField(sel ast.SelectionSet, targetField string, ctx *requireIDCtx, visited map[string]bool) bool {
	for _, s := range sel {
		switch v := s.(type) {
		case *ast.Field:
			if v.Name == targetField {
				return true
			}
		case *ast.FragmentSpread:
			if fragmentContainsField(v.Name, targetField, ctx, visited) {
				return true
			}
		case *ast.InlineFragment:
			if checkFragmentSelectionForField(v.SelectionSet, targetField, ctx, visited) {
				return true
			}
		}
	}
	return false
}
