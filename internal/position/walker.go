package position

import (
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/kestrelgql/gqlintel/internal/hir"
	"github.com/kestrelgql/gqlintel/internal/syntax"
)

// WalkTypeStackToOffset is the parent-type walker from spec.md §4.6,
// ported from walk_type_stack_to_offset in
// original_source/crates/ide/src/symbol.rs. It returns the type at the
// cursor's position — the top of the stack once the walk unwinds — used
// by completion, hover, goto-definition, and references.
//
// rootType is the operation's root type (Query/Mutation/Subscription) or
// a fragment's type condition; offset is the block-local byte offset.
func WalkTypeStackToOffset(doc *syntax.ParsedDocument, types map[string]*hir.SchemaType, offset int, rootType string) string {
	stack := []string{rootType}

	if doc.QueryDoc != nil {
		for _, op := range doc.QueryDoc.Operations {
			start, end, ok := selectionSetRange(doc, op.SelectionSet)
			if !ok || offset < start || offset > end {
				continue
			}
			found := false
			entered := false
			walkSelectionSet(doc, op.SelectionSet, offset, types, &stack, &found, &entered)
			break
		}
		for _, frag := range doc.QueryDoc.Fragments {
			start, end, ok := selectionSetRange(doc, frag.SelectionSet)
			if !ok || offset < start || offset > end {
				continue
			}
			if frag.TypeCondition != "" {
				stack[0] = frag.TypeCondition
			}
			found := false
			entered := false
			walkSelectionSet(doc, frag.SelectionSet, offset, types, &stack, &found, &entered)
			break
		}
	}

	return stack[len(stack)-1]
}

func walkSelectionSet(doc *syntax.ParsedDocument, sel ast.SelectionSet, offset int, types map[string]*hir.SchemaType, stack *[]string, found, entered *bool) {
	*entered = true
	for _, s := range sel {
		switch v := s.(type) {
		case *ast.Field:
			if v.SelectionSet == nil {
				continue
			}
			nstart, nend, ok := selectionSetRange(doc, v.SelectionSet)
			if !ok || offset < nstart || offset > nend {
				continue
			}
			parentType := (*stack)[len(*stack)-1]
			var fieldDef *hir.FieldInfo
			if typeDef, ok := types[parentType]; ok {
				fieldDef = typeDef.Fields[v.Name]
			}
			if fieldDef == nil {
				// Unknown field: abort, keeping the last known parent type.
				*found = true
				return
			}
			*stack = append(*stack, fieldDef.Type.UnwrappedName())
			walkSelectionSet(doc, v.SelectionSet, offset, types, stack, found, entered)
			if *found {
				return
			}
			*stack = (*stack)[:len(*stack)-1]
			*entered = false
		case *ast.InlineFragment:
			nstart, nend, ok := selectionSetRange(doc, v.SelectionSet)
			if !ok || offset < nstart || offset > nend {
				continue
			}
			if v.TypeCondition != "" {
				*stack = append(*stack, v.TypeCondition)
				walkSelectionSet(doc, v.SelectionSet, offset, types, stack, found, entered)
				if *found {
					return
				}
				*stack = (*stack)[:len(*stack)-1]
			} else {
				walkSelectionSet(doc, v.SelectionSet, offset, types, stack, found, entered)
				if *found {
					return
				}
			}
			*entered = false
		}
	}
	if *entered {
		*found = true
	}
}

// selectionSetRange recovers the byte range of sel's enclosing `{ ... }`
// by locating the first selection's start position and scanning backward
// for the nearest unmatched '{', then matching braces forward. gqlparser's
// AST carries no range for a SelectionSet itself (only for its elements),
// so this is reconstructed from source text exactly as internal/hir
// reconstructs FullRange.
func selectionSetRange(doc *syntax.ParsedDocument, sel ast.SelectionSet) (start, end int, ok bool) {
	if len(sel) == 0 || doc.Source == nil {
		return 0, 0, false
	}
	firstPos, ok := firstSelectionPosition(doc, sel[0])
	if !ok {
		return 0, 0, false
	}
	src := doc.Source.Input
	braceStart := -1
	for i := firstPos; i >= 0; i-- {
		if src[i] == '{' {
			braceStart = i
			break
		}
	}
	if braceStart < 0 {
		return 0, 0, false
	}
	depth := 0
	for i := braceStart; i < len(src); i++ {
		switch src[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return braceStart, i, true
			}
		}
	}
	return braceStart, len(src), true
}

func firstSelectionPosition(doc *syntax.ParsedDocument, s ast.Selection) (int, bool) {
	var pos *ast.Position
	switch v := s.(type) {
	case *ast.Field:
		pos = v.Position
	case *ast.FragmentSpread:
		pos = v.Position
	case *ast.InlineFragment:
		pos = v.Position
	default:
		return 0, false
	}
	if pos == nil {
		return 0, false
	}
	return posOffset(doc, pos), true
}
