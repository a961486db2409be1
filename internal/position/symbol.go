// Package position implements the position-resolution and parent-type
// walker described in spec.md §4.6, ported line-for-line in spirit from
// original_source/crates/ide/src/symbol.rs's walk_type_stack_to_offset and
// find_symbol_at_offset — adapted from apollo-parser's CST (which carries
// exact node byte ranges) to gqlparser/v2's AST (which carries only a
// start Position per node). Every range used here is therefore
// approximated from a node's start position plus its name length, or, for
// selection-set bodies, recovered by scanning the source text for the
// enclosing `{ ... }` pair — the same technique internal/hir uses for
// FullRange. This is a deliberate, documented trade against depending on a
// second, CST-carrying parser.
package position

import (
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/kestrelgql/gqlintel/internal/syntax"
)

// SymbolKind enumerates the Symbol variants from spec.md §4.6 / the Rust
// source's Symbol enum.
type SymbolKind int

const (
	SymbolTypeName SymbolKind = iota
	SymbolFieldName
	SymbolFragmentSpread
	SymbolOperationName
	SymbolVariableReference
	SymbolArgumentName
	SymbolDirectiveName
	SymbolEnumValue
)

// Symbol is the GraphQL syntax element found at a cursor position.
type Symbol struct {
	Kind SymbolKind
	Name string
	// Range is the symbol's own byte range (block-local, i.e. relative to
	// the owning ParsedDocument, not the owning file).
	Range syntax.ByteRange
}

// FindSymbolAtOffset walks doc's operations and fragments looking for the
// smallest node whose approximated range contains offset (block-local
// byte offset, i.e. already adjusted for the document's ByteOffset).
// Returns nil if nothing in the document covers offset.
func FindSymbolAtOffset(doc *syntax.ParsedDocument, offset int) *Symbol {
	if doc.QueryDoc == nil {
		return nil
	}
	for _, op := range doc.QueryDoc.Operations {
		if op.Name != "" {
			start := posOffset(doc, op.Position)
			if within(offset, start, start+len(op.Name)) {
				return &Symbol{Kind: SymbolOperationName, Name: op.Name, Range: syntax.ByteRange{Start: start, End: start + len(op.Name)}}
			}
		}
		for _, vd := range op.VariableDefinitions {
			start := posOffset(doc, vd.Position)
			// vd.Position marks the leading '$'; the variable name follows it.
			nameStart := start + 1
			if within(offset, nameStart, nameStart+len(vd.Variable)) {
				return &Symbol{Kind: SymbolVariableReference, Name: vd.Variable, Range: syntax.ByteRange{Start: nameStart, End: nameStart + len(vd.Variable)}}
			}
			if sym := typeNameSymbol(doc, vd.Type, offset); sym != nil {
				return sym
			}
		}
		if sym := symbolInDirectives(doc, op.Directives, offset); sym != nil {
			return sym
		}
		if sym := symbolInSelectionSet(doc, op.SelectionSet, offset); sym != nil {
			return sym
		}
	}
	for _, frag := range doc.QueryDoc.Fragments {
		if frag.TypeCondition != "" {
			start := posOffset(doc, frag.Position)
			if within(offset, start, start+len(frag.TypeCondition)+4) {
				return &Symbol{Kind: SymbolTypeName, Name: frag.TypeCondition}
			}
		}
		if sym := symbolInDirectives(doc, frag.Directives, offset); sym != nil {
			return sym
		}
		if sym := symbolInSelectionSet(doc, frag.SelectionSet, offset); sym != nil {
			return sym
		}
	}
	return nil
}

func typeNameSymbol(doc *syntax.ParsedDocument, t *ast.Type, offset int) *Symbol {
	if t == nil {
		return nil
	}
	if t.NamedType == "" {
		return typeNameSymbol(doc, t.Elem, offset)
	}
	start := posOffset(doc, t.Position)
	if within(offset, start, start+len(t.NamedType)) {
		return &Symbol{Kind: SymbolTypeName, Name: t.NamedType, Range: syntax.ByteRange{Start: start, End: start + len(t.NamedType)}}
	}
	return nil
}

func symbolInSelectionSet(doc *syntax.ParsedDocument, sel ast.SelectionSet, offset int) *Symbol {
	for _, s := range sel {
		switch v := s.(type) {
		case *ast.Field:
			start := posOffset(doc, v.Position)
			nameStart := start
			if v.Alias != "" && v.Alias != v.Name {
				nameStart = start + len(v.Alias) + 2 // "alias: "
			}
			if within(offset, nameStart, nameStart+len(v.Name)) {
				return &Symbol{Kind: SymbolFieldName, Name: v.Name, Range: syntax.ByteRange{Start: nameStart, End: nameStart + len(v.Name)}}
			}
			for _, arg := range v.Arguments {
				if sym := symbolInArgument(doc, arg, offset); sym != nil {
					return sym
				}
			}
			if sym := symbolInDirectives(doc, v.Directives, offset); sym != nil {
				return sym
			}
			if v.SelectionSet != nil {
				if sym := symbolInSelectionSet(doc, v.SelectionSet, offset); sym != nil {
					return sym
				}
			}
		case *ast.FragmentSpread:
			start := posOffset(doc, v.Position)
			if within(offset, start, start+len(v.Name)) {
				return &Symbol{Kind: SymbolFragmentSpread, Name: v.Name, Range: syntax.ByteRange{Start: start, End: start + len(v.Name)}}
			}
			if sym := symbolInDirectives(doc, v.Directives, offset); sym != nil {
				return sym
			}
		case *ast.InlineFragment:
			if v.TypeCondition != "" {
				start := posOffset(doc, v.Position)
				if within(offset, start, start+len(v.TypeCondition)+4) {
					return &Symbol{Kind: SymbolTypeName, Name: v.TypeCondition}
				}
			}
			if sym := symbolInDirectives(doc, v.Directives, offset); sym != nil {
				return sym
			}
			if sym := symbolInSelectionSet(doc, v.SelectionSet, offset); sym != nil {
				return sym
			}
		}
	}
	return nil
}

func symbolInArgument(doc *syntax.ParsedDocument, arg *ast.Argument, offset int) *Symbol {
	start := posOffset(doc, arg.Position)
	if within(offset, start, start+len(arg.Name)) {
		return &Symbol{Kind: SymbolArgumentName, Name: arg.Name, Range: syntax.ByteRange{Start: start, End: start + len(arg.Name)}}
	}
	return symbolInValue(doc, arg.Value, offset)
}

func symbolInValue(doc *syntax.ParsedDocument, val *ast.Value, offset int) *Symbol {
	if val == nil {
		return nil
	}
	start := posOffset(doc, val.Position)
	switch val.Kind {
	case ast.Variable:
		if within(offset, start, start+1+len(val.Raw)) {
			return &Symbol{Kind: SymbolVariableReference, Name: val.Raw}
		}
	case ast.EnumValue:
		if within(offset, start, start+len(val.Raw)) {
			return &Symbol{Kind: SymbolEnumValue, Name: val.Raw}
		}
	case ast.ListValue, ast.ObjectValue:
		for _, child := range val.Children {
			if sym := symbolInValue(doc, child.Value, offset); sym != nil {
				return sym
			}
		}
	}
	return nil
}

func symbolInDirectives(doc *syntax.ParsedDocument, directives ast.DirectiveList, offset int) *Symbol {
	for _, d := range directives {
		start := posOffset(doc, d.Position)
		// d.Position marks the leading '@'.
		nameStart := start + 1
		if within(offset, nameStart, nameStart+len(d.Name)) {
			return &Symbol{Kind: SymbolDirectiveName, Name: d.Name, Range: syntax.ByteRange{Start: nameStart, End: nameStart + len(d.Name)}}
		}
		for _, arg := range d.Arguments {
			if sym := symbolInArgument(doc, arg, offset); sym != nil {
				return sym
			}
		}
	}
	return nil
}

func posOffset(doc *syntax.ParsedDocument, pos *ast.Position) int {
	if pos == nil || doc.LineIndex == nil {
		return 0
	}
	offset, ok := doc.LineIndex.PositionToOffset(syntax.Position{Line: pos.Line - 1, Character: pos.Column - 1})
	if !ok {
		return 0
	}
	return offset
}

func within(offset, start, end int) bool {
	return offset >= start && offset <= end
}
