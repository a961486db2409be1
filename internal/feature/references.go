package feature

import (
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/kestrelgql/gqlintel/internal/hir"
	"github.com/kestrelgql/gqlintel/internal/ids"
	"github.com/kestrelgql/gqlintel/internal/position"
	"github.com/kestrelgql/gqlintel/internal/syntax"
)

// References is find-references' result: an optional declaration site
// plus every usage site, per spec.md §4.7.
type References struct {
	Declarations []Location
	Usages       []Location
}

// FindReferences dispatches by the symbol at (file, pos): fragment spread,
// type name, or a field name resolved against its parent type.
func FindReferences(ctx *Context, file ids.FileID, pos syntax.Position) *References {
	doc, offset, ok := ctx.findDocAndOffset(file, pos)
	if !ok {
		return nil
	}
	sym := position.FindSymbolAtOffset(doc, offset)
	if sym == nil {
		return nil
	}

	switch sym.Kind {
	case position.SymbolFragmentSpread:
		return findFragmentReferences(ctx, sym.Name)
	case position.SymbolTypeName:
		return findTypeReferences(ctx, sym.Name)
	case position.SymbolFieldName:
		parentType, inSel := parentTypeAtOffset(ctx, doc, offset)
		if !inSel {
			return nil
		}
		return findFieldReferences(ctx, parentType, sym.Name)
	default:
		return nil
	}
}

// FindFragmentReferences is find_fragment_references(name) from spec.md
// §6: every fragment-spread site across the project for a given fragment
// name, independent of cursor position.
func FindFragmentReferences(ctx *Context, name string) *References {
	return findFragmentReferences(ctx, name)
}

func findFragmentReferences(ctx *Context, name string) *References {
	out := &References{}
	if frag, ok := ctx.Fragments[name]; ok {
		out.Declarations = append(out.Declarations, Location{FileID: frag.FileID, Range: frag.NameRange})
	}
	for _, df := range ctx.DocumentFiles {
		for _, doc := range df.Docs {
			if doc.QueryDoc == nil {
				continue
			}
			walkSpreadUsages(doc, df.FileID, name, out)
		}
	}
	return out
}

func walkSpreadUsages(doc *syntax.ParsedDocument, fileID ids.FileID, name string, out *References) {
	var walk func(sel ast.SelectionSet)
	walk = func(sel ast.SelectionSet) {
		for _, s := range sel {
			switch v := s.(type) {
			case *ast.Field:
				walk(v.SelectionSet)
			case *ast.FragmentSpread:
				if v.Name == name {
					start := syntax.PosOffset(doc, v.Position) + doc.ByteOffset
					out.Usages = append(out.Usages, Location{FileID: fileID, Range: syntax.ByteRange{Start: start, End: start + len(name)}})
				}
			case *ast.InlineFragment:
				walk(v.SelectionSet)
			}
		}
	}
	for _, op := range doc.QueryDoc.Operations {
		walk(op.SelectionSet)
	}
	for _, frag := range doc.QueryDoc.Fragments {
		walk(frag.SelectionSet)
	}
}

func findTypeReferences(ctx *Context, typeName string) *References {
	out := &References{Declarations: typeDefinitionSites(ctx, typeName)}
	for _, sf := range ctx.SchemaFiles {
		for _, doc := range sf.Docs {
			if doc.SchemaDoc == nil {
				continue
			}
			for _, def := range allDefs(doc) {
				walkTypeNameUsages(doc, sf.FileID, typeName, def, out)
			}
		}
	}
	return out
}

// walkTypeNameUsages records every reference to typeName within def: field
// types, implements clauses, union members, input field types, and
// argument types.
func walkTypeNameUsages(doc *syntax.ParsedDocument, fileID ids.FileID, typeName string, def *ast.Definition, out *References) {
	for _, iface := range def.Interfaces {
		if iface == typeName {
			// gqlparser doesn't carry a separate position for each
			// `implements` clause entry; attribute the usage to the
			// definition's own name position.
			start := syntax.PosOffset(doc, def.Position) + doc.ByteOffset
			out.Usages = append(out.Usages, Location{FileID: fileID, Range: syntax.ByteRange{Start: start, End: start + len(def.Name)}})
		}
	}
	for _, member := range def.Types {
		if member == typeName {
			start := syntax.PosOffset(doc, def.Position) + doc.ByteOffset
			out.Usages = append(out.Usages, Location{FileID: fileID, Range: syntax.ByteRange{Start: start, End: start + len(def.Name)}})
		}
	}
	for _, fd := range def.Fields {
		recordTypeRefUsage(doc, fileID, typeName, fd.Type, out)
		for _, arg := range fd.Arguments {
			recordTypeRefUsage(doc, fileID, typeName, arg.Type, out)
		}
	}
}

func recordTypeRefUsage(doc *syntax.ParsedDocument, fileID ids.FileID, typeName string, t *ast.Type, out *References) {
	if t == nil {
		return
	}
	if t.NamedType != "" {
		if t.NamedType == typeName {
			start := syntax.PosOffset(doc, t.Position) + doc.ByteOffset
			out.Usages = append(out.Usages, Location{FileID: fileID, Range: syntax.ByteRange{Start: start, End: start + len(typeName)}})
		}
		return
	}
	recordTypeRefUsage(doc, fileID, typeName, t.Elem, out)
}

// findFieldReferences matches usages by (parent type at usage site, field
// name), counting a usage reached through an inline fragment whose type
// is typeName or an implementer of it.
func findFieldReferences(ctx *Context, typeName, fieldName string) *References {
	out := &References{}
	if f, ok := fieldDefOn(ctx.Types, typeName, fieldName); ok {
		out.Declarations = append(out.Declarations, Location{FileID: f.FileID, Range: f.NameRange})
	}

	var walk func(doc *syntax.ParsedDocument, fileID ids.FileID, sel ast.SelectionSet, parentType string)
	walk = func(doc *syntax.ParsedDocument, fileID ids.FileID, sel ast.SelectionSet, parentType string) {
		for _, s := range sel {
			switch v := s.(type) {
			case *ast.Field:
				if hir.IsSubtypeOf(ctx.Implementers, typeName, parentType) && v.Name == fieldName {
					start := syntax.PosOffset(doc, v.Position) + doc.ByteOffset
					nameStart := start
					if v.Alias != "" && v.Alias != v.Name {
						nameStart = start + len(v.Alias) + 2
					}
					out.Usages = append(out.Usages, Location{FileID: fileID, Range: syntax.ByteRange{Start: nameStart, End: nameStart + len(v.Name)}})
				}
				if v.SelectionSet != nil {
					if childType, ok := fieldReturnType(ctx.Types, parentType, v.Name); ok {
						walk(doc, fileID, v.SelectionSet, childType)
					}
				}
			case *ast.FragmentSpread:
				if frag, ok := ctx.Fragments[v.Name]; ok {
					walk(doc, fileID, frag.SelectionSet, frag.TypeCondition)
				}
			case *ast.InlineFragment:
				inlineType := parentType
				if v.TypeCondition != "" {
					inlineType = v.TypeCondition
				}
				walk(doc, fileID, v.SelectionSet, inlineType)
			}
		}
	}

	for _, df := range ctx.DocumentFiles {
		for _, doc := range df.Docs {
			if doc.QueryDoc == nil {
				continue
			}
			for _, op := range doc.QueryDoc.Operations {
				walk(doc, df.FileID, op.SelectionSet, ctx.rootTypeFor(op.Operation))
			}
			for _, frag := range doc.QueryDoc.Fragments {
				walk(doc, df.FileID, frag.SelectionSet, frag.TypeCondition)
			}
		}
	}
	return out
}
