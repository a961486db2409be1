package feature

import (
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/kestrelgql/gqlintel/internal/ids"
	"github.com/kestrelgql/gqlintel/internal/position"
	"github.com/kestrelgql/gqlintel/internal/syntax"
)

// Location is a file-relative byte range in a specific file, the shape
// goto-definition and find-references both return.
type Location struct {
	FileID ids.FileID
	Range  syntax.ByteRange
}

// GotoDefinition implements spec.md §4.7's goto-definition: symbol-driven
// dispatch, returning every definition site for symbols that can have more
// than one (a type extended across several schema files).
func GotoDefinition(ctx *Context, file ids.FileID, pos syntax.Position) []Location {
	doc, offset, ok := ctx.findDocAndOffset(file, pos)
	if !ok {
		return nil
	}
	sym := position.FindSymbolAtOffset(doc, offset)
	if sym == nil {
		return nil
	}

	switch sym.Kind {
	case position.SymbolFieldName:
		parentType, inSel := parentTypeAtOffset(ctx, doc, offset)
		if !inSel {
			return nil
		}
		return fieldDefinitionSites(ctx, parentType, sym.Name)
	case position.SymbolFragmentSpread:
		frag, ok := ctx.Fragments[sym.Name]
		if !ok {
			return nil
		}
		return []Location{{FileID: frag.FileID, Range: frag.NameRange}}
	case position.SymbolTypeName:
		return typeDefinitionSites(ctx, sym.Name)
	case position.SymbolVariableReference:
		if loc, ok := variableDefinitionSite(doc, file, offset, sym.Name); ok {
			return []Location{loc}
		}
		return nil
	case position.SymbolArgumentName:
		return argumentDefinitionSites(ctx, doc, offset, sym.Name)
	case position.SymbolOperationName:
		return operationNameSite(ctx, doc, file, sym.Name)
	default:
		return nil
	}
}

func fieldDefinitionSites(ctx *Context, typeName, fieldName string) []Location {
	var out []Location
	for _, sf := range ctx.SchemaFiles {
		for _, doc := range sf.Docs {
			if doc.SchemaDoc == nil {
				continue
			}
			for _, def := range allDefs(doc) {
				if def.Name != typeName {
					continue
				}
				for _, fd := range def.Fields {
					if fd.Name == fieldName {
						start := syntax.PosOffset(doc, fd.Position) + doc.ByteOffset
						out = append(out, Location{FileID: sf.FileID, Range: syntax.ByteRange{Start: start, End: start + len(fd.Name)}})
					}
				}
			}
		}
	}
	return out
}

func typeDefinitionSites(ctx *Context, typeName string) []Location {
	var out []Location
	for _, sf := range ctx.SchemaFiles {
		for _, doc := range sf.Docs {
			if doc.SchemaDoc == nil {
				continue
			}
			for _, def := range allDefs(doc) {
				if def.Name != typeName {
					continue
				}
				start := syntax.PosOffset(doc, def.Position) + doc.ByteOffset
				out = append(out, Location{FileID: sf.FileID, Range: syntax.ByteRange{Start: start, End: start + len(def.Name)}})
			}
		}
	}
	return out
}

func allDefs(doc *syntax.ParsedDocument) []*ast.Definition {
	out := make([]*ast.Definition, 0, len(doc.SchemaDoc.Definitions)+len(doc.SchemaDoc.Extensions))
	out = append(out, doc.SchemaDoc.Definitions...)
	out = append(out, doc.SchemaDoc.Extensions...)
	return out
}

func variableDefinitionSite(doc *syntax.ParsedDocument, file ids.FileID, offset int, name string) (Location, bool) {
	if doc.QueryDoc == nil {
		return Location{}, false
	}
	for _, op := range doc.QueryDoc.Operations {
		for _, vd := range op.VariableDefinitions {
			if vd.Variable != name {
				continue
			}
			start := syntax.PosOffset(doc, vd.Position) + doc.ByteOffset + 1
			return Location{FileID: file, Range: syntax.ByteRange{Start: start, End: start + len(name)}}, true
		}
	}
	return Location{}, false
}

// argumentDefinitionSites resolves an argument name to the argument
// definition on the field or directive declaration in the schema. Only the
// field-argument case is resolved here: directive argument lookup would
// need the enclosing directive's own definition, which the HIR doesn't
// index separately (directives aren't part of SPEC_FULL.md's schema-edit
// surface).
func argumentDefinitionSites(ctx *Context, doc *syntax.ParsedDocument, offset int, argName string) []Location {
	parentType, inSel := parentTypeAtOffset(ctx, doc, offset)
	if !inSel {
		return nil
	}
	fieldName, ok := enclosingFieldName(doc, offset)
	if !ok {
		return nil
	}
	f, ok := fieldDefOn(ctx.Types, parentType, fieldName)
	if !ok {
		return nil
	}
	var out []Location
	for _, sf := range ctx.SchemaFiles {
		for _, sdoc := range sf.Docs {
			if sdoc.SchemaDoc == nil {
				continue
			}
			for _, def := range allDefs(sdoc) {
				if def.Name != parentType {
					continue
				}
				for _, fd := range def.Fields {
					if fd.Name != f.Name {
						continue
					}
					for _, arg := range fd.Arguments {
						if arg.Name != argName {
							continue
						}
						start := syntax.PosOffset(sdoc, arg.Position) + sdoc.ByteOffset
						out = append(out, Location{FileID: sf.FileID, Range: syntax.ByteRange{Start: start, End: start + len(arg.Name)}})
					}
				}
			}
		}
	}
	return out
}

// enclosingFieldName finds the name of the field selection whose argument
// list contains offset, by re-walking the document's selection sets.
func enclosingFieldName(doc *syntax.ParsedDocument, offset int) (string, bool) {
	if doc.QueryDoc == nil {
		return "", false
	}
	for _, op := range doc.QueryDoc.Operations {
		if name, ok := findEnclosingField(doc, op.SelectionSet, offset); ok {
			return name, true
		}
	}
	for _, frag := range doc.QueryDoc.Fragments {
		if name, ok := findEnclosingField(doc, frag.SelectionSet, offset); ok {
			return name, true
		}
	}
	return "", false
}

func findEnclosingField(doc *syntax.ParsedDocument, sel ast.SelectionSet, offset int) (string, bool) {
	for _, s := range sel {
		switch v := s.(type) {
		case *ast.Field:
			for _, arg := range v.Arguments {
				if argumentCovers(doc, arg, offset) {
					return v.Name, true
				}
			}
			if v.SelectionSet != nil {
				if name, ok := findEnclosingField(doc, v.SelectionSet, offset); ok {
					return name, true
				}
			}
		case *ast.InlineFragment:
			if name, ok := findEnclosingField(doc, v.SelectionSet, offset); ok {
				return name, true
			}
		}
	}
	return "", false
}

func argumentCovers(doc *syntax.ParsedDocument, arg *ast.Argument, offset int) bool {
	start := syntax.PosOffset(doc, arg.Position)
	return offset >= start && offset <= start+len(arg.Name)
}

func operationNameSite(ctx *Context, doc *syntax.ParsedDocument, file ids.FileID, name string) []Location {
	if doc.QueryDoc == nil {
		return nil
	}
	for _, op := range doc.QueryDoc.Operations {
		if op.Name == name {
			start := syntax.PosOffset(doc, op.Position) + doc.ByteOffset
			return []Location{{FileID: file, Range: syntax.ByteRange{Start: start, End: start + len(name)}}}
		}
	}
	return nil
}
