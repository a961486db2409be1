package feature

import (
	"sort"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/kestrelgql/gqlintel/internal/ids"
	"github.com/kestrelgql/gqlintel/internal/syntax"
)

// TokenType is one of the semantic-token categories spec.md §4.7 names.
type TokenType int

const (
	TokenTypeName TokenType = iota
	TokenProperty
	TokenVariable
	TokenFunction // fragment names, rendered as "functions" so spread vs.
	// field-name highlighting differs in editors that don't have a
	// dedicated fragment scope.
	TokenEnumMember
	TokenKeyword
	TokenString
	TokenNumber
)

// TokenModifier is a bitmask of modifiers layered onto a TokenType.
type TokenModifier uint8

const (
	ModifierNone       TokenModifier = 0
	ModifierDeprecated TokenModifier = 1 << iota
	ModifierDefinition
)

// SemanticToken is one classified span, in editor (file-wide) coordinates.
type SemanticToken struct {
	Range     syntax.Range
	Type      TokenType
	Modifiers TokenModifier
}

// SemanticTokens classifies name-like tokens in file's own documents:
// type names, field names/property access, variables, fragment spreads,
// and enum values (enum value definitions in schema documents). Keywords,
// directives, and string/number literals get no token. Results are sorted
// by (line, character) per spec.md §4.7.
func SemanticTokens(ctx *Context, file ids.FileID) []SemanticToken {
	var out []SemanticToken
	for _, doc := range ctx.docsFor(file) {
		if doc.SchemaDoc != nil {
			out = append(out, schemaTokens(ctx, doc)...)
		}
		if doc.QueryDoc != nil {
			out = append(out, executableTokens(ctx, doc)...)
		}
	}
	sort.Slice(out, func(i, j int) bool { return syntax.RangeLess(out[i].Range, out[j].Range) })
	return out
}

func tok(doc *syntax.ParsedDocument, pos *ast.Position, length int, typ TokenType, mod TokenModifier) SemanticToken {
	start := syntax.PosOffset(doc, pos)
	return SemanticToken{
		Range:     syntax.EditorRangeForBytes(doc, start, start+length),
		Type:      typ,
		Modifiers: mod,
	}
}

func schemaTokens(ctx *Context, doc *syntax.ParsedDocument) []SemanticToken {
	var out []SemanticToken
	defs := make([]*ast.Definition, 0, len(doc.SchemaDoc.Definitions)+len(doc.SchemaDoc.Extensions))
	defs = append(defs, doc.SchemaDoc.Definitions...)
	defs = append(defs, doc.SchemaDoc.Extensions...)
	for _, def := range defs {
		out = append(out, tok(doc, def.Position, len(def.Name), TokenTypeName, ModifierDefinition))
		for _, fd := range def.Fields {
			out = append(out, tok(doc, fd.Position, len(fd.Name), TokenProperty, fieldModifier(ctx, def.Name, fd.Name)))
			for _, arg := range fd.Arguments {
				out = append(out, tok(doc, arg.Position, len(arg.Name), TokenVariable, ModifierNone))
			}
		}
		for _, ev := range def.EnumValues {
			out = append(out, tok(doc, ev.Position, len(ev.Name), TokenEnumMember, ModifierNone))
		}
	}
	return out
}

func fieldModifier(ctx *Context, typeName, fieldName string) TokenModifier {
	if f, ok := fieldDefOn(ctx.Types, typeName, fieldName); ok && f.Deprecated {
		return ModifierDeprecated
	}
	return ModifierNone
}

func executableTokens(ctx *Context, doc *syntax.ParsedDocument) []SemanticToken {
	var out []SemanticToken
	for _, op := range doc.QueryDoc.Operations {
		if op.Name != "" {
			out = append(out, tok(doc, op.Position, len(op.Name), TokenFunction, ModifierDefinition))
		}
		for _, vd := range op.VariableDefinitions {
			out = append(out, tok(doc, vd.Position, len(vd.Variable)+1, TokenVariable, ModifierDefinition))
		}
		out = append(out, walkSelectionTokens(ctx, doc, op.SelectionSet, ctx.rootTypeFor(op.Operation))...)
	}
	for _, frag := range doc.QueryDoc.Fragments {
		out = append(out, tok(doc, frag.Position, len(frag.Name), TokenFunction, ModifierDefinition))
		out = append(out, walkSelectionTokens(ctx, doc, frag.SelectionSet, frag.TypeCondition)...)
	}
	return out
}

func walkSelectionTokens(ctx *Context, doc *syntax.ParsedDocument, sel ast.SelectionSet, parentType string) []SemanticToken {
	var out []SemanticToken
	for _, s := range sel {
		switch v := s.(type) {
		case *ast.Field:
			out = append(out, tok(doc, v.Position, len(v.Name), TokenProperty, fieldModifier(ctx, parentType, v.Name)))
			for _, arg := range v.Arguments {
				out = append(out, tok(doc, arg.Position, len(arg.Name), TokenVariable, ModifierNone))
				if arg.Value != nil && arg.Value.Kind == ast.Variable {
					out = append(out, tok(doc, arg.Value.Position, len(arg.Value.Raw)+1, TokenVariable, ModifierNone))
				}
			}
			if v.SelectionSet != nil {
				if childType, ok := fieldReturnType(ctx.Types, parentType, v.Name); ok {
					out = append(out, walkSelectionTokens(ctx, doc, v.SelectionSet, childType)...)
				}
			}
		case *ast.FragmentSpread:
			out = append(out, tok(doc, v.Position, len(v.Name), TokenFunction, ModifierNone))
		case *ast.InlineFragment:
			inlineType := parentType
			if v.TypeCondition != "" {
				inlineType = v.TypeCondition
			}
			out = append(out, walkSelectionTokens(ctx, doc, v.SelectionSet, inlineType)...)
		}
	}
	return out
}
