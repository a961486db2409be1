package feature

import (
	"fmt"
	"strings"

	"github.com/kestrelgql/gqlintel/internal/hir"
	"github.com/kestrelgql/gqlintel/internal/ids"
	"github.com/kestrelgql/gqlintel/internal/lint"
	"github.com/kestrelgql/gqlintel/internal/position"
	"github.com/kestrelgql/gqlintel/internal/syntax"
)

// Hover is the markdown summary rendered for the symbol at pos, per
// spec.md §4.7.
type Hover struct {
	Markdown string
	Range    syntax.ByteRange
}

// HoverAt resolves the symbol at (file, pos) and renders it, falling back
// to a syntax-error listing when nothing resolves but the file has parse
// errors — so a broken file is still informative on hover.
func HoverAt(ctx *Context, file ids.FileID, pos syntax.Position, syntaxErrorsByDoc map[*syntax.ParsedDocument][]syntax.SyntaxError) *Hover {
	doc, offset, ok := ctx.findDocAndOffset(file, pos)
	if !ok {
		return nil
	}

	sym := position.FindSymbolAtOffset(doc, offset)
	if sym == nil {
		if errs := syntaxErrorsByDoc[doc]; len(errs) > 0 {
			var sb strings.Builder
			sb.WriteString("**Parse errors**\n\n")
			for _, e := range errs {
				fmt.Fprintf(&sb, "- %s\n", e.Message)
			}
			return &Hover{Markdown: sb.String()}
		}
		return nil
	}

	switch sym.Kind {
	case position.SymbolFieldName:
		parentType, inSel := parentTypeAtOffset(ctx, doc, offset)
		if !inSel {
			return &Hover{Markdown: "**" + sym.Name + "**", Range: sym.Range}
		}
		return &Hover{Markdown: renderFieldHover(ctx, parentType, sym.Name), Range: sym.Range}
	case position.SymbolTypeName:
		return &Hover{Markdown: renderTypeHover(ctx, sym.Name), Range: sym.Range}
	case position.SymbolFragmentSpread:
		return &Hover{Markdown: renderFragmentHover(ctx, sym.Name), Range: sym.Range}
	default:
		return &Hover{Markdown: fmt.Sprintf("**%s** `%s`", symbolKindLabel(sym.Kind), sym.Name), Range: sym.Range}
	}
}

func symbolKindLabel(kind position.SymbolKind) string {
	switch kind {
	case position.SymbolOperationName:
		return "Operation"
	case position.SymbolVariableReference:
		return "Variable"
	case position.SymbolArgumentName:
		return "Argument"
	case position.SymbolDirectiveName:
		return "Directive"
	case position.SymbolEnumValue:
		return "EnumValue"
	default:
		return "Symbol"
	}
}

func renderFieldHover(ctx *Context, parentType, fieldName string) string {
	f, ok := fieldDefOn(ctx.Types, parentType, fieldName)
	if !ok {
		return "**" + fieldName + "**"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "**%s.%s**: `%s`", parentType, fieldName, typeString(f.Type))
	if f.Description != "" {
		fmt.Fprintf(&sb, "\n\n%s", f.Description)
	}
	if f.Deprecated {
		fmt.Fprintf(&sb, "\n\n_Deprecated_")
		if f.DeprecationReason != "" {
			fmt.Fprintf(&sb, ": %s", f.DeprecationReason)
		}
	}
	if usage := lint.UsageFor(ctx.FieldUsage, ctx.Implementers, parentType, fieldName); usage != nil && usage.Count > 0 {
		fmt.Fprintf(&sb, "\n\nUsed in %d operation(s)", usage.Count)
	} else {
		sb.WriteString("\n\n0 operations (unused)")
	}
	return sb.String()
}

func renderTypeHover(ctx *Context, typeName string) string {
	t, ok := ctx.Types[typeName]
	if !ok {
		return "**" + typeName + "**"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "**%s** _%s_", t.Name, kindLabel(t.Kind))
	if t.Description != "" {
		fmt.Fprintf(&sb, "\n\n%s", t.Description)
	}
	return sb.String()
}

func kindLabel(k hir.TypeKind) string {
	switch k {
	case hir.KindObject:
		return "Object"
	case hir.KindInterface:
		return "Interface"
	case hir.KindUnion:
		return "Union"
	case hir.KindEnum:
		return "Enum"
	case hir.KindInputObject:
		return "Input"
	default:
		return "Scalar"
	}
}

func renderFragmentHover(ctx *Context, name string) string {
	frag, ok := ctx.Fragments[name]
	if !ok {
		return "**" + name + "**"
	}
	return fmt.Sprintf("**%s** on `%s`", frag.Name, frag.TypeCondition)
}

// fieldDefOn looks up a field definition by (typeName, fieldName), only
// for Object/Interface kinds.
func fieldDefOn(types map[string]*hir.SchemaType, typeName, fieldName string) (*hir.FieldInfo, bool) {
	t, ok := types[typeName]
	if !ok || (t.Kind != hir.KindObject && t.Kind != hir.KindInterface) {
		return nil, false
	}
	f, ok := t.Fields[fieldName]
	return f, ok
}

// fieldReturnType resolves a field's unwrapped return type name.
func fieldReturnType(types map[string]*hir.SchemaType, parentType, fieldName string) (string, bool) {
	f, ok := fieldDefOn(types, parentType, fieldName)
	if !ok {
		return "", false
	}
	return f.Type.UnwrappedName(), true
}

// typeString renders a TypeRef with the `!`/`[]` decoration a field
// definition's source carries, e.g. "[String!]!".
func typeString(t hir.TypeRef) string {
	if t.ListOf != nil {
		inner := typeString(*t.ListOf)
		if t.NonNull {
			return "[" + inner + "]!"
		}
		return "[" + inner + "]"
	}
	if t.NonNull {
		return t.NamedType + "!"
	}
	return t.NamedType
}
