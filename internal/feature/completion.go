package feature

import (
	"sort"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/kestrelgql/gqlintel/internal/hir"
	"github.com/kestrelgql/gqlintel/internal/ids"
	"github.com/kestrelgql/gqlintel/internal/position"
	"github.com/kestrelgql/gqlintel/internal/syntax"
)

// CompletionItem is one suggestion returned by Completion.
type CompletionItem struct {
	Label      string
	Detail     string
	InsertText string
	IsSnippet  bool
	SortText   string
}

// snippetSortPrefix is prepended to every inline-fragment snippet's sort
// text so editors list field suggestions before "... on X" ones.
const snippetSortPrefix = "z_"

// Completion implements spec.md §4.7's completion policy: fragment-spread
// context, then parent-type-driven field/inline-fragment suggestions.
// Returns nil if file is unknown to ctx.
func Completion(ctx *Context, file ids.FileID, pos syntax.Position) []CompletionItem {
	doc, offset, ok := ctx.findDocAndOffset(file, pos)
	if !ok {
		return nil
	}

	if isFragmentSpreadContext(doc, offset) {
		return fragmentNameCompletions(ctx)
	}

	parentType, inSelectionSet := parentTypeAtOffset(ctx, doc, offset)
	if !inSelectionSet {
		return []CompletionItem{}
	}

	t, ok := ctx.Types[parentType]
	if !ok {
		return []CompletionItem{}
	}

	switch t.Kind {
	case hir.KindObject, hir.KindInterface:
		return objectOrInterfaceCompletions(ctx, t)
	case hir.KindUnion:
		return unionCompletions(t)
	default:
		return []CompletionItem{}
	}
}

// isFragmentSpreadContext reports whether offset sits right after a `...`
// token that isn't immediately followed by `on ` (an inline fragment, not
// a fragment spread). This is a best-effort text scan: gqlparser's AST
// doesn't expose a cursor sitting mid-token inside an as-yet-incomplete
// spread the way a CST parser would.
func isFragmentSpreadContext(doc *syntax.ParsedDocument, offset int) bool {
	src := doc.Source.Input
	if offset > len(src) {
		return false
	}
	before := strings.TrimRight(src[:offset], " \t")
	if !strings.HasSuffix(before, "...") {
		return false
	}
	after := strings.TrimLeft(src[offset:], " \t")
	return !strings.HasPrefix(after, "on ")
}

func fragmentNameCompletions(ctx *Context) []CompletionItem {
	names := make([]string, 0, len(ctx.Fragments))
	for name := range ctx.Fragments {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]CompletionItem, 0, len(names))
	for _, name := range names {
		out = append(out, CompletionItem{Label: name, InsertText: name, SortText: name})
	}
	return out
}

// parentTypeAtOffset resolves the selection set enclosing offset, if any,
// via the parent-type walker, reporting whether offset is actually inside
// some operation's or fragment's selection set at all.
func parentTypeAtOffset(ctx *Context, doc *syntax.ParsedDocument, offset int) (string, bool) {
	if doc.QueryDoc == nil {
		return "", false
	}
	for _, op := range doc.QueryDoc.Operations {
		if !withinSelectionSet(doc, op.SelectionSet, offset) {
			continue
		}
		root := ctx.rootTypeFor(op.Operation)
		return position.WalkTypeStackToOffset(doc, ctx.Types, offset, root), true
	}
	for _, frag := range doc.QueryDoc.Fragments {
		if !withinSelectionSet(doc, frag.SelectionSet, offset) {
			continue
		}
		return position.WalkTypeStackToOffset(doc, ctx.Types, offset, frag.TypeCondition), true
	}
	return "", false
}

// withinSelectionSet reports whether offset falls within sel's enclosing
// `{ ... }`, recovered from source text the same way
// internal/position.selectionSetRange does (that helper is unexported, so
// this is a small, deliberate duplicate rather than an export-just-for-this
// change to an already-working package).
func withinSelectionSet(doc *syntax.ParsedDocument, sel ast.SelectionSet, offset int) bool {
	if len(sel) == 0 || doc.Source == nil {
		return false
	}
	var pos *ast.Position
	switch v := sel[0].(type) {
	case *ast.Field:
		pos = v.Position
	case *ast.FragmentSpread:
		pos = v.Position
	case *ast.InlineFragment:
		pos = v.Position
	default:
		return false
	}
	if pos == nil {
		return false
	}
	firstPos := syntax.PosOffset(doc, pos)
	src := doc.Source.Input
	braceStart := -1
	for i := firstPos; i >= 0; i-- {
		if src[i] == '{' {
			braceStart = i
			break
		}
	}
	if braceStart < 0 {
		return false
	}
	depth := 0
	for i := braceStart; i < len(src); i++ {
		switch src[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return offset >= braceStart && offset <= i
			}
		}
	}
	return offset >= braceStart
}

func objectOrInterfaceCompletions(ctx *Context, t *hir.SchemaType) []CompletionItem {
	out := make([]CompletionItem, 0, len(t.FieldOrder)+len(ctx.Implementers[t.Name]))
	for _, name := range t.FieldOrder {
		f := t.Fields[name]
		out = append(out, CompletionItem{
			Label:    name,
			Detail:   f.Type.UnwrappedName(),
			SortText: name,
		})
	}
	if t.Kind == hir.KindInterface {
		for _, impl := range ctx.Implementers[t.Name] {
			out = append(out, inlineFragmentSnippet(impl))
		}
	}
	return out
}

func unionCompletions(t *hir.SchemaType) []CompletionItem {
	out := make([]CompletionItem, 0, len(t.UnionMembers))
	for _, member := range t.UnionMembers {
		out = append(out, inlineFragmentSnippet(member))
	}
	return out
}

func inlineFragmentSnippet(typeName string) CompletionItem {
	return CompletionItem{
		Label:      "... on " + typeName,
		InsertText: "... on " + typeName + " {\n  $0\n}",
		IsSnippet:  true,
		SortText:   snippetSortPrefix + typeName,
	}
}
