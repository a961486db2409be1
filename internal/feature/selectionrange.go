package feature

import (
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/kestrelgql/gqlintel/internal/ids"
	"github.com/kestrelgql/gqlintel/internal/syntax"
)

// SelectionRange is one node of the linked list LSP's selectionRange
// request expects: the innermost node containing the cursor, its parent,
// its parent's parent, and so on up to the whole document.
type SelectionRange struct {
	Range  syntax.Range
	Parent *SelectionRange
}

// SelectionRangeAt builds the smallest-to-largest chain of enclosing
// syntactic ranges around pos: the field/argument/value at the cursor,
// the selection set(s) around it, the whole operation or fragment
// definition, and finally the whole document (for an embedded block, the
// block's own source).
func SelectionRangeAt(ctx *Context, file ids.FileID, pos syntax.Position) *SelectionRange {
	doc, offset, ok := ctx.findDocAndOffset(file, pos)
	if !ok || doc.QueryDoc == nil {
		return nil
	}

	for _, op := range doc.QueryDoc.Operations {
		if r, ok := selectionSetByteRange(doc, op.SelectionSet); ok && offset >= r.Start && offset <= r.End {
			chain := buildSelectionChain(doc, op.SelectionSet, offset)
			opRange := syntax.ByteRange{Start: syntax.PosOffset(doc, op.Position), End: r.End}
			return appendRoot(doc, chain, opRange)
		}
	}
	for _, frag := range doc.QueryDoc.Fragments {
		if r, ok := selectionSetByteRange(doc, frag.SelectionSet); ok && offset >= r.Start && offset <= r.End {
			chain := buildSelectionChain(doc, frag.SelectionSet, offset)
			fragRange := syntax.ByteRange{Start: syntax.PosOffset(doc, frag.Position), End: r.End}
			return appendRoot(doc, chain, fragRange)
		}
	}
	return nil
}

// buildSelectionChain returns the innermost-first chain of selection-set
// ranges containing offset, narrowing into nested field selection sets and
// inline fragments as deep as offset reaches.
func buildSelectionChain(doc *syntax.ParsedDocument, sel ast.SelectionSet, offset int) []syntax.ByteRange {
	r, ok := selectionSetByteRange(doc, sel)
	if !ok || offset < r.Start || offset > r.End {
		return nil
	}
	chain := []syntax.ByteRange{r}
	for _, s := range sel {
		switch v := s.(type) {
		case *ast.Field:
			if v.SelectionSet != nil {
				if inner := buildSelectionChain(doc, v.SelectionSet, offset); inner != nil {
					return append(inner, chain...)
				}
			}
			if fieldCovers(doc, v, offset) {
				return append([]syntax.ByteRange{fieldByteRange(doc, v)}, chain...)
			}
		case *ast.InlineFragment:
			if inner := buildSelectionChain(doc, v.SelectionSet, offset); inner != nil {
				return append(inner, chain...)
			}
		}
	}
	return chain
}

func fieldCovers(doc *syntax.ParsedDocument, f *ast.Field, offset int) bool {
	fr := fieldByteRange(doc, f)
	return offset >= fr.Start && offset <= fr.End
}

func fieldByteRange(doc *syntax.ParsedDocument, f *ast.Field) syntax.ByteRange {
	start := syntax.PosOffset(doc, f.Position)
	end := start + len(f.Name)
	for _, arg := range f.Arguments {
		argStart := syntax.PosOffset(doc, arg.Position)
		argEnd := argStart + len(arg.Name)
		if arg.Value != nil {
			valEnd := syntax.PosOffset(doc, arg.Value.Position) + len(arg.Value.Raw)
			if valEnd > argEnd {
				argEnd = valEnd
			}
		}
		if argEnd > end {
			end = argEnd
		}
	}
	return syntax.ByteRange{Start: start, End: end}
}

func appendRoot(doc *syntax.ParsedDocument, chain []syntax.ByteRange, root syntax.ByteRange) *SelectionRange {
	chain = append(chain, root)
	if docRange := (syntax.ByteRange{Start: 0, End: len(doc.Source.Input)}); docRange != root {
		chain = append(chain, docRange)
	}
	var head *SelectionRange
	var tail *SelectionRange
	for _, r := range chain {
		node := &SelectionRange{Range: syntax.EditorRangeForBytes(doc, r.Start, r.End)}
		if head == nil {
			head = node
		} else {
			tail.Parent = node
		}
		tail = node
	}
	return head
}
