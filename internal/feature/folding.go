package feature

import (
	"strings"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/kestrelgql/gqlintel/internal/ids"
	"github.com/kestrelgql/gqlintel/internal/syntax"
)

// FoldingRange is one foldable region: an operation/fragment body, a
// nested selection set, or a block comment.
type FoldingRange struct {
	Range syntax.Range
}

// FoldingRanges returns every foldable region in file, in editor
// coordinates. Every selection set with at least one selection folds, not
// just top-level operation/fragment bodies, so nested object selections
// collapse independently in an editor's gutter.
func FoldingRanges(ctx *Context, file ids.FileID) []FoldingRange {
	var out []FoldingRange
	for _, doc := range ctx.docsFor(file) {
		if doc.QueryDoc == nil {
			continue
		}
		for _, op := range doc.QueryDoc.Operations {
			out = append(out, foldSelectionSet(doc, op.SelectionSet)...)
		}
		for _, frag := range doc.QueryDoc.Fragments {
			out = append(out, foldSelectionSet(doc, frag.SelectionSet)...)
		}
		out = append(out, foldBlockComments(doc)...)
	}
	return out
}

// foldBlockComments folds runs of two or more consecutive `#` comment
// lines — a single comment line has nothing to collapse.
func foldBlockComments(doc *syntax.ParsedDocument) []FoldingRange {
	if doc.Source == nil {
		return nil
	}
	lines := strings.Split(doc.Source.Input, "\n")
	var out []FoldingRange
	runStart := -1
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			if runStart < 0 {
				runStart = i
			}
			continue
		}
		if runStart >= 0 && i-runStart > 1 {
			out = append(out, FoldingRange{Range: syntax.Range{
				Start: syntax.EditorPosition(doc, syntax.Position{Line: runStart}),
				End:   syntax.EditorPosition(doc, syntax.Position{Line: i - 1}),
			}})
		}
		runStart = -1
	}
	if runStart >= 0 && len(lines)-runStart > 1 {
		out = append(out, FoldingRange{Range: syntax.Range{
			Start: syntax.EditorPosition(doc, syntax.Position{Line: runStart}),
			End:   syntax.EditorPosition(doc, syntax.Position{Line: len(lines) - 1}),
		}})
	}
	return out
}

func foldSelectionSet(doc *syntax.ParsedDocument, sel ast.SelectionSet) []FoldingRange {
	var out []FoldingRange
	if r, ok := selectionSetByteRange(doc, sel); ok {
		out = append(out, FoldingRange{Range: syntax.EditorRangeForBytes(doc, r.Start, r.End)})
	}
	for _, s := range sel {
		switch v := s.(type) {
		case *ast.Field:
			out = append(out, foldSelectionSet(doc, v.SelectionSet)...)
		case *ast.InlineFragment:
			out = append(out, foldSelectionSet(doc, v.SelectionSet)...)
		}
	}
	return out
}

// selectionSetByteRange recovers the `{ ... }` byte span enclosing sel by
// scanning from its first selection's position — the same brace-matching
// technique used by completion.go's withinSelectionSet, documented there as
// a deliberate duplicate of internal/position's unexported helper.
func selectionSetByteRange(doc *syntax.ParsedDocument, sel ast.SelectionSet) (syntax.ByteRange, bool) {
	if len(sel) == 0 || doc.Source == nil {
		return syntax.ByteRange{}, false
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
		return syntax.ByteRange{}, false
	}
	if pos == nil {
		return syntax.ByteRange{}, false
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
		return syntax.ByteRange{}, false
	}
	depth := 0
	for i := braceStart; i < len(src); i++ {
		switch src[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return syntax.ByteRange{Start: braceStart, End: i + 1}, true
			}
		}
	}
	return syntax.ByteRange{}, false
}
