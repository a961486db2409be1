package syntax

import "github.com/vektah/gqlparser/v2/ast"

// PosOffset converts a gqlparser *ast.Position (1-based line/column, block-
// local) into a block-local byte offset via doc's LineIndex. Every package
// downstream of a ParsedDocument derives byte offsets this way rather than
// trusting ast.Position.Start/End, whose exact semantics (byte vs. rune,
// and relative to which source) aren't worth depending on here.
func PosOffset(doc *ParsedDocument, pos *ast.Position) int {
	if pos == nil || doc == nil || doc.LineIndex == nil {
		return 0
	}
	offset, ok := doc.LineIndex.PositionToOffset(Position{Line: pos.Line - 1, Character: pos.Column - 1})
	if !ok {
		return 0
	}
	return offset
}

// Range is a half-open [Start, End) span expressed in the 0-based,
// UTF-16-column Position used throughout the public feature-query surface
// (spec.md §6 "Position semantics").
type Range struct {
	Start Position
	End   Position
}

// EditorPosition projects a position local to doc's own block (as returned
// by doc.LineIndex) into the owning file's coordinate space by adding the
// block's LineOffset. Only the line is shifted: ParsedDocument does not
// track the host-file column at which an embedded block begins, so the
// first line of a block whose opening brace shares a line with host-file
// text keeps its block-local column. This mirrors the same "reconstructed,
// not exact" approximation internal/hir documents for byte ranges.
func EditorPosition(doc *ParsedDocument, blockPos Position) Position {
	return Position{Line: blockPos.Line + doc.LineOffset, Character: blockPos.Character}
}

// EditorRangeForBytes converts a block-local byte range into an editor
// Range via doc's LineIndex, then projects it with EditorPosition.
func EditorRangeForBytes(doc *ParsedDocument, blockStart, blockEnd int) Range {
	return Range{
		Start: EditorPosition(doc, doc.LineIndex.OffsetToPosition(blockStart)),
		End:   EditorPosition(doc, doc.LineIndex.OffsetToPosition(blockEnd)),
	}
}

// RangeLess orders ranges by (start.Line, start.Character) — the sort key
// semantic tokens and diagnostics both use before returning to the editor.
func RangeLess(a, b Range) bool {
	if a.Start.Line != b.Start.Line {
		return a.Start.Line < b.Start.Line
	}
	return a.Start.Character < b.Start.Character
}
