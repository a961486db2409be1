package syntax

import (
	"sort"
	"unicode/utf16"
	"unicode/utf8"
)

// LineIndex maps byte offsets to (line, character) positions and back,
// over a single source string. Character columns are counted in UTF-16
// code units to stay compatible with LSP clients (spec.md §4.3). Grounded
// on standardbeagle-lci's LineScanner.GetLineAtOffset: precompute line
// start byte offsets once, then binary-search them on every lookup rather
// than rescanning the source per query.
type LineIndex struct {
	source      string
	lineStarts  []int // byte offset of the first byte of each line; lineStarts[0] == 0
}

// NewLineIndex scans source once and returns a LineIndex over it.
func NewLineIndex(source string) *LineIndex {
	starts := []int{0}
	for i := 0; i < len(source); i++ {
		if source[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{source: source, lineStarts: starts}
}

// LineCount returns the number of lines in the source (always >= 1).
func (li *LineIndex) LineCount() int {
	return len(li.lineStarts)
}

// lineAtOffset returns the 0-based line number containing byteOffset, via
// binary search for the largest line-start offset <= byteOffset.
func (li *LineIndex) lineAtOffset(byteOffset int) int {
	// sort.Search finds the first index for which the predicate is true;
	// we want the last lineStarts[i] <= byteOffset, i.e. the first index
	// where lineStarts[i+1] > byteOffset.
	n := sort.Search(len(li.lineStarts), func(i int) bool {
		return li.lineStarts[i] > byteOffset
	})
	if n == 0 {
		return 0
	}
	return n - 1
}

// Position is a zero-based (line, character) pair, character counted in
// UTF-16 code units, matching LSP's Position.
type Position struct {
	Line      int
	Character int
}

// OffsetToPosition converts a byte offset into source to a Position. An
// offset equal to len(source) is valid and resolves to the position just
// past the last character (needed so that ranges ending at EOF round-trip).
func (li *LineIndex) OffsetToPosition(byteOffset int) Position {
	if byteOffset < 0 {
		byteOffset = 0
	}
	if byteOffset > len(li.source) {
		byteOffset = len(li.source)
	}
	line := li.lineAtOffset(byteOffset)
	lineStart := li.lineStarts[line]
	character := utf16Length(li.source[lineStart:byteOffset])
	return Position{Line: line, Character: character}
}

// PositionToOffset converts a Position back to a byte offset. Returns
// false if line is out of range; a character past the end of the line
// clamps to the line's end (the offset of its trailing newline byte, if
// any, never past it).
func (li *LineIndex) PositionToOffset(pos Position) (int, bool) {
	if pos.Line < 0 || pos.Line >= len(li.lineStarts) {
		return 0, false
	}
	lineStart := li.lineStarts[pos.Line]
	lineEnd := len(li.source)
	if pos.Line+1 < len(li.lineStarts) {
		lineEnd = li.lineStarts[pos.Line+1]
		// Exclude the newline byte itself from the line's content span.
		if lineEnd > lineStart && li.source[lineEnd-1] == '\n' {
			lineEnd--
		}
	}

	remaining := pos.Character
	offset := lineStart
	for offset < lineEnd && remaining > 0 {
		r, size := utf8.DecodeRuneInString(li.source[offset:])
		units := utf16.RuneLen(r)
		if units < 1 {
			units = 1
		}
		if remaining < units {
			break
		}
		remaining -= units
		offset += size
	}
	return offset, true
}

// utf16Length returns the number of UTF-16 code units needed to encode s.
func utf16Length(s string) int {
	n := 0
	for _, r := range s {
		units := utf16.RuneLen(r)
		if units < 1 {
			units = 1
		}
		n += units
	}
	return n
}
