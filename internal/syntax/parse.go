// Package syntax is the derived query layer that turns raw file content
// into parsed GraphQL CSTs (spec.md §4.3), over github.com/vektah/gqlparser/v2
// exactly as the teacher's schema/document loaders invoke it. A parse is
// keyed on the (content, metadata) pair and never fails outright: syntax
// errors are collected into the result alongside whatever gqlparser could
// still recover.
package syntax

import (
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/parser"

	"github.com/kestrelgql/gqlintel/internal/ids"
)

// ByteRange is a half-open [Start, End) byte range into a file's content.
type ByteRange struct {
	Start int
	End   int
}

// SyntaxError is one parse failure, carrying the byte range it occurred at
// (best-effort — gqlparser reports line/column, which we reproject through
// a LineIndex) and a human-readable message.
type SyntaxError struct {
	Range   ByteRange
	Message string
}

// EmbeddedBlock is one block handed back by the extraction adapter
// (internal/extract): the GraphQL content of a single template literal,
// plus the byte and line offset at which that content begins within the
// owning host file. A pure GraphQL file is parsed as if it contained
// exactly one such block with ByteOffset == 0.
type EmbeddedBlock struct {
	Source     string
	ByteOffset int
	LineOffset int
}

// ParsedDocument is one GraphQL document — either the whole content of a
// pure .graphql file, or one embedded template literal's content. byte and
// line offsets let all downstream position math (internal/position)
// project back into the owning file's coordinate space uniformly, so no
// downstream code needs to know whether the file was pure or embedded.
type ParsedDocument struct {
	FileID     ids.FileID
	ByteOffset int
	LineOffset int
	Source     *ast.Source

	// Exactly one of QueryDoc / SchemaDoc is non-nil, depending on the
	// owning file's DocumentKind.
	QueryDoc  *ast.QueryDocument
	SchemaDoc *ast.SchemaDocument

	LineIndex *LineIndex
}

// ParseResult is the output of Parse: zero or more ParsedDocuments (zero
// only for an embedded-GraphQL file with no template literals) plus any
// syntax errors encountered across all of them.
type ParseResult struct {
	FileID       ids.FileID
	docs         []*ParsedDocument
	SyntaxErrors []SyntaxError
}

// Documents returns the uniform view of this file's parsed documents used
// by every downstream analysis; callers must never branch on whether the
// file was pure GraphQL or embedded.
func (r *ParseResult) Documents() []*ParsedDocument {
	return r.docs
}

// ParseInput is everything Parse needs to know about one file. IsSchema
// selects ParseSchema vs. ParseQuery for every block. Blocks is empty for
// a pure GraphQL file, in which case Content is parsed directly with
// ByteOffset 0 and LineOffset taken from BaseLineOffset.
type ParseInput struct {
	FileID         ids.FileID
	FileName       string // used as gqlparser's ast.Source.Name, for error messages
	Content        string
	IsSchema       bool
	BaseLineOffset int
	Blocks         []EmbeddedBlock
}

// Parse is the derived query described in spec.md §4.3: parse(content,
// metadata). It is pure and panic-free — every gqlparser error is folded
// into SyntaxErrors rather than returned as an error value, matching the
// engine's panic-free failure model for derivations (spec.md §4.1).
func Parse(in ParseInput) *ParseResult {
	blocks := in.Blocks
	if len(blocks) == 0 {
		blocks = []EmbeddedBlock{{Source: in.Content, ByteOffset: 0, LineOffset: in.BaseLineOffset}}
	}

	result := &ParseResult{FileID: in.FileID}

	for i, block := range blocks {
		src := &ast.Source{
			Name:  blockName(in.FileName, i, len(blocks)),
			Input: block.Source,
		}
		lineIdx := NewLineIndex(block.Source)

		doc := &ParsedDocument{
			FileID:     in.FileID,
			ByteOffset: block.ByteOffset,
			LineOffset: block.LineOffset,
			Source:     src,
			LineIndex:  lineIdx,
		}

		if in.IsSchema {
			schemaDoc, err := parser.ParseSchema(src)
			if err != nil {
				result.SyntaxErrors = append(result.SyntaxErrors, toSyntaxError(err, block, lineIdx))
			}
			doc.SchemaDoc = schemaDoc
		} else {
			queryDoc, err := parser.ParseQuery(src)
			if err != nil {
				result.SyntaxErrors = append(result.SyntaxErrors, toSyntaxError(err, block, lineIdx))
			}
			doc.QueryDoc = queryDoc
		}

		result.docs = append(result.docs, doc)
	}

	return result
}

func blockName(fileName string, index, total int) string {
	if total <= 1 {
		return fileName
	}
	return fileName + "#" + itoa(index)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := [20]byte{}
	i := len(digits)
	for n > 0 {
		i--
		digits[i] = byte('0' + n%10)
		n /= 10
	}
	return string(digits[i:])
}

// toSyntaxError reprojects a gqlerror.Error's line/column location (in the
// block's own local coordinate space) into a byte range via the block's
// LineIndex, then offsets it by the block's position in the owning file.
func toSyntaxError(err *gqlerror.Error, block EmbeddedBlock, lineIdx *LineIndex) SyntaxError {
	msg := err.Message
	if len(err.Locations) == 0 {
		return SyntaxError{Range: ByteRange{Start: block.ByteOffset, End: block.ByteOffset}, Message: msg}
	}
	loc := err.Locations[0]
	// gqlerror locations are 1-based line/column; LineIndex is 0-based.
	pos := Position{Line: loc.Line - 1, Character: loc.Column - 1}
	offset, ok := lineIdx.PositionToOffset(pos)
	if !ok {
		offset = 0
	}
	start := block.ByteOffset + offset
	return SyntaxError{Range: ByteRange{Start: start, End: start}, Message: msg}
}
