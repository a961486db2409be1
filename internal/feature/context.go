// Package feature implements the feature queries of spec.md §4.7: one pure
// function per query, each taking this package's own Context plus the
// query's own arguments. pkg/analysis.Analysis owns the database snapshot
// and assembles a Context from it before calling into this package —
// internal/feature itself never touches internal/db or pkg/analysis, which
// keeps the dependency graph from cycling back through the layer that
// wires it together.
package feature

import (
	"sort"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/kestrelgql/gqlintel/internal/hir"
	"github.com/kestrelgql/gqlintel/internal/ids"
	"github.com/kestrelgql/gqlintel/internal/lint"
	"github.com/kestrelgql/gqlintel/internal/registry"
	"github.com/kestrelgql/gqlintel/internal/syntax"
)

// RootTypes names the schema's Query/Mutation/Subscription root types.
type RootTypes = lint.RootTypes

// Context is the project-wide view every feature query reads, assembled
// once per snapshot. It mirrors lint.ProjectContext (the same HIR indices)
// plus the field-usage index lint computes, since hover/codelens need
// usage counts that lint itself only produces as a by-product.
type Context struct {
	Types           map[string]*hir.SchemaType
	Implementers    map[string][]string
	Fragments       map[string]*hir.FragmentStructure
	// FragmentDefs holds the raw node behind each Fragments entry, Position
	// intact, so spec validation can splice a missing fragment into another
	// document without losing its error-location fidelity.
	FragmentDefs    map[string]*ast.FragmentDefinition
	FragmentSpreads map[string]map[string]bool
	Operations      []*hir.OperationStructure
	SchemaFiles     []hir.SchemaFile
	DocumentFiles   []hir.DocumentFile
	Roots           RootTypes
	FieldUsage      map[lint.FieldUsageKey]*lint.FieldUsageInfo

	// Docs indexes every file's own parsed documents by FileID, used by
	// single-file queries (hover, completion, goto-def, semantic tokens,
	// inlay hints, folding, selection ranges) that only need one file's
	// CST plus the project-wide indices above for cross-file lookups.
	Docs map[ids.FileID][]*syntax.ParsedDocument

	// Metadata is the registry's per-file descriptor, needed for a file's
	// line_offset and its schema/executable partition.
	Metadata map[ids.FileID]registry.FileMetadata
}

// docsFor returns file's parsed documents, or nil if file is unknown.
func (c *Context) docsFor(file ids.FileID) []*syntax.ParsedDocument {
	return c.Docs[file]
}

// findDocAndOffset picks the document among file's own whose block-local
// range contains the given editor position (spec.md §4.6 step 1-2): the
// block whose line_offset is less than or equal to pos.Line and whose
// source, once position_in_block is computed, round-trips to a byte
// offset within [0, len(source)].
func (c *Context) findDocAndOffset(file ids.FileID, pos syntax.Position) (*syntax.ParsedDocument, int, bool) {
	docs := c.docsFor(file)
	candidates := make([]*syntax.ParsedDocument, 0, len(docs))
	for _, doc := range docs {
		if doc.LineOffset <= pos.Line {
			candidates = append(candidates, doc)
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].LineOffset > candidates[j].LineOffset })

	for _, doc := range candidates {
		blockPos := syntax.Position{Line: pos.Line - doc.LineOffset, Character: pos.Character}
		if blockPos.Line < 0 {
			continue
		}
		if offset, ok := doc.LineIndex.PositionToOffset(blockPos); ok {
			return doc, offset, true
		}
	}
	return nil, 0, false
}

// rootTypeFor returns op's root type name.
func (c *Context) rootTypeFor(opType ast.Operation) string {
	switch opType {
	case ast.Mutation:
		return c.Roots.Mutation
	case ast.Subscription:
		return c.Roots.Subscription
	default:
		return c.Roots.Query
	}
}

// toLintProject adapts Context into lint.ProjectContext, for feature
// queries that need to re-run or reuse lint helpers (field-usage lookups,
// fragment-usage counts) rather than duplicate their logic.
func (c *Context) toLintProject() *lint.ProjectContext {
	return &lint.ProjectContext{
		Types:           c.Types,
		Implementers:    c.Implementers,
		Fragments:       c.Fragments,
		FragmentSpreads: c.FragmentSpreads,
		Operations:      c.Operations,
		SchemaFiles:     c.SchemaFiles,
		DocumentFiles:   c.DocumentFiles,
		Roots:           c.Roots,
	}
}
