package hir

import (
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/kestrelgql/gqlintel/internal/ids"
	"github.com/kestrelgql/gqlintel/internal/syntax"
)

// OutlineField is one field entry in a type's outline, carrying its own
// byte range for document-symbol children (spec.md §4.7).
type OutlineField struct {
	Name      string
	NameRange syntax.ByteRange
}

// OutlineType is one schema type's outline entry: full-range is the whole
// `type X { ... }` block, used for document symbols.
type OutlineType struct {
	Name       string
	Kind       TypeKind
	NameRange  syntax.ByteRange
	FullRange  syntax.ByteRange
	Fields     []OutlineField
}

// OutlineOperation and OutlineFragment mirror OutlineType for executable
// documents.
type OutlineOperation struct {
	Name      string
	NameRange syntax.ByteRange
	FullRange syntax.ByteRange
}

type OutlineFragment struct {
	Name      string
	NameRange syntax.ByteRange
	FullRange syntax.ByteRange
}

// FileStructureData is file_structure(file_id, content, metadata): the
// per-file outline used by document symbols. Unlike schema_types/all_fragments/all_operations, this is
// scoped to one file and does not merge extensions or dedupe names across
// files.
type FileStructureData struct {
	FileID     ids.FileID
	Types      []OutlineType
	Operations []OutlineOperation
	Fragments  []OutlineFragment
}

// BuildFileStructure derives FileStructureData directly from one file's
// parsed documents (schema or executable — whichever is populated).
func BuildFileStructure(fileID ids.FileID, docs []*syntax.ParsedDocument) *FileStructureData {
	out := &FileStructureData{FileID: fileID}

	for _, doc := range docs {
		if doc.SchemaDoc != nil {
			allDefs := make([]*ast.Definition, 0, len(doc.SchemaDoc.Definitions)+len(doc.SchemaDoc.Extensions))
			allDefs = append(allDefs, doc.SchemaDoc.Definitions...)
			allDefs = append(allDefs, doc.SchemaDoc.Extensions...)
			for _, def := range allDefs {
				nameStart := doc.ByteOffset + positionOffset(doc, def.Position)
				fields := make([]OutlineField, 0, len(def.Fields))
				for _, fd := range def.Fields {
					fNameStart := doc.ByteOffset + positionOffset(doc, fd.Position)
					fields = append(fields, OutlineField{
						Name:      fd.Name,
						NameRange: syntax.ByteRange{Start: fNameStart, End: fNameStart + len(fd.Name)},
					})
				}
				out.Types = append(out.Types, OutlineType{
					Name:      def.Name,
					Kind:      kindFromAST(def.Kind),
					NameRange: syntax.ByteRange{Start: nameStart, End: nameStart + len(def.Name)},
					FullRange: offsetRange(doc, fullRangeFor(doc, nameStart-doc.ByteOffset)),
					Fields:    fields,
				})
			}
		}
		if doc.QueryDoc != nil {
			for _, op := range doc.QueryDoc.Operations {
				nameStart := doc.ByteOffset + positionOffset(doc, op.Position)
				out.Operations = append(out.Operations, OutlineOperation{
					Name:      op.Name,
					NameRange: syntax.ByteRange{Start: nameStart, End: nameStart + len(op.Name)},
					FullRange: offsetRange(doc, fullRangeFor(doc, nameStart-doc.ByteOffset)),
				})
			}
			for _, frag := range doc.QueryDoc.Fragments {
				nameStart := doc.ByteOffset + positionOffset(doc, frag.Position)
				out.Fragments = append(out.Fragments, OutlineFragment{
					Name:      frag.Name,
					NameRange: syntax.ByteRange{Start: nameStart, End: nameStart + len(frag.Name)},
					FullRange: offsetRange(doc, fullRangeFor(doc, nameStart-doc.ByteOffset)),
				})
			}
		}
	}

	return out
}
