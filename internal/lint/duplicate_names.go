package lint

import (
	"encoding/json"
	"sort"

	"github.com/kestrelgql/gqlintel/internal/hir"
	"github.com/kestrelgql/gqlintel/internal/syntax"
)

// NoDuplicateFragmentNameRule flags every fragment definition beyond the
// first with a given name, project-wide — grounded on pkg/schema/merger.go's
// conflict-detection shape (first occurrence wins, later ones are flagged)
// repurposed from cross-source schema merging to fragment names.
type NoDuplicateFragmentNameRule struct{}

func (NoDuplicateFragmentNameRule) Name() string { return "no_duplicate_fragment_name" }
func (NoDuplicateFragmentNameRule) Description() string {
	return "Flags fragment definitions that redeclare a name already used elsewhere in the project"
}
func (NoDuplicateFragmentNameRule) DefaultSeverity() Severity { return SeverityError }

func (NoDuplicateFragmentNameRule) CheckProject(project *ProjectContext, _ json.RawMessage) []Diagnostic {
	files := make([]hir.DocumentFile, len(project.DocumentFiles))
	copy(files, project.DocumentFiles)
	sort.Slice(files, func(i, j int) bool { return files[i].FileID < files[j].FileID })

	seen := map[string]bool{}
	var out []Diagnostic
	for _, df := range files {
		for _, doc := range df.Docs {
			if doc.QueryDoc == nil {
				continue
			}
			var docDiags []Diagnostic
			for _, frag := range doc.QueryDoc.Fragments {
				if frag.Name == "" {
					continue
				}
				if seen[frag.Name] {
					start := syntax.PosOffset(doc, frag.Position)
					docDiags = append(docDiags, Diagnostic{
						FileID:  df.FileID,
						Range:   syntax.ByteRange{Start: start, End: start + len(frag.Name)},
						Message: "Fragment '" + frag.Name + "' is already defined elsewhere in the project",
					})
					continue
				}
				seen[frag.Name] = true
			}
			out = append(out, withBlockContext(docDiags, doc)...)
		}
	}
	return out
}

// NoDuplicateTypeNameRule flags every base type definition (not an `extend
// type`) beyond the first declared for a given name, project-wide —
// independent of hir.BuildSchemaTypes's Conflicts (which only records
// *structural* mismatches between duplicates): even two byte-identical
// `type Foo { ... }` blocks in different files should be flagged here.
type NoDuplicateTypeNameRule struct{}

func (NoDuplicateTypeNameRule) Name() string { return "no_duplicate_type_name" }
func (NoDuplicateTypeNameRule) Description() string {
	return "Flags schema type definitions that redeclare a name already defined elsewhere in the project"
}
func (NoDuplicateTypeNameRule) DefaultSeverity() Severity { return SeverityError }

func (NoDuplicateTypeNameRule) CheckProject(project *ProjectContext, _ json.RawMessage) []Diagnostic {
	files := make([]hir.SchemaFile, len(project.SchemaFiles))
	copy(files, project.SchemaFiles)
	sort.Slice(files, func(i, j int) bool { return files[i].FileID < files[j].FileID })

	seen := map[string]bool{}
	var out []Diagnostic
	for _, sf := range files {
		for _, doc := range sf.Docs {
			if doc.SchemaDoc == nil {
				continue
			}
			var docDiags []Diagnostic
			for _, def := range doc.SchemaDoc.Definitions {
				if def.Name == "" {
					continue
				}
				if seen[def.Name] {
					start := syntax.PosOffset(doc, def.Position)
					docDiags = append(docDiags, Diagnostic{
						FileID:  sf.FileID,
						Range:   syntax.ByteRange{Start: start, End: start + len(def.Name)},
						Message: "Type '" + def.Name + "' is already defined elsewhere in the project",
					})
					continue
				}
				seen[def.Name] = true
			}
			out = append(out, withBlockContext(docDiags, doc)...)
		}
	}
	return out
}
