package hir

import (
	"sort"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/kestrelgql/gqlintel/internal/ids"
	"github.com/kestrelgql/gqlintel/internal/syntax"
)

// FragmentStructure is all_fragments(project)'s per-entry value.
type FragmentStructure struct {
	Name           string
	TypeCondition  string
	FileID         ids.FileID
	NameRange      syntax.ByteRange
	FullRange      syntax.ByteRange
	SelectionSet   ast.SelectionSet
	ByteOffset     int
	LineOffset     int
	LineIndex      *syntax.LineIndex
}

// DocumentFile pairs a file id with its parsed executable documents.
type DocumentFile struct {
	FileID ids.FileID
	Docs   []*syntax.ParsedDocument
}

// BuildAllFragments is all_fragments(project): scan every document file's
// documents and collect fragment definitions, first-seen wins on name
// collision (duplicate names are reported by the no_duplicate_fragment_name
// lint, not here).
func BuildAllFragments(files []DocumentFile) map[string]*FragmentStructure {
	sorted := make([]DocumentFile, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].FileID < sorted[j].FileID })

	out := make(map[string]*FragmentStructure)
	for _, df := range sorted {
		for _, doc := range df.Docs {
			if doc.QueryDoc == nil {
				continue
			}
			for _, frag := range doc.QueryDoc.Fragments {
				if _, exists := out[frag.Name]; exists {
					continue
				}
				nameStart := doc.ByteOffset + positionOffset(doc, frag.Position)
				out[frag.Name] = &FragmentStructure{
					Name:          frag.Name,
					TypeCondition: frag.TypeCondition,
					FileID:        df.FileID,
					NameRange:     syntax.ByteRange{Start: nameStart, End: nameStart + len(frag.Name)},
					FullRange:     offsetRange(doc, fullRangeFor(doc, nameStart-doc.ByteOffset)),
					SelectionSet:  frag.SelectionSet,
					ByteOffset:    doc.ByteOffset,
					LineOffset:    doc.LineOffset,
					LineIndex:     doc.LineIndex,
				}
			}
		}
	}
	return out
}

func offsetRange(doc *syntax.ParsedDocument, r syntax.ByteRange) syntax.ByteRange {
	return syntax.ByteRange{Start: doc.ByteOffset + r.Start, End: doc.ByteOffset + r.End}
}

// BuildAllFragmentDefinitions indexes every project fragment's raw
// *ast.FragmentDefinition by name, first-seen wins like BuildAllFragments.
// Unlike FragmentStructure, the raw node keeps its own document's Position,
// so it can be spliced into another document's QueryDocument for spec
// validation without losing error-location fidelity.
func BuildAllFragmentDefinitions(files []DocumentFile) map[string]*ast.FragmentDefinition {
	sorted := make([]DocumentFile, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].FileID < sorted[j].FileID })

	out := make(map[string]*ast.FragmentDefinition)
	for _, df := range sorted {
		for _, doc := range df.Docs {
			if doc.QueryDoc == nil {
				continue
			}
			for _, frag := range doc.QueryDoc.Fragments {
				if _, exists := out[frag.Name]; exists {
					continue
				}
				out[frag.Name] = frag
			}
		}
	}
	return out
}

// BuildFragmentSpreadsIndex is fragment_spreads_index(project): direct
// spreads only, keyed by the spreading fragment's name. Operations'
// top-level spreads are indexed under the synthesized key
// "operation:<name>" (or "operation:" for anonymous operations) so a
// single map serves both fragment-in-fragment and operation-in-fragment
// lookups; transitive closure is left to callers (spec.md §4.5).
func BuildFragmentSpreadsIndex(files []DocumentFile) map[string]map[string]bool {
	out := make(map[string]map[string]bool)
	for _, df := range files {
		for _, doc := range df.Docs {
			if doc.QueryDoc == nil {
				continue
			}
			for _, frag := range doc.QueryDoc.Fragments {
				addSpreads(out, frag.Name, frag.SelectionSet)
			}
			for _, op := range doc.QueryDoc.Operations {
				addSpreads(out, operationKey(op.Name), op.SelectionSet)
			}
		}
	}
	return out
}

func operationKey(name string) string {
	return "operation:" + name
}

func addSpreads(index map[string]map[string]bool, owner string, sel ast.SelectionSet) {
	for _, s := range sel {
		switch v := s.(type) {
		case *ast.FragmentSpread:
			if index[owner] == nil {
				index[owner] = make(map[string]bool)
			}
			index[owner][v.Name] = true
		case *ast.InlineFragment:
			addSpreads(index, owner, v.SelectionSet)
		case *ast.Field:
			if v.SelectionSet != nil {
				addSpreads(index, owner, v.SelectionSet)
			}
		}
	}
}
