package hir

import (
	"sort"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/kestrelgql/gqlintel/internal/ids"
	"github.com/kestrelgql/gqlintel/internal/syntax"
)

// OperationStructure is one entry of all_operations(project).
type OperationStructure struct {
	Name          string
	OperationType ast.Operation
	FileID        ids.FileID
	NameRange     syntax.ByteRange
	FullRange     syntax.ByteRange
	SelectionSet  ast.SelectionSet
	ByteOffset    int
	LineOffset    int
	LineIndex     *syntax.LineIndex
}

// RootTypeName returns the schema root type this operation targets,
// defaulting to "Query" for an unnamed/untyped operation, matching the
// parent-type walker's root-selection rule (spec.md §4.6).
func (o *OperationStructure) RootTypeName() string {
	switch o.OperationType {
	case ast.Mutation:
		return "Mutation"
	case ast.Subscription:
		return "Subscription"
	default:
		return "Query"
	}
}

// BuildAllOperations is all_operations(project): scan every document
// file's documents and collect operation definitions in file order.
func BuildAllOperations(files []DocumentFile) []*OperationStructure {
	sorted := make([]DocumentFile, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].FileID < sorted[j].FileID })

	var out []*OperationStructure
	for _, df := range sorted {
		for _, doc := range df.Docs {
			if doc.QueryDoc == nil {
				continue
			}
			for _, op := range doc.QueryDoc.Operations {
				nameStart := doc.ByteOffset + positionOffset(doc, op.Position)
				nameEnd := nameStart + len(op.Name)
				out = append(out, &OperationStructure{
					Name:          op.Name,
					OperationType: op.Operation,
					FileID:        df.FileID,
					NameRange:     syntax.ByteRange{Start: nameStart, End: nameEnd},
					FullRange:     offsetRange(doc, fullRangeFor(doc, nameStart-doc.ByteOffset)),
					SelectionSet:  op.SelectionSet,
					ByteOffset:    doc.ByteOffset,
					LineOffset:    doc.LineOffset,
					LineIndex:     doc.LineIndex,
				})
			}
		}
	}
	return out
}

// SelectionKind distinguishes the three selection variants without
// exposing gqlparser's ast.Selection interface to callers that only care
// about the selection shape (complexity analysis, folding ranges).
type SelectionKind int

const (
	SelectionField SelectionKind = iota
	SelectionFragmentSpread
	SelectionInlineFragment
)

// SelectionNode is the operation-body IR used by complexity analysis
// (spec.md §4.8): a flattened, typed view over ast.Selection that a
// walker can traverse without re-deriving selection kind by type switch
// at every level.
type SelectionNode struct {
	Kind          SelectionKind
	Name          string // field name, or spread/type-condition name
	Alias         string
	Children      []*SelectionNode
	IsList        bool // true if this field's declared type is a list (set by caller with schema context)
}

// OperationBody is operation_body(content, metadata, index): the
// selection-set IR for one operation, built from its OperationStructure
// and carrying the operation's name.
type OperationBody struct {
	Name string
	Root []*SelectionNode
}

// BuildOperationBody converts op's raw selection set into the flattened
// SelectionNode tree, leaving IsList false — schema-aware annotation
// happens in internal/lint's complexity analyzer, which has the merged
// SchemaType table in scope.
func BuildOperationBody(op *OperationStructure) *OperationBody {
	return &OperationBody{Name: op.Name, Root: convertSelectionSet(op.SelectionSet)}
}

func convertSelectionSet(sel ast.SelectionSet) []*SelectionNode {
	out := make([]*SelectionNode, 0, len(sel))
	for _, s := range sel {
		switch v := s.(type) {
		case *ast.Field:
			out = append(out, &SelectionNode{
				Kind:     SelectionField,
				Name:     v.Name,
				Alias:    v.Alias,
				Children: convertSelectionSet(v.SelectionSet),
			})
		case *ast.FragmentSpread:
			out = append(out, &SelectionNode{Kind: SelectionFragmentSpread, Name: v.Name})
		case *ast.InlineFragment:
			out = append(out, &SelectionNode{
				Kind:     SelectionInlineFragment,
				Name:     v.TypeCondition,
				Children: convertSelectionSet(v.SelectionSet),
			})
		}
	}
	return out
}
