package lint

import (
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/kestrelgql/gqlintel/internal/hir"
)

// listMultiplier is the per-level cost multiplier a list field applies to
// its own subtree, matching spec.md §4.8's "multiply the subtree multiplier
// by a constant (10 by default)".
const listMultiplier = 10

// ConnectionWarning flags one Relay-style connection selected inside
// another connection's selection set.
type ConnectionWarning struct {
	OuterField string
	InnerField string
	Message    string
}

// ComplexityResult is complexity_analysis(operation) from spec.md §4.8.
type ComplexityResult struct {
	OperationName string
	TotalCost     int
	Connections   []ConnectionWarning
}

// isConnectionType reports whether t looks like a Relay connection: it
// declares pageInfo plus either edges or nodes, per spec.md §4.8.
func isConnectionType(t *hir.SchemaType) bool {
	if t == nil {
		return false
	}
	_, hasPageInfo := t.Fields["pageInfo"]
	if !hasPageInfo {
		return false
	}
	_, hasEdges := t.Fields["edges"]
	_, hasNodes := t.Fields["nodes"]
	return hasEdges || hasNodes
}

// AnalyzeComplexity walks op's HIR body (hir.BuildOperationBody), accruing a
// cost per field equal to the running multiplier and multiplying that
// multiplier by listMultiplier below each list field, and separately
// walks the raw selection set to flag a connection type nested inside
// another connection type's selection.
func AnalyzeComplexity(op *hir.OperationStructure, project *ProjectContext) ComplexityResult {
	rootType := project.Roots.Query
	switch op.OperationType {
	case ast.Mutation:
		rootType = project.Roots.Mutation
	case ast.Subscription:
		rootType = project.Roots.Subscription
	}

	result := ComplexityResult{OperationName: op.Name}
	if rootType == "" || op.SelectionSet == nil {
		return result
	}

	body := hir.BuildOperationBody(op)
	annotateListFields(body.Root, project.Types, rootType)

	var walkCost func(nodes []*hir.SelectionNode, multiplier int)
	walkCost = func(nodes []*hir.SelectionNode, multiplier int) {
		for _, n := range nodes {
			if n.Kind != hir.SelectionField {
				walkCost(n.Children, multiplier)
				continue
			}
			result.TotalCost += multiplier
			childMultiplier := multiplier
			if n.IsList {
				childMultiplier = multiplier * listMultiplier
			}
			walkCost(n.Children, childMultiplier)
		}
	}
	walkCost(body.Root, 1)

	walkConnections(op.SelectionSet, rootType, project.Types, 0, "", &result)
	return result
}

// annotateListFields sets IsList on every field node by consulting the
// schema's declared field type at that point in the tree, mirroring the
// annotation step operations.go's BuildOperationBody comment defers to this
// package.
func annotateListFields(nodes []*hir.SelectionNode, types map[string]*hir.SchemaType, parentType string) {
	for _, n := range nodes {
		switch n.Kind {
		case hir.SelectionField:
			fieldType, ok := fieldReturnType(types, parentType, n.Name)
			if !ok {
				continue
			}
			if f, exists := fieldDefOn(types, parentType, n.Name); exists {
				n.IsList = f.Type.ListOf != nil
			}
			annotateListFields(n.Children, types, fieldType)
		case hir.SelectionInlineFragment:
			annotateListFields(n.Children, types, n.Name)
		}
	}
}

// walkConnections recurses the raw selection set tracking connDepth, the
// number of connection-typed ancestors on the current path, and records a
// warning the first time a second connection type is nested under a
// previously-seen one.
func walkConnections(sel ast.SelectionSet, parentType string, types map[string]*hir.SchemaType, connDepth int, outerField string, result *ComplexityResult) {
	for _, s := range sel {
		switch v := s.(type) {
		case *ast.Field:
			if v.SelectionSet == nil {
				continue
			}
			fieldType, ok := fieldReturnType(types, parentType, v.Name)
			if !ok {
				continue
			}
			nextDepth := connDepth
			if isConnectionType(types[fieldType]) {
				if connDepth >= 1 {
					result.Connections = append(result.Connections, ConnectionWarning{
						OuterField: outerField,
						InnerField: v.Name,
						Message:    "Connection '" + v.Name + "' is nested inside connection '" + outerField + "'",
					})
				}
				nextDepth = connDepth + 1
				if outerField == "" {
					outerField = v.Name
				}
			}
			walkConnections(v.SelectionSet, fieldType, types, nextDepth, fieldNameOrOuter(nextDepth, connDepth, v.Name, outerField), result)
		case *ast.InlineFragment:
			inlineType := parentType
			if v.TypeCondition != "" {
				inlineType = v.TypeCondition
			}
			walkConnections(v.SelectionSet, inlineType, types, connDepth, outerField, result)
		}
	}
}

func fieldNameOrOuter(nextDepth, prevDepth int, fieldName, outerField string) string {
	if nextDepth > prevDepth {
		return fieldName
	}
	return outerField
}
