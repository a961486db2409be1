package lint

import (
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/kestrelgql/gqlintel/internal/hir"
)

// FieldUsageKey identifies one (type, field) pair for usage counting.
type FieldUsageKey struct {
	Type  string
	Field string
}

// FieldUsageInfo is how many operations select a field, and which ones —
// the data behind hover's "Used in N operation(s)" line and the
// deprecated-field/field-usage code lenses (spec.md §4.7, §4.8).
type FieldUsageInfo struct {
	Count      int
	Operations []string
}

// BuildFieldUsageIndex walks every operation's selection set, following
// fragment spreads via project.Fragments, and counts how many distinct
// operations select each (type, field) pair. A field selected through an
// inline fragment or interface-typed parent is attributed to the concrete
// type named by the selection (the inline fragment's type condition, or the
// field's own declaring type when selected directly on an interface), not
// to every implementer — mirroring how a hover request on one type's field
// only ever asks about that type.
func BuildFieldUsageIndex(project *ProjectContext) map[FieldUsageKey]*FieldUsageInfo {
	out := map[FieldUsageKey]*FieldUsageInfo{}
	record := func(typeName, fieldName, opName string) {
		key := FieldUsageKey{Type: typeName, Field: fieldName}
		info, ok := out[key]
		if !ok {
			info = &FieldUsageInfo{}
			out[key] = info
		}
		info.Count++
		if opName != "" {
			info.Operations = append(info.Operations, opName)
		}
	}

	var walkFragmentSpread func(name string, visited map[string]bool, opName string)
	var walk func(sel ast.SelectionSet, parentType string, visited map[string]bool, opName string)

	walk = func(sel ast.SelectionSet, parentType string, visited map[string]bool, opName string) {
		for _, s := range sel {
			switch v := s.(type) {
			case *ast.Field:
				record(parentType, v.Name, opName)
				if v.SelectionSet != nil {
					if fieldType, ok := fieldReturnType(project.Types, parentType, v.Name); ok {
						walk(v.SelectionSet, fieldType, visited, opName)
					}
				}
			case *ast.FragmentSpread:
				walkFragmentSpread(v.Name, visited, opName)
			case *ast.InlineFragment:
				inlineType := parentType
				if v.TypeCondition != "" {
					inlineType = v.TypeCondition
				}
				walk(v.SelectionSet, inlineType, visited, opName)
			}
		}
	}

	walkFragmentSpread = func(name string, visited map[string]bool, opName string) {
		if visited[name] {
			return
		}
		visited[name] = true
		frag, ok := project.Fragments[name]
		if !ok {
			return
		}
		walk(frag.SelectionSet, frag.TypeCondition, visited, opName)
	}

	for _, op := range project.Operations {
		rootType := project.Roots.Query
		switch op.OperationType {
		case ast.Mutation:
			rootType = project.Roots.Mutation
		case ast.Subscription:
			rootType = project.Roots.Subscription
		}
		if rootType == "" || op.SelectionSet == nil {
			continue
		}
		walk(op.SelectionSet, rootType, map[string]bool{}, op.Name)
	}
	return out
}

// UsageFor reports the usage info for (typeName, fieldName), also matching
// usages recorded against any interface typeName implements — a field
// selected on the interface counts toward the concrete type's own usage
// too, since every implementer is guaranteed to expose that field.
func UsageFor(index map[FieldUsageKey]*FieldUsageInfo, implementers map[string][]string, typeName, fieldName string) *FieldUsageInfo {
	merged := &FieldUsageInfo{}
	found := false
	if info, ok := index[FieldUsageKey{Type: typeName, Field: fieldName}]; ok {
		merged.Count += info.Count
		merged.Operations = append(merged.Operations, info.Operations...)
		found = true
	}
	for iface := range implementers {
		if !hir.IsSubtypeOf(implementers, iface, typeName) {
			continue
		}
		if info, ok := index[FieldUsageKey{Type: iface, Field: fieldName}]; ok {
			merged.Count += info.Count
			merged.Operations = append(merged.Operations, info.Operations...)
			found = true
		}
	}
	if !found {
		return nil
	}
	return merged
}
