package hir

import (
	"sort"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

// BuildASTSchema assembles gqlparser's own merged *ast.Schema from every
// schema file's parsed source, exactly as the teacher's schema loaders
// invoke gqlparser.LoadSchema (internal/loader/universal.go). Unlike
// BuildSchemaTypes (this package's tolerant, first-wins HIR index used by
// completion/hover/goto-def), gqlparser.LoadSchema fails outright on a real
// schema conflict — callers use its result only for operation validation
// and for resolving default root type names, and fall back to "Query" /
// "Mutation" / "Subscription" when it errors.
func BuildASTSchema(files []SchemaFile) (*ast.Schema, gqlerror.List) {
	sorted := make([]SchemaFile, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].FileID < sorted[j].FileID })

	var sources []*ast.Source
	for _, sf := range sorted {
		for _, doc := range sf.Docs {
			if doc.SchemaDoc != nil && doc.Source != nil {
				sources = append(sources, doc.Source)
			}
		}
	}
	if len(sources) == 0 {
		return nil, nil
	}

	schema, err := gqlparser.LoadSchema(sources...)
	if err != nil {
		if gqlErr, ok := err.(*gqlerror.Error); ok {
			return nil, gqlerror.List{gqlErr}
		}
		return nil, gqlerror.List{gqlerror.Errorf("%s", err.Error())}
	}
	return schema, nil
}

// RootTypeNames resolves the Query/Mutation/Subscription root type names,
// defaulting to the conventional names when schema is nil (no schema files
// loaded yet, or gqlparser.LoadSchema failed) or when a root isn't declared.
func RootTypeNames(schema *ast.Schema) (query, mutation, subscription string) {
	query, mutation, subscription = "Query", "Mutation", "Subscription"
	if schema == nil {
		return
	}
	if schema.Query != nil {
		query = schema.Query.Name
	}
	if schema.Mutation != nil {
		mutation = schema.Mutation.Name
	}
	if schema.Subscription != nil {
		subscription = schema.Subscription.Name
	}
	return
}
