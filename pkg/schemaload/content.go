package schemaload

import (
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// executableDefinitionsIn reports the operation/fragment names found when
// content (expected to be a schema document) instead parses as an
// executable document — the schema-source analogue of
// original_source/crates/graphql-syntax's validate_content_matches_kind,
// reimplemented directly over gqlparser since internal/syntax exposes no
// such check (its Parse always commits to one kind up front).
func executableDefinitionsIn(content string) []string {
	src := &ast.Source{Input: content}
	doc, err := parser.ParseQuery(src)
	if err != nil || doc == nil {
		return nil
	}

	var names []string
	for _, op := range doc.Operations {
		name := op.Name
		if name == "" {
			name = string(op.Operation)
		}
		names = append(names, name)
	}
	for _, frag := range doc.Fragments {
		names = append(names, frag.Name)
	}
	return names
}
