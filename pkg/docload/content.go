package docload

import (
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"

	"github.com/kestrelgql/gqlintel/internal/extract"
	"github.com/kestrelgql/gqlintel/internal/registry"
)

// schemaDefinitionsIn reports the type/interface/enum/input/union/scalar
// names found when content (expected to hold only operations and
// fragments) instead parses as a schema document — the document-source
// analogue of schemaload's executableDefinitionsIn, and like it a direct
// reimplementation over gqlparser rather than a port of
// original_source/crates/graphql-syntax's validate_content_matches_kind.
// For TS/JS sources the check runs over every embedded GraphQL block
// joined together, mirroring discover_document_files' own
// extract-before-validate order.
func schemaDefinitionsIn(content string, lang registry.Language) []string {
	text := content
	if lang != registry.LanguageGraphQL {
		extractor := extract.NewTaggedTemplateExtractor()
		blocks, _ := extractor.Extract(content, lang, extract.DefaultConfig())
		if len(blocks) == 0 {
			return nil
		}
		sources := make([]string, len(blocks))
		for i, b := range blocks {
			sources[i] = b.Source
		}
		text = strings.Join(sources, "\n")
	}

	src := &ast.Source{Input: text}
	doc, err := parser.ParseSchema(src)
	if err != nil || doc == nil {
		return nil
	}

	var names []string
	for _, d := range doc.Definitions {
		names = append(names, d.Name)
	}
	for _, d := range doc.Extensions {
		names = append(names, d.Name)
	}
	return names
}
