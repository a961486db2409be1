package extract_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelgql/gqlintel/internal/extract"
	"github.com/kestrelgql/gqlintel/internal/registry"
)

func TestExtractTaggedTemplateLiteral(t *testing.T) {
	src := "const Q = gql`\n  query Ping { ping }\n`;\n"
	ex := extract.NewTaggedTemplateExtractor()

	blocks, errs := ex.Extract(src, registry.LanguageTypeScript, extract.DefaultConfig())
	require.Empty(t, errs)
	require.Len(t, blocks, 1)
	assert.Contains(t, blocks[0].Source, "query Ping { ping }")
	// The block's content begins right after the backtick, on line 0; its
	// leading newline is part of the block source.
	assert.Equal(t, 0, blocks[0].LineOffset)
}

func TestExtractMultipleTemplates(t *testing.T) {
	src := "const A = gql`query A { a }`;\nconst B = graphql`query B { b }`;\n"
	ex := extract.NewTaggedTemplateExtractor()

	blocks, errs := ex.Extract(src, registry.LanguageTypeScript, extract.DefaultConfig())
	require.Empty(t, errs)
	require.Len(t, blocks, 2)
	assert.Contains(t, blocks[0].Source, "query A")
	assert.Contains(t, blocks[1].Source, "query B")
}

func TestExtractIgnoresUntaggedTemplate(t *testing.T) {
	src := "const notGql = `just a string`;\n"
	ex := extract.NewTaggedTemplateExtractor()

	blocks, errs := ex.Extract(src, registry.LanguageTypeScript, extract.DefaultConfig())
	assert.Empty(t, errs)
	assert.Empty(t, blocks)
}

func TestExtractBlockCommentMarker(t *testing.T) {
	src := "const Q = /* GraphQL */ `query Ping { ping }`;\n"
	ex := extract.NewTaggedTemplateExtractor()

	blocks, errs := ex.Extract(src, registry.LanguageTypeScript, extract.DefaultConfig())
	require.Empty(t, errs)
	require.Len(t, blocks, 1)
	assert.Contains(t, blocks[0].Source, "query Ping")
}

func TestExtractHandlesInterpolation(t *testing.T) {
	src := "const Q = gql`query { field(x: ${1}) }`;\n"
	ex := extract.NewTaggedTemplateExtractor()

	blocks, errs := ex.Extract(src, registry.LanguageTypeScript, extract.DefaultConfig())
	require.Empty(t, errs)
	require.Len(t, blocks, 1)
	assert.Contains(t, blocks[0].Source, "${1}")
}

func TestExtractUnterminatedTemplateReportsError(t *testing.T) {
	src := "const Q = gql`query Ping { ping }"
	ex := extract.NewTaggedTemplateExtractor()

	_, errs := ex.Extract(src, registry.LanguageTypeScript, extract.DefaultConfig())
	require.NotEmpty(t, errs)
}

func TestCanExtractOnlyHostLanguages(t *testing.T) {
	ex := extract.NewTaggedTemplateExtractor()
	assert.True(t, ex.CanExtract(registry.LanguageTypeScript))
	assert.True(t, ex.CanExtract(registry.LanguageJavaScript))
	assert.False(t, ex.CanExtract(registry.LanguageGraphQL))
}
