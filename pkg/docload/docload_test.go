package docload_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelgql/gqlintel/pkg/analysis"
	"github.com/kestrelgql/gqlintel/pkg/config"
	"github.com/kestrelgql/gqlintel/pkg/docload"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadDiscoversGraphQLDocuments(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ops.graphql", "query GetUser { user { id } }")

	result, err := docload.Load(&config.Config{
		Documents: config.Documents{Include: []string{"*.graphql"}},
	}, dir)
	require.NoError(t, err)

	require.Len(t, result.Loaded, 1)
	assert.Equal(t, analysis.LanguageGraphQL, result.Loaded[0].Language)
	assert.Equal(t, analysis.DocumentKindExecutable, result.Loaded[0].Kind)
	assert.Empty(t, result.Errors)
}

func TestLoadClassifiesByExtension(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.ts", "const q = gql`query GetUser { user { id } }`;")
	writeFile(t, dir, "b.js", "const q = gql`query GetUser { user { id } }`;")
	writeFile(t, dir, "c.graphql", "query GetUser { user { id } }")

	result, err := docload.Load(&config.Config{
		Documents: config.Documents{Include: []string{"*.ts", "*.js", "*.graphql"}},
	}, dir)
	require.NoError(t, err)
	require.Len(t, result.Loaded, 3)
}

func TestLoadSkipsNodeModules(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "node_modules/pkg/ops.graphql", "query Q { a }")
	writeFile(t, dir, "ops.graphql", "query Q { a }")

	result, err := docload.Load(&config.Config{
		Documents: config.Documents{Include: []string{"**/*.graphql"}},
	}, dir)
	require.NoError(t, err)
	require.Len(t, result.Loaded, 1)
}

func TestLoadExpandsBracePatterns(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.ts", "const q = gql`query A { a }`;")
	writeFile(t, dir, "b.tsx", "const q = gql`query B { b }`;")

	result, err := docload.Load(&config.Config{
		Documents: config.Documents{Include: []string{"*.{ts,tsx}"}},
	}, dir)
	require.NoError(t, err)
	require.Len(t, result.Loaded, 2)
}

func TestLoadFlagsSchemaDefinitionsInDocumentSource(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ops.graphql", "type Query { id: ID! }")

	result, err := docload.Load(&config.Config{
		Documents: config.Documents{Include: []string{"*.graphql"}},
	}, dir)
	require.NoError(t, err)

	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].UnexpectedDefinitions, "Query")
}

func TestLoadRespectsExcludePatterns(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "keep.graphql", "query Q { a }")
	writeFile(t, dir, "skip.test.graphql", "query Q { a }")

	result, err := docload.Load(&config.Config{
		Documents: config.Documents{
			Include: []string{"*.graphql"},
			Exclude: []string{"*.test.graphql"},
		},
	}, dir)
	require.NoError(t, err)
	require.Len(t, result.Loaded, 1)
	assert.Contains(t, result.Loaded[0].URI, "keep.graphql")
}
