package schemaload_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelgql/gqlintel/pkg/analysis"
	"github.com/kestrelgql/gqlintel/pkg/config"
	"github.com/kestrelgql/gqlintel/pkg/schemaload"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadReadsLocalFileSources(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "schema.graphql", "type Query { user: User }\ntype User { id: ID! }\n")

	host := analysis.New()
	result, err := schemaload.Load(host, &config.Config{
		Schema: []config.SchemaSource{{Type: "file", Path: "schema.graphql"}},
	}, dir)
	require.NoError(t, err)

	assert.Equal(t, 2, result.LoadedCount) // apollo builtins + schema.graphql
	assert.Len(t, result.LoadedPaths, 1)
	assert.Empty(t, result.PendingIntrospections)
	assert.Empty(t, result.ContentErrors)

	snap := host.Snapshot()
	defer snap.Close()
	assert.True(t, snap.ProjectStatus().HasSchema)
}

func TestLoadGlobExpandsMultipleSchemaFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.graphql", "type Query { ping: Boolean }")
	writeFile(t, dir, "extra.graphql", "type Extra { id: ID! }")

	host := analysis.New()
	result, err := schemaload.Load(host, &config.Config{
		Schema: []config.SchemaSource{{Type: "file", Path: "*.graphql"}},
	}, dir)
	require.NoError(t, err)

	assert.Equal(t, 3, result.LoadedCount)
	assert.Len(t, result.LoadedPaths, 2)
}

func TestLoadCollectsURLAndIntrospectionAsPending(t *testing.T) {
	host := analysis.New()
	result, err := schemaload.Load(host, &config.Config{
		Schema: []config.SchemaSource{
			{Type: "url", URL: "https://api.example.com/schema"},
			{Type: "introspection", URL: "https://api.example.com/graphql"},
		},
	}, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 1, result.LoadedCount) // only the builtins
	require.Len(t, result.PendingIntrospections, 2)
	assert.Equal(t, "url", result.PendingIntrospections[0].Mode)
	assert.Equal(t, "introspection", result.PendingIntrospections[1].Mode)
}

func TestLoadFlagsExecutableDefinitionsInSchemaSource(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "schema.graphql", "query GetUser { user { id } }\n")

	host := analysis.New()
	result, err := schemaload.Load(host, &config.Config{
		Schema: []config.SchemaSource{{Type: "file", Path: "schema.graphql"}},
	}, dir)
	require.NoError(t, err)

	require.Len(t, result.ContentErrors, 1)
	assert.Contains(t, result.ContentErrors[0].UnexpectedDefinitions, "GetUser")
}

func TestLoadExtractsEmbeddedSchemaFromTypeScriptFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "schema.ts", "export const schema = gql`\n  type Query { ping: Boolean }\n`;\n")

	host := analysis.New()
	result, err := schemaload.Load(host, &config.Config{
		Schema: []config.SchemaSource{{Type: "file", Path: "schema.ts"}},
	}, dir)
	require.NoError(t, err)

	assert.Equal(t, 2, result.LoadedCount)
	assert.Len(t, result.LoadedPaths, 1)

	snap := host.Snapshot()
	defer snap.Close()
	assert.True(t, snap.ProjectStatus().HasSchema)
}

func TestLoadRejectsUnsupportedSourceType(t *testing.T) {
	host := analysis.New()
	_, err := schemaload.Load(host, &config.Config{
		Schema: []config.SchemaSource{{Type: "bogus"}},
	}, t.TempDir())
	assert.Error(t, err)
}
