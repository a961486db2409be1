package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelgql/gqlintel/internal/db"
	"github.com/kestrelgql/gqlintel/internal/registry"
)

func TestAddFileAllocatesIDOnce(t *testing.T) {
	storage := db.NewStorage()
	reg := registry.NewFileRegistry(storage)

	res1 := reg.AddFile("file:///a.graphql", "type Query { id: ID }", registry.LanguageGraphQL, registry.DocumentKindSchema)
	assert.True(t, res1.IsNew)

	res2 := reg.AddFile("file:///a.graphql", "type Query { id: ID! }", registry.LanguageGraphQL, registry.DocumentKindSchema)
	assert.False(t, res2.IsNew)
	assert.Equal(t, res1.FileID, res2.FileID, "re-adding the same uri must preserve the file id")
}

func TestAddFilesBatchRebuildsOnceWhenAnyNew(t *testing.T) {
	storage := db.NewStorage()
	reg := registry.NewFileRegistry(storage)

	results := reg.AddFilesBatch([]registry.BatchEntry{
		{URI: "file:///schema.graphql", Content: "type Query { ping: Boolean }", Language: registry.LanguageGraphQL, Kind: registry.DocumentKindSchema},
		{URI: "file:///query.graphql", Content: "query { ping }", Language: registry.LanguageGraphQL, Kind: registry.DocumentKindExecutable},
	})
	require.Len(t, results, 2)

	pf := reg.ProjectFiles()
	require.NotNil(t, pf)
	assert.Len(t, pf.SchemaFiles, 1)
	assert.Len(t, pf.DocumentFiles, 1)
}

func TestProjectFilesPartitionIsDisjoint(t *testing.T) {
	storage := db.NewStorage()
	reg := registry.NewFileRegistry(storage)

	reg.AddFilesBatch([]registry.BatchEntry{
		{URI: "file:///schema.graphql", Content: "type Query { ping: Boolean }", Language: registry.LanguageGraphQL, Kind: registry.DocumentKindSchema},
		{URI: "file:///a.graphql", Content: "query { ping }", Language: registry.LanguageGraphQL, Kind: registry.DocumentKindExecutable},
		{URI: "file:///b.graphql", Content: "query { ping }", Language: registry.LanguageGraphQL, Kind: registry.DocumentKindExecutable},
	})

	pf := reg.ProjectFiles()
	seen := make(map[int]bool)
	for _, id := range pf.SchemaFiles {
		seen[int(id)] = true
	}
	for _, id := range pf.DocumentFiles {
		assert.False(t, seen[int(id)], "schema and document file sets must be disjoint")
	}
}

func TestRebuildProjectFilesNotCalledOnNoNewFiles(t *testing.T) {
	storage := db.NewStorage()
	reg := registry.NewFileRegistry(storage)

	reg.AddFilesBatch([]registry.BatchEntry{
		{URI: "file:///a.graphql", Content: "query { ping }", Language: registry.LanguageGraphQL, Kind: registry.DocumentKindExecutable},
	})
	firstRev := reg.ProjectFilesRevision()

	// Re-adding the same uri (no new files) must not trigger another rebuild.
	reg.AddFilesBatch([]registry.BatchEntry{
		{URI: "file:///a.graphql", Content: "query { ping, __typename }", Language: registry.LanguageGraphQL, Kind: registry.DocumentKindExecutable},
	})
	assert.Equal(t, firstRev, reg.ProjectFilesRevision())
}

func TestGetContentMetadataPath(t *testing.T) {
	storage := db.NewStorage()
	reg := registry.NewFileRegistry(storage)

	res := reg.AddFile("file:///a.graphql", "query { ping }", registry.LanguageGraphQL, registry.DocumentKindExecutable)

	content, ok := reg.GetContent(res.FileID)
	require.True(t, ok)
	assert.Equal(t, "query { ping }", content.Text())

	md, ok := reg.GetMetadata(res.FileID)
	require.True(t, ok)
	assert.Equal(t, registry.DocumentKindExecutable, md.Kind)

	uri, ok := reg.GetPath(res.FileID)
	require.True(t, ok)
	assert.Equal(t, registry.FileUri("file:///a.graphql"), uri)
}

func TestRemoveFile(t *testing.T) {
	storage := db.NewStorage()
	reg := registry.NewFileRegistry(storage)

	res := reg.AddFile("file:///a.graphql", "query { ping }", registry.LanguageGraphQL, registry.DocumentKindExecutable)
	reg.RebuildProjectFiles()

	id, ok := reg.RemoveFile("file:///a.graphql")
	require.True(t, ok)
	assert.Equal(t, res.FileID, id)

	_, ok = reg.GetContent(res.FileID)
	assert.False(t, ok)
}

func TestKindWinsOverLanguageForDocumentKind(t *testing.T) {
	storage := db.NewStorage()
	reg := registry.NewFileRegistry(storage)

	// A virtual introspection URI has no extension to infer Language from,
	// but the caller still asserts DocumentKindSchema explicitly; Kind must
	// be honored regardless of what Language says.
	res := reg.AddFile("schema://example.com/schema.graphql", "type Query { ping: Boolean }", registry.LanguageTypeScript, registry.DocumentKindSchema)
	md, ok := reg.GetMetadata(res.FileID)
	require.True(t, ok)
	assert.Equal(t, registry.DocumentKindSchema, md.Kind)
	assert.Equal(t, registry.LanguageTypeScript, md.Language)
}
