package analysis_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelgql/gqlintel/pkg/analysis"
)

const testSchema = `
type Query {
  user(id: ID!): User
}

type User {
  id: ID!
  name: String!
  email: String @deprecated(reason: "use contactEmail")
  contactEmail: String
}
`

const testQuery = `
query GetUser($id: ID!) {
  user(id: $id) {
    id
    name
    email
  }
}
`

func TestNewHostPreregistersApolloBuiltins(t *testing.T) {
	h := analysis.New()
	assert.True(t, h.ContainsFile("apollo_client_builtins.graphql"))

	snap := h.Snapshot()
	defer snap.Close()
	status := snap.ProjectStatus()
	assert.Equal(t, 1, status.SchemaFileCount)
	assert.True(t, status.HasSchema)
}

func TestAddFileThenSnapshotSeesIt(t *testing.T) {
	h := analysis.New()
	isNew := h.AddFile("schema.graphql", testSchema, analysis.LanguageGraphQL, analysis.DocumentKindSchema)
	assert.True(t, isNew)

	snap := h.Snapshot()
	defer snap.Close()

	stats := snap.SchemaStats()
	assert.Equal(t, 2, stats.TypeCounts["Object"]) // Query, User
}

func TestDiagnosticsAndComplexityOverAnOperation(t *testing.T) {
	h := analysis.New()
	h.AddFile("schema.graphql", testSchema, analysis.LanguageGraphQL, analysis.DocumentKindSchema)
	h.AddFile("query.graphql", testQuery, analysis.LanguageGraphQL, analysis.DocumentKindExecutable)

	snap := h.Snapshot()
	defer snap.Close()

	fileID, ok := snap.FileID("query.graphql")
	require.True(t, ok)

	diags := snap.AllDiagnosticsForFile(fileID)
	assert.Empty(t, diags)

	result, ok := snap.ComplexityAnalysis("GetUser")
	require.True(t, ok)
	assert.Equal(t, "GetUser", result.OperationName)
	assert.Greater(t, result.TotalCost, 0)

	usage := snap.FieldUsage("User", "email")
	require.NotNil(t, usage)
	assert.Equal(t, 1, usage.Count)

	// Deprecated-field lenses sit on the field definition, in the schema file.
	schemaFileID, ok := snap.FileID("schema.graphql")
	require.True(t, ok)
	lenses := snap.DeprecatedFieldCodeLenses(schemaFileID)
	require.Len(t, lenses, 1)
	assert.Contains(t, lenses[0].Title, "deprecated,")
}

func TestUpdateFileAndSnapshotRebuildsOnEachCall(t *testing.T) {
	h := analysis.New()
	h.AddFile("schema.graphql", testSchema, analysis.LanguageGraphQL, analysis.DocumentKindSchema)

	_, first := h.UpdateFileAndSnapshot("query.graphql", testQuery, analysis.LanguageGraphQL, analysis.DocumentKindExecutable)
	firstStatus := first.ProjectStatus()
	first.Close()

	_, second := h.UpdateFileAndSnapshot("query.graphql", testQuery+"\n", analysis.LanguageGraphQL, analysis.DocumentKindExecutable)
	defer second.Close()
	secondStatus := second.ProjectStatus()

	assert.Equal(t, firstStatus.DocumentFileCount, secondStatus.DocumentFileCount)
}

// TestLiveSnapshotBlocksMutation demonstrates, at the pkg/analysis level,
// the same programmer-error hang internal/db documents: holding a
// *Analysis open across a subsequent AddFile call blocks that call for as
// long as the snapshot stays open, rather than failing fast. Callers must
// Close an Analysis before mutating its owning AnalysisHost again.
func TestLiveSnapshotBlocksMutation(t *testing.T) {
	h := analysis.New()

	snap := h.Snapshot()

	addDone := make(chan struct{})
	go func() {
		h.AddFile("schema.graphql", testSchema, analysis.LanguageGraphQL, analysis.DocumentKindSchema)
		close(addDone)
	}()

	select {
	case <-addDone:
		t.Fatal("AddFile returned while an Analysis snapshot was still open; expected it to block")
	case <-time.After(50 * time.Millisecond):
		// expected: AddFile's RebuildProjectFiles is blocked behind the
		// still-open read lock.
	}

	snap.Close()

	select {
	case <-addDone:
		// expected: closing the snapshot unblocks the mutation.
	case <-time.After(time.Second):
		t.Fatal("AddFile did not unblock after Analysis.Close")
	}
}

func TestRemoveFileAndFieldCoverage(t *testing.T) {
	h := analysis.New()
	h.AddFile("schema.graphql", testSchema, analysis.LanguageGraphQL, analysis.DocumentKindSchema)
	h.AddFile("query.graphql", testQuery, analysis.LanguageGraphQL, analysis.DocumentKindExecutable)

	snap := h.Snapshot()
	cov := snap.FieldCoverage()
	snap.Close()

	assert.Greater(t, cov.TotalFields, 0)
	assert.Contains(t, cov.UnusedFields, analysis.FieldRef{Type: "User", Field: "contactEmail"})

	removed := h.RemoveFile("query.graphql")
	assert.True(t, removed)

	snap2 := h.Snapshot()
	defer snap2.Close()
	assert.Equal(t, 0, snap2.ProjectStatus().DocumentFileCount)
}

func TestAddIntrospectedSchemaIsIdempotentPerURL(t *testing.T) {
	h := analysis.New()
	first := h.AddIntrospectedSchema("https://api.example.com/graphql", testSchema)
	second := h.AddIntrospectedSchema("https://api.example.com/graphql", testSchema)
	assert.Equal(t, first, second)
	assert.True(t, h.ContainsFile(first))
}

func TestFragmentUsagesCountsTransitiveSpreads(t *testing.T) {
	h := analysis.New()
	h.AddFile("schema.graphql", testSchema, analysis.LanguageGraphQL, analysis.DocumentKindSchema)
	h.AddFile("fragments.graphql", `
fragment UserFields on User {
  id
  name
}
`, analysis.LanguageGraphQL, analysis.DocumentKindExecutable)
	h.AddFile("ops.graphql", `
query GetUser($id: ID!) {
  user(id: $id) {
    ...UserFields
  }
}
`, analysis.LanguageGraphQL, analysis.DocumentKindExecutable)

	snap := h.Snapshot()
	defer snap.Close()

	usages := snap.FragmentUsages()
	assert.Equal(t, 1, usages["UserFields"])

	opsFileID, ok := snap.FileID("ops.graphql")
	require.True(t, ok)
	assert.Empty(t, snap.Diagnostics(opsFileID), "cross-file fragment spread must not report Unknown fragment")
}
