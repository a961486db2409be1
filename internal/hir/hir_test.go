package hir_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelgql/gqlintel/internal/hir"
	"github.com/kestrelgql/gqlintel/internal/syntax"
)

func parseSchema(t *testing.T, fileID int, content string) *syntax.ParseResult {
	t.Helper()
	return syntax.Parse(syntax.ParseInput{
		FileID:   0,
		FileName: "schema.graphql",
		Content:  content,
		IsSchema: true,
	})
}

func parseDoc(t *testing.T, content string) *syntax.ParseResult {
	t.Helper()
	return syntax.Parse(syntax.ParseInput{
		FileID:   0,
		FileName: "doc.graphql",
		Content:  content,
		IsSchema: false,
	})
}

func TestBuildSchemaTypesMergesExtension(t *testing.T) {
	base := parseSchema(t, 1, "type User { id: ID! name: String }")
	ext := parseSchema(t, 2, "extend type User { email: String }")

	result := hir.BuildSchemaTypes([]hir.SchemaFile{
		{FileID: 1, Docs: base.Documents()},
		{FileID: 2, Docs: ext.Documents()},
	})

	user, ok := result.Types["User"]
	require.True(t, ok)
	assert.Contains(t, user.Fields, "id")
	assert.Contains(t, user.Fields, "name")
	assert.Contains(t, user.Fields, "email")
	assert.False(t, user.IsVirtual)
	assert.Empty(t, result.Conflicts)
}

func TestBuildSchemaTypesExtensionMergesRegardlessOfFileOrder(t *testing.T) {
	ext := parseSchema(t, 1, "extend type User { email: String }")
	base := parseSchema(t, 2, "type User { id: ID! }")

	// BuildSchemaTypes always processes every base definition across all
	// files before applying any extension, so the extension's file id
	// being lower than the base's doesn't matter.
	result := hir.BuildSchemaTypes([]hir.SchemaFile{
		{FileID: 1, Docs: ext.Documents()},
		{FileID: 2, Docs: base.Documents()},
	})

	user, ok := result.Types["User"]
	require.True(t, ok)
	assert.False(t, user.IsVirtual)
	assert.Contains(t, user.Fields, "id")
	assert.Contains(t, user.Fields, "email")
}

func TestBuildSchemaTypesExtensionWithNoBaseIsVirtual(t *testing.T) {
	ext := parseSchema(t, 1, "extend type Orphan { email: String }")

	result := hir.BuildSchemaTypes([]hir.SchemaFile{{FileID: 1, Docs: ext.Documents()}})

	orphan, ok := result.Types["Orphan"]
	require.True(t, ok)
	assert.True(t, orphan.IsVirtual)
	assert.Contains(t, orphan.Fields, "email")
}

func TestBuildSchemaTypesDuplicateBaseFirstWinsAndConflictRecorded(t *testing.T) {
	first := parseSchema(t, 1, "type User { id: ID! }")
	second := parseSchema(t, 2, "type User { id: String }")

	result := hir.BuildSchemaTypes([]hir.SchemaFile{
		{FileID: 1, Docs: first.Documents()},
		{FileID: 2, Docs: second.Documents()},
	})

	user := result.Types["User"]
	require.NotNil(t, user)
	assert.Equal(t, "ID!", user.Fields["id"].Type.String())
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, "field", result.Conflicts[0].Category)
}

func TestBuildSchemaTypesKindMismatchConflict(t *testing.T) {
	obj := parseSchema(t, 1, "type Thing { id: ID! }")
	iface := parseSchema(t, 2, "interface Thing { id: ID! }")

	result := hir.BuildSchemaTypes([]hir.SchemaFile{
		{FileID: 1, Docs: obj.Documents()},
		{FileID: 2, Docs: iface.Documents()},
	})

	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, "kind", result.Conflicts[0].Category)
	assert.Equal(t, hir.KindObject, result.Types["Thing"].Kind)
}

func TestBuildAllFragmentsAndSpreadsIndex(t *testing.T) {
	doc := parseDoc(t, `
fragment UserFields on User { id name }
query GetUser { user { ...UserFields } }
`)

	fragments := hir.BuildAllFragments([]hir.DocumentFile{{FileID: 5, Docs: doc.Documents()}})
	require.Contains(t, fragments, "UserFields")
	assert.Equal(t, "User", fragments["UserFields"].TypeCondition)

	spreads := hir.BuildFragmentSpreadsIndex([]hir.DocumentFile{{FileID: 5, Docs: doc.Documents()}})
	require.Contains(t, spreads, "operation:GetUser")
	assert.True(t, spreads["operation:GetUser"]["UserFields"])
}

func TestBuildImplementersIndex(t *testing.T) {
	schema := parseSchema(t, 1, `
interface Node { id: ID! }
type User implements Node { id: ID! name: String }
type Post implements Node { id: ID! title: String }
`)
	result := hir.BuildSchemaTypes([]hir.SchemaFile{{FileID: 1, Docs: schema.Documents()}})
	implementers := hir.BuildImplementers(result.Types)

	assert.ElementsMatch(t, []string{"Post", "User"}, implementers["Node"])
	assert.True(t, hir.IsSubtypeOf(implementers, "Node", "User"))
	assert.False(t, hir.IsSubtypeOf(implementers, "Node", "Widget"))
}

func TestBuildAllOperationsRootTypeDefault(t *testing.T) {
	doc := parseDoc(t, "{ ping }")
	ops := hir.BuildAllOperations([]hir.DocumentFile{{FileID: 1, Docs: doc.Documents()}})
	require.Len(t, ops, 1)
	assert.Equal(t, "Query", ops[0].RootTypeName())
}

func TestBuildOperationBodyFlattensSelections(t *testing.T) {
	doc := parseDoc(t, "query Q { user { id ... on Admin { level } ...Frag } }")
	ops := hir.BuildAllOperations([]hir.DocumentFile{{FileID: 1, Docs: doc.Documents()}})
	require.Len(t, ops, 1)

	body := hir.BuildOperationBody(ops[0])
	require.Len(t, body.Root, 1)
	userField := body.Root[0]
	assert.Equal(t, "user", userField.Name)
	require.Len(t, userField.Children, 3)
	assert.Equal(t, hir.SelectionField, userField.Children[0].Kind)
	assert.Equal(t, hir.SelectionInlineFragment, userField.Children[1].Kind)
	assert.Equal(t, hir.SelectionFragmentSpread, userField.Children[2].Kind)
}
