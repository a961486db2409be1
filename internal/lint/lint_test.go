package lint_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelgql/gqlintel/internal/hir"
	"github.com/kestrelgql/gqlintel/internal/ids"
	"github.com/kestrelgql/gqlintel/internal/lint"
	"github.com/kestrelgql/gqlintel/internal/syntax"
)

func parseSchema(t *testing.T, fileID ids.FileID, content string) []*syntax.ParsedDocument {
	t.Helper()
	return syntax.Parse(syntax.ParseInput{FileID: fileID, FileName: "schema.graphql", Content: content, IsSchema: true}).Documents()
}

func parseDoc(t *testing.T, fileID ids.FileID, content string) []*syntax.ParsedDocument {
	t.Helper()
	return syntax.Parse(syntax.ParseInput{FileID: fileID, FileName: "doc.graphql", Content: content, IsSchema: false}).Documents()
}

// buildProject assembles a lint.ProjectContext the same way pkg/analysis
// will: run every hir.Build* index over the given schema/document files.
func buildProject(t *testing.T, schemaFiles []hir.SchemaFile, docFiles []hir.DocumentFile) *lint.ProjectContext {
	t.Helper()
	typesResult := hir.BuildSchemaTypes(schemaFiles)
	astSchema, _ := hir.BuildASTSchema(schemaFiles)
	query, mutation, subscription := hir.RootTypeNames(astSchema)

	return &lint.ProjectContext{
		Types:           typesResult.Types,
		Implementers:    hir.BuildImplementers(typesResult.Types),
		Fragments:       hir.BuildAllFragments(docFiles),
		FragmentSpreads: hir.BuildFragmentSpreadsIndex(docFiles),
		Operations:      hir.BuildAllOperations(docFiles),
		SchemaFiles:     schemaFiles,
		DocumentFiles:   docFiles,
		Roots:           lint.RootTypes{Query: query, Mutation: mutation, Subscription: subscription},
		Conflicts:       typesResult.Conflicts,
	}
}

const petSchema = `
type Query { pet: Pet }
type Pet { id: ID! name: String owner: Person }
type Person { id: ID! pets: [Pet!]! }
`

func TestRequireIDFieldFlagsMissingID(t *testing.T) {
	schema := parseSchema(t, 1, petSchema)
	docs := parseDoc(t, 2, `query GetPet { pet { name } }`)

	project := buildProject(t,
		[]hir.SchemaFile{{FileID: 1, Docs: schema}},
		[]hir.DocumentFile{{FileID: 2, Docs: docs}},
	)

	rule := lint.RequireIDFieldRule{}
	diags := rule.CheckFile(2, docs, project, nil)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "'id'")
	assert.Contains(t, diags[0].Message, "Pet")
	require.NotNil(t, diags[0].Fix)
}

func TestRequireIDFieldPassesWhenIDSelected(t *testing.T) {
	schema := parseSchema(t, 1, petSchema)
	docs := parseDoc(t, 2, `query GetPet { pet { id name } }`)

	project := buildProject(t,
		[]hir.SchemaFile{{FileID: 1, Docs: schema}},
		[]hir.DocumentFile{{FileID: 2, Docs: docs}},
	)

	rule := lint.RequireIDFieldRule{}
	diags := rule.CheckFile(2, docs, project, nil)
	assert.Empty(t, diags)
}

func TestRequireIDFieldViaFragmentSpread(t *testing.T) {
	schema := parseSchema(t, 1, petSchema)
	docs := parseDoc(t, 2, `
		fragment PetFields on Pet { id name }
		query GetPet { pet { ...PetFields } }
	`)

	project := buildProject(t,
		[]hir.SchemaFile{{FileID: 1, Docs: schema}},
		[]hir.DocumentFile{{FileID: 2, Docs: docs}},
	)

	rule := lint.RequireIDFieldRule{}
	diags := rule.CheckFile(2, docs, project, nil)
	assert.Empty(t, diags)
}

func TestRequireIDFieldSiblingSpreadsBothChecked(t *testing.T) {
	// Regression for the original's issue #376/#446: the same fragment spread
	// from two sibling selections must be checked for the id field each time,
	// not silently skipped the second time because it was "already visited".
	// Expected: one diagnostic per sibling spread, plus one on the NameOnly
	// fragment definition itself, whose own selection set lacks id.
	schema := parseSchema(t, 1, petSchema)
	docs := parseDoc(t, 2, `
		fragment NameOnly on Pet { name }
		query GetPets { pet { ...NameOnly } owner: pet { ...NameOnly } }
	`)

	project := buildProject(t,
		[]hir.SchemaFile{{FileID: 1, Docs: schema}},
		[]hir.DocumentFile{{FileID: 2, Docs: docs}},
	)

	rule := lint.RequireIDFieldRule{}
	diags := rule.CheckFile(2, docs, project, nil)
	assert.Len(t, diags, 3)
}

func TestNoDuplicateFragmentNameFlagsSecondDefinition(t *testing.T) {
	schema := parseSchema(t, 1, petSchema)
	docs := parseDoc(t, 2, `
		fragment PetFields on Pet { id }
		fragment PetFields on Pet { id name }
		query GetPet { pet { ...PetFields } }
	`)

	project := buildProject(t,
		[]hir.SchemaFile{{FileID: 1, Docs: schema}},
		[]hir.DocumentFile{{FileID: 2, Docs: docs}},
	)

	rule := lint.NoDuplicateFragmentNameRule{}
	diags := rule.CheckProject(project, nil)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "PetFields")
}

func TestNoDuplicateTypeNameFlagsSecondDefinition(t *testing.T) {
	schema := parseSchema(t, 1, `type Pet { id: ID! } type Pet { id: ID! name: String }`)

	project := buildProject(t,
		[]hir.SchemaFile{{FileID: 1, Docs: schema}},
		nil,
	)

	rule := lint.NoDuplicateTypeNameRule{}
	diags := rule.CheckProject(project, nil)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "Pet")
}

func TestNoUnusedFragmentFlagsUnreferencedFragment(t *testing.T) {
	schema := parseSchema(t, 1, petSchema)
	docs := parseDoc(t, 2, `
		fragment PetFields on Pet { id name }
		fragment Unused on Pet { id }
		query GetPet { pet { ...PetFields } }
	`)

	project := buildProject(t,
		[]hir.SchemaFile{{FileID: 1, Docs: schema}},
		[]hir.DocumentFile{{FileID: 2, Docs: docs}},
	)

	rule := lint.NoUnusedFragmentRule{}
	diags := rule.CheckProject(project, nil)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "Unused")
}

func TestNoUnusedFragmentAllowsTransitiveUsage(t *testing.T) {
	schema := parseSchema(t, 1, petSchema)
	docs := parseDoc(t, 2, `
		fragment IDOnly on Pet { id }
		fragment PetFields on Pet { ...IDOnly name }
		query GetPet { pet { ...PetFields } }
	`)

	project := buildProject(t,
		[]hir.SchemaFile{{FileID: 1, Docs: schema}},
		[]hir.DocumentFile{{FileID: 2, Docs: docs}},
	)

	rule := lint.NoUnusedFragmentRule{}
	diags := rule.CheckProject(project, nil)
	assert.Empty(t, diags)
}

func TestBuildFieldUsageIndexCountsDirectAndFragmentUsage(t *testing.T) {
	schema := parseSchema(t, 1, petSchema)
	docs := parseDoc(t, 2, `
		fragment PetName on Pet { name }
		query One { pet { name } }
		query Two { pet { ...PetName } }
	`)

	project := buildProject(t,
		[]hir.SchemaFile{{FileID: 1, Docs: schema}},
		[]hir.DocumentFile{{FileID: 2, Docs: docs}},
	)

	index := lint.BuildFieldUsageIndex(project)
	info, ok := index[lint.FieldUsageKey{Type: "Pet", Field: "name"}]
	require.True(t, ok)
	assert.Equal(t, 2, info.Count)
	assert.ElementsMatch(t, []string{"One", "Two"}, info.Operations)
}

const connectionSchema = `
type Query { posts: PostConnection }
type PostConnection { edges: [PostEdge!]! pageInfo: PageInfo! }
type PostEdge { node: Post }
type Post { id: ID! comments: CommentConnection }
type CommentConnection { nodes: [Comment!]! pageInfo: PageInfo! }
type Comment { id: ID! }
type PageInfo { hasNextPage: Boolean! }
`

func TestAnalyzeComplexityCostsListFields(t *testing.T) {
	schema := parseSchema(t, 1, connectionSchema)
	docs := parseDoc(t, 2, `query Posts { posts { edges { node { id } } } }`)

	project := buildProject(t,
		[]hir.SchemaFile{{FileID: 1, Docs: schema}},
		[]hir.DocumentFile{{FileID: 2, Docs: docs}},
	)

	op := project.Operations[0]
	result := lint.AnalyzeComplexity(op, project)
	// posts(1) + edges(1, contributes at the pre-multiplication rate; its
	// list-ness only inflates its *children's* multiplier) + node(10) + id(10)
	assert.Equal(t, 22, result.TotalCost)
}

func TestAnalyzeComplexityFlagsNestedConnection(t *testing.T) {
	schema := parseSchema(t, 1, connectionSchema)
	docs := parseDoc(t, 2, `
		query Posts {
			posts { edges { node { id comments { nodes { id } } } } }
		}
	`)

	project := buildProject(t,
		[]hir.SchemaFile{{FileID: 1, Docs: schema}},
		[]hir.DocumentFile{{FileID: 2, Docs: docs}},
	)

	op := project.Operations[0]
	result := lint.AnalyzeComplexity(op, project)
	require.Len(t, result.Connections, 1)
	assert.Equal(t, "posts", result.Connections[0].OuterField)
	assert.Equal(t, "comments", result.Connections[0].InnerField)
}
