package analysis_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelgql/gqlintel/internal/extract"
	"github.com/kestrelgql/gqlintel/internal/registry"
	"github.com/kestrelgql/gqlintel/pkg/analysis"
)

// TestRequireIDFieldFixOffsetFidelityInEmbeddedBlock is spec.md §8's
// embedded-block offset fidelity property (S6): a lint fix produced inside
// a host-language file's embedded GraphQL block carries block-local byte
// offsets, and adding the block's own byte offset back must land the edit
// at the exact file-relative span the fix intends to change.
func TestRequireIDFieldFixOffsetFidelityInEmbeddedBlock(t *testing.T) {
	tsSource := "const Q = gql`\n  query GetUser {\n    user {\n      name\n    }\n  }\n`;\n"

	h := analysis.New()
	h.AddFile("schema.graphql", testSchema, analysis.LanguageGraphQL, analysis.DocumentKindSchema)
	h.AddFile("component.ts", tsSource, analysis.LanguageTypeScript, analysis.DocumentKindExecutable)

	snap := h.Snapshot()
	defer snap.Close()

	fileID, ok := snap.FileID("component.ts")
	require.True(t, ok)

	fixed := snap.LintDiagnosticsWithFixes(fileID)
	require.NotEmpty(t, fixed)

	var withFix *analysis.FixedDiagnostic
	for i := range fixed {
		if fixed[i].Fix != nil {
			withFix = &fixed[i]
			break
		}
	}
	require.NotNil(t, withFix, "expected require_id_field to report a fix")
	require.Len(t, withFix.Fix.Edits, 1)

	blocks, errs := extract.NewTaggedTemplateExtractor().Extract(tsSource, registry.LanguageTypeScript, extract.DefaultConfig())
	require.Empty(t, errs)
	require.Len(t, blocks, 1)
	blockOffset := blocks[0].ByteOffset

	edit := withFix.Fix.Edits[0]
	fileRelativeStart := edit.Range.Start + blockOffset

	before := tsSource[:fileRelativeStart]
	after := tsSource[fileRelativeStart:]
	assert.Contains(t, before, "user {")
	assert.Contains(t, after, "name")

	rebuilt := before + edit.NewText + after
	assert.Contains(t, rebuilt, "id\n      name")
}
