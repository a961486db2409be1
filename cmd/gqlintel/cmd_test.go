package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProjectFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "schema.graphql"), []byte(
		"type Query { user(id: ID!): User }\ntype User { id: ID! name: String }\n",
	), 0o644))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "ops.graphql"), []byte(
		"query GetUser { user(id: \"1\") { id name } }\n",
	), 0o644))

	cfgPath := filepath.Join(dir, "gqlintel.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(
		"schema:\n  - type: file\n    path: schema.graphql\ndocuments:\n  include:\n    - \"*.graphql\"\n  exclude:\n    - \"schema.graphql\"\n",
	), 0o644))

	return cfgPath
}

func TestAnalyzeReportsLoadedProject(t *testing.T) {
	cfgPath := writeProjectFixture(t)
	prevCfg := cfgFile
	cfgFile = cfgPath
	t.Cleanup(func() { cfgFile = prevCfg })

	cmd := newAnalyzeCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(nil)
	require.NoError(t, cmd.Execute())

	var report analyzeReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.True(t, report.HasSchema)
	assert.Equal(t, 2, report.SchemaFileCount) // apollo builtins + schema.graphql
	assert.Equal(t, 1, report.DocumentFileCount)
	assert.Equal(t, 0, report.ContentErrorCount)
}

func TestDiagnosticsCoversEveryFile(t *testing.T) {
	cfgPath := writeProjectFixture(t)
	prevCfg := cfgFile
	cfgFile = cfgPath
	t.Cleanup(func() { cfgFile = prevCfg })

	cmd := newDiagnosticsCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(nil)
	require.NoError(t, cmd.Execute())

	var diags []jsonDiagnostic
	require.NoError(t, json.Unmarshal(out.Bytes(), &diags))
	for _, d := range diags {
		assert.NotEmpty(t, d.File)
	}
}

func TestLintRunsWithoutErrorOnCleanProject(t *testing.T) {
	cfgPath := writeProjectFixture(t)
	prevCfg := cfgFile
	cfgFile = cfgPath
	t.Cleanup(func() { cfgFile = prevCfg })

	cmd := newLintCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(nil)
	require.NoError(t, cmd.Execute())

	var diags []jsonDiagnostic
	require.NoError(t, json.Unmarshal(out.Bytes(), &diags))
}
