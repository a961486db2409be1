// Package analysis is the host API of spec.md §6: a mutable AnalysisHost
// that owns the file registry and query database, and an immutable,
// clone-cheap Analysis snapshot that every read-only query runs against.
// Grounded on the teacher's own top-level wiring (cmd/graphql-go-gen/main.go
// constructs loaders + registry once and reuses them across a run) and on
// original_source/crates/ide/src/lib.rs's AnalysisHost/Analysis split, which
// this package's Go shape mirrors behaviorally without importing its code.
package analysis

import (
	"fmt"
	"sync"

	"github.com/kestrelgql/gqlintel/internal/db"
	"github.com/kestrelgql/gqlintel/internal/extract"
	"github.com/kestrelgql/gqlintel/internal/lint"
	"github.com/kestrelgql/gqlintel/internal/registry"
)

// Uri re-exports the registry's file identifier so callers never need to
// import internal/registry directly.
type Uri = registry.FileUri

// Language re-exports the registry's host-language enum.
type Language = registry.Language

// DocumentKind re-exports the registry's schema/executable partition tag.
type DocumentKind = registry.DocumentKind

const (
	LanguageGraphQL    = registry.LanguageGraphQL
	LanguageTypeScript = registry.LanguageTypeScript
	LanguageJavaScript = registry.LanguageJavaScript

	DocumentKindSchema     = registry.DocumentKindSchema
	DocumentKindExecutable = registry.DocumentKindExecutable
)

// AnalysisHost is the mutable handle spec.md §6 describes: it owns the
// registry and its backing Storage, the extraction/lint configuration, and
// the set of introspected-schema virtual URIs registered so far. Every
// mutation is a method on *AnalysisHost; every read goes through a
// *Analysis obtained from Snapshot.
type AnalysisHost struct {
	storage  *db.Storage
	registry *registry.FileRegistry
	rules    *lint.Registry

	cfgMu      sync.Mutex
	lintCfg    lint.Config
	extractCfg extract.Config
	extractor  extract.Extractor

	introspectedMu sync.Mutex
	introspected   map[string]Uri // introspection URL -> virtual schema:// URI
}

// New returns an empty AnalysisHost with the Apollo Client built-in
// directive set pre-registered, matching
// original_source/crates/ide/src/lib.rs's AnalysisHost::new (which loads
// the builtins file eagerly rather than waiting for the first
// load_schemas_from_config call, so even a host that never touches config
// loading still validates @client/@connection/etc. correctly).
func New() *AnalysisHost {
	h := &AnalysisHost{
		storage:      db.NewStorage(),
		rules:        lint.DefaultRegistry(),
		lintCfg:      lint.Config{},
		extractCfg:   extract.DefaultConfig(),
		extractor:    extract.NewTaggedTemplateExtractor(),
		introspected: map[string]Uri{},
	}
	h.registry = registry.NewFileRegistry(h.storage)
	h.registry.AddFile(Uri(apolloClientBuiltinsURI), apolloClientBuiltinsSDL, LanguageGraphQL, DocumentKindSchema)
	h.registry.RebuildProjectFiles()
	return h
}

// AddFile registers uri with content, returning whether this uri is new to
// the registry. Callers batching many files should prefer AddFilesBatch —
// this rebuilds the project index on every call, trading throughput for
// simplicity on the single-file path.
func (h *AnalysisHost) AddFile(uri Uri, content string, language Language, kind DocumentKind) bool {
	res := h.registry.AddFile(uri, content, language, kind)
	h.registry.RebuildProjectFiles()
	return res.IsNew
}

// BatchEntry is one (uri, content, language, kind) tuple for AddFilesBatch.
type BatchEntry = registry.BatchEntry

// AddFilesBatch registers every entry and rebuilds the project index at
// most once, matching spec.md §6's add_files_batch.
func (h *AnalysisHost) AddFilesBatch(entries []BatchEntry) {
	h.registry.AddFilesBatch(entries)
}

// DiscoveredFile is one file a schema/document loader (pkg/schemaload,
// pkg/docload) already read off disk or fetched over the network.
type DiscoveredFile struct {
	URI      Uri
	Content  string
	Language Language
	Kind     DocumentKind
}

// AddDiscoveredFiles is add_discovered_files: the variant of AddFilesBatch
// taking pre-read file structs, used by the config-driven loading path.
func (h *AnalysisHost) AddDiscoveredFiles(discovered []DiscoveredFile) {
	entries := make([]BatchEntry, len(discovered))
	for i, d := range discovered {
		entries[i] = BatchEntry{URI: d.URI, Content: d.Content, Language: d.Language, Kind: d.Kind}
	}
	h.registry.AddFilesBatch(entries)
}

// RemoveFile drops uri from the registry and rebuilds the project index —
// remove_file is always a single-file operation in spec.md §6, so unlike
// AddFile/AddFilesBatch there is no batched variant to prefer.
func (h *AnalysisHost) RemoveFile(uri Uri) bool {
	_, ok := h.registry.RemoveFile(uri)
	if ok {
		h.registry.RebuildProjectFiles()
	}
	return ok
}

// RebuildProjectFiles forces a rebuild of the project file index even if no
// file was added or removed since the last rebuild — exposed directly for
// callers (pkg/schemaload, and cmd/gqlintel after registering pkg/docload's
// results) that register files in bulk and want to control exactly when the
// O(n) rebuild runs.
func (h *AnalysisHost) RebuildProjectFiles() {
	h.registry.RebuildProjectFiles()
}

// UpdateFileAndSnapshot is update_file_and_snapshot: AddFile followed by
// Snapshot. The two steps take the storage lock separately, so a mutation
// made by another goroutine between them is visible in the returned
// Analysis.
func (h *AnalysisHost) UpdateFileAndSnapshot(uri Uri, content string, language Language, kind DocumentKind) (bool, *Analysis) {
	isNew := h.AddFile(uri, content, language, kind)
	return isNew, h.Snapshot()
}

// SetLintConfig replaces the lint rule configuration used by every
// subsequent Snapshot's diagnostics queries.
func (h *AnalysisHost) SetLintConfig(cfg lint.Config) {
	h.cfgMu.Lock()
	defer h.cfgMu.Unlock()
	h.lintCfg = cfg
}

// SetExtractConfig replaces the tagged-template tag names recognized by the
// extraction adapter; every subsequent Snapshot extracts TS/JS files with
// them.
func (h *AnalysisHost) SetExtractConfig(cfg extract.Config) {
	h.cfgMu.Lock()
	defer h.cfgMu.Unlock()
	h.extractCfg = cfg
}

// GetExtractConfig returns the extraction adapter's current configuration.
func (h *AnalysisHost) GetExtractConfig() extract.Config {
	h.cfgMu.Lock()
	defer h.cfgMu.Unlock()
	return h.extractCfg
}

// Files returns every uri currently registered, in file-id order.
func (h *AnalysisHost) Files() []Uri {
	ids := h.registry.AllFileIDs()
	out := make([]Uri, 0, len(ids))
	for _, id := range ids {
		if uri, ok := h.registry.GetPath(id); ok {
			out = append(out, uri)
		}
	}
	return out
}

// ContainsFile reports whether uri is currently registered.
func (h *AnalysisHost) ContainsFile(uri Uri) bool {
	for _, u := range h.Files() {
		if u == uri {
			return true
		}
	}
	return false
}

// AddIntrospectedSchema registers sdl (already converted from an
// introspection response, e.g. by pkg/schemaload) under a virtual
// schema://<host-and-path>/schema.graphql uri derived from url, matching
// spec.md §6's "Persisted/virtual state" note. Calling this twice for the
// same url updates the same virtual file in place rather than creating a
// second one.
func (h *AnalysisHost) AddIntrospectedSchema(url string, sdl string) Uri {
	h.introspectedMu.Lock()
	virtual, ok := h.introspected[url]
	if !ok {
		virtual = Uri(virtualSchemaURI(url))
		h.introspected[url] = virtual
	}
	h.introspectedMu.Unlock()

	h.AddFile(virtual, sdl, LanguageGraphQL, DocumentKindSchema)
	return virtual
}

// virtualSchemaURI builds the schema://<host-and-path>/schema.graphql uri
// an introspected schema is registered under.
func virtualSchemaURI(url string) string {
	hostAndPath := url
	for _, prefix := range []string{"https://", "http://"} {
		if len(url) >= len(prefix) && url[:len(prefix)] == prefix {
			hostAndPath = url[len(prefix):]
			break
		}
	}
	return fmt.Sprintf("schema://%s/schema.graphql", hostAndPath)
}

// Snapshot pins the current registry state and returns an immutable
// Analysis over it. Snapshot itself only takes db.Storage's read lock —
// holding the returned Analysis open across a subsequent AddFile/RemoveFile
// call deadlocks on that call's Storage.Set, by design (spec.md §7,
// internal/db's package doc); see host_test.go for the documented
// reproduction.
func (h *AnalysisHost) Snapshot() *Analysis {
	snap := h.storage.Snapshot()

	h.cfgMu.Lock()
	lintCfg := h.lintCfg
	extractCfg := h.extractCfg
	extractor := h.extractor
	h.cfgMu.Unlock()

	return &Analysis{
		snap:    snap,
		storage: h.storage,
		reg:     h.registry,
		rules:   h.rules,
		lintCfg: lintCfg,
		project: buildProjectData(h.storage, h.registry, extractor, extractCfg),
	}
}
