// Package registry is the single source of truth for which files exist in
// a project, their interned content, and their metadata (spec.md §4.2).
// Edits enter the engine here: every mutation goes through FileRegistry,
// which owns the uri↔id maps and drives the ProjectFiles input that the
// HIR layer depends on.
package registry

import (
	"sort"
	"sync"

	"github.com/kestrelgql/gqlintel/internal/db"
	"github.com/kestrelgql/gqlintel/internal/ids"
)

// FileUri is an interned, editor-facing path — typically a file:// URI, or
// a virtual schema://…/schema.graphql URI for introspected schemas. Two
// FileUris are equal iff their strings are equal byte-for-byte; the
// registry never normalizes paths unless a caller explicitly asks it to.
type FileUri string

// Language is the host language of a file, used only to decide whether the
// extraction adapter (internal/extract) needs to run before parsing.
type Language int

const (
	LanguageGraphQL Language = iota
	LanguageTypeScript
	LanguageJavaScript
)

func (l Language) String() string {
	switch l {
	case LanguageGraphQL:
		return "graphql"
	case LanguageTypeScript:
		return "typescript"
	case LanguageJavaScript:
		return "javascript"
	default:
		return "unknown"
	}
}

// DocumentKind is a project-level tag: the registry maintains the
// partition Schema ⊔ Executable over all file ids.
type DocumentKind int

const (
	DocumentKindSchema DocumentKind = iota
	DocumentKindExecutable
)

func (k DocumentKind) String() string {
	if k == DocumentKindSchema {
		return "schema"
	}
	return "executable"
}

// FileMetadata is the immutable descriptor attached to every registered
// file. LineOffset is the number of source lines preceding the file's
// logical GraphQL content — always 0 for pure GraphQL files, and nonzero
// only for per-block metadata synthesized by callers that register one
// embedded block at a time rather than going through extraction.
type FileMetadata struct {
	FileID     ids.FileID
	URI        FileUri
	Language   Language
	Kind       DocumentKind
	LineOffset int
}

// ProjectFiles is the aggregate input the HIR layer depends on: the
// ordered schema and document file id sets, plus every file's content and
// metadata. It is replaced wholesale by rebuild_project_files so that HIR
// queries have exactly one dependency to track for project membership.
type ProjectFiles struct {
	SchemaFiles   []ids.FileID
	DocumentFiles []ids.FileID
	Content       map[ids.FileID]ids.Content
	Metadata      map[ids.FileID]FileMetadata
}

// Lookup resolves uri to a file id in this snapshot of ProjectFiles, or
// false if uri is unknown.
func (p *ProjectFiles) Lookup(uri FileUri) (ids.FileID, bool) {
	for id, md := range p.Metadata {
		if md.URI == uri {
			return id, true
		}
	}
	return 0, false
}

// fileEntry is the registry's internal per-file record.
type fileEntry struct {
	content  ids.Content
	metadata FileMetadata
}

// FileRegistry is the mutable, thread-safe file table described in
// spec.md §4.2. Its RWMutex guards the uri↔id maps and the per-file table;
// readers copy a fileEntry value out under the read lock, and the interned
// content it holds is immutable.
type FileRegistry struct {
	mu sync.RWMutex

	alloc    *ids.Allocator
	interner *ids.Interner

	uriToID map[FileUri]ids.FileID
	idToURI map[ids.FileID]FileUri
	files   map[ids.FileID]fileEntry

	projectFilesStale bool

	storage      *db.Storage
	projectSlot  db.Slot[*ProjectFiles]
}

// NewFileRegistry returns an empty registry backed by storage. storage is
// also used by callers (internal/hir, internal/feature) to read the
// ProjectFiles input via a Snapshot.
func NewFileRegistry(storage *db.Storage) *FileRegistry {
	r := &FileRegistry{
		alloc:             ids.NewAllocator(),
		interner:          ids.NewInterner(),
		uriToID:           make(map[FileUri]ids.FileID),
		idToURI:           make(map[ids.FileID]FileUri),
		files:             make(map[ids.FileID]fileEntry),
		projectFilesStale: true,
		storage:           storage,
	}
	return r
}

// AddFileResult is the return shape of AddFile.
type AddFileResult struct {
	FileID   ids.FileID
	Content  ids.Content
	Metadata FileMetadata
	IsNew    bool
}

// AddFile registers uri with the given content, language, and kind. For an
// existing uri it updates the interned content in place, preserving the
// file id; for a new uri it allocates one and marks the project index
// stale. Kind always wins over Language: Language only gates whether
// extraction runs, it never overrides an explicit DocumentKind (see
// SPEC_FULL.md §6).
func (r *FileRegistry) AddFile(uri FileUri, content string, language Language, kind DocumentKind) AddFileResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	interned := r.interner.Intern(content)

	if id, ok := r.uriToID[uri]; ok {
		existing := r.files[id]
		metadata := existing.metadata
		metadata.Language = language
		metadata.Kind = kind
		r.files[id] = fileEntry{content: interned, metadata: metadata}
		return AddFileResult{FileID: id, Content: interned, Metadata: metadata, IsNew: false}
	}

	id := r.alloc.Next()
	metadata := FileMetadata{FileID: id, URI: uri, Language: language, Kind: kind}
	r.uriToID[uri] = id
	r.idToURI[id] = uri
	r.files[id] = fileEntry{content: interned, metadata: metadata}
	r.projectFilesStale = true
	return AddFileResult{FileID: id, Content: interned, Metadata: metadata, IsNew: true}
}

// AddFileWithOffset is AddFile plus an explicit LineOffset, used when a
// caller registers a single embedded GraphQL block (rather than relying on
// internal/extract to run) as its own pseudo-file.
func (r *FileRegistry) AddFileWithOffset(uri FileUri, content string, language Language, kind DocumentKind, lineOffset int) AddFileResult {
	res := r.AddFile(uri, content, language, kind)
	r.mu.Lock()
	entry := r.files[res.FileID]
	entry.metadata.LineOffset = lineOffset
	r.files[res.FileID] = entry
	r.mu.Unlock()
	res.Metadata.LineOffset = lineOffset
	return res
}

// AddFilesBatch registers every (uri, content, language, kind) tuple and,
// only if at least one was new, performs exactly one RebuildProjectFiles.
// This is the only O(n)-friendly bulk-loading path and must be used by
// schema/document loaders instead of looping AddFile + RebuildProjectFiles.
type BatchEntry struct {
	URI      FileUri
	Content  string
	Language Language
	Kind     DocumentKind
}

func (r *FileRegistry) AddFilesBatch(entries []BatchEntry) []AddFileResult {
	results := make([]AddFileResult, 0, len(entries))
	anyNew := false
	for _, e := range entries {
		res := r.AddFile(e.URI, e.Content, e.Language, e.Kind)
		results = append(results, res)
		anyNew = anyNew || res.IsNew
	}
	if anyNew {
		r.RebuildProjectFiles()
	}
	return results
}

// AddDiscoveredFiles is an alias for AddFilesBatch, named for the file
// discovery path; the operation is identical. (pkg/analysis's
// AddDiscoveredFiles calls AddFilesBatch directly.)
func (r *FileRegistry) AddDiscoveredFiles(entries []BatchEntry) []AddFileResult {
	return r.AddFilesBatch(entries)
}

// RemoveFile drops uri from the registry and marks the project index
// stale. It does not itself call RebuildProjectFiles — batch callers
// should remove everything they intend to remove, then rebuild once.
func (r *FileRegistry) RemoveFile(uri FileUri) (ids.FileID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.uriToID[uri]
	if !ok {
		return 0, false
	}
	delete(r.uriToID, uri)
	delete(r.idToURI, id)
	delete(r.files, id)
	r.projectFilesStale = true
	return id, true
}

// GetContent returns the interned content for id.
func (r *FileRegistry) GetContent(id ids.FileID) (ids.Content, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.files[id]
	return e.content, ok
}

// GetMetadata returns the metadata for id.
func (r *FileRegistry) GetMetadata(id ids.FileID) (FileMetadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.files[id]
	return e.metadata, ok
}

// GetPath returns the uri a file id was registered under.
func (r *FileRegistry) GetPath(id ids.FileID) (FileUri, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	uri, ok := r.idToURI[id]
	return uri, ok
}

// AllFileIDs returns every known file id, sorted for deterministic
// iteration order in callers (diagnostics sweeps, workspace symbols).
func (r *FileRegistry) AllFileIDs() []ids.FileID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ids.FileID, 0, len(r.files))
	for id := range r.files {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// RebuildProjectFiles builds a fresh ProjectFiles value from the current
// uri/id/content/metadata tables and assigns it to the ProjectFiles input
// slot via storage.Set, driving re-derivation of every HIR-dependent
// query. O(n) in total file count; callers must amortize across batches.
func (r *FileRegistry) RebuildProjectFiles() {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schemaFiles := make([]ids.FileID, 0, len(r.files))
	documentFiles := make([]ids.FileID, 0, len(r.files))
	content := make(map[ids.FileID]ids.Content, len(r.files))
	metadata := make(map[ids.FileID]FileMetadata, len(r.files))

	for id, e := range r.files {
		content[id] = e.content
		metadata[id] = e.metadata
		switch e.metadata.Kind {
		case DocumentKindSchema:
			schemaFiles = append(schemaFiles, id)
		case DocumentKindExecutable:
			documentFiles = append(documentFiles, id)
		}
	}
	sort.Slice(schemaFiles, func(i, j int) bool { return schemaFiles[i] < schemaFiles[j] })
	sort.Slice(documentFiles, func(i, j int) bool { return documentFiles[i] < documentFiles[j] })

	pf := &ProjectFiles{
		SchemaFiles:   schemaFiles,
		DocumentFiles: documentFiles,
		Content:       content,
		Metadata:      metadata,
	}

	r.storage.Set(func() {
		r.projectSlot.Set(pf)
	})
	r.projectFilesStale = false
}

// ProjectFiles returns the current ProjectFiles input, or nil if
// RebuildProjectFiles has never been called. Callers are expected to hold
// a db.Snapshot while reading the result to ensure snapshot isolation.
func (r *FileRegistry) ProjectFiles() *ProjectFiles {
	pf, _ := r.projectSlot.Get()
	return pf
}

// ProjectFilesRevision exposes the input slot's revision so derived
// queries (internal/hir) can record it as a db.Dep.
func (r *FileRegistry) ProjectFilesRevision() uint64 {
	return r.projectSlot.Revision()
}
