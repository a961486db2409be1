// Package docload is the document half of spec.md §6's
// load_documents_from_config: glob-expand a pkg/config.Config's document
// patterns relative to a workspace path, read every match, classify it by
// extension, and hand back pkg/analysis.DiscoveredFile values for
// AnalysisHost.AddDiscoveredFiles. Grounded on
// original_source/crates/ide/src/lib.rs's load_documents_from_config and
// discover_document_files (brace-pattern expansion, node_modules
// skipping, by-extension language classification); the original's split
// between an index-building path and a pure content-mismatch-checking path
// is collapsed here into one LoadResult that carries both.
package docload

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/kestrelgql/gqlintel/internal/registry"
	"github.com/kestrelgql/gqlintel/pkg/analysis"
	"github.com/kestrelgql/gqlintel/pkg/config"
)

// ContentMismatchError is a document source whose content looks like a
// schema definition (type/interface/enum/input/scalar/union) rather than
// operations or fragments — collected rather than rejected, matching
// spec.md §7's content-mismatch error class.
type ContentMismatchError struct {
	Pattern               string
	FilePath              string
	UnexpectedDefinitions []string
}

// LoadResult is spec.md §6's list of LoadedFile plus every content
// mismatch discovered along the way, so that callers who want
// discover_document_files' validation get it without a second pass.
type LoadResult struct {
	Loaded []analysis.DiscoveredFile
	Errors []ContentMismatchError
}

// Load glob-expands cfg.Documents.Include relative to workspace, skips
// anything matching Exclude (also resolved relative to workspace) or living
// under a node_modules directory, and
// returns every match's content classified by extension. It performs all
// file I/O itself; registering the result on an AnalysisHost is the
// caller's job (via AddDiscoveredFiles + RebuildProjectFiles), exactly as
// the teacher's load_documents_from_config separates discovery from
// registration.
func Load(cfg *config.Config, workspace string) (*LoadResult, error) {
	result := &LoadResult{}
	seen := map[string]bool{}
	excludes := make([]string, len(cfg.Documents.Exclude))
	for i, ex := range cfg.Documents.Exclude {
		excludes[i] = ex
		if !filepath.IsAbs(ex) {
			excludes[i] = filepath.Join(workspace, ex)
		}
	}

	for _, pattern := range cfg.Documents.Include {
		if strings.HasPrefix(strings.TrimSpace(pattern), "!") {
			continue
		}

		for _, expanded := range expandBraces(pattern) {
			full := expanded
			if !filepath.IsAbs(expanded) {
				full = filepath.Join(workspace, expanded)
			}

			matches, err := filepath.Glob(full)
			if err != nil {
				return nil, fmt.Errorf("invalid document glob pattern %q: %w", pattern, err)
			}
			// ** also matches zero or more directories, which filepath.Glob does not.
			if i := strings.Index(full, "**"); i >= 0 {
				root, rest := filepath.Clean(full[:i]), strings.TrimLeft(full[i+2:], "/")
				_ = filepath.WalkDir(root, func(p string, d fs.DirEntry, werr error) error {
					rel, _ := filepath.Rel(root, p)
					for parts := strings.Split(filepath.ToSlash(rel), "/"); werr == nil && !d.IsDir() && len(parts) > 0; parts = parts[1:] {
						if ok, _ := filepath.Match(rest, strings.Join(parts, "/")); ok {
							matches = append(matches, p)
							break
						}
					}
					return nil
				})
			}

			for _, path := range matches {
				if seen[path] || isExcluded(path, excludes) || underNodeModules(path) {
					continue
				}

				info, err := os.Stat(path)
				if err != nil || info.IsDir() {
					continue
				}

				content, err := os.ReadFile(path)
				if err != nil {
					return nil, fmt.Errorf("reading document file %s: %w", path, err)
				}
				seen[path] = true

				lang := languageForPath(path)
				if defs := schemaDefinitionsIn(string(content), lang); len(defs) > 0 {
					result.Errors = append(result.Errors, ContentMismatchError{
						Pattern:               pattern,
						FilePath:              path,
						UnexpectedDefinitions: defs,
					})
				}

				result.Loaded = append(result.Loaded, analysis.DiscoveredFile{
					URI:      analysis.Uri(pathToFileURI(path)),
					Content:  string(content),
					Language: lang,
					Kind:     analysis.DocumentKindExecutable,
				})
			}
		}
	}

	return result, nil
}

func languageForPath(path string) registry.Language {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".ts", ".tsx":
		return registry.LanguageTypeScript
	case ".js", ".jsx":
		return registry.LanguageJavaScript
	default:
		return registry.LanguageGraphQL
	}
}

func isExcluded(path string, excludes []string) bool {
	for _, pattern := range excludes {
		if matched, err := filepath.Match(pattern, path); err == nil && matched {
			return true
		}
		trimmed := strings.TrimSuffix(pattern, "/**")
		if trimmed != "" && strings.Contains(path, trimmed) {
			return true
		}
	}
	return false
}

func underNodeModules(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "node_modules" {
			return true
		}
	}
	return false
}

// expandBraces expands one brace-alternation group, e.g. "src/**/*.{ts,tsx}".
func expandBraces(pattern string) []string {
	start := strings.IndexByte(pattern, '{')
	if start < 0 {
		return []string{pattern}
	}
	end := strings.IndexByte(pattern[start:], '}')
	if end < 0 {
		return []string{pattern}
	}
	end += start

	before := pattern[:start]
	after := pattern[end+1:]
	options := strings.Split(pattern[start+1:end], ",")

	out := make([]string, len(options))
	for i, opt := range options {
		out[i] = before + opt + after
	}
	return out
}

func pathToFileURI(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	abs = filepath.ToSlash(abs)
	if !strings.HasPrefix(abs, "/") {
		abs = "/" + abs
	}
	return "file://" + abs
}
