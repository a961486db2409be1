// Package schemaload is the schema half of spec.md §6's
// load_schemas_from_config: it turns a pkg/config.Config's schema sources
// into pkg/analysis.DiscoveredFile values ready for
// AnalysisHost.AddDiscoveredFiles, doing every bit of file I/O and glob
// expansion up front so registration itself stays a brief lock
// acquisition. Grounded on
// original_source/crates/ide/src/lib.rs's load_schemas_from_config: local
// file/glob sources are read and registered synchronously; url and
// introspection sources are never fetched here — they are collected into
// PendingIntrospection entries for a caller to resolve asynchronously
// (see resolve.go, grounded on the teacher's
// internal/loader/universal.go).
package schemaload

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kestrelgql/gqlintel/internal/extract"
	"github.com/kestrelgql/gqlintel/internal/registry"
	"github.com/kestrelgql/gqlintel/pkg/analysis"
	"github.com/kestrelgql/gqlintel/pkg/config"
)

// PendingIntrospection is one schema source whose content can only be
// obtained over the network — collected by Load rather than fetched, so
// that config-driven schema loading never blocks on I/O under the
// registry's lock. Mode distinguishes a plain SDL-over-HTTP fetch ("url")
// from a GraphQL introspection query ("introspection"); resolve.go knows
// how to satisfy either.
type PendingIntrospection struct {
	URL      string
	Mode     string // "url" or "introspection"
	Headers  map[string]string
	Timeout  string
	Retries  int
	CacheTTL string
}

// SchemaContentError is a schema source whose content looks executable
// (contains operations or fragments) rather than type/schema definitions —
// collected rather than rejected outright, matching spec.md §7's
// content-mismatch error class.
type SchemaContentError struct {
	Pattern               string
	FilePath              string
	UnexpectedDefinitions []string
}

// SchemaLoadResult is spec.md §6's SchemaLoadResult: everything
// load_schemas_from_config enumerated plus every expected failure along
// the way, aggregated as data rather than raised as an error.
type SchemaLoadResult struct {
	LoadedCount           int
	LoadedPaths           []string
	PendingIntrospections []PendingIntrospection
	ContentErrors         []SchemaContentError
}

// Load enumerates cfg.Schema relative to baseDir and registers every local
// file it finds on host, exactly as
// AnalysisHost.New already pre-registers the Apollo Client builtins — this
// function's LoadedCount starts at 1 to account for that file, matching
// the teacher's load_schemas_from_config, which always counts the builtins
// whether or not this is the first config load of the process.
func Load(host *analysis.AnalysisHost, cfg *config.Config, baseDir string) (*SchemaLoadResult, error) {
	result := &SchemaLoadResult{LoadedCount: 1}
	extractor := extract.NewTaggedTemplateExtractor()
	extractCfg := host.GetExtractConfig()

	var discovered []analysis.DiscoveredFile

	for _, src := range cfg.Schema {
		switch src.Type {
		case "url", "introspection":
			result.PendingIntrospections = append(result.PendingIntrospections, PendingIntrospection{
				URL:      src.URL,
				Mode:     src.Type,
				Headers:  src.Headers,
				Timeout:  src.Timeout,
				Retries:  src.Retries,
				CacheTTL: src.CacheTTL,
			})

		case "file":
			for _, pattern := range expandBraces(src.Path) {
				full := pattern
				if !filepath.IsAbs(pattern) {
					full = filepath.Join(baseDir, pattern)
				}

				matches, err := filepath.Glob(full)
				if err != nil {
					return nil, fmt.Errorf("invalid schema glob pattern %q: %w", src.Path, err)
				}

				for _, path := range matches {
					info, err := os.Stat(path)
					if err != nil || info.IsDir() {
						continue
					}

					content, err := os.ReadFile(path)
					if err != nil {
						return nil, fmt.Errorf("reading schema file %s: %w", path, err)
					}

					added, err := loadSchemaFile(path, string(content), src.Path, extractor, extractCfg, &discovered, result)
					if err != nil {
						return nil, err
					}
					if added {
						result.LoadedPaths = append(result.LoadedPaths, path)
					}
				}
			}

		default:
			return nil, fmt.Errorf("unsupported schema source type %q", src.Type)
		}
	}

	host.AddDiscoveredFiles(discovered)
	host.RebuildProjectFiles()
	result.LoadedCount += len(discovered)
	return result, nil
}

// loadSchemaFile appends one or more DiscoveredFile entries for path's
// content, splitting a TS/JS file with multiple embedded GraphQL blocks
// into one virtual per-block URI each, exactly as the teacher's
// load_schemas_from_config does for schema sources.
func loadSchemaFile(
	path, content, pattern string,
	extractor extract.Extractor,
	extractCfg extract.Config,
	discovered *[]analysis.DiscoveredFile,
	result *SchemaLoadResult,
) (bool, error) {
	fileURI := pathToFileURI(path)
	lang := languageForPath(path)

	if lang != registry.LanguageGraphQL {
		blocks, _ := extractor.Extract(content, lang, extractCfg)
		if len(blocks) == 0 {
			return false, nil
		}

		allSources := make([]string, len(blocks))
		for i, b := range blocks {
			allSources[i] = b.Source
		}
		if defs := executableDefinitionsIn(strings.Join(allSources, "\n")); len(defs) > 0 {
			result.ContentErrors = append(result.ContentErrors, SchemaContentError{
				Pattern:               pattern,
				FilePath:              path,
				UnexpectedDefinitions: defs,
			})
		}

		if len(blocks) == 1 {
			*discovered = append(*discovered, analysis.DiscoveredFile{
				URI:      analysis.Uri(fileURI),
				Content:  content,
				Language: lang,
				Kind:     analysis.DocumentKindSchema,
			})
			return true, nil
		}

		for _, b := range blocks {
			startLine := b.LineOffset + 1
			endLine := startLine + strings.Count(b.Source, "\n")
			blockURI := fmt.Sprintf("%s#L%d-L%d", fileURI, startLine, endLine)
			*discovered = append(*discovered, analysis.DiscoveredFile{
				URI:      analysis.Uri(blockURI),
				Content:  b.Source,
				Language: registry.LanguageGraphQL,
				Kind:     analysis.DocumentKindSchema,
			})
		}
		return true, nil
	}

	if defs := executableDefinitionsIn(content); len(defs) > 0 {
		result.ContentErrors = append(result.ContentErrors, SchemaContentError{
			Pattern:               pattern,
			FilePath:              path,
			UnexpectedDefinitions: defs,
		})
	}

	*discovered = append(*discovered, analysis.DiscoveredFile{
		URI:      analysis.Uri(fileURI),
		Content:  content,
		Language: registry.LanguageGraphQL,
		Kind:     analysis.DocumentKindSchema,
	})
	return true, nil
}

// languageForPath classifies a schema-source file path the way the
// teacher's extraction adapter does for document files: .ts/.tsx is
// TypeScript, .js/.jsx is JavaScript, everything else is treated as pure
// GraphQL regardless of its actual extension (.graphql, .gql, .graphqls,
// or anything a user's glob pattern happened to match).
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

// expandBraces expands one brace-alternation group, e.g. "**/*.{ts,tsx}"
// into ["**/*.ts", "**/*.tsx"] — Go's filepath.Glob has no brace support,
// so this reproduces the teacher's workaround ahead of globbing.
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

// pathToFileURI converts a filesystem path to a file:// URI in the shape
// the registry and editors expect.
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
