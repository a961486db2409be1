package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/kestrelgql/gqlintel/pkg/analysis"
	"github.com/kestrelgql/gqlintel/pkg/config"
	"github.com/kestrelgql/gqlintel/pkg/docload"
	"github.com/kestrelgql/gqlintel/pkg/schemaload"
)

// loadResult bundles the host produced by loading a project's configuration
// along with the diagnostics load_schemas_from_config/load_documents_from_config
// collected rather than raised (spec.md §7).
type loadResult struct {
	host           *analysis.AnalysisHost
	cfg            *config.Config
	configPath     string
	schemaResult   *schemaload.SchemaLoadResult
	documentResult *docload.LoadResult
}

// loadProject discovers and loads gqlintel's configuration (or the path
// given by --config), registers every schema and document source it finds,
// and resolves any pending remote introspection synchronously. Mirrors the
// teacher's generateCmd's config-discovery-then-load sequence, generalized
// to this module's subcommands.
func loadProject(ctx context.Context, cfgFlag string, log Logger) (*loadResult, error) {
	path := cfgFlag
	if path == "" {
		discovered, err := config.DiscoverConfig("")
		if err != nil {
			return nil, fmt.Errorf("discovering config: %w", err)
		}
		path = discovered
	}

	var cfg *config.Config
	var err error
	if filepath.Base(path) == "package.json" {
		cfg, err = config.LoadFromPackageJSON(path)
	} else {
		cfg, err = config.LoadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}

	log.Info("loaded config from %s", path)

	host := analysis.New()

	lintCfg, err := cfg.ToLintConfig()
	if err != nil {
		return nil, fmt.Errorf("building lint config: %w", err)
	}
	host.SetLintConfig(lintCfg)
	host.SetExtractConfig(cfg.ToExtractConfig())

	baseDir := filepath.Dir(path)

	schemaResult, err := schemaload.Load(host, cfg, baseDir)
	if err != nil {
		return nil, fmt.Errorf("loading schema sources: %w", err)
	}
	for _, ce := range schemaResult.ContentErrors {
		log.Warn("schema source %s looks executable (found %v)", ce.FilePath, ce.UnexpectedDefinitions)
	}

	if len(schemaResult.PendingIntrospections) > 0 {
		resolver := schemaload.NewResolver()
		for _, pending := range schemaResult.PendingIntrospections {
			log.Info("resolving remote schema %s", pending.URL)
			if _, err := resolver.Resolve(ctx, host, pending); err != nil {
				log.Error("resolving remote schema %s: %v", pending.URL, err)
				continue
			}
		}
		host.RebuildProjectFiles()
	}

	documentResult, err := docload.Load(cfg, baseDir)
	if err != nil {
		return nil, fmt.Errorf("loading document sources: %w", err)
	}
	for _, ce := range documentResult.Errors {
		log.Warn("document source %s looks like a schema (found %v)", ce.FilePath, ce.UnexpectedDefinitions)
	}
	host.AddDiscoveredFiles(documentResult.Loaded)
	host.RebuildProjectFiles()

	return &loadResult{
		host:           host,
		cfg:            cfg,
		configPath:     path,
		schemaResult:   schemaResult,
		documentResult: documentResult,
	}, nil
}
