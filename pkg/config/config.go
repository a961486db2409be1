package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	"github.com/kestrelgql/gqlintel/internal/extract"
	"github.com/kestrelgql/gqlintel/internal/lint"
)

// SchemaSource is one entry of a project's schema, loaded as a file, a
// plain URL fetch, or a GraphQL introspection query.
type SchemaSource struct {
	Type     string            `yaml:"type,omitempty"`                                 // "file" | "url" | "introspection"
	Path     string            `yaml:"path,omitempty"`                                 // For file-based schemas
	URL      string            `yaml:"url,omitempty"`                                  // For remote schemas
	Headers  map[string]string `yaml:"headers,omitempty"`                              // For authentication
	Timeout  string            `yaml:"timeout,omitempty"`                              // HTTP timeout (e.g., "30s")
	Retries  int               `yaml:"retries,omitempty"`                              // Number of retry attempts
	CacheTTL string            `yaml:"cache_ttl,omitempty" json:"cache_ttl,omitempty"` // Cache TTL (e.g., "5m")
}

// Documents defines where to find GraphQL operations.
type Documents struct {
	Include []string `yaml:"include"` // Glob patterns for files to include
	Exclude []string `yaml:"exclude"` // Glob patterns for files to exclude
}

// LintRuleConfig is one rule's YAML-facing override: a severity name
// ("error"/"warning"/"info"), whether the rule is turned off entirely, and
// whatever rule-specific options that rule's JSON schema accepts.
type LintRuleConfig struct {
	Severity string                 `yaml:"severity,omitempty"`
	Disabled bool                   `yaml:"disabled,omitempty"`
	Options  map[string]interface{} `yaml:"options,omitempty"`
}

// Extract is the tagged-template extraction adapter's configuration.
type Extract struct {
	TagNames []string `yaml:"tagNames,omitempty"`
}

// Config is the full gqlintel project configuration: where the schema and
// documents live, how embedded GraphQL is extracted from host files, and
// which lint rules run at what severity.
type Config struct {
	Schema    []SchemaSource            `yaml:"schema"`
	Documents Documents                 `yaml:"documents"`
	Extract   Extract                   `yaml:"extract,omitempty"`
	Lint      map[string]LintRuleConfig `yaml:"lint,omitempty"`
	Watch     bool                      `yaml:"watch"`
	Verbose   bool                      `yaml:"verbose"`
}

// LoadFile loads configuration from a file (YAML, TypeScript, or JavaScript).
func LoadFile(path string) (*Config, error) {
	registry := NewLoaderRegistry()
	return registry.Load(path)
}

// setDefaults sets default values for the configuration.
func (c *Config) setDefaults() error {
	for i := range c.Schema {
		if c.Schema[i].Type == "" {
			if c.Schema[i].Path != "" {
				c.Schema[i].Type = "file"
			} else if c.Schema[i].URL != "" {
				c.Schema[i].Type = "url"
			}
		}
	}

	if len(c.Documents.Include) == 0 {
		c.Documents.Include = []string{
			"**/*.graphql",
			"**/*.gql",
			"**/*.ts",
			"**/*.tsx",
			"**/*.js",
			"**/*.jsx",
		}
	}

	if len(c.Extract.TagNames) == 0 {
		c.Extract.TagNames = extract.DefaultConfig().TagNames
	}

	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if len(c.Schema) == 0 {
		return fmt.Errorf("at least one schema source is required")
	}

	for i, source := range c.Schema {
		if source.Type == "" {
			return fmt.Errorf("schema[%d]: type is required", i)
		}

		switch source.Type {
		case "file":
			if source.Path == "" {
				return fmt.Errorf("schema[%d]: path is required for file type", i)
			}
		case "url", "introspection":
			if source.URL == "" {
				return fmt.Errorf("schema[%d]: url is required for %s type", i, source.Type)
			}
			if err := validateURL(source.URL); err != nil {
				return fmt.Errorf("schema[%d]: invalid URL: %w", i, err)
			}
			if source.Timeout != "" {
				if err := validateDuration(source.Timeout); err != nil {
					return fmt.Errorf("schema[%d]: invalid timeout: %w", i, err)
				}
			}
			if source.CacheTTL != "" {
				if err := validateDuration(source.CacheTTL); err != nil {
					return fmt.Errorf("schema[%d]: invalid cache_ttl: %w", i, err)
				}
			}
		default:
			return fmt.Errorf("schema[%d]: invalid type %q", i, source.Type)
		}
	}

	if len(c.Documents.Include) == 0 {
		return fmt.Errorf("documents.include cannot be empty")
	}

	for name, rule := range c.Lint {
		if rule.Severity != "" {
			if _, err := ParseSeverity(rule.Severity); err != nil {
				return fmt.Errorf("lint[%s]: %w", name, err)
			}
		}
	}

	return nil
}

// ParseSeverity maps a YAML severity name to its lint.Severity value.
func ParseSeverity(name string) (lint.Severity, error) {
	switch name {
	case "error":
		return lint.SeverityError, nil
	case "warning":
		return lint.SeverityWarning, nil
	case "info":
		return lint.SeverityInfo, nil
	default:
		return 0, fmt.Errorf("invalid severity %q (must be 'error', 'warning', or 'info')", name)
	}
}

// ToLintConfig converts the YAML-facing lint rule overrides into the
// lint.Config shape internal/lint's Registry consumes.
func (c *Config) ToLintConfig() (lint.Config, error) {
	out := make(lint.Config, len(c.Lint))
	for name, rule := range c.Lint {
		entry := lint.RuleConfig{Disabled: rule.Disabled}
		if rule.Severity != "" {
			sev, err := ParseSeverity(rule.Severity)
			if err != nil {
				return nil, fmt.Errorf("lint[%s]: %w", name, err)
			}
			entry.Severity = &sev
		}
		if len(rule.Options) > 0 {
			raw, err := json.Marshal(rule.Options)
			if err != nil {
				return nil, fmt.Errorf("lint[%s]: marshaling options: %w", name, err)
			}
			entry.Options = raw
		}
		out[name] = entry
	}
	return out, nil
}

// ToExtractConfig converts Extract into internal/extract's Config.
func (c *Config) ToExtractConfig() extract.Config {
	if len(c.Extract.TagNames) == 0 {
		return extract.DefaultConfig()
	}
	return extract.Config{TagNames: c.Extract.TagNames}
}

// validateURL checks if a URL string is valid.
func validateURL(urlStr string) error {
	u, err := url.Parse(urlStr)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL must use http or https scheme")
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}

// validateDuration checks if a duration string is valid.
func validateDuration(duration string) error {
	_, err := time.ParseDuration(duration)
	return err
}

// ResolveRelativePaths resolves all relative paths in the config relative
// to the config file.
func (c *Config) ResolveRelativePaths(configPath string) {
	baseDir := filepath.Dir(configPath)

	for i := range c.Schema {
		if c.Schema[i].Path != "" && !filepath.IsAbs(c.Schema[i].Path) {
			c.Schema[i].Path = filepath.Join(baseDir, c.Schema[i].Path)
		}
	}

	for i := range c.Documents.Include {
		if !filepath.IsAbs(c.Documents.Include[i]) {
			c.Documents.Include[i] = filepath.Join(baseDir, c.Documents.Include[i])
		}
	}
	for i := range c.Documents.Exclude {
		if !filepath.IsAbs(c.Documents.Exclude[i]) {
			c.Documents.Exclude[i] = filepath.Join(baseDir, c.Documents.Exclude[i])
		}
	}
}
