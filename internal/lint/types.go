// Package lint implements the lint-rule capability interface and built-in
// rules from spec.md §4.8. The Rule/Registry shape is grounded on the
// teacher's pkg/plugin/plugin.go Plugin/Registry pattern, trimmed to the
// capability set the spec names: a stable name, a default severity, an
// optional JSON options schema, and a check function.
package lint

import (
	"encoding/json"
	"sort"

	"github.com/kestrelgql/gqlintel/internal/hir"
	"github.com/kestrelgql/gqlintel/internal/ids"
	"github.com/kestrelgql/gqlintel/internal/syntax"
)

// Severity mirrors the Rust LintSeverity enum (spec.md §4.8).
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// TextEdit is one atomic insert/replace within a code fix, with Range given
// in block-local byte offsets (the rule only ever sees one block at a
// time), so fix application must add the owning block's byte offset.
type TextEdit struct {
	Range   syntax.ByteRange
	NewText string
}

// CodeFix is a named sequence of TextEdits a code-action handler can apply.
type CodeFix struct {
	Title string
	Edits []TextEdit
}

// Diagnostic is a LintDiagnostic (spec.md §4.8): a byte range local to the
// owning document (the same as file-relative for a pure GraphQL file), plus
// — for diagnostics that originated inside an embedded block — the block's
// own offsets, which must be added to Range and to a fix's edit positions
// to get file-relative coordinates.
type Diagnostic struct {
	Range    syntax.ByteRange
	Severity Severity
	Message  string
	RuleName string
	Fix      *CodeFix

	FileID ids.FileID

	BlockLineOffset *int
	BlockByteOffset *int
	BlockSource     *string
}

// withBlockContext stamps block offsets onto diagnostics produced against an
// embedded GraphQL block, mirroring LintDiagnostic::with_block_context.
func withBlockContext(diags []Diagnostic, doc *syntax.ParsedDocument) []Diagnostic {
	if doc.ByteOffset == 0 && doc.LineOffset == 0 {
		return diags
	}
	byteOffset := doc.ByteOffset
	lineOffset := doc.LineOffset
	src := doc.Source.Input
	for i := range diags {
		diags[i].BlockByteOffset = &byteOffset
		diags[i].BlockLineOffset = &lineOffset
		diags[i].BlockSource = &src
	}
	return diags
}

// RootTypes names the schema's Query/Mutation/Subscription root types.
type RootTypes struct {
	Query        string
	Mutation     string
	Subscription string
}

// ProjectContext is the HIR-derived view every rule checks against: the
// merged schema-type index, fragment/operation indices, and per-file parsed
// documents, assembled once per snapshot by pkg/analysis.
type ProjectContext struct {
	Types           map[string]*hir.SchemaType
	Implementers    map[string][]string
	Fragments       map[string]*hir.FragmentStructure
	FragmentSpreads map[string]map[string]bool
	Operations      []*hir.OperationStructure
	SchemaFiles     []hir.SchemaFile
	DocumentFiles   []hir.DocumentFile
	Roots           RootTypes
	// Conflicts is hir.BuildSchemaTypes's by-product: every structural
	// mismatch found between duplicate base definitions or while merging
	// `extend type` into its base. no_duplicate_type_name does not read it;
	// it detects duplicate names itself.
	Conflicts []hir.Conflict
	// FileDocs indexes every file's parsed documents (schema or executable)
	// by FileID, for rules that need a specific file's own blocks.
	FileDocs map[ids.FileID][]*syntax.ParsedDocument
}

// Rule is the common capability every lint rule implements.
type Rule interface {
	Name() string
	Description() string
	DefaultSeverity() Severity
}

// FileRule is a per-file-document-and-schema rule (spec.md §4.8 category
// one): it receives one file's own parsed documents plus the whole project
// for cross-file lookups (e.g. resolving a fragment defined elsewhere).
type FileRule interface {
	Rule
	CheckFile(fileID ids.FileID, docs []*syntax.ParsedDocument, project *ProjectContext, options json.RawMessage) []Diagnostic
}

// ProjectRule is a project-wide rule (category two): it sees every document
// and schema file at once and reports diagnostics keyed to whichever file
// owns the offending entity.
type ProjectRule interface {
	Rule
	CheckProject(project *ProjectContext, options json.RawMessage) []Diagnostic
}

// RuleConfig is one entry of the lint config: a severity override and/or
// JSON options for a named rule. A nil RuleConfig for a rule means "run
// with its default severity and no options"; a rule absent from Config
// entirely still runs — lint config is opt-out, not opt-in, matching the
// teacher's plugin registry default-enabled behavior.
type RuleConfig struct {
	Severity *Severity
	Options  json.RawMessage
	Disabled bool
}

// Config maps a rule name to its override.
type Config map[string]RuleConfig

// Registry holds every known rule and runs them against a project.
type Registry struct {
	fileRules    map[string]FileRule
	projectRules map[string]ProjectRule
	order        []string
}

// NewRegistry returns an empty registry; use DefaultRegistry for the
// built-in rule set.
func NewRegistry() *Registry {
	return &Registry{fileRules: map[string]FileRule{}, projectRules: map[string]ProjectRule{}}
}

// Register adds a rule, accepting either a FileRule or a ProjectRule (a
// rule implements exactly one, never both).
func (r *Registry) Register(rule Rule) {
	switch rl := rule.(type) {
	case FileRule:
		r.fileRules[rl.Name()] = rl
	case ProjectRule:
		r.projectRules[rl.Name()] = rl
	default:
		return
	}
	r.order = append(r.order, rule.Name())
}

// Names returns every registered rule name in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) severityFor(name string, defaultSev Severity, cfg Config) (Severity, bool, json.RawMessage) {
	entry, ok := cfg[name]
	if !ok {
		return defaultSev, true, nil
	}
	if entry.Disabled {
		return defaultSev, false, nil
	}
	if entry.Severity != nil {
		return *entry.Severity, true, entry.Options
	}
	return defaultSev, true, entry.Options
}

// CheckFile runs every per-file rule against one file's documents.
func (r *Registry) CheckFile(fileID ids.FileID, docs []*syntax.ParsedDocument, project *ProjectContext, cfg Config) []Diagnostic {
	var out []Diagnostic
	for _, name := range r.order {
		rule, ok := r.fileRules[name]
		if !ok {
			continue
		}
		sev, enabled, opts := r.severityFor(name, rule.DefaultSeverity(), cfg)
		if !enabled {
			continue
		}
		diags := rule.CheckFile(fileID, docs, project, opts)
		for i := range diags {
			diags[i].Severity = sev
			diags[i].RuleName = name
			diags[i].FileID = fileID
		}
		out = append(out, diags...)
	}
	return out
}

// CheckProject runs every project-wide rule once over the whole project.
func (r *Registry) CheckProject(project *ProjectContext, cfg Config) []Diagnostic {
	var out []Diagnostic
	for _, name := range r.order {
		rule, ok := r.projectRules[name]
		if !ok {
			continue
		}
		sev, enabled, opts := r.severityFor(name, rule.DefaultSeverity(), cfg)
		if !enabled {
			continue
		}
		diags := rule.CheckProject(project, opts)
		for i := range diags {
			diags[i].Severity = sev
			diags[i].RuleName = name
		}
		out = append(out, diags...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].FileID < out[j].FileID })
	return out
}

// DefaultRegistry returns the built-in rule set: require_id_field,
// no_duplicate_fragment_name, no_duplicate_type_name, no_unused_fragment.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&RequireIDFieldRule{})
	r.Register(&NoDuplicateFragmentNameRule{})
	r.Register(&NoDuplicateTypeNameRule{})
	r.Register(&NoUnusedFragmentRule{})
	return r
}

// fieldDefOn looks up a field definition by (typeName, fieldName), only for
// Object/Interface kinds — Union/Enum/Scalar/InputObject types have no
// selectable fields from an executable document's point of view.
func fieldDefOn(types map[string]*hir.SchemaType, typeName, fieldName string) (*hir.FieldInfo, bool) {
	t, ok := types[typeName]
	if !ok || (t.Kind != hir.KindObject && t.Kind != hir.KindInterface) {
		return nil, false
	}
	f, ok := t.Fields[fieldName]
	return f, ok
}
