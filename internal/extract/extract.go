// Package extract is the extraction adapter described in spec.md §4.4: it
// scans TypeScript/JavaScript source for embedded GraphQL (tagged template
// literals and leading `/* GraphQL */` comments) and normalizes what it
// finds into internal/syntax's EmbeddedBlock shape. The scanner itself is
// ported byte-for-byte in spirit from the teacher's
// internal/pluck/typescript.go, generalized to return offsets instead of a
// documents.Document.
package extract

import (
	"strings"

	"github.com/kestrelgql/gqlintel/internal/registry"
	"github.com/kestrelgql/gqlintel/internal/syntax"
)

// Config controls which tagged-template identifiers are recognized as
// GraphQL. The zero Config is not usable; use DefaultConfig.
type Config struct {
	TagNames []string
}

// DefaultConfig recognizes the two conventional tag names used across the
// JS GraphQL ecosystem.
func DefaultConfig() Config {
	return Config{TagNames: []string{"gql", "graphql"}}
}

// ExtractError is a scan-time failure (e.g. an unterminated template
// literal) reported at a byte offset in the host file.
type ExtractError struct {
	Offset  int
	Message string
}

// Extractor accepts (source, Language, Config) and returns normalized
// GraphQL blocks, matching spec.md §4.4's external-extractor contract.
type Extractor interface {
	CanExtract(language registry.Language) bool
	Extract(source string, language registry.Language, cfg Config) ([]syntax.EmbeddedBlock, []ExtractError)
}

// TaggedTemplateExtractor finds GraphQL content two ways, matching the
// teacher's scanner: a `/* GraphQL */` (or `# GraphQL`) leading comment
// immediately before a template literal, or a bare tagged template whose
// tag identifier is one of cfg.TagNames.
type TaggedTemplateExtractor struct{}

// NewTaggedTemplateExtractor returns a ready-to-use extractor.
func NewTaggedTemplateExtractor() *TaggedTemplateExtractor {
	return &TaggedTemplateExtractor{}
}

func (e *TaggedTemplateExtractor) CanExtract(language registry.Language) bool {
	return language == registry.LanguageTypeScript || language == registry.LanguageJavaScript
}

// Extract scans source byte by byte. It is a single forward pass: no
// backtracking, no AST — exactly the teacher's approach, traded for speed
// and simplicity over handling every pathological case a real TS parser
// would.
func (e *TaggedTemplateExtractor) Extract(source string, language registry.Language, cfg Config) ([]syntax.EmbeddedBlock, []ExtractError) {
	if !e.CanExtract(language) {
		return nil, nil
	}
	tagNames := cfg.TagNames
	if len(tagNames) == 0 {
		tagNames = DefaultConfig().TagNames
	}

	sc := &scanner{src: source, tagNames: tagNames}
	return sc.run()
}

type scanner struct {
	src      string
	tagNames []string
	pos      int
	blocks   []syntax.EmbeddedBlock
	errs     []ExtractError
}

func (s *scanner) run() ([]syntax.EmbeddedBlock, []ExtractError) {
	for s.pos < len(s.src) {
		switch {
		case s.matchLineCommentGraphQL():
			// handled inline; pos already advanced
		case s.matchBlockCommentGraphQL():
			// handled inline; pos already advanced
		case s.matchTaggedTemplate():
			// handled inline; pos already advanced
		default:
			s.pos++
		}
	}
	return s.blocks, s.errs
}

// matchLineCommentGraphQL recognizes `// GraphQL` or `# GraphQL` followed eventually by a
// backtick template, consuming the template as a GraphQL block with no tag
// requirement.
func (s *scanner) matchLineCommentGraphQL() bool {
	if !strings.HasPrefix(s.src[s.pos:], "// GraphQL") && !strings.HasPrefix(s.src[s.pos:], "# GraphQL") {
		return false
	}
	afterComment := s.skipToLineEnd(s.pos)
	tplStart := s.skipWhitespaceAndComments(afterComment)
	if tplStart >= len(s.src) || s.src[tplStart] != '`' {
		s.pos = afterComment
		return true
	}
	s.consumeTemplateAt(tplStart)
	return true
}

// matchBlockCommentGraphQL recognizes `/* GraphQL */` immediately
// preceding a backtick template.
func (s *scanner) matchBlockCommentGraphQL() bool {
	if !strings.HasPrefix(s.src[s.pos:], "/*") {
		return false
	}
	end := strings.Index(s.src[s.pos:], "*/")
	if end < 0 {
		s.pos = len(s.src)
		return true
	}
	comment := s.src[s.pos : s.pos+end]
	afterComment := s.pos + end + 2
	if !strings.Contains(comment, "GraphQL") {
		s.pos = afterComment
		return true
	}
	tplStart := s.skipWhitespaceAndComments(afterComment)
	if tplStart >= len(s.src) || s.src[tplStart] != '`' {
		s.pos = afterComment
		return true
	}
	s.consumeTemplateAt(tplStart)
	return true
}

// matchTaggedTemplate recognizes `<tag>` `` ` `` where tag is one of
// s.tagNames, written as a bare identifier immediately followed by
// optional whitespace and a backtick; a qualified tag such as
// `graphql.experimental` is not matched.
func (s *scanner) matchTaggedTemplate() bool {
	if !isIdentStart(s.src[s.pos]) {
		return false
	}
	start := s.pos
	end := start
	for end < len(s.src) && isIdentPart(s.src[end]) {
		end++
	}
	ident := s.src[start:end]

	matched := false
	for _, tag := range s.tagNames {
		if ident == tag {
			matched = true
			break
		}
	}
	if !matched {
		s.pos = end
		return true
	}

	tplStart := s.skipWhitespaceAndComments(end)
	if tplStart >= len(s.src) || s.src[tplStart] != '`' {
		s.pos = end
		return true
	}
	s.consumeTemplateAt(tplStart)
	return true
}

// consumeTemplateAt reads a backtick template literal starting at
// s.src[at] == '`', tracking `${...}` interpolation brace depth and
// backslash escapes, and records the literal text between the backticks
// (with interpolations left verbatim — extraction does not attempt to
// evaluate or strip them) as one EmbeddedBlock.
func (s *scanner) consumeTemplateAt(at int) {
	i := at + 1
	contentStart := i
	depth := 0
	for i < len(s.src) {
		c := s.src[i]
		switch {
		case c == '\\':
			i += 2
			continue
		case c == '`' && depth == 0:
			block := s.src[contentStart:i]
			byteOffset := contentStart
			lineOffset := strings.Count(s.src[:byteOffset], "\n")
			s.blocks = append(s.blocks, syntax.EmbeddedBlock{
				Source:     block,
				ByteOffset: byteOffset,
				LineOffset: lineOffset,
			})
			s.pos = i + 1
			return
		case c == '$' && i+1 < len(s.src) && s.src[i+1] == '{':
			depth++
			i += 2
			continue
		case c == '}' && depth > 0:
			depth--
			i++
			continue
		default:
			i++
		}
	}
	// Unterminated template literal.
	s.errs = append(s.errs, ExtractError{Offset: at, Message: "unterminated template literal"})
	s.pos = len(s.src)
}

func (s *scanner) skipToLineEnd(from int) int {
	i := from
	for i < len(s.src) && s.src[i] != '\n' {
		i++
	}
	if i < len(s.src) {
		i++ // consume the newline itself
	}
	return i
}

// skipWhitespaceAndComments advances past runs of whitespace; it
// intentionally does not skip over additional comments between a `gql`
// marker and its template, matching the teacher's scanner (which only
// tolerates whitespace there).
func (s *scanner) skipWhitespaceAndComments(from int) int {
	i := from
	for i < len(s.src) {
		switch s.src[i] {
		case ' ', '\t', '\r', '\n':
			i++
		default:
			return i
		}
	}
	return i
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
