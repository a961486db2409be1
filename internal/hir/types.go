// Package hir builds the project-wide derived indices described in
// spec.md §4.5: the merged schema type table, fragment and operation
// indices, the fragment-spread graph, and the implementers index. Every
// function here is a pure derivation over parsed documents — nothing in
// this package touches internal/db directly; pkg/analysis is what wires
// these as memoized queries keyed on ProjectFiles' revision.
//
// Type-extension merging and conflict detection are grounded on the
// teacher's pkg/schema/merger.go, repurposed from merging independent
// schema *sources* to folding `extend type` into its base definition
// within one project.
package hir

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/kestrelgql/gqlintel/internal/ids"
	"github.com/kestrelgql/gqlintel/internal/syntax"
)

// TypeKind mirrors ast.DefinitionKind with a name local to this package so
// downstream code never needs to import gqlparser's ast package directly.
type TypeKind int

const (
	KindScalar TypeKind = iota
	KindObject
	KindInterface
	KindUnion
	KindEnum
	KindInputObject
)

func kindFromAST(k ast.DefinitionKind) TypeKind {
	switch k {
	case ast.Object:
		return KindObject
	case ast.Interface:
		return KindInterface
	case ast.Union:
		return KindUnion
	case ast.Enum:
		return KindEnum
	case ast.InputObject:
		return KindInputObject
	default:
		return KindScalar
	}
}

func (k TypeKind) String() string {
	switch k {
	case KindObject:
		return "Object"
	case KindInterface:
		return "Interface"
	case KindUnion:
		return "Union"
	case KindEnum:
		return "Enum"
	case KindInputObject:
		return "InputObject"
	default:
		return "Scalar"
	}
}

// TypeRef is a schema type reference, decorated with list/non-null
// wrapping exactly as GraphQL SDL writes it (e.g. "[String!]!").
type TypeRef struct {
	NamedType string
	ListOf    *TypeRef
	NonNull   bool
}

func typeRefFromAST(t *ast.Type) TypeRef {
	if t == nil {
		return TypeRef{}
	}
	if t.NamedType != "" {
		return TypeRef{NamedType: t.NamedType, NonNull: t.NonNull}
	}
	elem := typeRefFromAST(t.Elem)
	return TypeRef{ListOf: &elem, NonNull: t.NonNull}
}

// String renders the type reference as GraphQL SDL would.
func (t TypeRef) String() string {
	var s string
	if t.ListOf != nil {
		s = "[" + t.ListOf.String() + "]"
	} else {
		s = t.NamedType
	}
	if t.NonNull {
		s += "!"
	}
	return s
}

// UnwrappedName returns the innermost named type, stripping all list and
// non-null wrapping — the type pushed onto the parent-type-walker's stack.
func (t TypeRef) UnwrappedName() string {
	cur := t
	for cur.ListOf != nil {
		cur = *cur.ListOf
	}
	return cur.NamedType
}

// ArgumentInfo describes one field or directive argument.
type ArgumentInfo struct {
	Name         string
	Type         TypeRef
	Description  string
	DefaultValue string // rendered SDL literal, empty if none
	NameRange    syntax.ByteRange
}

// FieldInfo describes one field definition on an object, interface, or
// input-object type.
type FieldInfo struct {
	Name              string
	Type              TypeRef
	Description       string
	Deprecated        bool
	DeprecationReason string
	Arguments         []ArgumentInfo
	FileID            ids.FileID
	NameRange         syntax.ByteRange
	FullRange         syntax.ByteRange
}

// SchemaType is the merged view of a type across its base definition and
// any `extend type` blocks. FileID is the origin file of the base
// definition, or of the first extension seen if there is no base
// (IsVirtual).
type SchemaType struct {
	Name         string
	Kind         TypeKind
	Description  string
	Fields       map[string]*FieldInfo
	FieldOrder   []string
	Interfaces   []string
	UnionMembers []string
	EnumValues   []string
	FileID       ids.FileID
	NameRange    syntax.ByteRange
	FullRange    syntax.ByteRange
	IsVirtual    bool

	// ExtendedBy lists the file ids of every extension folded into this
	// type, in the order they were applied.
	ExtendedBy []ids.FileID
}

// Conflict records a structural disagreement detected while merging two
// definitions of the same type name, or two extensions disagreeing about
// a field already present. Per spec.md §4.5, the first-seen definition
// always wins; conflicts are reported to lints, never thrown.
type Conflict struct {
	TypeName string
	Category string // "kind", "field", "enum", "union"
	Detail   string
	FirstFileID       ids.FileID
	ConflictingFileID ids.FileID
}

// SchemaTypesResult is schema_types(project) from spec.md §4.5.
type SchemaTypesResult struct {
	Types     map[string]*SchemaType
	Conflicts []Conflict
}

// schemaFile pairs a file id with its parsed schema documents, already
// sorted by the caller so "first-seen" has a deterministic meaning.
type SchemaFile struct {
	FileID ids.FileID
	Docs   []*syntax.ParsedDocument
}

// BuildSchemaTypes is schema_types(project): scan every schema file's
// documents, collect base type definitions (first occurrence wins,
// conflicts recorded), then fold `extend type` blocks into their base —
// or synthesize a virtual entry when an extension has no base.
func BuildSchemaTypes(files []SchemaFile) *SchemaTypesResult {
	sorted := make([]SchemaFile, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].FileID < sorted[j].FileID })

	result := &SchemaTypesResult{Types: make(map[string]*SchemaType)}

	for _, sf := range sorted {
		for _, doc := range sf.Docs {
			if doc.SchemaDoc == nil {
				continue
			}
			for _, def := range doc.SchemaDoc.Definitions {
				result.addBaseDefinition(sf.FileID, doc, def)
			}
		}
	}

	for _, sf := range sorted {
		for _, doc := range sf.Docs {
			if doc.SchemaDoc == nil {
				continue
			}
			for _, ext := range doc.SchemaDoc.Extensions {
				result.applyExtension(sf.FileID, doc, ext)
			}
		}
	}

	return result
}

func (r *SchemaTypesResult) addBaseDefinition(fileID ids.FileID, doc *syntax.ParsedDocument, def *ast.Definition) {
	st := schemaTypeFromDefinition(fileID, doc, def)

	existing, ok := r.Types[def.Name]
	if !ok {
		r.Types[def.Name] = st
		return
	}
	if existing.IsVirtual {
		// A virtual entry (extension seen before its base) is replaced by
		// the real base, keeping the extension's contributions merged in.
		// The base's own fields must win on conflict, so merge the
		// virtual entry's fields into the base rather than the reverse.
		baseFields, baseOrder := st.Fields, st.FieldOrder
		for _, name := range existing.FieldOrder {
			if _, exists := baseFields[name]; !exists {
				baseFields[name] = existing.Fields[name]
				baseOrder = append(baseOrder, name)
			}
		}
		st.Fields, st.FieldOrder = baseFields, baseOrder
		*existing = *st
		existing.Interfaces = appendUnique(append([]string{}, st.Interfaces...), existing.Interfaces...)
		existing.UnionMembers = appendUnique(append([]string{}, st.UnionMembers...), existing.UnionMembers...)
		existing.EnumValues = appendUnique(append([]string{}, st.EnumValues...), existing.EnumValues...)
		existing.IsVirtual = false
		return
	}
	// Two base definitions with the same name: first-seen wins; record
	// the structural conflict for lints to report (spec.md §4.5).
	if c := detectTypeConflict(def.Name, existing, st); c != nil {
		r.Conflicts = append(r.Conflicts, *c)
	}
}

func (r *SchemaTypesResult) applyExtension(fileID ids.FileID, doc *syntax.ParsedDocument, ext *ast.Definition) {
	existing, ok := r.Types[ext.Name]
	if !ok {
		st := schemaTypeFromDefinition(fileID, doc, ext)
		st.IsVirtual = true
		r.Types[ext.Name] = st
		return
	}

	if existing.Kind != kindFromAST(ext.Kind) {
		r.Conflicts = append(r.Conflicts, Conflict{
			TypeName: ext.Name, Category: "kind",
			Detail:            fmt.Sprintf("extend type declares kind %s, base is %s", kindFromAST(ext.Kind), existing.Kind),
			FirstFileID:       existing.FileID,
			ConflictingFileID: fileID,
		})
		return
	}

	newFields, _ := fieldsFromDefinition(fileID, doc, ext)
	for _, name := range fieldOrderNames(newFields) {
		f := newFields[name]
		if existingField, exists := existing.Fields[name]; exists {
			if existingField.Type.String() != f.Type.String() {
				r.Conflicts = append(r.Conflicts, Conflict{
					TypeName: ext.Name, Category: "field",
					Detail:            fmt.Sprintf("extend type redeclares field %q with type %s, base declared %s", name, f.Type.String(), existingField.Type.String()),
					FirstFileID:       existing.FileID,
					ConflictingFileID: fileID,
				})
			}
			continue
		}
		existing.Fields[name] = f
		existing.FieldOrder = append(existing.FieldOrder, name)
	}
	existing.Interfaces = appendUnique(existing.Interfaces, ext.Interfaces...)
	existing.UnionMembers = appendUnique(existing.UnionMembers, ext.Types...)
	for _, ev := range ext.EnumValues {
		existing.EnumValues = appendUnique(existing.EnumValues, ev.Name)
	}
	existing.ExtendedBy = append(existing.ExtendedBy, fileID)
}

func fieldOrderNames(fields map[string]*FieldInfo) []string {
	names := make([]string, 0, len(fields))
	for n := range fields {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func appendUnique(dst []string, items ...string) []string {
	seen := make(map[string]bool, len(dst))
	for _, d := range dst {
		seen[d] = true
	}
	for _, item := range items {
		if !seen[item] {
			dst = append(dst, item)
			seen[item] = true
		}
	}
	return dst
}

func schemaTypeFromDefinition(fileID ids.FileID, doc *syntax.ParsedDocument, def *ast.Definition) *SchemaType {
	fields, order := fieldsFromDefinition(fileID, doc, def)

	enumValues := make([]string, 0, len(def.EnumValues))
	for _, ev := range def.EnumValues {
		enumValues = append(enumValues, ev.Name)
	}

	nameStart := positionOffset(doc, def.Position)
	nameRange := syntax.ByteRange{Start: nameStart, End: nameStart + len(def.Name)}

	return &SchemaType{
		Name:         def.Name,
		Kind:         kindFromAST(def.Kind),
		Description:  def.Description,
		Fields:       fields,
		FieldOrder:   order,
		Interfaces:   append([]string{}, def.Interfaces...),
		UnionMembers: append([]string{}, def.Types...),
		EnumValues:   enumValues,
		FileID:       fileID,
		NameRange:    nameRange,
		FullRange:    fullRangeFor(doc, nameStart),
	}
}

func fieldsFromDefinition(fileID ids.FileID, doc *syntax.ParsedDocument, def *ast.Definition) (map[string]*FieldInfo, []string) {
	fields := make(map[string]*FieldInfo, len(def.Fields))
	order := make([]string, 0, len(def.Fields))
	for _, fd := range def.Fields {
		fields[fd.Name] = fieldInfoFromAST(fileID, doc, fd)
		order = append(order, fd.Name)
	}
	return fields, order
}

func fieldInfoFromAST(fileID ids.FileID, doc *syntax.ParsedDocument, fd *ast.FieldDefinition) *FieldInfo {
	args := make([]ArgumentInfo, 0, len(fd.Arguments))
	for _, a := range fd.Arguments {
		argStart := positionOffset(doc, a.Position)
		args = append(args, ArgumentInfo{
			Name:        a.Name,
			Type:        typeRefFromAST(a.Type),
			Description: a.Description,
			NameRange:   syntax.ByteRange{Start: argStart, End: argStart + len(a.Name)},
		})
	}

	deprecated, reason := deprecationFromDirectives(fd.Directives)

	nameStart := positionOffset(doc, fd.Position)
	nameRange := syntax.ByteRange{Start: nameStart, End: nameStart + len(fd.Name)}

	return &FieldInfo{
		Name:              fd.Name,
		Type:              typeRefFromAST(fd.Type),
		Description:       fd.Description,
		Deprecated:        deprecated,
		DeprecationReason: reason,
		Arguments:         args,
		FileID:            fileID,
		NameRange:         nameRange,
		FullRange:         nameRange,
	}
}

func deprecationFromDirectives(directives ast.DirectiveList) (bool, string) {
	for _, d := range directives {
		if d.Name != "deprecated" {
			continue
		}
		reason := "No longer supported"
		for _, arg := range d.Arguments {
			if arg.Name == "reason" && arg.Value != nil {
				reason = strings.Trim(arg.Value.Raw, "\"")
			}
		}
		return true, reason
	}
	return false, ""
}

// positionOffset converts an ast.Position (1-based line/column) to a byte
// offset via the owning document's LineIndex. Returns 0 for a nil
// position (synthetic/built-in definitions).
func positionOffset(doc *syntax.ParsedDocument, pos *ast.Position) int {
	if pos == nil || doc == nil || doc.LineIndex == nil {
		return 0
	}
	offset, ok := doc.LineIndex.PositionToOffset(syntax.Position{Line: pos.Line - 1, Character: pos.Column - 1})
	if !ok {
		return 0
	}
	return offset
}

// fullRangeFor approximates a definition's full span by scanning forward
// from its name for a balanced `{ ... }` body; definitions without a body
// (scalars, union member lists on one line) fall back to the rest of
// their source line.
func fullRangeFor(doc *syntax.ParsedDocument, nameStart int) syntax.ByteRange {
	if doc == nil || doc.Source == nil {
		return syntax.ByteRange{Start: nameStart, End: nameStart}
	}
	src := doc.Source.Input
	braceStart := -1
	lineEnd := len(src)
	for i := nameStart; i < len(src); i++ {
		if src[i] == '\n' && braceStart < 0 {
			lineEnd = i
			break
		}
		if src[i] == '{' {
			braceStart = i
			break
		}
	}
	if braceStart < 0 {
		return syntax.ByteRange{Start: nameStart, End: lineEnd}
	}
	depth := 0
	for i := braceStart; i < len(src); i++ {
		switch src[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return syntax.ByteRange{Start: nameStart, End: i + 1}
			}
		}
	}
	return syntax.ByteRange{Start: nameStart, End: len(src)}
}

func detectTypeConflict(name string, left, right *SchemaType) *Conflict {
	if left.Kind != right.Kind {
		return &Conflict{
			TypeName: name, Category: "kind",
			Detail:            fmt.Sprintf("redeclared with kind %s, first declared as %s", right.Kind, left.Kind),
			FirstFileID:       left.FileID,
			ConflictingFileID: right.FileID,
		}
	}
	switch left.Kind {
	case KindEnum:
		if !stringSliceEqualUnordered(left.EnumValues, right.EnumValues) {
			return &Conflict{TypeName: name, Category: "enum", Detail: "enum value sets differ between declarations", FirstFileID: left.FileID, ConflictingFileID: right.FileID}
		}
	case KindUnion:
		if !stringSliceEqualUnordered(left.UnionMembers, right.UnionMembers) {
			return &Conflict{TypeName: name, Category: "union", Detail: "union member sets differ between declarations", FirstFileID: left.FileID, ConflictingFileID: right.FileID}
		}
	case KindObject, KindInterface, KindInputObject:
		for fname, rf := range right.Fields {
			lf, ok := left.Fields[fname]
			if ok && lf.Type.String() != rf.Type.String() {
				return &Conflict{
					TypeName: name, Category: "field",
					Detail:            fmt.Sprintf("field %q redeclared with type %s, first declared as %s", fname, rf.Type.String(), lf.Type.String()),
					FirstFileID:       left.FileID,
					ConflictingFileID: right.FileID,
				}
			}
		}
	}
	return nil
}

func stringSliceEqualUnordered(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[string]int, len(a))
	for _, s := range a {
		counts[s]++
	}
	for _, s := range b {
		counts[s]--
	}
	for _, c := range counts {
		if c != 0 {
			return false
		}
	}
	return true
}
