package feature

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/kestrelgql/gqlintel/internal/hir"
	"github.com/kestrelgql/gqlintel/internal/ids"
	"github.com/kestrelgql/gqlintel/internal/syntax"
)

// SymbolEntryKind distinguishes symbol entries by what they name.
type SymbolEntryKind int

const (
	SymbolEntryType SymbolEntryKind = iota
	SymbolEntryField
	SymbolEntryOperation
	SymbolEntryFragment
)

// DocSymbol is one node of a file's hierarchical outline: a type with its
// field children, or a standalone operation/fragment entry.
type DocSymbol struct {
	Name      string
	Kind      SymbolEntryKind
	NameRange syntax.ByteRange
	FullRange syntax.ByteRange
	Children  []DocSymbol
}

// WorkspaceSymbol is one flat, project-wide symbol search result.
type WorkspaceSymbol struct {
	Name   string
	Kind   SymbolEntryKind
	FileID ids.FileID
	Range  syntax.ByteRange
}

// DocumentSymbols builds file's hierarchical outline via
// hir.BuildFileStructure: types with field children, then operations, then
// fragments, per spec.md §4.7.
func DocumentSymbols(ctx *Context, file ids.FileID) []DocSymbol {
	structure := hir.BuildFileStructure(file, ctx.docsFor(file))

	var out []DocSymbol
	for _, t := range structure.Types {
		sym := DocSymbol{Name: t.Name, Kind: SymbolEntryType, NameRange: t.NameRange, FullRange: t.FullRange}
		for _, f := range t.Fields {
			sym.Children = append(sym.Children, DocSymbol{Name: f.Name, Kind: SymbolEntryField, NameRange: f.NameRange})
		}
		out = append(out, sym)
	}
	for _, op := range structure.Operations {
		out = append(out, DocSymbol{Name: op.Name, Kind: SymbolEntryOperation, NameRange: op.NameRange, FullRange: op.FullRange})
	}
	for _, frag := range structure.Fragments {
		out = append(out, DocSymbol{Name: frag.Name, Kind: SymbolEntryFragment, NameRange: frag.NameRange, FullRange: frag.FullRange})
	}
	return out
}

// WorkspaceSymbols is a flat, case-insensitive substring search over type,
// fragment, and named-operation symbols across the project. query is
// matched as a substring; an empty query returns every symbol. Matches are
// ranked by Levenshtein distance to query so near-matches sort first.
func WorkspaceSymbols(ctx *Context, query string) []WorkspaceSymbol {
	var candidates []WorkspaceSymbol
	for name, t := range ctx.Types {
		candidates = append(candidates, WorkspaceSymbol{Name: name, Kind: SymbolEntryType, FileID: t.FileID, Range: t.NameRange})
	}
	for name, frag := range ctx.Fragments {
		candidates = append(candidates, WorkspaceSymbol{Name: name, Kind: SymbolEntryFragment, FileID: frag.FileID, Range: frag.NameRange})
	}
	for _, op := range ctx.Operations {
		if op.Name != "" {
			candidates = append(candidates, WorkspaceSymbol{Name: op.Name, Kind: SymbolEntryOperation, FileID: op.FileID, Range: op.NameRange})
		}
	}

	lowerQuery := strings.ToLower(query)
	var matched []WorkspaceSymbol
	for _, c := range candidates {
		if lowerQuery == "" || strings.Contains(strings.ToLower(c.Name), lowerQuery) {
			matched = append(matched, c)
		}
	}
	if lowerQuery != "" {
		sortByLevenshtein(matched, lowerQuery)
	}
	return matched
}

func sortByLevenshtein(items []WorkspaceSymbol, query string) {
	dist := make([]int, len(items))
	for i, it := range items {
		dist[i] = levenshtein.ComputeDistance(strings.ToLower(it.Name), query)
	}
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && dist[j-1] > dist[j]; j-- {
			items[j-1], items[j] = items[j], items[j-1]
			dist[j-1], dist[j] = dist[j], dist[j-1]
		}
	}
}
