package feature

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/kestrelgql/gqlintel/internal/hir"
	"github.com/kestrelgql/gqlintel/internal/ids"
	"github.com/kestrelgql/gqlintel/internal/lint"
	"github.com/kestrelgql/gqlintel/internal/syntax"
)

// CodeLens is one "N references" / "deprecated, used M times" annotation
// anchored to a declaration site, per spec.md §4.8.
type CodeLens struct {
	Range   syntax.ByteRange
	Title   string
	FileID  ids.FileID
	Targets []Location
}

// CodeLenses returns every code lens for file: a usage-count lens on each
// fragment definition, and a deprecation lens (with usage count and every
// usage site) on each deprecated field defined in the file.
func CodeLenses(ctx *Context, file ids.FileID) []CodeLens {
	var out []CodeLens
	out = append(out, fragmentUsageLenses(ctx, file)...)
	out = append(out, deprecatedFieldLenses(ctx, file)...)
	return out
}

func fragmentUsageLenses(ctx *Context, file ids.FileID) []CodeLens {
	reachCounts := fragmentUsageCounts(ctx)

	var out []CodeLens
	for name, frag := range ctx.Fragments {
		if frag.FileID != file {
			continue
		}
		count := reachCounts[name]
		refs := findFragmentReferences(ctx, name)
		out = append(out, CodeLens{
			Range:   frag.NameRange,
			Title:   fmt.Sprintf("%d usage(s)", count),
			FileID:  file,
			Targets: refs.Usages,
		})
	}
	return out
}

// fragmentUsageCounts counts, per fragment name, how many distinct
// operations transitively spread it — the same reachability relation
// lint.NoUnusedFragmentRule builds, recomputed here from FragmentSpreads
// since codelens needs per-fragment counts rather than a single
// reachable-or-not boolean.
func fragmentUsageCounts(ctx *Context) map[string]int {
	counts := map[string]int{}
	for _, op := range ctx.Operations {
		visited := map[string]bool{}
		var visit func(name string)
		visit = func(name string) {
			if visited[name] {
				return
			}
			visited[name] = true
			counts[name]++
			for spread := range ctx.FragmentSpreads[name] {
				visit(spread)
			}
		}
		for spread := range operationSpreadNames(op) {
			visit(spread)
		}
	}
	return counts
}

// operationSpreadNames collects the fragment names spread directly in op's
// own selection set (one level, not transitively) — mirrors
// internal/lint's own unexported operationSpreads helper.
func operationSpreadNames(op *hir.OperationStructure) map[string]bool {
	out := map[string]bool{}
	var walk func(sel ast.SelectionSet)
	walk = func(sel ast.SelectionSet) {
		for _, s := range sel {
			switch v := s.(type) {
			case *ast.Field:
				walk(v.SelectionSet)
			case *ast.FragmentSpread:
				out[v.Name] = true
			case *ast.InlineFragment:
				walk(v.SelectionSet)
			}
		}
	}
	walk(op.SelectionSet)
	return out
}

func deprecatedFieldLenses(ctx *Context, file ids.FileID) []CodeLens {
	var out []CodeLens
	for typeName, t := range ctx.Types {
		for _, fieldName := range t.FieldOrder {
			f := t.Fields[fieldName]
			if !f.Deprecated || f.FileID != file {
				continue
			}
			usage := lint.UsageFor(ctx.FieldUsage, ctx.Implementers, typeName, fieldName)
			title := "deprecated, 0 usage(s)"
			if usage != nil {
				title = fmt.Sprintf("deprecated, %d usage(s)", usage.Count)
			}
			refs := findFieldReferences(ctx, typeName, fieldName)
			out = append(out, CodeLens{
				Range:   f.NameRange,
				Title:   title,
				FileID:  file,
				Targets: refs.Usages,
			})
		}
	}
	return out
}
