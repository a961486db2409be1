package extract

import (
	"fmt"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/kestrelgql/gqlintel/internal/registry"
)

// ValidationError is a host-language syntax error surfaced before
// extraction bothers scanning a file for template literals, so an
// unparsable .tsx file reports "this TypeScript is broken" instead of
// "no GraphQL found here" or, worse, a scanner running off the rails on
// malformed input.
type ValidationError struct {
	Line    int
	Column  int
	Message string
}

// ESBuildValidator runs the host file through esbuild's transform step,
// discarding the output and keeping only diagnostics. Grounded on the
// teacher's pkg/config/typescript_loader.go, which uses the very same
// api.Transform call to turn a .ts config file into executable JS; here it
// is reused purely for its syntax-checking side effect.
type ESBuildValidator struct{}

// NewESBuildValidator returns a ready-to-use validator.
func NewESBuildValidator() *ESBuildValidator {
	return &ESBuildValidator{}
}

// Validate returns the syntax errors esbuild reports for source, treating
// it as TypeScript/JSX or plain JavaScript/JSX depending on language. A
// pure GraphQL file is never passed here — callers gate on
// Extractor.CanExtract first.
func (v *ESBuildValidator) Validate(source string, language registry.Language) []ValidationError {
	loader := api.LoaderJS
	if language == registry.LanguageTypeScript {
		loader = api.LoaderTSX
	} else if language == registry.LanguageJavaScript {
		loader = api.LoaderJSX
	}

	result := api.Transform(source, api.TransformOptions{
		Loader: loader,
		Target: api.ES2020,
	})

	if len(result.Errors) == 0 {
		return nil
	}

	out := make([]ValidationError, 0, len(result.Errors))
	for _, e := range result.Errors {
		ve := ValidationError{Message: formatEsbuildMessage(e)}
		if e.Location != nil {
			ve.Line = e.Location.Line
			ve.Column = e.Location.Column
		}
		out = append(out, ve)
	}
	return out
}

func formatEsbuildMessage(msg api.Message) string {
	if msg.Location == nil {
		return msg.Text
	}
	return fmt.Sprintf("%s: %s", msg.Location.File, msg.Text)
}
