package baf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// BuildTOML parses a TOML source file into a value tree and builds model
// from it. The source file's directory becomes the build's root path unless
// an explicit WithRootPath option overrides it.
func BuildTOML(ctx context.Context, model Model, path string, opts ...Option) (Datum, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Kind: IOError, Message: err.Error(), Cause: err}
	}
	var raw map[string]any
	if err := toml.Unmarshal(src, &raw); err != nil {
		return nil, &Error{Kind: ParseError, Message: fmt.Sprintf("malformed TOML in %s: %v", path, err), Cause: err}
	}
	value, err := nativeToValue(raw)
	if err != nil {
		return nil, err
	}
	return Build(ctx, model, value, withSourceDir(path, opts)...)
}

// BuildJSON parses a JSON source file into a value tree and builds model
// from it. Numbers keep full precision through cty; JSON null maps to a
// null value, which Optional fields accept as absent.
func BuildJSON(ctx context.Context, model Model, path string, opts ...Option) (Datum, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Kind: IOError, Message: err.Error(), Cause: err}
	}
	ty, err := ctyjson.ImpliedType(src)
	if err != nil {
		return nil, &Error{Kind: ParseError, Message: fmt.Sprintf("malformed JSON in %s: %v", path, err), Cause: err}
	}
	value, err := ctyjson.Unmarshal(src, ty)
	if err != nil {
		return nil, &Error{Kind: ParseError, Message: fmt.Sprintf("malformed JSON in %s: %v", path, err), Cause: err}
	}
	return Build(ctx, model, value, withSourceDir(path, opts)...)
}

// BuildHCL parses an HCL source file whose top-level attributes form the
// input mapping and builds model from it. Attribute expressions must be
// constant; they evaluate with no variable scope.
func BuildHCL(ctx context.Context, model Model, path string, opts ...Option) (Datum, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, &Error{Kind: ParseError, Message: fmt.Sprintf("failed to parse HCL file %s: %s", path, diags.Error()), Cause: diags}
	}
	attrs, diags := file.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, &Error{Kind: ParseError, Message: fmt.Sprintf("failed to decode HCL file %s: %s", path, diags.Error()), Cause: diags}
	}
	vals := make(map[string]cty.Value, len(attrs))
	for name, attribute := range attrs {
		v, diags := attribute.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, &Error{Kind: ParseError, Message: fmt.Sprintf("failed to evaluate attribute %q in %s: %s", name, path, diags.Error()), Cause: diags}
		}
		vals[name] = v
	}
	value := cty.EmptyObjectVal
	if len(vals) > 0 {
		value = cty.ObjectVal(vals)
	}
	return Build(ctx, model, value, withSourceDir(path, opts)...)
}

// withSourceDir prepends a root-path default so explicit options still win.
func withSourceDir(path string, opts []Option) []Option {
	dir := filepath.Dir(path)
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return append([]Option{WithRootPath(dir)}, opts...)
}
