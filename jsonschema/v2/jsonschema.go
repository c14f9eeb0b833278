package v2

import (
	"context"
	"net/url"

	goccyjson "github.com/goccy/go-json"
)

// CompiledSchema is the public result of Compile: a constraint graph ready
// to evaluate against any number of instances, safe for concurrent use by
// multiple goroutines (spec.md §5).
type CompiledSchema struct {
	root     *SchemaConstraint
	options  *Options
	registry *Registry
}

// Compile parses and compiles a schema document into a CompiledSchema. raw
// is the result of unmarshaling the schema's JSON text into `any`
// (map[string]any/[]any/...); use CompileBytes to go straight from JSON
// text instead.
func Compile(raw any, opts ...Option) (*CompiledSchema, error) {
	compiler := NewCompiler(opts...)
	s, err := DeserializeSchema(raw, compiler.Registry, nil, nil, Pointer{}, nil)
	if err != nil {
		return nil, err
	}
	root, err := compiler.Compile(s)
	if err != nil {
		return nil, err
	}
	return &CompiledSchema{root: root, options: compiler.Options, registry: compiler.Registry}, nil
}

// CompileBytes decodes schema JSON text with goccy/go-json and compiles it.
// This package cannot depend on the root json package's swappable
// marshaler/unmarshaler (the root package itself depends on jsonschema/v2
// for scheme-based validation), so the backend here is fixed; callers who
// need a different unmarshaler should decode the schema themselves and call
// Compile with the resulting value, the way cmd/jsonschema-cli's -fast-json
// flag does.
func CompileBytes(schema []byte, opts ...Option) (*CompiledSchema, error) {
	var raw any
	if err := goccyjson.Unmarshal(schema, &raw); err != nil {
		return nil, &SchemaParseError{Msg: "invalid schema JSON: " + err.Error()}
	}
	return Compile(raw, opts...)
}

// CompileString is a convenience wrapper around CompileBytes.
func CompileString(schema string, opts ...Option) (*CompiledSchema, error) {
	return CompileBytes([]byte(schema), opts...)
}

// CompileFromURI registers base as the document's own URI before compiling,
// so relative $refs inside it resolve against base instead of failing with
// an unresolved-reference error.
func CompileFromURI(base string, raw any, opts ...Option) (*CompiledSchema, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, &SchemaParseError{Msg: "invalid base URI: " + err.Error()}
	}
	compiler := NewCompiler(opts...)
	s, err := DeserializeSchema(raw, compiler.Registry, nil, u, Pointer{}, nil)
	if err != nil {
		return nil, err
	}
	compiler.Registry.Register(base, s)
	root, err := compiler.Compile(s)
	if err != nil {
		return nil, err
	}
	return &CompiledSchema{root: root, options: compiler.Options, registry: compiler.Registry}, nil
}

// Evaluate runs the compiled schema against instance, returning the raw
// Evaluation tree. Most callers want Validate or the Output-producing
// evaluate-and-format helpers below instead.
func (c *CompiledSchema) Evaluate(instance any) *Evaluation {
	return c.EvaluateContext(context.Background(), instance)
}

// EvaluateContext is Evaluate with a caller-supplied cancellation context,
// checked between keyword evaluations per spec.md §5.
func (c *CompiledSchema) EvaluateContext(ctx context.Context, instance any) *Evaluation {
	ec := newEvalContext(c.options, c.registry, ctx)
	return Evaluate(c.root, instance, Pointer{}, Pointer{}, ec)
}

// Output evaluates instance and formats the result per the compiled
// schema's configured OutputFormat.
func (c *CompiledSchema) Output(instance any) *Output {
	return FormatOutput(c.Evaluate(instance), c.options.OutputFormat)
}

// OutputAs evaluates instance and formats the result as format, overriding
// whatever OutputFormat was configured at compile time.
func (c *CompiledSchema) OutputAs(instance any, format OutputFormat) *Output {
	return FormatOutput(c.Evaluate(instance), format)
}

// Validate is the common case: true/false plus the first error message, for
// callers who don't need the full annotation tree.
func (c *CompiledSchema) Validate(instance any) (bool, string) {
	ev := c.Evaluate(instance)
	if ev.Valid {
		return true, ""
	}
	return false, firstError(ev)
}

func firstError(ev *Evaluation) string {
	if len(ev.Errors) > 0 {
		return ev.Errors[0]
	}
	for _, child := range ev.Children {
		if !child.Valid {
			return firstError(child)
		}
	}
	return "validation failed"
}

// Registry exposes the reference registry backing this compiled schema, so
// callers can pre-register additional schema resources or install a fetch
// hook before compiling dependents.
func (c *CompiledSchema) Registry() *Registry { return c.registry }
