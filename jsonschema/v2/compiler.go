package v2

import (
	"fmt"
)

// Compiler is the constraint compiler of spec.md §4.D: it translates a
// Schema DOM into a SchemaConstraint graph for a given set of evaluation
// options, honoring keyword priority and sibling/child dependencies.
type Compiler struct {
	Options  *Options
	Registry *Registry
	Keywords *KeywordRegistry

	state *compilerState
}

// NewCompiler builds a Compiler from functional options.
func NewCompiler(opts ...Option) *Compiler {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.Registry == nil {
		o.Registry = NewRegistry()
	}
	if o.KeywordRegistry == nil {
		o.KeywordRegistry = DefaultRegistry()
	}
	return &Compiler{Options: o, Registry: o.Registry, Keywords: o.KeywordRegistry, state: newCompilerState()}
}

// Compile builds the constraint graph rooted at schema, for evaluation
// against instances anchored at the document root ("" instance prefix).
func (c *Compiler) Compile(schema *Schema) (*SchemaConstraint, error) {
	draft, err := DetectDraft(c.Options.Draft, schema.SchemaURI, c.Options.AllowUnknownDraft, c.Registry.DefaultDraft)
	if err != nil {
		return nil, err
	}
	dialect := NewDialect(draft)
	assignDialect(schema, dialect)
	if err := rejectMixedRecursionStyles(schema); err != nil {
		return nil, err
	}
	ctx := &CompileContext{Options: c.Options, Registry: c.Registry, registryDef: c.Keywords, compiler: c.state}
	return ctx.compile(schema, Pointer{})
}

// assignDialect propagates the detected dialect through the whole Schema
// DOM. A nested resource with its own $schema could in principle declare a
// different draft, but mixed-draft documents are rare enough in practice
// that this package resolves one dialect per compile, matching the
// teacher's own single-pass compileSchema.
func assignDialect(s *Schema, dialect *Dialect) {
	if s == nil || s.Boolean != nil {
		return
	}
	s.Dialect = dialect
	for _, child := range s.Single {
		assignDialect(child, dialect)
	}
	for _, list := range s.List {
		for _, child := range list {
			assignDialect(child, dialect)
		}
	}
	for _, m := range s.Map {
		for _, child := range m {
			assignDialect(child, dialect)
		}
	}
}

// rejectMixedRecursionStyles implements the Open Question decision recorded
// in SPEC_FULL.md: $recursiveRef/$recursiveAnchor (2019-09) may not coexist
// with $dynamicRef/$dynamicAnchor (2020-12+). It inspects only the root
// schema's own keywords; a mix spread across nested sub-schemas is not
// detected.
func rejectMixedRecursionStyles(s *Schema) error {
	hasRecursive := s.RecursiveAnchor
	hasDynamic := s.DynamicAnchor != ""
	if raw, ok := s.Raw["$recursiveRef"]; ok && raw != nil {
		hasRecursive = true
	}
	if raw, ok := s.Raw["$dynamicRef"]; ok && raw != nil {
		hasDynamic = true
	}
	if hasRecursive && hasDynamic {
		return &DraftIncompatibleError{Keyword: "$recursiveRef/$dynamicRef", Draft: s.Dialect.Draft, SchemaLocation: s.SchemaLocation(), Reason: "a schema resource may not mix $recursiveRef/$recursiveAnchor with $dynamicRef/$dynamicAnchor"}
	}
	return nil
}

// compile implements spec.md §4.D's algorithm, memoized per
// (schema-identity, instance-location-prefix) so a $ref cycle reuses one
// SchemaConstraint instead of recursing forever at compile time.
func (ctx *CompileContext) compile(s *Schema, instancePrefix Pointer) (*SchemaConstraint, error) {
	key := constraintKey(s, instancePrefix)

	ctx.compiler.mu.Lock()
	if existing, ok := ctx.compiler.byKey[key]; ok {
		ctx.compiler.mu.Unlock()
		return existing, nil
	}
	if ctx.compiler.pending[key] {
		// A $ref cycle reached back here before the first pass finished:
		// hand back a placeholder now; the first pass fills it in in place
		// once compileUncached returns, so every holder of this pointer
		// sees the completed Keywords slice by the time evaluation runs.
		placeholder := &SchemaConstraint{Source: s, InstancePrefix: instancePrefix, fromSchema: s}
		ctx.compiler.byKey[key] = placeholder
		ctx.compiler.mu.Unlock()
		return placeholder, nil
	}
	ctx.compiler.pending[key] = true
	ctx.compiler.mu.Unlock()

	sc, err := ctx.compileUncached(s, instancePrefix)

	ctx.compiler.mu.Lock()
	delete(ctx.compiler.pending, key)
	if err == nil {
		if placeholder, ok := ctx.compiler.byKey[key]; ok && placeholder != sc {
			*placeholder = *sc
			sc = placeholder
		} else {
			ctx.compiler.byKey[key] = sc
		}
	}
	ctx.compiler.mu.Unlock()
	return sc, err
}

func (ctx *CompileContext) compileUncached(s *Schema, instancePrefix Pointer) (*SchemaConstraint, error) {
	sc := &SchemaConstraint{Source: s, InstancePrefix: instancePrefix, fromSchema: s}

	if s.Boolean != nil {
		if *s.Boolean {
			sc.alwaysValid = true
		} else {
			sc.alwaysFail = true
		}
		return sc, nil
	}

	dialect := s.Dialect
	active := ctx.registryDef.ActiveNames(s.Raw, dialect)

	siblings := map[string]KeywordConstraint{}
	ordered := make([]KeywordConstraint, 0, len(active))
	for _, name := range active {
		def, _ := ctx.registryDef.Lookup(name, dialect)
		kc, err := def.Compile(s.Raw[name], s, sc, siblings, ctx)
		if err != nil {
			return nil, fmt.Errorf("error compiling %s at %s: %w", name, s.SchemaLocation(), err)
		}
		if kc == nil {
			continue // e.g. bookkeeping-only keywords like $id/$defs
		}
		siblings[name] = kc
		ordered = append(ordered, kc)
	}

	// Unrecognized keywords always round-trip as annotations, at the lowest
	// priority so they never shadow a real keyword's own annotation.
	for name, raw := range s.Raw {
		if isCoreBookkeeping(name) {
			continue
		}
		if _, already := siblings[name]; already {
			continue
		}
		if _, active := ctx.registryDef.Lookup(name, dialect); active {
			continue // registered and active but compiled to nothing (e.g. then/else): drop silently
		}
		ordered = append(ordered, &unrecognizedKeyword{name: name, raw: raw})
	}

	sc.Keywords = ordered
	return sc, nil
}

func isCoreBookkeeping(name string) bool {
	switch name {
	case "$id", "$schema", "$anchor", "$dynamicAnchor", "$recursiveAnchor", "$comment", "$vocabulary", "$defs", "definitions":
		return true
	}
	return false
}

// compileChild compiles a direct sub-schema reached via an applicator
// keyword at a given instance-location prefix.
func (ctx *CompileContext) compileChild(child *Schema, instancePrefix Pointer) (*SchemaConstraint, error) {
	return ctx.compile(child, instancePrefix)
}
