package v2

import (
	"fmt"
	"sync"
)

// SchemaConstraint is the compiled form of one schema: spec.md §3's
// SchemaConstraint. It is immutable once built and safe to share across
// concurrent evaluations.
type SchemaConstraint struct {
	Source *Schema
	// A SchemaConstraint's identity is the Schema it was compiled from,
	// nothing else: neither instance location nor evaluation path are part
	// of it, since both are purely runtime concerns (see evaluator.go). A
	// schema reached through a $ref cycle compiles exactly once and is
	// shared, by pointer, across every site that reaches it.
	//
	// InstancePrefix is carried alongside purely as a convenience for
	// keywords that need to hand the same prefix on to a child compile
	// (e.g. $ref, $dynamicRef) or a sibling evaluator; it is constant for
	// every compile reached from a given Compile() root (see compiler.go's
	// compileChild) and plays no part in a SchemaConstraint's identity.
	InstancePrefix Pointer
	Keywords       []KeywordConstraint // priority order

	alwaysFail  bool // boolean-false schema shortcut
	alwaysValid bool // boolean-true schema shortcut

	fromSchema *Schema
}

// CompileContext threads compile-time configuration and shared state
// through the recursive compiler.
type CompileContext struct {
	Options     *Options
	Registry    *Registry
	registryDef *KeywordRegistry

	compiler *compilerState
}

// compilerState owns the memoization cache and arena described in
// spec.md §9 (cyclic schema graphs via stable indices instead of owning
// references): a schema is compiled exactly once, keyed by its own pointer
// identity, so a $ref cycle reuses the same *SchemaConstraint instead of
// recursing forever.
type compilerState struct {
	mu      sync.Mutex
	byKey   map[string]*SchemaConstraint
	pending map[string]bool
}

func newCompilerState() *compilerState {
	return &compilerState{byKey: map[string]*SchemaConstraint{}, pending: map[string]bool{}}
}

func constraintKey(s *Schema, instancePrefix Pointer) string {
	return fmt.Sprintf("%p@%s", s, instancePrefix.String())
}

// UnrecognizedKeyword always evaluates to "valid, annotation = raw value",
// per spec.md §4.B: unrecognized keywords must round-trip.
type unrecognizedKeyword struct {
	name string
	raw  any
}

func (u *unrecognizedKeyword) Name() string { return u.name }
func (u *unrecognizedKeyword) Evaluate(ev *Evaluation, ec *EvalContext) {
	ev.SetAnnotation(u.name, u.raw)
}
