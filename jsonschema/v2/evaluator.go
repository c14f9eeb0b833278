package v2

import (
	"context"
	"fmt"
)

// Evaluation is the raw result tree produced by evaluating one
// SchemaConstraint against one instance location (spec.md §3's
// "Evaluation"/"AnnotationEntry"). It carries both annotations and failures
// so output formatters can derive any of the four standard shapes from it.
type Evaluation struct {
	EvaluationPath   Pointer
	SchemaLocation   string
	InstanceLocation Pointer
	Instance         any

	Annotations map[string]any
	Valid       bool
	Errors      []string

	// Children holds every nested Evaluation produced while evaluating this
	// node's keywords — sub-schema applications (properties/items/allOf/...)
	// and $ref/$dynamicRef/$recursiveRef jumps alike. The one exception is
	// "not", whose sub-evaluation is run but not recorded here.
	Children []*Evaluation

	keywordValid map[string]bool // per-keyword outcome, used by gather()

	// internal carries bookkeeping values passed between two keywords of the
	// same schema (e.g. contains' match count read by minContains/
	// maxContains) that must never surface in a formatted Output document,
	// unlike Annotations.
	internal map[string]any
}

func newEvaluation(sc *SchemaConstraint, instance any, instanceLoc, evalPath Pointer) *Evaluation {
	return &Evaluation{
		EvaluationPath:   evalPath,
		SchemaLocation:   sc.Source.SchemaLocation(),
		InstanceLocation: instanceLoc,
		Instance:         instance,
		Annotations:      map[string]any{},
		Valid:            true,
		keywordValid:     map[string]bool{},
	}
}

// setInternal records a value under the internal (non-output) side-channel.
func (ev *Evaluation) setInternal(key string, value any) {
	if ev.internal == nil {
		ev.internal = map[string]any{}
	}
	ev.internal[key] = value
}

// getInternal reads a value recorded by setInternal, or (nil, false).
func (ev *Evaluation) getInternal(key string) (any, bool) {
	if ev.internal == nil {
		return nil, false
	}
	v, ok := ev.internal[key]
	return v, ok
}

// SetAnnotation records a successful keyword's annotation value.
func (ev *Evaluation) SetAnnotation(keyword string, value any) {
	ev.Annotations[keyword] = value
	ev.keywordValid[keyword] = true
}

// Fail records a keyword failure; it marks the whole node invalid but never
// removes an annotation already recorded by an earlier (lower-priority)
// keyword — annotations from the raw tree are preserved even under a failed
// parent, per spec.md §4.E, and it is the output formatter's job to decide
// whether to surface them.
func (ev *Evaluation) Fail(keyword string, format string, args ...any) {
	ev.Valid = false
	ev.keywordValid[keyword] = false
	ev.Errors = append(ev.Errors, fmt.Sprintf("%s: %s", keyword, fmt.Sprintf(format, args...)))
}

// AddChild appends a nested Evaluation and folds its validity into ev's own
// when the caller says it must (allOf and the $ref/$dynamicRef/$recursiveRef
// keywords do; the other applicators pass false and record their own
// keyword failure with Fail when a child they require is invalid).
func (ev *Evaluation) AddChild(child *Evaluation, mustBeValid bool) {
	ev.Children = append(ev.Children, child)
	if mustBeValid && !child.Valid {
		ev.Valid = false
	}
}

// Gather implements spec.md §4.E's annotation-gather operation: it collects
// every annotation value recorded under keyword by this node's *valid*
// children (recursively, since nested applicators like allOf/$ref/if-then
// must also contribute), plus its own if present and valid. Used by
// unevaluatedProperties/unevaluatedItems.
func (ev *Evaluation) Gather(keyword string) []any {
	var out []any
	if ev.keywordValid[keyword] {
		if v, ok := ev.Annotations[keyword]; ok {
			out = append(out, v)
		}
	}
	for _, child := range ev.Children {
		if !child.Valid {
			continue
		}
		out = append(out, child.Gather(keyword)...)
	}
	return out
}

// EvaluatedProperties returns the union of property names annotated by
// "properties", "patternProperties", "additionalProperties" and
// "unevaluatedProperties" across this node and its valid children.
func (ev *Evaluation) EvaluatedProperties() map[string]bool {
	out := map[string]bool{}
	for _, kw := range []string{"properties", "patternProperties", "additionalProperties", "unevaluatedProperties"} {
		for _, v := range ev.Gather(kw) {
			addStringSet(out, v)
		}
	}
	return out
}

// EvaluatedItemCount returns the largest "how many leading items were
// evaluated" annotation gathered from "prefixItems", "items" (array-form),
// "additionalItems" and "unevaluatedItems" across this node and its valid
// children. -1 means "all items", reported when any of them annotated true
// (single-schema items, additionalItems, unevaluatedItems). "contains" is not
// consulted: its annotation is a match count, not a number of leading items.
func (ev *Evaluation) EvaluatedItemCount() int {
	max := 0
	all := false
	for _, kw := range []string{"prefixItems", "items", "additionalItems", "unevaluatedItems"} {
		for _, v := range ev.Gather(kw) {
			switch n := v.(type) {
			case int:
				if n > max {
					max = n
				}
			case bool:
				if n {
					all = true
				}
			}
		}
	}
	if all {
		return -1
	}
	return max
}

func addStringSet(dst map[string]bool, v any) {
	switch t := v.(type) {
	case []string:
		for _, s := range t {
			dst[s] = true
		}
	case map[string]bool:
		for s := range t {
			dst[s] = true
		}
	}
}

// EvalContext threads per-call evaluation state: the short-circuit mode, the
// dynamic scope stack consulted by $dynamicRef/$recursiveRef, and a
// cancellation signal checked between keyword evaluations (spec.md §5).
type EvalContext struct {
	Options      *Options
	Registry     *Registry
	ShortCircuit ShortCircuitMode
	Context      context.Context

	dynamicScope []*Schema

	// active tracks (schema, instance-location) pairs currently being
	// evaluated along the current recursion path, so a $ref cycle that
	// makes no progress into the instance (spec.md §8's "{\"$ref\":\"#\"}"
	// boundary) is caught instead of recursing forever.
	active map[string]bool
}

func newEvalContext(opts *Options, reg *Registry, ctx context.Context) *EvalContext {
	if ctx == nil {
		ctx = context.Background()
	}
	return &EvalContext{Options: opts, Registry: reg, ShortCircuit: opts.ShortCircuit, Context: ctx}
}

func (ec *EvalContext) pushDynamicScope(s *Schema) func() {
	ec.dynamicScope = append(ec.dynamicScope, s)
	n := len(ec.dynamicScope)
	return func() { ec.dynamicScope = ec.dynamicScope[:n-1] }
}

// Evaluate runs sc against instance at instanceLoc, with evalPath the
// schema-location trail (through any $ref hops) that led here, implementing
// spec.md §4.E's main recursive algorithm: keywords run in the
// SchemaConstraint's priority order, each reading sibling annotations
// already written to ev and writing its own before the next keyword runs.
func Evaluate(sc *SchemaConstraint, instance any, instanceLoc, evalPath Pointer, ec *EvalContext) *Evaluation {
	ev := newEvaluation(sc, instance, instanceLoc, evalPath)

	select {
	case <-ec.Context.Done():
		ev.Valid = false
		ev.Errors = append(ev.Errors, (&Cancelled{EvaluationPath: evalPath.String()}).Error())
		return ev
	default:
	}

	if sc.alwaysFail {
		ev.Valid = false
		ev.Errors = append(ev.Errors, "schema is `false`: no instance is valid")
		return ev
	}
	if sc.alwaysValid {
		return ev
	}

	// A $ref/$dynamicRef/$recursiveRef cycle that lands back on the same
	// schema at the same instance location with no intervening progress
	// (e.g. {"$ref":"#"} applied to itself) would otherwise recurse
	// unboundedly. Since such a cycle consumes no more of the instance, it
	// can add no further constraint beyond what the outer call already
	// found, so the repeat is reported trivially valid instead of re-run.
	guardKey := fmt.Sprintf("%p@%s", sc, instanceLoc.String())
	if ec.active == nil {
		ec.active = map[string]bool{}
	}
	if ec.active[guardKey] {
		return ev
	}
	ec.active[guardKey] = true
	defer delete(ec.active, guardKey)

	pop := ec.pushDynamicScope(sc.Source)
	defer pop()

	for _, kc := range sc.Keywords {
		if ec.Context.Err() != nil {
			ev.Valid = false
			ev.Errors = append(ev.Errors, (&Cancelled{EvaluationPath: evalPath.String()}).Error())
			break
		}
		kc.Evaluate(ev, ec)
		if !ev.Valid && ec.ShortCircuit == FailFast {
			break
		}
	}
	return ev
}

// EvaluateAt is the convenience entry point used by keyword handlers to
// recurse into a child SchemaConstraint, extending the parent's evaluation
// path by pathSuffix (e.g. the keyword name and, for keyed/indexed
// applicators, the property name or array index) and folding the result
// into ev's Children.
func EvaluateAt(ev *Evaluation, child *SchemaConstraint, instance any, instanceLoc Pointer, ec *EvalContext, mustBeValid bool, pathSuffix ...string) *Evaluation {
	childPath := ev.EvaluationPath
	for _, seg := range pathSuffix {
		childPath = childPath.Child(seg)
	}
	childEv := Evaluate(child, instance, instanceLoc, childPath, ec)
	ev.AddChild(childEv, mustBeValid)
	return childEv
}
