package v2

import (
	"encoding/json"
	"strings"
	"testing"
)

func mustCompile(t *testing.T, schema string, opts ...Option) *CompiledSchema {
	t.Helper()
	c, err := CompileString(schema, opts...)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	return c
}

func decode(t *testing.T, jsonText string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(jsonText), &v); err != nil {
		t.Fatalf("decoding instance: %v", err)
	}
	return v
}

// TestBasicValidation is spec.md §8 scenario 1.
func TestBasicValidation(t *testing.T) {
	c := mustCompile(t, `{"type":"object","properties":{"a":{"type":"integer"}},"required":["a"]}`)

	ev := c.Evaluate(decode(t, `{"a":1}`))
	if !ev.Valid {
		t.Fatalf("expected valid, got errors %v", ev.Errors)
	}

	ev = c.Evaluate(decode(t, `{}`))
	if ev.Valid {
		t.Fatalf("expected invalid")
	}
	if len(ev.Errors) == 0 {
		t.Fatalf("expected the required failure to be reported directly on the root evaluation, got %+v", ev)
	}
	if ev.Errors[0] == "" {
		t.Fatalf("expected a non-empty error message")
	}
}

// TestUnevaluatedPropertiesAnnotationFlow is spec.md §8 scenario 2.
func TestUnevaluatedPropertiesAnnotationFlow(t *testing.T) {
	c := mustCompile(t, `{"properties":{"a":{}},"unevaluatedProperties":false}`)

	ev := c.Evaluate(decode(t, `{"a":1,"b":2}`))
	if ev.Valid {
		t.Fatalf("expected invalid: b is unevaluated")
	}

	ev = c.Evaluate(decode(t, `{"a":1}`))
	if !ev.Valid {
		t.Fatalf("expected valid, got errors on tree: %+v", ev.Errors)
	}
}

// TestRefCycleWithProgress is spec.md §8 scenario 3.
func TestRefCycleWithProgress(t *testing.T) {
	c := mustCompile(t, `{
		"$defs": {"n": {"type":"object","properties":{"next":{"$ref":"#/$defs/n"}}}},
		"$ref": "#/$defs/n"
	}`)

	ev := c.Evaluate(decode(t, `{"next":{"next":{}}}`))
	if !ev.Valid {
		t.Fatalf("expected valid, got errors: %v", collectAllErrors(ev))
	}
}

// TestDynamicRef is spec.md §8 scenario 4: an inner $dynamicRef binds to the
// outermost schema in the active dynamic scope that declares the matching
// $dynamicAnchor.
func TestDynamicRef(t *testing.T) {
	c := mustCompile(t, `{
		"$id": "https://example.com/outer",
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"$dynamicAnchor": "T",
		"type": "object",
		"properties": {
			"items": {"$ref": "#/$defs/list"}
		},
		"$defs": {
			"list": {
				"$id": "https://example.com/list",
				"$dynamicAnchor": "T",
				"type": "array",
				"items": {"$dynamicRef": "#T"}
			}
		}
	}`)

	ev := c.Evaluate(decode(t, `{"items":[{}]}`))
	if !ev.Valid {
		t.Fatalf("expected valid, got errors: %v", collectAllErrors(ev))
	}
}

// TestDraftIncompatibility is spec.md §8 scenario 5: array-form items is
// illegal under 2020-12 (prefixItems replaced it).
func TestDraftIncompatibility(t *testing.T) {
	_, err := CompileString(`{"$schema":"https://json-schema.org/draft/2020-12/schema","items":[{"type":"integer"}]}`)
	if err == nil {
		t.Fatalf("expected a DraftIncompatibleError, got nil")
	}
	if _, ok := asDraftIncompatible(err); !ok {
		t.Fatalf("expected a DraftIncompatibleError, got %T: %v", err, err)
	}
}

func asDraftIncompatible(err error) (*DraftIncompatibleError, bool) {
	for err != nil {
		if de, ok := err.(*DraftIncompatibleError); ok {
			return de, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}

// TestBoundaries covers spec.md §8's boundary cases.
func TestBoundaries(t *testing.T) {
	c := mustCompile(t, `{"maximum":5}`)
	if !c.Evaluate(decode(t, `5`)).Valid {
		t.Fatalf("5 <= maximum 5 should be valid")
	}
	if c.Evaluate(decode(t, `6`)).Valid {
		t.Fatalf("6 > maximum 5 should be invalid")
	}
	if !c.Evaluate(decode(t, `"5"`)).Valid {
		t.Fatalf("non-number instances are unconstrained by maximum")
	}

	ic := mustCompile(t, `{"type":"integer"}`)
	if !ic.Evaluate(decode(t, `1.0`)).Valid {
		t.Fatalf("integer-valued float should satisfy type:integer")
	}
	if ic.Evaluate(decode(t, `1.5`)).Valid {
		t.Fatalf("non-integral float should not satisfy type:integer")
	}
}

// TestSelfRefRequiresProgress is spec.md §8's "{\"$ref\":\"#\"}" boundary:
// the $ref lands back on the same schema at the same instance location,
// making no progress into the instance, so the evaluator's recursion guard
// reports the repeat as valid instead of recursing forever.
func TestSelfRefRequiresProgress(t *testing.T) {
	c := mustCompile(t, `{"$ref":"#"}`)
	if !c.Evaluate(decode(t, `{"a":{"b":1}}`)).Valid {
		t.Fatalf("expected valid: {\"$ref\":\"#\"} imposes no constraint of its own")
	}
}

// TestAllOfAnyOfOneOf is the §8 quantified invariant over the boolean
// composition keywords.
func TestAllOfAnyOfOneOf(t *testing.T) {
	allOf := mustCompile(t, `{"allOf":[{"type":"string"},{"minLength":3}]}`)
	if allOf.Evaluate(decode(t, `"ab"`)).Valid {
		t.Fatalf("allOf should fail when one branch fails")
	}
	if !allOf.Evaluate(decode(t, `"abc"`)).Valid {
		t.Fatalf("allOf should pass when every branch passes")
	}

	anyOf := mustCompile(t, `{"anyOf":[{"type":"string"},{"type":"integer"}]}`)
	if !anyOf.Evaluate(decode(t, `"x"`)).Valid {
		t.Fatalf("anyOf should pass when at least one branch passes")
	}
	if anyOf.Evaluate(decode(t, `1.5`)).Valid {
		t.Fatalf("anyOf should fail when no branch passes")
	}

	oneOf := mustCompile(t, `{"oneOf":[{"multipleOf":2},{"multipleOf":3}]}`)
	if !oneOf.Evaluate(decode(t, `4`)).Valid {
		t.Fatalf("4 is a multiple of 2 only: oneOf should pass")
	}
	if oneOf.Evaluate(decode(t, `6`)).Valid {
		t.Fatalf("6 is a multiple of both: oneOf should fail")
	}
	if oneOf.Evaluate(decode(t, `5`)).Valid {
		t.Fatalf("5 matches neither: oneOf should fail")
	}
}

// TestDeterminism is the §8 quantified determinism invariant.
func TestDeterminism(t *testing.T) {
	c := mustCompile(t, `{"type":"object","properties":{"a":{"type":"integer"}},"required":["a"]}`)
	instance := decode(t, `{"a":"oops"}`)
	first := c.Evaluate(instance).Valid
	for i := 0; i < 5; i++ {
		if c.Evaluate(instance).Valid != first {
			t.Fatalf("evaluation is not deterministic across repeated calls")
		}
	}
}

// TestBasicOutputShape is spec.md §8 scenario 6: Basic output is a flat,
// depth-first list with one entry per evaluation node, not just one per
// error/annotation leaf.
func TestBasicOutputShape(t *testing.T) {
	c := mustCompile(t, `{"allOf":[{"type":"string"},{"minLength":3}]}`)
	out := c.OutputAs(decode(t, `"ab"`), OutputBasic)
	if out.Valid {
		t.Fatalf("expected the root entry to be invalid")
	}
	if len(out.Details) != 3 {
		t.Fatalf("expected 3 basic output entries (root, /allOf/0 valid, /allOf/1 invalid), got %d", len(out.Details))
	}
	root, branch0, branch1 := out.Details[0], out.Details[1], out.Details[2]
	if root.Valid {
		t.Fatalf("root entry should be invalid: minLength branch fails")
	}
	if !branch0.Valid || !strings.Contains(branch0.EvaluationPath, "allOf/0") {
		t.Fatalf("expected /allOf/0 to be a valid entry, got %+v", branch0)
	}
	if branch1.Valid || !strings.Contains(branch1.EvaluationPath, "allOf/1") {
		t.Fatalf("expected /allOf/1 to be an invalid entry, got %+v", branch1)
	}
}

// TestContainsMinContainsZero covers the sibling-keyword interaction where
// minContains: 0 permits a zero-match array that contains alone would reject.
func TestContainsMinContainsZero(t *testing.T) {
	c := mustCompile(t, `{"contains":{"type":"integer"},"minContains":0}`)
	if !c.Evaluate(decode(t, `["a","b"]`)).Valid {
		t.Fatalf("minContains: 0 should permit a zero-match array")
	}

	noMin := mustCompile(t, `{"contains":{"type":"integer"}}`)
	if noMin.Evaluate(decode(t, `["a","b"]`)).Valid {
		t.Fatalf("contains without minContains should still reject a zero-match array")
	}
}

func collectAllErrors(ev *Evaluation) []string {
	out := append([]string{}, ev.Errors...)
	for _, child := range ev.Children {
		out = append(out, collectAllErrors(child)...)
	}
	return out
}
