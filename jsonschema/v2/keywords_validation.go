package v2

import (
	"fmt"
	"reflect"
	"regexp"
	"unicode/utf8"
)

func registerValidationKeywords(r *KeywordRegistry) {
	v := VocabValidation
	r.Register(&KeywordDef{Name: "type", Priority: 1, Vocabulary: v, Compile: compileType})
	r.Register(&KeywordDef{Name: "enum", Priority: 1, Vocabulary: v, Compile: compileEnum})
	r.Register(&KeywordDef{Name: "const", Priority: 1, Vocabulary: v, Compile: compileConst})
	r.Register(&KeywordDef{Name: "multipleOf", Priority: 2, Vocabulary: v, Compile: compileMultipleOf})
	r.Register(&KeywordDef{Name: "maximum", Priority: 2, Vocabulary: v, Compile: compileMaximum})
	r.Register(&KeywordDef{Name: "exclusiveMaximum", Priority: 2, Vocabulary: v, Compile: compileExclusiveMaximum})
	r.Register(&KeywordDef{Name: "minimum", Priority: 2, Vocabulary: v, Compile: compileMinimum})
	r.Register(&KeywordDef{Name: "exclusiveMinimum", Priority: 2, Vocabulary: v, Compile: compileExclusiveMinimum})
	r.Register(&KeywordDef{Name: "maxLength", Priority: 2, Vocabulary: v, Compile: compileMaxLength})
	r.Register(&KeywordDef{Name: "minLength", Priority: 2, Vocabulary: v, Compile: compileMinLength})
	r.Register(&KeywordDef{Name: "pattern", Priority: 2, Vocabulary: v, Compile: compilePattern})
	r.Register(&KeywordDef{Name: "maxItems", Priority: 2, Vocabulary: v, Compile: compileMaxItems})
	r.Register(&KeywordDef{Name: "minItems", Priority: 2, Vocabulary: v, Compile: compileMinItems})
	r.Register(&KeywordDef{Name: "uniqueItems", Priority: 2, Vocabulary: v, Compile: compileUniqueItems})
	// maxContains/minContains read the match count that "contains" (an
	// applicator, priority 4) leaves behind, so they must run after it.
	r.Register(&KeywordDef{Name: "maxContains", Priority: 5, Vocabulary: v, Compile: compileMaxContains})
	r.Register(&KeywordDef{Name: "minContains", Priority: 5, Vocabulary: v, Compile: compileMinContains})
	r.Register(&KeywordDef{Name: "maxProperties", Priority: 2, Vocabulary: v, Compile: compileMaxProperties})
	r.Register(&KeywordDef{Name: "minProperties", Priority: 2, Vocabulary: v, Compile: compileMinProperties})
	r.Register(&KeywordDef{Name: "required", Priority: 2, Vocabulary: v, Compile: compileRequired})
	r.Register(&KeywordDef{Name: "dependentRequired", Priority: 3, Vocabulary: v, Compile: compileDependentRequired})
}

// simpleKeyword wraps a closure so every scalar-validation keyword above
// doesn't need its own named type.
type simpleKeyword struct {
	name string
	fn   func(ev *Evaluation, ec *EvalContext)
}

func (k *simpleKeyword) Name() string { return k.name }
func (k *simpleKeyword) Evaluate(ev *Evaluation, ec *EvalContext) { k.fn(ev, ec) }

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func jsonTypeOf(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		if t == float64(int64(t)) {
			return "integer"
		}
		return "number"
	case int, int64:
		return "integer"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return "unknown"
}

func compileType(raw any, s *Schema, sc *SchemaConstraint, siblings map[string]KeywordConstraint, ctx *CompileContext) (KeywordConstraint, error) {
	var types []string
	switch t := raw.(type) {
	case string:
		types = []string{t}
	case []any:
		for _, v := range t {
			str, ok := v.(string)
			if !ok {
				return nil, &SchemaParseError{Msg: "type array must contain only strings", SchemaLocation: s.SchemaLocation()}
			}
			types = append(types, str)
		}
	default:
		return nil, &SchemaParseError{Msg: "type must be a string or array of strings", SchemaLocation: s.SchemaLocation()}
	}
	return &simpleKeyword{name: "type", fn: func(ev *Evaluation, ec *EvalContext) {
		actual := jsonTypeOf(ev.Instance)
		for _, want := range types {
			if want == actual {
				return
			}
			// "integer" also accepts a float64 with no fractional part,
			// and "number" accepts both.
			if want == "number" && actual == "integer" {
				return
			}
		}
		ev.Fail("type", "value of type %s is not one of %v", actual, types)
	}}, nil
}

func compileEnum(raw any, s *Schema, sc *SchemaConstraint, siblings map[string]KeywordConstraint, ctx *CompileContext) (KeywordConstraint, error) {
	values, ok := raw.([]any)
	if !ok {
		return nil, &SchemaParseError{Msg: "enum must be an array", SchemaLocation: s.SchemaLocation()}
	}
	return &simpleKeyword{name: "enum", fn: func(ev *Evaluation, ec *EvalContext) {
		for _, v := range values {
			if jsonDeepEqual(v, ev.Instance) {
				return
			}
		}
		ev.Fail("enum", "value is not one of the enumerated values")
	}}, nil
}

func compileConst(raw any, s *Schema, sc *SchemaConstraint, siblings map[string]KeywordConstraint, ctx *CompileContext) (KeywordConstraint, error) {
	return &simpleKeyword{name: "const", fn: func(ev *Evaluation, ec *EvalContext) {
		if !jsonDeepEqual(raw, ev.Instance) {
			ev.Fail("const", "value does not equal the required constant")
		}
	}}, nil
}

// jsonDeepEqual compares decoded-JSON values with JSON equality semantics:
// numeric types compare by value regardless of int/float64 representation,
// and object key order is irrelevant (reflect.DeepEqual on maps already
// ignores order).
func jsonDeepEqual(a, b any) bool {
	an, aok := asNumber(a)
	bn, bok := asNumber(b)
	if aok && bok {
		return an == bn
	}
	if aArr, ok := a.([]any); ok {
		bArr, ok := b.([]any)
		if !ok || len(aArr) != len(bArr) {
			return false
		}
		for i := range aArr {
			if !jsonDeepEqual(aArr[i], bArr[i]) {
				return false
			}
		}
		return true
	}
	if aMap, ok := a.(map[string]any); ok {
		bMap, ok := b.(map[string]any)
		if !ok || len(aMap) != len(bMap) {
			return false
		}
		for k, v := range aMap {
			bv, ok := bMap[k]
			if !ok || !jsonDeepEqual(v, bv) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

func numericKeyword(name string, raw any, s *Schema, check func(limit, actual float64) bool, msg string) (KeywordConstraint, error) {
	limit, ok := asNumber(raw)
	if !ok {
		return nil, &SchemaParseError{Msg: name + " must be a number", SchemaLocation: s.SchemaLocation()}
	}
	return &simpleKeyword{name: name, fn: func(ev *Evaluation, ec *EvalContext) {
		actual, ok := asNumber(ev.Instance)
		if !ok {
			return // not a number: keyword does not apply
		}
		if !check(limit, actual) {
			ev.Fail(name, msg, actual, limit)
		}
	}}, nil
}

func compileMultipleOf(raw any, s *Schema, sc *SchemaConstraint, siblings map[string]KeywordConstraint, ctx *CompileContext) (KeywordConstraint, error) {
	return numericKeyword("multipleOf", raw, s, func(limit, actual float64) bool {
		if limit == 0 {
			return true
		}
		q := actual / limit
		return q == float64(int64(q+0.5*sign(q)))
	}, "%v is not a multiple of %v")
}

func sign(f float64) float64 {
	if f < 0 {
		return -1
	}
	return 1
}

func compileMaximum(raw any, s *Schema, sc *SchemaConstraint, siblings map[string]KeywordConstraint, ctx *CompileContext) (KeywordConstraint, error) {
	return numericKeyword("maximum", raw, s, func(limit, actual float64) bool { return actual <= limit }, "%v exceeds maximum %v")
}

func compileMinimum(raw any, s *Schema, sc *SchemaConstraint, siblings map[string]KeywordConstraint, ctx *CompileContext) (KeywordConstraint, error) {
	return numericKeyword("minimum", raw, s, func(limit, actual float64) bool { return actual >= limit }, "%v is below minimum %v")
}

func compileExclusiveMaximum(raw any, s *Schema, sc *SchemaConstraint, siblings map[string]KeywordConstraint, ctx *CompileContext) (KeywordConstraint, error) {
	return numericKeyword("exclusiveMaximum", raw, s, func(limit, actual float64) bool { return actual < limit }, "%v does not stay below exclusive maximum %v")
}

func compileExclusiveMinimum(raw any, s *Schema, sc *SchemaConstraint, siblings map[string]KeywordConstraint, ctx *CompileContext) (KeywordConstraint, error) {
	return numericKeyword("exclusiveMinimum", raw, s, func(limit, actual float64) bool { return actual > limit }, "%v does not stay above exclusive minimum %v")
}

func stringLength(v any) (int, bool) {
	s, ok := v.(string)
	if !ok {
		return 0, false
	}
	return utf8.RuneCountInString(s), true
}

func compileMaxLength(raw any, s *Schema, sc *SchemaConstraint, siblings map[string]KeywordConstraint, ctx *CompileContext) (KeywordConstraint, error) {
	limit, ok := asNumber(raw)
	if !ok {
		return nil, &SchemaParseError{Msg: "maxLength must be a number", SchemaLocation: s.SchemaLocation()}
	}
	return &simpleKeyword{name: "maxLength", fn: func(ev *Evaluation, ec *EvalContext) {
		if n, ok := stringLength(ev.Instance); ok && float64(n) > limit {
			ev.Fail("maxLength", "string of length %d exceeds maxLength %v", n, limit)
		}
	}}, nil
}

func compileMinLength(raw any, s *Schema, sc *SchemaConstraint, siblings map[string]KeywordConstraint, ctx *CompileContext) (KeywordConstraint, error) {
	limit, ok := asNumber(raw)
	if !ok {
		return nil, &SchemaParseError{Msg: "minLength must be a number", SchemaLocation: s.SchemaLocation()}
	}
	return &simpleKeyword{name: "minLength", fn: func(ev *Evaluation, ec *EvalContext) {
		if n, ok := stringLength(ev.Instance); ok && float64(n) < limit {
			ev.Fail("minLength", "string of length %d is shorter than minLength %v", n, limit)
		}
	}}, nil
}

func compilePattern(raw any, s *Schema, sc *SchemaConstraint, siblings map[string]KeywordConstraint, ctx *CompileContext) (KeywordConstraint, error) {
	pat, ok := raw.(string)
	if !ok {
		return nil, &SchemaParseError{Msg: "pattern must be a string", SchemaLocation: s.SchemaLocation()}
	}
	re, err := regexp.Compile(pat)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pat, err)
	}
	return &simpleKeyword{name: "pattern", fn: func(ev *Evaluation, ec *EvalContext) {
		str, ok := ev.Instance.(string)
		if !ok {
			return
		}
		if !re.MatchString(str) {
			ev.Fail("pattern", "value does not match pattern %q", pat)
		}
	}}, nil
}

func compileMaxItems(raw any, s *Schema, sc *SchemaConstraint, siblings map[string]KeywordConstraint, ctx *CompileContext) (KeywordConstraint, error) {
	limit, ok := asNumber(raw)
	if !ok {
		return nil, &SchemaParseError{Msg: "maxItems must be a number", SchemaLocation: s.SchemaLocation()}
	}
	return &simpleKeyword{name: "maxItems", fn: func(ev *Evaluation, ec *EvalContext) {
		if arr, ok := ev.Instance.([]any); ok && float64(len(arr)) > limit {
			ev.Fail("maxItems", "array of length %d exceeds maxItems %v", len(arr), limit)
		}
	}}, nil
}

func compileMinItems(raw any, s *Schema, sc *SchemaConstraint, siblings map[string]KeywordConstraint, ctx *CompileContext) (KeywordConstraint, error) {
	limit, ok := asNumber(raw)
	if !ok {
		return nil, &SchemaParseError{Msg: "minItems must be a number", SchemaLocation: s.SchemaLocation()}
	}
	return &simpleKeyword{name: "minItems", fn: func(ev *Evaluation, ec *EvalContext) {
		if arr, ok := ev.Instance.([]any); ok && float64(len(arr)) < limit {
			ev.Fail("minItems", "array of length %d is shorter than minItems %v", len(arr), limit)
		}
	}}, nil
}

func compileUniqueItems(raw any, s *Schema, sc *SchemaConstraint, siblings map[string]KeywordConstraint, ctx *CompileContext) (KeywordConstraint, error) {
	want, _ := raw.(bool)
	if !want {
		return nil, nil
	}
	return &simpleKeyword{name: "uniqueItems", fn: func(ev *Evaluation, ec *EvalContext) {
		arr, ok := ev.Instance.([]any)
		if !ok {
			return
		}
		for i := 0; i < len(arr); i++ {
			for j := i + 1; j < len(arr); j++ {
				if jsonDeepEqual(arr[i], arr[j]) {
					ev.Fail("uniqueItems", "items at index %d and %d are duplicates", i, j)
					return
				}
			}
		}
	}}, nil
}

func compileMaxContains(raw any, s *Schema, sc *SchemaConstraint, siblings map[string]KeywordConstraint, ctx *CompileContext) (KeywordConstraint, error) {
	if _, hasContains := siblings["contains"]; !hasContains {
		if _, present := s.Raw["contains"]; !present {
			return nil, nil // maxContains without contains has no effect
		}
	}
	limit, ok := asNumber(raw)
	if !ok {
		return nil, &SchemaParseError{Msg: "maxContains must be a number", SchemaLocation: s.SchemaLocation()}
	}
	return &simpleKeyword{name: "maxContains", fn: func(ev *Evaluation, ec *EvalContext) {
		n := containsMatchCount(ev)
		if n >= 0 && float64(n) > limit {
			ev.Fail("maxContains", "%d matching items exceed maxContains %v", n, limit)
		}
	}}, nil
}

func compileMinContains(raw any, s *Schema, sc *SchemaConstraint, siblings map[string]KeywordConstraint, ctx *CompileContext) (KeywordConstraint, error) {
	if _, present := s.Raw["contains"]; !present {
		return nil, nil
	}
	limit, ok := asNumber(raw)
	if !ok {
		return nil, &SchemaParseError{Msg: "minContains must be a number", SchemaLocation: s.SchemaLocation()}
	}
	return &simpleKeyword{name: "minContains", fn: func(ev *Evaluation, ec *EvalContext) {
		n := containsMatchCount(ev)
		if n >= 0 && float64(n) < limit {
			ev.Fail("minContains", "%d matching items is fewer than minContains %v", n, limit)
		}
	}}, nil
}

// containsMatchCount reads the match count the contains keyword left on ev's
// internal side-channel (setInternal, not Annotations; contains runs first,
// at priority 4, before min/maxContains at 5), or -1 if contains wasn't
// evaluated.
func containsMatchCount(ev *Evaluation) int {
	v, ok := ev.getInternal("containsMatchCount")
	if !ok {
		return -1
	}
	n, _ := v.(int)
	return n
}

func compileMaxProperties(raw any, s *Schema, sc *SchemaConstraint, siblings map[string]KeywordConstraint, ctx *CompileContext) (KeywordConstraint, error) {
	limit, ok := asNumber(raw)
	if !ok {
		return nil, &SchemaParseError{Msg: "maxProperties must be a number", SchemaLocation: s.SchemaLocation()}
	}
	return &simpleKeyword{name: "maxProperties", fn: func(ev *Evaluation, ec *EvalContext) {
		if obj, ok := ev.Instance.(map[string]any); ok && float64(len(obj)) > limit {
			ev.Fail("maxProperties", "object with %d properties exceeds maxProperties %v", len(obj), limit)
		}
	}}, nil
}

func compileMinProperties(raw any, s *Schema, sc *SchemaConstraint, siblings map[string]KeywordConstraint, ctx *CompileContext) (KeywordConstraint, error) {
	limit, ok := asNumber(raw)
	if !ok {
		return nil, &SchemaParseError{Msg: "minProperties must be a number", SchemaLocation: s.SchemaLocation()}
	}
	return &simpleKeyword{name: "minProperties", fn: func(ev *Evaluation, ec *EvalContext) {
		if obj, ok := ev.Instance.(map[string]any); ok && float64(len(obj)) < limit {
			ev.Fail("minProperties", "object with %d properties is fewer than minProperties %v", len(obj), limit)
		}
	}}, nil
}

func compileRequired(raw any, s *Schema, sc *SchemaConstraint, siblings map[string]KeywordConstraint, ctx *CompileContext) (KeywordConstraint, error) {
	arr, ok := raw.([]any)
	if !ok {
		return nil, &SchemaParseError{Msg: "required must be an array", SchemaLocation: s.SchemaLocation()}
	}
	names := make([]string, len(arr))
	for i, v := range arr {
		str, ok := v.(string)
		if !ok {
			return nil, &SchemaParseError{Msg: "required must be an array of strings", SchemaLocation: s.SchemaLocation()}
		}
		names[i] = str
	}
	return &simpleKeyword{name: "required", fn: func(ev *Evaluation, ec *EvalContext) {
		obj, ok := ev.Instance.(map[string]any)
		if !ok {
			return
		}
		for _, name := range names {
			if _, present := obj[name]; !present {
				ev.Fail("required", "missing required property %q", name)
			}
		}
	}}, nil
}

func compileDependentRequired(raw any, s *Schema, sc *SchemaConstraint, siblings map[string]KeywordConstraint, ctx *CompileContext) (KeywordConstraint, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, &SchemaParseError{Msg: "dependentRequired must be an object", SchemaLocation: s.SchemaLocation()}
	}
	deps := map[string][]string{}
	for key, v := range m {
		arr, ok := v.([]any)
		if !ok {
			return nil, &SchemaParseError{Msg: "dependentRequired values must be arrays", SchemaLocation: s.SchemaLocation()}
		}
		for _, item := range arr {
			str, ok := item.(string)
			if !ok {
				return nil, &SchemaParseError{Msg: "dependentRequired values must be arrays of strings", SchemaLocation: s.SchemaLocation()}
			}
			deps[key] = append(deps[key], str)
		}
	}
	return &simpleKeyword{name: "dependentRequired", fn: func(ev *Evaluation, ec *EvalContext) {
		obj, ok := ev.Instance.(map[string]any)
		if !ok {
			return
		}
		for trigger, required := range deps {
			if _, present := obj[trigger]; !present {
				continue
			}
			for _, name := range required {
				if _, present := obj[name]; !present {
					ev.Fail("dependentRequired", "property %q requires %q, which is missing", trigger, name)
				}
			}
		}
	}}, nil
}
