package v2

import (
	"regexp"
	"strconv"
)

func registerApplicatorKeywords(r *KeywordRegistry) {
	v := VocabApplicator
	r.Register(&KeywordDef{Name: "allOf", Priority: 4, Vocabulary: v, Compile: compileAllOf})
	r.Register(&KeywordDef{Name: "anyOf", Priority: 4, Vocabulary: v, Compile: compileAnyOf})
	r.Register(&KeywordDef{Name: "oneOf", Priority: 4, Vocabulary: v, Compile: compileOneOf})
	r.Register(&KeywordDef{Name: "not", Priority: 4, Vocabulary: v, Compile: compileNot})
	r.Register(&KeywordDef{Name: "if", Priority: 4, Vocabulary: v, Compile: compileIf})
	r.Register(&KeywordDef{Name: "then", Priority: 5, Vocabulary: v, Compile: noopCompile})
	r.Register(&KeywordDef{Name: "else", Priority: 5, Vocabulary: v, Compile: noopCompile})

	r.Register(&KeywordDef{Name: "properties", Priority: 4, Vocabulary: v, Compile: compileProperties})
	r.Register(&KeywordDef{Name: "patternProperties", Priority: 4, Vocabulary: v, Compile: compilePatternProperties})
	r.Register(&KeywordDef{Name: "additionalProperties", Priority: 5, Vocabulary: v, Compile: compileAdditionalProperties})
	r.Register(&KeywordDef{Name: "propertyNames", Priority: 4, Vocabulary: v, Compile: compilePropertyNames})
	r.Register(&KeywordDef{Name: "dependentSchemas", Priority: 4, Vocabulary: v, Compile: compileDependentSchemas})

	r.Register(&KeywordDef{Name: "prefixItems", Priority: 4, Drafts: map[Draft]bool{Draft2020: true, DraftNext: true}, Compile: compilePrefixItems})
	r.Register(&KeywordDef{Name: "items", Priority: 5, Vocabulary: v, Compile: compileItems})
	r.Register(&KeywordDef{Name: "additionalItems", Priority: 5, Drafts: map[Draft]bool{Draft6: true, Draft7: true, Draft2019: true}, Compile: compileAdditionalItems})
	r.Register(&KeywordDef{Name: "contains", Priority: 4, Vocabulary: v, Compile: compileContains})

	r.Register(&KeywordDef{Name: "unevaluatedProperties", Priority: 9, Vocabulary: VocabUnevaluated, Compile: compileUnevaluatedProperties})
	r.Register(&KeywordDef{Name: "unevaluatedItems", Priority: 9, Vocabulary: VocabUnevaluated, Compile: compileUnevaluatedItems})

	r.Register(&KeywordDef{Name: "discriminator", Priority: 3, Compile: noopCompile})
}

// --- allOf / anyOf / oneOf / not / if-then-else ---

func compileAllOf(raw any, s *Schema, sc *SchemaConstraint, siblings map[string]KeywordConstraint, ctx *CompileContext) (KeywordConstraint, error) {
	children := s.List["allOf"]
	constraints := make([]*SchemaConstraint, len(children))
	for i, child := range children {
		cc, err := ctx.compileChild(child, sc.InstancePrefix)
		if err != nil {
			return nil, err
		}
		constraints[i] = cc
	}
	return &simpleKeyword{name: "allOf", fn: func(ev *Evaluation, ec *EvalContext) {
		ok := true
		for i, cc := range constraints {
			child := EvaluateAt(ev, cc, ev.Instance, ev.InstanceLocation, ec, true, "allOf", itoa(i))
			if !child.Valid {
				ok = false
			}
		}
		if !ok {
			ev.Fail("allOf", "not every branch of allOf validated")
		}
	}}, nil
}

func compileAnyOf(raw any, s *Schema, sc *SchemaConstraint, siblings map[string]KeywordConstraint, ctx *CompileContext) (KeywordConstraint, error) {
	children := s.List["anyOf"]
	constraints := make([]*SchemaConstraint, len(children))
	for i, child := range children {
		cc, err := ctx.compileChild(child, sc.InstancePrefix)
		if err != nil {
			return nil, err
		}
		constraints[i] = cc
	}
	return &simpleKeyword{name: "anyOf", fn: func(ev *Evaluation, ec *EvalContext) {
		matched := false
		for i, cc := range constraints {
			child := EvaluateAt(ev, cc, ev.Instance, ev.InstanceLocation, ec, false, "anyOf", itoa(i))
			if child.Valid {
				matched = true
			}
		}
		if !matched {
			ev.Fail("anyOf", "no branch of anyOf validated")
		}
	}}, nil
}

func compileOneOf(raw any, s *Schema, sc *SchemaConstraint, siblings map[string]KeywordConstraint, ctx *CompileContext) (KeywordConstraint, error) {
	children := s.List["oneOf"]
	constraints := make([]*SchemaConstraint, len(children))
	for i, child := range children {
		cc, err := ctx.compileChild(child, sc.InstancePrefix)
		if err != nil {
			return nil, err
		}
		constraints[i] = cc
	}
	disc := compileDiscriminatorHint(s)
	return &simpleKeyword{name: "oneOf", fn: func(ev *Evaluation, ec *EvalContext) {
		if disc != nil {
			idx, ok := disc.branchFor(ev.Instance)
			if ok {
				child := EvaluateAt(ev, constraints[idx], ev.Instance, ev.InstanceLocation, ec, false, "oneOf", itoa(idx))
				if !child.Valid {
					ev.Fail("oneOf", "discriminator-selected branch %d did not validate", idx)
				}
				return
			}
		}
		matches := 0
		for i, cc := range constraints {
			child := EvaluateAt(ev, cc, ev.Instance, ev.InstanceLocation, ec, false, "oneOf", itoa(i))
			if child.Valid {
				matches++
			}
		}
		if matches != 1 {
			ev.Fail("oneOf", "%d branches of oneOf validated; exactly one is required", matches)
		}
	}}, nil
}

// discriminatorHint implements the OpenAPI-flavored oneOf-dispatch supplement
// recorded in SPEC_FULL.md, grounded on the teacher's Discriminator struct.
type discriminatorHint struct {
	propertyName string
	mapping      map[string]int // mapping value -> oneOf branch index
	byName       map[string]int // allocated but never filled; branchFor consults mapping only
}

func compileDiscriminatorHint(s *Schema) *discriminatorHint {
	raw, ok := s.Raw["discriminator"].(map[string]any)
	if !ok {
		return nil
	}
	propName, _ := raw["propertyName"].(string)
	if propName == "" {
		return nil
	}
	h := &discriminatorHint{propertyName: propName, mapping: map[string]int{}, byName: map[string]int{}}
	if mapping, ok := raw["mapping"].(map[string]any); ok {
		children := s.List["oneOf"]
		for value, ref := range mapping {
			refStr, _ := ref.(string)
			for i, child := range children {
				if child.ID == refStr || child.Ptr.String() == refStr {
					h.mapping[value] = i
					break
				}
			}
		}
	}
	return h
}

func (h *discriminatorHint) branchFor(instance any) (int, bool) {
	obj, ok := instance.(map[string]any)
	if !ok {
		return 0, false
	}
	v, ok := obj[h.propertyName].(string)
	if !ok {
		return 0, false
	}
	idx, ok := h.mapping[v]
	return idx, ok
}

func compileNot(raw any, s *Schema, sc *SchemaConstraint, siblings map[string]KeywordConstraint, ctx *CompileContext) (KeywordConstraint, error) {
	child := s.Single["not"]
	cc, err := ctx.compileChild(child, sc.InstancePrefix)
	if err != nil {
		return nil, err
	}
	return &simpleKeyword{name: "not", fn: func(ev *Evaluation, ec *EvalContext) {
		result := Evaluate(cc, ev.Instance, ev.InstanceLocation, ev.EvaluationPath.Child("not"), ec)
		if result.Valid {
			ev.Fail("not", "value must not validate against the schema, but it does")
		}
	}}, nil
}

func compileIf(raw any, s *Schema, sc *SchemaConstraint, siblings map[string]KeywordConstraint, ctx *CompileContext) (KeywordConstraint, error) {
	ifChild := s.Single["if"]
	ifConstraint, err := ctx.compileChild(ifChild, sc.InstancePrefix)
	if err != nil {
		return nil, err
	}
	var thenConstraint, elseConstraint *SchemaConstraint
	if thenChild, ok := s.Single["then"]; ok {
		thenConstraint, err = ctx.compileChild(thenChild, sc.InstancePrefix)
		if err != nil {
			return nil, err
		}
	}
	if elseChild, ok := s.Single["else"]; ok {
		elseConstraint, err = ctx.compileChild(elseChild, sc.InstancePrefix)
		if err != nil {
			return nil, err
		}
	}
	return &simpleKeyword{name: "if", fn: func(ev *Evaluation, ec *EvalContext) {
		cond := EvaluateAt(ev, ifConstraint, ev.Instance, ev.InstanceLocation, ec, false, "if")
		if cond.Valid {
			if thenConstraint != nil {
				branch := EvaluateAt(ev, thenConstraint, ev.Instance, ev.InstanceLocation, ec, false, "then")
				if !branch.Valid {
					ev.Fail("then", "instance satisfies if but not then")
				}
			}
			return
		}
		if elseConstraint != nil {
			branch := EvaluateAt(ev, elseConstraint, ev.Instance, ev.InstanceLocation, ec, false, "else")
			if !branch.Valid {
				ev.Fail("else", "instance fails if and does not satisfy else")
			}
		}
	}}, nil
}

// --- object applicators ---

func compileProperties(raw any, s *Schema, sc *SchemaConstraint, siblings map[string]KeywordConstraint, ctx *CompileContext) (KeywordConstraint, error) {
	children := s.Map["properties"]
	compiled := make(map[string]*SchemaConstraint, len(children))
	for name, child := range children {
		cc, err := ctx.compileChild(child, sc.InstancePrefix)
		if err != nil {
			return nil, err
		}
		compiled[name] = cc
	}
	return &simpleKeyword{name: "properties", fn: func(ev *Evaluation, ec *EvalContext) {
		obj, ok := ev.Instance.(map[string]any)
		if !ok {
			return
		}
		var matched []string
		allValid := true
		for name, cc := range compiled {
			val, present := obj[name]
			if !present {
				continue
			}
			matched = append(matched, name)
			child := EvaluateAt(ev, cc, val, ev.InstanceLocation.Child(name), ec, false, "properties", name)
			if !child.Valid {
				allValid = false
			}
		}
		if allValid {
			ev.SetAnnotation("properties", matched)
		} else {
			ev.Fail("properties", "one or more properties failed validation")
		}
	}}, nil
}

func compilePatternProperties(raw any, s *Schema, sc *SchemaConstraint, siblings map[string]KeywordConstraint, ctx *CompileContext) (KeywordConstraint, error) {
	children := s.Map["patternProperties"]
	type compiledPattern struct {
		re *regexp.Regexp
		cc *SchemaConstraint
	}
	var compiled []compiledPattern
	for pattern, child := range children {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, err
		}
		cc, err := ctx.compileChild(child, sc.InstancePrefix)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, compiledPattern{re, cc})
	}
	return &simpleKeyword{name: "patternProperties", fn: func(ev *Evaluation, ec *EvalContext) {
		obj, ok := ev.Instance.(map[string]any)
		if !ok {
			return
		}
		var matched []string
		allValid := true
		for name, val := range obj {
			for _, cp := range compiled {
				if !cp.re.MatchString(name) {
					continue
				}
				matched = append(matched, name)
				child := EvaluateAt(ev, cp.cc, val, ev.InstanceLocation.Child(name), ec, false, "patternProperties", name)
				if !child.Valid {
					allValid = false
				}
			}
		}
		if allValid {
			ev.SetAnnotation("patternProperties", matched)
		} else {
			ev.Fail("patternProperties", "one or more pattern-matched properties failed validation")
		}
	}}, nil
}

func compileAdditionalProperties(raw any, s *Schema, sc *SchemaConstraint, siblings map[string]KeywordConstraint, ctx *CompileContext) (KeywordConstraint, error) {
	child := s.Single["additionalProperties"]
	cc, err := ctx.compileChild(child, sc.InstancePrefix)
	if err != nil {
		return nil, err
	}
	declared := map[string]bool{}
	for name := range s.Map["properties"] {
		declared[name] = true
	}
	var patterns []*regexp.Regexp
	for pattern := range s.Map["patternProperties"] {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, re)
	}
	return &simpleKeyword{name: "additionalProperties", fn: func(ev *Evaluation, ec *EvalContext) {
		obj, ok := ev.Instance.(map[string]any)
		if !ok {
			return
		}
		var matched []string
		allValid := true
		for name, val := range obj {
			if declared[name] {
				continue
			}
			if matchesAny(patterns, name) {
				continue
			}
			matched = append(matched, name)
			child := EvaluateAt(ev, cc, val, ev.InstanceLocation.Child(name), ec, false, "additionalProperties", name)
			if !child.Valid {
				allValid = false
			}
		}
		if allValid {
			ev.SetAnnotation("additionalProperties", matched)
		} else {
			ev.Fail("additionalProperties", "one or more additional properties failed validation")
		}
	}}, nil
}

func matchesAny(patterns []*regexp.Regexp, name string) bool {
	for _, re := range patterns {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

func compilePropertyNames(raw any, s *Schema, sc *SchemaConstraint, siblings map[string]KeywordConstraint, ctx *CompileContext) (KeywordConstraint, error) {
	child := s.Single["propertyNames"]
	cc, err := ctx.compileChild(child, sc.InstancePrefix)
	if err != nil {
		return nil, err
	}
	return &simpleKeyword{name: "propertyNames", fn: func(ev *Evaluation, ec *EvalContext) {
		obj, ok := ev.Instance.(map[string]any)
		if !ok {
			return
		}
		ok2 := true
		for name := range obj {
			child := EvaluateAt(ev, cc, name, ev.InstanceLocation.Child(name), ec, false, "propertyNames", name)
			if !child.Valid {
				ok2 = false
			}
		}
		if !ok2 {
			ev.Fail("propertyNames", "one or more property names failed validation")
		}
	}}, nil
}

func compileDependentSchemas(raw any, s *Schema, sc *SchemaConstraint, siblings map[string]KeywordConstraint, ctx *CompileContext) (KeywordConstraint, error) {
	children := s.Map["dependentSchemas"]
	compiled := make(map[string]*SchemaConstraint, len(children))
	for trigger, child := range children {
		cc, err := ctx.compileChild(child, sc.InstancePrefix)
		if err != nil {
			return nil, err
		}
		compiled[trigger] = cc
	}
	return &simpleKeyword{name: "dependentSchemas", fn: func(ev *Evaluation, ec *EvalContext) {
		obj, ok := ev.Instance.(map[string]any)
		if !ok {
			return
		}
		ok2 := true
		for trigger, cc := range compiled {
			if _, present := obj[trigger]; !present {
				continue
			}
			child := EvaluateAt(ev, cc, ev.Instance, ev.InstanceLocation, ec, false, "dependentSchemas", trigger)
			if !child.Valid {
				ok2 = false
			}
		}
		if !ok2 {
			ev.Fail("dependentSchemas", "one or more dependent schemas failed validation")
		}
	}}, nil
}

// --- array applicators ---

func compilePrefixItems(raw any, s *Schema, sc *SchemaConstraint, siblings map[string]KeywordConstraint, ctx *CompileContext) (KeywordConstraint, error) {
	children := s.List["prefixItems"]
	constraints := make([]*SchemaConstraint, len(children))
	for i, child := range children {
		cc, err := ctx.compileChild(child, sc.InstancePrefix)
		if err != nil {
			return nil, err
		}
		constraints[i] = cc
	}
	return &simpleKeyword{name: "prefixItems", fn: func(ev *Evaluation, ec *EvalContext) {
		arr, ok := ev.Instance.([]any)
		if !ok {
			return
		}
		ok2 := true
		n := len(constraints)
		if len(arr) < n {
			n = len(arr)
		}
		for i := 0; i < n; i++ {
			child := EvaluateAt(ev, constraints[i], arr[i], ev.InstanceLocation.Index(i), ec, false, "prefixItems", itoa(i))
			if !child.Valid {
				ok2 = false
			}
		}
		if ok2 {
			ev.SetAnnotation("prefixItems", n)
		} else {
			ev.Fail("prefixItems", "one or more prefix items failed validation")
		}
	}}, nil
}

// compileItems dispatches on the Schema-DOM shape schema.go already chose:
// a single sub-schema (2020-12's "items", applying past prefixItems) or a
// list of sub-schemas (draft6/7/2019-09's tuple-validation "items").
func compileItems(raw any, s *Schema, sc *SchemaConstraint, siblings map[string]KeywordConstraint, ctx *CompileContext) (KeywordConstraint, error) {
	if list, ok := s.List["items"]; ok {
		// DeserializeSchema's own array-form check (schema.go) only fires
		// when a dialect is already known at deserialization time, which
		// the public Compile/CompileFromURI entry points never have (draft
		// detection needs $schema off the deserialized Schema, so it runs
		// afterward in Compiler.Compile, via assignDialect). By the time
		// keywords compile, assignDialect has already populated s.Dialect
		// for every node, so this is the real enforcement point.
		if s.Dialect != nil && (s.Dialect.Draft == Draft2020 || s.Dialect.Draft == DraftNext) {
			return nil, &DraftIncompatibleError{Keyword: "items", Draft: s.Dialect.Draft, SchemaLocation: s.Ptr.String(), Reason: "array-form items was replaced by prefixItems in 2020-12"}
		}
		return compileTupleItems(list, s, sc, ctx)
	}
	child := s.Single["items"]
	cc, err := ctx.compileChild(child, sc.InstancePrefix)
	if err != nil {
		return nil, err
	}
	skip := len(s.List["prefixItems"])
	return &simpleKeyword{name: "items", fn: func(ev *Evaluation, ec *EvalContext) {
		arr, ok := ev.Instance.([]any)
		if !ok {
			return
		}
		ok2 := true
		for i := skip; i < len(arr); i++ {
			child := EvaluateAt(ev, cc, arr[i], ev.InstanceLocation.Index(i), ec, false, "items", itoa(i))
			if !child.Valid {
				ok2 = false
			}
		}
		if ok2 {
			ev.SetAnnotation("items", true)
		} else {
			ev.Fail("items", "one or more items failed validation")
		}
	}}, nil
}

func compileTupleItems(list []*Schema, s *Schema, sc *SchemaConstraint, ctx *CompileContext) (KeywordConstraint, error) {
	constraints := make([]*SchemaConstraint, len(list))
	for i, child := range list {
		cc, err := ctx.compileChild(child, sc.InstancePrefix)
		if err != nil {
			return nil, err
		}
		constraints[i] = cc
	}
	return &simpleKeyword{name: "items", fn: func(ev *Evaluation, ec *EvalContext) {
		arr, ok := ev.Instance.([]any)
		if !ok {
			return
		}
		ok2 := true
		n := len(constraints)
		if len(arr) < n {
			n = len(arr)
		}
		for i := 0; i < n; i++ {
			child := EvaluateAt(ev, constraints[i], arr[i], ev.InstanceLocation.Index(i), ec, false, "items", itoa(i))
			if !child.Valid {
				ok2 = false
			}
		}
		if ok2 {
			ev.SetAnnotation("items", n)
		} else {
			ev.Fail("items", "one or more tuple items failed validation")
		}
	}}, nil
}

func compileAdditionalItems(raw any, s *Schema, sc *SchemaConstraint, siblings map[string]KeywordConstraint, ctx *CompileContext) (KeywordConstraint, error) {
	child := s.Single["additionalItems"]
	if child == nil {
		return nil, nil
	}
	cc, err := ctx.compileChild(child, sc.InstancePrefix)
	if err != nil {
		return nil, err
	}
	skip := len(s.List["items"])
	return &simpleKeyword{name: "additionalItems", fn: func(ev *Evaluation, ec *EvalContext) {
		arr, ok := ev.Instance.([]any)
		if !ok {
			return
		}
		ok2 := true
		for i := skip; i < len(arr); i++ {
			child := EvaluateAt(ev, cc, arr[i], ev.InstanceLocation.Index(i), ec, false, "additionalItems", itoa(i))
			if !child.Valid {
				ok2 = false
			}
		}
		if ok2 {
			ev.SetAnnotation("additionalItems", true)
		} else {
			ev.Fail("additionalItems", "one or more additional items failed validation")
		}
	}}, nil
}

func compileContains(raw any, s *Schema, sc *SchemaConstraint, siblings map[string]KeywordConstraint, ctx *CompileContext) (KeywordConstraint, error) {
	child := s.Single["contains"]
	cc, err := ctx.compileChild(child, sc.InstancePrefix)
	if err != nil {
		return nil, err
	}
	// A sibling minContains: 0 permits a zero-match array; defer to it
	// instead of failing outright. minContains itself (priority 5) still
	// runs afterward and re-checks the count, but contains must not raise
	// its own failure in that case.
	allowZeroMatches := false
	if mc, ok := s.Raw["minContains"]; ok {
		if n, ok := asNumber(mc); ok && n == 0 {
			allowZeroMatches = true
		}
	}
	return &simpleKeyword{name: "contains", fn: func(ev *Evaluation, ec *EvalContext) {
		arr, ok := ev.Instance.([]any)
		if !ok {
			return
		}
		count := 0
		for i, v := range arr {
			child := EvaluateAt(ev, cc, v, ev.InstanceLocation.Index(i), ec, false, "contains", itoa(i))
			if child.Valid {
				count++
			}
		}
		ev.setInternal("containsMatchCount", count)
		if count == 0 && !allowZeroMatches {
			ev.Fail("contains", "no item in the array matches the contains schema")
		} else {
			ev.SetAnnotation("contains", count)
		}
	}}, nil
}

// --- unevaluated* (2019-09+) ---

func compileUnevaluatedProperties(raw any, s *Schema, sc *SchemaConstraint, siblings map[string]KeywordConstraint, ctx *CompileContext) (KeywordConstraint, error) {
	child := s.Single["unevaluatedProperties"]
	cc, err := ctx.compileChild(child, sc.InstancePrefix)
	if err != nil {
		return nil, err
	}
	return &simpleKeyword{name: "unevaluatedProperties", fn: func(ev *Evaluation, ec *EvalContext) {
		obj, ok := ev.Instance.(map[string]any)
		if !ok {
			return
		}
		evaluated := ev.EvaluatedProperties()
		var matched []string
		ok2 := true
		for name, val := range obj {
			if evaluated[name] {
				continue
			}
			matched = append(matched, name)
			child := EvaluateAt(ev, cc, val, ev.InstanceLocation.Child(name), ec, false, "unevaluatedProperties", name)
			if !child.Valid {
				ok2 = false
			}
		}
		if ok2 {
			ev.SetAnnotation("unevaluatedProperties", matched)
		} else {
			ev.Fail("unevaluatedProperties", "one or more unevaluated properties failed validation")
		}
	}}, nil
}

func compileUnevaluatedItems(raw any, s *Schema, sc *SchemaConstraint, siblings map[string]KeywordConstraint, ctx *CompileContext) (KeywordConstraint, error) {
	child := s.Single["unevaluatedItems"]
	cc, err := ctx.compileChild(child, sc.InstancePrefix)
	if err != nil {
		return nil, err
	}
	return &simpleKeyword{name: "unevaluatedItems", fn: func(ev *Evaluation, ec *EvalContext) {
		arr, ok := ev.Instance.([]any)
		if !ok {
			return
		}
		start := ev.EvaluatedItemCount()
		if start < 0 {
			ev.SetAnnotation("unevaluatedItems", true)
			return
		}
		ok2 := true
		for i := start; i < len(arr); i++ {
			child := EvaluateAt(ev, cc, arr[i], ev.InstanceLocation.Index(i), ec, false, "unevaluatedItems", itoa(i))
			if !child.Valid {
				ok2 = false
			}
		}
		if ok2 {
			ev.SetAnnotation("unevaluatedItems", true)
		} else {
			ev.Fail("unevaluatedItems", "one or more unevaluated items failed validation")
		}
	}}, nil
}

func itoa(i int) string { return strconv.Itoa(i) }
