package v2

// Core-vocabulary keywords: $ref, $dynamicRef, $recursiveRef, and the
// bookkeeping keywords ($id, $schema, $anchor, $dynamicAnchor,
// $recursiveAnchor, $comment, $defs/definitions) that were already consumed
// while building the Schema DOM (schema.go) and need no KeywordConstraint of
// their own — their Compile funcs return (nil, nil).

func registerCoreKeywords(r *KeywordRegistry) {
	r.Register(&KeywordDef{Name: "$id", Priority: PriorityCore, Compile: noopCompile})
	r.Register(&KeywordDef{Name: "$schema", Priority: PriorityCore, Compile: noopCompile})
	r.Register(&KeywordDef{Name: "$anchor", Priority: PriorityCore, Compile: noopCompile})
	r.Register(&KeywordDef{Name: "$dynamicAnchor", Priority: PriorityCore, Compile: noopCompile})
	r.Register(&KeywordDef{Name: "$recursiveAnchor", Priority: PriorityCore, Compile: noopCompile})
	r.Register(&KeywordDef{Name: "$comment", Priority: PriorityCore, Compile: noopCompile})
	r.Register(&KeywordDef{Name: "$defs", Priority: PriorityCore, Compile: noopCompile})
	r.Register(&KeywordDef{Name: "definitions", Priority: PriorityCore, Compile: noopCompile})
	r.Register(&KeywordDef{Name: "$vocabulary", Priority: PriorityCore, Compile: noopCompile})

	r.Register(&KeywordDef{Name: "$ref", Priority: 0, Compile: compileRef})
	r.Register(&KeywordDef{Name: "$dynamicRef", Priority: 0, Drafts: map[Draft]bool{Draft2020: true, DraftNext: true}, Compile: compileDynamicRef})
	r.Register(&KeywordDef{Name: "$recursiveRef", Priority: 0, Drafts: map[Draft]bool{Draft2019: true}, Compile: compileRecursiveRef})
}

func noopCompile(raw any, s *Schema, sc *SchemaConstraint, siblings map[string]KeywordConstraint, ctx *CompileContext) (KeywordConstraint, error) {
	return nil, nil
}

type refKeyword struct {
	name   string
	target *SchemaConstraint
}

func (k *refKeyword) Name() string { return k.name }
func (k *refKeyword) Evaluate(ev *Evaluation, ec *EvalContext) {
	EvaluateAt(ev, k.target, ev.Instance, ev.InstanceLocation, ec, true, k.name)
}

func compileRef(raw any, s *Schema, sc *SchemaConstraint, siblings map[string]KeywordConstraint, ctx *CompileContext) (KeywordConstraint, error) {
	ref, ok := raw.(string)
	if !ok {
		return nil, &SchemaParseError{Msg: "$ref must be a string", SchemaLocation: s.SchemaLocation()}
	}
	target, err := ctx.Registry.ResolveRef(s, ref)
	if err != nil {
		return nil, err
	}
	tc, err := ctx.compile(target, sc.InstancePrefix)
	if err != nil {
		return nil, err
	}
	return &refKeyword{name: "$ref", target: tc}, nil
}

// dynamicRefKeyword resolves its target lazily at evaluation time, since the
// outcome depends on the dynamic scope in force at evaluation (spec.md §3's
// DynamicScope), not on the static compile-time schema graph.
type dynamicRefKeyword struct {
	name string
	ref  string
	from *Schema
	ctx  *CompileContext
	// instancePrefix pins the sub-instance this $dynamicRef applies at
	// (inherited from the enclosing schema, unchanged by the ref itself).
	instancePrefix Pointer
}

func (k *dynamicRefKeyword) Name() string { return k.name }
func (k *dynamicRefKeyword) Evaluate(ev *Evaluation, ec *EvalContext) {
	target, err := k.ctx.Registry.ResolveDynamicRef(k.from, k.ref, ec.dynamicScope)
	if err != nil {
		ev.Fail(k.name, "%v", err)
		return
	}
	tc, err := k.ctx.compile(target, k.instancePrefix)
	if err != nil {
		ev.Fail(k.name, "%v", err)
		return
	}
	EvaluateAt(ev, tc, ev.Instance, ev.InstanceLocation, ec, true, k.name)
}

func compileDynamicRef(raw any, s *Schema, sc *SchemaConstraint, siblings map[string]KeywordConstraint, ctx *CompileContext) (KeywordConstraint, error) {
	ref, ok := raw.(string)
	if !ok {
		return nil, &SchemaParseError{Msg: "$dynamicRef must be a string", SchemaLocation: s.SchemaLocation()}
	}
	return &dynamicRefKeyword{name: "$dynamicRef", ref: ref, from: s, ctx: ctx, instancePrefix: sc.InstancePrefix}, nil
}

// recursiveRefKeyword implements the 2019-09 predecessor to $dynamicRef:
// the dynamic scope is searched for the outermost schema with
// $recursiveAnchor: true, per spec.md §9's guidance on the two mechanisms.
type recursiveRefKeyword struct {
	name string
	ref  string
	from *Schema
	ctx  *CompileContext
	instancePrefix Pointer
}

func (k *recursiveRefKeyword) Name() string { return k.name }
func (k *recursiveRefKeyword) Evaluate(ev *Evaluation, ec *EvalContext) {
	var target *Schema
	for _, s := range ec.dynamicScope {
		if s.RecursiveAnchor {
			target = s
			break
		}
	}
	if target == nil {
		resolved, err := k.ctx.Registry.ResolveRef(k.from, k.ref)
		if err != nil {
			ev.Fail(k.name, "%v", err)
			return
		}
		target = resolved
	}
	tc, err := k.ctx.compile(target, k.instancePrefix)
	if err != nil {
		ev.Fail(k.name, "%v", err)
		return
	}
	EvaluateAt(ev, tc, ev.Instance, ev.InstanceLocation, ec, true, k.name)
}

func compileRecursiveRef(raw any, s *Schema, sc *SchemaConstraint, siblings map[string]KeywordConstraint, ctx *CompileContext) (KeywordConstraint, error) {
	ref, ok := raw.(string)
	if !ok {
		return nil, &SchemaParseError{Msg: "$recursiveRef must be a string", SchemaLocation: s.SchemaLocation()}
	}
	return &recursiveRefKeyword{name: "$recursiveRef", ref: ref, from: s, ctx: ctx, instancePrefix: sc.InstancePrefix}, nil
}
