package v2

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/oarkflow/expr"
)

// Meta-Data vocabulary keywords never affect validity; they only ever
// produce an annotation carrying their own raw value, per spec.md §4.B.

func registerMetadataKeywords(r *KeywordRegistry) {
	v := VocabMetaData
	for _, name := range []string{"title", "description", "deprecated", "readOnly", "writeOnly", "examples"} {
		name := name
		r.Register(&KeywordDef{Name: name, Priority: 8, Vocabulary: v, Compile: func(raw any, s *Schema, sc *SchemaConstraint, siblings map[string]KeywordConstraint, ctx *CompileContext) (KeywordConstraint, error) {
			return &simpleKeyword{name: name, fn: func(ev *Evaluation, ec *EvalContext) {
				ev.SetAnnotation(name, raw)
			}}, nil
		}})
	}
	r.Register(&KeywordDef{Name: "default", Priority: 8, Vocabulary: v, Compile: compileDefault})
}

// compileDefault annotates "default" the way every other meta-data keyword
// does, except when the declared value is a "{{ expr }}" string, in which
// case it's evaluated once at compile time via the computed-default
// mini-language ported from the teacher's jsonschema/v2/expression.go
// (prepareDefault/evaluateExpression), so a schema author can write
// "default": "{{ now() }}" instead of a literal.
func compileDefault(raw any, s *Schema, sc *SchemaConstraint, siblings map[string]KeywordConstraint, ctx *CompileContext) (KeywordConstraint, error) {
	resolved, err := prepareDefault(raw)
	if err != nil {
		return nil, fmt.Errorf("evaluating default expression at %s: %w", s.SchemaLocation(), err)
	}
	return &simpleKeyword{name: "default", fn: func(ev *Evaluation, ec *EvalContext) {
		ev.SetAnnotation("default", resolved)
	}}, nil
}

// prepareDefault and evaluateExpression port the teacher's
// jsonschema/v2/expression.go computed-default mini-language: a
// "{{ <json literal> }}" value decodes as JSON, while any other
// "{{ <expr> }}" value is evaluated as an github.com/oarkflow/expr
// expression. Anything not wrapped in "{{ }}" passes through unchanged.
func prepareDefault(def any) (any, error) {
	if def == nil {
		return nil, nil
	}
	defStr, ok := def.(string)
	if !ok {
		return def, nil
	}
	if !strings.HasPrefix(defStr, "{{") || !strings.HasSuffix(defStr, "}}") {
		return def, nil
	}
	trimmed := strings.TrimPrefix(defStr, "{{")
	trimmed = strings.TrimSuffix(trimmed, "}}")
	return evaluateExpression(trimmed)
}

func evaluateExpression(exprStr string) (any, error) {
	exprStr = strings.TrimSpace(exprStr)
	jsonStr := strings.ReplaceAll(exprStr, "'", "\"")
	var m any
	if err := json.Unmarshal([]byte(jsonStr), &m); err == nil {
		return m, nil
	}
	vm, err := expr.Parse(exprStr)
	if err != nil {
		return nil, err
	}
	return vm.Eval(nil)
}
