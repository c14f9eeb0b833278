package v2

import "github.com/oarkflow/json/unmarshaler"

// Content vocabulary keywords are annotation-only by default (per the JSON
// Schema core spec, decoding/validating embedded content is opt-in); this
// package opts in for the one case a generic library can do safely without
// guessing a decoder for every contentEncoding: contentSchema validation of
// application/json content, using the unmarshaler package's pluggable
// instance so the decoded-content path participates in the same
// goccy/go-json swap as the rest of the module, without pulling in the
// root json package (which itself depends on this one for scheme-based
// validation).

func registerContentKeywords(r *KeywordRegistry) {
	v := VocabContent
	r.Register(&KeywordDef{Name: "contentEncoding", Priority: 8, Vocabulary: v, Compile: compileContentAnnotation("contentEncoding")})
	r.Register(&KeywordDef{Name: "contentMediaType", Priority: 8, Vocabulary: v, Compile: compileContentAnnotation("contentMediaType")})
	r.Register(&KeywordDef{Name: "contentSchema", Priority: 9, Vocabulary: v, Compile: compileContentSchema})
}

func compileContentAnnotation(name string) CompileFunc {
	return func(raw any, s *Schema, sc *SchemaConstraint, siblings map[string]KeywordConstraint, ctx *CompileContext) (KeywordConstraint, error) {
		return &simpleKeyword{name: name, fn: func(ev *Evaluation, ec *EvalContext) {
			ev.SetAnnotation(name, raw)
		}}, nil
	}
}

func compileContentSchema(raw any, s *Schema, sc *SchemaConstraint, siblings map[string]KeywordConstraint, ctx *CompileContext) (KeywordConstraint, error) {
	child := s.Single["contentSchema"]
	cc, err := ctx.compileChild(child, sc.InstancePrefix)
	if err != nil {
		return nil, err
	}
	mediaType, _ := s.Raw["contentMediaType"].(string)
	return &simpleKeyword{name: "contentSchema", fn: func(ev *Evaluation, ec *EvalContext) {
		ev.SetAnnotation("contentSchema", raw)
		if mediaType != "application/json" {
			return
		}
		str, ok := ev.Instance.(string)
		if !ok {
			return
		}
		var decoded any
		if err := unmarshaler.Instance()([]byte(str), &decoded); err != nil {
			ev.Fail("contentSchema", "contentMediaType is application/json but value does not decode: %v", err)
			return
		}
		child := EvaluateAt(ev, cc, decoded, ev.InstanceLocation, ec, false, "contentSchema")
		if !child.Valid {
			ev.Fail("contentSchema", "decoded content does not satisfy contentSchema")
		}
	}}, nil
}
