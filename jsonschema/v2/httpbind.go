package v2

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// UnmarshalAndValidateRequest is the HTTP request-binding supplement
// recorded in SPEC_FULL.md, ported from the teacher's
// jsonschema/v2/request.go: it builds an instance from an inbound request
// by reading each top-level schema property's "in"/"field" extension
// ("query", "header", "path", or the default "body"), validates that
// instance against schema, and on success decodes it into dst.
func UnmarshalAndValidateRequest(r *http.Request, dst any, schema []byte, pathParams map[string]string, opts ...Option) error {
	compiled, err := CompileBytes(schema, opts...)
	if err != nil {
		return fmt.Errorf("invalid schema: %w", err)
	}

	bodyFields, err := bodyAsMap(r)
	if err != nil {
		return fmt.Errorf("reading request body: %w", err)
	}

	instance := map[string]any{}
	props, _ := compiled.root.Source.Map["properties"]
	for name, propSchema := range props {
		in, field := extractBinding(propSchema, name)
		var value any
		var found bool
		switch in {
		case "query":
			value, found = extractFromQuery(r, field)
		case "header":
			value, found = extractFromHeader(r, field)
		case "path":
			value, found = extractFromPath(pathParams, field)
		default: // "body"
			value, found = bodyFields[field]
		}
		if !found {
			continue
		}
		// query/header/path params always arrive as strings; coerce them to
		// the declared numeric type so the schema's maximum/minimum/etc.
		// keywords (which only apply to JSON numbers) actually run.
		if in != "body" {
			if str, ok := value.(string); ok {
				for _, t := range schemaTypes(propSchema) {
					if t == "integer" || t == "number" {
						if n, err := coerceNumeric(str); err == nil {
							value = n
						}
						break
					}
				}
			}
		}
		instance[name] = value
	}
	// Anything the body carried that wasn't claimed by an explicit binding
	// still participates, so an un-annotated schema behaves like a plain
	// body-validated endpoint.
	for k, v := range bodyFields {
		if _, already := instance[k]; !already {
			instance[k] = v
		}
	}

	ev := compiled.Evaluate(instance)
	if !ev.Valid {
		return fmt.Errorf("request validation failed: %s", firstError(ev))
	}

	encoded, err := json.Marshal(instance)
	if err != nil {
		return fmt.Errorf("encoding validated request: %w", err)
	}
	return json.Unmarshal(encoded, dst)
}

func extractBinding(propSchema *Schema, fallbackField string) (in, field string) {
	in, _ = propSchema.Raw["in"].(string)
	field, _ = propSchema.Raw["field"].(string)
	if field == "" {
		field = fallbackField
	}
	if in == "" {
		in = "body"
	}
	return in, field
}

func bodyAsMap(r *http.Request) (map[string]any, error) {
	out := map[string]any{}
	if r.Body == nil {
		return out, nil
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func extractFromQuery(r *http.Request, field string) (any, bool) {
	if !r.URL.Query().Has(field) {
		return nil, false
	}
	return r.URL.Query().Get(field), true
}

func extractFromHeader(r *http.Request, field string) (any, bool) {
	v := r.Header.Get(field)
	if v == "" {
		return nil, false
	}
	if strings.EqualFold(field, "Authorization") {
		return extractToken(v), true
	}
	return v, true
}

func extractFromPath(pathParams map[string]string, field string) (any, bool) {
	v, ok := pathParams[field]
	return v, ok
}

// extractToken strips a "Bearer " prefix off an Authorization header value,
// matching the teacher's request.go helper of the same name.
func extractToken(authHeader string) string {
	const prefix = "Bearer "
	if strings.HasPrefix(authHeader, prefix) {
		return strings.TrimPrefix(authHeader, prefix)
	}
	return authHeader
}

// coerceNumeric is used by callers that need a query/header string coerced
// to the numeric type its schema declares; kept narrow and explicit rather
// than guessing, per the teacher's own conservative type coercion style.
func coerceNumeric(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}
