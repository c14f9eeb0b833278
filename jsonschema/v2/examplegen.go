package v2

import (
	"github.com/brianvoe/gofakeit/v6"
)

// GenerateExample walks the compiled schema's DOM and produces a
// representative instance, ported from the teacher's
// jsonschema/v2/jsonschema.go GenerateExample: prefer "examples[0]", then
// "default", then a gofakeit value appropriate to "type"/"format".
func (c *CompiledSchema) GenerateExample() any {
	return generateExample(c.root.Source)
}

func generateExample(s *Schema) any {
	if s == nil {
		return nil
	}
	if s.Boolean != nil {
		if *s.Boolean {
			return map[string]any{}
		}
		return nil
	}
	if examples, ok := s.Raw["examples"].([]any); ok && len(examples) > 0 {
		return examples[0]
	}
	if def, ok := s.Raw["default"]; ok {
		return def
	}

	types := schemaTypes(s)
	for _, t := range types {
		switch t {
		case "object":
			return generateObjectExample(s)
		case "array":
			return generateArrayExample(s)
		case "string":
			return generateStringExample(s)
		case "integer":
			return gofakeit.Number(0, 1000)
		case "number":
			return gofakeit.Float64Range(0, 1000)
		case "boolean":
			return gofakeit.Bool()
		case "null":
			return nil
		}
	}
	if len(s.Map["properties"]) > 0 {
		return generateObjectExample(s)
	}
	return gofakeit.Word()
}

func schemaTypes(s *Schema) []string {
	switch t := s.Raw["type"].(type) {
	case string:
		return []string{t}
	case []any:
		out := make([]string, 0, len(t))
		for _, v := range t {
			if str, ok := v.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

func generateObjectExample(s *Schema) map[string]any {
	out := map[string]any{}
	for name, child := range s.Map["properties"] {
		out[name] = generateExample(child)
	}
	return out
}

func generateArrayExample(s *Schema) []any {
	if child, ok := s.Single["items"]; ok {
		return []any{generateExample(child)}
	}
	if list, ok := s.List["items"]; ok {
		out := make([]any, len(list))
		for i, child := range list {
			out[i] = generateExample(child)
		}
		return out
	}
	if list, ok := s.List["prefixItems"]; ok {
		out := make([]any, len(list))
		for i, child := range list {
			out[i] = generateExample(child)
		}
		return out
	}
	return []any{}
}

func generateStringExample(s *Schema) string {
	switch s.Raw["format"] {
	case "email", "idn-email":
		return gofakeit.Email()
	case "date-time":
		return gofakeit.Date().Format("2006-01-02T15:04:05Z07:00")
	case "date":
		return gofakeit.Date().Format("2006-01-02")
	case "uri", "uri-reference", "iri", "iri-reference":
		return gofakeit.URL()
	case "hostname", "idn-hostname":
		return gofakeit.DomainName()
	case "ipv4":
		return gofakeit.IPv4Address()
	case "ipv6":
		return gofakeit.IPv6Address()
	case "uuid":
		return gofakeit.UUID()
	default:
		return gofakeit.Word()
	}
}
