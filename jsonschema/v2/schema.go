package v2

import (
	"fmt"
	"net/url"
	"sort"
	"sync"
)

// keyword-value shapes that carry sub-schemas, so the Schema DOM builder
// knows which children to recurse into for $id/$anchor scoping and for the
// constraint compiler to later pull from. This mirrors the teacher's
// compileSchema switch over known applicator keys, generalized to three
// shapes instead of one bespoke struct field per keyword.
var singleSchemaKeywords = map[string]bool{
	"additionalProperties":  true,
	"unevaluatedProperties": true,
	"unevaluatedItems":      true,
	"propertyNames":         true,
	"contains":              true,
	"not":                   true,
	"if":                    true,
	"then":                  true,
	"else":                  true,
	"contentSchema":         true,
	"additionalItems":       true,
	"items":                 true, // array form (pre-2020-12) is handled as a list instead; see DeserializeSchema
}

var listSchemaKeywords = map[string]bool{
	"allOf":       true,
	"anyOf":       true,
	"oneOf":       true,
	"prefixItems": true,
}

var mapSchemaKeywords = map[string]bool{
	"properties":        true,
	"patternProperties": true,
	"dependentSchemas":  true,
	"$defs":             true,
	"definitions":       true,
}

// Schema is one node of the in-memory schema DOM: either a boolean
// (accept-all/reject-all sentinel) or an object carrying keyword values.
type Schema struct {
	Boolean *bool

	// Raw holds every keyword's undecoded JSON value, including unknown
	// keywords (which round-trip as UnrecognizedKeyword annotations).
	Raw map[string]any

	Single map[string]*Schema
	List   map[string][]*Schema
	Map    map[string]map[string]*Schema

	ID              string
	SchemaURI       string
	Anchor          string
	DynamicAnchor   string
	RecursiveAnchor bool
	Comment         string

	BaseURI *url.URL
	Ptr     Pointer
	Dialect *Dialect

	Parent *Schema
	anchors map[string]*Schema

	registry *Registry

	mu          sync.Mutex
	constraints map[string]*SchemaConstraint
}

// SchemaLocation is the absolute-URI + JSON-pointer-fragment identity of
// this schema's canonical position, per spec.md's GLOSSARY.
func (s *Schema) SchemaLocation() string {
	base := ""
	if s.BaseURI != nil {
		base = s.BaseURI.String()
	}
	return base + "#" + s.Ptr.String()
}

// DeserializeSchema builds a Schema DOM node (and, recursively, its
// sub-schema children) from a parsed JSON value, per spec.md §4.B.
func DeserializeSchema(raw any, reg *Registry, parent *Schema, baseURI *url.URL, ptr Pointer, dialect *Dialect) (*Schema, error) {
	if b, ok := raw.(bool); ok {
		return &Schema{Boolean: &b, Parent: parent, BaseURI: baseURI, Ptr: ptr, Dialect: dialect, registry: reg}, nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, &SchemaParseError{Msg: fmt.Sprintf("schema must be an object or boolean, got %T", raw), SchemaLocation: ptr.String()}
	}

	// Legacy aliases normalize onto their modern names before anything else
	// looks at the map, matching the teacher's "definitions"->"$defs" and
	// "dependencies" split.
	normalizeLegacyKeywords(m)

	s := &Schema{
		Raw:     m,
		Parent:  parent,
		BaseURI: baseURI,
		Ptr:     ptr,
		Dialect: dialect,
		registry: reg,
		Single:  map[string]*Schema{},
		List:    map[string][]*Schema{},
		Map:     map[string]map[string]*Schema{},
	}

	if v, ok := m["$id"].(string); ok {
		s.ID = v
		resolved, err := resolveURI(baseURI, v)
		if err != nil {
			return nil, err
		}
		s.BaseURI = resolved
	}
	if v, ok := m["$schema"].(string); ok {
		s.SchemaURI = v
	}
	if v, ok := m["$anchor"].(string); ok {
		s.Anchor = v
		rootOf(s).registerAnchor(v, s)
	}
	if v, ok := m["$dynamicAnchor"].(string); ok {
		s.DynamicAnchor = v
	}
	if v, ok := m["$recursiveAnchor"].(bool); ok {
		s.RecursiveAnchor = v
	}
	if v, ok := m["$comment"].(string); ok {
		s.Comment = v
	}

	// Array-form "items" (draft6/7/2019-09 tuple validation) is structurally
	// a list of sub-schemas; object-form "items" (2020-12+) is a single
	// sub-schema. Route it before the generic single/list/map pass below.
	if itemsVal, exists := m["items"]; exists {
		if arr, isArr := itemsVal.([]any); isArr {
			// dialect is nil here for every schema reached through the
			// public Compile/CompileFromURI entry points (draft detection
			// needs $schema off this very Schema, so it runs afterward in
			// Compiler.Compile); this check only fires when a caller
			// deserializes directly with an already-known dialect. The
			// enforcement that matters for $schema-driven draft detection
			// lives in compileItems (keywords_applicator.go), which runs
			// after Compiler.Compile's assignDialect has populated
			// s.Dialect on every node.
			if dialect != nil && (dialect.Draft == Draft2020 || dialect.Draft == DraftNext) {
				return nil, &DraftIncompatibleError{Keyword: "items", Draft: dialect.Draft, SchemaLocation: ptr.String(), Reason: "array-form items was replaced by prefixItems in 2020-12"}
			}
			list := make([]*Schema, len(arr))
			for i, item := range arr {
				child, err := DeserializeSchema(item, reg, s, s.BaseURI, ptr.Child("items").Index(i), dialect)
				if err != nil {
					return nil, err
				}
				list[i] = child
			}
			s.List["items"] = list
		} else {
			child, err := DeserializeSchema(itemsVal, reg, s, s.BaseURI, ptr.Child("items"), dialect)
			if err != nil {
				return nil, err
			}
			s.Single["items"] = child
		}
	}

	for key := range singleSchemaKeywords {
		if key == "items" {
			continue // handled above
		}
		val, exists := m[key]
		if !exists {
			continue
		}
		child, err := DeserializeSchema(val, reg, s, s.BaseURI, ptr.Child(key), dialect)
		if err != nil {
			return nil, fmt.Errorf("error compiling %s: %w", key, err)
		}
		s.Single[key] = child
	}

	for key := range listSchemaKeywords {
		val, exists := m[key]
		if !exists {
			continue
		}
		arr, ok := val.([]any)
		if !ok {
			return nil, &SchemaParseError{Msg: key + " must be an array", SchemaLocation: ptr.Child(key).String()}
		}
		list := make([]*Schema, len(arr))
		for i, item := range arr {
			child, err := DeserializeSchema(item, reg, s, s.BaseURI, ptr.Child(key).Index(i), dialect)
			if err != nil {
				return nil, fmt.Errorf("error compiling %s[%d]: %w", key, i, err)
			}
			list[i] = child
		}
		s.List[key] = list
	}

	for key := range mapSchemaKeywords {
		val, exists := m[key]
		if !exists {
			continue
		}
		mm, ok := val.(map[string]any)
		if !ok {
			return nil, &SchemaParseError{Msg: key + " must be an object", SchemaLocation: ptr.Child(key).String()}
		}
		children := make(map[string]*Schema, len(mm))
		names := make([]string, 0, len(mm))
		for name := range mm {
			names = append(names, name)
		}
		sort.Strings(names) // deterministic compile order for reproducible error messages
		for _, name := range names {
			child, err := DeserializeSchema(mm[name], reg, s, s.BaseURI, ptr.Child(key).Child(name), dialect)
			if err != nil {
				return nil, fmt.Errorf("error compiling %s[%s]: %w", key, name, err)
			}
			children[name] = child
		}
		s.Map[key] = children
		if key == "$defs" {
			s.Map["definitions"] = children
		}
	}

	if reg != nil {
		reg.register(s)
	}
	return s, nil
}

func normalizeLegacyKeywords(m map[string]any) {
	if defs, exists := m["definitions"]; exists {
		if _, hasDefs := m["$defs"]; !hasDefs {
			m["$defs"] = defs
		}
	}
	if dep, exists := m["dependencies"]; exists {
		if depMap, ok := dep.(map[string]any); ok {
			for key, val := range depMap {
				switch v := val.(type) {
				case []any:
					req, _ := m["dependentRequired"].(map[string]any)
					if req == nil {
						req = map[string]any{}
					}
					req[key] = v
					m["dependentRequired"] = req
				case map[string]any:
					sch, _ := m["dependentSchemas"].(map[string]any)
					if sch == nil {
						sch = map[string]any{}
					}
					sch[key] = v
					m["dependentSchemas"] = sch
				}
			}
		}
	}
}

func (s *Schema) registerAnchor(name string, target *Schema) {
	if s.anchors == nil {
		s.anchors = map[string]*Schema{}
	}
	s.anchors[name] = target
}

// findAnchor looks up a plain $anchor declared anywhere in s's schema
// resource. Every $anchor is registered on its resource's document root at
// deserialization time (see DeserializeSchema), regardless of how deeply
// it's nested, so a single map lookup on the root suffices.
func (s *Schema) findAnchor(name string) *Schema {
	root := rootOf(s)
	if root.anchors == nil {
		return nil
	}
	return root.anchors[name]
}

// Navigate walks a JSON Pointer through the schema DOM (not the raw JSON),
// using the Single/List/Map child indexes built during deserialization.
func (s *Schema) Navigate(ptr Pointer) (*Schema, bool) {
	cur := s
	for i := 0; i < len(ptr); i++ {
		tok := ptr[i]
		if child, ok := cur.Single[tok]; ok {
			cur = child
			continue
		}
		if list, ok := cur.List[tok]; ok {
			i++
			if i >= len(ptr) {
				return nil, false
			}
			idx, err := parseIndex(ptr[i])
			if err != nil || idx < 0 || idx >= len(list) {
				return nil, false
			}
			cur = list[idx]
			continue
		}
		if mm, ok := cur.Map[tok]; ok {
			i++
			if i >= len(ptr) {
				return nil, false
			}
			child, ok := mm[ptr[i]]
			if !ok {
				return nil, false
			}
			cur = child
			continue
		}
		return nil, false
	}
	return cur, true
}

func parseIndex(tok string) (int, error) {
	n := 0
	if tok == "" {
		return 0, fmt.Errorf("empty index token")
	}
	for _, c := range tok {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("not a numeric index: %s", tok)
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
}
