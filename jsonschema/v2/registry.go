package v2

import (
	"sync"
)

// FetchHook is consulted when Resolve misses; it may synchronously fetch a
// schema (from disk, HTTP, a bundled map, ...). Returning ok=false signals
// NotFound to the caller.
type FetchHook func(uri string) (*Schema, bool, error)

// Registry indexes every schema resource loaded into it by absolute URI and
// resolves $ref / $dynamicRef against that index, per spec.md §4.C.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]*Schema
	Fetcher FetchHook

	DefaultDraft Draft
	AllowUnknownDialect bool
}

// NewRegistry creates an empty reference registry.
func NewRegistry() *Registry {
	return &Registry{schemas: map[string]*Schema{}, DefaultDraft: Draft2020}
}

// register indexes s (and is invoked automatically by DeserializeSchema for
// every $id-bearing node reached during the recursive build).
func (r *Registry) register(s *Schema) {
	if s.ID == "" && s.Parent != nil {
		return
	}
	key := s.SchemaLocation()
	if s.BaseURI != nil {
		key = withoutFragment(s.BaseURI)
	}
	r.mu.Lock()
	r.schemas[key] = s
	r.mu.Unlock()
}

// Register indexes a root schema explicitly under uri, for callers that
// load a document without relying on its own $id.
func (r *Registry) Register(uri string, s *Schema) {
	r.mu.Lock()
	r.schemas[uri] = s
	r.mu.Unlock()
}

// Resolve looks up a schema resource by absolute URI (no fragment), falling
// back to the fetch hook on a miss.
func (r *Registry) Resolve(uri string) (*Schema, error) {
	r.mu.RLock()
	s, ok := r.schemas[uri]
	r.mu.RUnlock()
	if ok {
		return s, nil
	}
	if r.Fetcher != nil {
		fetched, found, err := r.Fetcher(uri)
		if err != nil {
			return nil, err
		}
		if found {
			r.mu.Lock()
			r.schemas[uri] = fetched
			r.mu.Unlock()
			return fetched, nil
		}
	}
	return nil, &UnresolvedReferenceError{Ref: uri}
}

// ResolveRef resolves a $ref string relative to from's base URI: the
// absolute-URI part is looked up in the registry (fetching if necessary)
// and the fragment is interpreted as a JSON Pointer into that resource, or
// as a plain-name $anchor lookup.
func (r *Registry) ResolveRef(from *Schema, ref string) (*Schema, error) {
	base := from.BaseURI
	target, err := resolveURI(base, ref)
	if err != nil {
		return nil, err
	}
	absolute, fragment := splitFragment(target)

	var root *Schema
	if absolute == "" || (from.BaseURI != nil && absolute == withoutFragment(from.BaseURI)) {
		root = rootOf(from)
	} else {
		root, err = r.Resolve(absolute)
		if err != nil {
			return nil, err
		}
	}

	if fragment == "" {
		return root, nil
	}
	if fragmentIsPointer(fragment) {
		ptr, err := ParsePointer(fragment)
		if err != nil {
			return nil, err
		}
		resolved, ok := root.Navigate(ptr)
		if !ok {
			return nil, &UnresolvedReferenceError{Ref: ref, SchemaLocation: from.SchemaLocation()}
		}
		return resolved, nil
	}
	if anchored := root.findAnchor(fragment); anchored != nil {
		return anchored, nil
	}
	return nil, &UnresolvedReferenceError{Ref: ref, SchemaLocation: from.SchemaLocation()}
}

// ResolveDynamicRef walks the dynamic scope (outermost first) and returns
// the outermost schema in that chain that declares a matching
// $dynamicAnchor; if none do, it falls back to static $ref-style resolution
// against "from". $recursiveRef does not go through here:
// recursiveRefKeyword.Evaluate walks the dynamic scope for $recursiveAnchor
// itself and falls back to ResolveRef.
func (r *Registry) ResolveDynamicRef(from *Schema, ref string, dynamicScope []*Schema) (*Schema, error) {
	target, err := resolveURI(from.BaseURI, ref)
	if err != nil {
		return nil, err
	}
	_, fragment := splitFragment(target)
	anchor := fragment
	// Each dynamicScope entry is a schema resource actually being evaluated
	// along the current recursion path (pushed by Evaluate itself), so the
	// match is against that schema's own $dynamicAnchor, the same way
	// recursiveRefKeyword checks $recursiveAnchor directly rather than
	// through a parent-indexed lookup table.
	for i := 0; i < len(dynamicScope); i++ {
		if dynamicScope[i].DynamicAnchor == anchor {
			return dynamicScope[i], nil
		}
	}
	return r.ResolveRef(from, ref)
}

func rootOf(s *Schema) *Schema {
	for s.Parent != nil {
		s = s.Parent
	}
	return s
}
