package v2

import (
	"net/url"
	"strings"
)

// resolveURI resolves ref against base following RFC 3986 relative
// resolution. base may be nil, in which case ref must be absolute.
func resolveURI(base *url.URL, ref string) (*url.URL, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return nil, &SchemaParseError{Msg: "invalid URI reference '" + ref + "': " + err.Error()}
	}
	if base == nil {
		return u, nil
	}
	return base.ResolveReference(u), nil
}

// splitFragment separates a URI into its base (without fragment) and its
// fragment text (without the leading '#').
func splitFragment(u *url.URL) (base string, fragment string) {
	cp := *u
	fragment = cp.Fragment
	cp.Fragment = ""
	cp.RawFragment = ""
	return cp.String(), fragment
}

// fragmentIsPointer reports whether a URI fragment denotes a JSON Pointer
// (per spec.md §4.A, fragments beginning with '/' are pointers; anything
// else is a plain-name $anchor).
func fragmentIsPointer(fragment string) bool {
	return fragment == "" || strings.HasPrefix(fragment, "/")
}

// withoutFragment returns the absolute-URI component of u, dropping any
// fragment, as plain text. Used as the registry lookup key.
func withoutFragment(u *url.URL) string {
	base, _ := splitFragment(u)
	return base
}
