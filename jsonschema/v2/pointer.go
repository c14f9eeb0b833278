package v2

import (
	"strconv"
	"strings"
)

// Pointer is an RFC 6901 JSON Pointer, held as its decoded reference tokens.
type Pointer []string

// ParsePointer parses a JSON Pointer of the form "/a/b/0". The empty string
// denotes the document root.
func ParsePointer(s string) (Pointer, error) {
	if s == "" {
		return Pointer{}, nil
	}
	if !strings.HasPrefix(s, "/") {
		return nil, &SchemaParseError{Msg: "json pointer must start with '/': " + s}
	}
	parts := strings.Split(s[1:], "/")
	tokens := make(Pointer, len(parts))
	for i, p := range parts {
		tokens[i] = unescapeToken(p)
	}
	return tokens, nil
}

func unescapeToken(tok string) string {
	tok = strings.ReplaceAll(tok, "~1", "/")
	tok = strings.ReplaceAll(tok, "~0", "~")
	return tok
}

func escapeToken(tok string) string {
	tok = strings.ReplaceAll(tok, "~", "~0")
	tok = strings.ReplaceAll(tok, "/", "~1")
	return tok
}

// String renders the pointer back to RFC 6901 text form.
func (p Pointer) String() string {
	if len(p) == 0 {
		return ""
	}
	var b strings.Builder
	for _, tok := range p {
		b.WriteByte('/')
		b.WriteString(escapeToken(tok))
	}
	return b.String()
}

// Combine appends other's tokens to a copy of p ("a.combine(b)" in spec terms).
func (p Pointer) Combine(other Pointer) Pointer {
	out := make(Pointer, 0, len(p)+len(other))
	out = append(out, p...)
	out = append(out, other...)
	return out
}

// Child returns a copy of p with one more token appended.
func (p Pointer) Child(tok string) Pointer {
	out := make(Pointer, len(p)+1)
	copy(out, p)
	out[len(p)] = tok
	return out
}

// Index returns a copy of p with an array index token appended.
func (p Pointer) Index(i int) Pointer {
	return p.Child(strconv.Itoa(i))
}

// Eval walks instance along the pointer and returns the addressed value.
func (p Pointer) Eval(instance any) (any, bool) {
	cur := instance
	for _, tok := range p {
		switch v := cur.(type) {
		case map[string]any:
			val, ok := v[tok]
			if !ok {
				return nil, false
			}
			cur = val
		case []any:
			idx, err := strconv.Atoi(tok)
			if err != nil || idx < 0 || idx >= len(v) {
				return nil, false
			}
			cur = v[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

// IsRelative reports whether s looks like a relative JSON pointer used by
// $dynamicRef's "#<anchor>" forms never apply here; relative pointers are
// "<n>#?<pointer>" per the Relative JSON Pointer draft.
func IsRelative(s string) bool {
	if s == "" {
		return false
	}
	return s[0] >= '0' && s[0] <= '9'
}
