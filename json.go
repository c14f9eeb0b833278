package json

import (
	"errors"
	"reflect"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	v2 "github.com/oarkflow/json/jsonschema/v2"
	marshalerpkg "github.com/oarkflow/json/marshaler"
	unmarshalerpkg "github.com/oarkflow/json/unmarshaler"
)

func Marshal(data any) ([]byte, error) {
	return marshalerpkg.Instance()(data)
}

// Unmarshal decodes data into dst. When scheme is supplied, data is first
// validated against it (see Validate) before being decoded.
func Unmarshal(data []byte, dst any, scheme ...[]byte) error {
	if reflect.ValueOf(dst).Kind() != reflect.Ptr {
		return errors.New("dst is not pointer type")
	}
	if len(scheme) == 0 {
		return unmarshalerpkg.Instance()(data, dst)
	}
	if err := Validate(data, scheme[0]); err != nil {
		return err
	}
	return unmarshalerpkg.Instance()(data, dst)
}

// Validate compiles scheme as a JSON Schema document via jsonschema/v2 and
// reports whether data satisfies it.
func Validate(data []byte, scheme []byte) error {
	compiled, err := v2.CompileBytes(scheme)
	if err != nil {
		return err
	}
	var instance any
	if err := unmarshalerpkg.Instance()(data, &instance); err != nil {
		return err
	}
	if valid, msg := compiled.Validate(instance); !valid {
		return errors.New(msg)
	}
	return nil
}

func Get(jsonBytes []byte, path string) gjson.Result {
	return gjson.GetBytes(jsonBytes, path)
}

func Set(jsonBytes []byte, path string, val any) ([]byte, error) {
	return sjson.SetBytes(jsonBytes, path, val)
}

func Is(s string) bool {
	if len(s) == 0 {
		return false
	}
	s = strings.TrimSpace(s)
	if s[0] != '{' && s[0] != '[' {
		return false
	}
	if s[len(s)-1] != '}' && s[len(s)-1] != ']' {
		return false
	}
	const maxDepth = 1024
	var stack [maxDepth]rune
	sp := 0

	for i := 0; i < len(s); i++ {
		char := s[i]
		switch char {
		case '{', '[':
			if sp >= maxDepth {
				return false
			}
			stack[sp] = rune(char)
			sp++
		case '}', ']':
			if sp == 0 {
				return false
			}
			sp--
			opening := stack[sp]
			if (char == '}' && opening != '{') || (char == ']' && opening != '[') {
				return false
			}
		case '"':
			i++
			for i < len(s) {
				if s[i] == '\\' {
					i++
				} else if s[i] == '"' {
					break
				}
				i++
			}
		}
	}

	return sp == 0
}
