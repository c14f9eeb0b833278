package json

import (
	"encoding/json"

	unmarshalerpkg "github.com/oarkflow/json/unmarshaler"
)

type Unmarshaler func([]byte, any) error

var (
	unmarshaler Unmarshaler
)

func init() {
	unmarshaler = json.Unmarshal
}

// SetUnmarshaler swaps the backend that Unmarshal and Validate decode with.
func SetUnmarshaler(m Unmarshaler) {
	unmarshaler = m
	unmarshalerpkg.SetUnmarshaler(unmarshalerpkg.Unmarshaler(m))
}
