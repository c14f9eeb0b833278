package json

import (
	"encoding/json"

	marshalerpkg "github.com/oarkflow/json/marshaler"
)

type Marshaler func(any) ([]byte, error)

var (
	marshaler Marshaler
)

func DefaultMarshaler() {
	marshaler = json.Marshal
}

// SetMarshaler swaps the backend that Marshal encodes with.
func SetMarshaler(m Marshaler) {
	marshaler = m
	marshalerpkg.SetMarshaler(marshalerpkg.Marshaler(m))
}
