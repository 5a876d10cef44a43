package database

import "github.com/fxamacker/cbor/v2"

// CBOR is a storm codec that serializes with CBOR (RFC 8949).
// Struct fields are named after their json tags.
var CBOR = new(cborCodec)

type cborCodec int

func (c cborCodec) Marshal(v interface{}) ([]byte, error) {
	return cbor.Marshal(v)
}

func (c cborCodec) Unmarshal(b []byte, v interface{}) error {
	return cbor.Unmarshal(b, v)
}

func (c cborCodec) Name() string {
	return "cbor"
}
