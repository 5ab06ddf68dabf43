// Package unary serves and calls single request/response operations over the Connect
// protocol. A connect-go handler also speaks gRPC and gRPC-Web, so one handler covers all three
// wire protocols. Messages are plain Go structs encoded as JSON, which means no protobuf
// generated types are involved; gRPC callers must use the "json" sub-codec.
package unary

import (
	"github.com/go-json-experiment/json"
)

// Codec is a connect.Codec that marshals ordinary Go structs as JSON. It replaces connect's
// built-in "json" codec, which only accepts protobuf messages.
type Codec struct{}

// Name is the codec name used in content types ("application/json", "application/grpc+json").
func (Codec) Name() string {
	return "json"
}

// Marshal encodes a request/response struct.
func (Codec) Marshal(message any) ([]byte, error) {
	return json.Marshal(message)
}

// Unmarshal decodes into a request/response struct. An empty payload leaves the zero value.
func (Codec) Unmarshal(data []byte, message any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, message)
}
