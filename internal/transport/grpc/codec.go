package grpc

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// jsonCodec replaces protobuf wire marshaling with plain JSON: the service's
// messages (messages.go) are ordinary Go structs, not generated protobuf
// types, since no protoc run produced them. Registered under the name
// "json" and selected server-wide via grpc.ForceServerCodec in server.go.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string { return "json" }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
