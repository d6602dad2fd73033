package server

import (
	"encoding/json"
)

// jsonCodec carries the plain Go message structs of the process service
// over Connect. It replaces Connect's protobuf JSON codec under the same
// name, so requests use Content-Type application/json.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, msg)
}
