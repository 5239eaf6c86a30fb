package journal

import "encoding/json"

// Codec encodes journaled values. One codec instance covers one of the two
// value kinds a store journal deals with, states or actions.
type Codec[T any] interface {
	Encode(v T) (json.RawMessage, error)
	Decode(data json.RawMessage) (T, error)
}

// JSONCodec is the default Codec, using encoding/json.
type JSONCodec[T any] struct{}

// Encode implements Codec.
func (JSONCodec[T]) Encode(v T) (json.RawMessage, error) {
	return json.Marshal(v)
}

// Decode implements Codec.
func (JSONCodec[T]) Decode(data json.RawMessage) (T, error) {
	var v T
	err := json.Unmarshal(data, &v)
	return v, err
}
