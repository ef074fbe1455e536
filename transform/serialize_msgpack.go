package transform

import (
	"fmt"

	"github.com/ugorji/go/codec"
)

// msgpackKind tags the first byte of the payload when the
// structured-fallback variant is in use, so Deserialize knows which path
// to reverse.
const (
	msgpackKindStructured byte = 0x01
	msgpackKindJSONFallback byte = 0x00
)

// msgpackSerializer implements the "messagepack" and
// "messagepack-with-structured-fallback" serializer options of spec §4.B,
// using github.com/ugorji/go/codec (msgpack-compatible, carried over from
// AKJUS-bsc-erigon's go.mod). The fallback variant mirrors the teacher
// Python's "msgpack-dill" naming convention: a fast binary codec paired
// with a slower, more permissive fallback (here: JSON) for values that
// don't round-trip through the codec's structured mode — e.g. a Diff
// carrying heterogeneous Patch/nested-map values.
type msgpackSerializer struct {
	fallback bool
	handle   *codec.MsgpackHandle
}

func newMsgpackSerializer(fallback bool) Serializer {
	h := &codec.MsgpackHandle{}
	h.StructToArray = false
	h.Canonical = true
	return &msgpackSerializer{fallback: fallback, handle: h}
}

func (s *msgpackSerializer) Name() string {
	if s.fallback {
		return "messagepack-with-structured-fallback"
	}
	return "messagepack"
}

func (s *msgpackSerializer) Serialize(obj interface{}) ([]byte, error) {
	data, err := s.encodeMsgpack(obj)
	if err == nil {
		if !s.fallback {
			return data, nil
		}
		return append([]byte{msgpackKindStructured}, data...), nil
	}
	if !s.fallback {
		return nil, fmt.Errorf("transform: messagepack encode failed: %w", err)
	}
	js, jerr := jsonSerializer{}.Serialize(obj)
	if jerr != nil {
		return nil, fmt.Errorf("transform: messagepack encode failed (%v) and json fallback failed: %w", err, jerr)
	}
	return append([]byte{msgpackKindJSONFallback}, js...), nil
}

func (s *msgpackSerializer) Deserialize(data []byte) (interface{}, error) {
	if !s.fallback {
		return s.decodeMsgpack(data)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("transform: empty messagepack payload")
	}
	kind, body := data[0], data[1:]
	switch kind {
	case msgpackKindStructured:
		return s.decodeMsgpack(body)
	case msgpackKindJSONFallback:
		return jsonSerializer{}.Deserialize(body)
	default:
		return nil, fmt.Errorf("transform: unknown messagepack payload kind %d", kind)
	}
}

func (s *msgpackSerializer) encodeMsgpack(obj interface{}) ([]byte, error) {
	var data []byte
	enc := codec.NewEncoderBytes(&data, s.handle)
	if err := enc.Encode(obj); err != nil {
		return nil, err
	}
	return data, nil
}

func (s *msgpackSerializer) decodeMsgpack(data []byte) (interface{}, error) {
	var v interface{}
	dec := codec.NewDecoderBytes(data, s.handle)
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return normalizeMsgpackValue(v), nil
}

// normalizeMsgpackValue converts codec's decode output (map[interface{}]interface{})
// into map[string]interface{} so downstream code can treat json and
// msgpack decode results uniformly.
func normalizeMsgpackValue(v interface{}) interface{} {
	switch x := v.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(x))
		for k, val := range x {
			out[fmt.Sprintf("%v", k)] = normalizeMsgpackValue(val)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(x))
		for k, val := range x {
			out[k] = normalizeMsgpackValue(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, e := range x {
			out[i] = normalizeMsgpackValue(e)
		}
		return out
	default:
		return v
	}
}
