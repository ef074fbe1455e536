package transform

import "encoding/json"

// jsonSerializer implements the "json" serializer option. The wire format
// for config.json and the on-disk record shapes is explicitly specified
// as JSON by spec §6, so this is a spec-mandated use of the standard
// library, not a gap in the domain stack.
type jsonSerializer struct{}

func (jsonSerializer) Name() string { return "json" }

func (jsonSerializer) Serialize(obj interface{}) ([]byte, error) {
	return json.Marshal(obj)
}

func (jsonSerializer) Deserialize(data []byte) (interface{}, error) {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}
