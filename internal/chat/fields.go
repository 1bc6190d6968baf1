package chat

import (
	"encoding/json"
	"maps"
)

// fields holds the raw members of a JSON object that are not typed.
type fields map[string]json.RawMessage

func split(data []byte) (fields, error) {
	var f fields
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if f == nil {
		f = fields{}
	}
	return f, nil
}

// take decodes and removes key. A missing or null key leaves v untouched.
func (f fields) take(key string, v any) error {
	raw, ok := f[key]
	if !ok {
		return nil
	}
	delete(f, key)
	if string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func (f fields) put(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	f[key] = raw
	return nil
}

func (f fields) clone() fields {
	out := make(fields, len(f)+3)
	maps.Copy(out, f)
	return out
}
