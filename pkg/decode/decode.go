// Package decode converts loosely typed JSON values into concrete structs.
// OpenWebUI payloads carry free-form metadata maps; these helpers lift the
// parts this service owns back into typed values.
package decode

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrBodyTooLarge is returned when a request body exceeds the allowed size.
var ErrBodyTooLarge = errors.New("decode: body too large")

// FromMap round-trips a generic map through JSON into T.
func FromMap[T any](data map[string]any) (T, error) {
	var result T
	b, err := json.Marshal(data)
	if err != nil {
		return result, err
	}
	err = json.Unmarshal(b, &result)
	return result, err
}

// FromAny is FromMap for values that may not be maps. A nil value yields ok=false.
func FromAny[T any](value any) (result T, ok bool, err error) {
	m, isMap := value.(map[string]any)
	if !isMap {
		return result, false, nil
	}
	result, err = FromMap[T](m)
	return result, err == nil, err
}

// JSON decodes at most limit bytes of r into T.
func JSON[T any](r io.Reader, limit int64) (T, error) {
	var result T

	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return result, fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > limit {
		return result, ErrBodyTooLarge
	}

	if err := json.Unmarshal(data, &result); err != nil {
		return result, fmt.Errorf("decode body: %w", err)
	}
	return result, nil
}
