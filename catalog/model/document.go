package model

import (
	"bytes"
	"encoding/json"
	"errors"
)

// decodeObject decodes a JSON object into target after checking that every
// required key is present and not null. Type mismatches are reported as
// FieldErrors against the JSON path of the offending field.
func decodeObject(record string, data []byte, target any, required ...string) error {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil || keys == nil {
		return fieldErr(record, "", nil, "must be a JSON object")
	}
	if key, ok := duplicateKey(data); ok {
		return fieldErr(record, key, nil, "is given more than once")
	}
	for _, key := range required {
		raw, ok := keys[key]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return fieldErr(record, key, nil, "is required")
		}
	}

	if err := json.Unmarshal(data, target); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return fieldErr(record, typeErr.Field, nil, "must be %s, got JSON %s", typeName(typeErr.Type.Kind().String()), typeErr.Value)
		}
		var fe *FieldError
		if errors.As(err, &fe) {
			return err
		}
		return fieldErr(record, "", nil, "%v", err)
	}
	return nil
}

// duplicateKey reports the first key repeated at the top level of a JSON
// object. Nested objects are checked when their own records decode.
func duplicateKey(data []byte) (string, bool) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return "", false
	}
	seen := make(map[string]bool)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return "", false
		}
		key, ok := tok.(string)
		if !ok {
			return "", false
		}
		if seen[key] {
			return key, true
		}
		seen[key] = true
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return "", false
		}
	}
	return "", false
}

// decodeList decodes a JSON array element by element so errors carry the index.
func decodeList[T any](record, path string, raw json.RawMessage, decode func([]byte) (T, error)) ([]T, error) {
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fieldErr(record, path, nil, "must be a list")
	}
	out := make([]T, 0, len(items))
	for i, item := range items {
		v, err := decode(item)
		if err != nil {
			return nil, withPrefix(err, record, indexPath(path, i))
		}
		out = append(out, v)
	}
	return out, nil
}

func typeName(kind string) string {
	switch kind {
	case "int", "int8", "int16", "int32", "int64":
		return "an integer"
	case "float32", "float64":
		return "a number"
	case "bool":
		return "a boolean"
	case "string":
		return "a string"
	case "slice":
		return "a list"
	case "struct", "map", "ptr":
		return "an object"
	default:
		return kind
	}
}
