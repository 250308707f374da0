package hook

import (
	"encoding/json"
	"strings"
)

// Fields is a loosely typed view over a host payload. Accessors never panic
// and return zero values for missing or mistyped entries, so adapters can
// read whatever a host sends without validating it first.
type Fields map[string]any

// ParseFields decodes raw as a JSON object. Anything that is not an object
// (including invalid JSON and empty input) yields empty Fields.
func ParseFields(raw []byte) Fields {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return Fields{}
	}
	var f map[string]any
	if err := json.Unmarshal(raw, &f); err != nil || f == nil {
		return Fields{}
	}
	return f
}

// String returns the first non-empty string found under keys.
func (f Fields) String(keys ...string) string {
	for _, k := range keys {
		if s, ok := f[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// Any returns the first non-nil value found under keys.
func (f Fields) Any(keys ...string) any {
	for _, k := range keys {
		if v, ok := f[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// Object returns the nested object under key.
func (f Fields) Object(key string) Fields {
	if m, ok := f[key].(map[string]any); ok {
		return m
	}
	return Fields{}
}

// Objects returns the nested objects of the array under key, skipping
// entries that are not objects.
func (f Fields) Objects(key string) []Fields {
	arr, ok := f[key].([]any)
	if !ok {
		return nil
	}
	out := make([]Fields, 0, len(arr))
	for _, item := range arr {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// Strings returns the string entries of the array under key.
func (f Fields) Strings(key string) []string {
	arr, ok := f[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
