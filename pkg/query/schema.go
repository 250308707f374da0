package query

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Tool names as exposed to agents.
const (
	ToolSearch     = "search"
	ToolTimeline   = "timeline"
	ToolBatchFetch = "get_observations"
)

const isoDate = `{
	"type": "string",
	"anyOf": [{"format": "date"}, {"format": "date-time"}]
}`

var searchSchema = `{
	"type": "object",
	"properties": {
		"query":     {"type": "string", "description": "Free-text search query"},
		"limit":     {"type": "integer", "minimum": 1, "maximum": 100, "default": 20, "description": "Maximum number of results"},
		"project":   {"type": "string", "description": "Only return results from this project"},
		"type":      {"type": "string", "enum": ["observation", "summary", "session"], "description": "Restrict results to one record type"},
		"dateStart": ` + withDescription(isoDate, "Earliest date (ISO 8601)") + `,
		"dateEnd":   ` + withDescription(isoDate, "Latest date (ISO 8601)") + `
	}
}`

var timelineSchema = `{
	"type": "object",
	"properties": {
		"anchor":       {"type": ["integer", "string"], "minimum": 1, "minLength": 1, "description": "Result id from search to center the timeline on"},
		"query":        {"type": "string", "minLength": 1, "description": "Find the anchor by query instead of id"},
		"depth_before": {"type": "integer", "minimum": 0, "maximum": 50, "default": 3, "description": "Records before the anchor"},
		"depth_after":  {"type": "integer", "minimum": 0, "maximum": 50, "default": 3, "description": "Records after the anchor"},
		"project":      {"type": "string", "description": "Only return records from this project"}
	},
	"anyOf": [{"required": ["anchor"]}, {"required": ["query"]}]
}`

var batchSchema = `{
	"type": "object",
	"properties": {
		"ids": {
			"type": "array",
			"minItems": 1,
			"items": {"type": "integer", "minimum": 1},
			"description": "Observation ids to fetch in full"
		}
	},
	"required": ["ids"]
}`

// Schema is a compiled tool parameter schema.
type Schema struct {
	raw      json.RawMessage
	compiled *gojsonschema.Schema
}

var (
	schemaSearch   = mustCompile(searchSchema)
	schemaTimeline = mustCompile(timelineSchema)
	schemaBatch    = mustCompile(batchSchema)
)

func mustCompile(src string) *Schema {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("query: invalid tool schema: %v", err))
	}

	var compact map[string]any
	if err := json.Unmarshal([]byte(src), &compact); err != nil {
		panic(fmt.Sprintf("query: invalid tool schema: %v", err))
	}
	raw, _ := json.Marshal(compact)

	return &Schema{raw: raw, compiled: compiled}
}

// JSON returns the schema document.
func (s *Schema) JSON() json.RawMessage {
	return s.raw
}

// Validate checks args against the schema. A nil map validates as {}.
func (s *Schema) Validate(args map[string]any) error {
	if args == nil {
		args = map[string]any{}
	}

	result, err := s.compiled.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return fmt.Errorf("validating parameters: %w", err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return &ValidationError{Problems: msgs}
}

// ValidationError lists every schema violation of a tool call.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid parameters: " + strings.Join(e.Problems, "; ")
}

func withDescription(schema, desc string) string {
	return strings.Replace(schema, `"type": "string",`, fmt.Sprintf(`"type": "string", "description": %q,`, desc), 1)
}
