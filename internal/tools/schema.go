package tools

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// Shape is the argument layout an operation accepts.
type Shape int

const (
	// ContentOnly takes the model text alone.
	ContentOnly Shape = iota
	// ContentWithConfig takes the model text and a configuration file path.
	ContentWithConfig
)

func (s Shape) String() string {
	switch s {
	case ContentOnly:
		return "content"
	case ContentWithConfig:
		return "content+configFile"
	default:
		return fmt.Sprintf("Shape(%d)", int(s))
	}
}

type ModelRequest struct {
	Content string `json:"content" jsonschema:"UVL (universal variability language) feature model content"`
}

type ModelRequestWithConfig struct {
	Content    string `json:"content" jsonschema:"UVL (universal variability language) feature model content"`
	ConfigFile string `json:"configFile" jsonschema:"Path to the configuration file"`
}

// Request is a validated argument bag. ConfigFile is empty for ContentOnly.
type Request struct {
	Shape      Shape
	Content    string
	ConfigFile string
}

type shapeSchema struct {
	raw      json.RawMessage
	resolved *jsonschema.Resolved
}

var shapeSchemas = map[Shape]shapeSchema{
	ContentOnly:       mustSchema[ModelRequest](),
	ContentWithConfig: mustSchema[ModelRequestWithConfig](),
}

func mustSchema[T any]() shapeSchema {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		panic(fmt.Sprintf("tools: schema for %T: %v", *new(T), err))
	}

	// Unknown keys are ignored rather than rejected.
	schema.AdditionalProperties = nil
	minContent := 1
	schema.Properties["content"].MinLength = &minContent

	raw, err := json.Marshal(schema)
	if err != nil {
		panic(fmt.Sprintf("tools: marshal schema for %T: %v", *new(T), err))
	}
	resolved, err := schema.Resolve(nil)
	if err != nil {
		panic(fmt.Sprintf("tools: resolve schema for %T: %v", *new(T), err))
	}
	return shapeSchema{raw: raw, resolved: resolved}
}

// Schema returns the JSON Schema advertised for the shape.
func (s Shape) Schema() json.RawMessage {
	return shapeSchemas[s].raw
}

// Validate checks raw arguments against the shape and decodes them.
func (s Shape) Validate(raw json.RawMessage) (Request, error) {
	ss, ok := shapeSchemas[s]
	if !ok {
		return Request{}, fmt.Errorf("unknown argument shape %v", s)
	}

	var instance interface{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &instance); err != nil {
			return Request{}, fmt.Errorf("arguments are not valid JSON: %w", err)
		}
	}
	if err := ss.resolved.Validate(instance); err != nil {
		return Request{}, err
	}

	req := Request{Shape: s}
	switch s {
	case ContentWithConfig:
		var args ModelRequestWithConfig
		if err := json.Unmarshal(raw, &args); err != nil {
			return Request{}, err
		}
		req.Content, req.ConfigFile = args.Content, args.ConfigFile
	default:
		var args ModelRequest
		if err := json.Unmarshal(raw, &args); err != nil {
			return Request{}, err
		}
		req.Content = args.Content
	}
	return req, nil
}
