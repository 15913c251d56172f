package oas

import (
	"bytes"
	"encoding/json"

	"github.com/getkin/kin-openapi/openapi3"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Serializer renders a document as text.
type Serializer interface {
	Serialize(doc *openapi3.T) ([]byte, error)
}

// JSONSerializer renders documents as pretty-printed JSON with two space
// indentation and sorted keys.
type JSONSerializer struct{}

// Serialize renders doc as indented JSON ending in a newline.
func (JSONSerializer) Serialize(doc *openapi3.T) ([]byte, error) {
	raw, err := jsonAPI.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "marshal definition")
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, errors.Wrap(err, "indent definition")
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// YAMLSerializer renders documents as block style YAML, keeping the key order
// of the JSON rendering.
type YAMLSerializer struct{}

// Serialize renders doc as YAML with two space indentation.
func (YAMLSerializer) Serialize(doc *openapi3.T) ([]byte, error) {
	raw, err := jsonAPI.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "marshal definition")
	}

	var node yaml.Node
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return nil, errors.Wrap(err, "convert definition to yaml")
	}
	resetStyle(&node)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return nil, errors.Wrap(err, "encode yaml")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(err, "encode yaml")
	}
	return buf.Bytes(), nil
}

// resetStyle drops the flow and quoting styles picked up from the JSON input.
// Scalars whose plain form would change type are still quoted by the encoder.
func resetStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		resetStyle(c)
	}
}

// SerializerFor returns the serializer for the named format, "json" or "yaml".
func SerializerFor(format string) (Serializer, error) {
	switch format {
	case "", "json":
		return JSONSerializer{}, nil
	case "yaml", "yml":
		return YAMLSerializer{}, nil
	default:
		return nil, errors.Errorf("unsupported output format %q", format)
	}
}
