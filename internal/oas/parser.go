package oas

import (
	"context"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"
)

// MissingOpenAPIMessage is reported when the input carries no openapi
// version attribute, i.e. it is not an OpenAPI 3 document at all.
const MissingOpenAPIMessage = "attribute openapi is missing"

// Parser turns definition text into a document. Any returned message means
// the document must not be used.
type Parser interface {
	Parse(ctx context.Context, data []byte) (*openapi3.T, []string)
}

// KinParser parses JSON or YAML definitions with kin-openapi.
type KinParser struct {
	// Strict additionally runs the full kin-openapi document validation.
	Strict bool
}

// Parse loads data with a kin-openapi loader and checks it is an OpenAPI 3
// document.
func (p KinParser) Parse(ctx context.Context, data []byte) (*openapi3.T, []string) {
	loader := openapi3.NewLoader()
	loader.Context = ctx

	doc, err := loader.LoadFromData(data)
	if err != nil {
		messages := []string{err.Error()}
		if notAMapping(data) {
			messages = append(messages, MissingOpenAPIMessage)
		}
		return nil, messages
	}

	var messages []string
	switch {
	case doc.OpenAPI == "":
		messages = append(messages, MissingOpenAPIMessage)
	case !strings.HasPrefix(doc.OpenAPI, "3."):
		messages = append(messages, fmt.Sprintf("attribute openapi is not of type 3.x: %s", doc.OpenAPI))
	}
	if doc.Info == nil {
		messages = append(messages, "attribute info is missing")
	}

	if len(messages) == 0 && p.Strict {
		if err := doc.Validate(ctx); err != nil {
			messages = append(messages, err.Error())
		}
	}

	if len(messages) > 0 {
		return nil, messages
	}
	return doc, nil
}

// notAMapping reports whether data is well formed YAML or JSON whose root is
// something other than a mapping, so it cannot carry an openapi attribute.
func notAMapping(data []byte) bool {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil || len(node.Content) == 0 {
		return false
	}
	return node.Content[0].Kind != yaml.MappingNode
}

// Load parses data with p and converts any messages into a
// DefinitionParseError.
func Load(ctx context.Context, p Parser, data []byte) (*openapi3.T, error) {
	doc, messages := p.Parse(ctx, data)
	if len(messages) > 0 {
		return nil, &DefinitionParseError{Messages: messages}
	}
	return doc, nil
}
