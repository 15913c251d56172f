// Package parser extracts the platform's resource model from OpenAPI 3
// definitions: the declared scopes and one URI template per managed
// operation.
package parser

import (
	"context"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-kit/log"

	"github.com/chr1sbest/oasync/internal/model"
	"github.com/chr1sbest/oasync/internal/oas"
)

// Extractor reads scopes and URI templates out of definitions. It holds no
// per-call state and is safe for concurrent use.
type Extractor struct {
	parser oas.Parser
	logger log.Logger
}

// New returns an Extractor parsing definitions with p. A nil logger discards
// log lines.
func New(p oas.Parser, logger log.Logger) *Extractor {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Extractor{parser: p, logger: logger}
}

// Scopes parses data and returns the scopes it declares.
func (e *Extractor) Scopes(ctx context.Context, data []byte) (model.Scopes, error) {
	doc, err := oas.Load(ctx, e.parser, data)
	if err != nil {
		return nil, err
	}
	return e.DocumentScopes(doc)
}

// URITemplates parses data and returns one template per managed operation.
func (e *Extractor) URITemplates(ctx context.Context, data []byte) ([]model.URITemplate, error) {
	doc, err := oas.Load(ctx, e.parser, data)
	if err != nil {
		return nil, err
	}
	return e.DocumentURITemplates(doc)
}

// sortedPaths returns the path keys of doc in lexical order.
func sortedPaths(doc *openapi3.T) []string {
	if doc.Paths == nil {
		return nil
	}
	paths := make([]string, 0, doc.Paths.Len())
	for path := range doc.Paths.Map() {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
