// Package definition exposes the capabilities the platform needs from an API
// definition format behind one interface. Only OpenAPI 3 is implemented.
package definition

import (
	"context"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/pkg/errors"

	"github.com/chr1sbest/oasync/internal/generator"
	"github.com/chr1sbest/oasync/internal/model"
	"github.com/chr1sbest/oasync/internal/oas"
	"github.com/chr1sbest/oasync/internal/parser"
)

// APIDefinition reads the resource model out of definitions of one format
// and writes it back into them.
type APIDefinition interface {
	// URITemplates returns one template per managed operation of data.
	URITemplates(ctx context.Context, data []byte) ([]model.URITemplate, error)
	// Scopes returns the scopes declared by data.
	Scopes(ctx context.Context, data []byte) (model.Scopes, error)
	// Generate renders a new definition for api.
	Generate(ctx context.Context, api *model.APIData) ([]byte, error)
	// Merge renders existing with api merged into it.
	Merge(ctx context.Context, api *model.APIData, existing []byte, syncOperations bool) ([]byte, error)
	// PopulateManagementInfo syncs the operations of data with api.
	PopulateManagementInfo(ctx context.Context, data []byte, api *model.APIData) ([]byte, error)
	// Validate checks data, optionally returning its canonical rendering.
	Validate(ctx context.Context, data []byte, returnContent bool) (*ValidationResult, error)
}

// OAS3 is the OpenAPI 3 APIDefinition.
type OAS3 struct {
	parser     oas.Parser
	serializer oas.Serializer
	extractor  *parser.Extractor
	generator  *generator.Generator
}

var _ APIDefinition = (*OAS3)(nil)

// NewOAS3 returns an OpenAPI 3 definition engine parsing with kin-openapi and
// rendering pretty-printed JSON.
func NewOAS3(cfg Config) (*OAS3, error) {
	return NewOAS3WithCodec(cfg, oas.KinParser{Strict: cfg.StrictValidation}, oas.JSONSerializer{})
}

// NewOAS3WithCodec is NewOAS3 with caller supplied parser and serializer.
func NewOAS3WithCodec(cfg Config, p oas.Parser, s oas.Serializer) (*OAS3, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid definition config")
	}
	return &OAS3{
		parser:     p,
		serializer: s,
		extractor:  parser.New(p, cfg.Logger),
		generator: generator.New(p, generator.Config{
			PreserveLegacyExtensions: cfg.PreserveLegacyExtensions,
			TokenURL:                 cfg.PlaceholderTokenURL,
			Logger:                   cfg.Logger,
		}),
	}, nil
}

// URITemplates returns one template per managed operation of data.
func (o *OAS3) URITemplates(ctx context.Context, data []byte) ([]model.URITemplate, error) {
	return o.extractor.URITemplates(ctx, data)
}

// Scopes returns the scopes declared by data.
func (o *OAS3) Scopes(ctx context.Context, data []byte) (model.Scopes, error) {
	return o.extractor.Scopes(ctx, data)
}

// Generate renders a new definition for api.
func (o *OAS3) Generate(ctx context.Context, api *model.APIData) ([]byte, error) {
	doc, err := o.generator.Generate(ctx, api)
	if err != nil {
		return nil, err
	}
	return o.render(doc)
}

// Merge renders existing with api merged into it.
func (o *OAS3) Merge(ctx context.Context, api *model.APIData, existing []byte, syncOperations bool) ([]byte, error) {
	doc, err := o.generator.Merge(ctx, api, existing, syncOperations)
	if err != nil {
		return nil, err
	}
	return o.render(doc)
}

// PopulateManagementInfo merges api into data, removing operations that match
// no resource.
func (o *OAS3) PopulateManagementInfo(ctx context.Context, data []byte, api *model.APIData) ([]byte, error) {
	return o.Merge(ctx, api, data, true)
}

// Validate parses data and reports every problem found as an ErrorItem.
func (o *OAS3) Validate(ctx context.Context, data []byte, returnContent bool) (*ValidationResult, error) {
	return validateDefinition(ctx, o.parser, o.serializer, data, returnContent)
}

func (o *OAS3) render(doc *openapi3.T) ([]byte, error) {
	out, err := o.serializer.Serialize(doc)
	if err != nil {
		return nil, errors.Wrap(err, "render definition")
	}
	return out, nil
}
