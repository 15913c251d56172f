package parser

import (
	"sort"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/pkg/errors"

	"github.com/chr1sbest/oasync/internal/model"
	"github.com/chr1sbest/oasync/internal/oas"
)

// DocumentScopes returns the scopes declared by doc.
//
// The scopes of the implicit flow of the platform's security scheme are
// preferred, with roles taken from the flow's scope bindings. When the flow
// declares no scopes the legacy root-level security block is read instead.
// A document with neither yields an empty set.
func (e *Extractor) DocumentScopes(doc *openapi3.T) (model.Scopes, error) {
	if flow := oas.ImplicitFlow(doc); flow != nil && len(flow.Scopes) > 0 {
		return flowScopes(flow)
	}
	return legacyScopes(doc)
}

func flowScopes(flow *openapi3.OAuthFlow) (model.Scopes, error) {
	bindings, err := oas.DecodeScopeBindings(flow.Extensions[oas.ExtScopeBindings])
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(flow.Scopes))
	for name := range flow.Scopes {
		names = append(names, name)
	}
	sort.Strings(names)

	scopes := make(model.Scopes, 0, len(names))
	for _, name := range names {
		scopes.Add(model.Scope{
			Key:         name,
			Name:        name,
			Description: flow.Scopes[name],
			Roles:       bindings[name],
		})
	}
	return scopes, nil
}

func legacyScopes(doc *openapi3.T) (model.Scopes, error) {
	sec, err := oas.DecodeLegacySecurity(doc.Extensions[oas.ExtLegacySecurity])
	if err != nil {
		return nil, errors.Wrap(err, "read legacy scopes")
	}

	scopes := model.Scopes{}
	for _, name := range sec.Names() {
		for _, s := range sec[name].Scopes {
			scopes.Add(model.Scope{
				Key:         s.Key,
				Name:        s.Name,
				Description: s.Description,
				Roles:       s.Roles,
			})
		}
	}
	return scopes, nil
}
