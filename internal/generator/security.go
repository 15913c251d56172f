package generator

import (
	"github.com/getkin/kin-openapi/openapi3"

	"github.com/chr1sbest/oasync/internal/model"
	"github.com/chr1sbest/oasync/internal/oas"
)

// EnsureOAuthScheme returns the platform's security scheme of doc, creating
// the components section, the scheme map and an oauth2 scheme as needed.
func EnsureOAuthScheme(doc *openapi3.T) *openapi3.SecurityScheme {
	if doc.Components == nil {
		doc.Components = &openapi3.Components{}
	}
	if doc.Components.SecuritySchemes == nil {
		doc.Components.SecuritySchemes = openapi3.SecuritySchemes{}
	}

	ref := doc.Components.SecuritySchemes[oas.SecuritySchemeKey]
	if ref == nil || ref.Value == nil {
		ref = &openapi3.SecuritySchemeRef{Value: &openapi3.SecurityScheme{Type: "oauth2"}}
		doc.Components.SecuritySchemes[oas.SecuritySchemeKey] = ref
	}
	return ref.Value
}

// EnsureImplicitFlow returns the implicit flow of scheme. A newly created
// flow gets tokenURL; an existing flow is returned unchanged.
func EnsureImplicitFlow(scheme *openapi3.SecurityScheme, tokenURL string) *openapi3.OAuthFlow {
	if scheme.Flows == nil {
		scheme.Flows = &openapi3.OAuthFlows{}
	}
	if scheme.Flows.Implicit == nil {
		scheme.Flows.Implicit = &openapi3.OAuthFlow{TokenURL: tokenURL}
	}
	return scheme.Flows.Implicit
}

// WriteScopes replaces the scopes of flow with scopes and rewrites the scope
// bindings extension from their roles. Scopes not in the set are dropped.
func WriteScopes(flow *openapi3.OAuthFlow, scopes model.Scopes) {
	flow.Scopes = make(map[string]string, len(scopes))
	bindings := map[string]string{}

	for _, s := range scopes {
		name := s.Name
		if name == "" {
			name = s.Key
		}
		flow.Scopes[name] = s.Description
		if s.Roles != "" {
			bindings[name] = s.Roles
		}
	}

	if len(bindings) == 0 {
		delete(flow.Extensions, oas.ExtScopeBindings)
		return
	}
	if flow.Extensions == nil {
		flow.Extensions = map[string]any{}
	}
	flow.Extensions[oas.ExtScopeBindings] = oas.EncodeScopeBindings(bindings)
}
