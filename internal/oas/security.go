package oas

import (
	"github.com/getkin/kin-openapi/openapi3"
)

// SecurityScheme returns the platform's security scheme of doc, or nil.
func SecurityScheme(doc *openapi3.T) *openapi3.SecurityScheme {
	if doc.Components == nil || doc.Components.SecuritySchemes == nil {
		return nil
	}
	ref := doc.Components.SecuritySchemes[SecuritySchemeKey]
	if ref == nil {
		return nil
	}
	return ref.Value
}

// ImplicitFlow returns the implicit flow of the platform's security scheme,
// or nil.
func ImplicitFlow(doc *openapi3.T) *openapi3.OAuthFlow {
	scheme := SecurityScheme(doc)
	if scheme == nil || scheme.Flows == nil {
		return nil
	}
	return scheme.Flows.Implicit
}

// RequirementScopes returns the scopes an operation requires under the
// platform's security scheme. ok is false when no requirement names the
// scheme.
func RequirementScopes(op *openapi3.Operation) (scopes []string, ok bool) {
	if op.Security == nil {
		return nil, false
	}
	for _, req := range *op.Security {
		if scopes, found := req[SecuritySchemeKey]; found && scopes != nil {
			return scopes, true
		}
	}
	return nil, false
}
