package parser

import (
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-kit/log/level"

	"github.com/chr1sbest/oasync/internal/model"
	"github.com/chr1sbest/oasync/internal/oas"
)

// DocumentURITemplates returns one template per operation of doc whose verb
// is supported, in path order and then method order.
//
// An operation referencing a single scope must reference a scope declared by
// the document, otherwise an *oas.UnresolvedScopeError is returned. Operations
// referencing several scopes carry the keys unresolved.
func (e *Extractor) DocumentURITemplates(doc *openapi3.T) ([]model.URITemplate, error) {
	scopes, err := e.DocumentScopes(doc)
	if err != nil {
		return nil, err
	}

	var templates []model.URITemplate
	seen := map[model.RouteKey]bool{}

	for _, path := range sortedPaths(doc) {
		item := doc.Paths.Value(path)
		if item == nil {
			continue
		}

		for _, method := range model.SupportedMethods {
			op := item.GetOperation(method)
			if op == nil {
				continue
			}

			id := model.RouteKey{Method: method, Path: strings.ToLower(path)}
			if seen[id] {
				level.Warn(e.logger).Log("msg", "skipping operation whose path differs from another only by case", "verb", method, "path", path)
				continue
			}
			seen[id] = true

			template := model.URITemplate{Verb: method, Path: path}

			opScopes := e.operationScopes(method, path, op)
			switch len(opScopes) {
			case 0:
			case 1:
				scope := scopes.Find(opScopes[0])
				if scope == nil {
					return nil, &oas.UnresolvedScopeError{Key: opScopes[0], Verb: method, Path: path}
				}
				s := *scope
				template.Scope = &s
			default:
				template.Scopes = append([]string(nil), opScopes...)
			}

			ext := oas.DecodeOperationExtensions(op.Extensions)
			if ext.Present {
				template.AuthType = model.AuthApplicationOrApplicationUser
				if ext.AuthType != nil {
					template.AuthType = oas.ParseAuthTypeLabel(*ext.AuthType)
				}
				if ext.ThrottlingTier != nil {
					template.ThrottlingTier = *ext.ThrottlingTier
				}
				if ext.MediationScript != nil {
					template.MediationScript = *ext.MediationScript
				}
			}

			templates = append(templates, template)
		}
	}
	return templates, nil
}

// operationScopes returns the scope keys op requires. A security requirement
// naming the platform's scheme takes precedence over the legacy x-scope
// extension.
func (e *Extractor) operationScopes(method, path string, op *openapi3.Operation) []string {
	legacy := oas.DecodeOperationExtensions(op.Extensions).Scope

	if scopes, ok := oas.RequirementScopes(op); ok {
		if legacy != nil && !(len(scopes) == 1 && scopes[0] == *legacy) {
			level.Warn(e.logger).Log("msg", "operation declares scopes in both its security requirement and x-scope, ignoring x-scope",
				"verb", method, "path", path, "scopes", strings.Join(scopes, ","), "legacy_scope", *legacy)
		}
		return scopes
	}

	if legacy != nil {
		return []string{*legacy}
	}
	return nil
}
