package generator

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/chr1sbest/oasync/internal/model"
	"github.com/chr1sbest/oasync/internal/oas"
)

var pathParamRE = regexp.MustCompile(`\{([^{}/]+)\}`)

// pathParamNames returns the distinct {name} placeholders of path in order.
func pathParamNames(path string) []string {
	var names []string
	seen := map[string]bool{}
	for _, m := range pathParamRE.FindAllStringSubmatch(path, -1) {
		if name := m[1]; !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// NewOperation synthesizes the operation of r: a required string path
// parameter per placeholder, a bare 200 response and the managed fields.
func (g *Generator) NewOperation(r model.Resource) *openapi3.Operation {
	op := openapi3.NewOperation()
	for _, name := range pathParamNames(r.Path) {
		op.AddParameter(openapi3.NewPathParameter(name).WithSchema(openapi3.NewStringSchema()))
	}

	op.Responses = openapi3.NewResponses(
		openapi3.WithStatus(http.StatusOK, &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription("OK")}),
	)

	g.updateManagedInfo(r, op)
	return op
}

// updateManagedInfo writes the fields of op the platform owns: auth type,
// throttling tier, mediation script and the scope requirement. Everything
// else on op is left untouched.
func (g *Generator) updateManagedInfo(r model.Resource, op *openapi3.Operation) {
	ext := oas.DecodeOperationExtensions(op.Extensions)

	ext.AuthType = oas.StringPtr(oas.AuthTypeLabel(r.AuthType))
	ext.ThrottlingTier = nil
	if r.ThrottlingPolicy != "" {
		ext.ThrottlingTier = oas.StringPtr(r.ThrottlingPolicy)
	}
	if r.MediationScript != "" {
		ext.MediationScript = oas.StringPtr(r.MediationScript)
	}
	if !g.cfg.PreserveLegacyExtensions {
		ext.Scope = nil
	}
	op.Extensions = ext.Encode()

	if r.Scope != nil {
		setScopeRequirement(op, r.Scope.Key)
	}
}

// setScopeRequirement makes the requirement naming the platform's scheme
// list exactly scope, appending a requirement when none names the scheme.
func setScopeRequirement(op *openapi3.Operation, scope string) {
	if op.Security == nil {
		op.Security = openapi3.NewSecurityRequirements()
	}
	for _, req := range *op.Security {
		if scopes, ok := req[oas.SecuritySchemeKey]; ok && scopes != nil {
			req[oas.SecuritySchemeKey] = []string{scope}
			return
		}
	}
	*op.Security = append(*op.Security, openapi3.SecurityRequirement{oas.SecuritySchemeKey: {scope}})
}

// addOrUpdatePath inserts the synthesized operation of r, reusing a path item
// whose key matches r.Path case-insensitively.
func (g *Generator) addOrUpdatePath(doc *openapi3.T, r model.Resource) {
	var item *openapi3.PathItem
	for _, path := range sortedPaths(doc) {
		if strings.EqualFold(path, r.Path) {
			item = doc.Paths.Value(path)
			break
		}
	}
	if item == nil {
		item = &openapi3.PathItem{}
		doc.Paths.Set(r.Path, item)
	}
	item.SetOperation(strings.ToUpper(r.Verb), g.NewOperation(r))
}
