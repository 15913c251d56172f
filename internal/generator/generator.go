// Package generator writes the platform's resource model into OpenAPI 3
// definitions, either generating a document from scratch or merging the model
// into an existing one.
package generator

import (
	"context"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/chr1sbest/oasync/internal/model"
	"github.com/chr1sbest/oasync/internal/oas"
)

var validate = validator.New()

// Config controls how documents are written.
type Config struct {
	// PreserveLegacyExtensions keeps x-scope and x-wso2-security in written
	// documents instead of stripping them.
	PreserveLegacyExtensions bool
	// TokenURL is set on implicit flows the generator creates.
	TokenURL string

	Logger log.Logger
}

// Generator writes resource models into documents. It holds no per-call
// state and is safe for concurrent use.
type Generator struct {
	cfg    Config
	parser oas.Parser
	logger log.Logger
}

// New returns a Generator that parses existing definitions with p.
func New(p oas.Parser, cfg Config) *Generator {
	if cfg.Logger == nil {
		cfg.Logger = log.NewNopLogger()
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = oas.DefaultTokenURL
	}
	return &Generator{cfg: cfg, parser: p, logger: cfg.Logger}
}

// Generate builds a new document for api.
func (g *Generator) Generate(_ context.Context, api *model.APIData) (*openapi3.T, error) {
	if err := checkAPIData(api); err != nil {
		return nil, err
	}

	info := &openapi3.Info{
		Title:       api.Title,
		Version:     api.Version,
		Description: api.Description,
	}
	if api.ContactName != "" || api.ContactEmail != "" {
		info.Contact = &openapi3.Contact{Name: api.ContactName, Email: api.ContactEmail}
	}

	doc := &openapi3.T{
		OpenAPI: oas.OpenAPIVersion,
		Info:    info,
		Paths:   openapi3.NewPaths(),
	}
	g.reconcile(doc, api, true)
	return doc, nil
}

// Merge parses existing and merges api into it.
//
// Operations matching a resource by path and verb (ignoring case) have their
// managed fields updated in place. With syncOperations, operations matching no
// resource are deleted; without it they are kept as they are. Resources
// matching no operation are added as new operations.
func (g *Generator) Merge(ctx context.Context, api *model.APIData, existing []byte, syncOperations bool) (*openapi3.T, error) {
	if err := checkResources(api); err != nil {
		return nil, err
	}

	doc, err := oas.Load(ctx, g.parser, existing)
	if err != nil {
		return nil, err
	}
	g.reconcile(doc, api, syncOperations)
	return doc, nil
}

func (g *Generator) reconcile(doc *openapi3.T, api *model.APIData, syncOperations bool) {
	if doc.Paths == nil {
		doc.Paths = openapi3.NewPaths()
	}

	resources := g.managedResources(api.Resources)
	consumed := make([]bool, len(resources))

	for _, path := range sortedPaths(doc) {
		item := doc.Paths.Value(path)
		if item == nil {
			continue
		}

		removed := 0
		for _, method := range sortedMethods(item) {
			op := item.GetOperation(method)

			if i := findResource(resources, consumed, path, method); i >= 0 {
				g.updateManagedInfo(resources[i], op)
				consumed[i] = true
				continue
			}

			if syncOperations {
				level.Debug(g.logger).Log("msg", "removing operation with no matching resource", "verb", method, "path", path)
				item.SetOperation(method, nil)
				removed++
			}
		}

		if removed > 0 && isBarePathItem(item) {
			doc.Paths.Delete(path)
		}
	}

	for i, r := range resources {
		if !consumed[i] {
			g.addOrUpdatePath(doc, r)
		}
	}

	g.updateSecurityDefinition(doc, api)
}

// updateSecurityDefinition writes every scope of api into the platform's
// security scheme and drops the legacy root-level scope block.
func (g *Generator) updateSecurityDefinition(doc *openapi3.T, api *model.APIData) {
	flow := EnsureImplicitFlow(EnsureOAuthScheme(doc), g.cfg.TokenURL)
	WriteScopes(flow, api.AllScopes())

	if g.cfg.PreserveLegacyExtensions {
		level.Debug(g.logger).Log("msg", "preserveLegacyExtensions is enabled")
		return
	}
	delete(doc.Extensions, oas.ExtLegacySecurity)
}

// managedResources drops resources with an unsupported verb and resources
// repeating an earlier identity.
func (g *Generator) managedResources(in []model.Resource) []model.Resource {
	out := make([]model.Resource, 0, len(in))
	seen := map[model.RouteKey]bool{}

	for _, r := range in {
		if !model.IsSupportedMethod(r.Verb) {
			level.Warn(g.logger).Log("msg", "skipping resource with unsupported verb", "verb", r.Verb, "path", r.Path)
			continue
		}
		id := model.RouteKey{Method: strings.ToUpper(r.Verb), Path: strings.ToLower(r.Path)}
		if seen[id] {
			level.Warn(g.logger).Log("msg", "skipping duplicate resource", "verb", r.Verb, "path", r.Path)
			continue
		}
		seen[id] = true
		out = append(out, r)
	}
	return out
}

// findResource returns the first resource not yet consumed that matches path
// and method, or -1.
func findResource(resources []model.Resource, consumed []bool, path, method string) int {
	for i, r := range resources {
		if !consumed[i] && r.Matches(path, method) {
			return i
		}
	}
	return -1
}

// sortedMethods returns the methods of every operation of item, including
// the ones no resource can carry, in lexical order.
func sortedMethods(item *openapi3.PathItem) []string {
	ops := item.Operations()
	methods := make([]string, 0, len(ops))
	for method := range ops {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return methods
}

// isBarePathItem reports whether item has neither operations nor path level
// content of its own.
func isBarePathItem(item *openapi3.PathItem) bool {
	return len(item.Operations()) == 0 &&
		item.Ref == "" &&
		item.Summary == "" &&
		item.Description == "" &&
		len(item.Parameters) == 0 &&
		len(item.Servers) == 0 &&
		len(item.Extensions) == 0
}

func sortedPaths(doc *openapi3.T) []string {
	paths := make([]string, 0, doc.Paths.Len())
	for path := range doc.Paths.Map() {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// checkAPIData validates the descriptive fields and resources of api.
func checkAPIData(api *model.APIData) error {
	if api == nil {
		return &oas.MissingInfoError{Fields: []string{"Title", "Version"}}
	}
	return toMissingInfo(validate.Struct(api))
}

// checkResources validates only the resources of api; merging keeps the
// existing document's info.
func checkResources(api *model.APIData) error {
	if api == nil {
		return errors.New("api data is nil")
	}
	for _, r := range api.Resources {
		if err := toMissingInfo(validate.Struct(r)); err != nil {
			return err
		}
	}
	return nil
}

// toMissingInfo turns failed required checks into a *oas.MissingInfoError.
// Other validation failures are wrapped as they are.
func toMissingInfo(err error) error {
	if err == nil {
		return nil
	}

	var valErrs validator.ValidationErrors
	if !errors.As(err, &valErrs) {
		return errors.Wrap(err, "validate api data")
	}

	var missing []string
	for _, fe := range valErrs {
		if fe.Tag() != "required" {
			return errors.Errorf("invalid api data: field %s failed %s validation", fe.Namespace(), fe.Tag())
		}
		missing = append(missing, strings.TrimPrefix(fe.Namespace(), "APIData."))
	}
	return &oas.MissingInfoError{Fields: missing}
}
