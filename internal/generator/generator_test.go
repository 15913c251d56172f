package generator

import (
	"context"
	"errors"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chr1sbest/oasync/internal/model"
	"github.com/chr1sbest/oasync/internal/oas"
)

const existingSpec = `
openapi: 3.0.1
info:
  title: Pets
  version: "1.0"
  description: Hand written description
x-wso2-security:
  apim:
    x-wso2-scopes:
      - key: read:pets
        name: read:pets
        description: Read pets
        roles: admin
paths:
  /pets:
    get:
      description: List all pets
      x-auth-type: None
      x-scope: read:pets
      x-custom: keep me
      security:
        - default: [old:scope]
        - api_key: []
      responses:
        "200":
          description: A list of pets
    post:
      responses:
        "201":
          description: Created
  /owners:
    get:
      responses:
        "200":
          description: OK
components:
  schemas:
    Pet:
      type: object
  securitySchemes:
    default:
      type: oauth2
      flows:
        implicit:
          authorizationUrl: https://idp.example.com/authorize
          tokenUrl: https://idp.example.com/token
          scopes:
            old:scope: Old scope
`

var readPets = &model.Scope{Key: "read:pets", Name: "read:pets", Description: "Read pets"}

func newGenerator(preserve bool) *Generator {
	return New(oas.KinParser{}, Config{PreserveLegacyExtensions: preserve})
}

func TestPathParamNames(t *testing.T) {
	assert.Equal(t, []string{"id"}, pathParamNames("/pets/{id}"))
	assert.Equal(t, []string{"owner", "pet"}, pathParamNames("/owners/{owner}/pets/{pet}/{owner}"))
	assert.Nil(t, pathParamNames("/pets"))
}

func TestEnsureOAuthScheme(t *testing.T) {
	doc := &openapi3.T{}

	scheme := EnsureOAuthScheme(doc)
	require.NotNil(t, scheme)
	assert.Equal(t, "oauth2", scheme.Type)
	require.NotNil(t, doc.Components)
	assert.Same(t, scheme, doc.Components.SecuritySchemes[oas.SecuritySchemeKey].Value)

	assert.Same(t, scheme, EnsureOAuthScheme(doc))
}

func TestEnsureImplicitFlow(t *testing.T) {
	scheme := &openapi3.SecurityScheme{Type: "oauth2"}

	flow := EnsureImplicitFlow(scheme, oas.DefaultTokenURL)
	assert.Equal(t, "https://test.com", flow.TokenURL)

	flow.TokenURL = "https://idp.example.com/token"
	again := EnsureImplicitFlow(scheme, oas.DefaultTokenURL)
	assert.Same(t, flow, again)
	assert.Equal(t, "https://idp.example.com/token", again.TokenURL)
}

func TestWriteScopes(t *testing.T) {
	flow := &openapi3.OAuthFlow{
		Scopes:     map[string]string{"stale": "Stale"},
		Extensions: map[string]any{oas.ExtScopeBindings: map[string]any{"stale": "admin"}, "x-other": true},
	}

	WriteScopes(flow, model.Scopes{
		{Key: "read", Name: "read", Description: "Read", Roles: "admin,user"},
		{Key: "write", Name: "write", Description: "Write"},
	})

	assert.Equal(t, map[string]string{"read": "Read", "write": "Write"}, flow.Scopes)
	assert.Equal(t, map[string]any{"read": "admin,user"}, flow.Extensions[oas.ExtScopeBindings])
	assert.Equal(t, true, flow.Extensions["x-other"])

	WriteScopes(flow, nil)
	assert.Empty(t, flow.Scopes)
	assert.NotContains(t, flow.Extensions, oas.ExtScopeBindings)
}

func TestNewOperation(t *testing.T) {
	g := newGenerator(false)

	op := g.NewOperation(model.Resource{
		Path:             "/pets/{id}/toys/{toy}",
		Verb:             "get",
		AuthType:         model.AuthApplicationUser,
		ThrottlingPolicy: "Gold",
		Scope:            readPets,
		MediationScript:  "log()",
	})

	require.Len(t, op.Parameters, 2)
	for i, name := range []string{"id", "toy"} {
		p := op.Parameters[i].Value
		assert.Equal(t, name, p.Name)
		assert.Equal(t, "path", p.In)
		assert.True(t, p.Required)
		assert.Equal(t, openapi3.NewStringSchema().Type, p.Schema.Value.Type)
	}

	require.Equal(t, 1, op.Responses.Len())
	resp := op.Responses.Value("200")
	require.NotNil(t, resp)
	assert.Equal(t, "OK", *resp.Value.Description)
	assert.Nil(t, resp.Value.Content)

	assert.Equal(t, map[string]any{
		oas.ExtAuthType:        "Application User",
		oas.ExtThrottlingTier:  "Gold",
		oas.ExtMediationScript: "log()",
	}, op.Extensions)

	require.NotNil(t, op.Security)
	assert.Equal(t, openapi3.SecurityRequirements{{"default": {"read:pets"}}}, *op.Security)
}

func TestGenerate_PetsScenario(t *testing.T) {
	api := &model.APIData{
		Title:   "Pets",
		Version: "1.0.0",
		Resources: []model.Resource{{
			Path:             "/pets/{id}",
			Verb:             "GET",
			AuthType:         model.AuthApplicationUser,
			ThrottlingPolicy: "Gold",
			Scope:            readPets,
		}},
	}

	doc, err := newGenerator(false).Generate(context.Background(), api)
	require.NoError(t, err)

	assert.Equal(t, "3.0.1", doc.OpenAPI)
	assert.Equal(t, "Pets", doc.Info.Title)
	assert.Nil(t, doc.Info.Contact)
	require.Equal(t, 1, doc.Paths.Len())

	item := doc.Paths.Value("/pets/{id}")
	require.NotNil(t, item)
	require.Len(t, item.Operations(), 1)

	op := item.Get
	require.NotNil(t, op)
	require.Len(t, op.Parameters, 1)
	assert.Equal(t, "id", op.Parameters[0].Value.Name)
	assert.Equal(t, "Application User", op.Extensions[oas.ExtAuthType])
	assert.Equal(t, "Gold", op.Extensions[oas.ExtThrottlingTier])
	assert.Equal(t, openapi3.SecurityRequirements{{"default": {"read:pets"}}}, *op.Security)

	flow := oas.ImplicitFlow(doc)
	require.NotNil(t, flow)
	assert.Equal(t, oas.DefaultTokenURL, flow.TokenURL)
	assert.Equal(t, map[string]string{"read:pets": "Read pets"}, flow.Scopes)
}

func TestGenerate_Contact(t *testing.T) {
	api := &model.APIData{Title: "Pets", Version: "1", ContactEmail: "owner@example.com"}

	doc, err := newGenerator(false).Generate(context.Background(), api)
	require.NoError(t, err)
	require.NotNil(t, doc.Info.Contact)
	assert.Equal(t, "owner@example.com", doc.Info.Contact.Email)
}

func TestGenerate_MissingInfo(t *testing.T) {
	_, err := newGenerator(false).Generate(context.Background(), &model.APIData{Version: "1"})

	var missing *oas.MissingInfoError
	require.True(t, errors.As(err, &missing), "got %v", err)
	assert.Equal(t, []string{"Title"}, missing.Fields)

	_, err = newGenerator(false).Generate(context.Background(), nil)
	require.True(t, errors.As(err, &missing), "got %v", err)
}

func TestGenerate_InvalidEmail(t *testing.T) {
	_, err := newGenerator(false).Generate(context.Background(), &model.APIData{Title: "t", Version: "1", ContactEmail: "nope"})
	require.Error(t, err)

	var missing *oas.MissingInfoError
	assert.False(t, errors.As(err, &missing))
}

func TestGenerate_SkipsUnsupportedAndDuplicateResources(t *testing.T) {
	api := &model.APIData{
		Title:   "t",
		Version: "1",
		Resources: []model.Resource{
			{Path: "/a", Verb: "GET", ThrottlingPolicy: "first"},
			{Path: "/A", Verb: "get", ThrottlingPolicy: "second"},
			{Path: "/a", Verb: "TRACE"},
		},
	}

	doc, err := newGenerator(false).Generate(context.Background(), api)
	require.NoError(t, err)
	require.Equal(t, 1, doc.Paths.Len())

	item := doc.Paths.Value("/a")
	require.Len(t, item.Operations(), 1)
	assert.Equal(t, "first", item.Get.Extensions[oas.ExtThrottlingTier])
}

func TestMerge_SyncOperations(t *testing.T) {
	api := &model.APIData{
		Resources: []model.Resource{
			{Path: "/PETS", Verb: "get", AuthType: model.AuthApplication, ThrottlingPolicy: "Silver", Scope: readPets},
			{Path: "/pets/{id}", Verb: "DELETE", AuthType: model.AuthApplicationUser},
		},
	}

	doc, err := newGenerator(false).Merge(context.Background(), api, []byte(existingSpec), true)
	require.NoError(t, err)

	// /owners lost its only operation and is gone.
	assert.Nil(t, doc.Paths.Value("/owners"))

	pets := doc.Paths.Value("/pets")
	require.NotNil(t, pets)
	assert.Nil(t, pets.Post)

	get := pets.Get
	require.NotNil(t, get)
	assert.Equal(t, "List all pets", get.Description)
	assert.Equal(t, "A list of pets", *get.Responses.Value("200").Value.Description)
	assert.Equal(t, map[string]any{
		oas.ExtAuthType:       "Application",
		oas.ExtThrottlingTier: "Silver",
		"x-custom":            "keep me",
	}, get.Extensions)
	assert.Equal(t, openapi3.SecurityRequirements{
		{"default": {"read:pets"}},
		{"api_key": {}},
	}, *get.Security)

	added := doc.Paths.Value("/pets/{id}")
	require.NotNil(t, added)
	require.NotNil(t, added.Delete)
	assert.Equal(t, "OK", *added.Delete.Responses.Value("200").Value.Description)
	assert.Empty(t, added.Delete.Description)

	assert.Equal(t, "Hand written description", doc.Info.Description)
	assert.Contains(t, doc.Components.Schemas, "Pet")
	assert.NotContains(t, doc.Extensions, oas.ExtLegacySecurity)

	flow := oas.ImplicitFlow(doc)
	assert.Equal(t, "https://idp.example.com/token", flow.TokenURL)
	assert.Equal(t, "https://idp.example.com/authorize", flow.AuthorizationURL)
	assert.Equal(t, map[string]string{"read:pets": "Read pets"}, flow.Scopes)
}

func TestMerge_WithoutSyncKeepsUnmatchedOperations(t *testing.T) {
	api := &model.APIData{
		Resources: []model.Resource{
			{Path: "/pets", Verb: "GET", ThrottlingPolicy: "Silver"},
			{Path: "/stores", Verb: "GET"},
		},
	}

	doc, err := newGenerator(false).Merge(context.Background(), api, []byte(existingSpec), false)
	require.NoError(t, err)

	pets := doc.Paths.Value("/pets")
	require.NotNil(t, pets.Post)
	assert.Equal(t, "Silver", pets.Get.Extensions[oas.ExtThrottlingTier])
	require.NotNil(t, doc.Paths.Value("/owners"))
	require.NotNil(t, doc.Paths.Value("/stores"))
	assert.NotNil(t, doc.Paths.Value("/stores").Get)
}

const caseVariantSpec = `
openapi: 3.0.1
info:
  title: Pets
  version: "1.0"
paths:
  /Pets:
    get:
      responses:
        "200":
          description: Upper
  /pets:
    get:
      responses:
        "200":
          description: Lower
  /trace:
    trace:
      responses:
        "200":
          description: OK
  /shared:
    summary: Shared path
    parameters:
      - name: tenant
        in: header
        schema:
          type: string
    get:
      responses:
        "200":
          description: OK
`

func operationKeys(doc *openapi3.T) []model.RouteKey {
	var keys []model.RouteKey
	for _, path := range sortedPaths(doc) {
		for _, method := range sortedMethods(doc.Paths.Value(path)) {
			keys = append(keys, model.RouteKey{Method: method, Path: path})
		}
	}
	return keys
}

func TestMerge_SyncLeavesOneOperationPerResource(t *testing.T) {
	api := &model.APIData{Resources: []model.Resource{{Path: "/pets", Verb: "GET", AuthType: model.AuthNone}}}

	doc, err := newGenerator(false).Merge(context.Background(), api, []byte(caseVariantSpec), true)
	require.NoError(t, err)

	assert.Equal(t, []model.RouteKey{{Method: "GET", Path: "/Pets"}}, operationKeys(doc))
	assert.Equal(t, "Upper", *doc.Paths.Value("/Pets").Get.Responses.Value("200").Value.Description)
	assert.Nil(t, doc.Paths.Value("/pets"))
	assert.Nil(t, doc.Paths.Value("/trace"))

	shared := doc.Paths.Value("/shared")
	require.NotNil(t, shared)
	assert.Nil(t, shared.Get)
	assert.Equal(t, "Shared path", shared.Summary)
	assert.Len(t, shared.Parameters, 1)
}

func TestMerge_WithoutSyncKeepsCaseVariantsAndUnsupportedVerbs(t *testing.T) {
	api := &model.APIData{Resources: []model.Resource{{Path: "/pets", Verb: "GET", AuthType: model.AuthNone}}}

	doc, err := newGenerator(false).Merge(context.Background(), api, []byte(caseVariantSpec), false)
	require.NoError(t, err)

	assert.Equal(t, []model.RouteKey{
		{Method: "GET", Path: "/Pets"},
		{Method: "GET", Path: "/pets"},
		{Method: "GET", Path: "/shared"},
		{Method: "TRACE", Path: "/trace"},
	}, operationKeys(doc))
	assert.Equal(t, "None", doc.Paths.Value("/Pets").Get.Extensions[oas.ExtAuthType])
	assert.NotContains(t, doc.Paths.Value("/pets").Get.Extensions, oas.ExtAuthType)
}

func TestMerge_PreserveLegacyExtensions(t *testing.T) {
	api := &model.APIData{
		Resources: []model.Resource{{Path: "/pets", Verb: "GET"}},
	}

	doc, err := newGenerator(true).Merge(context.Background(), api, []byte(existingSpec), true)
	require.NoError(t, err)

	assert.Contains(t, doc.Extensions, oas.ExtLegacySecurity)
	assert.Equal(t, "read:pets", doc.Paths.Value("/pets").Get.Extensions[oas.ExtScope])
}

func TestMerge_StripsLegacyExtensions(t *testing.T) {
	api := &model.APIData{
		Resources: []model.Resource{{Path: "/pets", Verb: "GET"}},
	}

	doc, err := newGenerator(false).Merge(context.Background(), api, []byte(existingSpec), true)
	require.NoError(t, err)

	assert.NotContains(t, doc.Extensions, oas.ExtLegacySecurity)
	assert.NotContains(t, doc.Paths.Value("/pets").Get.Extensions, oas.ExtScope)
}

func TestMerge_ParseError(t *testing.T) {
	_, err := newGenerator(false).Merge(context.Background(), &model.APIData{}, []byte(`{"swagger": "2.0"}`), true)

	var parseErr *oas.DefinitionParseError
	require.True(t, errors.As(err, &parseErr), "got %v", err)
}

func TestMerge_InvalidResource(t *testing.T) {
	api := &model.APIData{Resources: []model.Resource{{Path: "/pets"}}}

	_, err := newGenerator(false).Merge(context.Background(), api, []byte(existingSpec), true)

	var missing *oas.MissingInfoError
	require.True(t, errors.As(err, &missing), "got %v", err)
	assert.Equal(t, []string{"Resource.Verb"}, missing.Fields)
}

func TestSetScopeRequirement_AppendsWhenSchemeAbsent(t *testing.T) {
	op := openapi3.NewOperation()
	op.Security = openapi3.NewSecurityRequirements().With(openapi3.SecurityRequirement{"api_key": {}})

	setScopeRequirement(op, "read")
	setScopeRequirement(op, "write")

	assert.Equal(t, openapi3.SecurityRequirements{
		{"api_key": {}},
		{"default": {"write"}},
	}, *op.Security)
}
