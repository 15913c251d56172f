// Package oas holds the pieces shared by both reconciliation directions: the
// reserved identifiers of the platform, the parser and serializer delegates,
// the typed vendor-extension codec and the error taxonomy.
package oas

import (
	"github.com/chr1sbest/oasync/internal/model"
)

// Reserved identifiers. These must stay stable: documents written by other
// platform components use the same keys.
const (
	// SecuritySchemeKey is the name of the platform's OAuth2 security scheme
	// under components.securitySchemes.
	SecuritySchemeKey = "default"

	ExtAuthType        = "x-auth-type"
	ExtThrottlingTier  = "x-throttling-tier"
	ExtMediationScript = "x-mediation-script"
	// ExtScope is the legacy single scope extension of an operation.
	ExtScope = "x-scope"
	// ExtScopeBindings maps scope name to bound roles on the implicit flow.
	ExtScopeBindings = "x-scopes-bindings"
	// ExtLegacySecurity is the legacy root-level security definitions block.
	ExtLegacySecurity = "x-wso2-security"
	ExtLegacyScopes   = "x-wso2-scopes"

	ResponseOK      = "200"
	ParameterInPath = "path"

	// DefaultTokenURL is written to a newly created implicit flow.
	DefaultTokenURL = "https://test.com"

	// OpenAPIVersion is the version stamped on generated documents.
	OpenAPIVersion = "3.0.1"
)

// Document facing labels of the auth types.
const (
	LabelApplicationOrApplicationUser = "Application & Application User"
	LabelApplicationUser              = "Application User"
	LabelApplication                  = "Application"
	LabelNone                         = "None"
)

// AuthTypeLabel translates an auth type to the label written to x-auth-type.
// An empty auth type is treated as Any; unknown values are written verbatim.
func AuthTypeLabel(t model.AuthType) string {
	switch t {
	case model.AuthApplicationOrApplicationUser, "":
		return LabelApplicationOrApplicationUser
	case model.AuthApplicationUser:
		return LabelApplicationUser
	case model.AuthApplication:
		return LabelApplication
	case model.AuthNone:
		return LabelNone
	default:
		return string(t)
	}
}

// ParseAuthTypeLabel is the inverse of AuthTypeLabel. It also accepts the
// internal spelling of every auth type.
func ParseAuthTypeLabel(label string) model.AuthType {
	switch label {
	case LabelApplicationOrApplicationUser, string(model.AuthApplicationOrApplicationUser):
		return model.AuthApplicationOrApplicationUser
	case LabelApplicationUser, string(model.AuthApplicationUser):
		return model.AuthApplicationUser
	case LabelApplication:
		return model.AuthApplication
	case LabelNone:
		return model.AuthNone
	default:
		return model.AuthType(label)
	}
}
