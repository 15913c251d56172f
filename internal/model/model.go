package model

import (
	"strings"
)

// RouteKey uniquely identifies an operation by HTTP method and normalized path.
type RouteKey struct {
	Method string
	Path   string
}

// AuthPolicy represents the authorization requirements for a single operation.
//
// Roles is a coarse-grained list of roles that are allowed to access the
// operation (any of them suffices). Scopes are granular permissions that must
// all be present.
type AuthPolicy struct {
	RequireAuth bool
	Roles       []string
	Scopes      []string
}

// SupportedMethods lists the HTTP verbs the platform manages, in the order
// operations are emitted.
var SupportedMethods = []string{"GET", "PUT", "POST", "DELETE", "PATCH", "HEAD", "OPTIONS"}

// IsSupportedMethod reports whether verb is managed by the platform. The
// comparison is case-insensitive.
func IsSupportedMethod(verb string) bool {
	for _, m := range SupportedMethods {
		if strings.EqualFold(m, verb) {
			return true
		}
	}
	return false
}

// AuthType is the authentication level a resource requires.
type AuthType string

const (
	AuthNone                         AuthType = "None"
	AuthApplicationUser              AuthType = "Application_User"
	AuthApplication                  AuthType = "Application"
	AuthApplicationOrApplicationUser AuthType = "Any"
)

// Scope is an OAuth2 permission unit. Roles is the raw comma separated list
// of roles bound to the scope.
type Scope struct {
	Key         string `yaml:"key" json:"key"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Roles       string `yaml:"roles,omitempty" json:"roles,omitempty"`
}

// RoleList splits Roles into trimmed, non-empty role names.
func (s Scope) RoleList() []string {
	var roles []string
	for _, r := range strings.Split(s.Roles, ",") {
		if r = strings.TrimSpace(r); r != "" {
			roles = append(roles, r)
		}
	}
	return roles
}

// Resource is one managed path/verb pair of an API.
type Resource struct {
	Path             string   `yaml:"path" json:"path" validate:"required"`
	Verb             string   `yaml:"verb" json:"verb" validate:"required"`
	AuthType         AuthType `yaml:"authType,omitempty" json:"authType,omitempty"`
	ThrottlingPolicy string   `yaml:"throttlingPolicy,omitempty" json:"throttlingPolicy,omitempty"`
	Scope            *Scope   `yaml:"scope,omitempty" json:"scope,omitempty"`
	MediationScript  string   `yaml:"mediationScript,omitempty" json:"mediationScript,omitempty"`
}

// Key returns the normalized identity of the resource.
func (r Resource) Key() RouteKey {
	return RouteKey{Method: strings.ToUpper(r.Verb), Path: r.Path}
}

// Matches reports whether the resource is identified by path and verb,
// ignoring case on both.
func (r Resource) Matches(path, verb string) bool {
	return strings.EqualFold(r.Path, path) && strings.EqualFold(r.Verb, verb)
}

// URITemplate is a resource as extracted from an API definition.
//
// Scope is set when the operation references exactly one scope; Scopes is set
// instead when it references several, and is left to the caller to reconcile.
type URITemplate struct {
	Verb            string   `json:"verb"`
	Path            string   `json:"path"`
	AuthType        AuthType `json:"authType,omitempty"`
	ThrottlingTier  string   `json:"throttlingTier,omitempty"`
	Scope           *Scope   `json:"scope,omitempty"`
	Scopes          []string `json:"scopes,omitempty"`
	MediationScript string   `json:"mediationScript,omitempty"`
}

// Key returns the normalized identity of the template.
func (t URITemplate) Key() RouteKey {
	return RouteKey{Method: strings.ToUpper(t.Verb), Path: t.Path}
}

// ScopeKeys returns every scope key the template references.
func (t URITemplate) ScopeKeys() []string {
	if t.Scope != nil {
		return []string{t.Scope.Key}
	}
	return t.Scopes
}

// Policy derives the authorization policy a request to the template must
// satisfy.
func (t URITemplate) Policy() AuthPolicy {
	if t.AuthType == AuthNone {
		return AuthPolicy{RequireAuth: false}
	}
	policy := AuthPolicy{RequireAuth: true, Scopes: t.ScopeKeys()}
	if t.Scope != nil {
		policy.Roles = t.Scope.RoleList()
	}
	return policy
}

// APIData is the resource model of one API together with the descriptive
// fields needed to generate a definition from scratch.
type APIData struct {
	Title        string     `yaml:"title" json:"title" validate:"required"`
	Version      string     `yaml:"version" json:"version" validate:"required"`
	Description  string     `yaml:"description,omitempty" json:"description,omitempty"`
	ContactName  string     `yaml:"contactName,omitempty" json:"contactName,omitempty"`
	ContactEmail string     `yaml:"contactEmail,omitempty" json:"contactEmail,omitempty" validate:"omitempty,email"`
	Resources    []Resource `yaml:"resources" json:"resources" validate:"dive"`
	Scopes       []Scope    `yaml:"scopes,omitempty" json:"scopes,omitempty"`
}

// AllScopes returns the API level scopes followed by every scope referenced
// by a resource, unique by key.
func (a *APIData) AllScopes() Scopes {
	var all Scopes
	for _, s := range a.Scopes {
		all.Add(s)
	}
	for _, r := range a.Resources {
		if r.Scope != nil {
			all.Add(*r.Scope)
		}
	}
	return all
}
