// Package enforce applies the authorization policies of extracted URI
// templates to requests served by a chi router.
package enforce

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/chr1sbest/oasync/internal/model"
)

// Claims are the authenticated caller's roles and scopes.
type Claims struct {
	Roles  []string
	Scopes []string
}

// ClaimsFunc returns the claims of the caller of r, or nil when the request
// is unauthenticated.
type ClaimsFunc func(r *http.Request) *Claims

type claimsKey struct{}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromContext is a ClaimsFunc reading claims stored by WithClaims.
func ClaimsFromContext(r *http.Request) *Claims {
	claims, _ := r.Context().Value(claimsKey{}).(*Claims)
	return claims
}

// Guard enforces one policy per route. Routes without a policy are let
// through.
type Guard struct {
	policies map[model.RouteKey]model.AuthPolicy
	claims   ClaimsFunc
	logger   log.Logger
}

// NewGuard builds a Guard from templates. Template paths use the same
// {param} syntax as chi route patterns.
func NewGuard(templates []model.URITemplate, claims ClaimsFunc, logger log.Logger) *Guard {
	if claims == nil {
		claims = ClaimsFromContext
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}

	policies := make(map[model.RouteKey]model.AuthPolicy, len(templates))
	for _, t := range templates {
		policies[t.Key()] = t.Policy()
	}
	return &Guard{policies: policies, claims: claims, logger: logger}
}

// Policy returns the policy of the route, if any.
func (g *Guard) Policy(key model.RouteKey) (model.AuthPolicy, bool) {
	p, ok := g.policies[key]
	return p, ok
}

// Middleware rejects requests whose caller does not satisfy the policy of
// the matched route with 401 or 403. It may be installed with Use on the
// router itself: the route pattern is resolved ahead of routing.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pattern := routePattern(r)
		if pattern == "" {
			next.ServeHTTP(w, r)
			return
		}

		policy, ok := g.policies[model.RouteKey{Method: r.Method, Path: pattern}]
		if !ok || !policy.RequireAuth {
			next.ServeHTTP(w, r)
			return
		}

		claims := g.claims(r)
		if claims == nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if len(policy.Roles) > 0 && !hasAnyRole(claims, policy.Roles...) {
			level.Debug(g.logger).Log("msg", "request denied, missing role", "method", r.Method, "route", pattern)
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		if len(policy.Scopes) > 0 && !hasAllScopes(claims, policy.Scopes...) {
			level.Debug(g.logger).Log("msg", "request denied, missing scope", "method", r.Method, "route", pattern)
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// routePattern resolves the chi route pattern r will be served by.
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return ""
	}
	if pattern := rctx.RoutePattern(); pattern != "" {
		return pattern
	}
	if rctx.Routes == nil {
		return ""
	}

	path := r.URL.RawPath
	if path == "" {
		path = r.URL.Path
	}
	tctx := chi.NewRouteContext()
	if !rctx.Routes.Match(tctx, r.Method, path) {
		return ""
	}
	return tctx.RoutePattern()
}

func hasAnyRole(claims *Claims, required ...string) bool {
	for _, r := range required {
		for _, have := range claims.Roles {
			if have == r {
				return true
			}
		}
	}
	return false
}

func hasAllScopes(claims *Claims, required ...string) bool {
	for _, r := range required {
		found := false
		for _, have := range claims.Scopes {
			if have == r {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
