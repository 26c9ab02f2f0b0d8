package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/awslabs/aws-lambda-go-api-proxy/core"
	"github.com/golang-jwt/jwt/v5"
)

// ClaimSource extracts a raw claim set from one upstream representation of
// the request. It returns false when that representation is not present;
// "present but empty" never happens, an empty result means not found.
type ClaimSource func(r *http.Request) (map[string]any, bool)

// Header names API Gateway forwards when the authorizer context travels as
// individual headers rather than inside the gateway event.
const (
	HeaderContext      = "x-apigateway-context"
	HeaderUserID       = "x-apigateway-user-id"
	HeaderUserEmail    = "x-apigateway-user-email"
	HeaderAccessType   = "x-apigateway-access-type"
	HeaderScope        = "x-apigateway-scope"
	HeaderCurrentStore = "x-apigateway-current-store"
	HeaderIssuer       = "x-apigateway-issuer"
	HeaderAzp          = "x-apigateway-azp"
)

// Keys the gateway writes into a REST-style authorizer section alongside the
// actual claims.
var reservedAuthorizerKeys = map[string]struct{}{
	"principalId":        {},
	"integrationLatency": {},
	"policyDocument":     {},
	"context":            {},
}

// DefaultSources returns the claim sources in resolution priority order:
// HTTP-API (v2) gateway event, REST (v1) gateway event, forwarded headers,
// then optionally the claims of an unverified bearer token (local runs only;
// in the hosted environment verification already happened upstream).
//
// The header and bearer fallbacks only apply to requests that did not arrive
// through the gateway. Once an event is attached, its authorizer section is
// the sole claim carrier: an event without one means the route was not
// authorized, and the forwarded headers are client-controlled.
func DefaultSources(trustBearer bool) []ClaimSource {
	sources := []ClaimSource{FromGatewayV2Event, FromGatewayV1Event, withoutGatewayEvent(FromHeaders)}
	if trustBearer {
		sources = append(sources, withoutGatewayEvent(FromBearerToken))
	}
	return sources
}

// HasGatewayEvent reports whether the proxy adapter attached a gateway
// request context to the request.
func HasGatewayEvent(r *http.Request) bool {
	if _, ok := core.GetAPIGatewayV2ContextFromContext(r.Context()); ok {
		return true
	}
	_, ok := core.GetAPIGatewayContextFromContext(r.Context())
	return ok
}

func withoutGatewayEvent(source ClaimSource) ClaimSource {
	return func(r *http.Request) (map[string]any, bool) {
		if HasGatewayEvent(r) {
			return nil, false
		}
		return source(r)
	}
}

// Resolve tries each source in order and returns the first claim set found.
// A false result is a true "not found", distinct from an empty claim set.
func Resolve(r *http.Request, sources ...ClaimSource) (map[string]any, bool) {
	for _, source := range sources {
		if claims, ok := source(r); ok {
			return claims, true
		}
	}
	return nil, false
}

// FromGatewayV2Event reads the authorizer section of an HTTP-API (payload
// format 2.0) gateway event planted in the request context by the proxy
// adapter. A lambda authorizer's claims live under the "lambda" sub-object;
// a JWT authorizer exposes them directly.
func FromGatewayV2Event(r *http.Request) (map[string]any, bool) {
	reqCtx, ok := core.GetAPIGatewayV2ContextFromContext(r.Context())
	if !ok || reqCtx.Authorizer == nil {
		return nil, false
	}
	if len(reqCtx.Authorizer.Lambda) > 0 {
		return reqCtx.Authorizer.Lambda, true
	}
	if reqCtx.Authorizer.JWT != nil && len(reqCtx.Authorizer.JWT.Claims) > 0 {
		claims := make(map[string]any, len(reqCtx.Authorizer.JWT.Claims))
		for k, v := range reqCtx.Authorizer.JWT.Claims {
			claims[k] = v
		}
		return claims, true
	}
	return nil, false
}

// FromGatewayV1Event reads the authorizer section of a REST (payload format
// 1.0) gateway event planted in the request context by the proxy adapter.
func FromGatewayV1Event(r *http.Request) (map[string]any, bool) {
	reqCtx, ok := core.GetAPIGatewayContextFromContext(r.Context())
	if !ok {
		return nil, false
	}
	return ClaimsFromAuthorizer(reqCtx.Authorizer)
}

// ClaimsFromAuthorizer normalizes a raw authorizer section into a claim set.
// Ordered cascade, first match wins:
//  1. a nested "lambda" sub-object is the claim set;
//  2. the section's own keys minus gateway-reserved ones, merged with a
//     nested "context" sub-object;
//  3. the whole section, when it holds more than a principal id.
func ClaimsFromAuthorizer(section map[string]any) (map[string]any, bool) {
	if len(section) == 0 {
		return nil, false
	}

	if nested, ok := section["lambda"].(map[string]any); ok && len(nested) > 0 {
		return nested, true
	}

	claims := make(map[string]any)
	for k, v := range section {
		if _, reserved := reservedAuthorizerKeys[k]; reserved {
			continue
		}
		claims[k] = v
	}
	if nested, ok := section["context"].(map[string]any); ok {
		for k, v := range nested {
			claims[k] = v
		}
	}
	if len(claims) > 0 {
		return claims, true
	}

	if len(section) > 1 {
		return section, true
	}
	return nil, false
}

// FromHeaders reads the forwarded x-apigateway-* headers. A JSON
// x-apigateway-context header takes precedence over the individual ones.
func FromHeaders(r *http.Request) (map[string]any, bool) {
	if blob := r.Header.Get(HeaderContext); blob != "" {
		var claims map[string]any
		if err := json.Unmarshal([]byte(blob), &claims); err == nil && len(claims) > 0 {
			return claims, true
		}
	}

	mapping := []struct {
		header string
		claim  string
	}{
		{HeaderUserID, ClaimSubject},
		{HeaderUserEmail, ClaimEmail},
		{HeaderAccessType, ClaimAccessType},
		{HeaderScope, ClaimScope},
		{HeaderCurrentStore, ClaimCurrentStore},
		{HeaderIssuer, ClaimIssuer},
		{HeaderAzp, ClaimAuthorizedParty},
	}

	claims := make(map[string]any)
	for _, m := range mapping {
		if v := r.Header.Get(m.header); v != "" {
			claims[m.claim] = v
		}
	}
	if len(claims) == 0 {
		return nil, false
	}
	return claims, true
}

// FromBearerToken parses an Authorization bearer token without verifying its
// signature and uses its claims. Only wired in local mode, where it lets the
// same tokens the gateway authorizer would have validated drive the claim
// path.
func FromBearerToken(r *http.Request) (map[string]any, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(strings.TrimSpace(parts[1]), claims); err != nil {
		return nil, false
	}
	if len(claims) == 0 {
		return nil, false
	}
	return map[string]any(claims), true
}
