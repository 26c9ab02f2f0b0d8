package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/awslabs/aws-lambda-go-api-proxy/core"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimsFromAuthorizer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		section map[string]any
		want    map[string]any
		found   bool
	}{
		{
			name:  "empty section",
			found: false,
		},
		{
			name: "nested lambda object wins",
			section: map[string]any{
				"lambda":      map[string]any{"sub": "u1", "email": "a@b.com"},
				"principalId": "ignored",
			},
			want:  map[string]any{"sub": "u1", "email": "a@b.com"},
			found: true,
		},
		{
			name: "reserved keys stripped",
			section: map[string]any{
				"principalId":        "user",
				"integrationLatency": 12,
				"sub":                "u1",
				"email":              "a@b.com",
			},
			want:  map[string]any{"sub": "u1", "email": "a@b.com"},
			found: true,
		},
		{
			name: "nested context merged over stripped keys",
			section: map[string]any{
				"principalId": "user",
				"sub":         "u1",
				"context":     map[string]any{"email": "a@b.com", "scope": "read"},
			},
			want:  map[string]any{"sub": "u1", "email": "a@b.com", "scope": "read"},
			found: true,
		},
		{
			name: "only reserved keys but more than principal falls back to whole section",
			section: map[string]any{
				"principalId":    "user",
				"policyDocument": map[string]any{"Version": "2012-10-17"},
			},
			want: map[string]any{
				"principalId":    "user",
				"policyDocument": map[string]any{"Version": "2012-10-17"},
			},
			found: true,
		},
		{
			name:    "principal id alone is not a context",
			section: map[string]any{"principalId": "user"},
			found:   false,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, found := ClaimsFromAuthorizer(tc.section)
			require.Equal(t, tc.found, found)
			if tc.found {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestFromGatewayV2Event(t *testing.T) {
	t.Parallel()

	event := events.APIGatewayV2HTTPRequest{
		RawPath: "/me",
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{
				Method: http.MethodGet,
				Path:   "/me",
			},
			Authorizer: &events.APIGatewayV2HTTPRequestContextAuthorizerDescription{
				Lambda: map[string]any{"sub": "u1", "email": "a@b.com"},
			},
		},
	}

	accessor := core.RequestAccessorV2{}
	req, err := accessor.EventToRequestWithContext(context.Background(), event)
	require.NoError(t, err)

	claims, found := FromGatewayV2Event(req)
	require.True(t, found)
	assert.Equal(t, "u1", claims["sub"])
	assert.Equal(t, "a@b.com", claims["email"])
}

func TestFromGatewayV2Event_NoAuthorizer(t *testing.T) {
	t.Parallel()

	event := events.APIGatewayV2HTTPRequest{
		RawPath: "/me",
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{
				Method: http.MethodGet,
				Path:   "/me",
			},
		},
	}

	accessor := core.RequestAccessorV2{}
	req, err := accessor.EventToRequestWithContext(context.Background(), event)
	require.NoError(t, err)

	_, found := FromGatewayV2Event(req)
	assert.False(t, found)
}

func TestFromGatewayV1Event(t *testing.T) {
	t.Parallel()

	event := events.APIGatewayProxyRequest{
		Path:       "/me",
		HTTPMethod: http.MethodGet,
		RequestContext: events.APIGatewayProxyRequestContext{
			Authorizer: map[string]any{
				"principalId": "user",
				"sub":         "u1",
				"email":       "a@b.com",
			},
		},
	}

	accessor := core.RequestAccessor{}
	req, err := accessor.EventToRequestWithContext(context.Background(), event)
	require.NoError(t, err)

	claims, found := FromGatewayV1Event(req)
	require.True(t, found)
	assert.Equal(t, map[string]any{"sub": "u1", "email": "a@b.com"}, claims)
}

func TestFromGatewayV1Event_NotAGatewayRequest(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	_, found := FromGatewayV1Event(req)
	assert.False(t, found)
}

func TestFromHeaders(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(HeaderUserID, "u1")
	req.Header.Set(HeaderUserEmail, "a@b.com")
	req.Header.Set(HeaderAccessType, "full")
	req.Header.Set(HeaderScope, "read:users")
	req.Header.Set(HeaderCurrentStore, "store_1")
	req.Header.Set(HeaderIssuer, "https://issuer.example.com/")
	req.Header.Set(HeaderAzp, "client_app")

	claims, found := FromHeaders(req)
	require.True(t, found)
	assert.Equal(t, "u1", claims[ClaimSubject])
	assert.Equal(t, "a@b.com", claims[ClaimEmail])
	assert.Equal(t, "full", claims[ClaimAccessType])
	assert.Equal(t, "read:users", claims[ClaimScope])
	assert.Equal(t, "store_1", claims[ClaimCurrentStore])
	assert.Equal(t, "https://issuer.example.com/", claims[ClaimIssuer])
	assert.Equal(t, "client_app", claims[ClaimAuthorizedParty])
}

func TestFromHeaders_JSONContextTakesPrecedence(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(HeaderUserID, "from-individual-header")
	req.Header.Set(HeaderContext, `{"sub":"from-json","email":"json@b.com"}`)

	claims, found := FromHeaders(req)
	require.True(t, found)
	assert.Equal(t, "from-json", claims[ClaimSubject])
	assert.Equal(t, "json@b.com", claims[ClaimEmail])
}

func TestFromHeaders_InvalidJSONFallsBackToIndividual(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(HeaderContext, "{not json")
	req.Header.Set(HeaderUserID, "u1")

	claims, found := FromHeaders(req)
	require.True(t, found)
	assert.Equal(t, "u1", claims[ClaimSubject])
}

func TestFromHeaders_NoHeaders(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	_, found := FromHeaders(req)
	assert.False(t, found)
}

func TestFromBearerToken(t *testing.T) {
	t.Parallel()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "u1",
		"email": "a@b.com",
	})
	signed, err := token.SignedString([]byte("local-secret"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signed)

	claims, found := FromBearerToken(req)
	require.True(t, found)
	assert.Equal(t, "u1", claims["sub"])
	assert.Equal(t, "a@b.com", claims["email"])
}

func TestFromBearerToken_Malformed(t *testing.T) {
	t.Parallel()

	for _, header := range []string{"", "Bearer", "Bearer not.a.token", "Basic dXNlcg=="} {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		_, found := FromBearerToken(req)
		assert.False(t, found, "header %q", header)
	}
}

func TestResolve_PriorityOrderAndNotFound(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(HeaderUserID, "header-user")
	req.Header.Set(HeaderUserEmail, "header@b.com")

	// Headers present but an earlier source wins.
	first := func(*http.Request) (map[string]any, bool) {
		return map[string]any{"sub": "event-user"}, true
	}
	claims, found := Resolve(req, first, FromHeaders)
	require.True(t, found)
	assert.Equal(t, "event-user", claims["sub"])

	// Earlier source empty-handed falls through to headers.
	claims, found = Resolve(req, FromGatewayV1Event, FromHeaders)
	require.True(t, found)
	assert.Equal(t, "header-user", claims[ClaimSubject])

	// Nothing anywhere is a definitive not-found.
	bare := httptest.NewRequest(http.MethodGet, "/me", nil)
	_, found = Resolve(bare, DefaultSources(true)...)
	assert.False(t, found)
}

func TestResolve_GatewayEventWithoutAuthorizerIgnoresHeaders(t *testing.T) {
	t.Parallel()

	// A request that came through the gateway but whose event carries no
	// authorizer section must not authenticate from forwarded headers,
	// which the client controls.
	v2Event := events.APIGatewayV2HTTPRequest{
		RawPath: "/api/1/users",
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{
				Method: http.MethodGet,
				Path:   "/api/1/users",
			},
		},
	}
	accessorV2 := core.RequestAccessorV2{}
	req, err := accessorV2.EventToRequestWithContext(context.Background(), v2Event)
	require.NoError(t, err)
	req.Header.Set(HeaderUserID, "attacker")
	req.Header.Set(HeaderUserEmail, "a@b.com")

	_, found := Resolve(req, DefaultSources(false)...)
	assert.False(t, found)

	v1Event := events.APIGatewayProxyRequest{
		Path:       "/api/1/users",
		HTTPMethod: http.MethodGet,
	}
	accessorV1 := core.RequestAccessor{}
	req, err = accessorV1.EventToRequestWithContext(context.Background(), v1Event)
	require.NoError(t, err)
	req.Header.Set(HeaderContext, `{"sub":"attacker","email":"a@b.com"}`)

	_, found = Resolve(req, DefaultSources(false)...)
	assert.False(t, found)
}

func TestResolve_GatewayEventWithoutAuthorizerIgnoresBearer(t *testing.T) {
	t.Parallel()

	event := events.APIGatewayV2HTTPRequest{
		RawPath: "/api/1/users",
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{
				Method: http.MethodGet,
				Path:   "/api/1/users",
			},
		},
	}
	accessor := core.RequestAccessorV2{}
	req, err := accessor.EventToRequestWithContext(context.Background(), event)
	require.NoError(t, err)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "attacker",
		"email": "a@b.com",
	})
	signed, err := token.SignedString([]byte("local-secret"))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+signed)

	_, found := Resolve(req, DefaultSources(true)...)
	assert.False(t, found)
}

func TestHasGatewayEvent(t *testing.T) {
	t.Parallel()

	assert.False(t, HasGatewayEvent(httptest.NewRequest(http.MethodGet, "/me", nil)))

	accessor := core.RequestAccessorV2{}
	req, err := accessor.EventToRequestWithContext(context.Background(), events.APIGatewayV2HTTPRequest{
		RawPath: "/me",
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{
				Method: http.MethodGet,
				Path:   "/me",
			},
		},
	})
	require.NoError(t, err)
	assert.True(t, HasGatewayEvent(req))
}
