package auth

import (
	"fmt"
	"strings"
)

// Claim keys as emitted by the upstream authorizer.
const (
	ClaimSubject         = "sub"
	ClaimEmail           = "email"
	ClaimCurrentStore    = "current_store"
	ClaimAccessType      = "accessType"
	ClaimScope           = "scope"
	ClaimIssuer          = "iss"
	ClaimAuthorizedParty = "azp"
)

// Context is the validated caller identity for one request. It is built from
// the raw authorizer claims and discarded when the request ends.
type Context struct {
	Subject         string
	Email           string
	CurrentStore    string
	AccessType      string
	Scope           string
	Issuer          string
	AuthorizedParty string

	// Claims is the full claim set the context was built from, including
	// keys not mapped to a field above.
	Claims map[string]any
}

// FromClaims builds a Context from a raw claim set. Non-string claim values
// for the well-known keys are ignored; Validate catches the fallout.
func FromClaims(claims map[string]any) *Context {
	c := &Context{Claims: claims}
	c.Subject = stringClaim(claims, ClaimSubject)
	c.Email = stringClaim(claims, ClaimEmail)
	c.CurrentStore = stringClaim(claims, ClaimCurrentStore)
	c.AccessType = stringClaim(claims, ClaimAccessType)
	c.Scope = stringClaim(claims, ClaimScope)
	c.Issuer = stringClaim(claims, ClaimIssuer)
	c.AuthorizedParty = stringClaim(claims, ClaimAuthorizedParty)
	return c
}

// Validate checks the required claims and returns a human-readable reason on
// failure, or an empty string when the context is usable.
func (c *Context) Validate() string {
	if strings.TrimSpace(c.Subject) == "" {
		return fmt.Sprintf("Missing required field: %s", ClaimSubject)
	}
	if strings.TrimSpace(c.Email) == "" {
		return fmt.Sprintf("Missing required field: %s", ClaimEmail)
	}
	if !strings.Contains(c.Email, "@") {
		return "Invalid email format"
	}
	return ""
}

func stringClaim(claims map[string]any, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}
