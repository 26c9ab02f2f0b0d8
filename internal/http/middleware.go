package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"seller-users/internal/auth"
	"seller-users/internal/database"
)

// Gin context keys populated by the auth gate for handler consumption.
const (
	ctxKeyAuthContext  = "auth_context"
	ctxKeyUserID       = "user_id"
	ctxKeyUserEmail    = "user_email"
	ctxKeyCurrentStore = "current_store"
	ctxKeyAccessType   = "access_type"
	ctxKeyScope        = "scope"
)

// AuthGateConfig controls the path protection policy.
type AuthGateConfig struct {
	// Hosted enables enforcement. Outside the gateway-hosted environment the
	// gate trusts every request; local development runs without an upstream
	// authorizer, and this is deliberate behavior, not a gap.
	Hosted bool
	// Sources is the ordered claim-source chain the resolver tries.
	Sources []auth.ClaimSource

	ProtectedPrefixes []string
	ExcludedPrefixes  []string
}

// DefaultAuthGateConfig returns the standard protection policy: everything
// under /api/ plus /me requires authentication, health and docs stay public.
func DefaultAuthGateConfig(hosted, trustBearer bool) AuthGateConfig {
	return AuthGateConfig{
		Hosted:            hosted,
		Sources:           auth.DefaultSources(trustBearer),
		ProtectedPrefixes: []string{"/api/", "/me"},
		ExcludedPrefixes:  []string{"/health", "/docs", "/openapi.json", "/redoc"},
	}
}

// AuthGate resolves the upstream authorizer context and blocks protected
// routes when it is missing (401) or invalid (403). On success the resolved
// identity is attached to the gin context, which is the only channel by which
// identity reaches route logic.
func AuthGate(cfg AuthGateConfig, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Hosted {
			c.Next()
			return
		}

		path := c.Request.URL.Path
		for _, prefix := range cfg.ExcludedPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		protected := false
		for _, prefix := range cfg.ProtectedPrefixes {
			if strings.HasPrefix(path, prefix) {
				protected = true
				break
			}
		}
		if !protected {
			c.Next()
			return
		}

		claims, found := auth.Resolve(c.Request, cfg.Sources...)
		if !found {
			logger.WithFields(logrus.Fields{
				"path":   path,
				"method": c.Request.Method,
			}).Warn("missing authorizer context")
			abortError(c, http.StatusUnauthorized, "Authentication required", ErrorDetail{
				Code:    CodeAuthenticationRequired,
				Field:   "authorization",
				Message: "Missing or invalid authorization context",
			})
			return
		}

		ac := auth.FromClaims(claims)
		if reason := ac.Validate(); reason != "" {
			logger.WithFields(logrus.Fields{
				"path":   path,
				"method": c.Request.Method,
				"reason": reason,
			}).Warn("invalid authorizer context")
			abortError(c, http.StatusForbidden, "Access forbidden", ErrorDetail{
				Code:    CodeAccessForbidden,
				Field:   "authorization",
				Message: reason,
			})
			return
		}

		c.Set(ctxKeyAuthContext, ac)
		c.Set(ctxKeyUserID, ac.Subject)
		c.Set(ctxKeyUserEmail, ac.Email)
		c.Set(ctxKeyCurrentStore, ac.CurrentStore)
		c.Set(ctxKeyAccessType, ac.AccessType)
		c.Set(ctxKeyScope, ac.Scope)

		logger.WithFields(logrus.Fields{
			"path":        path,
			"method":      c.Request.Method,
			"user_id":     ac.Subject,
			"email":       ac.Email,
			"access_type": ac.AccessType,
		}).Info("authorizer context validated")

		c.Next()
	}
}

// AuthContextFrom returns the validated auth context attached by the gate,
// or nil when the gate did not run (public route or local mode).
func AuthContextFrom(c *gin.Context) *auth.Context {
	if v, ok := c.Get(ctxKeyAuthContext); ok {
		if ac, ok := v.(*auth.Context); ok {
			return ac
		}
	}
	return nil
}

// InitMiddleware drives the lazy one-time storage initialization. A failed
// attempt is logged and the request continues; handlers touching storage then
// fail with the storage-unavailable error, and the next request retries.
func InitMiddleware(gate *database.InitGate, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := gate.Ensure(c.Request.Context()); err != nil {
			logger.WithError(err).Error("storage initialization failed")
		}
		c.Next()
	}
}

// Recovery converts panics into the standard internal-error envelope without
// leaking details to the client.
func Recovery(logger *logrus.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		logger.WithFields(logrus.Fields{
			"path":  c.Request.URL.Path,
			"panic": recovered,
		}).Error("panic recovered")
		abortError(c, http.StatusInternalServerError, "Internal server error", ErrorDetail{
			Code:    CodeInternalError,
			Message: "Internal server error",
		})
	})
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
