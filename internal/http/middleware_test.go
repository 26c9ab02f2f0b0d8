package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seller-users/internal/auth"
	"seller-users/internal/database"
)

func discardLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newGateRouter(hosted bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(AuthGate(DefaultAuthGateConfig(hosted, false), discardLogger()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/me", func(c *gin.Context) {
		ac := AuthContextFrom(c)
		if ac == nil {
			c.JSON(http.StatusOK, gin.H{"subject": nil})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"subject":       ac.Subject,
			"email":         ac.Email,
			"current_store": ac.CurrentStore,
		})
	})
	router.GET("/public", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func doRequest(router *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeErrorResponse(t *testing.T, body []byte) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp
}

func TestAuthGate_HealthAlwaysPublic(t *testing.T) {
	router := newGateRouter(true)

	w := doRequest(router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthGate_UnprotectedPathPasses(t *testing.T) {
	router := newGateRouter(true)

	w := doRequest(router, http.MethodGet, "/public", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthGate_MissingContextIsUnauthorized(t *testing.T) {
	router := newGateRouter(true)

	w := doRequest(router, http.MethodGet, "/me", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	resp := decodeErrorResponse(t, w.Body.Bytes())
	assert.False(t, resp.Metadata.Success)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, CodeAuthenticationRequired, resp.Errors[0].Code)
	assert.Equal(t, "authorization", resp.Errors[0].Field)
}

func TestAuthGate_InvalidContextIsForbiddenWithReason(t *testing.T) {
	router := newGateRouter(true)

	w := doRequest(router, http.MethodGet, "/me", map[string]string{
		auth.HeaderUserID: "u1",
	})
	require.Equal(t, http.StatusForbidden, w.Code)

	resp := decodeErrorResponse(t, w.Body.Bytes())
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, CodeAccessForbidden, resp.Errors[0].Code)
	assert.Equal(t, "Missing required field: email", resp.Errors[0].Message)
}

func TestAuthGate_BadEmailFormatIsForbidden(t *testing.T) {
	router := newGateRouter(true)

	w := doRequest(router, http.MethodGet, "/me", map[string]string{
		auth.HeaderUserID:    "u1",
		auth.HeaderUserEmail: "not-an-email",
	})
	require.Equal(t, http.StatusForbidden, w.Code)

	resp := decodeErrorResponse(t, w.Body.Bytes())
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "Invalid email format", resp.Errors[0].Message)
}

func TestAuthGate_ValidContextIsAttached(t *testing.T) {
	router := newGateRouter(true)

	w := doRequest(router, http.MethodGet, "/me", map[string]string{
		auth.HeaderUserID:       "u1",
		auth.HeaderUserEmail:    "a@b.com",
		auth.HeaderCurrentStore: "store_1",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "u1", body["subject"])
	assert.Equal(t, "a@b.com", body["email"])
	assert.Equal(t, "store_1", body["current_store"])
}

func TestAuthGate_BypassedOutsideHostedEnvironment(t *testing.T) {
	router := newGateRouter(false)

	w := doRequest(router, http.MethodGet, "/me", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Nil(t, body["subject"])
}

func TestInitMiddleware_FailureDoesNotBlockRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)

	attempts := 0
	gate := database.NewInitGate(func(ctx context.Context) error {
		attempts++
		if attempts == 1 {
			return errors.New("connect failed")
		}
		return nil
	})

	router := gin.New()
	router.Use(InitMiddleware(gate, discardLogger()))
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"initialized": gate.Initialized()})
	})

	w := doRequest(router, http.MethodGet, "/ping", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["initialized"])

	// The next request retries and succeeds.
	w = doRequest(router, http.MethodGet, "/ping", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["initialized"])
	assert.Equal(t, 2, attempts)
}

func TestRecovery_ReturnsInternalErrorEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(Recovery(discardLogger()))
	router.GET("/boom", func(c *gin.Context) {
		panic("kaboom")
	})

	w := doRequest(router, http.MethodGet, "/boom", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	resp := decodeErrorResponse(t, w.Body.Bytes())
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, CodeInternalError, resp.Errors[0].Code)
	assert.NotContains(t, resp.Errors[0].Message, "kaboom")
}
