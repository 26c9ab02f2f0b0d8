package http

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"seller-users/internal/database"
)

// NewRouter assembles the gin engine with the full middleware chain:
// recovery, CORS, lazy storage initialization, then the auth gate, followed
// by the route handlers.
func NewRouter(h *Handler, gate *database.InitGate, authCfg AuthGateConfig, logger *logrus.Logger) *gin.Engine {
	router := gin.New()
	router.Use(Recovery(logger))
	router.Use(corsMiddleware())
	router.Use(InitMiddleware(gate, logger))
	router.Use(AuthGate(authCfg, logger))
	h.RegisterRoutes(router)
	return router
}
