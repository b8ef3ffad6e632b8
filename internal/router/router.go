package router

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/qwe638853/GasPass-sub000/internal/config"
	"github.com/qwe638853/GasPass-sub000/internal/handlers"
	"github.com/qwe638853/GasPass-sub000/internal/middleware"
)

// corsMiddleware applies the configured origin whitelist. An empty whitelist
// allows everything, which suits local development.
func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		switch {
		case len(allowedOrigins) == 0:
			c.Header("Access-Control-Allow-Origin", "*")
		case origin != "":
			for _, allowed := range allowedOrigins {
				if strings.TrimSpace(allowed) == origin {
					c.Header("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}

		if c.Request.Method == "OPTIONS" {
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
			c.Header("Access-Control-Max-Age", "3600")
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// Setup builds the HTTP surface: public reads, the relay endpoint, metrics,
// and the IP + JWT guarded admin routes.
func Setup(cfg *config.Config, logger *logrus.Logger, scan *handlers.ScanHandler, relayH *handlers.RelayHandler, policy *handlers.PolicyHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins))

	r.GET("/health", handlers.HealthCheckHandler)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.GET("/status", scan.Status)
		api.GET("/policies", scan.Policies)
		api.GET("/cycles", scan.Cycles)
		api.GET("/refuels", scan.Refuels)

		api.GET("/tokens/:id", policy.Token)
		api.GET("/tokens/:id/policies/:chainId", policy.Policy)
		api.GET("/fees", policy.Fees)

		api.POST("/relay", relayH.Submit)
		api.GET("/nonces/:owner", relayH.OwnerNonce)
		api.GET("/relay/queue", relayH.QueueDepth)
	}

	localhostOnly := middleware.NewLocalhostOnly(logger, cfg.Admin.AllowedIPs)
	auth := middleware.NewAuthMiddleware(logger, cfg.Admin.JWTSecret)

	admin := r.Group("/api")
	admin.Use(localhostOnly.Restrict(), auth.RequireAdmin())
	{
		admin.POST("/scan", scan.TriggerScan)
	}

	return r
}
