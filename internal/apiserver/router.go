package apiserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/perchlabs/boothboard/internal/apiserver/handler"
	"github.com/perchlabs/boothboard/internal/apiserver/middleware"
	"github.com/perchlabs/boothboard/internal/auth/jwt"
	"github.com/perchlabs/boothboard/pkg/metrics"
)

// NewRouter assembles the gin engine: open login endpoint, JWT-protected
// view endpoints, and the operational endpoints.
func NewRouter(h *handler.Handler, jwtService *jwt.Service, m *metrics.Metrics, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(logger))
	if m != nil {
		r.Use(m.Middleware())
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/api/auth/login", h.Login)

	authed := r.Group("/api", middleware.JWTAuthMiddleware(jwtService))
	authed.POST("/auth/logout", h.Logout)
	authed.GET("/dashboard", h.Dashboard)
	authed.GET("/locations/:location", h.Location)
	authed.GET("/booths/:location/:booth", h.Booth)
	authed.GET("/booths/:location/:booth/analytics/:metric", h.Analytics)

	return r
}
