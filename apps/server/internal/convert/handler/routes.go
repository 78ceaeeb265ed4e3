package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tilsley/repomark/apps/server/internal/convert"
	"github.com/tilsley/repomark/pkg/api"
)

// Handler translates HTTP requests into calls on the convert.Service.
type Handler struct {
	svc *convert.Service
	log *slog.Logger
}

// RegisterRoutes mounts the conversion API onto the given Gin engine. Any
// method other than the registered one on a known path answers 405.
func RegisterRoutes(r *gin.Engine, svc *convert.Service, log *slog.Logger) {
	h := &Handler{svc: svc, log: log}

	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, api.ErrorResponse{Error: "Method Not Allowed"})
	})

	r.POST("/api/convert", h.Convert)
	// Legacy path kept for clients of the serverless deployment.
	r.POST("/.netlify/functions/github-to-markdown", h.Convert)

	r.GET("/api/conversions/overview", h.Overview)
}
