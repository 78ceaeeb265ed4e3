package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/tilsley/repomark/apps/server/internal/oauth"
)

// Handler exposes the OAuth login and callback endpoints.
type Handler struct {
	svc *oauth.Service
	log *slog.Logger
}

// RegisterRoutes mounts the OAuth endpoints. The callback accepts GET (code in
// the query) and POST (code in a JSON body); other methods fall through to the
// engine's 405 handling.
func RegisterRoutes(r *gin.Engine, svc *oauth.Service, log *slog.Logger) {
	h := &Handler{svc: svc, log: log}
	r.HandleMethodNotAllowed = true

	r.GET("/api/oauth/login", h.Login)

	for _, path := range []string{"/api/oauth/callback", "/.netlify/functions/github-callback"} {
		r.GET(path, h.CallbackQuery)
		r.POST(path, h.CallbackBody)
	}
}
