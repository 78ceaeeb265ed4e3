package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/tilsley/repomark/apps/server/internal/oauth"
	"github.com/tilsley/repomark/pkg/api"
)

// Login handles GET /api/oauth/login by redirecting to the provider.
func (h *Handler) Login(c *gin.Context) {
	target, err := h.svc.LoginURL(c.Request.Context())
	if err != nil {
		h.log.Error("oauth login failed", "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to start login"})
		return
	}
	c.Redirect(http.StatusFound, target)
}

// CallbackQuery handles GET /api/oauth/callback?code=...&state=...
func (h *Handler) CallbackQuery(c *gin.Context) {
	h.exchange(c, c.Query("code"), c.Query("state"))
}

// CallbackBody handles POST /api/oauth/callback with {code, state}.
func (h *Handler) CallbackBody(c *gin.Context) {
	var body api.OAuthCallbackRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Missing code parameter", Details: err.Error()})
			return
		}
	}
	h.exchange(c, body.Code, body.State)
}

func (h *Handler) exchange(c *gin.Context, code, state string) {
	token, err := h.svc.Exchange(c.Request.Context(), code, state)
	switch {
	case errors.Is(err, oauth.ErrMissingCode):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Missing code parameter"})
		return
	case errors.Is(err, oauth.ErrUnknownState):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid state parameter"})
		return
	case err != nil:
		h.log.Error("oauth callback failed", "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to exchange code for token"})
		return
	}

	c.Redirect(http.StatusFound, "/?access_token="+url.QueryEscape(token))
}
