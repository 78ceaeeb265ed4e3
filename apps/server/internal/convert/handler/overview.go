package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tilsley/repomark/apps/server/internal/convert"
	"github.com/tilsley/repomark/pkg/api"
)

// Overview returns aggregate statistics over recorded conversions.
func (h *Handler) Overview(c *gin.Context) {
	o, err := h.svc.Overview(c.Request.Context())
	if errors.Is(err, convert.ErrRecordingDisabled) {
		c.JSON(http.StatusNotImplemented, api.ErrorResponse{Error: "conversion recording is not configured"})
		return
	}
	if err != nil {
		h.log.Error("conversion overview failed", "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to fetch conversion overview"})
		return
	}
	c.JSON(http.StatusOK, o)
}
