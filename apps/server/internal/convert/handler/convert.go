package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tilsley/repomark/apps/server/internal/convert"
	"github.com/tilsley/repomark/pkg/api"
)

const (
	msgRepoURLRequired = "Repository URL is required"
	msgAuthRequired    = "Authentication required"
	msgConvertFailed   = "An error occurred while processing the repository"
)

// Convert handles POST /api/convert: validates the body and credential, runs
// the conversion and returns {markdown}. A failure anywhere in the walk
// yields 500 and no partial document.
func (h *Handler) Convert(c *gin.Context) {
	var req api.ConvertRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{
				Error:   msgRepoURLRequired,
				Details: err.Error(),
				Kind:    string(convert.KindInvalidRequest),
			})
			return
		}
	}
	if strings.TrimSpace(req.RepoUrl) == "" {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: msgRepoURLRequired, Kind: string(convert.KindInvalidRequest)})
		return
	}

	token := bearerToken(c.GetHeader("Authorization"))
	if token == "" {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: msgAuthRequired, Kind: string(convert.KindUnauthenticated)})
		return
	}

	res, err := h.svc.Convert(c.Request.Context(), convert.Request{
		RepoURL:      req.RepoUrl,
		ExcludeTypes: req.ExcludeTypes,
		ExcludeDirs:  req.ExcludeDirs,
		ExcludeFiles: req.ExcludeFiles,
		Credential:   token,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.ConvertResponse{Markdown: res.Markdown})
}

// writeError maps service errors onto status codes. Request-shape errors the
// service re-checks keep their 4xx; everything else is a processing failure.
func (h *Handler) writeError(c *gin.Context, err error) {
	kind := convert.KindOf(err)
	var invalid convert.InvalidRequestError
	var unauth convert.UnauthenticatedError
	switch {
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: msgRepoURLRequired, Kind: string(kind)})
	case errors.As(err, &unauth):
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: msgAuthRequired, Kind: string(kind)})
	default:
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{
			Error:   msgConvertFailed,
			Details: err.Error(),
			Kind:    string(kind),
		})
	}
}

// bearerToken returns the second space-separated field of an Authorization
// header. The scheme word itself is not checked, so "token x" works too.
func bearerToken(header string) string {
	fields := strings.Fields(header)
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}
