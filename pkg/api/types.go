// Package api holds the JSON wire types of the repomark HTTP API. They mirror
// the component schemas in schemas/openapi.yaml.
package api

// ConvertRequest is the body of POST /api/convert. Exclusion fields are
// comma-separated lists; empty items are ignored.
type ConvertRequest struct {
	RepoUrl      string `json:"repoUrl"`
	ExcludeTypes string `json:"excludeTypes,omitempty"`
	ExcludeDirs  string `json:"excludeDirs,omitempty"`
	ExcludeFiles string `json:"excludeFiles,omitempty"`
}

// ConvertResponse is returned on a successful conversion.
type ConvertResponse struct {
	Markdown string `json:"markdown"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

// OAuthCallbackRequest is the body of POST /api/oauth/callback.
type OAuthCallbackRequest struct {
	Code  string `json:"code"`
	State string `json:"state,omitempty"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}
