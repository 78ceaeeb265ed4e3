// Package github provides the factory for authenticated go-github clients.
// Callers use the returned *github.Client with the adapter in
// apps/server/internal/convert/adapters/github.
package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gogithub "github.com/google/go-github/v75/github"
	"golang.org/x/oauth2"
)

// DefaultAPIURL is the public GitHub REST API.
const DefaultAPIURL = "https://api.github.com"

// NewTokenClient creates a *github.Client that sends token as a bearer
// credential. base supplies the underlying transport (nil means
// http.DefaultClient). Pass baseURL="" for the real GitHub API, or a custom URL
// (e.g. "http://localhost:9090") for a mock server. A baseURL that is not an
// absolute http(s) URL is an error rather than a silent fallback to github.com.
func NewTokenClient(token, baseURL string, base *http.Client) (*gogithub.Client, error) {
	if base == nil {
		base = http.DefaultClient
	}
	httpClient := base
	if token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	}
	c := gogithub.NewClient(httpClient)
	if err := applyBaseURL(c, baseURL); err != nil {
		return nil, err
	}
	return c, nil
}

// ParseAPIURL validates a REST API base URL and returns it with a trailing
// slash, as go-github requires.
func ParseAPIURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSuffix(raw, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parse github api url %q: %w", raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("github api url %q must be an absolute http(s) URL", raw)
	}
	return u, nil
}

func applyBaseURL(c *gogithub.Client, baseURL string) error {
	baseURL = strings.TrimSuffix(baseURL, "/")
	if baseURL == "" || baseURL == DefaultAPIURL {
		return nil
	}
	u, err := ParseAPIURL(baseURL)
	if err != nil {
		return err
	}
	c.BaseURL = u
	return nil
}
