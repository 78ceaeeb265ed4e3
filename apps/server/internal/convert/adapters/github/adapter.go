// Package github implements the convert.ContentFetcher port using the
// official go-github library. A fresh client is built per call from the
// call's own credential, so one Adapter serves every user.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	gogithub "github.com/google/go-github/v75/github"

	"github.com/tilsley/repomark/apps/server/internal/convert"
	platformgithub "github.com/tilsley/repomark/apps/server/internal/platform/github"
)

// Compile-time check: *Adapter implements convert.ContentFetcher.
var _ convert.ContentFetcher = (*Adapter)(nil)

// Adapter reads repository metadata and contents through the GitHub REST API.
type Adapter struct {
	baseURL    string
	httpClient *http.Client
}

// New creates an Adapter. baseURL="" targets api.github.com; httpClient may be
// nil to use http.DefaultClient.
func New(baseURL string, httpClient *http.Client) *Adapter {
	return &Adapter{baseURL: baseURL, httpClient: httpClient}
}

func (a *Adapter) client(credential string) (*gogithub.Client, error) {
	gh, err := platformgithub.NewTokenClient(credential, a.baseURL, a.httpClient)
	if err != nil {
		return nil, fmt.Errorf("build github client: %w", err)
	}
	return gh, nil
}

// GetRepository returns the repository's name and description.
func (a *Adapter) GetRepository(ctx context.Context, owner, repo, credential string) (*convert.RepoMetadata, error) {
	gh, err := a.client(credential)
	if err != nil {
		return nil, err
	}
	r, _, err := gh.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return nil, classify("get repository", owner+"/"+repo, err)
	}
	return &convert.RepoMetadata{Name: r.GetName(), Description: r.GetDescription()}, nil
}

// ListDirectory lists path. GitHub answers with a single object when path is a
// file and an array when it is a directory; both come back as a slice.
func (a *Adapter) ListDirectory(ctx context.Context, owner, repo, path, credential string) ([]convert.TreeNode, error) {
	gh, err := a.client(credential)
	if err != nil {
		return nil, err
	}
	fc, dc, err := getContents(ctx, gh, owner, repo, path)
	if err != nil {
		return nil, classify("list directory", path, err)
	}
	if fc != nil {
		return []convert.TreeNode{toNode(fc)}, nil
	}
	nodes := make([]convert.TreeNode, 0, len(dc))
	for _, c := range dc {
		nodes = append(nodes, toNode(c))
	}
	return nodes, nil
}

// FetchFileContent returns the decoded content of the file at path. Inline
// base64 content is decoded directly; files GitHub will not inline (over 1 MB,
// encoding "none") are read from their download URL instead.
func (a *Adapter) FetchFileContent(ctx context.Context, owner, repo, path, credential string) (string, error) {
	gh, err := a.client(credential)
	if err != nil {
		return "", err
	}
	fc, _, err := getContents(ctx, gh, owner, repo, path)
	if err != nil {
		return "", classify("fetch file", path, err)
	}
	if fc == nil {
		return "", &convert.UpstreamError{
			Kind: convert.KindUpstreamTransport,
			Op:   "fetch file",
			Path: path,
			Err:  errors.New("path is a directory, not a file"),
		}
	}

	if needsDownload(fc) {
		return a.download(ctx, gh, path, fc.GetDownloadURL())
	}

	content, err := fc.GetContent()
	if err != nil {
		return "", &convert.UpstreamError{Kind: convert.KindUpstreamTransport, Op: "decode file", Path: path, Err: err}
	}
	return content, nil
}

// getContents calls GET /repos/{owner}/{repo}/contents/{path}. go-github
// refuses any path containing ".." before sending it, yet names such as
// "notes..txt" are legal in a repository, so those paths are requested
// through the client's raw request API and decoded the same way.
func getContents(ctx context.Context, gh *gogithub.Client, owner, repo, path string) (*gogithub.RepositoryContent, []*gogithub.RepositoryContent, error) {
	if !strings.Contains(path, "..") {
		fc, dc, _, err := gh.Repositories.GetContents(ctx, owner, repo, path, nil)
		return fc, dc, err
	}

	escaped := (&url.URL{Path: strings.TrimSuffix(path, "/")}).String()
	req, err := gh.NewRequest(http.MethodGet, fmt.Sprintf("repos/%s/%s/contents/%s", owner, repo, escaped), nil)
	if err != nil {
		return nil, nil, err
	}
	var raw json.RawMessage
	if _, err := gh.Do(ctx, req, &raw); err != nil {
		return nil, nil, err
	}

	var fc *gogithub.RepositoryContent
	if err := json.Unmarshal(raw, &fc); err == nil {
		return fc, nil, nil
	}
	var dc []*gogithub.RepositoryContent
	if err := json.Unmarshal(raw, &dc); err != nil {
		return nil, nil, fmt.Errorf("unmarshal contents of %q: %w", path, err)
	}
	return nil, dc, nil
}

func needsDownload(fc *gogithub.RepositoryContent) bool {
	if fc.GetDownloadURL() == "" {
		return false
	}
	return fc.GetEncoding() == "none" || (fc.Content == nil && fc.GetSize() > 0)
}

// download performs the secondary fetch through the go-github client's own
// http.Client so the request carries the credential.
func (a *Adapter) download(ctx context.Context, gh *gogithub.Client, path, downloadURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, http.NoBody)
	if err != nil {
		return "", &convert.UpstreamError{Kind: convert.KindUpstreamTransport, Op: "download file", Path: path, Err: err}
	}

	resp, err := gh.Client().Do(req)
	if err != nil {
		return "", classify("download file", path, err)
	}
	defer func() { _ = resp.Body.Close() }() //nolint:errcheck // non-actionable after reading

	if resp.StatusCode != http.StatusOK {
		return "", &convert.UpstreamError{
			Kind: kindForStatus(resp.StatusCode, resp.Header),
			Op:   "download file",
			Path: path,
			Err:  fmt.Errorf("GET %s returned %d", downloadURL, resp.StatusCode),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", classify("download file", path, err)
	}
	return string(body), nil
}

func toNode(c *gogithub.RepositoryContent) convert.TreeNode {
	kind := convert.NodeUnknown
	switch c.GetType() {
	case "file":
		kind = convert.NodeFile
	case "dir":
		kind = convert.NodeDirectory
	case "symlink":
		kind = convert.NodeSymlink
	case "submodule":
		kind = convert.NodeSubmodule
	}
	return convert.TreeNode{Path: c.GetPath(), Kind: kind}
}

// classify maps a go-github or transport error onto the upstream error taxonomy.
func classify(op, path string, err error) error {
	kind := convert.KindUpstreamTransport

	var rateErr *gogithub.RateLimitError
	var abuseErr *gogithub.AbuseRateLimitError
	var respErr *gogithub.ErrorResponse
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = convert.KindUpstreamTimeout
	case errors.As(err, &rateErr), errors.As(err, &abuseErr):
		kind = convert.KindUpstreamRateLimited
	case errors.As(err, &respErr) && respErr.Response != nil:
		kind = kindForStatus(respErr.Response.StatusCode, respErr.Response.Header)
	}
	return &convert.UpstreamError{Kind: kind, Op: op, Path: path, Err: err}
}

func kindForStatus(code int, h http.Header) convert.ErrorKind {
	switch {
	case code == http.StatusTooManyRequests:
		return convert.KindUpstreamRateLimited
	case code == http.StatusForbidden && h.Get("X-RateLimit-Remaining") == "0":
		return convert.KindUpstreamRateLimited
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return convert.KindUpstreamUnauthorized
	case code == http.StatusNotFound:
		return convert.KindUpstreamNotFound
	default:
		return convert.KindUpstreamTransport
	}
}
