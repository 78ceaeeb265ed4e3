package main

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	s := newStore()
	seedRepos(s)
	srv := &server{store: s, log: slog.Default(), baseURL: "http://mock", largeFile: defaultLargeFile}
	r := gin.New()
	srv.registerRoutes(r)
	return r
}

func get(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ─── contents ────────────────────────────────────────────────────────────────

func TestContents_RootListing_SortedArray(t *testing.T) {
	w := get(newRouter(t), "/repos/acme/widgets/contents/", "t")

	require.Equal(t, http.StatusOK, w.Code)
	var entries []Entry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	var names []string
	kinds := map[string]string{}
	for _, e := range entries {
		names = append(names, e.Name)
		kinds[e.Name] = e.Type
	}
	assert.Equal(t, []string{".gitignore", "Makefile", "README.md", "assets", "cmd", "docs", "go.mod", "internal", "testdata", "third_party", "vendor"}, names)
	assert.Equal(t, "dir", kinds["cmd"])
	assert.Equal(t, "file", kinds["go.mod"])
}

func TestContents_NestedSpecialEntries(t *testing.T) {
	w := get(newRouter(t), "/repos/acme/widgets/contents/third_party", "t")

	require.Equal(t, http.StatusOK, w.Code)
	var entries []Entry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "submodule", entries[0].Type)
	assert.Equal(t, "third_party/ui", entries[0].Path)
}

func TestContents_File_Base64Object(t *testing.T) {
	w := get(newRouter(t), "/repos/acme/notes/contents/README.md", "t")

	require.Equal(t, http.StatusOK, w.Code)
	var e Entry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	assert.Equal(t, "base64", e.Encoding)
	raw, err := base64.StdEncoding.DecodeString(*e.Content)
	require.NoError(t, err)
	assert.Equal(t, "Hello", string(raw))
}

func TestContents_LargeFile_DownloadURLOnly(t *testing.T) {
	r := newRouter(t)
	w := get(r, "/repos/acme/widgets/contents/testdata/large.txt", "t")

	require.Equal(t, http.StatusOK, w.Code)
	var e Entry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	assert.Equal(t, "none", e.Encoding)
	assert.Empty(t, *e.Content)
	require.NotNil(t, e.DownloadURL)

	u, err := url.Parse(*e.DownloadURL)
	require.NoError(t, err)
	raw := get(r, u.Path, "t")
	require.Equal(t, http.StatusOK, raw.Code)
	assert.True(t, strings.HasPrefix(raw.Body.String(), "the quick brown fox"))
	assert.Greater(t, raw.Body.Len(), defaultLargeFile)
}

func TestContents_EmptyRepo_EmptyArray(t *testing.T) {
	w := get(newRouter(t), "/repos/acme/empty/contents/", "t")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestContents_MissingPath_404(t *testing.T) {
	w := get(newRouter(t), "/repos/acme/widgets/contents/nope", "t")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// ─── auth ────────────────────────────────────────────────────────────────────

func TestAPI_NoToken_401(t *testing.T) {
	w := get(newRouter(t), "/repos/acme/widgets", "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAPI_RateLimitedToken_403WithHeaders(t *testing.T) {
	w := get(newRouter(t), "/repos/acme/widgets", "rate-limited")

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
}

func TestRepo_NullDescription(t *testing.T) {
	w := get(newRouter(t), "/repos/acme/notes", "t")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"name":"notes","full_name":"acme/notes","description":null}`, w.Body.String())
}

// ─── oauth ───────────────────────────────────────────────────────────────────

func TestOAuth_AuthorizeThenExchange(t *testing.T) {
	r := newRouter(t)

	w := get(r, "/login/oauth/authorize?client_id=abc&state=s1&redirect_uri="+url.QueryEscape("http://app/api/oauth/callback"), "")
	require.Equal(t, http.StatusFound, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "s1", loc.Query().Get("state"))
	code := loc.Query().Get("code")

	req := httptest.NewRequest(http.MethodPost, "/login/oauth/access_token", strings.NewReader(url.Values{"code": {code}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	tok := httptest.NewRecorder()
	r.ServeHTTP(tok, req)

	require.Equal(t, http.StatusOK, tok.Code)
	assert.Contains(t, tok.Body.String(), `"access_token":"gho_mock_abc"`)
}
