package main

import (
	"encoding/base64"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

// defaultLargeFile mirrors the size above which GitHub's contents API stops
// inlining file bodies and answers with encoding "none".
const defaultLargeFile = 1 << 20

// Entry is one object in a GitHub contents API response.
type Entry struct {
	Name        string  `json:"name"`
	Path        string  `json:"path"`
	Type        string  `json:"type"` // "file", "dir", "symlink" or "submodule"
	Size        int     `json:"size"`
	Encoding    string  `json:"encoding,omitempty"`
	Content     *string `json:"content,omitempty"`
	DownloadURL *string `json:"download_url"`
}

type repoData struct {
	description string
	files       map[string]string // path → content
	special     map[string]string // path → "symlink" | "submodule"
}

// store holds seeded repositories keyed by "owner/repo".
type store struct {
	mu    sync.RWMutex
	repos map[string]*repoData
}

func newStore() *store {
	return &store{repos: make(map[string]*repoData)}
}

func (s *store) repo(owner, repo string) (*repoData, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.repos[owner+"/"+repo]
	return r, ok
}

func (s *store) names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.repos))
	for k := range s.repos {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// listDir returns the immediate children of dirPath sorted by name, the way
// GitHub's GET /repos/:owner/:repo/contents/:path does for a directory.
func (r *repoData) listDir(dirPath string) []Entry {
	prefix := dirPath
	if prefix != "" {
		prefix += "/"
	}

	seen := map[string]bool{}
	entries := []Entry{}
	add := func(p, typ string, size int) {
		if !strings.HasPrefix(p, prefix) {
			return
		}
		name, _, nested := strings.Cut(p[len(prefix):], "/")
		if seen[name] {
			return
		}
		seen[name] = true
		if nested {
			typ, size = "dir", 0
		}
		entries = append(entries, Entry{Name: name, Path: prefix + name, Type: typ, Size: size})
	}
	for p, content := range r.files {
		add(p, "file", len(content))
	}
	for p, typ := range r.special {
		add(p, typ, 0)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}

type server struct {
	store     *store
	log       *slog.Logger
	baseURL   string
	largeFile int
}

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	s := newStore()
	seedRepos(s)
	log.Info("seeded repos", "repos", len(s.repos))

	port := envOr("PORT", "9090")
	largeFile, err := strconv.Atoi(envOr("LARGE_FILE_BYTES", strconv.Itoa(defaultLargeFile)))
	if err != nil {
		log.Error("invalid LARGE_FILE_BYTES", "error", err)
		os.Exit(1)
	}
	srv := &server{
		store:     s,
		log:       log,
		baseURL:   envOr("PUBLIC_URL", "http://localhost:"+port),
		largeFile: largeFile,
	}

	r := gin.Default()
	srv.registerRoutes(r)

	log.Info("mock-github starting", "port", port, "publicUrl", srv.baseURL)
	if err := r.Run(":" + port); err != nil {
		log.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func (srv *server) registerRoutes(r *gin.Engine) {
	r.GET("/", srv.index)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// OAuth web flow.
	r.GET("/login/oauth/authorize", srv.authorize)
	r.POST("/login/oauth/access_token", srv.accessToken)

	// REST API, as called by go-github.
	api := r.Group("/", srv.requireToken)
	api.GET("/repos/:owner/:repo", srv.getRepo)
	api.GET("/repos/:owner/:repo/contents/*path", srv.getContents)
	api.GET("/raw/:owner/:repo/*path", srv.getRaw)
}

// requireToken answers like GitHub for anonymous or throttled callers. The
// token "rate-limited" simulates an exhausted quota.
func (srv *server) requireToken(c *gin.Context) {
	fields := strings.Fields(c.GetHeader("Authorization"))
	if len(fields) < 2 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Requires authentication"})
		return
	}
	if fields[1] == "rate-limited" {
		c.Header("X-RateLimit-Limit", "5000")
		c.Header("X-RateLimit-Remaining", "0")
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "API rate limit exceeded"})
		return
	}
	c.Next()
}

func (srv *server) getRepo(c *gin.Context) {
	owner, name := c.Param("owner"), c.Param("repo")
	r, ok := srv.store.repo(owner, name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Not Found"})
		return
	}
	var desc *string
	if r.description != "" {
		desc = &r.description
	}
	c.JSON(http.StatusOK, gin.H{
		"name":        name,
		"full_name":   owner + "/" + name,
		"description": desc,
	})
}

// getContents returns a single file object for an exact path match or an
// array for a directory, mirroring the two shapes of the real API.
func (srv *server) getContents(c *gin.Context) {
	owner, name := c.Param("owner"), c.Param("repo")
	path := strings.Trim(c.Param("path"), "/")
	r, ok := srv.store.repo(owner, name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Not Found"})
		return
	}

	if content, ok := r.files[path]; ok {
		c.JSON(http.StatusOK, srv.fileEntry(owner, name, path, content))
		return
	}
	if typ, ok := r.special[path]; ok {
		c.JSON(http.StatusOK, Entry{Name: baseName(path), Path: path, Type: typ})
		return
	}

	entries := r.listDir(path)
	if len(entries) == 0 && path != "" {
		c.JSON(http.StatusNotFound, gin.H{"message": "Not Found"})
		return
	}
	for i := range entries {
		if entries[i].Type == "file" {
			u := srv.rawURL(owner, name, entries[i].Path)
			entries[i].DownloadURL = &u
		}
	}
	c.JSON(http.StatusOK, entries)
}

func (srv *server) fileEntry(owner, repo, path, content string) Entry {
	u := srv.rawURL(owner, repo, path)
	e := Entry{Name: baseName(path), Path: path, Type: "file", Size: len(content), DownloadURL: &u}
	if len(content) > srv.largeFile {
		empty := ""
		e.Encoding, e.Content = "none", &empty
		return e
	}
	encoded := base64.StdEncoding.EncodeToString([]byte(content))
	e.Encoding, e.Content = "base64", &encoded
	return e
}

func (srv *server) getRaw(c *gin.Context) {
	r, ok := srv.store.repo(c.Param("owner"), c.Param("repo"))
	if !ok {
		c.String(http.StatusNotFound, "404: Not Found")
		return
	}
	content, ok := r.files[strings.TrimPrefix(c.Param("path"), "/")]
	if !ok {
		c.String(http.StatusNotFound, "404: Not Found")
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(content))
}

func (srv *server) rawURL(owner, repo, path string) string {
	return fmt.Sprintf("%s/raw/%s/%s/%s", srv.baseURL, owner, repo, path)
}

// authorize skips the consent screen and sends the browser straight back
// with a code derived from the client ID.
func (srv *server) authorize(c *gin.Context) {
	redirect := c.Query("redirect_uri")
	if redirect == "" {
		c.String(http.StatusBadRequest, "redirect_uri is required")
		return
	}
	u, err := url.Parse(redirect)
	if err != nil {
		c.String(http.StatusBadRequest, "invalid redirect_uri")
		return
	}
	q := u.Query()
	q.Set("code", "mock-code-"+c.Query("client_id"))
	if state := c.Query("state"); state != "" {
		q.Set("state", state)
	}
	u.RawQuery = q.Encode()
	srv.log.Info("oauth authorize", "clientId", c.Query("client_id"))
	c.Redirect(http.StatusFound, u.String())
}

// accessToken exchanges any mock code for a token. Client credentials may
// arrive as form fields or HTTP basic auth.
func (srv *server) accessToken(c *gin.Context) {
	code := c.PostForm("code")
	if !strings.HasPrefix(code, "mock-code-") {
		c.JSON(http.StatusOK, gin.H{
			"error":             "bad_verification_code",
			"error_description": "The code passed is incorrect or expired.",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token": "gho_mock_" + strings.TrimPrefix(code, "mock-code-"),
		"token_type":   "bearer",
		"scope":        "repo",
	})
}

func (srv *server) index(c *gin.Context) {
	var rows strings.Builder
	for _, name := range srv.store.names() {
		owner, repo, _ := strings.Cut(name, "/")
		r, _ := srv.store.repo(owner, repo)
		fmt.Fprintf(&rows, `<tr><td style="padding:8px 16px;"><code>%s</code></td><td style="padding:8px 16px;color:#8b949e;">%s</td><td style="padding:8px 16px;">%d files</td></tr>`,
			html.EscapeString(name), html.EscapeString(r.description), len(r.files))
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(`<!DOCTYPE html>
<html>
<head><title>Mock GitHub</title></head>
<body style="background:#0d1117;color:#c9d1d9;font-family:-apple-system,Helvetica,Arial,sans-serif;">
  <div style="max-width:860px;margin:0 auto;padding:32px 16px;">
    <h1 style="font-size:20px;font-weight:600;margin-bottom:24px;">Repositories</h1>
    <table style="width:100%;border-collapse:collapse;background:#161b22;">`+rows.String()+`</table>
  </div>
</body>
</html>`))
}

func baseName(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
