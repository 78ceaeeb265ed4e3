package github

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/tilsley/repomark/apps/server/internal/convert"
)

// Compile-time check: *InMem implements convert.ContentFetcher.
var _ convert.ContentFetcher = (*InMem)(nil)

type inmemEntry struct {
	path    string
	kind    convert.NodeKind
	content string
}

type inmemRepo struct {
	meta    convert.RepoMetadata
	entries []inmemEntry // insertion order is listing order
}

// InMem is an in-memory convert.ContentFetcher for unit tests. Directory
// listings follow the order entries were added, and every call is counted.
type InMem struct {
	mu         sync.Mutex
	repos      map[string]*inmemRepo // "owner/repo"
	failures   map[string]error      // "owner/repo/path" -> error
	listCalls  map[string]int        // "owner/repo/path"
	fetchCalls map[string]int        // "owner/repo/path"
	creds      []string
}

// NewInMem creates an empty InMem fetcher.
func NewInMem() *InMem {
	return &InMem{
		repos:      make(map[string]*inmemRepo),
		failures:   make(map[string]error),
		listCalls:  make(map[string]int),
		fetchCalls: make(map[string]int),
	}
}

// SetRepo registers a repository with its metadata.
func (m *InMem) SetRepo(owner, repo, name, description string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.repo(owner, repo)
	r.meta = convert.RepoMetadata{Name: name, Description: description}
}

// SetFile seeds a file. Parent directories are implied.
func (m *InMem) SetFile(owner, repo, path, content string) {
	m.SetNode(owner, repo, path, convert.NodeFile, content)
}

// SetNode seeds an entry of any kind, e.g. a symlink or submodule.
func (m *InMem) SetNode(owner, repo, path string, kind convert.NodeKind, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.repo(owner, repo)
	r.entries = append(r.entries, inmemEntry{path: path, kind: kind, content: content})
}

// SetDir seeds a directory, which may stay empty.
func (m *InMem) SetDir(owner, repo, path string) {
	m.SetNode(owner, repo, path, convert.NodeDirectory, "")
}

// FailOn makes every list or fetch of path return err.
func (m *InMem) FailOn(owner, repo, path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[owner+"/"+repo+"/"+path] = err
}

// FailRepo makes GetRepository return err.
func (m *InMem) FailRepo(owner, repo string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[owner+"/"+repo] = err
}

// ListCalls returns how many times path was listed.
func (m *InMem) ListCalls(owner, repo, path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listCalls[owner+"/"+repo+"/"+path]
}

// FetchCalls returns how many times the file at path was fetched.
func (m *InMem) FetchCalls(owner, repo, path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetchCalls[owner+"/"+repo+"/"+path]
}

// CallsUnder returns the total list and fetch calls for path and everything below it.
func (m *InMem) CallsUnder(owner, repo, path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := owner + "/" + repo + "/" + path
	total := 0
	for _, calls := range []map[string]int{m.listCalls, m.fetchCalls} {
		for k, n := range calls {
			if k == key || strings.HasPrefix(k, key+"/") {
				total += n
			}
		}
	}
	return total
}

// Credentials returns every credential seen, in call order.
func (m *InMem) Credentials() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.creds))
	copy(out, m.creds)
	return out
}

// GetRepository returns the seeded metadata or an UpstreamNotFound error.
func (m *InMem) GetRepository(_ context.Context, owner, repo, credential string) (*convert.RepoMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = append(m.creds, credential)
	key := owner + "/" + repo
	if err := m.failures[key]; err != nil {
		return nil, err
	}
	r, ok := m.repos[key]
	if !ok {
		return nil, notFound("get repository", key)
	}
	meta := r.meta
	return &meta, nil
}

// ListDirectory returns the immediate children of dirPath in insertion order,
// or a single node when dirPath names a file.
func (m *InMem) ListDirectory(_ context.Context, owner, repo, dirPath, credential string) ([]convert.TreeNode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = append(m.creds, credential)
	key := owner + "/" + repo
	m.listCalls[key+"/"+dirPath]++
	if err := m.failures[key+"/"+dirPath]; err != nil {
		return nil, err
	}
	r, ok := m.repos[key]
	if !ok {
		return nil, notFound("list directory", dirPath)
	}

	explicitDir := false
	for _, e := range r.entries {
		if e.path != dirPath {
			continue
		}
		if e.kind == convert.NodeDirectory {
			explicitDir = true
			continue
		}
		return []convert.TreeNode{{Path: e.path, Kind: e.kind}}, nil
	}

	prefix := dirPath
	if prefix != "" {
		prefix += "/"
	}
	seen := make(map[string]bool)
	nodes := []convert.TreeNode{}
	for _, e := range r.entries {
		if !strings.HasPrefix(e.path, prefix) {
			continue
		}
		name, _, isDir := strings.Cut(e.path[len(prefix):], "/")
		if seen[name] {
			continue
		}
		seen[name] = true
		kind := e.kind
		if isDir {
			kind = convert.NodeDirectory
		}
		nodes = append(nodes, convert.TreeNode{Path: prefix + name, Kind: kind})
	}
	if len(nodes) == 0 && dirPath != "" && !explicitDir {
		return nil, notFound("list directory", dirPath)
	}
	return nodes, nil
}

// FetchFileContent returns the content seeded for path.
func (m *InMem) FetchFileContent(_ context.Context, owner, repo, path, credential string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = append(m.creds, credential)
	key := owner + "/" + repo
	m.fetchCalls[key+"/"+path]++
	if err := m.failures[key+"/"+path]; err != nil {
		return "", err
	}
	if r, ok := m.repos[key]; ok {
		for _, e := range r.entries {
			if e.path == path && e.kind == convert.NodeFile {
				return e.content, nil
			}
		}
	}
	return "", notFound("fetch file", path)
}

func (m *InMem) repo(owner, repo string) *inmemRepo {
	key := owner + "/" + repo
	r, ok := m.repos[key]
	if !ok {
		r = &inmemRepo{meta: convert.RepoMetadata{Name: repo}}
		m.repos[key] = r
	}
	return r
}

func notFound(op, path string) error {
	return &convert.UpstreamError{
		Kind: convert.KindUpstreamNotFound,
		Op:   op,
		Path: path,
		Err:  fmt.Errorf("%s not found", path),
	}
}
